package api

import (
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/genomatch/internal/library"
	"github.com/starford/genomatch/internal/matcher"
	"github.com/starford/genomatch/internal/models"
)

var basesRe = regexp.MustCompile(`^[ACGTNacgtn]+$`)

// FragmentRequest is the request body for a fragment search.
// A zero MinimumLength means the index minimum search length.
type FragmentRequest struct {
	Fragment      string `json:"fragment" example:"ACGTAC" validate:"required"`
	MinimumLength int    `json:"minimum_length" example:"10"`
	ExactOnly     bool   `json:"exact_only"`
}

// Validate validates the fragment request.
func (r *FragmentRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Fragment, validation.Required, validation.Match(basesRe).Error("must contain only A, C, G, T or N")),
		validation.Field(&r.MinimumLength, validation.Min(1)),
	)
}

// RelatedRequest is the request body for a related-genome search. Exactly
// one of Sequence and Genome is set.
type RelatedRequest struct {
	Sequence       string  `json:"sequence,omitempty" example:"ACGTACGTTT"`
	Genome         string  `json:"genome,omitempty" example:"Rosa canina"`
	FragmentLength int     `json:"fragment_length" example:"10"`
	ExactOnly      bool    `json:"exact_only"`
	Threshold      float64 `json:"threshold" example:"50"`
}

// Validate validates the related request.
func (r *RelatedRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Sequence,
			validation.When(r.Genome == "", validation.Required.Error("sequence or genome is required")),
			validation.When(r.Genome != "", validation.Empty.Error("must be empty when genome is set")),
			validation.Match(basesRe).Error("must contain only A, C, G, T or N"),
		),
		validation.Field(&r.FragmentLength, validation.Min(1)),
		validation.Field(&r.Threshold, validation.Min(0.0), validation.Max(100.0)),
	)
}

// FragmentResponse wraps fragment search results.
type FragmentResponse struct {
	Matches []matcher.DNAMatch `json:"matches" validate:"required"`
}

// RelatedResponse wraps related-genome results, best first.
type RelatedResponse struct {
	Matches []matcher.GenomeMatch `json:"matches" validate:"required"`
}

// GenomeListResponse wraps paginated genome listings.
type GenomeListResponse struct {
	Genomes []models.GenomeInfo `json:"genomes" validate:"required"`
	Total   int                 `json:"total" example:"42" validate:"required"`
}

// SearchResponse wraps name search results.
type SearchResponse struct {
	Results []models.GenomeInfo `json:"results" validate:"required"`
}

// ExtractResponse is a substring of a genome.
type ExtractResponse struct {
	Genome   string `json:"genome" example:"Rosa canina"`
	Position int    `json:"position" example:"0"`
	Length   int    `json:"length" example:"4"`
	Bases    string `json:"bases" example:"ACGT"`
}

// StatusResponse is the current index status (aliased from the domain layer).
type StatusResponse = library.Status

// FileUploadResponse is returned after a FASTA file is added (aliased from the models layer).
type FileUploadResponse = models.LibraryFile
