package api

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/genomatch/internal/library"
	"github.com/starford/genomatch/internal/matcher"
	"github.com/starford/genomatch/internal/models"
)

const maxQueryBody = 64 << 20

// Handler holds API route handlers.
type Handler struct {
	svc *library.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *library.Service) *Handler {
	return &Handler{svc: svc}
}

// genomeName extracts the {name} URL parameter. Names may contain spaces and
// other escaped characters.
func genomeName(r *http.Request) string {
	raw := chi.URLParam(r, "name")
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxQueryBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		render(w, r, http.StatusBadRequest, errorBody("invalid JSON body"))
		return false
	}
	return true
}

// ListGenomes handles GET /api/genomes.
//
//	@Summary		List catalogued genomes
//	@Tags			genomes
//	@Produce		json
//	@Param			limit	query		int		false	"Page size"
//	@Param			offset	query		int		false	"Page offset"
//	@Success		200		{object}	GenomeListResponse
//	@Security		BearerAuth
//	@Router			/genomes [get]
func (h *Handler) ListGenomes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	items, total, err := h.svc.ListGenomes(r.Context(), limit, offset)
	if err != nil {
		renderError(w, r, "list genomes", err)
		return
	}
	if items == nil {
		items = []models.GenomeInfo{}
	}
	render(w, r, http.StatusOK, GenomeListResponse{Genomes: items, Total: total})
}

// GetGenome handles GET /api/genomes/{name}.
//
//	@Summary		Get catalog information for a genome
//	@Tags			genomes
//	@Produce		json
//	@Param			name	path		string	true	"Genome name"
//	@Success		200		{object}	models.GenomeInfo
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/genomes/{name} [get]
func (h *Handler) GetGenome(w http.ResponseWriter, r *http.Request) {
	info, err := h.svc.GetGenome(r.Context(), genomeName(r))
	if err != nil {
		renderError(w, r, "get genome", err)
		return
	}
	render(w, r, http.StatusOK, info)
}

// Extract handles GET /api/genomes/{name}/extract.
//
//	@Summary		Extract a substring of a genome
//	@Tags			genomes
//	@Produce		json
//	@Param			name	path		string	true	"Genome name"
//	@Param			pos		query		int		true	"Start position (0-based)"
//	@Param			len		query		int		true	"Number of bases"
//	@Success		200		{object}	ExtractResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/genomes/{name}/extract [get]
func (h *Handler) Extract(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	pos, err1 := strconv.Atoi(q.Get("pos"))
	n, err2 := strconv.Atoi(q.Get("len"))
	if err1 != nil || err2 != nil {
		render(w, r, http.StatusBadRequest, errorBody("query parameters 'pos' and 'len' must be integers"))
		return
	}
	name := genomeName(r)
	bases, err := h.svc.Extract(r.Context(), name, pos, n)
	if err != nil {
		renderError(w, r, "extract", err)
		return
	}
	render(w, r, http.StatusOK, ExtractResponse{Genome: name, Position: pos, Length: n, Bases: bases})
}

// SearchNames handles GET /api/search.
//
//	@Summary		Search genome names
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) SearchNames(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		render(w, r, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.SearchNames(r.Context(), q, limit)
	if err != nil {
		renderError(w, r, "search", err)
		return
	}
	if results == nil {
		results = []models.GenomeInfo{}
	}
	render(w, r, http.StatusOK, SearchResponse{Results: results})
}

// FindFragment handles POST /api/search/fragment.
//
//	@Summary		Find a DNA fragment in every genome
//	@Tags			search
//	@Accept			json
//	@Produce		json,application/cbor
//	@Param			body	body		FragmentRequest	true	"Fragment query"
//	@Success		200		{object}	FragmentResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search/fragment [post]
func (h *Handler) FindFragment(w http.ResponseWriter, r *http.Request) {
	var req FragmentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		render(w, r, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	minLen := req.MinimumLength
	if minLen == 0 {
		minLen = h.svc.Status().MinimumSearchLength
	}
	matches, err := h.svc.FindFragment(r.Context(), req.Fragment, minLen, req.ExactOnly)
	if err != nil {
		renderError(w, r, "find fragment", err)
		return
	}
	render(w, r, http.StatusOK, FragmentResponse{Matches: matches})
}

// FindRelated handles POST /api/search/related.
//
//	@Summary		Rank genomes by shared fragments
//	@Tags			search
//	@Accept			json
//	@Produce		json,application/cbor
//	@Param			body	body		RelatedRequest	true	"Related query"
//	@Success		200		{object}	RelatedResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search/related [post]
func (h *Handler) FindRelated(w http.ResponseWriter, r *http.Request) {
	var req RelatedRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		render(w, r, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	fragLen := req.FragmentLength
	if fragLen == 0 {
		fragLen = h.svc.Status().MinimumSearchLength
	}

	var (
		matches []matcher.GenomeMatch
		err     error
	)
	if req.Genome != "" {
		matches, err = h.svc.FindRelatedByName(r.Context(), req.Genome, fragLen, req.ExactOnly, req.Threshold)
	} else {
		matches, err = h.svc.FindRelated(r.Context(), req.Sequence, fragLen, req.ExactOnly, req.Threshold)
	}
	if err != nil {
		renderError(w, r, "find related", err)
		return
	}
	render(w, r, http.StatusOK, RelatedResponse{Matches: matches})
}

// Status handles GET /api/status.
//
//	@Summary		Current index status
//	@Tags			library
//	@Produce		json
//	@Success		200	{object}	StatusResponse
//	@Security		BearerAuth
//	@Router			/status [get]
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	render(w, r, http.StatusOK, h.svc.Status())
}
