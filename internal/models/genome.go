// Package models defines the transport types shared by the catalog, service and API.
package models

import "time"

// LibraryFile is a FASTA file in the library directory.
type LibraryFile struct {
	Path        string    `json:"path"`
	Checksum    string    `json:"checksum"`
	GenomeCount int       `json:"genome_count"`
	TotalBases  int       `json:"total_bases"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// FileMetadata is the lightweight listing entry produced by storage.
type FileMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GenomeInfo describes one catalogued genome.
type GenomeInfo struct {
	Name    string `json:"name"`
	Path    string `json:"path"`
	Ordinal int    `json:"ordinal"`
	Length  int    `json:"length"`
}
