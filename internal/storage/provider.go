// Package storage defines the FASTA library file-system abstraction.
package storage

import "github.com/starford/genomatch/internal/models"

// Provider is the interface for library file operations.
type Provider interface {
	// List returns metadata for every FASTA file under dir (relative to library root).
	List(dir string) ([]models.FileMetadata, error)
	// Exists reports whether a regular file is present at path.
	Exists(path string) (bool, error)
	// Read returns the raw (possibly compressed) bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path (relative to library root).
	Write(path string, content []byte) error
	// Delete removes the file at path (relative to library root).
	Delete(path string) error
}
