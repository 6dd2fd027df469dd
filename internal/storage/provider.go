// Package storage defines the artifact file-system abstraction.
package storage

import "github.com/starford/seopress/internal/models"

// Provider is the interface for artifact file operations. Paths are
// relative to the store root.
type Provider interface {
	// List returns metadata for every artifact file under dir.
	List(dir string) ([]models.FileMetadata, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Create publishes content at path only if nothing exists there yet.
	// It fails with apperr.ErrAlreadyExists otherwise.
	Create(path string, content []byte) error
}
