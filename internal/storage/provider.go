// Package storage defines the dataset directory file-system abstraction.
package storage

import "github.com/starford/mosaic/internal/models"

// Provider is the interface for dataset directory operations. All names are
// plain file names relative to the dataset directory.
type Provider interface {
	// Path returns the absolute path of name.
	Path(name string) (string, error)
	// Exists reports whether name is present.
	Exists(name string) (bool, error)
	// List returns metadata for every dataset file (.json, .bak, .tmp).
	List() ([]models.DatasetFile, error)
	// Read returns the raw bytes of name.
	Read(name string) ([]byte, error)
	// Write atomically writes content to name.
	Write(name string, content []byte) error
	// Remove deletes name.
	Remove(name string) error
	// Rename renames oldName to newName within the directory.
	Rename(oldName, newName string) error
}
