// Package dataset loads the published dataset file into entries.
//
// Every Load re-reads and re-parses the live file. Nothing is cached, so a
// reader sees either the dataset before or after a swap, never a mix.
package dataset

import (
	"encoding/json"
	"os"

	"github.com/cockroachdb/errors"

	"github.com/starford/mosaic/internal/apperr"
	"github.com/starford/mosaic/internal/models"
	"github.com/starford/mosaic/internal/storage"
)

// DefaultCollection is the top-level key holding the entry records.
const DefaultCollection = "blog"

// Store reads the live dataset from a storage provider.
type Store struct {
	fs         storage.Provider
	paths      Paths
	collection string
}

// NewStore creates a store for the dataset called name.
func NewStore(fs storage.Provider, name, collection string) *Store {
	if collection == "" {
		collection = DefaultCollection
	}
	return &Store{fs: fs, paths: NewPaths(name), collection: collection}
}

// Paths returns the file names of this dataset.
func (s *Store) Paths() Paths { return s.paths }

// Collection returns the top-level key of the record array.
func (s *Store) Collection() string { return s.collection }

// Provider returns the underlying file-system provider.
func (s *Store) Provider() storage.Provider { return s.fs }

// Load parses the live dataset file.
func (s *Store) Load() ([]models.Entry, error) {
	return s.LoadFile(s.paths.Live)
}

// LoadFile parses any dataset file in the directory, e.g. the backup.
func (s *Store) LoadFile(name string) ([]models.Entry, error) {
	data, err := s.fs.Read(name)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			err = errors.Mark(err, apperr.ErrUnavailable)
		}
		return nil, errors.Wrapf(err, "dataset: load %s", name)
	}
	entries, err := Decode(data, s.collection)
	if err != nil {
		return nil, errors.Wrapf(err, "dataset: load %s", name)
	}
	return entries, nil
}

// Ready reports whether a live dataset file exists.
func (s *Store) Ready() (bool, error) {
	return s.fs.Exists(s.paths.Live)
}

// Files lists the dataset directory with each file's role.
func (s *Store) Files() ([]models.DatasetFile, error) {
	files, err := s.fs.List()
	if err != nil {
		return nil, err
	}
	for i := range files {
		files[i].Role = s.paths.Role(files[i].Name)
	}
	return files, nil
}

// Decode parses a dataset document. Parsing is all-or-nothing: a single
// malformed record fails the whole document with apperr.ErrDatasetCorrupt.
func Decode(data []byte, collection string) ([]models.Entry, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrapf(apperr.ErrDatasetCorrupt, "document: %v", err)
	}
	raw, ok := doc[collection]
	if !ok {
		return nil, errors.Wrapf(apperr.ErrDatasetCorrupt, "document: missing %q collection", collection)
	}
	var records []json.RawMessage
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, errors.Wrapf(apperr.ErrDatasetCorrupt, "document: %q is not an array: %v", collection, err)
	}
	if records == nil {
		return nil, errors.Wrapf(apperr.ErrDatasetCorrupt, "document: %q is null", collection)
	}

	entries := make([]models.Entry, 0, len(records))
	for i, rec := range records {
		e, err := models.DecodeEntry(rec)
		if err != nil {
			return nil, errors.WithDetailf(
				errors.Wrapf(apperr.ErrDatasetCorrupt, "record %d: %v", i, err),
				"collection %q holds %d records", collection, len(records))
		}
		entries = append(entries, e)
	}
	return entries, nil
}
