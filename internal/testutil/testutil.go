// Package testutil provides shared test helpers for dataset directories,
// dataset fixtures and journal databases.
package testutil

import (
	"encoding/json"
	"os"
	"testing"

	"github.com/starford/mosaic/internal/journal"
	"github.com/starford/mosaic/internal/storage"
)

// Record is one raw dataset record as it appears in the upstream document.
type Record map[string]any

// Rec builds a record with English and German title/text and no media.
func Rec(date, kind string) Record {
	return Record{
		"date":       date,
		"kind":       kind,
		"media_type": "none",
		"title_en":   "Entry " + date,
		"title_de":   "Eintrag " + date,
		"text_en":    "Text of " + date,
		"text_de":    "Text vom " + date,
		"permalink":  "https://example.org/" + date,
	}
}

// With returns a copy of r with key set to value.
func (r Record) With(key string, value any) Record {
	out := make(Record, len(r)+1)
	for k, v := range r {
		out[k] = v
	}
	out[key] = value
	return out
}

// DatasetJSON encodes records as a dataset document under the "blog" key.
func DatasetJSON(t *testing.T, records ...Record) []byte {
	t.Helper()
	if records == nil {
		records = []Record{}
	}
	data, err := json.Marshal(map[string]any{"blog": records})
	if err != nil {
		t.Fatal(err)
	}
	return data
}

// TestDatasetDir creates a temporary dataset directory with a storage provider.
func TestDatasetDir(t *testing.T) (string, *storage.FS) {
	t.Helper()
	dir := t.TempDir()
	fs, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, fs
}

// WriteDataset writes records to name inside the provider.
func WriteDataset(t *testing.T, fs storage.Provider, name string, records ...Record) {
	t.Helper()
	if err := fs.Write(name, DatasetJSON(t, records...)); err != nil {
		t.Fatal(err)
	}
}

// TestJournal creates a temporary SQLite journal that is automatically cleaned up.
func TestJournal(t *testing.T) *journal.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "mosaic-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := journal.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}
