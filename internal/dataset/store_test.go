package dataset

import (
	"os"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/mosaic/internal/apperr"
	"github.com/starford/mosaic/internal/models"
	"github.com/starford/mosaic/internal/testutil"
)

func TestLoad(t *testing.T) {
	_, fs := testutil.TestDatasetDir(t)
	testutil.WriteDataset(t, fs, "mosaic.json",
		testutil.Rec("2023-01-05", "mosaic"),
		testutil.Rec("2023-01-01", "blog"),
	)
	s := NewStore(fs, "mosaic", "")

	entries, err := s.Load()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	// Source order is preserved.
	assert.Equal(t, models.Date{Year: 2023, Month: time.January, Day: 5}, entries[0].Date)
	assert.Equal(t, "blog", entries[1].Kind)
}

func TestLoad_MissingFile(t *testing.T) {
	_, fs := testutil.TestDatasetDir(t)
	s := NewStore(fs, "mosaic", "")

	_, err := s.Load()
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.True(t, errors.Is(err, apperr.ErrUnavailable))
	assert.NotErrorIs(t, err, apperr.ErrDatasetCorrupt)
}

func TestLoad_OneMalformedRecordFailsWholeLoad(t *testing.T) {
	_, fs := testutil.TestDatasetDir(t)
	testutil.WriteDataset(t, fs, "mosaic.json",
		testutil.Rec("2023-01-01", "mosaic"),
		testutil.Rec("2023-01-02", "mosaic").With("date", "2023-1-2"),
		testutil.Rec("2023-01-03", "mosaic"),
	)
	s := NewStore(fs, "mosaic", "")

	entries, err := s.Load()
	require.ErrorIs(t, err, apperr.ErrDatasetCorrupt)
	assert.Nil(t, entries)
	assert.Contains(t, err.Error(), "record 1")
}

func TestDecode_DocumentShape(t *testing.T) {
	cases := map[string]string{
		"not json":           `{"blog": [`,
		"missing collection": `{"posts": []}`,
		"collection object":  `{"blog": {"date": "2023-01-01"}}`,
		"collection null":    `{"blog": null}`,
		"top-level array":    `[]`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode([]byte(doc), "blog")
			assert.ErrorIs(t, err, apperr.ErrDatasetCorrupt)
		})
	}
}

func TestDecode_EmptyCollection(t *testing.T) {
	entries, err := Decode([]byte(`{"blog": []}`), "blog")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDecode_CustomCollection(t *testing.T) {
	entries, err := Decode([]byte(`{"items": [{"date": "2024-02-29", "kind": "mosaic"}]}`), "items")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "2024-02-29", entries[0].Date.String())
}

func TestPaths(t *testing.T) {
	p := NewPaths("mosaic")
	assert.Equal(t, "mosaic.json", p.Live)
	assert.Equal(t, "mosaic.bak", p.Backup)
	assert.Equal(t, "data.tmp", p.Scratch)
	assert.Equal(t, "mosaic_2024-03-01.json", p.Staging(models.Date{Year: 2024, Month: time.March, Day: 1}))

	assert.Equal(t, RoleLive, p.Role("mosaic.json"))
	assert.Equal(t, RoleBackup, p.Role("mosaic.bak"))
	assert.Equal(t, RoleScratch, p.Role("data.tmp"))
	assert.Equal(t, RoleStaging, p.Role("mosaic_2024-03-01.json"))
	assert.Equal(t, RoleOther, p.Role("mosaic_latest.json"))
	assert.Equal(t, RoleOther, p.Role("other.json"))
}

func TestFilesAndReady(t *testing.T) {
	_, fs := testutil.TestDatasetDir(t)
	s := NewStore(fs, "mosaic", "")

	ready, err := s.Ready()
	require.NoError(t, err)
	assert.False(t, ready)

	testutil.WriteDataset(t, fs, "mosaic.json")
	testutil.WriteDataset(t, fs, "mosaic.bak")

	ready, err = s.Ready()
	require.NoError(t, err)
	assert.True(t, ready)

	files, err := s.Files()
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, RoleBackup, files[0].Role)
	assert.Equal(t, RoleLive, files[1].Role)
}
