package publisher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/mosaic/internal/apperr"
	"github.com/starford/mosaic/internal/checksum"
	"github.com/starford/mosaic/internal/testutil"
)

func upstream(t *testing.T, status int, body []byte) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestDownloadTo(t *testing.T) {
	body := testutil.DatasetJSON(t, testutil.Rec("2023-01-01", "mosaic"), testutil.Rec("2023-01-02", "blog"))
	srv := upstream(t, http.StatusOK, body)
	_, fs := testutil.TestDatasetDir(t)

	dl, err := NewDownloader(srv.URL, "", time.Second).DownloadTo(context.Background(), fs, staging)
	require.NoError(t, err)
	assert.Equal(t, staging, dl.Name)
	assert.Equal(t, 2, dl.Entries)
	assert.Equal(t, checksum.Sum(body), dl.Checksum)

	got, err := fs.Read(staging)
	require.NoError(t, err)
	assert.Equal(t, body, got)
}

func TestDownloadTo_Failures(t *testing.T) {
	cases := map[string]struct {
		status int
		body   string
	}{
		"server error":       {http.StatusInternalServerError, `{"blog": []}`},
		"not found":          {http.StatusNotFound, ``},
		"invalid json":       {http.StatusOK, `{"blog": [`},
		"missing collection": {http.StatusOK, `{"posts": []}`},
		"collection object":  {http.StatusOK, `{"blog": {}}`},
		"malformed record":   {http.StatusOK, `{"blog": [{"date": "yesterday", "kind": "mosaic"}]}`},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			srv := upstream(t, tc.status, []byte(tc.body))
			_, fs := testutil.TestDatasetDir(t)

			_, err := NewDownloader(srv.URL, "blog", time.Second).DownloadTo(context.Background(), fs, staging)
			require.ErrorIs(t, err, apperr.ErrDownloadFailed)

			files, err := fs.List()
			require.NoError(t, err)
			assert.Empty(t, files)
		})
	}
}

func TestDownloadTo_Unreachable(t *testing.T) {
	srv := upstream(t, http.StatusOK, nil)
	url := srv.URL
	srv.Close()
	_, fs := testutil.TestDatasetDir(t)

	_, err := NewDownloader(url, "", time.Second).DownloadTo(context.Background(), fs, staging)
	assert.ErrorIs(t, err, apperr.ErrDownloadFailed)
}

func TestDownloadTo_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)
	_, fs := testutil.TestDatasetDir(t)

	_, err := NewDownloader(srv.URL, "", 50*time.Millisecond).DownloadTo(context.Background(), fs, staging)
	assert.ErrorIs(t, err, apperr.ErrDownloadFailed)
}

func TestNewDownloader_Defaults(t *testing.T) {
	d := NewDownloader("http://example.invalid", "", 0)
	assert.Equal(t, "blog", d.Collection)
	assert.Equal(t, DefaultTimeout, d.Client.Timeout)
}
