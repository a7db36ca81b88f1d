package publisher

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/tidwall/gjson"

	"github.com/starford/mosaic/internal/apperr"
	"github.com/starford/mosaic/internal/checksum"
	"github.com/starford/mosaic/internal/dataset"
	"github.com/starford/mosaic/internal/storage"
)

// DefaultTimeout bounds a single upstream request.
const DefaultTimeout = 30 * time.Second

// maxBody caps the upstream document size.
const maxBody = 64 << 20

// Downloader fetches the upstream document once, without retries.
type Downloader struct {
	URL        string
	Collection string
	Client     *http.Client
}

// NewDownloader creates a downloader with its own client.
func NewDownloader(url, collection string, timeout time.Duration) *Downloader {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if collection == "" {
		collection = dataset.DefaultCollection
	}
	return &Downloader{URL: url, Collection: collection, Client: &http.Client{Timeout: timeout}}
}

// Download is the outcome of a successful fetch.
type Download struct {
	Name     string
	Checksum string
	Entries  int
}

// Fetch retrieves and validates the upstream document.
func (d *Downloader) Fetch(ctx context.Context) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.URL, nil)
	if err != nil {
		return nil, 0, errors.Wrapf(apperr.ErrDownloadFailed, "build request: %v", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := d.Client.Do(req)
	if err != nil {
		return nil, 0, errors.Wrapf(apperr.ErrDownloadFailed, "GET %s: %v", d.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, 0, errors.Wrapf(apperr.ErrDownloadFailed, "GET %s: status %s", d.URL, resp.Status)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody+1))
	if err != nil {
		return nil, 0, errors.Wrapf(apperr.ErrDownloadFailed, "read body: %v", err)
	}
	if len(body) > maxBody {
		return nil, 0, errors.Wrapf(apperr.ErrDownloadFailed, "body exceeds %d bytes", maxBody)
	}

	if !gjson.ValidBytes(body) {
		return nil, 0, errors.Wrap(apperr.ErrDownloadFailed, "body is not valid JSON")
	}
	if coll := gjson.GetBytes(body, d.Collection); !coll.IsArray() {
		return nil, 0, errors.Wrapf(apperr.ErrDownloadFailed, "body has no %q array", d.Collection)
	}
	entries, err := dataset.Decode(body, d.Collection)
	if err != nil {
		return nil, 0, errors.Wrapf(apperr.ErrDownloadFailed, "%v", err)
	}
	return body, len(entries), nil
}

// DownloadTo fetches the document and writes it to name. On any failure the
// partially written file is removed and the live dataset is never touched.
func (d *Downloader) DownloadTo(ctx context.Context, fs storage.Provider, name string) (Download, error) {
	body, n, err := d.Fetch(ctx)
	if err != nil {
		return Download{}, err
	}
	if err := fs.Write(name, body); err != nil {
		if ok, _ := fs.Exists(name); ok {
			_ = fs.Remove(name)
		}
		return Download{}, errors.Wrapf(apperr.ErrDownloadFailed, "write %s: %v", name, err)
	}
	return Download{Name: name, Checksum: checksum.Sum(body), Entries: n}, nil
}
