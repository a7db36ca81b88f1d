// Package apperr holds the sentinel errors shared across mosaic packages.
//
// Callers wrap these with errors.Wrap and check them with errors.Is.
package apperr

import "github.com/cockroachdb/errors"

var (
	// ErrNotFound is returned by front-ends when a query has no answer.
	ErrNotFound = errors.New("not found")

	// ErrDownloadFailed covers transport and decode failures of the upstream document.
	ErrDownloadFailed = errors.New("download failed")

	// ErrPublishFailed means the rename chain broke while swapping the live dataset.
	ErrPublishFailed = errors.New("publish failed")

	// ErrPublishFatal means the rename chain broke and no live dataset could be restored.
	ErrPublishFatal = errors.New("publish failed unrecoverably")

	// ErrUnavailable means no live dataset is present yet.
	ErrUnavailable = errors.New("dataset unavailable")

	// ErrDatasetCorrupt means the dataset file could not be parsed as a whole.
	ErrDatasetCorrupt = errors.New("dataset corrupt")

	// ErrMalformedToken means a navigation token could not be decoded.
	ErrMalformedToken = errors.New("malformed navigation token")

	// ErrInvalidField means a navigation token field cannot be encoded.
	ErrInvalidField = errors.New("invalid token field")
)
