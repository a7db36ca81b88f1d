// Package publisher downloads the upstream dataset and swaps it into place
// through a crash-safe rename chain.
//
// Publish is single-writer. Overlapping calls on the same dataset directory
// are undefined behaviour; Scheduler never overlaps runs.
package publisher

import (
	"context"
	"log/slog"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/starford/mosaic/internal/checksum"
	"github.com/starford/mosaic/internal/dataset"
	"github.com/starford/mosaic/internal/models"
	"github.com/starford/mosaic/internal/storage"
)

// Recorder persists publish runs. Errors are logged, never fatal.
type Recorder interface {
	RecordStart(ctx context.Context, run models.PublishRun) error
	RecordFinish(ctx context.Context, run models.PublishRun) error
}

// Fetcher writes a validated upstream document to a file in fs.
type Fetcher interface {
	DownloadTo(ctx context.Context, fs storage.Provider, name string) (Download, error)
}

// Result describes a publish that left a verified-good live dataset.
type Result struct {
	RunID    string               `json:"run_id"`
	Status   models.PublishStatus `json:"status"`
	Staging  string               `json:"staging"`
	Checksum string               `json:"checksum,omitempty"`
	Entries  int                  `json:"entries"`
	Cause    error                `json:"-"`
}

// Publisher runs download and activation for one dataset.
type Publisher struct {
	fs        storage.Provider
	paths     dataset.Paths
	fetcher   Fetcher
	activator *Activator
	recorder  Recorder
	log       *slog.Logger
	now       func() time.Time
	loc       *time.Location
	onPublish []func(Result)
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithRecorder journals every run.
func WithRecorder(r Recorder) Option {
	return func(p *Publisher) { p.recorder = r }
}

// WithClock replaces time.Now for run timestamps and staging names.
func WithClock(now func() time.Time) Option {
	return func(p *Publisher) { p.now = now }
}

// WithLocation sets the zone used to date staging files.
func WithLocation(loc *time.Location) Option {
	return func(p *Publisher) {
		if loc != nil {
			p.loc = loc
		}
	}
}

// OnPublish registers a callback invoked after each published or recovered run.
func OnPublish(fn func(Result)) Option {
	return func(p *Publisher) { p.onPublish = append(p.onPublish, fn) }
}

// New creates a publisher writing into fs under the names in paths.
func New(fs storage.Provider, paths dataset.Paths, fetcher Fetcher, log *slog.Logger, opts ...Option) *Publisher {
	p := &Publisher{
		fs:      fs,
		paths:   paths,
		fetcher: fetcher,
		log:     log,
		now:     time.Now,
		loc:     time.Local,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.activator = NewActivator(fs, paths, log)
	return p
}

// Publish downloads to a dated staging file and activates it.
//
// A download failure returns an error wrapping apperr.ErrDownloadFailed and
// leaves the live file untouched. A recovered rename failure returns a nil
// error and a Result whose Cause is the *PublishError. An unrecoverable one
// returns an error matching apperr.ErrPublishFatal; the caller must stop.
func (p *Publisher) Publish(ctx context.Context) (Result, error) {
	run := models.PublishRun{
		ID:        uuid.NewString(),
		StartedAt: p.now().UTC(),
		Status:    models.PublishRunning,
		Staging:   p.paths.Staging(models.DateOf(p.now().In(p.loc))),
	}
	log := p.log.With("run_id", run.ID)
	p.recordStart(ctx, run)
	log.Info("publish started", "staging", run.Staging)

	dl, err := p.fetcher.DownloadTo(ctx, p.fs, run.Staging)
	if err != nil {
		log.Error("download failed", "error", err)
		run.Status, run.Error = models.PublishFailed, err.Error()
		p.recordFinish(ctx, run)
		return Result{RunID: run.ID, Status: run.Status, Staging: run.Staging}, err
	}
	run.Checksum, run.Entries = dl.Checksum, dl.Entries
	log.Info("download complete", "file", dl.Name, "entries", dl.Entries, "checksum", checksum.Short(dl.Checksum))

	res := Result{RunID: run.ID, Staging: run.Staging, Checksum: dl.Checksum, Entries: dl.Entries}

	err = p.activator.Activate(run.Staging)
	var pe *PublishError
	switch {
	case err == nil:
		res.Status = models.PublishPublished
		log.Info("dataset published", "live", p.paths.Live)
	case errors.As(err, &pe) && pe.Recovered:
		res.Status, res.Cause = models.PublishRecovered, pe
		run.Step, run.Error = pe.Step, pe.Error()
		log.Warn("publish recovered, previous dataset kept", "step", pe.Step, "error", pe.Err)
	default:
		run.Status, run.Error = models.PublishFatal, err.Error()
		if pe != nil {
			run.Step = pe.Step
		}
		p.recordFinish(ctx, run)
		log.Error("publish failed, no live dataset", "error", err)
		res.Status, res.Cause = models.PublishFatal, err
		return res, errors.WithHintf(err,
			"inspect %s and restore a dataset file to %s by hand before publishing again",
			p.paths.Backup, p.paths.Live)
	}

	run.Status = res.Status
	p.recordFinish(ctx, run)
	for _, fn := range p.onPublish {
		fn(res)
	}
	return res, nil
}

func (p *Publisher) recordStart(ctx context.Context, run models.PublishRun) {
	if p.recorder == nil {
		return
	}
	if err := p.recorder.RecordStart(ctx, run); err != nil {
		p.log.Warn("journal start failed", "run_id", run.ID, "error", err)
	}
}

func (p *Publisher) recordFinish(ctx context.Context, run models.PublishRun) {
	if p.recorder == nil {
		return
	}
	finished := p.now().UTC()
	run.FinishedAt = &finished
	if err := p.recorder.RecordFinish(ctx, run); err != nil {
		p.log.Warn("journal finish failed", "run_id", run.ID, "error", err)
	}
}
