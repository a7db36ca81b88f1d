// Package entryservice is the read side shared by the HTTP and MCP front-ends.
package entryservice

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/starford/mosaic/internal/apperr"
	"github.com/starford/mosaic/internal/dataset"
	"github.com/starford/mosaic/internal/journal"
	"github.com/starford/mosaic/internal/menu"
	"github.com/starford/mosaic/internal/models"
	"github.com/starford/mosaic/internal/query"
	"github.com/starford/mosaic/internal/render"
)

// StartView is the greeting plus the first menu.
type StartView struct {
	render.Start
	Markdown string    `json:"markdown"`
	Menu     menu.Menu `json:"menu"`
}

// EntryView is one rendered entry.
type EntryView struct {
	render.Message
	Markdown string `json:"markdown"`
}

// Status summarizes the dataset directory and the last successful publish.
type Status struct {
	Ready         bool                 `json:"ready"`
	Files         []models.DatasetFile `json:"files"`
	LastPublished *models.PublishRun   `json:"last_published,omitempty"`
}

// Service coordinates the dataset store, the query engine and rendering.
type Service struct {
	store   *dataset.Store
	engine  *query.Engine
	render  *render.Renderer
	menu    *menu.Dispatcher
	journal journal.Journal
}

// NewService creates a new entry service. j may be nil when no publish
// journal is configured.
func NewService(store *dataset.Store, engine *query.Engine, r *render.Renderer, d *menu.Dispatcher, j journal.Journal) *Service {
	return &Service{store: store, engine: engine, render: r, menu: d, journal: j}
}

// Language maps a client language code onto a supported one.
func (s *Service) Language(code string) string {
	return s.render.Catalog().Match(code)
}

// AcceptLanguage maps an Accept-Language header onto a supported language.
func (s *Service) AcceptLanguage(header string) string {
	return s.render.Catalog().MatchAcceptLanguage(header)
}

// Message returns a catalog text in lang.
func (s *Service) Message(key, lang string) string {
	return s.render.Catalog().Message(key, lang)
}

// Latest returns today's entry or the closest earlier one.
func (s *Service) Latest(_ context.Context, lang string) (*EntryView, error) {
	return s.relative(query.OffsetLatest, lang)
}

// Previous returns yesterday's entry or the closest earlier one.
func (s *Service) Previous(_ context.Context, lang string) (*EntryView, error) {
	return s.relative(query.OffsetPrevious, lang)
}

func (s *Service) relative(offset int, lang string) (*EntryView, error) {
	entries, err := s.store.Load()
	if err != nil {
		return nil, err
	}
	e, ok := s.engine.LatestOrPrevious(entries, offset)
	if !ok {
		return nil, errors.Wrapf(apperr.ErrNotFound, "no entry on or before %s", s.engine.Today().AddDays(-offset))
	}
	return s.view(e, lang), nil
}

// ByDate returns the entry dated exactly date (YYYY-MM-DD).
func (s *Service) ByDate(_ context.Context, date, lang string) (*EntryView, error) {
	d, err := models.ParseDate(date)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "entry date"), apperr.ErrInvalidField)
	}
	entries, err := s.store.Load()
	if err != nil {
		return nil, err
	}
	e, ok := query.ByDate(entries, d)
	if !ok {
		return nil, errors.Wrapf(apperr.ErrNotFound, "no entry on %s", d)
	}
	return s.view(e, lang), nil
}

// Calendar groups the dates of all entries of kind. An empty kind uses the
// dispatcher's calendar kind.
func (s *Service) Calendar(_ context.Context, kind string) (query.Calendar, error) {
	if kind == "" {
		kind = s.menu.Kind()
	}
	entries, err := s.store.Load()
	if err != nil {
		return query.Calendar{}, err
	}
	return s.engine.Calendar(entries, kind), nil
}

// Start returns the greeting and the top menu.
func (s *Service) Start(_ context.Context, lang string) StartView {
	st := s.render.Start(lang)
	return StartView{Start: st, Markdown: st.Markdown(), Menu: s.menu.Top(lang)}
}

// Menu returns the top menu.
func (s *Service) Menu(lang string) menu.Menu {
	return s.menu.Top(lang)
}

// Dispatch routes one navigation token.
func (s *Service) Dispatch(ctx context.Context, token, lang string) (menu.Response, error) {
	return s.menu.Dispatch(ctx, token, lang)
}

// Ready reports whether a live dataset is present.
func (s *Service) Ready(_ context.Context) (bool, error) {
	return s.store.Ready()
}

// Status lists the dataset files and the last successful publish run.
func (s *Service) Status(ctx context.Context) (*Status, error) {
	ready, err := s.store.Ready()
	if err != nil {
		return nil, err
	}
	files, err := s.store.Files()
	if err != nil {
		return nil, err
	}
	st := &Status{Ready: ready, Files: nonNilSlice(files)}
	if s.journal != nil {
		last, err := s.journal.LastPublished(ctx)
		if err != nil {
			return nil, err
		}
		st.LastPublished = last
	}
	return st, nil
}

// History returns the most recent publish runs, newest first.
func (s *Service) History(ctx context.Context, limit int) ([]models.PublishRun, error) {
	if s.journal == nil {
		return []models.PublishRun{}, nil
	}
	runs, err := s.journal.List(ctx, limit)
	if err != nil {
		return nil, err
	}
	return nonNilSlice(runs), nil
}

func (s *Service) view(e models.Entry, lang string) *EntryView {
	msg := s.render.Entry(e, lang)
	return &EntryView{Message: msg, Markdown: msg.Markdown()}
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
