// Package query answers temporal questions over a loaded sequence of entries.
//
// All comparisons use the civil date value (year, month, day), never string
// order. Input does not need to be sorted.
package query

import (
	"time"

	"github.com/starford/mosaic/internal/models"
)

// Offsets accepted by LatestOrPrevious.
const (
	OffsetLatest   = 0
	OffsetPrevious = 1
)

// Engine resolves "today" through an injectable clock.
type Engine struct {
	now func() time.Time
	loc *time.Location
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLocation sets the zone in which "today" is evaluated.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		if loc != nil {
			e.loc = loc
		}
	}
}

// NewEngine creates an engine using the local clock and zone by default.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{now: time.Now, loc: time.Local}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Today returns the current civil date in the engine's zone.
func (e *Engine) Today() models.Date {
	return models.DateOf(e.now().In(e.loc))
}

// LatestOrPrevious returns the entry for today minus offset days, or, when
// no entry has exactly that date, the entry with the greatest date strictly
// before it. The first entry wins among equal dates. ok is false when every
// entry lies after the target.
func (e *Engine) LatestOrPrevious(entries []models.Entry, offset int) (models.Entry, bool) {
	return Nearest(entries, e.Today().AddDays(-offset))
}

// Nearest is LatestOrPrevious with an explicit target date.
func Nearest(entries []models.Entry, target models.Date) (models.Entry, bool) {
	best := -1
	for i := range entries {
		d := entries[i].Date
		if d == target {
			return entries[i], true
		}
		if d.Before(target) && (best < 0 || d.After(entries[best].Date)) {
			best = i
		}
	}
	if best < 0 {
		return models.Entry{}, false
	}
	return entries[best], true
}

// ByDate returns the first entry dated exactly date.
func ByDate(entries []models.Entry, date models.Date) (models.Entry, bool) {
	for i := range entries {
		if entries[i].Date == date {
			return entries[i], true
		}
	}
	return models.Entry{}, false
}
