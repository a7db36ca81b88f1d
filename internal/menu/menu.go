// Package menu drives the stateless year → month → day navigation.
//
// Every step arrives as one navigation token and produces the next menu.
// Malformed or unknown tokens fall back to the top menu; they never fail.
package menu

import (
	"context"
	"log/slog"

	"github.com/cockroachdb/errors"

	"github.com/starford/mosaic/internal/i18n"
	"github.com/starford/mosaic/internal/models"
	"github.com/starford/mosaic/internal/navcodec"
	"github.com/starford/mosaic/internal/query"
	"github.com/starford/mosaic/internal/render"
)

// RowSize is the number of calendar buttons per row.
const RowSize = 6

// DefaultKind is the entry kind offered in the calendar.
const DefaultKind = "mosaic"

// States reported in Response.State.
const (
	StateMain  = "main"
	StateYear  = "year"
	StateMonth = "month"
	StateDay   = "day"
	StateEntry = "entry"
)

// Button is one inline button. Token is the wire form sent back on press.
type Button struct {
	Caption string `json:"caption"`
	Token   string `json:"token"`
}

// Menu is a titled grid of buttons.
type Menu struct {
	Title string     `json:"title"`
	Rows  [][]Button `json:"rows"`
}

// Response is what the front-end renders after a button press.
type Response struct {
	State    string          `json:"state"`
	Message  *render.Message `json:"message,omitempty"`
	Menu     Menu            `json:"menu"`
	NotFound bool            `json:"not_found,omitempty"`
	Notice   string          `json:"notice,omitempty"`
}

// Loader returns a freshly parsed dataset.
type Loader interface {
	Load() ([]models.Entry, error)
}

// Dispatcher routes tokens to menus and entries.
type Dispatcher struct {
	store  Loader
	engine *query.Engine
	render *render.Renderer
	kind   string
	log    *slog.Logger
}

// New creates a dispatcher whose calendar lists entries of kind.
func New(store Loader, engine *query.Engine, r *render.Renderer, kind string, log *slog.Logger) *Dispatcher {
	if kind == "" {
		kind = DefaultKind
	}
	return &Dispatcher{store: store, engine: engine, render: r, kind: kind, log: log}
}

// Kind returns the calendar kind.
func (d *Dispatcher) Kind() string { return d.kind }

func (d *Dispatcher) cat() *i18n.Catalog { return d.render.Catalog() }

func (d *Dispatcher) button(name, lang string, t navcodec.Token) Button {
	return Button{Caption: d.cat().Button(name, lang), Token: navcodec.MustEncode(t)}
}

// Top returns the main menu: latest and previous on one row, calendar below.
func (d *Dispatcher) Top(lang string) Menu {
	return Menu{
		Title: d.cat().Message(i18n.MsgKeyboard, lang),
		Rows: [][]Button{
			{
				d.button(i18n.BtnLatest, lang, navcodec.New(navcodec.Command, navcodec.LayerMain, navcodec.ValueLatest)),
				d.button(i18n.BtnPrevious, lang, navcodec.New(navcodec.Command, navcodec.LayerMain, navcodec.ValuePrevious)),
			},
			{
				d.button(i18n.BtnCalendar, lang, navcodec.New(navcodec.Menu, navcodec.LayerMain, navcodec.ValueCalendar)),
			},
		},
	}
}

func (d *Dispatcher) top(lang string) Response {
	return Response{State: StateMain, Menu: d.Top(lang)}
}

func (d *Dispatcher) notFound(lang string) Response {
	r := d.top(lang)
	r.NotFound = true
	r.Notice = d.cat().Message(i18n.MsgNotFound, lang)
	return r
}

// Dispatch decodes wire and produces the next response in lang. Errors are
// returned only when the dataset cannot be loaded.
func (d *Dispatcher) Dispatch(ctx context.Context, wire, lang string) (Response, error) {
	tok, err := navcodec.Decode(wire)
	if err != nil {
		d.log.WarnContext(ctx, "menu: malformed token, showing top menu", "token", wire, "error", err)
		return d.top(lang), nil
	}

	switch tok.Function {
	case navcodec.Command:
		return d.command(ctx, tok, lang)
	case navcodec.Menu:
		return d.menu(ctx, tok, lang)
	}
	return d.top(lang), nil
}

func (d *Dispatcher) command(ctx context.Context, tok navcodec.Token, lang string) (Response, error) {
	switch tok.Value {
	case navcodec.ValueTop:
		return d.top(lang), nil
	case navcodec.ValueLatest, navcodec.ValuePrevious:
		offset := query.OffsetLatest
		if tok.Value == navcodec.ValuePrevious {
			offset = query.OffsetPrevious
		}
		entries, err := d.load()
		if err != nil {
			return Response{}, err
		}
		e, ok := d.engine.LatestOrPrevious(entries, offset)
		if !ok {
			return d.notFound(lang), nil
		}
		return d.entry(e, lang), nil
	}

	if tok.Layer != navcodec.LayerDay {
		return d.unknown(ctx, tok, lang), nil
	}
	frag, err := navcodec.ParseFragment(tok.Value)
	date, ok := frag.Date()
	if err != nil || !ok {
		return d.unknown(ctx, tok, lang), nil
	}
	entries, err := d.load()
	if err != nil {
		return Response{}, err
	}
	e, found := query.ByDate(entries, date)
	if !found {
		return d.notFound(lang), nil
	}
	return d.entry(e, lang), nil
}

func (d *Dispatcher) menu(ctx context.Context, tok navcodec.Token, lang string) (Response, error) {
	if tok.Layer == navcodec.LayerMain {
		if tok.Value != navcodec.ValueCalendar {
			return d.unknown(ctx, tok, lang), nil
		}
		cal, err := d.calendar()
		if err != nil {
			return Response{}, err
		}
		return Response{State: StateYear, Menu: d.yearMenu(cal, lang)}, nil
	}

	frag, err := navcodec.ParseFragment(tok.Value)
	if err != nil {
		return d.unknown(ctx, tok, lang), nil
	}

	switch {
	case tok.Layer == navcodec.LayerYear && frag.Precision == navcodec.PrecisionYear:
		cal, err := d.calendar()
		if err != nil {
			return Response{}, err
		}
		m, ok := d.monthMenu(cal, frag, lang)
		if !ok {
			return d.notFound(lang), nil
		}
		return Response{State: StateMonth, Menu: m}, nil

	case tok.Layer == navcodec.LayerMonth && frag.Precision == navcodec.PrecisionMonth:
		cal, err := d.calendar()
		if err != nil {
			return Response{}, err
		}
		m, ok := d.dayMenu(cal, frag, lang)
		if !ok {
			return d.notFound(lang), nil
		}
		return Response{State: StateDay, Menu: m}, nil
	}
	return d.unknown(ctx, tok, lang), nil
}

func (d *Dispatcher) unknown(ctx context.Context, tok navcodec.Token, lang string) Response {
	d.log.WarnContext(ctx, "menu: unroutable token, showing top menu", "token", tok.String())
	return d.top(lang)
}

func (d *Dispatcher) load() ([]models.Entry, error) {
	entries, err := d.store.Load()
	if err != nil {
		return nil, errors.Wrap(err, "menu: load dataset")
	}
	return entries, nil
}

func (d *Dispatcher) calendar() (query.Calendar, error) {
	entries, err := d.load()
	if err != nil {
		return query.Calendar{}, err
	}
	return d.engine.Calendar(entries, d.kind), nil
}

func (d *Dispatcher) entry(e models.Entry, lang string) Response {
	msg := d.render.Entry(e, lang)
	return Response{State: StateEntry, Message: &msg, Menu: d.Top(lang)}
}
