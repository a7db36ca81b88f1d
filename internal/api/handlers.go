package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/go-chi/chi/v5"

	"github.com/starford/mosaic/internal/apperr"
	"github.com/starford/mosaic/internal/entryservice"
	"github.com/starford/mosaic/internal/i18n"
)

// Handler holds API route handlers.
type Handler struct {
	svc *entryservice.Service
	log *slog.Logger
}

// NewHandler creates a new Handler.
func NewHandler(svc *entryservice.Service, log *slog.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// lang resolves the response language from ?lang= or Accept-Language.
func (h *Handler) lang(r *http.Request) string {
	if code := r.URL.Query().Get("lang"); code != "" {
		return h.svc.Language(code)
	}
	return h.svc.AcceptLanguage(r.Header.Get("Accept-Language"))
}

// fail maps domain errors onto status codes.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		body := errorBody("not found")
		body.Notice = h.svc.Message(i18n.MsgNotFound, h.lang(r))
		writeJSON(w, http.StatusNotFound, body)
	case errors.Is(err, apperr.ErrInvalidField):
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
	case errors.Is(err, apperr.ErrUnavailable):
		h.log.Warn(op+" failed: no live dataset", slog.String("error", err.Error()))
		body := errorBody("dataset unavailable")
		body.Notice = h.svc.Message(i18n.MsgUnavailable, h.lang(r))
		writeJSON(w, http.StatusServiceUnavailable, body)
	case errors.Is(err, apperr.ErrDatasetCorrupt):
		h.log.Error(op+" failed: dataset corrupt", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("dataset corrupt"))
	default:
		h.log.Error(op+" failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

// Live handles GET /health/live.
func (h *Handler) Live(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// Ready handles GET /health/ready. It reports 503 until a live dataset exists.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ok, err := h.svc.Ready(r.Context())
	if err != nil {
		h.fail(w, r, "readiness probe", err)
		return
	}
	if !ok {
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "no dataset"})
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// Start handles GET /api/start.
//
//	@Summary		Greeting and top menu
//	@Tags			navigation
//	@Produce		json
//	@Param			lang	query		string	false	"Language code"
//	@Success		200		{object}	StartResponse
//	@Security		BearerAuth
//	@Router			/start [get]
func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Start(r.Context(), h.lang(r)))
}

// Latest handles GET /api/entries/latest.
//
//	@Summary		Today's entry or the closest earlier one
//	@Tags			entries
//	@Produce		json
//	@Param			lang	query		string	false	"Language code"
//	@Success		200		{object}	EntryResponse
//	@Failure		404		{object}	errResponse
//	@Failure		503		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/entries/latest [get]
func (h *Handler) Latest(w http.ResponseWriter, r *http.Request) {
	e, err := h.svc.Latest(r.Context(), h.lang(r))
	if err != nil {
		h.fail(w, r, "latest entry", err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// Previous handles GET /api/entries/previous.
//
//	@Summary		Yesterday's entry or the closest earlier one
//	@Tags			entries
//	@Produce		json
//	@Param			lang	query		string	false	"Language code"
//	@Success		200		{object}	EntryResponse
//	@Failure		404		{object}	errResponse
//	@Failure		503		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/entries/previous [get]
func (h *Handler) Previous(w http.ResponseWriter, r *http.Request) {
	e, err := h.svc.Previous(r.Context(), h.lang(r))
	if err != nil {
		h.fail(w, r, "previous entry", err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// ByDate handles GET /api/entries/{date}.
//
//	@Summary		Entry for an exact date
//	@Tags			entries
//	@Produce		json
//	@Param			date	path		string	true	"Date (YYYY-MM-DD)"
//	@Param			lang	query		string	false	"Language code"
//	@Success		200		{object}	EntryResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/entries/{date} [get]
func (h *Handler) ByDate(w http.ResponseWriter, r *http.Request) {
	e, err := h.svc.ByDate(r.Context(), chi.URLParam(r, "date"), h.lang(r))
	if err != nil {
		h.fail(w, r, "entry by date", err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// Calendar handles GET /api/calendar.
//
//	@Summary		Years, months and days that have entries
//	@Tags			entries
//	@Produce		json
//	@Param			kind	query		string	false	"Entry kind"
//	@Success		200		{object}	CalendarResponse
//	@Security		BearerAuth
//	@Router			/calendar [get]
func (h *Handler) Calendar(w http.ResponseWriter, r *http.Request) {
	cal, err := h.svc.Calendar(r.Context(), r.URL.Query().Get("kind"))
	if err != nil {
		h.fail(w, r, "calendar", err)
		return
	}
	writeJSON(w, http.StatusOK, cal)
}

// Menu handles GET /api/menu.
//
//	@Summary		Top menu
//	@Tags			navigation
//	@Produce		json
//	@Param			lang	query		string	false	"Language code"
//	@Success		200		{object}	MenuResponse
//	@Security		BearerAuth
//	@Router			/menu [get]
func (h *Handler) Menu(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Menu(h.lang(r)))
}

// Dispatch handles GET /api/dispatch.
//
//	@Summary		Route a navigation token
//	@Tags			navigation
//	@Produce		json
//	@Param			token	query		string	true	"Navigation token"
//	@Param			lang	query		string	false	"Language code"
//	@Success		200		{object}	DispatchResponse
//	@Failure		503		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/dispatch [get]
func (h *Handler) Dispatch(w http.ResponseWriter, r *http.Request) {
	resp, err := h.svc.Dispatch(r.Context(), r.URL.Query().Get("token"), h.lang(r))
	if err != nil {
		h.fail(w, r, "dispatch", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Publishes handles GET /api/publishes.
//
//	@Summary		Recent publish runs
//	@Tags			publish
//	@Produce		json
//	@Param			limit	query		int		false	"Max runs"
//	@Success		200		{object}	PublishListResponse
//	@Security		BearerAuth
//	@Router			/publishes [get]
func (h *Handler) Publishes(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	runs, err := h.svc.History(r.Context(), limit)
	if err != nil {
		h.fail(w, r, "publish history", err)
		return
	}
	writeJSON(w, http.StatusOK, PublishListResponse{Runs: runs})
}

// Status handles GET /api/status.
//
//	@Summary		Dataset files and the last publish
//	@Tags			publish
//	@Produce		json
//	@Success		200	{object}	StatusResponse
//	@Security		BearerAuth
//	@Router			/status [get]
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Status(r.Context())
	if err != nil {
		h.fail(w, r, "status", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}
