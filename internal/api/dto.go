package api

import (
	"github.com/starford/mosaic/internal/entryservice"
	"github.com/starford/mosaic/internal/menu"
	"github.com/starford/mosaic/internal/models"
	"github.com/starford/mosaic/internal/query"
)

// EntryResponse is one rendered entry (aliased from the domain layer).
type EntryResponse = entryservice.EntryView

// StartResponse is the greeting plus the top menu (aliased from the domain layer).
type StartResponse = entryservice.StartView

// StatusResponse describes the dataset directory (aliased from the domain layer).
type StatusResponse = entryservice.Status

// CalendarResponse lists years, months and days with entries.
type CalendarResponse = query.Calendar

// MenuResponse is the top menu.
type MenuResponse = menu.Menu

// DispatchResponse is the result of pressing a button.
type DispatchResponse = menu.Response

// PublishListResponse wraps the publish history.
type PublishListResponse struct {
	Runs []models.PublishRun `json:"runs" validate:"required"`
}

// HealthResponse is returned by the health endpoints.
type HealthResponse struct {
	Status string `json:"status" example:"ok" validate:"required"`
}
