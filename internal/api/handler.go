// Package api exposes the admin HTTP surface: vessel registrations, port and
// engineer management, and provider usage statistics.
package api

import (
	"ship-tracking-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store store.Store
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store) *Handler {
	return &Handler{store: s}
}
