// Package handler contains the HTTP handlers for the CraftBook API.
//
// HANDLER RESPONSIBILITIES:
// 1. Parse the incoming request (path params, query, JSON or multipart body)
// 2. Call one service method with plain values
// 3. Write the response: JSON on success, an ErrorResponse on failure
//
// Handlers hold no business rules. Ownership checks, validation of content
// and transactions all live in the service package; a handler only knows how
// to turn a service result or apperror into HTTP.
package handler

import (
	"net/http"
	"time"
)

// Version is reported by the health check.
const Version = "1.0.0"

type HealthHandler struct{}

func NewHealthHandler() *HealthHandler { return &HealthHandler{} }

// HTTP: GET /api/health
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"message":   "CraftBook API is running",
		"version":   Version,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
