// Handler helper functions shared across the package.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
)

// paginationParams holds parsed limit and offset values.
type paginationParams struct {
	Limit  int64
	Offset int64
}

const (
	defaultPaginationLimit = 25
	maxPaginationLimit     = 100
)

// parsePaginationParams extracts and validates limit/offset from URL query params.
func parsePaginationParams(r *http.Request) paginationParams {
	var limit int64 = defaultPaginationLimit
	var offset int64

	if lim, err := strconv.ParseInt(r.URL.Query().Get("limit"), 10, 64); err == nil && lim > 0 {
		if lim > maxPaginationLimit {
			lim = maxPaginationLimit
		}
		limit = lim
	}

	if off, err := strconv.ParseInt(r.URL.Query().Get("offset"), 10, 64); err == nil && off >= 0 {
		offset = off
	}

	return paginationParams{Limit: limit, Offset: offset}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, `{"error":"failed to encode response"}`, http.StatusInternalServerError)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}
