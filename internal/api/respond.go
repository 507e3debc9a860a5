package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/tabscribe/tabscribe/internal/errors"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError answers with the error envelope used by MCP tool results.
// Internal errors are logged and never expose their details.
func (h *handlers) writeError(w http.ResponseWriter, err error) {
	tErr, ok := errors.As(err)
	if !ok {
		tErr = errors.NewInternal(err)
	}
	errorObj := map[string]any{
		"code":    tErr.Code,
		"message": tErr.Message,
		"status":  tErr.Status,
	}
	if tErr.Code == errors.ErrInternal {
		h.log.Errorw("request failed", "error", err)
	} else if tErr.Details != nil {
		errorObj["details"] = tErr.Details
	}
	writeJSON(w, tErr.Status, map[string]any{"error": errorObj})
}

// decodeBody reads a JSON request body into v. It writes an
// INVALID_REQUEST response and returns false when the body is malformed.
func (h *handlers) decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.writeError(w, errors.NewInvalidRequest("invalid JSON body: "+err.Error()))
		return false
	}
	return true
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}

// parseBoolParam parses a boolean query parameter.
func parseBoolParam(r *http.Request, name string) bool {
	s := r.URL.Query().Get(name)
	return s == "true" || s == "1"
}

// ptrString returns a pointer to s if non-empty, nil otherwise.
func ptrString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
