package util

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/vidtube/api/internal/store"
)

// Error codes of the API error envelope.
const (
	CodeBadRequest      = "BAD_REQUEST"
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeNotFound        = "NOT_FOUND"
	CodeConflict        = "CONFLICT"
	CodeTooManyRequests = "TOO_MANY_REQUESTS"
	CodeInternal        = "INTERNAL_SERVER_ERROR"
)

// APIError represents a structured error response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse is the top-level error envelope.
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// WriteError writes a structured error response.
func WriteError(w http.ResponseWriter, status int, code, message string) {
	WriteJSON(w, status, ErrorResponse{
		Error: APIError{Code: code, Message: message},
	})
}

// ParseLimit extracts the limit query parameter. A missing limit yields
// store.DefaultLimit; anything outside [store.MinLimit, store.MaxLimit] is an error.
func ParseLimit(r *http.Request) (int, error) {
	s := r.URL.Query().Get("limit")
	if s == "" {
		return store.DefaultLimit, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", store.ErrInvalidLimit, s)
	}
	p := store.PageRequest{Limit: n}
	if err := p.Validate(); err != nil {
		return 0, err
	}
	return n, nil
}

// ParseCursor decodes the opaque cursor query parameter. An absent cursor is nil.
func ParseCursor(r *http.Request) (*store.Cursor, error) {
	s := r.URL.Query().Get("cursor")
	if s == "" {
		return nil, nil
	}
	return store.DecodeCursor(s)
}

// ParsePage reads cursor and limit from the query string.
func ParsePage(r *http.Request) (store.PageRequest, error) {
	limit, err := ParseLimit(r)
	if err != nil {
		return store.PageRequest{}, err
	}
	cursor, err := ParseCursor(r)
	if err != nil {
		return store.PageRequest{}, err
	}
	return store.PageRequest{Cursor: cursor, Limit: limit}, nil
}
