package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/dgallion1/romajiapi/internal/markup"
	"github.com/dgallion1/romajiapi/internal/news"
	"github.com/dgallion1/romajiapi/internal/translate"
)

const msgBadHTML = "HTML not clean and can't be processed."

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// decodeJSON reads a JSON body into v and writes the error response itself
// when it returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil {
		return true
	}
	var tooBig *http.MaxBytesError
	switch {
	case errors.As(err, &tooBig):
		jsonError(w, "Payload too large for free user", http.StatusRequestEntityTooLarge)
	case errors.Is(err, io.EOF):
		jsonError(w, "request body is required", http.StatusUnprocessableEntity)
	default:
		jsonError(w, "invalid request body: "+err.Error(), http.StatusUnprocessableEntity)
	}
	return false
}

// serviceError maps collaborator errors to status codes.
func (s *Server) serviceError(w http.ResponseWriter, r *http.Request, err error) {
	var retryable *translate.RetryableError
	switch {
	case errors.Is(err, markup.ErrMalformedMarkup):
		jsonError(w, msgBadHTML, http.StatusUnprocessableEntity)
	case errors.Is(err, translate.ErrEmptyText):
		jsonError(w, "text is required", http.StatusBadRequest)
	case errors.Is(err, translate.ErrNotConfigured), errors.Is(err, news.ErrNotConfigured):
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
	case errors.Is(err, translate.ErrCountMismatch), errors.As(err, &retryable):
		s.log.Warn("upstream provider error", "path", r.URL.Path, "error", err)
		jsonError(w, "upstream provider error", http.StatusBadGateway)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		jsonError(w, "request cancelled", http.StatusServiceUnavailable)
	default:
		s.log.Error("request failed", "path", r.URL.Path, "error", err)
		jsonError(w, "internal error", http.StatusInternalServerError)
	}
}
