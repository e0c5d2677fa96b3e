package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
)

const maxBodyBytes = 1 << 20

// ValidationError is a request body that failed parsing or validation.
// Its message is safe to return to the caller.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// decodeBody decodes an optional JSON object body into T. An empty body
// yields the zero value.
func decodeBody[T any](r *http.Request) (T, error) {
	var v T
	if r.Body == nil {
		return v, nil
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return v, &ValidationError{Message: "could not read request body", Err: err}
	}
	if len(data) > maxBodyBytes {
		return v, &ValidationError{Message: fmt.Sprintf("request body exceeds %d bytes", maxBodyBytes)}
	}
	if strings.TrimSpace(string(data)) == "" {
		return v, nil
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, &ValidationError{Message: "request body must be a JSON object", Err: err}
	}
	return v, nil
}

// respondValidation writes a 400 for a *ValidationError, or a 500 for
// anything else.
func respondValidation(w http.ResponseWriter, err error) {
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		log.Debug().Err(err).Str("field", vErr.Field).Msg("Rejected request body")
		httpError(w, http.StatusBadRequest, vErr.Message)
		return
	}
	log.Error().Err(err).Msg("Request failed")
	httpError(w, http.StatusInternalServerError, "internal error")
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Warn().Err(err).Msg("Failed to write JSON response")
	}
}

func httpError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
