package http

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/fire"
	applog "fintrack/internal/log"
	"fintrack/internal/state"
)

const maxBodyBytes = 5 << 20

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// badRequestError marks malformed input that never reached the domain.
type badRequestError struct {
	err error
}

func (e *badRequestError) Error() string { return e.err.Error() }
func (e *badRequestError) Unwrap() error { return e.err }

func isValidationError(err error) bool {
	return core.IsValidationError(err) ||
		errors.Is(err, state.ErrEmptyUserID) ||
		errors.Is(err, fire.ErrInvalidConfig)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err to a status code and a JSON error body. Unexpected
// errors are logged and reported without detail.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, operation string, err error) {
	var (
		badReq *badRequestError
		cfgErr *fire.ConfigError
	)
	switch {
	case errors.As(err, &badReq):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.As(err, &cfgErr):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: cfgErr.Error(), Field: cfgErr.Field})
	case isValidationError(err):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
	case errors.Is(err, state.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, state.ErrDuplicateID):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	default:
		s.reqLogger.LogError(r.Context(), "Request failed", err, applog.ErrorTypeInternal, operation,
			applog.NewFields().WithUser(s.userID))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}

// decodeJSON reads a single JSON value from the request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return &badRequestError{errors.New("request body is empty")}
		}
		return &badRequestError{fmt.Errorf("invalid JSON body: %w", err)}
	}
	return nil
}

// parseYearMonth extracts year and month from query parameters.
// Missing or non-numeric values default to the current year and month.
func parseYearMonth(r *http.Request) (year, month int) {
	now := time.Now()
	year = now.Year()
	month = int(now.Month())

	if v := strings.TrimSpace(r.URL.Query().Get("year")); v != "" {
		if y, err := strconv.Atoi(v); err == nil {
			year = y
		}
	}
	if v := strings.TrimSpace(r.URL.Query().Get("month")); v != "" {
		if m, err := strconv.Atoi(v); err == nil {
			month = m
		}
	}

	return year, month
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}
