package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"litnotes/internal/ai"
	"litnotes/internal/embedding"
	"litnotes/internal/notes"
	"litnotes/internal/storage"
	"litnotes/internal/util"
)

var errInvalidJSON = errors.New("invalid json")

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errInvalidJSON, err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]any{"error": toAPIError(code, err).payload()})
}

// statusFor maps a service error onto an HTTP status.
func statusFor(err error) int {
	var cfgErr *ai.ConfigError
	var genErr *ai.GenerationError
	var fmtErr *embedding.EmbeddingFormatError
	switch {
	case errors.Is(err, errInvalidJSON),
		errors.Is(err, notes.ErrInvalidNote),
		errors.Is(err, notes.ErrEmptyQuery),
		errors.Is(err, notes.ErrNoNotes),
		errors.Is(err, ai.ErrEmptyPrompt),
		errors.Is(err, ai.ErrInvalidOptions),
		errors.Is(err, util.ErrNoExtractableText):
		return http.StatusBadRequest
	case errors.Is(err, storage.ErrNoteNotFound):
		return http.StatusNotFound
	case errors.As(err, &cfgErr):
		return http.StatusConflict
	case errors.As(err, &genErr), errors.As(err, &fmtErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

type apiError struct {
	Code     string
	Message  string
	Provider string
}

func (e apiError) payload() map[string]any {
	out := map[string]any{"code": e.Code, "message": e.Message}
	if e.Provider != "" {
		out["provider"] = e.Provider
	}
	return out
}

func toAPIError(status int, err error) apiError {
	msg := "Request failed."
	code := "LN-API-4000"
	raw := ""
	if err != nil {
		raw = strings.ToLower(err.Error())
	}

	switch {
	case status == http.StatusBadGateway:
		out := apiError{Code: "LN-API-5020", Message: "Upstream provider unavailable. Retry shortly."}
		var genErr *ai.GenerationError
		if errors.As(err, &genErr) {
			out.Message = genErr.Error()
			out.Provider = genErr.Provider
		}
		return out
	case status >= 500:
		switch {
		case strings.Contains(raw, "relation") && strings.Contains(raw, "does not exist"):
			return apiError{
				Code:    "LN-DB-5001",
				Message: "Database schema is not initialized. Restart the API to apply it.",
			}
		case strings.Contains(raw, "connect"), strings.Contains(raw, "dial tcp"), strings.Contains(raw, "connection refused"):
			return apiError{
				Code:    "LN-DB-5002",
				Message: "Database connection is unavailable. Check local services and retry.",
			}
		default:
			return apiError{
				Code:    "LN-API-5000",
				Message: "Internal server error. Please retry or check service logs.",
			}
		}
	case status == http.StatusBadRequest:
		code = "LN-API-4001"
		msg = "Invalid request. Check inputs and retry."
	case status == http.StatusNotFound:
		code = "LN-API-4004"
		msg = "Requested resource was not found."
	case status == http.StatusConflict:
		code = "LN-API-4009"
		msg = "Operation conflicts with current state. Retry after checking status."
	case status == http.StatusMethodNotAllowed:
		code = "LN-API-4005"
		msg = "This endpoint does not support the requested method."
	}

	// For 4xx, keep user-safe validation context only.
	if status >= 400 && status < 500 && err != nil {
		var cfgErr *ai.ConfigError
		switch {
		case errors.Is(err, errInvalidJSON):
			msg = "Malformed JSON request body."
		case errors.As(err, &cfgErr):
			msg = cfgErr.Error()
		case errors.Is(err, notes.ErrInvalidNote),
			errors.Is(err, notes.ErrEmptyQuery),
			errors.Is(err, notes.ErrNoNotes),
			errors.Is(err, ai.ErrEmptyPrompt),
			errors.Is(err, ai.ErrInvalidOptions),
			errors.Is(err, util.ErrNoExtractableText):
			msg = err.Error()
		case strings.Contains(raw, "no file provided"):
			msg = "No PDF file was provided."
		}
	}

	return apiError{Code: code, Message: msg}
}

// fail writes err with the status statusFor picks.
func (s *Server) fail(w http.ResponseWriter, err error) {
	writeErr(w, statusFor(err), err)
}
