package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Error codes carried in every error body.
const (
	codeBadRequest       = "bad_request"
	codeInvalidKeyword   = "invalid_keyword"
	codeNotFound         = "not_found"
	codeUnauthorized     = "unauthorized"
	codeGenerationFailed = "generation_failed"
	codeStorage          = "storage_error"
	codeInternal         = "internal"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

// errResponse is the body of every non-2xx JSON response.
type errResponse struct {
	Error string `json:"error" validate:"required"`
	Code  string `json:"code" validate:"required"`
}

func errorBody(code, msg string) errResponse {
	return errResponse{Error: msg, Code: code}
}

func writeErrorBody(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorBody(code, msg))
}
