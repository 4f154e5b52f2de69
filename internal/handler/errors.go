package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strings"

	"github.com/pkordes/belatedly/internal/domain"
)

// ErrorDetail is the machine code and human message of a failed request.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// notFoundBody returns an ErrorResponse for a missing resource.
// The caller supplies the human-readable message (e.g. "record not found")
// because the handler is the layer that knows what was being looked up.
func notFoundBody(message string) ErrorResponse {
	return ErrorResponse{Error: ErrorDetail{Code: "not_found", Message: message}}
}

// requestBody returns an ErrorResponse for a bad request rejected before
// reaching the service layer (e.g. missing or malformed body).
func requestBody(message string) ErrorResponse {
	return ErrorResponse{Error: ErrorDetail{Code: "validation_error", Message: message}}
}

// writeJSON encodes v as the response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps a service error onto a status and body. what names the
// resource for not-found messages, e.g. "record".
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error, what string) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		writeJSON(w, http.StatusRequestEntityTooLarge, ErrorResponse{Error: ErrorDetail{Code: "too_large", Message: "request body too large"}})
	case errors.Is(err, domain.ErrValidation):
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Error: ErrorDetail{Code: "validation_error", Message: unwrapMessage(err)}})
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, notFoundBody(what+" not found"))
	case errors.Is(err, domain.ErrNotSynced):
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: ErrorDetail{Code: "not_synced", Message: what + " has not been saved to the calendar yet"}})
	case errors.Is(err, domain.ErrConflict):
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: ErrorDetail{Code: "conflict", Message: unwrapMessage(err)}})
	case errors.Is(err, domain.ErrAuth):
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: ErrorDetail{Code: "unauthorized", Message: unwrapMessage(err)}})
	case errors.Is(err, domain.ErrExternal):
		writeJSON(w, http.StatusBadGateway, ErrorResponse{Error: ErrorDetail{Code: "external_error", Message: unwrapMessage(err)}})
	default:
		s.logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: ErrorDetail{Code: "internal_error", Message: "internal server error"}})
	}
}

var (
	sentinels = []error{
		domain.ErrValidation, domain.ErrConflict, domain.ErrAuth, domain.ErrExternal,
	}

	// opPrefix matches the "pkg.Type.Op: " prefixes the services add.
	opPrefix = regexp.MustCompile(`\b[a-z]+\.[A-Z][A-Za-z]*\.[A-Z][A-Za-z]*: `)
)

// unwrapMessage extracts the human-readable part from a wrapped sentinel error.
// e.g. "service.RecordService.Create: validation error: name is required" → "name is required"
func unwrapMessage(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	for _, sentinel := range sentinels {
		marker := sentinel.Error() + ": "
		if i := strings.LastIndex(msg, marker); i >= 0 {
			return msg[i+len(marker):]
		}
	}
	return opPrefix.ReplaceAllString(msg, "")
}

// plainMessage drops the operation prefixes but keeps everything else, so
// per-item context such as a draft name survives.
func plainMessage(err error) string {
	return opPrefix.ReplaceAllString(err.Error(), "")
}

// joinedMessages flattens an errors.Join result into one message per failure.
func joinedMessages(err error) []string {
	if err == nil {
		return nil
	}
	for e := err; e != nil; e = errors.Unwrap(e) {
		if j, ok := e.(interface{ Unwrap() []error }); ok {
			var out []string
			for _, item := range j.Unwrap() {
				out = append(out, joinedMessages(item)...)
			}
			return out
		}
	}
	return []string{plainMessage(err)}
}
