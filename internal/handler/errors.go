package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/EgonMoreau/VivesBike/internal/domain"
)

// ErrorDetail is the payload of every error response.
type ErrorDetail struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorResponse wraps ErrorDetail as {"error": {...}}.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// errBodyTooLarge is returned by decodeJSON when the body exceeds the limit
// set by the max body size middleware.
var errBodyTooLarge = errors.New("request body too large")

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err onto the HTTP error taxonomy:
//   - domain.ErrValidation -> 422 validation_error
//   - domain.ErrNotFound   -> 404 not_found
//   - domain.ErrConflict   -> 409 conflict
//   - errBodyTooLarge      -> 413 payload_too_large
//   - anything else        -> 500 internal_error, logged, details hidden
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		status int
		code   string
		msg    string
	)
	switch {
	case errors.Is(err, domain.ErrValidation):
		status, code, msg = http.StatusUnprocessableEntity, "validation_error", reason(err, domain.ErrValidation)
	case errors.Is(err, domain.ErrNotFound):
		status, code, msg = http.StatusNotFound, "not_found", reason(err, domain.ErrNotFound)
	case errors.Is(err, domain.ErrConflict):
		status, code, msg = http.StatusConflict, "conflict", reason(err, domain.ErrConflict)
	case errors.Is(err, errBodyTooLarge):
		status, code, msg = http.StatusRequestEntityTooLarge, "payload_too_large", err.Error()
	default:
		s.log.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		status, code, msg = http.StatusInternalServerError, "internal_error", "internal server error"
	}

	writeJSON(w, status, ErrorResponse{Error: ErrorDetail{
		Code:      code,
		Message:   msg,
		RequestID: chimiddleware.GetReqID(r.Context()),
	}})
}

// notFound writes a 404 for a lookup that came back empty.
func (s *Server) notFound(w http.ResponseWriter, r *http.Request, what string) {
	s.writeError(w, r, fmt.Errorf("%w: %s", domain.ErrNotFound, what))
}

// reason extracts the human-readable part after the sentinel from a wrapped error.
// e.g. "service.RideService.Open: conflict: bike 3 already rented" -> "bike 3 already rented"
func reason(err, sentinel error) string {
	msg := err.Error()
	marker := sentinel.Error() + ": "
	if i := strings.LastIndex(msg, marker); i >= 0 {
		return msg[i+len(marker):]
	}
	return msg
}

// decodeJSON reads a single JSON object from the request body into dst.
// Unknown fields are rejected so typos surface as validation errors.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return errBodyTooLarge
		}
		return fmt.Errorf("%w: malformed request body: %v", domain.ErrValidation, err)
	}
	return nil
}

func errUnknownFormat(format string) error {
	return fmt.Errorf("%w: unknown format %q, want csv or json", domain.ErrValidation, format)
}
