package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/s-dimaio/JavahOn-sub000/internal/appliance"
	"github.com/s-dimaio/JavahOn-sub000/internal/command"
	"github.com/s-dimaio/JavahOn-sub000/internal/parameter"
)

// Error represents a structured error response.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`

	// Key and Allowed describe a rejected parameter value.
	Key     string   `json:"key,omitempty"`
	Allowed []string `json:"allowed,omitempty"`
}

// Common error codes.
const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeNotFound     = "not_found"
	ErrCodeUnauthorized = "unauthorised"
	ErrCodeInternal     = "internal_error"
	ErrCodeValidation   = "validation_error"
	ErrCodeTransmission = "transmission_failed"
	ErrCodeUnavailable  = "unavailable"
)

// Handler-local errors resolved to responses inside the package.
var (
	errParameterNotFound = errors.New("api: parameter not found")
	errUnknownSyncOp     = errors.New("api: unknown sync operation")
)

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeError writes a structured error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Error{
		Status:  status,
		Code:    code,
		Message: message,
	})
}

// writeBadRequest writes a 400 error response.
func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// writeNotFound writes a 404 error response.
func writeNotFound(w http.ResponseWriter, message string) {
	writeError(w, http.StatusNotFound, ErrCodeNotFound, message)
}

// writeInternalError writes a 500 error response.
func writeInternalError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusInternalServerError, ErrCodeInternal, message)
}

// writeValidationError writes a rejected parameter value with its legal domain.
func writeValidationError(w http.ResponseWriter, status int, verr *parameter.ValidationError) {
	writeJSON(w, status, Error{
		Status:  status,
		Code:    ErrCodeValidation,
		Message: verr.Error(),
		Key:     verr.Key,
		Allowed: verr.Allowed,
	})
}

// writeDomainError maps appliance, command and parameter errors to responses.
//
// validationStatus is 400 for direct parameter writes and 422 for sends.
func (s *Server) writeDomainError(w http.ResponseWriter, err error, validationStatus int) {
	var verr *parameter.ValidationError
	switch {
	case errors.As(err, &verr):
		if s.metrics != nil {
			s.metrics.ValidationFailed(verr.Key)
		}
		writeValidationError(w, validationStatus, verr)
	case errors.Is(err, appliance.ErrApplianceNotFound),
		errors.Is(err, command.ErrUnknownCommand):
		writeNotFound(w, err.Error())
	case errors.Is(err, command.ErrUnknownCategory):
		writeBadRequest(w, err.Error())
	case errors.Is(err, command.ErrMissingCredentials):
		writeError(w, http.StatusUnauthorized, ErrCodeUnauthorized, err.Error())
	case errors.Is(err, command.ErrTransmission):
		writeError(w, http.StatusBadGateway, ErrCodeTransmission, err.Error())
	case errors.Is(err, appliance.ErrNoAPI):
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, err.Error())
	default:
		s.logger.Error("request failed", "error", err)
		writeInternalError(w, "internal server error")
	}
}
