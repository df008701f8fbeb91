package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/factorlink/factoring-backend/internal/domain"
)

// ErrorResponse is the error envelope returned on every non-2xx response
type ErrorResponse struct {
	Status  int               `json:"status"`
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	if reqID := middleware.GetReqID(r.Context()); reqID != "" {
		w.Header().Set("X-Request-ID", reqID)
	}
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// writeDomainError maps domain errors onto the wire envelope. Validation
// failures carry a field-to-message map so clients can attach messages to
// form fields.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		writeJSON(w, r, http.StatusBadRequest, ErrorResponse{
			Status:  http.StatusBadRequest,
			Code:    "VALIDATION_ERROR",
			Message: validationErr.Message,
			Errors:  map[string]string{validationErr.Field: validationErr.Message},
		})
		return
	}
	if domain.IsValidation(err) {
		writeJSON(w, r, http.StatusBadRequest, ErrorResponse{
			Status:  http.StatusBadRequest,
			Code:    "VALIDATION_ERROR",
			Message: err.Error(),
		})
		return
	}

	if domain.IsNotFound(err) {
		writeJSON(w, r, http.StatusNotFound, ErrorResponse{
			Status:  http.StatusNotFound,
			Code:    "NOT_FOUND",
			Message: err.Error(),
		})
		return
	}

	writeJSON(w, r, http.StatusInternalServerError, ErrorResponse{
		Status:  http.StatusInternalServerError,
		Code:    "INTERNAL_ERROR",
		Message: "internal error",
	})
}

// writeFieldError reports a request parsing problem on a named field
func writeFieldError(w http.ResponseWriter, r *http.Request, field, message string) {
	writeJSON(w, r, http.StatusBadRequest, ErrorResponse{
		Status:  http.StatusBadRequest,
		Code:    "VALIDATION_ERROR",
		Message: message,
		Errors:  map[string]string{field: message},
	})
}

func writeBadRequest(w http.ResponseWriter, r *http.Request, message string) {
	writeJSON(w, r, http.StatusBadRequest, ErrorResponse{
		Status:  http.StatusBadRequest,
		Code:    "BAD_REQUEST",
		Message: message,
	})
}
