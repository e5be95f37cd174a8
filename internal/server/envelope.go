package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/trovecart/shipping/pkg/carrier"
)

// envelope is the uniform response shape for every endpoint.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

func respondData(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(envelope{Success: true, Data: data})
}

func respondError(w http.ResponseWriter, err error) {
	status, kind := statusForError(err)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(envelope{
		Success: false,
		Message: err.Error(),
		Error:   kind,
	})
}

func respondMessage(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(envelope{Success: false, Message: message})
}

// statusForError maps the error taxonomy onto HTTP status codes. Unknown
// errors are treated as internal rather than leaked as carrier failures.
func statusForError(err error) (int, string) {
	var e *carrier.Error
	if !errors.As(err, &e) {
		return http.StatusInternalServerError, "internal"
	}
	switch e.Kind {
	case carrier.KindValidation:
		return http.StatusBadRequest, string(e.Kind)
	case carrier.KindAuthentication:
		return http.StatusUnauthorized, string(e.Kind)
	case carrier.KindNotFound:
		return http.StatusNotFound, string(e.Kind)
	case carrier.KindCarrier:
		return http.StatusBadGateway, string(e.Kind)
	default:
		return http.StatusInternalServerError, string(e.Kind)
	}
}
