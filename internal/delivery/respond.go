package delivery

import (
	"errors"
	"net/http"

	json "github.com/goccy/go-json"

	"github.com/Vovarama1992/flipbook/internal/conversion"
	"github.com/Vovarama1992/flipbook/internal/ports"
	"github.com/Vovarama1992/flipbook/internal/session"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), map[string]string{"error": err.Error()})
}

func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// statusFor maps domain errors to HTTP codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ports.ErrNotFound),
		errors.Is(err, conversion.ErrPageOutOfRange):
		return http.StatusNotFound
	case errors.Is(err, conversion.ErrDocumentLoad):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ports.ErrUnsupportedInput),
		errors.Is(err, session.ErrWeakPassword),
		errors.Is(err, session.ErrInvalidEmail):
		return http.StatusBadRequest
	case errors.Is(err, ports.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ports.ErrUploadFailed):
		return http.StatusBadGateway
	case errors.Is(err, conversion.ErrRenderTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, session.ErrUnauthorized),
		errors.Is(err, session.ErrInvalidCredentials),
		errors.Is(err, session.ErrSessionNotFound):
		return http.StatusUnauthorized
	case errors.Is(err, session.ErrEmailTaken):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
