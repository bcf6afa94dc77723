package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/server/services"
)

// Envelope is the body of every JSON response.
type Envelope struct {
	Message string            `json:"message"`
	Data    any               `json:"data,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError maps a service error onto a status code and a message that
// does not reveal which auth check failed.
func writeError(w http.ResponseWriter, err error) {
	status, body := errorResponse(err)
	writeJSON(w, status, body)
}

func errorResponse(err error) (int, Envelope) {
	switch {
	case errors.Is(err, common.ErrValidation):
		body := Envelope{Message: "validation failed"}
		var verr *services.ValidationError
		if errors.As(err, &verr) {
			body.Errors = verr.Fields
		}
		return http.StatusBadRequest, body
	case errors.Is(err, common.ErrConflict):
		return http.StatusConflict, Envelope{Message: "user already exists"}
	case common.IsLoginFailure(err):
		return http.StatusUnauthorized, Envelope{Message: "login failed"}
	case common.IsUnauthorized(err):
		return http.StatusUnauthorized, Envelope{Message: "unauthorized"}
	case errors.Is(err, common.ErrNoActiveSession):
		return http.StatusNotFound, Envelope{Message: "no active session"}
	default:
		return http.StatusInternalServerError, Envelope{Message: "internal error"}
	}
}
