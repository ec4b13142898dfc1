package handler

import (
	"errors"
	"net/http"

	"github.com/sidstack/sidmemo-server/internal/model"
)

// handleError maps domain errors to HTTP responses. Unknown errors never
// leak their message to the client.
func handleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrInvalidInput):
		respondError(w, http.StatusBadRequest, "invalid input")
	case errors.Is(err, model.ErrTokenExpired):
		respondError(w, http.StatusUnauthorized, "refresh token expired")
	case errors.Is(err, model.ErrTokenRevoked):
		respondError(w, http.StatusUnauthorized, "refresh token revoked")
	case errors.Is(err, model.ErrKeyExpired):
		respondError(w, http.StatusUnauthorized, "api key expired")
	case errors.Is(err, model.ErrUnauthorized):
		respondError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, model.ErrForbidden):
		respondError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, model.ErrNotFound):
		respondError(w, http.StatusNotFound, "not found")
	case errors.Is(err, model.ErrConflict):
		respondError(w, http.StatusConflict, "conflict")
	default:
		respondError(w, http.StatusInternalServerError, "internal server error")
	}
}
