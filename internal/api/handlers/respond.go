package handlers

import (
	"encoding/json"
	"net/http"

	apperrors "github.com/zatekoja/carerouter/backend/pkg/errors"
)

type errorResponse struct {
	Error string `json:"error"`
	Type  string `json:"type"`
}

func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

// respondWithAppError writes err with the status and message its type maps
// to. Untyped errors are reported as internal without leaking detail.
func respondWithAppError(w http.ResponseWriter, err error) {
	respondWithJSON(w, apperrors.HTTPStatus(err), errorResponse{
		Error: apperrors.PublicMessage(err),
		Type:  string(apperrors.TypeOf(err)),
	})
}
