package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"rpgTodoAPI/internal/progression"
	"rpgTodoAPI/middleware"
	"rpgTodoAPI/services"
)

const maxJSONBody = 1 << 20

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

// respondWithServiceError maps service sentinels to status codes. Anything
// unrecognised is logged and reported as a 500 without detail.
func respondWithServiceError(w http.ResponseWriter, log zerolog.Logger, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		respondWithError(w, http.StatusBadRequest, strings.TrimPrefix(err.Error(), services.ErrInvalidInput.Error()+": "))
	case errors.Is(err, services.ErrTaskAlreadyComplete):
		respondWithError(w, http.StatusBadRequest, "Task is already complete")
	case errors.Is(err, services.ErrProfileNotFound), errors.Is(err, progression.ErrUserNotFound):
		respondWithError(w, http.StatusNotFound, "Profile not found")
	case errors.Is(err, services.ErrTaskNotFound):
		respondWithError(w, http.StatusNotFound, "Task not found")
	case errors.Is(err, services.ErrLabelNotFound):
		respondWithError(w, http.StatusNotFound, "Label not found")
	case errors.Is(err, services.ErrLabelExists):
		respondWithError(w, http.StatusConflict, "A label with that name already exists")
	case errors.Is(err, services.ErrUsernameTaken):
		respondWithError(w, http.StatusConflict, "Username already taken")
	case errors.Is(err, services.ErrStorageDisabled):
		respondWithError(w, http.StatusServiceUnavailable, "File uploads are not available")
	default:
		log.Error().Err(err).Msg("request failed")
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func requireAuthID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := middleware.GetAuthID(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
	}
	return id, ok
}

func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}
