package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"rpgTodoAPI/internal/label"
	"rpgTodoAPI/services"
)

type LabelHandler struct {
	labelService *services.LabelService
	log          zerolog.Logger
}

func NewLabelHandler(labelService *services.LabelService, log zerolog.Logger) *LabelHandler {
	return &LabelHandler{labelService: labelService, log: log}
}

func (h *LabelHandler) GetLabels(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	authID, ok := requireAuthID(w, r)
	if !ok {
		return
	}

	labels, err := h.labelService.GetLabels(ctx, authID)
	if err != nil {
		respondWithServiceError(w, h.log, err)
		return
	}
	respondWithJSON(w, http.StatusOK, labels)
}

func (h *LabelHandler) CreateLabel(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	authID, ok := requireAuthID(w, r)
	if !ok {
		return
	}

	var req label.CreateLabelRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.labelService.CreateLabel(ctx, authID, &req)
	if err != nil {
		respondWithServiceError(w, h.log, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, res)
}

func (h *LabelHandler) RenameLabel(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	authID, ok := requireAuthID(w, r)
	if !ok {
		return
	}
	labelID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req label.UpdateLabelRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	l, err := h.labelService.RenameLabel(ctx, authID, labelID, &req)
	if err != nil {
		respondWithServiceError(w, h.log, err)
		return
	}
	respondWithJSON(w, http.StatusOK, l)
}

func (h *LabelHandler) DeleteLabel(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	authID, ok := requireAuthID(w, r)
	if !ok {
		return
	}
	labelID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.labelService.DeleteLabel(ctx, authID, labelID); err != nil {
		respondWithServiceError(w, h.log, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Label deleted successfully"})
}
