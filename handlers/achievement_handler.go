package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"rpgTodoAPI/services"
)

type AchievementHandler struct {
	achievementService *services.AchievementService
	log                zerolog.Logger
}

func NewAchievementHandler(achievementService *services.AchievementService, log zerolog.Logger) *AchievementHandler {
	return &AchievementHandler{achievementService: achievementService, log: log}
}

func (h *AchievementHandler) GetAchievements(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	authID, ok := requireAuthID(w, r)
	if !ok {
		return
	}

	achievements, err := h.achievementService.GetAchievements(ctx, authID)
	if err != nil {
		respondWithServiceError(w, h.log, err)
		return
	}
	respondWithJSON(w, http.StatusOK, achievements)
}

func (h *AchievementHandler) GetEarned(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	authID, ok := requireAuthID(w, r)
	if !ok {
		return
	}

	earned, err := h.achievementService.GetEarned(ctx, authID)
	if err != nil {
		respondWithServiceError(w, h.log, err)
		return
	}
	respondWithJSON(w, http.StatusOK, earned)
}
