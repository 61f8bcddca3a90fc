package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"rpgTodoAPI/internal/notification"
	"rpgTodoAPI/services"
)

type DeviceHandler struct {
	deviceService *services.DeviceService
	log           zerolog.Logger
}

func NewDeviceHandler(deviceService *services.DeviceService, log zerolog.Logger) *DeviceHandler {
	return &DeviceHandler{deviceService: deviceService, log: log}
}

func (h *DeviceHandler) RegisterDevice(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	authID, ok := requireAuthID(w, r)
	if !ok {
		return
	}

	var req notification.RegisterDeviceRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	device, err := h.deviceService.RegisterDevice(ctx, authID, &req)
	if err != nil {
		respondWithServiceError(w, h.log, err)
		return
	}
	respondWithJSON(w, http.StatusOK, device)
}
