package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"rpgTodoAPI/internal/user"
	"rpgTodoAPI/services"
)

type ProfileHandler struct {
	profileService *services.ProfileService
	log            zerolog.Logger
}

func NewProfileHandler(profileService *services.ProfileService, log zerolog.Logger) *ProfileHandler {
	return &ProfileHandler{profileService: profileService, log: log}
}

func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	authID, ok := requireAuthID(w, r)
	if !ok {
		return
	}

	profile, err := h.profileService.GetProfile(ctx, authID)
	if err != nil {
		respondWithServiceError(w, h.log, err)
		return
	}
	respondWithJSON(w, http.StatusOK, profile)
}

// CreateProfile provisions the caller's profile when no identity provider
// webhook does it. The body is optional.
func (h *ProfileHandler) CreateProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	authID, ok := requireAuthID(w, r)
	if !ok {
		return
	}

	var req user.CreateProfileRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.AuthID = authID

	profile, created, err := h.profileService.CreateProfile(ctx, &req)
	if err != nil {
		respondWithServiceError(w, h.log, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	respondWithJSON(w, status, profile)
}

func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	authID, ok := requireAuthID(w, r)
	if !ok {
		return
	}

	var req user.UpdateProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	profile, err := h.profileService.UpdateProfile(ctx, authID, &req)
	if err != nil {
		respondWithServiceError(w, h.log, err)
		return
	}
	respondWithJSON(w, http.StatusOK, profile)
}

// UploadProfilePicture accepts a multipart form with the image in the
// "image" field.
func (h *ProfileHandler) UploadProfilePicture(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	authID, ok := requireAuthID(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, services.MaxProfilePictureBytes+(1<<20))
	if err := r.ParseMultipartForm(services.MaxProfilePictureBytes); err != nil {
		respondWithError(w, http.StatusBadRequest, "File too large or invalid form")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Form field 'image' is required")
		return
	}
	defer file.Close()

	contentType, err := sniffContentType(file)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Could not read uploaded file")
		return
	}

	profile, err := h.profileService.UploadProfilePicture(ctx, authID, header.Filename, contentType, header.Size, file)
	if err != nil {
		respondWithServiceError(w, h.log, err)
		return
	}
	respondWithJSON(w, http.StatusOK, profile)
}

// sniffContentType detects the type from the first bytes and rewinds.
func sniffContentType(f io.ReadSeeker) (string, error) {
	buf := make([]byte, 512)
	n, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	return http.DetectContentType(buf[:n]), nil
}
