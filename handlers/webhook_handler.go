package handlers

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"rpgTodoAPI/internal/user"
	"rpgTodoAPI/services"
)

const (
	maxWebhookBody    = 1 << 20
	webhookTimeSkew   = 5 * time.Minute
	svixSecretPrefix  = "whsec_"
	svixSignatureVer1 = "v1,"
)

var errInvalidSignature = errors.New("invalid webhook signature")

type WebhookHandler struct {
	profileService *services.ProfileService
	secret         string
	log            zerolog.Logger
	now            func() time.Time
}

func NewWebhookHandler(profileService *services.ProfileService, secret string, log zerolog.Logger) *WebhookHandler {
	return &WebhookHandler{
		profileService: profileService,
		secret:         secret,
		log:            log,
		now:            time.Now,
	}
}

// HandleClerkWebhook keeps profiles in step with Clerk's user lifecycle.
func (h *WebhookHandler) HandleClerkWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Error reading body")
		return
	}

	if err := h.verifySignature(r.Header, body); err != nil {
		h.log.Warn().Err(err).Msg("rejected clerk webhook")
		respondWithError(w, http.StatusUnauthorized, "Invalid signature")
		return
	}

	var event user.ClerkWebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		respondWithError(w, http.StatusBadRequest, "Error parsing webhook")
		return
	}

	h.log.Info().Str("type", event.Type).Msg("received clerk webhook")

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	switch event.Type {
	case "user.created":
		err = h.handleUserCreated(ctx, event.Data)
	case "user.updated":
		err = h.handleUserUpdated(ctx, event.Data)
	case "user.deleted":
		err = h.handleUserDeleted(ctx, event.Data)
	default:
		h.log.Debug().Str("type", event.Type).Msg("unhandled clerk webhook")
	}
	if err != nil {
		h.log.Error().Err(err).Str("type", event.Type).Msg("clerk webhook failed")
		respondWithError(w, http.StatusInternalServerError, "Error processing webhook")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *WebhookHandler) handleUserCreated(ctx context.Context, data json.RawMessage) error {
	var userData user.ClerkUserData
	if err := json.Unmarshal(data, &userData); err != nil {
		return fmt.Errorf("failed to unmarshal user data: %w", err)
	}

	p, created, err := h.profileService.CreateProfile(ctx, &user.CreateProfileRequest{
		AuthID:   userData.ID,
		Email:    userData.PrimaryEmail(),
		Username: userData.Username,
		ImageURL: userData.ImageURL,
	})
	if err != nil {
		return err
	}
	h.log.Info().Str("user_id", p.ID).Bool("created", created).Msg("profile provisioned from clerk")
	return nil
}

func (h *WebhookHandler) handleUserUpdated(ctx context.Context, data json.RawMessage) error {
	var userData user.ClerkUserData
	if err := json.Unmarshal(data, &userData); err != nil {
		return fmt.Errorf("failed to unmarshal user data: %w", err)
	}

	err := h.profileService.SyncFromAuthProvider(ctx, userData.ID, userData.PrimaryEmail(), userData.Username)
	if errors.Is(err, services.ErrProfileNotFound) {
		// Missed user.created; provision now.
		return h.handleUserCreated(ctx, data)
	}
	return err
}

func (h *WebhookHandler) handleUserDeleted(ctx context.Context, data json.RawMessage) error {
	var userData struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &userData); err != nil {
		return fmt.Errorf("failed to unmarshal user data: %w", err)
	}

	err := h.profileService.DeleteByAuthID(ctx, userData.ID)
	if errors.Is(err, services.ErrProfileNotFound) {
		return nil
	}
	return err
}

// verifySignature checks the svix headers Clerk signs webhooks with. An
// empty secret disables verification for local development.
func (h *WebhookHandler) verifySignature(header http.Header, body []byte) error {
	if h.secret == "" {
		h.log.Warn().Msg("CLERK_WEBHOOK_SECRET not set, skipping signature verification")
		return nil
	}

	svixID := header.Get("svix-id")
	svixTimestamp := header.Get("svix-timestamp")
	svixSignature := header.Get("svix-signature")
	if svixID == "" || svixTimestamp == "" || svixSignature == "" {
		return fmt.Errorf("%w: missing svix headers", errInvalidSignature)
	}

	ts, err := strconv.ParseInt(svixTimestamp, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: bad timestamp", errInvalidSignature)
	}
	if skew := h.now().Sub(time.Unix(ts, 0)); skew > webhookTimeSkew || skew < -webhookTimeSkew {
		return fmt.Errorf("%w: timestamp outside tolerance", errInvalidSignature)
	}

	key, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(h.secret, svixSecretPrefix))
	if err != nil {
		return fmt.Errorf("decode webhook secret: %w", err)
	}

	expected := signSvix(key, svixID, svixTimestamp, body)
	for _, candidate := range strings.Fields(svixSignature) {
		sig, ok := strings.CutPrefix(candidate, svixSignatureVer1)
		if ok && hmac.Equal([]byte(sig), []byte(expected)) {
			return nil
		}
	}
	return errInvalidSignature
}

func signSvix(key []byte, id, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(id + "." + timestamp + "."))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
