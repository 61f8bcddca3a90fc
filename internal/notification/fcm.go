package notification

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"
)

type FCMService struct {
	client *messaging.Client
	log    zerolog.Logger
}

// NewFCMService prefers base64 encoded service account JSON and falls back to
// a key file on disk.
func NewFCMService(ctx context.Context, encodedCreds, localFilePath string, log zerolog.Logger) (*FCMService, error) {
	var opt option.ClientOption

	if encodedCreds != "" {
		decoded, err := base64.StdEncoding.DecodeString(encodedCreds)
		if err != nil {
			return nil, fmt.Errorf("decode FCM_SERVICE_ACCOUNT_JSON: %w", err)
		}
		opt = option.WithCredentialsJSON(decoded)
		log.Info().Msg("fcm: using credentials from environment")
	} else {
		if _, err := os.Stat(localFilePath); os.IsNotExist(err) {
			return nil, fmt.Errorf("firebase key file %s not found and FCM_SERVICE_ACCOUNT_JSON is not set", localFilePath)
		}
		opt = option.WithCredentialsFile(localFilePath)
		log.Info().Str("path", localFilePath).Msg("fcm: using credentials file")
	}

	app, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("get messaging client: %w", err)
	}

	return &FCMService{client: client, log: log}, nil
}

// SendPush sends one message per token. It fails only when every send failed.
func (s *FCMService) SendPush(ctx context.Context, tokens []DeviceToken, push Push) error {
	if len(tokens) == 0 {
		return nil
	}

	data := make(map[string]string, len(push.Data)+1)
	for k, v := range push.Data {
		data[k] = fmt.Sprintf("%v", v)
	}
	data["type"] = string(push.Type)

	sent, failed := 0, 0
	for _, t := range tokens {
		msg := &messaging.Message{
			Token: t.Token,
			Notification: &messaging.Notification{
				Title: push.Title,
				Body:  push.Body,
			},
			Data: data,
		}
		switch t.Platform {
		case "ios":
			msg.APNS = &messaging.APNSConfig{
				Payload: &messaging.APNSPayload{Aps: &messaging.Aps{Sound: "default"}},
			}
		case "web":
		default:
			msg.Android = &messaging.AndroidConfig{
				Priority:     "high",
				Notification: &messaging.AndroidNotification{Sound: "default"},
			}
		}

		if _, err := s.client.Send(ctx, msg); err != nil {
			s.log.Warn().Err(err).Str("user_id", push.UserID).Str("platform", t.Platform).Msg("fcm: send failed")
			failed++
			continue
		}
		sent++
	}

	s.log.Debug().Int("sent", sent).Int("failed", failed).Msg("fcm: push batch done")
	if sent == 0 && failed > 0 {
		return fmt.Errorf("all %d push notifications failed", failed)
	}
	return nil
}
