package notification

import (
	"time"

	"github.com/google/uuid"
)

type PushType string

const (
	PushLevelUp     PushType = "level_up"
	PushAchievement PushType = "achievement"
)

type DeviceToken struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Token     string    `json:"token"`
	Platform  string    `json:"platform"`
	LastSeen  time.Time `json:"last_seen"`
	CreatedAt time.Time `json:"created_at"`
}

type Push struct {
	UserID string
	Type   PushType
	Title  string
	Body   string
	Data   map[string]any
}
