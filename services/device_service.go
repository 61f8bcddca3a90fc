package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"rpgTodoAPI/internal/notification"
)

type DeviceService struct {
	db *pgxpool.Pool
}

func NewDeviceService(db *pgxpool.Pool) *DeviceService {
	return &DeviceService{db: db}
}

// RegisterDevice upserts a push token. A token that moves to another account
// follows it.
func (s *DeviceService) RegisterDevice(ctx context.Context, authID string, req *notification.RegisterDeviceRequest) (*notification.DeviceToken, error) {
	if err := req.Validate(); err != nil {
		return nil, invalid("%s", err.Error())
	}

	userID, err := resolveUserID(ctx, s.db, authID)
	if err != nil {
		return nil, err
	}

	query := `
	INSERT INTO device_tokens (id, user_id, token, platform, last_seen)
	VALUES ($1, $2, $3, $4, NOW())
	ON CONFLICT (token)
	DO UPDATE SET user_id = EXCLUDED.user_id, platform = EXCLUDED.platform, last_seen = NOW()
	RETURNING id, user_id, token, platform, last_seen, created_at
	`

	d := &notification.DeviceToken{}
	err = s.db.QueryRow(ctx, query, uuid.New(), userID, req.Token, req.Platform).
		Scan(&d.ID, &d.UserID, &d.Token, &d.Platform, &d.LastSeen, &d.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to register device: %w", err)
	}
	return d, nil
}

func (s *DeviceService) TokensForUser(ctx context.Context, userID string) ([]notification.DeviceToken, error) {
	rows, err := s.db.Query(ctx, `
	SELECT id, user_id, token, platform, last_seen, created_at
	FROM device_tokens
	WHERE user_id = $1
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get device tokens: %w", err)
	}
	defer rows.Close()

	var tokens []notification.DeviceToken
	for rows.Next() {
		var d notification.DeviceToken
		if err := rows.Scan(&d.ID, &d.UserID, &d.Token, &d.Platform, &d.LastSeen, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan device token: %w", err)
		}
		tokens = append(tokens, d)
	}
	return tokens, rows.Err()
}

// PruneStale deletes tokens not registered again within maxAge.
func (s *DeviceService) PruneStale(ctx context.Context, maxAge time.Duration) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM device_tokens WHERE last_seen < $1`, time.Now().Add(-maxAge))
	if err != nil {
		return 0, fmt.Errorf("failed to prune device tokens: %w", err)
	}
	return tag.RowsAffected(), nil
}
