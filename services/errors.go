package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrProfileNotFound     = errors.New("profile not found")
	ErrUsernameTaken       = errors.New("username already taken")
	ErrTaskNotFound        = errors.New("task not found")
	ErrTaskAlreadyComplete = errors.New("task already complete")
	ErrLabelNotFound       = errors.New("label not found")
	ErrLabelExists         = errors.New("label already exists")
	ErrStorageDisabled     = errors.New("object storage not configured")
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// resolveUserID maps the identity provider's subject to the profile id.
func resolveUserID(ctx context.Context, db *pgxpool.Pool, authID string) (string, error) {
	var userID string
	err := db.QueryRow(ctx, `SELECT id FROM user_profiles WHERE auth_id = $1`, authID).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrProfileNotFound
		}
		return "", fmt.Errorf("failed to resolve user: %w", err)
	}
	return userID, nil
}
