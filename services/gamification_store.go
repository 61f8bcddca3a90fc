package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"rpgTodoAPI/internal/progression"
)

// GamificationStore is the Postgres side of the XP and achievement pipeline.
// It satisfies progression.Store, achievement.EarnedStore and
// achievement.Counter.
type GamificationStore struct {
	db *pgxpool.Pool
}

func NewGamificationStore(db *pgxpool.Pool) *GamificationStore {
	return &GamificationStore{db: db}
}

func (s *GamificationStore) GetProgression(ctx context.Context, userID string) (progression.Progression, error) {
	query := `
	SELECT id, total_xp, current_level, updated_at
	FROM user_profiles
	WHERE id = $1
	`

	var p progression.Progression
	err := s.db.QueryRow(ctx, query, userID).Scan(&p.UserID, &p.TotalXP, &p.CurrentLevel, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return progression.Progression{}, progression.ErrUserNotFound
		}
		return progression.Progression{}, fmt.Errorf("failed to get progression: %w", err)
	}
	return p, nil
}

// UpdateProgression locks the user's row, applies fn and writes the result in
// one transaction, so concurrent awards serialize on the row.
func (s *GamificationStore) UpdateProgression(ctx context.Context, userID string, fn func(progression.Progression) (progression.Progression, error)) (progression.Progression, progression.Progression, error) {
	var before, after progression.Progression

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return before, after, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
	SELECT id, total_xp, current_level, updated_at
	FROM user_profiles
	WHERE id = $1
	FOR UPDATE
	`, userID).Scan(&before.UserID, &before.TotalXP, &before.CurrentLevel, &before.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return before, after, progression.ErrUserNotFound
		}
		return before, after, fmt.Errorf("failed to lock progression: %w", err)
	}

	after, err = fn(before)
	if err != nil {
		return before, after, err
	}

	_, err = tx.Exec(ctx, `
	UPDATE user_profiles
	SET total_xp = $2, current_level = $3, updated_at = $4
	WHERE id = $1
	`, userID, after.TotalXP, after.CurrentLevel, after.UpdatedAt)
	if err != nil {
		return before, after, fmt.Errorf("failed to update progression: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return before, after, fmt.Errorf("failed to commit progression: %w", err)
	}
	return before, after, nil
}

func (s *GamificationStore) HasEarned(ctx context.Context, userID string, achievementID uuid.UUID) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx, `
	SELECT EXISTS (
		SELECT 1 FROM user_achievements WHERE user_id = $1 AND achievement_id = $2
	)`, userID, achievementID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check earned achievement: %w", err)
	}
	return exists, nil
}

// RecordEarned inserts the earned record unless one exists. Two racing
// callers get exactly one true.
func (s *GamificationStore) RecordEarned(ctx context.Context, userID string, achievementID uuid.UUID, at time.Time) (bool, error) {
	tag, err := s.db.Exec(ctx, `
	INSERT INTO user_achievements (user_id, achievement_id, earned_at)
	VALUES ($1, $2, $3)
	ON CONFLICT (user_id, achievement_id) DO NOTHING
	`, userID, achievementID, at)
	if err != nil {
		return false, fmt.Errorf("failed to record achievement: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *GamificationStore) CountTasks(ctx context.Context, userID string) (int, error) {
	var n int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM tasks WHERE user_id = $1`, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count tasks: %w", err)
	}
	return n, nil
}

func (s *GamificationStore) CountCompletedTasks(ctx context.Context, userID string, priority progression.Priority) (int, error) {
	var n int
	err := s.db.QueryRow(ctx, `
	SELECT COUNT(*) FROM tasks
	WHERE user_id = $1 AND priority = $2 AND is_complete
	`, userID, string(priority)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count completed tasks: %w", err)
	}
	return n, nil
}

func (s *GamificationStore) CountLabels(ctx context.Context, userID string) (int, error) {
	var n int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM labels WHERE user_id = $1`, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count labels: %w", err)
	}
	return n, nil
}
