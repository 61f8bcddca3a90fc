package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"rpgTodoAPI/internal/achievement"
)

type AchievementService struct {
	db      *pgxpool.Pool
	catalog *achievement.Catalog
}

func NewAchievementService(db *pgxpool.Pool, catalog *achievement.Catalog) *AchievementService {
	return &AchievementService{db: db, catalog: catalog}
}

// GetAchievements lists the whole catalog, sorted by name, with the caller's
// earned status.
func (s *AchievementService) GetAchievements(ctx context.Context, authID string) ([]*achievement.AchievementWithStatus, error) {
	userID, err := resolveUserID(ctx, s.db, authID)
	if err != nil {
		return nil, err
	}

	earned, err := s.earnedAt(ctx, userID)
	if err != nil {
		return nil, err
	}
	return withStatus(s.catalog.All(), earned), nil
}

// GetEarned lists the caller's earned achievements, newest first.
func (s *AchievementService) GetEarned(ctx context.Context, authID string) ([]achievement.EarnedAchievement, error) {
	userID, err := resolveUserID(ctx, s.db, authID)
	if err != nil {
		return nil, err
	}
	return s.EarnedByUserID(ctx, userID)
}

func (s *AchievementService) EarnedByUserID(ctx context.Context, userID string) ([]achievement.EarnedAchievement, error) {
	query := `
	SELECT a.id, a.name, a.description, a.xp_bonus, a.criteria_type, a.criteria_value, ua.earned_at
	FROM user_achievements ua
	JOIN achievements a ON a.id = ua.achievement_id
	WHERE ua.user_id = $1
	ORDER BY ua.earned_at DESC, a.name
	`

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get earned achievements: %w", err)
	}
	defer rows.Close()

	out := []achievement.EarnedAchievement{}
	for rows.Next() {
		var e achievement.EarnedAchievement
		if err := rows.Scan(&e.ID, &e.Name, &e.Description, &e.XPBonus, &e.CriteriaType, &e.CriteriaValue, &e.EarnedAt); err != nil {
			return nil, fmt.Errorf("failed to scan earned achievement: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *AchievementService) earnedAt(ctx context.Context, userID string) (map[uuid.UUID]time.Time, error) {
	rows, err := s.db.Query(ctx, `SELECT achievement_id, earned_at FROM user_achievements WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get earned achievements: %w", err)
	}
	defer rows.Close()

	earned := make(map[uuid.UUID]time.Time)
	for rows.Next() {
		var id uuid.UUID
		var at time.Time
		if err := rows.Scan(&id, &at); err != nil {
			return nil, fmt.Errorf("failed to scan earned achievement: %w", err)
		}
		earned[id] = at
	}
	return earned, rows.Err()
}

func withStatus(all []achievement.Achievement, earned map[uuid.UUID]time.Time) []*achievement.AchievementWithStatus {
	out := make([]*achievement.AchievementWithStatus, 0, len(all))
	for _, a := range all {
		item := &achievement.AchievementWithStatus{Achievement: a}
		if at, ok := earned[a.ID]; ok {
			item.Earned = true
			item.EarnedAt = &at
		}
		out = append(out, item)
	}
	return out
}
