package services

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"rpgTodoAPI/internal/achievement"
	"rpgTodoAPI/internal/progression"
)

// LoadCatalog reads the level table and achievement catalog once. Empty
// tables fall back to the built-in defaults.
func LoadCatalog(ctx context.Context, db *pgxpool.Pool) (*progression.LevelTable, *achievement.Catalog, error) {
	rows, err := db.Query(ctx, `SELECT level_number, xp_required FROM levels ORDER BY level_number`)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query levels: %w", err)
	}
	var thresholds []progression.Threshold
	for rows.Next() {
		var th progression.Threshold
		if err := rows.Scan(&th.Level, &th.XPRequired); err != nil {
			rows.Close()
			return nil, nil, fmt.Errorf("failed to scan level: %w", err)
		}
		thresholds = append(thresholds, th)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to read levels: %w", err)
	}

	levels := progression.DefaultLevelTable()
	if len(thresholds) > 0 {
		if levels, err = progression.NewLevelTable(thresholds); err != nil {
			return nil, nil, err
		}
	}

	rows, err = db.Query(ctx, `
	SELECT id, name, description, xp_bonus, criteria_type, criteria_value
	FROM achievements
	`)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query achievements: %w", err)
	}
	defer rows.Close()

	var achievements []achievement.Achievement
	for rows.Next() {
		var a achievement.Achievement
		if err := rows.Scan(&a.ID, &a.Name, &a.Description, &a.XPBonus, &a.CriteriaType, &a.CriteriaValue); err != nil {
			return nil, nil, fmt.Errorf("failed to scan achievement: %w", err)
		}
		achievements = append(achievements, a)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to read achievements: %w", err)
	}

	if len(achievements) == 0 {
		achievements = achievement.DefaultAchievements()
	}
	catalog, err := achievement.NewCatalog(achievements)
	if err != nil {
		return nil, nil, err
	}
	return levels, catalog, nil
}
