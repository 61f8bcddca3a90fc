package user

import (
	"time"

	"rpgTodoAPI/internal/achievement"
	"rpgTodoAPI/internal/progression"
)

type Profile struct {
	ID           string    `json:"id"`
	AuthID       string    `json:"-"`
	Email        string    `json:"email,omitempty"`
	Username     *string   `json:"username"`
	Bio          *string   `json:"bio"`
	ImageURL     *string   `json:"image_url"`
	TotalXP      int       `json:"total_xp"`
	CurrentLevel int       `json:"current_level"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type LevelInfo struct {
	Current        progression.Threshold  `json:"current"`
	Next           *progression.Threshold `json:"next"`
	XPToNextLevel  int                    `json:"xp_to_next_level"`
	ProgressToNext float64                `json:"progress_to_next"`
}

type ProfileResponse struct {
	Profile      *Profile                        `json:"profile"`
	Achievements []achievement.EarnedAchievement `json:"achievements"`
	Level        LevelInfo                       `json:"level"`
}

// NewLevelInfo describes where totalXP sits between the current level and the
// next one. Next is nil at the maximum level.
func NewLevelInfo(levels *progression.LevelTable, currentLevel, totalXP int) LevelInfo {
	info := LevelInfo{ProgressToNext: 1}
	if cur, ok := levels.Threshold(currentLevel); ok {
		info.Current = cur
	}
	next, ok := levels.Threshold(currentLevel + 1)
	if !ok {
		return info
	}
	info.Next = &next
	info.XPToNextLevel = max(next.XPRequired-totalXP, 0)
	if span := next.XPRequired - info.Current.XPRequired; span > 0 {
		info.ProgressToNext = min(float64(totalXP-info.Current.XPRequired)/float64(span), 1)
	}
	return info
}
