package achievement

import (
	"time"

	"github.com/google/uuid"
)

type CriteriaType string

const (
	CriteriaTaskCreation   CriteriaType = "task_creation"
	CriteriaTaskCompletion CriteriaType = "task_completion"
	CriteriaLevelMilestone CriteriaType = "level_milestone"
	CriteriaLabelCreation  CriteriaType = "label_creation"
)

var (
	TaskCreationMilestones  = []int{5, 10, 20}
	LevelMilestones         = []int{5, 10, 15, 20}
	LabelCreationMilestones = []int{3, 5, 10}
)

type Achievement struct {
	ID            uuid.UUID    `json:"id" db:"id"`
	Name          string       `json:"name" db:"name"`
	Description   string       `json:"description" db:"description"`
	XPBonus       int          `json:"xp_bonus" db:"xp_bonus"`
	CriteriaType  CriteriaType `json:"criteria_type" db:"criteria_type"`
	CriteriaValue int          `json:"criteria_value" db:"criteria_value"`
}

type UserAchievement struct {
	UserID        uuid.UUID `json:"user_id" db:"user_id"`
	AchievementID uuid.UUID `json:"achievement_id" db:"achievement_id"`
	EarnedAt      time.Time `json:"earned_at" db:"earned_at"`
}

type AchievementWithStatus struct {
	Achievement
	Earned   bool       `json:"earned"`
	EarnedAt *time.Time `json:"earned_at"`
}

type EarnedAchievement struct {
	Achievement
	EarnedAt time.Time `json:"earned_at"`
}
