package task

import (
	"time"

	"github.com/google/uuid"

	"rpgTodoAPI/internal/achievement"
	"rpgTodoAPI/internal/progression"
)

const MaxTitleLength = 255

type CreateTaskRequest struct {
	Title       string      `json:"title"`
	Description *string     `json:"description,omitempty"`
	Priority    string      `json:"priority"`
	DueDate     *time.Time  `json:"due_date,omitempty"`
	LabelIDs    []uuid.UUID `json:"label_ids,omitempty"`
}

// UpdateTaskRequest is a partial update. A non-nil LabelIDs replaces the
// task's label set.
type UpdateTaskRequest struct {
	Title       *string      `json:"title,omitempty"`
	Description *string      `json:"description,omitempty"`
	Priority    *string      `json:"priority,omitempty"`
	DueDate     *time.Time   `json:"due_date,omitempty"`
	LabelIDs    *[]uuid.UUID `json:"label_ids,omitempty"`
}

type ListFilter struct {
	IsComplete *bool
	Priority   *progression.Priority
	LabelIDs   []uuid.UUID
}

type CreateTaskResponse struct {
	Task            *Task                     `json:"task"`
	NewAchievements []achievement.Achievement `json:"new_achievements"`
}

type CompleteTaskResponse struct {
	Task                *Task                     `json:"task"`
	XPEarned            int                       `json:"xp_earned"`
	NewLevel            int                       `json:"new_level"`
	LevelUp             bool                      `json:"level_up"`
	NewTotalXP          int                       `json:"new_total_xp"`
	BonusXP             int                       `json:"bonus_xp"`
	NewAchievements     []achievement.Achievement `json:"new_achievements"`
	BookkeepingDegraded bool                      `json:"bookkeeping_degraded"`
}
