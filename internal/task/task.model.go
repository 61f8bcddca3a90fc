package task

import (
	"time"

	"github.com/google/uuid"

	"rpgTodoAPI/internal/label"
	"rpgTodoAPI/internal/progression"
)

type Task struct {
	ID          uuid.UUID            `json:"id"`
	UserID      uuid.UUID            `json:"user_id"`
	Title       string               `json:"title"`
	Description *string              `json:"description"`
	Priority    progression.Priority `json:"priority"`
	DueDate     *time.Time           `json:"due_date"`
	IsComplete  bool                 `json:"is_complete"`
	XPEarned    int                  `json:"xp_earned"`
	CompletedAt *time.Time           `json:"completed_at"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
	Labels      []label.Label        `json:"labels"`
}
