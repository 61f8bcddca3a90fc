package label

import (
	"time"

	"github.com/google/uuid"

	"rpgTodoAPI/internal/achievement"
)

type Label struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
}

type CreateLabelRequest struct {
	Name string `json:"name"`
}

type UpdateLabelRequest struct {
	Name string `json:"name"`
}

type CreateLabelResponse struct {
	Label           *Label                    `json:"label"`
	NewAchievements []achievement.Achievement `json:"new_achievements"`
}
