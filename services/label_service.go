package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"rpgTodoAPI/internal/achievement"
	"rpgTodoAPI/internal/label"
)

const maxLabelNameLength = 50

type LabelService struct {
	db           *pgxpool.Pool
	gamification *GamificationService
}

func NewLabelService(db *pgxpool.Pool, gamification *GamificationService) *LabelService {
	return &LabelService{db: db, gamification: gamification}
}

// normalizeLabelName returns the trimmed name and the slug labels are unique
// by, so "Home Office" and "home-office" collide.
func normalizeLabelName(raw string) (string, string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", "", invalid("name is required")
	}
	if utf8.RuneCountInString(name) > maxLabelNameLength {
		return "", "", invalid("name must be at most %d characters", maxLabelNameLength)
	}
	s := slug.Make(name)
	if s == "" {
		return "", "", invalid("name must contain letters or digits")
	}
	return name, s, nil
}

func (s *LabelService) GetLabels(ctx context.Context, authID string) ([]*label.Label, error) {
	userID, err := resolveUserID(ctx, s.db, authID)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx, `
	SELECT id, user_id, name, slug, created_at
	FROM labels
	WHERE user_id = $1
	ORDER BY name
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get labels: %w", err)
	}
	defer rows.Close()

	labels := []*label.Label{}
	for rows.Next() {
		l := &label.Label{}
		if err := rows.Scan(&l.ID, &l.UserID, &l.Name, &l.Slug, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan label: %w", err)
		}
		labels = append(labels, l)
	}
	return labels, rows.Err()
}

// CreateLabel adds a label and then checks label_creation milestones.
// Achievement bookkeeping never fails the request.
func (s *LabelService) CreateLabel(ctx context.Context, authID string, req *label.CreateLabelRequest) (*label.CreateLabelResponse, error) {
	name, labelSlug, err := normalizeLabelName(req.Name)
	if err != nil {
		return nil, err
	}

	userID, err := resolveUserID(ctx, s.db, authID)
	if err != nil {
		return nil, err
	}

	l := &label.Label{}
	err = s.db.QueryRow(ctx, `
	INSERT INTO labels (id, user_id, name, slug)
	VALUES ($1, $2, $3, $4)
	RETURNING id, user_id, name, slug, created_at
	`, uuid.New(), userID, name, labelSlug).Scan(&l.ID, &l.UserID, &l.Name, &l.Slug, &l.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrLabelExists
		}
		return nil, fmt.Errorf("failed to create label: %w", err)
	}

	outcome := s.gamification.CheckAchievements(ctx, userID, achievement.Trigger{Action: achievement.CriteriaLabelCreation})

	return &label.CreateLabelResponse{
		Label:           l,
		NewAchievements: outcome.Awarded,
	}, nil
}

func (s *LabelService) RenameLabel(ctx context.Context, authID string, labelID uuid.UUID, req *label.UpdateLabelRequest) (*label.Label, error) {
	name, labelSlug, err := normalizeLabelName(req.Name)
	if err != nil {
		return nil, err
	}

	userID, err := resolveUserID(ctx, s.db, authID)
	if err != nil {
		return nil, err
	}

	l := &label.Label{}
	err = s.db.QueryRow(ctx, `
	UPDATE labels SET name = $3, slug = $4
	WHERE id = $1 AND user_id = $2
	RETURNING id, user_id, name, slug, created_at
	`, labelID, userID, name, labelSlug).Scan(&l.ID, &l.UserID, &l.Name, &l.Slug, &l.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLabelNotFound
		}
		if isUniqueViolation(err) {
			return nil, ErrLabelExists
		}
		return nil, fmt.Errorf("failed to rename label: %w", err)
	}
	return l, nil
}

func (s *LabelService) DeleteLabel(ctx context.Context, authID string, labelID uuid.UUID) error {
	userID, err := resolveUserID(ctx, s.db, authID)
	if err != nil {
		return err
	}

	tag, err := s.db.Exec(ctx, `DELETE FROM labels WHERE id = $1 AND user_id = $2`, labelID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete label: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrLabelNotFound
	}
	return nil
}
