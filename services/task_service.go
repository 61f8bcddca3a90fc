package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"rpgTodoAPI/internal/achievement"
	"rpgTodoAPI/internal/label"
	"rpgTodoAPI/internal/progression"
	"rpgTodoAPI/internal/task"
)

type TaskService struct {
	db           *pgxpool.Pool
	gamification *GamificationService
	log          zerolog.Logger
}

func NewTaskService(db *pgxpool.Pool, gamification *GamificationService, log zerolog.Logger) *TaskService {
	return &TaskService{db: db, gamification: gamification, log: log}
}

const taskColumns = `id, user_id, title, description, priority, due_date, is_complete, xp_earned, completed_at, created_at, updated_at`

// querier is satisfied by both the pool and a transaction.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func scanTask(row pgx.Row) (*task.Task, error) {
	t := &task.Task{Labels: []label.Label{}}
	err := row.Scan(&t.ID, &t.UserID, &t.Title, &t.Description, &t.Priority, &t.DueDate,
		&t.IsComplete, &t.XPEarned, &t.CompletedAt, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func validateTitle(raw string) (string, error) {
	title := strings.TrimSpace(raw)
	if title == "" {
		return "", invalid("title is required")
	}
	if utf8.RuneCountInString(title) > task.MaxTitleLength {
		return "", invalid("title must be at most %d characters", task.MaxTitleLength)
	}
	return title, nil
}

func validatePriority(raw string) (progression.Priority, error) {
	p, err := progression.ParsePriority(raw)
	if err != nil {
		return "", invalid("priority must be High, Medium or Low")
	}
	return p, nil
}

// dedupe drops repeated label ids, keeping order.
func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// ListTasks returns the caller's tasks, highest priority first and newest
// first within a priority. LabelIDs matches tasks carrying any of them.
func (s *TaskService) ListTasks(ctx context.Context, authID string, filter task.ListFilter) ([]*task.Task, error) {
	userID, err := resolveUserID(ctx, s.db, authID)
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	sb.WriteString(`SELECT ` + taskColumns + ` FROM tasks t WHERE t.user_id = $1`)
	args := []any{userID}

	if filter.IsComplete != nil {
		args = append(args, *filter.IsComplete)
		fmt.Fprintf(&sb, ` AND t.is_complete = $%d`, len(args))
	}
	if filter.Priority != nil {
		args = append(args, string(*filter.Priority))
		fmt.Fprintf(&sb, ` AND t.priority = $%d`, len(args))
	}
	if len(filter.LabelIDs) > 0 {
		args = append(args, filter.LabelIDs)
		fmt.Fprintf(&sb, ` AND EXISTS (SELECT 1 FROM task_labels tl WHERE tl.task_id = t.id AND tl.label_id = ANY($%d))`, len(args))
	}
	sb.WriteString(` ORDER BY CASE t.priority WHEN 'High' THEN 3 WHEN 'Medium' THEN 2 ELSE 1 END DESC, t.created_at DESC`)

	return s.queryTasks(ctx, s.db, sb.String(), args...)
}

// GetHistory returns completed tasks, most recently completed first.
func (s *TaskService) GetHistory(ctx context.Context, authID string) ([]*task.Task, error) {
	userID, err := resolveUserID(ctx, s.db, authID)
	if err != nil {
		return nil, err
	}

	query := `
	SELECT ` + taskColumns + `
	FROM tasks
	WHERE user_id = $1 AND is_complete
	ORDER BY completed_at DESC
	`
	return s.queryTasks(ctx, s.db, query, userID)
}

func (s *TaskService) GetTask(ctx context.Context, authID string, taskID uuid.UUID) (*task.Task, error) {
	userID, err := resolveUserID(ctx, s.db, authID)
	if err != nil {
		return nil, err
	}
	return s.getTask(ctx, s.db, userID, taskID)
}

// CreateTask stores a new task and then checks task_creation milestones.
// Achievement bookkeeping never fails the request.
func (s *TaskService) CreateTask(ctx context.Context, authID string, req *task.CreateTaskRequest) (*task.CreateTaskResponse, error) {
	title, err := validateTitle(req.Title)
	if err != nil {
		return nil, err
	}
	priority, err := validatePriority(req.Priority)
	if err != nil {
		return nil, err
	}
	labelIDs := dedupe(req.LabelIDs)

	userID, err := resolveUserID(ctx, s.db, authID)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
	INSERT INTO tasks (id, user_id, title, description, priority, due_date)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING ` + taskColumns

	t, err := scanTask(tx.QueryRow(ctx, query, uuid.New(), userID, title, req.Description, string(priority), req.DueDate))
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	if err := setTaskLabels(ctx, tx, userID, t.ID, labelIDs); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit task: %w", err)
	}

	if t.Labels, err = s.labelsFor(ctx, s.db, t.ID); err != nil {
		return nil, err
	}

	outcome := s.gamification.CheckAchievements(ctx, userID, achievement.Trigger{Action: achievement.CriteriaTaskCreation})

	return &task.CreateTaskResponse{
		Task:            t,
		NewAchievements: outcome.Awarded,
	}, nil
}

// CompleteTask marks the task complete and awards its XP. A task is completed
// and rewarded at most once. If the XP award fails the completion is undone
// so the user can retry.
func (s *TaskService) CompleteTask(ctx context.Context, authID string, taskID uuid.UUID) (*task.CompleteTaskResponse, error) {
	userID, err := resolveUserID(ctx, s.db, authID)
	if err != nil {
		return nil, err
	}

	var priority progression.Priority
	var isComplete bool
	err = s.db.QueryRow(ctx, `SELECT priority, is_complete FROM tasks WHERE id = $1 AND user_id = $2`, taskID, userID).Scan(&priority, &isComplete)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	if isComplete {
		return nil, ErrTaskAlreadyComplete
	}

	xp := progression.CalculateXP(priority)
	tag, err := s.db.Exec(ctx, `
	UPDATE tasks
	SET is_complete = TRUE, completed_at = $3, xp_earned = $4, updated_at = $3
	WHERE id = $1 AND user_id = $2 AND NOT is_complete
	`, taskID, userID, time.Now(), xp)
	if err != nil {
		return nil, fmt.Errorf("failed to complete task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrTaskAlreadyComplete
	}

	result, err := s.gamification.AwardTaskCompletionXP(ctx, userID, priority)
	if err != nil {
		s.revertCompletion(taskID)
		return nil, fmt.Errorf("failed to award xp: %w", err)
	}

	t, err := s.getTask(ctx, s.db, userID, taskID)
	if err != nil {
		return nil, err
	}

	return &task.CompleteTaskResponse{
		Task:                t,
		XPEarned:            result.XPEarned,
		NewLevel:            result.NewLevel,
		LevelUp:             result.LeveledUp,
		NewTotalXP:          result.NewTotalXP,
		BonusXP:             result.BonusXP,
		NewAchievements:     result.NewAchievements,
		BookkeepingDegraded: result.Degraded,
	}, nil
}

func (s *TaskService) revertCompletion(taskID uuid.UUID) {
	// The request context may already be cancelled.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := s.db.Exec(ctx, `
	UPDATE tasks SET is_complete = FALSE, completed_at = NULL, xp_earned = 0, updated_at = NOW()
	WHERE id = $1
	`, taskID)
	if err != nil {
		s.log.Error().Err(err).Str("task_id", taskID.String()).Msg("failed to revert task completion after xp failure")
	}
}

func (s *TaskService) UpdateTask(ctx context.Context, authID string, taskID uuid.UUID, req *task.UpdateTaskRequest) (*task.Task, error) {
	var title, priority *string
	if req.Title != nil {
		v, err := validateTitle(*req.Title)
		if err != nil {
			return nil, err
		}
		title = &v
	}
	if req.Priority != nil {
		p, err := validatePriority(*req.Priority)
		if err != nil {
			return nil, err
		}
		v := string(p)
		priority = &v
	}

	userID, err := resolveUserID(ctx, s.db, authID)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
	UPDATE tasks
	SET title = COALESCE($3, title),
		description = COALESCE($4, description),
		priority = COALESCE($5, priority),
		due_date = COALESCE($6, due_date),
		updated_at = NOW()
	WHERE id = $1 AND user_id = $2
	RETURNING ` + taskColumns

	t, err := scanTask(tx.QueryRow(ctx, query, taskID, userID, title, req.Description, priority, req.DueDate))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	if req.LabelIDs != nil {
		if _, err := tx.Exec(ctx, `DELETE FROM task_labels WHERE task_id = $1`, taskID); err != nil {
			return nil, fmt.Errorf("failed to clear task labels: %w", err)
		}
		if err := setTaskLabels(ctx, tx, userID, taskID, dedupe(*req.LabelIDs)); err != nil {
			return nil, err
		}
	}

	if t.Labels, err = s.labelsFor(ctx, tx, taskID); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit task: %w", err)
	}
	return t, nil
}

func (s *TaskService) DeleteTask(ctx context.Context, authID string, taskID uuid.UUID) error {
	userID, err := resolveUserID(ctx, s.db, authID)
	if err != nil {
		return err
	}

	tag, err := s.db.Exec(ctx, `DELETE FROM tasks WHERE id = $1 AND user_id = $2`, taskID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTaskNotFound
	}
	return nil
}

func (s *TaskService) getTask(ctx context.Context, q querier, userID string, taskID uuid.UUID) (*task.Task, error) {
	t, err := scanTask(q.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1 AND user_id = $2`, taskID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	if t.Labels, err = s.labelsFor(ctx, q, taskID); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *TaskService) queryTasks(ctx context.Context, q querier, query string, args ...any) ([]*task.Task, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get tasks: %w", err)
	}

	tasks := []*task.Task{}
	byID := make(map[uuid.UUID]*task.Task)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, t)
		byID[t.ID] = t
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to get tasks: %w", err)
	}
	if len(tasks) == 0 {
		return tasks, nil
	}

	ids := make([]uuid.UUID, 0, len(tasks))
	for _, t := range tasks {
		ids = append(ids, t.ID)
	}

	rows, err = q.Query(ctx, `
	SELECT tl.task_id, l.id, l.user_id, l.name, l.slug, l.created_at
	FROM task_labels tl
	JOIN labels l ON l.id = tl.label_id
	WHERE tl.task_id = ANY($1)
	ORDER BY l.name
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get task labels: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var taskID uuid.UUID
		var l label.Label
		if err := rows.Scan(&taskID, &l.ID, &l.UserID, &l.Name, &l.Slug, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan task label: %w", err)
		}
		if t, ok := byID[taskID]; ok {
			t.Labels = append(t.Labels, l)
		}
	}
	return tasks, rows.Err()
}

func (s *TaskService) labelsFor(ctx context.Context, q querier, taskID uuid.UUID) ([]label.Label, error) {
	rows, err := q.Query(ctx, `
	SELECT l.id, l.user_id, l.name, l.slug, l.created_at
	FROM task_labels tl
	JOIN labels l ON l.id = tl.label_id
	WHERE tl.task_id = $1
	ORDER BY l.name
	`, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to get task labels: %w", err)
	}
	defer rows.Close()

	labels := []label.Label{}
	for rows.Next() {
		var l label.Label
		if err := rows.Scan(&l.ID, &l.UserID, &l.Name, &l.Slug, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan task label: %w", err)
		}
		labels = append(labels, l)
	}
	return labels, rows.Err()
}

// setTaskLabels attaches labels after checking they all belong to the user.
func setTaskLabels(ctx context.Context, tx pgx.Tx, userID string, taskID uuid.UUID, labelIDs []uuid.UUID) error {
	if len(labelIDs) == 0 {
		return nil
	}

	var owned int
	err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM labels WHERE user_id = $1 AND id = ANY($2)`, userID, labelIDs).Scan(&owned)
	if err != nil {
		return fmt.Errorf("failed to check labels: %w", err)
	}
	if owned != len(labelIDs) {
		return ErrLabelNotFound
	}

	_, err = tx.Exec(ctx, `
	INSERT INTO task_labels (task_id, label_id)
	SELECT $1, unnest($2::uuid[])
	ON CONFLICT DO NOTHING
	`, taskID, labelIDs)
	if err != nil {
		return fmt.Errorf("failed to attach labels: %w", err)
	}
	return nil
}
