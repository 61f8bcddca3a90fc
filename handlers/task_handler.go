package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"rpgTodoAPI/internal/progression"
	"rpgTodoAPI/internal/task"
	"rpgTodoAPI/services"
)

type TaskHandler struct {
	taskService *services.TaskService
	log         zerolog.Logger
}

func NewTaskHandler(taskService *services.TaskService, log zerolog.Logger) *TaskHandler {
	return &TaskHandler{taskService: taskService, log: log}
}

// parseListFilter reads is_complete, priority and label_ids (comma separated).
func parseListFilter(r *http.Request) (task.ListFilter, string) {
	var f task.ListFilter
	q := r.URL.Query()

	if raw := q.Get("is_complete"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return f, "Query parameter 'is_complete' must be true or false"
		}
		f.IsComplete = &v
	}
	if raw := q.Get("priority"); raw != "" {
		p, err := progression.ParsePriority(raw)
		if err != nil {
			return f, "Query parameter 'priority' must be High, Medium or Low"
		}
		f.Priority = &p
	}
	if raw := q.Get("label_ids"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			id, err := uuid.Parse(strings.TrimSpace(part))
			if err != nil {
				return f, "Query parameter 'label_ids' must be a comma separated list of ids"
			}
			f.LabelIDs = append(f.LabelIDs, id)
		}
	}
	return f, ""
}

func (h *TaskHandler) GetTasks(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	authID, ok := requireAuthID(w, r)
	if !ok {
		return
	}

	filter, msg := parseListFilter(r)
	if msg != "" {
		respondWithError(w, http.StatusBadRequest, msg)
		return
	}

	tasks, err := h.taskService.ListTasks(ctx, authID, filter)
	if err != nil {
		respondWithServiceError(w, h.log, err)
		return
	}
	respondWithJSON(w, http.StatusOK, tasks)
}

func (h *TaskHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	authID, ok := requireAuthID(w, r)
	if !ok {
		return
	}

	tasks, err := h.taskService.GetHistory(ctx, authID)
	if err != nil {
		respondWithServiceError(w, h.log, err)
		return
	}
	respondWithJSON(w, http.StatusOK, tasks)
}

func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	authID, ok := requireAuthID(w, r)
	if !ok {
		return
	}
	taskID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	t, err := h.taskService.GetTask(ctx, authID, taskID)
	if err != nil {
		respondWithServiceError(w, h.log, err)
		return
	}
	respondWithJSON(w, http.StatusOK, t)
}

func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	authID, ok := requireAuthID(w, r)
	if !ok {
		return
	}

	var req task.CreateTaskRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.taskService.CreateTask(ctx, authID, &req)
	if err != nil {
		respondWithServiceError(w, h.log, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, res)
}

func (h *TaskHandler) CompleteTask(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	authID, ok := requireAuthID(w, r)
	if !ok {
		return
	}
	taskID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	res, err := h.taskService.CompleteTask(ctx, authID, taskID)
	if err != nil {
		respondWithServiceError(w, h.log, err)
		return
	}
	respondWithJSON(w, http.StatusOK, res)
}

func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	authID, ok := requireAuthID(w, r)
	if !ok {
		return
	}
	taskID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req task.UpdateTaskRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	t, err := h.taskService.UpdateTask(ctx, authID, taskID, &req)
	if err != nil {
		respondWithServiceError(w, h.log, err)
		return
	}
	respondWithJSON(w, http.StatusOK, t)
}

func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	authID, ok := requireAuthID(w, r)
	if !ok {
		return
	}
	taskID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.taskService.DeleteTask(ctx, authID, taskID); err != nil {
		respondWithServiceError(w, h.log, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Task deleted successfully"})
}
