package handlers

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rpgTodoAPI/internal/progression"
	"rpgTodoAPI/middleware"
	"rpgTodoAPI/services"
)

func errorBody(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body["error"]
}

func TestHandlersRequireAuth(t *testing.T) {
	tasks := NewTaskHandler(nil, zerolog.Nop())
	labels := NewLabelHandler(nil, zerolog.Nop())
	achievements := NewAchievementHandler(nil, zerolog.Nop())
	profiles := NewProfileHandler(nil, zerolog.Nop())
	devices := NewDeviceHandler(nil, zerolog.Nop())

	for name, h := range map[string]http.HandlerFunc{
		"tasks":        tasks.GetTasks,
		"history":      tasks.GetHistory,
		"create task":  tasks.CreateTask,
		"complete":     tasks.CompleteTask,
		"labels":       labels.GetLabels,
		"create label": labels.CreateLabel,
		"achievements": achievements.GetAchievements,
		"earned":       achievements.GetEarned,
		"profile":      profiles.GetProfile,
		"picture":      profiles.UploadProfilePicture,
		"devices":      devices.RegisterDevice,
	} {
		t.Run(name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			h(rr, httptest.NewRequest(http.MethodGet, "/", nil))
			assert.Equal(t, http.StatusUnauthorized, rr.Code)
			assert.Equal(t, "User not authenticated", errorBody(t, rr))
		})
	}
}

func authedRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	return req.WithContext(middleware.WithAuthID(req.Context(), "user_test"))
}

func TestCompleteTaskRejectsBadID(t *testing.T) {
	h := NewTaskHandler(nil, zerolog.Nop())
	req := mux.SetURLVars(authedRequest(http.MethodPost, "/api/v1/tasks/nope/complete", ""), map[string]string{"id": "nope"})

	rr := httptest.NewRecorder()
	h.CompleteTask(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Invalid id", errorBody(t, rr))
}

func TestCreateTaskRejectsBadJSON(t *testing.T) {
	h := NewTaskHandler(nil, zerolog.Nop())
	rr := httptest.NewRecorder()
	h.CreateTask(rr, authedRequest(http.MethodPost, "/api/v1/tasks", `{"title":`))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Invalid request body", errorBody(t, rr))
}

func TestGetTasksRejectsBadFilter(t *testing.T) {
	h := NewTaskHandler(nil, zerolog.Nop())
	rr := httptest.NewRecorder()
	h.GetTasks(rr, authedRequest(http.MethodGet, "/api/v1/tasks?priority=Urgent", ""))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestParseListFilter(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/?is_complete=false&priority=High&label_ids=%s,%s", a, b), nil)

	f, msg := parseListFilter(req)
	require.Empty(t, msg)
	require.NotNil(t, f.IsComplete)
	assert.False(t, *f.IsComplete)
	require.NotNil(t, f.Priority)
	assert.Equal(t, progression.PriorityHigh, *f.Priority)
	assert.Equal(t, []uuid.UUID{a, b}, f.LabelIDs)

	f, msg = parseListFilter(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Empty(t, msg)
	assert.Nil(t, f.IsComplete)
	assert.Nil(t, f.Priority)
	assert.Empty(t, f.LabelIDs)

	_, msg = parseListFilter(httptest.NewRequest(http.MethodGet, "/?is_complete=maybe", nil))
	assert.NotEmpty(t, msg)
	_, msg = parseListFilter(httptest.NewRequest(http.MethodGet, "/?label_ids=x", nil))
	assert.NotEmpty(t, msg)
}

func TestRespondWithServiceError(t *testing.T) {
	tests := []struct {
		err    error
		status int
		msg    string
	}{
		{fmt.Errorf("%w: title is required", services.ErrInvalidInput), http.StatusBadRequest, "title is required"},
		{services.ErrTaskAlreadyComplete, http.StatusBadRequest, "Task is already complete"},
		{services.ErrTaskNotFound, http.StatusNotFound, "Task not found"},
		{services.ErrProfileNotFound, http.StatusNotFound, "Profile not found"},
		{fmt.Errorf("failed to award xp: %w", progression.ErrUserNotFound), http.StatusNotFound, "Profile not found"},
		{services.ErrLabelExists, http.StatusConflict, "A label with that name already exists"},
		{services.ErrUsernameTaken, http.StatusConflict, "Username already taken"},
		{services.ErrStorageDisabled, http.StatusServiceUnavailable, "File uploads are not available"},
		{errors.New("connection reset"), http.StatusInternalServerError, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			rr := httptest.NewRecorder()
			respondWithServiceError(rr, zerolog.Nop(), tt.err)
			assert.Equal(t, tt.status, rr.Code)
			assert.Equal(t, tt.msg, errorBody(t, rr))
		})
	}
}

func TestSniffContentType(t *testing.T) {
	png := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 32)...)
	r := bytes.NewReader(png)

	ct, err := sniffContentType(r)
	require.NoError(t, err)
	assert.Equal(t, "image/png", ct)
	assert.Equal(t, int64(len(png)), r.Size())
	pos, _ := r.Seek(0, 1)
	assert.Equal(t, int64(0), pos, "reader is rewound")

	ct, err = sniffContentType(bytes.NewReader([]byte("hello")))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ct, "text/plain"))
}

const testWebhookKey = "c2VjcmV0LWtleS1mb3ItdGVzdHM="

func signedWebhook(t *testing.T, body string, at time.Time) *http.Request {
	t.Helper()
	key, err := base64.StdEncoding.DecodeString(testWebhookKey)
	require.NoError(t, err)

	ts := strconv.FormatInt(at.Unix(), 10)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/clerk", strings.NewReader(body))
	req.Header.Set("svix-id", "msg_1")
	req.Header.Set("svix-timestamp", ts)
	req.Header.Set("svix-signature", "v1,bogus v1,"+signSvix(key, "msg_1", ts, []byte(body)))
	return req
}

func TestClerkWebhookSignature(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	h := NewWebhookHandler(nil, "whsec_"+testWebhookKey, zerolog.Nop())
	h.now = func() time.Time { return now }

	body := `{"type":"session.created","data":{}}`

	t.Run("valid", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.HandleClerkWebhook(rr, signedWebhook(t, body, now))
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("tampered body", func(t *testing.T) {
		req := signedWebhook(t, body, now)
		req.Body = http.NoBody
		rr := httptest.NewRecorder()
		h.HandleClerkWebhook(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("stale timestamp", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.HandleClerkWebhook(rr, signedWebhook(t, body, now.Add(-10*time.Minute)))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("missing headers", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.HandleClerkWebhook(rr, httptest.NewRequest(http.MethodPost, "/webhooks/clerk", strings.NewReader(body)))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestClerkWebhookRejectsBadJSON(t *testing.T) {
	h := NewWebhookHandler(nil, "", zerolog.Nop())
	rr := httptest.NewRecorder()
	h.HandleClerkWebhook(rr, httptest.NewRequest(http.MethodPost, "/webhooks/clerk", strings.NewReader("{")))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
