package cmd

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"rpgTodoAPI/handlers"
	"rpgTodoAPI/middleware"
)

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

type tokenTable map[string]string

func (t tokenTable) Verify(_ context.Context, token string) (string, error) {
	if sub, ok := t[token]; ok {
		return sub, nil
	}
	return "", errors.New("unknown token")
}

func testRoutes(db pinger) http.Handler {
	log := zerolog.Nop()
	reg := prometheus.NewRegistry()
	middleware.InitPrometheus(reg)

	rt := &routes{
		db:           db,
		verifier:     tokenTable{"good": "user_1"},
		limiter:      middleware.NewRateLimiter(100, 100),
		metrics:      promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		metricsUser:  "prom",
		metricsPass:  "secret",
		origins:      []string{"https://app.example.com"},
		log:          log,
		tasks:        handlers.NewTaskHandler(nil, log),
		labels:       handlers.NewLabelHandler(nil, log),
		achievements: handlers.NewAchievementHandler(nil, log),
		profiles:     handlers.NewProfileHandler(nil, log),
		devices:      handlers.NewDeviceHandler(nil, log),
		webhooks:     handlers.NewWebhookHandler(nil, "", log),
	}
	return rt.handler()
}

func TestRouter(t *testing.T) {
	h := testRoutes(fakePinger{})

	tests := []struct {
		name   string
		method string
		target string
		token  string
		status int
	}{
		{"health", http.MethodGet, "/health", "", http.StatusOK},
		{"api without token", http.MethodGet, "/api/v1/tasks", "", http.StatusUnauthorized},
		{"api with unknown token", http.MethodGet, "/api/v1/achievements", "bad", http.StatusUnauthorized},
		{"authorized reaches handler", http.MethodGet, "/api/v1/tasks?priority=Urgent", "good", http.StatusBadRequest},
		{"complete with bad id", http.MethodPost, "/api/v1/tasks/nope/complete", "good", http.StatusBadRequest},
		{"rename label with bad id", http.MethodPut, "/api/v1/labels/nope", "good", http.StatusBadRequest},
		{"unrouted method", http.MethodPatch, "/api/v1/tasks", "good", http.StatusNotFound},
		{"unknown path", http.MethodGet, "/nope", "", http.StatusNotFound},
		{"metrics without credentials", http.MethodGet, "/metrics", "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.target, nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			assert.Equal(t, tt.status, rr.Code)
		})
	}
}

func TestRouterMetricsWithCredentials(t *testing.T) {
	h := testRoutes(fakePinger{})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.SetBasicAuth("prom", "secret")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRouterHealthReportsDatabaseFailure(t *testing.T) {
	h := testRoutes(fakePinger{err: errors.New("connection refused")})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Contains(t, rr.Body.String(), "unhealthy")
}

func TestRouterCORS(t *testing.T) {
	h := testRoutes(fakePinger{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, "https://app.example.com", rr.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
}
