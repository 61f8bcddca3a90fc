package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-for-testing-only"

func mintToken(t *testing.T, method jwt.SigningMethod, key any, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func validClaims(sub string) jwt.MapClaims {
	return jwt.MapClaims{
		"sub": sub,
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(time.Hour).Unix(),
	}
}

func echoAuthID() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, _ := GetAuthID(r.Context())
		w.Write([]byte(id))
	})
}

func TestAuthMiddlewareHMAC(t *testing.T) {
	handler := AuthMiddleware(NewHMACVerifier(testSecret), zerolog.Nop())(echoAuthID())

	tests := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{"valid", "Bearer " + mintToken(t, jwt.SigningMethodHS256, []byte(testSecret), validClaims("user_1")), http.StatusOK, "user_1"},
		{"missing header", "", http.StatusUnauthorized, ""},
		{"no bearer prefix", mintToken(t, jwt.SigningMethodHS256, []byte(testSecret), validClaims("user_1")), http.StatusUnauthorized, ""},
		{"wrong secret", "Bearer " + mintToken(t, jwt.SigningMethodHS256, []byte("other"), validClaims("user_1")), http.StatusUnauthorized, ""},
		{"expired", "Bearer " + mintToken(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{"sub": "user_1", "exp": time.Now().Add(-time.Hour).Unix()}), http.StatusUnauthorized, ""},
		{"no expiry", "Bearer " + mintToken(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{"sub": "user_1"}), http.StatusUnauthorized, ""},
		{"no subject", "Bearer " + mintToken(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()}), http.StatusUnauthorized, ""},
		{"wrong algorithm", "Bearer " + mintToken(t, jwt.SigningMethodHS512, []byte(testSecret), validClaims("user_1")), http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/tasks", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.status, rr.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, tt.body, rr.Body.String())
				return
			}
			var body map[string]string
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	call := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Forwarded-For", ip+", 10.0.0.1")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr.Code
	}

	assert.Equal(t, http.StatusOK, call("1.1.1.1"))
	assert.Equal(t, http.StatusOK, call("1.1.1.1"))
	assert.Equal(t, http.StatusTooManyRequests, call("1.1.1.1"))
	assert.Equal(t, http.StatusOK, call("2.2.2.2"), "buckets are per client")
	assert.Equal(t, 2, rl.Visitors())
}

func TestRateLimiterCleanup(t *testing.T) {
	rl := NewRateLimiter(5, 30)
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	rl.getLimiter("1.1.1.1")
	now = now.Add(2 * time.Minute)
	rl.getLimiter("2.2.2.2")
	now = now.Add(2 * time.Minute)

	assert.Equal(t, 1, rl.Cleanup())
	assert.Equal(t, 1, rl.Visitors())
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	assert.Equal(t, "192.0.2.1", clientIP(req))

	req.Header.Set("X-Forwarded-For", " 203.0.113.7 , 10.0.0.1")
	assert.Equal(t, "203.0.113.7", clientIP(req))
}

func TestBasicAuthMiddleware(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	handler := BasicAuthMiddleware("admin", "pw")(ok)
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.SetBasicAuth("admin", "pw")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)

	req.SetBasicAuth("admin", "nope")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	locked := BasicAuthMiddleware("", "")(ok)
	req.SetBasicAuth("", "")
	rr = httptest.NewRecorder()
	locked.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRouteTemplate(t *testing.T) {
	var got string
	r := mux.NewRouter()
	r.HandleFunc("/api/v1/tasks/{id}", func(w http.ResponseWriter, req *http.Request) {
		got = routeTemplate(req)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/tasks/123", nil))
	assert.Equal(t, "/api/v1/tasks/{id}", got)
}
