package cmd

import (
	"context"
	"net/http"
	"time"

	gorilllaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"rpgTodoAPI/handlers"
	"rpgTodoAPI/middleware"
)

type pinger interface {
	Ping(ctx context.Context) error
}

type routes struct {
	db          pinger
	verifier    middleware.TokenVerifier
	limiter     *middleware.RateLimiter
	metrics     http.Handler
	metricsUser string
	metricsPass string
	origins     []string
	log         zerolog.Logger

	tasks        *handlers.TaskHandler
	labels       *handlers.LabelHandler
	achievements *handlers.AchievementHandler
	profiles     *handlers.ProfileHandler
	devices      *handlers.DeviceHandler
	webhooks     *handlers.WebhookHandler
}

func (rt *routes) handler() http.Handler {
	r := mux.NewRouter()

	standardRouter := r.PathPrefix("/").Subrouter()
	standardRouter.Use(middleware.RequestLogger(rt.log))
	standardRouter.Use(middleware.MonitorMiddleware)
	standardRouter.Use(rt.limiter.Middleware)

	standardRouter.Handle("/metrics", middleware.BasicAuthMiddleware(rt.metricsUser, rt.metricsPass)(rt.metrics))
	standardRouter.HandleFunc("/health", rt.health).Methods("GET")
	standardRouter.HandleFunc("/webhooks/clerk", rt.webhooks.HandleClerkWebhook).Methods("POST")

	api := standardRouter.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.AuthMiddleware(rt.verifier, rt.log))

	api.HandleFunc("/tasks", rt.tasks.GetTasks).Methods("GET")
	api.HandleFunc("/tasks", rt.tasks.CreateTask).Methods("POST")
	api.HandleFunc("/tasks/history", rt.tasks.GetHistory).Methods("GET")
	api.HandleFunc("/tasks/{id}", rt.tasks.GetTask).Methods("GET")
	api.HandleFunc("/tasks/{id}", rt.tasks.UpdateTask).Methods("PUT")
	api.HandleFunc("/tasks/{id}", rt.tasks.DeleteTask).Methods("DELETE")
	api.HandleFunc("/tasks/{id}/complete", rt.tasks.CompleteTask).Methods("POST")

	api.HandleFunc("/labels", rt.labels.GetLabels).Methods("GET")
	api.HandleFunc("/labels", rt.labels.CreateLabel).Methods("POST")
	api.HandleFunc("/labels/{id}", rt.labels.RenameLabel).Methods("PUT")
	api.HandleFunc("/labels/{id}", rt.labels.DeleteLabel).Methods("DELETE")

	api.HandleFunc("/achievements", rt.achievements.GetAchievements).Methods("GET")
	api.HandleFunc("/achievements/earned", rt.achievements.GetEarned).Methods("GET")

	api.HandleFunc("/profile", rt.profiles.GetProfile).Methods("GET")
	api.HandleFunc("/profile", rt.profiles.CreateProfile).Methods("POST")
	api.HandleFunc("/profile", rt.profiles.UpdateProfile).Methods("PUT")
	api.HandleFunc("/profile/picture", rt.profiles.UploadProfilePicture).Methods("POST")

	api.HandleFunc("/devices", rt.devices.RegisterDevice).Methods("POST")

	corsHandler := gorilllaHandlers.CORS(
		gorilllaHandlers.AllowedOrigins(rt.origins),
		gorilllaHandlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		gorilllaHandlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
		gorilllaHandlers.ExposedHeaders([]string{"Content-Length"}),
		gorilllaHandlers.AllowCredentials(),
	)
	return corsHandler(r)
}

func (rt *routes) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	w.Header().Set("Content-Type", "application/json")
	if err := rt.db.Ping(ctx); err != nil {
		rt.log.Error().Err(err).Msg("health check failed")
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"status": "unhealthy", "error": "database connection failed"}`))
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status": "healthy", "service": "rpg-todo-api"}`))
}
