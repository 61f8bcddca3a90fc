package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	clerk "github.com/clerk/clerk-sdk-go/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"rpgTodoAPI/handlers"
	"rpgTodoAPI/internal/achievement"
	"rpgTodoAPI/internal/config"
	"rpgTodoAPI/internal/database"
	"rpgTodoAPI/internal/logger"
	"rpgTodoAPI/internal/notification"
	"rpgTodoAPI/internal/progression"
	"rpgTodoAPI/internal/scheduler"
	"rpgTodoAPI/internal/storage"
	"rpgTodoAPI/middleware"
	"rpgTodoAPI/services"
)

const deviceTokenMaxAge = 90 * 24 * time.Hour

type serveOptions struct {
	migrate bool
}

var serveOpts serveOptions

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context(), serveOpts)
	},
}

func runServe(ctx context.Context, opts serveOptions) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger.Init(cfg.IsProduction(), cfg.LogLevel)
	log := logger.With("server")

	pool, err := database.Connect(ctx, cfg)
	if err != nil {
		log.Error().Err(err).Msg("failed to connect to database")
		return err
	}
	defer func() {
		log.Info().Msg("closing database connection pool")
		pool.Close()
	}()

	if opts.migrate {
		applied, err := database.Migrate(ctx, pool, logger.With("migrate"))
		if err != nil {
			return err
		}
		log.Info().Int("applied", applied).Msg("migrations applied")
	}

	levels, catalog, err := services.LoadCatalog(ctx, pool)
	if err != nil {
		return err
	}
	mode, err := achievement.ParseMilestoneMode(cfg.MilestoneMode)
	if err != nil {
		return err
	}

	var verifier middleware.TokenVerifier
	switch cfg.AuthProvider {
	case config.AuthProviderJWT:
		verifier = middleware.NewHMACVerifier(cfg.JWTSecret)
	default:
		clerk.SetKey(cfg.ClerkSecretKey)
		verifier = middleware.ClerkVerifier{}
	}
	log.Info().Str("provider", cfg.AuthProvider).Msg("auth initialized")

	var objects services.ObjectStorage
	if cfg.StorageEnabled() {
		s3, err := storage.NewS3Storage(ctx, cfg)
		if err != nil {
			return err
		}
		objects = s3
		log.Info().Str("bucket", cfg.S3Bucket).Msg("object storage initialized")
	} else {
		log.Warn().Msg("S3_BUCKET not set, profile picture uploads disabled")
	}

	var push services.PushProvider
	fcm, err := notification.NewFCMService(ctx, cfg.FCMServiceAccountJSON, cfg.FCMCredentialsFile, logger.With("fcm"))
	if err != nil {
		log.Warn().Err(err).Msg("could not initialize FCM, pushes will only be logged")
		push = services.LogPushProvider{Log: logger.With("push")}
	} else {
		push = fcm
		log.Info().Msg("FCM push provider initialized")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	middleware.InitPrometheus(reg)
	services.RegisterMetrics(reg)

	deviceService := services.NewDeviceService(pool)
	dispatcher := services.NewPushDispatcher(push, deviceService, cfg.PushWorkers, logger.With("push"))
	defer dispatcher.Stop()

	store := services.NewGamificationStore(pool)
	updater := progression.NewUpdater(store, levels)
	evaluator := achievement.NewEvaluator(catalog, store, store, updater,
		achievement.WithMilestoneMode(mode),
		achievement.WithLogger(logger.With("achievements")),
	)
	gamification := services.NewGamificationService(updater, evaluator, dispatcher, logger.With("gamification"))

	achievementService := services.NewAchievementService(pool, catalog)
	profileService := services.NewProfileService(pool, levels, achievementService, objects, logger.With("profiles"))
	taskService := services.NewTaskService(pool, gamification, logger.With("tasks"))
	labelService := services.NewLabelService(pool, gamification)

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)

	sched, err := scheduler.New(logger.With("scheduler"))
	if err != nil {
		return err
	}
	err = errors.Join(
		sched.Every("rate-limiter-cleanup", time.Minute, func(ctx context.Context) error {
			if n := limiter.Cleanup(); n > 0 {
				log.Debug().Int("removed", n).Int("remaining", limiter.Visitors()).Msg("rate limiter visitors pruned")
			}
			return nil
		}),
		sched.Every("prune-device-tokens", 24*time.Hour, func(ctx context.Context) error {
			n, err := deviceService.PruneStale(ctx, deviceTokenMaxAge)
			if err != nil {
				return err
			}
			log.Info().Int64("removed", n).Msg("stale device tokens pruned")
			return nil
		}),
	)
	if err != nil {
		return err
	}
	sched.Start()
	defer func() {
		if err := sched.Shutdown(); err != nil {
			log.Error().Err(err).Msg("scheduler shutdown error")
		}
	}()

	rt := &routes{
		db:           pool,
		verifier:     verifier,
		limiter:      limiter,
		metrics:      promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
		metricsUser:  cfg.MetricsUser,
		metricsPass:  cfg.MetricsPass,
		origins:      cfg.AllowedOrigins,
		log:          logger.With("http"),
		tasks:        handlers.NewTaskHandler(taskService, logger.With("tasks")),
		labels:       handlers.NewLabelHandler(labelService, logger.With("labels")),
		achievements: handlers.NewAchievementHandler(achievementService, logger.With("achievements")),
		profiles:     handlers.NewProfileHandler(profileService, logger.With("profiles")),
		devices:      handlers.NewDeviceHandler(deviceService, logger.With("devices")),
		webhooks:     handlers.NewWebhookHandler(profileService, cfg.ClerkWebhookSecret, logger.With("webhooks")),
	}

	server := http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      rt.handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", server.Addr).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-sigCtx.Done():
		log.Info().Msg("shutdown signal received")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown error")
	}
	log.Info().Msg("server shutdown complete")
	return nil
}
