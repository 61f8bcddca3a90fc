package cmd

import (
	"github.com/spf13/cobra"

	"rpgTodoAPI/internal/config"
	"rpgTodoAPI/internal/database"
	"rpgTodoAPI/internal/logger"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		logger.Init(cfg.IsProduction(), cfg.LogLevel)
		log := logger.With("migrate")

		pool, err := database.Connect(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer pool.Close()

		applied, err := database.Migrate(cmd.Context(), pool, log)
		if err != nil {
			log.Error().Err(err).Msg("migration failed")
			return err
		}
		log.Info().Int("applied", applied).Msg("database is up to date")
		return nil
	},
}
