package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "rpgtodo",
	Short: "Gamified to-do API",
	Long: `rpgtodo serves the task list API. Completing tasks earns XP, XP raises
your level, and milestones unlock achievements.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context(), serveOpts)
	},
}

// Execute runs the root command. With no subcommand it serves.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd)

	for _, c := range []*cobra.Command{rootCmd, serveCmd} {
		c.Flags().BoolVar(&serveOpts.migrate, "migrate", false, "apply pending migrations before serving")
	}
}
