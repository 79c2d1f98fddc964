package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/semmidev/sqlvault/internal/app"
	"github.com/semmidev/sqlvault/internal/config"
	"github.com/semmidev/sqlvault/internal/infrastructure/logger"
)

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "sqlvault",
	Short: "sqlvault - scheduled SQL database backups with retention",
	Long: `sqlvault snapshots one PostgreSQL or MySQL database into a local directory
on a fixed schedule, prunes snapshots older than the retention window, and
restores any retained snapshot on demand.

Configuration comes from an optional YAML file (--config) and the environment
(DATABASE_URL, BACKUP_FREQUENCY, BACKUP_RETENTION_DAYS, BACKUP_DIR, ...).
A .env file in the working directory is loaded automatically.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "gdrive-auth" {
			return nil
		}

		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return nil
	},
}

// Execute runs the root command
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "YAML config file (environment only when empty)")

	rootCmd.AddCommand(serveCmd, backupCmd, listCmd, restoreCmd, cleanupCmd, tokenCmd, gdriveAuthCmd)
}

// initApp builds the logger and the full service graph from the loaded config.
func initApp(ctx context.Context) (*app.App, *logger.Logger, error) {
	log, err := logger.New(cfg.App.LogLevel, cfg.App.LogFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Close()
		return nil, nil, err
	}
	return a, log, nil
}
