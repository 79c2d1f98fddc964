package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the backup scheduler and the admin API",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, log, err := initApp(cmd.Context())
		if err != nil {
			return err
		}
		defer log.Close()

		log.Infof("Starting %s", cfg.App.Name)
		runErr := a.Run(cmd.Context())

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.Shutdown(ctx)

		return runErr
	},
}
