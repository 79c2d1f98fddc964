package cli

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/semmidev/sqlvault/internal/app"
	"github.com/semmidev/sqlvault/internal/infrastructure/logger"
)

var (
	gdriveClientSecret string
	gdriveListen       string
)

var gdriveAuthCmd = &cobra.Command{
	Use:   "gdrive-auth",
	Short: "Obtain a Google Drive refresh token for the gdrive upload target",
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := logger.New("info", "")
		if err != nil {
			return err
		}
		defer log.Close()

		state := make([]byte, 16)
		if _, err := rand.Read(state); err != nil {
			return err
		}

		server, err := app.NewDriveAuthServer(log, gdriveClientSecret, gdriveListen, hex.EncodeToString(state))
		if err != nil {
			return err
		}

		token, err := server.Run(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "refresh_token: %s\n", token.RefreshToken)
		return nil
	},
}

func init() {
	gdriveAuthCmd.Flags().StringVar(&gdriveClientSecret, "client-secret", "client_secret.json", "OAuth client secret downloaded from Google Cloud")
	gdriveAuthCmd.Flags().StringVar(&gdriveListen, "listen", "localhost:8085", "address for the local callback server")
}
