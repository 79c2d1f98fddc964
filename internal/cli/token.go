package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/semmidev/sqlvault/internal/infrastructure/auth"
)

var tokenSubject string

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a bearer token for the admin API",
	RunE: func(cmd *cobra.Command, args []string) error {
		tokens, err := auth.NewTokenService(cfg.Admin.JWTSecret, cfg.Admin.TokenTTL)
		if err != nil {
			return err
		}

		token, expiresAt, err := tokens.Issue(tokenSubject)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, token)
		fmt.Fprintf(cmd.ErrOrStderr(), "expires %s\n", expiresAt.UTC().Format(time.RFC3339))
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "admin", "subject recorded in the token")
}
