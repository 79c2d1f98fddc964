package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Take one snapshot now, then apply retention",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, log, err := initApp(cmd.Context())
		if err != nil {
			return err
		}
		defer log.Close()

		snapshot, err := a.Backup(cmd.Context())
		if err != nil {
			return fmt.Errorf("backup failed: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d bytes\n", snapshot.Filename, snapshot.Size)
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List retained snapshots, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, log, err := initApp(cmd.Context())
		if err != nil {
			return err
		}
		defer log.Close()

		snapshots, err := a.ListBackups(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(snapshots) == 0 {
			fmt.Fprintln(out, "No backups found")
			return nil
		}
		for _, s := range snapshots {
			fmt.Fprintf(out, "%-40s  %s  %12d\n", s.Filename, s.CreatedAt.UTC().Format(time.RFC3339), s.Size)
		}
		return nil
	},
}

var restoreYes bool

var restoreCmd = &cobra.Command{
	Use:   "restore <filename>",
	Short: "Replace the database contents with a retained snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !restoreYes {
			return fmt.Errorf("restore overwrites the live database; pass --yes to confirm")
		}

		a, log, err := initApp(cmd.Context())
		if err != nil {
			return err
		}
		defer log.Close()

		if err := a.Restore(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("restore failed: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Database restored from %s\n", args[0])
		return nil
	},
}

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete snapshots older than the retention window",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, log, err := initApp(cmd.Context())
		if err != nil {
			return err
		}
		defer log.Close()

		deleted, err := a.Cleanup(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d expired backup(s)\n", deleted)
		return nil
	},
}

func init() {
	restoreCmd.Flags().BoolVar(&restoreYes, "yes", false, "confirm the destructive restore")
}
