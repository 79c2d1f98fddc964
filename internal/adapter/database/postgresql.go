package database

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/semmidev/sqlvault/internal/domain"
)

type PostgreSQLDatabase struct {
	dumpCommand    string
	restoreCommand string
}

func NewPostgreSQL(dumpCommand, restoreCommand string) *PostgreSQLDatabase {
	return &PostgreSQLDatabase{
		dumpCommand:    orDefault(dumpCommand, "pg_dump"),
		restoreCommand: orDefault(restoreCommand, "psql"),
	}
}

func (p *PostgreSQLDatabase) Dump(ctx context.Context, conn domain.ConnectionDescriptor, outputPath string) error {
	// Plain SQL with DROP ... IF EXISTS so psql can replay it over a live database.
	cmd := exec.CommandContext(ctx, p.dumpCommand,
		fmt.Sprintf("--host=%s", conn.Host),
		fmt.Sprintf("--port=%d", conn.Port),
		fmt.Sprintf("--username=%s", conn.User),
		"--no-password",
		"--format=plain",
		"--clean",
		"--if-exists",
		"--no-owner",
		fmt.Sprintf("--file=%s", outputPath),
		conn.Database,
	)
	cmd.Env = commandEnv("PGPASSWORD", conn.Password)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s failed: %w, output: %s", p.dumpCommand, err, string(output))
	}

	return nil
}

func (p *PostgreSQLDatabase) Restore(ctx context.Context, conn domain.ConnectionDescriptor, inputPath string) error {
	cmd := exec.CommandContext(ctx, p.restoreCommand,
		fmt.Sprintf("--host=%s", conn.Host),
		fmt.Sprintf("--port=%d", conn.Port),
		fmt.Sprintf("--username=%s", conn.User),
		fmt.Sprintf("--dbname=%s", conn.Database),
		"--no-password",
		"--quiet",
		"--set=ON_ERROR_STOP=1",
		fmt.Sprintf("--file=%s", inputPath),
	)
	cmd.Env = commandEnv("PGPASSWORD", conn.Password)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s failed: %w, output: %s", p.restoreCommand, err, string(output))
	}

	return nil
}

func (p *PostgreSQLDatabase) Name() string {
	return "postgresql"
}
