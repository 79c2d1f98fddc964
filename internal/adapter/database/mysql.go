package database

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/semmidev/sqlvault/internal/domain"
)

type MySQLDatabase struct {
	dumpCommand    string
	restoreCommand string
}

func NewMySQL(dumpCommand, restoreCommand string) *MySQLDatabase {
	return &MySQLDatabase{
		dumpCommand:    orDefault(dumpCommand, "mysqldump"),
		restoreCommand: orDefault(restoreCommand, "mysql"),
	}
}

func (m *MySQLDatabase) Dump(ctx context.Context, conn domain.ConnectionDescriptor, outputPath string) error {
	cmd := exec.CommandContext(ctx, m.dumpCommand,
		fmt.Sprintf("--host=%s", conn.Host),
		fmt.Sprintf("--port=%d", conn.Port),
		fmt.Sprintf("--user=%s", conn.User),
		"--single-transaction",
		"--quick",
		"--lock-tables=false",
		"--routines",
		"--triggers",
		"--events",
		fmt.Sprintf("--result-file=%s", outputPath),
		conn.Database,
	)
	cmd.Env = commandEnv("MYSQL_PWD", conn.Password)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s failed: %w, output: %s", m.dumpCommand, err, string(output))
	}

	return nil
}

func (m *MySQLDatabase) Restore(ctx context.Context, conn domain.ConnectionDescriptor, inputPath string) error {
	input, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("failed to open dump: %w", err)
	}
	defer input.Close()

	cmd := exec.CommandContext(ctx, m.restoreCommand,
		fmt.Sprintf("--host=%s", conn.Host),
		fmt.Sprintf("--port=%d", conn.Port),
		fmt.Sprintf("--user=%s", conn.User),
		conn.Database,
	)
	cmd.Env = commandEnv("MYSQL_PWD", conn.Password)
	cmd.Stdin = input

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s failed: %w, output: %s", m.restoreCommand, err, string(output))
	}

	return nil
}

func (m *MySQLDatabase) Name() string {
	return "mysql"
}
