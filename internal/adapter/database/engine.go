package database

import (
	"fmt"
	"os"

	"github.com/semmidev/sqlvault/internal/domain"
)

// Engine dumps and restores one kind of database through its native tools.
type Engine interface {
	domain.DumpRunner
	domain.RestoreRunner
	Name() string
}

// New returns the engine for a connection scheme. Empty commands fall back
// to the engine's default binaries.
func New(scheme, dumpCommand, restoreCommand string) (Engine, error) {
	switch scheme {
	case "postgres", "postgresql":
		return NewPostgreSQL(dumpCommand, restoreCommand), nil
	case "mysql", "mariadb":
		return NewMySQL(dumpCommand, restoreCommand), nil
	default:
		return nil, fmt.Errorf("%w: unsupported database scheme %q", domain.ErrConfiguration, scheme)
	}
}

// commandEnv copies the current environment and adds the secret, so each
// subprocess gets its own credentials without touching os.Environ.
func commandEnv(key, value string) []string {
	env := os.Environ()
	out := make([]string, 0, len(env)+1)
	for _, kv := range env {
		if len(kv) > len(key) && kv[:len(key)+1] == key+"=" {
			continue
		}
		out = append(out, kv)
	}
	return append(out, key+"="+value)
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
