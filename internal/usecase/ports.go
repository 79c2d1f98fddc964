package usecase

import (
	"context"
	"time"

	"github.com/semmidev/sqlvault/internal/domain"
)

type UploadTarget struct {
	Name    string
	Storage domain.Storage
}

// LocalStorage is the backup directory as seen by the use cases.
type LocalStorage interface {
	ListBackups(ctx context.Context) ([]domain.Snapshot, error)
	Stat(ctx context.Context, filename string) (domain.Snapshot, error)
	Delete(ctx context.Context, filename string) error
	Rename(ctx context.Context, from, to string) error
	Resolve(filename string) (string, error)
	Exists(filename string) bool
	Path(filename string) string
}

// ConnectionSource parses the connection string on every call so credentials
// are never held between operations.
type ConnectionSource func() (domain.ConnectionDescriptor, error)

type Logger interface {
	Infof(template string, args ...interface{})
	Errorf(template string, args ...interface{})
	Warnf(template string, args ...interface{})
}

type Metrics interface {
	BackupFinished(status string, duration time.Duration, size int64)
	RestoreFinished(status string, duration time.Duration)
	RetentionDeleted(count int)
}

const (
	StatusSuccess  = "success"
	StatusFailure  = "failure"
	StatusConflict = "conflict"
)

type noopMetrics struct{}

func (noopMetrics) BackupFinished(string, time.Duration, int64) {}
func (noopMetrics) RestoreFinished(string, time.Duration)       {}
func (noopMetrics) RetentionDeleted(int)                         {}
