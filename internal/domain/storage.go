package domain

import (
	"context"
	"time"
)

// Storage is an offsite destination that receives a copy of every snapshot.
// The local backup directory remains the only source for listing and restore.
type Storage interface {
	Upload(ctx context.Context, localPath string, remoteName string) error
	Delete(ctx context.Context, remoteName string) error
	GetOldFiles(ctx context.Context, cutoffTime time.Time) ([]string, error)
}
