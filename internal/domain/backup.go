package domain

import (
	"context"
	"time"
)

// Snapshot is a single dump file in the backup directory. It is derived from
// the directory listing and never stored anywhere else.
type Snapshot struct {
	Filename  string
	CreatedAt time.Time
	Size      int64
}

type DumpRunner interface {
	Dump(ctx context.Context, conn ConnectionDescriptor, outputPath string) error
}

type RestoreRunner interface {
	Restore(ctx context.Context, conn ConnectionDescriptor, inputPath string) error
}

type Compressor interface {
	Compress(sourcePath, destPath string) error
}
