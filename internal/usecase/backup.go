package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/semmidev/sqlvault/internal/domain"
)

type Backup struct {
	connection    ConnectionSource
	dumper        domain.DumpRunner
	localStorage  LocalStorage
	lock          *OperationLock
	cleanup       *Cleanup
	uploadTargets []UploadTarget
	compressor    domain.Compressor
	compress      bool
	timeout       time.Duration
	logger        Logger
	metrics       Metrics
	now           func() time.Time

	followUps sync.WaitGroup
}

type BackupOption func(*Backup)

// WithUploadTargets ships every verified snapshot to the given targets,
// gzipped first when compress is set.
func WithUploadTargets(targets []UploadTarget, compressor domain.Compressor, compress bool) BackupOption {
	return func(uc *Backup) {
		uc.uploadTargets = targets
		uc.compressor = compressor
		uc.compress = compress && compressor != nil
	}
}

// WithRetention prunes expired snapshots after each successful backup.
func WithRetention(cleanup *Cleanup) BackupOption {
	return func(uc *Backup) { uc.cleanup = cleanup }
}

// WithCommandTimeout bounds the dump subprocess. Zero means no limit.
func WithCommandTimeout(d time.Duration) BackupOption {
	return func(uc *Backup) { uc.timeout = d }
}

func WithBackupMetrics(m Metrics) BackupOption {
	return func(uc *Backup) { uc.metrics = m }
}

func WithBackupClock(now func() time.Time) BackupOption {
	return func(uc *Backup) { uc.now = now }
}

func NewBackup(
	connection ConnectionSource,
	dumper domain.DumpRunner,
	localStorage LocalStorage,
	lock *OperationLock,
	logger Logger,
	opts ...BackupOption,
) *Backup {
	uc := &Backup{
		connection:   connection,
		dumper:       dumper,
		localStorage: localStorage,
		lock:         lock,
		logger:       logger,
		metrics:      noopMetrics{},
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// Execute takes one snapshot. The result only reflects the dump and its
// verification: offsite copies and retention run afterwards in the
// background and cannot fail the backup.
func (uc *Backup) Execute(ctx context.Context) (domain.Snapshot, error) {
	start := time.Now()

	if err := uc.lock.acquire("backup"); err != nil {
		uc.metrics.BackupFinished(StatusConflict, 0, 0)
		uc.logger.Warnf("Backup skipped: %v", err)
		return domain.Snapshot{}, err
	}

	snapshot, err := uc.snapshot(ctx)
	uc.lock.release()

	if err != nil {
		uc.metrics.BackupFinished(StatusFailure, time.Since(start), 0)
		uc.logger.Errorf("Backup failed after %s: %v", time.Since(start).Round(time.Millisecond), err)
		return domain.Snapshot{}, err
	}

	uc.metrics.BackupFinished(StatusSuccess, time.Since(start), snapshot.Size)
	uc.logger.Infof("Backup completed in %s: %s (%.2f MB)",
		time.Since(start).Round(time.Millisecond), snapshot.Filename, float64(snapshot.Size)/(1024*1024))

	uc.followUps.Add(1)
	go func() {
		defer uc.followUps.Done()
		uc.afterBackup(context.WithoutCancel(ctx), snapshot)
	}()

	return snapshot, nil
}

// Wait blocks until the background work of earlier backups is done.
func (uc *Backup) Wait() {
	uc.followUps.Wait()
}

func (uc *Backup) snapshot(ctx context.Context) (domain.Snapshot, error) {
	conn, err := uc.connection()
	if err != nil {
		return domain.Snapshot{}, err
	}

	filename := uc.generateFilename()
	partial := filename + domain.PartialSuffix
	path := uc.localStorage.Path(partial)

	dumpCtx := ctx
	if uc.timeout > 0 {
		var cancel context.CancelFunc
		dumpCtx, cancel = context.WithTimeout(ctx, uc.timeout)
		defer cancel()
	}

	uc.logger.Infof("Creating backup of %s to: %s", conn, path)
	if err := uc.dumper.Dump(dumpCtx, conn, path); err != nil {
		// Whatever was written stays on disk as .partial for inspection.
		return domain.Snapshot{}, fmt.Errorf("%w: %w", domain.ErrBackupExecution, err)
	}

	written, err := uc.localStorage.Stat(ctx, partial)
	if err != nil {
		if errors.Is(err, domain.ErrBackupNotFound) {
			return domain.Snapshot{}, fmt.Errorf("%w: dump reported success but %s was not created", domain.ErrBackupVerification, filename)
		}
		return domain.Snapshot{}, fmt.Errorf("%w: %v", domain.ErrBackupVerification, err)
	}
	if written.Size == 0 {
		return domain.Snapshot{}, fmt.Errorf("%w: %s is empty", domain.ErrBackupVerification, filename)
	}

	if err := uc.localStorage.Rename(ctx, partial, filename); err != nil {
		return domain.Snapshot{}, fmt.Errorf("%w: %v", domain.ErrBackupVerification, err)
	}

	return uc.localStorage.Stat(ctx, filename)
}

// generateFilename derives the name from the clock and steps forward one
// millisecond at a time until it is free. Callers hold the lock.
func (uc *Backup) generateFilename() string {
	t := uc.now()
	filename := domain.SnapshotFilename(t)
	for uc.localStorage.Exists(filename) || uc.localStorage.Exists(filename+domain.PartialSuffix) {
		t = t.Add(time.Millisecond)
		filename = domain.SnapshotFilename(t)
	}
	return filename
}

func (uc *Backup) afterBackup(ctx context.Context, snapshot domain.Snapshot) {
	if len(uc.uploadTargets) > 0 {
		if err := uc.uploadBackup(ctx, snapshot); err != nil {
			uc.logger.Errorf("Offsite copy of %s failed: %v", snapshot.Filename, err)
		}
	}

	if uc.cleanup != nil {
		if _, err := uc.cleanup.Execute(ctx); err != nil {
			uc.logger.Errorf("Retention after backup failed: %v", err)
		}
	}
}

func (uc *Backup) uploadBackup(ctx context.Context, snapshot domain.Snapshot) error {
	filePath, filename := uc.localStorage.Path(snapshot.Filename), snapshot.Filename

	if uc.compress {
		tempDir, err := os.MkdirTemp("", "sqlvault-upload-")
		if err != nil {
			return fmt.Errorf("create temp dir: %w", err)
		}
		defer os.RemoveAll(tempDir)

		compressedName := filename + ".gz"
		compressedPath := filepath.Join(tempDir, compressedName)

		uc.logger.Infof("Compressing %s for offsite copy...", filename)
		if err := uc.compressor.Compress(filePath, compressedPath); err != nil {
			return fmt.Errorf("compression: %w", err)
		}

		if info, err := os.Stat(compressedPath); err == nil && snapshot.Size > 0 {
			uc.logger.Infof("Compression complete, size: %.2f MB (%.1f%% of original)",
				float64(info.Size())/(1024*1024),
				float64(info.Size())/float64(snapshot.Size)*100)
		}

		filePath, filename = compressedPath, compressedName
	}

	uc.uploadToTargets(ctx, filePath, filename)
	return nil
}

func (uc *Backup) uploadToTargets(ctx context.Context, filePath, filename string) {
	var wg sync.WaitGroup

	for _, target := range uc.uploadTargets {
		wg.Add(1)
		go func(t UploadTarget) {
			defer wg.Done()

			uc.logger.Infof("Uploading %s to %s...", filename, t.Name)
			if err := t.Storage.Upload(ctx, filePath, filename); err != nil {
				uc.logger.Errorf("Failed to upload %s to %s: %v", filename, t.Name, err)
			} else {
				uc.logger.Infof("Successfully uploaded %s to %s", filename, t.Name)
			}
		}(target)
	}

	wg.Wait()
}
