package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Cleanup enforces the retention window. Local deletions are counted; offsite
// targets are pruned on a best-effort basis.
type Cleanup struct {
	localStorage  LocalStorage
	uploadTargets []UploadTarget
	logger        Logger
	metrics       Metrics
	retentionDays int
	now           func() time.Time
}

func NewCleanup(
	localStorage LocalStorage,
	uploadTargets []UploadTarget,
	logger Logger,
	retentionDays int,
) *Cleanup {
	return &Cleanup{
		localStorage:  localStorage,
		uploadTargets: uploadTargets,
		logger:        logger,
		metrics:       noopMetrics{},
		retentionDays: retentionDays,
		now:           time.Now,
	}
}

func (uc *Cleanup) SetMetrics(m Metrics) {
	uc.metrics = m
}

func (uc *Cleanup) SetClock(now func() time.Time) {
	uc.now = now
}

// Execute deletes every local snapshot older than the retention window and
// returns how many were removed. A retention of zero days disables pruning
// and keeps everything, rather than treating "now" as the cutoff.
func (uc *Cleanup) Execute(ctx context.Context) (int, error) {
	if uc.retentionDays <= 0 {
		return 0, nil
	}

	cutoff := uc.now().Add(-time.Duration(uc.retentionDays) * 24 * time.Hour)
	uc.logger.Infof("Starting cleanup, retention: %d days (cutoff %s)", uc.retentionDays, cutoff.UTC().Format(time.RFC3339))

	deleted, err := uc.cleanupLocal(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	if len(uc.uploadTargets) > 0 {
		uc.cleanupTargets(ctx, cutoff)
	}

	uc.metrics.RetentionDeleted(deleted)
	uc.logger.Infof("Cleanup completed, deleted %d local backup(s)", deleted)
	return deleted, nil
}

func (uc *Cleanup) cleanupLocal(ctx context.Context, cutoff time.Time) (int, error) {
	snapshots, err := uc.localStorage.ListBackups(ctx)
	if err != nil {
		return 0, fmt.Errorf("list backups: %w", err)
	}

	deleted := 0
	for _, snapshot := range snapshots {
		if !snapshot.CreatedAt.Before(cutoff) {
			continue
		}

		uc.logger.Infof("Deleting old backup: %s", snapshot.Filename)
		if err := uc.localStorage.Delete(ctx, snapshot.Filename); err != nil {
			uc.logger.Errorf("Failed to delete %s: %v", snapshot.Filename, err)
			continue
		}
		deleted++
	}

	return deleted, nil
}

func (uc *Cleanup) cleanupTargets(ctx context.Context, cutoff time.Time) {
	var wg sync.WaitGroup

	for _, target := range uc.uploadTargets {
		wg.Add(1)
		go func(t UploadTarget) {
			defer wg.Done()

			if err := uc.cleanupTarget(ctx, t, cutoff); err != nil {
				uc.logger.Errorf("Cleanup failed for %s: %v", t.Name, err)
			}
		}(target)
	}

	wg.Wait()
}

func (uc *Cleanup) cleanupTarget(ctx context.Context, target UploadTarget, cutoff time.Time) error {
	files, err := target.Storage.GetOldFiles(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("list old files: %w", err)
	}

	deleted := 0
	for _, filename := range files {
		uc.logger.Infof("Deleting old backup from %s: %s", target.Name, filename)

		if err := target.Storage.Delete(ctx, filename); err != nil {
			uc.logger.Errorf("Failed to delete %s from %s: %v", filename, target.Name, err)
		} else {
			deleted++
		}
	}

	uc.logger.Infof("Deleted %d old backup(s) from %s", deleted, target.Name)
	return nil
}
