package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/semmidev/sqlvault/internal/domain"
)

// Restore replays a snapshot into the live database. It is destructive: a
// failure may leave the database partially restored and must not be retried
// automatically.
type Restore struct {
	connection   ConnectionSource
	restorer     domain.RestoreRunner
	localStorage LocalStorage
	lock         *OperationLock
	logger       Logger
	metrics      Metrics
	timeout      time.Duration
}

func NewRestore(
	connection ConnectionSource,
	restorer domain.RestoreRunner,
	localStorage LocalStorage,
	lock *OperationLock,
	logger Logger,
	timeout time.Duration,
) *Restore {
	return &Restore{
		connection:   connection,
		restorer:     restorer,
		localStorage: localStorage,
		lock:         lock,
		logger:       logger,
		metrics:      noopMetrics{},
		timeout:      timeout,
	}
}

func (uc *Restore) SetMetrics(m Metrics) {
	uc.metrics = m
}

func (uc *Restore) Execute(ctx context.Context, filename string) error {
	path, err := uc.localStorage.Resolve(filename)
	if err != nil {
		return err
	}

	// Only catalog entries are restorable; partial dumps and stray files are not.
	if _, err := domain.ParseSnapshotFilename(filename); err != nil {
		return fmt.Errorf("%w: %s is not a snapshot", domain.ErrBackupNotFound, filename)
	}

	if _, err := uc.localStorage.Stat(ctx, filename); err != nil {
		return err
	}

	conn, err := uc.connection()
	if err != nil {
		return err
	}

	if err := uc.lock.acquire("restore"); err != nil {
		uc.metrics.RestoreFinished(StatusConflict, 0)
		return err
	}
	defer uc.lock.release()

	runCtx := ctx
	if uc.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, uc.timeout)
		defer cancel()
	}

	start := time.Now()
	uc.logger.Warnf("Restoring %s into %s, existing data will be replaced", filename, conn)

	if err := uc.restorer.Restore(runCtx, conn, path); err != nil {
		uc.metrics.RestoreFinished(StatusFailure, time.Since(start))
		uc.logger.Errorf("Restore of %s failed, database may be partially restored: %v", filename, err)
		return fmt.Errorf("%w: %w", domain.ErrRestoreExecution, err)
	}

	uc.metrics.RestoreFinished(StatusSuccess, time.Since(start))
	uc.logger.Infof("Restore of %s completed in %s", filename, time.Since(start).Round(time.Millisecond))
	return nil
}
