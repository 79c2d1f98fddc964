package usecase

import (
	"fmt"

	"golang.org/x/sync/semaphore"

	"github.com/semmidev/sqlvault/internal/domain"
)

// OperationLock is the single slot shared by backup and restore. A second
// operation is rejected with ErrConflict rather than queued.
type OperationLock struct {
	sem *semaphore.Weighted
}

func NewOperationLock() *OperationLock {
	return &OperationLock{sem: semaphore.NewWeighted(1)}
}

func (l *OperationLock) acquire(op string) error {
	if !l.sem.TryAcquire(1) {
		return fmt.Errorf("%w: cannot start %s", domain.ErrConflict, op)
	}
	return nil
}

func (l *OperationLock) release() {
	l.sem.Release(1)
}
