package usecase

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/semmidev/sqlvault/internal/domain"
	"github.com/semmidev/sqlvault/internal/infrastructure/logger"
)

var testConn = domain.ConnectionDescriptor{
	Scheme: "postgres", Host: "db", Port: 5432, User: "app", Password: "hunter2", Database: "legal",
}

func staticConnection() (domain.ConnectionDescriptor, error) {
	return testConn, nil
}

func nopLogger() Logger {
	return logger.NewNop()
}

// activity tracks how many subprocesses run at once across fakes.
type activity struct {
	current int32
	peak    int32
}

func (a *activity) enter() {
	n := atomic.AddInt32(&a.current, 1)
	for {
		p := atomic.LoadInt32(&a.peak)
		if n <= p || atomic.CompareAndSwapInt32(&a.peak, p, n) {
			return
		}
	}
}

func (a *activity) leave() {
	atomic.AddInt32(&a.current, -1)
}

// fakeDumper writes a deterministic fixture instead of calling a real tool.
type fakeDumper struct {
	mu      sync.Mutex
	content []byte
	err     error
	skip    bool
	block   chan struct{}
	started chan struct{}
	calls   []string
	conns   []domain.ConnectionDescriptor
	active  *activity
}

func newFakeDumper() *fakeDumper {
	return &fakeDumper{content: []byte("-- PostgreSQL database dump\nCREATE TABLE cases (id int);\n")}
}

func (f *fakeDumper) Dump(ctx context.Context, conn domain.ConnectionDescriptor, outputPath string) error {
	f.mu.Lock()
	f.calls = append(f.calls, outputPath)
	f.conns = append(f.conns, conn)
	f.mu.Unlock()

	if f.active != nil {
		f.active.enter()
		defer f.active.leave()
	}
	if f.started != nil {
		close(f.started)
	}
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if !f.skip {
		if err := os.WriteFile(outputPath, f.content, 0644); err != nil {
			return err
		}
	}
	return f.err
}

func (f *fakeDumper) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeRestorer struct {
	mu      sync.Mutex
	err     error
	block   chan struct{}
	started chan struct{}
	paths   []string
	active  *activity
}

func (f *fakeRestorer) Restore(ctx context.Context, conn domain.ConnectionDescriptor, inputPath string) error {
	f.mu.Lock()
	f.paths = append(f.paths, inputPath)
	f.mu.Unlock()

	if f.active != nil {
		f.active.enter()
		defer f.active.leave()
	}
	if f.started != nil {
		close(f.started)
	}
	if f.block != nil {
		<-f.block
	}
	return f.err
}

func (f *fakeRestorer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.paths)
}

// fakeRemote is an offsite target that records what it receives.
type fakeRemote struct {
	mu        sync.Mutex
	uploadErr error
	uploaded  []string
	old       []string
	listErr   error
	deleted   []string
}

func (f *fakeRemote) Upload(ctx context.Context, localPath string, remoteName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uploadErr != nil {
		return f.uploadErr
	}
	if _, err := os.Stat(localPath); err != nil {
		return err
	}
	f.uploaded = append(f.uploaded, remoteName)
	return nil
}

func (f *fakeRemote) Delete(ctx context.Context, remoteName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, remoteName)
	return nil
}

func (f *fakeRemote) GetOldFiles(ctx context.Context, cutoffTime time.Time) ([]string, error) {
	return f.old, f.listErr
}

func (f *fakeRemote) uploads() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.uploaded...)
}

// flakyStorage wraps the real directory and fails selected operations.
type flakyStorage struct {
	LocalStorage
	listErr    error
	failDelete map[string]bool
}

func (f *flakyStorage) ListBackups(ctx context.Context) ([]domain.Snapshot, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.LocalStorage.ListBackups(ctx)
}

func (f *flakyStorage) Delete(ctx context.Context, filename string) error {
	if f.failDelete[filename] {
		return errors.New("permission denied")
	}
	return f.LocalStorage.Delete(ctx, filename)
}

type recordingMetrics struct {
	mu       sync.Mutex
	backups  []string
	restores []string
	deleted  int
}

func (m *recordingMetrics) BackupFinished(status string, _ time.Duration, _ int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.backups = append(m.backups, status)
}

func (m *recordingMetrics) RestoreFinished(status string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.restores = append(m.restores, status)
}

func (m *recordingMetrics) RetentionDeleted(count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted += count
}
