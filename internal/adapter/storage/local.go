package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/semmidev/sqlvault/internal/domain"
)

// LocalStorage is the backup directory. Its listing is the catalog of
// snapshots; nothing else records which backups exist.
type LocalStorage struct {
	basePath string
}

func NewLocal(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0750); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}
	return &LocalStorage{basePath: basePath}, nil
}

// ListBackups returns every snapshot in the directory, newest first. A missing
// or empty directory yields an empty list.
func (l *LocalStorage) ListBackups(ctx context.Context) ([]domain.Snapshot, error) {
	entries, err := os.ReadDir(l.basePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []domain.Snapshot{}, nil
		}
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	snapshots := make([]domain.Snapshot, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		createdAt, err := domain.ParseSnapshotFilename(entry.Name())
		if err != nil {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			// Removed between ReadDir and Info.
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("failed to get file info for %s: %w", entry.Name(), err)
		}

		snapshots = append(snapshots, domain.Snapshot{
			Filename:  entry.Name(),
			CreatedAt: createdAt,
			Size:      info.Size(),
		})
	}

	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].CreatedAt.After(snapshots[j].CreatedAt)
	})

	return snapshots, nil
}

// Stat returns the snapshot stored under filename.
func (l *LocalStorage) Stat(ctx context.Context, filename string) (domain.Snapshot, error) {
	path, err := l.Resolve(filename)
	if err != nil {
		return domain.Snapshot{}, err
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.Snapshot{}, fmt.Errorf("%w: %s", domain.ErrBackupNotFound, filename)
		}
		return domain.Snapshot{}, fmt.Errorf("failed to stat %s: %w", filename, err)
	}
	if info.IsDir() {
		return domain.Snapshot{}, fmt.Errorf("%w: %s", domain.ErrBackupNotFound, filename)
	}

	createdAt, err := domain.ParseSnapshotFilename(filename)
	if err != nil {
		createdAt = info.ModTime().UTC()
	}

	return domain.Snapshot{Filename: filename, CreatedAt: createdAt, Size: info.Size()}, nil
}

func (l *LocalStorage) Exists(filename string) bool {
	_, err := os.Stat(l.Path(filename))
	return err == nil
}

func (l *LocalStorage) Delete(ctx context.Context, filename string) error {
	path, err := l.Resolve(filename)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// Rename moves a file inside the backup directory, replacing the target.
func (l *LocalStorage) Rename(ctx context.Context, from, to string) error {
	src, err := l.Resolve(from)
	if err != nil {
		return err
	}
	dst, err := l.Resolve(to)
	if err != nil {
		return err
	}
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("failed to rename %s: %w", from, err)
	}
	return nil
}

// Resolve maps an untrusted filename to a path inside the backup directory.
// Anything that could escape the directory is a configuration error.
func (l *LocalStorage) Resolve(filename string) (string, error) {
	if filename == "" || filename == "." || filename == ".." ||
		strings.Contains(filename, "..") ||
		strings.ContainsAny(filename, `/\`+"\x00") ||
		filepath.Base(filename) != filename {
		return "", fmt.Errorf("%w: invalid backup filename %q", domain.ErrConfiguration, filename)
	}

	path := filepath.Join(l.basePath, filename)
	rel, err := filepath.Rel(l.basePath, path)
	if err != nil || rel != filename {
		return "", fmt.Errorf("%w: invalid backup filename %q", domain.ErrConfiguration, filename)
	}

	return path, nil
}

func (l *LocalStorage) Path(filename string) string {
	return filepath.Join(l.basePath, filename)
}
