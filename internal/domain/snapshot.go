package domain

import (
	"fmt"
	"strings"
	"time"
)

const (
	SnapshotPrefix    = "backup-"
	SnapshotExtension = ".sql"

	// PartialSuffix marks a dump that has not been verified yet. Failed dumps
	// keep it, which keeps them out of the catalog.
	PartialSuffix = ".partial"

	// ISO-8601 with ':' and '.' swapped for '-' so the name is safe on every
	// filesystem.
	snapshotLayout = "2006-01-02T15-04-05"
)

// SnapshotFilename returns the file name for a snapshot taken at t,
// e.g. backup-2024-01-15T10-30-00-000Z.sql.
func SnapshotFilename(t time.Time) string {
	t = t.UTC()
	return fmt.Sprintf("%s%s-%03dZ%s",
		SnapshotPrefix, t.Format(snapshotLayout), t.Nanosecond()/int(time.Millisecond), SnapshotExtension)
}

// ParseSnapshotFilename recovers the creation time encoded by SnapshotFilename.
func ParseSnapshotFilename(name string) (time.Time, error) {
	if !strings.HasPrefix(name, SnapshotPrefix) || !strings.HasSuffix(name, SnapshotExtension) {
		return time.Time{}, fmt.Errorf("not a snapshot file: %s", name)
	}
	stamp := strings.TrimSuffix(strings.TrimPrefix(name, SnapshotPrefix), SnapshotExtension)

	// 2024-01-15T10-30-00-000Z
	if len(stamp) != len(snapshotLayout)+5 || stamp[len(stamp)-1] != 'Z' || stamp[len(snapshotLayout)] != '-' {
		return time.Time{}, fmt.Errorf("invalid snapshot timestamp: %s", stamp)
	}

	t, err := time.ParseInLocation(snapshotLayout, stamp[:len(snapshotLayout)], time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid snapshot timestamp: %w", err)
	}

	millis := 0
	for _, c := range stamp[len(snapshotLayout)+1 : len(stamp)-1] {
		if c < '0' || c > '9' {
			return time.Time{}, fmt.Errorf("invalid snapshot milliseconds: %s", stamp)
		}
		millis = millis*10 + int(c-'0')
	}

	return t.Add(time.Duration(millis) * time.Millisecond), nil
}
