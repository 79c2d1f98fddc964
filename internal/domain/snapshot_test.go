package domain

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestSnapshotFilename(t *testing.T) {
	Convey("Given a snapshot timestamp", t, func() {
		ts := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

		Convey("SnapshotFilename should encode it filesystem-safe", func() {
			So(SnapshotFilename(ts), ShouldEqual, "backup-2024-01-15T10-30-00-000Z.sql")
		})

		Convey("Milliseconds should be kept", func() {
			name := SnapshotFilename(ts.Add(42 * time.Millisecond))
			So(name, ShouldEqual, "backup-2024-01-15T10-30-00-042Z.sql")
		})

		Convey("Non-UTC times should be normalised", func() {
			loc := time.FixedZone("UTC+2", 2*60*60)
			So(SnapshotFilename(ts.In(loc)), ShouldEqual, "backup-2024-01-15T10-30-00-000Z.sql")
		})
	})

	Convey("ParseSnapshotFilename", t, func() {
		Convey("When the name was produced by SnapshotFilename", func() {
			ts := time.Date(2025, 12, 31, 23, 59, 58, 999*int(time.Millisecond), time.UTC)
			parsed, err := ParseSnapshotFilename(SnapshotFilename(ts))

			Convey("It should round-trip exactly", func() {
				So(err, ShouldBeNil)
				So(parsed.Equal(ts), ShouldBeTrue)
			})
		})

		Convey("When the name is not a snapshot", func() {
			for _, name := range []string{
				"notes.txt",
				"backup-.sql",
				"backup-2024-01-15T10-30-00-000Z.sql.gz",
				"backup-2024-01-15T10:30:00.000Z.sql",
				"backup-2024-01-15T10-30-00-0a0Z.sql",
				"backup-2024-13-15T10-30-00-000Z.sql",
			} {
				_, err := ParseSnapshotFilename(name)
				So(err, ShouldNotBeNil)
			}
		})
	})
}

func TestConnectionDescriptorString(t *testing.T) {
	Convey("Given a connection descriptor", t, func() {
		conn := ConnectionDescriptor{Scheme: "postgres", Host: "db", Port: 5432, User: "app", Password: "hunter2", Database: "legal"}

		Convey("String should redact the password", func() {
			So(conn.String(), ShouldEqual, "postgres://app:***@db:5432/legal")
			So(conn.String(), ShouldNotContainSubstring, "hunter2")
		})
	})
}
