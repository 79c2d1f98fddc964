package logger

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLogger(t *testing.T) {
	Convey("Given the Logger package", t, func() {
		Convey("New function", func() {
			Convey("When creating a logger with console output only", func() {
				logger, err := New("info", "")

				Convey("It should create a logger successfully", func() {
					So(err, ShouldBeNil)
					So(logger, ShouldNotBeNil)

					// Verify logging works by checking if it doesn't panic
					So(func() { logger.Info("Test log") }, ShouldNotPanic)
				})
			})

			Convey("When creating a logger with a valid log file", func() {
				// Create a unique temporary directory for the log file
				tempDir, err := os.MkdirTemp("", "logger_test")
				So(err, ShouldBeNil)
				defer os.RemoveAll(tempDir) // Clean up the directory after the test

				logFile := filepath.Join(tempDir, "test.log")

				logger, err := New("debug", logFile)

				Convey("It should create a logger and log file successfully", func() {
					So(err, ShouldBeNil)
					So(logger, ShouldNotBeNil)

					// Write a log to ensure the file is created
					logger.Debug("Test debug log")
					logger.Sync() // Force flush to ensure file is written

					// Verify the log file exists
					_, err := os.Stat(logFile)
					So(err, ShouldBeNil)

					// Clean up
					logger.Close()
				})
			})

			Convey("When creating a logger with an invalid log level", func() {
				logger, err := New("invalid", "")

				Convey("It should default to Info level and create a logger", func() {
					So(err, ShouldBeNil)
					So(logger, ShouldNotBeNil)

					// Verify logging works at default level
					So(func() { logger.Info("Test info log") }, ShouldNotPanic)
					So(func() { logger.Debug("Test debug log") }, ShouldNotPanic) // Debug should not log
				})
			})

			Convey("When creating a logger with an invalid log file path", func() {
				// A regular file where a directory is expected fails even for root.
				tempDir, err := os.MkdirTemp("", "logger_test")
				So(err, ShouldBeNil)
				defer os.RemoveAll(tempDir)

				blocker := filepath.Join(tempDir, "blocker")
				So(os.WriteFile(blocker, []byte("x"), 0644), ShouldBeNil)
				logFile := filepath.Join(blocker, "nested", "test.log")

				logger, err := New("info", logFile)

				Convey("It should return an error", func() {
					So(err, ShouldNotBeNil)
					So(err.Error(), ShouldContainSubstring, "failed to create log directory")
					So(logger, ShouldBeNil)
				})
			})
		})

		Convey("Named method", func() {
			logger, err := New("info", "")
			So(err, ShouldBeNil)

			Convey("It should return a usable child logger", func() {
				child := logger.Named("scheduler")
				So(child, ShouldNotBeNil)
				So(child, ShouldNotEqual, logger)
				So(func() { child.Infof("tick %d", 1) }, ShouldNotPanic)
			})
		})

		Convey("Cron adapter", func() {
			tempDir, err := os.MkdirTemp("", "logger_test")
			So(err, ShouldBeNil)
			defer os.RemoveAll(tempDir)

			logFile := filepath.Join(tempDir, "cron.log")
			logger, err := New("debug", logFile)
			So(err, ShouldBeNil)

			Convey("It should write cron errors as structured entries", func() {
				cl := logger.Cron()
				cl.Info("schedule", "entry", 1)
				cl.Error(errors.New("boom"), "panic", "entry", 1)
				logger.Sync()

				content, err := os.ReadFile(logFile)
				So(err, ShouldBeNil)
				So(string(content), ShouldContainSubstring, `"error":"boom"`)
				So(string(content), ShouldContainSubstring, `"logger":"cron"`)
			})
		})

		Convey("NewNop", func() {
			So(func() { NewNop().Errorf("ignored %v", 1) }, ShouldNotPanic)
		})

		Convey("Close method", func() {
			Convey("When closing a logger with file output", func() {
				// Create a unique temporary directory for the log file
				tempDir, err := os.MkdirTemp("", "logger_test")
				So(err, ShouldBeNil)
				defer os.RemoveAll(tempDir) // Clean up the directory after the test

				logFile := filepath.Join(tempDir, "test.log")

				logger, err := New("info", logFile)
				So(err, ShouldBeNil)
				So(logger, ShouldNotBeNil)

				// Write a log to ensure the file is created
				logger.Info("Test info log")
				logger.Sync() // Force flush to ensure file is written

				Convey("It should close without error", func() {
					So(func() { logger.Close() }, ShouldNotPanic)

					// Verify the log file exists
					_, err := os.Stat(logFile)
					So(err, ShouldBeNil)
				})
			})

			Convey("When closing a logger with console output only", func() {
				logger, err := New("info", "")
				So(err, ShouldBeNil)
				So(logger, ShouldNotBeNil)

				Convey("It should close without error", func() {
					So(func() { logger.Close() }, ShouldNotPanic)
				})
			})
		})
	})
}
