package domain

import "errors"

var (
	// ErrConfiguration marks caller mistakes: malformed connection strings,
	// unsafe filenames, unknown engines. Never retried.
	ErrConfiguration = errors.New("configuration error")

	ErrBackupExecution    = errors.New("backup execution failed")
	ErrBackupVerification = errors.New("backup verification failed")
	ErrRestoreExecution   = errors.New("restore execution failed")
	ErrBackupNotFound     = errors.New("backup not found")

	// ErrConflict is returned when a backup or restore is already running.
	ErrConflict = errors.New("another backup or restore is in progress")
)
