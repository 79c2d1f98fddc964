package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/semmidev/sqlvault/internal/adapter/compressor"
	"github.com/semmidev/sqlvault/internal/adapter/database"
	"github.com/semmidev/sqlvault/internal/adapter/httpapi"
	"github.com/semmidev/sqlvault/internal/adapter/storage"
	"github.com/semmidev/sqlvault/internal/config"
	"github.com/semmidev/sqlvault/internal/domain"
	"github.com/semmidev/sqlvault/internal/infrastructure/auth"
	"github.com/semmidev/sqlvault/internal/infrastructure/logger"
	"github.com/semmidev/sqlvault/internal/infrastructure/metrics"
	"github.com/semmidev/sqlvault/internal/infrastructure/scheduler"
	"github.com/semmidev/sqlvault/internal/usecase"
)

type App struct {
	config        *config.Config
	logger        *logger.Logger
	scheduler     *scheduler.Scheduler
	localStorage  *storage.LocalStorage
	uploadTargets []usecase.UploadTarget
	metrics       *metrics.Recorder
	backupUC      *usecase.Backup
	restoreUC     *usecase.Restore
	cleanupUC     *usecase.Cleanup
	server        *httpapi.Server
}

// New wires every component from cfg. The connection string is validated
// here so a bad DATABASE_URL fails at startup rather than at the first tick.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	conn, err := database.ParseConnectionString(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	engine, err := database.New(conn.Scheme, cfg.Backup.DumpCommand, cfg.Backup.RestoreCommand)
	if err != nil {
		return nil, err
	}
	log.Infof("Target database: %s (%s)", conn, engine.Name())

	localStorage, err := storage.NewLocal(cfg.Backup.Directory)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize local storage: %w", err)
	}

	uploadTargets := initializeUploadTargets(ctx, cfg, log)

	connection := func() (domain.ConnectionDescriptor, error) {
		return database.ParseConnectionString(cfg.DatabaseURL)
	}

	recorder := metrics.New()
	lock := usecase.NewOperationLock()

	cleanupUC := usecase.NewCleanup(
		localStorage,
		uploadTargets,
		log.Named("retention"),
		cfg.Backup.RetentionDays,
	)
	cleanupUC.SetMetrics(recorder)

	backupUC := usecase.NewBackup(
		connection,
		engine,
		localStorage,
		lock,
		log.Named("backup"),
		usecase.WithUploadTargets(uploadTargets, compressor.NewGzip(), cfg.Backup.Compress),
		usecase.WithRetention(cleanupUC),
		usecase.WithCommandTimeout(cfg.Backup.CommandTimeout),
		usecase.WithBackupMetrics(recorder),
	)

	restoreUC := usecase.NewRestore(
		connection,
		engine,
		localStorage,
		lock,
		log.Named("restore"),
		cfg.Backup.CommandTimeout,
	)
	restoreUC.SetMetrics(recorder)

	a := &App{
		config:        cfg,
		logger:        log,
		scheduler:     scheduler.New(log.Named("scheduler")),
		localStorage:  localStorage,
		uploadTargets: uploadTargets,
		metrics:       recorder,
		backupUC:      backupUC,
		restoreUC:     restoreUC,
		cleanupUC:     cleanupUC,
	}

	if cfg.Admin.Enabled {
		tokens, err := auth.NewTokenService(cfg.Admin.JWTSecret, cfg.Admin.TokenTTL)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrConfiguration, err)
		}
		a.server = httpapi.NewServer(
			cfg.Admin.Listen,
			tokens,
			backupUC,
			restoreUC,
			localStorage,
			recorder.Handler(),
			log.Named("http"),
		)
	}

	return a, nil
}

func initializeUploadTargets(ctx context.Context, cfg *config.Config, log *logger.Logger) []usecase.UploadTarget {
	var targets []usecase.UploadTarget

	for _, targetCfg := range cfg.GetEnabledUploadTargets() {
		var stor domain.Storage
		var err error

		switch targetCfg.Type {
		case "gdrive":
			stor, err = storage.NewGDrive(ctx, &targetCfg)
			if err != nil {
				log.Errorf("Failed to initialize Google Drive: %v", err)
				continue
			}
			log.Infof("Google Drive offsite copy enabled (folder: %s)", targetCfg.FolderID)

		case "s3":
			stor, err = storage.NewS3(ctx, &targetCfg)
			if err != nil {
				log.Errorf("Failed to initialize S3: %v", err)
				continue
			}
			log.Infof("S3 offsite copy enabled (bucket: %s)", targetCfg.Bucket)

		case "telegram":
			stor, err = storage.NewTelegram(&targetCfg)
			if err != nil {
				log.Errorf("Failed to initialize Telegram: %v", err)
				continue
			}
			log.Infof("Telegram notifications enabled")

		default:
			log.Warnf("Unknown upload target type: %s", targetCfg.Type)
			continue
		}

		targets = append(targets, usecase.UploadTarget{
			Name:    targetCfg.Type,
			Storage: stor,
		})
	}

	return targets
}

// Run arms the backup and retention schedules, serves the admin API when
// enabled, and blocks until ctx is cancelled or the server fails.
func (a *App) Run(ctx context.Context) error {
	interval, err := a.config.Backup.Frequency.Interval()
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrConfiguration, err)
	}

	if err := a.scheduler.AddEvery("backup", interval, a.scheduledBackup, true); err != nil {
		return fmt.Errorf("failed to schedule backup: %w", err)
	}

	if err := a.scheduler.AddJob("cleanup", a.config.Backup.CleanupSchedule, func(ctx context.Context) error {
		_, err := a.cleanupUC.Execute(ctx)
		return err
	}); err != nil {
		return fmt.Errorf("failed to schedule cleanup %q: %w", a.config.Backup.CleanupSchedule, err)
	}

	a.scheduler.Start()
	a.logger.Infof("Backing up %s, keeping %d day(s) in %s", a.config.Backup.Frequency, a.config.Backup.RetentionDays, a.config.Backup.Directory)
	a.logger.Infof("Backup destinations: local + %d remote target(s)", len(a.uploadTargets))

	serverErr := make(chan error, 1)
	if a.server != nil {
		go func() { serverErr <- a.server.Start() }()
	}

	select {
	case <-ctx.Done():
		return nil
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("admin API: %w", err)
		}
		return nil
	}
}

// scheduledBackup is the scheduler's view of a backup. A conflict means an
// interactive operation holds the slot; the next tick will try again.
func (a *App) scheduledBackup(ctx context.Context) error {
	_, err := a.backupUC.Execute(ctx)
	if errors.Is(err, domain.ErrConflict) {
		return nil
	}
	return err
}

func (a *App) Backup(ctx context.Context) (domain.Snapshot, error) {
	snapshot, err := a.backupUC.Execute(ctx)
	a.backupUC.Wait()
	return snapshot, err
}

func (a *App) ListBackups(ctx context.Context) ([]domain.Snapshot, error) {
	return a.localStorage.ListBackups(ctx)
}

func (a *App) Restore(ctx context.Context, filename string) error {
	return a.restoreUC.Execute(ctx, filename)
}

func (a *App) Cleanup(ctx context.Context) (int, error) {
	return a.cleanupUC.Execute(ctx)
}

func (a *App) Shutdown(ctx context.Context) {
	a.logger.Infof("Shutting down...")

	if a.server != nil {
		if err := a.server.Shutdown(ctx); err != nil {
			a.logger.Errorf("Admin API shutdown: %v", err)
		}
	}

	a.scheduler.Stop()
	a.backupUC.Wait()
}
