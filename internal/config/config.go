package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App         AppConfig    `mapstructure:"app"`
	DatabaseURL string       `mapstructure:"database_url"`
	Backup      BackupConfig `mapstructure:"backup"`
	Admin       AdminConfig  `mapstructure:"admin"`
}

type AppConfig struct {
	Name     string `mapstructure:"name"`
	LogLevel string `mapstructure:"log_level"`
	LogFile  string `mapstructure:"log_file"`
}

type BackupConfig struct {
	Directory      string        `mapstructure:"directory"`
	RetentionDays  int           `mapstructure:"retention_days"`
	Frequency      Frequency     `mapstructure:"frequency"`
	DumpCommand    string        `mapstructure:"dump_command"`
	RestoreCommand string        `mapstructure:"restore_command"`
	CommandTimeout time.Duration `mapstructure:"command_timeout"`

	// Cron spec (with seconds) for the standalone retention sweep.
	CleanupSchedule string `mapstructure:"cleanup_schedule"`

	// Gzip offsite copies. Local snapshots are never compressed.
	Compress      bool           `mapstructure:"compress"`
	UploadTargets []UploadTarget `mapstructure:"upload_targets"`
}

type AdminConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Listen    string        `mapstructure:"listen"`
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

type UploadTarget struct {
	Type    string `mapstructure:"type"`
	Enabled bool   `mapstructure:"enabled"`

	// Google Drive
	CredentialsFile  string `mapstructure:"credentials_file"`
	ClientSecretFile string `mapstructure:"client_secret_file"`
	RefreshToken     string `mapstructure:"refresh_token"`
	FolderID         string `mapstructure:"folder_id"`

	// AWS S3 and compatible stores
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
	Endpoint  string `mapstructure:"endpoint"`

	// Telegram
	BotToken   string `mapstructure:"bot_token"`
	ChatID     string `mapstructure:"chat_id"`
	SendFile   bool   `mapstructure:"send_file"`
	NotifyOnly bool   `mapstructure:"notify_only"`
}

// Frequency is how often the scheduler takes a snapshot.
type Frequency string

const (
	Hourly Frequency = "hourly"
	Daily  Frequency = "daily"
	Weekly Frequency = "weekly"
)

func (f Frequency) Interval() (time.Duration, error) {
	switch f {
	case Hourly:
		return time.Hour, nil
	case Daily:
		return 24 * time.Hour, nil
	case Weekly:
		return 7 * 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("unknown backup frequency %q (want hourly, daily or weekly)", string(f))
	}
}

var envBindings = map[string]string{
	"database_url":            "DATABASE_URL",
	"backup.frequency":        "BACKUP_FREQUENCY",
	"backup.retention_days":   "BACKUP_RETENTION_DAYS",
	"backup.directory":        "BACKUP_DIR",
	"backup.dump_command":     "BACKUP_DUMP_COMMAND",
	"backup.restore_command":  "BACKUP_RESTORE_COMMAND",
	"backup.command_timeout":  "BACKUP_COMMAND_TIMEOUT",
	"backup.cleanup_schedule": "BACKUP_CLEANUP_SCHEDULE",
	"admin.enabled":           "ADMIN_ENABLED",
	"admin.listen":            "ADMIN_LISTEN",
	"admin.jwt_secret":        "ADMIN_JWT_SECRET",
	"app.log_level":           "LOG_LEVEL",
	"app.log_file":            "LOG_FILE",
}

// Load reads the optional YAML file at path and applies environment
// overrides on top. An empty path means environment only.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("app.name", "sqlvault")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("backup.directory", "./backups")
	v.SetDefault("backup.retention_days", 7)
	v.SetDefault("backup.frequency", string(Daily))
	v.SetDefault("backup.cleanup_schedule", "0 0 3 * * *")
	v.SetDefault("backup.compress", true)
	v.SetDefault("admin.listen", ":8080")
	v.SetDefault("admin.token_ttl", time.Hour)

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Backup.Frequency = Frequency(strings.ToLower(strings.TrimSpace(string(cfg.Backup.Frequency))))

	// Without an explicit admin.enabled the API follows the secret.
	if !v.IsSet("admin.enabled") {
		cfg.Admin.Enabled = cfg.Admin.JWTSecret != ""
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if _, err := c.Backup.Frequency.Interval(); err != nil {
		return err
	}

	if c.Backup.RetentionDays < 0 {
		return fmt.Errorf("backup.retention_days must be >= 0, got %d", c.Backup.RetentionDays)
	}

	if c.Backup.Directory == "" {
		return fmt.Errorf("backup.directory is required")
	}

	if c.Backup.CommandTimeout < 0 {
		return fmt.Errorf("backup.command_timeout must not be negative")
	}

	if c.Admin.Enabled && c.Admin.JWTSecret == "" {
		return fmt.Errorf("admin.jwt_secret is required when the admin API is enabled")
	}

	for i, target := range c.Backup.UploadTargets {
		if target.Type == "" {
			return fmt.Errorf("backup.upload_targets[%d]: type is required", i)
		}
	}

	return nil
}

func (c *Config) GetEnabledUploadTargets() []UploadTarget {
	var enabled []UploadTarget
	for _, target := range c.Backup.UploadTargets {
		if target.Enabled {
			enabled = append(enabled, target)
		}
	}
	return enabled
}
