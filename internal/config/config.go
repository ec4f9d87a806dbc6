package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/wearlab/sensorsync/internal/db"
	"github.com/wearlab/sensorsync/internal/naming"
	"github.com/wearlab/sensorsync/internal/serialize"
	"github.com/wearlab/sensorsync/internal/store"
)

// Config holds the full application configuration.
type Config struct {
	Storage StorageConfig `yaml:"storage" mapstructure:"storage"`
	Sync    SyncConfig    `yaml:"sync" mapstructure:"sync"`
	Input   InputConfig   `yaml:"input" mapstructure:"input"`
	Signals SignalsConfig `yaml:"signals" mapstructure:"signals"`
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Alerts  AlertsConfig  `yaml:"alerts" mapstructure:"alerts"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// StorageConfig selects and configures the blob-store backend.
type StorageConfig struct {
	Backend string    `yaml:"backend" mapstructure:"backend"` // gcs, ftp, fs
	GCS     GCSConfig `yaml:"gcs" mapstructure:"gcs"`
	FTP     FTPConfig `yaml:"ftp" mapstructure:"ftp"`
	FS      FSConfig  `yaml:"fs" mapstructure:"fs"`
}

// GCSConfig holds Google Cloud Storage settings. Firebase Storage buckets
// are GCS buckets; use the bucket name from the Firebase console.
type GCSConfig struct {
	Bucket            string  `yaml:"bucket" mapstructure:"bucket"`
	CredentialsJSON   string  `yaml:"credentials_json" mapstructure:"credentials_json"`
	CredentialsFile   string  `yaml:"credentials_file" mapstructure:"credentials_file"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
}

// FTPConfig holds FTP drop settings.
type FTPConfig struct {
	Host        string `yaml:"host" mapstructure:"host"` // host or host:port
	User        string `yaml:"user" mapstructure:"user"`
	Password    string `yaml:"password" mapstructure:"password"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// FSConfig holds local-directory settings.
type FSConfig struct {
	Root string `yaml:"root" mapstructure:"root"`
}

// SyncConfig configures reconciliation and processing.
type SyncConfig struct {
	RawPrefix           string  `yaml:"raw_prefix" mapstructure:"raw_prefix"`
	ParsedPrefix        string  `yaml:"parsed_prefix" mapstructure:"parsed_prefix"`
	Convention          string  `yaml:"convention" mapstructure:"convention"` // flat, tag-date, tag-composite
	Format              string  `yaml:"format" mapstructure:"format"`         // csv, jsonl
	Workers             int     `yaml:"workers" mapstructure:"workers"`
	DefaultIntervalMS   float64 `yaml:"default_interval_ms" mapstructure:"default_interval_ms"`
	LocationPassthrough bool    `yaml:"location_passthrough" mapstructure:"location_passthrough"`
}

// InputConfig configures recording decoding.
type InputConfig struct {
	Encoding string `yaml:"encoding" mapstructure:"encoding"` // IANA charset; empty = UTF-8
}

// SignalsConfig points at an optional signal-registry override file.
type SignalsConfig struct {
	File string `yaml:"file" mapstructure:"file"`
}

// StoreConfig configures the run-history database.
type StoreConfig struct {
	Driver      string    `yaml:"driver" mapstructure:"driver"` // sqlite, postgres, none
	DatabaseURL string    `yaml:"database_url" mapstructure:"database_url"`
	Pool        db.Config `yaml:"pool" mapstructure:"pool"`
}

// ServerConfig configures the webhook server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// AlertsConfig configures the background health checks run in serve mode.
// An empty webhook URL disables alert delivery; the /stats endpoint works
// either way.
type AlertsConfig struct {
	WebhookURL           string  `yaml:"webhook_url" mapstructure:"webhook_url"`
	FailureRateThreshold float64 `yaml:"failure_rate_threshold" mapstructure:"failure_rate_threshold"`
	LookbackWindowHours  int     `yaml:"lookback_window_hours" mapstructure:"lookback_window_hours"`
	CheckIntervalSecs    int     `yaml:"check_interval_secs" mapstructure:"check_interval_secs"`
	StaleRunHours        int     `yaml:"stale_run_hours" mapstructure:"stale_run_hours"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("SENSORSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. Secret-style keys default to empty so that environment
	// injection reaches Unmarshal.
	v.SetDefault("storage.backend", "gcs")
	v.SetDefault("storage.gcs.bucket", "")
	v.SetDefault("storage.gcs.credentials_json", "")
	v.SetDefault("storage.gcs.credentials_file", "")
	v.SetDefault("storage.gcs.requests_per_second", 20)
	v.SetDefault("storage.ftp.host", "")
	v.SetDefault("storage.ftp.user", "")
	v.SetDefault("storage.ftp.password", "")
	v.SetDefault("storage.ftp.timeout_secs", 30)
	v.SetDefault("storage.fs.root", "")
	v.SetDefault("input.encoding", "")
	v.SetDefault("signals.file", "")
	v.SetDefault("store.database_url", "")
	v.SetDefault("sync.raw_prefix", "raw/")
	v.SetDefault("sync.parsed_prefix", "parsed/")
	v.SetDefault("sync.convention", naming.ConventionTagDate)
	v.SetDefault("sync.format", string(serialize.FormatCSV))
	v.SetDefault("sync.workers", 1)
	v.SetDefault("sync.default_interval_ms", 8.0)
	v.SetDefault("sync.location_passthrough", true)
	v.SetDefault("store.driver", store.DriverNone)
	v.SetDefault("store.pool.max_conns", 10)
	v.SetDefault("store.pool.min_conns", 2)
	v.SetDefault("server.port", 8080)
	v.SetDefault("alerts.webhook_url", "")
	v.SetDefault("alerts.failure_rate_threshold", 0.25)
	v.SetDefault("alerts.lookback_window_hours", 24)
	v.SetDefault("alerts.check_interval_secs", 300)
	v.SetDefault("alerts.stale_run_hours", 6)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	// Listing prefixes are folder-like; a bare folder name means the folder.
	cfg.Sync.RawPrefix = ensureSlash(cfg.Sync.RawPrefix)
	cfg.Sync.ParsedPrefix = ensureSlash(cfg.Sync.ParsedPrefix)

	return &cfg, nil
}

func ensureSlash(prefix string) string {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		return prefix + "/"
	}
	return prefix
}

// Validate checks the configuration needed by a command mode. Storage and
// format problems surface here, before any listing or artifact work starts.
func (c *Config) Validate(mode string) error {
	switch mode {
	case "parse":
		return c.validateFormat()
	case "sync":
		if err := c.validateStorage(); err != nil {
			return err
		}
		if err := c.validateFormat(); err != nil {
			return err
		}
		return c.validateSync()
	case "serve":
		if err := c.Validate("sync"); err != nil {
			return err
		}
		if c.Server.Port < 1 || c.Server.Port > 65535 {
			return eris.Errorf("config: invalid server port %d", c.Server.Port)
		}
		return nil
	case "runs":
		if c.Store.Driver == store.DriverNone || c.Store.Driver == "" {
			return eris.New("config: run history is disabled (store.driver=none)")
		}
		return nil
	default:
		return eris.Errorf("config: unknown validation mode %q", mode)
	}
}

func (c *Config) validateStorage() error {
	switch c.Storage.Backend {
	case "gcs":
		if c.Storage.GCS.Bucket == "" {
			return eris.New("config: storage.gcs.bucket is required (SENSORSYNC_STORAGE_GCS_BUCKET)")
		}
	case "ftp":
		if c.Storage.FTP.Host == "" {
			return eris.New("config: storage.ftp.host is required (SENSORSYNC_STORAGE_FTP_HOST)")
		}
	case "fs":
		if c.Storage.FS.Root == "" {
			return eris.New("config: storage.fs.root is required (SENSORSYNC_STORAGE_FS_ROOT)")
		}
	default:
		return eris.Errorf("config: unknown storage backend %q (want gcs, ftp, or fs)", c.Storage.Backend)
	}
	return nil
}

func (c *Config) validateFormat() error {
	if _, err := serialize.ParseFormat(c.Sync.Format); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateSync() error {
	switch c.Sync.Convention {
	case naming.ConventionFlat, naming.ConventionTagDate, naming.ConventionTagComposite:
	default:
		return eris.Errorf("config: unknown naming convention %q", c.Sync.Convention)
	}
	if c.Sync.Workers < 1 || c.Sync.Workers > 32 {
		return eris.Errorf("config: sync.workers must be between 1 and 32, got %d", c.Sync.Workers)
	}
	if c.Sync.DefaultIntervalMS <= 0 {
		return eris.Errorf("config: sync.default_interval_ms must be positive, got %v", c.Sync.DefaultIntervalMS)
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
