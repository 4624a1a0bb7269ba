package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		Name     string `yaml:"name"`
		Timezone string `yaml:"timezone"`
	} `yaml:"app"`

	HTTP struct {
		Address string `yaml:"address"`
		APIKey  string `yaml:"api_key"`
	} `yaml:"http"`

	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`

	Backup BackupConfig `yaml:"backup"`

	Redis struct {
		Address         string `yaml:"address"`
		Password        string `yaml:"password"`
		DB              int    `yaml:"db"`
		CacheTTLSeconds int    `yaml:"cache_ttl_seconds"`
	} `yaml:"redis"`

	Telegram struct {
		BotToken     string  `yaml:"bot_token"`
		Debug        bool    `yaml:"debug"`
		AdminChatIDs []int64 `yaml:"admin_chat_ids"`
	} `yaml:"telegram"`

	Notifications NotificationsConfig `yaml:"notifications"`

	Audit AuditConfig `yaml:"audit"`

	Reminders struct {
		Enabled              bool `yaml:"enabled"`
		CheckIntervalMinutes int  `yaml:"check_interval_minutes"`
		DaysBefore           int  `yaml:"days_before"`
	} `yaml:"reminders"`

	Google struct {
		CredentialsFile     string `yaml:"credentials_file"`
		LedgerSpreadsheetID string `yaml:"ledger_spreadsheet_id"`
		LedgerSheetName     string `yaml:"ledger_sheet_name"`
	} `yaml:"google"`

	Monitoring struct {
		HealthCheckPort   int  `yaml:"health_check_port"`
		GRPCHealthPort    int  `yaml:"grpc_health_port"`
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`

	Seed struct {
		AdminEmail    string `yaml:"admin_email"`
		AdminName     string `yaml:"admin_name"`
		RoomsFile     string `yaml:"rooms_file"`
		WatchInterval int    `yaml:"watch_interval_seconds"`
	} `yaml:"seed"`
}

type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	IntervalHours int    `yaml:"interval_hours"`
	Path          string `yaml:"path"`
	RetentionDays int    `yaml:"retention_days"`
}

type NotificationsConfig struct {
	QueueSize     int     `yaml:"queue_size"`
	Workers       int     `yaml:"workers"`
	RatePerSecond float64 `yaml:"rate_per_second"`
	Burst         int     `yaml:"burst"`
	MaxRetries    int     `yaml:"max_retries"`
	RetryDelayMS  int     `yaml:"retry_delay_ms"`
}

type AuditConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Path          string `yaml:"path"`
	RetentionDays int    `yaml:"retention_days"`
	ExportOnStart bool   `yaml:"export_on_start"`
}

// Load reads the YAML config at path. Variables from a .env file next to the
// working directory are loaded first so ${VAR} placeholders can use them.
func Load(path string) (*Config, error) {
	if path == "" {
		path = "configs/config.yaml"
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Support ${ENV_VAR} placeholders in YAML config.
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()

	if err = os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "jethotel"
	}
	if c.HTTP.Address == "" {
		c.HTTP.Address = ":8080"
	}
	if c.Database.Path == "" {
		c.Database.Path = "data/jethotel.db"
	}
	if c.Backup.Path == "" {
		c.Backup.Path = "data/backups"
	}
	if c.Audit.Path == "" {
		c.Audit.Path = "data/audit"
	}
	if c.Notifications.QueueSize <= 0 {
		c.Notifications.QueueSize = 256
	}
	if c.Notifications.Workers <= 0 {
		c.Notifications.Workers = 2
	}
	if c.Notifications.RatePerSecond <= 0 {
		c.Notifications.RatePerSecond = 25
	}
	if c.Notifications.Burst <= 0 {
		c.Notifications.Burst = 5
	}
	if c.Notifications.MaxRetries < 0 {
		c.Notifications.MaxRetries = 0
	}
	if c.Google.LedgerSheetName == "" {
		c.Google.LedgerSheetName = "Ledger"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Seed.AdminEmail == "" {
		c.Seed.AdminEmail = "admin@jethotel.local"
	}
	if c.Seed.AdminName == "" {
		c.Seed.AdminName = "Administrator"
	}
	if c.Seed.RoomsFile == "" {
		c.Seed.RoomsFile = "configs/rooms.yaml"
	}
}

// CacheTTL is how long a cached availability search stays valid.
func (c *Config) CacheTTL() time.Duration {
	if c.Redis.CacheTTLSeconds <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.Redis.CacheTTLSeconds) * time.Second
}

func (c *Config) RoomsWatchInterval() time.Duration {
	if c.Seed.WatchInterval <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.Seed.WatchInterval) * time.Second
}

func (b BackupConfig) Interval() time.Duration {
	if b.IntervalHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(b.IntervalHours) * time.Hour
}

// RetryDelays returns the wait before each delivery retry. The delay doubles
// on every attempt.
func (n NotificationsConfig) RetryDelays() []time.Duration {
	base := time.Duration(n.RetryDelayMS) * time.Millisecond
	if base <= 0 {
		base = time.Second
	}
	delays := make([]time.Duration, n.MaxRetries)
	for i := range delays {
		delays[i] = base << i
	}
	return delays
}
