package config

import (
	"github.com/spf13/viper"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	// Server
	Port int    `mapstructure:"PORT"`
	Env  string `mapstructure:"APP_ENV"` // development | production

	// Store backend
	UpstreamURL   string `mapstructure:"UPSTREAM_URL"`
	UpstreamToken string `mapstructure:"UPSTREAM_TOKEN"`
	StoreID       int64  `mapstructure:"STORE_ID"`

	// Local state
	RedisURL    string `mapstructure:"REDIS_URL"`
	DatabaseURL string `mapstructure:"DATABASE_URL"` // empty disables the journal DB

	// Scanning
	ScanMinLength      int    `mapstructure:"SCAN_MIN_LENGTH"`
	ScanIdleMS         int    `mapstructure:"SCAN_IDLE_MS"`
	ReservedScanPrefix string `mapstructure:"RESERVED_SCAN_PREFIX"`

	// Catalog / journal maintenance
	CatalogRefreshMinutes int `mapstructure:"CATALOG_REFRESH_MINUTES"`
	JournalRetentionDays  int `mapstructure:"JOURNAL_RETENTION_DAYS"`

	// Parties
	PhoneRegion string `mapstructure:"PHONE_REGION"`

	// Receipts
	ReceiptStoragePath string `mapstructure:"RECEIPT_STORAGE_PATH"`

	// SMTP alerts (optional)
	SMTPHost     string `mapstructure:"SMTP_HOST"`
	SMTPPort     int    `mapstructure:"SMTP_PORT"`
	SMTPUser     string `mapstructure:"SMTP_USER"`
	SMTPPassword string `mapstructure:"SMTP_PASSWORD"`
	AlertEmail   string `mapstructure:"ALERT_EMAIL"`
}

// Load reads configuration from environment variables (and optional .env file).
func Load() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// Sensible defaults for development
	viper.SetDefault("PORT", 8640)
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("UPSTREAM_URL", "http://localhost:8000")
	viper.SetDefault("STORE_ID", 1)
	viper.SetDefault("REDIS_URL", "redis://localhost:6379/0")
	viper.SetDefault("SCAN_MIN_LENGTH", 2)
	viper.SetDefault("SCAN_IDLE_MS", 500)
	viper.SetDefault("RESERVED_SCAN_PREFIX", "CL")
	viper.SetDefault("CATALOG_REFRESH_MINUTES", 15)
	viper.SetDefault("JOURNAL_RETENTION_DAYS", 90)
	viper.SetDefault("PHONE_REGION", "EG")
	viper.SetDefault("RECEIPT_STORAGE_PATH", "/tmp/posagent/receipts")
	viper.SetDefault("SMTP_PORT", 587)

	// Optional .env file for local development — does not fail if missing
	_ = viper.ReadInConfig()

	cfg := &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
