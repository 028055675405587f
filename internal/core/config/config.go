package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "EPI"

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Sync      SyncConfig      `mapstructure:"sync"`
	Capture   CaptureConfig   `mapstructure:"capture"`
	Backup    BackupConfig    `mapstructure:"backup"`
	Documents DocumentsConfig `mapstructure:"documents"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
	Mode    string `mapstructure:"mode"`
	Version string `mapstructure:"version"`
}

func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type AuthConfig struct {
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	PasswordHash string `mapstructure:"password_hash"`
	JWTSecret    string `mapstructure:"jwt_secret"`
}

type SyncConfig struct {
	Transport       string `mapstructure:"transport"`
	EndpointURL     string `mapstructure:"endpoint_url"`
	SpreadsheetID   string `mapstructure:"spreadsheet_id"`
	CredentialsFile string `mapstructure:"credentials_file"`
	CredentialsJSON string `mapstructure:"credentials_json"`
}

type CaptureConfig struct {
	Enabled               bool    `mapstructure:"enabled"`
	VisionCredentialsFile string  `mapstructure:"vision_credentials_file"`
	MinConfidence         float64 `mapstructure:"min_confidence"`
	PreferredWidth        int     `mapstructure:"preferred_width"`
	PreferredHeight       int     `mapstructure:"preferred_height"`
	AnalysisWidth         int     `mapstructure:"analysis_width"`
}

type BackupConfig struct {
	AutoBackup bool          `mapstructure:"auto_backup"`
	Dir        string        `mapstructure:"dir"`
	Interval   time.Duration `mapstructure:"interval"`
	Retention  int           `mapstructure:"retention"`
}

type DocumentsConfig struct {
	Timezone string `mapstructure:"timezone"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// Load reads .env, then config.yaml from path (both optional), then EPI_* environment variables.
func Load(path string) (*Config, error) {
	// .env never overrides variables already set in the environment
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.AddConfigPath(path)
	}
	v.AddConfigPath(".")
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite3", "postgres":
	default:
		return fmt.Errorf("database.driver must be sqlite3 or postgres, got %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return errors.New("database.dsn is required")
	}
	switch c.Sync.Transport {
	case "webhook", "sheets":
	default:
		return fmt.Errorf("sync.transport must be webhook or sheets, got %q", c.Sync.Transport)
	}
	if c.Auth.Username == "" {
		return errors.New("auth.username is required")
	}
	if c.Auth.Password == "" && c.Auth.PasswordHash == "" {
		return errors.New("auth.password or auth.password_hash is required")
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is required")
	}
	if c.Backup.Interval <= 0 {
		return errors.New("backup.interval must be positive")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.version", "1.0.0")

	v.SetDefault("database.driver", "sqlite3")
	v.SetDefault("database.dsn", "data/epi.db")

	v.SetDefault("auth.username", "admin")
	v.SetDefault("auth.password", "")
	v.SetDefault("auth.password_hash", "")
	v.SetDefault("auth.jwt_secret", "")

	v.SetDefault("sync.transport", "webhook")
	v.SetDefault("sync.endpoint_url", "")
	v.SetDefault("sync.spreadsheet_id", "")
	v.SetDefault("sync.credentials_file", "configs/google-credentials.json")
	v.SetDefault("sync.credentials_json", "")

	v.SetDefault("capture.enabled", true)
	v.SetDefault("capture.vision_credentials_file", "")
	v.SetDefault("capture.min_confidence", 0.5)
	v.SetDefault("capture.preferred_width", 1280)
	v.SetDefault("capture.preferred_height", 720)
	v.SetDefault("capture.analysis_width", 640)

	v.SetDefault("backup.auto_backup", false)
	v.SetDefault("backup.dir", "data/backups")
	v.SetDefault("backup.interval", "24h")
	v.SetDefault("backup.retention", 7)

	v.SetDefault("documents.timezone", "America/Sao_Paulo")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", true)
}
