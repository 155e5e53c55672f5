package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	API     APIConfig     `mapstructure:"api"`
	DB      DBConfig      `mapstructure:"db"`
	Session SessionConfig `mapstructure:"session"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Upload  UploadConfig  `mapstructure:"upload"`
	Editor  EditorConfig  `mapstructure:"editor"`
	Log     LogConfig     `mapstructure:"log"`
}

// ServerConfig holds server-specific configuration.
type ServerConfig struct {
	Port      string    `mapstructure:"port"`
	PublicURL string    `mapstructure:"publicURL"` // used for sitemap and robots.txt links
	TLS       TLSConfig `mapstructure:"tls"`
}

// TLSConfig holds TLS-specific configuration.
type TLSConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	CertFile string `mapstructure:"certFile"`
	KeyFile  string `mapstructure:"keyFile"`
}

// APIConfig points at the external news REST API.
type APIConfig struct {
	BaseURL       string        `mapstructure:"baseURL"`
	Timeout       time.Duration `mapstructure:"timeout"`
	UploadTimeout time.Duration `mapstructure:"uploadTimeout"`
}

// DBConfig holds the local state database configuration (sessions and policies).
type DBConfig struct {
	Driver string `mapstructure:"driver"` // "sqlite3" or "mysql"
	DSN    string `mapstructure:"dsn"`
}

// SessionConfig holds admin session configuration.
type SessionConfig struct {
	Lifetime int `mapstructure:"lifetime"` // hours
}

// CacheConfig holds the response cache configuration.
type CacheConfig struct {
	FilePath string        `mapstructure:"filePath"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// UploadConfig holds image upload limits.
type UploadConfig struct {
	MaxBytes int64 `mapstructure:"maxBytes"`
}

// EditorConfig holds article editor timing parameters.
type EditorConfig struct {
	ProgressResetDelay time.Duration `mapstructure:"progressResetDelay"`
	IdleTimeout        time.Duration `mapstructure:"idleTimeout"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // e.g., "debug", "info", "warn", "error"
	Format string `mapstructure:"format"` // e.g., "json", "console"
}

// LoadConfig reads configuration from a .env file, a config file and environment variables.
func LoadConfig() (*Config, error) {
	// A missing .env file is normal outside local development.
	_ = godotenv.Load()

	v := viper.New()

	v.SetDefault("server.port", "8080")
	v.SetDefault("server.publicURL", "http://localhost:8080")
	v.SetDefault("api.baseURL", "https://teretnjaci.runasp.net/api")
	v.SetDefault("api.timeout", 15*time.Second)
	v.SetDefault("api.uploadTimeout", 30*time.Second)
	v.SetDefault("db.driver", "sqlite3")
	v.SetDefault("db.dsn", "portal.db")
	v.SetDefault("session.lifetime", 12)
	v.SetDefault("cache.filePath", "cache.db")
	v.SetDefault("cache.ttl", 5*time.Minute)
	v.SetDefault("upload.maxBytes", 10<<20)
	v.SetDefault("editor.progressResetDelay", time.Second)
	v.SetDefault("editor.idleTimeout", 2*time.Hour)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	v.AddConfigPath("/etc/teretnjaci-web/")
	v.AddConfigPath("$HOME/.teretnjaci-web")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Config file was found but another error was produced
			return nil, err
		}
	}

	v.SetEnvPrefix("PORTAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
