package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig
	DB      DBConfig
	Auth    AuthConfig `validate:"-"`
	Storage StorageConfig
	Backup  BackupConfig
	Log     LogConfig
}

type ServerConfig struct {
	ListenAddr   string `validate:"required"`
	StaticDir    string `validate:"required"`
	CookieSecure bool
	SeedOnStart  bool
}

type DBConfig struct {
	Backend       string `validate:"oneof=sqlite mongo"`
	Path          string `validate:"required_if=Backend sqlite"`
	MongoURI      string `validate:"required_if=Backend mongo"`
	MongoDatabase string `validate:"required_if=Backend mongo"`
}

type AuthConfig struct {
	Username      string        `validate:"required"`
	Password      string        `validate:"required"`
	SessionSecret string        `validate:"required"`
	SessionTTL    time.Duration `validate:"gt=0"`
}

type StorageConfig struct {
	UploadDir string `validate:"required"`
}

type BackupConfig struct {
	Dir  string `validate:"required"`
	Keep int    `validate:"gte=1"`
}

type LogConfig struct {
	Level  string
	Format string `validate:"oneof=json text"`
	File   string
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load reads configuration from the environment, after loading a .env file
// from the working directory when one exists. Variables already set in the
// environment win over .env entries.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load .env file", "error", err)
	}

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("port", 3000)
	v.SetDefault("listen_addr", "")
	v.SetDefault("static_dir", "./public")
	v.SetDefault("cookie_secure", false)
	v.SetDefault("seed_on_start", true)
	v.SetDefault("db_backend", "sqlite")
	v.SetDefault("db_path", "./data/handmades.db")
	v.SetDefault("mongodb_uri", "")
	v.SetDefault("mongodb_database", "handmades")
	v.SetDefault("admin_username", "admin")
	v.SetDefault("admin_password", "")
	v.SetDefault("session_secret", "")
	v.SetDefault("session_ttl", "24h")
	v.SetDefault("upload_dir", "./data/uploads")
	v.SetDefault("backup_dir", "./backups")
	v.SetDefault("backup_keep", 30)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
	v.SetDefault("log_file", "")

	listenAddr := v.GetString("listen_addr")
	if listenAddr == "" {
		listenAddr = ":" + strconv.Itoa(v.GetInt("port"))
	}

	cfg := &Config{
		Server: ServerConfig{
			ListenAddr:   listenAddr,
			StaticDir:    v.GetString("static_dir"),
			CookieSecure: v.GetBool("cookie_secure"),
			SeedOnStart:  v.GetBool("seed_on_start"),
		},
		DB: DBConfig{
			Backend:       v.GetString("db_backend"),
			Path:          v.GetString("db_path"),
			MongoURI:      v.GetString("mongodb_uri"),
			MongoDatabase: v.GetString("mongodb_database"),
		},
		Auth: AuthConfig{
			Username:      v.GetString("admin_username"),
			Password:      v.GetString("admin_password"),
			SessionSecret: v.GetString("session_secret"),
			SessionTTL:    v.GetDuration("session_ttl"),
		},
		Storage: StorageConfig{
			UploadDir: v.GetString("upload_dir"),
		},
		Backup: BackupConfig{
			Dir:  v.GetString("backup_dir"),
			Keep: v.GetInt("backup_keep"),
		},
		Log: LogConfig{
			Level:  v.GetString("log_level"),
			Format: v.GetString("log_format"),
			File:   v.GetString("log_file"),
		},
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// ValidateAuth checks the settings only the HTTP server needs.
func (c *Config) ValidateAuth() error {
	if err := validate.Struct(c.Auth); err != nil {
		return fmt.Errorf("invalid auth configuration (set ADMIN_PASSWORD and SESSION_SECRET): %w", err)
	}
	return nil
}
