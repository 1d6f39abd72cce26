// Package config loads the hk server configuration from HK_* environment
// variables, optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL string `env:"HK_DATABASE_URL,required,notEmpty"`
	GRPCAddr    string `env:"HK_GRPC_ADDR" envDefault:":9090"`
	HTTPAddr    string `env:"HK_HTTP_ADDR" envDefault:":8080"`
	NATSURL     string `env:"HK_NATS_URL"`   // empty = events are not published
	AuthToken   string `env:"HK_AUTH_TOKEN"` // empty = auth disabled

	// SessionIdle is how long an operator's transfer session may sit unused
	// before it is reaped.
	SessionIdle time.Duration `env:"HK_SESSION_IDLE" envDefault:"30m"`

	// Notifications
	SendGridKey string `env:"HK_SENDGRID_KEY"` // empty = log notifications only
	MailFrom    string `env:"HK_MAIL_FROM" envDefault:"noreply@hackops.local"`
	AppName     string `env:"HK_APP_NAME" envDefault:"HackOps"`

	// Roster export
	ExportInterval          time.Duration `env:"HK_EXPORT_INTERVAL" envDefault:"0s"` // 0 = disabled
	ExportS3Bucket          string        `env:"HK_EXPORT_S3_BUCKET"`
	ExportS3Endpoint        string        `env:"HK_EXPORT_S3_ENDPOINT"` // custom endpoint for MinIO
	ExportS3Region          string        `env:"HK_EXPORT_S3_REGION" envDefault:"us-east-1"`
	ExportS3Key             string        `env:"HK_EXPORT_S3_KEY" envDefault:"hackops/roster.jsonl"`
	ExportSheetsID          string        `env:"HK_EXPORT_SHEETS_ID"`
	ExportSheetsCredentials string        `env:"HK_EXPORT_SHEETS_CREDENTIALS"` // service account JSON path

	LogLevel  slog.Level `env:"HK_LOG_LEVEL" envDefault:"info"`
	LogFormat string     `env:"HK_LOG_FORMAT" envDefault:"text"`
}

// Load reads the process environment. Each of envFiles (default ".env") is
// loaded first if it exists; variables already set are not overridden.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", f, err)
		}
	}
	return parse(env.Options{})
}

// LoadFrom reads configuration from vars instead of the process environment.
func LoadFrom(vars map[string]string) (*Config, error) {
	return parse(env.Options{Environment: vars})
}

func parse(opts env.Options) (*Config, error) {
	var c Config
	if err := env.ParseWithOptions(&c, opts); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if c.ExportInterval < 0 {
		return nil, fmt.Errorf("HK_EXPORT_INTERVAL must not be negative")
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return nil, fmt.Errorf("HK_LOG_FORMAT: unknown format %q", c.LogFormat)
	}
	return &c, nil
}

// ExportEnabled reports whether periodic roster export has a destination
// and an interval.
func (c *Config) ExportEnabled() bool {
	return c.ExportInterval > 0 && (c.ExportS3Bucket != "" || c.ExportSheetsID != "")
}

// NewLogger builds the server logger for w from LogLevel and LogFormat.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.LogLevel}
	if strings.EqualFold(c.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
