// Package config loads the application configuration from the environment
// and the optional fee table file.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Deployment targets. Serverless instances get the smaller upload limit and
// inline file storage by default.
const (
	TargetServerless = "serverless"
	TargetServer     = "server"
)

// File storage backends.
const (
	StorageInline = "inline"
	StorageS3     = "s3"
)

// App holds the environment driven configuration.
type App struct {
	Env       string `env:"APP_ENV" envDefault:"development"`
	HTTPAddr  string `env:"HTTP_ADDR" envDefault:":8080"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
	Version   string `env:"APP_VERSION" envDefault:"dev"`

	// 必須シークレット (欠けていれば起動しない)
	StripeSecretKey     string `env:"STRIPE_SECRET_KEY,notEmpty"`
	StripeWebhookSecret string `env:"STRIPE_WEBHOOK_SECRET,notEmpty"`
	DatabaseURL         string `env:"DATABASE_URL,notEmpty"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
	TrustedProxies     []string `env:"TRUSTED_PROXIES" envSeparator:","`
	AdminAPIToken      string   `env:"ADMIN_API_TOKEN"`
	FeeTablePath       string   `env:"FEE_TABLE_PATH"`

	DeploymentTarget      string `env:"DEPLOYMENT_TARGET" envDefault:"serverless"`
	FileStorage           string `env:"FILE_STORAGE"`
	MaxFileSizeServerless int64  `env:"MAX_FILE_SIZE_SERVERLESS" envDefault:"4194304"`
	MaxFileSizeServer     int64  `env:"MAX_FILE_SIZE_SERVER" envDefault:"26214400"`

	S3Bucket          string `env:"S3_BUCKET"`
	S3Region          string `env:"S3_REGION" envDefault:"us-east-1"`
	S3Endpoint        string `env:"S3_ENDPOINT"`
	S3AccessKeyID     string `env:"S3_ACCESS_KEY_ID"`
	S3SecretAccessKey string `env:"S3_SECRET_ACCESS_KEY"`
	S3Prefix          string `env:"S3_PREFIX" envDefault:"pitch-decks/"`
	S3UsePathStyle    bool   `env:"S3_USE_PATH_STYLE" envDefault:"false"`

	PaymentTimeout    time.Duration `env:"PAYMENT_TIMEOUT" envDefault:"10s"`
	DBConnectTimeout  time.Duration `env:"DB_CONNECT_TIMEOUT" envDefault:"5s"`
	DBMaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"10"`
	DBMaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	DBConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"30m"`

	// 新規エントリ通知 (URL 未設定のチャネルは無効)
	SlackWebhookURL     string        `env:"SLACK_WEBHOOK_URL"`
	DiscordWebhookURL   string        `env:"DISCORD_WEBHOOK_URL"`
	NotifyTimeout       time.Duration `env:"NOTIFY_TIMEOUT" envDefault:"10s"`
	NotifyMaxConcurrent int           `env:"NOTIFY_MAX_CONCURRENT" envDefault:"5"`

	RateLimitPerMinute float64       `env:"RATE_LIMIT_PER_MINUTE" envDefault:"20"`
	RateLimitBurst     int           `env:"RATE_LIMIT_BURST" envDefault:"5"`
	ShutdownTimeout    time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// LoadDotEnv loads .env files into the process environment when present.
// Variables already set in the environment win.
func LoadDotEnv(paths ...string) {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
		}
	}
}

// Load parses the process environment into App and validates it.
func Load() (*App, error) {
	return load(env.Options{})
}

// LoadFrom parses the given variables instead of the process environment.
func LoadFrom(vars map[string]string) (*App, error) {
	return load(env.Options{Environment: vars})
}

func load(opts env.Options) (*App, error) {
	cfg := &App{}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *App) normalize() {
	c.Env = strings.ToLower(strings.TrimSpace(c.Env))
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))
	c.DeploymentTarget = strings.ToLower(strings.TrimSpace(c.DeploymentTarget))
	c.FileStorage = strings.ToLower(strings.TrimSpace(c.FileStorage))
	c.S3Bucket = strings.TrimSpace(c.S3Bucket)
	c.S3Endpoint = strings.TrimSpace(c.S3Endpoint)
	c.S3AccessKeyID = strings.TrimSpace(c.S3AccessKeyID)
	c.S3SecretAccessKey = strings.TrimSpace(c.S3SecretAccessKey)
	c.SlackWebhookURL = strings.TrimSpace(c.SlackWebhookURL)
	c.DiscordWebhookURL = strings.TrimSpace(c.DiscordWebhookURL)
	c.CORSAllowedOrigins = trimList(c.CORSAllowedOrigins)
	c.TrustedProxies = trimList(c.TrustedProxies)

	if c.FileStorage == "" {
		c.FileStorage = StorageInline
		if c.DeploymentTarget == TargetServer && c.S3Bucket != "" {
			c.FileStorage = StorageS3
		}
	}
}

// Validate checks the values that env tags cannot express.
func (c *App) Validate() error {
	var errs []error
	switch c.LogFormat {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be \"json\" or \"text\", got %q", c.LogFormat))
	}
	switch c.DeploymentTarget {
	case TargetServerless, TargetServer:
	default:
		errs = append(errs, fmt.Errorf("DEPLOYMENT_TARGET must be %q or %q, got %q", TargetServerless, TargetServer, c.DeploymentTarget))
	}
	switch c.FileStorage {
	case StorageInline:
	case StorageS3:
		if c.S3Bucket == "" {
			errs = append(errs, errors.New("S3_BUCKET is required when FILE_STORAGE is s3"))
		}
	default:
		errs = append(errs, fmt.Errorf("FILE_STORAGE must be %q or %q, got %q", StorageInline, StorageS3, c.FileStorage))
	}
	if c.MaxFileSizeServerless <= 0 || c.MaxFileSizeServer <= 0 {
		errs = append(errs, errors.New("MAX_FILE_SIZE_* must be positive"))
	}
	if c.PaymentTimeout <= 0 {
		errs = append(errs, errors.New("PAYMENT_TIMEOUT must be positive"))
	}
	if c.DBConnectTimeout <= 0 {
		errs = append(errs, errors.New("DB_CONNECT_TIMEOUT must be positive"))
	}
	if c.NotifyTimeout <= 0 || c.NotifyMaxConcurrent <= 0 {
		errs = append(errs, errors.New("NOTIFY_TIMEOUT and NOTIFY_MAX_CONCURRENT must be positive"))
	}
	for name, raw := range map[string]string{"SLACK_WEBHOOK_URL": c.SlackWebhookURL, "DISCORD_WEBHOOK_URL": c.DiscordWebhookURL} {
		if raw == "" {
			continue
		}
		// URL 自体はトークンを含むのでエラーに出さない
		if u, err := url.Parse(raw); err != nil || u.Scheme != "https" || u.Host == "" {
			errs = append(errs, fmt.Errorf("%s must be an https URL", name))
		}
	}
	if c.RateLimitPerMinute <= 0 || c.RateLimitBurst <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_PER_MINUTE and RATE_LIMIT_BURST must be positive"))
	}
	return errors.Join(errs...)
}

// IsProduction reports whether APP_ENV is production.
func (c *App) IsProduction() bool {
	return c.Env == "production"
}

// MaxFileSize returns the upload limit for the deployment target.
func (c *App) MaxFileSize() int64 {
	if c.DeploymentTarget == TargetServer {
		return c.MaxFileSizeServer
	}
	return c.MaxFileSizeServerless
}

// AllowedOrigins returns the CORS origins, allowing any origin outside
// production when none are configured.
func (c *App) AllowedOrigins() []string {
	if len(c.CORSAllowedOrigins) == 0 && !c.IsProduction() {
		return []string{"*"}
	}
	return c.CORSAllowedOrigins
}

func trimList(in []string) []string {
	out := in[:0]
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
