package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requiredVars() map[string]string {
	return map[string]string{
		"STRIPE_SECRET_KEY":     "sk_test_123",
		"STRIPE_WEBHOOK_SECRET": "whsec_123",
		"DATABASE_URL":          "postgres://app:pw@localhost:5432/contest",
	}
}

func with(extra map[string]string) map[string]string {
	vars := requiredVars()
	for k, v := range extra {
		vars[k] = v
	}
	return vars
}

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(requiredVars())
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, TargetServerless, cfg.DeploymentTarget)
	assert.Equal(t, StorageInline, cfg.FileStorage)
	assert.Equal(t, int64(4<<20), cfg.MaxFileSize())
	assert.Equal(t, 10*time.Second, cfg.PaymentTimeout)
	assert.Equal(t, 5*time.Second, cfg.DBConnectTimeout)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins())
	assert.False(t, cfg.IsProduction())
	assert.Empty(t, cfg.AdminAPIToken)
}

func TestLoadFrom_MissingSecretsFail(t *testing.T) {
	for key := range requiredVars() {
		t.Run(key, func(t *testing.T) {
			vars := requiredVars()
			delete(vars, key)

			_, err := LoadFrom(vars)

			require.Error(t, err)
			assert.Contains(t, err.Error(), key)
		})
	}
}

func TestLoadFrom_EmptySecretFails(t *testing.T) {
	_, err := LoadFrom(with(map[string]string{"STRIPE_SECRET_KEY": ""}))
	require.Error(t, err)
}

func TestLoadFrom_StorageSelection(t *testing.T) {
	tests := []struct {
		name    string
		vars    map[string]string
		storage string
		maxSize int64
	}{
		{
			name:    "serverless stays inline even with a bucket",
			vars:    map[string]string{"S3_BUCKET": "decks"},
			storage: StorageInline,
			maxSize: 4 << 20,
		},
		{
			name:    "server with bucket uses s3",
			vars:    map[string]string{"DEPLOYMENT_TARGET": "server", "S3_BUCKET": "decks"},
			storage: StorageS3,
			maxSize: 25 << 20,
		},
		{
			name:    "server without bucket falls back to inline",
			vars:    map[string]string{"DEPLOYMENT_TARGET": "Server"},
			storage: StorageInline,
			maxSize: 25 << 20,
		},
		{
			name:    "explicit inline on server",
			vars:    map[string]string{"DEPLOYMENT_TARGET": "server", "S3_BUCKET": "decks", "FILE_STORAGE": "inline"},
			storage: StorageInline,
			maxSize: 25 << 20,
		},
		{
			name:    "custom limits",
			vars:    map[string]string{"MAX_FILE_SIZE_SERVERLESS": "1048576"},
			storage: StorageInline,
			maxSize: 1 << 20,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadFrom(with(tt.vars))
			require.NoError(t, err)
			assert.Equal(t, tt.storage, cfg.FileStorage)
			assert.Equal(t, tt.maxSize, cfg.MaxFileSize())
		})
	}
}

func TestLoadFrom_Invalid(t *testing.T) {
	tests := []struct {
		name string
		vars map[string]string
		msg  string
	}{
		{name: "unknown log format", vars: map[string]string{"LOG_FORMAT": "logfmt"}, msg: "LOG_FORMAT"},
		{name: "unknown target", vars: map[string]string{"DEPLOYMENT_TARGET": "lambda"}, msg: "DEPLOYMENT_TARGET"},
		{name: "unknown storage", vars: map[string]string{"FILE_STORAGE": "gcs"}, msg: "FILE_STORAGE"},
		{name: "s3 without bucket", vars: map[string]string{"FILE_STORAGE": "s3"}, msg: "S3_BUCKET"},
		{name: "zero payment timeout", vars: map[string]string{"PAYMENT_TIMEOUT": "0s"}, msg: "PAYMENT_TIMEOUT"},
		{name: "negative file size", vars: map[string]string{"MAX_FILE_SIZE_SERVER": "-1"}, msg: "MAX_FILE_SIZE"},
		{name: "webhook not https", vars: map[string]string{"SLACK_WEBHOOK_URL": "http://hooks.slack.com/services/T/B/secret"}, msg: "SLACK_WEBHOOK_URL"},
		{name: "webhook garbage", vars: map[string]string{"DISCORD_WEBHOOK_URL": "not a url"}, msg: "DISCORD_WEBHOOK_URL"},
		{name: "bad duration", vars: map[string]string{"DB_CONNECT_TIMEOUT": "soon"}, msg: "parse env config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFrom(with(tt.vars))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestLoadFrom_Lists(t *testing.T) {
	cfg, err := LoadFrom(with(map[string]string{
		"APP_ENV":              "Production",
		"CORS_ALLOWED_ORIGINS": "https://contest.example.com, https://admin.example.com ,",
		"TRUSTED_PROXIES":      "10.0.0.0/8",
	}))
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, []string{"https://contest.example.com", "https://admin.example.com"}, cfg.AllowedOrigins())
	assert.Equal(t, []string{"10.0.0.0/8"}, cfg.TrustedProxies)
}

func TestAllowedOrigins_ProductionWithoutListAllowsNone(t *testing.T) {
	cfg, err := LoadFrom(with(map[string]string{"APP_ENV": "production"}))
	require.NoError(t, err)
	assert.Empty(t, cfg.AllowedOrigins())
}

func TestLoadFrom_WebhookErrorsHideToken(t *testing.T) {
	_, err := LoadFrom(with(map[string]string{"SLACK_WEBHOOK_URL": "http://hooks.slack.com/services/T/B/secret"}))
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "secret")
}

func TestLoadFrom_Notifications(t *testing.T) {
	cfg, err := LoadFrom(with(map[string]string{
		"SLACK_WEBHOOK_URL":   " https://hooks.slack.com/services/T/B/x ",
		"DISCORD_WEBHOOK_URL": "https://discord.com/api/webhooks/1/y",
	}))
	require.NoError(t, err)
	assert.Equal(t, "https://hooks.slack.com/services/T/B/x", cfg.SlackWebhookURL)
	assert.Equal(t, "https://discord.com/api/webhooks/1/y", cfg.DiscordWebhookURL)
	assert.Equal(t, 10*time.Second, cfg.NotifyTimeout)
	assert.Equal(t, 5, cfg.NotifyMaxConcurrent)
}
