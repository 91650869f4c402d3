package config_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/popeskul/smshub/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	path := writeConfig(t, `
database:
  host: localhost
  port: 5432
  user: sms
  password: secret
  dbname: smshub
redis:
  host: localhost
  port: 6379
providers:
  eskiz:
    base_url: https://notify.eskiz.uz/api
    email: ops@example.com
`)

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "redis", cfg.Queue.Driver)
	assert.Equal(t, 3, cfg.Queue.MaxAttempts)
	assert.Equal(t, 300, cfg.Queue.RefreshTimeout)
	assert.Equal(t, 30*time.Second, cfg.Dispatch.SendTimeoutDuration())
	assert.Equal(t, 48*time.Hour, cfg.Tokens.Lookahead())
	assert.Equal(t, 240, cfg.Scheduler.TokenRefreshIntervalHours)
	assert.Equal(t, 7, cfg.Scheduler.StatusPollWindowDays)
	assert.Equal(t, "host=localhost port=5432 user=sms password=secret dbname=smshub sslmode=disable", cfg.Database.GetDSN())
	assert.Equal(t, "localhost:6379", cfg.Redis.GetAddr())
	assert.Equal(t, "ops@example.com", cfg.Providers["eskiz"].Email)
}

func TestLoadConfig_ProviderSecretsFromEnv(t *testing.T) {
	path := writeConfig(t, `
providers:
  eskiz:
    base_url: https://notify.eskiz.uz/api
`)
	t.Setenv("PROVIDERS_ESKIZ_PASSWORD", "from-env")

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Providers["eskiz"].Password)
}

func TestLoadConfig_Failure(t *testing.T) {
	tests := []struct {
		name    string
		content string
		path    string
		errMsg  string
	}{
		{
			name:   "missing file",
			path:   filepath.Join(os.TempDir(), "does-not-exist", "config.yaml"),
			errMsg: "failed to read config file",
		},
		{
			name: "unknown queue driver",
			content: `
queue:
  driver: kafka
`,
			errMsg: `unknown queue driver "kafka"`,
		},
		{
			name: "rabbitmq without url",
			content: `
queue:
  driver: rabbitmq
`,
			errMsg: "queue.amqp_url is required",
		},
		{
			name: "send job timeout within one send",
			content: `
queue:
  send_job_timeout: 30
dispatch:
  send_timeout: 30
`,
			errMsg: "queue.send_job_timeout must exceed dispatch.send_timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := tt.path
			if path == "" {
				path = writeConfig(t, tt.content)
			}

			_, err := config.LoadConfig(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestDispatchConfig_CallbackURL(t *testing.T) {
	d := config.DispatchConfig{CallbackBaseURL: "https://sms.example.com/"}
	assert.Equal(t, "https://sms.example.com/v1/webhooks/eskiz/delivery", d.CallbackURL("eskiz"))

	empty := config.DispatchConfig{}
	assert.Equal(t, "", empty.CallbackURL("eskiz"))
}

func TestConfig_SendJobTimeout(t *testing.T) {
	tests := []struct {
		name      string
		queue     config.QueueConfig
		providers int
		want      time.Duration
	}{
		{name: "explicit", queue: config.QueueConfig{SendJobTimeout: 120}, providers: 2, want: 2 * time.Minute},
		{name: "sized by vendors", providers: 2, want: 75 * time.Second},
		{name: "no vendors", want: 45 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Config{
				Queue:     tt.queue,
				Dispatch:  config.DispatchConfig{SendTimeout: 30},
				Providers: map[string]config.ProviderConfig{},
			}
			for i := 0; i < tt.providers; i++ {
				cfg.Providers[fmt.Sprintf("vendor%d", i)] = config.ProviderConfig{}
			}

			got := cfg.SendJobTimeout()
			assert.Equal(t, tt.want, got)
			assert.Greater(t, got, cfg.Dispatch.SendTimeoutDuration())
		})
	}
}
