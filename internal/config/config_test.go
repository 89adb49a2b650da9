package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name      string
		filePath  string
		wantErr   bool
		errString string
	}{
		{
			name:     "valid config file",
			filePath: "testdata/valid_config.yaml",
			wantErr:  false,
		},
		{
			name:      "non-existent file",
			filePath:  "testdata/nonexistent.yaml",
			wantErr:   true,
			errString: "failed to read config file",
		},
		{
			name:      "malformed yaml",
			filePath:  "testdata/malformed.yaml",
			wantErr:   true,
			errString: "failed to parse config file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(tt.filePath)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errString)
				assert.Nil(t, cfg)
			} else {
				require.NoError(t, err)
				require.NotNil(t, cfg)

				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, "localhost", cfg.Database.Host)
				assert.Equal(t, "voiceguard_db", cfg.Database.Database)
				assert.Equal(t, "analysis_exchange", cfg.RabbitMQ.Exchange.Name)
				assert.Equal(t, "audio_queue", cfg.RabbitMQ.Queue.Name)
				assert.Equal(t, "voiceguard-audio", cfg.ObjectStore.Bucket)
				assert.Equal(t, "http://localhost:9090/v1/infer", cfg.Inference.URL)
				assert.Equal(t, 3, cfg.Quota.FreeDailyLimit)
				assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
				assert.Equal(t, "0 * * * *", cfg.Worker.SweepSchedule)
			}
		})
	}
}

func TestLoad_ExpandsEnvSecrets(t *testing.T) {
	t.Setenv("TEST_DB_PASSWORD", "s3cret")

	dir := t.TempDir()
	path := dir + "/config.yaml"
	content := "database:\n  host: localhost\n  password: ${TEST_DB_PASSWORD}\n"
	require.NoError(t, writeFile(path, content))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", cfg.Database.Password)
}

func TestLoad_DefaultsQuota(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/config.yaml"
	require.NoError(t, writeFile(path, "app:\n  name: voiceguard\n"))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Quota.FreeDailyLimit)
}

func validBase() *Config {
	cfg := &Config{}
	cfg.Server.Port = 8080
	cfg.Database.Host = "localhost"
	cfg.Database.Port = 5432
	cfg.Database.Database = "voiceguard_db"
	cfg.RabbitMQ.Host = "localhost"
	cfg.RabbitMQ.Port = 5672
	cfg.RabbitMQ.Exchange.Name = "analysis_exchange"
	cfg.RabbitMQ.Queue.Name = "audio_queue"
	cfg.ObjectStore.Endpoint = "localhost:9000"
	cfg.ObjectStore.Bucket = "voiceguard-audio"
	cfg.Inference.URL = "http://localhost:9090/v1/infer"
	cfg.Auth.JWTSecret = "secret"
	cfg.Quota.FreeDailyLimit = 3
	cfg.Worker.Concurrency = 4
	cfg.Worker.ShutdownTimeout = 30 * time.Second
	return cfg
}

func TestConfig_ValidateAPIConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{
			name:    "invalid server port",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantErr: "invalid server port",
		},
		{
			name:    "missing jwt secret",
			mutate:  func(c *Config) { c.Auth.JWTSecret = "" },
			wantErr: "auth jwt_secret is required",
		},
		{
			name:    "missing database host",
			mutate:  func(c *Config) { c.Database.Host = "" },
			wantErr: "database host is required",
		},
		{
			name:    "missing queue name",
			mutate:  func(c *Config) { c.RabbitMQ.Queue.Name = "" },
			wantErr: "rabbitmq queue name is required",
		},
		{
			name:    "missing object store bucket",
			mutate:  func(c *Config) { c.ObjectStore.Bucket = "" },
			wantErr: "object store bucket is required",
		},
		{
			name:    "negative quota",
			mutate:  func(c *Config) { c.Quota.FreeDailyLimit = -1 },
			wantErr: "quota free_daily_limit must not be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validBase()
			tt.mutate(cfg)

			err := cfg.ValidateAPIConfig()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestConfig_ValidateWorkerConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{
			name:    "zero concurrency",
			mutate:  func(c *Config) { c.Worker.Concurrency = 0 },
			wantErr: "worker concurrency must be greater than 0",
		},
		{
			name:    "missing inference url",
			mutate:  func(c *Config) { c.Inference.URL = "" },
			wantErr: "inference url is required",
		},
		{
			name: "sweep enabled without schedule",
			mutate: func(c *Config) {
				c.Worker.SweepEnabled = true
				c.Worker.SweepSchedule = ""
			},
			wantErr: "worker sweep_schedule is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validBase()
			tt.mutate(cfg)

			err := cfg.ValidateWorkerConfig()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}
