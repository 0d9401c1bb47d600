package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"canvasrelay/pkg/tracing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// helper to build a minimal valid config that can be tweaked in tests.
func validBaseConfig() *Config {
	cfg := DefaultConfig()
	cfg.RateLimiting.Enabled = true
	cfg.RateLimiting.HTTP.RequestsPerSecond = 10
	cfg.RateLimiting.HTTP.Burst = 20
	cfg.RateLimiting.HTTP.MaxConcurrent = 5
	cfg.RateLimiting.WebSocket.MessagesPerSecond = 50
	cfg.RateLimiting.WebSocket.Burst = 100
	return cfg
}

func TestDefaultConfig_IsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, ":3002", cfg.Server.Address)
	assert.Equal(t, "/ws", cfg.Signal.Path)
	assert.Len(t, cfg.WebRTC.ICEServers, 2)
}

func TestDefaultConfig_TracingMatchesTracingDefaults(t *testing.T) {
	want := tracing.DefaultConfig()
	cfg := DefaultConfig()

	assert.Equal(t, want.Enabled, cfg.Tracing.Enabled)
	assert.Equal(t, want.ServiceName, cfg.Tracing.ServiceName)
	assert.Equal(t, want.JaegerURL, cfg.Tracing.JaegerURL)
	assert.Equal(t, want.Environment, cfg.Tracing.Environment)
	assert.Equal(t, want.SampleRate, cfg.Tracing.SampleRate)
}

func TestValidate_RateLimitingDisabled_AllowsZeroValues(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RateLimiting.Enabled = false
	cfg.RateLimiting.HTTP.RequestsPerSecond = 0
	cfg.RateLimiting.HTTP.Burst = 0
	cfg.RateLimiting.WebSocket.MessagesPerSecond = 0
	cfg.RateLimiting.WebSocket.Burst = 0

	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected config to be valid when rate limiting disabled, got error: %v", err)
	}
}

func TestValidate_InvalidValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty server address", func(c *Config) { c.Server.Address = "" }},
		{"signal path without slash", func(c *Config) { c.Signal.Path = "ws" }},
		{"pong timeout not above ping interval", func(c *Config) {
			c.Signal.PingInterval = time.Second
			c.Signal.PongTimeout = time.Second
		}},
		{"zero send queue", func(c *Config) { c.Signal.SendQueueSize = 0 }},
		{"zero max message size", func(c *Config) { c.Signal.MaxMessageSizeBytes = 0 }},
		{"ice server without urls", func(c *Config) {
			c.WebRTC.ICEServers = []ICEServerConfig{{}}
		}},
		{"ice server with http url", func(c *Config) {
			c.WebRTC.ICEServers = []ICEServerConfig{{URLs: []string{"http://example.com"}}}
		}},
		{"unknown log format", func(c *Config) { c.Logging.Format = "xml" }},
		{"tracing sample rate above one", func(c *Config) {
			c.Tracing.Enabled = true
			c.Tracing.SampleRate = 1.5
		}},
		{"no allowed origins", func(c *Config) { c.CORS.AllowedOrigins = nil }},
		{"http rps must be > 0", func(c *Config) { c.RateLimiting.HTTP.RequestsPerSecond = 0 }},
		{"http burst must be > 0", func(c *Config) { c.RateLimiting.HTTP.Burst = 0 }},
		{"http max concurrent must be >= 0", func(c *Config) { c.RateLimiting.HTTP.MaxConcurrent = -1 }},
		{"ws messages per second must be > 0", func(c *Config) { c.RateLimiting.WebSocket.MessagesPerSecond = 0 }},
		{"ws burst must be > 0", func(c *Config) { c.RateLimiting.WebSocket.Burst = 0 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validBaseConfig()
			tc.mutate(cfg)

			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected validation error for case %q, got nil", tc.name)
			}
		})
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Signal, cfg.Signal)
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
server:
  address: ":9000"
signal:
  ping_interval: 5s
  pong_timeout: 15s
  send_queue_size: 32
webrtc:
  ice_servers:
    - urls: ["turn:turn.example.com:3478"]
      username: user
      credential: secret
cors:
  allowed_origins: ["*"]
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Server.Address)
	assert.Equal(t, 5*time.Second, cfg.Signal.PingInterval)
	assert.Equal(t, 15*time.Second, cfg.Signal.PongTimeout)
	assert.Equal(t, 32, cfg.Signal.SendQueueSize)
	assert.Equal(t, "/ws", cfg.Signal.Path)
	require.Len(t, cfg.WebRTC.ICEServers, 1)
	assert.Equal(t, "user", cfg.WebRTC.ICEServers[0].Username)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "4000")
	t.Setenv("CANVASRELAY_LOG_LEVEL", "debug")
	t.Setenv("CANVASRELAY_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ":4000", cfg.Server.Address)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)

	t.Setenv("CANVASRELAY_SERVER_ADDRESS", "127.0.0.1:5000")
	cfg, err = Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:5000", cfg.Server.Address)
}
