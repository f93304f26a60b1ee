/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package httpserver

import (
	"bytes"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/acronis/go-ratelimit/config"
	"github.com/acronis/go-ratelimit/ratelimit"
)

func loadConfig(t *testing.T, data string, cfg *Config) error {
	t.Helper()
	return config.NewLoader(config.NewViperAdapter()).LoadFromReader(bytes.NewBufferString(data), config.DataTypeYAML, cfg)
}

func TestConfig(t *testing.T) {
	tests := []struct {
		name        string
		cfgData     string
		cfg         *Config
		expectedCfg func() *Config
	}{
		{
			name:        "default values",
			cfgData:     `server: {}`,
			cfg:         NewConfig(),
			expectedCfg: func() *Config { return NewDefaultConfig() },
		},
		{
			name: "custom values",
			cfgData: `
server:
  address: "127.0.0.1:777"
  timeouts:
    write: 2m
    read: 1m
    readHeader: 10s
    idle: 5m
    shutdown: 30s
  log:
    requestStart: true
    excludedEndpoints: ["/healthz", "/metrics"]
  rateLimit:
    enabled: true
    dryRun: true
    responseStatusCode: 429
    count: 100
    period: 1m
    preallocate: true
`,
			cfg: NewConfig(),
			expectedCfg: func() *Config {
				cfg := NewDefaultConfig()
				cfg.Address = "127.0.0.1:777"
				cfg.Timeouts = TimeoutsConfig{
					Write:      config.TimeDuration(2 * time.Minute),
					Read:       config.TimeDuration(time.Minute),
					ReadHeader: config.TimeDuration(10 * time.Second),
					Idle:       config.TimeDuration(5 * time.Minute),
					Shutdown:   config.TimeDuration(30 * time.Second),
				}
				cfg.Log = LogConfig{RequestStart: true, ExcludedEndpoints: []string{"/healthz", "/metrics"}}
				cfg.RateLimit = RateLimitConfig{
					Enabled:            true,
					DryRun:             true,
					ResponseStatusCode: http.StatusTooManyRequests,
					Config:             ratelimit.Config{Count: 100, Period: config.TimeDuration(time.Minute), Preallocate: true},
				}
				return cfg
			},
		},
		{
			name: "rate limit with default period",
			cfgData: `
api:
  rateLimit:
    enabled: true
    count: 5
`,
			cfg: NewConfig(WithKeyPrefix("api")),
			expectedCfg: func() *Config {
				cfg := NewDefaultConfig(WithKeyPrefix("api"))
				cfg.RateLimit.Enabled = true
				cfg.RateLimit.Config = ratelimit.Config{Count: 5, Period: config.TimeDuration(ratelimit.DefaultPeriod)}
				return cfg
			},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, loadConfig(t, tt.cfgData, tt.cfg))
			require.Equal(t, tt.expectedCfg(), tt.cfg)
		})
	}
}

func TestConfigValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		cfgData string
		wantErr string
	}{
		{
			name:    "no address",
			cfgData: `server: {address: ""}`,
			wantErr: "server.address: either address or unixSocketPath should be set",
		},
		{
			name:    "bad timeout",
			cfgData: `server: {timeouts: {read: "soon"}}`,
			wantErr: `server.timeouts.read: time: invalid duration "soon"`,
		},
		{
			name:    "rate limit without count",
			cfgData: `server: {rateLimit: {enabled: true}}`,
			wantErr: "server.rateLimit.count: should be >= 1",
		},
		{
			name:    "bad response status code",
			cfgData: `server: {rateLimit: {responseStatusCode: 200}}`,
			wantErr: "server.rateLimit.responseStatusCode: should be in range [400, 599]",
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			require.EqualError(t, loadConfig(t, tt.cfgData, NewConfig()), tt.wantErr)
		})
	}
}

func TestConfig_YAMLUnmarshal(t *testing.T) {
	var cfg Config
	require.NoError(t, yaml.Unmarshal([]byte(`
address: ":9090"
rateLimit:
  enabled: true
  count: 3
  period: 500ms
`), &cfg))
	require.Equal(t, ":9090", cfg.Address)
	require.True(t, cfg.RateLimit.Enabled)
	require.Equal(t, 3, cfg.RateLimit.Count)
	require.Equal(t, config.TimeDuration(500*time.Millisecond), cfg.RateLimit.Period)
}
