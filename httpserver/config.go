/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package httpserver

import (
	"fmt"
	"net/http"
	"time"

	"github.com/acronis/go-ratelimit/config"
	"github.com/acronis/go-ratelimit/ratelimit"
)

const cfgDefaultKeyPrefix = "server"

const (
	cfgKeyServerAddress                     = "address"
	cfgKeyServerUnixSocketPath              = "unixSocketPath"
	cfgKeyServerTimeoutsWrite               = "timeouts.write"
	cfgKeyServerTimeoutsRead                = "timeouts.read"
	cfgKeyServerTimeoutsReadHeader          = "timeouts.readHeader"
	cfgKeyServerTimeoutsIdle                = "timeouts.idle"
	cfgKeyServerTimeoutsShutdown            = "timeouts.shutdown"
	cfgKeyServerLogRequestStart             = "log.requestStart"
	cfgKeyServerLogExcludedEndpoints        = "log.excludedEndpoints"
	cfgKeyServerRateLimit                   = "rateLimit"
	cfgKeyServerRateLimitEnabled            = "rateLimit.enabled"
	cfgKeyServerRateLimitDryRun             = "rateLimit.dryRun"
	cfgKeyServerRateLimitResponseStatusCode = "rateLimit.responseStatusCode"
)

const (
	defaultServerAddress            = ":8080"
	defaultServerTimeoutsWrite      = time.Minute
	defaultServerTimeoutsRead       = time.Second * 15
	defaultServerTimeoutsReadHeader = time.Second * 10
	defaultServerTimeoutsIdle       = time.Minute
	defaultServerTimeoutsShutdown   = time.Second * 5
)

// Config represents a set of configuration parameters for HTTPServer.
// Configuration can be loaded in different formats (YAML, JSON) using config.Loader, viper,
// or with json.Unmarshal/yaml.Unmarshal functions directly.
//
// YAML example:
//
//	server:
//	  address: ":8080"
//	  rateLimit:
//	    enabled: true
//	    count: 100
//	    period: 1s
type Config struct {
	Address        string          `mapstructure:"address" yaml:"address" json:"address"`
	UnixSocketPath string          `mapstructure:"unixSocketPath" yaml:"unixSocketPath" json:"unixSocketPath"`
	Timeouts       TimeoutsConfig  `mapstructure:"timeouts" yaml:"timeouts" json:"timeouts"`
	Log            LogConfig       `mapstructure:"log" yaml:"log" json:"log"`
	RateLimit      RateLimitConfig `mapstructure:"rateLimit" yaml:"rateLimit" json:"rateLimit"`

	keyPrefix string
}

var _ config.Config = (*Config)(nil)
var _ config.KeyPrefixProvider = (*Config)(nil)

// ConfigOption is a type for functional options for the Config.
type ConfigOption func(*configOptions)

type configOptions struct {
	keyPrefix string
}

// WithKeyPrefix returns a ConfigOption that sets a key prefix for parsing configuration parameters.
// This prefix will be used by config.Loader.
func WithKeyPrefix(keyPrefix string) ConfigOption {
	return func(o *configOptions) {
		o.keyPrefix = keyPrefix
	}
}

// NewConfig creates a new instance of the Config.
func NewConfig(options ...ConfigOption) *Config {
	opts := configOptions{keyPrefix: cfgDefaultKeyPrefix}
	for _, opt := range options {
		opt(&opts)
	}
	return &Config{keyPrefix: opts.keyPrefix}
}

// NewDefaultConfig creates a new instance of the Config with default values.
// Rate limiting is disabled by default.
func NewDefaultConfig(options ...ConfigOption) *Config {
	cfg := NewConfig(options...)
	cfg.Address = defaultServerAddress
	cfg.Timeouts = TimeoutsConfig{
		Write:      config.TimeDuration(defaultServerTimeoutsWrite),
		Read:       config.TimeDuration(defaultServerTimeoutsRead),
		ReadHeader: config.TimeDuration(defaultServerTimeoutsReadHeader),
		Idle:       config.TimeDuration(defaultServerTimeoutsIdle),
		Shutdown:   config.TimeDuration(defaultServerTimeoutsShutdown),
	}
	cfg.RateLimit.ResponseStatusCode = http.StatusServiceUnavailable
	return cfg
}

// KeyPrefix returns a key prefix with which all configuration parameters should be presented.
// Implements config.KeyPrefixProvider interface.
func (c *Config) KeyPrefix() string {
	if c.keyPrefix == "" {
		return cfgDefaultKeyPrefix
	}
	return c.keyPrefix
}

// SetProviderDefaults sets default configuration values for HTTPServer in config.DataProvider.
// Implements config.Config interface.
func (c *Config) SetProviderDefaults(dp config.DataProvider) {
	dp.SetDefault(cfgKeyServerAddress, defaultServerAddress)

	dp.SetDefault(cfgKeyServerTimeoutsWrite, defaultServerTimeoutsWrite)
	dp.SetDefault(cfgKeyServerTimeoutsRead, defaultServerTimeoutsRead)
	dp.SetDefault(cfgKeyServerTimeoutsReadHeader, defaultServerTimeoutsReadHeader)
	dp.SetDefault(cfgKeyServerTimeoutsIdle, defaultServerTimeoutsIdle)
	dp.SetDefault(cfgKeyServerTimeoutsShutdown, defaultServerTimeoutsShutdown)

	dp.SetDefault(cfgKeyServerLogRequestStart, false)

	dp.SetDefault(cfgKeyServerRateLimitEnabled, false)
	dp.SetDefault(cfgKeyServerRateLimitDryRun, false)
	dp.SetDefault(cfgKeyServerRateLimitResponseStatusCode, http.StatusServiceUnavailable)
	c.RateLimit.Config.SetProviderDefaults(config.NewKeyPrefixedDataProvider(dp, cfgKeyServerRateLimit))
}

// Set sets HTTPServer configuration values from config.DataProvider.
// Implements config.Config interface.
func (c *Config) Set(dp config.DataProvider) error {
	var err error

	if c.Address, err = dp.GetString(cfgKeyServerAddress); err != nil {
		return err
	}
	if c.UnixSocketPath, err = dp.GetString(cfgKeyServerUnixSocketPath); err != nil {
		return err
	}
	if c.Address == "" && c.UnixSocketPath == "" {
		return dp.WrapKeyErr(cfgKeyServerAddress, fmt.Errorf("either address or unixSocketPath should be set"))
	}

	if err = c.Timeouts.Set(dp); err != nil {
		return err
	}
	if err = c.Log.Set(dp); err != nil {
		return err
	}
	return c.RateLimit.Set(dp)
}

// TimeoutsConfig represents a set of configuration parameters for HTTPServer relating to timeouts.
type TimeoutsConfig struct {
	Write      config.TimeDuration `mapstructure:"write" yaml:"write" json:"write"`
	Read       config.TimeDuration `mapstructure:"read" yaml:"read" json:"read"`
	ReadHeader config.TimeDuration `mapstructure:"readHeader" yaml:"readHeader" json:"readHeader"`
	Idle       config.TimeDuration `mapstructure:"idle" yaml:"idle" json:"idle"`
	Shutdown   config.TimeDuration `mapstructure:"shutdown" yaml:"shutdown" json:"shutdown"`
}

// Set sets timeout server configuration values from config.DataProvider.
func (t *TimeoutsConfig) Set(dp config.DataProvider) error {
	for _, item := range []struct {
		key string
		dst *config.TimeDuration
	}{
		{cfgKeyServerTimeoutsWrite, &t.Write},
		{cfgKeyServerTimeoutsRead, &t.Read},
		{cfgKeyServerTimeoutsReadHeader, &t.ReadHeader},
		{cfgKeyServerTimeoutsIdle, &t.Idle},
		{cfgKeyServerTimeoutsShutdown, &t.Shutdown},
	} {
		dur, err := dp.GetDuration(item.key)
		if err != nil {
			return err
		}
		*item.dst = config.TimeDuration(dur)
	}
	return nil
}

// LogConfig represents a set of configuration parameters for HTTPServer relating to logging.
type LogConfig struct {
	RequestStart      bool     `mapstructure:"requestStart" yaml:"requestStart" json:"requestStart"`
	ExcludedEndpoints []string `mapstructure:"excludedEndpoints" yaml:"excludedEndpoints" json:"excludedEndpoints"`
}

// Set sets log server configuration values from config.DataProvider.
func (l *LogConfig) Set(dp config.DataProvider) error {
	var err error
	if l.RequestStart, err = dp.GetBool(cfgKeyServerLogRequestStart); err != nil {
		return err
	}
	if l.ExcludedEndpoints, err = dp.GetStringSlice(cfgKeyServerLogExcludedEndpoints); err != nil {
		return err
	}
	return nil
}

// RateLimitConfig represents a set of configuration parameters for limiting the rate of API requests.
// Count, period and preallocation of the limiter are read from the same section.
type RateLimitConfig struct {
	Enabled            bool `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	DryRun             bool `mapstructure:"dryRun" yaml:"dryRun" json:"dryRun"`
	ResponseStatusCode int  `mapstructure:"responseStatusCode" yaml:"responseStatusCode" json:"responseStatusCode"`

	ratelimit.Config `mapstructure:",squash" yaml:",inline"`
}

// Set sets rate limiting configuration values from config.DataProvider.
// Limiter parameters are validated only when rate limiting is enabled.
func (r *RateLimitConfig) Set(dp config.DataProvider) error {
	var err error
	if r.Enabled, err = dp.GetBool(cfgKeyServerRateLimitEnabled); err != nil {
		return err
	}
	if r.DryRun, err = dp.GetBool(cfgKeyServerRateLimitDryRun); err != nil {
		return err
	}
	if r.ResponseStatusCode, err = dp.GetInt(cfgKeyServerRateLimitResponseStatusCode); err != nil {
		return err
	}
	if r.ResponseStatusCode < 400 || r.ResponseStatusCode > 599 {
		return dp.WrapKeyErr(cfgKeyServerRateLimitResponseStatusCode, fmt.Errorf("should be in range [400, 599]"))
	}
	if !r.Enabled {
		return nil
	}
	return r.Config.Set(config.NewKeyPrefixedDataProvider(dp, cfgKeyServerRateLimit))
}
