/*
Copyright © 2026 Acronis International GmbH.

Released under MIT license.
*/

package ratelimit

import (
	"fmt"
	"time"

	"github.com/acronis/go-ratelimit/config"
)

const cfgDefaultKeyPrefix = "ratelimit"

const (
	cfgKeyCount       = "count"
	cfgKeyPeriod      = "period"
	cfgKeyPreallocate = "preallocate"
)

// DefaultPeriod is used when the configuration does not specify the period.
const DefaultPeriod = time.Second

// Config represents a set of configuration parameters for a RateLimiter.
// Configuration can be loaded in different formats (YAML, JSON) using config.Loader, viper,
// or with json.Unmarshal/yaml.Unmarshal functions directly.
//
// YAML example:
//
//	ratelimit:
//	  count: 100
//	  period: 1m
//	  preallocate: true
type Config struct {
	// Count is the maximum number of events within Period. Must be >= 1.
	Count int `mapstructure:"count" yaml:"count" json:"count"`

	// Period is the length of the sliding window.
	Period config.TimeDuration `mapstructure:"period" yaml:"period" json:"period"`

	// Preallocate makes the limiter allocate memory for all Count events upfront (see NewPreallocated).
	Preallocate bool `mapstructure:"preallocate" yaml:"preallocate" json:"preallocate"`

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

// KeyPrefix returns a key prefix with which all configuration parameters should be presented.
// Implements config.KeyPrefixProvider interface.
func (c *Config) KeyPrefix() string {
	if c.keyPrefix == "" {
		return cfgDefaultKeyPrefix
	}
	return c.keyPrefix
}

// SetProviderDefaults sets default configuration values in config.DataProvider.
// Implements config.Config interface.
func (c *Config) SetProviderDefaults(dp config.DataProvider) {
	dp.SetDefault(cfgKeyPeriod, DefaultPeriod.String())
	dp.SetDefault(cfgKeyPreallocate, false)
}

// Set sets rate limiter configuration values from config.DataProvider.
// Implements config.Config interface.
func (c *Config) Set(dp config.DataProvider) error {
	count, err := dp.GetInt(cfgKeyCount)
	if err != nil {
		return err
	}
	if count < 1 {
		return dp.WrapKeyErr(cfgKeyCount, fmt.Errorf("should be >= 1"))
	}

	period, err := dp.GetDuration(cfgKeyPeriod)
	if err != nil {
		return err
	}
	if period < 0 {
		return dp.WrapKeyErr(cfgKeyPeriod, fmt.Errorf("should be >= 0"))
	}

	if c.Preallocate, err = dp.GetBool(cfgKeyPreallocate); err != nil {
		return err
	}

	c.Count = count
	c.Period = config.TimeDuration(period)
	return nil
}

// RateLimit returns the validated rate limit described by the configuration.
func (c *Config) RateLimit() (RateLimit, error) {
	rl, ok := NewRateLimit(c.Count, time.Duration(c.Period))
	if !ok {
		return RateLimit{}, fmt.Errorf("invalid rate limit configuration: count should be >= 1 (got %d), period should be >= 0 (got %s)",
			c.Count, time.Duration(c.Period))
	}
	return rl, nil
}

// NewLimiter creates a new RateLimiter according to the configuration.
func (c *Config) NewLimiter() (*RateLimiter, error) {
	rl, err := c.RateLimit()
	if err != nil {
		return nil, err
	}
	if c.Preallocate {
		return NewPreallocated(rl), nil
	}
	return New(rl), nil
}
