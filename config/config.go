// Package config parses and validates the drover daemon's JSON
// configuration.
package config

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	"github.com/droverco/drover/sched/scheduler"
)

// Config is the top-level JSON schema. Zero-valued fields take the
// documented defaults, so an empty document is a valid configuration.
type Config struct {
	Capacity CapacityConfig `json:"capacity"`
	Executor ExecutorConfig `json:"executor"`
	Retry    RetryConfig    `json:"retry"`
	Defaults DefaultsConfig `json:"defaults"`
	Store    StoreConfig    `json:"store"`
}

type CapacityConfig struct {
	CPUUnits int `json:"cpu_units"`
	MemoryMB int `json:"memory_mb"`
}

type ExecutorConfig struct {
	MaxConcurrent int `json:"max_concurrent"`
}

type RetryConfig struct {
	BaseDelaySeconds int `json:"base_delay_seconds"`
	MinDelaySeconds  int `json:"min_delay_seconds"`
	MaxDelaySeconds  int `json:"max_delay_seconds"`
}

type DefaultsConfig struct {
	MaxAttempts       int     `json:"max_attempts"`
	BackoffMultiplier float64 `json:"backoff_multiplier"`
	TimeoutSeconds    int     `json:"timeout_seconds"`
}

// StoreConfig selects the Job State Store implementation.
// Type "memory" needs nothing else; type "redis" needs an address.
type StoreConfig struct {
	Type      string `json:"type"`
	RedisAddr string `json:"redis_addr"`
	RedisDB   int    `json:"redis_db"`
}

var emptyJson = []byte("{}")

// Parse decodes text, applies defaults, and validates. Empty input
// parses as the default configuration.
func Parse(text []byte) (*Config, error) {
	if len(text) == 0 {
		text = emptyJson
	}
	c := &Config{}
	dec := json.NewDecoder(bytes.NewReader(text))
	dec.DisallowUnknownFields()
	if err := dec.Decode(c); err != nil {
		return nil, errors.Wrap(err, "couldn't parse top-level config")
	}
	c.applyDefaults()
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Capacity.CPUUnits == 0 {
		c.Capacity.CPUUnits = 8
	}
	if c.Capacity.MemoryMB == 0 {
		c.Capacity.MemoryMB = 4096
	}
	if c.Executor.MaxConcurrent == 0 {
		c.Executor.MaxConcurrent = 10
	}
	if c.Retry.BaseDelaySeconds == 0 {
		c.Retry.BaseDelaySeconds = 1
	}
	if c.Retry.MinDelaySeconds == 0 {
		c.Retry.MinDelaySeconds = 1
	}
	if c.Retry.MaxDelaySeconds == 0 {
		c.Retry.MaxDelaySeconds = 300
	}
	if c.Defaults.MaxAttempts == 0 {
		c.Defaults.MaxAttempts = 3
	}
	if c.Defaults.BackoffMultiplier == 0 {
		c.Defaults.BackoffMultiplier = 2
	}
	if c.Defaults.TimeoutSeconds == 0 {
		c.Defaults.TimeoutSeconds = 3600
	}
	if c.Store.Type == "" {
		c.Store.Type = "memory"
	}
}

func (c *Config) validate() error {
	switch {
	case c.Capacity.CPUUnits < 1 || c.Capacity.MemoryMB < 1:
		return errors.Errorf("capacity must be positive, got cpu:%d mem:%d",
			c.Capacity.CPUUnits, c.Capacity.MemoryMB)
	case c.Executor.MaxConcurrent < 1:
		return errors.Errorf("executor.max_concurrent must be positive, got %d",
			c.Executor.MaxConcurrent)
	case c.Retry.MinDelaySeconds > c.Retry.MaxDelaySeconds:
		return errors.Errorf("retry.min_delay_seconds %d > max_delay_seconds %d",
			c.Retry.MinDelaySeconds, c.Retry.MaxDelaySeconds)
	case c.Retry.BaseDelaySeconds < 1:
		return errors.Errorf("retry.base_delay_seconds must be positive, got %d",
			c.Retry.BaseDelaySeconds)
	case c.Defaults.MaxAttempts < 1:
		return errors.Errorf("defaults.max_attempts must be positive, got %d",
			c.Defaults.MaxAttempts)
	case c.Defaults.BackoffMultiplier < 1:
		return errors.Errorf("defaults.backoff_multiplier must be >= 1, got %v",
			c.Defaults.BackoffMultiplier)
	case c.Defaults.TimeoutSeconds < 1:
		return errors.Errorf("defaults.timeout_seconds must be positive, got %d",
			c.Defaults.TimeoutSeconds)
	}
	switch c.Store.Type {
	case "memory":
	case "redis":
		if c.Store.RedisAddr == "" {
			return errors.New("store.redis_addr is required for the redis store")
		}
	default:
		return errors.Errorf("unknown store.type %q", c.Store.Type)
	}
	return nil
}

// SchedulerConfig translates the parsed document into engine tuning.
func (c *Config) SchedulerConfig() scheduler.SchedulerConfig {
	sc := scheduler.DefaultConfig()
	sc.CPUUnits = c.Capacity.CPUUnits
	sc.MemoryMB = c.Capacity.MemoryMB
	sc.MaxConcurrent = c.Executor.MaxConcurrent
	sc.RetryBaseDelay = time.Duration(c.Retry.BaseDelaySeconds) * time.Second
	sc.RetryMinDelay = time.Duration(c.Retry.MinDelaySeconds) * time.Second
	sc.RetryMaxDelay = time.Duration(c.Retry.MaxDelaySeconds) * time.Second
	sc.DefaultMaxAttempts = c.Defaults.MaxAttempts
	sc.DefaultBackoffMult = c.Defaults.BackoffMultiplier
	sc.DefaultTimeoutSeconds = c.Defaults.TimeoutSeconds
	return sc
}
