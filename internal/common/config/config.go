// internal/common/config/config.go
package config

import (
	"fmt"
	"time"
)

// Config is the main application configuration struct.
type Config struct {
	App     AppConfig     `mapstructure:"app"`
	Server  ServerConfig  `mapstructure:"server"`
	Backend BackendConfig `mapstructure:"backend"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Session SessionConfig `mapstructure:"session"`
	Auth    AuthConfig    `mapstructure:"auth"`
	Tracing TracingConfig `mapstructure:"tracing"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Address         string `mapstructure:"address"`
	ReadTimeout     int    `mapstructure:"read_timeout"`     // milliseconds
	WriteTimeout    int    `mapstructure:"write_timeout"`    // milliseconds
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"` // milliseconds
}

// BackendConfig holds settings for the remote lead collection API.
type BackendConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Timeout int    `mapstructure:"timeout"` // milliseconds
}

func (b BackendConfig) RequestTimeout() time.Duration {
	if b.Timeout <= 0 {
		return 30 * time.Second
	}
	return time.Duration(b.Timeout) * time.Millisecond
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// SessionConfig bounds the lifetime of session-scoped state. Lead drafts
// share this lifetime; nothing here survives a fresh session.
type SessionConfig struct {
	TTLMinutes int `mapstructure:"ttl_minutes"`
}

func (s SessionConfig) TTL() time.Duration {
	if s.TTLMinutes <= 0 {
		return 8 * time.Hour
	}
	return time.Duration(s.TTLMinutes) * time.Minute
}

// AuthConfig holds settings for the OTP login flow.
type AuthConfig struct {
	OTPResendCooldownSeconds int `mapstructure:"otp_resend_cooldown_seconds"`
	OTPLength                int `mapstructure:"otp_length"`
}

func (a AuthConfig) ResendCooldown() time.Duration {
	if a.OTPResendCooldownSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(a.OTPResendCooldownSeconds) * time.Second
}

// TracingConfig holds settings for the optional Jaeger trace exporter.
type TracingConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func validateConfig(cfg *Config) error {
	if cfg.Backend.BaseURL == "" {
		return fmt.Errorf("backend.base_url is required")
	}
	if cfg.Redis.Address == "" {
		return fmt.Errorf("redis.address is required")
	}
	if cfg.Auth.OTPLength != 0 && cfg.Auth.OTPLength != 6 {
		return fmt.Errorf("auth.otp_length must be 6 when set")
	}
	return nil
}
