package config

import (
	"errors"
	"time"
)

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`
	LogFormat         string        `mapstructure:"log_format" yaml:"log_format"`
	DatabasePath      string        `mapstructure:"database_path" yaml:"database_path"`

	// WSRateLimit caps inbound game messages per connection per minute; 0 disables it.
	WSRateLimit    int      `mapstructure:"ws_rate_limit" yaml:"ws_rate_limit"`
	WSSendBuffer   int      `mapstructure:"ws_send_buffer" yaml:"ws_send_buffer"`
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`

	Auth  AuthConfig  `mapstructure:"auth" yaml:"auth"`
	Video VideoConfig `mapstructure:"video" yaml:"video"`
}

// AuthConfig configures therapist authentication.
type AuthConfig struct {
	JWTSecret   string        `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	JWTIssuer   string        `mapstructure:"jwt_issuer" yaml:"jwt_issuer"`
	JWTAudience string        `mapstructure:"jwt_audience" yaml:"jwt_audience"`
	TokenTTL    time.Duration `mapstructure:"token_ttl" yaml:"token_ttl"`
	// DevMode authenticates every request as the demo therapist.
	DevMode bool `mapstructure:"dev_mode" yaml:"dev_mode"`
}

// VideoConfig configures the LiveKit video-call backend.
type VideoConfig struct {
	Enabled   bool          `mapstructure:"enabled" yaml:"enabled"`
	APIKey    string        `mapstructure:"api_key" yaml:"api_key"`
	APISecret string        `mapstructure:"api_secret" yaml:"api_secret"`
	URL       string        `mapstructure:"url" yaml:"url"`
	TokenTTL  time.Duration `mapstructure:"token_ttl" yaml:"token_ttl"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":5000",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		LogLevel:          "info",
		LogFormat:         "console",
		DatabasePath:      "speechroom.db",
		WSRateLimit:       600,
		WSSendBuffer:      16,
		AllowedOrigins:    []string{"*"},
		Auth: AuthConfig{
			JWTSecret:   "change-me",
			JWTIssuer:   "speechroom",
			JWTAudience: "speechroom-dashboard",
			TokenTTL:    24 * time.Hour,
			DevMode:     true,
		},
		Video: VideoConfig{
			URL:      "ws://localhost:7880",
			TokenTTL: time.Hour,
		},
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.LogFormat != "" {
		c.LogFormat = other.LogFormat
	}
	if other.DatabasePath != "" {
		c.DatabasePath = other.DatabasePath
	}
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, errors.New("addr is required"))
	}
	if c.DatabasePath == "" {
		errs = append(errs, errors.New("database_path is required"))
	}
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwt_secret is required"))
	}
	if c.WSRateLimit < 0 {
		errs = append(errs, errors.New("ws_rate_limit must not be negative"))
	}
	if c.Video.Enabled && (c.Video.APIKey == "" || c.Video.APISecret == "" || c.Video.URL == "") {
		errs = append(errs, errors.New("video.api_key, video.api_secret and video.url are required when video is enabled"))
	}
	return errors.Join(errs...)
}
