package config

import "time"

// Config holds client and devserver configuration values.
type Config struct {
	APIURL         string        `mapstructure:"api_url" yaml:"api_url"`
	WSURL          string        `mapstructure:"ws_url" yaml:"ws_url"`
	Token          string        `mapstructure:"token" yaml:"token"`
	LogLevel       string        `mapstructure:"log_level" yaml:"log_level"`
	Locale         string        `mapstructure:"locale" yaml:"locale"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
	MaxImageBytes  int64         `mapstructure:"max_image_bytes" yaml:"max_image_bytes"`
	NoticeTTL      time.Duration `mapstructure:"notice_ttl" yaml:"notice_ttl"`

	DevServer DevServerConfig `mapstructure:"devserver" yaml:"devserver"`
}

// DevServerConfig configures the bundled reference messaging service.
type DevServerConfig struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	DatabasePath      string        `mapstructure:"database_path" yaml:"database_path"`
	JWTSecret         string        `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	JWTIssuer         string        `mapstructure:"jwt_issuer" yaml:"jwt_issuer"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	SendRatePerMinute int           `mapstructure:"send_rate_per_minute" yaml:"send_rate_per_minute"`
	RecallWindow      time.Duration `mapstructure:"recall_window" yaml:"recall_window"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		APIURL:         "http://localhost:8080/api",
		WSURL:          "ws://localhost:8080/ws",
		LogLevel:       "info",
		Locale:         "en",
		RequestTimeout: 10 * time.Second,
		MaxImageBytes:  5 << 20,
		NoticeTTL:      3 * time.Second,
		DevServer: DevServerConfig{
			Addr:              ":8080",
			DatabasePath:      "marketchat.db",
			JWTSecret:         "change-me",
			JWTIssuer:         "marketchat",
			ReadHeaderTimeout: 5 * time.Second,
			ShutdownTimeout:   5 * time.Second,
			SendRatePerMinute: 60,
			RecallWindow:      2 * time.Minute,
		},
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.APIURL != "" {
		c.APIURL = other.APIURL
	}
	if other.WSURL != "" {
		c.WSURL = other.WSURL
	}
	if other.Token != "" {
		c.Token = other.Token
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.Locale != "" {
		c.Locale = other.Locale
	}
	if other.RequestTimeout != 0 {
		c.RequestTimeout = other.RequestTimeout
	}
	if other.MaxImageBytes != 0 {
		c.MaxImageBytes = other.MaxImageBytes
	}
	if other.NoticeTTL != 0 {
		c.NoticeTTL = other.NoticeTTL
	}
	if other.DevServer.Addr != "" {
		c.DevServer.Addr = other.DevServer.Addr
	}
	if other.DevServer.DatabasePath != "" {
		c.DevServer.DatabasePath = other.DevServer.DatabasePath
	}
	if other.DevServer.JWTSecret != "" {
		c.DevServer.JWTSecret = other.DevServer.JWTSecret
	}
	if other.DevServer.JWTIssuer != "" {
		c.DevServer.JWTIssuer = other.DevServer.JWTIssuer
	}
	if other.DevServer.ReadHeaderTimeout != 0 {
		c.DevServer.ReadHeaderTimeout = other.DevServer.ReadHeaderTimeout
	}
	if other.DevServer.ShutdownTimeout != 0 {
		c.DevServer.ShutdownTimeout = other.DevServer.ShutdownTimeout
	}
	if other.DevServer.SendRatePerMinute != 0 {
		c.DevServer.SendRatePerMinute = other.DevServer.SendRatePerMinute
	}
	if other.DevServer.RecallWindow != 0 {
		c.DevServer.RecallWindow = other.DevServer.RecallWindow
	}
}
