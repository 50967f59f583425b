// Package config loads the service settings from environment variables,
// applies defaults and validates everything at startup so a bad deployment
// fails before it accepts uploads.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Upload   UploadConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
	Roster   RosterConfig
	Document DocumentConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`
	Port int    `env:"SERVER_PORT" envAlt:"PORT" default:"8080"`

	ReadTimeout  time.Duration `env:"SERVER_READ_TIMEOUT" default:"30s"`
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"60s"`
	IdleTimeout  time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout bounds the wait for in-flight uploads on SIGTERM.
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for a whole request.
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// UploadConfig holds roster upload settings.
type UploadConfig struct {
	// MaxFileSize in bytes (default: 20MB).
	MaxFileSize int64 `env:"UPLOAD_MAX_FILE_SIZE" default:"20971520"`

	// MaxConcurrent uploads processed at once.
	MaxConcurrent int `env:"UPLOAD_MAX_CONCURRENT" default:"4"`

	// MaxWaitTime for a processing slot before the request is rejected.
	MaxWaitTime time.Duration `env:"UPLOAD_MAX_WAIT_TIME" default:"15s"`

	// Timeout for reading and rendering one upload.
	Timeout time.Duration `env:"UPLOAD_TIMEOUT" default:"2m"`

	// ProbeDepth is how many leading rows may hold the header.
	ProbeDepth int `env:"UPLOAD_HEADER_PROBE_ROWS" default:"3"`

	// MaxRows caps the data rows of one roster.
	MaxRows int `env:"UPLOAD_MAX_ROWS" default:"5000"`

	// PreviewRows returned by an inspection.
	PreviewRows int `env:"UPLOAD_PREVIEW_ROWS" default:"5"`
}

// RateLimitConfig holds per-IP rate limiting settings.
type RateLimitConfig struct {
	Enabled           bool `env:"RATE_LIMIT_ENABLED" default:"true"`
	RequestsPerMinute int  `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`

	// UploadLimit is requests per minute for the inspect and generate endpoints.
	UploadLimit int `env:"RATE_LIMIT_UPLOAD" default:"20"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of proxy CIDRs whose
	// forwarding headers are honoured.
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`

	// RequireAPIKey protects /api routes with X-API-Key.
	RequireAPIKey bool     `env:"REQUIRE_API_KEY" default:"false"`
	APIKeys       []string `env:"API_KEYS"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is text or json.
	Format string `env:"LOG_FORMAT" default:"text"`
}

// RosterConfig controls how the college column is found and ordered.
type RosterConfig struct {
	// ProfilePath points at a YAML file with the canonical order and
	// aliases. Empty means the built-in profile.
	ProfilePath string `env:"ROSTER_PROFILE"`

	// CategoryField overrides the profile's column name when set.
	CategoryField string `env:"ROSTER_CATEGORY_FIELD"`

	// Markers are added to the profile's header markers.
	Markers []string `env:"ROSTER_CATEGORY_MARKERS"`
}

// DocumentConfig holds defaults for the generated forms.
type DocumentConfig struct {
	Organization  string `env:"DOC_ORGANIZATION" default:"共青团温州理工学院委员会"`
	BodyFont      string `env:"DOC_BODY_FONT" default:"宋体"`
	TitleFont     string `env:"DOC_TITLE_FONT" default:"黑体"`
	SignatureDate string `env:"DOC_SIGNATURE_DATE" default:"xx年xx月xx日"`

	// DefaultKind is preselected in the upload form.
	DefaultKind string `env:"DOC_DEFAULT_KIND" default:"official"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
