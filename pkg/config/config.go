package config

import (
	"net"
	"strconv"
	"strings"
	"time"
)

// Config is the root configuration structure for grokgate.
// A Config is built once at process start and treated as read-only afterwards;
// components receive the sections they need explicitly.
type Config struct {
	// Server contains HTTP listener configuration including address, timeouts
	// and CORS.
	Server ServerConfig `yaml:"server"`

	// Upstream configures the completion source that tokens are relayed from.
	Upstream UpstreamConfig `yaml:"upstream"`

	// Evidence configures the per-relay audit trail.
	Evidence EvidenceConfig `yaml:"evidence"`

	// Telemetry contains configuration for logging, metrics and tracing.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig contains configuration for the HTTP server.
type ServerConfig struct {
	// Host is the interface to bind.
	// Default: "0.0.0.0"
	Host string `yaml:"host"`

	// Port is the TCP port to listen on.
	// Default: 8000
	Port int `yaml:"port"`

	// ReadTimeout is the maximum duration for reading the entire request,
	// including the body.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout bounds the whole response write. Streamed replies are
	// bounded by the upstream timeout, so this must be larger than
	// upstream.timeout; zero disables it.
	// Default: 0 (disabled)
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the keep-alive idle timeout.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout is the maximum duration to wait for in-flight relays
	// during graceful shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxHeaderBytes limits request header size.
	// Default: 1048576 (1MB)
	MaxHeaderBytes int `yaml:"max_header_bytes"`

	// CORS contains Cross-Origin Resource Sharing configuration.
	CORS CORSConfig `yaml:"cors"`
}

// ListenAddress returns the host:port pair the server binds to.
func (s ServerConfig) ListenAddress() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// CORSConfig contains Cross-Origin Resource Sharing configuration.
// Credentials are always allowed for the configured origins.
type CORSConfig struct {
	// AllowedOrigins lists the origins allowed to call the API. "*" allows
	// any origin. An empty list disables CORS handling.
	// Default: ["http://localhost:5173"]
	AllowedOrigins []string `yaml:"allowed_origins"`

	// MaxAge is how long, in seconds, preflight results may be cached.
	// Default: 600
	MaxAge int `yaml:"max_age"`
}

// Upstream backends.
const (
	BackendXAI         = "xai"
	BackendPlaceholder = "placeholder"
)

// UpstreamConfig configures the completion source.
type UpstreamConfig struct {
	// Backend selects the completion source: "xai" or "placeholder".
	// Default: "xai"
	Backend string `yaml:"backend"`

	// APIKey is the xAI credential. It is optional at load time; requests
	// are refused with a configuration error while it is empty.
	// Env: GROK_API_KEY
	APIKey string `yaml:"api_key"`

	// BaseURL is the OpenAI-compatible endpoint root.
	// Default: "https://api.x.ai/v1"
	BaseURL string `yaml:"base_url"`

	// Model is the model identifier sent upstream.
	// Default: "grok-2-latest"
	Model string `yaml:"model"`

	// Timeout bounds one upstream call from open to the last token.
	// Default: 60s
	Timeout time.Duration `yaml:"timeout"`

	// MaxRetries is the number of times opening the stream is retried on
	// retryable failures. Tokens are never retried.
	// Default: 0
	MaxRetries int `yaml:"max_retries"`

	// RetryBackoff is the base delay between open attempts; attempt n waits
	// n*RetryBackoff.
	// Default: 500ms
	RetryBackoff time.Duration `yaml:"retry_backoff"`

	// SystemPrompt, when set, is sent ahead of every conversation.
	SystemPrompt string `yaml:"system_prompt"`

	// PlaceholderDelay is the pause between words of the placeholder backend.
	// Default: 100ms
	PlaceholderDelay time.Duration `yaml:"placeholder_delay"`
}

// RequiresAPIKey reports whether the configured backend talks to xAI.
func (u UpstreamConfig) RequiresAPIKey() bool {
	return u.Backend == BackendXAI
}

// HasAPIKey reports whether a non-blank credential is configured.
func (u UpstreamConfig) HasAPIKey() bool {
	return strings.TrimSpace(u.APIKey) != ""
}

// EvidenceConfig configures the relay audit trail. Records never contain
// message content.
type EvidenceConfig struct {
	// Enabled turns evidence recording on.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Backend is "sqlite" or "memory".
	// Default: "sqlite"
	Backend string `yaml:"backend"`

	// SQLite contains SQLite backend settings.
	SQLite SQLiteConfig `yaml:"sqlite"`

	// AsyncBuffer is the recorder channel capacity.
	// Default: 1000
	AsyncBuffer int `yaml:"async_buffer"`

	// WriteTimeout bounds a single storage write.
	// Default: 5s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// Retention configures pruning.
	Retention RetentionConfig `yaml:"retention"`
}

// SQLiteConfig contains SQLite settings.
type SQLiteConfig struct {
	// Path is the database file path.
	// Default: "data/evidence.db"
	Path string `yaml:"path"`

	// MaxOpenConns is the connection pool size.
	// Default: 10
	MaxOpenConns int `yaml:"max_open_conns"`

	// BusyTimeout is how long a writer waits on a locked database.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// RetentionConfig configures evidence pruning.
type RetentionConfig struct {
	// Days is how long records are kept. 0 keeps them forever.
	// Default: 30
	Days int `yaml:"days"`

	// MaxRecords caps the number of stored records. 0 means unlimited.
	MaxRecords int64 `yaml:"max_records"`

	// PruneSchedule is a standard 5-field cron expression. Empty disables
	// scheduled pruning.
	// Default: "0 3 * * *"
	PruneSchedule string `yaml:"prune_schedule"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error (case-insensitive).
	// Default: "info"
	Level string `yaml:"level"`

	// Format is "json" or "text".
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file:line in log records.
	AddSource bool `yaml:"add_source"`

	// Redact masks credentials in log output.
	// Default: true
	Redact bool `yaml:"redact"`
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	// Enabled exposes relay metrics.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path of the exposition endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace prefixes every metric name.
	// Default: "grokgate"
	Namespace string `yaml:"namespace"`
}

// TracingConfig configures OpenTelemetry tracing.
type TracingConfig struct {
	// Enabled turns on span export.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Endpoint is the OTLP gRPC collector address.
	// Default: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// Insecure disables TLS to the collector.
	Insecure bool `yaml:"insecure"`

	// SampleRatio is the fraction of root spans sampled, 0 to 1.
	// Default: 1.0
	SampleRatio float64 `yaml:"sample_ratio"`

	// ServiceName is reported as service.name.
	// Default: "grokgate"
	ServiceName string `yaml:"service_name"`
}
