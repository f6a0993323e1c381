package config

import "time"

// Default values for configuration fields.
const (
	// Server defaults
	DefaultHost            = "0.0.0.0"
	DefaultPort            = 8000
	DefaultReadTimeout     = 30 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultMaxHeaderBytes  = 1048576 // 1MB
	DefaultAllowedOrigin   = "http://localhost:5173"
	DefaultCORSMaxAge      = 600

	// Upstream defaults
	DefaultBackend          = BackendXAI
	DefaultBaseURL          = "https://api.x.ai/v1"
	DefaultModel            = "grok-2-latest"
	DefaultUpstreamTimeout  = 60 * time.Second
	DefaultRetryBackoff     = 500 * time.Millisecond
	DefaultPlaceholderDelay = 100 * time.Millisecond

	// Evidence defaults
	DefaultEvidenceBackend       = "sqlite"
	DefaultEvidenceSQLitePath    = "data/evidence.db"
	DefaultEvidenceMaxOpenConns  = 10
	DefaultEvidenceBusyTimeout   = 5 * time.Second
	DefaultEvidenceAsyncBuffer   = 1000
	DefaultEvidenceWriteTimeout  = 5 * time.Second
	DefaultEvidenceRetentionDays = 30
	DefaultEvidencePruneSchedule = "0 3 * * *"

	// Telemetry defaults
	DefaultLogLevel           = "info"
	DefaultLogFormat          = "json"
	DefaultMetricsPath        = "/metrics"
	DefaultMetricsNamespace   = "grokgate"
	DefaultTracingEndpoint    = "localhost:4317"
	DefaultTracingSampleRatio = 1.0
	DefaultTracingServiceName = "grokgate"
)

// Default returns a configuration populated with every default value.
// Loading starts from this value so that booleans and ratios explicitly set
// to false or zero in a file survive.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            DefaultHost,
			Port:            DefaultPort,
			ReadTimeout:     DefaultReadTimeout,
			IdleTimeout:     DefaultIdleTimeout,
			ShutdownTimeout: DefaultShutdownTimeout,
			MaxHeaderBytes:  DefaultMaxHeaderBytes,
			CORS: CORSConfig{
				AllowedOrigins: []string{DefaultAllowedOrigin},
				MaxAge:         DefaultCORSMaxAge,
			},
		},
		Upstream: UpstreamConfig{
			Backend:          DefaultBackend,
			BaseURL:          DefaultBaseURL,
			Model:            DefaultModel,
			Timeout:          DefaultUpstreamTimeout,
			RetryBackoff:     DefaultRetryBackoff,
			PlaceholderDelay: DefaultPlaceholderDelay,
		},
		Evidence: EvidenceConfig{
			Backend: DefaultEvidenceBackend,
			SQLite: SQLiteConfig{
				Path:         DefaultEvidenceSQLitePath,
				MaxOpenConns: DefaultEvidenceMaxOpenConns,
				BusyTimeout:  DefaultEvidenceBusyTimeout,
			},
			AsyncBuffer:  DefaultEvidenceAsyncBuffer,
			WriteTimeout: DefaultEvidenceWriteTimeout,
			Retention: RetentionConfig{
				Days:          DefaultEvidenceRetentionDays,
				PruneSchedule: DefaultEvidencePruneSchedule,
			},
		},
		Telemetry: TelemetryConfig{
			Logging: LoggingConfig{
				Level:  DefaultLogLevel,
				Format: DefaultLogFormat,
				Redact: true,
			},
			Metrics: MetricsConfig{
				Enabled:   true,
				Path:      DefaultMetricsPath,
				Namespace: DefaultMetricsNamespace,
			},
			Tracing: TracingConfig{
				Endpoint:    DefaultTracingEndpoint,
				SampleRatio: DefaultTracingSampleRatio,
				ServiceName: DefaultTracingServiceName,
			},
		},
	}
}

// ApplyDefaults fills zero-valued fields of a programmatically built
// configuration. Booleans are left untouched.
func ApplyDefaults(cfg *Config) {
	// Server defaults
	if cfg.Server.Host == "" {
		cfg.Server.Host = DefaultHost
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultPort
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Server.MaxHeaderBytes == 0 {
		cfg.Server.MaxHeaderBytes = DefaultMaxHeaderBytes
	}
	if cfg.Server.CORS.MaxAge == 0 {
		cfg.Server.CORS.MaxAge = DefaultCORSMaxAge
	}

	// Upstream defaults
	if cfg.Upstream.Backend == "" {
		cfg.Upstream.Backend = DefaultBackend
	}
	if cfg.Upstream.BaseURL == "" {
		cfg.Upstream.BaseURL = DefaultBaseURL
	}
	if cfg.Upstream.Model == "" {
		cfg.Upstream.Model = DefaultModel
	}
	if cfg.Upstream.Timeout == 0 {
		cfg.Upstream.Timeout = DefaultUpstreamTimeout
	}
	if cfg.Upstream.RetryBackoff == 0 {
		cfg.Upstream.RetryBackoff = DefaultRetryBackoff
	}
	if cfg.Upstream.PlaceholderDelay == 0 {
		cfg.Upstream.PlaceholderDelay = DefaultPlaceholderDelay
	}

	// Evidence defaults
	if cfg.Evidence.Backend == "" {
		cfg.Evidence.Backend = DefaultEvidenceBackend
	}
	if cfg.Evidence.SQLite.Path == "" {
		cfg.Evidence.SQLite.Path = DefaultEvidenceSQLitePath
	}
	if cfg.Evidence.SQLite.MaxOpenConns == 0 {
		cfg.Evidence.SQLite.MaxOpenConns = DefaultEvidenceMaxOpenConns
	}
	if cfg.Evidence.SQLite.BusyTimeout == 0 {
		cfg.Evidence.SQLite.BusyTimeout = DefaultEvidenceBusyTimeout
	}
	if cfg.Evidence.AsyncBuffer == 0 {
		cfg.Evidence.AsyncBuffer = DefaultEvidenceAsyncBuffer
	}
	if cfg.Evidence.WriteTimeout == 0 {
		cfg.Evidence.WriteTimeout = DefaultEvidenceWriteTimeout
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLogLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLogFormat
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Telemetry.Tracing.Endpoint == "" {
		cfg.Telemetry.Tracing.Endpoint = DefaultTracingEndpoint
	}
	if cfg.Telemetry.Tracing.ServiceName == "" {
		cfg.Telemetry.Tracing.ServiceName = DefaultTracingServiceName
	}
}
