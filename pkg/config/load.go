package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// LoadOptions controls where Load reads configuration from.
type LoadOptions struct {
	// Path is the YAML file to read. Empty skips the file.
	Path string

	// Optional makes a missing Path acceptable. Used for the default
	// config.yaml so the service runs from environment alone.
	Optional bool

	// EnvFile is a dotenv file loaded before environment overrides are
	// applied. Variables already present in the process environment win.
	// A missing file is ignored. Empty skips it.
	EnvFile string
}

// Load builds the process configuration.
//
// The loading sequence is:
//  1. Start from Default()
//  2. Overlay the YAML file, if any
//  3. Load the dotenv file into the process environment
//  4. Apply environment variable overrides
//  5. Validate
func Load(opts LoadOptions) (*Config, error) {
	cfg := Default()

	if opts.Path != "" {
		if err := loadFile(cfg, opts.Path); err != nil {
			if !(opts.Optional && errors.Is(err, fs.ErrNotExist)) {
				return nil, err
			}
		}
	}

	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file %q: %w", opts.EnvFile, err)
		}
	}

	envErrs := applyEnvOverrides(cfg, os.Getenv)

	ApplyDefaults(cfg)

	if err := validate(cfg, envErrs); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFile overlays the YAML document at path onto cfg.
func loadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to the
// configuration. Unparseable values are reported as field errors rather
// than silently dropped.
func applyEnvOverrides(cfg *Config, getenv func(string) string) []FieldError {
	var errs []FieldError

	// Upstream overrides
	if val := getenv("GROK_API_KEY"); val != "" {
		cfg.Upstream.APIKey = val
	}
	if val := getenv("GROK_MODEL"); val != "" {
		cfg.Upstream.Model = val
	}
	if val := getenv("GROK_BASE_URL"); val != "" {
		cfg.Upstream.BaseURL = val
	}
	if val := getenv("GROK_BACKEND"); val != "" {
		cfg.Upstream.Backend = strings.ToLower(val)
	}
	if val := getenv("GROK_TIMEOUT"); val != "" {
		if d, err := parseSeconds(val); err == nil {
			cfg.Upstream.Timeout = d
		} else {
			errs = append(errs, FieldError{Field: "GROK_TIMEOUT", Message: err.Error()})
		}
	}
	if val := getenv("GROK_MAX_RETRIES"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Upstream.MaxRetries = i
		} else {
			errs = append(errs, FieldError{Field: "GROK_MAX_RETRIES", Message: "must be an integer"})
		}
	}
	if val := getenv("SYSTEM_PROMPT"); val != "" {
		cfg.Upstream.SystemPrompt = val
	}

	// Server overrides
	if val := getenv("HOST"); val != "" {
		cfg.Server.Host = val
	}
	if val := getenv("PORT"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Server.Port = i
		} else {
			errs = append(errs, FieldError{Field: "PORT", Message: "must be an integer"})
		}
	}
	if val := getenv("ALLOWED_ORIGINS"); val != "" {
		cfg.Server.CORS.AllowedOrigins = splitList(val)
	}

	// Telemetry overrides
	if val := getenv("LOG_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := getenv("LOG_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	if val := getenv("GROKGATE_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Metrics.Enabled = b
		} else {
			errs = append(errs, FieldError{Field: "GROKGATE_METRICS_ENABLED", Message: "must be a boolean"})
		}
	}
	if val := getenv("GROKGATE_TRACING_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Tracing.Enabled = b
		} else {
			errs = append(errs, FieldError{Field: "GROKGATE_TRACING_ENABLED", Message: "must be a boolean"})
		}
	}
	if val := getenv("GROKGATE_TRACING_ENDPOINT"); val != "" {
		cfg.Telemetry.Tracing.Endpoint = val
	}

	// Evidence overrides
	if val := getenv("GROKGATE_EVIDENCE_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Evidence.Enabled = b
		} else {
			errs = append(errs, FieldError{Field: "GROKGATE_EVIDENCE_ENABLED", Message: "must be a boolean"})
		}
	}
	if val := getenv("GROKGATE_EVIDENCE_SQLITE_PATH"); val != "" {
		cfg.Evidence.SQLite.Path = val
	}

	return errs
}

// parseSeconds accepts either a Go duration ("90s", "2m") or a bare number
// of seconds ("60", "1.5").
func parseSeconds(val string) (time.Duration, error) {
	if d, err := time.ParseDuration(val); err == nil {
		return d, nil
	}
	secs, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", val)
	}
	return time.Duration(secs * float64(time.Second)), nil
}

func splitList(val string) []string {
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
