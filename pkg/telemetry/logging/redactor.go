package logging

import (
	"log/slog"
	"regexp"
	"strings"
)

// Redactor masks credentials in log fields.
type Redactor struct {
	patterns []*redactPattern
}

// redactPattern contains a compiled regex and replacement string.
type redactPattern struct {
	name        string
	regex       *regexp.Regexp
	replacement string
}

// Built-in pattern names.
const (
	PatternAPIKey      = "api_key"
	PatternBearerToken = "bearer_token"
	PatternPassword    = "password"
)

const redacted = "***"

// NewRedactor creates a Redactor with the built-in patterns.
func NewRedactor() *Redactor {
	return &Redactor{patterns: []*redactPattern{
		// xAI and OpenAI-style keys.
		{PatternAPIKey, regexp.MustCompile(`\b(xai|sk)-[A-Za-z0-9_\-]{8,}`), "$1-***"},
		{PatternBearerToken, regexp.MustCompile(`Bearer\s+[A-Za-z0-9\-._~+/]+=*`), "Bearer ***"},
		{PatternPassword, regexp.MustCompile(`(password|passwd|pwd)[:=]\s*[^\s]+`), "$1: ***"},
	}}
}

// RedactString masks credential-shaped substrings of value.
func (r *Redactor) RedactString(value string) string {
	if value == "" {
		return value
	}
	for _, p := range r.patterns {
		value = p.regex.ReplaceAllString(value, p.replacement)
	}
	return value
}

// RedactAttr masks a. Values under sensitive keys are replaced entirely;
// other string values are scanned for credentials. Groups are walked.
func (r *Redactor) RedactAttr(a slog.Attr) slog.Attr {
	v := a.Value.Resolve()
	switch v.Kind() {
	case slog.KindGroup:
		group := v.Group()
		out := make([]slog.Attr, len(group))
		for i, ga := range group {
			out[i] = r.RedactAttr(ga)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(out...)}
	case slog.KindString:
		if isSensitiveKey(a.Key) && v.String() != "" {
			return slog.String(a.Key, redacted)
		}
		return slog.String(a.Key, r.RedactString(v.String()))
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return slog.String(a.Key, r.RedactString(err.Error()))
		}
	}
	if isSensitiveKey(a.Key) {
		return slog.String(a.Key, redacted)
	}
	return slog.Attr{Key: a.Key, Value: v}
}

// isSensitiveKey checks if a key name indicates a credential. Counters such
// as "tokens" are not sensitive; "token" and "*_token" are.
func isSensitiveKey(key string) bool {
	lowerKey := strings.ToLower(key)

	for _, sensitive := range []string{"password", "passwd", "secret", "api_key", "apikey", "authorization"} {
		if strings.Contains(lowerKey, sensitive) {
			return true
		}
	}

	return lowerKey == "token" || strings.HasSuffix(lowerKey, "_token")
}
