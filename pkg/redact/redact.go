package redact

import (
	"regexp"
	"strings"
	"sync/atomic"
)

var enabled atomic.Bool

var (
	emailRe  = regexp.MustCompile(`(?i)[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}`)
	phoneRe  = regexp.MustCompile(`\b\+?\d[\d\s\-]{7,}\d\b`)
	secretRe = regexp.MustCompile(`(?i)\b(apikey|api_key|access_token|token)=([^&\s"']+)`)
)

// SetEnabled toggles PII redaction. Secret redaction is always on.
func SetEnabled(v bool) {
	enabled.Store(v)
}

// Enabled returns true when PII redaction is active.
func Enabled() bool {
	return enabled.Load()
}

// Text redacts credentials, and emails and phone numbers when enabled.
func Text(in string) string {
	if strings.TrimSpace(in) == "" {
		return in
	}
	out := Secrets(in)
	if !enabled.Load() {
		return out
	}
	out = emailRe.ReplaceAllString(out, "[REDACTED_EMAIL]")
	out = phoneRe.ReplaceAllString(out, "[REDACTED_PHONE]")
	return out
}

// Secrets masks credential query parameters such as apikey=... that leak into
// URLs carried by transport errors.
func Secrets(in string) string {
	return secretRe.ReplaceAllString(in, "$1=[REDACTED]")
}
