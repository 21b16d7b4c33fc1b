package configutil

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"
)

// RequirePositive rejects zero or negative counts.
func RequirePositive(value int, path string) error {
	if value <= 0 {
		return fmt.Errorf("%s must be positive, got %d", path, value)
	}
	return nil
}

// RequireDuration rejects zero or negative durations.
func RequireDuration(value time.Duration, path string) error {
	if value <= 0 {
		return fmt.Errorf("%s must be a positive duration, got %s", path, value)
	}
	return nil
}

// RequireOneOf accepts value when it case-insensitively equals one of allowed.
func RequireOneOf(value, path string, allowed ...string) error {
	v := strings.ToLower(strings.TrimSpace(value))
	if slices.Contains(allowed, v) {
		return nil
	}
	return fmt.Errorf("%s must be one of %s, got %q", path, strings.Join(allowed, "|"), value)
}

// RequireHTTPURL ensures value is an absolute http or https URL.
func RequireHTTPURL(value, path string) error {
	if err := RequireString(value, path); err != nil {
		return err
	}
	u, err := url.Parse(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%s must be an http(s) URL, got %q", path, value)
	}
	return nil
}

// RequireString ensures a value is present for a required config field.
func RequireString(value, path string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s is required", path)
	}
	return nil
}
