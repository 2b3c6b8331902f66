// Package validate provides shared validation functions.
package validate

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Required validates a value is non-empty after trimming whitespace.
func Required(v string) error {
	if strings.TrimSpace(v) == "" {
		return fmt.Errorf("is required")
	}
	return nil
}

// HTTPURL validates an absolute http or https URL with a host.
func HTTPURL(raw string) error {
	if err := Required(raw); err != nil {
		return err
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("must be an http or https url")
	}
	if u.Host == "" {
		return fmt.Errorf("missing host")
	}
	return nil
}

// Glob validates a doublestar pattern.
func Glob(pattern string) error {
	if !doublestar.ValidatePattern(pattern) {
		return fmt.Errorf("invalid glob %q", pattern)
	}
	return nil
}

// OneOf returns a validator accepting only the listed values.
func OneOf(allowed ...string) func(string) error {
	return func(v string) error {
		for _, a := range allowed {
			if v == a {
				return nil
			}
		}
		return fmt.Errorf("invalid value %q (want %s)", v, strings.Join(allowed, " or "))
	}
}
