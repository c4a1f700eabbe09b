package config

import (
	"fmt"
	"log/slog"
	"net"
	"strings"
	"unicode"
)

var validLogLevels = map[string]bool{
	"debug":   true,
	"info":    true,
	"warn":    true,
	"warning": true,
	"error":   true,
}

var validArchiveProviders = map[string]bool{
	"":      true,
	"none":  true,
	"local": true,
	"s3":    true,
}

// ValidationResult separates errors that must stop startup from ones
// that were auto-corrected or are merely suspicious.
type ValidationResult struct {
	Fatals   []error
	Warnings []error
}

func (r *ValidationResult) HasFatals() bool {
	return len(r.Fatals) > 0
}

func (r *ValidationResult) AllErrors() []error {
	all := make([]error, 0, len(r.Fatals)+len(r.Warnings))
	all = append(all, r.Fatals...)
	all = append(all, r.Warnings...)
	return all
}

// ValidateTiered checks the config. Values that would break request
// handling are clamped to safe defaults and reported as warnings;
// contradictions the process cannot run with are fatal.
func (c *Config) ValidateTiered() ValidationResult {
	var r ValidationResult

	if c.DefaultQuality < 1 {
		r.Warnings = append(r.Warnings, fmt.Errorf("default_quality %d is below minimum 1, clamping", c.DefaultQuality))
		c.DefaultQuality = 1
	} else if c.DefaultQuality > 100 {
		r.Warnings = append(r.Warnings, fmt.Errorf("default_quality %d exceeds maximum 100, clamping", c.DefaultQuality))
		c.DefaultQuality = 100
	}

	if c.BridgePath == "" {
		r.Warnings = append(r.Warnings, fmt.Errorf("bridge_path is empty, restoring default"))
		c.BridgePath = "powershell.exe"
	}

	if c.BridgeTimeoutSeconds < 5 {
		r.Warnings = append(r.Warnings, fmt.Errorf("bridge_timeout_seconds %d is below minimum 5, clamping", c.BridgeTimeoutSeconds))
		c.BridgeTimeoutSeconds = 5
	} else if c.BridgeTimeoutSeconds > 600 {
		r.Warnings = append(r.Warnings, fmt.Errorf("bridge_timeout_seconds %d exceeds maximum 600, clamping", c.BridgeTimeoutSeconds))
		c.BridgeTimeoutSeconds = 600
	}

	if c.LogLevel != "" && !validLogLevels[strings.ToLower(c.LogLevel)] {
		r.Warnings = append(r.Warnings, fmt.Errorf("log_level %q is not valid (use debug, info, warn, error)", c.LogLevel))
	}

	if c.LogFormat != "" && c.LogFormat != "text" && c.LogFormat != "json" {
		r.Warnings = append(r.Warnings, fmt.Errorf("log_format %q is not valid (use text or json)", c.LogFormat))
	}

	if c.Transport != "stdio" && c.Transport != "ws" {
		r.Warnings = append(r.Warnings, fmt.Errorf("transport %q is not valid (use stdio or ws), restoring default", c.Transport))
		c.Transport = "stdio"
	}

	if c.Transport == "ws" {
		if _, _, err := net.SplitHostPort(c.Listen); err != nil {
			r.Fatals = append(r.Fatals, fmt.Errorf("listen %q is not a valid host:port: %w", c.Listen, err))
		}
	}

	// Clamp concurrency settings to safe range
	if c.MaxConcurrentRequests < 1 {
		r.Warnings = append(r.Warnings, fmt.Errorf("max_concurrent_requests %d is below minimum 1, clamping", c.MaxConcurrentRequests))
		c.MaxConcurrentRequests = 1
	} else if c.MaxConcurrentRequests > 100 {
		r.Warnings = append(r.Warnings, fmt.Errorf("max_concurrent_requests %d exceeds maximum 100, clamping", c.MaxConcurrentRequests))
		c.MaxConcurrentRequests = 100
	}

	if c.RequestQueueSize < 1 {
		r.Warnings = append(r.Warnings, fmt.Errorf("request_queue_size %d is below minimum 1, clamping", c.RequestQueueSize))
		c.RequestQueueSize = 1
	} else if c.RequestQueueSize > 10000 {
		r.Warnings = append(r.Warnings, fmt.Errorf("request_queue_size %d exceeds maximum 10000, clamping", c.RequestQueueSize))
		c.RequestQueueSize = 10000
	}

	if !validArchiveProviders[c.Archive.Provider] {
		r.Warnings = append(r.Warnings, fmt.Errorf("archive.provider %q is not valid (use local or s3), disabling archive", c.Archive.Provider))
		c.Archive.Provider = ""
	}
	if c.Archive.Provider == "local" && c.Archive.LocalDir == "" {
		r.Warnings = append(r.Warnings, fmt.Errorf("archive.provider is local but archive.local_dir is empty, disabling archive"))
		c.Archive.Provider = ""
	}
	if c.Archive.Provider == "s3" && c.Archive.S3Bucket == "" {
		r.Warnings = append(r.Warnings, fmt.Errorf("archive.provider is s3 but archive.s3_bucket is empty, disabling archive"))
		c.Archive.Provider = ""
	}
	for _, cred := range []struct{ name, value string }{
		{"archive.s3_access_key_id", c.Archive.S3AccessKeyID},
		{"archive.s3_secret_access_key", c.Archive.S3SecretAccessKey},
	} {
		for _, ch := range cred.value {
			if unicode.IsControl(ch) {
				r.Fatals = append(r.Fatals, fmt.Errorf("%s contains control characters", cred.name))
				break
			}
		}
	}

	for _, err := range r.Warnings {
		slog.Warn("config validation", "error", err)
	}

	return r
}

// Validate runs ValidateTiered and flattens the result. Kept for callers
// that only need the error list.
func (c *Config) Validate() []error {
	r := c.ValidateTiered()
	return r.AllErrors()
}
