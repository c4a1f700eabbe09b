package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Dump renders the effective config as YAML with credentials masked,
// for display by the config subcommand.
func (c *Config) Dump() (string, error) {
	masked := *c
	if masked.Archive.S3SecretAccessKey != "" {
		masked.Archive.S3SecretAccessKey = "********"
	}

	out, err := yaml.Marshal(&masked)
	if err != nil {
		return "", fmt.Errorf("marshal config: %w", err)
	}
	return string(out), nil
}
