package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	DefaultFolder        string `mapstructure:"default_folder" yaml:"default_folder"`
	DefaultQuality       int    `mapstructure:"default_quality" yaml:"default_quality"`
	BridgePath           string `mapstructure:"bridge_path" yaml:"bridge_path"`
	BridgeTimeoutSeconds int    `mapstructure:"bridge_timeout_seconds" yaml:"bridge_timeout_seconds"`

	LogLevel      string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat     string `mapstructure:"log_format" yaml:"log_format"`
	LogFile       string `mapstructure:"log_file" yaml:"log_file"`
	LogMaxSizeMB  int    `mapstructure:"log_max_size_mb" yaml:"log_max_size_mb"`
	LogMaxBackups int    `mapstructure:"log_max_backups" yaml:"log_max_backups"`

	Transport             string `mapstructure:"transport" yaml:"transport"`
	Listen                string `mapstructure:"listen" yaml:"listen"`
	MaxConcurrentRequests int    `mapstructure:"max_concurrent_requests" yaml:"max_concurrent_requests"`
	RequestQueueSize      int    `mapstructure:"request_queue_size" yaml:"request_queue_size"`

	Archive ArchiveConfig `mapstructure:"archive" yaml:"archive"`
}

// ArchiveConfig controls optional mirroring of saved captures to a
// second destination. Provider "" disables archiving.
type ArchiveConfig struct {
	Provider string `mapstructure:"provider" yaml:"provider"`
	LocalDir string `mapstructure:"local_dir" yaml:"local_dir"`

	S3Bucket          string `mapstructure:"s3_bucket" yaml:"s3_bucket"`
	S3Prefix          string `mapstructure:"s3_prefix" yaml:"s3_prefix"`
	S3Region          string `mapstructure:"s3_region" yaml:"s3_region"`
	S3Endpoint        string `mapstructure:"s3_endpoint" yaml:"s3_endpoint"`
	S3AccessKeyID     string `mapstructure:"s3_access_key_id" yaml:"s3_access_key_id"`
	S3SecretAccessKey string `mapstructure:"s3_secret_access_key" yaml:"s3_secret_access_key"`
}

func Default() *Config {
	return &Config{
		DefaultQuality:        80,
		BridgePath:            "powershell.exe",
		BridgeTimeoutSeconds:  60,
		LogLevel:              "info",
		LogFormat:             "text",
		LogMaxSizeMB:          10,
		LogMaxBackups:         2,
		Transport:             "stdio",
		Listen:                "127.0.0.1:8917",
		MaxConcurrentRequests: 4,
		RequestQueueSize:      16,
	}
}

func Load(cfgFile string) (*Config, error) {
	cfg := Default()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("wslsnapit")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(configDir())
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("WSLSNAPIT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// SaveTo writes the config to cfgFile, or DefaultPath when empty.
func SaveTo(cfg *Config, cfgFile string) error {
	viper.Set("default_folder", cfg.DefaultFolder)
	viper.Set("default_quality", cfg.DefaultQuality)
	viper.Set("bridge_path", cfg.BridgePath)
	viper.Set("bridge_timeout_seconds", cfg.BridgeTimeoutSeconds)
	viper.Set("log_level", cfg.LogLevel)
	viper.Set("log_format", cfg.LogFormat)
	viper.Set("log_file", cfg.LogFile)
	viper.Set("log_max_size_mb", cfg.LogMaxSizeMB)
	viper.Set("log_max_backups", cfg.LogMaxBackups)
	viper.Set("transport", cfg.Transport)
	viper.Set("listen", cfg.Listen)
	viper.Set("max_concurrent_requests", cfg.MaxConcurrentRequests)
	viper.Set("request_queue_size", cfg.RequestQueueSize)
	viper.Set("archive.provider", cfg.Archive.Provider)
	viper.Set("archive.local_dir", cfg.Archive.LocalDir)
	viper.Set("archive.s3_bucket", cfg.Archive.S3Bucket)
	viper.Set("archive.s3_prefix", cfg.Archive.S3Prefix)
	viper.Set("archive.s3_region", cfg.Archive.S3Region)
	viper.Set("archive.s3_endpoint", cfg.Archive.S3Endpoint)
	viper.Set("archive.s3_access_key_id", cfg.Archive.S3AccessKeyID)
	viper.Set("archive.s3_secret_access_key", cfg.Archive.S3SecretAccessKey)

	var cfgPath string
	if cfgFile != "" {
		cfgPath = cfgFile
		dir := filepath.Dir(cfgPath)
		if dir != "." {
			if err := os.MkdirAll(dir, 0700); err != nil {
				return err
			}
		}
	} else {
		cfgPath = DefaultPath()
		if err := os.MkdirAll(configDir(), 0700); err != nil {
			return err
		}
	}

	if err := viper.WriteConfigAs(cfgPath); err != nil {
		return err
	}

	// Restrict config file to owner-only access (may contain S3 credentials)
	return os.Chmod(cfgPath, 0600)
}

// DefaultPath is where Load looks first and where SaveTo writes when no
// file is given.
func DefaultPath() string {
	return filepath.Join(configDir(), "wslsnapit.yaml")
}

func configDir() string {
	if base, err := os.UserConfigDir(); err == nil {
		return filepath.Join(base, "wslsnapit")
	}
	return "/etc/wslsnapit"
}
