// Package config resolves the pipeline configuration from a YAML file and
// AUTOCONTROL_* environment overrides.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full runtime configuration of the migration pipeline.
type Config struct {
	Store  StoreConfig  `mapstructure:"store"`
	Remote RemoteConfig `mapstructure:"remote"`
	Backup BackupConfig `mapstructure:"backup"`
	Log    LogConfig    `mapstructure:"log"`

	// GraceDelay is how long the restore point outlives a successful
	// migration before being released.
	GraceDelay time.Duration `mapstructure:"grace_delay"`
}

// StoreConfig selects the on-device key-value store.
type StoreConfig struct {
	Driver string `mapstructure:"driver"` // memory | sqlite
	Path   string `mapstructure:"path"`   // sqlite file path
}

// RemoteConfig selects and parameterizes the remote write destination.
type RemoteConfig struct {
	Driver     string        `mapstructure:"driver"` // http | postgres | memory
	BaseURL    string        `mapstructure:"base_url"`
	Token      string        `mapstructure:"token"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxElapsed time.Duration `mapstructure:"max_elapsed"`
	DSN        string        `mapstructure:"dsn"`
	TenantID   string        `mapstructure:"tenant_id"`
}

// BackupConfig selects the backup export destination.
type BackupConfig struct {
	Driver string   `mapstructure:"driver"` // none | fs | s3 | memory
	Root   string   `mapstructure:"root"`   // fs root directory
	S3     S3Config `mapstructure:"s3"`
}

// S3Config parameterizes the S3 export destination.
type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	PathStyle bool   `mapstructure:"path_style"`
}

// LogConfig controls log verbosity and format.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // trace .. error
	Pretty bool   `mapstructure:"pretty"` // console writer instead of JSON
}

// Load reads configuration from the given file (optional) layered under
// AUTOCONTROL_* environment variables. Nested keys map with underscores,
// e.g. AUTOCONTROL_REMOTE_BASE_URL.
func Load(path string) (*Config, error) {
	v := viper.New()

	// every key needs a default so environment overrides reach Unmarshal
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "autocontrol.db")
	v.SetDefault("remote.driver", "http")
	v.SetDefault("remote.base_url", "")
	v.SetDefault("remote.token", "")
	v.SetDefault("remote.timeout", 15*time.Second)
	v.SetDefault("remote.max_elapsed", 30*time.Second)
	v.SetDefault("remote.dsn", "")
	v.SetDefault("remote.tenant_id", "")
	v.SetDefault("backup.driver", "none")
	v.SetDefault("backup.root", "")
	v.SetDefault("backup.s3.bucket", "")
	v.SetDefault("backup.s3.region", "")
	v.SetDefault("backup.s3.endpoint", "")
	v.SetDefault("backup.s3.access_key", "")
	v.SetDefault("backup.s3.secret_key", "")
	v.SetDefault("backup.s3.path_style", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
	v.SetDefault("grace_delay", 10*time.Minute)

	v.SetEnvPrefix("AUTOCONTROL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Store.Driver {
	case "memory", "sqlite":
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	if c.Store.Driver == "sqlite" && c.Store.Path == "" {
		return fmt.Errorf("store.path required for sqlite driver")
	}

	switch c.Remote.Driver {
	case "memory":
	case "http":
		// base URL is enforced when the writer is constructed
	case "postgres":
		if c.Remote.DSN == "" {
			return fmt.Errorf("remote.dsn required for postgres driver")
		}
		if c.Remote.TenantID == "" {
			return fmt.Errorf("remote.tenant_id required for postgres driver")
		}
	default:
		return fmt.Errorf("unknown remote driver %q", c.Remote.Driver)
	}

	switch c.Backup.Driver {
	case "none", "memory":
	case "fs":
		if c.Backup.Root == "" {
			return fmt.Errorf("backup.root required for fs driver")
		}
	case "s3":
		if c.Backup.S3.Bucket == "" {
			return fmt.Errorf("backup.s3.bucket required for s3 driver")
		}
	default:
		return fmt.Errorf("unknown backup driver %q", c.Backup.Driver)
	}
	return nil
}
