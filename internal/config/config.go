package config

import (
	"bytes"
	"fmt"
	"os"
	"time"

	yaml "go.yaml.in/yaml/v3"
)

// Config is the full application configuration, loaded from YAML with
// environment-variable overrides for secrets.
type Config struct {
	Port     string `yaml:"port"`
	DBPath   string `yaml:"db_path"`
	LogLevel string `yaml:"log_level"`

	Scheduler SchedulerConfig `yaml:"scheduler"`
	Push      PushConfig      `yaml:"push"`
	Backup    BackupConfig    `yaml:"backup"`
}

type SchedulerConfig struct {
	// Interval between orchestrator passes; also the width of the first
	// window after a cold start.
	Interval Duration `yaml:"interval"`
	// DispatchInterval is the outbox drain cadence.
	DispatchInterval Duration `yaml:"dispatch_interval"`
	// OverdueHour is the local hour of the daily overdue summary.
	OverdueHour int `yaml:"overdue_hour"`
}

type PushConfig struct {
	VAPIDPublicKey  string `yaml:"vapid_public_key"`
	VAPIDPrivateKey string `yaml:"vapid_private_key"`
	Subscriber      string `yaml:"subscriber"`
}

type BackupConfig struct {
	Endpoint  string   `yaml:"endpoint"`
	Bucket    string   `yaml:"bucket"`
	Region    string   `yaml:"region"`
	AccessKey string   `yaml:"access_key"`
	SecretKey string   `yaml:"secret_key"`
	Interval  Duration `yaml:"interval"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Port:     "8080",
		DBPath:   "taskman.db",
		LogLevel: "info",
		Scheduler: SchedulerConfig{
			Interval:         Duration(time.Minute),
			DispatchInterval: Duration(2 * time.Second),
			OverdueHour:      19,
		},
		Backup: BackupConfig{
			Interval: Duration(24 * time.Hour),
		},
	}
}

// Load reads the config file at path, applying defaults for unset fields
// and environment overrides for secrets. A missing file (empty path or
// not found) yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, fmt.Errorf("read config: %w", err)
			}
		} else {
			dec := yaml.NewDecoder(bytes.NewReader(data))
			dec.KnownFields(true)
			if err := dec.Decode(&cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	applyEnv(&cfg)

	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("TASKMAN_PORT"); v != "" {
		cfg.Port = v
	}
	if v := os.Getenv("TASKMAN_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("TASKMAN_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("TASKMAN_VAPID_PUBLIC_KEY"); v != "" {
		cfg.Push.VAPIDPublicKey = v
	}
	if v := os.Getenv("TASKMAN_VAPID_PRIVATE_KEY"); v != "" {
		cfg.Push.VAPIDPrivateKey = v
	}
	if v := os.Getenv("TASKMAN_S3_ACCESS_KEY"); v != "" {
		cfg.Backup.AccessKey = v
	}
	if v := os.Getenv("TASKMAN_S3_SECRET_KEY"); v != "" {
		cfg.Backup.SecretKey = v
	}
}

func (c Config) validate() error {
	if c.Scheduler.Interval <= 0 {
		return fmt.Errorf("scheduler interval must be positive")
	}
	if c.Scheduler.DispatchInterval <= 0 {
		return fmt.Errorf("dispatch interval must be positive")
	}
	if c.Scheduler.OverdueHour < 0 || c.Scheduler.OverdueHour > 23 {
		return fmt.Errorf("overdue hour out of range: %d", c.Scheduler.OverdueHour)
	}
	return nil
}
