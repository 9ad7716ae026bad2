// Package config loads the application configuration from an optional YAML
// file with environment-variable overrides. Secrets are expected to come
// from the environment, never from the file.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// Duration parses "24h"-style strings from YAML.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw string
	if err := unmarshal(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

type Config struct {
	Server struct {
		Host  string `yaml:"host"`
		Port  string `yaml:"port"`
		Debug bool   `yaml:"debug"`
	} `yaml:"server"`

	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`

	S3 struct {
		Bucket       string `yaml:"bucket"`
		Region       string `yaml:"region"`
		AccessKey    string `yaml:"access_key"`
		SecretKey    string `yaml:"secret_key"`
		Endpoint     string `yaml:"endpoint"`
		UsePathStyle bool   `yaml:"use_path_style"`
	} `yaml:"s3"`

	Session struct {
		Secret string   `yaml:"secret"`
		TTL    Duration `yaml:"ttl"`
	} `yaml:"session"`

	Storage struct {
		// RequireOwner controls whether the raw blob route checks that the
		// session owns the path's user segment. Off reproduces the
		// key-unguessability-only behavior.
		RequireOwner *bool `yaml:"require_owner"`
	} `yaml:"storage"`

	Sweeper struct {
		// PendingTTL is how long an unconfirmed record may live; zero
		// disables the sweep entirely.
		PendingTTL Duration `yaml:"pending_ttl"`
		Interval   Duration `yaml:"interval"`
	} `yaml:"sweeper"`

	Web struct {
		TemplateGlob string `yaml:"template_glob"`
		StaticPath   string `yaml:"static_path"`
	} `yaml:"web"`
}

// Load reads the YAML file named by CONFIG_PATH (default config.yaml) if it
// exists, then applies environment overrides and validates.
func Load() (*Config, error) {
	config := defaultConfig()

	configPath := "config.yaml"
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		configPath = envPath
	}

	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", configPath, err)
		}
	}

	applyEnv(config)

	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func defaultConfig() *Config {
	config := &Config{}
	config.Server.Host = "0.0.0.0"
	config.Server.Port = "8080"
	config.Database.Path = "./filebin.db"
	config.S3.Region = "us-east-1"
	config.Session.TTL = Duration(30 * 24 * time.Hour)
	config.Sweeper.PendingTTL = Duration(24 * time.Hour)
	config.Sweeper.Interval = Duration(time.Hour)
	config.Web.TemplateGlob = "./web/templates/*.html"
	config.Web.StaticPath = "./web/static"
	return config
}

func applyEnv(config *Config) {
	envOverrides := map[string]*string{
		"PORT":              &config.Server.Port,
		"DATABASE_PATH":     &config.Database.Path,
		"AWS_BUCKET_NAME":   &config.S3.Bucket,
		"AWS_BUCKET_REGION": &config.S3.Region,
		"AWS_ACCESS_KEY":    &config.S3.AccessKey,
		"AWS_SECRET_KEY":    &config.S3.SecretKey,
		"AWS_ENDPOINT":      &config.S3.Endpoint,
		"JWT_SECRET":        &config.Session.Secret,
	}
	for name, target := range envOverrides {
		if value := os.Getenv(name); value != "" {
			*target = value
		}
	}
}

func (c *Config) validate() error {
	if c.Session.Secret == "" {
		return errors.New("session secret must be set via JWT_SECRET or the config file")
	}
	if c.S3.Bucket == "" {
		return errors.New("bucket must be set via AWS_BUCKET_NAME or the config file")
	}
	return nil
}

// StorageRequireOwner reports the raw-route ownership policy; enforcing is
// the default when the file does not say otherwise.
func (c *Config) StorageRequireOwner() bool {
	if c.Storage.RequireOwner == nil {
		return true
	}
	return *c.Storage.RequireOwner
}
