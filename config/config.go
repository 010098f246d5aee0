package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type HTTP struct {
	Addr string `yaml:"addr"`
}

type Logging struct {
	Env       string `yaml:"env"`       // dev|prod
	Service   string `yaml:"service"`   // realtime-editor
	Version   string `yaml:"version"`   // v0.1.0
	Backend   string `yaml:"backend"`   // std|zap
	AddSource bool   `yaml:"addSource"` // false|true
	Debug     bool   `yaml:"debug"`     // false|true
}

type Postgres struct {
	DSN string `yaml:"dsn"`
}

type Redis struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type Bolt struct {
	Path string `yaml:"path"`
}

type Storage struct {
	Backend  string   `yaml:"backend"` // postgres|redis|bolt
	Postgres Postgres `yaml:"postgres"`
	Redis    Redis    `yaml:"redis"`
	Bolt     Bolt     `yaml:"bolt"`
}

type Collab struct {
	TextDebounce     string `yaml:"textDebounce"`     // e.g. "1s"
	LanguageDebounce string `yaml:"languageDebounce"` // e.g. "500ms"
}

type ExecutionBackend struct {
	Name    string `yaml:"name"`
	Kind    string `yaml:"kind"` // piston|glot
	URL     string `yaml:"url"`
	Token   string `yaml:"token"`   // glot only
	Version string `yaml:"version"` // piston only, default "*"
	Timeout string `yaml:"timeout"` // e.g. "5s"
}

type Execution struct {
	Backends []ExecutionBackend `yaml:"backends"`
}

type Config struct {
	HTTP      HTTP      `yaml:"http"`
	Logging   Logging   `yaml:"logging"`
	Storage   Storage   `yaml:"storage"`
	Collab    Collab    `yaml:"collab"`
	Execution Execution `yaml:"execution"`
}

func LoadConfig() (*Config, error) {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "./config/config.yaml"
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.HTTP.Addr == "" {
		return errors.New("http.addr is required")
	}
	switch c.Storage.Backend {
	case "postgres":
		if c.Storage.Postgres.DSN == "" {
			return errors.New("storage.postgres.dsn is required")
		}
	case "redis":
		if c.Storage.Redis.Addr == "" {
			return errors.New("storage.redis.addr is required")
		}
	case "bolt", "":
		if c.Storage.Bolt.Path == "" {
			c.Storage.Bolt.Path = "./data/rooms.db"
		}
		c.Storage.Backend = "bolt"
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	for i, b := range c.Execution.Backends {
		if b.URL == "" {
			return fmt.Errorf("execution.backends[%d].url is required", i)
		}
		if b.Kind != "piston" && b.Kind != "glot" {
			return fmt.Errorf("execution.backends[%d]: unknown kind %q", i, b.Kind)
		}
	}
	// defaults when values are not set
	if c.Logging.Service == "" {
		c.Logging.Service = "realtime-editor"
	}
	if c.Logging.Env == "" {
		c.Logging.Env = "dev"
	}
	if c.Logging.Version == "" {
		c.Logging.Version = "v0.1.0"
	}
	if c.Logging.Backend == "" {
		c.Logging.Backend = "std"
	}
	return nil
}

// TextDebounceDuration returns the text debounce window (default 1s).
func (c *Collab) TextDebounceDuration() time.Duration {
	return parseDurationOr(time.Second, c.TextDebounce)
}

// LanguageDebounceDuration returns the language debounce window (default 500ms).
func (c *Collab) LanguageDebounceDuration() time.Duration {
	return parseDurationOr(500*time.Millisecond, c.LanguageDebounce)
}

// helper for parsing timeouts
func parseDurationOr(def time.Duration, s string) time.Duration {
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	return def
}
