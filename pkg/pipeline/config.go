package pipeline

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/bpmnlayout/pkg/cache"
)

// AppName names the configuration and cache directories.
const AppName = "bpmnlayout"

// Config is the content of a configuration file. Layout and output options
// sit at the top level; backends have their own tables:
//
//	orientation = "lr"
//	lanes_as_groups = true
//	formats = ["svg", "png"]
//
//	[cache]
//	backend = "redis"
//	redis_url = "redis://localhost:6379/0"
//	ttl = "24h"
//
//	[server]
//	addr = ":8080"
type Config struct {
	Options
	Cache  CacheConfig  `toml:"cache"`
	Server ServerConfig `toml:"server"`
}

// Cache backends.
const (
	CacheNone  = "none"
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheMongo = "mongo"
)

// CacheConfig selects and configures the layout cache backend.
type CacheConfig struct {
	Backend         string `toml:"backend"` // none, file (default), redis or mongo
	Dir             string `toml:"dir"`
	RedisURL        string `toml:"redis_url"`
	RedisPrefix     string `toml:"redis_prefix"`
	MongoURI        string `toml:"mongo_uri"`
	MongoDatabase   string `toml:"mongo_database"`
	MongoCollection string `toml:"mongo_collection"`
	TTL             string `toml:"ttl"`
}

// ServerConfig configures the HTTP layout service.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// TTLDuration parses TTL, falling back to cache.DefaultTTL when unset.
func (c CacheConfig) TTLDuration() (time.Duration, error) {
	if c.TTL == "" {
		return cache.DefaultTTL, nil
	}
	ttl, err := time.ParseDuration(c.TTL)
	if err != nil {
		return 0, fmt.Errorf("cache ttl: %w", err)
	}
	if ttl < 0 {
		return 0, fmt.Errorf("cache ttl: %s is negative", c.TTL)
	}
	return ttl, nil
}

// Validate checks the backend name.
func (c CacheConfig) Validate() error {
	switch c.Backend {
	case "", CacheNone, CacheFile:
	case CacheRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("cache backend redis requires redis_url")
		}
	case CacheMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("cache backend mongo requires mongo_uri")
		}
	default:
		return fmt.Errorf("invalid cache backend: %q (must be one of: none, file, redis, mongo)", c.Backend)
	}
	_, err := c.TTLDuration()
	return err
}

// DefaultConfigPath returns the config file location following the XDG
// convention (~/.config/bpmnlayout/config.toml).
func DefaultConfigPath() (string, error) {
	if home := os.Getenv("XDG_CONFIG_HOME"); home != "" {
		return filepath.Join(home, AppName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", AppName, "config.toml"), nil
}

// LoadConfig reads a TOML configuration file. An empty path loads the
// default location, where a missing file yields an empty Config. Unknown
// keys are reported as errors so typos do not go unnoticed.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	explicit := path != ""
	if !explicit {
		var err error
		if path, err = DefaultConfigPath(); err != nil {
			return cfg, nil
		}
	}

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return Config{}, nil
		}
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("load config %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.Cache.Validate(); err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}
