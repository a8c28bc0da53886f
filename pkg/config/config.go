package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ErrInvalid is returned (wrapped) by Validate.
var ErrInvalid = errors.New("invalid config")

// Config holds the specific configuration for the purifygate instance.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Redis    RedisConfig    `yaml:"redis"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Purifier PurifierConfig `yaml:"purifier"`
	Log      LogConfig      `yaml:"log"`
}

type ServerConfig struct {
	TCPPort  int `yaml:"tcp_port"`
	UDPPort  int `yaml:"udp_port"`
	HTTPPort int `yaml:"http_port"`
}

type RedisConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Address   string `yaml:"address"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	Channel   string `yaml:"channel"`    // PubSub channel name
	ConfigKey string `yaml:"config_key"` // manifest JSON
	WordsKey  string `yaml:"words_key"`  // SET of banned words
}

type PipelineConfig struct {
	BufferSize    uint64        `yaml:"buffer_size"` // power of 2
	BatchSize     int           `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
	BypassRatio   float64       `yaml:"bypass_ratio"` // fail-open above this buffer usage
}

// PurifierConfig describes the banned word sources and the default mask
// used when no manifest is loaded.
type PurifierConfig struct {
	WordsFile  string   `yaml:"words_file"`
	WatchFile  bool     `yaml:"watch_file"`
	Words      []string `yaml:"words"`
	Mask       string   `yaml:"mask"`      // literal mask, wins over MaskChar
	MaskChar   string   `yaml:"mask_char"` // single rune
	MatchSize  bool     `yaml:"match_size"`
	Strategy   string   `yaml:"strategy"` // "rebuild" or "legacy"
	Encoding   string   `yaml:"encoding"` // charset of ingested entries
	CacheSize  int      `yaml:"cache_size"`
	BlockWords []string `yaml:"block_words"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "json" or "console"
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			TCPPort:  8081,
			UDPPort:  8082,
			HTTPPort: 8080,
		},
		Redis: RedisConfig{
			Address:   "localhost:6379",
			Channel:   "purifygate:updates",
			ConfigKey: "purifygate:config",
			WordsKey:  "purifygate:words",
		},
		Pipeline: PipelineConfig{
			BufferSize:    65536,
			BatchSize:     100,
			FlushInterval: 100 * time.Millisecond,
			BypassRatio:   0.80,
		},
		Purifier: PurifierConfig{
			MaskChar:  "*",
			MatchSize: true,
			Strategy:  "rebuild",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load builds the configuration from defaults, the optional YAML file at
// path, a .env file in the working directory (if any) and PURIFYGATE_*
// environment variables, in that order.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "read config %s", path)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrapf(err, "parse config %s", path)
		}
	}

	// Best-effort: load .env from current directory
	_ = godotenv.Load()
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := env("PURIFYGATE_TCP_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Server.TCPPort = n
		}
	}
	if v := env("PURIFYGATE_UDP_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Server.UDPPort = n
		}
	}
	if v := env("PURIFYGATE_HTTP_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Server.HTTPPort = n
		}
	}

	if v := env("PURIFYGATE_REDIS_ADDR"); v != "" {
		c.Redis.Address = v
		c.Redis.Enabled = true
	}
	if v := env("PURIFYGATE_REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := env("PURIFYGATE_REDIS"); v != "" {
		c.Redis.Enabled = truthy(v)
	}

	if v := env("PURIFYGATE_WORDS_FILE"); v != "" {
		c.Purifier.WordsFile = v
	}
	if v := env("PURIFYGATE_WORDS"); v != "" {
		for _, w := range strings.Split(v, ",") {
			if w = strings.TrimSpace(w); w != "" {
				c.Purifier.Words = append(c.Purifier.Words, w)
			}
		}
	}
	if v := env("PURIFYGATE_MASK"); v != "" {
		c.Purifier.Mask = v
	}
	if v := env("PURIFYGATE_STRATEGY"); v != "" {
		c.Purifier.Strategy = v
	}
	if v := env("PURIFYGATE_ENCODING"); v != "" {
		c.Purifier.Encoding = v
	}

	if v := env("PURIFYGATE_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := env("PURIFYGATE_LOG_FORMAT"); v != "" {
		c.Log.Format = v
	}
}

// Validate checks the values that would otherwise fail deep inside the
// pipeline at startup.
func (c *Config) Validate() error {
	size := c.Pipeline.BufferSize
	if size == 0 || size&(size-1) != 0 {
		return errors.Wrapf(ErrInvalid, "pipeline.buffer_size %d is not a power of 2", size)
	}
	if c.Pipeline.BatchSize < 1 {
		return errors.Wrapf(ErrInvalid, "pipeline.batch_size must be positive, got %d", c.Pipeline.BatchSize)
	}
	if c.Pipeline.BypassRatio <= 0 || c.Pipeline.BypassRatio > 1 {
		return errors.Wrapf(ErrInvalid, "pipeline.bypass_ratio must be in (0, 1], got %v", c.Pipeline.BypassRatio)
	}
	if c.Pipeline.FlushInterval <= 0 {
		return errors.Wrapf(ErrInvalid, "pipeline.flush_interval must be positive")
	}
	if n := len([]rune(c.Purifier.MaskChar)); c.Purifier.Mask == "" && n != 1 {
		return errors.Wrapf(ErrInvalid, "purifier.mask_char must be a single character, got %q", c.Purifier.MaskChar)
	}
	switch c.Purifier.Strategy {
	case "", "rebuild", "legacy":
	default:
		return errors.Wrapf(ErrInvalid, "purifier.strategy %q", c.Purifier.Strategy)
	}
	switch c.Log.Format {
	case "", "json", "console":
	default:
		return errors.Wrapf(ErrInvalid, "log.format %q", c.Log.Format)
	}
	return nil
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func truthy(v string) bool {
	return v == "1" || strings.EqualFold(v, "true")
}
