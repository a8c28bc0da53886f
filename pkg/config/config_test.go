package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "purifygate.yaml")
	data := `
server:
  http_port: 9090
redis:
  enabled: true
  address: redis:6379
pipeline:
  buffer_size: 1024
  batch_size: 10
  flush_interval: 250ms
  bypass_ratio: 0.5
purifier:
  words: [foo, "bar baz"]
  mask: "[x]"
  strategy: legacy
  encoding: gbk
log:
  level: debug
  format: console
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.HTTPPort)
	assert.Equal(t, 8081, cfg.Server.TCPPort)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "redis:6379", cfg.Redis.Address)
	assert.Equal(t, "purifygate:words", cfg.Redis.WordsKey)
	assert.Equal(t, uint64(1024), cfg.Pipeline.BufferSize)
	assert.Equal(t, 250*time.Millisecond, cfg.Pipeline.FlushInterval)
	assert.Equal(t, []string{"foo", "bar baz"}, cfg.Purifier.Words)
	assert.Equal(t, "[x]", cfg.Purifier.Mask)
	assert.Equal(t, "legacy", cfg.Purifier.Strategy)
	assert.Equal(t, "gbk", cfg.Purifier.Encoding)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("PURIFYGATE_HTTP_PORT", "7070")
	t.Setenv("PURIFYGATE_REDIS_ADDR", "10.0.0.1:6379")
	t.Setenv("PURIFYGATE_WORDS", "a, b ,,c")
	t.Setenv("PURIFYGATE_LOG_LEVEL", "warn")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.HTTPPort)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "10.0.0.1:6379", cfg.Redis.Address)
	assert.Equal(t, []string{"a", "b", "c"}, cfg.Purifier.Words)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := map[string]func(c *Config){
		"buffer not power of two": func(c *Config) { c.Pipeline.BufferSize = 100 },
		"zero batch":              func(c *Config) { c.Pipeline.BatchSize = 0 },
		"bypass ratio":            func(c *Config) { c.Pipeline.BypassRatio = 1.5 },
		"flush interval":          func(c *Config) { c.Pipeline.FlushInterval = 0 },
		"mask char":               func(c *Config) { c.Purifier.MaskChar = "**" },
		"strategy":                func(c *Config) { c.Purifier.Strategy = "fast" },
		"log format":              func(c *Config) { c.Log.Format = "xml" },
	}
	for name, mutate := range cases {
		cfg := DefaultConfig()
		mutate(cfg)
		err := cfg.Validate()
		assert.True(t, errors.Is(err, ErrInvalid), name)
	}

	// a literal mask makes mask_char irrelevant
	cfg := DefaultConfig()
	cfg.Purifier.Mask = "###"
	cfg.Purifier.MaskChar = ""
	assert.NoError(t, cfg.Validate())
}
