package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, 5, cfg.MaxOrder)
	assert.Equal(t, 12, cfg.Length)
	assert.Equal(t, "sheldon said", cfg.Start)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ngram.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
corpus:
  - s01e01.txt
  - s01e02.txt
max_order: 3
length: 20
seed: 99
final_window: true
server:
  addr: ":9000"
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"s01e01.txt", "s01e02.txt"}, cfg.Corpus)
	assert.Equal(t, 3, cfg.MaxOrder)
	assert.Equal(t, 20, cfg.Length)
	assert.Equal(t, uint64(99), cfg.Seed)
	assert.True(t, cfg.FinalWindow)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	// untouched fields keep their defaults
	assert.Equal(t, "sheldon said", cfg.Start)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.NoError(t, cfg.Validate())
}

func TestLoadUnknownField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ngram.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_ordr: 3\n"), 0o644))
	_, err := Load(path)
	assert.ErrorContains(t, err, "parse config")
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("NGRAM_SEED", "123")
	t.Setenv("NGRAM_LOG_LEVEL", "debug")
	t.Setenv("NGRAM_ADDR", ":7000")
	t.Setenv("NGRAM_CORPUS", "a.txt, b.txt,,")

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv())
	assert.Equal(t, uint64(123), cfg.Seed)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, ":7000", cfg.Server.Addr)
	assert.Equal(t, []string{"a.txt", "b.txt"}, cfg.Corpus)
}

func TestApplyEnvBadSeed(t *testing.T) {
	t.Setenv("NGRAM_SEED", "-1")
	assert.Error(t, Default().ApplyEnv())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"ok", func(c *Config) {}, ""},
		{"no corpus", func(c *Config) { c.Corpus = nil }, "no corpus"},
		{"order low", func(c *Config) { c.MaxOrder = 1 }, "max order 1"},
		{"order high", func(c *Config) { c.MaxOrder = 8 }, "max order 8"},
		{"length low", func(c *Config) { c.Length = 4 }, "length 4"},
		{"length high", func(c *Config) { c.Length = 31 }, "length 31"},
		{"bounds inclusive", func(c *Config) { c.MaxOrder, c.Length = 7, 30 }, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Corpus = []string{"a.txt"}
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.wantErr)
			}
		})
	}
}
