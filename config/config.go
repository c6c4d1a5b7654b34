// Package config holds the settings shared by the ngram CLI and HTTP server.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v2"
)

// Bounds applied to user requests. They are caller policy; the language
// package itself accepts any order >= 2 and any length.
const (
	MinOrder  = 2
	MaxOrder  = 7
	MinLength = 5
	MaxLength = 30
)

// Config is the application configuration.
type Config struct {
	Corpus      []string     `yaml:"corpus"`
	MaxOrder    int          `yaml:"max_order"`
	Length      int          `yaml:"length"`
	Start       string       `yaml:"start"`
	Seed        uint64       `yaml:"seed"` // 0 picks a random seed per run
	FinalWindow bool         `yaml:"final_window"`
	LogLevel    string       `yaml:"log_level"`
	Server      ServerConfig `yaml:"server"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr         string   `yaml:"addr"`
	AllowOrigins []string `yaml:"allow_origins"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		MaxOrder: 5,
		Length:   12,
		Start:    "sheldon said",
		LogLevel: "info",
		Server: ServerConfig{
			Addr:         "127.0.0.1:8080",
			AllowOrigins: []string{"*"},
		},
	}
}

// Load reads a yaml file on top of the defaults. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.UnmarshalStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from NGRAM_* environment variables.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv("NGRAM_SEED"); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("NGRAM_SEED: %w", err)
		}
		c.Seed = seed
	}
	if v := os.Getenv("NGRAM_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("NGRAM_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("NGRAM_CORPUS"); v != "" {
		var paths []string
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				paths = append(paths, p)
			}
		}
		c.Corpus = paths
	}
	return nil
}

// Validate checks the request bounds and that a corpus is configured.
func (c *Config) Validate() error {
	var errs []error
	if len(c.Corpus) == 0 {
		errs = append(errs, errors.New("no corpus files configured"))
	}
	if err := CheckOrder(c.MaxOrder); err != nil {
		errs = append(errs, err)
	}
	if err := CheckLength(c.Length); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// CheckOrder reports whether n is an allowed maximum n-gram order.
func CheckOrder(n int) error {
	if n < MinOrder || n > MaxOrder {
		return fmt.Errorf("max order %d out of range [%d, %d]", n, MinOrder, MaxOrder)
	}
	return nil
}

// CheckLength reports whether n is an allowed sentence length.
func CheckLength(n int) error {
	if n < MinLength || n > MaxLength {
		return fmt.Errorf("length %d out of range [%d, %d]", n, MinLength, MaxLength)
	}
	return nil
}
