// Package config loads etymograph settings from a YAML or TOML file and
// the environment.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/dd0wney/etymograph/pkg/etymology"
	"github.com/dd0wney/etymograph/pkg/explorer"
	"github.com/dd0wney/etymograph/pkg/graphstate"
	"github.com/dd0wney/etymograph/pkg/lexicon"
	"github.com/dd0wney/etymograph/pkg/logging"
	"github.com/dd0wney/etymograph/pkg/server"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// SourceRemote selects the remote etymology service as the lexicon.
const SourceRemote = "remote"

// Environment variables that override file settings.
const (
	EnvSource    = "ETYMOGRAPH_LEXICON_SOURCE"
	EnvRemoteURL = "ETYMOGRAPH_REMOTE_URL"
	EnvCacheDir  = "ETYMOGRAPH_CACHE_DIR"
	EnvAddr      = "ETYMOGRAPH_SERVER_ADDR"
	EnvPort      = "PORT"
	EnvLogLevel  = "LOG_LEVEL"
)

// Config is the full set of settings.
type Config struct {
	LogLevel logging.Level `yaml:"log_level" toml:"log_level"`
	// Metrics exposes Prometheus metrics on the API server.
	Metrics  bool            `yaml:"metrics" toml:"metrics"`
	Lexicon  LexiconConfig   `yaml:"lexicon" toml:"lexicon"`
	Engine   *EngineConfig   `yaml:"engine,omitempty" toml:"engine,omitempty"`
	Explorer explorer.Config `yaml:"explorer" toml:"explorer"`
	Server   server.Config   `yaml:"server" toml:"server"`
}

// LexiconConfig says where words come from.
type LexiconConfig struct {
	// Source is "remote", "builtin:<name>", "s3://bucket/key" or a path.
	Source string                `yaml:"source" toml:"source" validate:"required"`
	Remote lexicon.ClientOptions `yaml:"remote" toml:"remote"`
	S3     lexicon.S3Options     `yaml:"s3" toml:"s3"`
	// Cache stores remote responses; it is used when Dir is set or
	// InMemory is true.
	Cache lexicon.CacheConfig `yaml:"cache" toml:"cache"`
}

// EngineConfig overrides the engine preset chosen by lexicon source.
type EngineConfig struct {
	ExpandOnFocus       bool    `yaml:"expand_on_focus" toml:"expand_on_focus"`
	AutoExpandNeighbors bool    `yaml:"auto_expand_neighbors" toml:"auto_expand_neighbors"`
	SeedRadius          float64 `yaml:"seed_radius" toml:"seed_radius" validate:"gte=0"`
	EventBuffer         int     `yaml:"event_buffer" toml:"event_buffer" validate:"gte=0"`
}

// Default returns settings for the built-in "run" dataset.
func Default() Config {
	return Config{
		LogLevel: logging.InfoLevel,
		Lexicon: LexiconConfig{
			Source: lexicon.BuiltinScheme + "run",
			Remote: lexicon.DefaultClientOptions(),
			Cache:  lexicon.DefaultCacheConfig(),
		},
		Explorer: explorer.DefaultConfig(),
		Server:   server.DefaultConfig(),
	}
}

// IsRemote reports whether words come from the remote service.
func (l LexiconConfig) IsRemote() bool { return l.Source == SourceRemote }

// CacheEnabled reports whether remote responses are cached.
func (l LexiconConfig) CacheEnabled() bool { return l.Cache.Dir != "" || l.Cache.InMemory }

// EngineOptions returns the engine preset for the lexicon source, with
// any explicit engine section applied on top.
func (c Config) EngineOptions() graphstate.Options {
	opts := graphstate.StaticOptions()
	if c.Lexicon.IsRemote() {
		opts = graphstate.RemoteOptions()
	}
	if e := c.Engine; e != nil {
		opts.ExpandOnFocus = e.ExpandOnFocus
		opts.AutoExpandNeighbors = e.AutoExpandNeighbors
		if e.SeedRadius > 0 {
			opts.SeedRadius = e.SeedRadius
		}
		if e.EventBuffer > 0 {
			opts.EventBuffer = e.EventBuffer
		}
	}
	return opts
}

// Load reads path (if non-empty) over the defaults, applies environment
// overrides and validates the result. Files ending in .toml are TOML;
// anything else is YAML.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := decode(data, path, &cfg); err != nil {
			return Config{}, fmt.Errorf("%s: %w", path, err)
		}
	}
	cfg.ApplyEnv(os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decode(data []byte, path string, cfg *Config) error {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		md, err := toml.Decode(string(data), cfg)
		if err != nil {
			return fmt.Errorf("decode toml: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return fmt.Errorf("unknown setting %q", undecoded[0].String())
		}
		return nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode yaml: %w", err)
	}
	return nil
}

// ApplyEnv overrides settings from the environment. lookup is usually
// os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvSource); ok && v != "" {
		c.Lexicon.Source = v
	}
	if v, ok := lookup(EnvRemoteURL); ok && v != "" {
		c.Lexicon.Remote.BaseURL = v
	}
	if v, ok := lookup(EnvCacheDir); ok && v != "" {
		c.Lexicon.Cache.Dir = v
	}
	if v, ok := lookup(EnvPort); ok && v != "" {
		c.Server.Addr = ":" + v
	}
	if v, ok := lookup(EnvAddr); ok && v != "" {
		c.Server.Addr = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.LogLevel = logging.ParseLevel(v)
	}
}

// Validate checks every section.
func (c Config) Validate() error {
	err := etymology.Validator().Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("invalid config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %s", strings.TrimPrefix(fe.Namespace(), "Config."), fe.Tag()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}
