package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dd0wney/etymograph/pkg/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func noEnv(string) (string, bool) { return "", false }

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "builtin:run", cfg.Lexicon.Source)
	assert.False(t, cfg.Lexicon.IsRemote())
	assert.False(t, cfg.Lexicon.CacheEnabled())
	assert.Equal(t, ":3001", cfg.Server.Addr)
}

func TestLoadWithoutFile(t *testing.T) {
	t.Setenv(EnvSource, "")
	t.Setenv(EnvAddr, "")
	t.Setenv(EnvPort, "")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().Lexicon.Source, cfg.Lexicon.Source)
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "etymograph.yaml", `
log_level: debug
metrics: true
lexicon:
  source: remote
  remote:
    base_url: http://lexicon.internal:3001
    rate_limit: 5
    timeout: 2s
  cache:
    dir: /var/cache/etymograph
    ttl: 1h
explorer:
  width: 1024
  height: 768
  viewport:
    min_scale: 0.2
    max_scale: 4
    zoom_in_factor: 1.3
    zoom_out_factor: 0.77
    fit_padding: 50
    node_radius: 30
    minimap_width: 150
    minimap_height: 100
server:
  addr: ":8080"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, logging.DebugLevel, cfg.LogLevel)
	assert.True(t, cfg.Metrics)
	assert.True(t, cfg.Lexicon.IsRemote())
	assert.Equal(t, "http://lexicon.internal:3001", cfg.Lexicon.Remote.BaseURL)
	assert.Equal(t, 5.0, cfg.Lexicon.Remote.RateLimit)
	assert.Equal(t, 2*time.Second, cfg.Lexicon.Remote.Timeout)
	assert.Equal(t, 10, cfg.Lexicon.Remote.Burst, "unset keys keep their defaults")
	assert.True(t, cfg.Lexicon.CacheEnabled())
	assert.Equal(t, time.Hour, cfg.Lexicon.Cache.TTL)
	assert.Equal(t, 1024.0, cfg.Explorer.Width)
	assert.Equal(t, 4.0, cfg.Explorer.Viewport.MaxScale)
	assert.Equal(t, ":8080", cfg.Server.Addr)
}

func TestLoadTOML(t *testing.T) {
	path := writeFile(t, "etymograph.toml", `
log_level = "warn"

[lexicon]
source = "builtin:currere"

[engine]
expand_on_focus = true
auto_expand_neighbors = false

[explorer.layout]
link_distance = 120.0
charge_strength = -200.0

[server]
addr = "127.0.0.1:9000"
shutdown_timeout = "5s"

[server.tls]
enabled = true
self_signed = true
hosts = ["localhost"]
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, logging.WarnLevel, cfg.LogLevel)
	assert.Equal(t, "builtin:currere", cfg.Lexicon.Source)
	assert.Equal(t, 120.0, cfg.Explorer.Layout.LinkDistance)
	assert.Equal(t, -200.0, cfg.Explorer.Layout.ChargeStrength)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	assert.Equal(t, 5*time.Second, cfg.Server.ShutdownTimeout)
	assert.True(t, cfg.Server.TLS.Enabled)
	assert.Equal(t, []string{"localhost"}, cfg.Server.TLS.Hosts)

	opts := cfg.EngineOptions()
	assert.True(t, opts.ExpandOnFocus)
	assert.False(t, opts.AutoExpandNeighbors)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	_, err := Load(writeFile(t, "bad.yaml", "lexicon:\n  sauce: remote\n"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "bad.toml", "[lexicon]\nsauce = \"remote\"\n"))
	assert.Error(t, err)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty source", "lexicon:\n  source: \"\"\n"},
		{"bad remote url", "lexicon:\n  remote:\n    base_url: not a url\n"},
		{"inverted zoom range", "explorer:\n  viewport:\n    min_scale: 2\n    max_scale: 1\n"},
		{"negative width", "explorer:\n  width: -1\n"},
		{"cert without key", "server:\n  tls:\n    cert_file: /etc/cert.pem\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, "c.yaml", tt.body))
			assert.ErrorContains(t, err, "invalid config")
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvSource:    "remote",
		EnvRemoteURL: "http://other:3001",
		EnvCacheDir:  "/tmp/ety",
		EnvPort:      "8081",
		EnvLogLevel:  "error",
	}
	cfg := Default()
	cfg.ApplyEnv(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})

	assert.True(t, cfg.Lexicon.IsRemote())
	assert.Equal(t, "http://other:3001", cfg.Lexicon.Remote.BaseURL)
	assert.Equal(t, "/tmp/ety", cfg.Lexicon.Cache.Dir)
	assert.Equal(t, ":8081", cfg.Server.Addr)
	assert.Equal(t, logging.ErrorLevel, cfg.LogLevel)

	env[EnvAddr] = "0.0.0.0:9999"
	cfg.ApplyEnv(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})
	assert.Equal(t, "0.0.0.0:9999", cfg.Server.Addr, "an explicit address beats PORT")

	before := Default()
	before.ApplyEnv(noEnv)
	assert.Equal(t, Default(), before)
}

func TestEngineOptionsPresets(t *testing.T) {
	cfg := Default()
	opts := cfg.EngineOptions()
	assert.False(t, opts.ExpandOnFocus)
	assert.False(t, opts.AutoExpandNeighbors)

	cfg.Lexicon.Source = SourceRemote
	opts = cfg.EngineOptions()
	assert.True(t, opts.ExpandOnFocus)
	assert.True(t, opts.AutoExpandNeighbors)

	cfg.Engine = &EngineConfig{SeedRadius: 80}
	opts = cfg.EngineOptions()
	assert.False(t, opts.ExpandOnFocus)
	assert.Equal(t, 80.0, opts.SeedRadius)
}
