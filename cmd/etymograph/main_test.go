package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dd0wney/etymograph/pkg/config"
	"github.com/dd0wney/etymograph/pkg/lexicon"
	"github.com/dd0wney/etymograph/pkg/lexiconapi"
	"github.com/dd0wney/etymograph/pkg/visualization"
	"github.com/fatih/color"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// execute runs the CLI with args and returns what it wrote to stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	for _, k := range []string{config.EnvSource, config.EnvRemoteURL, config.EnvCacheDir, config.EnvAddr, config.EnvPort, config.EnvLogLevel} {
		t.Setenv(k, "")
	}
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "etymograph.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func remoteServer(t *testing.T) *httptest.Server {
	t.Helper()
	ds, err := lexicon.Builtin("run")
	require.NoError(t, err)
	lex, err := lexicon.NewStaticLexicon(ds)
	require.NoError(t, err)
	srv := httptest.NewServer(lexiconapi.New(lex, lexiconapi.Options{}).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "--version")
	require.NoError(t, err)
	assert.Equal(t, "etymograph "+version+"\n", out)
}

func TestDatasets(t *testing.T) {
	out, err := execute(t, "datasets")
	require.NoError(t, err)
	assert.Contains(t, out, "builtin:run")
	assert.Contains(t, out, "builtin:currere")
}

func TestSearch(t *testing.T) {
	out, err := execute(t, "search", "ru")
	require.NoError(t, err)
	assert.Contains(t, out, "run__en")
	assert.Contains(t, out, "runner__en")

	out, err = execute(t, "search", "zzz")
	require.NoError(t, err)
	assert.Contains(t, out, `No words match "zzz"`)
}

func TestLayout(t *testing.T) {
	out, err := execute(t, "layout", "run__en", "--depth", "1", "--ticks", "200")
	require.NoError(t, err)

	var snap visualization.Snapshot
	require.NoError(t, json.Unmarshal([]byte(out), &snap))
	assert.Greater(t, len(snap.Nodes), 2)
	assert.NotEmpty(t, snap.Edges)
	assert.Positive(t, snap.Ticks)

	ids := map[string]bool{}
	for _, n := range snap.Nodes {
		ids[n.ID] = true
	}
	assert.True(t, ids["run__en"])
	assert.True(t, ids["rinnan__ang"])
}

func TestLayoutUnknownWord(t *testing.T) {
	_, err := execute(t, "layout", "nope__xx")
	assert.Error(t, err)

	_, err = execute(t, "layout", "no-separator")
	assert.Error(t, err)
}

func TestPath(t *testing.T) {
	out, err := execute(t, "path", "run__en", "*h₃reyn-__ine-pro")
	require.NoError(t, err)
	assert.Contains(t, out, "3 steps")
	for _, w := range []string{"run", "rinnan", "*rinnaną", "*h₃reyn-"} {
		assert.Contains(t, out, w)
	}

	_, err = execute(t, "path", "*h₃reyn-__ine-pro", "run__en")
	assert.Error(t, err, "descendants are not origins")
}

func TestPathNeedsDataset(t *testing.T) {
	cfg := writeConfig(t, "lexicon:\n  source: remote\n")
	_, err := execute(t, "--config", cfg, "path", "run__en", "rinnan__ang")
	assert.ErrorIs(t, err, errNeedsDataset)
}

func TestStatus(t *testing.T) {
	out, err := execute(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "lexicon")
	assert.Contains(t, out, "healthy")
}

func TestRemoteBackend(t *testing.T) {
	srv := remoteServer(t)
	cfg := writeConfig(t, `
lexicon:
  source: remote
  remote:
    base_url: `+srv.URL+`
  cache:
    in_memory: true
`)

	out, err := execute(t, "--config", cfg, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "upstream")
	assert.Contains(t, out, "cache")
	assert.NotContains(t, out, "unhealthy")

	out, err = execute(t, "--config", cfg, "search", "rin")
	require.NoError(t, err)
	assert.Contains(t, out, "rinnan__ang")

	out, err = execute(t, "--config", cfg, "layout", "run__en", "--depth", "1", "--ticks", "50")
	require.NoError(t, err)
	var snap visualization.Snapshot
	require.NoError(t, json.Unmarshal([]byte(out), &snap))
	assert.Greater(t, len(snap.Nodes), 2)
}

func TestStatusUnreachable(t *testing.T) {
	srv := remoteServer(t)
	url := srv.URL
	srv.Close()

	cfg := writeConfig(t, "lexicon:\n  source: remote\n  remote:\n    base_url: "+url+"\n    timeout: 1s\n")
	out, err := execute(t, "--config", cfg, "status")
	assert.Error(t, err)
	assert.Contains(t, out, "unhealthy")
}

func TestWatchFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "words.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: a\n"), 0o600))

	var calls atomic.Int32
	w, err := watchFile(path, 20*time.Millisecond, nil, func() { calls.Add(1) })
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x"), 0o600))
	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(path, []byte(strings.Repeat("name: b\n", i+1)), 0o600))
	}
	assert.Eventually(t, func() bool { return calls.Load() >= 1 }, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
}

func TestPrintTableAlignsWideRunes(t *testing.T) {
	var buf bytes.Buffer
	printTable(&buf, []string{"WORD", "ID"}, [][]string{
		{"*h₃reyn-", "a"},
		{"run", "b"},
	})
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, strings.Index(lines[0], "ID"), strings.Index(lines[3], "b"))
}
