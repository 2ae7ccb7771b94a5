package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPathsExplicitDir(t *testing.T) {
	dir := t.TempDir()
	p, err := NewPaths(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "snipt.json"), p.Store)
	assert.Equal(t, filepath.Join(dir, "snipt-daemon.pid"), p.PID)
	assert.Equal(t, filepath.Join(dir, "api_port.txt"), p.Port)
	assert.Equal(t, filepath.Join(dir, "daemon_log.txt"), p.DaemonLog)
}

func TestNewPathsEnvOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("SNIPT_HOME", dir)
	p, err := NewPaths("")
	require.NoError(t, err)
	assert.Equal(t, dir, p.Dir)
}

func TestNewPathsHomeDefault(t *testing.T) {
	home := t.TempDir()
	t.Setenv("SNIPT_HOME", "")
	t.Setenv("HOME", home)
	p, err := NewPaths("")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".snipt"), p.Dir)
}

func TestLoadSettingsMissingFile(t *testing.T) {
	s, err := LoadSettings(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), s)
}

func TestLoadSettingsPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "exec:\n  timeout: 2s\n  pty: true\nhyperlink_apps:\n  - notion\nbuffer:\n  capacity: -1\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	s, err := LoadSettings(path)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, s.Exec.Timeout)
	assert.True(t, s.Exec.PTY)
	assert.Equal(t, []string{"notion"}, s.HyperlinkApps)
	assert.Equal(t, 100, s.Buffer.Capacity)
	assert.Equal(t, 2*time.Millisecond, s.Timing.KeyDelay)
	assert.Equal(t, 1024, s.Timing.ChunkSize)
	assert.Equal(t, 100*time.Millisecond, s.Timing.EchoGrace)
}

func TestLoadSettingsMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("exec: [unterminated"), 0o644))
	_, err := LoadSettings(path)
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	for name, want := range map[string]slog.Level{
		"debug": slog.LevelDebug,
		"":      slog.LevelInfo,
		"WARN":  slog.LevelWarn,
		"error": slog.LevelError,
	} {
		got, err := ParseLevel(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}
	_, err := ParseLevel("loud")
	assert.Error(t, err)
}
