package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg := Default()
	cfg.Search.MaxIterations = 42
	cfg.Browser.RemoteURL = "ws://127.0.0.1:9222"
	require.NoError(t, cfg.SaveFile(path))

	loaded, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoadFileKeepsDefaultsForMissingKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[search]\nmax_iterations = 7\n"), 0600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Search.MaxIterations)
	assert.Equal(t, 5, cfg.Search.StallThreshold)
	assert.Equal(t, "https://x.com/home", cfg.Browser.StartURL)
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.toml"))
	require.Error(t, err)
	assert.True(t, os.IsNotExist(err))
}

func TestDurations(t *testing.T) {
	s := SearchConfig{ScrollDelay: "1s", WaitTimeout: "bogus", SessionTimeout: "-1m"}
	assert.Equal(t, time.Second, s.ScrollDelayDuration())
	assert.Equal(t, 10*time.Second, s.WaitTimeoutDuration())
	assert.Equal(t, 10*time.Minute, s.SessionTimeoutDuration())
	assert.Equal(t, 6*time.Hour, WatchConfig{}.EveryDuration())
}

func TestDBPathOverride(t *testing.T) {
	cfg := Default()
	cfg.Storage.DBPath = "/tmp/x.db"
	path, err := cfg.DBPath()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/x.db", path)
}
