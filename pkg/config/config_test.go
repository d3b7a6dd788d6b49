package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "/var/lib/deckhand", cfg.DataDir)
	assert.Equal(t, "/", cfg.DiskPath)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 200*time.Millisecond, cfg.StepDelay.Duration)
	assert.Equal(t, 5*time.Second, cfg.Publish.SystemInterval.Duration)
	assert.Equal(t, 10*time.Second, cfg.Publish.SystemRetry.Duration)
	assert.Equal(t, 15*time.Second, cfg.Publish.ContainerInterval.Duration)
	assert.Equal(t, 20*time.Second, cfg.Publish.ContainerRetry.Duration)
}

func TestLoadEmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
listen_addr: ":9090"
data_dir: /tmp/deckhand
log_level: debug
log_json: true
step_delay: 50ms
publish:
  system_interval: 2s
  system_retry: 4s
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.ListenAddr)
	assert.Equal(t, "/tmp/deckhand", cfg.DataDir)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.LogJSON)
	assert.Equal(t, 50*time.Millisecond, cfg.StepDelay.Duration)
	assert.Equal(t, 2*time.Second, cfg.Publish.SystemInterval.Duration)
	assert.Equal(t, 4*time.Second, cfg.Publish.SystemRetry.Duration)

	// Fields the file does not mention keep their defaults
	assert.Equal(t, "/", cfg.DiskPath)
	assert.Equal(t, 10*time.Second, cfg.Publish.DeploymentInterval.Duration)
}

func TestLoadIntegerNanoseconds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("step_delay: 1000000000"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, time.Second, cfg.StepDelay.Duration)
}

func TestLoadBadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("step_delay: fast"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen_addr: [::"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestHubConfig(t *testing.T) {
	cfg := Default()
	cfg.Publish.SystemInterval = Duration{3 * time.Second}

	hubCfg := cfg.HubConfig()
	assert.Equal(t, 3*time.Second, hubCfg.SystemInterval)
	assert.Equal(t, cfg.Publish.ContainerRetry.Duration, hubCfg.ContainerRetry)
}
