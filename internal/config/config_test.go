package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/KaramelBytes/basketlens/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	c, err := config.Load("")
	require.NoError(t, err)
	assert.InDelta(t, 0.003, c.MinSupport, 1e-12)
	assert.InDelta(t, 0.1, c.MinConfidence, 1e-12)
	assert.InDelta(t, 3.0, c.MinLift, 1e-12)
	assert.Equal(t, 2, c.MinLength)
	assert.Equal(t, 0, c.MaxLength)
	assert.Equal(t, 10, c.DefaultWords)
	assert.Equal(t, filepath.Join(home, ".basketlens", "datasets"), c.DataDir)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	path := filepath.Join(home, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("min_lift: 1.5\nserver_addr: 0.0.0.0:9000\n"), 0o644))
	t.Setenv("BASKETLENS_MIN_LIFT", "2.5")

	c, err := config.Load(path)
	require.NoError(t, err)
	assert.InDelta(t, 2.5, c.MinLift, 1e-12)
	assert.Equal(t, "0.0.0.0:9000", c.ServerAddr)
}

func TestSaveRoundTrip(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	path := filepath.Join(home, "cfg.yaml")

	c, err := config.Load(path)
	require.NoError(t, err)
	c.DefaultWords = 50
	c.MinSupport = 0.01
	require.NoError(t, config.Save(c, path))

	again, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 50, again.DefaultWords)
	assert.InDelta(t, 0.01, again.MinSupport, 1e-12)
}
