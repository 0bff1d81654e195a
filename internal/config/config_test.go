package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/plus3/sigecs/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ecs-sim.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadOverridesDefaults(t *testing.T) {
	cfg, err := config.Load(write(t, `
[world]
max_entities = 500

[simulation]
scene = "scene.yaml"
tick_rate = "5ms"

[logging]
format = "json"
`))
	require.NoError(t, err)

	assert.Equal(t, 500, cfg.World.MaxEntities)
	assert.Equal(t, 1024, cfg.World.InitialCapacity, "unset keys keep their defaults")
	assert.Equal(t, "scene.yaml", cfg.Simulation.Scene)
	assert.Equal(t, 5*time.Millisecond, cfg.Simulation.TickRate)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.True(t, cfg.Render.Enabled)
}

func TestLoadErrors(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	_, err = config.Load(write(t, "[world\n"))
	assert.Error(t, err)

	_, err = config.Load(write(t, "[world]\nmax_entities = 0\n"))
	assert.ErrorContains(t, err, "max_entities")
}

func TestSampleConfig(t *testing.T) {
	cfg, err := config.Load(filepath.Join("..", "..", "configs", "ecs-sim.toml"))
	require.NoError(t, err)
	assert.NotEmpty(t, cfg.Simulation.Scene)
}
