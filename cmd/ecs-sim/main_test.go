package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/plus3/sigecs/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestStatsFinalize(t *testing.T) {
	s := Stats{Samples: []time.Duration{3, 1, 2}}
	s.Finalize()
	assert.Equal(t, time.Duration(1), s.Min)
	assert.Equal(t, time.Duration(3), s.Max)
	assert.Equal(t, time.Duration(2), s.Avg)

	empty := Stats{}
	empty.Finalize()
	assert.Zero(t, empty.Avg)
}

func TestRunStress(t *testing.T) {
	cfg := config.Default()
	cfg.World.MaxEntities = 10000
	cfg.Stress.Duration = 50 * time.Millisecond
	cfg.Stress.Entities = 500
	cfg.Stress.ChurnPerFrame = 10
	cfg.Stress.GCPauseMetrics = true

	report, err := runStress(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	assert.Positive(t, report.TotalUpdates)
	assert.Equal(t, 6, report.Components)
	assert.Equal(t, 3, report.Systems)

	var out bytes.Buffer
	require.NoError(t, report.Generate(&out))
	assert.Contains(t, out.String(), "# ECS Stress Test Report")
	assert.Contains(t, out.String(), "ConstraintSolver")
	assert.Contains(t, out.String(), "GC Pause Durations")
}

func TestRunSimulation(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	cfg := config.Default()
	cfg.Simulation.Scene = filepath.Join("..", "..", "configs", "pendulum.yaml")
	cfg.Simulation.Duration = 60 * time.Millisecond
	cfg.Simulation.TickRate = 5 * time.Millisecond
	cfg.Render.LogEvery = 1

	require.NoError(t, runSimulation(context.Background(), cfg, zap.New(core)))
	assert.Equal(t, 1, logs.FilterMessage("scene loaded").Len())
	assert.Equal(t, 1, logs.FilterMessage("simulation stopped").Len())
	assert.Positive(t, logs.FilterMessage("frame").Len(), "renderer drew frames")
}

func TestRunSimulationNeedsScene(t *testing.T) {
	assert.Error(t, runSimulation(context.Background(), config.Default(), zap.NewNop()))
}

func TestRootCommand(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"--config", filepath.Join("..", "..", "configs", "ecs-sim.toml"), "stress", "--duration", "20ms", "--entities", "50"})
	root.SetOut(&bytes.Buffer{})
	assert.NoError(t, root.ExecuteContext(context.Background()))
}

func TestRootCommandLoggerFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ecs-sim.toml")
	body := "[logging]\noutput = \"" + filepath.Join(dir, "missing", "sim.log") + "\"\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	root := newRootCmd()
	root.SetArgs([]string{"--config", path, "stress", "--duration", "20ms"})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	err := root.ExecuteContext(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "init logger")
}

func TestNewLoggerWritesToOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sim.log")
	logger, err := newLogger(config.LoggingConfig{Level: "debug", Format: "json", Output: path})
	require.NoError(t, err)
	logger.Debug("hello")
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
}
