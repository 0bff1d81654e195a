package config

import (
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/rotisserie/eris"
)

type Config struct {
	World      WorldConfig      `toml:"world"`
	Simulation SimulationConfig `toml:"simulation"`
	Render     RenderConfig     `toml:"render"`
	Logging    LoggingConfig    `toml:"logging"`
	Stress     StressConfig     `toml:"stress"`
}

type WorldConfig struct {
	InitialCapacity int `toml:"initial_capacity"`
	MaxEntities     int `toml:"max_entities"`
}

type SimulationConfig struct {
	Scene    string        `toml:"scene"`
	TickRate time.Duration `toml:"tick_rate"`
	Duration time.Duration `toml:"duration"` // zero runs until interrupted
}

type RenderConfig struct {
	Enabled  bool   `toml:"enabled"`
	LogEvery uint64 `toml:"log_every"` // log one frame in N
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "console" or "json"
	Output string `toml:"output"` // file path, empty for stderr
}

type StressConfig struct {
	Duration       time.Duration `toml:"duration"`
	Entities       int           `toml:"entities"`
	ChurnPerFrame  int           `toml:"churn_per_frame"`
	Seed           uint64        `toml:"seed"`
	GCPauseMetrics bool          `toml:"gc_pause_metrics"`
}

// Load reads the TOML file at path over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "read config %s", path)
	}
	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, eris.Wrapf(err, "parse config %s", path)
	}
	if err := cfg.validate(); err != nil {
		return nil, eris.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		World: WorldConfig{
			InitialCapacity: 1024,
			MaxEntities:     1 << 20,
		},
		Simulation: SimulationConfig{
			TickRate: 16 * time.Millisecond,
		},
		Render: RenderConfig{
			Enabled:  true,
			LogEvery: 60,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Stress: StressConfig{
			Duration:      10 * time.Second,
			Entities:      10000,
			ChurnPerFrame: 100,
			Seed:          1,
		},
	}
}

func (c *Config) validate() error {
	if c.World.MaxEntities <= 0 {
		return eris.New("world.max_entities must be positive")
	}
	if c.World.InitialCapacity <= 0 {
		return eris.New("world.initial_capacity must be positive")
	}
	if c.Simulation.TickRate <= 0 {
		return eris.New("simulation.tick_rate must be positive")
	}
	if c.Stress.Entities < 0 || c.Stress.ChurnPerFrame < 0 {
		return eris.New("stress counts must not be negative")
	}
	return nil
}
