package main

import (
	"context"
	"time"

	"github.com/plus3/sigecs/ecs"
	"github.com/plus3/sigecs/internal/components"
	"github.com/plus3/sigecs/internal/config"
	"github.com/plus3/sigecs/internal/physics"
	"github.com/plus3/sigecs/internal/render"
	"github.com/plus3/sigecs/internal/scene"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func newRunCmd(a *app) *cobra.Command {
	var (
		scenePath string
		duration  time.Duration
		noRender  bool
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Load a scene and simulate it until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := *a.cfg
			if cmd.Flags().Changed("scene") {
				cfg.Simulation.Scene = scenePath
			}
			if cmd.Flags().Changed("duration") {
				cfg.Simulation.Duration = duration
			}
			if noRender {
				cfg.Render.Enabled = false
			}
			return runSimulation(cmd.Context(), &cfg, a.logger)
		},
	}
	cmd.Flags().StringVar(&scenePath, "scene", "", "scene file to load (overrides simulation.scene)")
	cmd.Flags().DurationVar(&duration, "duration", 0, "stop after this long (0 runs until interrupted)")
	cmd.Flags().BoolVar(&noRender, "no-render", false, "do not start the renderer")
	return cmd
}

func newWorld(cfg config.WorldConfig, logger *zap.Logger) (*ecs.World, error) {
	w := ecs.NewWorld(
		ecs.WithInitialCapacity(cfg.InitialCapacity),
		ecs.WithMaxEntities(cfg.MaxEntities),
		ecs.WithLogger(logger.Named("ecs")),
	)
	if err := components.Register(w); err != nil {
		return nil, err
	}
	if err := physics.Register(w); err != nil {
		return nil, err
	}
	return w, nil
}

func runSimulation(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	if cfg.Simulation.Scene == "" {
		return eris.New("no scene given: set simulation.scene or pass --scene")
	}

	w, err := newWorld(cfg.World, logger)
	if err != nil {
		return err
	}
	s, err := scene.Load(cfg.Simulation.Scene)
	if err != nil {
		return err
	}
	bindings, err := scene.Build(w, s)
	if err != nil {
		return err
	}
	logger.Info("scene loaded",
		zap.String("scene", s.Name),
		zap.Int("entities", w.Len()),
		zap.Strings("bound", bindings.Names()))

	scheduler := ecs.NewScheduler(w)
	solver, err := physics.Install(scheduler, w, logger.Named("physics"))
	if err != nil {
		return err
	}

	var renderer *render.Renderer
	if cfg.Render.Enabled {
		renderer = render.NewRenderer(&render.LogDrawer{
			Logger: logger.Named("render"),
			Every:  cfg.Render.LogEvery,
		}, logger.Named("render"))
		if _, err := render.Install(scheduler, w, renderer); err != nil {
			return err
		}
	}

	if cfg.Simulation.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Simulation.Duration)
		defer cancel()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if renderer != nil {
			defer renderer.Close()
		}
		return scheduler.Run(gctx, cfg.Simulation.TickRate)
	})
	if renderer != nil {
		g.Go(func() error {
			return renderer.Run(gctx)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	stats := scheduler.GetStats()
	for _, sys := range stats.Systems {
		logger.Info("system",
			zap.String("name", sys.Name),
			zap.Int("members", sys.Members),
			zap.Int64("executions", sys.ExecutionCount),
			zap.Duration("avg", sys.AvgDuration),
			zap.Duration("max", sys.MaxDuration))
	}
	fields := []zap.Field{
		zap.Int64("frames", stats.Frames),
		zap.Int("entities", w.Len()),
		zap.Int("broken_constraints", solver.Broken),
		zap.Int("pruned_bindings", bindings.Prune(w)),
	}
	if renderer != nil {
		fields = append(fields, zap.Int64("drawn", renderer.Drawn()), zap.Int64("dropped", renderer.Dropped()))
	}
	logger.Info("simulation stopped", fields...)
	return w.Validate()
}
