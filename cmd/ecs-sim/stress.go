package main

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"runtime"
	"time"

	"github.com/pkg/profile"
	"github.com/plus3/sigecs/ecs"
	"github.com/plus3/sigecs/internal/components"
	"github.com/plus3/sigecs/internal/config"
	"github.com/plus3/sigecs/internal/physics"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newStressCmd(a *app) *cobra.Command {
	var (
		duration time.Duration
		entities int
		churn    int
		gcPause  bool
		prof     string
	)
	cmd := &cobra.Command{
		Use:   "stress",
		Short: "Populate a world with random entities and measure frame times",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := *a.cfg
			flags := cmd.Flags()
			if flags.Changed("duration") {
				cfg.Stress.Duration = duration
			}
			if flags.Changed("entities") {
				cfg.Stress.Entities = entities
			}
			if flags.Changed("churn") {
				cfg.Stress.ChurnPerFrame = churn
			}
			if flags.Changed("gc-pause-metrics") {
				cfg.Stress.GCPauseMetrics = gcPause
			}

			switch prof {
			case "":
			case "cpu":
				defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
			case "mem":
				defer profile.Start(profile.MemProfileAllocs, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
			default:
				return eris.Errorf("unknown profile %q, want cpu or mem", prof)
			}

			report, err := runStress(cmd.Context(), &cfg, a.logger)
			if err != nil {
				return err
			}

			fmt.Println("\n\n--- Stress Test Report ---")
			if err := report.Generate(os.Stdout); err != nil {
				return eris.Wrap(err, "generate report")
			}
			fmt.Println("--- End of Report ---")
			return nil
		},
	}
	cmd.Flags().DurationVar(&duration, "duration", 0, "total duration the test should run for")
	cmd.Flags().IntVar(&entities, "entities", 0, "initial number of entities to create")
	cmd.Flags().IntVar(&churn, "churn", 0, "entities destroyed and respawned per frame")
	cmd.Flags().BoolVar(&gcPause, "gc-pause-metrics", false, "include GC pause metrics in the report")
	cmd.Flags().StringVar(&prof, "profile", "", "write a cpu or mem profile to the working directory")
	return cmd
}

// churnSystem destroys a few random members every frame and queues the same
// number of fresh random entities, exercising index recycling.
type churnSystem struct {
	rng       *rand.Rand
	perFrame  int
	victims   []ecs.Entity
	destroyed int64
}

func (s *churnSystem) Execute(frame *ecs.UpdateFrame) {
	s.victims = s.victims[:0]
	for e := range frame.Entities() {
		if len(s.victims) < s.perFrame && s.rng.IntN(8) == 0 {
			s.victims = append(s.victims, e)
		}
	}
	for _, e := range s.victims {
		frame.Commands.Destroy(e)
		rng := s.rng.Uint64()
		frame.Commands.Spawn(func(w *ecs.World, e ecs.Entity) error {
			return attachRandom(w, e, rand.New(rand.NewPCG(rng, rng>>1)))
		})
	}
	s.destroyed += int64(len(s.victims))
}

// attachRandom gives e between one and four of the simulation components.
func attachRandom(w *ecs.World, e ecs.Entity, rng *rand.Rand) error {
	pos := components.Vec3{X: rng.Float32() * 100, Y: rng.Float32() * 100, Z: rng.Float32() * 100}
	if err := ecs.Attach(w, e, components.NewTransform(pos)); err != nil {
		return err
	}
	if rng.IntN(2) == 0 {
		vel := components.Vec3{X: rng.Float32() - 0.5, Y: rng.Float32() * 5, Z: rng.Float32() - 0.5}
		if err := ecs.Attach(w, e, physics.NewParticle(vel, 0.99, 1+rng.Float32(), 10)); err != nil {
			return err
		}
	}
	if rng.IntN(3) == 0 {
		if err := ecs.Attach(w, e, components.Color{R: rng.Float32(), G: rng.Float32(), B: rng.Float32(), A: 1}); err != nil {
			return err
		}
	}
	if rng.IntN(4) == 0 {
		if err := ecs.Attach(w, e, components.NewMeshBinding(components.MeshID(rng.IntN(16)), ecs.NoEntity)); err != nil {
			return err
		}
	}
	return nil
}

// populateChains builds rods between consecutive particles in batches so the
// constraint solver has work to do.
func populateChains(w *ecs.World, rng *rand.Rand, chains, links int) error {
	for range chains {
		b := w.BeginBatch()
		origin := components.Vec3{X: rng.Float32() * 100, Y: 50, Z: rng.Float32() * 100}
		prev, err := physics.StageParticle(b, origin, physics.NewParticle(components.Vec3{}, 1, 0, 0))
		if err != nil {
			return err
		}
		for i := 1; i <= links; i++ {
			at := origin.Add(components.Vec3{X: float32(i)})
			next, err := physics.StageParticle(b, at, physics.NewParticle(components.Vec3{}, 0.98, 1, 10))
			if err != nil {
				return err
			}
			if _, err := physics.StageRod(b, prev, next, 1); err != nil {
				return err
			}
			prev = next
		}
		if _, err := b.Commit(); err != nil {
			return err
		}
	}
	return nil
}

func runStress(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Report, error) {
	sc := cfg.Stress
	rng := rand.New(rand.NewPCG(sc.Seed, sc.Seed^0x9e3779b97f4a7c15))

	w, err := newWorld(cfg.World, zap.NewNop())
	if err != nil {
		return nil, err
	}
	scheduler := ecs.NewScheduler(w)
	solver, err := physics.Install(scheduler, w, zap.NewNop())
	if err != nil {
		return nil, err
	}
	placed, err := ecs.SignatureOf[components.Transform](w)
	if err != nil {
		return nil, err
	}
	churn := &churnSystem{rng: rng, perFrame: sc.ChurnPerFrame}
	if _, err := scheduler.Register(churn, placed); err != nil {
		return nil, err
	}

	logger.Info("populating world", zap.Int("entities", sc.Entities))
	for range sc.Entities {
		e, err := w.CreateEntity()
		if err != nil {
			return nil, err
		}
		if err := attachRandom(w, e, rng); err != nil {
			return nil, err
		}
	}
	if err := populateChains(w, rng, max(sc.Entities/1000, 1), 8); err != nil {
		return nil, err
	}
	logger.Info("population complete", zap.Int("entities", w.Len()))

	report := &Report{
		Duration:       sc.Duration,
		Entities:       w.Len(),
		Components:     len(w.CollectStats().Components),
		Systems:        len(scheduler.GetStats().Systems),
		GCPauseMetrics: sc.GCPauseMetrics,
		UpdateTime: Stats{
			Samples: make([]time.Duration, 0),
		},
	}

	runtime.ReadMemStats(&report.MemStatsStart)

	logger.Info("running simulation", zap.Duration("duration", sc.Duration))
	ctx, cancel := context.WithTimeout(ctx, sc.Duration)
	defer cancel()

	startTime := time.Now()
	var totalUpdates int64
	lastFrameTime := time.Now()

Loop:
	for {
		select {
		case <-ctx.Done():
			break Loop
		default:
			deltaTime := time.Since(lastFrameTime)
			lastFrameTime = time.Now()

			updateStart := time.Now()
			if err := scheduler.Once(deltaTime.Seconds()); err != nil {
				return nil, err
			}
			updateDuration := time.Since(updateStart)

			report.UpdateTime.Samples = append(report.UpdateTime.Samples, updateDuration)
			totalUpdates++
		}
	}

	report.TotalTime = time.Since(startTime)
	report.TotalUpdates = totalUpdates
	report.UpdateTime.Finalize()
	runtime.ReadMemStats(&report.MemStatsEnd)

	report.FinalEntities = w.Len()
	report.Recycled = churn.destroyed
	report.BrokenConstraints = solver.Broken
	report.World = w.CollectStats()
	report.Scheduler = scheduler.GetStats()

	if err := w.Validate(); err != nil {
		return nil, err
	}
	logger.Info("simulation finished", zap.Int64("updates", totalUpdates))
	return report, nil
}
