package ecs

import (
	"context"
	"reflect"
	"time"

	"go.uber.org/zap"
)

// SchedulerStats provides statistics about scheduler execution.
type SchedulerStats struct {
	SystemCount     int
	TotalExecutions int64
	Frames          int64
	Systems         []SystemStats
}

// SystemStats provides execution statistics for a single system.
type SystemStats struct {
	Name           string
	ID             SystemID
	Members        int
	ExecutionCount int64
	MinDuration    time.Duration
	MaxDuration    time.Duration
	AvgDuration    time.Duration
	LastDuration   time.Duration
	TotalDuration  time.Duration
}

type systemStatsInternal struct {
	name           string
	executionCount int64
	minDuration    time.Duration
	maxDuration    time.Duration
	totalDuration  time.Duration
	lastDuration   time.Duration
}

type scheduledSystem struct {
	id     SystemID
	system System
	stats  *systemStatsInternal
}

// Scheduler runs registered systems in registration order and applies their
// queued commands once all of them have executed.
type Scheduler struct {
	world    *World
	systems  []scheduledSystem
	commands *Commands
	frames   int64
}

// NewScheduler creates a new scheduler for the given world.
func NewScheduler(world *World) *Scheduler {
	return &Scheduler{
		world:    world,
		systems:  make([]scheduledSystem, 0),
		commands: NewCommands(),
	}
}

// Register adds system to the scheduler, interested in entities matching any
// of required.
func (s *Scheduler) Register(system System, required ...Signature) (SystemID, error) {
	id, err := s.world.NewSystem(required...)
	if err != nil {
		return 0, err
	}

	s.systems = append(s.systems, scheduledSystem{
		id:     id,
		system: system,
		stats: &systemStatsInternal{
			name:        systemName(system),
			minDuration: time.Duration(1<<63 - 1),
		},
	})
	return id, nil
}

func systemName(system System) string {
	systemType := reflect.TypeOf(system)
	if systemType.Kind() == reflect.Ptr {
		systemType = systemType.Elem()
	}
	if name := systemType.Name(); name != "" {
		return name
	}
	return systemType.String()
}

// Once executes all registered systems once with the given delta time, then
// flushes the commands they queued.
func (s *Scheduler) Once(dt float64) error {
	frame := newUpdateFrame(dt, s.world, s.commands)

	for _, sys := range s.systems {
		frame.system = sys.id

		start := time.Now()
		sys.system.Execute(frame)
		duration := time.Since(start)

		stats := sys.stats
		stats.executionCount++
		stats.lastDuration = duration
		stats.totalDuration += duration

		if duration < stats.minDuration {
			stats.minDuration = duration
		}
		if duration > stats.maxDuration {
			stats.maxDuration = duration
		}
	}
	s.frames++

	if err := s.commands.Flush(s.world); err != nil {
		s.world.logger.Warn("command flush failed", zap.Int64("frame", s.frames), zap.Error(err))
		return err
	}
	return nil
}

// Run executes all systems repeatedly at the given interval until the context
// is cancelled or a frame fails.
func (s *Scheduler) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	lastTime := time.Now()

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			dt := now.Sub(lastTime).Seconds()
			lastTime = now
			if err := s.Once(dt); err != nil {
				return err
			}
		}
	}
}

// GetStats returns statistics about system execution.
func (s *Scheduler) GetStats() *SchedulerStats {
	stats := &SchedulerStats{
		SystemCount: len(s.systems),
		Frames:      s.frames,
		Systems:     make([]SystemStats, len(s.systems)),
	}

	var totalExecs int64
	for i, sys := range s.systems {
		internal := sys.stats
		avgDuration := time.Duration(0)
		if internal.executionCount > 0 {
			avgDuration = internal.totalDuration / time.Duration(internal.executionCount)
		}
		members, _ := s.world.SystemLen(sys.id)

		stats.Systems[i] = SystemStats{
			Name:           internal.name,
			ID:             sys.id,
			Members:        members,
			ExecutionCount: internal.executionCount,
			MinDuration:    internal.minDuration,
			MaxDuration:    internal.maxDuration,
			AvgDuration:    avgDuration,
			LastDuration:   internal.lastDuration,
			TotalDuration:  internal.totalDuration,
		}
		totalExecs += internal.executionCount
	}

	stats.TotalExecutions = totalExecs
	return stats
}
