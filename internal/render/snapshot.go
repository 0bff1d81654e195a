// Package render hands immutable per-frame snapshots of the visible world to
// a renderer running on its own goroutine.
package render

import (
	"github.com/plus3/sigecs/ecs"
	"github.com/plus3/sigecs/internal/components"
	"go.uber.org/zap"
)

// Instance is one drawable entity as it was at the end of a frame.
type Instance struct {
	Entity    ecs.Entity
	Mesh      components.MeshID
	Transform components.Transform
	Color     components.Color
}

// Snapshot is everything the renderer needs for one frame. It shares no
// memory with the World.
type Snapshot struct {
	Frame     uint64
	DeltaTime float64
	Instances []Instance
}

// BuildSnapshot copies every member of system that has a Transform and a
// MeshBinding. Members without a Color are drawn White.
func BuildSnapshot(w *ecs.World, system ecs.SystemID, frame uint64) (*Snapshot, error) {
	rows, err := ecs.Each2[components.Transform, components.MeshBinding](w, system)
	if err != nil {
		return nil, err
	}
	n, _ := w.SystemLen(system)

	snap := &Snapshot{Frame: frame, Instances: make([]Instance, 0, n)}
	for e, row := range rows {
		color, err := ecs.Get[components.Color](w, e)
		if err != nil {
			color = components.White
		}
		snap.Instances = append(snap.Instances, Instance{
			Entity:    e,
			Mesh:      row.B.ID,
			Transform: *row.A,
			Color:     color,
		})
	}
	return snap, nil
}

// SnapshotSystem publishes a snapshot of its members to Renderer every frame.
type SnapshotSystem struct {
	Renderer *Renderer

	frame uint64
}

func (s *SnapshotSystem) Execute(frame *ecs.UpdateFrame) {
	s.frame++
	snap, err := BuildSnapshot(frame.World, frame.System(), s.frame)
	if err != nil {
		s.Renderer.logger.Debug("snapshot skipped", zap.Uint64("frame", s.frame), zap.Error(err))
		return
	}
	snap.DeltaTime = frame.DeltaTime
	s.Renderer.Submit(snap)
}

// Install registers a SnapshotSystem feeding r, interested in every entity
// with a Transform and a MeshBinding.
func Install(s *ecs.Scheduler, w *ecs.World, r *Renderer) (ecs.SystemID, error) {
	drawable, err := ecs.Signature2[components.Transform, components.MeshBinding](w)
	if err != nil {
		return 0, err
	}
	return s.Register(&SnapshotSystem{Renderer: r}, drawable)
}
