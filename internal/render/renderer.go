package render

import (
	"context"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Drawer consumes snapshots on the renderer goroutine.
type Drawer interface {
	Draw(ctx context.Context, snap *Snapshot) error
}

// Renderer decouples the simulation from drawing. Submit never blocks: the
// renderer only ever sees the most recent snapshot, older ones are dropped.
type Renderer struct {
	frames chan *Snapshot
	drawer Drawer
	logger *zap.Logger

	drawn   atomic.Int64
	dropped atomic.Int64
}

func NewRenderer(drawer Drawer, logger *zap.Logger) *Renderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Renderer{
		frames: make(chan *Snapshot, 1),
		drawer: drawer,
		logger: logger,
	}
}

// Submit hands snap to the renderer, replacing any snapshot it has not picked
// up yet. Only one goroutine may submit.
func (r *Renderer) Submit(snap *Snapshot) {
	select {
	case r.frames <- snap:
		return
	default:
	}

	select {
	case <-r.frames:
		r.dropped.Add(1)
	default:
	}

	select {
	case r.frames <- snap:
	default:
		r.dropped.Add(1)
	}
}

// Close tells Run that no more snapshots are coming. The pending one is
// still drawn.
func (r *Renderer) Close() {
	close(r.frames)
}

// Run draws snapshots until Close is called or ctx is cancelled.
func (r *Renderer) Run(ctx context.Context) error {
	defer r.logger.Debug("renderer stopped",
		zap.Int64("drawn", r.drawn.Load()),
		zap.Int64("dropped", r.dropped.Load()))

	for {
		select {
		case <-ctx.Done():
			return nil
		case snap, ok := <-r.frames:
			if !ok {
				return nil
			}
			if err := r.drawer.Draw(ctx, snap); err != nil {
				return eris.Wrapf(err, "draw frame %d", snap.Frame)
			}
			r.drawn.Add(1)
		}
	}
}

// Drawn returns the number of snapshots drawn so far.
func (r *Renderer) Drawn() int64 {
	return r.drawn.Load()
}

// Dropped returns the number of snapshots replaced before being drawn.
func (r *Renderer) Dropped() int64 {
	return r.dropped.Load()
}
