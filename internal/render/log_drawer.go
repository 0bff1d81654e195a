package render

import (
	"context"

	"go.uber.org/zap"
)

// LogDrawer stands in for a graphics backend by logging a summary of every
// snapshot it receives.
type LogDrawer struct {
	Logger *zap.Logger

	// Every limits logging to one snapshot in Every. Zero logs all of them.
	Every uint64
}

func (d *LogDrawer) Draw(_ context.Context, snap *Snapshot) error {
	if d.Every > 1 && snap.Frame%d.Every != 0 {
		return nil
	}
	d.Logger.Info("frame",
		zap.Uint64("frame", snap.Frame),
		zap.Int("instances", len(snap.Instances)),
		zap.Float64("dt", snap.DeltaTime))
	return nil
}
