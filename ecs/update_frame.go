package ecs

import "iter"

// UpdateFrame is handed to every System during one Scheduler tick.
type UpdateFrame struct {
	DeltaTime float64
	Commands  *Commands
	World     *World

	system SystemID
}

func newUpdateFrame(dt float64, w *World, commands *Commands) *UpdateFrame {
	return &UpdateFrame{
		DeltaTime: dt,
		Commands:  commands,
		World:     w,
	}
}

// System returns the id of the system currently executing.
func (f *UpdateFrame) System() SystemID {
	return f.system
}

// Entities yields the members of the executing system. Structural changes
// must go through Commands while it is being ranged.
func (f *UpdateFrame) Entities() iter.Seq[Entity] {
	seq, err := f.World.SystemEntities(f.system)
	if err != nil {
		inconsistency("executing system %d is not registered", f.system)
	}
	return seq
}
