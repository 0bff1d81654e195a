package ecs_test

import (
	"fmt"

	"github.com/plus3/sigecs/ecs"
)

type CleanupSystem struct{}

func (s *CleanupSystem) Execute(frame *ecs.UpdateFrame) {
	deadCount := 0
	rows, _ := ecs.Each1[Hitpoints](frame.World, frame.System())
	for id, hp := range rows {
		if hp.Current <= 0 {
			frame.Commands.Destroy(id)
			deadCount++
		}
	}
	if deadCount > 0 {
		fmt.Printf("Queued %d dead entities for deletion\n", deadCount)
	}
}

// ExampleCommands demonstrates using command buffers to defer entity
// mutations. The World rejects structural changes while a system's members
// are being ranged, so systems queue them and the Scheduler applies them at
// the end of the frame.
func ExampleCommands() {
	w := ecs.NewWorld()
	ecs.RegisterComponent[Transform](w)
	ecs.RegisterComponent[Hitpoints](w)

	for i, hp := range []int{0, 50, 100} {
		e, _ := w.CreateEntity()
		ecs.Attach(w, e, Transform{X: float32(i * 10), Y: float32(i * 10)})
		ecs.Attach(w, e, Hitpoints{Current: hp, Max: 100})
	}

	healthy, _ := ecs.SignatureOf[Hitpoints](w)
	scheduler := ecs.NewScheduler(w)
	scheduler.Register(&CleanupSystem{}, healthy)

	scheduler.Once(1.0)

	fmt.Printf("Remaining entities: %d\n", w.Len())

	// Output:
	// Queued 1 dead entities for deletion
	// Remaining entities: 2
}

type ShootTimer struct {
	TimeUntilShot float32
}

type ShootingSystem struct{}

func (s *ShootingSystem) Execute(frame *ecs.UpdateFrame) {
	rows, _ := ecs.Each3[Transform, Speed, ShootTimer](frame.World, frame.System())
	for _, item := range rows {
		if item.C.TimeUntilShot > 0 {
			continue
		}
		at, dir := *item.A, *item.B
		frame.Commands.Spawn(func(w *ecs.World, e ecs.Entity) error {
			if err := ecs.Attach(w, e, at); err != nil {
				return err
			}
			return ecs.Attach(w, e, Speed{DX: dir.DX * 2, DY: dir.DY * 2})
		})
		fmt.Printf("Spawned projectile at (%.0f, %.0f)\n", at.X, at.Y)
		item.C.TimeUntilShot = 10
	}
}

// ExampleCommands_spawning shows spawning entities from inside a system. The
// spawn callback runs after iteration completes and receives the new entity.
func ExampleCommands_spawning() {
	w := ecs.NewWorld()
	ecs.RegisterComponent[Transform](w)
	ecs.RegisterComponent[Speed](w)
	ecs.RegisterComponent[ShootTimer](w)

	for _, timer := range []float32{0, 5} {
		e, _ := w.CreateEntity()
		ecs.Attach(w, e, Transform{X: 10, Y: 10})
		ecs.Attach(w, e, Speed{DX: 1, DY: 0})
		ecs.Attach(w, e, ShootTimer{TimeUntilShot: timer})
	}

	shooters, _ := ecs.Signature3[Transform, Speed, ShootTimer](w)
	scheduler := ecs.NewScheduler(w)
	scheduler.Register(&ShootingSystem{}, shooters)

	scheduler.Once(1.0)

	moving, _ := ecs.Signature2[Transform, Speed](w)
	id, _ := w.NewSystem(moving)
	count, _ := w.SystemLen(id)
	fmt.Printf("Total entities with speed: %d\n", count)

	// Output:
	// Spawned projectile at (10, 10)
	// Total entities with speed: 3
}
