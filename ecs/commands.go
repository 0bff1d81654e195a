package ecs

import (
	"go.uber.org/multierr"
)

// Commands buffers structural changes requested while systems are iterating
// and applies them to the World at the end of the frame.
type Commands struct {
	spawns   []spawnCommand
	destroys []Entity
	attaches []entityCommand
	detaches []entityCommand
	defers   []func()
}

// NewCommands creates an empty buffer.
func NewCommands() *Commands {
	return &Commands{}
}

type spawnCommand struct {
	build func(w *World, e Entity) error
}

type entityCommand struct {
	entity Entity
	apply  func(w *World) error
}

// Defer queues fn to run after every other queued command.
func (c *Commands) Defer(fn func()) {
	c.defers = append(c.defers, fn)
}

// Spawn queues the creation of an entity. build receives the new entity and
// attaches its components; if it fails the entity is destroyed again.
func (c *Commands) Spawn(build func(w *World, e Entity) error) {
	c.spawns = append(c.spawns, spawnCommand{build: build})
}

// Destroy queues the destruction of e.
func (c *Commands) Destroy(e Entity) {
	c.destroys = append(c.destroys, e)
}

// QueueAttach queues Attach[T](w, e, value).
func QueueAttach[T any](c *Commands, e Entity, value T) {
	c.attaches = append(c.attaches, entityCommand{
		entity: e,
		apply: func(w *World) error {
			return Attach(w, e, value)
		},
	})
}

// QueueDetach queues Detach[T](w, e).
func QueueDetach[T any](c *Commands, e Entity) {
	c.detaches = append(c.detaches, entityCommand{
		entity: e,
		apply: func(w *World) error {
			return Detach[T](w, e)
		},
	})
}

// Len returns the number of queued commands.
func (c *Commands) Len() int {
	return len(c.spawns) + len(c.destroys) + len(c.attaches) + len(c.detaches) + len(c.defers)
}

// Flush applies the queued commands and resets the buffer. Destroys run
// first, then detaches, attaches, spawns and deferred functions. Commands
// targeting an entity destroyed by this flush are dropped. Every failure is
// collected and returned together.
func (c *Commands) Flush(w *World) error {
	var errs error
	destroyed := make(map[Entity]struct{}, len(c.destroys))

	for _, e := range c.destroys {
		if _, ok := destroyed[e]; ok {
			continue
		}
		destroyed[e] = struct{}{}
		errs = multierr.Append(errs, w.DestroyEntity(e))
	}

	for _, cmd := range c.detaches {
		if _, ok := destroyed[cmd.entity]; !ok {
			errs = multierr.Append(errs, cmd.apply(w))
		}
	}

	for _, cmd := range c.attaches {
		if _, ok := destroyed[cmd.entity]; !ok {
			errs = multierr.Append(errs, cmd.apply(w))
		}
	}

	for _, cmd := range c.spawns {
		e, err := w.CreateEntity()
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		if err := cmd.build(w, e); err != nil {
			errs = multierr.Append(errs, err)
			errs = multierr.Append(errs, w.DestroyEntity(e))
		}
	}

	for _, fn := range c.defers {
		fn()
	}

	c.spawns = c.spawns[:0]
	c.destroys = c.destroys[:0]
	c.attaches = c.attaches[:0]
	c.detaches = c.detaches[:0]
	c.defers = c.defers[:0]
	return errs
}
