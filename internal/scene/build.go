package scene

import (
	"maps"
	"slices"

	"github.com/plus3/sigecs/ecs"
	"github.com/plus3/sigecs/internal/components"
	"github.com/plus3/sigecs/internal/physics"
	"github.com/rotisserie/eris"
)

// Bindings maps scene names to the entities built for them.
type Bindings struct {
	byName   map[string]ecs.Entity
	byEntity map[ecs.Entity]string
}

func newBindings(n int) *Bindings {
	return &Bindings{
		byName:   make(map[string]ecs.Entity, n),
		byEntity: make(map[ecs.Entity]string, n),
	}
}

func (b *Bindings) bind(name string, e ecs.Entity) {
	b.byName[name] = e
	b.byEntity[e] = name
}

// Entity returns the entity bound to name.
func (b *Bindings) Entity(name string) (ecs.Entity, bool) {
	e, ok := b.byName[name]
	return e, ok
}

// Name returns the scene name of e.
func (b *Bindings) Name(e ecs.Entity) (string, bool) {
	name, ok := b.byEntity[e]
	return name, ok
}

// Len returns the number of bound names.
func (b *Bindings) Len() int {
	return len(b.byName)
}

// Names returns the bound names in sorted order.
func (b *Bindings) Names() []string {
	return slices.Sorted(maps.Keys(b.byName))
}

// Remove destroys the entity bound to name and forgets the binding.
func (b *Bindings) Remove(w *ecs.World, name string) error {
	e, ok := b.byName[name]
	if !ok {
		return eris.Wrapf(ErrUnknownNode, "remove %q", name)
	}
	if err := w.DestroyEntity(e); err != nil && !eris.Is(err, ecs.ErrNotFound) {
		return err
	}
	delete(b.byName, name)
	delete(b.byEntity, e)
	return nil
}

// Prune forgets bindings whose entity has been destroyed by other means.
func (b *Bindings) Prune(w *ecs.World) int {
	pruned := 0
	for name, e := range b.byName {
		if !w.Alive(e) {
			delete(b.byName, name)
			delete(b.byEntity, e)
			pruned++
		}
	}
	return pruned
}

// Build creates every node and constraint of s in w as one batch, so
// references between them resolve at commit. Unnamed constraints are built
// but not bound.
func Build(w *ecs.World, s *Scene) (*Bindings, error) {
	batch := w.BeginBatch()
	ids := make(map[string]ecs.ProvisionalEntity, len(s.Nodes)+len(s.Constraints))
	for _, n := range s.Nodes {
		ids[n.Name] = batch.NewProvisional()
	}

	for _, n := range s.Nodes {
		if err := stageNode(batch, ids, n); err != nil {
			return nil, eris.Wrapf(err, "node %q", n.Name)
		}
	}

	named := make(map[ecs.ProvisionalEntity]string, len(ids))
	for name, p := range ids {
		named[p] = name
	}
	for _, c := range s.Constraints {
		p, err := stageConstraint(batch, ids, c)
		if err != nil {
			return nil, eris.Wrapf(err, "%s %s-%s", c.Kind, c.A, c.B)
		}
		if c.Name != "" {
			named[p] = c.Name
		}
	}

	m, err := batch.Commit()
	if err != nil {
		return nil, eris.Wrapf(err, "commit scene %q", s.Name)
	}

	b := newBindings(len(named))
	for p, name := range named {
		b.bind(name, m.Resolve(p))
	}
	return b, nil
}

func stageNode(batch *ecs.Batch, ids map[string]ecs.ProvisionalEntity, n Node) error {
	p := ids[n.Name]
	if n.Transform != nil {
		t := components.Transform{
			Pos:   vec(n.Transform.Pos, 0),
			Rot:   vec(n.Transform.Rot, 0),
			Scale: vec(n.Transform.Scale, 1),
		}
		if err := ecs.Stage(batch, p, t); err != nil {
			return err
		}
	}
	if n.Color != nil {
		if err := ecs.Stage(batch, p, color(n.Color)); err != nil {
			return err
		}
	}
	if n.Mesh != nil {
		binding := components.NewMeshBinding(components.MeshID(n.Mesh.ID), ecs.NoEntity)
		if n.Mesh.Wrapper != "" {
			binding = components.NewProvisionalMeshBinding(components.MeshID(n.Mesh.ID), ids[n.Mesh.Wrapper])
		}
		if err := ecs.Stage(batch, p, binding); err != nil {
			return err
		}
	}
	if n.Particle != nil {
		if err := ecs.Stage(batch, p, particle(n.Particle)); err != nil {
			return err
		}
	}
	return nil
}

func stageConstraint(batch *ecs.Batch, ids map[string]ecs.ProvisionalEntity, c Constraint) (ecs.ProvisionalEntity, error) {
	switch c.Kind {
	case "cable":
		return physics.StageCable(batch, ids[c.A], ids[c.B], c.Length, c.Restitution)
	case "rod":
		return physics.StageRod(batch, ids[c.A], ids[c.B], c.Length)
	}
	return ecs.NoProvisional, eris.Wrapf(ErrBadConstraint, "kind %q", c.Kind)
}

func vec(v []float32, fill float32) components.Vec3 {
	out := [3]float32{fill, fill, fill}
	copy(out[:], v)
	return components.Vec3{X: out[0], Y: out[1], Z: out[2]}
}

func color(v []float32) components.Color {
	out := [4]float32{1, 1, 1, 1}
	copy(out[:], v)
	return components.Color{R: out[0], G: out[1], B: out[2], A: out[3]}
}

func particle(spec *ParticleSpec) physics.Particle {
	p := physics.DefaultParticle()
	p.Vel = vec(spec.Vel, 0)
	if spec.Damping != nil {
		p.Damping = *spec.Damping
	}
	if spec.Mass != nil {
		p.Mass = *spec.Mass
	}
	if spec.Gravity != nil {
		p.Gravity = *spec.Gravity
	}
	return p
}
