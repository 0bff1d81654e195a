// Package physics simulates point masses linked by cables and rods. Particles
// and constraints are plain components; constraints live on their own
// entities and reference the particles they join.
package physics

import (
	"github.com/plus3/sigecs/ecs"
	"github.com/plus3/sigecs/internal/components"
	"github.com/rotisserie/eris"
)

// Particle is a point mass moved by the integrator. A Mass of zero makes the
// particle immovable.
type Particle struct {
	Vel        components.Vec3
	Acc        components.Vec3
	ForceAccum components.Vec3
	Damping    float32
	Mass       float32
	Gravity    float32
}

// NewParticle returns a particle with velocity vel.
func NewParticle(vel components.Vec3, damping, mass, gravity float32) Particle {
	return Particle{Vel: vel, Damping: damping, Mass: mass, Gravity: gravity}
}

// DefaultParticle is a unit mass under standard gravity with no damping.
func DefaultParticle() Particle {
	return Particle{Damping: 1, Mass: 1, Gravity: 10}
}

// InverseMass returns 1/Mass, or 0 for an immovable particle.
func (p *Particle) InverseMass() float32 {
	if p.Mass <= 0 {
		return 0
	}
	return 1 / p.Mass
}

func (p *Particle) AddForce(f components.Vec3) {
	p.ForceAccum = p.ForceAccum.Add(f)
}

// ParticleCable keeps two particles from drifting further apart than
// MaxLength, bouncing them back with Restitution.
type ParticleCable struct {
	A, B        ecs.Entity
	MaxLength   float32
	Restitution float32

	provA, provB ecs.ProvisionalEntity
}

func NewParticleCable(a, b ecs.Entity, maxLength, restitution float32) ParticleCable {
	return ParticleCable{A: a, B: b, MaxLength: maxLength, Restitution: restitution}
}

// NewProvisionalParticleCable joins two particles of the same batch.
func NewProvisionalParticleCable(a, b ecs.ProvisionalEntity, maxLength, restitution float32) ParticleCable {
	return ParticleCable{provA: a, provB: b, MaxLength: maxLength, Restitution: restitution}
}

func (c *ParticleCable) ResolveProvisional(m *ecs.ProvisionalMapping) {
	if c.provA != ecs.NoProvisional {
		c.A = m.Resolve(c.provA)
		c.provA = ecs.NoProvisional
	}
	if c.provB != ecs.NoProvisional {
		c.B = m.Resolve(c.provB)
		c.provB = ecs.NoProvisional
	}
}

// ParticleRod holds two particles at exactly Length apart.
type ParticleRod struct {
	A, B   ecs.Entity
	Length float32

	provA, provB ecs.ProvisionalEntity
}

func NewParticleRod(a, b ecs.Entity, length float32) ParticleRod {
	return ParticleRod{A: a, B: b, Length: length}
}

func NewProvisionalParticleRod(a, b ecs.ProvisionalEntity, length float32) ParticleRod {
	return ParticleRod{provA: a, provB: b, Length: length}
}

func (r *ParticleRod) ResolveProvisional(m *ecs.ProvisionalMapping) {
	if r.provA != ecs.NoProvisional {
		r.A = m.Resolve(r.provA)
		r.provA = ecs.NoProvisional
	}
	if r.provB != ecs.NoProvisional {
		r.B = m.Resolve(r.provB)
		r.provB = ecs.NoProvisional
	}
}

// Register registers the physics components with w. The shared components
// must already be registered.
func Register(w *ecs.World) error {
	if _, err := ecs.RegisterComponent[Particle](w); err != nil {
		return eris.Wrap(err, "register Particle")
	}
	if _, err := ecs.RegisterComponent[ParticleCable](w); err != nil {
		return eris.Wrap(err, "register ParticleCable")
	}
	if _, err := ecs.RegisterComponent[ParticleRod](w); err != nil {
		return eris.Wrap(err, "register ParticleRod")
	}
	return nil
}

// StageParticle adds a particle at pos to b and returns its provisional id.
func StageParticle(b *ecs.Batch, pos components.Vec3, p Particle) (ecs.ProvisionalEntity, error) {
	id := b.NewProvisional()
	if err := ecs.Stage(b, id, components.NewTransform(pos)); err != nil {
		return ecs.NoProvisional, err
	}
	if err := ecs.Stage(b, id, p); err != nil {
		return ecs.NoProvisional, err
	}
	return id, nil
}

// StageCable adds a cable entity joining a and c to b.
func StageCable(b *ecs.Batch, a, c ecs.ProvisionalEntity, maxLength, restitution float32) (ecs.ProvisionalEntity, error) {
	id := b.NewProvisional()
	if err := ecs.Stage(b, id, NewProvisionalParticleCable(a, c, maxLength, restitution)); err != nil {
		return ecs.NoProvisional, err
	}
	return id, nil
}

// StageRod adds a rod entity joining a and c to b.
func StageRod(b *ecs.Batch, a, c ecs.ProvisionalEntity, length float32) (ecs.ProvisionalEntity, error) {
	id := b.NewProvisional()
	if err := ecs.Stage(b, id, NewProvisionalParticleRod(a, c, length)); err != nil {
		return ecs.NoProvisional, err
	}
	return id, nil
}
