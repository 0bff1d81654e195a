package physics

import (
	"math"

	"github.com/plus3/sigecs/ecs"
	"github.com/plus3/sigecs/internal/components"
	"go.uber.org/zap"
)

var down = components.Vec3{Y: -1}

// Integrator advances every particle by one explicit Euler step.
type Integrator struct {
	Logger *zap.Logger
}

func (s *Integrator) Execute(frame *ecs.UpdateFrame) {
	rows, err := ecs.Each2[components.Transform, Particle](frame.World, frame.System())
	if err != nil {
		debug(s.Logger, "integrator skipped frame", err)
		return
	}
	dt := float32(frame.DeltaTime)
	for _, row := range rows {
		integrate(row.A, row.B, dt)
	}
}

func debug(logger *zap.Logger, msg string, err error) {
	if logger != nil {
		logger.Debug(msg, zap.Error(err))
	}
}

func integrate(t *components.Transform, p *Particle, dt float32) {
	inv := p.InverseMass()
	if inv == 0 || dt <= 0 {
		p.ForceAccum = components.Vec3{}
		return
	}

	t.Pos = t.Pos.Add(p.Vel.Scale(dt))

	acc := p.Acc.Add(down.Scale(p.Gravity)).Add(p.ForceAccum.Scale(inv))
	p.Vel = p.Vel.Add(acc.Scale(dt))
	p.Vel = p.Vel.Scale(float32(math.Pow(float64(p.Damping), float64(dt))))
	p.ForceAccum = components.Vec3{}
}

// ConstraintSolver enforces every cable and rod once per frame. A constraint
// whose particles no longer exist is destroyed.
type ConstraintSolver struct {
	Logger *zap.Logger

	Broken int
}

type body struct {
	t *components.Transform
	p *Particle
}

func lookup(w *ecs.World, e ecs.Entity) (body, bool) {
	t, err := ecs.GetMut[components.Transform](w, e)
	if err != nil {
		return body{}, false
	}
	p, err := ecs.GetMut[Particle](w, e)
	if err != nil {
		return body{}, false
	}
	return body{t, p}, true
}

func (s *ConstraintSolver) Execute(frame *ecs.UpdateFrame) {
	members, err := frame.World.SystemEntities(frame.System())
	if err != nil {
		debug(s.Logger, "constraint solver skipped frame", err)
		return
	}
	for e := range members {
		if cable, err := ecs.Get[ParticleCable](frame.World, e); err == nil {
			if !s.solve(frame, e, cable.A, cable.B, func(a, b body) {
				solveCable(a, b, cable.MaxLength, cable.Restitution)
			}) {
				continue
			}
		}
		if rod, err := ecs.Get[ParticleRod](frame.World, e); err == nil {
			s.solve(frame, e, rod.A, rod.B, func(a, b body) {
				solveRod(a, b, rod.Length)
			})
		}
	}
}

// solve runs fn on the two endpoints, queueing constraint for destruction if
// either is gone.
func (s *ConstraintSolver) solve(frame *ecs.UpdateFrame, constraint, ea, eb ecs.Entity, fn func(a, b body)) bool {
	a, okA := lookup(frame.World, ea)
	b, okB := lookup(frame.World, eb)
	if !okA || !okB {
		frame.Commands.Destroy(constraint)
		s.Broken++
		if s.Logger != nil {
			s.Logger.Debug("constraint broken",
				zap.Stringer("constraint", constraint),
				zap.Stringer("a", ea),
				zap.Stringer("b", eb))
		}
		return false
	}
	fn(a, b)
	return true
}

func solveCable(a, b body, maxLength, restitution float32) {
	delta := b.t.Pos.Sub(a.t.Pos)
	length := delta.Len()
	if length <= maxLength {
		return
	}
	resolve(a, b, delta.Normalize(), length-maxLength, restitution)
}

func solveRod(a, b body, length float32) {
	delta := b.t.Pos.Sub(a.t.Pos)
	current := delta.Len()
	if current == length || current == 0 {
		return
	}
	n := delta.Normalize()
	if current > length {
		resolve(a, b, n, current-length, 0)
	} else {
		resolve(a, b, n.Scale(-1), length-current, 0)
	}
}

// resolve pulls b back toward a along n by penetration, splitting the
// correction by inverse mass, and removes their separating velocity along n.
func resolve(a, b body, n components.Vec3, penetration, restitution float32) {
	ia, ib := a.p.InverseMass(), b.p.InverseMass()
	total := ia + ib
	if total == 0 {
		return
	}

	separating := b.p.Vel.Sub(a.p.Vel).Dot(n)
	if separating > 0 {
		impulse := -(1 + restitution) * separating / total
		a.p.Vel = a.p.Vel.Sub(n.Scale(impulse * ia))
		b.p.Vel = b.p.Vel.Add(n.Scale(impulse * ib))
	}

	a.t.Pos = a.t.Pos.Add(n.Scale(penetration * ia / total))
	b.t.Pos = b.t.Pos.Sub(n.Scale(penetration * ib / total))
}

// Install registers the integrator and the constraint solver with s. The
// solver is interested in entities holding either a cable or a rod.
func Install(s *ecs.Scheduler, w *ecs.World, logger *zap.Logger) (*ConstraintSolver, error) {
	moving, err := ecs.Signature2[components.Transform, Particle](w)
	if err != nil {
		return nil, err
	}
	cable, err := ecs.SignatureOf[ParticleCable](w)
	if err != nil {
		return nil, err
	}
	rod, err := ecs.SignatureOf[ParticleRod](w)
	if err != nil {
		return nil, err
	}

	if _, err := s.Register(&Integrator{Logger: logger}, moving); err != nil {
		return nil, err
	}
	solver := &ConstraintSolver{Logger: logger}
	if _, err := s.Register(solver, cable, rod); err != nil {
		return nil, err
	}
	return solver, nil
}
