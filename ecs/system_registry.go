package ecs

import (
	"iter"
	"slices"

	"github.com/kamstrup/intmap"
	"github.com/rotisserie/eris"
)

// SystemID identifies a registered system.
type SystemID uint32

// membership is the live set of entities matching one system, kept as a
// sparse set: members is dense and position maps an entity back to its slot.
type membership struct {
	id       SystemID
	required []Signature
	members  []Entity
	position *intmap.Map[Entity, int]
}

func newMembership(id SystemID, required []Signature) *membership {
	return &membership{
		id:       id,
		required: required,
		members:  make([]Entity, 0, 64),
		position: intmap.New[Entity, int](64),
	}
}

func (m *membership) add(e Entity) {
	if m.position.Has(e) {
		return
	}
	m.position.Put(e, len(m.members))
	m.members = append(m.members, e)
}

func (m *membership) remove(e Entity) {
	pos, ok := m.position.Get(e)
	if !ok {
		return
	}
	last := len(m.members) - 1
	if pos != last {
		moved := m.members[last]
		m.members[pos] = moved
		m.position.Put(moved, pos)
	}
	m.members = m.members[:last]
	m.position.Del(e)
}

func (m *membership) update(e Entity, sig Signature) {
	if matchesAny(sig, m.required) {
		m.add(e)
	} else {
		m.remove(e)
	}
}

// SystemRegistry tracks, for every registered system, the entities whose
// signature matches at least one of its required signatures. Membership is
// maintained incrementally; the only full scan happens at registration.
type SystemRegistry struct {
	systems   []*membership
	byID      *intmap.Map[SystemID, int]
	nextID    SystemID
	iterating int
}

// NewSystemRegistry creates an empty registry.
func NewSystemRegistry() *SystemRegistry {
	return &SystemRegistry{
		systems: make([]*membership, 0, 16),
		byID:    intmap.New[SystemID, int](16),
	}
}

// Register adds a system interested in any of required, seeding its
// membership from live. A system registered with no signatures never matches.
func (r *SystemRegistry) Register(id SystemID, required []Signature, live iter.Seq2[Entity, Signature]) error {
	if r.byID.Has(id) {
		return eris.Wrapf(ErrAlreadyRegistered, "system %d", id)
	}

	required = slices.Clone(required)
	slices.Sort(required)
	required = slices.Compact(required)

	m := newMembership(id, required)
	if live != nil {
		for e, sig := range live {
			m.update(e, sig)
		}
	}

	r.byID.Put(id, len(r.systems))
	r.systems = append(r.systems, m)
	if id >= r.nextID {
		r.nextID = id + 1
	}
	return nil
}

// NextID returns an id greater than every id registered so far.
func (r *SystemRegistry) NextID() SystemID {
	return r.nextID
}

func (r *SystemRegistry) lookup(id SystemID) (*membership, error) {
	idx, ok := r.byID.Get(id)
	if !ok {
		return nil, eris.Wrapf(ErrNotRegistered, "system %d", id)
	}
	return r.systems[idx], nil
}

// OnEntitySignatureChanged re-evaluates e against every system.
func (r *SystemRegistry) OnEntitySignatureChanged(e Entity, sig Signature) {
	for _, m := range r.systems {
		m.update(e, sig)
	}
}

// OnEntityDestroyed drops e from every system.
func (r *SystemRegistry) OnEntityDestroyed(e Entity) {
	for _, m := range r.systems {
		m.remove(e)
	}
}

// Entities returns a restartable sequence over the members of system id.
// While it is being ranged over, Iterating reports true.
func (r *SystemRegistry) Entities(id SystemID) (iter.Seq[Entity], error) {
	m, err := r.lookup(id)
	if err != nil {
		return nil, err
	}
	return func(yield func(Entity) bool) {
		r.iterating++
		defer func() { r.iterating-- }()
		for _, e := range m.members {
			if !yield(e) {
				return
			}
		}
	}, nil
}

// Iterating reports whether any membership sequence is currently being ranged.
func (r *SystemRegistry) Iterating() bool {
	return r.iterating > 0
}

// Contains reports whether e is a member of system id.
func (r *SystemRegistry) Contains(id SystemID, e Entity) bool {
	idx, ok := r.byID.Get(id)
	if !ok {
		return false
	}
	return r.systems[idx].position.Has(e)
}

// Len returns the member count of system id.
func (r *SystemRegistry) Len(id SystemID) (int, error) {
	m, err := r.lookup(id)
	if err != nil {
		return 0, err
	}
	return len(m.members), nil
}

// Required returns the deduplicated required signatures of system id.
func (r *SystemRegistry) Required(id SystemID) ([]Signature, error) {
	m, err := r.lookup(id)
	if err != nil {
		return nil, err
	}
	return slices.Clone(m.required), nil
}

// IDs returns the registered system ids in registration order.
func (r *SystemRegistry) IDs() []SystemID {
	ids := make([]SystemID, len(r.systems))
	for i, m := range r.systems {
		ids[i] = m.id
	}
	return ids
}
