package ecs

import (
	"fmt"
	"reflect"

	"github.com/kamstrup/intmap"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ProvisionalEntity names an entity inside a Batch before it exists. It is
// only meaningful to the batch that issued it.
type ProvisionalEntity uint32

// NoProvisional is never issued by a Batch.
const NoProvisional ProvisionalEntity = 0

func (p ProvisionalEntity) String() string {
	return fmt.Sprintf("Provisional(%d)", uint32(p))
}

// ProvisionalResolver is implemented by components that reference other
// entities of the same batch. ResolveProvisional is called exactly once, on
// the staged copy, after every provisional id has a real Entity and before
// the component is attached. It must have a pointer receiver; Stage rejects
// component types whose values implement it.
type ProvisionalResolver interface {
	ResolveProvisional(m *ProvisionalMapping)
}

// ProvisionalMapping maps the provisional ids of one committed batch to the
// entities created for them.
type ProvisionalMapping struct {
	entities *intmap.Map[ProvisionalEntity, Entity]
}

func newProvisionalMapping(n int) *ProvisionalMapping {
	return &ProvisionalMapping{entities: intmap.New[ProvisionalEntity, Entity](max(n, 1))}
}

// Lookup returns the entity created for p.
func (m *ProvisionalMapping) Lookup(p ProvisionalEntity) (Entity, bool) {
	return m.entities.Get(p)
}

// Resolve returns the entity created for p. A reference to a provisional id
// the batch never mapped is a programming error and panics.
func (m *ProvisionalMapping) Resolve(p ProvisionalEntity) Entity {
	e, ok := m.entities.Get(p)
	if !ok {
		inconsistency("unresolved reference to %s", p)
	}
	return e
}

// Len returns the number of mapped provisional ids.
func (m *ProvisionalMapping) Len() int {
	return m.entities.Len()
}

type stageKey struct {
	owner ProvisionalEntity
	typ   reflect.Type
}

type stagedComponent struct {
	owner ProvisionalEntity
	typ   reflect.Type

	// apply resolves the staged value against m, inserts it for e and returns
	// the bit to set. The signature is left to the caller.
	apply func(w *World, m *ProvisionalMapping, e Entity) Signature
}

// Batch assembles a group of entities that may reference each other before
// any of them exists. Nothing is visible to the World until Commit.
type Batch struct {
	world     *World
	next      ProvisionalEntity
	staged    []stagedComponent
	seen      map[stageKey]struct{}
	committed bool
}

// BeginBatch starts an empty batch against w.
func (w *World) BeginBatch() *Batch {
	return &Batch{
		world: w,
		seen:  make(map[stageKey]struct{}),
	}
}

// NewProvisional issues the next provisional id, starting at 1.
func (b *Batch) NewProvisional() ProvisionalEntity {
	b.next++
	return b.next
}

// Len returns the number of provisional ids issued.
func (b *Batch) Len() int {
	return int(b.next)
}

// Stage records value as a component of p. If *T implements
// ProvisionalResolver it is resolved at commit time.
func Stage[T any](b *Batch, p ProvisionalEntity, value T) error {
	if b.committed {
		return ErrBatchCommitted
	}
	if _, ok := any(value).(ProvisionalResolver); ok {
		return eris.Wrapf(ErrValueResolver, "stage %T", value)
	}
	if p == NoProvisional || p > b.next {
		return eris.Wrapf(ErrNotFound, "stage %T on %s", value, p)
	}
	if _, _, err := storeOf[T](b.world.components); err != nil {
		return err
	}

	key := stageKey{owner: p, typ: reflect.TypeFor[T]()}
	if _, ok := b.seen[key]; ok {
		return eris.Wrapf(ErrAlreadyAttached, "%T already staged on %s", value, p)
	}
	b.seen[key] = struct{}{}

	b.staged = append(b.staged, stagedComponent{
		owner: p,
		typ:   key.typ,
		apply: func(w *World, m *ProvisionalMapping, e Entity) Signature {
			v := value
			if r, ok := any(&v).(ProvisionalResolver); ok {
				r.ResolveProvisional(m)
			}
			bit, err := attach(w.components, e, v)
			if err != nil {
				inconsistency("attach of staged %s on %s failed: %v", key.typ, e, err)
			}
			return bit
		},
	})
	return nil
}

// Commit creates one entity per provisional id, resolves every staged
// component against the resulting mapping and attaches it. Systems are
// notified only once every component of the batch is in place. If the World
// runs out of capacity the entities created so far are released and nothing
// is attached.
func (b *Batch) Commit() (*ProvisionalMapping, error) {
	if b.committed {
		return nil, ErrBatchCommitted
	}
	w := b.world
	if err := w.checkMutable("commit batch"); err != nil {
		return nil, err
	}

	created := make([]Entity, 0, b.next)
	for range b.next {
		e, err := w.entities.Create()
		if err != nil {
			for _, c := range created {
				if derr := w.entities.Destroy(c); derr != nil {
					inconsistency("rollback of %s failed: %v", c, derr)
				}
			}
			w.logger.Warn("batch commit rolled back",
				zap.Int("provisional", int(b.next)),
				zap.Int("created", len(created)),
				zap.Error(err))
			return nil, err
		}
		created = append(created, e)
	}

	m := newProvisionalMapping(len(created))
	for i, e := range created {
		m.entities.Put(ProvisionalEntity(i+1), e)
	}

	sigs := make([]Signature, len(created))
	for _, s := range b.staged {
		idx := int(s.owner) - 1
		sigs[idx] |= s.apply(w, m, created[idx])
	}
	for i, e := range created {
		w.setSignature(e, sigs[i])
	}

	b.committed = true
	w.logger.Debug("batch committed",
		zap.Int("entities", len(created)),
		zap.Int("components", len(b.staged)))
	return m, nil
}

// CommitMapped attaches the staged components to entities chosen by the
// caller. Every provisional id that owns a staged component must map to a
// live entity that does not already carry that component type; otherwise
// nothing is applied.
func (b *Batch) CommitMapped(mapping map[ProvisionalEntity]Entity) error {
	if b.committed {
		return ErrBatchCommitted
	}
	w := b.world
	if err := w.checkMutable("commit batch"); err != nil {
		return err
	}

	type target struct {
		e   Entity
		typ reflect.Type
	}
	claimed := make(map[target]struct{}, len(b.staged))
	for _, s := range b.staged {
		e, ok := mapping[s.owner]
		if !ok || !w.entities.Alive(e) {
			return eris.Wrapf(ErrNotFound, "%s is not mapped to a live entity", s.owner)
		}
		sig, _ := w.entities.Signature(e)
		bit, _ := w.components.SignatureOfType(s.typ)
		t := target{e: e, typ: s.typ}
		if _, dup := claimed[t]; dup || sig.Contains(bit) {
			return eris.Wrapf(ErrAlreadyAttached, "%s on %s", s.typ, e)
		}
		claimed[t] = struct{}{}
	}

	m := newProvisionalMapping(len(mapping))
	for p, e := range mapping {
		m.entities.Put(p, e)
	}

	order := make([]Entity, 0, len(mapping))
	added := make(map[Entity]Signature, len(mapping))
	for _, s := range b.staged {
		e := m.Resolve(s.owner)
		if _, ok := added[e]; !ok {
			order = append(order, e)
		}
		added[e] |= s.apply(w, m, e)
	}
	for _, e := range order {
		sig, _ := w.entities.Signature(e)
		w.setSignature(e, sig|added[e])
	}

	b.committed = true
	w.logger.Debug("batch committed onto existing entities",
		zap.Int("entities", len(order)),
		zap.Int("components", len(b.staged)))
	return nil
}
