package ecs

import (
	"iter"
	"reflect"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// World composes the entity registry, the component manager and the system
// registry into the single mutation and query surface.
//
// A World is not safe for concurrent use. Structural mutations (creating or
// destroying entities, attaching or detaching components, registering
// systems, committing batches) fail with ErrIterating while a system's
// entities are being ranged over; queue them on a Commands buffer instead.
type World struct {
	entities   *EntityRegistry
	components *ComponentManager
	systems    *SystemRegistry
	logger     *zap.Logger

	initialCapacity int
	maxEntities     int
}

// NewWorld creates an empty World.
func NewWorld(opts ...Option) *World {
	w := &World{
		logger:          zap.NewNop(),
		initialCapacity: defaultInitialCapacity,
		maxEntities:     defaultMaxEntityCount,
	}
	for _, opt := range opts {
		opt(w)
	}

	w.entities = NewEntityRegistry(w.initialCapacity, w.maxEntities)
	w.components = NewComponentManager(w.entities.Capacity())
	w.systems = NewSystemRegistry()
	return w
}

func (w *World) checkMutable(op string) error {
	if w.systems.Iterating() {
		return eris.Wrapf(ErrIterating, "cannot %s", op)
	}
	return nil
}

// CreateEntity issues a new entity with an empty signature.
func (w *World) CreateEntity() (Entity, error) {
	if err := w.checkMutable("create entity"); err != nil {
		return NoEntity, err
	}
	e, err := w.entities.Create()
	if err != nil {
		w.logger.Warn("entity creation failed",
			zap.Int("live", w.entities.Len()),
			zap.Int("max", w.entities.MaxEntities()),
			zap.Error(err))
		return NoEntity, err
	}
	w.systems.OnEntitySignatureChanged(e, 0)
	return e, nil
}

// DestroyEntity removes e from every system, drops all of its components and
// releases its index for reuse.
func (w *World) DestroyEntity(e Entity) error {
	if err := w.checkMutable("destroy entity"); err != nil {
		return err
	}
	sig, err := w.entities.Signature(e)
	if err != nil {
		return err
	}

	w.systems.OnEntityDestroyed(e)
	w.components.removeAll(e, sig)
	if err := w.entities.Destroy(e); err != nil {
		inconsistency("destroy of live %s failed: %v", e, err)
	}
	return nil
}

// Alive reports whether e is live in this World.
func (w *World) Alive(e Entity) bool {
	return w.entities.Alive(e)
}

// Signature returns the component signature of e.
func (w *World) Signature(e Entity) (Signature, error) {
	return w.entities.Signature(e)
}

// Len returns the number of live entities.
func (w *World) Len() int {
	return w.entities.Len()
}

// Entities yields every live entity with its signature.
func (w *World) Entities() iter.Seq2[Entity, Signature] {
	return w.entities.All()
}

// setSignature stores sig on e and propagates it to the systems.
func (w *World) setSignature(e Entity, sig Signature) {
	if err := w.entities.SetSignature(e, sig); err != nil {
		inconsistency("signature update of %s failed: %v", e, err)
	}
	w.systems.OnEntitySignatureChanged(e, sig)
}

// RegisterComponent registers T and returns its signature bit. Types are
// assigned bits in registration order; at most MaxComponentTypes fit.
func RegisterComponent[T any](w *World) (Signature, error) {
	bit, err := registerComponent[T](w.components)
	if err != nil {
		return 0, err
	}
	w.logger.Debug("component registered",
		zap.Stringer("type", reflect.TypeFor[T]()),
		zap.Stringer("bit", bit))
	return bit, nil
}

// SignatureOf returns the bit owned by T.
func SignatureOf[T any](w *World) (Signature, error) {
	return signatureOf[T](w.components)
}

// Signature2 returns the union of the bits of A and B.
func Signature2[A, B any](w *World) (Signature, error) {
	return unionOf(w, reflect.TypeFor[A](), reflect.TypeFor[B]())
}

// Signature3 returns the union of the bits of A, B and C.
func Signature3[A, B, C any](w *World) (Signature, error) {
	return unionOf(w, reflect.TypeFor[A](), reflect.TypeFor[B](), reflect.TypeFor[C]())
}

// Signature4 returns the union of the bits of A, B, C and D.
func Signature4[A, B, C, D any](w *World) (Signature, error) {
	return unionOf(w, reflect.TypeFor[A](), reflect.TypeFor[B](), reflect.TypeFor[C](), reflect.TypeFor[D]())
}

func unionOf(w *World, types ...reflect.Type) (Signature, error) {
	var sig Signature
	for _, t := range types {
		bit, err := w.components.SignatureOfType(t)
		if err != nil {
			return 0, err
		}
		sig |= bit
	}
	return sig, nil
}

// Attach stores value on e. The data is in place before any system sees e
// match.
func Attach[T any](w *World, e Entity, value T) error {
	if err := w.checkMutable("attach component"); err != nil {
		return err
	}
	sig, err := w.entities.Signature(e)
	if err != nil {
		return err
	}
	bit, err := attach(w.components, e, value)
	if err != nil {
		return err
	}
	w.setSignature(e, sig|bit)
	return nil
}

// Detach removes T from e. Systems stop seeing e match before the data is
// dropped.
func Detach[T any](w *World, e Entity) error {
	if err := w.checkMutable("detach component"); err != nil {
		return err
	}
	sig, err := w.entities.Signature(e)
	if err != nil {
		return err
	}
	store, bit, err := storeOf[T](w.components)
	if err != nil {
		return err
	}
	if !sig.Contains(bit) {
		var zero T
		return eris.Wrapf(ErrNotAttached, "detach %T from %s", zero, e)
	}

	w.setSignature(e, sig.Without(bit))
	if err := store.Remove(e); err != nil {
		var zero T
		inconsistency("%s signature listed %T but the store has no value", e, zero)
	}
	return nil
}

// Get returns a copy of the T attached to e.
func Get[T any](w *World, e Entity) (T, error) {
	store, _, err := storeOf[T](w.components)
	if err != nil {
		var zero T
		return zero, err
	}
	if !w.entities.Alive(e) {
		var zero T
		return zero, eris.Wrapf(ErrNotFound, "get %T of %s", zero, e)
	}
	return store.Get(e)
}

// GetMut returns a pointer to the T attached to e for in-place mutation. The
// pointer is valid until the next structural mutation of T's store.
func GetMut[T any](w *World, e Entity) (*T, error) {
	store, _, err := storeOf[T](w.components)
	if err != nil {
		return nil, err
	}
	if !w.entities.Alive(e) {
		var zero T
		return nil, eris.Wrapf(ErrNotFound, "get %T of %s", zero, e)
	}
	return store.GetMut(e)
}

// Has reports whether e has a T attached.
func Has[T any](w *World, e Entity) bool {
	store, _, err := storeOf[T](w.components)
	if err != nil {
		return false
	}
	return store.Has(e)
}

// RegisterSystem registers system id interested in entities matching any of
// required. Membership is seeded from the entities that already exist.
func (w *World) RegisterSystem(id SystemID, required ...Signature) error {
	if err := w.checkMutable("register system"); err != nil {
		return err
	}
	if err := w.systems.Register(id, required, w.entities.All()); err != nil {
		return err
	}
	members, _ := w.systems.Len(id)
	w.logger.Debug("system registered",
		zap.Uint32("id", uint32(id)),
		zap.Stringers("required", required),
		zap.Int("members", members))
	return nil
}

// NewSystem registers a system under the next free id and returns it.
func (w *World) NewSystem(required ...Signature) (SystemID, error) {
	id := w.systems.NextID()
	if err := w.RegisterSystem(id, required...); err != nil {
		return 0, err
	}
	return id, nil
}

// SystemEntities returns a restartable sequence over the members of system
// id. The World rejects structural mutation while it is being ranged.
func (w *World) SystemEntities(id SystemID) (iter.Seq[Entity], error) {
	return w.systems.Entities(id)
}

// SystemLen returns the member count of system id.
func (w *World) SystemLen(id SystemID) (int, error) {
	return w.systems.Len(id)
}

// SystemContains reports whether e is a member of system id.
func (w *World) SystemContains(id SystemID, e Entity) bool {
	return w.systems.Contains(id, e)
}

// Validate cross-checks every store, signature and system membership. It is
// a full scan meant for tests and debugging.
func (w *World) Validate() error {
	if err := w.components.validate(); err != nil {
		return err
	}
	for e, sig := range w.entities.All() {
		for bit, info := range w.components.byBit {
			want := sig.Contains(Signature(1) << bit)
			if info.store.Has(e) != want {
				return eris.Wrapf(ErrInternalInconsistency, "%s signature %s disagrees with store %s", e, sig, info.typ)
			}
		}
		for _, m := range w.systems.systems {
			if m.position.Has(e) != matchesAny(sig, m.required) {
				return eris.Wrapf(ErrInternalInconsistency, "%s membership in system %d is stale", e, m.id)
			}
		}
	}
	for _, m := range w.systems.systems {
		for _, e := range m.members {
			if !w.entities.Alive(e) {
				return eris.Wrapf(ErrInternalInconsistency, "dead %s is a member of system %d", e, m.id)
			}
		}
	}
	return nil
}
