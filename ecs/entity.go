package ecs

import (
	"fmt"
	"iter"

	"github.com/rotisserie/eris"
)

// Entity encodes a dense, reusable index (lower 32 bits) and a generation
// (upper 32 bits). The generation is bumped every time the index is released,
// so a handle kept past DestroyEntity never aliases the entity that reuses
// its index.
type Entity uint64

// NoEntity is the zero Entity. Generations start at 1, so it is never issued.
const NoEntity Entity = 0

const (
	firstGeneration        = 1
	defaultInitialCapacity = 64
	defaultMaxEntityCount  = 1 << 20
)

func newEntity(index uint32, generation uint32) Entity {
	return Entity(uint64(generation)<<32 | uint64(index))
}

// Index returns the dense index shared with the component stores.
func (e Entity) Index() uint32 {
	return uint32(e & 0xFFFFFFFF)
}

// Generation returns the generation the entity was issued with.
func (e Entity) Generation() uint32 {
	return uint32(e >> 32)
}

func (e Entity) String() string {
	if e == NoEntity {
		return "Entity(none)"
	}
	return fmt.Sprintf("Entity(%dv%d)", e.Index(), e.Generation())
}

// EntityRegistry owns entity identity: allocation, recycling, liveness and
// the per-entity signature table.
type EntityRegistry struct {
	signatures  []Signature
	generations []uint32
	alive       []bool

	// free is consumed from the front so a released index sits out as long
	// as possible before it is reissued.
	free []uint32

	next        uint32
	live        int
	maxEntities int
}

// NewEntityRegistry creates a registry whose backing arrays start at
// initialCapacity and grow by doubling up to maxEntities.
func NewEntityRegistry(initialCapacity, maxEntities int) *EntityRegistry {
	if maxEntities <= 0 {
		maxEntities = defaultMaxEntityCount
	}
	if initialCapacity <= 0 {
		initialCapacity = defaultInitialCapacity
	}
	initialCapacity = min(initialCapacity, maxEntities)

	return &EntityRegistry{
		signatures:  make([]Signature, initialCapacity),
		generations: make([]uint32, initialCapacity),
		alive:       make([]bool, initialCapacity),
		free:        make([]uint32, 0, 64),
		maxEntities: maxEntities,
	}
}

// Create issues a live entity with an empty signature.
func (r *EntityRegistry) Create() (Entity, error) {
	if len(r.free) > 0 {
		idx := r.free[0]
		r.free = r.free[1:]
		r.alive[idx] = true
		r.signatures[idx] = 0
		r.live++
		return newEntity(idx, r.generations[idx]), nil
	}

	if int(r.next) >= r.maxEntities {
		return NoEntity, eris.Wrapf(ErrCapacityExceeded, "entity limit of %d reached", r.maxEntities)
	}

	idx := r.next
	r.grow(int(idx) + 1)
	r.next++
	r.generations[idx] = firstGeneration
	r.alive[idx] = true
	r.signatures[idx] = 0
	r.live++
	return newEntity(idx, firstGeneration), nil
}

// grow doubles the backing arrays until they hold n slots, capped at the
// configured maximum.
func (r *EntityRegistry) grow(n int) {
	size := len(r.signatures)
	if n <= size {
		return
	}
	for size < n {
		size = min(size*2, r.maxEntities)
	}

	signatures := make([]Signature, size)
	copy(signatures, r.signatures)
	r.signatures = signatures

	generations := make([]uint32, size)
	copy(generations, r.generations)
	r.generations = generations

	alive := make([]bool, size)
	copy(alive, r.alive)
	r.alive = alive
}

// Destroy releases e. Its signature is cleared and its index queued for reuse
// under the next generation.
func (r *EntityRegistry) Destroy(e Entity) error {
	if !r.Alive(e) {
		return eris.Wrapf(ErrNotFound, "destroy %s", e)
	}

	idx := e.Index()
	r.signatures[idx] = 0
	r.alive[idx] = false
	r.generations[idx]++
	if r.generations[idx] == 0 {
		r.generations[idx] = firstGeneration
	}
	r.free = append(r.free, idx)
	r.live--
	return nil
}

// Alive reports whether e is a live handle issued by this registry.
func (r *EntityRegistry) Alive(e Entity) bool {
	idx := e.Index()
	if idx >= r.next {
		return false
	}
	return r.alive[idx] && r.generations[idx] == e.Generation()
}

// SetSignature replaces the signature of a live entity.
func (r *EntityRegistry) SetSignature(e Entity, sig Signature) error {
	if !r.Alive(e) {
		return eris.Wrapf(ErrNotFound, "set signature of %s", e)
	}
	r.signatures[e.Index()] = sig
	return nil
}

// Signature returns the signature of a live entity.
func (r *EntityRegistry) Signature(e Entity) (Signature, error) {
	if !r.Alive(e) {
		return 0, eris.Wrapf(ErrNotFound, "signature of %s", e)
	}
	return r.signatures[e.Index()], nil
}

// Len returns the number of live entities.
func (r *EntityRegistry) Len() int {
	return r.live
}

// Capacity returns the current size of the backing arrays.
func (r *EntityRegistry) Capacity() int {
	return len(r.signatures)
}

// MaxEntities returns the configured entity ceiling.
func (r *EntityRegistry) MaxEntities() int {
	return r.maxEntities
}

// All yields every live entity with its signature, in index order.
func (r *EntityRegistry) All() iter.Seq2[Entity, Signature] {
	return func(yield func(Entity, Signature) bool) {
		for idx := uint32(0); idx < r.next; idx++ {
			if !r.alive[idx] {
				continue
			}
			if !yield(newEntity(idx, r.generations[idx]), r.signatures[idx]) {
				return
			}
		}
	}
}
