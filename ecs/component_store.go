package ecs

import (
	"iter"

	"github.com/rotisserie/eris"
)

const invalidSlot int32 = -1

// iComponentStore is the type-erased view of a ComponentStore used by the
// ComponentManager to cascade entity destruction and collect stats.
type iComponentStore interface {
	Len() int
	Has(e Entity) bool
	Remove(e Entity) error
	Validate() error
}

// ComponentStore holds every instance of one component type in a dense
// slice. entityToIndex maps an entity index to its dense slot and
// indexToEntity maps a slot back to its owner, so a removal can move the last
// slot into the hole and patch the moved entity's index in O(1).
//
// Slots are not stable: any Insert or Remove may move data, so callers always
// resolve by Entity and never hold a pointer across structural mutations.
type ComponentStore[T any] struct {
	entityToIndex []int32
	indexToEntity []Entity
	data          []T
}

// NewComponentStore creates an empty store sized for initialCapacity entities.
func NewComponentStore[T any](initialCapacity int) *ComponentStore[T] {
	if initialCapacity <= 0 {
		initialCapacity = defaultInitialCapacity
	}
	s := &ComponentStore[T]{
		entityToIndex: make([]int32, initialCapacity),
		indexToEntity: make([]Entity, 0, initialCapacity),
		data:          make([]T, 0, initialCapacity),
	}
	for i := range s.entityToIndex {
		s.entityToIndex[i] = invalidSlot
	}
	return s
}

// slot returns the dense slot of e, or invalidSlot.
func (s *ComponentStore[T]) slot(e Entity) int32 {
	idx := int(e.Index())
	if idx >= len(s.entityToIndex) {
		return invalidSlot
	}
	slot := s.entityToIndex[idx]
	if slot == invalidSlot || s.indexToEntity[slot] != e {
		return invalidSlot
	}
	return slot
}

func (s *ComponentStore[T]) growSparse(n int) {
	size := len(s.entityToIndex)
	if n <= size {
		return
	}
	for size < n {
		size = max(size*2, 1)
	}
	sparse := make([]int32, size)
	copy(sparse, s.entityToIndex)
	for i := len(s.entityToIndex); i < size; i++ {
		sparse[i] = invalidSlot
	}
	s.entityToIndex = sparse
}

// Insert appends value for e. It fails with ErrAlreadyAttached when any
// generation of e's index still owns a value here.
func (s *ComponentStore[T]) Insert(e Entity, value T) error {
	idx := int(e.Index())
	if idx < len(s.entityToIndex) && s.entityToIndex[idx] != invalidSlot {
		if owner := s.indexToEntity[s.entityToIndex[idx]]; owner != e {
			return eris.Wrapf(ErrAlreadyAttached, "insert %T on %s: slot still held by %s", value, e, owner)
		}
		return eris.Wrapf(ErrAlreadyAttached, "insert %T on %s", value, e)
	}

	s.growSparse(idx + 1)
	s.entityToIndex[idx] = int32(len(s.indexToEntity))
	s.indexToEntity = append(s.indexToEntity, e)
	s.data = append(s.data, value)
	return nil
}

// Remove drops the value of e by moving the last slot into its place.
func (s *ComponentStore[T]) Remove(e Entity) error {
	slot := s.slot(e)
	if slot == invalidSlot {
		var zero T
		return eris.Wrapf(ErrNotAttached, "remove %T from %s", zero, e)
	}

	last := int32(len(s.indexToEntity) - 1)
	if last != int32(len(s.data)-1) {
		inconsistency("store dense length mismatch: %d entities, %d values", len(s.indexToEntity), len(s.data))
	}

	if slot != last {
		moved := s.indexToEntity[last]
		s.indexToEntity[slot] = moved
		s.data[slot] = s.data[last]
		s.entityToIndex[moved.Index()] = slot
	}
	s.entityToIndex[e.Index()] = invalidSlot

	var zero T
	s.data[last] = zero
	s.indexToEntity = s.indexToEntity[:last]
	s.data = s.data[:last]
	return nil
}

// Get returns a copy of the value attached to e.
func (s *ComponentStore[T]) Get(e Entity) (T, error) {
	slot := s.slot(e)
	if slot == invalidSlot {
		var zero T
		return zero, eris.Wrapf(ErrNotAttached, "get %T of %s", zero, e)
	}
	return s.data[slot], nil
}

// GetMut returns a pointer into the dense slice. It is valid until the next
// Insert or Remove on this store.
func (s *ComponentStore[T]) GetMut(e Entity) (*T, error) {
	slot := s.slot(e)
	if slot == invalidSlot {
		var zero T
		return nil, eris.Wrapf(ErrNotAttached, "get %T of %s", zero, e)
	}
	return &s.data[slot], nil
}

// Has reports whether e has a value in this store.
func (s *ComponentStore[T]) Has(e Entity) bool {
	return s.slot(e) != invalidSlot
}

// Len returns the number of stored values.
func (s *ComponentStore[T]) Len() int {
	return len(s.data)
}

// All yields every owner with a pointer to its value, in dense order.
func (s *ComponentStore[T]) All() iter.Seq2[Entity, *T] {
	return func(yield func(Entity, *T) bool) {
		for i := range s.data {
			if !yield(s.indexToEntity[i], &s.data[i]) {
				return
			}
		}
	}
}

// Validate checks the sparse/dense cross-references.
func (s *ComponentStore[T]) Validate() error {
	if len(s.data) != len(s.indexToEntity) {
		return eris.Wrapf(ErrInternalInconsistency, "%d values for %d entities", len(s.data), len(s.indexToEntity))
	}
	for i, e := range s.indexToEntity {
		idx := int(e.Index())
		if idx >= len(s.entityToIndex) || s.entityToIndex[idx] != int32(i) {
			return eris.Wrapf(ErrInternalInconsistency, "slot %d owned by %s is not indexed back", i, e)
		}
	}
	used := 0
	for _, slot := range s.entityToIndex {
		if slot != invalidSlot {
			used++
		}
	}
	if used != len(s.indexToEntity) {
		return eris.Wrapf(ErrInternalInconsistency, "%d sparse entries for %d slots", used, len(s.indexToEntity))
	}
	return nil
}
