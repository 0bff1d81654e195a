package ecs

import (
	"iter"
)

// Row2 holds pointers to two components of one entity.
type Row2[A, B any] struct {
	A *A
	B *B
}

// Row3 holds pointers to three components of one entity.
type Row3[A, B, C any] struct {
	A *A
	B *B
	C *C
}

// ref returns a pointer to the value of e, or nil.
func (s *ComponentStore[T]) ref(e Entity) *T {
	slot := s.slot(e)
	if slot == invalidSlot {
		return nil
	}
	return &s.data[slot]
}

// Each1 yields every member of system id that has an A, with a pointer to it.
// Members lacking A are skipped, which happens for systems registered with
// several alternative signatures. Pointers stay valid for the whole range
// because the World rejects structural changes while it runs.
func Each1[A any](w *World, id SystemID) (iter.Seq2[Entity, *A], error) {
	members, err := w.SystemEntities(id)
	if err != nil {
		return nil, err
	}
	sa, _, err := storeOf[A](w.components)
	if err != nil {
		return nil, err
	}

	return func(yield func(Entity, *A) bool) {
		for e := range members {
			a := sa.ref(e)
			if a == nil {
				continue
			}
			if !yield(e, a) {
				return
			}
		}
	}, nil
}

// Each2 is Each1 for members holding both A and B.
func Each2[A, B any](w *World, id SystemID) (iter.Seq2[Entity, Row2[A, B]], error) {
	members, err := w.SystemEntities(id)
	if err != nil {
		return nil, err
	}
	sa, _, err := storeOf[A](w.components)
	if err != nil {
		return nil, err
	}
	sb, _, err := storeOf[B](w.components)
	if err != nil {
		return nil, err
	}

	return func(yield func(Entity, Row2[A, B]) bool) {
		for e := range members {
			row := Row2[A, B]{A: sa.ref(e), B: sb.ref(e)}
			if row.A == nil || row.B == nil {
				continue
			}
			if !yield(e, row) {
				return
			}
		}
	}, nil
}

// Each3 is Each1 for members holding A, B and C.
func Each3[A, B, C any](w *World, id SystemID) (iter.Seq2[Entity, Row3[A, B, C]], error) {
	members, err := w.SystemEntities(id)
	if err != nil {
		return nil, err
	}
	sa, _, err := storeOf[A](w.components)
	if err != nil {
		return nil, err
	}
	sb, _, err := storeOf[B](w.components)
	if err != nil {
		return nil, err
	}
	sc, _, err := storeOf[C](w.components)
	if err != nil {
		return nil, err
	}

	return func(yield func(Entity, Row3[A, B, C]) bool) {
		for e := range members {
			row := Row3[A, B, C]{A: sa.ref(e), B: sb.ref(e), C: sc.ref(e)}
			if row.A == nil || row.B == nil || row.C == nil {
				continue
			}
			if !yield(e, row) {
				return
			}
		}
	}, nil
}
