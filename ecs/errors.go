package ecs

import (
	"github.com/rotisserie/eris"
)

var (
	ErrNotFound          = eris.New("entity not found")
	ErrNotRegistered     = eris.New("not registered")
	ErrAlreadyRegistered = eris.New("already registered")
	ErrAlreadyAttached   = eris.New("component already attached to entity")
	ErrNotAttached       = eris.New("component not attached to entity")
	ErrCapacityExceeded  = eris.New("capacity exceeded")

	// ErrTooManyTypes is returned once every Signature bit has been handed out.
	ErrTooManyTypes = eris.New("too many component types")

	// ErrIterating is returned by structural mutations attempted while a system
	// membership sequence is being ranged over. Queue them on a Commands buffer.
	ErrIterating = eris.New("world is being iterated")

	ErrBatchCommitted = eris.New("batch already committed")

	// ErrValueResolver is returned when staging a component whose value type
	// implements ProvisionalResolver. The hook would only see a copy.
	ErrValueResolver = eris.New("provisional resolver needs a pointer receiver")

	// ErrInternalInconsistency is never returned. It is the panic value for
	// broken bookkeeping and unresolved provisional references.
	ErrInternalInconsistency = eris.New("internal inconsistency")
)

func inconsistency(format string, args ...any) {
	panic(eris.Wrapf(ErrInternalInconsistency, format, args...))
}
