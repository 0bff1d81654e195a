package ecs

import (
	"reflect"

	"github.com/rotisserie/eris"
)

type componentInfo struct {
	typ   reflect.Type
	bit   Signature
	store iComponentStore
}

// ComponentManager owns one ComponentStore per registered component type and
// hands out signature bits in registration order, starting at bit 0.
//
// It only routes data. Keeping entity signatures and system membership in step
// with the stores is the World's job.
type ComponentManager struct {
	byType          map[reflect.Type]*componentInfo
	byBit           []*componentInfo
	initialCapacity int
}

// NewComponentManager creates a manager whose stores start sized for
// initialCapacity entities.
func NewComponentManager(initialCapacity int) *ComponentManager {
	return &ComponentManager{
		byType:          make(map[reflect.Type]*componentInfo),
		byBit:           make([]*componentInfo, 0, MaxComponentTypes),
		initialCapacity: initialCapacity,
	}
}

func registerComponent[T any](m *ComponentManager) (Signature, error) {
	t := reflect.TypeFor[T]()
	if _, ok := m.byType[t]; ok {
		return 0, eris.Wrapf(ErrAlreadyRegistered, "component %s", t)
	}
	if len(m.byBit) >= MaxComponentTypes {
		return 0, eris.Wrapf(ErrTooManyTypes, "cannot register %s, all %d signature bits are taken", t, MaxComponentTypes)
	}

	info := &componentInfo{
		typ:   t,
		bit:   Signature(1) << len(m.byBit),
		store: NewComponentStore[T](m.initialCapacity),
	}
	m.byType[t] = info
	m.byBit = append(m.byBit, info)
	return info.bit, nil
}

func storeOf[T any](m *ComponentManager) (*ComponentStore[T], Signature, error) {
	t := reflect.TypeFor[T]()
	info, ok := m.byType[t]
	if !ok {
		return nil, 0, eris.Wrapf(ErrNotRegistered, "component %s", t)
	}
	store, ok := info.store.(*ComponentStore[T])
	if !ok {
		inconsistency("store for %s has type %T", t, info.store)
	}
	return store, info.bit, nil
}

func signatureOf[T any](m *ComponentManager) (Signature, error) {
	_, bit, err := storeOf[T](m)
	return bit, err
}

// attach inserts value and returns the bit the caller must set on e.
func attach[T any](m *ComponentManager, e Entity, value T) (Signature, error) {
	store, bit, err := storeOf[T](m)
	if err != nil {
		return 0, err
	}
	if err := store.Insert(e, value); err != nil {
		return 0, err
	}
	return bit, nil
}

// SignatureOfType returns the bit owned by t.
func (m *ComponentManager) SignatureOfType(t reflect.Type) (Signature, error) {
	info, ok := m.byType[t]
	if !ok {
		return 0, eris.Wrapf(ErrNotRegistered, "component %s", t)
	}
	return info.bit, nil
}

// Len returns the number of registered component types.
func (m *ComponentManager) Len() int {
	return len(m.byBit)
}

// removeAll drops the data of e from every store whose bit is set in sig.
// The signature is the source of truth, so a store that disagrees is fatal.
func (m *ComponentManager) removeAll(e Entity, sig Signature) {
	for bit := range sig.Bits() {
		if bit >= len(m.byBit) {
			inconsistency("%s carries unregistered bit %d", e, bit)
		}
		info := m.byBit[bit]
		if err := info.store.Remove(e); err != nil {
			inconsistency("%s signature %s lists %s but the store has no value", e, sig, info.typ)
		}
	}
}

// validate checks every store's invariants.
func (m *ComponentManager) validate() error {
	for _, info := range m.byBit {
		if err := info.store.Validate(); err != nil {
			return eris.Wrapf(err, "store %s", info.typ)
		}
	}
	return nil
}
