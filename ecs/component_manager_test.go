package ecs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComponentManagerBitsInOrder(t *testing.T) {
	m := NewComponentManager(8)
	a, err := registerComponent[int](m)
	require.NoError(t, err)
	b, err := registerComponent[string](m)
	require.NoError(t, err)
	assert.Equal(t, Signature(1), a)
	assert.Equal(t, Signature(2), b)
	assert.Equal(t, 2, m.Len())

	_, err = registerComponent[int](m)
	assert.ErrorIs(t, err, ErrAlreadyRegistered)
}

func TestComponentManagerTooManyTypes(t *testing.T) {
	m := NewComponentManager(8)
	for i := range MaxComponentTypes {
		m.byBit = append(m.byBit, &componentInfo{bit: Signature(1) << i})
	}
	_, err := registerComponent[int](m)
	assert.ErrorIs(t, err, ErrTooManyTypes)
}

func TestComponentManagerRemoveAll(t *testing.T) {
	m := NewComponentManager(8)
	intBit, _ := registerComponent[int](m)
	strBit, _ := registerComponent[string](m)
	e := newEntity(0, 1)

	_, err := attach(m, e, 1)
	require.NoError(t, err)
	_, err = attach(m, e, "one")
	require.NoError(t, err)

	m.removeAll(e, intBit|strBit)
	ints, _, _ := storeOf[int](m)
	strs, _, _ := storeOf[string](m)
	assert.Equal(t, 0, ints.Len())
	assert.Equal(t, 0, strs.Len())
	assert.NoError(t, m.validate())

	assert.Panics(t, func() {
		m.removeAll(e, intBit)
	}, "a signature bit without data is fatal")
}

func TestDetachPanicsNamingTypeWhenStoreLostValue(t *testing.T) {
	w := NewWorld()
	_, err := RegisterComponent[storeValue](w)
	require.NoError(t, err)
	e, err := w.CreateEntity()
	require.NoError(t, err)
	require.NoError(t, Attach(w, e, storeValue{N: 1}))

	store, _, err := storeOf[storeValue](w.components)
	require.NoError(t, err)
	require.NoError(t, store.Remove(e))

	defer func() {
		r := recover()
		require.NotNil(t, r)
		err, ok := r.(error)
		require.True(t, ok)
		assert.ErrorIs(t, err, ErrInternalInconsistency)
		assert.Contains(t, err.Error(), "ecs.storeValue")
	}()
	_ = Detach[storeValue](w, e)
}
