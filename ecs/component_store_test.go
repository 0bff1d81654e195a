package ecs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type storeValue struct {
	N int
}

func TestComponentStoreInsertGet(t *testing.T) {
	s := NewComponentStore[storeValue](2)
	a := newEntity(0, 1)
	b := newEntity(9, 1)

	require.NoError(t, s.Insert(a, storeValue{1}))
	require.NoError(t, s.Insert(b, storeValue{2}))
	assert.ErrorIs(t, s.Insert(a, storeValue{3}), ErrAlreadyAttached)

	v, err := s.Get(b)
	require.NoError(t, err)
	assert.Equal(t, 2, v.N)
	assert.Equal(t, 2, s.Len())
	assert.NoError(t, s.Validate())

	p, err := s.GetMut(a)
	require.NoError(t, err)
	p.N = 10
	v, _ = s.Get(a)
	assert.Equal(t, 10, v.N)
}

func TestComponentStoreSwapRemove(t *testing.T) {
	s := NewComponentStore[storeValue](4)
	es := []Entity{newEntity(0, 1), newEntity(1, 1), newEntity(2, 1), newEntity(3, 1)}
	for i, e := range es {
		require.NoError(t, s.Insert(e, storeValue{i}))
	}

	require.NoError(t, s.Remove(es[1]))
	assert.Equal(t, 3, s.Len())
	assert.False(t, s.Has(es[1]))
	assert.NoError(t, s.Validate())

	for i, e := range es {
		if i == 1 {
			continue
		}
		v, err := s.Get(e)
		require.NoError(t, err)
		assert.Equal(t, i, v.N, "value of %s survived the swap", e)
	}

	assert.ErrorIs(t, s.Remove(es[1]), ErrNotAttached)
	_, err := s.Get(es[1])
	assert.ErrorIs(t, err, ErrNotAttached)

	require.NoError(t, s.Remove(es[3]))
	require.NoError(t, s.Remove(es[0]))
	require.NoError(t, s.Remove(es[2]))
	assert.Equal(t, 0, s.Len())
	assert.NoError(t, s.Validate())
}

func TestComponentStoreStaleGeneration(t *testing.T) {
	s := NewComponentStore[storeValue](4)
	old := newEntity(2, 1)
	require.NoError(t, s.Insert(old, storeValue{1}))

	reissued := newEntity(2, 2)
	assert.False(t, s.Has(reissued))
	_, err := s.Get(reissued)
	assert.ErrorIs(t, err, ErrNotAttached)

	err = s.Insert(reissued, storeValue{2})
	assert.ErrorIs(t, err, ErrAlreadyAttached)
	assert.Contains(t, err.Error(), old.String())

	v, err := s.Get(old)
	require.NoError(t, err)
	assert.Equal(t, storeValue{1}, v)
	assert.NoError(t, s.Validate())
}

func TestComponentStoreAll(t *testing.T) {
	s := NewComponentStore[storeValue](4)
	for i := range 3 {
		require.NoError(t, s.Insert(newEntity(uint32(i), 1), storeValue{i}))
	}
	for _, v := range s.All() {
		v.N *= 10
	}
	sum := 0
	for _, v := range s.All() {
		sum += v.N
	}
	assert.Equal(t, 30, sum)
}

func TestComponentStoreRemovePanicsOnLengthMismatch(t *testing.T) {
	s := NewComponentStore[storeValue](4)
	e := newEntity(0, 1)
	require.NoError(t, s.Insert(e, storeValue{}))
	s.data = append(s.data, storeValue{})

	defer func() {
		r := recover()
		require.NotNil(t, r)
		assert.ErrorIs(t, r.(error), ErrInternalInconsistency)
	}()
	_ = s.Remove(e)
}
