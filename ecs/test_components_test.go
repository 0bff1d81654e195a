package ecs_test

import (
	"testing"

	"github.com/plus3/sigecs/ecs"
	"github.com/stretchr/testify/require"
)

// Common test component types
type Position struct {
	X, Y float32
}

type Velocity struct {
	DX, DY float32
}

type Name struct {
	Value string
}

type Health struct {
	Current int
	Max     int
}

type PlayerController struct{}

// Custom primitive types for testing non-struct components
type Score int32
type Tag string

// Link references another entity of the same batch until it is committed.
type Link struct {
	Next        ecs.Entity
	Provisional ecs.ProvisionalEntity
}

func (l *Link) ResolveProvisional(m *ecs.ProvisionalMapping) {
	l.Next = m.Resolve(l.Provisional)
	l.Provisional = ecs.NoProvisional
}

func newTestWorld(t testing.TB, opts ...ecs.Option) *ecs.World {
	t.Helper()
	w := ecs.NewWorld(opts...)
	_, err := ecs.RegisterComponent[Position](w)
	require.NoError(t, err)
	_, err = ecs.RegisterComponent[Velocity](w)
	require.NoError(t, err)
	_, err = ecs.RegisterComponent[Name](w)
	require.NoError(t, err)
	_, err = ecs.RegisterComponent[Health](w)
	require.NoError(t, err)
	_, err = ecs.RegisterComponent[PlayerController](w)
	require.NoError(t, err)
	_, err = ecs.RegisterComponent[Score](w)
	require.NoError(t, err)
	_, err = ecs.RegisterComponent[Tag](w)
	require.NoError(t, err)
	_, err = ecs.RegisterComponent[Link](w)
	require.NoError(t, err)
	return w
}

func spawn(t testing.TB, w *ecs.World, components ...func(e ecs.Entity) error) ecs.Entity {
	t.Helper()
	e, err := w.CreateEntity()
	require.NoError(t, err)
	for _, c := range components {
		require.NoError(t, c(e))
	}
	return e
}

func with[T any](w *ecs.World, value T) func(e ecs.Entity) error {
	return func(e ecs.Entity) error {
		return ecs.Attach(w, e, value)
	}
}
