package scene_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/plus3/sigecs/ecs"
	"github.com/plus3/sigecs/internal/components"
	"github.com/plus3/sigecs/internal/physics"
	"github.com/plus3/sigecs/internal/scene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pendulum = `
name: test
nodes:
  - name: anchor
    transform: {pos: [0, 10, 0]}
    particle: {mass: 0}
  - name: bob
    transform: {pos: [4, 10]}
    color: [1, 0]
    mesh: {id: 2}
    particle: {vel: [0, 0, 1], mass: 2}
  - name: shadow
    mesh: {id: 3, wrapper: bob}
constraints:
  - name: string
    kind: cable
    a: anchor
    b: bob
    length: 4
    restitution: 0.5
  - kind: rod
    a: anchor
    b: bob
    length: 4
`

func newWorld(t *testing.T) *ecs.World {
	t.Helper()
	w := ecs.NewWorld()
	require.NoError(t, components.Register(w))
	require.NoError(t, physics.Register(w))
	return w
}

func TestBuildScene(t *testing.T) {
	s, err := scene.Parse([]byte(pendulum))
	require.NoError(t, err)

	w := newWorld(t)
	b, err := scene.Build(w, s)
	require.NoError(t, err)
	assert.Equal(t, []string{"anchor", "bob", "shadow", "string"}, b.Names())
	assert.Equal(t, 5, w.Len(), "unnamed constraints are built too")

	anchor, ok := b.Entity("anchor")
	require.True(t, ok)
	bob, ok := b.Entity("bob")
	require.True(t, ok)
	name, ok := b.Name(bob)
	require.True(t, ok)
	assert.Equal(t, "bob", name)

	tr, err := ecs.Get[components.Transform](w, bob)
	require.NoError(t, err)
	assert.Equal(t, components.Vec3{X: 4, Y: 10}, tr.Pos)
	assert.Equal(t, components.Vec3{X: 1, Y: 1, Z: 1}, tr.Scale, "scale defaults to one")

	color, err := ecs.Get[components.Color](w, bob)
	require.NoError(t, err)
	assert.Equal(t, components.Color{R: 1, G: 0, B: 1, A: 1}, color)

	p, err := ecs.Get[physics.Particle](w, bob)
	require.NoError(t, err)
	assert.Equal(t, float32(2), p.Mass)
	assert.Equal(t, float32(10), p.Gravity, "unset fields keep the defaults")

	shadow, _ := b.Entity("shadow")
	mesh, err := ecs.Get[components.MeshBinding](w, shadow)
	require.NoError(t, err)
	assert.Equal(t, bob, mesh.Wrapper)

	str, _ := b.Entity("string")
	cable, err := ecs.Get[physics.ParticleCable](w, str)
	require.NoError(t, err)
	assert.Equal(t, anchor, cable.A)
	assert.Equal(t, bob, cable.B)
	assert.NoError(t, w.Validate())
}

func TestBindingsRemove(t *testing.T) {
	s, err := scene.Parse([]byte(pendulum))
	require.NoError(t, err)
	w := newWorld(t)
	b, err := scene.Build(w, s)
	require.NoError(t, err)

	bob, _ := b.Entity("bob")
	require.NoError(t, b.Remove(w, "bob"))
	assert.False(t, w.Alive(bob))
	_, ok := b.Entity("bob")
	assert.False(t, ok)
	assert.ErrorIs(t, b.Remove(w, "bob"), scene.ErrUnknownNode)

	anchor, _ := b.Entity("anchor")
	require.NoError(t, w.DestroyEntity(anchor))
	assert.Equal(t, 1, b.Prune(w))
	assert.Equal(t, 2, b.Len())
}

func TestParseRejects(t *testing.T) {
	tests := map[string]struct {
		yaml string
		err  error
	}{
		"duplicate": {
			yaml: "nodes: [{name: a}, {name: a}]",
			err:  scene.ErrDuplicateNode,
		},
		"unnamed": {
			yaml: "nodes: [{transform: {pos: [1]}}]",
			err:  scene.ErrUnknownNode,
		},
		"dangling constraint": {
			yaml: "nodes: [{name: a}]\nconstraints: [{kind: rod, a: a, b: z, length: 1}]",
			err:  scene.ErrUnknownNode,
		},
		"bad kind": {
			yaml: "nodes: [{name: a}, {name: b}]\nconstraints: [{kind: spring, a: a, b: b, length: 1}]",
			err:  scene.ErrBadConstraint,
		},
		"zero length": {
			yaml: "nodes: [{name: a}, {name: b}]\nconstraints: [{kind: cable, a: a, b: b}]",
			err:  scene.ErrBadConstraint,
		},
		"dangling wrapper": {
			yaml: "nodes: [{name: a, mesh: {id: 1, wrapper: nope}}]",
			err:  scene.ErrUnknownNode,
		},
		"endpoint names a constraint": {
			yaml: "nodes: [{name: a}, {name: b}]\nconstraints: [{name: c1, kind: rod, a: a, b: b, length: 1}, {kind: cable, a: c1, b: b, length: 2}]",
			err:  scene.ErrUnknownNode,
		},
		"wrapper names a constraint": {
			yaml: "nodes: [{name: a}, {name: b, mesh: {id: 1, wrapper: c1}}]\nconstraints: [{name: c1, kind: rod, a: a, b: b, length: 1}]",
			err:  scene.ErrUnknownNode,
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := scene.Parse([]byte(tt.yaml))
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.yaml")
	require.NoError(t, os.WriteFile(path, []byte(pendulum), 0o644))

	s, err := scene.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "test", s.Name)
	assert.Len(t, s.Nodes, 3)

	_, err = scene.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestBuildSampleScene(t *testing.T) {
	s, err := scene.Load(filepath.Join("..", "..", "configs", "pendulum.yaml"))
	require.NoError(t, err)
	w := newWorld(t)
	b, err := scene.Build(w, s)
	require.NoError(t, err)
	assert.Equal(t, 4, b.Len())
}
