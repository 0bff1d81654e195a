// Package components holds the components shared by the simulation clients:
// placement, appearance and the binding to a render mesh.
package components

import (
	"github.com/plus3/sigecs/ecs"
	"github.com/rotisserie/eris"
)

// Transform places an entity in world space. Rot holds Euler angles in
// radians.
type Transform struct {
	Pos   Vec3
	Rot   Vec3
	Scale Vec3
}

// NewTransform returns a unit-scale transform at pos.
func NewTransform(pos Vec3) Transform {
	return Transform{Pos: pos, Scale: Vec3{1, 1, 1}}
}

// Color is a linear RGBA tint.
type Color struct {
	R, G, B, A float32
}

// White is the tint used for entities without a Color.
var White = Color{1, 1, 1, 1}

// MeshID identifies a mesh known to the renderer.
type MeshID uint32

// MeshBinding ties an entity to a render mesh. Wrapper optionally names the
// entity that owns the mesh resources when several entities share it.
type MeshBinding struct {
	ID      MeshID
	Wrapper ecs.Entity

	provisionalWrapper ecs.ProvisionalEntity
}

func NewMeshBinding(id MeshID, wrapper ecs.Entity) MeshBinding {
	return MeshBinding{ID: id, Wrapper: wrapper}
}

// NewProvisionalMeshBinding binds to a wrapper that is still being built in
// the same batch.
func NewProvisionalMeshBinding(id MeshID, wrapper ecs.ProvisionalEntity) MeshBinding {
	return MeshBinding{ID: id, provisionalWrapper: wrapper}
}

func (m *MeshBinding) ResolveProvisional(mapping *ecs.ProvisionalMapping) {
	if m.provisionalWrapper == ecs.NoProvisional {
		return
	}
	m.Wrapper = mapping.Resolve(m.provisionalWrapper)
	m.provisionalWrapper = ecs.NoProvisional
}

// Register registers Transform, Color and MeshBinding with w.
func Register(w *ecs.World) error {
	if _, err := ecs.RegisterComponent[Transform](w); err != nil {
		return eris.Wrap(err, "register Transform")
	}
	if _, err := ecs.RegisterComponent[Color](w); err != nil {
		return eris.Wrap(err, "register Color")
	}
	if _, err := ecs.RegisterComponent[MeshBinding](w); err != nil {
		return eris.Wrap(err, "register MeshBinding")
	}
	return nil
}
