// Package scene loads YAML scene descriptions and builds them into a World
// as a single batch, keeping a name to Entity binding table for later edits.
package scene

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

var (
	ErrDuplicateNode = eris.New("duplicate node name")
	ErrUnknownNode   = eris.New("unknown node")
	ErrBadConstraint = eris.New("invalid constraint")
)

// Scene is the decoded form of a scene file.
type Scene struct {
	Name        string       `yaml:"name"`
	Nodes       []Node       `yaml:"nodes"`
	Constraints []Constraint `yaml:"constraints"`
}

// Node describes one entity. Every section is optional.
type Node struct {
	Name      string         `yaml:"name"`
	Transform *TransformSpec `yaml:"transform"`
	Color     []float32      `yaml:"color"`
	Mesh      *MeshSpec      `yaml:"mesh"`
	Particle  *ParticleSpec  `yaml:"particle"`
}

type TransformSpec struct {
	Pos   []float32 `yaml:"pos"`
	Rot   []float32 `yaml:"rot"`
	Scale []float32 `yaml:"scale"`
}

type MeshSpec struct {
	ID uint32 `yaml:"id"`

	// Wrapper names another node that owns the mesh.
	Wrapper string `yaml:"wrapper"`
}

type ParticleSpec struct {
	Vel     []float32 `yaml:"vel"`
	Damping *float32  `yaml:"damping"`
	Mass    *float32  `yaml:"mass"`
	Gravity *float32  `yaml:"gravity"`
}

// Constraint joins two nodes with a cable or a rod.
type Constraint struct {
	Name        string  `yaml:"name"`
	Kind        string  `yaml:"kind"`
	A           string  `yaml:"a"`
	B           string  `yaml:"b"`
	Length      float32 `yaml:"length"`
	Restitution float32 `yaml:"restitution"`
}

// Load reads and parses a scene file.
func Load(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "read scene %s", path)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, eris.Wrapf(err, "parse scene %s", path)
	}
	return s, nil
}

// Parse decodes a scene and checks that names are unique and every
// reference names a node.
func Parse(data []byte) (*Scene, error) {
	var s Scene
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, eris.Wrap(err, "decode yaml")
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Scene) validate() error {
	names := make(map[string]struct{}, len(s.Nodes)+len(s.Constraints))
	nodes := make(map[string]struct{}, len(s.Nodes))
	claim := func(name string) error {
		if name == "" {
			return nil
		}
		if _, ok := names[name]; ok {
			return eris.Wrapf(ErrDuplicateNode, "%q", name)
		}
		names[name] = struct{}{}
		return nil
	}

	for _, n := range s.Nodes {
		if n.Name == "" {
			return eris.Wrap(ErrUnknownNode, "node without a name")
		}
		if err := claim(n.Name); err != nil {
			return err
		}
		nodes[n.Name] = struct{}{}
	}
	for _, c := range s.Constraints {
		if err := claim(c.Name); err != nil {
			return err
		}
	}

	for _, n := range s.Nodes {
		if n.Mesh != nil && n.Mesh.Wrapper != "" {
			if _, ok := nodes[n.Mesh.Wrapper]; !ok {
				return eris.Wrapf(ErrUnknownNode, "mesh wrapper %q of %q", n.Mesh.Wrapper, n.Name)
			}
		}
	}
	for _, c := range s.Constraints {
		if c.Kind != "cable" && c.Kind != "rod" {
			return eris.Wrapf(ErrBadConstraint, "kind %q", c.Kind)
		}
		if c.Length <= 0 {
			return eris.Wrapf(ErrBadConstraint, "%s %s-%s needs a positive length", c.Kind, c.A, c.B)
		}
		for _, end := range []string{c.A, c.B} {
			if _, ok := nodes[end]; !ok {
				return eris.Wrapf(ErrUnknownNode, "%s end %q", c.Kind, end)
			}
		}
	}
	return nil
}
