package brep

import (
	"errors"
	"fmt"

	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// ErrIndex is returned by Poly accessors for an index outside the buffer.
var ErrIndex = errors.New("brep: index out of range")

// Triangulation is a face's discrete approximation as produced by the
// meshing step. All indices are 1-based. A triangulation coming from a
// damaged kernel result may return errors (or panic) from any accessor,
// and its triangles may reference nodes that do not exist.
type Triangulation interface {
	NodeCount() int
	TriangleCount() int
	Node(i int) (v3.Vec, error)
	// Triangle returns the 1-based node indices of triangle i.
	Triangle(i int) ([3]int, error)

	HasNormals() bool
	Normal(i int) (v3.Vec, error)

	HasUV() bool
	UV(i int) (v2.Vec, error)
}

// NormalWriter is implemented by triangulations that accept synthesized
// per-node normals.
type NormalWriter interface {
	SetNormals(normals []v3.Vec) error
}

// Poly is a slice-backed Triangulation. Slices are 0-based; the accessors
// translate from the 1-based contract.
type Poly struct {
	Nodes     []v3.Vec
	Triangles [][3]int
	Normals   []v3.Vec // nil when the kernel supplied none
	UVs       []v2.Vec // nil when the kernel supplied none
}

// Compile-time interface checks.
var _ Triangulation = (*Poly)(nil)
var _ NormalWriter = (*Poly)(nil)

func (p *Poly) NodeCount() int     { return len(p.Nodes) }
func (p *Poly) TriangleCount() int { return len(p.Triangles) }
func (p *Poly) HasNormals() bool   { return len(p.Normals) > 0 }
func (p *Poly) HasUV() bool        { return len(p.UVs) > 0 }

func (p *Poly) Node(i int) (v3.Vec, error) {
	if i < 1 || i > len(p.Nodes) {
		return v3.Vec{}, fmt.Errorf("node %d of %d: %w", i, len(p.Nodes), ErrIndex)
	}
	return p.Nodes[i-1], nil
}

func (p *Poly) Triangle(i int) ([3]int, error) {
	if i < 1 || i > len(p.Triangles) {
		return [3]int{}, fmt.Errorf("triangle %d of %d: %w", i, len(p.Triangles), ErrIndex)
	}
	return p.Triangles[i-1], nil
}

func (p *Poly) Normal(i int) (v3.Vec, error) {
	if i < 1 || i > len(p.Normals) {
		return v3.Vec{}, fmt.Errorf("normal %d of %d: %w", i, len(p.Normals), ErrIndex)
	}
	return p.Normals[i-1], nil
}

func (p *Poly) UV(i int) (v2.Vec, error) {
	if i < 1 || i > len(p.UVs) {
		return v2.Vec{}, fmt.Errorf("uv %d of %d: %w", i, len(p.UVs), ErrIndex)
	}
	return p.UVs[i-1], nil
}

// SetNormals replaces the per-node normals. The slice is copied.
func (p *Poly) SetNormals(normals []v3.Vec) error {
	if len(normals) != len(p.Nodes) {
		return fmt.Errorf("brep: %d normals for %d nodes", len(normals), len(p.Nodes))
	}
	p.Normals = append([]v3.Vec(nil), normals...)
	return nil
}
