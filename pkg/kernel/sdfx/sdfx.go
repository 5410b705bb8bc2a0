// Package sdfx implements the kernel.Kernel interface using the
// github.com/deadsy/sdfx SDF-based CAD library.
//
// SDF solids have no boundary representation, so Triangulate runs marching
// cubes and returns the whole surface as one face without an underlying
// parametric surface. Normals are left to the mesh pipeline.
package sdfx

import (
	"fmt"
	"math"

	"github.com/chazu/tessera/pkg/brep"
	"github.com/chazu/tessera/pkg/kernel"
	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Compile-time interface check.
var _ kernel.Kernel = (*SdfxKernel)(nil)

// defaultMeshCells controls marching cubes tessellation resolution when
// no linear deflection is configured.
const defaultMeshCells = 200

// sdfxSolid wraps an sdf.SDF3 to implement kernel.Solid.
type sdfxSolid struct {
	s sdf.SDF3
}

// BoundingBox returns the axis-aligned bounding box.
func (s *sdfxSolid) BoundingBox() (min, max [3]float64) {
	bb := s.s.BoundingBox()
	min = [3]float64{bb.Min.X, bb.Min.Y, bb.Min.Z}
	max = [3]float64{bb.Max.X, bb.Max.Y, bb.Max.Z}
	return min, max
}

// SdfxKernel implements kernel.Kernel using sdfx.
type SdfxKernel struct{}

// New returns a new SdfxKernel.
func New() *SdfxKernel {
	return &SdfxKernel{}
}

func (k *SdfxKernel) Name() string { return "sdfx" }

// wrap creates a kernel.Solid from an sdf.SDF3.
// checkDims rejects zero, negative, NaN and infinite dimensions. Some sdf
// constructors accept them and build an empty or unbounded solid.
func checkDims(what string, vals ...float64) error {
	for _, v := range vals {
		if !(v > 0) || math.IsInf(v, 0) {
			return fmt.Errorf("sdfx: %s dimensions must be positive and finite, got %v", what, vals)
		}
	}
	return nil
}

func wrap(s sdf.SDF3) kernel.Solid {
	return &sdfxSolid{s: s}
}

// Box creates a box with its minimum corner at the origin. sdf.Box3D
// centers the box, so it is shifted by half its dimensions.
func (k *SdfxKernel) Box(x, y, z float64) (kernel.Solid, error) {
	if err := checkDims("box", x, y, z); err != nil {
		return nil, err
	}
	s, err := sdf.Box3D(v3.Vec{X: x, Y: y, Z: z}, 0)
	if err != nil {
		return nil, fmt.Errorf("sdfx: box: %w", err)
	}
	m := sdf.Translate3d(v3.Vec{X: x / 2, Y: y / 2, Z: z / 2})
	return wrap(sdf.Transform3D(s, m)), nil
}

// Cylinder creates a cylinder with the given height and radius.
// The segments parameter is ignored since SDF represents smooth surfaces.
func (k *SdfxKernel) Cylinder(height, radius float64, segments int) (kernel.Solid, error) {
	if err := checkDims("cylinder", height, radius); err != nil {
		return nil, err
	}
	s, err := sdf.Cylinder3D(height, radius, 0)
	if err != nil {
		return nil, fmt.Errorf("sdfx: cylinder: %w", err)
	}
	return wrap(s), nil
}

// Sphere creates a sphere centred on the origin.
func (k *SdfxKernel) Sphere(radius float64) (kernel.Solid, error) {
	if err := checkDims("sphere", radius); err != nil {
		return nil, err
	}
	s, err := sdf.Sphere3D(radius)
	if err != nil {
		return nil, fmt.Errorf("sdfx: sphere: %w", err)
	}
	return wrap(s), nil
}

// Triangulate renders the solid with uniform marching cubes. The grid
// resolution follows the linear deflection along the longest side.
// Marching cubes emits each triangle with its own three corners; exact
// duplicates are welded so the face has shared nodes.
func (k *SdfxKernel) Triangulate(s kernel.Solid, p kernel.MeshParams) (*brep.Shape, error) {
	solid, ok := s.(*sdfxSolid)
	if !ok {
		return nil, fmt.Errorf("sdfx: %w: %T", kernel.ErrForeignSolid, s)
	}

	bb := solid.s.BoundingBox()
	size := bb.Max.Sub(bb.Min)
	longest := max(size.X, size.Y, size.Z)
	cells := p.Cells(longest, defaultMeshCells)

	renderer := render.NewMarchingCubesUniform(cells)
	triangles := render.ToTriangles(solid.s, renderer)
	if len(triangles) == 0 {
		return nil, fmt.Errorf("sdfx: marching cubes produced no triangles at %d cells", cells)
	}

	poly := &brep.Poly{Triangles: make([][3]int, 0, len(triangles))}
	index := make(map[v3.Vec]int, len(triangles))
	for _, tri := range triangles {
		var t [3]int
		for j := 0; j < 3; j++ {
			v := tri[j]
			n, seen := index[v]
			if !seen {
				poly.Nodes = append(poly.Nodes, v)
				n = len(poly.Nodes)
				index[v] = n
			}
			t[j] = n
		}
		if t[0] == t[1] || t[1] == t[2] || t[0] == t[2] {
			continue
		}
		poly.Triangles = append(poly.Triangles, t)
	}

	return &brep.Shape{Faces: []*brep.Face{
		{Triangulation: poly, Orientation: brep.Forward},
	}}, nil
}
