// Package kernel defines the abstract geometry kernel interface.
// Implementations (analytic, sdfx, manifold) build primitive solids and
// triangulate them into B-rep shapes whose faces carry per-face
// triangulations. The kernel abstraction allows swapping backends without
// changing the mesh assembly pipeline.
package kernel

import (
	"errors"
	"math"

	"github.com/chazu/tessera/pkg/brep"
)

// ErrForeignSolid is returned when a kernel is handed a Solid built by a
// different kernel.
var ErrForeignSolid = errors.New("kernel: solid belongs to another kernel")

// Solid is an opaque handle to a geometry kernel solid.
// Implementations wrap their internal representation.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
}

// Kernel is the abstract geometry kernel interface.
type Kernel interface {
	// Name identifies the backend in logs and configuration.
	Name() string

	// Primitives. Boxes have their minimum corner at the origin so that
	// placement translations work intuitively. Cylinders (axis along Z)
	// and spheres are centred on the origin.
	Box(x, y, z float64) (Solid, error)
	Cylinder(height, radius float64, segments int) (Solid, error)
	Sphere(radius float64) (Solid, error)

	// Triangulate meshes a solid into faces. Each face's triangles are
	// counter-clockwise about the face surface's natural normal; the
	// face orientation says whether that normal points out of the solid.
	Triangulate(s Solid, p MeshParams) (*brep.Shape, error)
}

// MeshParams are the deflection controls handed to a kernel's mesher.
type MeshParams struct {
	// LinearDeflection is the maximum chordal distance between the mesh
	// and the true surface, in model units.
	LinearDeflection float64 `yaml:"linear_deflection"`
	// AngularDeflection is the maximum angle in radians between adjacent
	// facet normals.
	AngularDeflection float64 `yaml:"angular_deflection"`
	// RelativeDeflection scales LinearDeflection by each solid's size.
	RelativeDeflection bool `yaml:"relative_deflection"`
	// ParallelMeshing lets a kernel mesh faces concurrently.
	ParallelMeshing bool `yaml:"parallel_meshing"`
}

// DefaultMeshParams returns a medium-quality setting.
func DefaultMeshParams() MeshParams {
	return MeshParams{
		LinearDeflection:  0.1,
		AngularDeflection: 0.5,
	}
}

const (
	minSegments = 3
	maxSegments = 1024
)

// linear returns the effective linear deflection for a feature of the
// given size.
func (p MeshParams) linear(size float64) float64 {
	d := p.LinearDeflection
	if p.RelativeDeflection {
		d *= size
	}
	return d
}

// CircleSegments returns how many segments approximate a circle of the
// given radius within both deflection bounds.
func (p MeshParams) CircleSegments(radius float64) int {
	n := minSegments
	if p.AngularDeflection > 0 {
		n = max(n, int(math.Ceil(2*math.Pi/p.AngularDeflection)))
	}
	if d := p.linear(radius); d > 0 && d < radius {
		// Sagitta of a chord spanning angle θ is r(1 - cos(θ/2)).
		theta := 2 * math.Acos(1-d/radius)
		n = max(n, int(math.Ceil(2*math.Pi/theta)))
	}
	return min(n, maxSegments)
}

// Cells returns a uniform grid resolution along the longest side of a
// bounding box so that one cell is no larger than the linear deflection.
// It returns fallback when no linear deflection is set.
func (p MeshParams) Cells(size float64, fallback int) int {
	d := p.linear(size)
	if d <= 0 || size <= 0 {
		return fallback
	}
	return min(max(int(math.Ceil(size/d)), 8), maxSegments)
}
