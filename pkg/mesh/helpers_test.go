package mesh

import (
	"errors"
	"math"
	"testing"

	"github.com/chazu/tessera/pkg/brep"
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

const eps = 1e-6

var errBroken = errors.New("broken accessor")

// brokenTri wraps a Poly with per-index failures.
type brokenTri struct {
	*brep.Poly
	countPanic bool
	nodeCount  int // reported instead of the real count when non-zero
	triCount   int
	writePanic bool
	nodeErr    map[int]bool
	triPanic   map[int]bool
	uvErr      map[int]bool
}

func (b *brokenTri) NodeCount() int {
	if b.countPanic {
		panic("count")
	}
	if b.nodeCount != 0 {
		return b.nodeCount
	}
	return b.Poly.NodeCount()
}

func (b *brokenTri) TriangleCount() int {
	if b.triCount != 0 {
		return b.triCount
	}
	return b.Poly.TriangleCount()
}

func (b *brokenTri) SetNormals(normals []v3.Vec) error {
	if b.writePanic {
		panic("write-back")
	}
	return b.Poly.SetNormals(normals)
}

func (b *brokenTri) Node(i int) (v3.Vec, error) {
	if b.nodeErr[i] {
		return v3.Vec{}, errBroken
	}
	return b.Poly.Node(i)
}

func (b *brokenTri) Triangle(i int) ([3]int, error) {
	if b.triPanic[i] {
		panic("triangle read")
	}
	return b.Poly.Triangle(i)
}

func (b *brokenTri) UV(i int) (v2.Vec, error) {
	if b.uvErr[i] {
		return v2.Vec{}, errBroken
	}
	return b.Poly.UV(i)
}

// panicTransform is a CustomTransform that always panics.
type panicTransform struct{}

func (panicTransform) TransformPoint(v3.Vec) v3.Vec  { panic("transform point") }
func (panicTransform) TransformNormal(v3.Vec) v3.Vec { panic("transform normal") }

// badSurface fails D1 wherever fail returns true. A nil fail panics.
type badSurface struct {
	brep.Surface
	fail func(uv v2.Vec) bool
}

func (s *badSurface) D1(uv v2.Vec) (p, du, dv v3.Vec, err error) {
	if s.fail == nil {
		panic("surface evaluation")
	}
	if s.fail(uv) {
		return p, du, dv, errBroken
	}
	return s.Surface.D1(uv)
}

// unitTriangle is the triangle (0,0,0) (1,0,0) (0,1,0), counter-clockwise
// about +Z.
func unitTriangle() *brep.Poly {
	return &brep.Poly{
		Nodes:     []v3.Vec{{}, {X: 1}, {Y: 1}},
		Triangles: [][3]int{{1, 2, 3}},
	}
}

// unitSquare is the square [0,1]² at z, two triangles counter-clockwise
// about +Z, with UV equal to XY.
func unitSquare(z float64) *brep.Poly {
	return &brep.Poly{
		Nodes:     []v3.Vec{{Z: z}, {X: 1, Z: z}, {X: 1, Y: 1, Z: z}, {Y: 1, Z: z}},
		Triangles: [][3]int{{1, 2, 3}, {1, 3, 4}},
		UVs:       []v2.Vec{{}, {X: 1}, {X: 1, Y: 1}, {Y: 1}},
	}
}

func vecNear(a, b v3.Vec, tol float64) bool {
	return a.Sub(b).Length() < tol
}

func assertValid(t *testing.T, m *Mesh) {
	t.Helper()
	if err := m.Validate(); err != nil {
		t.Fatalf("invalid mesh: %v", err)
	}
}

func assertUnit(t *testing.T, n v3.Vec) {
	t.Helper()
	if math.Abs(n.Length()-1) > eps {
		t.Fatalf("normal %v has length %g, want 1", n, n.Length())
	}
}
