// Package analytic implements kernel.Kernel with exact surfaces. Every
// face carries its underlying plane, cylinder or sphere together with a
// UV-parameterized triangulation, so the mesh pipeline can evaluate true
// surface normals.
package analytic

import (
	"fmt"
	"math"

	"github.com/chazu/tessera/pkg/brep"
	"github.com/chazu/tessera/pkg/kernel"
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Compile-time interface check.
var _ kernel.Kernel = (*Kernel)(nil)

type box struct{ x, y, z float64 }

func (b *box) BoundingBox() (min, max [3]float64) {
	return [3]float64{}, [3]float64{b.x, b.y, b.z}
}

type cylinder struct {
	height, radius float64
	segments       int
}

func (c *cylinder) BoundingBox() (min, max [3]float64) {
	r, h := c.radius, c.height/2
	return [3]float64{-r, -r, -h}, [3]float64{r, r, h}
}

type sphere struct{ radius float64 }

func (s *sphere) BoundingBox() (min, max [3]float64) {
	r := s.radius
	return [3]float64{-r, -r, -r}, [3]float64{r, r, r}
}

// Kernel builds analytic solids.
type Kernel struct{}

// New returns a new analytic Kernel.
func New() *Kernel {
	return &Kernel{}
}

func (k *Kernel) Name() string { return "analytic" }

func positive(what string, vals ...float64) error {
	for _, v := range vals {
		if !(v > 0) || math.IsInf(v, 0) {
			return fmt.Errorf("analytic: %s dimensions must be positive and finite, got %v", what, vals)
		}
	}
	return nil
}

// Box creates a box with its minimum corner at the origin.
func (k *Kernel) Box(x, y, z float64) (kernel.Solid, error) {
	if err := positive("box", x, y, z); err != nil {
		return nil, err
	}
	return &box{x, y, z}, nil
}

// Cylinder creates a cylinder around the Z axis centred on the origin. A
// segments value of zero or less lets the mesh parameters decide.
func (k *Kernel) Cylinder(height, radius float64, segments int) (kernel.Solid, error) {
	if err := positive("cylinder", height, radius); err != nil {
		return nil, err
	}
	return &cylinder{height: height, radius: radius, segments: segments}, nil
}

// Sphere creates a sphere centred on the origin.
func (k *Kernel) Sphere(radius float64) (kernel.Solid, error) {
	if err := positive("sphere", radius); err != nil {
		return nil, err
	}
	return &sphere{radius}, nil
}

// Triangulate meshes a solid face by face.
func (k *Kernel) Triangulate(s kernel.Solid, p kernel.MeshParams) (*brep.Shape, error) {
	switch s := s.(type) {
	case *box:
		return s.triangulate(), nil
	case *cylinder:
		n := s.segments
		if n < 3 {
			n = p.CircleSegments(s.radius)
		}
		return s.triangulate(n), nil
	case *sphere:
		return s.triangulate(p.CircleSegments(s.radius)), nil
	default:
		return nil, fmt.Errorf("analytic: %w: %T", kernel.ErrForeignSolid, s)
	}
}

// planeFace triangulates the rectangle [0,du]x[0,dv] of the plane through
// origin spanned by xdir and ydir. Its natural normal is xdir × ydir.
func planeFace(origin, xdir, ydir v3.Vec, du, dv float64, o brep.Orientation) *brep.Face {
	uvs := []v2.Vec{{}, {X: du}, {X: du, Y: dv}, {Y: dv}}
	nodes := make([]v3.Vec, len(uvs))
	for i, uv := range uvs {
		nodes[i] = origin.Add(xdir.MulScalar(uv.X)).Add(ydir.MulScalar(uv.Y))
	}
	return &brep.Face{
		Triangulation: &brep.Poly{Nodes: nodes, Triangles: [][3]int{{1, 2, 3}, {1, 3, 4}}, UVs: uvs},
		Surface:       &brep.Plane{Origin: origin, XDir: xdir, YDir: ydir, UMax: du, VMax: dv},
		Orientation:   o,
	}
}

func (b *box) triangulate() *brep.Shape {
	ex, ey, ez := v3.Vec{X: 1}, v3.Vec{Y: 1}, v3.Vec{Z: 1}
	// Each pair shares one plane orientation with the natural normal along
	// +axis; the face on the far side points out, the near one in.
	return &brep.Shape{Faces: []*brep.Face{
		planeFace(v3.Vec{}, ey, ez, b.y, b.z, brep.Reversed),
		planeFace(v3.Vec{X: b.x}, ey, ez, b.y, b.z, brep.Forward),
		planeFace(v3.Vec{}, ez, ex, b.z, b.x, brep.Reversed),
		planeFace(v3.Vec{Y: b.y}, ez, ex, b.z, b.x, brep.Forward),
		planeFace(v3.Vec{}, ex, ey, b.x, b.y, brep.Reversed),
		planeFace(v3.Vec{Z: b.z}, ex, ey, b.x, b.y, brep.Forward),
	}}
}

func (c *cylinder) triangulate(n int) *brep.Shape {
	h := c.height / 2
	surf := &brep.CylinderSurface{Radius: c.radius, VMin: -h, VMax: h}

	// Lateral face: two rings of n+1 nodes; the seam node is repeated at
	// u = 2π so UV stays continuous.
	lateral := &brep.Poly{}
	for k := 0; k <= n; k++ {
		u := 2 * math.Pi * float64(k) / float64(n)
		for _, v := range []float64{-h, h} {
			uv := v2.Vec{X: u, Y: v}
			p, _, _, _ := surf.D1(uv)
			lateral.Nodes = append(lateral.Nodes, p)
			lateral.UVs = append(lateral.UVs, uv)
		}
	}
	for k := 0; k < n; k++ {
		b0, t0 := 2*k+1, 2*k+2
		b1, t1 := b0+2, t0+2
		lateral.Triangles = append(lateral.Triangles, [3]int{b0, b1, t1}, [3]int{b0, t1, t0})
	}

	return &brep.Shape{Faces: []*brep.Face{
		{Triangulation: lateral, Surface: surf, Orientation: brep.Forward},
		c.cap(n, h, brep.Forward),
		c.cap(n, -h, brep.Reversed),
	}}
}

// cap is a disk at height z whose plane has its natural normal along +Z.
func (c *cylinder) cap(n int, z float64, o brep.Orientation) *brep.Face {
	r := c.radius
	origin := v3.Vec{Z: z}
	poly := &brep.Poly{
		Nodes: []v3.Vec{origin},
		UVs:   []v2.Vec{{}},
	}
	for k := 0; k < n; k++ {
		s, co := math.Sincos(2 * math.Pi * float64(k) / float64(n))
		poly.Nodes = append(poly.Nodes, v3.Vec{X: r * co, Y: r * s, Z: z})
		poly.UVs = append(poly.UVs, v2.Vec{X: r * co, Y: r * s})
	}
	for k := 0; k < n; k++ {
		poly.Triangles = append(poly.Triangles, [3]int{1, k + 2, (k+1)%n + 2})
	}
	return &brep.Face{
		Triangulation: poly,
		Surface: &brep.Plane{
			Origin: origin, XDir: v3.Vec{X: 1}, YDir: v3.Vec{Y: 1},
			UMin: -r, UMax: r, VMin: -r, VMax: r,
		},
		Orientation: o,
	}
}

// triangulate builds a latitude/longitude grid with a single node at each
// pole. The surface normal is undefined there; the assembler falls back
// to the fan's triangle normals.
func (s *sphere) triangulate(n int) *brep.Shape {
	rows := max(n/2, 2)
	surf := &brep.SphereSurface{Radius: s.radius}
	poly := &brep.Poly{}
	add := func(uv v2.Vec) int {
		p, _, _, _ := surf.D1(uv)
		poly.Nodes = append(poly.Nodes, p)
		poly.UVs = append(poly.UVs, uv)
		return len(poly.Nodes)
	}

	south := add(v2.Vec{X: math.Pi, Y: -math.Pi / 2})
	// ring(j, k) is the 1-based node at latitude row j (1..rows-1) and
	// longitude column k (0..n).
	ringStart := len(poly.Nodes) + 1
	ring := func(j, k int) int { return ringStart + (j-1)*(n+1) + k }
	for j := 1; j < rows; j++ {
		v := -math.Pi/2 + math.Pi*float64(j)/float64(rows)
		for k := 0; k <= n; k++ {
			add(v2.Vec{X: 2 * math.Pi * float64(k) / float64(n), Y: v})
		}
	}
	north := add(v2.Vec{X: math.Pi, Y: math.Pi / 2})

	for k := 0; k < n; k++ {
		poly.Triangles = append(poly.Triangles, [3]int{south, ring(1, k+1), ring(1, k)})
		for j := 1; j < rows-1; j++ {
			a, b := ring(j, k), ring(j, k+1)
			c, d := ring(j+1, k+1), ring(j+1, k)
			poly.Triangles = append(poly.Triangles, [3]int{a, b, c}, [3]int{a, c, d})
		}
		poly.Triangles = append(poly.Triangles, [3]int{ring(rows-1, k), ring(rows-1, k+1), north})
	}

	return &brep.Shape{Faces: []*brep.Face{
		{Triangulation: poly, Surface: surf, Orientation: brep.Forward},
	}}
}
