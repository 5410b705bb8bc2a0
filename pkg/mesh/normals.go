package mesh

import (
	"errors"
	"fmt"

	"github.com/chazu/tessera/pkg/brep"
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// NormalMethod records how a face's normals were obtained.
type NormalMethod int

const (
	NoNormals     NormalMethod = iota // face skipped or normals not requested
	PreComputed                       // read from the triangulation
	SurfaceBased                      // evaluated on the underlying surface
	TriangleBased                     // accumulated from triangle cross products
)

func (m NormalMethod) String() string {
	switch m {
	case PreComputed:
		return "pre_computed"
	case SurfaceBased:
		return "surface_based"
	case TriangleBased:
		return "triangle_based"
	default:
		return "none"
	}
}

// surfaceEpsilon bounds |du × dv| below which a surface normal is not
// defined.
const surfaceEpsilon = 1e-12

var (
	up                 = v3.Vec{Z: 1}
	errUndefinedNormal = errors.New("surface normal is undefined")
	errDegenerateFacet = errors.New("triangle has near-zero area")
)

// NormalResult is the output of SynthesizeNormals.
type NormalResult struct {
	// Normals has one unit vector per node, in node order, already rotated
	// by the face location.
	Normals     []v3.Vec
	Method      NormalMethod
	Diagnostics []Diagnostic
}

// SynthesizeNormals produces per-node normals for a single face. Normals
// stored in the triangulation are used as-is; otherwise the face's surface
// is evaluated at each node's UV; otherwise triangle normals are
// accumulated per node.
func SynthesizeNormals(face *brep.Face, opts Options) NormalResult {
	opts = opts.withDefaults()
	c := &collector{face: -1}
	data, ok := readFace(face, c)
	if !ok {
		return NormalResult{Method: NoNormals, Diagnostics: c.diags}
	}
	normals, method, _ := synthesize(face, data, opts, c)
	return NormalResult{Normals: normals, Method: method, Diagnostics: c.diags}
}

// synthesize runs the decision chain. The returned local normals are the
// pre-location values, used for write-back.
func synthesize(face *brep.Face, data *faceData, opts Options, c *collector) (normals []v3.Vec, method NormalMethod, local []v3.Vec) {
	tri := face.Triangulation

	switch {
	case flag(tri.HasNormals):
		local = preComputedNormals(tri, len(data.nodes), c)
		method = PreComputed
	default:
		var ok bool
		if local, ok = surfaceNormals(face, data, opts, c); ok {
			method = SurfaceBased
		} else {
			local = triangleNormals(data, opts.DegenerateTolerance, c)
			method = TriangleBased
		}
	}

	flip := opts.FlipNormalsForReversed && face.Orientation == brep.Reversed
	normals = make([]v3.Vec, len(local))
	for i, n := range local {
		n = face.Location.Direction(n)
		if flip {
			n = n.Neg()
		}
		normals[i] = n
	}
	return normals, method, local
}

func preComputedNormals(tri brep.Triangulation, n int, c *collector) []v3.Vec {
	normals := make([]v3.Vec, 0, n)
	each(n, tri.Normal,
		func(_ int, v v3.Vec) { normals = append(normals, v) },
		func(i int, err error) {
			c.add(CorruptTriangulation, i, fmt.Errorf("normal: %w", err))
			normals = append(normals, up)
		})
	return normals
}

// surfaceNormals evaluates the face's surface at every node's UV. ok is
// false when the face must fall back to triangle accumulation; in that
// case only the evaluation failure itself is reported.
func surfaceNormals(face *brep.Face, data *faceData, opts Options, c *collector) (normals []v3.Vec, ok bool) {
	s := face.Surface
	tri := face.Triangulation
	if s == nil || !flag(tri.HasUV) {
		return nil, false
	}

	bounds := read(func() ([4]float64, error) {
		umin, umax, vmin, vmax := s.Bounds()
		return [4]float64{umin, umax, vmin, vmax}, nil
	})
	if bounds.Err != nil {
		c.add(SurfaceEvaluationFailure, 0, fmt.Errorf("bounds: %w", bounds.Err))
		return nil, false
	}
	b := bounds.Value
	mid := v2.Vec{X: (b[0] + b[1]) / 2, Y: (b[2] + b[3]) / 2}
	if _, err := surfaceNormal(s, mid); err != nil {
		c.add(SurfaceEvaluationFailure, 0, fmt.Errorf("at parametric midpoint %v: %w", mid, err))
		return nil, false
	}

	// Diagnostics are staged so a mid-face fallback leaves no trace of
	// the abandoned attempt.
	staged := &collector{face: c.face}
	var fallback []v3.Vec
	normals = make([]v3.Vec, len(data.nodes))
	for i := range normals {
		uv := read(func() (v2.Vec, error) { return tri.UV(i + 1) })
		if uv.Err != nil {
			staged.add(CorruptTriangulation, i+1, fmt.Errorf("uv: %w", uv.Err))
			normals[i] = up
			continue
		}
		n, err := surfaceNormal(s, uv.Value)
		switch {
		case errors.Is(err, errUndefinedNormal):
			if fallback == nil {
				fallback = triangleNormals(data, opts.DegenerateTolerance, nil)
			}
			staged.add(DegenerateGeometry, i+1, fmt.Errorf("at %v: %w", uv.Value, err))
			normals[i] = fallback[i]
		case err != nil:
			c.add(SurfaceEvaluationFailure, i+1, fmt.Errorf("at %v: %w", uv.Value, err))
			return nil, false
		default:
			normals[i] = n
		}
	}
	c.diags = append(c.diags, staged.diags...)
	return normals, true
}

// surfaceNormal returns normalize(du × dv) at uv.
func surfaceNormal(s brep.Surface, uv v2.Vec) (v3.Vec, error) {
	d := read(func() ([2]v3.Vec, error) {
		_, du, dv, err := s.D1(uv)
		return [2]v3.Vec{du, dv}, err
	})
	if d.Err != nil {
		return v3.Vec{}, d.Err
	}
	n := d.Value[0].Cross(d.Value[1])
	l := n.Length()
	if !(l > surfaceEpsilon) {
		return v3.Vec{}, errUndefinedNormal
	}
	return n.MulScalar(1 / l), nil
}

// triangleNormals accumulates unit triangle normals onto their nodes.
// Nodes without a contribution get +Z.
func triangleNormals(data *faceData, tolerance float64, c *collector) []v3.Vec {
	sums := make([]v3.Vec, len(data.nodes))
	for _, t := range data.tris {
		p1 := data.nodes[t.nodes[0]-1]
		p2 := data.nodes[t.nodes[1]-1]
		p3 := data.nodes[t.nodes[2]-1]
		n := p2.Sub(p1).Cross(p3.Sub(p1))
		l := n.Length()
		if !(l > tolerance) {
			c.add(DegenerateGeometry, t.index, fmt.Errorf("%w: |n| = %g", errDegenerateFacet, l))
			continue
		}
		n = n.MulScalar(1 / l)
		for _, k := range t.nodes {
			sums[k-1] = sums[k-1].Add(n)
		}
	}

	normals := make([]v3.Vec, len(sums))
	for i, s := range sums {
		l := s.Length()
		if l > 0 {
			normals[i] = s.MulScalar(1 / l)
		} else {
			normals[i] = up
		}
	}
	return normals
}
