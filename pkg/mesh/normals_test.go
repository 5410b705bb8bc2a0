package mesh

import (
	"math"
	"testing"

	"github.com/chazu/tessera/pkg/brep"
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

func TestTriangleBasedFallback(t *testing.T) {
	// Single planar triangle, no stored normals, no UV.
	face := &brep.Face{Triangulation: unitTriangle()}
	res := SynthesizeNormals(face, DefaultOptions())

	if res.Method != TriangleBased {
		t.Fatalf("method = %s, want triangle_based", res.Method)
	}
	if len(res.Normals) != 3 {
		t.Fatalf("got %d normals, want 3", len(res.Normals))
	}
	edge1 := v3.Vec{X: 1}
	edge2 := v3.Vec{Y: 1}
	for i, n := range res.Normals {
		assertUnit(t, n)
		if n != res.Normals[0] {
			t.Fatalf("normal %d = %v differs from normal 0 = %v", i, n, res.Normals[0])
		}
		if math.Abs(n.Dot(edge1)) > eps || math.Abs(n.Dot(edge2)) > eps {
			t.Fatalf("normal %v is not perpendicular to the triangle", n)
		}
	}
	if len(res.Diagnostics) != 0 {
		t.Fatalf("unexpected diagnostics: %v", res.Diagnostics)
	}
}

func TestPreComputedNormalsUsedAsIs(t *testing.T) {
	stored := []v3.Vec{{X: 1}, {Y: 1}, {X: -1}}
	poly := unitTriangle()
	poly.Normals = stored
	poly.UVs = []v2.Vec{{}, {X: 1}, {Y: 1}}

	tests := []struct {
		name string
		loc  brep.Location
		want []v3.Vec
	}{
		{"identity", brep.Identity(), stored},
		{"translated", brep.Translation(v3.Vec{X: 5, Y: -2, Z: 9}), stored},
		{"rotated 90 about Z", brep.Rotation(0, 0, 90), []v3.Vec{{Y: 1}, {X: -1}, {Y: -1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// The surface would disagree with the stored normals if it were
			// consulted.
			face := &brep.Face{
				Triangulation: poly,
				Surface:       &brep.Plane{XDir: v3.Vec{X: 1}, YDir: v3.Vec{Y: 1}, UMax: 1, VMax: 1},
				Location:      tt.loc,
			}
			res := SynthesizeNormals(face, DefaultOptions())
			if res.Method != PreComputed {
				t.Fatalf("method = %s, want pre_computed", res.Method)
			}
			for i, n := range res.Normals {
				if !vecNear(n, tt.want[i], eps) {
					t.Errorf("normal %d = %v, want %v", i, n, tt.want[i])
				}
			}
		})
	}
}

func TestSurfaceBasedNormals(t *testing.T) {
	cyl := &brep.CylinderSurface{Radius: 2, VMax: 1}
	uvs := []v2.Vec{{X: 0, Y: 0}, {X: 0.5, Y: 0}, {X: 0, Y: 1}, {X: 0.5, Y: 1}}
	nodes := make([]v3.Vec, len(uvs))
	for i, uv := range uvs {
		p, _, _, err := cyl.D1(uv)
		if err != nil {
			t.Fatal(err)
		}
		nodes[i] = p
	}
	face := &brep.Face{
		Triangulation: &brep.Poly{Nodes: nodes, Triangles: [][3]int{{1, 2, 4}, {1, 4, 3}}, UVs: uvs},
		Surface:       cyl,
	}

	res := SynthesizeNormals(face, DefaultOptions())
	if res.Method != SurfaceBased {
		t.Fatalf("method = %s, want surface_based", res.Method)
	}
	for i, uv := range uvs {
		want := v3.Vec{X: math.Cos(uv.X), Y: math.Sin(uv.X)}
		if !vecNear(res.Normals[i], want, eps) {
			t.Errorf("normal %d = %v, want %v", i, res.Normals[i], want)
		}
	}
}

func TestSurfaceFallback(t *testing.T) {
	plane := &brep.Plane{XDir: v3.Vec{X: 1}, YDir: v3.Vec{Y: 1}, UMax: 1, VMax: 1}

	tests := []struct {
		name      string
		surface   brep.Surface
		withUV    bool
		wantMeth  NormalMethod
		wantFails int
	}{
		{"no surface", nil, true, TriangleBased, 0},
		{"no uv", plane, false, TriangleBased, 0},
		{"plane", plane, true, SurfaceBased, 0},
		{"error everywhere", &badSurface{Surface: plane, fail: func(v2.Vec) bool { return true }}, true, TriangleBased, 1},
		{"error at one node", &badSurface{Surface: plane, fail: func(uv v2.Vec) bool { return uv.X == 1 && uv.Y == 1 }}, true, TriangleBased, 1},
		{"panic", &badSurface{Surface: plane}, true, TriangleBased, 1},
		{"degenerate midpoint", &brep.Plane{XDir: v3.Vec{X: 1}, YDir: v3.Vec{X: 2}, UMax: 1, VMax: 1}, true, TriangleBased, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			poly := unitSquare(0)
			if !tt.withUV {
				poly.UVs = nil
			}
			res := SynthesizeNormals(&brep.Face{Triangulation: poly, Surface: tt.surface}, DefaultOptions())
			if res.Method != tt.wantMeth {
				t.Fatalf("method = %s, want %s", res.Method, tt.wantMeth)
			}
			fails := 0
			for _, d := range res.Diagnostics {
				if d.Kind == SurfaceEvaluationFailure {
					fails++
				}
			}
			if fails != tt.wantFails {
				t.Fatalf("got %d surface failures, want %d: %v", fails, tt.wantFails, res.Diagnostics)
			}
			if len(res.Diagnostics) != tt.wantFails {
				t.Fatalf("unexpected extra diagnostics: %v", res.Diagnostics)
			}
			for i, n := range res.Normals {
				if !vecNear(n, v3.Vec{Z: 1}, eps) {
					t.Errorf("normal %d = %v, want +Z", i, n)
				}
			}
		})
	}
}

func TestSurfacePoleUsesTriangleNormal(t *testing.T) {
	sphere := &brep.SphereSurface{Radius: 1}
	uvs := []v2.Vec{{X: 0, Y: math.Pi / 2}, {X: 0, Y: math.Pi / 4}, {X: math.Pi / 2, Y: math.Pi / 4}}
	nodes := make([]v3.Vec, len(uvs))
	for i, uv := range uvs {
		nodes[i], _, _, _ = sphere.D1(uv)
	}
	face := &brep.Face{
		Triangulation: &brep.Poly{Nodes: nodes, Triangles: [][3]int{{1, 2, 3}}, UVs: uvs},
		Surface:       sphere,
	}

	res := SynthesizeNormals(face, DefaultOptions())
	if res.Method != SurfaceBased {
		t.Fatalf("method = %s, want surface_based", res.Method)
	}
	if len(res.Diagnostics) != 1 || res.Diagnostics[0].Kind != DegenerateGeometry || res.Diagnostics[0].Element != 1 {
		t.Fatalf("want one degenerate_geometry diagnostic on node 1, got %v", res.Diagnostics)
	}
	pole := res.Normals[0]
	assertUnit(t, pole)
	if pole.Z < 0.5 {
		t.Fatalf("pole normal %v does not point up", pole)
	}
	for i := 1; i < 3; i++ {
		if !vecNear(res.Normals[i], nodes[i], eps) {
			t.Errorf("normal %d = %v, want radial %v", i, res.Normals[i], nodes[i])
		}
	}
}

func TestDegenerateTriangleContributesNothing(t *testing.T) {
	poly := &brep.Poly{
		// Node 4 is only used by the collinear triangle.
		Nodes:     []v3.Vec{{}, {X: 1}, {Y: 1}, {X: 2}},
		Triangles: [][3]int{{1, 2, 3}, {1, 2, 4}},
	}
	res := SynthesizeNormals(&brep.Face{Triangulation: poly}, DefaultOptions())

	if len(res.Diagnostics) != 1 {
		t.Fatalf("got %d diagnostics, want 1: %v", len(res.Diagnostics), res.Diagnostics)
	}
	d := res.Diagnostics[0]
	if d.Kind != DegenerateGeometry || d.Element != 2 {
		t.Fatalf("diagnostic = %v, want degenerate_geometry on triangle 2", d)
	}
	for i, n := range res.Normals {
		if !vecNear(n, v3.Vec{Z: 1}, eps) {
			t.Errorf("normal %d = %v, want +Z", i, n)
		}
	}
}

func TestOpposingTrianglesDefaultUp(t *testing.T) {
	poly := &brep.Poly{
		Nodes:     []v3.Vec{{}, {X: 1}, {Y: 1}},
		Triangles: [][3]int{{1, 2, 3}, {1, 3, 2}},
	}
	res := SynthesizeNormals(&brep.Face{Triangulation: poly, Location: brep.Rotation(90, 0, 0)}, DefaultOptions())
	// The sums cancel; the +Z default is then rotated like any other normal.
	want := v3.Vec{Y: -1}
	for i, n := range res.Normals {
		if !vecNear(n, want, eps) {
			t.Errorf("normal %d = %v, want %v", i, n, want)
		}
	}
}

func TestFlipNormalsForReversed(t *testing.T) {
	tests := []struct {
		name        string
		orientation brep.Orientation
		flip        bool
		stored      bool
		wantZ       float64
	}{
		{"forward", brep.Forward, false, false, 1},
		{"forward flip", brep.Forward, true, false, 1},
		{"reversed", brep.Reversed, false, false, 1},
		{"reversed flip", brep.Reversed, true, false, -1},
		{"reversed stored", brep.Reversed, false, true, 1},
		{"reversed stored flip", brep.Reversed, true, true, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			poly := unitTriangle()
			if tt.stored {
				poly.Normals = []v3.Vec{{Z: 1}, {Z: 1}, {Z: 1}}
			}
			opts := DefaultOptions()
			opts.FlipNormalsForReversed = tt.flip
			res := SynthesizeNormals(&brep.Face{Triangulation: poly, Orientation: tt.orientation}, opts)
			for i, n := range res.Normals {
				if !vecNear(n, v3.Vec{Z: tt.wantZ}, eps) {
					t.Errorf("normal %d = %v, want (0,0,%g)", i, n, tt.wantZ)
				}
			}
		})
	}
}

func TestSynthesizeNormalsRejectsBadFaces(t *testing.T) {
	tests := []struct {
		name string
		face *brep.Face
		kind ErrorKind
	}{
		{"nil face", nil, NullInput},
		{"no triangulation", &brep.Face{}, EmptyTriangulation},
		{"no triangles", &brep.Face{Triangulation: &brep.Poly{Nodes: []v3.Vec{{}}}}, EmptyTriangulation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := SynthesizeNormals(tt.face, DefaultOptions())
			if res.Method != NoNormals || res.Normals != nil {
				t.Fatalf("got %s with %d normals, want none", res.Method, len(res.Normals))
			}
			if len(res.Diagnostics) != 1 || res.Diagnostics[0].Kind != tt.kind {
				t.Fatalf("diagnostics = %v, want one %s", res.Diagnostics, tt.kind)
			}
			if res.Diagnostics[0].Face != -1 {
				t.Fatalf("face = %d, want -1", res.Diagnostics[0].Face)
			}
		})
	}
}
