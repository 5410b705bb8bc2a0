package mesh

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestMeshValidate(t *testing.T) {
	tests := []struct {
		name    string
		mesh    Mesh
		wantErr string
	}{
		{"empty", Mesh{}, ""},
		{"ok", Mesh{Vertices: make([]float32, 9), Normals: make([]float32, 9), UV: make([]float32, 6), Indices: []uint32{0, 1, 2}}, ""},
		{"ragged vertices", Mesh{Vertices: make([]float32, 4)}, "vertex buffer"},
		{"ragged indices", Mesh{Vertices: make([]float32, 9), Indices: []uint32{0, 1}}, "index buffer"},
		{"short normals", Mesh{Vertices: make([]float32, 9), Normals: make([]float32, 3)}, "normal floats"},
		{"short uv", Mesh{Vertices: make([]float32, 9), UV: make([]float32, 2)}, "uv floats"},
		{"dangling index", Mesh{Vertices: make([]float32, 9), Indices: []uint32{0, 1, 3}}, "exceeds vertex count"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.mesh.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, ErrInvalidMesh) || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("err = %v, want ErrInvalidMesh mentioning %q", err, tt.wantErr)
			}
		})
	}
}

func TestMeshJSON(t *testing.T) {
	m := Mesh{Vertices: []float32{0, 0, 0}, Indices: []uint32{}, PartName: "p"}
	data, err := json.Marshal(m)
	if err != nil {
		t.Fatal(err)
	}
	s := string(data)
	if strings.Contains(s, "normals") || strings.Contains(s, `"uv"`) {
		t.Fatalf("empty optional buffers were emitted: %s", s)
	}
	if !strings.Contains(s, `"partName":"p"`) {
		t.Fatalf("part name missing: %s", s)
	}
}

func TestDiagnosticError(t *testing.T) {
	cause := errors.New("boom")
	d := Diagnostic{Kind: CorruptTriangulation, Face: 2, Element: 5, Err: cause}
	if got := d.Error(); got != "corrupt_triangulation face 2 element 5: boom" {
		t.Fatalf("Error() = %q", got)
	}
	if !errors.Is(d, ErrCorruptTriangulation) || !errors.Is(d, cause) {
		t.Fatal("diagnostic does not unwrap to its kind and cause")
	}
	if errors.Is(d, ErrNullInput) {
		t.Fatal("diagnostic matched the wrong kind")
	}

	var empty Report
	if empty.Err() != nil || empty.HasErrors() {
		t.Fatal("empty report reports errors")
	}
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Options)
		wantErr bool
	}{
		{"defaults", func(*Options) {}, false},
		{"negative merge tolerance", func(o *Options) { o.MergeTolerance = -1 }, true},
		{"negative degenerate tolerance", func(o *Options) { o.DegenerateTolerance = -1 }, true},
		{"negative scale", func(o *Options) { o.Scale = -2 }, true},
		{"unknown coordinate system", func(o *Options) { o.CoordinateSystem = 12 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := DefaultOptions()
			tt.mutate(&o)
			if err := o.Validate(); (err != nil) != tt.wantErr {
				t.Fatalf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
