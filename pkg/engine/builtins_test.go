package engine

import (
	"strings"
	"testing"

	"github.com/chazu/tessera/pkg/scene"
)

func TestPreprocessSource(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{"keyword", `(sphere :radius 2)`, `(sphere "__kw_radius" 2)`},
		{"multiple keywords", `(cylinder :radius 1 :height 4)`, `(cylinder "__kw_radius" 1 "__kw_height" 4)`},
		{"keyword in string preserved", `"thing with :keyword inside"`, `"thing with :keyword inside"`},
		{"escaped quote in string", `"a \" :b" :c`, `"a \" :b" "__kw_c"`},
		{"backtick string preserved", "`raw :kw`", "`raw :kw`"},
		{"assignment operator preserved", `(def x := 10)`, `(def x := 10)`},
		{"kebab-case identifier", `(def wall-height 3)`, `(def wall_height 3)`},
		{"hyphen kept in keyword", `:wall-height`, `"__kw_wall-height"`},
		{"minus operator preserved", `(- 10 5)`, `(- 10 5)`},
		{"negative literal preserved", `(vec3 -1 0 0)`, `(vec3 -1 0 0)`},
		{"double semicolon comment", `;; comment with :keyword`, `// comment with :keyword`},
		{"single semicolon comment", "; simple\n(vec3 1 2 3)", "// simple\n(vec3 1 2 3)"},
		{"unterminated string", `"open :kw`, `"open :kw`},
		{"trailing colon", `(a :`, `(a :`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := preprocessSource(tt.input); got != tt.expect {
				t.Errorf("preprocessSource(%q) = %q, want %q", tt.input, got, tt.expect)
			}
		})
	}
}

func mustEval(t *testing.T, source string) *scene.Graph {
	t.Helper()
	g, evalErrs, err := NewEngine(nil).Evaluate(source)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}
	return g
}

func primitive(t *testing.T, g *scene.Graph, name string) scene.PrimitiveData {
	t.Helper()
	n := g.Lookup(name)
	if n == nil {
		t.Fatalf("no node named %q", name)
	}
	if n.Kind != scene.NodePrimitive {
		t.Fatalf("%s: kind = %s, want primitive", name, n.Kind)
	}
	d, ok := n.Data.(scene.PrimitiveData)
	if !ok {
		t.Fatalf("%s: data = %T", name, n.Data)
	}
	return d
}

func TestPrimitives(t *testing.T) {
	g := mustEval(t, `
(def h 30)
(box "lid" :size (vec3 40 30 2))
(box "cube" :size 5)
(cylinder "post" :radius 2 :height h :segments 24)
(sphere "knob" :radius 1.5)
`)
	if g.NodeCount() != 4 || len(g.Roots) != 4 {
		t.Fatalf("nodes = %d, roots = %d, want 4 and 4", g.NodeCount(), len(g.Roots))
	}

	tests := []struct {
		name string
		want scene.PrimitiveData
	}{
		{"lid", scene.PrimitiveData{Shape: scene.PrimBox, Size: scene.Vec3{X: 40, Y: 30, Z: 2}}},
		{"cube", scene.PrimitiveData{Shape: scene.PrimBox, Size: scene.Vec3{X: 5, Y: 5, Z: 5}}},
		{"post", scene.PrimitiveData{Shape: scene.PrimCylinder, Radius: 2, Height: 30, Segments: 24}},
		{"knob", scene.PrimitiveData{Shape: scene.PrimSphere, Radius: 1.5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := primitive(t, g, tt.name); got != tt.want {
				t.Errorf("data = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestAssemblyWithPlacement(t *testing.T) {
	g := mustEval(t, `
(box "top" :size (vec3 400 200 19))
(cylinder "leg" :radius 20 :height 700)

(assembly "table"
  (place (part "top") :at (vec3 0 0 700))
  (place (part "leg") :at (vec3 20 20 350) :rotate (vec3 0 0 45)))
`)
	// 2 primitives + 2 transforms + 1 group
	if g.NodeCount() != 5 {
		t.Fatalf("expected 5 nodes, got %d", g.NodeCount())
	}
	table := g.Lookup("table")
	if table == nil || table.Kind != scene.NodeGroup {
		t.Fatalf("table = %+v", table)
	}
	if len(g.Roots) != 1 || g.Roots[0] != table.ID {
		t.Fatalf("roots = %v, want only the assembly", g.Roots)
	}

	places := g.Children(table)
	if len(places) != 2 {
		t.Fatalf("table has %d children, want 2", len(places))
	}
	top := places[0].Data.(scene.TransformData)
	if top.Translation == nil || *top.Translation != (scene.Vec3{Z: 700}) || top.Rotation != nil {
		t.Errorf("top placement = %+v", top)
	}
	leg := places[1].Data.(scene.TransformData)
	if leg.Rotation == nil || leg.Rotation.Z != 45 {
		t.Errorf("leg rotation = %v", leg.Rotation)
	}
	if got := g.Children(places[1]); len(got) != 1 || got[0].Name != "leg" {
		t.Errorf("leg placement wraps %v", got)
	}
	if errs := scene.Validate(g); len(errs) != 0 {
		t.Errorf("validation findings: %v", errs)
	}
}

func TestVariablesAndNesting(t *testing.T) {
	g := mustEval(t, `
(def post (cylinder "post" :radius 1 :height 10))
(def raised (place post :at (vec3 0 0 5)))
(assembly "outer" (place raised :rotate (vec3 90 0 0)) (list (sphere :radius 1)))
`)
	outer := g.Lookup("outer")
	if outer == nil {
		t.Fatal("no assembly")
	}
	if len(outer.Children) != 2 {
		t.Fatalf("outer has %d children, want 2", len(outer.Children))
	}
	if len(g.Roots) != 1 {
		t.Fatalf("roots = %d, want 1", len(g.Roots))
	}
	anon := g.Get(outer.Children[1])
	if anon.Kind != scene.NodePrimitive || anon.Name != "" {
		t.Errorf("list child = %+v, want anonymous sphere", anon)
	}
}

func TestBuiltinErrors(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		wantMsg string
	}{
		{"missing part", `(part "nonexistent")`, "nonexistent"},
		{"duplicate name", `(box "a" :size 1) (sphere "a" :radius 1)`, "already defined"},
		{"unknown keyword", `(sphere "s" :radius 1 :colour 2)`, "colour"},
		{"box without size", `(box "b")`, "size"},
		{"fractional segments", `(cylinder :radius 1 :height 1 :segments 2.5)`, "whole number"},
		{"bad vec3 arity", `(vec3 1 2)`, "vec3"},
		{"place needs a ref", `(place 3 :at (vec3 0 0 0))`, "node reference"},
		{"place at needs vec3", `(place (box :size 1) :at 5)`, "vec3"},
		{"assembly child", `(assembly "x" 42)`, "child"},
		{"numeric name", `(sphere 4 :radius 1)`, "name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, evalErrs, err := NewEngine(nil).Evaluate(tt.source)
			if err != nil {
				t.Fatalf("expected non-fatal eval error, got fatal: %v", err)
			}
			if g != nil {
				t.Fatal("expected nil graph")
			}
			if len(evalErrs) == 0 {
				t.Fatal("expected eval errors")
			}
			if !strings.Contains(evalErrs[0].Message, tt.wantMsg) {
				t.Errorf("message = %q, want containing %q", evalErrs[0].Message, tt.wantMsg)
			}
		})
	}
}
