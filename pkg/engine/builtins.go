package engine

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/chazu/tessera/pkg/scene"
	zygo "github.com/glycerine/zygomys/zygo"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// kwPrefix marks keyword names rewritten by preprocessSource.
const kwPrefix = "__kw_"

// preprocessSource rewrites scene source into something zygomys reads:
//
//   - :size becomes the string literal "__kw_size"
//   - kebab-case identifiers become snake_case (zygomys reads '-' as minus)
//   - ; line comments become // comments
//
// String literals (double-quoted and backtick) pass through untouched, as
// does the := operator.
func preprocessSource(source string) string {
	s := scanner{src: source, out: make([]byte, 0, len(source)+len(source)/4)}
	for s.pos < len(s.src) {
		switch c := s.src[s.pos]; {
		case c == '"':
			s.quoted('"', true)
		case c == '`':
			s.quoted('`', false)
		case c == ';':
			s.comment()
		case c == ':' && s.peek(1) == '=':
			s.copyN(2)
		case c == ':' && isLetter(s.peek(1)):
			s.keyword()
		case c == '-' && s.pos > 0 && isIdentChar(s.src[s.pos-1]) && isLetter(s.peek(1)):
			s.out = append(s.out, '_')
			s.pos++
		default:
			s.copyN(1)
		}
	}
	return string(s.out)
}

type scanner struct {
	src string
	pos int
	out []byte
}

// peek returns the byte at pos+off, or 0 past the end.
func (s *scanner) peek(off int) byte {
	if s.pos+off < len(s.src) {
		return s.src[s.pos+off]
	}
	return 0
}

func (s *scanner) copyN(n int) {
	end := min(s.pos+n, len(s.src))
	s.out = append(s.out, s.src[s.pos:end]...)
	s.pos = end
}

// quoted copies a literal up to and including its closing delimiter.
func (s *scanner) quoted(delim byte, escapes bool) {
	s.copyN(1)
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		if escapes && c == '\\' {
			s.copyN(2)
			continue
		}
		s.copyN(1)
		if c == delim {
			return
		}
	}
}

func (s *scanner) comment() {
	for s.pos < len(s.src) && s.src[s.pos] == ';' {
		s.pos++
	}
	s.out = append(s.out, '/', '/')
	for s.pos < len(s.src) && s.src[s.pos] != '\n' {
		s.copyN(1)
	}
}

func (s *scanner) keyword() {
	start := s.pos + 1
	end := start
	for end < len(s.src) && isKWChar(s.src[end]) {
		end++
	}
	s.out = append(s.out, '"')
	s.out = append(s.out, kwPrefix...)
	s.out = append(s.out, s.src[start:end]...)
	s.out = append(s.out, '"')
	s.pos = end
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

func isKWChar(c byte) bool {
	return isIdentChar(c) || c == '-'
}

// ---------------------------------------------------------------------------
// Values passed between builtins
// ---------------------------------------------------------------------------

// sexpNodeRef is what box, sphere, place and friends return.
type sexpNodeRef struct {
	id   scene.NodeID
	name string
}

func (n *sexpNodeRef) SexpString(ps *zygo.PrintState) string {
	if n.name != "" {
		return fmt.Sprintf("(ref %q)", n.name)
	}
	return fmt.Sprintf("(ref %s)", n.id.Short())
}
func (n *sexpNodeRef) Type() *zygo.RegisteredType { return nil }

type sexpVec3 struct {
	vec scene.Vec3
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Argument parsing
// ---------------------------------------------------------------------------

// isKW reports whether s is a rewritten keyword and returns its name.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok || !strings.HasPrefix(str.S, kwPrefix) {
		return "", false
	}
	return str.S[len(kwPrefix):], true
}

// kwArgs is a call's arguments split into keyword and positional parts.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

func parseArgs(args []zygo.Sexp) kwArgs {
	pa := kwArgs{kw: make(map[string]zygo.Sexp)}
	for i := 0; i < len(args); i++ {
		name, ok := isKW(args[i])
		if !ok {
			pa.positional = append(pa.positional, args[i])
			continue
		}
		if i+1 < len(args) {
			pa.kw[name] = args[i+1]
			i++
		} else {
			pa.kw[name] = zygo.SexpNull
		}
	}
	return pa
}

// only rejects keywords outside allowed, naming the first in sorted order.
func (pa kwArgs) only(allowed ...string) error {
	var unknown []string
	for k := range pa.kw {
		found := false
		for _, a := range allowed {
			if k == a {
				found = true
				break
			}
		}
		if !found {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)
	return fmt.Errorf("unknown keyword :%s", unknown[0])
}

// number reads an optional numeric keyword into dst.
func (pa kwArgs) number(key string, dst *float64) error {
	v, ok := pa.kw[key]
	if !ok {
		return nil
	}
	f, err := toFloat64(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = f
	return nil
}

// whole reads an optional whole-number keyword into dst.
func (pa kwArgs) whole(key string, dst *int) error {
	var f float64
	if _, ok := pa.kw[key]; !ok {
		return nil
	}
	if err := pa.number(key, &f); err != nil {
		return err
	}
	if f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return fmt.Errorf("%s: expected whole number, got %g", key, f)
	}
	*dst = int(f)
	return nil
}

func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		if _, kw := isKW(s); !kw {
			return str.S, nil
		}
	}
	return "", fmt.Errorf("expected string, got %s", s.SexpString(nil))
}

func toVec3(s zygo.Sexp) (scene.Vec3, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	return scene.Vec3{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

func toNodeRef(s zygo.Sexp) (*sexpNodeRef, error) {
	if ref, ok := s.(*sexpNodeRef); ok {
		return ref, nil
	}
	return nil, fmt.Errorf("expected node reference, got %T (%s)", s, s.SexpString(nil))
}

// sexpListToSlice converts a list or array to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, bool) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		items, err := zygo.ListToArray(v)
		return items, err == nil
	case *zygo.SexpArray:
		return v.Val, true
	}
	return nil, false
}

// ---------------------------------------------------------------------------
// Graph building
// ---------------------------------------------------------------------------

// builder owns the graph of one evaluation. Node IDs derive from a path
// plus an occurrence count, so evaluating the same source twice yields
// the same IDs.
type builder struct {
	g    *scene.Graph
	seen map[string]int
}

func newBuilder() *builder {
	return &builder{g: scene.New(), seen: make(map[string]int)}
}

func (b *builder) id(path string) scene.NodeID {
	n := b.seen[path]
	b.seen[path] = n + 1
	if n > 0 {
		path = fmt.Sprintf("%s#%d", path, n)
	}
	return scene.NewNodeID(path)
}

// add inserts n as a new root. Nodes it wraps stop being roots.
func (b *builder) add(n *scene.Node) *sexpNodeRef {
	for _, c := range n.Children {
		b.g.RemoveRoot(c)
	}
	b.g.AddNode(n)
	b.g.AddRoot(n.ID)
	return &sexpNodeRef{id: n.ID, name: n.Name}
}

func (b *builder) claim(fn, name string) error {
	if name != "" && b.g.Lookup(name) != nil {
		return fmt.Errorf("%s: name %q is already defined", fn, name)
	}
	return nil
}

// label is the path component used when deriving IDs for wrappers.
func (b *builder) label(ref *sexpNodeRef) string {
	if ref.name != "" {
		return ref.name
	}
	return ref.id.Short()
}

// primitive parses the shared (shape "name" :kw v ...) form.
func (b *builder) primitive(fn string, shape scene.PrimitiveKind, args []zygo.Sexp, allowed []string,
	fill func(pa kwArgs, d *scene.PrimitiveData) error) (zygo.Sexp, error) {

	pa := parseArgs(args)
	if err := pa.only(allowed...); err != nil {
		return zygo.SexpNull, fmt.Errorf("%s: %w", fn, err)
	}
	var name string
	switch len(pa.positional) {
	case 0:
	case 1:
		s, err := toString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("%s: name: %w", fn, err)
		}
		name = s
	default:
		return zygo.SexpNull, fmt.Errorf("%s: expected at most a name before keywords, got %d positional arguments", fn, len(pa.positional))
	}
	if err := b.claim(fn, name); err != nil {
		return zygo.SexpNull, err
	}

	d := scene.PrimitiveData{Shape: shape}
	if err := fill(pa, &d); err != nil {
		return zygo.SexpNull, fmt.Errorf("%s: %w", fn, err)
	}
	if err := pa.whole("segments", &d.Segments); err != nil {
		return zygo.SexpNull, fmt.Errorf("%s: %w", fn, err)
	}

	return b.add(&scene.Node{
		ID:   b.id(fn + "/" + name),
		Kind: scene.NodePrimitive,
		Name: name,
		Data: d,
	}), nil
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs the scene builtins into env. Each builtin
// adds nodes to b.g as it runs. Source must go through preprocessSource
// first so keywords are recognizable.
func registerBuiltins(env *zygo.Zlisp, b *builder) {

	// (vec3 1 2 3)
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
		}
		var xyz [3]float64
		for i, a := range args {
			f, err := toFloat64(a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("vec3: %c: %w", "xyz"[i], err)
			}
			xyz[i] = f
		}
		return &sexpVec3{vec: scene.Vec3{X: xyz[0], Y: xyz[1], Z: xyz[2]}}, nil
	})

	// (box "lid" :size (vec3 40 30 2))  or  (box "cube" :size 10)
	env.AddFunction("box", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		return b.primitive("box", scene.PrimBox, args, []string{"size"},
			func(pa kwArgs, d *scene.PrimitiveData) error {
				v, ok := pa.kw["size"]
				if !ok {
					return fmt.Errorf("missing :size")
				}
				if f, err := toFloat64(v); err == nil {
					d.Size = scene.Vec3{X: f, Y: f, Z: f}
					return nil
				}
				size, err := toVec3(v)
				if err != nil {
					return fmt.Errorf("size: %w", err)
				}
				d.Size = size
				return nil
			})
	})

	// (cylinder "post" :radius 2 :height 30 :segments 24)
	env.AddFunction("cylinder", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		return b.primitive("cylinder", scene.PrimCylinder, args, []string{"radius", "height", "segments"},
			func(pa kwArgs, d *scene.PrimitiveData) error {
				if err := pa.number("radius", &d.Radius); err != nil {
					return err
				}
				return pa.number("height", &d.Height)
			})
	})

	// (sphere "knob" :radius 3)
	env.AddFunction("sphere", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		return b.primitive("sphere", scene.PrimSphere, args, []string{"radius"},
			func(pa kwArgs, d *scene.PrimitiveData) error {
				return pa.number("radius", &d.Radius)
			})
	})

	// (part "lid")
	env.AddFunction("part", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("part requires exactly one name argument, got %d", len(args))
		}
		partName, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("part: name: %w", err)
		}
		n := b.g.Lookup(partName)
		if n == nil {
			return zygo.SexpNull, fmt.Errorf("part: no part named %q", partName)
		}
		return &sexpNodeRef{id: n.ID, name: partName}, nil
	})

	// (place (part "lid") :at (vec3 0 0 20) :rotate (vec3 0 0 90))
	env.AddFunction("place", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if err := pa.only("at", "rotate"); err != nil {
			return zygo.SexpNull, fmt.Errorf("place: %w", err)
		}
		if len(pa.positional) != 1 {
			return zygo.SexpNull, fmt.Errorf("place requires exactly one node reference, got %d", len(pa.positional))
		}
		child, err := toNodeRef(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("place: %w", err)
		}

		var td scene.TransformData
		if v, ok := pa.kw["at"]; ok {
			at, err := toVec3(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("place: at: %w", err)
			}
			td.Translation = &at
		}
		if v, ok := pa.kw["rotate"]; ok {
			rot, err := toVec3(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("place: rotate: %w", err)
			}
			td.Rotation = &rot
		}

		return b.add(&scene.Node{
			ID:       b.id("place/" + b.label(child)),
			Kind:     scene.NodeTransform,
			Children: []scene.NodeID{child.id},
			Data:     td,
		}), nil
	})

	// (assembly "stand" ref ...) where a ref may also be a list of refs
	env.AddFunction("assembly", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 1 {
			return zygo.SexpNull, fmt.Errorf("assembly requires a name argument")
		}
		asmName, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("assembly: name: %w", err)
		}
		if err := b.claim("assembly", asmName); err != nil {
			return zygo.SexpNull, err
		}

		var children []scene.NodeID
		var collect func(i int, s zygo.Sexp) error
		collect = func(i int, s zygo.Sexp) error {
			if items, ok := sexpListToSlice(s); ok {
				for _, item := range items {
					if err := collect(i, item); err != nil {
						return err
					}
				}
				return nil
			}
			ref, err := toNodeRef(s)
			if err != nil {
				return fmt.Errorf("assembly: child %d: %w", i, err)
			}
			children = append(children, ref.id)
			return nil
		}
		for i := 1; i < len(args); i++ {
			if err := collect(i, args[i]); err != nil {
				return zygo.SexpNull, err
			}
		}

		return b.add(&scene.Node{
			ID:       b.id("assembly/" + asmName),
			Kind:     scene.NodeGroup,
			Name:     asmName,
			Children: children,
			Data:     scene.GroupData{Description: asmName},
		}), nil
	})
}
