// Package tessellate walks a scene graph and produces one indexed mesh per
// primitive: the kernel triangulates the solid, the accumulated placement
// is composed onto every face location, and the mesh assembler does the
// rest.
package tessellate

import (
	"fmt"
	"runtime"
	"sync"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/tessera/pkg/brep"
	"github.com/chazu/tessera/pkg/kernel"
	"github.com/chazu/tessera/pkg/mesh"
	"github.com/chazu/tessera/pkg/scene"
)

// Part is the tessellated form of one primitive occurrence.
type Part struct {
	Name   string
	Node   scene.NodeID
	Shape  *brep.Shape
	Mesh   *mesh.Mesh
	Report *mesh.Report
}

// job is a primitive reached from a root along with its placement.
type job struct {
	node *scene.Node
	name string
	loc  brep.Location
}

// Tessellate walks g from its roots and meshes every primitive it reaches,
// in traversal order. A primitive reached along two paths yields two parts.
// When params.ParallelMeshing is set the primitives are meshed
// concurrently; the result is the same either way. A nil asm uses
// mesh.DefaultOptions. The graph is never mutated.
func Tessellate(g *scene.Graph, k kernel.Kernel, params kernel.MeshParams, asm *mesh.Assembler) ([]Part, error) {
	if g == nil {
		return nil, nil
	}
	if k == nil {
		return nil, fmt.Errorf("tessellate: nil kernel")
	}
	if asm == nil {
		asm = mesh.NewAssembler(mesh.DefaultOptions(), nil)
	}

	w := walker{g: g, onPath: make(map[scene.NodeID]bool), names: make(map[string]int)}
	for _, rootID := range g.Roots {
		root := g.Get(rootID)
		if root == nil {
			continue
		}
		if err := w.walk(root, brep.Identity()); err != nil {
			return nil, fmt.Errorf("tessellate: error walking root %s: %w", rootID.Short(), err)
		}
	}

	parts := make([]Part, len(w.jobs))
	errs := make([]error, len(w.jobs))
	run := func(i int) {
		parts[i], errs[i] = meshJob(k, params, asm, w.jobs[i])
	}
	if params.ParallelMeshing && len(w.jobs) > 1 {
		sem := make(chan struct{}, runtime.GOMAXPROCS(0))
		var wg sync.WaitGroup
		for i := range w.jobs {
			wg.Add(1)
			sem <- struct{}{}
			go func(i int) {
				defer wg.Done()
				defer func() { <-sem }()
				run(i)
			}(i)
		}
		wg.Wait()
	} else {
		for i := range w.jobs {
			run(i)
		}
	}

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return parts, nil
}

type walker struct {
	g      *scene.Graph
	onPath map[scene.NodeID]bool
	names  map[string]int
	jobs   []job
}

// walk visits n with loc as the placement accumulated above it.
func (w *walker) walk(n *scene.Node, loc brep.Location) error {
	if w.onPath[n.ID] {
		return fmt.Errorf("cycle through node %s", n.ID.Short())
	}
	w.onPath[n.ID] = true
	defer delete(w.onPath, n.ID)

	switch n.Kind {
	case scene.NodePrimitive:
		w.jobs = append(w.jobs, job{node: n, name: w.partName(n), loc: loc})
		return nil

	case scene.NodeTransform:
		td, ok := n.Data.(scene.TransformData)
		if !ok {
			return fmt.Errorf("transform node %s has unexpected data type %T", n.ID.Short(), n.Data)
		}
		// Children are placed first, then whatever sits above this node.
		loc = placement(td).Then(loc)

	case scene.NodeGroup:

	default:
		return fmt.Errorf("unknown node kind: %v", n.Kind)
	}

	for _, child := range w.g.Children(n) {
		if err := w.walk(child, loc); err != nil {
			return err
		}
	}
	return nil
}

// partName prefers the node's name, falls back to its short ID, and
// numbers repeat occurrences.
func (w *walker) partName(n *scene.Node) string {
	name := n.Name
	if name == "" {
		name = n.ID.Short()
	}
	c := w.names[name]
	w.names[name] = c + 1
	if c > 0 {
		name = fmt.Sprintf("%s#%d", name, c)
	}
	return name
}

// placement converts a transform node into a rigid placement: rotation
// about the local origin, then translation.
func placement(td scene.TransformData) brep.Location {
	loc := brep.Identity()
	if r := td.Rotation; r != nil && !r.IsZero() {
		loc = brep.Rotation(r.X, r.Y, r.Z)
	}
	if t := td.Translation; t != nil && !t.IsZero() {
		loc = loc.Then(brep.Translation(v3.Vec{X: t.X, Y: t.Y, Z: t.Z}))
	}
	return loc
}

// meshJob builds, triangulates, places and extracts one primitive.
func meshJob(k kernel.Kernel, params kernel.MeshParams, asm *mesh.Assembler, j job) (Part, error) {
	solid, err := build(k, j.node)
	if err != nil {
		return Part{}, fmt.Errorf("tessellate: part %q: %w", j.name, err)
	}
	shape, err := k.Triangulate(solid, params)
	if err != nil {
		return Part{}, fmt.Errorf("tessellate: part %q: triangulate: %w", j.name, err)
	}
	shape.Name = j.name
	shape.Place(j.loc)

	m, rep := asm.Extract(shape)
	return Part{Name: j.name, Node: j.node.ID, Shape: shape, Mesh: m, Report: rep}, nil
}

func build(k kernel.Kernel, n *scene.Node) (kernel.Solid, error) {
	d, ok := n.Data.(scene.PrimitiveData)
	if !ok {
		return nil, fmt.Errorf("primitive node %s has unsupported data type %T", n.ID.Short(), n.Data)
	}
	switch d.Shape {
	case scene.PrimBox:
		return k.Box(d.Size.X, d.Size.Y, d.Size.Z)
	case scene.PrimCylinder:
		return k.Cylinder(d.Height, d.Radius, d.Segments)
	case scene.PrimSphere:
		return k.Sphere(d.Radius)
	default:
		return nil, fmt.Errorf("unknown primitive shape %v", d.Shape)
	}
}
