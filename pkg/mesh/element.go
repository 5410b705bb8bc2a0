package mesh

import (
	"errors"
	"fmt"

	"github.com/chazu/tessera/pkg/brep"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

var errNoTriangulation = errors.New("face has no triangulation")

// MaxFaceElements bounds the node and triangle counts a face may report.
// Larger counts are treated as corrupt and the face is skipped.
const MaxFaceElements = 1 << 26

// element is the outcome of reading one indexed item from a triangulation.
type element[T any] struct {
	Value T
	Err   error
}

// read calls fn, turning a panic inside kernel code into an element error.
func read[T any](fn func() (T, error)) (e element[T]) {
	defer func() {
		if r := recover(); r != nil {
			e = element[T]{Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	v, err := fn()
	return element[T]{Value: v, Err: err}
}

// each reads items 1..n through get. Successful reads go to visit, failed
// ones to fail; iteration always runs to n.
func each[T any](n int, get func(int) (T, error), visit func(i int, v T), fail func(i int, err error)) {
	for i := 1; i <= n; i++ {
		e := read(func() (T, error) { return get(i) })
		if e.Err != nil {
			fail(i, e.Err)
			continue
		}
		visit(i, e.Value)
	}
}

// flag evaluates a boolean accessor, treating a panic as false.
func flag(fn func() bool) bool {
	e := read(func() (bool, error) { return fn(), nil })
	return e.Err == nil && e.Value
}

// triangle is a validated triangle in triangulation order.
type triangle struct {
	index int    // 1-based position in the triangulation
	nodes [3]int // 1-based node indices, all within range
}

// faceData is a face's triangulation as read through the resilient
// accessors, still in the triangulation's local frame.
type faceData struct {
	// nodes has exactly NodeCount entries. A failed read holds the local
	// origin, which the face location then places like any other node.
	nodes       []v3.Vec
	tris        []triangle
	skippedTris int
	corrupt     bool
}

// readFace validates and reads a face's triangulation. ok is false when
// the face must be skipped entirely.
func readFace(face *brep.Face, c *collector) (data *faceData, ok bool) {
	if face == nil {
		c.add(NullInput, 0, errors.New("face is nil"))
		return nil, false
	}
	tri := face.Triangulation
	if tri == nil {
		c.add(EmptyTriangulation, 0, errNoTriangulation)
		return nil, false
	}

	counts := read(func() ([2]int, error) {
		return [2]int{tri.NodeCount(), tri.TriangleCount()}, nil
	})
	if counts.Err != nil {
		c.add(CorruptTriangulation, 0, fmt.Errorf("reading counts: %w", counts.Err))
		return nil, false
	}
	nodeCount, triCount := counts.Value[0], counts.Value[1]
	if nodeCount <= 0 || triCount <= 0 {
		c.add(EmptyTriangulation, 0, fmt.Errorf("%d nodes, %d triangles", nodeCount, triCount))
		return nil, false
	}
	if nodeCount > MaxFaceElements || triCount > MaxFaceElements {
		c.add(CorruptTriangulation, 0, fmt.Errorf("%d nodes, %d triangles exceeds %d", nodeCount, triCount, MaxFaceElements))
		return nil, false
	}

	data = &faceData{nodes: make([]v3.Vec, 0, nodeCount), tris: make([]triangle, 0, triCount)}
	if err := probe(tri, nodeCount, triCount); err != nil {
		c.add(CorruptTriangulation, 0, fmt.Errorf("probe: %w", err))
		data.corrupt = true
	}

	each(nodeCount, tri.Node,
		func(_ int, p v3.Vec) { data.nodes = append(data.nodes, p) },
		func(i int, err error) {
			c.add(CorruptTriangulation, i, fmt.Errorf("node: %w", err))
			data.nodes = append(data.nodes, v3.Vec{})
		})

	each(triCount, tri.Triangle,
		func(i int, t [3]int) {
			for _, n := range t {
				if n < 1 || n > nodeCount {
					c.add(OutOfRangeIndex, i, fmt.Errorf("triangle %v references node %d of %d", t, n, nodeCount))
					data.skippedTris++
					return
				}
			}
			data.tris = append(data.tris, triangle{index: i, nodes: t})
		},
		func(i int, err error) {
			c.add(CorruptTriangulation, i, fmt.Errorf("triangle: %w", err))
			data.skippedTris++
		})

	return data, true
}

// probe reads the first and last node and triangle. A failure marks the
// face as severely corrupted without stopping extraction.
func probe(tri brep.Triangulation, nodeCount, triCount int) error {
	for _, i := range []int{1, nodeCount} {
		if e := read(func() (v3.Vec, error) { return tri.Node(i) }); e.Err != nil {
			return fmt.Errorf("node %d: %w", i, e.Err)
		}
	}
	for _, i := range []int{1, triCount} {
		if e := read(func() ([3]int, error) { return tri.Triangle(i) }); e.Err != nil {
			return fmt.Errorf("triangle %d: %w", i, e.Err)
		}
	}
	return nil
}
