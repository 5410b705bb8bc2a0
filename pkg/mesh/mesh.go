// Package mesh assembles per-face B-rep triangulations into a single
// indexed triangle mesh. It resolves winding from face orientation,
// synthesizes vertex normals when the kernel did not supply them, welds
// coincident vertices and converts between coordinate systems.
//
// Extraction is resilient: malformed faces and elements are skipped and
// reported through a Report, never returned as an error.
package mesh

import (
	"errors"
	"fmt"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// ErrInvalidMesh is wrapped by every Validate failure.
var ErrInvalidMesh = errors.New("mesh: invalid")

// Mesh is a triangle mesh suitable for rendering or export.
// All arrays are flat: vertices and normals have 3 floats per vertex,
// uv has 2 floats per vertex, indices has 3 uint32s per triangle.
type Mesh struct {
	Vertices []float32 `json:"vertices"`           // [x0,y0,z0, x1,y1,z1, ...]
	Normals  []float32 `json:"normals,omitempty"`  // [nx0,ny0,nz0, ...] or nil
	UV       []float32 `json:"uv,omitempty"`       // [u0,v0, u1,v1, ...] or nil
	Indices  []uint32  `json:"indices"`            // [i0,i1,i2, ...] triangles
	PartName string    `json:"partName,omitempty"` // which scene part this came from
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices) / 3
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Vertices) == 0
}

// Vertex returns vertex i widened to float64.
func (m *Mesh) Vertex(i int) v3.Vec {
	return v3.Vec{
		X: float64(m.Vertices[3*i]),
		Y: float64(m.Vertices[3*i+1]),
		Z: float64(m.Vertices[3*i+2]),
	}
}

// Normal returns the normal of vertex i widened to float64.
func (m *Mesh) Normal(i int) v3.Vec {
	return v3.Vec{
		X: float64(m.Normals[3*i]),
		Y: float64(m.Normals[3*i+1]),
		Z: float64(m.Normals[3*i+2]),
	}
}

// Triangle returns the three vertex indices of triangle t.
func (m *Mesh) Triangle(t int) [3]uint32 {
	return [3]uint32{m.Indices[3*t], m.Indices[3*t+1], m.Indices[3*t+2]}
}

// Validate checks the buffer invariants: flat array lengths, parallel
// normal and uv buffers, and no index past the last vertex.
func (m *Mesh) Validate() error {
	if len(m.Vertices)%3 != 0 {
		return fmt.Errorf("%w: vertex buffer length %d is not a multiple of 3", ErrInvalidMesh, len(m.Vertices))
	}
	if len(m.Indices)%3 != 0 {
		return fmt.Errorf("%w: index buffer length %d is not a multiple of 3", ErrInvalidMesh, len(m.Indices))
	}
	if m.Normals != nil && len(m.Normals) != len(m.Vertices) {
		return fmt.Errorf("%w: %d normal floats for %d vertex floats", ErrInvalidMesh, len(m.Normals), len(m.Vertices))
	}
	if m.UV != nil && len(m.UV) != 2*m.VertexCount() {
		return fmt.Errorf("%w: %d uv floats for %d vertices", ErrInvalidMesh, len(m.UV), m.VertexCount())
	}
	n := uint32(m.VertexCount())
	for k, idx := range m.Indices {
		if idx >= n {
			return fmt.Errorf("%w: index %d at position %d exceeds vertex count %d", ErrInvalidMesh, idx, k, n)
		}
	}
	return nil
}

func (m *Mesh) appendVertex(p v3.Vec) {
	m.Vertices = append(m.Vertices, float32(p.X), float32(p.Y), float32(p.Z))
}

func (m *Mesh) appendNormal(n v3.Vec) {
	m.Normals = append(m.Normals, float32(n.X), float32(n.Y), float32(n.Z))
}
