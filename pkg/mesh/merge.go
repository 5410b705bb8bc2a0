package mesh

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// MergeStats reports vertex counts around a Merge.
type MergeStats struct {
	Before int `json:"before"`
	After  int `json:"after"`
}

// Removed returns how many vertices were welded away.
func (s MergeStats) Removed() int {
	return s.Before - s.After
}

// maxCell bounds quantized coordinates so cell keys stay exact in int64.
const maxCell = 1 << 52

type cell [3]int64

// grid buckets unique vertex indices by tolerance-sized cells. Buckets
// hold indices in insertion order.
type grid struct {
	tol     float64
	tol2    float64
	buckets map[cell][]int
	loose   []int // vertices whose cell cannot be computed
	points  []v3.Vec
}

func newGrid(tol float64, capacity int) *grid {
	return &grid{
		tol:     tol,
		tol2:    tol * tol,
		buckets: make(map[cell][]int, capacity),
		points:  make([]v3.Vec, 0, capacity),
	}
}

func (g *grid) key(p v3.Vec) (cell, bool) {
	var c cell
	for i, x := range [3]float64{p.X, p.Y, p.Z} {
		q := math.Floor(x / g.tol)
		if math.IsNaN(q) || math.Abs(q) > maxCell {
			return c, false
		}
		c[i] = int64(q)
	}
	return c, true
}

func (g *grid) near(a, b v3.Vec) bool {
	d := a.Sub(b)
	return d.X*d.X+d.Y*d.Y+d.Z*d.Z < g.tol2
}

// find returns the lowest unique index within tolerance of p, or -1.
// Any match lies in one of the 27 cells around p's cell; the first match
// in each bucket is that bucket's lowest.
func (g *grid) find(p v3.Vec) int {
	best := -1
	c, ok := g.key(p)
	if ok {
		for dx := int64(-1); dx <= 1; dx++ {
			for dy := int64(-1); dy <= 1; dy++ {
				for dz := int64(-1); dz <= 1; dz++ {
					for _, u := range g.buckets[cell{c[0] + dx, c[1] + dy, c[2] + dz}] {
						if g.near(p, g.points[u]) {
							if best < 0 || u < best {
								best = u
							}
							break
						}
					}
				}
			}
		}
	}
	for _, u := range g.loose {
		if best >= 0 && u > best {
			break
		}
		if g.near(p, g.points[u]) {
			best = u
			break
		}
	}
	return best
}

func (g *grid) insert(p v3.Vec) int {
	u := len(g.points)
	g.points = append(g.points, p)
	if c, ok := g.key(p); ok {
		g.buckets[c] = append(g.buckets[c], u)
	} else {
		g.loose = append(g.loose, u)
	}
	return u
}

// Merge welds vertices closer than tolerance and returns a new mesh. Each
// vertex maps to the earliest surviving vertex within tolerance, so the
// result depends on vertex order. Normals and UV of the survivor are kept.
// Triangles are rewritten but never removed, except those whose indices
// were already out of range. A tolerance <= 0 merges nothing.
func Merge(m *Mesh, tolerance float64) (*Mesh, MergeStats) {
	if m == nil {
		return &Mesh{}, MergeStats{}
	}
	n := m.VertexCount()
	stats := MergeStats{Before: n}
	hasNormals := len(m.Normals) == len(m.Vertices) && m.Normals != nil
	hasUV := m.UV != nil && len(m.UV) == 2*n

	out := &Mesh{PartName: m.PartName}
	if hasNormals {
		out.Normals = make([]float32, 0, len(m.Normals))
	}
	if hasUV {
		out.UV = make([]float32, 0, len(m.UV))
	}

	remap := make([]uint32, n)
	merging := tolerance > 0 && !math.IsInf(tolerance, 0) && !math.IsNaN(tolerance)
	g := newGrid(tolerance, n)
	for i := 0; i < n; i++ {
		p := m.Vertex(i)
		if merging {
			if u := g.find(p); u >= 0 {
				remap[i] = uint32(u)
				continue
			}
		}
		remap[i] = uint32(g.insert(p))
		out.Vertices = append(out.Vertices, m.Vertices[3*i:3*i+3]...)
		if hasNormals {
			out.Normals = append(out.Normals, m.Normals[3*i:3*i+3]...)
		}
		if hasUV {
			out.UV = append(out.UV, m.UV[2*i:2*i+2]...)
		}
	}

	out.Indices = make([]uint32, 0, len(m.Indices))
	for t := 0; t+2 < len(m.Indices); t += 3 {
		a, b, c := m.Indices[t], m.Indices[t+1], m.Indices[t+2]
		if int(a) >= n || int(b) >= n || int(c) >= n {
			continue
		}
		out.Indices = append(out.Indices, remap[a], remap[b], remap[c])
	}

	stats.After = out.VertexCount()
	return out, stats
}
