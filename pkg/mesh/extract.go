package mesh

import (
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/chazu/tessera/pkg/brep"
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"go.uber.org/zap"
)

// Assembler turns shapes into meshes. It holds no per-call state, so one
// Assembler may serve concurrent Extract calls.
type Assembler struct {
	opts Options
	log  *zap.Logger
}

// NewAssembler returns an Assembler. A nil logger discards output.
func NewAssembler(opts Options, log *zap.Logger) *Assembler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Assembler{opts: opts.withDefaults(), log: log.Named("mesh")}
}

// Options returns the effective options, defaults filled in.
func (a *Assembler) Options() Options {
	return a.opts
}

// Extract assembles shape with opts and a discarding logger.
func Extract(shape *brep.Shape, opts Options) (*Mesh, *Report) {
	return NewAssembler(opts, nil).Extract(shape)
}

// faceResult is one face's contribution, indices still face-local.
type faceResult struct {
	skipped  bool
	corrupt  bool
	vertices []v3.Vec
	normals  []v3.Vec
	uvs      []v2.Vec // nil when the face has no UV or UV was not requested
	tris     [][3]uint32
	dropped  int
	method   NormalMethod
	diags    []Diagnostic
	// writeBack stores synthesized normals; run during assembly so that
	// triangulations shared between faces are never written concurrently.
	writeBack func() error
}

// Extract walks every face of shape and concatenates their buffers into a
// new Mesh. It never fails: problems are skipped and listed in the Report.
func (a *Assembler) Extract(shape *brep.Shape) (*Mesh, *Report) {
	m := &Mesh{}
	rep := &Report{}
	if shape == nil {
		a.record(rep, Diagnostic{Kind: NullInput, Face: -1, Err: errors.New("shape is nil")})
		return m, rep
	}
	m.PartName = shape.Name
	rep.FacesTotal = len(shape.Faces)

	a.assemble(m, rep, a.extractFaces(shape.Faces))

	if a.opts.MergeVertices {
		merged, stats := Merge(m, a.opts.MergeTolerance)
		m = merged
		rep.Merge = &stats
	}
	if err := Transform(m, a.opts.CoordinateSystem, a.opts.transformOptions()); err != nil {
		a.log.Warn("coordinate conversion skipped", zap.Error(err))
	}

	a.log.Info("mesh extracted",
		zap.String("part", m.PartName),
		zap.Int("faces", rep.FacesExtracted),
		zap.Int("skipped_faces", rep.FacesSkipped),
		zap.Int("vertices", m.VertexCount()),
		zap.Int("triangles", m.TriangleCount()),
		zap.Int("diagnostics", len(rep.Diagnostics)),
	)
	return m, rep
}

func (a *Assembler) extractFaces(faces []*brep.Face) []faceResult {
	results := make([]faceResult, len(faces))
	if !a.opts.Parallel || len(faces) < 2 {
		for i, f := range faces {
			results[i] = a.guardedFace(i, f)
		}
		return results
	}

	var wg sync.WaitGroup
	sem := make(chan struct{}, runtime.GOMAXPROCS(0))
	for i, f := range faces {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[i] = a.guardedFace(i, f)
		}()
	}
	wg.Wait()
	return results
}

// guardedFace extracts one face, turning any panic that escaped the
// element readers into a skipped face.
func (a *Assembler) guardedFace(idx int, face *brep.Face) faceResult {
	e := read(func() (faceResult, error) { return a.extractFace(idx, face), nil })
	if e.Err != nil {
		return faceResult{skipped: true, diags: []Diagnostic{{Kind: CorruptTriangulation, Face: idx, Err: e.Err}}}
	}
	return e.Value
}

func (a *Assembler) extractFace(idx int, face *brep.Face) faceResult {
	c := &collector{face: idx}
	data, ok := readFace(face, c)
	if !ok {
		return faceResult{skipped: true, diags: c.diags}
	}

	res := faceResult{
		corrupt:  data.corrupt,
		vertices: make([]v3.Vec, len(data.nodes)),
		tris:     make([][3]uint32, 0, len(data.tris)),
		dropped:  data.skippedTris,
	}
	for i, p := range data.nodes {
		res.vertices[i] = face.Location.Point(p)
	}

	// Forward faces swap the last two nodes; Reversed faces keep
	// triangulation order. Both end up with the same outward winding.
	for _, t := range data.tris {
		n1, n2, n3 := uint32(t.nodes[0]-1), uint32(t.nodes[1]-1), uint32(t.nodes[2]-1)
		if face.Orientation == brep.Reversed {
			res.tris = append(res.tris, [3]uint32{n1, n2, n3})
		} else {
			res.tris = append(res.tris, [3]uint32{n1, n3, n2})
		}
	}

	if a.opts.IncludeNormals {
		normals, method, local := synthesize(face, data, a.opts, c)
		res.normals, res.method = normals, method
		if a.opts.WriteBackNormals && method != PreComputed {
			if w, ok := face.Triangulation.(brep.NormalWriter); ok {
				res.writeBack = func() error { return w.SetNormals(local) }
			}
		}
	}

	if a.opts.IncludeUV && flag(face.Triangulation.HasUV) {
		res.uvs = make([]v2.Vec, 0, len(data.nodes))
		each(len(data.nodes), face.Triangulation.UV,
			func(_ int, uv v2.Vec) { res.uvs = append(res.uvs, uv) },
			func(i int, err error) {
				c.add(CorruptTriangulation, i, fmt.Errorf("uv: %w", err))
				res.uvs = append(res.uvs, v2.Vec{})
			})
	}

	res.diags = c.diags
	return res
}

// assemble concatenates face results in traversal order, offsetting each
// face's indices by the number of vertices emitted before it.
func (a *Assembler) assemble(m *Mesh, rep *Report, results []faceResult) {
	anyUV := false
	for _, r := range results {
		if r.uvs != nil {
			anyUV = true
			break
		}
	}

	var offset uint32
	for i, r := range results {
		for _, d := range r.diags {
			a.record(rep, d)
		}
		rep.Methods = append(rep.Methods, r.method)
		if r.skipped {
			rep.FacesSkipped++
			continue
		}
		rep.FacesExtracted++
		if r.corrupt {
			rep.FacesCorrupt++
		}
		rep.TrianglesSkipped += r.dropped

		for _, p := range r.vertices {
			m.appendVertex(p)
		}
		for _, t := range r.tris {
			m.Indices = append(m.Indices, t[0]+offset, t[1]+offset, t[2]+offset)
		}
		if a.opts.IncludeNormals {
			for _, n := range r.normals {
				m.appendNormal(n)
			}
		}
		if a.opts.IncludeUV && anyUV {
			if r.uvs != nil {
				for _, uv := range r.uvs {
					m.UV = append(m.UV, float32(uv.X), float32(uv.Y))
				}
			} else {
				m.UV = append(m.UV, make([]float32, 2*len(r.vertices))...)
			}
		}
		if r.writeBack != nil {
			e := read(func() (struct{}, error) { return struct{}{}, r.writeBack() })
			if err := e.Err; err != nil {
				a.record(rep, Diagnostic{Kind: CorruptTriangulation, Face: i, Err: fmt.Errorf("normal write-back: %w", err)})
			}
		}
		offset += uint32(len(r.vertices))
	}
}

func (a *Assembler) record(rep *Report, d Diagnostic) {
	rep.Diagnostics = append(rep.Diagnostics, d)
	a.log.Debug("diagnostic",
		zap.String("kind", d.Kind.String()),
		zap.Int("face", d.Face),
		zap.Int("element", d.Element),
		zap.Error(d.Err),
	)
}
