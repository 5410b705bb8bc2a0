package mesh

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies a diagnostic.
type ErrorKind int

const (
	NullInput                ErrorKind = iota // shape or face reference missing
	EmptyTriangulation                        // no triangulation, or zero nodes or triangles
	CorruptTriangulation                      // indexed access failed
	OutOfRangeIndex                           // triangle references a missing node
	DegenerateGeometry                        // near-zero normal contribution
	SurfaceEvaluationFailure                  // differential evaluation failed
)

// Sentinel errors, one per ErrorKind. Diagnostics unwrap to them.
var (
	ErrNullInput                = errors.New("null input")
	ErrEmptyTriangulation       = errors.New("empty triangulation")
	ErrCorruptTriangulation     = errors.New("corrupt triangulation")
	ErrOutOfRangeIndex          = errors.New("out of range index")
	ErrDegenerateGeometry       = errors.New("degenerate geometry")
	ErrSurfaceEvaluationFailure = errors.New("surface evaluation failure")
)

func (k ErrorKind) String() string {
	switch k {
	case NullInput:
		return "null_input"
	case EmptyTriangulation:
		return "empty_triangulation"
	case CorruptTriangulation:
		return "corrupt_triangulation"
	case OutOfRangeIndex:
		return "out_of_range_index"
	case DegenerateGeometry:
		return "degenerate_geometry"
	case SurfaceEvaluationFailure:
		return "surface_evaluation_failure"
	default:
		return "unknown"
	}
}

func (k ErrorKind) sentinel() error {
	switch k {
	case NullInput:
		return ErrNullInput
	case EmptyTriangulation:
		return ErrEmptyTriangulation
	case CorruptTriangulation:
		return ErrCorruptTriangulation
	case OutOfRangeIndex:
		return ErrOutOfRangeIndex
	case DegenerateGeometry:
		return ErrDegenerateGeometry
	case SurfaceEvaluationFailure:
		return ErrSurfaceEvaluationFailure
	default:
		return nil
	}
}

// Diagnostic records one problem that was caught and skipped.
type Diagnostic struct {
	Kind ErrorKind
	// Face is the 0-based face index in traversal order, -1 when the
	// problem is not tied to a face.
	Face int
	// Element is the 1-based node or triangle index, 0 for the whole face.
	Element int
	Err     error
}

func (d Diagnostic) Error() string {
	var b strings.Builder
	b.WriteString(d.Kind.String())
	if d.Face >= 0 {
		fmt.Fprintf(&b, " face %d", d.Face)
	}
	if d.Element > 0 {
		fmt.Fprintf(&b, " element %d", d.Element)
	}
	if d.Err != nil {
		b.WriteString(": ")
		b.WriteString(d.Err.Error())
	}
	return b.String()
}

// Unwrap exposes the kind sentinel and the underlying cause to errors.Is.
func (d Diagnostic) Unwrap() []error {
	errs := make([]error, 0, 2)
	if s := d.Kind.sentinel(); s != nil {
		errs = append(errs, s)
	}
	if d.Err != nil {
		errs = append(errs, d.Err)
	}
	return errs
}

// collector accumulates diagnostics for one face.
type collector struct {
	face  int
	diags []Diagnostic
}

func (c *collector) add(kind ErrorKind, element int, err error) {
	if c == nil {
		return
	}
	c.diags = append(c.diags, Diagnostic{Kind: kind, Face: c.face, Element: element, Err: err})
}

// Report is the per-call accumulator returned alongside a Mesh.
type Report struct {
	Diagnostics []Diagnostic

	FacesTotal     int
	FacesExtracted int
	FacesSkipped   int
	// FacesCorrupt counts faces that failed the access probe but were
	// still extracted best-effort.
	FacesCorrupt     int
	TrianglesSkipped int

	// Methods holds the normal method per face, NoNormals for skipped
	// faces or when normals were not requested.
	Methods []NormalMethod
	// Merge is nil unless vertex merging ran.
	Merge *MergeStats
}

// Count returns how many diagnostics have the given kind.
func (r *Report) Count(kind ErrorKind) int {
	n := 0
	for _, d := range r.Diagnostics {
		if d.Kind == kind {
			n++
		}
	}
	return n
}

// HasErrors reports whether anything was skipped or degraded.
func (r *Report) HasErrors() bool {
	return len(r.Diagnostics) > 0
}

// Err joins every diagnostic into one error, or returns nil.
func (r *Report) Err() error {
	if len(r.Diagnostics) == 0 {
		return nil
	}
	errs := make([]error, len(r.Diagnostics))
	for i, d := range r.Diagnostics {
		errs[i] = d
	}
	return errors.Join(errs...)
}
