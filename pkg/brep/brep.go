// Package brep models the output contract of a boundary-representation
// kernel after meshing: a shape is an ordered set of faces, and each face
// carries a triangulation, an optional underlying surface, an orientation
// flag and a placement. Nothing in this package meshes anything; kernels
// fill these structures and the mesh package consumes them.
package brep

// Orientation tells whether a face's outward direction agrees with the
// natural normal of its underlying surface.
type Orientation int

const (
	Forward  Orientation = iota // outward direction follows the surface normal
	Reversed                    // outward direction opposes the surface normal
)

func (o Orientation) String() string {
	switch o {
	case Forward:
		return "forward"
	case Reversed:
		return "reversed"
	default:
		return "unknown"
	}
}

// Face is one bounded patch of a shape.
type Face struct {
	// Triangulation is nil when the face was never meshed.
	Triangulation Triangulation
	// Surface is nil when the kernel exposes no analytic surface.
	Surface     Surface
	Orientation Orientation
	// Location brings triangulation-local points into the face's
	// placement in the parent shape.
	Location Location
}

// Shape is a solid as seen after meshing. Faces are kept in the kernel's
// natural traversal order.
type Shape struct {
	Name  string
	Faces []*Face
}

// FaceCount returns the number of faces, treating a nil shape as empty.
func (s *Shape) FaceCount() int {
	if s == nil {
		return 0
	}
	return len(s.Faces)
}

// Place composes loc onto the location of every face, so that loc is
// applied after each face's own placement.
func (s *Shape) Place(loc Location) {
	if s == nil || loc.IsIdentity() {
		return
	}
	for _, f := range s.Faces {
		if f != nil {
			f.Location = f.Location.Then(loc)
		}
	}
}
