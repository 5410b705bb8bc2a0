package brep

import (
	"math"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Location is a rigid placement (rotation plus translation, no scale).
// The zero value is the identity.
type Location struct {
	m   sdf.M44
	set bool
}

// Identity returns the identity placement.
func Identity() Location {
	return Location{}
}

// FromMatrix wraps an sdfx matrix. The matrix must not scale or shear;
// Direction relies on that.
func FromMatrix(m sdf.M44) Location {
	return Location{m: m, set: true}
}

// Translation returns a placement that moves points by v.
func Translation(v v3.Vec) Location {
	return FromMatrix(sdf.Translate3d(v))
}

// Rotation returns a placement rotating by Euler angles in degrees,
// applied about X first, then Y, then Z.
func Rotation(x, y, z float64) Location {
	xRad := x * math.Pi / 180.0
	yRad := y * math.Pi / 180.0
	zRad := z * math.Pi / 180.0
	return FromMatrix(sdf.RotateZ(zRad).Mul(sdf.RotateY(yRad)).Mul(sdf.RotateX(xRad)))
}

// IsIdentity reports whether no placement has been set.
func (l Location) IsIdentity() bool {
	return !l.set
}

// Matrix returns the placement as an sdfx matrix.
func (l Location) Matrix() sdf.M44 {
	if !l.set {
		return sdf.Identity3d()
	}
	return l.m
}

// Then returns the placement that applies l first and o second.
func (l Location) Then(o Location) Location {
	if !l.set {
		return o
	}
	if !o.set {
		return l
	}
	return FromMatrix(o.m.Mul(l.m))
}

// Point applies the full placement to a position.
func (l Location) Point(p v3.Vec) v3.Vec {
	if !l.set {
		return p
	}
	return l.m.MulPosition(p)
}

// Direction applies only the rotational part to a direction vector.
func (l Location) Direction(d v3.Vec) v3.Vec {
	if !l.set {
		return d
	}
	return l.m.MulPosition(d).Sub(l.m.MulPosition(v3.Vec{}))
}
