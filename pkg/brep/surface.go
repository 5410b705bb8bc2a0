package brep

import (
	"errors"
	"math"

	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// ErrParameter is returned when a surface is evaluated at a parameter it
// cannot handle.
var ErrParameter = errors.New("brep: invalid surface parameter")

// Surface is the continuous surface underlying a face, expressed in the
// same local frame as the face's triangulation.
type Surface interface {
	// Bounds returns the parametric range of the face on the surface.
	Bounds() (umin, umax, vmin, vmax float64)
	// D1 evaluates the point and both first-order partial derivatives.
	D1(uv v2.Vec) (p, du, dv v3.Vec, err error)
}

func checkParam(uv v2.Vec) error {
	if math.IsNaN(uv.X) || math.IsNaN(uv.Y) || math.IsInf(uv.X, 0) || math.IsInf(uv.Y, 0) {
		return ErrParameter
	}
	return nil
}

// Plane is P(u,v) = Origin + u*XDir + v*YDir. Its natural normal is
// XDir × YDir.
type Plane struct {
	Origin, XDir, YDir     v3.Vec
	UMin, UMax, VMin, VMax float64
}

func (s *Plane) Bounds() (umin, umax, vmin, vmax float64) {
	return s.UMin, s.UMax, s.VMin, s.VMax
}

func (s *Plane) D1(uv v2.Vec) (p, du, dv v3.Vec, err error) {
	if err = checkParam(uv); err != nil {
		return
	}
	p = s.Origin.Add(s.XDir.MulScalar(uv.X)).Add(s.YDir.MulScalar(uv.Y))
	return p, s.XDir, s.YDir, nil
}

// CylinderSurface is the lateral surface of a cylinder around the Z axis:
// P(u,v) = Center + Radius*(cos u, sin u, 0) + (0, 0, v).
// u spans [0, 2π], v spans [VMin, VMax]. The natural normal points away
// from the axis.
type CylinderSurface struct {
	Center     v3.Vec
	Radius     float64
	VMin, VMax float64
}

func (s *CylinderSurface) Bounds() (umin, umax, vmin, vmax float64) {
	return 0, 2 * math.Pi, s.VMin, s.VMax
}

func (s *CylinderSurface) D1(uv v2.Vec) (p, du, dv v3.Vec, err error) {
	if err = checkParam(uv); err != nil {
		return
	}
	su, cu := math.Sincos(uv.X)
	p = s.Center.Add(v3.Vec{X: s.Radius * cu, Y: s.Radius * su, Z: uv.Y})
	du = v3.Vec{X: -s.Radius * su, Y: s.Radius * cu}
	dv = v3.Vec{Z: 1}
	return p, du, dv, nil
}

// SphereSurface is parameterized by longitude u in [0, 2π] and latitude
// v in [-π/2, π/2]:
// P(u,v) = Center + Radius*(cos v cos u, cos v sin u, sin v).
// The derivatives vanish in cross product at the poles.
type SphereSurface struct {
	Center v3.Vec
	Radius float64
}

func (s *SphereSurface) Bounds() (umin, umax, vmin, vmax float64) {
	return 0, 2 * math.Pi, -math.Pi / 2, math.Pi / 2
}

func (s *SphereSurface) D1(uv v2.Vec) (p, du, dv v3.Vec, err error) {
	if err = checkParam(uv); err != nil {
		return
	}
	su, cu := math.Sincos(uv.X)
	sv, cv := math.Sincos(uv.Y)
	r := s.Radius
	p = s.Center.Add(v3.Vec{X: r * cv * cu, Y: r * cv * su, Z: r * sv})
	du = v3.Vec{X: -r * cv * su, Y: r * cv * cu}
	dv = v3.Vec{X: -r * sv * cu, Y: -r * sv * su, Z: r * cv}
	return p, du, dv, nil
}

// Compile-time interface checks.
var _ Surface = (*Plane)(nil)
var _ Surface = (*CylinderSurface)(nil)
var _ Surface = (*SphereSurface)(nil)
