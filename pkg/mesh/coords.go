package mesh

import (
	"fmt"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// CustomTransform maps positions and normals for the Custom coordinate
// system. TransformNormal receives unit vectors and should return them.
type CustomTransform interface {
	TransformPoint(p v3.Vec) v3.Vec
	TransformNormal(n v3.Vec) v3.Vec
}

// TransformOptions parameterizes Transform.
type TransformOptions struct {
	Scale  float64 // ZUpLeftHandedScaled factor, 0 means DefaultScale
	Custom CustomTransform
}

// Transform converts m in place from the kernel's right-handed Z-up frame
// into cs. UV coordinates and indices are never touched. A Custom
// transform that panics leaves m unchanged and is reported as an error.
func Transform(m *Mesh, cs CoordinateSystem, opts TransformOptions) error {
	if m == nil {
		return nil
	}
	switch cs {
	case Native:
		return nil
	case YUpLeftHanded:
		swap := func(buf []float32) {
			for i := 0; i+2 < len(buf); i += 3 {
				x, y, z := buf[i], buf[i+1], buf[i+2]
				buf[i], buf[i+1], buf[i+2] = -x, z, y
			}
		}
		swap(m.Vertices)
		swap(m.Normals)
	case ZUpLeftHandedScaled:
		s := float32(opts.Scale)
		if opts.Scale == 0 {
			s = DefaultScale
		}
		for i := range m.Vertices {
			m.Vertices[i] *= s
		}
	case Custom:
		if opts.Custom == nil {
			return nil
		}
		// Work on copies so a failing transform leaves m untouched.
		e := read(func() ([2][]float32, error) {
			verts := append([]float32(nil), m.Vertices...)
			for i := 0; i < m.VertexCount(); i++ {
				setVec(verts, i, opts.Custom.TransformPoint(m.Vertex(i)))
			}
			normals := m.Normals
			if len(m.Normals) == len(m.Vertices) {
				normals = append([]float32(nil), m.Normals...)
				for i := 0; i < m.VertexCount(); i++ {
					setVec(normals, i, opts.Custom.TransformNormal(m.Normal(i)))
				}
			}
			return [2][]float32{verts, normals}, nil
		})
		if e.Err != nil {
			return fmt.Errorf("mesh: custom transform: %w", e.Err)
		}
		m.Vertices, m.Normals = e.Value[0], e.Value[1]
	default:
		return fmt.Errorf("%w: %d", ErrUnknownCoordinateSystem, int(cs))
	}
	return nil
}

func setVec(buf []float32, i int, v v3.Vec) {
	buf[3*i], buf[3*i+1], buf[3*i+2] = float32(v.X), float32(v.Y), float32(v.Z)
}

// Matrix adapts a row-major 3x3 linear map to CustomTransform. Normals are
// mapped by the same matrix and renormalized, which is exact for rotations
// and uniform scales.
type Matrix [3][3]float64

func (m Matrix) apply(v v3.Vec) v3.Vec {
	return v3.Vec{
		X: m[0][0]*v.X + m[0][1]*v.Y + m[0][2]*v.Z,
		Y: m[1][0]*v.X + m[1][1]*v.Y + m[1][2]*v.Z,
		Z: m[2][0]*v.X + m[2][1]*v.Y + m[2][2]*v.Z,
	}
}

func (m Matrix) TransformPoint(p v3.Vec) v3.Vec { return m.apply(p) }

func (m Matrix) TransformNormal(n v3.Vec) v3.Vec {
	r := m.apply(n)
	if l := r.Length(); l > 0 {
		return r.MulScalar(1 / l)
	}
	return r
}
