package mesh

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// DefaultMergeTolerance is the vertex welding distance.
	DefaultMergeTolerance = 1e-6
	// DefaultDegenerateTolerance is the smallest triangle cross product
	// magnitude that still contributes to a vertex normal.
	DefaultDegenerateTolerance = 1e-6
	// DefaultScale converts meters to centimeters for ZUpLeftHandedScaled.
	DefaultScale = 100.0
)

// ErrUnknownCoordinateSystem is returned for a CoordinateSystem value
// outside the enumeration.
var ErrUnknownCoordinateSystem = errors.New("mesh: unknown coordinate system")

// CoordinateSystem selects the global conversion applied after assembly.
type CoordinateSystem int

const (
	Native              CoordinateSystem = iota // identity
	YUpLeftHanded                               // swap Y and Z, negate X
	ZUpLeftHandedScaled                         // uniform scale on positions
	Custom                                      // caller-supplied transform
)

func (c CoordinateSystem) String() string {
	switch c {
	case Native:
		return "native"
	case YUpLeftHanded:
		return "y_up_left_handed"
	case ZUpLeftHandedScaled:
		return "z_up_left_handed_scaled"
	case Custom:
		return "custom"
	default:
		return "unknown"
	}
}

// ParseCoordinateSystem maps a configuration string to a CoordinateSystem.
// Matching ignores case, and hyphens are accepted in place of underscores.
func ParseCoordinateSystem(s string) (CoordinateSystem, error) {
	switch strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_") {
	case "", "native":
		return Native, nil
	case "y_up_left_handed":
		return YUpLeftHanded, nil
	case "z_up_left_handed_scaled":
		return ZUpLeftHandedScaled, nil
	case "custom":
		return Custom, nil
	}
	return Native, fmt.Errorf("%w: %q", ErrUnknownCoordinateSystem, s)
}

// Options controls a single extraction.
type Options struct {
	IncludeNormals bool
	IncludeUV      bool

	MergeVertices  bool
	MergeTolerance float64 // 0 means DefaultMergeTolerance

	CoordinateSystem CoordinateSystem
	Scale            float64         // ZUpLeftHandedScaled factor, 0 means DefaultScale
	Custom           CustomTransform // used by the Custom coordinate system, nil is identity

	// FlipNormalsForReversed negates the normals of Reversed faces. Winding
	// is resolved from orientation regardless of this flag.
	FlipNormalsForReversed bool
	DegenerateTolerance    float64 // 0 means DefaultDegenerateTolerance

	// Parallel extracts faces concurrently. The result is identical to a
	// sequential extraction.
	Parallel bool
	// WriteBackNormals stores synthesized normals into triangulations that
	// implement brep.NormalWriter.
	WriteBackNormals bool
}

// DefaultOptions returns normals on, everything else off.
func DefaultOptions() Options {
	return Options{
		IncludeNormals:      true,
		MergeTolerance:      DefaultMergeTolerance,
		CoordinateSystem:    Native,
		Scale:               DefaultScale,
		DegenerateTolerance: DefaultDegenerateTolerance,
	}
}

// Validate rejects option values that cannot be honored.
func (o Options) Validate() error {
	if o.MergeTolerance < 0 {
		return fmt.Errorf("mesh: merge tolerance %g is negative", o.MergeTolerance)
	}
	if o.DegenerateTolerance < 0 {
		return fmt.Errorf("mesh: degenerate tolerance %g is negative", o.DegenerateTolerance)
	}
	if o.Scale < 0 {
		return fmt.Errorf("mesh: scale %g is negative", o.Scale)
	}
	if o.CoordinateSystem < Native || o.CoordinateSystem > Custom {
		return fmt.Errorf("%w: %d", ErrUnknownCoordinateSystem, int(o.CoordinateSystem))
	}
	return nil
}

func (o Options) withDefaults() Options {
	if o.MergeTolerance == 0 {
		o.MergeTolerance = DefaultMergeTolerance
	}
	if o.DegenerateTolerance == 0 {
		o.DegenerateTolerance = DefaultDegenerateTolerance
	}
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
	return o
}

func (o Options) transformOptions() TransformOptions {
	return TransformOptions{Scale: o.Scale, Custom: o.Custom}
}
