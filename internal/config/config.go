// Package config holds tessera's settings: which kernel meshes the scene,
// how the assembler builds meshes, and where logs go.
package config

import (
	"errors"
	"fmt"

	"github.com/chazu/tessera/pkg/kernel"
	"github.com/chazu/tessera/pkg/mesh"
)

// Kernel names accepted in KernelConfig.Name.
const (
	KernelAnalytic = "analytic"
	KernelSdfx     = "sdfx"
	KernelManifold = "manifold"
)

// Config holds all settings.
type Config struct {
	Kernel  KernelConfig  `yaml:"kernel"`
	Mesh    MeshConfig    `yaml:"mesh"`
	Logging LoggingConfig `yaml:"logging"`
}

// KernelConfig selects the geometry kernel and its meshing parameters.
type KernelConfig struct {
	Name   string            `yaml:"name"`
	Params kernel.MeshParams `yaml:"params"`
}

// MeshConfig mirrors mesh.Options in file form.
type MeshConfig struct {
	IncludeNormals         bool    `yaml:"include_normals"`
	IncludeUV              bool    `yaml:"include_uv"`
	MergeVertices          bool    `yaml:"merge_vertices"`
	MergeTolerance         float64 `yaml:"merge_tolerance"`
	CoordinateSystem       string  `yaml:"coordinate_system"`
	Scale                  float64 `yaml:"scale"`
	FlipNormalsForReversed bool    `yaml:"flip_normals_for_reversed"`
	DegenerateTolerance    float64 `yaml:"degenerate_tolerance"`
	Parallel               bool    `yaml:"parallel"`
	WriteBackNormals       bool    `yaml:"write_back_normals"`
	// Matrix is the row-major linear map used by the custom coordinate
	// system. Unset means identity.
	Matrix [][]float64 `yaml:"matrix,omitempty"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	opts := mesh.DefaultOptions()
	return &Config{
		Kernel: KernelConfig{
			Name:   KernelAnalytic,
			Params: kernel.DefaultMeshParams(),
		},
		Mesh: MeshConfig{
			IncludeNormals:      opts.IncludeNormals,
			MergeTolerance:      opts.MergeTolerance,
			CoordinateSystem:    opts.CoordinateSystem.String(),
			Scale:               opts.Scale,
			DegenerateTolerance: opts.DegenerateTolerance,
		},
		Logging: LoggingConfig{
			Level:      "info",
			MaxSizeMB:  50,
			MaxBackups: 3,
			MaxAgeDays: 7,
			Compress:   true,
		},
	}
}

// MeshOptions converts the mesh section into assembler options.
func (c *Config) MeshOptions() (mesh.Options, error) {
	cs, err := mesh.ParseCoordinateSystem(c.Mesh.CoordinateSystem)
	if err != nil {
		return mesh.Options{}, err
	}
	opts := mesh.Options{
		IncludeNormals:         c.Mesh.IncludeNormals,
		IncludeUV:              c.Mesh.IncludeUV,
		MergeVertices:          c.Mesh.MergeVertices,
		MergeTolerance:         c.Mesh.MergeTolerance,
		CoordinateSystem:       cs,
		Scale:                  c.Mesh.Scale,
		FlipNormalsForReversed: c.Mesh.FlipNormalsForReversed,
		DegenerateTolerance:    c.Mesh.DegenerateTolerance,
		Parallel:               c.Mesh.Parallel,
		WriteBackNormals:       c.Mesh.WriteBackNormals,
	}
	if c.Mesh.Matrix != nil {
		m, err := matrix(c.Mesh.Matrix)
		if err != nil {
			return mesh.Options{}, err
		}
		opts.Custom = m
	}
	return opts, nil
}

func matrix(rows [][]float64) (mesh.Matrix, error) {
	var m mesh.Matrix
	if len(rows) != 3 {
		return m, fmt.Errorf("mesh.matrix: want 3 rows, got %d", len(rows))
	}
	for i, row := range rows {
		if len(row) != 3 {
			return m, fmt.Errorf("mesh.matrix: row %d has %d columns, want 3", i, len(row))
		}
		copy(m[i][:], row)
	}
	return m, nil
}

// MeshParams returns the kernel meshing parameters.
func (c *Config) MeshParams() kernel.MeshParams {
	return c.Kernel.Params
}

var validLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

// Validate reports every problem with c.
func (c *Config) Validate() error {
	var errs []error
	switch c.Kernel.Name {
	case KernelAnalytic, KernelSdfx, KernelManifold:
	default:
		errs = append(errs, fmt.Errorf("kernel.name %q: want analytic, sdfx or manifold", c.Kernel.Name))
	}
	p := c.Kernel.Params
	if p.LinearDeflection < 0 || p.AngularDeflection < 0 {
		errs = append(errs, fmt.Errorf("kernel.params: deflections must not be negative"))
	}
	if p.LinearDeflection == 0 && p.AngularDeflection == 0 {
		errs = append(errs, fmt.Errorf("kernel.params: set linear_deflection or angular_deflection"))
	}
	if opts, err := c.MeshOptions(); err != nil {
		errs = append(errs, err)
	} else if err := opts.Validate(); err != nil {
		errs = append(errs, err)
	}
	if !validLevels[c.Logging.Level] {
		errs = append(errs, fmt.Errorf("logging.level %q: want debug, info, warn or error", c.Logging.Level))
	}
	return errors.Join(errs...)
}
