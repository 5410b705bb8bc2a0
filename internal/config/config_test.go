package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chazu/tessera/pkg/mesh"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config is invalid: %v", err)
	}
	if cfg.Kernel.Name != KernelAnalytic {
		t.Errorf("kernel = %q, want analytic", cfg.Kernel.Name)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.File != "" {
		t.Errorf("logging = %+v", cfg.Logging)
	}

	opts, err := cfg.MeshOptions()
	if err != nil {
		t.Fatal(err)
	}
	if opts != mesh.DefaultOptions() {
		t.Errorf("MeshOptions() = %+v, want mesh.DefaultOptions()", opts)
	}
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tessera.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFromFile(t *testing.T) {
	path := writeFile(t, `
kernel:
  name: sdfx
  params:
    linear_deflection: 0.25
mesh:
  merge_vertices: true
  coordinate_system: y-up-left-handed
logging:
  level: debug
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	if cfg.Kernel.Name != KernelSdfx || cfg.Kernel.Params.LinearDeflection != 0.25 {
		t.Errorf("kernel = %+v", cfg.Kernel)
	}
	// Values the file leaves out keep their defaults.
	if cfg.Kernel.Params.AngularDeflection != 0.5 {
		t.Errorf("angular deflection = %g, want default 0.5", cfg.Kernel.Params.AngularDeflection)
	}
	if !cfg.Mesh.IncludeNormals {
		t.Error("include_normals lost its default")
	}
	if cfg.Logging.MaxBackups != 3 {
		t.Errorf("max_backups = %d, want default 3", cfg.Logging.MaxBackups)
	}

	opts, err := cfg.MeshOptions()
	if err != nil {
		t.Fatal(err)
	}
	if !opts.MergeVertices || opts.CoordinateSystem != mesh.YUpLeftHanded {
		t.Errorf("options = %+v", opts)
	}
	if cfg.MeshParams() != cfg.Kernel.Params {
		t.Error("MeshParams() does not return the kernel params")
	}
}

func TestLoadMissingPathSearches(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Kernel.Name != KernelAnalytic {
		t.Errorf("kernel = %q, want default", cfg.Kernel.Name)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("Load of a missing explicit path succeeded")
	}
	if _, err := Load(writeFile(t, "kernel: [not, a, map]")); err == nil {
		t.Error("Load of malformed YAML succeeded")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Kernel.Name = KernelSdfx
	cfg.Mesh.Matrix = [][]float64{{0, 1, 0}, {1, 0, 0}, {0, 0, 1}}
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	if err := Save(cfg, path); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Kernel.Name != KernelSdfx || len(got.Mesh.Matrix) != 3 || got.Mesh.Matrix[0][1] != 1 {
		t.Errorf("round trip lost values: %+v", got)
	}
}

func TestCustomMatrix(t *testing.T) {
	cfg := Default()
	cfg.Mesh.CoordinateSystem = "custom"
	cfg.Mesh.Matrix = [][]float64{{2, 0, 0}, {0, 2, 0}, {0, 0, 2}}
	opts, err := cfg.MeshOptions()
	if err != nil {
		t.Fatal(err)
	}
	m, ok := opts.Custom.(mesh.Matrix)
	if !ok || m[2][2] != 2 {
		t.Fatalf("Custom = %#v", opts.Custom)
	}

	cfg.Mesh.Matrix = [][]float64{{1, 0}, {0, 1}, {0, 0, 1}}
	if _, err := cfg.MeshOptions(); err == nil {
		t.Error("ragged matrix accepted")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"unknown kernel", func(c *Config) { c.Kernel.Name = "occt" }, "kernel.name"},
		{"negative deflection", func(c *Config) { c.Kernel.Params.LinearDeflection = -1 }, "negative"},
		{"no deflection", func(c *Config) { c.Kernel.Params.LinearDeflection, c.Kernel.Params.AngularDeflection = 0, 0 }, "set linear_deflection"},
		{"unknown coordinate system", func(c *Config) { c.Mesh.CoordinateSystem = "x-up" }, "coordinate system"},
		{"negative tolerance", func(c *Config) { c.Mesh.MergeTolerance = -1 }, "merge tolerance"},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}
