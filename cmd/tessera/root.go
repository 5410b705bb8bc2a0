package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chazu/tessera/internal/config"
	"github.com/chazu/tessera/internal/logger"
	"github.com/chazu/tessera/pkg/kernel"
	"github.com/chazu/tessera/pkg/kernel/analytic"
	"github.com/chazu/tessera/pkg/kernel/manifold"
	"github.com/chazu/tessera/pkg/kernel/sdfx"
)

// app carries flag values and the state built from them before a
// subcommand runs.
type app struct {
	configPath string
	logLevel   string
	logFile    string
	kernel     string
	deflection float64
	coords     string
	merge      bool
	uv         bool
	noNormals  bool
	flip       bool
	parallel   bool

	cfg      *config.Config
	log      *zap.Logger
	pipeline *Pipeline
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "tessera",
		Short: "Mesh assembly for scene scripts",
		Long: `tessera evaluates a Lisp scene script, meshes every part through a
geometry kernel and assembles one indexed triangle mesh per part.

Settings come from tessera.yaml (or --config) and can be overridden
per run with flags.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}

	f := root.PersistentFlags()
	f.StringVar(&a.configPath, "config", "", "config file (default ./tessera.yaml)")
	f.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn or error")
	f.StringVar(&a.logFile, "log-file", "", "also write JSON logs to this file")
	f.StringVarP(&a.kernel, "kernel", "k", "", "geometry kernel: analytic, sdfx or manifold")
	f.Float64Var(&a.deflection, "deflection", 0, "linear deflection handed to the kernel")
	f.StringVar(&a.coords, "coords", "", "output coordinate system")
	f.BoolVar(&a.merge, "merge", false, "merge coincident vertices")
	f.BoolVar(&a.uv, "uv", false, "emit per-vertex UV coordinates")
	f.BoolVar(&a.noNormals, "no-normals", false, "omit per-vertex normals")
	f.BoolVar(&a.flip, "flip", false, "flip normals of reversed faces")
	f.BoolVar(&a.parallel, "parallel", false, "extract faces and parts concurrently")

	root.AddCommand(newExtractCmd(a), newInspectCmd(a), newValidateCmd(a), newConfigCmd(a))
	return root
}

// setup loads the config, applies flag overrides and builds the logger,
// the kernel and the pipeline.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.override(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	fileCfg := logger.DefaultFileConfig(cfg.Logging.File)
	if cfg.Logging.MaxSizeMB > 0 {
		fileCfg.MaxSizeMB = cfg.Logging.MaxSizeMB
	}
	if cfg.Logging.MaxBackups > 0 {
		fileCfg.MaxBackups = cfg.Logging.MaxBackups
	}
	if cfg.Logging.MaxAgeDays > 0 {
		fileCfg.MaxAgeDays = cfg.Logging.MaxAgeDays
	}
	fileCfg.Compress = cfg.Logging.Compress
	log := logger.New(logger.Options{
		Level:   cfg.Logging.Level,
		File:    fileCfg,
		Console: cmd.ErrOrStderr(),
	})

	k, err := newKernel(cfg.Kernel.Name)
	if err != nil {
		return err
	}
	opts, err := cfg.MeshOptions()
	if err != nil {
		return err
	}

	log.Debug("configured",
		zap.String("kernel", k.Name()),
		zap.Float64("linear_deflection", cfg.Kernel.Params.LinearDeflection),
		zap.String("coords", opts.CoordinateSystem.String()),
		zap.Bool("merge", opts.MergeVertices),
	)

	a.cfg = cfg
	a.log = log
	a.pipeline = NewPipeline(k, cfg.MeshParams(), opts, log)
	return nil
}

func (a *app) override(cmd *cobra.Command, cfg *config.Config) {
	changed := cmd.Flags().Changed
	if changed("log-level") {
		cfg.Logging.Level = a.logLevel
	}
	if changed("log-file") {
		cfg.Logging.File = a.logFile
	}
	if changed("kernel") {
		cfg.Kernel.Name = a.kernel
	}
	if changed("deflection") {
		cfg.Kernel.Params.LinearDeflection = a.deflection
	}
	if changed("coords") {
		cfg.Mesh.CoordinateSystem = a.coords
	}
	if changed("merge") {
		cfg.Mesh.MergeVertices = a.merge
	}
	if changed("uv") {
		cfg.Mesh.IncludeUV = a.uv
	}
	if changed("no-normals") {
		cfg.Mesh.IncludeNormals = !a.noNormals
	}
	if changed("flip") {
		cfg.Mesh.FlipNormalsForReversed = a.flip
	}
	if changed("parallel") {
		cfg.Mesh.Parallel = a.parallel
		cfg.Kernel.Params.ParallelMeshing = a.parallel
	}
}

func newKernel(name string) (kernel.Kernel, error) {
	switch name {
	case config.KernelAnalytic:
		return analytic.New(), nil
	case config.KernelSdfx:
		return sdfx.New(), nil
	case config.KernelManifold:
		return manifold.New()
	default:
		return nil, fmt.Errorf("unknown kernel %q", name)
	}
}

// readScene reads a script from path, or from in when path is "-".
func readScene(in io.Reader, path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(in)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("reading scene: %w", err)
	}
	return string(data), nil
}

// run reads the scene named by args[0] and pushes it through the pipeline.
// Warnings go to the log; evaluation errors are printed to w and returned
// as a single error.
func (a *app) run(cmd *cobra.Command, args []string) (Result, error) {
	src, err := readScene(cmd.InOrStdin(), args[0])
	if err != nil {
		return Result{}, err
	}
	res := a.pipeline.Run(src)
	for _, w := range res.Warnings {
		a.log.Warn(w.Message)
	}
	if !res.OK() {
		w := cmd.ErrOrStderr()
		for _, e := range res.Errors {
			if e.Line > 0 {
				fmt.Fprintf(w, "%s:%d: %s\n", args[0], e.Line, e.Message)
			} else {
				fmt.Fprintf(w, "%s: %s\n", args[0], e.Message)
			}
		}
		return res, fmt.Errorf("%s: %d error(s)", args[0], len(res.Errors))
	}
	return res, nil
}
