package main

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/chazu/tessera/pkg/engine"
	"github.com/chazu/tessera/pkg/kernel"
	"github.com/chazu/tessera/pkg/mesh"
	"github.com/chazu/tessera/pkg/tessellate"
)

// colorPalette assigns distinct display colors to parts.
var colorPalette = []string{
	"#4A90D9", "#E67E22", "#2ECC71", "#9B59B6",
	"#E74C3C", "#1ABC9C", "#F39C12", "#3498DB",
}

// Pipeline runs a scene script through evaluation, tessellation and mesh
// assembly.
type Pipeline struct {
	engine *engine.Engine
	kernel kernel.Kernel
	params kernel.MeshParams
	asm    *mesh.Assembler
	log    *zap.Logger
}

// NewPipeline wires an engine and an assembler around k. A nil logger
// discards output.
func NewPipeline(k kernel.Kernel, params kernel.MeshParams, opts mesh.Options, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{
		engine: engine.NewEngine(log),
		kernel: k,
		params: params,
		asm:    mesh.NewAssembler(opts, log),
		log:    log,
	}
}

// PartData is the JSON form of one tessellated part.
type PartData struct {
	Name        string           `json:"name"`
	Color       string           `json:"color"`
	Mesh        *mesh.Mesh       `json:"mesh"`
	Faces       int              `json:"faces"`
	Skipped     int              `json:"facesSkipped"`
	Methods     []string         `json:"normalMethods"`
	Merge       *mesh.MergeStats `json:"merge,omitempty"`
	Diagnostics []string         `json:"diagnostics,omitempty"`
}

// Message is a located error or warning.
type Message struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// Result is everything one run produced. Parts is empty whenever Errors
// is not.
type Result struct {
	Parts    []PartData `json:"parts"`
	Errors   []Message  `json:"errors"`
	Warnings []Message  `json:"warnings"`

	raw []tessellate.Part
}

// OK reports whether the run produced no errors.
func (r Result) OK() bool {
	return len(r.Errors) == 0
}

// Run evaluates source and meshes every part it places.
func (p *Pipeline) Run(source string) Result {
	result := Result{
		Parts:    []PartData{},
		Errors:   []Message{},
		Warnings: []Message{},
	}

	checked, err := p.engine.Check(source)
	if err != nil {
		p.log.Error("evaluation failed", zap.Error(err))
		result.Errors = append(result.Errors, Message{Message: err.Error()})
		return result
	}
	for _, w := range checked.Warnings {
		result.Warnings = append(result.Warnings, Message{Message: w.Message})
	}
	if !checked.OK() {
		for _, e := range checked.Errors {
			result.Errors = append(result.Errors, Message{Line: e.Line, Col: e.Col, Message: e.Message})
		}
		return result
	}

	parts, err := tessellate.Tessellate(checked.Graph, p.kernel, p.params, p.asm)
	if err != nil {
		p.log.Error("tessellation failed", zap.Error(err))
		result.Errors = append(result.Errors, Message{Message: "tessellation failed: " + err.Error()})
		return result
	}

	result.raw = parts
	for i, part := range parts {
		result.Parts = append(result.Parts, partData(part, colorPalette[i%len(colorPalette)]))
	}
	return result
}

func partData(part tessellate.Part, color string) PartData {
	rep := part.Report
	d := PartData{
		Name:    part.Name,
		Color:   color,
		Mesh:    part.Mesh,
		Faces:   rep.FacesTotal,
		Skipped: rep.FacesSkipped,
		Merge:   rep.Merge,
	}
	for _, m := range rep.Methods {
		d.Methods = append(d.Methods, m.String())
	}
	for _, diag := range rep.Diagnostics {
		d.Diagnostics = append(d.Diagnostics, diag.Error())
	}
	return d
}

// methodSummary collapses per-face methods into "surface_based x6".
func methodSummary(methods []string) string {
	if len(methods) == 0 {
		return "-"
	}
	var out string
	count := 1
	for i := 1; i <= len(methods); i++ {
		if i < len(methods) && methods[i] == methods[i-1] {
			count++
			continue
		}
		if out != "" {
			out += ","
		}
		out += fmt.Sprintf("%s x%d", methods[i-1], count)
		count = 1
	}
	return out
}
