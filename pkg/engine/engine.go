// Package engine evaluates scene scripts. It wraps zygomys in a sandboxed
// environment and produces a scene.Graph from user source code.
package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chazu/tessera/pkg/scene"
	zygo "github.com/glycerine/zygomys/zygo"
	"go.uber.org/zap"
)

// EvalError is a non-fatal error in user code, such as a parse error or
// a builtin rejecting its arguments.
type EvalError struct {
	Line    int
	Col     int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// EvalWarning is an advisory finding about an evaluated scene.
type EvalWarning struct {
	Message string
	NodeID  scene.NodeID
}

// EvalResult bundles an evaluation with the validation of its graph.
type EvalResult struct {
	Graph    *scene.Graph
	Errors   []EvalError
	Warnings []EvalWarning
}

// OK reports whether the scene evaluated and validated without errors.
func (r EvalResult) OK() bool {
	return r.Graph != nil && len(r.Errors) == 0
}

// Engine wraps the zygomys interpreter. It is safe for concurrent use;
// each call to Evaluate creates a fresh sandboxed environment.
type Engine struct {
	mu         sync.Mutex
	generation uint64
	log        *zap.Logger
}

// NewEngine creates an Engine. A nil logger discards output.
func NewEngine(log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{log: log.Named("engine")}
}

// Evaluate runs source and returns the scene graph it builds.
//
// Return semantics:
//   - On success: graph, nil, nil
//   - On parse/eval failure: nil, eval errors, nil
//   - On fatal failure (timeout, panic, superseded): nil, nil, error
func (e *Engine) Evaluate(source string) (*scene.Graph, []EvalError, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	start := time.Now()
	ch := make(chan evalResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()
		g, evalErrs, err := evaluate(source)
		ch <- evalResult{graph: g, errors: evalErrs, err: err}
	}()

	g, evalErrs, err := waitWithTimeout(ch, gen, &e.mu, &e.generation)
	switch {
	case err != nil:
		e.log.Warn("evaluation failed", zap.Uint64("generation", gen), zap.Error(err))
	case len(evalErrs) > 0:
		e.log.Debug("evaluation reported errors",
			zap.Uint64("generation", gen),
			zap.Int("errors", len(evalErrs)),
			zap.String("first", evalErrs[0].Error()))
	default:
		g.Version = gen
		e.log.Debug("evaluated scene",
			zap.Uint64("generation", gen),
			zap.Int("nodes", g.NodeCount()),
			zap.Int("roots", len(g.Roots)),
			zap.Duration("elapsed", time.Since(start)))
	}
	return g, evalErrs, err
}

// Check evaluates source and validates the resulting graph. Validation
// errors become EvalErrors and warnings become EvalWarnings. A fatal
// failure is returned as the error.
func (e *Engine) Check(source string) (EvalResult, error) {
	g, evalErrs, err := e.Evaluate(source)
	if err != nil {
		return EvalResult{}, err
	}
	res := EvalResult{Graph: g, Errors: evalErrs}
	if g == nil {
		return res, nil
	}
	for _, f := range scene.Validate(g) {
		if f.Severity == scene.SeverityWarning {
			res.Warnings = append(res.Warnings, EvalWarning{Message: f.Message, NodeID: f.NodeID})
			continue
		}
		res.Errors = append(res.Errors, EvalError{Message: f.Error()})
	}
	return res, nil
}

// evaluate runs source in a fresh sandbox with the scene builtins.
func evaluate(source string) (*scene.Graph, []EvalError, error) {
	if strings.TrimSpace(source) == "" {
		return scene.New(), nil, nil
	}

	// The sandbox keeps scripts away from the filesystem and syscalls.
	env := zygo.NewZlispSandbox()
	defer env.Stop()

	b := newBuilder()
	registerBuiltins(env, b)

	if err := env.LoadString(preprocessSource(source)); err != nil {
		return nil, parseZygomysError(err), nil
	}
	if _, err := env.Run(); err != nil {
		return nil, parseZygomysError(err), nil
	}
	return b.g, nil, nil
}

// linePattern matches "Error on line N: ..." as zygomys formats it.
var linePattern = regexp.MustCompile(`(?is)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches "line N: ...".
var linePatternShort = regexp.MustCompile(`(?is)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into EvalErrors, extracting
// the line number when the message carries one. Text around the line
// marker is kept.
func parseZygomysError(err error) []EvalError {
	msg := strings.TrimSpace(err.Error())
	for _, re := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := re.FindStringSubmatchIndex(msg); m != nil {
			line, _ := strconv.Atoi(msg[m[2]:m[3]])
			detail := strings.TrimSpace(msg[:m[0]] + " " + msg[m[4]:m[5]])
			return []EvalError{{Line: line, Message: detail}}
		}
	}
	return []EvalError{{Message: msg}}
}
