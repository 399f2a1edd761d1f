// Package engine provides the Lisp evaluation engine for scene files.
// It wraps zygomys in a sandboxed environment and produces a DesignGraph
// from user source code.
package engine

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chazu/boolkit/pkg/graph"
	zygo "github.com/glycerine/zygomys/zygo"
)

// EvalError represents a non-fatal error encountered during evaluation,
// such as a parse error or a runtime error in user code.
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

// EvalWarning represents a non-fatal warning produced during evaluation.
type EvalWarning struct {
	Line    int
	Col     int
	Message string
	NodeID  graph.NodeID
}

// EvalResult bundles the full output of an evaluation: the graph, evaluation
// and validation errors, and advisory warnings.
type EvalResult struct {
	Graph    *graph.DesignGraph
	Errors   []EvalError
	Warnings []EvalWarning
}

// Engine wraps the zygomys interpreter for scene evaluation.
// It is safe for concurrent use; each call to Evaluate creates a fresh
// sandboxed environment for determinism.
type Engine struct {
	// Timeout bounds each evaluation on top of the caller's context.
	Timeout time.Duration

	mu         sync.Mutex
	generation uint64
}

// NewEngine creates an Engine with the default EvalTimeout.
func NewEngine() *Engine {
	return &Engine{Timeout: EvalTimeout}
}

// Evaluate takes Lisp source code and produces a new DesignGraph.
// Each call creates a fresh zygomys sandbox for deterministic evaluation.
//
// Return semantics:
//   - On success: returns graph + nil errors + nil error
//   - On parse/eval failure: returns nil graph + eval errors + nil error
//   - On fatal failure (ctx done, timeout, panic, superseded): returns
//     nil + nil + error
func (e *Engine) Evaluate(ctx context.Context, source string) (*graph.DesignGraph, []EvalError, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	ch := make(chan sceneOutcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- sceneOutcome{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()
		g, evalErrs, err := e.evaluate(source)
		ch <- sceneOutcome{graph: g, errors: evalErrs, err: err}
	}()

	limit := e.Timeout
	if limit <= 0 {
		limit = EvalTimeout
	}
	return e.await(ctx, ch, gen, limit)
}

// Check evaluates source and validates the resulting graph. Validation
// errors are reported as EvalErrors; the graph is only returned when there
// are none. A fatal failure is returned as err.
func (e *Engine) Check(ctx context.Context, source string) (EvalResult, error) {
	g, evalErrs, err := e.Evaluate(ctx, source)
	if err != nil {
		return EvalResult{}, err
	}
	if len(evalErrs) > 0 {
		return EvalResult{Errors: evalErrs}, nil
	}

	vr := graph.ValidateAll(g)
	res := EvalResult{Graph: g}
	for _, ve := range vr.Errors {
		res.Errors = append(res.Errors, EvalError{Message: ve.Error()})
	}
	for _, w := range vr.Warnings {
		res.Warnings = append(res.Warnings, EvalWarning{Message: w.Message, NodeID: w.NodeID})
	}
	if len(res.Errors) > 0 {
		res.Graph = nil
	}
	return res, nil
}

// evaluate performs the actual zygomys evaluation in a fresh sandbox.
func (e *Engine) evaluate(source string) (*graph.DesignGraph, []EvalError, error) {
	// Empty source is a valid program that produces an empty graph.
	if strings.TrimSpace(source) == "" {
		return graph.New(), nil, nil
	}

	// Create a fresh sandboxed zygomys environment.
	// Sandbox mode prevents user code from accessing the filesystem or syscalls.
	env := zygo.NewZlispSandbox()
	defer env.Stop()

	sb := newSceneBuilder()
	registerBuiltins(env, sb)

	// Load and compile the source string into bytecode.
	err := env.LoadString(preprocessSource(source))
	if err != nil {
		return nil, parseZygomysError(err), nil
	}

	// Execute the compiled bytecode.
	_, err = env.Run()
	if err != nil {
		return nil, parseZygomysError(err), nil
	}

	g := sb.finish()
	e.mu.Lock()
	g.Version = e.generation
	e.mu.Unlock()
	return g, nil, nil
}

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into one or more EvalError values.
// It attempts to extract line number information from the error message.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()

	// Try to extract line numbers from the error message.
	// zygomys formats parse errors as "Error on line N: <details>\n"
	if m := linePattern.FindStringSubmatch(msg); m != nil {
		line, _ := strconv.Atoi(m[1])
		detail := strings.TrimSpace(m[2])
		return []EvalError{{
			Line:    line,
			Col:     0,
			Message: detail,
		}}
	}

	if m := linePatternShort.FindStringSubmatch(msg); m != nil {
		line, _ := strconv.Atoi(m[1])
		detail := strings.TrimSpace(m[2])
		return []EvalError{{
			Line:    line,
			Col:     0,
			Message: detail,
		}}
	}

	// Fallback: no line info available.
	return []EvalError{{
		Line:    0,
		Col:     0,
		Message: strings.TrimSpace(msg),
	}}
}
