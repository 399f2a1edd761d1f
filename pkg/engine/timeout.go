package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chazu/boolkit/pkg/graph"
)

// EvalTimeout is the default limit for one scene evaluation.
const EvalTimeout = 5 * time.Second

// ErrSuperseded is returned by an evaluation that finished after a newer
// one was started on the same Engine.
var ErrSuperseded = errors.New("scene evaluation superseded by a newer one")

var errTimedOut = errors.New("scene evaluation timed out")

// sceneOutcome carries what the sandbox goroutine produced.
type sceneOutcome struct {
	graph  *graph.DesignGraph
	errors []EvalError
	err    error
}

// await blocks until the sandbox reports on ch, ctx ends or limit passes.
// A sandbox still running when await gives up is left to finish; its
// outcome is dropped because nothing reads ch again.
func (e *Engine) await(ctx context.Context, ch <-chan sceneOutcome, gen uint64, limit time.Duration) (*graph.DesignGraph, []EvalError, error) {
	ctx, cancel := context.WithTimeoutCause(ctx, limit, fmt.Errorf("%w after %s", errTimedOut, limit))
	defer cancel()

	select {
	case out := <-ch:
		if gen != e.currentGeneration() {
			return nil, nil, ErrSuperseded
		}
		return out.graph, out.errors, out.err
	case <-ctx.Done():
		return nil, nil, context.Cause(ctx)
	}
}

func (e *Engine) currentGeneration() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.generation
}
