package bop

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/chazu/boolkit/pkg/builder"
	"github.com/chazu/boolkit/pkg/ds"
	"github.com/chazu/boolkit/pkg/geom"
	"github.com/chazu/boolkit/pkg/pavefiller"
)

// PerShapeTolerance overrides the working tolerance of individual input
// shapes.
type PerShapeTolerance = ds.Tolerances

// Options configures an operation. The zero value is usable; DefaultOptions
// spells out the defaults.
type Options struct {
	// Fuzzy is added to every tolerance comparison. Must not be negative.
	Fuzzy float64
	// Workers bounds the parallelism of the intersection and build stages.
	// Zero means GOMAXPROCS.
	Workers int
	// Budget is the wall-clock limit of one call. Zero means none.
	Budget time.Duration
	// Logger receives progress. Nil means slog.Default().
	Logger *slog.Logger
	// Adapter evaluates and intersects geometry. Nil means geom.Analytic.
	Adapter geom.Adapter
}

// DefaultOptions returns the options used when none are given.
func DefaultOptions() Options {
	return Options{
		Workers: runtime.GOMAXPROCS(0),
		Logger:  slog.Default(),
		Adapter: geom.Analytic{},
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.Workers <= 0 {
		o.Workers = def.Workers
	}
	if o.Logger == nil {
		o.Logger = def.Logger
	}
	if o.Adapter == nil {
		o.Adapter = def.Adapter
	}
	return o
}

func (o Options) validate() error {
	if o.Fuzzy < 0 {
		return fmt.Errorf("fuzzy value %g is negative", o.Fuzzy)
	}
	if o.Budget < 0 {
		return fmt.Errorf("budget %s is negative", o.Budget)
	}
	return nil
}

// budget applies o.Budget to ctx.
func (o Options) budget(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.Budget > 0 {
		return context.WithTimeout(ctx, o.Budget)
	}
	return context.WithCancel(ctx)
}

func (o Options) filler() pavefiller.Options {
	return pavefiller.Options{Adapter: o.Adapter, Workers: o.Workers, Logger: o.Logger}
}

func (o Options) builder() builder.Options {
	return builder.Options{Workers: o.Workers, Logger: o.Logger}
}
