package engine

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestEvaluateOutcomes(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		wantErrs bool
	}{
		{"arithmetic", "(+ 1 2)", false},
		{"definitions", "(def x 10)\n(def y 20)\n(+ x y)", false},
		{"unclosed paren", "(+ 1 2", true},
		{"undefined symbol", "(+ 1 undefined-symbol)", true},
		{"error on second line", "(+ 1 2)\n(+ 3", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, evalErrs, err := NewEngine().Evaluate(context.Background(), tt.source)
			if err != nil {
				t.Fatalf("fatal error: %v", err)
			}
			if !tt.wantErrs {
				if len(evalErrs) > 0 || g == nil {
					t.Fatalf("got graph %v and errors %v, want a graph", g, evalErrs)
				}
				return
			}
			if g != nil {
				t.Error("graph returned alongside eval errors")
			}
			if len(evalErrs) == 0 || evalErrs[0].Message == "" {
				t.Fatalf("errors = %v, want a message", evalErrs)
			}
			if evalErrs[0].Line < 0 {
				t.Errorf("line = %d", evalErrs[0].Line)
			}
		})
	}
}

func TestEvaluateRepeatable(t *testing.T) {
	eng := NewEngine()
	var last uint64
	for i := 0; i < 3; i++ {
		g, evalErrs, err := eng.Evaluate(context.Background(), `(box 1 2 3)`)
		if err != nil || len(evalErrs) > 0 {
			t.Fatalf("run %d: %v %v", i, err, evalErrs)
		}
		if g.NodeCount() != 1 {
			t.Errorf("run %d: %d nodes, want 1", i, g.NodeCount())
		}
		if g.Version <= last {
			t.Errorf("run %d: version %d did not advance past %d", i, g.Version, last)
		}
		last = g.Version
	}
}

func TestEvaluateCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	g, _, err := NewEngine().Evaluate(ctx, "(+ 1 2)")
	if !errors.Is(err, context.Canceled) || g != nil {
		t.Errorf("got %v, %v; want context.Canceled", g, err)
	}
}

func TestAwaitStopsOnContext(t *testing.T) {
	eng := NewEngine()
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	_, _, err := eng.await(ctx, make(chan sceneOutcome), 0, time.Minute)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestAwaitTimesOut(t *testing.T) {
	eng := NewEngine()
	start := time.Now()
	_, _, err := eng.await(context.Background(), make(chan sceneOutcome), 0, 20*time.Millisecond)
	if !errors.Is(err, errTimedOut) || !strings.Contains(err.Error(), "20ms") {
		t.Errorf("err = %v, want a timeout after 20ms", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Error("await ignored its limit")
	}
}

func TestAwaitDropsSupersededOutcome(t *testing.T) {
	eng := NewEngine()
	eng.generation = 2
	ch := make(chan sceneOutcome, 1)
	ch <- sceneOutcome{}
	if _, _, err := eng.await(context.Background(), ch, 1, time.Second); !errors.Is(err, ErrSuperseded) {
		t.Errorf("err = %v, want ErrSuperseded", err)
	}
}

func TestParseZygomysError(t *testing.T) {
	tests := []struct {
		msg      string
		wantLine int
		wantMsg  string
	}{
		{"Error on line 5: unexpected token\n", 5, "unexpected token"},
		{"some generic error", 0, "some generic error"},
		{"error on line 12: missing paren", 12, "missing paren"},
		{"line 3: bad form", 3, "bad form"},
	}
	for _, tt := range tests {
		errs := parseZygomysError(errors.New(tt.msg))
		if len(errs) == 0 {
			t.Fatalf("%q: no errors", tt.msg)
		}
		if errs[0].Line != tt.wantLine || !strings.Contains(errs[0].Message, tt.wantMsg) {
			t.Errorf("%q: got line %d %q, want line %d %q", tt.msg, errs[0].Line, errs[0].Message, tt.wantLine, tt.wantMsg)
		}
	}
}

func TestEvalErrorString(t *testing.T) {
	if got := (EvalError{Line: 5, Message: "boom"}).Error(); got != "line 5: boom" {
		t.Errorf("got %q", got)
	}
	if got := (EvalError{Message: "boom"}).Error(); got != "boom" {
		t.Errorf("got %q", got)
	}
}
