package report

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorMatching(t *testing.T) {
	base := errors.New("solver diverged")
	err := Errorf(IntersectionFailure, nil, "edge/face %d/%d: %w", 3, 7, base)

	if !errors.Is(err, ErrIntersectionFailure) {
		t.Error("errors.Is should match the code sentinel")
	}
	if errors.Is(err, ErrTopologyBuildFailure) {
		t.Error("errors.Is matched a different code")
	}
	if !errors.Is(err, base) {
		t.Error("wrapped cause lost")
	}
	wrapped := fmt.Errorf("pave filler: %w", err)
	var re *Error
	if !errors.As(wrapped, &re) || re.Code != IntersectionFailure {
		t.Errorf("errors.As = %v, want IntersectionFailure", re)
	}
	if got, want := err.Error(), "IntersectionFailure: edge/face 3/7: solver diverged"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestWarnf(t *testing.T) {
	w := Warnf(DegenerateInput, nil, "edge %d has zero length", 4)
	if w.Code != DegenerateInput {
		t.Errorf("code = %v", w.Code)
	}
	if got, want := w.String(), "DegenerateInput: edge 4 has zero length"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
