package graph

import (
	"fmt"
	"math"
)

// ---------------------------------------------------------------------------
// Tier 2: geometric validation (errors + warnings)
// ---------------------------------------------------------------------------

// validateGeometry runs all Tier 2 geometric checks.
// Returns errors (blocking) and warnings (advisory) separately.
func validateGeometry(g *DesignGraph) ([]ValidationError, []ValidationWarning) {
	var errs []ValidationError
	var warnings []ValidationWarning

	errs = append(errs, validateDimensions(g)...)
	errs = append(errs, validateTransforms(g)...)
	warnings = append(warnings, validateDisjointOperands(g)...)

	return errs, warnings
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// validateDimensions checks that boxes have positive sizes and spheres a
// positive radius.
func validateDimensions(g *DesignGraph) []ValidationError {
	var errs []ValidationError

	for _, node := range g.Nodes {
		switch d := node.Data.(type) {
		case BoxData:
			for _, c := range []struct {
				axis string
				v    float64
			}{{"X", d.Size.X}, {"Y", d.Size.Y}, {"Z", d.Size.Z}} {
				if !finite(c.v) || c.v <= 0 {
					errs = append(errs, ValidationError{
						NodeID:   node.ID,
						Message:  fmt.Sprintf("box size %s is %.4f, must be positive", c.axis, c.v),
						Severity: SeverityError,
					})
				}
			}
		case SphereData:
			if !finite(d.Radius) || d.Radius <= 0 {
				errs = append(errs, ValidationError{
					NodeID:   node.ID,
					Message:  fmt.Sprintf("sphere radius is %.4f, must be positive", d.Radius),
					Severity: SeverityError,
				})
			}
		}
	}

	return errs
}

// validateTransforms checks that translations and rotations are finite.
func validateTransforms(g *DesignGraph) []ValidationError {
	var errs []ValidationError

	for _, node := range g.Nodes {
		d, ok := node.Data.(TransformData)
		if !ok {
			continue
		}
		if t := d.Translation; t != nil && !finite(t.X, t.Y, t.Z) {
			errs = append(errs, ValidationError{
				NodeID:   node.ID,
				Message:  "translation is not finite",
				Severity: SeverityError,
			})
		}
		if r := d.Rotation; r != nil && !finite(r.X, r.Y, r.Z) {
			errs = append(errs, ValidationError{
				NodeID:   node.ID,
				Message:  "rotation is not finite",
				Severity: SeverityError,
			})
		}
	}

	return errs
}

// validateDisjointOperands warns about common, cut and section nodes whose
// operands cannot touch: common and section are then empty, and cut
// returns its object unchanged.
func validateDisjointOperands(g *DesignGraph) []ValidationWarning {
	var warnings []ValidationWarning

	for _, node := range g.Nodes {
		d, ok := node.Data.(BooleanData)
		if !ok || d.Op == OpUnion || len(node.Children) < 2 {
			continue
		}
		first, ok := g.Bounds(node.Children[0])
		if !ok {
			continue
		}
		for _, c := range node.Children[1:] {
			b, ok := g.Bounds(c)
			if !ok || b.Overlaps(first, g.Defaults.Fuzzy) {
				continue
			}
			warnings = append(warnings, ValidationWarning{
				NodeID:  node.ID,
				Message: fmt.Sprintf("%s operand %s does not reach the first operand", d.Op, c.Short()),
			})
		}
	}

	return warnings
}
