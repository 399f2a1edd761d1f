package graph

import "fmt"

// ValidationSeverity indicates whether a validation finding blocks evaluation
// or is merely informational.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // blocks evaluation
	SeverityWarning                           // informational
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	NodeID   NodeID             // which node has the problem (zero if graph-level)
	Message  string             // human-readable description
	Severity ValidationSeverity // error or warning
}

func (e ValidationError) Error() string {
	if e.NodeID.IsZero() {
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	}
	return fmt.Sprintf("[%s] node %s: %s", e.Severity, e.NodeID.Short(), e.Message)
}

// ValidationWarning describes a non-blocking advisory finding.
type ValidationWarning struct {
	NodeID  NodeID
	Message string
}

// ValidationResult bundles errors (blocking) and warnings (advisory)
// from all validation tiers.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationWarning
}

// OK reports whether there are no blocking errors.
func (r ValidationResult) OK() bool { return len(r.Errors) == 0 }

// Validate runs all Tier 1 structural validation checks on the design graph
// and returns a slice of validation errors. An empty slice means the graph is
// valid. This function is read-only and never mutates the graph.
func Validate(g *DesignGraph) []ValidationError {
	var errs []ValidationError
	errs = append(errs, validateDAG(g)...)
	errs = append(errs, validateReferences(g)...)
	errs = append(errs, validateNames(g)...)
	errs = append(errs, validateRoots(g)...)
	errs = append(errs, validateArity(g)...)
	return errs
}

// ValidateAll runs the structural and geometric tiers and returns a
// ValidationResult with separated errors and warnings. Geometric checks
// are skipped when the structure is broken.
func ValidateAll(g *DesignGraph) ValidationResult {
	tier1 := Validate(g)

	var result ValidationResult
	for _, e := range tier1 {
		if e.Severity == SeverityWarning {
			result.Warnings = append(result.Warnings, ValidationWarning{
				NodeID:  e.NodeID,
				Message: e.Message,
			})
		} else {
			result.Errors = append(result.Errors, e)
		}
	}
	if len(result.Errors) > 0 {
		return result
	}

	tier2Errs, tier2Warnings := validateGeometry(g)
	result.Errors = append(result.Errors, tier2Errs...)
	result.Warnings = append(result.Warnings, tier2Warnings...)
	return result
}

// validateDAG checks for cycles using DFS with 3-color marking.
// White (0) = unvisited, gray (1) = in current DFS path, black (2) = fully explored.
// If we encounter a gray node during traversal, we have found a cycle.
func validateDAG(g *DesignGraph) []ValidationError {
	const (
		white = iota
		gray
		black
	)

	color := make(map[NodeID]int) // default zero = white
	var errs []ValidationError

	var visit func(id NodeID) bool // returns true if cycle found
	visit = func(id NodeID) bool {
		switch color[id] {
		case black:
			return false
		case gray:
			errs = append(errs, ValidationError{
				NodeID:   id,
				Message:  fmt.Sprintf("cycle detected: node %s is part of a cycle", id.Short()),
				Severity: SeverityError,
			})
			return true
		}

		color[id] = gray

		node, ok := g.Nodes[id]
		if !ok {
			// Dangling reference; handled by validateReferences.
			color[id] = black
			return false
		}

		for _, childID := range node.Children {
			if visit(childID) {
				return true
			}
		}

		color[id] = black
		return false
	}

	// Start DFS from every node to catch disconnected components.
	for id := range g.Nodes {
		if color[id] == white {
			if visit(id) {
				break
			}
		}
	}

	return errs
}

// validateReferences checks that every child ID points to a node that
// exists in g.Nodes.
func validateReferences(g *DesignGraph) []ValidationError {
	var errs []ValidationError

	for _, node := range g.Nodes {
		for _, childID := range node.Children {
			if _, ok := g.Nodes[childID]; !ok {
				errs = append(errs, ValidationError{
					NodeID:   node.ID,
					Message:  fmt.Sprintf("child reference %s does not exist", childID.Short()),
					Severity: SeverityError,
				})
			}
		}
	}

	return errs
}

// validateNames checks that the NameIndex is injective (no two nodes share the
// same name) and that every entry in NameIndex points to an existing node.
func validateNames(g *DesignGraph) []ValidationError {
	var errs []ValidationError

	for name, id := range g.NameIndex {
		if _, ok := g.Nodes[id]; !ok {
			errs = append(errs, ValidationError{
				Message:  fmt.Sprintf("name index entry %q references non-existent node %s", name, id.Short()),
				Severity: SeverityError,
			})
		}
	}

	nameToNodes := make(map[string][]NodeID)
	for id, node := range g.Nodes {
		if node.Name != "" {
			nameToNodes[node.Name] = append(nameToNodes[node.Name], id)
		}
	}
	for name, ids := range nameToNodes {
		if len(ids) > 1 {
			errs = append(errs, ValidationError{
				Message:  fmt.Sprintf("duplicate name %q assigned to %d nodes", name, len(ids)),
				Severity: SeverityError,
			})
		}
	}

	return errs
}

// validateRoots checks that every root ID references an existing node and
// warns about orphan nodes (nodes unreachable from any root).
func validateRoots(g *DesignGraph) []ValidationError {
	var errs []ValidationError

	for _, rid := range g.Roots {
		if _, ok := g.Nodes[rid]; !ok {
			errs = append(errs, ValidationError{
				Message:  fmt.Sprintf("root reference %s does not exist", rid.Short()),
				Severity: SeverityError,
			})
		}
	}

	if len(g.Nodes) == 0 {
		return errs
	}

	// BFS from all roots through Children edges.
	reachable := make(map[NodeID]bool)
	queue := make([]NodeID, 0, len(g.Roots))
	for _, rid := range g.Roots {
		if _, ok := g.Nodes[rid]; ok && !reachable[rid] {
			reachable[rid] = true
			queue = append(queue, rid)
		}
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		node := g.Nodes[current]
		if node == nil {
			continue
		}
		for _, childID := range node.Children {
			if !reachable[childID] {
				reachable[childID] = true
				queue = append(queue, childID)
			}
		}
	}

	for id, node := range g.Nodes {
		if !reachable[id] {
			name := node.Name
			if name == "" {
				name = id.Short()
			}
			errs = append(errs, ValidationError{
				NodeID:   id,
				Message:  fmt.Sprintf("node %q is not reachable from any root (orphan)", name),
				Severity: SeverityWarning,
			})
		}
	}

	return errs
}

// validateArity checks the number of children each kind of node takes:
// none for primitives, one for transforms, at least two for Booleans and
// exactly two for section.
func validateArity(g *DesignGraph) []ValidationError {
	var errs []ValidationError
	bad := func(n *Node, msg string, args ...any) {
		errs = append(errs, ValidationError{
			NodeID:   n.ID,
			Message:  fmt.Sprintf(msg, args...),
			Severity: SeverityError,
		})
	}

	for _, node := range g.Nodes {
		k := len(node.Children)
		switch d := node.Data.(type) {
		case BoxData, SphereData:
			if k != 0 {
				bad(node, "primitive has %d children, want none", k)
			}
		case TransformData:
			if k != 1 {
				bad(node, "transform has %d children, want 1", k)
			}
		case BooleanData:
			switch {
			case d.Op == OpSection && k != 2:
				bad(node, "section has %d operands, want 2", k)
			case k < 2:
				bad(node, "%s has %d operands, want at least 2", d.Op, k)
			}
		case GroupData:
		case nil:
			bad(node, "%s node has no data", node.Kind)
		}
	}

	return errs
}
