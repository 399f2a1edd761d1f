// Package csg evaluates a design graph into kernel solids. Every root of
// the graph yields parts: a group root yields one part per leaf of its
// nested groups, any other root is a part of its own.
package csg

import (
	"errors"
	"fmt"

	"github.com/chazu/boolkit/pkg/graph"
	"github.com/chazu/boolkit/pkg/kernel"
	"github.com/samber/lo"
)

// Part is the evaluated solid of one scene part.
type Part struct {
	Name  string
	Node  graph.NodeID
	Solid kernel.Solid
}

// evaluator memoizes solids per node so that shared subgraphs are built
// once.
type evaluator struct {
	g      *graph.DesignGraph
	k      kernel.Kernel
	solids map[graph.NodeID]kernel.Solid
	onPath map[graph.NodeID]bool
}

// Evaluate walks the design graph and builds the solid of every part with
// the provided kernel. The evaluator is read-only and never mutates the
// graph.
func Evaluate(g *graph.DesignGraph, k kernel.Kernel) ([]Part, error) {
	if g == nil {
		return nil, nil
	}
	ev := &evaluator{
		g:      g,
		k:      k,
		solids: make(map[graph.NodeID]kernel.Solid),
		onPath: make(map[graph.NodeID]bool),
	}

	var parts []Part
	for _, rootID := range g.Roots {
		root := g.Get(rootID)
		if root == nil {
			return nil, fmt.Errorf("csg: root %s does not exist", rootID.Short())
		}
		for _, n := range partNodes(g, root) {
			s, err := ev.solid(n)
			if err != nil {
				return nil, fmt.Errorf("csg: part %s: %w", label(n), err)
			}
			parts = append(parts, Part{Name: label(n), Node: n.ID, Solid: s})
		}
	}
	return parts, nil
}

// partNodes returns the nodes that are parts under root: the leaves of
// nested groups, or root itself.
func partNodes(g *graph.DesignGraph, root *graph.Node) []*graph.Node {
	if root.Kind != graph.NodeGroup {
		return []*graph.Node{root}
	}
	return lo.FlatMap(g.Children(root), func(c *graph.Node, _ int) []*graph.Node {
		return partNodes(g, c)
	})
}

// Names returns the names of parts, in order.
func Names(parts []Part) []string {
	return lo.Map(parts, func(p Part, _ int) string { return p.Name })
}

func label(n *graph.Node) string {
	if n.Name != "" {
		return n.Name
	}
	return n.ID.Short()
}

func (ev *evaluator) solid(n *graph.Node) (kernel.Solid, error) {
	if s, ok := ev.solids[n.ID]; ok {
		return s, nil
	}
	if ev.onPath[n.ID] {
		return nil, fmt.Errorf("cycle at node %s", label(n))
	}
	ev.onPath[n.ID] = true
	defer delete(ev.onPath, n.ID)

	var (
		s   kernel.Solid
		err error
	)
	switch d := n.Data.(type) {
	case graph.BoxData:
		s, err = ev.k.Box(d.Size.X, d.Size.Y, d.Size.Z)
	case graph.SphereData:
		s, err = ev.k.Sphere(d.Radius)
	case graph.TransformData:
		s, err = ev.transform(n, d)
	case graph.BooleanData:
		s, err = ev.boolean(n, d.Op)
	case graph.GroupData:
		// A group used as an operand stands for the union of its children.
		s, err = ev.boolean(n, graph.OpUnion)
	default:
		return nil, fmt.Errorf("node %s has unsupported data type %T", label(n), n.Data)
	}
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", n.Kind, label(n), err)
	}
	ev.solids[n.ID] = s
	return s, nil
}

func (ev *evaluator) child(id graph.NodeID) (kernel.Solid, error) {
	c := ev.g.Get(id)
	if c == nil {
		return nil, fmt.Errorf("child %s does not exist", id.Short())
	}
	return ev.solid(c)
}

// transform applies rotation first, about the origin, then translation.
func (ev *evaluator) transform(n *graph.Node, d graph.TransformData) (kernel.Solid, error) {
	if len(n.Children) != 1 {
		return nil, fmt.Errorf("transform has %d children, want 1", len(n.Children))
	}
	s, err := ev.child(n.Children[0])
	if err != nil {
		return nil, err
	}
	if r := d.Rotation; r != nil && (r.X != 0 || r.Y != 0 || r.Z != 0) {
		s = ev.k.Rotate(s, r.X, r.Y, r.Z)
	}
	if t := d.Translation; t != nil && (t.X != 0 || t.Y != 0 || t.Z != 0) {
		s = ev.k.Translate(s, t.X, t.Y, t.Z)
	}
	return s, nil
}

var errSelfOperand = errors.New("shape is combined with itself")

// boolean folds the operands left to right. Repeated operands are
// dropped; union and common are idempotent and cutting a tool twice
// changes nothing.
func (ev *evaluator) boolean(n *graph.Node, op graph.BoolOp) (kernel.Solid, error) {
	ids := n.Children
	switch {
	case len(ids) == 0:
		return nil, errors.New("no operands")
	case op == graph.OpSection && len(ids) != 2:
		return nil, fmt.Errorf("section needs 2 operands, got %d", len(ids))
	case op == graph.OpSection && ids[0] == ids[1]:
		return nil, errSelfOperand
	case op == graph.OpCut && lo.Contains(ids[1:], ids[0]):
		return nil, errSelfOperand
	}
	if op != graph.OpSection {
		ids = append([]graph.NodeID{ids[0]}, lo.Without(lo.Uniq(ids[1:]), ids[0])...)
	}

	acc, err := ev.child(ids[0])
	if err != nil {
		return nil, err
	}
	for _, id := range ids[1:] {
		next, err := ev.child(id)
		if err != nil {
			return nil, err
		}
		switch op {
		case graph.OpUnion:
			acc, err = ev.k.Union(acc, next)
		case graph.OpCommon:
			acc, err = ev.k.Intersection(acc, next)
		case graph.OpCut:
			acc, err = ev.k.Difference(acc, next)
		case graph.OpSection:
			acc, err = ev.k.Section(acc, next)
		default:
			return nil, fmt.Errorf("unknown operation %s", op)
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}
	return acc, nil
}
