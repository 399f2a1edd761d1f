package engine

import (
	"fmt"

	"github.com/chazu/boolkit/pkg/graph"
	zygo "github.com/glycerine/zygomys/zygo"
)

// sceneBuilder accumulates the nodes created by one evaluation.
type sceneBuilder struct {
	g     *graph.DesignGraph
	order []graph.NodeID // creation order, for deterministic roots
}

func newSceneBuilder() *sceneBuilder {
	return &sceneBuilder{g: graph.New()}
}

// add inserts an anonymous node. Structurally equal nodes are shared.
func (s *sceneBuilder) add(kind graph.NodeKind, data graph.NodeData, children []graph.NodeID) *sexpNodeRef {
	id := graph.ContentID(kind, data, children)
	if n := s.g.Get(id); n != nil {
		return &sexpNodeRef{id: id, name: n.Name}
	}
	s.g.AddNode(&graph.Node{ID: id, Kind: kind, Children: children, Data: data})
	s.order = append(s.order, id)
	return &sexpNodeRef{id: id}
}

func (s *sceneBuilder) referenced(id graph.NodeID) bool {
	for _, n := range s.g.Nodes {
		for _, c := range n.Children {
			if c == id {
				return true
			}
		}
	}
	for _, r := range s.g.Roots {
		if r == id {
			return true
		}
	}
	return false
}

// dropIfUnused removes an anonymous node nothing points at.
func (s *sceneBuilder) dropIfUnused(id graph.NodeID) {
	n := s.g.Get(id)
	if n == nil || n.Name != "" || s.referenced(id) {
		return
	}
	delete(s.g.Nodes, id)
	for i, o := range s.order {
		if o == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// name gives the shape behind ref a name, as a node of its own.
func (s *sceneBuilder) name(name string, ref graph.NodeID) (*sexpNodeRef, error) {
	if s.g.Lookup(name) != nil {
		return nil, fmt.Errorf("%q is already defined", name)
	}
	src := s.g.Get(ref)
	if src == nil {
		return nil, fmt.Errorf("unknown shape %s", ref.Short())
	}
	id := graph.NewNodeID("defshape/" + name)
	s.g.AddNode(&graph.Node{
		ID:       id,
		Kind:     src.Kind,
		Name:     name,
		Children: src.Children,
		Data:     src.Data,
	})
	s.order = append(s.order, id)
	s.dropIfUnused(ref)
	return &sexpNodeRef{id: id, name: name}, nil
}

// finish registers roots when the source declared no scene: every shape
// no other node uses becomes one, in creation order.
func (s *sceneBuilder) finish() *graph.DesignGraph {
	if len(s.g.Roots) > 0 {
		return s.g
	}
	used := make(map[graph.NodeID]bool)
	for _, n := range s.g.Nodes {
		for _, c := range n.Children {
			used[c] = true
		}
	}
	for _, id := range s.order {
		if !used[id] {
			s.g.AddRoot(id)
		}
	}
	return s.g
}

// vecArg reads the vector operand of translate and rotate: a :by keyword,
// a vec3 after the shape, or three numbers after the shape.
func vecArg(pa kwArgs) (graph.Vec3, error) {
	if v, ok := pa.kw["by"]; ok {
		return toVec3(v)
	}
	rest := pa.positional[1:]
	switch len(rest) {
	case 1:
		return toVec3(rest[0])
	case 3:
		var c [3]float64
		for i, a := range rest {
			f, err := toFloat64(a)
			if err != nil {
				return graph.Vec3{}, err
			}
			c[i] = f
		}
		return graph.Vec3{X: c[0], Y: c[1], Z: c[2]}, nil
	}
	return graph.Vec3{}, fmt.Errorf("expected a vec3 or three numbers, got %d arguments", len(rest))
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs the scene DSL builtins into a zygomys environment.
// The builtins populate the scene builder during evaluation.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, s *sceneBuilder) {

	// -----------------------------------------------------------------------
	// (vec3 1 2 3)
	// -----------------------------------------------------------------------
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
		}

		x, err := toFloat64(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec3: x: %w", err)
		}
		y, err := toFloat64(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec3: y: %w", err)
		}
		z, err := toFloat64(args[2])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec3: z: %w", err)
		}

		return &sexpVec3{vec: graph.Vec3{X: x, Y: y, Z: z}}, nil
	})

	// -----------------------------------------------------------------------
	// (box 10 20 5) or (box :size (vec3 10 20 5))
	// -----------------------------------------------------------------------
	env.AddFunction("box", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		var bd graph.BoxData

		switch {
		case pa.kw["size"] != nil:
			v, err := toVec3(pa.kw["size"])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("box: size: %w", err)
			}
			bd.Size = v
		case len(pa.positional) == 1:
			v, err := toVec3(pa.positional[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("box: size: %w", err)
			}
			bd.Size = v
		case len(pa.positional) == 3:
			dims := [3]*float64{&bd.Size.X, &bd.Size.Y, &bd.Size.Z}
			for i, a := range pa.positional {
				f, err := toFloat64(a)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("box: %s: %w", "xyz"[i:i+1], err)
				}
				*dims[i] = f
			}
		default:
			return zygo.SexpNull, fmt.Errorf("box requires a size: (box x y z) or (box :size (vec3 x y z))")
		}

		return s.add(graph.NodePrimitive, bd, nil), nil
	})

	// -----------------------------------------------------------------------
	// (sphere 5) or (sphere :radius 5)
	// -----------------------------------------------------------------------
	env.AddFunction("sphere", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		v, ok := pa.kw["radius"]
		if !ok {
			if len(pa.positional) != 1 {
				return zygo.SexpNull, fmt.Errorf("sphere requires a radius")
			}
			v = pa.positional[0]
		}
		r, err := toFloat64(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("sphere: radius: %w", err)
		}

		return s.add(graph.NodePrimitive, graph.SphereData{Radius: r}, nil), nil
	})

	// -----------------------------------------------------------------------
	// (translate shape (vec3 1 0 0)), (translate shape 1 0 0),
	// (translate shape :by (vec3 1 0 0))
	// -----------------------------------------------------------------------
	env.AddFunction("translate", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) < 1 {
			return zygo.SexpNull, fmt.Errorf("translate requires a shape as first argument")
		}
		child, err := toNodeRef(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("translate: shape: %w", err)
		}
		v, err := vecArg(pa)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("translate: by: %w", err)
		}

		return s.add(graph.NodeTransform, graph.TransformData{Translation: &v}, []graph.NodeID{child}), nil
	})

	// -----------------------------------------------------------------------
	// (rotate shape (vec3 0 0 90)); angles in degrees about X, then Y, then Z
	// -----------------------------------------------------------------------
	env.AddFunction("rotate", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) < 1 {
			return zygo.SexpNull, fmt.Errorf("rotate requires a shape as first argument")
		}
		child, err := toNodeRef(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("rotate: shape: %w", err)
		}
		v, err := vecArg(pa)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("rotate: by: %w", err)
		}

		return s.add(graph.NodeTransform, graph.TransformData{Rotation: &v}, []graph.NodeID{child}), nil
	})

	// -----------------------------------------------------------------------
	// (union a b ...), (common a b ...), (cut object tool ...), (section a b)
	// -----------------------------------------------------------------------
	for _, op := range []graph.BoolOp{graph.OpUnion, graph.OpCommon, graph.OpCut, graph.OpSection} {
		op := op
		env.AddFunction(op.String(), func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			ids, err := flattenShapes(args)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", op, err)
			}
			switch {
			case op == graph.OpSection && len(ids) != 2:
				return zygo.SexpNull, fmt.Errorf("section requires exactly 2 shapes, got %d", len(ids))
			case len(ids) < 2:
				return zygo.SexpNull, fmt.Errorf("%s requires at least 2 shapes, got %d", op, len(ids))
			}

			return s.add(graph.NodeBoolean, graph.BooleanData{Op: op}, ids), nil
		})
	}

	// -----------------------------------------------------------------------
	// (defshape "bracket" (cut ...))
	// -----------------------------------------------------------------------
	env.AddFunction("defshape", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("defshape requires a name and a shape expression")
		}
		shapeName, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("defshape: name: %w", err)
		}
		ref, err := toNodeRef(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("defshape: %w", err)
		}
		named, err := s.name(shapeName, ref)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("defshape: %w", err)
		}
		return named, nil
	})

	// -----------------------------------------------------------------------
	// (shape "bracket")
	// -----------------------------------------------------------------------
	env.AddFunction("shape", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("shape requires a name argument")
		}
		shapeName, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("shape: name: %w", err)
		}
		n := s.g.Lookup(shapeName)
		if n == nil {
			return zygo.SexpNull, fmt.Errorf("shape: no shape named %q", shapeName)
		}
		return &sexpNodeRef{id: n.ID, name: shapeName}, nil
	})

	// -----------------------------------------------------------------------
	// (scene "name" shape ...): a root whose shapes are evaluated as
	// separate parts
	// -----------------------------------------------------------------------
	env.AddFunction("scene", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 1 {
			return zygo.SexpNull, fmt.Errorf("scene requires a name argument")
		}
		sceneName, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("scene: name: %w", err)
		}
		if s.g.Lookup(sceneName) != nil {
			return zygo.SexpNull, fmt.Errorf("scene: %q is already defined", sceneName)
		}
		children, err := flattenShapes(args[1:])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("scene: %w", err)
		}

		id := graph.NewNodeID("scene/" + sceneName)
		s.g.AddNode(&graph.Node{
			ID:       id,
			Kind:     graph.NodeGroup,
			Name:     sceneName,
			Children: children,
			Data:     graph.GroupData{},
		})
		s.order = append(s.order, id)
		s.g.AddRoot(id)

		return &sexpNodeRef{id: id, name: sceneName}, nil
	})

	// -----------------------------------------------------------------------
	// (fuzzy 0.001): extra tolerance for Boolean evaluation
	// -----------------------------------------------------------------------
	env.AddFunction("fuzzy", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("fuzzy requires one value")
		}
		f, err := toFloat64(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("fuzzy: %w", err)
		}
		if f < 0 {
			return zygo.SexpNull, fmt.Errorf("fuzzy: value %g is negative", f)
		}
		s.g.Defaults.Fuzzy = f
		return args[0], nil
	})
}
