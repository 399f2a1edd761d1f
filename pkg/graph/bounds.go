package graph

import "math"

// Box is an axis-aligned bounding box.
type Box struct {
	Min, Max Vec3
}

// Overlaps reports whether b and o share at least one point, allowing a gap
// of tol.
func (b Box) Overlaps(o Box, tol float64) bool {
	return b.Min.X <= o.Max.X+tol && o.Min.X <= b.Max.X+tol &&
		b.Min.Y <= o.Max.Y+tol && o.Min.Y <= b.Max.Y+tol &&
		b.Min.Z <= o.Max.Z+tol && o.Min.Z <= b.Max.Z+tol
}

func (b Box) union(o Box) Box {
	return Box{
		Min: Vec3{math.Min(b.Min.X, o.Min.X), math.Min(b.Min.Y, o.Min.Y), math.Min(b.Min.Z, o.Min.Z)},
		Max: Vec3{math.Max(b.Max.X, o.Max.X), math.Max(b.Max.Y, o.Max.Y), math.Max(b.Max.Z, o.Max.Z)},
	}
}

func (b Box) corners() []Vec3 {
	out := make([]Vec3, 0, 8)
	for i := 0; i < 8; i++ {
		c := b.Min
		if i&1 != 0 {
			c.X = b.Max.X
		}
		if i&2 != 0 {
			c.Y = b.Max.Y
		}
		if i&4 != 0 {
			c.Z = b.Max.Z
		}
		out = append(out, c)
	}
	return out
}

// RotatePoint rotates p about the X, then Y, then Z axis by the Euler
// angles r, given in degrees.
func RotatePoint(p, r Vec3) Vec3 {
	rad := math.Pi / 180
	sx, cx := math.Sincos(r.X * rad)
	sy, cy := math.Sincos(r.Y * rad)
	sz, cz := math.Sincos(r.Z * rad)
	p = Vec3{p.X, cx*p.Y - sx*p.Z, sx*p.Y + cx*p.Z}
	p = Vec3{cy*p.X + sy*p.Z, p.Y, -sy*p.X + cy*p.Z}
	return Vec3{cz*p.X - sz*p.Y, sz*p.X + cz*p.Y, p.Z}
}

// Bounds returns a box containing the shape of node id. The box is exact
// for unrotated primitives and conservative otherwise. It reports false
// when the node or one of its descendants is missing, and for empty
// Booleans.
func (g *DesignGraph) Bounds(id NodeID) (Box, bool) {
	return g.bounds(id, map[NodeID]bool{})
}

func (g *DesignGraph) bounds(id NodeID, onPath map[NodeID]bool) (Box, bool) {
	n := g.Nodes[id]
	if n == nil || onPath[id] {
		return Box{}, false
	}
	onPath[id] = true
	defer delete(onPath, id)

	switch d := n.Data.(type) {
	case BoxData:
		return Box{Max: d.Size}, true
	case SphereData:
		r := d.Radius
		return Box{Min: Vec3{-r, -r, -r}, Max: Vec3{r, r, r}}, true
	case TransformData:
		if len(n.Children) != 1 {
			return Box{}, false
		}
		b, ok := g.bounds(n.Children[0], onPath)
		if !ok {
			return Box{}, false
		}
		if d.Rotation != nil {
			cs := b.corners()
			p := RotatePoint(cs[0], *d.Rotation)
			b = Box{Min: p, Max: p}
			for _, c := range cs[1:] {
				p := RotatePoint(c, *d.Rotation)
				b = b.union(Box{Min: p, Max: p})
			}
		}
		if t := d.Translation; t != nil {
			b.Min = Vec3{b.Min.X + t.X, b.Min.Y + t.Y, b.Min.Z + t.Z}
			b.Max = Vec3{b.Max.X + t.X, b.Max.Y + t.Y, b.Max.Z + t.Z}
		}
		return b, true
	case BooleanData:
		if len(n.Children) == 0 {
			return Box{}, false
		}
		if d.Op == OpCut {
			// The result lies within the object.
			return g.bounds(n.Children[0], onPath)
		}
		return g.childBounds(n, onPath)
	case GroupData:
		return g.childBounds(n, onPath)
	}
	return Box{}, false
}

func (g *DesignGraph) childBounds(n *Node, onPath map[NodeID]bool) (Box, bool) {
	var acc Box
	found := false
	for _, c := range n.Children {
		b, ok := g.bounds(c, onPath)
		if !ok {
			return Box{}, false
		}
		if !found {
			acc, found = b, true
			continue
		}
		acc = acc.union(b)
	}
	return acc, found
}
