package topo

// Explode returns the distinct sub-shapes of kind k reachable from s, in
// depth-first order, with orientations composed along the first path that
// reaches each one. s itself is included when it has kind k.
func Explode(s Shape, k Kind) []Shape {
	var out []Shape
	seen := map[*TShape]bool{}
	var walk func(sh Shape)
	walk = func(sh Shape) {
		if sh.T.Kind == k {
			if !seen[sh.T] {
				seen[sh.T] = true
				out = append(out, sh)
			}
			return
		}
		if sh.T.Kind > k {
			return
		}
		for _, sub := range sh.T.Sub {
			walk(Shape{T: sub.T, Orient: sub.Orient.Compose(sh.Orient)})
		}
	}
	walk(s)
	return out
}

// Count returns the number of distinct sub-shapes of kind k in s.
func Count(s Shape, k Kind) int {
	return len(Explode(s, k))
}

// Walk calls fn for every distinct payload reachable from s, parents before
// children, in depth-first order.
func Walk(s Shape, fn func(Shape)) {
	seen := map[*TShape]bool{}
	var walk func(sh Shape)
	walk = func(sh Shape) {
		if seen[sh.T] {
			return
		}
		seen[sh.T] = true
		fn(sh)
		for _, sub := range sh.T.Sub {
			walk(Shape{T: sub.T, Orient: sub.Orient.Compose(sh.Orient)})
		}
	}
	walk(s)
}

// EdgeFaces maps each edge payload of s to the oriented faces that use it.
func EdgeFaces(s Shape) map[*TShape][]Shape {
	m := map[*TShape][]Shape{}
	for _, f := range Explode(s, Face) {
		for _, e := range Explode(f, Edge) {
			m[e.T] = append(m[e.T], f)
		}
	}
	return m
}

// FaceEdges returns the oriented edge uses of f in wire order, including
// repeated uses of the same edge.
func FaceEdges(f Shape) []Shape {
	var out []Shape
	for _, w := range f.T.Sub {
		wo := w.Orient.Compose(f.Orient)
		for _, e := range w.T.Sub {
			out = append(out, Shape{T: e.T, Orient: e.Orient.Compose(wo)})
		}
	}
	return out
}
