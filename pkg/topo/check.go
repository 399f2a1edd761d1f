package topo

import "fmt"

// Problem is one defect found by Check.
type Problem struct {
	Shape   Shape
	Message string
}

func (p Problem) String() string {
	return fmt.Sprintf("%s: %s", p.Shape, p.Message)
}

// Check validates the structure of s: edges of every shell of a solid are
// used by exactly two faces, edges join their vertices, and solids enclose
// a positive volume.
func Check(s Shape) []Problem {
	var out []Problem
	for _, e := range Explode(s, Edge) {
		if len(e.T.Sub) != 2 {
			out = append(out, Problem{e, "edge without two vertices"})
			continue
		}
		for i, v := range e.T.Sub {
			tr := e.T.Range.First
			if i == 1 {
				tr = e.T.Range.Last
			}
			d := e.T.Curve.Value(tr).Sub(v.T.Point).Length()
			if d > e.T.Tol+v.T.Tol {
				out = append(out, Problem{e, fmt.Sprintf("vertex %d is %g away from the curve end", i, d)})
			}
		}
	}
	for _, so := range Explode(s, Solid) {
		for _, sh := range so.T.Sub {
			for _, e := range FreeEdges(sh) {
				out = append(out, Problem{e, "free edge in closed shell"})
			}
		}
		if v := Volume(so); v <= 0 {
			out = append(out, Problem{so, fmt.Sprintf("non-positive volume %g", v)})
		}
	}
	return out
}

// FreeEdges returns the edges of a shell that are not used exactly twice
// by its faces (seam edges used twice by one face count as two uses).
func FreeEdges(shell Shape) []Shape {
	uses := map[*TShape]int{}
	var order []Shape
	for _, f := range Explode(shell, Face) {
		for _, e := range FaceEdges(f) {
			if uses[e.T] == 0 {
				order = append(order, e)
			}
			uses[e.T]++
		}
	}
	var out []Shape
	for _, e := range order {
		if uses[e.T] != 2 {
			out = append(out, e)
		}
	}
	return out
}
