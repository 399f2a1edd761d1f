package builder

import (
	"math"

	"github.com/chazu/boolkit/pkg/report"
	"github.com/chazu/boolkit/pkg/topo"
)

// Choice is a piece taken into the result, possibly reversed.
type Choice struct {
	Piece   *Piece
	Reverse bool
}

// volumeEps is the enclosed volume below which a closed shell is treated
// as flat.
const volumeEps = 1e-12

// Assemble builds the result from the chosen pieces. Pieces joined through
// shared edges form shells; closed shells enclosing positive volume become
// solids, closed shells enclosing negative volume become voids of the
// solid around them, and open shells are kept as they are. Extra shapes
// (section edges and vertices) are added to the result compound.
func (b *Builder) Assemble(choices []Choice, extra ...topo.Shape) (topo.Shape, error) {
	faces, err := b.Emit(choices)
	if err != nil {
		return topo.Shape{}, err
	}

	var outers, voids, open []topo.Shape
	for _, shell := range connectShells(faces) {
		if len(topo.FreeEdges(shell)) > 0 {
			b.warn(report.Warnf(report.TopologyBuildFailure, []topo.Shape{shell}, "open shell of %d faces", len(shell.T.Sub)))
			open = append(open, shell)
			continue
		}
		switch v := topo.ShellFlux(shell); {
		case v > volumeEps:
			outers = append(outers, shell)
		case v < -volumeEps:
			voids = append(voids, shell)
		default:
			b.warn(report.Warnf(report.TopologyBuildFailure, []topo.Shape{shell}, "closed shell encloses no volume"))
			open = append(open, shell)
		}
	}

	holes := make([][]topo.Shape, len(outers))
	for _, v := range voids {
		owner := b.voidOwner(v, outers)
		if owner < 0 {
			b.warn(report.Warnf(report.TopologyBuildFailure, []topo.Shape{v}, "void outside every solid"))
			open = append(open, v)
			continue
		}
		holes[owner] = append(holes[owner], v)
	}

	var parts []topo.Shape
	for i, o := range outers {
		parts = append(parts, topo.NewSolid(append([]topo.Shape{o}, holes[i]...)...))
	}
	parts = append(parts, open...)
	parts = append(parts, extra...)
	return topo.NewCompound(parts...), nil
}

// Emit marks the source faces of the chosen pieces as emitted and returns
// the pieces with their final orientation.
func (b *Builder) Emit(choices []Choice) ([]topo.Shape, error) {
	faces := make([]topo.Shape, 0, len(choices))
	for _, c := range choices {
		f := c.Piece.Face
		if c.Reverse {
			f = f.Reversed()
		}
		faces = append(faces, f)
		if b.Stage(c.Piece.Source) == Emitted {
			continue
		}
		if err := b.advance(c.Piece.Source, Emitted); err != nil {
			return nil, err
		}
	}
	return faces, nil
}

// voidOwner returns the index of the smallest outer shell containing the
// void, or -1.
func (b *Builder) voidOwner(void topo.Shape, outers []topo.Shape) int {
	faces := topo.Explode(void, topo.Face)
	if len(faces) == 0 {
		return -1
	}
	p, err := topo.InteriorPoint(faces[0].T)
	if err != nil {
		return -1
	}
	owner, best := -1, math.Inf(1)
	for i, o := range outers {
		solid := topo.NewSolid(o)
		if topo.ClassifyPoint(solid, p, b.ds.Fuzzy+faces[0].T.Tol) != topo.In {
			continue
		}
		if v := topo.ShellFlux(o); v < best {
			owner, best = i, v
		}
	}
	return owner
}

// connectShells groups faces that share edges into shells, in order of
// their first face.
func connectShells(faces []topo.Shape) []topo.Shape {
	parent := make([]int, len(faces))
	for i := range parent {
		parent[i] = i
	}
	var find func(i int) int
	find = func(i int) int {
		if parent[i] != i {
			parent[i] = find(parent[i])
		}
		return parent[i]
	}
	byEdge := map[*topo.TShape]int{}
	for i, f := range faces {
		for _, e := range topo.FaceEdges(f) {
			j, ok := byEdge[e.T]
			if !ok {
				byEdge[e.T] = i
				continue
			}
			ri, rj := find(i), find(j)
			if ri < rj {
				parent[rj] = ri
			} else if rj < ri {
				parent[ri] = rj
			}
		}
	}
	groups := map[int][]topo.Shape{}
	var roots []int
	for i, f := range faces {
		r := find(i)
		if _, ok := groups[r]; !ok {
			roots = append(roots, r)
		}
		groups[r] = append(groups[r], f)
	}
	shells := make([]topo.Shape, 0, len(roots))
	for _, r := range roots {
		shells = append(shells, topo.NewShell(groups[r]...))
	}
	return shells
}
