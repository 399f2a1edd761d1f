package builder

import (
	"context"
	"sync"

	"github.com/chazu/boolkit/pkg/geom"
	"github.com/chazu/boolkit/pkg/report"
	"github.com/chazu/boolkit/pkg/topo"
)

// classifyPieces decides for every piece whether it lies inside, outside or
// on the boundary of the operands of other ranks. A piece inside any one of
// them is In.
func (b *Builder) classifyPieces(ctx context.Context) error {
	d := b.ds
	operands := make([]topo.Shape, d.NumRanks())
	for r, ops := range d.Operands() {
		operands[r] = topo.NewCompound(ops...)
	}
	others := make([][]topo.Shape, d.NumRanks())
	for r := range others {
		for o, op := range operands {
			if o != r {
				others[r] = append(others[r], op)
			}
		}
	}
	pieces := b.Pieces()
	var fmu sync.Mutex
	failed := map[int]bool{}
	err := b.parallel(ctx, len(pieces), func(i int) error {
		p := pieces[i]
		err := b.classify(p, others[p.Rank])
		if err != nil && b.dropFace(p.Source, err) {
			fmu.Lock()
			failed[p.Source] = true
			fmu.Unlock()
			return nil
		}
		return err
	})
	if err != nil {
		return err
	}
	b.mu.Lock()
	for f := range failed {
		delete(b.faces, f)
	}
	b.mu.Unlock()
	for _, f := range d.Indices(topo.Face) {
		if len(b.FacePieces(f)) == 0 {
			continue
		}
		if err := b.advance(f, Classified); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) classify(p *Piece, others []topo.Shape) error {
	d := b.ds
	pt, err := topo.InteriorPoint(p.Face.T)
	if err != nil {
		return report.Errorf(report.TopologyBuildFailure, []topo.Shape{p.Face}, "face %d piece: %w", p.Source, err)
	}
	tol := d.Tol(p.Source) + d.Fuzzy

	for _, g := range d.FaceInfo(p.Source).Coincident {
		gt := d.Info(g).T
		gtol := tol + d.Tol(g)
		if geom.SurfaceDistance(gt.Surface, pt) > gtol || topo.PointInFace(gt, pt, gtol) != topo.In {
			continue
		}
		own := topo.FaceNormal(p.Face, pt)
		other := topo.FaceNormal(topo.Shape{T: gt, Orient: b.faceUse[g]}, pt)
		p.Partner = g
		if own.Dot(other) > 0 {
			p.State = OnSame
		} else {
			p.State = OnOpposite
		}
		return nil
	}

	st := topo.Out
	for _, o := range others {
		switch topo.ClassifyPoint(o, pt, tol) {
		case topo.In:
			st = topo.In
		case topo.On:
			if st == topo.Out {
				st = topo.On
			}
		}
		if st == topo.In {
			break
		}
	}
	switch st {
	case topo.In:
		p.State = In
	case topo.Out:
		p.State = Out
	default:
		b.warn(report.Warnf(report.TopologyBuildFailure, []topo.Shape{p.Face},
			"face %d piece touches another operand away from any coincident face; treated as outside", p.Source))
		p.State = Out
	}
	return nil
}
