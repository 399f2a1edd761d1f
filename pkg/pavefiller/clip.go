package pavefiller

import (
	"errors"
	"math"
	"sort"

	"github.com/chazu/boolkit/pkg/geom"
	"github.com/chazu/boolkit/pkg/report"
	"github.com/chazu/boolkit/pkg/topo"
)

// crossings returns the parameters of c within r where it meets or leaves
// a boundary edge of any of the given faces.
func (f *Filler) crossings(c geom.Curve, r geom.Range, faces []int, tol float64) ([]float64, error) {
	var params []float64
	for _, fi := range faces {
		for _, e := range f.faceEdges[fi] {
			et := f.ds.Info(e).T
			if f.ds.Info(e).Degenerate {
				continue
			}
			cs, err := f.adapter.FindIntersections(c, et.Curve, r, et.Range, tol+f.ds.Tol(e))
			if errors.Is(err, geom.ErrDegenerate) {
				continue
			}
			if err != nil {
				return nil, report.Errorf(report.IntersectionFailure, []topo.Shape{f.ds.Info(e).Shape()}, "clip against edge %d: %w", e, err)
			}
			for _, cd := range cs {
				switch cd.Kind {
				case geom.CandPoint:
					params = append(params, cd.TA)
				case geom.CandOverlap:
					params = append(params, cd.RangeA.First, cd.RangeA.Last)
				}
			}
		}
	}
	return params, nil
}

// intervals cuts r at params. A full period of a periodic curve is cut
// cyclically, so the last interval wraps past 2*pi.
func intervals(c geom.Curve, r geom.Range, params []float64, res float64) []geom.Range {
	full := c.Periodic() && r.Len() >= 2*math.Pi-res
	var ts []float64
	for _, t := range params {
		t = geom.Adjust(c, r, t, res)
		if !r.Contains(t, res) {
			continue
		}
		t = math.Max(r.First, math.Min(r.Last, t))
		if !full && (t-r.First <= res || r.Last-t <= res) {
			continue
		}
		ts = append(ts, t)
	}
	sort.Float64s(ts)
	uniq := ts[:0]
	for _, t := range ts {
		if len(uniq) > 0 && t-uniq[len(uniq)-1] <= res {
			continue
		}
		uniq = append(uniq, t)
	}
	ts = uniq

	if full {
		if len(ts) > 1 && ts[0]+2*math.Pi-ts[len(ts)-1] <= res {
			ts = ts[:len(ts)-1]
		}
		if len(ts) == 0 {
			return []geom.Range{r}
		}
		out := make([]geom.Range, 0, len(ts))
		for i := 0; i+1 < len(ts); i++ {
			out = append(out, geom.Range{First: ts[i], Last: ts[i+1]})
		}
		return append(out, geom.Range{First: ts[len(ts)-1], Last: ts[0] + 2*math.Pi})
	}

	cuts := append(append([]float64{r.First}, ts...), r.Last)
	out := make([]geom.Range, 0, len(cuts)-1)
	for i := 0; i+1 < len(cuts); i++ {
		out = append(out, geom.Range{First: cuts[i], Last: cuts[i+1]})
	}
	return out
}

// faceState classifies p, lying on the carrier of face fi, against its
// boundary.
func (f *Filler) faceState(fi int, p geom.Vec, tol float64) topo.State {
	return topo.PointInFace(f.ds.Info(fi).T, p, tol)
}
