package builder

import (
	"context"
	"math"

	"github.com/chazu/boolkit/pkg/geom"
	"github.com/chazu/boolkit/pkg/report"
	"github.com/chazu/boolkit/pkg/topo"
)

// splitFaces splits every input face along the edges lying inside it.
func (b *Builder) splitFaces(ctx context.Context) error {
	d := b.ds
	var faces []int
	for _, f := range d.Indices(topo.Face) {
		if si := d.Info(f); si.Rank >= 0 && !si.Degenerate {
			faces = append(faces, f)
		}
	}
	out := make([][]*topo.TShape, len(faces))
	err := b.parallel(ctx, len(faces), func(i int) error {
		pieces, err := b.splitFace(faces[i])
		if err != nil && b.dropFace(faces[i], err) {
			return nil
		}
		out[i] = pieces
		return err
	})
	if err != nil {
		return err
	}
	for i, f := range faces {
		use := b.faceUse[f]
		ps := make([]*Piece, 0, len(out[i]))
		for _, t := range out[i] {
			ps = append(ps, &Piece{
				Face:    topo.Shape{T: t, Orient: use},
				Source:  f,
				Rank:    d.Rank(f),
				Partner: -1,
			})
		}
		b.mu.Lock()
		b.faces[f] = ps
		b.mu.Unlock()
		if err := b.advance(f, Retrimmed); err != nil {
			return err
		}
	}
	return nil
}

// splitFace returns the pieces of face f. A face with no inside edges and
// an unchanged boundary is returned as is.
func (b *Builder) splitFace(f int) ([]*topo.TShape, error) {
	d := b.ds
	ft := d.Info(f).T

	var bounds [][]topo.Shape
	onBoundary := map[*topo.TShape]bool{}
	changed := false
	for _, w := range ft.Sub {
		var uses []topo.Shape
		for _, e := range w.T.Sub {
			use := e.Orient.Compose(w.Orient)
			ei, _ := d.Index(e.T)
			imgs := b.EdgeImages(ei)
			if len(imgs) != 1 || imgs[0].T != e.T {
				changed = true
			}
			for k := range imgs {
				img := imgs[k]
				if use == topo.Reversed {
					img = imgs[len(imgs)-1-k]
				}
				u := topo.Shape{T: img.T, Orient: img.Orient.Compose(use)}
				uses = append(uses, u)
				onBoundary[img.T] = true
			}
		}
		bounds = append(bounds, uses)
	}

	var inner []topo.Shape
	seen := map[*topo.TShape]bool{}
	for _, pb := range d.InternalBlocks(f) {
		img := b.BlockImage(pb)
		if img.IsNull() || onBoundary[img.T] || seen[img.T] {
			continue
		}
		seen[img.T] = true
		inner = append(inner, topo.Shape{T: img.T})
	}
	inner = pruneDangling(bounds, inner)

	if len(inner) == 0 {
		if !changed {
			return []*topo.TShape{ft}, nil
		}
		wires := make([]topo.Shape, 0, len(bounds))
		for _, uses := range bounds {
			wires = append(wires, topo.NewWire(uses...))
		}
		nf := topo.NewFace(ft.Surface, ft.Tol, wires...).T
		nf.Pole = ft.Pole
		return []*topo.TShape{nf}, nil
	}

	pieces, err := b.trace(f, ft, bounds, inner)
	if err != nil {
		return nil, err
	}
	if _, ok := ft.Surface.(geom.Plane); ok {
		want := topo.Area(topo.Shape{T: ft})
		var got float64
		for _, p := range pieces {
			got += topo.Area(topo.Shape{T: p})
		}
		if math.Abs(got-want) > 1e-6*math.Abs(want)+1e-9 {
			return nil, report.Errorf(report.TopologyBuildFailure, []topo.Shape{{T: ft}},
				"face %d: pieces cover area %g, face has %g", f, got, want)
		}
	}
	return pieces, nil
}

// pruneDangling drops inside edges with an end that no other edge reaches;
// they cannot bound a piece.
func pruneDangling(bounds [][]topo.Shape, inner []topo.Shape) []topo.Shape {
	for {
		deg := map[*topo.TShape]int{}
		for _, uses := range bounds {
			for _, u := range uses {
				deg[u.T.FirstVertex()]++
				deg[u.T.LastVertex()]++
			}
		}
		for _, e := range inner {
			deg[e.T.FirstVertex()]++
			deg[e.T.LastVertex()]++
		}
		kept := inner[:0:0]
		for _, e := range inner {
			if deg[e.T.FirstVertex()] < 2 || deg[e.T.LastVertex()] < 2 {
				continue
			}
			kept = append(kept, e)
		}
		if len(kept) == len(inner) {
			return kept
		}
		inner = kept
	}
}

// halfEdge is one directed use of an edge in the face chart.
type halfEdge struct {
	use      topo.Shape
	from, to *topo.TShape
	pts      []geom.P2
	used     bool
}

func (h *halfEdge) outAngle() float64 {
	return math.Atan2(h.pts[1].Y-h.pts[0].Y, h.pts[1].X-h.pts[0].X)
}

// backAngle is the direction from the end of h back along it.
func (h *halfEdge) backAngle() float64 {
	n := len(h.pts)
	return math.Atan2(h.pts[n-2].Y-h.pts[n-1].Y, h.pts[n-2].X-h.pts[n-1].X)
}

type loop struct {
	edges []int
	poly  []geom.P2
	area  float64
}

// trace splits a face by walking closed loops of half-edges in its chart.
// Boundary edges contribute their wire direction only; inside edges both
// directions. At each vertex the walk takes the outgoing half-edge with the
// smallest clockwise turn from the way it came in, which keeps the piece on
// the left. Counter-clockwise loops bound pieces, clockwise loops are holes.
func (b *Builder) trace(f int, ft *topo.TShape, bounds [][]topo.Shape, inner []topo.Shape) ([]*topo.TShape, error) {
	fail := func(format string, args ...any) error {
		args = append([]any{f}, args...)
		return report.Errorf(report.TopologyBuildFailure, []topo.Shape{{T: ft}}, "face %d: "+format, args...)
	}

	var ch geom.Chart
	var pole *geom.Vec
	sph, isSphere := ft.Surface.(geom.Sphere)
	poleRegion := isSphere && len(ft.Sub) == 0
	if poleRegion {
		p := choosePole(sph, inner)
		pole = &p
		ch = geom.NewStereoChart(sph, p)
	} else {
		c, err := topo.FaceChart(ft)
		if err != nil {
			return nil, fail("chart: %v", err)
		}
		ch, pole = c, ft.Pole
	}

	var hes []*halfEdge
	add := func(u topo.Shape) {
		pts := topo.EdgePoints(u)
		q := make([]geom.P2, len(pts))
		for i, p := range pts {
			q[i] = ch.To(p)
		}
		hes = append(hes, &halfEdge{use: u, from: topo.StartVertex(u), to: topo.EndVertex(u), pts: q})
	}
	for _, uses := range bounds {
		for _, u := range uses {
			add(u)
		}
	}
	for _, e := range inner {
		add(e)
		add(e.Reversed())
	}
	out := map[*topo.TShape][]int{}
	for i, h := range hes {
		out[h.from] = append(out[h.from], i)
	}

	next := func(h *halfEdge) int {
		back := h.backAngle()
		best, bestTurn := -1, math.Inf(1)
		for _, c := range out[h.to] {
			turn := math.Mod(back-hes[c].outAngle(), 2*math.Pi)
			if turn < 0 {
				turn += 2 * math.Pi
			}
			if turn < 1e-9 {
				turn = 2 * math.Pi
			}
			if turn < bestTurn {
				best, bestTurn = c, turn
			}
		}
		return best
	}

	var loops []loop
	for start := range hes {
		if hes[start].used {
			continue
		}
		var l loop
		for h := start; ; {
			he := hes[h]
			if he.used {
				return nil, fail("half-edge %d reached twice", h)
			}
			he.used = true
			l.edges = append(l.edges, h)
			l.poly = append(l.poly, he.pts[:len(he.pts)-1]...)
			n := next(he)
			if n < 0 {
				return nil, fail("open loop at vertex %v", he.to.Point)
			}
			if n == start {
				break
			}
			h = n
		}
		l.area = geom.SignedArea(l.poly)
		loops = append(loops, l)
	}

	wire := func(l loop) topo.Shape {
		uses := make([]topo.Shape, len(l.edges))
		for i, h := range l.edges {
			uses[i] = hes[h].use
		}
		return topo.NewWire(uses...)
	}

	var outers, holes []int
	for i, l := range loops {
		switch {
		case l.area > geom.Eps:
			outers = append(outers, i)
		case l.area < -geom.Eps:
			holes = append(holes, i)
		default:
			b.warn(report.Warnf(report.TopologyBuildFailure, []topo.Shape{{T: ft}}, "face %d: dropped a loop with no area", f))
		}
	}

	owned := map[int][]int{}
	var poleHoles []int
	for _, hi := range holes {
		q := offsetLeft(loops[hi].poly)
		owner, ownerArea := -1, math.Inf(1)
		for _, oi := range outers {
			if geom.Winding(loops[oi].poly, q) != 0 && loops[oi].area < ownerArea {
				owner, ownerArea = oi, loops[oi].area
			}
		}
		switch {
		case owner >= 0:
			owned[owner] = append(owned[owner], hi)
		case poleRegion:
			poleHoles = append(poleHoles, hi)
		default:
			b.warn(report.Warnf(report.TopologyBuildFailure, []topo.Shape{{T: ft}}, "face %d: dropped a hole outside every piece", f))
		}
	}

	var pieces []*topo.TShape
	for _, oi := range outers {
		wires := []topo.Shape{wire(loops[oi])}
		for _, hi := range owned[oi] {
			wires = append(wires, wire(loops[hi]))
		}
		nf := topo.NewFace(ft.Surface, ft.Tol, wires...).T
		nf.Pole = pole
		pieces = append(pieces, nf)
	}
	if len(poleHoles) > 0 {
		wires := make([]topo.Shape, 0, len(poleHoles))
		for _, hi := range poleHoles {
			wires = append(wires, wire(loops[hi]))
		}
		nf := topo.NewFace(ft.Surface, ft.Tol, wires...).T
		var all [][]geom.P2
		for _, l := range loops {
			all = append(all, l.poly)
		}
		p := ch.From(deepPoint(loops[poleHoles[0]].poly, all))
		nf.Pole = &p
		pieces = append(pieces, nf)
	}
	return pieces, nil
}

// offsetLeft returns a point just left of the first usable segment of a
// closed polygon.
func offsetLeft(poly []geom.P2) geom.P2 {
	var size float64
	for i := range poly {
		size = math.Max(size, geom.Dist2(poly[i], poly[(i+1)%len(poly)]))
	}
	for i := range poly {
		a, c := poly[i], poly[(i+1)%len(poly)]
		dx, dy := c.X-a.X, c.Y-a.Y
		n := math.Hypot(dx, dy)
		if n < geom.Eps {
			continue
		}
		delta := math.Min(n, size) * 1e-3
		return geom.P2{X: (a.X+c.X)/2 - dy/n*delta, Y: (a.Y+c.Y)/2 + dx/n*delta}
	}
	return poly[0]
}

// deepGrid is the per-axis sample count used to look for a point far from
// every loop.
const deepGrid = 24

// deepPoint returns a point enclosed by poly (either orientation) that is
// as far as the samples allow from every polygon in all.
func deepPoint(poly []geom.P2, all [][]geom.P2) geom.P2 {
	lo := geom.P2{X: math.Inf(1), Y: math.Inf(1)}
	hi := geom.P2{X: math.Inf(-1), Y: math.Inf(-1)}
	for _, q := range poly {
		lo.X, lo.Y = math.Min(lo.X, q.X), math.Min(lo.Y, q.Y)
		hi.X, hi.Y = math.Max(hi.X, q.X), math.Max(hi.Y, q.Y)
	}
	clearance := func(q geom.P2) float64 {
		d := math.Inf(1)
		for _, l := range all {
			for i := range l {
				d = math.Min(d, geom.SegmentDist2(q, l[i], l[(i+1)%len(l)]))
			}
		}
		return d
	}
	best, bestClear := offsetRight(poly), -1.0
	for i := 0; i < deepGrid; i++ {
		for j := 0; j < deepGrid; j++ {
			q := geom.P2{
				X: lo.X + (hi.X-lo.X)*(float64(i)+0.5)/deepGrid,
				Y: lo.Y + (hi.Y-lo.Y)*(float64(j)+0.5)/deepGrid,
			}
			if geom.Winding(poly, q) == 0 {
				continue
			}
			if c := clearance(q); c > bestClear {
				best, bestClear = q, c
			}
		}
	}
	return best
}

// offsetRight returns a point just right of the first usable segment of a
// closed polygon.
func offsetRight(poly []geom.P2) geom.P2 {
	for i := range poly {
		a, c := poly[i], poly[(i+1)%len(poly)]
		dx, dy := c.X-a.X, c.Y-a.Y
		n := math.Hypot(dx, dy)
		if n < geom.Eps {
			continue
		}
		delta := n * 1e-3
		return geom.P2{X: (a.X+c.X)/2 + dy/n*delta, Y: (a.Y+c.Y)/2 - dx/n*delta}
	}
	return poly[0]
}

// poleCandidates are the directions tried for the chart pole of a closed
// sphere.
var poleCandidates = []geom.Vec{
	{Z: 1}, {Z: -1}, {X: 1}, {X: -1}, {Y: 1}, {Y: -1},
	{X: 1, Y: 1, Z: 1}, {X: -1, Y: 1, Z: 1}, {X: 1, Y: -1, Z: 1}, {X: 1, Y: 1, Z: -1},
	{X: -1, Y: -1, Z: 1}, {X: -1, Y: 1, Z: -1}, {X: 1, Y: -1, Z: -1}, {X: -1, Y: -1, Z: -1},
}

// choosePole picks the candidate point of s farthest from every edge.
func choosePole(s geom.Sphere, edges []topo.Shape) geom.Vec {
	var samples []geom.Vec
	for _, e := range edges {
		samples = append(samples, topo.EdgePoints(e)...)
	}
	best, bestDist := geom.Vec{}, -1.0
	for _, dir := range poleCandidates {
		p := s.Center.Add(dir.Normalize().MulScalar(s.Radius))
		near := math.Inf(1)
		for _, q := range samples {
			near = math.Min(near, geom.Dist(p, q))
		}
		if near > bestDist {
			best, bestDist = p, near
		}
	}
	return best
}
