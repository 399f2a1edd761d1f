package geom

import (
	"math"
	"sort"
)

// parallelSin is the sine of the angle below which two directions are
// treated as parallel.
const parallelSin = 1e-10

// ----------------------------------------------------------------------------
// Point vs anything
// ----------------------------------------------------------------------------

func pointWith(p Point, b Geometry, db Range, tol float64) []Candidate {
	switch gb := b.(type) {
	case Point:
		if Dist(p.P, gb.P) <= tol {
			return []Candidate{{Kind: CandPoint, Point: p.P}}
		}
	case Curve:
		if t, ok := paramOn(gb, db, p.P, tol); ok {
			return []Candidate{{Kind: CandPoint, Point: p.P, TB: t}}
		}
	case Surface:
		if SurfaceDistance(gb, p.P) <= tol {
			return []Candidate{{Kind: CandPoint, Point: p.P}}
		}
	}
	return nil
}

// paramOn returns the parameter of p on c within r when p is within tol of
// the bounded curve.
func paramOn(c Curve, r Range, p Vec, tol float64) (float64, bool) {
	res := c.Resolution(tol)
	t := Adjust(c, r, c.Project(p), res)
	if !r.Contains(t, res) {
		return 0, false
	}
	t = clamp(t, r)
	if Dist(c.Value(t), p) > tol {
		return 0, false
	}
	return t, true
}

func clamp(t float64, r Range) float64 {
	return math.Max(r.First, math.Min(r.Last, t))
}

// ----------------------------------------------------------------------------
// Curve vs curve
// ----------------------------------------------------------------------------

func curveCurve(a, b Curve, da, db Range, tol float64) []Candidate {
	switch ca := a.(type) {
	case Line:
		switch cb := b.(type) {
		case Line:
			return lineLine(ca, cb, da, db, tol)
		case Circle:
			return pointsOnBoth(a, b, da, db, lineCirclePoints(ca, cb, tol), tol)
		}
	case Circle:
		switch cb := b.(type) {
		case Line:
			return pointsOnBoth(a, b, da, db, lineCirclePoints(cb, ca, tol), tol)
		case Circle:
			return circleCircle(ca, cb, da, db, tol)
		}
	}
	return nil
}

// pointsOnBoth keeps the raw points that lie on both bounded curves.
func pointsOnBoth(a, b Curve, da, db Range, pts []Vec, tol float64) []Candidate {
	var out []Candidate
	for _, p := range pts {
		ta, ok := paramOn(a, da, p, tol)
		if !ok {
			continue
		}
		tb, ok := paramOn(b, db, p, tol)
		if !ok {
			continue
		}
		out = append(out, Candidate{Kind: CandPoint, Point: Lerp(a.Value(ta), b.Value(tb), 0.5), TA: ta, TB: tb})
	}
	return out
}

func lineLine(a, b Line, da, db Range, tol float64) []Candidate {
	cross := a.Dir.Cross(b.Dir).Length()
	span := math.Max(math.Abs(da.Len()), math.Abs(db.Len()))
	if cross < parallelSin || cross*span <= tol {
		off := b.Origin.Sub(a.Origin)
		if off.Cross(a.Dir).Length() > tol {
			return nil
		}
		s1 := a.Project(b.Value(db.First))
		s2 := a.Project(b.Value(db.Last))
		lo := math.Max(math.Min(s1, s2), da.First)
		hi := math.Min(math.Max(s1, s2), da.Last)
		if hi < lo-tol {
			return nil
		}
		if hi-lo <= tol {
			return pointsOnBoth(a, b, da, db, []Vec{a.Value((lo + hi) / 2)}, tol)
		}
		t1 := clamp(b.Project(a.Value(lo)), db)
		t2 := clamp(b.Project(a.Value(hi)), db)
		same := a.Dir.Dot(b.Dir) > 0
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		return []Candidate{{
			Kind:   CandOverlap,
			Point:  a.Value((lo + hi) / 2),
			RangeA: Range{lo, hi},
			RangeB: Range{t1, t2},
			Same:   same,
		}}
	}
	w := a.Origin.Sub(b.Origin)
	bb := a.Dir.Dot(b.Dir)
	d := a.Dir.Dot(w)
	e := b.Dir.Dot(w)
	den := 1 - bb*bb
	s := (bb*e - d) / den
	t := (e - bb*d) / den
	return pointsOnBoth(a, b, da, db, []Vec{Lerp(a.Value(s), b.Value(t), 0.5)}, tol)
}

// lineCirclePoints returns the raw points where the unbounded line meets the
// full circle.
func lineCirclePoints(l Line, c Circle, tol float64) []Vec {
	dn := l.Dir.Dot(c.Normal)
	if math.Abs(dn) < parallelSin {
		off := l.Origin.Sub(c.Center).Dot(c.Normal)
		if math.Abs(off) > tol {
			return nil
		}
		o := l.Origin.Sub(c.Normal.MulScalar(off))
		w := o.Sub(c.Center)
		b := w.Dot(l.Dir)
		foot := o.Sub(l.Dir.MulScalar(b))
		dl := Dist(foot, c.Center)
		if math.Abs(dl-c.Radius) <= tol {
			return []Vec{foot}
		}
		if dl > c.Radius {
			return nil
		}
		h := math.Sqrt(c.Radius*c.Radius - dl*dl)
		return []Vec{foot.Sub(l.Dir.MulScalar(h)), foot.Add(l.Dir.MulScalar(h))}
	}
	t := c.Center.Sub(l.Origin).Dot(c.Normal) / dn
	p := l.Value(t)
	if math.Abs(Dist(p, c.Center)-c.Radius) <= tol {
		return []Vec{p}
	}
	return nil
}

func circleCircle(a, b Circle, da, db Range, tol float64) []Candidate {
	if a.Normal.Cross(b.Normal).Length() < parallelSin {
		if math.Abs(b.Center.Sub(a.Center).Dot(a.Normal)) > tol {
			return nil
		}
		d := Dist(a.Center, b.Center)
		if d <= tol && math.Abs(a.Radius-b.Radius) <= tol {
			return sameCircle(a, b, da, db, tol)
		}
		return pointsOnBoth(a, b, da, db, coplanarCirclePoints(a, b, tol), tol)
	}
	pl := Plane{Origin: a.Center, Normal: a.Normal, XAxis: a.XAxis}
	var pts []Vec
	for _, th := range circlePlaneParams(b, pl, tol) {
		pts = append(pts, b.Value(th))
	}
	return pointsOnBoth(a, b, da, db, pts, tol)
}

func coplanarCirclePoints(a, b Circle, tol float64) []Vec {
	d := Dist(a.Center, b.Center)
	if d < Eps {
		return nil
	}
	u := b.Center.Sub(a.Center).MulScalar(1 / d)
	v := a.Normal.Cross(u)
	x := (d*d + a.Radius*a.Radius - b.Radius*b.Radius) / (2 * d)
	h2 := a.Radius*a.Radius - x*x
	if math.Abs(d-(a.Radius+b.Radius)) <= tol || math.Abs(d-math.Abs(a.Radius-b.Radius)) <= tol {
		x = math.Max(-a.Radius, math.Min(a.Radius, x))
		return []Vec{a.Center.Add(u.MulScalar(x))}
	}
	if h2 < 0 {
		return nil
	}
	h := math.Sqrt(h2)
	base := a.Center.Add(u.MulScalar(x))
	return []Vec{base.Sub(v.MulScalar(h)), base.Add(v.MulScalar(h))}
}

// sameCircle handles two arcs of one circle: the parameter ranges of a
// covered by b.
func sameCircle(a, b Circle, da, db Range, tol float64) []Candidate {
	res := a.Resolution(tol)
	same := a.Normal.Dot(b.Normal) > 0
	start := a.Project(b.Value(db.First))
	l := math.Abs(db.Len())
	arc := Range{start, start + l}
	if !same {
		arc = Range{start - l, start}
	}
	var out []Candidate
	for k := -2; k <= 2; k++ {
		sh := 2 * math.Pi * float64(k)
		lo := math.Max(arc.First+sh, da.First)
		hi := math.Min(arc.Last+sh, da.Last)
		if hi < lo-res {
			continue
		}
		if hi-lo <= res {
			out = append(out, pointsOnBoth(a, b, da, db, []Vec{a.Value((lo + hi) / 2)}, tol)...)
			continue
		}
		rb := db
		if hi-lo < math.Abs(db.Len())-res {
			t1 := Adjust(b, db, b.Project(a.Value(lo)), res)
			t2 := Adjust(b, db, b.Project(a.Value(hi)), res)
			if !same {
				t1, t2 = t2, t1
			}
			if t2 <= t1 {
				t2 += 2 * math.Pi
			}
			rb = Range{t1, math.Min(t2, db.Last)}
		}
		out = append(out, Candidate{
			Kind:   CandOverlap,
			Point:  a.Value((lo + hi) / 2),
			RangeA: Range{lo, hi},
			RangeB: rb,
			Same:   same,
		})
	}
	return dedupCandidates(out, tol)
}

func dedupCandidates(cs []Candidate, tol float64) []Candidate {
	var out []Candidate
	for _, c := range cs {
		dup := false
		for _, o := range out {
			if o.Kind == c.Kind && Dist(o.Point, c.Point) <= tol {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, c)
		}
	}
	return out
}

// ----------------------------------------------------------------------------
// Curve vs surface
// ----------------------------------------------------------------------------

func curveSurface(c Curve, s Surface, dc Range, tol float64) []Candidate {
	var params []float64
	switch cc := c.(type) {
	case Line:
		switch ss := s.(type) {
		case Plane:
			e1 := ss.SignedDistance(cc.Value(dc.First))
			e2 := ss.SignedDistance(cc.Value(dc.Last))
			if math.Abs(e1) <= tol && math.Abs(e2) <= tol {
				return []Candidate{{Kind: CandOverlap, Point: cc.Value(dc.Mid()), RangeA: dc}}
			}
			dn := cc.Dir.Dot(ss.Normal)
			if math.Abs(dn) < parallelSin {
				return nil
			}
			params = []float64{-ss.SignedDistance(cc.Origin) / dn}
		case Sphere:
			w := cc.Origin.Sub(ss.Center)
			b := w.Dot(cc.Dir)
			dl := math.Sqrt(math.Max(0, w.Dot(w)-b*b))
			switch {
			case math.Abs(dl-ss.Radius) <= tol:
				params = []float64{-b}
			case dl < ss.Radius:
				h := math.Sqrt(ss.Radius*ss.Radius - dl*dl)
				params = []float64{-b - h, -b + h}
			}
		}
	case Circle:
		switch ss := s.(type) {
		case Plane:
			if cc.Normal.Cross(ss.Normal).Length() < parallelSin {
				if math.Abs(ss.SignedDistance(cc.Center)) <= tol {
					return []Candidate{{Kind: CandOverlap, Point: cc.Value(dc.Mid()), RangeA: dc}}
				}
				return nil
			}
			params = circlePlaneParams(cc, ss, tol)
		case Sphere:
			w := cc.Center.Sub(ss.Center)
			perp := w.Sub(cc.Normal.MulScalar(w.Dot(cc.Normal)))
			if perp.Length() <= tol && math.Abs(math.Sqrt(w.Dot(w)+cc.Radius*cc.Radius)-ss.Radius) <= tol {
				return []Candidate{{Kind: CandOverlap, Point: cc.Value(dc.Mid()), RangeA: dc}}
			}
			a := 2 * cc.Radius * w.Dot(cc.XAxis)
			b := 2 * cc.Radius * w.Dot(cc.YAxis())
			k := ss.Radius*ss.Radius - w.Dot(w) - cc.Radius*cc.Radius
			params = solveTrig(a, b, k, 2*ss.Radius*tol)
		}
	}
	var out []Candidate
	for _, t := range params {
		p := c.Value(t)
		if SurfaceDistance(s, p) > tol {
			continue
		}
		if tt, ok := paramOn(c, dc, p, tol); ok {
			out = append(out, Candidate{Kind: CandPoint, Point: p, TA: tt})
		}
	}
	return dedupCandidates(out, tol)
}

// circlePlaneParams returns the circle angles where it meets the plane.
func circlePlaneParams(c Circle, p Plane, tol float64) []float64 {
	a := c.Radius * c.XAxis.Dot(p.Normal)
	b := c.Radius * c.YAxis().Dot(p.Normal)
	return solveTrig(a, b, -p.SignedDistance(c.Center), tol)
}

// solveTrig solves a*cos(t) + b*sin(t) = k. When |k| exceeds the amplitude
// by no more than slack, the single extremal angle is returned.
func solveTrig(a, b, k, slack float64) []float64 {
	rho := math.Hypot(a, b)
	if rho < Eps {
		return nil
	}
	phi := math.Atan2(b, a)
	switch {
	case math.Abs(k) > rho+slack:
		return nil
	case rho-math.Abs(k) <= slack:
		if k < 0 {
			return []float64{normAngle(phi + math.Pi)}
		}
		return []float64{normAngle(phi)}
	}
	d := math.Acos(k / rho)
	return []float64{normAngle(phi - d), normAngle(phi + d)}
}

func normAngle(t float64) float64 {
	t = math.Mod(t, 2*math.Pi)
	if t < 0 {
		t += 2 * math.Pi
	}
	return t
}

// ----------------------------------------------------------------------------
// Surface vs surface
// ----------------------------------------------------------------------------

func surfaceSurface(a, b Surface, tol float64) []Candidate {
	switch sa := a.(type) {
	case Plane:
		switch sb := b.(type) {
		case Plane:
			return planePlane(sa, sb, tol)
		case Sphere:
			return planeSphere(sa, sb, tol)
		}
	case Sphere:
		switch sb := b.(type) {
		case Plane:
			return planeSphere(sb, sa, tol)
		case Sphere:
			return sphereSphere(sa, sb, tol)
		}
	}
	return nil
}

func planePlane(a, b Plane, tol float64) []Candidate {
	u := a.Normal.Cross(b.Normal)
	if u.Length() < parallelSin {
		if math.Abs(a.SignedDistance(b.Origin)) > tol {
			return nil
		}
		return []Candidate{{Kind: CandCoincident, Point: b.Origin, Same: a.Normal.Dot(b.Normal) > 0}}
	}
	d1 := a.Normal.Dot(a.Origin)
	d2 := b.Normal.Dot(b.Origin)
	u2 := u.Dot(u)
	p := b.Normal.Cross(u).MulScalar(d1).Add(u.Cross(a.Normal).MulScalar(d2)).MulScalar(1 / u2)
	return []Candidate{{Kind: CandCurve, Point: p, Curve: Line{Origin: p, Dir: u.Normalize()}}}
}

func planeSphere(p Plane, s Sphere, tol float64) []Candidate {
	d := p.SignedDistance(s.Center)
	foot := s.Center.Sub(p.Normal.MulScalar(d))
	switch {
	case math.Abs(d) > s.Radius+tol:
		return nil
	case s.Radius-math.Abs(d) <= tol:
		return []Candidate{{Kind: CandTangent, Point: foot}}
	}
	r := math.Sqrt(s.Radius*s.Radius - d*d)
	c := Circle{Center: foot, Normal: p.Normal, XAxis: p.XAxis, Radius: r}
	return []Candidate{{Kind: CandCurve, Point: c.Value(0), Curve: c}}
}

func sphereSphere(a, b Sphere, tol float64) []Candidate {
	d := Dist(a.Center, b.Center)
	if d <= tol && math.Abs(a.Radius-b.Radius) <= tol {
		return []Candidate{{Kind: CandCoincident, Point: a.Value(0, 0), Same: true}}
	}
	if d < Eps {
		return nil
	}
	n := b.Center.Sub(a.Center).MulScalar(1 / d)
	switch {
	case math.Abs(d-(a.Radius+b.Radius)) <= tol:
		return []Candidate{{Kind: CandTangent, Point: a.Center.Add(n.MulScalar(a.Radius))}}
	case math.Abs(d-math.Abs(a.Radius-b.Radius)) <= tol:
		dir := n
		if b.Radius > a.Radius {
			dir = n.Neg()
		}
		return []Candidate{{Kind: CandTangent, Point: a.Center.Add(dir.MulScalar(a.Radius))}}
	case d > a.Radius+b.Radius || d < math.Abs(a.Radius-b.Radius):
		return nil
	}
	x := (d*d + a.Radius*a.Radius - b.Radius*b.Radius) / (2 * d)
	r := math.Sqrt(math.Max(0, a.Radius*a.Radius-x*x))
	c := NewCircle(a.Center.Add(n.MulScalar(x)), n, r)
	return []Candidate{{Kind: CandCurve, Point: c.Value(0), Curve: c}}
}

// SortCandidates orders candidates by kind then by position so that results
// do not depend on solver branch order.
func SortCandidates(cs []Candidate) {
	sort.SliceStable(cs, func(i, j int) bool {
		if cs[i].Kind != cs[j].Kind {
			return cs[i].Kind < cs[j].Kind
		}
		pi, pj := cs[i].Point, cs[j].Point
		if pi.X != pj.X {
			return pi.X < pj.X
		}
		if pi.Y != pj.Y {
			return pi.Y < pj.Y
		}
		return pi.Z < pj.Z
	})
}
