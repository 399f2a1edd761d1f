package ds

import (
	"fmt"

	"github.com/chazu/boolkit/pkg/geom"
)

// InterferenceKind tags the pair of entity kinds an interference joins.
type InterferenceKind int

const (
	KindVV InterferenceKind = iota
	KindVE
	KindVF
	KindEE
	KindEF
	KindFF
)

func (k InterferenceKind) String() string {
	switch k {
	case KindVV:
		return "VV"
	case KindVE:
		return "VE"
	case KindVF:
		return "VF"
	case KindEE:
		return "EE"
	case KindEF:
		return "EF"
	case KindFF:
		return "FF"
	default:
		return fmt.Sprintf("InterferenceKind(%d)", int(k))
	}
}

// Interference is a recorded geometric coincidence between two entities of
// different operands. The set of implementations is closed: VV, VE, VF, EE,
// EF and FF.
type Interference interface {
	Kind() InterferenceKind
	// Pair returns the two entity indices, lower-dimensional entity first.
	Pair() (int, int)
	header() *Header
}

// Header is the part shared by all interferences.
type Header struct {
	A, B int
	// New is the index of the shape the interference produced (the common
	// vertex for point contacts), or -1.
	New int
	Tol float64
}

func (h *Header) Pair() (int, int) { return h.A, h.B }
func (h *Header) header() *Header  { return h }

// VV joins two vertices.
type VV struct {
	Header
}

// VE puts vertex A on edge B at Param.
type VE struct {
	Header
	Param float64
}

// VF puts vertex A on face B.
type VF struct {
	Header
}

// EE joins edges A and B at a point (ParamA, ParamB) or along an overlap.
type EE struct {
	Header
	ParamA, ParamB float64
	Overlap        bool
	RangeA, RangeB geom.Range
	// Same reports matching curve directions for an overlap.
	Same bool
}

// EF joins edge A and face B at a point (Param) or along an overlap range
// of A lying in B.
type EF struct {
	Header
	Param   float64
	Overlap bool
	Range   geom.Range
}

// FF records the section of faces A and B: new section edges, tangent
// contact vertices, or coincidence of the carriers.
type FF struct {
	Header
	Curves     []int
	Points     []int
	Coincident bool
	// Same reports matching natural normals for coincident faces.
	Same bool
}

func (*VV) Kind() InterferenceKind { return KindVV }
func (*VE) Kind() InterferenceKind { return KindVE }
func (*VF) Kind() InterferenceKind { return KindVF }
func (*EE) Kind() InterferenceKind { return KindEE }
func (*EF) Kind() InterferenceKind { return KindEF }
func (*FF) Kind() InterferenceKind { return KindFF }

// AddInterference appends rec to the log and returns its position.
func (d *DS) AddInterference(rec Interference) int {
	d.imu.Lock()
	defer d.imu.Unlock()
	d.interf = append(d.interf, rec)
	return len(d.interf) - 1
}

// Interferences returns a snapshot of the log.
func (d *DS) Interferences() []Interference {
	d.imu.Lock()
	defer d.imu.Unlock()
	out := make([]Interference, len(d.interf))
	copy(out, d.interf)
	return out
}

// InterferencesOf returns the logged interferences of kind k.
func (d *DS) InterferencesOf(k InterferenceKind) []Interference {
	var out []Interference
	for _, rec := range d.Interferences() {
		if rec.Kind() == k {
			out = append(out, rec)
		}
	}
	return out
}

// HasInterference reports whether entities i and j have a logged
// interference.
func (d *DS) HasInterference(i, j int) bool {
	for _, rec := range d.Interferences() {
		a, b := rec.Pair()
		if (a == i && b == j) || (a == j && b == i) {
			return true
		}
	}
	return false
}
