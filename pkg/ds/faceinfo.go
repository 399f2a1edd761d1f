package ds

import (
	"github.com/chazu/boolkit/pkg/geom"
	"github.com/chazu/boolkit/pkg/topo"
)

// EdgeSpan is a parameter range of one edge. Spans survive pave block
// rebuilds; SpanBlocks resolves them to the current blocks.
type EdgeSpan struct {
	Edge  int
	Range geom.Range
}

// FaceInfo collects what the intersection stage learned about one face.
type FaceInfo struct {
	// In holds spans of other operands' edges lying inside the face.
	In []EdgeSpan
	// Sc holds spans of section edges produced by face/face intersection.
	Sc []EdgeSpan
	// VertsIn holds vertices of other operands lying on the face.
	VertsIn []int
	// VertsSc holds vertices created by face/face intersection (section
	// edge ends and tangent contacts).
	VertsSc []int
	// Coincident holds faces of other operands on the same carrier whose
	// boxes overlap this face.
	Coincident []int
}

// FaceInfo returns the info record of face f, creating it on first use.
func (d *DS) FaceInfo(f int) *FaceInfo {
	d.fmu.Lock()
	defer d.fmu.Unlock()
	fi, ok := d.faceInfo[f]
	if !ok {
		fi = &FaceInfo{}
		d.faceInfo[f] = fi
	}
	return fi
}

// AddInSpan records that span lies inside face f.
func (d *DS) AddInSpan(f int, span EdgeSpan) {
	fi := d.FaceInfo(f)
	d.fmu.Lock()
	defer d.fmu.Unlock()
	fi.In = appendSpan(fi.In, span)
}

// AddSectionSpan records a section edge span of face f.
func (d *DS) AddSectionSpan(f int, span EdgeSpan) {
	fi := d.FaceInfo(f)
	d.fmu.Lock()
	defer d.fmu.Unlock()
	fi.Sc = appendSpan(fi.Sc, span)
}

// AddVertexIn records vertex v lying on face f.
func (d *DS) AddVertexIn(f, v int) {
	fi := d.FaceInfo(f)
	d.fmu.Lock()
	defer d.fmu.Unlock()
	if !containsInt(fi.VertsIn, v) {
		fi.VertsIn = append(fi.VertsIn, v)
	}
}

// AddSectionVertex records vertex v created by sectioning face f.
func (d *DS) AddSectionVertex(f, v int) {
	fi := d.FaceInfo(f)
	d.fmu.Lock()
	defer d.fmu.Unlock()
	if !containsInt(fi.VertsSc, v) {
		fi.VertsSc = append(fi.VertsSc, v)
	}
}

// AddCoincident records that faces f and g share a carrier.
func (d *DS) AddCoincident(f, g int) {
	for _, p := range [][2]int{{f, g}, {g, f}} {
		fi := d.FaceInfo(p[0])
		d.fmu.Lock()
		if !containsInt(fi.Coincident, p[1]) {
			fi.Coincident = append(fi.Coincident, p[1])
		}
		d.fmu.Unlock()
	}
}

// InternalBlocks returns the distinct pave blocks lying inside face f (In
// and section spans), in edge order.
func (d *DS) InternalBlocks(f int) []*PaveBlock {
	fi := d.FaceInfo(f)
	d.fmu.Lock()
	spans := append(append([]EdgeSpan(nil), fi.In...), fi.Sc...)
	d.fmu.Unlock()
	seen := map[*PaveBlock]bool{}
	var out []*PaveBlock
	for _, s := range spans {
		for _, pb := range d.SpanBlocks(s) {
			if !seen[pb] {
				seen[pb] = true
				out = append(out, pb)
			}
		}
	}
	return out
}

// SectionBlocks returns the distinct pave blocks of the section spans of
// face f.
func (d *DS) SectionBlocks(f int) []*PaveBlock {
	fi := d.FaceInfo(f)
	d.fmu.Lock()
	spans := append([]EdgeSpan(nil), fi.Sc...)
	d.fmu.Unlock()
	seen := map[*PaveBlock]bool{}
	var out []*PaveBlock
	for _, s := range spans {
		for _, pb := range d.SpanBlocks(s) {
			if !seen[pb] {
				seen[pb] = true
				out = append(out, pb)
			}
		}
	}
	return out
}

func appendSpan(spans []EdgeSpan, s EdgeSpan) []EdgeSpan {
	for _, o := range spans {
		if o == s {
			return spans
		}
	}
	return append(spans, s)
}

// Stats summarises the dataset.
type Stats struct {
	Shapes        int
	Paves         int
	AddedPaves    int
	Interferences int
	ByKind        map[InterferenceKind]int
	PaveBlocks    int
	CommonBlocks  int
}

// Stats returns counters over the current dataset state.
func (d *DS) Stats() Stats {
	s := Stats{Shapes: d.Len(), ByKind: map[InterferenceKind]int{}}
	for _, e := range d.Indices(topo.Edge) {
		s.Paves += len(d.Paves(e))
	}
	d.mu.RLock()
	s.AddedPaves = d.addedPaves
	d.mu.RUnlock()
	for _, rec := range d.Interferences() {
		s.Interferences++
		s.ByKind[rec.Kind()]++
	}
	s.PaveBlocks = len(d.AllPaveBlocks())
	s.CommonBlocks = len(d.CommonBlocks())
	return s
}
