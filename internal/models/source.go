package models

import (
	"fmt"

	"github.com/mr1hm/go-seismic-sources/internal/mfd"
)

type SourceKind int

const (
	KindUnknown SourceKind = iota
	KindArea
	KindFault
)

func (k SourceKind) String() string {
	switch k {
	case KindArea:
		return "area"
	case KindFault:
		return "fault"
	default:
		return "unknown"
	}
}

// ParseSourceKind accepts the names produced by String.
func ParseSourceKind(s string) SourceKind {
	switch s {
	case "area":
		return KindArea
	case "fault":
		return KindFault
	default:
		return KindUnknown
	}
}

type TectonicRegion string

const TectonicActiveShallow TectonicRegion = "ACTIVE_SHALLOW"

// SourceLabel identifies one source block of the catalog.
type SourceLabel struct {
	Kind   SourceKind
	Code   string // catalog type letter, "D" or "L"
	Number int    // numeric suffix of the label
	ID     string // label columns of both physical lines
}

func (l SourceLabel) String() string {
	return fmt.Sprintf("%s(%s)", l.ID, l.Kind)
}

type FocalMechanism struct {
	Strike float64
	Dip    float64
	Rake   float64
}

// FocalMechMFD pairs a distribution with the mechanism it applies to.
type FocalMechMFD struct {
	Mechanism FocalMechanism
	MFD       mfd.MagFreqDist
}

// DepthPoint is one node of a magnitude-dependent depth function.
type DepthPoint struct {
	Magnitude float64
	Depth     float64
}

// Source is a compiled seismic source: *AreaSource or *FaultSource.
type Source interface {
	Base() *SourceBase
	Kind() SourceKind
	MaxMagnitude() float64
}

type SourceBase struct {
	Index  int // sequential within its kind
	Label  SourceLabel
	Region TectonicRegion
}

func (b *SourceBase) Base() *SourceBase { return b }

type AreaSource struct {
	SourceBase
	Polygon      []Location
	MFDs         []FocalMechMFD // one or two mechanisms
	RupTopDepth  []DepthPoint
	AveHypoDepth float64
}

func (s *AreaSource) Kind() SourceKind { return KindArea }

func (s *AreaSource) MaxMagnitude() float64 {
	var top float64
	for _, m := range s.MFDs {
		if v := m.MFD.MaxMagnitude(); v > top {
			top = v
		}
	}
	return top
}

type FaultSource struct {
	SourceBase
	Trace          []Location
	MFD            mfd.MagFreqDist
	Dip            float64
	Rake           float64
	UpperDepth     float64
	LowerDepth     float64
	ReportedLength float64 // lineament length column, 0 when absent
}

func (s *FaultSource) Kind() SourceKind { return KindFault }

func (s *FaultSource) MaxMagnitude() float64 { return s.MFD.MaxMagnitude() }

// Catalog is the ordered output of one compile run. Sources are appended
// in input order and receive sequential per-kind indices.
type Catalog struct {
	sources []Source
	counts  map[SourceKind]int
}

func NewCatalog() *Catalog {
	return &Catalog{counts: make(map[SourceKind]int)}
}

// Append assigns the next index for the source's kind and stores it.
func (c *Catalog) Append(s Source) {
	b := s.Base()
	b.Index = c.counts[s.Kind()]
	c.counts[s.Kind()]++
	c.sources = append(c.sources, s)
}

func (c *Catalog) Len() int { return len(c.sources) }

// Sources returns the sources in input order. The slice is a copy.
func (c *Catalog) Sources() []Source {
	out := make([]Source, len(c.sources))
	copy(out, c.sources)
	return out
}

func (c *Catalog) Areas() []*AreaSource {
	var out []*AreaSource
	for _, s := range c.sources {
		if a, ok := s.(*AreaSource); ok {
			out = append(out, a)
		}
	}
	return out
}

func (c *Catalog) Faults() []*FaultSource {
	var out []*FaultSource
	for _, s := range c.sources {
		if f, ok := s.(*FaultSource); ok {
			out = append(out, f)
		}
	}
	return out
}
