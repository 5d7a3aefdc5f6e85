package compiler

import (
	"slices"

	"github.com/mr1hm/go-seismic-sources/internal/geometry"
	"github.com/mr1hm/go-seismic-sources/internal/models"
)

// ObservationSet buffers everything read for one source block. A set is
// created when its label is seen and consumed once by Flush.
type ObservationSet struct {
	Seq      int // position of the block in the input
	Label    models.SourceLabel
	Line     int // physical line of the label
	Geometry geometry.Observations

	mags  []float64
	rates []float64
	seen  map[float64]struct{}
}

func newObservationSet(seq int, label models.SourceLabel, line int) *ObservationSet {
	return &ObservationSet{
		Seq:   seq,
		Label: label,
		Line:  line,
		seen:  make(map[float64]struct{}),
	}
}

// AddRate records a (magnitude, rate) pair. The first rate observed for a
// magnitude wins; later duplicates are ignored.
func (o *ObservationSet) AddRate(mag, rate float64) bool {
	if _, dup := o.seen[mag]; dup {
		return false
	}
	o.seen[mag] = struct{}{}
	o.mags = append(o.mags, mag)
	o.rates = append(o.rates, rate)
	return true
}

func (o *ObservationSet) AddLocation(loc models.Location) {
	o.Geometry.Locations = append(o.Geometry.Locations, loc)
}

// NumMagnitudes is the count of distinct magnitudes with a rate.
func (o *ObservationSet) NumMagnitudes() int { return len(o.mags) }

func (o *ObservationSet) MaxMagnitude() (float64, bool) {
	if len(o.mags) == 0 {
		return 0, false
	}
	return slices.Max(o.mags), true
}

// Pairs returns copies of the magnitude and rate lists in insertion order.
func (o *ObservationSet) Pairs() (mags, rates []float64) {
	return slices.Clone(o.mags), slices.Clone(o.rates)
}
