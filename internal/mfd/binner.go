package mfd

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// DefaultBinWidth is the global magnitude grid quantum.
const DefaultBinWidth = 0.1

var ErrNoMagnitudes = errors.New("no magnitudes to bin")

// Grid is a uniform bin layout derived from irregularly spaced catalog
// magnitudes. Min is the anchor (lower edge of the first bin).
type Grid struct {
	Min           float64
	Max           float64
	ObservedWidth float64 // spacing of the two highest catalog magnitudes
	BinWidth      float64
	Count         int
}

// Center returns the centre magnitude of bin i.
func (g Grid) Center(i int) float64 {
	return g.Min + g.BinWidth/2 + float64(i)*g.BinWidth
}

// SortPairs sorts mags ascending and applies the same permutation to rates.
// Equal magnitudes keep their input order.
func SortPairs(mags, rates []float64) {
	idx := make([]int, len(mags))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return mags[idx[a]] < mags[idx[b]]
	})

	m := make([]float64, len(mags))
	r := make([]float64, len(rates))
	for i, j := range idx {
		m[i] = mags[j]
		r[i] = rates[j]
	}
	copy(mags, m)
	copy(rates, r)
}

// DeriveGrid builds the bin grid for ascending magnitudes. The rounding
// directions reproduce the reference catalog outputs and must not change.
func DeriveGrid(mags []float64, w float64) (Grid, error) {
	n := len(mags)
	if n == 0 {
		return Grid{}, ErrNoMagnitudes
	}
	if w <= 0 {
		return Grid{}, fmt.Errorf("invalid bin width: %g", w)
	}

	g := Grid{BinWidth: w, ObservedWidth: 0.5}
	switch {
	case n > 2:
		g.ObservedWidth = mags[n-1] - mags[n-2]
		top := mags[n-1] + g.ObservedWidth/2
		g.Max = math.Ceil((top-top/2e2)/w) * w
		g.Min = mags[0] - (mags[1]-mags[0])/2
	case n == 2:
		g.ObservedWidth = mags[1] - mags[0]
		g.Max = math.Ceil((mags[1]+0.25)/w) * w
		g.Min = mags[0] - 0.25
	default:
		g.Max = math.Ceil((mags[0]+0.25)/w) * w
		g.Min = math.Floor((mags[0]-0.25)/w) * w
	}

	g.Count = int(math.Round((g.Max - g.Min) / w))
	if g.Count <= 0 {
		return Grid{}, fmt.Errorf("degenerate magnitude grid [%.2f, %.2f]", g.Min, g.Max)
	}
	return g, nil
}
