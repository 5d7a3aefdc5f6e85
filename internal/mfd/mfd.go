// Package mfd derives uniform magnitude bin grids from irregular catalog
// magnitudes and fills them with annual occurrence rates.
package mfd

import "math"

// MagFreqDist is an evenly discretized magnitude-frequency distribution.
// Anchor is the lower edge of the first bin; bin i is centred on
// Anchor + (i+0.5)*Width.
type MagFreqDist struct {
	anchor float64
	width  float64
	rates  []float64
}

// New copies rates into a new distribution.
func New(anchor, width float64, rates []float64) MagFreqDist {
	r := make([]float64, len(rates))
	copy(r, rates)
	return MagFreqDist{anchor: anchor, width: width, rates: r}
}

func (d MagFreqDist) Anchor() float64 { return d.anchor }
func (d MagFreqDist) Width() float64  { return d.width }
func (d MagFreqDist) Num() int        { return len(d.rates) }

// X returns the centre magnitude of bin i.
func (d MagFreqDist) X(i int) float64 {
	return d.anchor + d.width/2 + float64(i)*d.width
}

// Y returns the annual rate of bin i.
func (d MagFreqDist) Y(i int) float64 {
	return d.rates[i]
}

// Rates returns a copy of the per-bin rates.
func (d MagFreqDist) Rates() []float64 {
	r := make([]float64, len(d.rates))
	copy(r, d.rates)
	return r
}

// MinMagnitude and MaxMagnitude are the outer bin edges.
func (d MagFreqDist) MinMagnitude() float64 { return d.anchor }
func (d MagFreqDist) MaxMagnitude() float64 {
	return d.anchor + float64(len(d.rates))*d.width
}

func (d MagFreqDist) TotalRate() float64 {
	var sum float64
	for _, r := range d.rates {
		sum += r
	}
	return sum
}

// MomentRate returns the scalar moment rate (N·m/yr) carried by bin i.
func (d MagFreqDist) MomentRate(i int) float64 {
	return d.rates[i] * MagToMoment(d.X(i))
}

func (d MagFreqDist) TotalMomentRate() float64 {
	var sum float64
	for i := range d.rates {
		sum += d.MomentRate(i)
	}
	return sum
}

// MomentRateAbove sums the moment rate of bins centred at or above mag.
func (d MagFreqDist) MomentRateAbove(mag float64) float64 {
	var sum float64
	for i := range d.rates {
		if d.X(i) >= mag {
			sum += d.MomentRate(i)
		}
	}
	return sum
}

// ScaleToTotalMomentRate returns a copy whose rates are scaled uniformly so
// that its total moment rate equals target. A distribution carrying no
// moment is returned unchanged.
func (d MagFreqDist) ScaleToTotalMomentRate(target float64) MagFreqDist {
	current := d.TotalMomentRate()
	if current == 0 {
		return New(d.anchor, d.width, d.rates)
	}
	f := target / current
	scaled := make([]float64, len(d.rates))
	for i, r := range d.rates {
		scaled[i] = r * f
	}
	return MagFreqDist{anchor: d.anchor, width: d.width, rates: scaled}
}

// MagToMoment converts moment magnitude to scalar seismic moment in N·m.
func MagToMoment(mag float64) float64 {
	return math.Pow(10, 1.5*mag+9.05)
}
