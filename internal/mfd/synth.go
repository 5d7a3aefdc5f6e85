package mfd

import (
	"fmt"
	"math"
	"strings"
)

const (
	StrategyGutenbergRichter = "gr"
	StrategyEmpirical        = "empirical"

	// zeroRate is the threshold below which a bin is considered empty and
	// backfilled from the next higher bin.
	zeroRate = 1e-10
)

// Synthesizer fills a bin grid from sorted (magnitude, rate) observations.
// It returns the distribution and the number of bin assignments made.
type Synthesizer interface {
	Name() string
	Synthesize(g Grid, mags, rates []float64) (MagFreqDist, int, error)
}

// SynthesisError marks a source whose distribution could not be built.
type SynthesisError struct {
	Strategy string
	Bin      int
	Reason   string
}

func (e *SynthesisError) Error() string {
	if e.Bin >= 0 {
		return fmt.Sprintf("%s synthesis: bin %d: %s", e.Strategy, e.Bin, e.Reason)
	}
	return fmt.Sprintf("%s synthesis: %s", e.Strategy, e.Reason)
}

// NewSynthesizer returns the strategy registered under name.
func NewSynthesizer(name string) (Synthesizer, error) {
	switch strings.ToLower(name) {
	case StrategyGutenbergRichter, "":
		return GutenbergRichter{B: -1.0}, nil
	case StrategyEmpirical:
		return Empirical{}, nil
	default:
		return nil, fmt.Errorf("unknown synthesis strategy: %s", name)
	}
}

// Empirical spreads each observed rate uniformly over the bins lying
// between the midpoints to its neighbours, widened by a fifth on each side.
type Empirical struct{}

func (Empirical) Name() string { return StrategyEmpirical }

func (e Empirical) Synthesize(g Grid, mags, rates []float64) (MagFreqDist, int, error) {
	n := len(mags)
	if n < 2 {
		return MagFreqDist{}, 0, &SynthesisError{Strategy: e.Name(), Bin: -1, Reason: "needs at least two magnitudes"}
	}

	bins := make([]float64, g.Count)
	cov := 0
	for i := 0; i < n; i++ {
		var lo, hi float64
		switch i {
		case 0:
			lo = (mags[1] - mags[0]) / 2
			hi = lo
		case n - 1:
			lo = (mags[n-1] - mags[n-2]) / 2
			hi = lo
		default:
			lo = (mags[i] - mags[i-1]) / 2
			hi = (mags[i+1] - mags[i]) / 2
		}

		lower := mags[i] - lo - lo/5
		upper := mags[i] + hi + hi/5
		for j := range bins {
			c := g.Center(j)
			if c >= lower && c < upper {
				bins[j] = rates[i] / (lo + hi) * g.BinWidth
				cov++
			}
		}
	}

	backfill(bins)
	if err := checkFinite(e.Name(), bins); err != nil {
		return MagFreqDist{}, cov, err
	}
	return MagFreqDist{anchor: g.Min, width: g.BinWidth, rates: bins}, cov, nil
}

// GutenbergRichter redistributes the total observed rate along a
// doubly-truncated GR law between the grid edges with a fixed b-value.
// B follows the rate-exponent sign convention (b = -1 for a unit b-value).
type GutenbergRichter struct {
	B float64
}

func (GutenbergRichter) Name() string { return StrategyGutenbergRichter }

func (gr GutenbergRichter) Synthesize(g Grid, mags, rates []float64) (MagFreqDist, int, error) {
	if len(mags) == 0 {
		return MagFreqDist{}, 0, &SynthesisError{Strategy: gr.Name(), Bin: -1, Reason: "no observations"}
	}

	var total float64
	for _, r := range rates {
		total += r
	}

	a := AValue(total, gr.B, g.Min, g.Max)
	bins := make([]float64, g.Count)
	for j := range bins {
		c := g.Center(j)
		bins[j] = math.Pow(10, a+gr.B*(c-g.BinWidth/2)) - math.Pow(10, a+gr.B*(c+g.BinWidth/2))
	}

	backfill(bins)
	if err := checkFinite(gr.Name(), bins); err != nil {
		return MagFreqDist{}, len(bins), err
	}
	return MagFreqDist{anchor: g.Min, width: g.BinWidth, rates: bins}, len(bins), nil
}

// AValue solves the doubly-truncated GR law for the a-value that yields
// totalRate events between mmin and mmax.
func AValue(totalRate, b, mmin, mmax float64) float64 {
	den := math.Pow(10, b*mmin) - math.Pow(10, b*mmax)
	return math.Log10(totalRate / den)
}

// backfill sweeps from the highest bin down, copying the next higher rate
// into any empty bin.
func backfill(bins []float64) {
	for j := len(bins) - 2; j >= 0; j-- {
		if bins[j] < zeroRate {
			bins[j] = bins[j+1]
		}
	}
}

func checkFinite(strategy string, bins []float64) error {
	for j, r := range bins {
		if math.IsNaN(r) || math.IsInf(r, 0) {
			return &SynthesisError{Strategy: strategy, Bin: j, Reason: fmt.Sprintf("non-finite rate %v", r)}
		}
	}
	return nil
}
