// Package geometry turns buffered source observations and a synthesized
// magnitude-frequency distribution into area and fault source descriptors.
package geometry

import (
	"slices"

	"github.com/mr1hm/go-seismic-sources/internal/mfd"
	"github.com/mr1hm/go-seismic-sources/internal/models"
)

const (
	DefaultUpperDepth = 5.0
	DefaultLowerDepth = 20.0
	DefaultDip        = 90.0
	// equal upper and lower depths are widened by this many km
	minSeismogenicThickness = 15.0
	// every source is treated as normal faulting
	fixedRake = -90.0
)

// Observations is the geometry-related part of a source block. Optional
// scalars are nil when no record carried a valid value.
type Observations struct {
	Locations []models.Location // insertion order is vertex order
	MinDepths []float64
	MaxDepths []float64
	Dip1      *float64
	Dip2      *float64
	Azimuth   *float64
	Length    *float64
}

type Compiler struct {
	MinMagnitude float64 // magnitude of the single top-of-rupture node
}

// Area builds an area source. The polygon is taken as given.
func (c Compiler) Area(label models.SourceLabel, obs Observations, dist mfd.MagFreqDist) (*models.AreaSource, error) {
	depth := DefaultUpperDepth
	if len(obs.MinDepths) > 0 {
		depth = slices.Min(obs.MinDepths)
	}

	strike := 0.0
	if obs.Azimuth != nil {
		strike = *obs.Azimuth
	}

	var mechs []models.FocalMechMFD
	if obs.Dip1 != nil && obs.Dip2 != nil {
		half := dist.ScaleToTotalMomentRate(dist.TotalMomentRate() / 2)
		mechs = []models.FocalMechMFD{
			{Mechanism: models.FocalMechanism{Strike: strike, Dip: *obs.Dip1, Rake: fixedRake}, MFD: half},
			{Mechanism: models.FocalMechanism{Strike: strike, Dip: *obs.Dip2, Rake: fixedRake}, MFD: half},
		}
	} else {
		dip := DefaultDip
		if obs.Dip1 != nil {
			dip = *obs.Dip1
		}
		mechs = []models.FocalMechMFD{
			{Mechanism: models.FocalMechanism{Strike: strike, Dip: dip, Rake: fixedRake}, MFD: dist},
		}
	}

	return &models.AreaSource{
		SourceBase: models.SourceBase{
			Label:  label,
			Region: models.TectonicActiveShallow,
		},
		Polygon:      slices.Clone(obs.Locations),
		MFDs:         mechs,
		RupTopDepth:  []models.DepthPoint{{Magnitude: c.MinMagnitude, Depth: depth}},
		AveHypoDepth: depth,
	}, nil
}

// Fault builds a fault source. Dips steeper than 90° are folded back and
// the trace reversed so the dip direction stays to the right of the trace.
func (c Compiler) Fault(label models.SourceLabel, obs Observations, dist mfd.MagFreqDist) (*models.FaultSource, error) {
	upper := DefaultUpperDepth
	if len(obs.MinDepths) > 0 {
		upper = slices.Min(obs.MinDepths)
	}
	lower := DefaultLowerDepth
	if len(obs.MaxDepths) > 0 {
		lower = slices.Max(obs.MaxDepths)
	}
	if upper == lower {
		lower = upper + minSeismogenicThickness
	}
	if lower < upper {
		return nil, &Error{Label: label.ID, Reason: "lower seismogenic depth is above the upper depth"}
	}

	trace := make([]models.Location, len(obs.Locations))
	for i, loc := range obs.Locations {
		trace[i] = models.Location{Latitude: loc.Latitude, Longitude: loc.Longitude, Depth: upper}
	}

	dip := DefaultDip
	if obs.Dip1 != nil {
		dip = *obs.Dip1
	}
	if dip > 90 {
		dip = 180 - dip
		slices.Reverse(trace)
	}

	var length float64
	if obs.Length != nil {
		length = *obs.Length
	}

	return &models.FaultSource{
		SourceBase: models.SourceBase{
			Label:  label,
			Region: models.TectonicActiveShallow,
		},
		Trace:          trace,
		MFD:            dist,
		Dip:            dip,
		Rake:           fixedRake,
		UpperDepth:     upper,
		LowerDepth:     lower,
		ReportedLength: length,
	}, nil
}
