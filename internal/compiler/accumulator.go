package compiler

import (
	"fmt"

	"github.com/mr1hm/go-seismic-sources/internal/catalog"
	"github.com/mr1hm/go-seismic-sources/internal/models"
)

// ConfigurationError reports a label whose type code is not a known source
// kind. It means the catalog layout assumption is wrong and aborts the run.
type ConfigurationError struct {
	Code string
	Line int
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("unrecognized source type code %q at line %d", e.Code, e.Line)
}

func kindForCode(code string) models.SourceKind {
	switch code {
	case "D":
		return models.KindArea
	case "L":
		return models.KindFault
	default:
		return models.KindUnknown
	}
}

// Accumulator splits the record stream into source blocks.
type Accumulator struct {
	matcher        *catalog.LabelMatcher
	labelsHaveData bool

	current *ObservationSet
	blocks  int
}

func NewAccumulator(matcher *catalog.LabelMatcher, labelsHaveData bool) *Accumulator {
	return &Accumulator{matcher: matcher, labelsHaveData: labelsHaveData}
}

// Feed consumes one record. When the record opens a new source block the
// previous block, if any, is returned for flushing. Records before the
// first label belong to no source and are ignored.
func (a *Accumulator) Feed(rec catalog.Record) (*ObservationSet, error) {
	m, ok := a.matcher.Match(rec.Line1)
	if !ok {
		if a.current != nil {
			a.observe(a.current, rec)
		}
		return nil, nil
	}

	kind := kindForCode(m.Code)
	if kind == models.KindUnknown {
		return nil, &ConfigurationError{Code: m.Code, Line: rec.Number}
	}

	prev := a.current
	label := models.SourceLabel{Kind: kind, Code: m.Code, Number: m.Number, ID: rec.Label()}
	a.current = newObservationSet(a.blocks, label, rec.Number)
	a.blocks++

	if a.labelsHaveData {
		a.observe(a.current, rec)
	}
	return prev, nil
}

// Finish returns the block still open at end of input.
func (a *Accumulator) Finish() *ObservationSet {
	last := a.current
	a.current = nil
	return last
}

// Blocks is the number of labels seen so far.
func (a *Accumulator) Blocks() int { return a.blocks }

func (a *Accumulator) observe(set *ObservationSet, rec catalog.Record) {
	lat, okLat := rec.Float(catalog.FieldLatitude)
	lon, okLon := rec.Float(catalog.FieldLongitude)
	if okLat && okLon {
		if lon > 180 {
			lon = 360 - lon
		}
		set.AddLocation(models.Location{Latitude: lat, Longitude: lon})
	}

	mag, okMag := rec.Float(catalog.FieldMagnitude)
	rate, okRate := rec.Float(catalog.FieldRate)
	if okMag && okRate {
		set.AddRate(mag, rate)
	}

	g := &set.Geometry
	if v, ok := rec.Float(catalog.FieldMinDepth); ok {
		g.MinDepths = append(g.MinDepths, v)
	}
	if v, ok := rec.Float(catalog.FieldMaxDepth); ok {
		g.MaxDepths = append(g.MaxDepths, v)
	}

	// the latest valid value wins for per-source scalars
	if v, ok := rec.Float(catalog.FieldDip1); ok {
		g.Dip1 = &v
	}
	if v, ok := rec.Float(catalog.FieldDip2); ok {
		g.Dip2 = &v
	}
	if v, ok := rec.Float(catalog.FieldAzimuth); ok {
		g.Azimuth = &v
	}
	if v, ok := rec.Float(catalog.FieldLength); ok {
		g.Length = &v
	}
}
