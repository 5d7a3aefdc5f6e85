package models

import (
	"testing"

	"github.com/mr1hm/go-seismic-sources/internal/mfd"
)

func TestCatalog_AppendAssignsPerKindIndex(t *testing.T) {
	c := NewCatalog()
	c.Append(&AreaSource{})
	c.Append(&FaultSource{})
	c.Append(&AreaSource{})
	c.Append(&FaultSource{})

	if c.Len() != 4 {
		t.Fatalf("expected 4 sources, got %d", c.Len())
	}

	areas := c.Areas()
	if len(areas) != 2 || areas[0].Index != 0 || areas[1].Index != 1 {
		t.Errorf("unexpected area indices: %+v", areas)
	}
	faults := c.Faults()
	if len(faults) != 2 || faults[0].Index != 0 || faults[1].Index != 1 {
		t.Errorf("unexpected fault indices: %+v", faults)
	}

	// Input order is preserved across kinds
	kinds := []SourceKind{KindArea, KindFault, KindArea, KindFault}
	for i, s := range c.Sources() {
		if s.Kind() != kinds[i] {
			t.Errorf("source %d: expected %s, got %s", i, kinds[i], s.Kind())
		}
	}
}

func TestAreaSource_MaxMagnitude(t *testing.T) {
	a := &AreaSource{
		MFDs: []FocalMechMFD{
			{MFD: mfd.New(5.0, 0.1, []float64{1, 1})},
			{MFD: mfd.New(5.0, 0.1, []float64{1, 1, 1})},
		},
	}
	if got := a.MaxMagnitude(); got < 5.29 || got > 5.31 {
		t.Errorf("expected max magnitude 5.3, got %f", got)
	}
}

func TestParseSourceKind(t *testing.T) {
	for _, k := range []SourceKind{KindArea, KindFault} {
		if ParseSourceKind(k.String()) != k {
			t.Errorf("round trip failed for %s", k)
		}
	}
	if ParseSourceKind("point") != KindUnknown {
		t.Error("expected unknown kind")
	}
}

func TestGeometryHelpers(t *testing.T) {
	// One degree of latitude is ~111.2 km
	d := DistanceKm(Location{Latitude: 0, Longitude: 0}, Location{Latitude: 1, Longitude: 0})
	if d < 110 || d > 112 {
		t.Errorf("unexpected distance %f", d)
	}

	trace := []Location{{Latitude: 0}, {Latitude: 1}, {Latitude: 2}}
	if l := TraceLength(trace); l < 220 || l > 224 {
		t.Errorf("unexpected trace length %f", l)
	}

	square := []Location{
		{Latitude: 0, Longitude: 0},
		{Latitude: 0, Longitude: 1},
		{Latitude: 1, Longitude: 1},
		{Latitude: 1, Longitude: 0},
	}
	if a := PolygonArea(square); a < 12000 || a > 12500 {
		t.Errorf("unexpected area %f", a)
	}
	if PolygonArea(square[:2]) != 0 {
		t.Error("degenerate polygon should have zero area")
	}
}
