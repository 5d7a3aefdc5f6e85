package geometry

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mr1hm/go-seismic-sources/internal/mfd"
	"github.com/mr1hm/go-seismic-sources/internal/models"
)

func ptr(v float64) *float64 { return &v }

var (
	testLabel = models.SourceLabel{Kind: models.KindFault, Code: "L", Number: 1, ID: "7.RU.L.1"}
	testMFD   = mfd.New(5.0, 0.1, []float64{1e-3, 5e-4, 2e-4})
	testTrace = []models.Location{
		{Latitude: 40.0, Longitude: 44.0},
		{Latitude: 40.5, Longitude: 44.5},
		{Latitude: 41.0, Longitude: 45.0},
	}
)

func TestFault_Defaults(t *testing.T) {
	c := Compiler{MinMagnitude: 5.0}

	f, err := c.Fault(testLabel, Observations{Locations: testTrace}, testMFD)
	require.NoError(t, err)

	assert.Equal(t, 5.0, f.UpperDepth)
	assert.Equal(t, 20.0, f.LowerDepth)
	assert.Equal(t, 90.0, f.Dip)
	assert.Equal(t, -90.0, f.Rake)
	assert.Equal(t, models.TectonicActiveShallow, f.Region)
	assert.Equal(t, testTrace[0].Latitude, f.Trace[0].Latitude)
	assert.Equal(t, 5.0, f.Trace[0].Depth, "trace sits at the upper depth")
}

func TestFault_EqualDepthsAreWidened(t *testing.T) {
	c := Compiler{MinMagnitude: 5.0}
	obs := Observations{Locations: testTrace, MinDepths: []float64{10}, MaxDepths: []float64{10}}

	f, err := c.Fault(testLabel, obs, testMFD)
	require.NoError(t, err)

	assert.Equal(t, 10.0, f.UpperDepth)
	assert.Equal(t, 25.0, f.LowerDepth)
}

func TestFault_DipReflectionReversesTrace(t *testing.T) {
	c := Compiler{MinMagnitude: 5.0}
	obs := Observations{Locations: testTrace, Dip1: ptr(100)}

	f, err := c.Fault(testLabel, obs, testMFD)
	require.NoError(t, err)

	assert.Equal(t, 80.0, f.Dip)
	require.Len(t, f.Trace, 3)
	assert.Equal(t, 41.0, f.Trace[0].Latitude)
	assert.Equal(t, 40.0, f.Trace[2].Latitude)
	assert.Equal(t, 40.0, testTrace[0].Latitude, "input trace must not be reordered")
}

func TestFault_ShallowDipKeepsOrder(t *testing.T) {
	c := Compiler{}
	f, err := c.Fault(testLabel, Observations{Locations: testTrace, Dip1: ptr(45), Length: ptr(60)}, testMFD)
	require.NoError(t, err)

	assert.Equal(t, 45.0, f.Dip)
	assert.Equal(t, 40.0, f.Trace[0].Latitude)
	assert.Equal(t, 60.0, f.ReportedLength)
}

func TestFault_InvertedDepthsFail(t *testing.T) {
	c := Compiler{}
	obs := Observations{Locations: testTrace, MinDepths: []float64{30, 35}, MaxDepths: []float64{20}}

	_, err := c.Fault(testLabel, obs, testMFD)

	var ge *Error
	require.True(t, errors.As(err, &ge))
	assert.Equal(t, "7.RU.L.1", ge.Label)
}

func TestArea_SingleMechanism(t *testing.T) {
	c := Compiler{MinMagnitude: 5.0}
	label := models.SourceLabel{Kind: models.KindArea, Code: "D", Number: 2, ID: "7.RU.D.2"}
	obs := Observations{Locations: testTrace, MinDepths: []float64{12, 8}, Dip1: ptr(60)}

	a, err := c.Area(label, obs, testMFD)
	require.NoError(t, err)

	assert.Len(t, a.Polygon, 3)
	require.Len(t, a.MFDs, 1)
	assert.Equal(t, 60.0, a.MFDs[0].Mechanism.Dip)
	assert.InDelta(t, testMFD.TotalRate(), a.MFDs[0].MFD.TotalRate(), 1e-15)
	assert.Equal(t, []models.DepthPoint{{Magnitude: 5.0, Depth: 8}}, a.RupTopDepth)
	assert.Equal(t, 8.0, a.AveHypoDepth)
}

func TestArea_TwoMechanismsSplitMomentRate(t *testing.T) {
	c := Compiler{MinMagnitude: 5.0}
	label := models.SourceLabel{Kind: models.KindArea, Code: "D", Number: 3, ID: "7.RU.D.3"}
	obs := Observations{Locations: testTrace, Dip1: ptr(45), Dip2: ptr(60), Azimuth: ptr(120)}

	a, err := c.Area(label, obs, testMFD)
	require.NoError(t, err)

	require.Len(t, a.MFDs, 2)
	total := testMFD.TotalMomentRate()
	for i, m := range a.MFDs {
		assert.InDelta(t, total/2, m.MFD.TotalMomentRate(), total*1e-12, "mechanism %d", i)
		assert.Equal(t, 120.0, m.Mechanism.Strike)
	}
	assert.Equal(t, 45.0, a.MFDs[0].Mechanism.Dip)
	assert.Equal(t, 60.0, a.MFDs[1].Mechanism.Dip)
	assert.Equal(t, 5.0, a.AveHypoDepth, "default top of rupture")
}
