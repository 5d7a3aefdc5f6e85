// Package export writes compiled sources as GMT psxy multi-segment files
// coloured by moment-rate density.
package export

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/mr1hm/go-seismic-sources/internal/models"
)

// MomentMagnitudeCutoff is the lowest bin centre counted towards the
// exported moment rate.
const MomentMagnitudeCutoff = 5.0

const rowFormat = "%+7.3f %+6.3f %+6.2f\n"

// WriteAreaGMT writes one closed polygon segment per area source. The
// segment value is log10 of moment rate per km² of polygon.
func WriteAreaGMT(w io.Writer, areas []*models.AreaSource) error {
	bw := bufio.NewWriter(w)
	for _, a := range areas {
		var moment float64
		for _, m := range a.MFDs {
			moment += m.MFD.MomentRateAbove(MomentMagnitudeCutoff)
		}
		z, ok := logDensity(moment, models.PolygonArea(a.Polygon))
		if !ok {
			slog.Debug("area source skipped in export", "label", a.Label.ID, "moment", moment)
			continue
		}

		fmt.Fprintf(bw, "> -Z %6.2e idx %d\n", z, a.Index)
		for _, loc := range a.Polygon {
			fmt.Fprintf(bw, rowFormat, loc.Longitude, loc.Latitude, loc.Depth)
		}
		if len(a.Polygon) > 0 {
			first := a.Polygon[0]
			fmt.Fprintf(bw, rowFormat, first.Longitude, first.Latitude, first.Depth)
		}
	}
	fmt.Fprintln(bw, ">")
	return bw.Flush()
}

// WriteFaultGMT writes one line segment per fault trace. The segment
// value is log10 of moment rate per km of trace.
func WriteFaultGMT(w io.Writer, faults []*models.FaultSource) error {
	bw := bufio.NewWriter(w)
	for _, f := range faults {
		moment := f.MFD.MomentRateAbove(MomentMagnitudeCutoff)
		z, ok := logDensity(moment, models.TraceLength(f.Trace))
		if !ok {
			slog.Debug("fault source skipped in export", "label", f.Label.ID, "moment", moment)
			continue
		}

		fmt.Fprintf(bw, "> -Z %6.2e\n", z)
		for _, loc := range f.Trace {
			fmt.Fprintf(bw, rowFormat, loc.Longitude, loc.Latitude, loc.Depth)
		}
	}
	fmt.Fprintln(bw, ">")
	return bw.Flush()
}

func logDensity(moment, size float64) (float64, bool) {
	if moment <= 0 || size <= 0 {
		return 0, false
	}
	z := math.Log10(moment / size)
	if math.IsNaN(z) || math.IsInf(z, 0) {
		return 0, false
	}
	return z, true
}
