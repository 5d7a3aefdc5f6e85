package models

import (
	"time"

	"github.com/mr1hm/go-seismic-sources/internal/mfd"
)

// Run summarizes one compile of a catalog.
type Run struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Strategy  string    `json:"strategy"`
	Records   int       `json:"records"`
	Compiled  int       `json:"compiled"`
	Dropped   int       `json:"dropped"`
	Failed    int       `json:"failed"`
	CreatedAt time.Time `json:"created_at"`
}

// StoredSource is the persisted, flattened form of a compiled source.
// Fault-only fields are zero for area sources.
type StoredSource struct {
	ID           int64      `json:"id"`
	RunID        string     `json:"run_id"`
	Index        int        `json:"index"`
	Label        string     `json:"label"`
	Kind         SourceKind `json:"-"`
	MaxMagnitude float64    `json:"max_magnitude"`
	Dip          float64    `json:"dip,omitempty"`
	Rake         float64    `json:"rake,omitempty"`
	UpperDepth   float64    `json:"upper_depth"`
	LowerDepth   float64    `json:"lower_depth,omitempty"`
	Vertices     []Location `json:"-"`
}

// StoredMFD is one persisted distribution with its mechanism.
type StoredMFD struct {
	Mechanism FocalMechanism
	Anchor    float64
	Width     float64
	Rates     []float64
}

func (m StoredMFD) Dist() mfd.MagFreqDist {
	return mfd.New(m.Anchor, m.Width, m.Rates)
}

// Flatten converts a compiled source into its stored form and
// distributions.
func Flatten(runID string, s Source) (StoredSource, []StoredMFD) {
	b := s.Base()
	st := StoredSource{
		RunID:        runID,
		Index:        b.Index,
		Label:        b.Label.ID,
		Kind:         s.Kind(),
		MaxMagnitude: s.MaxMagnitude(),
	}

	var dists []StoredMFD
	switch src := s.(type) {
	case *AreaSource:
		st.Vertices = src.Polygon
		st.UpperDepth = src.AveHypoDepth
		for _, m := range src.MFDs {
			dists = append(dists, storedMFD(m.Mechanism, m.MFD))
		}
	case *FaultSource:
		st.Vertices = src.Trace
		st.Dip = src.Dip
		st.Rake = src.Rake
		st.UpperDepth = src.UpperDepth
		st.LowerDepth = src.LowerDepth
		mech := FocalMechanism{Dip: src.Dip, Rake: src.Rake}
		dists = append(dists, storedMFD(mech, src.MFD))
	}
	return st, dists
}

func storedMFD(mech FocalMechanism, d mfd.MagFreqDist) StoredMFD {
	return StoredMFD{Mechanism: mech, Anchor: d.Anchor(), Width: d.Width(), Rates: d.Rates()}
}
