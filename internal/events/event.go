// Package events fans per-source compile outcomes out to live subscribers.
package events

import (
	"time"

	"github.com/mr1hm/go-seismic-sources/internal/compiler"
)

// Event describes what happened to one source block in a compile run.
type Event struct {
	RunID     string    `json:"run_id"`
	Seq       int       `json:"seq,omitempty"`   // position within the run, from 1
	Total     int       `json:"total,omitempty"` // outcomes in the run
	Label     string    `json:"label"`
	Kind      string    `json:"kind"`
	Status    string    `json:"status"`
	Reason    string    `json:"reason,omitempty"`
	Error     string    `json:"error,omitempty"`
	MinMag    float64   `json:"mmin,omitempty"`
	MaxMag    float64   `json:"mmax,omitempty"`
	Bins      int       `json:"bins,omitempty"`
	Coverage  int       `json:"coverage,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func FromOutcome(runID string, o compiler.Outcome) *Event {
	e := &Event{
		RunID:     runID,
		Label:     o.Label.ID,
		Kind:      o.Label.Kind.String(),
		Status:    o.Status.String(),
		Reason:    o.Reason,
		MinMag:    o.Grid.Min,
		MaxMag:    o.Grid.Max,
		Bins:      o.Grid.Count,
		Coverage:  o.Coverage,
		Timestamp: time.Now().UTC(),
	}
	if o.Err != nil {
		e.Error = o.Err.Error()
	}
	return e
}
