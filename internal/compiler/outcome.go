package compiler

import (
	"github.com/mr1hm/go-seismic-sources/internal/mfd"
	"github.com/mr1hm/go-seismic-sources/internal/models"
)

// Status is the state of one source block. Every flushed block ends in
// one of the terminal states after StatusPending.
type Status int

const (
	StatusPending Status = iota // not flushed yet
	StatusDropped               // too few or too weak observations
	StatusFailed                // synthesis or geometry error
	StatusCompiled
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusDropped:
		return "dropped"
	case StatusFailed:
		return "failed"
	case StatusCompiled:
		return "compiled"
	default:
		return "unknown"
	}
}

// Outcome is the per-source result of a flush.
type Outcome struct {
	Seq      int
	Label    models.SourceLabel
	Line     int
	Status   Status
	Reason   string // why a source was dropped
	Grid     mfd.Grid
	Coverage int // bin assignments made by the synthesizer
	Source   models.Source
	Err      error
}
