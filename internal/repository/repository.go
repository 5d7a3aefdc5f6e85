package repository

import (
	"context"
	"errors"

	"github.com/mr1hm/go-seismic-sources/internal/models"
)

var ErrNotFound = errors.New("not found")

type Filter struct {
	Limit           int
	Offset          int
	RunID           string
	Kind            *models.SourceKind
	MinMaxMagnitude *float64 // sources whose maximum magnitude is at least this
}

type CatalogRepository interface {
	SaveRun(ctx context.Context, run *models.Run, cat *models.Catalog) error
	GetRun(ctx context.Context, id string) (*models.Run, error)
	ListRuns(ctx context.Context, limit int) ([]models.Run, error)
	ListSources(ctx context.Context, opts Filter) ([]models.StoredSource, error)
	GetMFDs(ctx context.Context, sourceID int64) ([]models.StoredMFD, error)
}
