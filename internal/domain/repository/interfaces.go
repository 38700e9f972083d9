package repository

import (
	"context"

	"SalesCast/internal/domain/models"
)

// DatasetSource reads a raw transaction table.
type DatasetSource interface {
	Load(ctx context.Context) (*models.RawTable, error)
}

// RunStore persists forecast runs and their points.
type RunStore interface {
	Init(ctx context.Context) error // ensure tables
	SaveRun(ctx context.Context, run *models.ForecastRun) error
	GetRun(ctx context.Context, id string) (*models.ForecastRun, error)
	ListRuns(ctx context.Context, filter models.RunFilter) ([]*models.ForecastRun, error)
	Health(ctx context.Context) error
	Close() error
}

type Publisher interface {
	PublishRun(ctx context.Context, run *models.ForecastRun) error
	Close() error
}

type Metrics interface {
	RecordRowsRemoved(step string, n int)
	RecordStage(stage string, seconds float64)
	RecordMAPE(scope string, mape float64)
	RecordError(kind string)
}
