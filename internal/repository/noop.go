package repository

import (
	"context"

	"SalesCast/internal/domain/models"
	domrepo "SalesCast/internal/domain/repository"
)

// NoopRunStore discards runs. Used when storage.backend is "none".
type NoopRunStore struct{}

var _ domrepo.RunStore = NoopRunStore{}

func (NoopRunStore) Init(context.Context) error                         { return nil }
func (NoopRunStore) SaveRun(context.Context, *models.ForecastRun) error { return nil }
func (NoopRunStore) GetRun(context.Context, string) (*models.ForecastRun, error) {
	return nil, models.ErrRunNotFound
}
func (NoopRunStore) ListRuns(context.Context, models.RunFilter) ([]*models.ForecastRun, error) {
	return []*models.ForecastRun{}, nil
}
func (NoopRunStore) Health(context.Context) error { return nil }
func (NoopRunStore) Close() error                 { return nil }

// NoopPublisher drops run events. Used when Kafka is disabled.
type NoopPublisher struct{}

var _ domrepo.Publisher = NoopPublisher{}

func (NoopPublisher) PublishRun(context.Context, *models.ForecastRun) error { return nil }
func (NoopPublisher) Close() error                                          { return nil }
