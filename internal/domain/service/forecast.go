package service

import (
	"context"

	"cloud.google.com/go/civil"

	"SalesCast/internal/domain/models"
)

// ForecastEngine creates forecasting models. Implementations wrap an in-process
// decomposition or a remote forecasting service.
type ForecastEngine interface {
	Name() string
	NewModel(params models.ModelParams) (ForecastModel, error)
}

// ForecastModel is a single fitted model. Holidays must be added before Fit.
type ForecastModel interface {
	AddCountryHolidays(region string) error
	// AddHolidays registers a named event on the given dates. Repeated calls with
	// the same name extend its dates.
	AddHolidays(name string, dates []civil.Date) error
	Fit(ctx context.Context, series []models.DailyPoint) error
	// MakeFutureDates returns the history dates followed by periods dates at freq.
	MakeFutureDates(periods int, freq models.Frequency) ([]civil.Date, error)
	Predict(ctx context.Context, dates []civil.Date) ([]models.ForecastPoint, error)
}
