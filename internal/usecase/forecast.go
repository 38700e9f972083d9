package usecase

import (
	"context"
	"fmt"

	"SalesCast/internal/domain/models"
	domsvc "SalesCast/internal/domain/service"
	applogger "SalesCast/pkg/logger"
)

const (
	defaultMinPoints  = 100
	defaultTailPoints = 5
)

// ForecastOptions configures one fit-and-forecast call.
type ForecastOptions struct {
	Params          models.ModelParams
	Horizon         models.Horizon
	CountryHolidays string
	CustomHolidays  []models.CustomHoliday
	MinPoints       int
	TailPoints      int
	Scope           string
}

// ForecastResult holds a fitted model and its predictions over history and horizon.
type ForecastResult struct {
	Model   domsvc.ForecastModel
	Points  []models.ForecastPoint
	Summary models.ForecastSummary
}

// Forecaster wraps a forecasting engine with the input checks and error taxonomy of the
// pipeline.
type Forecaster struct {
	engine domsvc.ForecastEngine
	log    *applogger.Logger
}

func NewForecaster(engine domsvc.ForecastEngine, log *applogger.Logger) *Forecaster {
	return &Forecaster{engine: engine, log: log}
}

func (f *Forecaster) EngineName() string { return f.engine.Name() }

// FitAndForecast fits a model on series and predicts over history plus the horizon.
// Zero MinPoints and TailPoints fall back to 100 and 5.
// Series shorter than MinPoints fail with models.ErrInsufficientData without reaching
// the engine. A rejected holiday calendar or custom holiday is logged and fitting
// continues; engine failures are returned as *models.FitError.
func (f *Forecaster) FitAndForecast(ctx context.Context, series []models.DailyPoint, opts ForecastOptions) (*ForecastResult, error) {
	minPoints := opts.MinPoints
	if minPoints <= 0 {
		minPoints = defaultMinPoints
	}
	if len(series) < minPoints {
		return nil, fmt.Errorf("forecast %s: %d points, need %d: %w", opts.Scope, len(series), minPoints, models.ErrInsufficientData)
	}
	if !opts.Horizon.Freq.Valid() {
		return nil, &models.FitError{Scope: opts.Scope, Err: fmt.Errorf("unknown frequency %q", opts.Horizon.Freq)}
	}

	model, err := f.engine.NewModel(opts.Params)
	if err != nil {
		return nil, &models.FitError{Scope: opts.Scope, Err: err}
	}

	if opts.CountryHolidays != "" {
		if err := model.AddCountryHolidays(opts.CountryHolidays); err != nil {
			f.log.Warn("forecast.holidays skipped",
				applogger.String("scope", opts.Scope),
				applogger.String("region", opts.CountryHolidays),
				applogger.Error(err),
			)
		}
	}
	for _, h := range opts.CustomHolidays {
		if err := model.AddHolidays(h.Name, h.Dates); err != nil {
			f.log.Warn("forecast.custom_holiday skipped",
				applogger.String("scope", opts.Scope),
				applogger.String("holiday", h.Name),
				applogger.Error(err),
			)
		}
	}

	if err := model.Fit(ctx, series); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &models.FitError{Scope: opts.Scope, Err: err}
	}

	dates, err := model.MakeFutureDates(opts.Horizon.Periods, opts.Horizon.Freq)
	if err != nil {
		return nil, &models.FitError{Scope: opts.Scope, Err: fmt.Errorf("future dates: %w", err)}
	}
	points, err := model.Predict(ctx, dates)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &models.FitError{Scope: opts.Scope, Err: fmt.Errorf("predict: %w", err)}
	}

	tail := opts.TailPoints
	if tail <= 0 {
		tail = defaultTailPoints
	}
	summary := models.Summarize(points, series[len(series)-1].Date, tail)
	f.log.Info("forecast built",
		applogger.String("scope", opts.Scope),
		applogger.String("engine", f.engine.Name()),
		applogger.Int("history_points", summary.HistoryPoints),
		applogger.Int("future_points", summary.FuturePoints),
		applogger.Float64("future_total", summary.FutureTotal),
	)
	return &ForecastResult{Model: model, Points: points, Summary: summary}, nil
}
