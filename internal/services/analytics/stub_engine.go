package analytics

import (
	"context"

	"cloud.google.com/go/civil"

	"SalesCast/internal/domain/models"
	domsvc "SalesCast/internal/domain/service"
)

// StubEngine is a deterministic engine: every prediction is the mean of the fitted
// history. The error fields let callers exercise failure paths; Holidays records
// the custom holiday names models received.
type StubEngine struct {
	FitErr     error
	HolidayErr error
	Fits       int
	Holidays   []string
}

var _ domsvc.ForecastEngine = (*StubEngine)(nil)

func (e *StubEngine) Name() string { return "stub" }

func (e *StubEngine) NewModel(params models.ModelParams) (domsvc.ForecastModel, error) {
	if err := ValidateParams(params); err != nil {
		return nil, err
	}
	return &stubModel{engine: e}, nil
}

type stubModel struct {
	engine  *StubEngine
	history []civil.Date
	mean    float64
}

func (m *stubModel) AddCountryHolidays(string) error { return m.engine.HolidayErr }

func (m *stubModel) AddHolidays(name string, dates []civil.Date) error {
	if err := checkHoliday(name, dates); err != nil {
		return err
	}
	m.engine.Holidays = append(m.engine.Holidays, name)
	return nil
}

func (m *stubModel) Fit(_ context.Context, series []models.DailyPoint) error {
	m.engine.Fits++
	if m.engine.FitErr != nil {
		return m.engine.FitErr
	}
	sum := 0.0
	m.history = m.history[:0]
	for _, p := range series {
		sum += p.Value
		m.history = append(m.history, p.Date)
	}
	if len(series) > 0 {
		m.mean = sum / float64(len(series))
	}
	return nil
}

func (m *stubModel) MakeFutureDates(periods int, freq models.Frequency) ([]civil.Date, error) {
	if len(m.history) == 0 {
		return nil, errNotFitted
	}
	return FutureDates(m.history, periods, freq)
}

func (m *stubModel) Predict(_ context.Context, dates []civil.Date) ([]models.ForecastPoint, error) {
	out := make([]models.ForecastPoint, len(dates))
	for i, d := range dates {
		out[i] = models.ForecastPoint{Date: d, Yhat: m.mean, Lower: m.mean, Upper: m.mean}
	}
	return out, nil
}
