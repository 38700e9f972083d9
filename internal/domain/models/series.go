package models

import (
	"cloud.google.com/go/civil"
)

// DailyPoint is one day of an aggregated series.
type DailyPoint struct {
	Date  civil.Date `json:"date"`
	Value float64    `json:"value"`
}

// ForecastPoint is a model estimate for a single date.
type ForecastPoint struct {
	Date  civil.Date `json:"date"`
	Yhat  float64    `json:"yhat"`
	Lower float64    `json:"yhat_lower"`
	Upper float64    `json:"yhat_upper"`
}

// Frequency is the cadence of future dates.
type Frequency string

const (
	FreqDaily   Frequency = "D"
	FreqWeekly  Frequency = "W"
	FreqMonthly Frequency = "M"
)

func (f Frequency) Valid() bool {
	switch f {
	case FreqDaily, FreqWeekly, FreqMonthly:
		return true
	}
	return false
}

type SeasonalityMode string

const (
	SeasonalityAdditive       SeasonalityMode = "additive"
	SeasonalityMultiplicative SeasonalityMode = "multiplicative"
)

// ModelParams configures a forecasting model.
type ModelParams struct {
	SeasonalityMode       SeasonalityMode `yaml:"seasonality_mode" json:"seasonality_mode" default:"multiplicative" validate:"oneof=additive multiplicative"`
	YearlySeasonality     bool            `yaml:"yearly_seasonality" json:"yearly_seasonality" default:"true"`
	WeeklySeasonality     bool            `yaml:"weekly_seasonality" json:"weekly_seasonality" default:"true"`
	DailySeasonality      bool            `yaml:"daily_seasonality" json:"daily_seasonality"`
	ChangepointPriorScale float64         `yaml:"changepoint_prior_scale" json:"changepoint_prior_scale" default:"0.05" validate:"gt=0"`
	SeasonalityPriorScale float64         `yaml:"seasonality_prior_scale" json:"seasonality_prior_scale" default:"10" validate:"gt=0"`
	HolidaysPriorScale    float64         `yaml:"holidays_prior_scale" json:"holidays_prior_scale" default:"10" validate:"gt=0"`
	IntervalWidth         float64         `yaml:"interval_width" json:"interval_width" default:"0.8" validate:"gt=0,lt=1"`
}

// DefaultModelParams mirrors the defaults of the configuration file.
func DefaultModelParams() ModelParams {
	return ModelParams{
		SeasonalityMode:       SeasonalityMultiplicative,
		YearlySeasonality:     true,
		WeeklySeasonality:     true,
		ChangepointPriorScale: 0.05,
		SeasonalityPriorScale: 10,
		HolidaysPriorScale:    10,
		IntervalWidth:         0.8,
	}
}

// CustomHoliday is a named event, such as a promotion, that recurs on the listed
// dates. Each name gets its own effect alongside the country holidays.
type CustomHoliday struct {
	Name  string       `yaml:"name" json:"name" validate:"required"`
	Dates []civil.Date `yaml:"dates" json:"dates" validate:"required,min=1"`
}

// Horizon is how far past the history a forecast reaches.
type Horizon struct {
	Periods int       `yaml:"periods" json:"periods" default:"90" validate:"gte=0"`
	Freq    Frequency `yaml:"freq" json:"freq" default:"D" validate:"oneof=D W M"`
}

// ForecastSummary describes the out-of-sample part of a forecast.
type ForecastSummary struct {
	HistoryPoints int             `json:"history_points"`
	FuturePoints  int             `json:"future_points"`
	FutureTotal   float64         `json:"future_total"`
	Tail          []ForecastPoint `json:"tail"`
}

// Summarize splits points at lastHistory and keeps the final tail points.
func Summarize(points []ForecastPoint, lastHistory civil.Date, tail int) ForecastSummary {
	var s ForecastSummary
	for _, p := range points {
		if p.Date.After(lastHistory) {
			s.FuturePoints++
			s.FutureTotal += p.Yhat
		} else {
			s.HistoryPoints++
		}
	}
	if tail > len(points) {
		tail = len(points)
	}
	if tail > 0 {
		s.Tail = append([]ForecastPoint(nil), points[len(points)-tail:]...)
	}
	return s
}
