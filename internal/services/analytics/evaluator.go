package analytics

import (
	"encoding/json"
	"math"

	"cloud.google.com/go/civil"

	"SalesCast/internal/domain/models"
)

// Band is an advisory reading of a MAPE value.
type Band string

const (
	BandExcellent  Band = "excellent"
	BandGood       Band = "good"
	BandAcceptable Band = "acceptable"
	BandPoor       Band = "poor"
	BandUndefined  Band = "undefined"
)

// Evaluation is the in-sample accuracy of a forecast.
type Evaluation struct {
	MAPE     float64 `json:"mape"`
	Joined   int     `json:"joined"`
	Used     int     `json:"used"`
	Excluded int     `json:"excluded"`
	Band     Band    `json:"band"`
}

// Defined reports whether MAPE could be computed.
func (e Evaluation) Defined() bool { return !IsUndefined(e.MAPE) }

// MarshalJSON writes an undefined MAPE as null.
func (e Evaluation) MarshalJSON() ([]byte, error) {
	type plain Evaluation
	out := struct {
		plain
		MAPE *float64 `json:"mape"`
	}{plain: plain(e)}
	if e.Defined() {
		v := e.MAPE
		out.MAPE = &v
	}
	return json.Marshal(out)
}

// MAPE joins actuals and forecast on date and averages |a-p|/a*100 over days with a > 0.
// It returns NaN when no day qualifies.
func MAPE(actuals []models.DailyPoint, forecast []models.ForecastPoint) float64 {
	return Evaluate(actuals, forecast).MAPE
}

// Evaluate is MAPE with join diagnostics and an advisory band.
func Evaluate(actuals []models.DailyPoint, forecast []models.ForecastPoint) Evaluation {
	predicted := make(map[civil.Date]float64, len(forecast))
	for _, p := range forecast {
		predicted[p.Date] = p.Yhat
	}

	var ev Evaluation
	sum := 0.0
	for _, a := range actuals {
		yhat, ok := predicted[a.Date]
		if !ok {
			continue
		}
		ev.Joined++
		if a.Value <= 0 {
			ev.Excluded++
			continue
		}
		sum += math.Abs(a.Value-yhat) / a.Value * 100
		ev.Used++
	}
	if ev.Used == 0 {
		ev.MAPE = math.NaN()
	} else {
		ev.MAPE = sum / float64(ev.Used)
	}
	ev.Band = Classify(ev.MAPE)
	return ev
}

// IsUndefined reports the NaN sentinel returned when nothing overlaps.
func IsUndefined(mape float64) bool { return math.IsNaN(mape) }

// Classify maps a MAPE percentage to its band.
func Classify(mape float64) Band {
	switch {
	case math.IsNaN(mape):
		return BandUndefined
	case mape < 10:
		return BandExcellent
	case mape < 20:
		return BandGood
	case mape < 50:
		return BandAcceptable
	}
	return BandPoor
}
