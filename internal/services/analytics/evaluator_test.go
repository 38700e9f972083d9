package analytics

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"

	"SalesCast/internal/domain/models"
)

func d(n int) civil.Date { return civil.Date{Year: 2024, Month: time.January, Day: 1}.AddDays(n) }

func actuals(vals ...float64) []models.DailyPoint {
	out := make([]models.DailyPoint, len(vals))
	for i, v := range vals {
		out[i] = models.DailyPoint{Date: d(i), Value: v}
	}
	return out
}

func predictions(vals ...float64) []models.ForecastPoint {
	out := make([]models.ForecastPoint, len(vals))
	for i, v := range vals {
		out[i] = models.ForecastPoint{Date: d(i), Yhat: v, Lower: v - 1, Upper: v + 1}
	}
	return out
}

func TestMAPEExcludesZeroActuals(t *testing.T) {
	ev := Evaluate(actuals(100, 0, 50), predictions(110, 999, 50))
	assert.InDelta(t, 5.0, ev.MAPE, 1e-9)
	assert.Equal(t, 3, ev.Joined)
	assert.Equal(t, 2, ev.Used)
	assert.Equal(t, 1, ev.Excluded)
	assert.Equal(t, BandExcellent, ev.Band)
}

func TestMAPEExactForecastIsZero(t *testing.T) {
	a := actuals(3, 7.5, 0, 12)
	assert.Equal(t, 0.0, MAPE(a, predictions(3, 7.5, 42, 12)))
}

func TestMAPEInnerJoin(t *testing.T) {
	a := actuals(100, 200)
	f := []models.ForecastPoint{
		{Date: d(1), Yhat: 100},
		{Date: d(30), Yhat: 1},
	}
	ev := Evaluate(a, f)
	assert.Equal(t, 1, ev.Joined)
	assert.InDelta(t, 50.0, ev.MAPE, 1e-9)
	assert.Equal(t, BandPoor, ev.Band)
}

func TestMAPEUndefined(t *testing.T) {
	assert.True(t, IsUndefined(MAPE(nil, nil)))
	assert.True(t, IsUndefined(MAPE(actuals(1, 2), []models.ForecastPoint{{Date: d(10), Yhat: 1}})))

	ev := Evaluate(actuals(0, -1), predictions(1, 1))
	assert.True(t, math.IsNaN(ev.MAPE))
	assert.False(t, ev.Defined())
	assert.Equal(t, BandUndefined, ev.Band)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		in   float64
		want Band
	}{
		{0, BandExcellent},
		{9.99, BandExcellent},
		{10, BandGood},
		{19.9, BandGood},
		{20, BandAcceptable},
		{49.9, BandAcceptable},
		{50, BandPoor},
		{250, BandPoor},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.in), tt.in)
	}
}

func TestEvaluationJSONUndefined(t *testing.T) {
	b, err := json.Marshal(Evaluate(nil, nil))
	assert.NoError(t, err)
	assert.JSONEq(t, `{"mape":null,"joined":0,"used":0,"excluded":0,"band":"undefined"}`, string(b))
}
