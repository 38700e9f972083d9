package analytics

import (
	"context"
	"math"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/rickar/cal/v2/us"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SalesCast/internal/domain/models"
)

func syntheticSeries(n int, f func(i int) float64) []models.DailyPoint {
	start := civil.Date{Year: 2023, Month: time.January, Day: 2}
	out := make([]models.DailyPoint, n)
	for i := range out {
		out[i] = models.DailyPoint{Date: start.AddDays(i), Value: f(i)}
	}
	return out
}

func fitModel(t *testing.T, params models.ModelParams, series []models.DailyPoint) ([]models.ForecastPoint, []civil.Date) {
	t.Helper()
	m, err := NewSeasonalEngine().NewModel(params)
	require.NoError(t, err)
	require.NoError(t, m.Fit(context.Background(), series))
	dates, err := m.MakeFutureDates(30, models.FreqDaily)
	require.NoError(t, err)
	points, err := m.Predict(context.Background(), dates)
	require.NoError(t, err)
	return points, dates
}

func TestSeasonalEngineAdditiveRecoversSignal(t *testing.T) {
	series := syntheticSeries(400, func(i int) float64 {
		jitter := 15 * math.Cos(float64(i*i%13))
		return 1000 + 2*float64(i) + 200*math.Sin(2*math.Pi*float64(i)/7) + jitter
	})
	params := models.DefaultModelParams()
	params.SeasonalityMode = models.SeasonalityAdditive

	points, dates := fitModel(t, params, series)
	require.Len(t, dates, 430)
	assert.Equal(t, series[len(series)-1].Date.AddDays(30), dates[len(dates)-1])
	assert.Less(t, MAPE(series, points), 5.0)

	for _, p := range points {
		assert.LessOrEqual(t, p.Lower, p.Yhat)
		assert.GreaterOrEqual(t, p.Upper, p.Yhat)
	}
	inSample := points[len(series)-1].Upper - points[len(series)-1].Lower
	future := points[len(points)-1].Upper - points[len(points)-1].Lower
	assert.Greater(t, future, inSample)
}

func TestSeasonalEngineMultiplicative(t *testing.T) {
	series := syntheticSeries(365, func(i int) float64 {
		return (500 + float64(i)) * (1 + 0.2*math.Sin(2*math.Pi*float64(i)/7))
	})
	points, _ := fitModel(t, models.DefaultModelParams(), series)
	assert.Less(t, MAPE(series, points), 10.0)
}

func TestSeasonalEngineHolidays(t *testing.T) {
	series := syntheticSeries(200, func(i int) float64 { return 100 })
	m, err := NewSeasonalEngine().NewModel(models.DefaultModelParams())
	require.NoError(t, err)

	assert.ErrorIs(t, m.AddCountryHolidays("XX"), ErrUnknownHolidayRegion)
	require.NoError(t, m.AddCountryHolidays("ru"))
	require.NoError(t, m.Fit(context.Background(), series))
	assert.ErrorIs(t, m.AddCountryHolidays("RU"), errAlreadyFitted)

	sm := m.(*seasonalModel)
	assert.Contains(t, sm.holidays, "День защитника Отечества")
	assert.NotContains(t, sm.holidays, "День народного единства")
}

func TestSeasonalEngineCustomHolidays(t *testing.T) {
	var promo []civil.Date
	onPromo := map[int]bool{}
	for i := 15; i < 400; i += 30 {
		onPromo[i] = true
	}
	series := syntheticSeries(400, func(i int) float64 {
		if onPromo[i] {
			return 400
		}
		return 100
	})
	for i := range onPromo {
		promo = append(promo, series[i].Date)
	}
	future := series[len(series)-1].Date.AddDays(10)
	promo = append(promo, future)

	params := models.DefaultModelParams()
	params.SeasonalityMode = models.SeasonalityAdditive
	m, err := NewSeasonalEngine().NewModel(params)
	require.NoError(t, err)

	assert.ErrorIs(t, m.AddHolidays(" ", promo), ErrInvalidHoliday)
	assert.ErrorIs(t, m.AddHolidays("promo", nil), ErrInvalidHoliday)
	assert.ErrorIs(t, m.AddHolidays("promo", []civil.Date{{Year: 2024, Month: time.February, Day: 30}}), ErrInvalidHoliday)
	require.NoError(t, m.AddHolidays("promo", promo[:5]))
	require.NoError(t, m.AddHolidays("promo", promo[3:]))
	require.NoError(t, m.AddHolidays("launch", []civil.Date{future.AddDays(1)}))
	require.NoError(t, m.Fit(context.Background(), series))
	assert.ErrorIs(t, m.AddHolidays("promo", promo), errAlreadyFitted)

	sm := m.(*seasonalModel)
	assert.Equal(t, []string{"promo"}, sm.holidays, "events outside the history get no column")
	assert.Equal(t, []string{"promo"}, sm.custom[promo[4]])

	points, err := m.Predict(context.Background(), []civil.Date{future.AddDays(-1), future})
	require.NoError(t, err)
	assert.Greater(t, points[1].Yhat-points[0].Yhat, 150.0)
}

func TestSeasonalEngineErrors(t *testing.T) {
	e := NewSeasonalEngine()

	bad := models.DefaultModelParams()
	bad.SeasonalityMode = "exponential"
	_, err := e.NewModel(bad)
	assert.Error(t, err)

	bad = models.DefaultModelParams()
	bad.ChangepointPriorScale = 0
	_, err = e.NewModel(bad)
	assert.Error(t, err)

	m, err := e.NewModel(models.DefaultModelParams())
	require.NoError(t, err)
	_, err = m.Predict(context.Background(), nil)
	assert.ErrorIs(t, err, errNotFitted)
	_, err = m.MakeFutureDates(1, models.FreqDaily)
	assert.ErrorIs(t, err, errNotFitted)

	assert.Error(t, m.Fit(context.Background(), syntheticSeries(1, func(int) float64 { return 1 })))
	assert.Error(t, m.Fit(context.Background(), syntheticSeries(5, func(int) float64 { return math.NaN() })))

	unsorted := syntheticSeries(5, func(int) float64 { return 1 })
	unsorted[2], unsorted[3] = unsorted[3], unsorted[2]
	assert.Error(t, m.Fit(context.Background(), unsorted))
}

func TestSeasonalEngineZeroSeries(t *testing.T) {
	points, _ := fitModel(t, models.DefaultModelParams(), syntheticSeries(120, func(int) float64 { return 0 }))
	for _, p := range points {
		assert.InDelta(t, 0, p.Yhat, 1e-9)
	}
}

func TestFutureDates(t *testing.T) {
	jan30 := civil.Date{Year: 2024, Month: time.January, Day: 30}
	jan31 := civil.Date{Year: 2024, Month: time.January, Day: 31}

	got, err := FutureDates([]civil.Date{jan30}, 2, models.FreqWeekly)
	require.NoError(t, err)
	assert.Equal(t, []civil.Date{jan30, jan30.AddDays(7), jan30.AddDays(14)}, got)

	got, err = FutureDates([]civil.Date{jan30}, 2, models.FreqMonthly)
	require.NoError(t, err)
	assert.Equal(t, []civil.Date{jan30, jan31, {Year: 2024, Month: time.February, Day: 29}}, got)

	got, err = FutureDates([]civil.Date{jan31}, 2, models.FreqMonthly)
	require.NoError(t, err)
	assert.Equal(t, []civil.Date{jan31, {Year: 2024, Month: time.February, Day: 29}, {Year: 2024, Month: time.March, Day: 31}}, got)

	got, err = FutureDates([]civil.Date{jan30}, 0, models.FreqDaily)
	require.NoError(t, err)
	assert.Equal(t, []civil.Date{jan30}, got)

	_, err = FutureDates(nil, 1, models.FreqDaily)
	assert.Error(t, err)
	_, err = FutureDates([]civil.Date{jan30}, 1, "H")
	assert.Error(t, err)
}

func TestHolidayCalendars(t *testing.T) {
	usCal, err := LookupHolidays("us ")
	require.NoError(t, err)
	h := usCal(2024)
	assert.Equal(t, us.ThanksgivingDay.Name, h[civil.Date{Year: 2024, Month: time.November, Day: 28}])
	assert.Equal(t, us.MemorialDay.Name, h[civil.Date{Year: 2024, Month: time.May, Day: 27}])
	assert.Equal(t, us.MlkDay.Name, h[civil.Date{Year: 2024, Month: time.January, Day: 15}])

	// July 4th 2026 is a Saturday: the holiday is also observed on Friday.
	h = usCal(2026)
	assert.Equal(t, us.IndependenceDay.Name, h[civil.Date{Year: 2026, Month: time.July, Day: 4}])
	assert.Equal(t, us.IndependenceDay.Name, h[civil.Date{Year: 2026, Month: time.July, Day: 3}])

	assert.NotContains(t, usCal(2020), civil.Date{Year: 2020, Month: time.June, Day: 19})
	assert.Contains(t, usCal(2021), civil.Date{Year: 2021, Month: time.June, Day: 19})

	ru, err := LookupHolidays("RU")
	require.NoError(t, err)
	r := ru(2024)
	assert.Len(t, r, 14)
	assert.Equal(t, "День Победы", r[civil.Date{Year: 2024, Month: time.May, Day: 9}])
	assert.Equal(t, "Новогодние каникулы", r[civil.Date{Year: 2024, Month: time.January, Day: 8}])

	_, err = LookupHolidays("XX")
	assert.ErrorIs(t, err, ErrUnknownHolidayRegion)
}
