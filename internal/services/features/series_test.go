package features

import (
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SalesCast/internal/domain/models"
)

func day(d int) civil.Date { return civil.Date{Year: 2024, Month: time.March, Day: d} }

func tableOf(records ...models.Record) *models.Table {
	s := models.DefaultSchema()
	return &models.Table{
		Schema:  s,
		Columns: append(s.BaseColumns(), s.FeatureColumns()...),
		Records: records,
	}
}

func rec(d civil.Date, category string, qty int64, amount string) models.Record {
	return models.Record{
		SaleDate: models.NewNullDate(d),
		Category: category,
		Quantity: qty,
		Amount:   decimal.RequireFromString(amount),
	}
}

func TestBuildDailySeriesFillsGaps(t *testing.T) {
	table := tableOf(
		rec(day(3), "A", 1, "30"),
		rec(day(1), "A", 1, "10"),
		rec(day(1), "B", 2, "5.5"),
	)
	series, err := BuildDailySeries(table, "")
	require.NoError(t, err)
	require.Len(t, series, 3)
	assert.Equal(t, []models.DailyPoint{
		{Date: day(1), Value: 15.5},
		{Date: day(2), Value: 0},
		{Date: day(3), Value: 30},
	}, series)
}

func TestBuildDailySeriesQuantityTarget(t *testing.T) {
	table := tableOf(rec(day(1), "A", 4, "1"), rec(day(2), "A", 6, "1"))
	series, err := BuildDailySeries(table, "Кол-во")
	require.NoError(t, err)
	assert.Equal(t, []float64{4, 6}, Values(series))
}

func TestBuildDailySeriesLengthInvariant(t *testing.T) {
	start := civil.Date{Year: 2023, Month: time.December, Day: 20}
	var records []models.Record
	for _, offset := range []int{0, 5, 11, 40, 40, 73} {
		records = append(records, rec(start.AddDays(offset), "A", 1, "1"))
	}
	series, err := BuildDailySeries(tableOf(records...), "")
	require.NoError(t, err)

	assert.Len(t, series, 74)
	seen := map[civil.Date]bool{}
	for i, p := range series {
		assert.Equal(t, start.AddDays(i), p.Date)
		assert.False(t, seen[p.Date])
		seen[p.Date] = true
	}
	assert.Equal(t, 2.0, series[40].Value)
}

func TestBuildDailySeriesIgnoresNullDates(t *testing.T) {
	table := tableOf(rec(day(5), "A", 1, "1"), models.Record{Amount: decimal.NewFromInt(99)})
	series, err := BuildDailySeries(table, "")
	require.NoError(t, err)
	assert.Equal(t, []models.DailyPoint{{Date: day(5), Value: 1}}, series)
}

func TestBuildDailySeriesEmpty(t *testing.T) {
	series, err := BuildDailySeries(tableOf(), "")
	require.NoError(t, err)
	assert.Empty(t, series)
}

func TestBuildDailySeriesInsufficientColumns(t *testing.T) {
	_, err := BuildDailySeries(nil, "")
	assert.ErrorIs(t, err, models.ErrInsufficientColumns)

	noDate := tableOf(rec(day(1), "A", 1, "1"))
	noDate.Columns = noDate.Columns[1:]
	_, err = BuildDailySeries(noDate, "")
	assert.ErrorIs(t, err, models.ErrInsufficientColumns)

	_, err = BuildDailySeries(tableOf(rec(day(1), "A", 1, "1")), "Прибыль")
	assert.ErrorIs(t, err, models.ErrInsufficientColumns)

	_, err = BuildDailySeries(tableOf(rec(day(1), "A", 1, "1")), "Регион")
	assert.ErrorIs(t, err, models.ErrInsufficientColumns)
}

func TestCategories(t *testing.T) {
	table := tableOf(rec(day(1), "B", 1, "1"), rec(day(1), "A", 1, "1"), rec(day(2), "B", 1, "1"), rec(day(2), "", 1, "1"))
	assert.Equal(t, []string{"A", "B"}, Categories(table))
	assert.Equal(t, 2, FilterCategory(table, "B").Len())
	assert.Equal(t, 4, table.Len())
}
