package reporting

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"SalesCast/internal/domain/models"
	"SalesCast/internal/services/cleaning"
)

func rec(date civil.Date, client, region, product, category string, qty int64, amount string) models.Record {
	return models.Record{
		SaleDate: models.NewNullDate(date),
		Client:   client,
		Region:   region,
		Product:  product,
		Category: category,
		Quantity: qty,
		Amount:   decimal.RequireFromString(amount),
		Features: cleaning.DeriveFeatures(date),
	}
}

func day(y int, m time.Month, d int) civil.Date { return civil.Date{Year: y, Month: m, Day: d} }

func sampleTable() *models.Table {
	s := models.DefaultSchema()
	return &models.Table{
		Schema:  s,
		Columns: append(s.BaseColumns(), s.FeatureColumns()...),
		Records: []models.Record{
			rec(day(2024, 1, 1), "К1", "Москва", "A", "Кат 1", 2, "100"), // Monday
			rec(day(2024, 1, 2), "К2", "Тула", "A", "Кат 2", 1, "300"),
			rec(day(2024, 2, 5), "К1", "Москва", "B", "Кат 1", 1, "200"), // Monday
			rec(day(2024, 3, 6), "К3", "Тула", "C", "Кат 3", 4, "400"),
		},
	}
}

func TestBasicStats(t *testing.T) {
	rep := NewReporter().Build(sampleTable(), nil)
	b := rep.Basic
	assert.Equal(t, 4, b.Rows)
	assert.Equal(t, "1000", b.TotalRevenue.String())
	assert.Equal(t, int64(8), b.TotalQuantity)
	assert.Equal(t, "125", b.AverageCheck.String())
	assert.Equal(t, 3, b.UniqueCategories)
	assert.Equal(t, 3, b.UniqueProducts)
	assert.Equal(t, 2, b.UniqueRegions)
	assert.Equal(t, 3, b.UniqueClients)
	assert.Equal(t, day(2024, 1, 1), b.FirstDate.Date)
	assert.Equal(t, day(2024, 3, 6), b.LastDate.Date)
}

func TestRevenueByCategoryFoldsOther(t *testing.T) {
	rep := NewReporter(WithTopN(2, 0, 0)).Build(sampleTable(), nil)
	require.Len(t, rep.RevenueByCategory, 3)

	assert.Equal(t, "Кат 3", rep.RevenueByCategory[0].Name)
	assert.Equal(t, "400", rep.RevenueByCategory[0].Value.String())
	assert.Equal(t, "Кат 1", rep.RevenueByCategory[1].Name)
	assert.Equal(t, "300", rep.RevenueByCategory[1].Value.String())
	other := rep.RevenueByCategory[2]
	assert.Equal(t, models.OtherLabel, other.Name)
	assert.Equal(t, "300", other.Value.String())
	assert.InDelta(t, 30.0, other.Share, 1e-9)

	require.Len(t, rep.QuantityByCategory, 3)
	assert.Equal(t, "Кат 3", rep.QuantityByCategory[0].Name)
	assert.Equal(t, "4", rep.QuantityByCategory[0].Value.String())
}

func TestAvgCheckAndProducts(t *testing.T) {
	rep := NewReporter().Build(sampleTable(), nil)

	require.Len(t, rep.AvgCheckByRegion, 2)
	assert.Equal(t, "Тула", rep.AvgCheckByRegion[0].Name)
	assert.Equal(t, "350", rep.AvgCheckByRegion[0].Value.String())
	assert.Equal(t, "150", rep.AvgCheckByRegion[1].Value.String())

	require.Len(t, rep.TopProducts, 3)
	assert.Equal(t, "A", rep.TopProducts[0].Name)
	assert.Equal(t, 2, rep.TopProducts[0].Count)
}

func TestTopProductsLimit(t *testing.T) {
	s := models.DefaultSchema()
	table := &models.Table{Schema: s, Columns: s.BaseColumns()}
	for i := 0; i < 20; i++ {
		table.Records = append(table.Records, rec(day(2024, 1, 1), "К", "Р", fmt.Sprintf("П%02d", i), "К", 1, "1"))
	}
	rep := NewReporter().Build(table, nil)
	assert.Len(t, rep.TopProducts, 15)
	assert.Equal(t, "П00", rep.TopProducts[0].Name)
}

func TestMonthlyTrend(t *testing.T) {
	rep := NewReporter().Build(sampleTable(), nil)
	m := rep.Monthly
	require.NotNil(t, m)
	require.Len(t, m.Months, 3)

	assert.Nil(t, m.Months[0].Change)
	require.NotNil(t, m.Months[1].Change)
	assert.InDelta(t, -50.0, *m.Months[1].Change, 1e-9)
	require.NotNil(t, m.Months[2].Change)
	assert.InDelta(t, 100.0, *m.Months[2].Change, 1e-9)
	assert.InDelta(t, 40.0, m.Months[0].Share, 1e-9)

	assert.InDelta(t, 1000.0, m.Total, 1e-9)
	assert.InDelta(t, 1000.0/3, m.Mean, 1e-9)
	assert.InDelta(t, 400.0, m.Max, 1e-9)
	assert.InDelta(t, 200.0, m.Min, 1e-9)
	require.NotNil(t, m.TotalGrowth)
	assert.InDelta(t, 0.0, *m.TotalGrowth, 1e-9)

	// mean transaction amount per calendar month: Jan 200, Feb 200, Mar 400
	assert.Equal(t, 3, m.BestMonth)
	assert.InDelta(t, 400.0, m.BestMonthMean, 1e-9)
	assert.Equal(t, 1, m.WorstMonth)
	assert.InDelta(t, 2.0, m.SeasonalityRatio, 1e-9)
}

func TestWeekdays(t *testing.T) {
	rep := NewReporter().Build(sampleTable(), nil)
	require.NotEmpty(t, rep.Weekdays)
	assert.Equal(t, 0, rep.Weekdays[0].Weekday)
	assert.Equal(t, "300", rep.Weekdays[0].Revenue.String())
	assert.Equal(t, 2, rep.Weekdays[0].Transactions)
}

func TestOptionalSections(t *testing.T) {
	table := sampleTable()
	rep := NewReporter().Build(table, nil)
	assert.Empty(t, rep.ClientTypes)
	assert.Empty(t, rep.Industries)

	s := table.Schema
	table.Columns = append(table.Columns, s.ClientType, s.Industry)
	types := []string{"ИП", "Юр.лицо", "ИП", "Юр.лицо"}
	industries := []string{"IT", "IT", "IT", "Медицина"}
	for i := range table.Records {
		table.Records[i].ClientType = types[i]
		table.Records[i].Industry = industries[i]
	}
	rep = NewReporter().Build(table, nil)

	require.Len(t, rep.ClientTypes, 2)
	assert.Equal(t, "Юр.лицо", rep.ClientTypes[0].Name)
	assert.Equal(t, "700", rep.ClientTypes[0].Revenue.String())
	assert.Equal(t, 2, rep.ClientTypes[0].Transactions)
	assert.Equal(t, "350", rep.ClientTypes[0].AverageCheck.String())
	assert.InDelta(t, 70.0, rep.ClientTypes[0].Share, 1e-9)

	require.Len(t, rep.Industries, 2)
	assert.Equal(t, "IT", rep.Industries[0].Name)
	assert.Equal(t, 2, rep.Industries[0].UniqueClients)
}

func TestMissingColumnsOmitSections(t *testing.T) {
	s := models.DefaultSchema()
	table := &models.Table{
		Schema:  s,
		Columns: []string{s.Quantity, s.Amount},
		Records: []models.Record{{Quantity: 1, Amount: decimal.NewFromInt(5)}},
	}
	rep := NewReporter().Build(table, nil)
	assert.Nil(t, rep.Monthly)
	assert.Empty(t, rep.RevenueByCategory)
	assert.Empty(t, rep.TopProducts)
	assert.Equal(t, 0, rep.Basic.UniqueCategories)
	assert.Equal(t, "5", rep.Basic.TotalRevenue.String())
}

func TestRender(t *testing.T) {
	table := sampleTable()
	table.Records = append(table.Records, rec(day(2024, 3, 7), "К4", "Тула", "C", "Кат 3", 1, "12345"))
	cleanReport := models.NewCleanReport(6)
	cleanReport.FinalRows = 5
	cleanReport.SkippedConditions = []string{"`Нет` > 1"}

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, NewReporter().Build(table, cleanReport), language.English))
	out := buf.String()

	assert.Contains(t, out, "ОСНОВНАЯ СТАТИСТИКА")
	assert.Contains(t, out, "Общая выручка: 13,345 руб.")
	assert.Contains(t, out, "Пропущено условие: `Нет` > 1")
	assert.Contains(t, out, "1. Кат 3")
	assert.Contains(t, out, "ТРЕНД ВЫРУЧКИ")
	assert.Contains(t, out, "Самый прибыльный месяц: Мар")
	assert.NotContains(t, out, "АНАЛИЗ ПО ОТРАСЛЯМ")
}
