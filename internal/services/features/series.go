package features

import (
	"fmt"
	"sort"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"SalesCast/internal/domain/models"
)

// BuildDailySeries sums target per calendar day and returns one point per day between the
// first and last sale, ascending, with days without sales set to 0. An empty target means
// the amount column. Records without a sale date are ignored.
func BuildDailySeries(table *models.Table, target string) ([]models.DailyPoint, error) {
	if table == nil {
		return nil, fmt.Errorf("build daily series: no table: %w", models.ErrInsufficientColumns)
	}
	s := table.Schema
	if target == "" {
		target = s.Amount
	}
	if !table.Has(s.SaleDate) {
		return nil, fmt.Errorf("build daily series: column %q: %w", s.SaleDate, models.ErrInsufficientColumns)
	}
	if !table.Has(target) {
		return nil, fmt.Errorf("build daily series: column %q: %w", target, models.ErrInsufficientColumns)
	}

	var value func(models.Record) decimal.Decimal
	switch target {
	case s.Amount:
		value = func(r models.Record) decimal.Decimal { return r.Amount }
	case s.Quantity:
		value = func(r models.Record) decimal.Decimal { return decimal.NewFromInt(r.Quantity) }
	default:
		return nil, fmt.Errorf("build daily series: column %q is not numeric: %w", target, models.ErrInsufficientColumns)
	}

	sums := make(map[civil.Date]decimal.Decimal)
	for _, r := range table.Records {
		if !r.SaleDate.Valid {
			continue
		}
		sums[r.SaleDate.Date] = sums[r.SaleDate.Date].Add(value(r))
	}
	return Densify(sums), nil
}

// Densify expands sparse per-day sums into a gap-free ascending series.
func Densify(sums map[civil.Date]decimal.Decimal) []models.DailyPoint {
	if len(sums) == 0 {
		return []models.DailyPoint{}
	}
	days := make([]civil.Date, 0, len(sums))
	for d := range sums {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	first, last := days[0], days[len(days)-1]
	out := make([]models.DailyPoint, 0, last.DaysSince(first)+1)
	for d := first; !d.After(last); d = d.AddDays(1) {
		v, _ := sums[d].Float64()
		out = append(out, models.DailyPoint{Date: d, Value: v})
	}
	return out
}

// Values returns the series values in order.
func Values(series []models.DailyPoint) []float64 {
	out := make([]float64, len(series))
	for i, p := range series {
		out[i] = p.Value
	}
	return out
}

// FilterCategory keeps the records of one category.
func FilterCategory(table *models.Table, category string) *models.Table {
	return table.Filter(func(r models.Record) bool { return r.Category == category })
}

// Categories lists distinct non-empty categories in sorted order.
func Categories(table *models.Table) []string {
	seen := make(map[string]struct{})
	for _, r := range table.Records {
		if r.Category != "" {
			seen[r.Category] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
