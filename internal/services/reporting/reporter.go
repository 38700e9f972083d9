package reporting

import (
	"sort"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"SalesCast/internal/domain/models"
	applogger "SalesCast/pkg/logger"
)

const (
	defaultTopCategories = 10
	defaultTopRegions    = 15
	defaultTopProducts   = 15
	topIndustries        = 15
)

var hundred = decimal.NewFromInt(100)

// Reporter computes the exploratory report of a cleaned table.
type Reporter struct {
	topCategories int
	topRegions    int
	topProducts   int
	log           *applogger.Logger
}

type Option func(*Reporter)

// WithTopN sets how many categories, regions and products are listed.
func WithTopN(categories, regions, products int) Option {
	return func(r *Reporter) {
		if categories > 0 {
			r.topCategories = categories
		}
		if regions > 0 {
			r.topRegions = regions
		}
		if products > 0 {
			r.topProducts = products
		}
	}
}

func WithLogger(l *applogger.Logger) Option {
	return func(r *Reporter) { r.log = l }
}

func NewReporter(opts ...Option) *Reporter {
	r := &Reporter{
		topCategories: defaultTopCategories,
		topRegions:    defaultTopRegions,
		topProducts:   defaultTopProducts,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Build computes every section whose columns are present. The table is not modified.
func (r *Reporter) Build(t *models.Table, cleaning *models.CleanReport) *models.Report {
	rep := &models.Report{Cleaning: cleaning}
	if t == nil {
		return rep
	}
	s := t.Schema
	hasAmount := t.Has(s.Amount)
	hasDate := t.Has(s.SaleDate)

	rep.Basic = basicStats(t)
	if t.Has(s.Category) && hasAmount {
		rep.RevenueByCategory = topWithOther(groupSum(t, categoryOf, amountOf), r.topCategories)
	}
	if t.Has(s.Category) && t.Has(s.Quantity) {
		rep.QuantityByCategory = topWithOther(groupSum(t, categoryOf, quantityOf), r.topCategories)
	}
	if t.Has(s.Region) && hasAmount {
		rep.AvgCheckByRegion = head(groupMean(t, regionOf), r.topRegions)
	}
	if t.Has(s.Product) {
		rep.TopProducts = head(groupCount(t, productOf), r.topProducts)
	}
	if hasDate && hasAmount {
		rep.Monthly = monthlyTrend(t)
		rep.Weekdays = weekdayRevenue(t)
	}
	if t.Has(s.ClientType) && hasAmount {
		rep.ClientTypes = segments(t, func(rec models.Record) string { return rec.ClientType })
	}
	if t.Has(s.Industry) && hasAmount {
		rep.Industries = head(segments(t, func(rec models.Record) string { return rec.Industry }), topIndustries)
	}

	r.log.Debug("report built",
		applogger.Int("rows", rep.Basic.Rows),
		applogger.Int("categories", rep.Basic.UniqueCategories),
	)
	return rep
}

func basicStats(t *models.Table) models.BasicStats {
	s := t.Schema
	b := models.BasicStats{Rows: t.Len(), TotalRevenue: decimal.Zero, AverageCheck: decimal.Zero}
	categories := map[string]struct{}{}
	products := map[string]struct{}{}
	regions := map[string]struct{}{}
	clients := map[string]struct{}{}
	for _, rec := range t.Records {
		b.TotalRevenue = b.TotalRevenue.Add(rec.Amount)
		b.TotalQuantity += rec.Quantity
		addNonEmpty(categories, rec.Category)
		addNonEmpty(products, rec.Product)
		addNonEmpty(regions, rec.Region)
		addNonEmpty(clients, rec.Client)
		if rec.SaleDate.Valid {
			if !b.FirstDate.Valid || rec.SaleDate.Date.Before(b.FirstDate.Date) {
				b.FirstDate = rec.SaleDate
			}
			if !b.LastDate.Valid || rec.SaleDate.Date.After(b.LastDate.Date) {
				b.LastDate = rec.SaleDate
			}
		}
	}
	if b.TotalQuantity > 0 {
		b.AverageCheck = b.TotalRevenue.Div(decimal.NewFromInt(b.TotalQuantity)).Round(2)
	}
	if t.Has(s.Category) {
		b.UniqueCategories = len(categories)
	}
	if t.Has(s.Product) {
		b.UniqueProducts = len(products)
	}
	if t.Has(s.Region) {
		b.UniqueRegions = len(regions)
	}
	if t.Has(s.Client) {
		b.UniqueClients = len(clients)
	}
	return b
}

func addNonEmpty(set map[string]struct{}, v string) {
	if v != "" {
		set[v] = struct{}{}
	}
}

func categoryOf(rec models.Record) string { return rec.Category }
func regionOf(rec models.Record) string   { return rec.Region }
func productOf(rec models.Record) string  { return rec.Product }

func amountOf(rec models.Record) decimal.Decimal   { return rec.Amount }
func quantityOf(rec models.Record) decimal.Decimal { return decimal.NewFromInt(rec.Quantity) }

type group struct {
	sum   decimal.Decimal
	count int
}

// groups buckets records by key; empty keys are skipped.
func groups(t *models.Table, key func(models.Record) string, value func(models.Record) decimal.Decimal) map[string]*group {
	out := map[string]*group{}
	for _, rec := range t.Records {
		k := key(rec)
		if k == "" {
			continue
		}
		g, ok := out[k]
		if !ok {
			g = &group{sum: decimal.Zero}
			out[k] = g
		}
		if value != nil {
			g.sum = g.sum.Add(value(rec))
		}
		g.count++
	}
	return out
}

func groupSum(t *models.Table, key func(models.Record) string, value func(models.Record) decimal.Decimal) []models.Ranked {
	var out []models.Ranked
	for name, g := range groups(t, key, value) {
		out = append(out, models.Ranked{Name: name, Value: g.sum, Count: g.count})
	}
	rank(out)
	return withShares(out)
}

func groupMean(t *models.Table, key func(models.Record) string) []models.Ranked {
	var out []models.Ranked
	for name, g := range groups(t, key, amountOf) {
		mean := g.sum.Div(decimal.NewFromInt(int64(g.count))).Round(2)
		out = append(out, models.Ranked{Name: name, Value: mean, Count: g.count})
	}
	rank(out)
	return out
}

func groupCount(t *models.Table, key func(models.Record) string) []models.Ranked {
	var out []models.Ranked
	for name, g := range groups(t, key, nil) {
		out = append(out, models.Ranked{Name: name, Value: decimal.NewFromInt(int64(g.count)), Count: g.count})
	}
	rank(out)
	return withShares(out)
}

// rank orders by value descending, then by name.
func rank(items []models.Ranked) {
	sort.Slice(items, func(i, j int) bool {
		if c := items[i].Value.Cmp(items[j].Value); c != 0 {
			return c > 0
		}
		return items[i].Name < items[j].Name
	})
}

func withShares(items []models.Ranked) []models.Ranked {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Value)
	}
	for i := range items {
		items[i].Share = share(items[i].Value, total)
	}
	return items
}

func share(v, total decimal.Decimal) float64 {
	if total.IsZero() {
		return 0
	}
	return v.Mul(hundred).Div(total).InexactFloat64()
}

// topWithOther keeps the first n entries and folds the rest into OtherLabel.
func topWithOther(items []models.Ranked, n int) []models.Ranked {
	if len(items) <= n {
		return items
	}
	other := models.Ranked{Name: models.OtherLabel, Value: decimal.Zero}
	for _, it := range items[n:] {
		other.Value = other.Value.Add(it.Value)
		other.Share += it.Share
		other.Count += it.Count
	}
	return append(items[:n:n], other)
}

func head[T any](items []T, n int) []T {
	if len(items) > n {
		return items[:n]
	}
	return items
}

type yearMonth struct{ year, month int }

func monthlyTrend(t *models.Table) *models.MonthlyTrend {
	byMonth := map[yearMonth]decimal.Decimal{}
	calendar := map[int]*group{}
	for _, rec := range t.Records {
		if !rec.SaleDate.Valid {
			continue
		}
		ym := yearMonth{rec.SaleDate.Date.Year, int(rec.SaleDate.Date.Month)}
		byMonth[ym] = byMonth[ym].Add(rec.Amount)
		g, ok := calendar[ym.month]
		if !ok {
			g = &group{sum: decimal.Zero}
			calendar[ym.month] = g
		}
		g.sum = g.sum.Add(rec.Amount)
		g.count++
	}
	if len(byMonth) == 0 {
		return nil
	}

	keys := make([]yearMonth, 0, len(byMonth))
	for k := range byMonth {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].year != keys[j].year {
			return keys[i].year < keys[j].year
		}
		return keys[i].month < keys[j].month
	})

	total := decimal.Zero
	for _, k := range keys {
		total = total.Add(byMonth[k])
	}

	trend := &models.MonthlyTrend{Total: total.InexactFloat64()}
	values := make([]float64, 0, len(keys))
	var prev *decimal.Decimal
	for _, k := range keys {
		rev := byMonth[k]
		m := models.MonthRevenue{Year: k.year, Month: k.month, Revenue: rev, Share: share(rev, total)}
		if prev != nil && !prev.IsZero() {
			change := rev.Sub(*prev).Mul(hundred).Div(*prev).InexactFloat64()
			m.Change = &change
		}
		trend.Months = append(trend.Months, m)
		values = append(values, rev.InexactFloat64())
		p := rev
		prev = &p
	}

	trend.Mean = stat.Mean(values, nil)
	if len(values) > 1 {
		trend.Std = stat.StdDev(values, nil)
	}
	trend.Min, trend.Max = floats.Min(values), floats.Max(values)
	if len(values) > 1 && values[0] > 0 {
		growth := (values[len(values)-1] - values[0]) / values[0] * 100
		trend.TotalGrowth = &growth
	}

	first := true
	for month := 1; month <= 12; month++ {
		g, ok := calendar[month]
		if !ok {
			continue
		}
		mean := g.sum.Div(decimal.NewFromInt(int64(g.count))).InexactFloat64()
		if first || mean > trend.BestMonthMean {
			trend.BestMonth, trend.BestMonthMean = month, mean
		}
		if first || mean < trend.WorstMonthMean {
			trend.WorstMonth, trend.WorstMonthMean = month, mean
		}
		first = false
	}
	if trend.WorstMonthMean > 0 {
		trend.SeasonalityRatio = trend.BestMonthMean / trend.WorstMonthMean
	}
	return trend
}

func weekdayRevenue(t *models.Table) []models.WeekdayRevenue {
	var days [7]*models.WeekdayRevenue
	for _, rec := range t.Records {
		if !rec.Features.Valid {
			continue
		}
		d := rec.Features.Weekday
		if days[d] == nil {
			days[d] = &models.WeekdayRevenue{Weekday: d, Revenue: decimal.Zero}
		}
		days[d].Revenue = days[d].Revenue.Add(rec.Amount)
		days[d].Transactions++
	}
	var out []models.WeekdayRevenue
	for _, d := range days {
		if d != nil {
			out = append(out, *d)
		}
	}
	return out
}

// segments groups revenue by an optional client attribute, largest revenue first.
func segments(t *models.Table, key func(models.Record) string) []models.Segment {
	grouped := groups(t, key, amountOf)
	clients := map[string]map[string]struct{}{}
	total := decimal.Zero
	for _, rec := range t.Records {
		k := key(rec)
		if k == "" {
			continue
		}
		total = total.Add(rec.Amount)
		if clients[k] == nil {
			clients[k] = map[string]struct{}{}
		}
		addNonEmpty(clients[k], rec.Client)
	}

	out := make([]models.Segment, 0, len(grouped))
	for name, g := range grouped {
		out = append(out, models.Segment{
			Name:          name,
			Revenue:       g.sum,
			Share:         share(g.sum, total),
			Transactions:  g.count,
			UniqueClients: len(clients[name]),
			AverageCheck:  g.sum.Div(decimal.NewFromInt(int64(g.count))).Round(2),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Revenue.Cmp(out[j].Revenue); c != 0 {
			return c > 0
		}
		return out[i].Name < out[j].Name
	})
	return out
}
