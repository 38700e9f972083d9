package models

import (
	"github.com/shopspring/decimal"
)

// OtherLabel groups the categories beyond the top N.
const OtherLabel = "Другие"

type BasicStats struct {
	Rows             int             `json:"rows"`
	TotalRevenue     decimal.Decimal `json:"total_revenue"`
	TotalQuantity    int64           `json:"total_quantity"`
	AverageCheck     decimal.Decimal `json:"average_check"` // revenue per unit sold
	UniqueCategories int             `json:"unique_categories"`
	UniqueProducts   int             `json:"unique_products"`
	UniqueRegions    int             `json:"unique_regions"`
	UniqueClients    int             `json:"unique_clients"`
	FirstDate        NullDate        `json:"first_date"`
	LastDate         NullDate        `json:"last_date"`
}

type Ranked struct {
	Name  string          `json:"name"`
	Value decimal.Decimal `json:"value"`
	Share float64         `json:"share"`
	Count int             `json:"count,omitempty"`
}

type MonthRevenue struct {
	Year    int             `json:"year"`
	Month   int             `json:"month"`
	Revenue decimal.Decimal `json:"revenue"`
	// Change is the month-over-month change in percent; nil for the first month
	// or when the previous month had no revenue.
	Change *float64 `json:"change,omitempty"`
	Share  float64  `json:"share"`
}

type MonthlyTrend struct {
	Months      []MonthRevenue `json:"months"`
	Total       float64        `json:"total"`
	Mean        float64        `json:"mean"`
	Max         float64        `json:"max"`
	Min         float64        `json:"min"`
	Std         float64        `json:"std"`
	TotalGrowth *float64       `json:"total_growth,omitempty"`
	// Calendar-month seasonality over mean transaction amount, years pooled.
	BestMonth        int     `json:"best_month"`
	BestMonthMean    float64 `json:"best_month_mean"`
	WorstMonth       int     `json:"worst_month"`
	WorstMonthMean   float64 `json:"worst_month_mean"`
	SeasonalityRatio float64 `json:"seasonality_ratio"`
}

type WeekdayRevenue struct {
	Weekday      int             `json:"weekday"`
	Revenue      decimal.Decimal `json:"revenue"`
	Transactions int             `json:"transactions"`
}

type Segment struct {
	Name          string          `json:"name"`
	Revenue       decimal.Decimal `json:"revenue"`
	Share         float64         `json:"share"`
	Transactions  int             `json:"transactions"`
	UniqueClients int             `json:"unique_clients"`
	AverageCheck  decimal.Decimal `json:"average_check"`
}

// Report is the exploratory analysis of a cleaned table. Sections whose source
// column is absent stay empty.
type Report struct {
	Basic              BasicStats       `json:"basic"`
	RevenueByCategory  []Ranked         `json:"revenue_by_category,omitempty"`
	QuantityByCategory []Ranked         `json:"quantity_by_category,omitempty"`
	AvgCheckByRegion   []Ranked         `json:"avg_check_by_region,omitempty"`
	TopProducts        []Ranked         `json:"top_products,omitempty"`
	Monthly            *MonthlyTrend    `json:"monthly,omitempty"`
	Weekdays           []WeekdayRevenue `json:"weekdays,omitempty"`
	ClientTypes        []Segment        `json:"client_types,omitempty"`
	Industries         []Segment        `json:"industries,omitempty"`
	Cleaning           *CleanReport     `json:"cleaning,omitempty"`
}
