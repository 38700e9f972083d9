package cleaning

import (
	"fmt"
	"sort"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"SalesCast/internal/domain/models"
	applogger "SalesCast/pkg/logger"
	"SalesCast/pkg/util"
)

type columnKind int

const (
	kindText columnKind = iota
	kindDate
	kindInteger
	kindDecimal
)

// row is a working copy of a table row while the cleaner runs.
type row struct {
	cells    []string
	date     models.NullDate
	qty      int64
	qtyOK    bool
	amount   decimal.Decimal
	amountOK bool
}

// Cleaner validates, coerces and filters a raw transaction table.
type Cleaner struct {
	schema models.Schema
	log    *applogger.Logger
}

type Option func(*Cleaner)

func WithLogger(l *applogger.Logger) Option {
	return func(c *Cleaner) { c.log = l }
}

func NewCleaner(schema models.Schema, opts ...Option) *Cleaner {
	c := &Cleaner{schema: schema}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Clean runs the cleaning steps in order and returns a new table. The input is not modified.
// A missing required column fails with *models.MissingColumnsError; zero surviving rows
// fail with models.ErrEmptyResult. The report is returned in both cases when available.
func (c *Cleaner) Clean(raw *models.RawTable, cfg models.CleaningConfig) (*models.Table, *models.CleanReport, error) {
	if raw == nil {
		return nil, nil, fmt.Errorf("clean: %w", models.ErrEmptyResult)
	}
	report := models.NewCleanReport(len(raw.Rows))

	// 1. required columns
	var missing []string
	for _, col := range cfg.RequiredColumns {
		if raw.Index(col) < 0 {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, report, &models.MissingColumnsError{Columns: missing}
	}

	rows := make([]*row, 0, len(raw.Rows))
	for _, cells := range raw.Rows {
		cp := make([]string, len(raw.Columns))
		copy(cp, cells)
		rows = append(rows, &row{cells: cp})
	}

	// 2. nulls in required columns
	for _, col := range cfg.RequiredColumns {
		idx := raw.Index(col)
		before := len(rows)
		rows = keep(rows, func(r *row) bool { return !util.IsBlank(r.cells[idx]) })
		if n := before - len(rows); n > 0 {
			report.RemovedNulls[col] += n
		}
	}

	// 3. type coercion
	dateIdx := raw.Index(c.schema.SaleDate)
	qtyIdx := raw.Index(c.schema.Quantity)
	amountIdx := raw.Index(c.schema.Amount)
	for _, r := range rows {
		if dateIdx >= 0 {
			if d, ok := util.ParseDate(r.cells[dateIdx]); ok {
				r.date = models.NewNullDate(d)
			}
		}
		if qtyIdx >= 0 {
			r.qty, r.qtyOK = parseQuantity(r.cells[qtyIdx])
		}
		if amountIdx >= 0 {
			r.amount, r.amountOK = parseNumber(r.cells[amountIdx])
		}
	}
	for _, col := range cfg.RequiredColumns {
		var present func(*row) bool
		switch col {
		case c.schema.SaleDate:
			present = func(r *row) bool { return r.date.Valid }
		case c.schema.Quantity:
			present = func(r *row) bool { return r.qtyOK }
		case c.schema.Amount:
			present = func(r *row) bool { return r.amountOK }
		default:
			continue
		}
		before := len(rows)
		rows = keep(rows, present)
		if n := before - len(rows); n > 0 {
			report.RemovedUnparseable[col] += n
		}
	}

	// 4. forbidden values
	columns := make([]string, 0, len(cfg.ForbiddenValues))
	for col := range cfg.ForbiddenValues {
		columns = append(columns, col)
	}
	sort.Strings(columns)
	for _, col := range columns {
		idx := raw.Index(col)
		if idx < 0 {
			continue
		}
		var matchers []matcher
		for _, v := range cfg.ForbiddenValues[col] {
			m, err := Predicate{Column: col, Op: OpEq, Literal: strings.TrimSpace(v)}.compile(idx, c.kindOf(col))
			if err != nil {
				// A value that cannot exist in a typed column removes nothing.
				continue
			}
			matchers = append(matchers, m)
		}
		before := len(rows)
		rows = keep(rows, func(r *row) bool {
			for _, m := range matchers {
				if m.match(r) {
					return false
				}
			}
			return true
		})
		if n := before - len(rows); n > 0 {
			report.RemovedByValues[col] += n
		}
	}

	// 5. custom conditions
	for _, cond := range cfg.Conditions {
		m, label, err := c.compileCondition(raw, cond)
		if err != nil {
			c.log.Warn("cleaning.condition skipped",
				applogger.String("condition", cond.String()),
				applogger.Error(err),
			)
			report.SkippedConditions = append(report.SkippedConditions, cond.String())
			continue
		}
		before := len(rows)
		rows = keep(rows, func(r *row) bool { return !m.match(r) })
		if n := before - len(rows); n > 0 {
			report.RemovedByConditions[label] += n
		}
	}

	// 6. negative or missing quantity and amount
	if qtyIdx >= 0 {
		before := len(rows)
		rows = keep(rows, func(r *row) bool { return r.qtyOK && r.qty >= 0 })
		report.RemovedNegativeQuantity = before - len(rows)
	}
	if amountIdx >= 0 {
		before := len(rows)
		rows = keep(rows, func(r *row) bool { return r.amountOK && !r.amount.IsNegative() })
		report.RemovedNegativeAmount = before - len(rows)
	}

	// 7. calendar features
	table := &models.Table{Schema: c.schema, Columns: append([]string(nil), raw.Columns...)}
	if dateIdx >= 0 {
		for _, col := range c.schema.FeatureColumns() {
			if raw.Index(col) < 0 {
				table.Columns = append(table.Columns, col)
			}
		}
	}
	table.Records = make([]models.Record, 0, len(rows))
	for _, r := range rows {
		table.Records = append(table.Records, c.record(raw.Columns, r))
	}

	report.FinalRows = len(table.Records)
	c.log.Info("cleaning finished",
		applogger.Int("initial_rows", report.InitialRows),
		applogger.Int("final_rows", report.FinalRows),
		applogger.Int("removed", report.TotalRemoved()),
	)
	if report.FinalRows == 0 {
		return nil, report, fmt.Errorf("clean: %w", models.ErrEmptyResult)
	}
	return table, report, nil
}

func (c *Cleaner) compileCondition(raw *models.RawTable, cond models.Condition) (matcher, string, error) {
	p, err := ParseCondition(cond)
	if err != nil {
		return matcher{}, "", err
	}
	idx := raw.Index(p.Column)
	if idx < 0 {
		return matcher{}, "", fmt.Errorf("unknown column %q", p.Column)
	}
	m, err := p.compile(idx, c.kindOf(p.Column))
	if err != nil {
		return matcher{}, "", err
	}
	return m, p.String(), nil
}

func (c *Cleaner) kindOf(column string) columnKind {
	switch column {
	case c.schema.SaleDate:
		return kindDate
	case c.schema.Quantity:
		return kindInteger
	case c.schema.Amount:
		return kindDecimal
	}
	return kindText
}

func (c *Cleaner) record(columns []string, r *row) models.Record {
	s := c.schema
	rec := models.Record{
		SaleDate: r.date,
		Quantity: r.qty,
		Amount:   r.amount,
	}
	for i, col := range columns {
		v := strings.TrimSpace(r.cells[i])
		switch col {
		case s.SaleDate, s.Quantity, s.Amount, s.Year, s.Month, s.Quarter, s.Weekday:
		case s.Client:
			rec.Client = v
		case s.Region:
			rec.Region = v
		case s.Product:
			rec.Product = v
		case s.Category:
			rec.Category = v
		case s.ClientType:
			rec.ClientType = v
		case s.Industry:
			rec.Industry = v
		default:
			if rec.Extra == nil {
				rec.Extra = make(map[string]string)
			}
			rec.Extra[col] = v
		}
	}
	if r.date.Valid {
		rec.Features = DeriveFeatures(r.date.Date)
	}
	return rec
}

// DeriveFeatures computes the calendar columns of a sale date.
func DeriveFeatures(d civil.Date) models.CalendarFeatures {
	return models.CalendarFeatures{
		Year:    d.Year,
		Month:   int(d.Month),
		Quarter: util.Quarter(d),
		Weekday: util.Weekday(d),
		Valid:   true,
	}
}

func keep(rows []*row, ok func(*row) bool) []*row {
	out := rows[:0]
	for _, r := range rows {
		if ok(r) {
			out = append(out, r)
		}
	}
	return out
}

// parseNumber accepts a decimal comma when no dot is present.
func parseNumber(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Decimal{}, false
	}
	if !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

// parseQuantity requires a whole number; "12.0" is accepted.
func parseQuantity(s string) (int64, bool) {
	d, ok := parseNumber(s)
	if !ok || !d.IsInteger() {
		return 0, false
	}
	return d.IntPart(), true
}
