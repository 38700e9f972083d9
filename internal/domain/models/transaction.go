package models

import (
	"encoding/json"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// Schema maps the logical fields of a transaction to spreadsheet headers.
type Schema struct {
	SaleDate   string `yaml:"sale_date" default:"Дата продажи"`
	Client     string `yaml:"client" default:"Клиент"`
	Region     string `yaml:"region" default:"Регион"`
	Product    string `yaml:"product" default:"Продукт"`
	Category   string `yaml:"category" default:"Категория"`
	Quantity   string `yaml:"quantity" default:"Кол-во"`
	Amount     string `yaml:"amount" default:"Сумма"`
	ClientType string `yaml:"client_type" default:"Тип клиента"`
	Industry   string `yaml:"industry" default:"Отрасль"`

	Year    string `yaml:"year" default:"Год"`
	Month   string `yaml:"month" default:"Месяц"`
	Quarter string `yaml:"quarter" default:"Квартал"`
	Weekday string `yaml:"weekday" default:"День недели"`
}

// DefaultSchema returns the headers used by the source sales workbooks.
func DefaultSchema() Schema {
	return Schema{
		SaleDate:   "Дата продажи",
		Client:     "Клиент",
		Region:     "Регион",
		Product:    "Продукт",
		Category:   "Категория",
		Quantity:   "Кол-во",
		Amount:     "Сумма",
		ClientType: "Тип клиента",
		Industry:   "Отрасль",
		Year:       "Год",
		Month:      "Месяц",
		Quarter:    "Квартал",
		Weekday:    "День недели",
	}
}

// BaseColumns are the headers every generated workbook carries.
func (s Schema) BaseColumns() []string {
	return []string{s.SaleDate, s.Client, s.Region, s.Product, s.Category, s.Quantity, s.Amount}
}

// FeatureColumns are the derived calendar headers, in output order.
func (s Schema) FeatureColumns() []string {
	return []string{s.Year, s.Month, s.Quarter, s.Weekday}
}

// RawTable is a spreadsheet as read from disk: a header row and string cells.
// An empty cell is a null.
type RawTable struct {
	Columns []string
	Rows    [][]string
}

// Index returns the position of column or -1.
func (t *RawTable) Index(column string) int {
	for i, c := range t.Columns {
		if c == column {
			return i
		}
	}
	return -1
}

// NullDate is a calendar date that may be absent.
type NullDate struct {
	Date  civil.Date
	Valid bool
}

func NewNullDate(d civil.Date) NullDate { return NullDate{Date: d, Valid: true} }

func (n NullDate) String() string {
	if !n.Valid {
		return ""
	}
	return n.Date.String()
}

func (n NullDate) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Date.String())
}

func (n *NullDate) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*n = NullDate{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	d, err := civil.ParseDate(s)
	if err != nil {
		return err
	}
	*n = NewNullDate(d)
	return nil
}

// CalendarFeatures are derived from the sale date. Weekday counts from Monday = 0.
type CalendarFeatures struct {
	Year    int
	Month   int
	Quarter int
	Weekday int
	Valid   bool
}

// Record is one cleaned sales transaction.
type Record struct {
	SaleDate   NullDate
	Client     string
	Region     string
	Product    string
	Category   string
	Quantity   int64
	Amount     decimal.Decimal
	ClientType string
	Industry   string
	Features   CalendarFeatures
	// Extra holds cells of columns outside the schema, keyed by header.
	Extra map[string]string
}

// Table is a cleaned transaction table. Columns keeps the header so presence checks
// still work after typing.
type Table struct {
	Schema  Schema
	Columns []string
	Records []Record
}

func (t *Table) Has(column string) bool {
	if t == nil || column == "" {
		return false
	}
	for _, c := range t.Columns {
		if c == column {
			return true
		}
	}
	return false
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Records)
}

// Filter returns a new table holding the records keep accepts.
func (t *Table) Filter(keep func(Record) bool) *Table {
	out := &Table{Schema: t.Schema, Columns: append([]string(nil), t.Columns...)}
	for _, r := range t.Records {
		if keep(r) {
			out.Records = append(out.Records, r)
		}
	}
	return out
}

// Raw renders the table back into string cells under its header.
func (t *Table) Raw() *RawTable {
	raw := &RawTable{Columns: append([]string(nil), t.Columns...)}
	for _, r := range t.Records {
		row := make([]string, len(t.Columns))
		for i, c := range t.Columns {
			row[i] = t.cell(r, c)
		}
		raw.Rows = append(raw.Rows, row)
	}
	return raw
}

func (t *Table) cell(r Record, column string) string {
	s := t.Schema
	switch column {
	case s.SaleDate:
		return r.SaleDate.String()
	case s.Client:
		return r.Client
	case s.Region:
		return r.Region
	case s.Product:
		return r.Product
	case s.Category:
		return r.Category
	case s.Quantity:
		return decimal.NewFromInt(r.Quantity).String()
	case s.Amount:
		return r.Amount.String()
	case s.ClientType:
		return r.ClientType
	case s.Industry:
		return r.Industry
	}
	if r.Features.Valid {
		switch column {
		case s.Year:
			return itoa(r.Features.Year)
		case s.Month:
			return itoa(r.Features.Month)
		case s.Quarter:
			return itoa(r.Features.Quarter)
		case s.Weekday:
			return itoa(r.Features.Weekday)
		}
	}
	return r.Extra[column]
}

func itoa(v int) string { return decimal.NewFromInt(int64(v)).String() }
