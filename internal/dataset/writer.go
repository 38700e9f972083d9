package dataset

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/xuri/excelize/v2"

	"SalesCast/internal/domain/models"
)

const (
	dateFormat  = "yyyy-mm-dd"
	moneyFormat = "0.00"
)

// ForecastHeader is the column layout of a forecast export.
var ForecastHeader = []string{"ds", "yhat", "yhat_lower", "yhat_upper", "y"}

// WriteTable saves a cleaned table as a single-sheet workbook with typed cells.
func WriteTable(path string, t *models.Table) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	dateStyle, moneyStyle, err := styles(f)
	if err != nil {
		return err
	}

	if err := f.SetSheetRow(sheet, "A1", &t.Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	s := t.Schema
	for i, rec := range t.Records {
		row := make([]interface{}, len(t.Columns))
		for j, col := range t.Columns {
			row[j] = cellValue(s, rec, col)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	last := len(t.Records) + 1
	for j, col := range t.Columns {
		if last < 2 {
			break
		}
		var style int
		switch col {
		case s.SaleDate:
			style = dateStyle
		case s.Amount:
			style = moneyStyle
		default:
			continue
		}
		name, err := excelize.ColumnNumberToName(j + 1)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, name+"2", fmt.Sprintf("%s%d", name, last), style); err != nil {
			return fmt.Errorf("style column %s: %w", col, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

func cellValue(s models.Schema, rec models.Record, col string) interface{} {
	switch col {
	case s.SaleDate:
		if !rec.SaleDate.Valid {
			return nil
		}
		return dateTime(rec.SaleDate.Date)
	case s.Quantity:
		return rec.Quantity
	case s.Amount:
		return rec.Amount.InexactFloat64()
	case s.Client:
		return rec.Client
	case s.Region:
		return rec.Region
	case s.Product:
		return rec.Product
	case s.Category:
		return rec.Category
	case s.ClientType:
		return rec.ClientType
	case s.Industry:
		return rec.Industry
	}
	if rec.Features.Valid {
		switch col {
		case s.Year:
			return rec.Features.Year
		case s.Month:
			return rec.Features.Month
		case s.Quarter:
			return rec.Features.Quarter
		case s.Weekday:
			return rec.Features.Weekday
		}
	}
	if v, ok := rec.Extra[col]; ok {
		return v
	}
	return nil
}

// WriteForecast exports forecast points next to the observed values. Dates without an
// observation leave the y cell empty.
func WriteForecast(path string, points []models.ForecastPoint, actuals []models.DailyPoint) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "forecast"
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return err
	}
	dateStyle, moneyStyle, err := styles(f)
	if err != nil {
		return err
	}

	observed := make(map[civil.Date]float64, len(actuals))
	for _, a := range actuals {
		observed[a.Date] = a.Value
	}

	if err := f.SetSheetRow(sheet, "A1", &ForecastHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, p := range points {
		row := []interface{}{dateTime(p.Date), p.Yhat, p.Lower, p.Upper, nil}
		if y, ok := observed[p.Date]; ok {
			row[4] = y
		}
		if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", i+2), &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	if n := len(points) + 1; n > 1 {
		if err := f.SetCellStyle(sheet, "A2", fmt.Sprintf("A%d", n), dateStyle); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, "B2", fmt.Sprintf("E%d", n), moneyStyle); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

func styles(f *excelize.File) (date, money int, err error) {
	dateFmt, moneyFmt := dateFormat, moneyFormat
	date, err = f.NewStyle(&excelize.Style{CustomNumFmt: &dateFmt})
	if err != nil {
		return 0, 0, fmt.Errorf("date style: %w", err)
	}
	money, err = f.NewStyle(&excelize.Style{CustomNumFmt: &moneyFmt})
	if err != nil {
		return 0, 0, fmt.Errorf("money style: %w", err)
	}
	return date, money, nil
}

func dateTime(d civil.Date) time.Time {
	return d.In(time.UTC)
}
