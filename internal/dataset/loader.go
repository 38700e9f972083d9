package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"SalesCast/internal/domain/models"
	"SalesCast/internal/domain/repository"
	applogger "SalesCast/pkg/logger"
	"SalesCast/pkg/util"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported dataset format")
	ErrNoHeader          = errors.New("dataset has no header row")
)

// Loader reads a transaction table from an Excel workbook or a CSV file.
type Loader struct {
	path      string
	sheet     string
	encoding  string
	delimiter rune
	log       *applogger.Logger
}

var _ repository.DatasetSource = (*Loader)(nil)

type LoaderOption func(*Loader)

// WithSheet selects a worksheet by name; the first sheet is used otherwise.
func WithSheet(name string) LoaderOption {
	return func(l *Loader) { l.sheet = name }
}

// WithEncoding sets the text encoding of CSV input, e.g. "windows-1251".
func WithEncoding(name string) LoaderOption {
	return func(l *Loader) { l.encoding = name }
}

func WithDelimiter(d rune) LoaderOption {
	return func(l *Loader) { l.delimiter = d }
}

func WithLoaderLogger(log *applogger.Logger) LoaderOption {
	return func(l *Loader) { l.log = log }
}

func NewLoader(path string, opts ...LoaderOption) *Loader {
	l := &Loader{path: path, encoding: "utf-8", delimiter: ','}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads the header row and all data rows. Fully blank rows are skipped.
func (l *Loader) Load(ctx context.Context) (*models.RawTable, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(l.path)) {
	case ".xlsx", ".xlsm", ".xltx", ".xltm":
		rows, err = l.readWorkbook()
	case ".csv", ".txt":
		rows, err = l.readCSV()
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, l.path)
	}
	if err != nil {
		return nil, err
	}

	table, err := toRawTable(rows)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", l.path, err)
	}
	l.log.Info("dataset loaded",
		applogger.String("path", l.path),
		applogger.Int("rows", len(table.Rows)),
		applogger.Int("columns", len(table.Columns)),
	)
	return table, nil
}

func (l *Loader) readWorkbook() ([][]string, error) {
	f, err := excelize.OpenFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheet := l.sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook %s has no sheets", l.path)
		}
		sheet = sheets[0]
	}
	// Number formats would turn 1234.5 into "1,234.50"; dates come back as
	// serials, which util.ParseDate accepts.
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return rows, nil
}

func (l *Loader) readCSV() ([][]string, error) {
	file, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer file.Close()

	dec, err := decoder(l.encoding)
	if err != nil {
		return nil, err
	}
	reader := csv.NewReader(transform.NewReader(file, dec))
	reader.Comma = l.delimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv %s: %w", l.path, err)
		}
		rows = append(rows, record)
	}
	return rows, nil
}

// decoder resolves a WHATWG encoding label. A UTF-8 byte order mark always wins.
func decoder(label string) (transform.Transformer, error) {
	var enc encoding.Encoding = unicode.UTF8
	if label != "" {
		e, err := htmlindex.Get(label)
		if err != nil {
			return nil, fmt.Errorf("encoding %q: %w", label, err)
		}
		enc = e
	}
	return unicode.BOMOverride(enc.NewDecoder()), nil
}

func toRawTable(rows [][]string) (*models.RawTable, error) {
	if len(rows) == 0 {
		return nil, ErrNoHeader
	}
	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.TrimSpace(h)
	}
	table := &models.RawTable{Columns: header}
	for _, row := range rows[1:] {
		if blankRow(row) {
			continue
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

func blankRow(row []string) bool {
	for _, c := range row {
		if !util.IsBlank(c) {
			return false
		}
	}
	return true
}
