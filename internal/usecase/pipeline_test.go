package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SalesCast/internal/domain/models"
	"SalesCast/internal/services/analytics"
	"SalesCast/internal/services/cleaning"
	"SalesCast/internal/services/reporting"
	applogger "SalesCast/pkg/logger"
	"SalesCast/pkg/metrics"
)

type memSource struct {
	raw *models.RawTable
	err error
}

func (s *memSource) Load(context.Context) (*models.RawTable, error) { return s.raw, s.err }

type memStore struct {
	mu   sync.Mutex
	runs []*models.ForecastRun
}

func (s *memStore) Init(context.Context) error { return nil }

func (s *memStore) SaveRun(_ context.Context, run *models.ForecastRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = append(s.runs, run)
	return nil
}

func (s *memStore) GetRun(_ context.Context, id string) (*models.ForecastRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.runs {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, models.ErrRunNotFound
}

func (s *memStore) ListRuns(_ context.Context, f models.RunFilter) ([]*models.ForecastRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.ForecastRun
	for _, r := range s.runs {
		if (f.Scope == "" || r.Scope == f.Scope) && (f.Status == "" || r.Status == f.Status) {
			out = append(out, r)
		}
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *memStore) Health(context.Context) error { return nil }
func (s *memStore) Close() error                 { return nil }

type memPublisher struct {
	published []string
	err       error
}

func (p *memPublisher) PublishRun(_ context.Context, run *models.ForecastRun) error {
	p.published = append(p.published, run.Scope)
	return p.err
}

func (p *memPublisher) Close() error { return nil }

var start = civil.Date{Year: 2024, Month: time.January, Day: 1}

// salesTable has one sale of 100 per day per category for the given number of days.
func salesTable(days map[string]int) *models.RawTable {
	raw := &models.RawTable{Columns: []string{"Дата продажи", "Клиент", "Регион", "Продукт", "Категория", "Кол-во", "Сумма"}}
	names := make([]string, 0, len(days))
	for c := range days {
		names = append(names, c)
	}
	sort.Strings(names)
	for _, c := range names {
		for i := 0; i < days[c]; i++ {
			raw.Rows = append(raw.Rows, []string{start.AddDays(i).String(), "К1", "Москва", "П1", c, "2", "100"})
		}
	}
	return raw
}

type fixture struct {
	engine    *analytics.StubEngine
	store     *memStore
	publisher *memPublisher
	pipeline  *Pipeline
}

func newFixture(raw *models.RawTable, cfg PipelineConfig) *fixture {
	schema := models.DefaultSchema()
	if cfg.Cleaning.RequiredColumns == nil {
		cfg.Cleaning.RequiredColumns = []string{schema.SaleDate, schema.Quantity, schema.Amount}
	}
	if cfg.Forecast.Params == (models.ModelParams{}) {
		cfg.Forecast.Params = models.DefaultModelParams()
	}
	if cfg.Forecast.Horizon == (models.Horizon{}) {
		cfg.Forecast.Horizon = models.Horizon{Periods: 30, Freq: models.FreqDaily}
	}
	if cfg.Forecast.MinPoints == 0 {
		cfg.Forecast.MinPoints = 100
	}
	f := &fixture{engine: &analytics.StubEngine{}, store: &memStore{}, publisher: &memPublisher{}}
	log := applogger.Nop()
	f.pipeline = NewPipeline(PipelineDeps{
		Source:     &memSource{raw: raw},
		Cleaner:    cleaning.NewCleaner(schema, cleaning.WithLogger(log)),
		Reporter:   reporting.NewReporter(),
		Forecaster: NewForecaster(f.engine, log),
		Store:      f.store,
		Publisher:  f.publisher,
		Metrics:    metrics.Noop{},
	}, cfg, log)
	f.pipeline.now = func() time.Time { return time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC) }
	return f
}

func TestAnalyze(t *testing.T) {
	f := newFixture(salesTable(map[string]int{"A": 150}), PipelineConfig{})

	a, err := f.pipeline.Analyze(context.Background())
	require.NoError(t, err)
	require.NotNil(t, a.Report)
	assert.Equal(t, 150, a.Report.Basic.Rows)
	require.NotNil(t, a.Report.Cleaning)

	sf := a.Forecast
	require.NotNil(t, sf)
	assert.Equal(t, models.ScopeAll, sf.Scope)
	assert.Len(t, sf.Series, 150)
	assert.Len(t, sf.Points, 180)
	assert.InDelta(t, 0.0, sf.Evaluation.MAPE, 1e-9)
	assert.Equal(t, analytics.BandExcellent, sf.Evaluation.Band)

	require.Len(t, f.store.runs, 1)
	run := f.store.runs[0]
	assert.Equal(t, models.RunOK, run.Status)
	assert.Equal(t, "Сумма", run.Target)
	assert.Equal(t, "stub", run.Engine)
	require.NotNil(t, run.MAPE)
	assert.Equal(t, 30, run.Summary.FuturePoints)
	assert.InDelta(t, 3000.0, run.Summary.FutureTotal, 1e-6)
	assert.Len(t, run.Summary.Tail, 5)
	assert.Equal(t, []string{models.ScopeAll}, f.publisher.published)
}

func TestAnalyzeInsufficientDataKeepsReport(t *testing.T) {
	f := newFixture(salesTable(map[string]int{"A": 40}), PipelineConfig{})

	a, err := f.pipeline.Analyze(context.Background())
	assert.ErrorIs(t, err, models.ErrInsufficientData)
	require.NotNil(t, a)
	assert.NotNil(t, a.Report)
	assert.Equal(t, 0, f.engine.Fits)

	require.Len(t, f.store.runs, 1)
	assert.Equal(t, models.RunFailed, f.store.runs[0].Status)
	assert.Nil(t, f.store.runs[0].MAPE)
	assert.False(t, a.Forecast.Evaluation.Defined())
}

func TestAnalyzeFitErrorIsWrapped(t *testing.T) {
	f := newFixture(salesTable(map[string]int{"A": 120}), PipelineConfig{})
	f.engine.FitErr = errors.New("bad input")

	_, err := f.pipeline.Analyze(context.Background())
	assert.ErrorIs(t, err, models.ErrFit)
	var fe *models.FitError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, models.ScopeAll, fe.Scope)
}

func TestPrepareErrors(t *testing.T) {
	raw := &models.RawTable{Columns: []string{"Дата продажи"}, Rows: [][]string{{"2024-01-01"}}}
	f := newFixture(raw, PipelineConfig{})
	_, err := f.pipeline.Analyze(context.Background())
	assert.ErrorIs(t, err, models.ErrMissingColumns)

	raw = salesTable(map[string]int{"A": 3})
	for _, row := range raw.Rows {
		row[6] = "-1"
	}
	f = newFixture(raw, PipelineConfig{})
	_, err = f.pipeline.Report(context.Background())
	assert.ErrorIs(t, err, models.ErrEmptyResult)

	f = newFixture(nil, PipelineConfig{})
	f.pipeline.deps.Source = &memSource{err: os.ErrNotExist}
	_, err = f.pipeline.Report(context.Background())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestForecastCategoryAndHorizonOverride(t *testing.T) {
	f := newFixture(salesTable(map[string]int{"A": 120, "B": 130}), PipelineConfig{})
	horizon := models.Horizon{Periods: 4, Freq: models.FreqWeekly}

	sf, err := f.pipeline.Forecast(context.Background(), ForecastRequest{Category: "B", Horizon: &horizon})
	require.NoError(t, err)
	assert.Equal(t, "category:B", sf.Scope)
	assert.Len(t, sf.Series, 130)
	assert.Len(t, sf.Points, 134)
	assert.Equal(t, start.AddDays(129+28), sf.Points[len(sf.Points)-1].Date)
	assert.Equal(t, horizon, sf.Run.Horizon)
}

func TestForecastQuantityTarget(t *testing.T) {
	f := newFixture(salesTable(map[string]int{"A": 100}), PipelineConfig{Target: "Кол-во"})

	sf, err := f.pipeline.Forecast(context.Background(), ForecastRequest{})
	require.NoError(t, err)
	assert.Equal(t, 2.0, sf.Series[0].Value)
	assert.Equal(t, "Кол-во", sf.Run.Target)
}

func TestForecastByCategoryIsolatesFailures(t *testing.T) {
	f := newFixture(salesTable(map[string]int{"A": 150, "B": 10, "C": 120}), PipelineConfig{})

	cmp, err := f.pipeline.ForecastByCategory(context.Background())
	require.NoError(t, err)
	require.Len(t, cmp.Results, 3)
	assert.Equal(t, []string{"category:A", "category:B", "category:C"},
		[]string{cmp.Results[0].Scope, cmp.Results[1].Scope, cmp.Results[2].Scope})
	assert.Equal(t, 1, cmp.Failed)
	assert.Contains(t, cmp.Results[1].Error, models.ErrInsufficientData.Error())
	assert.Equal(t, "A", cmp.Best)
	assert.Len(t, f.store.runs, 3)
	assert.Equal(t, 2, f.engine.Fits)
}

func TestForecastByCategoryHonorsCancellation(t *testing.T) {
	f := newFixture(salesTable(map[string]int{"A": 150, "B": 150}), PipelineConfig{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.pipeline.ForecastByCategory(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, f.engine.Fits)
}

func TestPublishFailureDoesNotFailRun(t *testing.T) {
	f := newFixture(salesTable(map[string]int{"A": 120}), PipelineConfig{})
	f.publisher.err = fmt.Errorf("broker down")

	_, err := f.pipeline.Forecast(context.Background(), ForecastRequest{})
	require.NoError(t, err)
	assert.Len(t, f.store.runs, 1)
}

func TestAnalyzeExportsForecast(t *testing.T) {
	path := filepath.Join(t.TempDir(), "forecast.xlsx")
	f := newFixture(salesTable(map[string]int{"A": 110}), PipelineConfig{ExportPath: path})

	_, err := f.pipeline.Analyze(context.Background())
	require.NoError(t, err)
	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestRunsUseCase(t *testing.T) {
	store := &memStore{}
	for i := 0; i < 3; i++ {
		status := models.RunOK
		if i == 2 {
			status = models.RunFailed
		}
		require.NoError(t, store.SaveRun(context.Background(), &models.ForecastRun{ID: fmt.Sprint(i), Scope: models.ScopeAll, Status: status}))
	}
	uc := NewRunsUseCase(store)

	runs, err := uc.ListRuns(context.Background(), ListRunsParams{Status: "failed"})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "2", runs[0].ID)

	runs, err = uc.ListRuns(context.Background(), ListRunsParams{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, runs, 2)

	_, err = uc.ListRuns(context.Background(), ListRunsParams{Status: "maybe"})
	assert.Error(t, err)

	run, err := uc.GetRun(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, "1", run.ID)

	_, err = uc.GetRun(context.Background(), "nope")
	assert.ErrorIs(t, err, models.ErrRunNotFound)
}
