package usecase

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"SalesCast/internal/dataset"
	"SalesCast/internal/domain/models"
	domrepo "SalesCast/internal/domain/repository"
	"SalesCast/internal/services/analytics"
	"SalesCast/internal/services/cleaning"
	"SalesCast/internal/services/features"
	"SalesCast/internal/services/reporting"
	applogger "SalesCast/pkg/logger"
)

// PipelineConfig is the read-only configuration of a pipeline run.
type PipelineConfig struct {
	Cleaning models.CleaningConfig
	// Target is the column to forecast; empty means the amount column.
	Target     string
	Forecast   ForecastOptions
	ExportPath string
}

// PipelineDeps are the collaborators of a Pipeline. All fields are required.
type PipelineDeps struct {
	Source     domrepo.DatasetSource
	Cleaner    *cleaning.Cleaner
	Reporter   *reporting.Reporter
	Forecaster *Forecaster
	Store      domrepo.RunStore
	Publisher  domrepo.Publisher
	Metrics    domrepo.Metrics
}

// Pipeline runs load, clean, report, aggregate, forecast and evaluate in sequence.
// Runs are serialized; each step hands a new value to the next one.
type Pipeline struct {
	deps PipelineDeps
	cfg  PipelineConfig
	log  *applogger.Logger
	now  func() time.Time
	mu   sync.Mutex
}

func NewPipeline(deps PipelineDeps, cfg PipelineConfig, log *applogger.Logger) *Pipeline {
	return &Pipeline{deps: deps, cfg: cfg, log: log, now: time.Now}
}

// Dataset is a cleaned table with the report of how it was cleaned.
type Dataset struct {
	Table    *models.Table
	Cleaning *models.CleanReport
}

// ScopeForecast is the outcome of forecasting one scope.
type ScopeForecast struct {
	Scope      string                 `json:"scope"`
	Series     []models.DailyPoint    `json:"-"`
	Points     []models.ForecastPoint `json:"-"`
	Evaluation analytics.Evaluation   `json:"evaluation"`
	Run        *models.ForecastRun    `json:"run"`
	Error      string                 `json:"error,omitempty"`
}

// Analysis is the result of a full run.
type Analysis struct {
	Report   *models.Report `json:"report"`
	Forecast *ScopeForecast `json:"forecast,omitempty"`
}

// ForecastRequest narrows a forecast-only run.
type ForecastRequest struct {
	// Category limits the data to one category; empty means all data.
	Category string
	// Horizon overrides the configured horizon when set.
	Horizon *models.Horizon
	// Holidays are added to the configured custom holidays for this run.
	Holidays []models.CustomHoliday
}

// Prepare loads and cleans the dataset.
func (p *Pipeline) Prepare(ctx context.Context) (*Dataset, error) {
	var raw *models.RawTable
	err := p.stage("load", func() (err error) {
		raw, err = p.deps.Source.Load(ctx)
		return err
	})
	if err != nil {
		p.deps.Metrics.RecordError("load")
		return nil, fmt.Errorf("load: %w", err)
	}

	var (
		table  *models.Table
		report *models.CleanReport
	)
	err = p.stage("clean", func() (err error) {
		table, report, err = p.deps.Cleaner.Clean(raw, p.cfg.Cleaning)
		return err
	})
	if report != nil {
		p.recordCleaning(report)
	}
	if err != nil {
		p.deps.Metrics.RecordError("clean")
		return nil, fmt.Errorf("clean: %w", err)
	}
	return &Dataset{Table: table, Cleaning: report}, nil
}

// Report builds the exploratory report only.
func (p *Pipeline) Report(ctx context.Context) (*models.Report, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	ds, err := p.Prepare(ctx)
	if err != nil {
		return nil, err
	}
	var rep *models.Report
	_ = p.stage("report", func() error {
		rep = p.deps.Reporter.Build(ds.Table, ds.Cleaning)
		return nil
	})
	return rep, nil
}

// Analyze runs the full pipeline. When forecasting fails the analysis still carries the
// report and the error is returned alongside it.
func (p *Pipeline) Analyze(ctx context.Context) (*Analysis, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	ds, err := p.Prepare(ctx)
	if err != nil {
		return nil, err
	}

	out := &Analysis{}
	_ = p.stage("report", func() error {
		out.Report = p.deps.Reporter.Build(ds.Table, ds.Cleaning)
		return nil
	})

	sf, err := p.forecastScope(ctx, ds.Table, models.ScopeAll, p.cfg.Forecast.Horizon, nil)
	out.Forecast = sf
	if err != nil {
		return out, err
	}
	if err := p.export(sf); err != nil {
		return out, err
	}
	return out, nil
}

// Forecast runs the forecast-only mode: no report is built.
func (p *Pipeline) Forecast(ctx context.Context, req ForecastRequest) (*ScopeForecast, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	ds, err := p.Prepare(ctx)
	if err != nil {
		return nil, err
	}

	table, scope := ds.Table, models.ScopeAll
	if req.Category != "" {
		table, scope = features.FilterCategory(ds.Table, req.Category), models.CategoryScope(req.Category)
	}
	horizon := p.cfg.Forecast.Horizon
	if req.Horizon != nil {
		horizon = *req.Horizon
	}

	sf, err := p.forecastScope(ctx, table, scope, horizon, req.Holidays)
	if err != nil {
		return sf, err
	}
	if req.Category == "" {
		if err := p.export(sf); err != nil {
			return sf, err
		}
	}
	return sf, nil
}

// forecastScope aggregates, fits and evaluates one scope, then persists and publishes the
// run. Fit failures still produce a failed run. Store and publisher errors are logged only.
func (p *Pipeline) forecastScope(ctx context.Context, table *models.Table, scope string, horizon models.Horizon, holidays []models.CustomHoliday) (*ScopeForecast, error) {
	sf := &ScopeForecast{Scope: scope}

	var series []models.DailyPoint
	err := p.stage("aggregate", func() (err error) {
		series, err = features.BuildDailySeries(table, p.cfg.Target)
		return err
	})
	if err != nil {
		p.deps.Metrics.RecordError("aggregate")
		sf.Error = err.Error()
		return sf, err
	}
	sf.Series = series

	opts := p.cfg.Forecast
	opts.Scope = scope
	opts.Horizon = horizon
	opts.CustomHolidays = append(slices.Clip(opts.CustomHolidays), holidays...)

	var res *ForecastResult
	err = p.stage("forecast", func() (err error) {
		res, err = p.deps.Forecaster.FitAndForecast(ctx, series, opts)
		return err
	})

	run := &models.ForecastRun{
		ID:        uuid.NewString(),
		Scope:     scope,
		Target:    p.target(table),
		Engine:    p.deps.Forecaster.EngineName(),
		Status:    models.RunOK,
		Params:    opts.Params,
		Horizon:   horizon,
		CreatedAt: p.now().UTC(),
	}
	sf.Run = run

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return sf, err
		}
		p.deps.Metrics.RecordError("forecast")
		run.Status = models.RunFailed
		run.Error = err.Error()
		sf.Error = err.Error()
		sf.Evaluation = analytics.Evaluate(nil, nil)
		p.persist(ctx, run)
		return sf, err
	}

	sf.Points = res.Points
	sf.Evaluation = analytics.Evaluate(series, res.Points)
	run.Summary = res.Summary
	run.Points = res.Points
	if sf.Evaluation.Defined() {
		mape := sf.Evaluation.MAPE
		run.MAPE = &mape
		p.deps.Metrics.RecordMAPE(scope, mape)
	}
	p.log.Info("forecast evaluated",
		applogger.String("scope", scope),
		applogger.Any("mape", run.MAPE),
		applogger.String("band", string(sf.Evaluation.Band)),
		applogger.Int("used", sf.Evaluation.Used),
		applogger.Int("excluded", sf.Evaluation.Excluded),
	)
	p.persist(ctx, run)
	return sf, nil
}

func (p *Pipeline) persist(ctx context.Context, run *models.ForecastRun) {
	if err := p.deps.Store.SaveRun(ctx, run); err != nil {
		p.deps.Metrics.RecordError("store")
		p.log.Error("run.save failed", applogger.String("run_id", run.ID), applogger.Error(err))
	}
	if err := p.deps.Publisher.PublishRun(ctx, run); err != nil {
		p.deps.Metrics.RecordError("publish")
		p.log.Error("run.publish failed", applogger.String("run_id", run.ID), applogger.Error(err))
	}
}

func (p *Pipeline) export(sf *ScopeForecast) error {
	if p.cfg.ExportPath == "" || sf == nil || len(sf.Points) == 0 {
		return nil
	}
	if err := dataset.WriteForecast(p.cfg.ExportPath, sf.Points, sf.Series); err != nil {
		p.deps.Metrics.RecordError("export")
		return fmt.Errorf("export forecast: %w", err)
	}
	p.log.Info("forecast exported", applogger.String("path", p.cfg.ExportPath))
	return nil
}

func (p *Pipeline) target(table *models.Table) string {
	if p.cfg.Target != "" {
		return p.cfg.Target
	}
	return table.Schema.Amount
}

func (p *Pipeline) recordCleaning(r *models.CleanReport) {
	for step, counts := range map[string]map[string]int{
		"nulls":       r.RemovedNulls,
		"unparseable": r.RemovedUnparseable,
		"values":      r.RemovedByValues,
		"conditions":  r.RemovedByConditions,
	} {
		for _, n := range counts {
			p.deps.Metrics.RecordRowsRemoved(step, n)
		}
	}
	p.deps.Metrics.RecordRowsRemoved("negative_quantity", r.RemovedNegativeQuantity)
	p.deps.Metrics.RecordRowsRemoved("negative_amount", r.RemovedNegativeAmount)
}

func (p *Pipeline) stage(name string, fn func() error) error {
	start := p.now()
	err := fn()
	p.deps.Metrics.RecordStage(name, p.now().Sub(start).Seconds())
	return err
}
