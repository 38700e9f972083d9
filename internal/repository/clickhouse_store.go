package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"SalesCast/internal/domain/models"
	domrepo "SalesCast/internal/domain/repository"
	pkgch "SalesCast/pkg/clickhouse"
	applogger "SalesCast/pkg/logger"
)

var clickhouseSchema = []string{
	`CREATE TABLE IF NOT EXISTS forecast_runs (
		id         String,
		scope      LowCardinality(String),
		target     LowCardinality(String),
		engine     LowCardinality(String),
		status     LowCardinality(String),
		error      String,
		mape       Nullable(Float64),
		params     String,
		horizon    String,
		summary    String,
		created_at DateTime64(3, 'UTC')
	) ENGINE = MergeTree
	ORDER BY (scope, created_at, id)`,
	`CREATE TABLE IF NOT EXISTS forecast_points (
		run_id     String,
		ds         Date,
		yhat       Float64,
		yhat_lower Float64,
		yhat_upper Float64
	) ENGINE = MergeTree
	ORDER BY (run_id, ds)`,
}

// pointChunk bounds the rows of one multi-VALUES insert.
const pointChunk = 2000

// ClickHouseRunStore keeps runs in ClickHouse. Runs are append-only.
type ClickHouseRunStore struct {
	client *pkgch.Client
	db     *sqlx.DB
	l      *applogger.Logger
}

var _ domrepo.RunStore = (*ClickHouseRunStore)(nil)

func NewClickHouseRunStore(client *pkgch.Client, l *applogger.Logger) *ClickHouseRunStore {
	return &ClickHouseRunStore{client: client, db: client.DB(), l: l}
}

func (s *ClickHouseRunStore) Init(ctx context.Context) error {
	return s.client.InitSchema(ctx, clickhouseSchema)
}

func (s *ClickHouseRunStore) SaveRun(ctx context.Context, run *models.ForecastRun) error {
	start := time.Now()
	row, err := toRow(run)
	if err != nil {
		return err
	}
	const insertRun = `INSERT INTO forecast_runs (` + runColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, insertRun,
		row.ID, row.Scope, row.Target, row.Engine, row.Status, row.Error,
		row.MAPE, row.Params, row.Horizon, row.Summary, row.CreatedAt,
	); err != nil {
		s.logError("clickhouse save_run error", run.ID, err)
		return fmt.Errorf("save run %s: %w", run.ID, err)
	}

	for lo := 0; lo < len(run.Points); lo += pointChunk {
		hi := min(lo+pointChunk, len(run.Points))
		values := make([]string, 0, hi-lo)
		args := make([]interface{}, 0, (hi-lo)*5)
		for _, p := range run.Points[lo:hi] {
			values = append(values, "(?, ?, ?, ?, ?)")
			args = append(args, run.ID, p.Date.In(time.UTC), p.Yhat, p.Lower, p.Upper)
		}
		q := "INSERT INTO forecast_points (run_id, ds, yhat, yhat_lower, yhat_upper) VALUES " + strings.Join(values, ",")
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			s.logError("clickhouse save_points error", run.ID, err)
			return fmt.Errorf("save points of run %s: %w", run.ID, err)
		}
	}
	if s.l != nil {
		s.l.Info("clickhouse run saved",
			applogger.String("run_id", run.ID),
			applogger.Int("points", len(run.Points)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return nil
}

func (s *ClickHouseRunStore) GetRun(ctx context.Context, id string) (*models.ForecastRun, error) {
	var row runRow
	err := s.db.GetContext(ctx, &row, `SELECT `+runColumns+` FROM forecast_runs WHERE id = ? LIMIT 1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrRunNotFound
	}
	if err != nil {
		s.logError("clickhouse get_run error", id, err)
		return nil, fmt.Errorf("get run: %w", err)
	}
	run, err := row.toRun()
	if err != nil {
		return nil, err
	}

	var points []pointRow
	const q = `
		SELECT run_id, toString(ds) AS ds, yhat, yhat_lower, yhat_upper
		FROM forecast_points
		WHERE run_id = ?
		ORDER BY ds ASC
	`
	if err := s.db.SelectContext(ctx, &points, q, id); err != nil {
		s.logError("clickhouse get_points error", id, err)
		return nil, fmt.Errorf("get points: %w", err)
	}
	run.Points = make([]models.ForecastPoint, 0, len(points))
	for _, p := range points {
		fp, err := p.toPoint()
		if err != nil {
			return nil, err
		}
		run.Points = append(run.Points, fp)
	}
	return run, nil
}

func (s *ClickHouseRunStore) ListRuns(ctx context.Context, f models.RunFilter) ([]*models.ForecastRun, error) {
	clause, args := filterClause(f)
	var rows []runRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT `+runColumns+` FROM forecast_runs`+clause, args...); err != nil {
		s.logError("clickhouse list_runs error", "", err)
		return nil, fmt.Errorf("list runs: %w", err)
	}
	out := make([]*models.ForecastRun, 0, len(rows))
	for _, r := range rows {
		run, err := r.toRun()
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, nil
}

func (s *ClickHouseRunStore) Health(ctx context.Context) error {
	return s.client.Health(ctx)
}

func (s *ClickHouseRunStore) Close() error {
	return s.client.Close()
}

func (s *ClickHouseRunStore) logError(msg, runID string, err error) {
	if s.l == nil {
		return
	}
	s.l.Error(msg, applogger.String("run_id", runID), applogger.Error(err))
}
