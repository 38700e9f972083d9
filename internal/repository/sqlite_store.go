package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"SalesCast/internal/domain/models"
	domrepo "SalesCast/internal/domain/repository"
	applogger "SalesCast/pkg/logger"
)

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS forecast_runs (
		id         TEXT PRIMARY KEY,
		scope      TEXT NOT NULL,
		target     TEXT NOT NULL,
		engine     TEXT NOT NULL,
		status     TEXT NOT NULL,
		error      TEXT NOT NULL DEFAULT '',
		mape       REAL,
		params     TEXT NOT NULL,
		horizon    TEXT NOT NULL,
		summary    TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_forecast_runs_scope_created ON forecast_runs (scope, created_at)`,
	`CREATE TABLE IF NOT EXISTS forecast_points (
		run_id     TEXT NOT NULL REFERENCES forecast_runs (id) ON DELETE CASCADE,
		ds         TEXT NOT NULL,
		yhat       REAL NOT NULL,
		yhat_lower REAL NOT NULL,
		yhat_upper REAL NOT NULL,
		PRIMARY KEY (run_id, ds)
	)`,
}

// SQLiteRunStore keeps runs in a local SQLite file.
type SQLiteRunStore struct {
	db *sqlx.DB
	l  *applogger.Logger
}

var _ domrepo.RunStore = (*SQLiteRunStore)(nil)

// NewSQLiteRunStore opens (creating if needed) the database at path.
func NewSQLiteRunStore(path string, l *applogger.Logger) (*SQLiteRunStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("sqlite dir: %w", err)
		}
	}
	db, err := sqlx.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	// one writer at a time
	db.SetMaxOpenConns(1)
	return &SQLiteRunStore{db: db, l: l}, nil
}

func (s *SQLiteRunStore) Init(ctx context.Context) error {
	for _, stmt := range sqliteSchema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

func (s *SQLiteRunStore) SaveRun(ctx context.Context, run *models.ForecastRun) error {
	row, err := toRow(run)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const insertRun = `INSERT OR REPLACE INTO forecast_runs (` + runColumns + `)
		VALUES (:id, :scope, :target, :engine, :status, :error, :mape, :params, :horizon, :summary, :created_at)`
	if _, err := tx.NamedExecContext(ctx, insertRun, row); err != nil {
		return fmt.Errorf("save run %s: %w", run.ID, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM forecast_points WHERE run_id = ?`, run.ID); err != nil {
		return fmt.Errorf("save run %s: %w", run.ID, err)
	}
	if len(run.Points) > 0 {
		stmt, err := tx.PreparexContext(ctx, `INSERT INTO forecast_points (run_id, ds, yhat, yhat_lower, yhat_upper) VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("save points: %w", err)
		}
		defer stmt.Close()
		for _, p := range run.Points {
			if _, err := stmt.ExecContext(ctx, run.ID, p.Date.String(), p.Yhat, p.Lower, p.Upper); err != nil {
				return fmt.Errorf("save point %s: %w", p.Date, err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save run %s: commit: %w", run.ID, err)
	}
	if s.l != nil {
		s.l.Debug("sqlite run saved",
			applogger.String("run_id", run.ID),
			applogger.String("scope", run.Scope),
			applogger.Int("points", len(run.Points)),
		)
	}
	return nil
}

func (s *SQLiteRunStore) GetRun(ctx context.Context, id string) (*models.ForecastRun, error) {
	var row runRow
	err := s.db.GetContext(ctx, &row, `SELECT `+runColumns+` FROM forecast_runs WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	run, err := row.toRun()
	if err != nil {
		return nil, err
	}

	var points []pointRow
	if err := s.db.SelectContext(ctx, &points,
		`SELECT run_id, ds, yhat, yhat_lower, yhat_upper FROM forecast_points WHERE run_id = ? ORDER BY ds`, id); err != nil {
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

// ListRuns returns runs newest first, without their points.
func (s *SQLiteRunStore) ListRuns(ctx context.Context, f models.RunFilter) ([]*models.ForecastRun, error) {
	clause, args := filterClause(f)
	var rows []runRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT `+runColumns+` FROM forecast_runs`+clause, args...); err != nil {
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

func (s *SQLiteRunStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteRunStore) Close() error {
	return s.db.Close()
}
