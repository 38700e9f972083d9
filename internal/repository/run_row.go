package repository

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"SalesCast/internal/domain/models"
)

// runRow is the flat form of a ForecastRun shared by the SQL stores.
// Params, horizon and summary are JSON documents.
type runRow struct {
	ID        string    `db:"id"`
	Scope     string    `db:"scope"`
	Target    string    `db:"target"`
	Engine    string    `db:"engine"`
	Status    string    `db:"status"`
	Error     string    `db:"error"`
	MAPE      *float64  `db:"mape"`
	Params    string    `db:"params"`
	Horizon   string    `db:"horizon"`
	Summary   string    `db:"summary"`
	CreatedAt time.Time `db:"created_at"`
}

const runColumns = "id, scope, target, engine, status, error, mape, params, horizon, summary, created_at"

func toRow(run *models.ForecastRun) (runRow, error) {
	params, err := json.Marshal(run.Params)
	if err != nil {
		return runRow{}, fmt.Errorf("encode params: %w", err)
	}
	horizon, err := json.Marshal(run.Horizon)
	if err != nil {
		return runRow{}, fmt.Errorf("encode horizon: %w", err)
	}
	summary, err := json.Marshal(run.Summary)
	if err != nil {
		return runRow{}, fmt.Errorf("encode summary: %w", err)
	}
	return runRow{
		ID:        run.ID,
		Scope:     run.Scope,
		Target:    run.Target,
		Engine:    run.Engine,
		Status:    string(run.Status),
		Error:     run.Error,
		MAPE:      run.MAPE,
		Params:    string(params),
		Horizon:   string(horizon),
		Summary:   string(summary),
		CreatedAt: run.CreatedAt.UTC(),
	}, nil
}

func (r runRow) toRun() (*models.ForecastRun, error) {
	run := &models.ForecastRun{
		ID:        r.ID,
		Scope:     r.Scope,
		Target:    r.Target,
		Engine:    r.Engine,
		Status:    models.RunStatus(r.Status),
		Error:     r.Error,
		MAPE:      r.MAPE,
		CreatedAt: r.CreatedAt.UTC(),
	}
	if err := json.Unmarshal([]byte(r.Params), &run.Params); err != nil {
		return nil, fmt.Errorf("decode params of run %s: %w", r.ID, err)
	}
	if err := json.Unmarshal([]byte(r.Horizon), &run.Horizon); err != nil {
		return nil, fmt.Errorf("decode horizon of run %s: %w", r.ID, err)
	}
	if err := json.Unmarshal([]byte(r.Summary), &run.Summary); err != nil {
		return nil, fmt.Errorf("decode summary of run %s: %w", r.ID, err)
	}
	return run, nil
}

// pointRow is one forecast point of a run.
type pointRow struct {
	RunID string  `db:"run_id"`
	DS    string  `db:"ds"`
	Yhat  float64 `db:"yhat"`
	Lower float64 `db:"yhat_lower"`
	Upper float64 `db:"yhat_upper"`
}

func (p pointRow) toPoint() (models.ForecastPoint, error) {
	d, err := civil.ParseDate(p.DS)
	if err != nil {
		return models.ForecastPoint{}, fmt.Errorf("decode point date %q: %w", p.DS, err)
	}
	return models.ForecastPoint{Date: d, Yhat: p.Yhat, Lower: p.Lower, Upper: p.Upper}, nil
}

// filterClause renders the WHERE and LIMIT part of a ListRuns query.
func filterClause(f models.RunFilter) (string, []interface{}) {
	var (
		conds []string
		args  []interface{}
	)
	if f.Scope != "" {
		conds = append(conds, "scope = ?")
		args = append(args, f.Scope)
	}
	if f.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, string(f.Status))
	}
	var b strings.Builder
	if len(conds) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(conds, " AND "))
	}
	b.WriteString(" ORDER BY created_at DESC, id")
	if f.Limit > 0 {
		b.WriteString(" LIMIT ?")
		args = append(args, f.Limit)
	}
	return b.String(), args
}
