package models

import (
	"time"
)

type RunStatus string

const (
	RunOK     RunStatus = "ok"
	RunFailed RunStatus = "failed"
)

// ScopeAll is the scope of a forecast over the whole dataset.
const ScopeAll = "all"

// CategoryScope names the scope of a single-category forecast.
func CategoryScope(category string) string { return "category:" + category }

// ForecastRun is a persisted forecasting attempt for one scope.
type ForecastRun struct {
	ID        string          `json:"id" db:"id"`
	Scope     string          `json:"scope" db:"scope"`
	Target    string          `json:"target" db:"target"`
	Engine    string          `json:"engine" db:"engine"`
	Status    RunStatus       `json:"status" db:"status"`
	Error     string          `json:"error,omitempty" db:"error"`
	MAPE      *float64        `json:"mape,omitempty" db:"mape"`
	Params    ModelParams     `json:"params" db:"-"`
	Horizon   Horizon         `json:"horizon" db:"-"`
	Summary   ForecastSummary `json:"summary" db:"-"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
	Points    []ForecastPoint `json:"points,omitempty" db:"-"`
}

// RunFilter narrows ListRuns.
type RunFilter struct {
	Scope  string
	Status RunStatus
	Limit  int
}
