package usecase

import (
	"context"
	"fmt"

	"SalesCast/internal/domain/models"
	domrepo "SalesCast/internal/domain/repository"
)

const (
	defaultRunsLimit = 50
	maxRunsLimit     = 500
)

// RunsUseCase provides read access to stored forecast runs.
type RunsUseCase struct {
	store domrepo.RunStore
}

func NewRunsUseCase(store domrepo.RunStore) *RunsUseCase {
	return &RunsUseCase{store: store}
}

type ListRunsParams struct {
	Scope  string
	Status string
	Limit  int
}

func (uc *RunsUseCase) ListRuns(ctx context.Context, p ListRunsParams) ([]*models.ForecastRun, error) {
	if p.Limit <= 0 {
		p.Limit = defaultRunsLimit
	}
	if p.Limit > maxRunsLimit {
		p.Limit = maxRunsLimit
	}
	status := models.RunStatus(p.Status)
	if status != "" && status != models.RunOK && status != models.RunFailed {
		return nil, fmt.Errorf("unknown status %q", p.Status)
	}

	runs, err := uc.store.ListRuns(ctx, models.RunFilter{Scope: p.Scope, Status: status, Limit: p.Limit})
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

func (uc *RunsUseCase) GetRun(ctx context.Context, id string) (*models.ForecastRun, error) {
	if id == "" {
		return nil, fmt.Errorf("run id required")
	}
	run, err := uc.store.GetRun(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", id, err)
	}
	return run, nil
}
