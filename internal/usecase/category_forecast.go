package usecase

import (
	"context"
	"fmt"

	"SalesCast/internal/domain/models"
	"SalesCast/internal/services/features"
	applogger "SalesCast/pkg/logger"
)

// CategoryComparison holds one forecast per category, in sorted category order.
type CategoryComparison struct {
	Results []*ScopeForecast `json:"results"`
	// Best is the category with the lowest defined MAPE; empty when none succeeded.
	Best   string `json:"best,omitempty"`
	Failed int    `json:"failed"`
}

// ForecastByCategory forecasts every category one after another. A failing category is
// logged and recorded in its result without stopping the others. Cancellation is checked
// between categories.
func (p *Pipeline) ForecastByCategory(ctx context.Context) (*CategoryComparison, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	ds, err := p.Prepare(ctx)
	if err != nil {
		return nil, err
	}

	categories := features.Categories(ds.Table)
	if len(categories) == 0 {
		return nil, fmt.Errorf("forecast by category: column %q: %w", ds.Table.Schema.Category, models.ErrInsufficientColumns)
	}

	out := &CategoryComparison{}
	bestMAPE := 0.0
	for _, category := range categories {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		table := features.FilterCategory(ds.Table, category)
		sf, err := p.forecastScope(ctx, table, models.CategoryScope(category), p.cfg.Forecast.Horizon, nil)
		if err != nil {
			if ctx.Err() != nil {
				return out, ctx.Err()
			}
			out.Failed++
			p.log.Warn("forecast.category failed",
				applogger.String("category", category),
				applogger.Error(err),
			)
		}
		out.Results = append(out.Results, sf)
		if err == nil && sf.Evaluation.Defined() {
			if out.Best == "" || sf.Evaluation.MAPE < bestMAPE {
				out.Best, bestMAPE = category, sf.Evaluation.MAPE
			}
		}
	}
	p.log.Info("forecast by category finished",
		applogger.Int("categories", len(categories)),
		applogger.Int("failed", out.Failed),
		applogger.String("best", out.Best),
	)
	return out, nil
}
