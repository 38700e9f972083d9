package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"SalesCast/internal/domain/models"
	domrepo "SalesCast/internal/domain/repository"
	"SalesCast/internal/service/ratelimit"
	"SalesCast/internal/usecase"
	"SalesCast/pkg/cache"
	xhttp "SalesCast/pkg/http"
	xlogger "SalesCast/pkg/logger"
)

const (
	reportCacheKey  = "report"
	runsCachePrefix = "runs"
	runCachePrefix  = "run"
)

// ForecastRequest is the body of POST /api/v1/forecasts. Unset periods and freq
// fall back to the configured horizon. Holidays extend the configured custom
// holidays of all and category forecasts.
type ForecastRequest struct {
	Scope    string                 `json:"scope" default:"all" validate:"oneof=all category by_category"`
	Category string                 `json:"category" validate:"required_if=Scope category"`
	Periods  *int                   `json:"periods" validate:"omitempty,gte=0,lte=3650"`
	Freq     string                 `json:"freq" validate:"omitempty,oneof=D W M"`
	Holidays []models.CustomHoliday `json:"holidays" validate:"omitempty,dive"`
}

// ListRunsRequest is the query of GET /api/v1/runs.
type ListRunsRequest struct {
	Scope  string `query:"scope"`
	Status string `query:"status" validate:"omitempty,oneof=ok failed"`
	Limit  int    `query:"limit" validate:"gte=0,lte=500"`
}

// ForecastEchoHandler serves reports, forecasts and stored runs.
type ForecastEchoHandler struct {
	logger   *xlogger.Logger
	pipeline *usecase.Pipeline
	runs     *usecase.RunsUseCase
	store    domrepo.RunStore
	cache    cache.Service
	ttl      time.Duration
	limiter  *ratelimit.Limiter
	horizon  models.Horizon
	engine   string
}

func NewForecastEchoHandler(
	logger *xlogger.Logger,
	pipeline *usecase.Pipeline,
	runs *usecase.RunsUseCase,
	store domrepo.RunStore,
	c cache.Service,
	ttl time.Duration,
	limiter *ratelimit.Limiter,
	horizon models.Horizon,
	engine string,
) *ForecastEchoHandler {
	return &ForecastEchoHandler{
		logger:   logger,
		pipeline: pipeline,
		runs:     runs,
		store:    store,
		cache:    c,
		ttl:      ttl,
		limiter:  limiter,
		horizon:  horizon,
		engine:   engine,
	}
}

func (h *ForecastEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)
	g := e.Group("/api/v1")
	g.GET("/report", h.Report)
	g.POST("/forecasts", h.CreateForecast)
	g.GET("/runs", h.ListRuns)
	g.GET("/runs/:id", h.GetRun)
}

func (h *ForecastEchoHandler) Health(c echo.Context) error {
	if err := h.store.Health(c.Request().Context()); err != nil {
		h.logger.Warn("health store check failed", xlogger.Error(err))
		return xhttp.JSON(c, http.StatusServiceUnavailable, map[string]string{
			"status": "degraded",
			"store":  err.Error(),
		})
	}
	return xhttp.OK(c, map[string]string{"status": "ok", "engine": h.engine})
}

func (h *ForecastEchoHandler) Report(c echo.Context) error {
	rep, hit, err := cache.GetOrLoad(c.Request().Context(), h.cache, reportCacheKey, h.ttl, h.pipeline.Report)
	if err != nil {
		h.logger.Error("report usecase error", xlogger.Error(err))
		return xhttp.Fail(c, toAppError(err))
	}
	setCacheHeader(c, hit)
	return xhttp.OK(c, rep)
}

func (h *ForecastEchoHandler) CreateForecast(c echo.Context) error {
	if !h.limiter.Allow(c.RealIP()) {
		h.logger.Warn("forecast rate limited", xlogger.String("remote", c.RealIP()))
		return xhttp.Fail(c, xhttp.RateLimited(c.RealIP()))
	}

	req := &ForecastRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.Invalid(c, verr)
	}
	ctx := c.Request().Context()

	if req.Scope == "by_category" {
		cmp, err := h.pipeline.ForecastByCategory(ctx)
		h.invalidateRuns(ctx)
		if err != nil {
			h.logger.Error("forecast by category error", xlogger.Error(err))
			return xhttp.Fail(c, toAppError(err))
		}
		return xhttp.Created(c, cmp)
	}

	fr := usecase.ForecastRequest{Horizon: h.requestHorizon(req), Holidays: req.Holidays}
	if req.Scope == "category" {
		fr.Category = req.Category
	}
	sf, err := h.pipeline.Forecast(ctx, fr)
	h.invalidateRuns(ctx)
	if err != nil {
		h.logger.Error("forecast usecase error", xlogger.Error(err))
		appErr := toAppError(err)
		if sf != nil && sf.Run != nil {
			appErr = appErr.WithParam("run_id", sf.Run.ID)
		}
		return xhttp.Fail(c, appErr)
	}
	return xhttp.Created(c, sf)
}

func (h *ForecastEchoHandler) ListRuns(c echo.Context) error {
	req := &ListRunsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.Invalid(c, verr)
	}
	// scopes hold category names, which may contain pattern characters
	key := cache.GenerateKeyWithParams(runsCachePrefix, cache.HashKey(fmt.Sprint(req.Scope, "|", req.Status, "|", req.Limit)))
	runs, hit, err := cache.GetOrLoad(c.Request().Context(), h.cache, key, h.ttl,
		func(ctx context.Context) ([]*models.ForecastRun, error) {
			return h.runs.ListRuns(ctx, usecase.ListRunsParams{Scope: req.Scope, Status: req.Status, Limit: req.Limit})
		})
	if err != nil {
		h.logger.Error("list runs error", xlogger.Error(err))
		return xhttp.Fail(c, toAppError(err))
	}
	setCacheHeader(c, hit)
	return xhttp.List(c, runs, len(runs))
}

func (h *ForecastEchoHandler) GetRun(c echo.Context) error {
	id := c.Param("id")
	run, hit, err := cache.GetOrLoad(c.Request().Context(), h.cache, cache.GenerateKeyWithParams(runCachePrefix, cache.HashKey(id)), h.ttl,
		func(ctx context.Context) (*models.ForecastRun, error) { return h.runs.GetRun(ctx, id) })
	if err != nil {
		return xhttp.Fail(c, toAppError(err))
	}
	setCacheHeader(c, hit)
	return xhttp.OK(c, run)
}

func (h *ForecastEchoHandler) requestHorizon(req *ForecastRequest) *models.Horizon {
	if req.Periods == nil && req.Freq == "" {
		return nil
	}
	hz := h.horizon
	if req.Periods != nil {
		hz.Periods = *req.Periods
	}
	if req.Freq != "" {
		hz.Freq = models.Frequency(req.Freq)
	}
	return &hz
}

func (h *ForecastEchoHandler) invalidateRuns(ctx context.Context) {
	if err := h.cache.DeleteByPattern(ctx, cache.BuildPattern(runsCachePrefix+":")); err != nil {
		h.logger.Warn("cache invalidate failed", xlogger.Error(err))
	}
}

func setCacheHeader(c echo.Context, hit bool) {
	v := "MISS"
	if hit {
		v = "HIT"
	}
	c.Response().Header().Set("X-Cache", v)
}
