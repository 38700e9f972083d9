package analytics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"cloud.google.com/go/civil"

	"SalesCast/internal/domain/models"
	domsvc "SalesCast/internal/domain/service"
	"SalesCast/pkg/config"
	xhttp "SalesCast/pkg/http"
	applogger "SalesCast/pkg/logger"
)

// HTTPEngine delegates fitting to a forecasting sidecar (a Prophet service).
// The sidecar answers 422 with a body naming country_holidays when it has no
// calendar for the region; the fit is then repeated without country holidays.
type HTTPEngine struct {
	base *HTTPServiceBase
	l    *applogger.Logger
}

var _ domsvc.ForecastEngine = (*HTTPEngine)(nil)

func NewHTTPEngine(cfg config.EngineConfig, l *applogger.Logger, opts ...xhttp.ClientOption) *HTTPEngine {
	return &HTTPEngine{base: NewHTTPServiceBase(cfg, opts...), l: l}
}

func (e *HTTPEngine) Name() string { return "http" }

func (e *HTTPEngine) NewModel(params models.ModelParams) (domsvc.ForecastModel, error) {
	if err := ValidateParams(params); err != nil {
		return nil, err
	}
	return &remoteModel{engine: e, params: params}, nil
}

type seriesPoint struct {
	Ds civil.Date `json:"ds"`
	Y  float64    `json:"y"`
}

// holidayRow is one row of a Prophet holidays frame.
type holidayRow struct {
	Holiday string     `json:"holiday"`
	Ds      civil.Date `json:"ds"`
}

type fitReq struct {
	Params          models.ModelParams `json:"params"`
	CountryHolidays string             `json:"country_holidays,omitempty"`
	Holidays        []holidayRow       `json:"holidays,omitempty"`
	Series          []seriesPoint      `json:"series"`
}

type fitResp struct {
	ModelID  string   `json:"model_id"`
	Warnings []string `json:"warnings"`
}

type predictReq struct {
	Dates []civil.Date `json:"dates"`
}

type predictResp struct {
	Points []struct {
		Ds    civil.Date `json:"ds"`
		Yhat  float64    `json:"yhat"`
		Lower float64    `json:"yhat_lower"`
		Upper float64    `json:"yhat_upper"`
	} `json:"points"`
}

type remoteModel struct {
	engine   *HTTPEngine
	params   models.ModelParams
	region   string
	holidays []holidayRow
	id       string
	history  []civil.Date
}

func (m *remoteModel) AddCountryHolidays(region string) error {
	if m.id != "" {
		return errAlreadyFitted
	}
	region = strings.ToUpper(strings.TrimSpace(region))
	if len(region) != 2 {
		return fmt.Errorf("%w %q", ErrUnknownHolidayRegion, region)
	}
	m.region = region
	return nil
}

func (m *remoteModel) AddHolidays(name string, dates []civil.Date) error {
	if m.id != "" {
		return errAlreadyFitted
	}
	if err := checkHoliday(name, dates); err != nil {
		return err
	}
	name = strings.TrimSpace(name)
	for _, d := range dates {
		m.holidays = append(m.holidays, holidayRow{Holiday: name, Ds: d})
	}
	return nil
}

func (m *remoteModel) Fit(ctx context.Context, series []models.DailyPoint) error {
	if m.id != "" {
		return errAlreadyFitted
	}
	req := fitReq{
		Params:          m.params,
		CountryHolidays: m.region,
		Holidays:        m.holidays,
		Series:          make([]seriesPoint, len(series)),
	}
	history := make([]civil.Date, len(series))
	for i, p := range series {
		req.Series[i] = seriesPoint{Ds: p.Date, Y: p.Value}
		history[i] = p.Date
	}

	var resp fitResp
	err := m.engine.base.PostJSON(ctx, "/v1/models", req, &resp)
	if err != nil && req.CountryHolidays != "" && regionRejected(err) {
		m.engine.l.Warn("forecast.holidays skipped",
			applogger.String("region", req.CountryHolidays),
			applogger.Error(err),
		)
		req.CountryHolidays = ""
		m.region = ""
		resp = fitResp{}
		err = m.engine.base.PostJSON(ctx, "/v1/models", req, &resp)
	}
	if err != nil {
		return err
	}
	if resp.ModelID == "" {
		return fmt.Errorf("forecast service returned no model id")
	}
	for _, w := range resp.Warnings {
		m.engine.l.Warn("forecast.remote warning", applogger.String("model_id", resp.ModelID), applogger.String("warning", w))
	}
	m.id = resp.ModelID
	m.history = history
	return nil
}

func regionRejected(err error) bool {
	var se *xhttp.StatusError
	return errors.As(err, &se) && se.Code == http.StatusUnprocessableEntity && strings.Contains(se.Body, "country_holidays")
}

func (m *remoteModel) MakeFutureDates(periods int, freq models.Frequency) ([]civil.Date, error) {
	if m.id == "" {
		return nil, errNotFitted
	}
	return FutureDates(m.history, periods, freq)
}

func (m *remoteModel) Predict(ctx context.Context, dates []civil.Date) ([]models.ForecastPoint, error) {
	if m.id == "" {
		return nil, errNotFitted
	}
	var resp predictResp
	path := "/v1/models/" + url.PathEscape(m.id) + "/predict"
	if err := m.engine.base.PostJSON(ctx, path, predictReq{Dates: dates}, &resp); err != nil {
		return nil, err
	}
	if len(resp.Points) != len(dates) {
		return nil, fmt.Errorf("forecast service returned %d points for %d dates", len(resp.Points), len(dates))
	}
	out := make([]models.ForecastPoint, len(resp.Points))
	for i, p := range resp.Points {
		out[i] = models.ForecastPoint{Date: p.Ds, Yhat: p.Yhat, Lower: p.Lower, Upper: p.Upper}
	}
	return out, nil
}
