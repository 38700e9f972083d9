package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SalesCast/internal/domain/models"
	"SalesCast/pkg/config"
	xhttp "SalesCast/pkg/http"
	applogger "SalesCast/pkg/logger"
)

func sidecar(t *testing.T, fitStatus *int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/models", func(w http.ResponseWriter, r *http.Request) {
		if code := atomic.LoadInt32(fitStatus); code != http.StatusOK {
			atomic.StoreInt32(fitStatus, http.StatusOK)
			w.WriteHeader(int(code))
			return
		}
		var req fitReq
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "RU", req.CountryHolidays)
		assert.Equal(t, models.SeasonalityMultiplicative, req.Params.SeasonalityMode)
		_ = json.NewEncoder(w).Encode(fitResp{ModelID: "m-1", Warnings: []string{"holidays partially applied"}})
	})
	mux.HandleFunc("/v1/models/m-1/predict", func(w http.ResponseWriter, r *http.Request) {
		var req predictReq
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		resp := map[string]interface{}{}
		var points []map[string]interface{}
		for i, d := range req.Dates {
			points = append(points, map[string]interface{}{
				"ds": d.String(), "yhat": float64(i), "yhat_lower": float64(i) - 1, "yhat_upper": float64(i) + 1,
			})
		}
		resp["points"] = points
		_ = json.NewEncoder(w).Encode(resp)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPEngineRoundTrip(t *testing.T) {
	status := int32(http.StatusServiceUnavailable)
	srv := sidecar(t, &status)

	e := NewHTTPEngine(config.EngineConfig{URL: srv.URL, Timeout: time.Second, Retries: 2}, nil)
	m, err := e.NewModel(models.DefaultModelParams())
	require.NoError(t, err)
	require.NoError(t, m.AddCountryHolidays("ru"))

	series := syntheticSeries(10, func(i int) float64 { return float64(i) })
	require.NoError(t, m.Fit(context.Background(), series), "503 is retried")

	dates, err := m.MakeFutureDates(5, models.FreqDaily)
	require.NoError(t, err)
	require.Len(t, dates, 15)

	points, err := m.Predict(context.Background(), dates)
	require.NoError(t, err)
	require.Len(t, points, 15)
	assert.Equal(t, dates[14], points[14].Date)
	assert.Equal(t, 14.0, points[14].Yhat)
}

func TestHTTPEngineRejection(t *testing.T) {
	status := int32(http.StatusUnprocessableEntity)
	srv := sidecar(t, &status)

	e := NewHTTPEngine(config.EngineConfig{URL: srv.URL, Retries: 3}, nil, xhttp.WithHTTPClient(srv.Client()))
	m, err := e.NewModel(models.DefaultModelParams())
	require.NoError(t, err)

	err = m.Fit(context.Background(), syntheticSeries(3, func(int) float64 { return 1 }))
	var se *xhttp.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusUnprocessableEntity, se.Code)

	_, err = m.Predict(context.Background(), nil)
	assert.ErrorIs(t, err, errNotFitted)
}

func TestHTTPEngineRetriesWithoutRejectedRegion(t *testing.T) {
	var fits []fitReq
	var mu sync.Mutex
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req fitReq
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		mu.Lock()
		fits = append(fits, req)
		mu.Unlock()
		if req.CountryHolidays != "" {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"detail": "country_holidays: no calendar for ZZ"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(fitResp{ModelID: "m-2"})
	}))
	t.Cleanup(srv.Close)

	var logs bytes.Buffer
	e := NewHTTPEngine(config.EngineConfig{URL: srv.URL, Retries: 3}, applogger.NewWithWriter(&logs, "warn"))
	m, err := e.NewModel(models.DefaultModelParams())
	require.NoError(t, err)
	require.NoError(t, m.AddCountryHolidays("zz"))
	black := []civil.Date{{Year: 2024, Month: time.November, Day: 29}}
	require.NoError(t, m.AddHolidays(" black_friday ", black))

	require.NoError(t, m.Fit(context.Background(), syntheticSeries(5, func(int) float64 { return 1 })))
	mu.Lock()
	defer mu.Unlock()
	require.Len(t, fits, 2)
	assert.Equal(t, "ZZ", fits[0].CountryHolidays)
	assert.Empty(t, fits[1].CountryHolidays)
	assert.Equal(t, []holidayRow{{Holiday: "black_friday", Ds: black[0]}}, fits[1].Holidays)
	assert.Contains(t, logs.String(), "forecast.holidays skipped")
	assert.Equal(t, "m-2", m.(*remoteModel).id)
}

func TestHTTPEngineKeepsOtherRejections(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"detail": "series too short"}`))
	}))
	t.Cleanup(srv.Close)

	m, err := NewHTTPEngine(config.EngineConfig{URL: srv.URL, Retries: 3}, nil).NewModel(models.DefaultModelParams())
	require.NoError(t, err)
	require.NoError(t, m.AddCountryHolidays("RU"))

	err = m.Fit(context.Background(), syntheticSeries(3, func(int) float64 { return 1 }))
	var se *xhttp.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusUnprocessableEntity, se.Code)
	assert.Equal(t, int32(1), calls.Load())
	assert.ErrorIs(t, m.AddHolidays("promo", nil), ErrInvalidHoliday)
}

func TestHTTPEngineNotConfigured(t *testing.T) {
	m, err := NewHTTPEngine(config.EngineConfig{}, nil).NewModel(models.DefaultModelParams())
	require.NoError(t, err)
	assert.Error(t, m.Fit(context.Background(), syntheticSeries(3, func(int) float64 { return 1 })))
	assert.Error(t, m.AddCountryHolidays("Russia"))
}
