package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	applogger "SalesCast/pkg/logger"
)

var pingHandler = HandlerFunc(func(e *echo.Echo) {
	e.GET("/ping", func(c echo.Context) error { return OK(c, "pong") })
	e.GET("/missing", func(c echo.Context) error {
		return Fail(c, NotFound("run %s not found", "x").Because(errors.New("inner")))
	})
	e.GET("/plain", func(c echo.Context) error { return Fail(c, errors.New("boom")) })
})

func TestServerRoutesAndMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := NewServer(applogger.Nop(), []Handler{pingHandler}, WithMetrics(reg, "/metrics"))

	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":200,"message":"OK","data":"pong"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"ERR_NOT_FOUND"`)
	assert.Contains(t, rec.Body.String(), "run x not found")

	rec = httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/plain", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"ERR_INTERNAL"`)
	assert.NotContains(t, rec.Body.String(), "boom")

	rec = httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"ERR_NOT_FOUND"`)

	rec = httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/ping", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"ERR_METHOD_NOT_ALLOWED"`)

	rec = httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `salescast_http_requests_total{class="2xx",method="GET",route="/ping"} 1`)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestAppError(t *testing.T) {
	inner := errors.New("series too short")
	err := Unprocessable("ERR_INSUFFICIENT_DATA", inner).WithParam("run_id", "r1")

	assert.Equal(t, http.StatusUnprocessableEntity, err.Status)
	assert.Equal(t, "series too short", err.Message)
	assert.ErrorIs(t, err, inner)
	assert.Equal(t, "ERR_INSUFFICIENT_DATA: series too short: series too short", err.Error())
	assert.Equal(t, "r1", err.Params["run_id"])

	rl := RateLimited("10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, rl.Status)
	assert.Equal(t, CodeRateLimited, rl.Code)
}

func TestServerStartStop(t *testing.T) {
	s := NewServer(applogger.Nop(), []Handler{pingHandler}, WithHost("127.0.0.1"), WithPort(0))
	errCh, err := s.Start()
	require.NoError(t, err)

	resp, err := http.Get("http://" + s.Echo().Listener.Addr().String() + "/ping")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.True(t, strings.Contains(string(body), "pong"))

	require.NoError(t, s.Stop(context.Background()))
	assert.NoError(t, <-errCh)
}

type bindRequest struct {
	Periods int    `json:"periods" default:"30" validate:"gte=1,lte=365"`
	Freq    string `json:"freq" default:"D" validate:"oneof=D W M"`
}

func TestReadAndValidateRequest(t *testing.T) {
	e := echo.New()
	newCtx := func(body string) echo.Context {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		return e.NewContext(req, httptest.NewRecorder())
	}

	var ok bindRequest
	require.Nil(t, ReadAndValidateRequest(newCtx(`{}`), &ok))
	assert.Equal(t, bindRequest{Periods: 30, Freq: "D"}, ok)

	var bad bindRequest
	errs := ReadAndValidateRequest(newCtx(`{"periods":1000,"freq":"Y"}`), &bad)
	require.Len(t, errs, 2)
	assert.Equal(t, "ERR_LTE", errs[0].Code)
	assert.Equal(t, "periods", errs[0].Field)
	assert.Equal(t, "periods must be at most 365", errs[0].Message)
	assert.Equal(t, "ERR_ONEOF", errs[1].Code)
	assert.Equal(t, []string{"D", "W", "M"}, errs[1].Params["options"])

	errs = ReadAndValidateRequest(newCtx(`{"periods":`), &bad)
	require.Len(t, errs, 1)
	assert.Equal(t, "ERR_BIND", errs[0].Code)
}
