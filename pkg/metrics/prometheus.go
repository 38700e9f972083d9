package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	rowsRemoved *prometheus.CounterVec
	errorsTotal *prometheus.CounterVec
	mape        *prometheus.GaugeVec
	stage       *prometheus.HistogramVec
}

// New creates a Prometheus recorder registered on reg; nil means the default registry.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Recorder{
		rowsRemoved: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "salescast_cleaning_rows_removed_total",
				Help: "Rows removed by each cleaning step",
			},
			[]string{"step"},
		),
		errorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "salescast_errors_total",
				Help: "Total number of pipeline errors by kind",
			},
			[]string{"type"},
		),
		mape: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "salescast_forecast_mape_percent",
				Help: "In-sample MAPE of the last forecast per scope",
			},
			[]string{"scope"},
		),
		stage: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "salescast_stage_duration_seconds",
				Help:    "Duration of pipeline stages in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"stage"},
		),
	}
}

// RecordRowsRemoved adds n rows removed by a cleaning step.
func (r *Recorder) RecordRowsRemoved(step string, n int) {
	if n > 0 {
		r.rowsRemoved.WithLabelValues(step).Add(float64(n))
	}
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordMAPE stores the latest MAPE for a scope.
func (r *Recorder) RecordMAPE(scope string, mape float64) {
	r.mape.WithLabelValues(scope).Set(mape)
}

// RecordStage records stage latency in seconds.
func (r *Recorder) RecordStage(stage string, seconds float64) {
	r.stage.WithLabelValues(stage).Observe(seconds)
}

// Noop discards every measurement.
type Noop struct{}

func (Noop) RecordRowsRemoved(string, int) {}
func (Noop) RecordError(string)            {}
func (Noop) RecordMAPE(string, float64)    {}
func (Noop) RecordStage(string, float64)   {}
