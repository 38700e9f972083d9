package analytics

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"sort"

	"cloud.google.com/go/civil"

	"SalesCast/internal/domain/models"
	"SalesCast/internal/domain/service"
)

const (
	yearlyPeriod     = 365.25
	weeklyPeriod     = 7.0
	yearlyOrder      = 10
	weeklyOrder      = 3
	maxChangepoints  = 25
	changepointRange = 0.8
)

var (
	errNotFitted     = errors.New("model is not fitted")
	errAlreadyFitted = errors.New("model is already fitted")
)

// SeasonalEngine fits a piecewise-linear trend with Fourier seasonality and holiday
// effects in process. Daily seasonality has no effect on a date grid and is ignored.
type SeasonalEngine struct{}

var _ service.ForecastEngine = (*SeasonalEngine)(nil)

func NewSeasonalEngine() *SeasonalEngine { return &SeasonalEngine{} }

func (e *SeasonalEngine) Name() string { return "local" }

func (e *SeasonalEngine) NewModel(params models.ModelParams) (service.ForecastModel, error) {
	if err := ValidateParams(params); err != nil {
		return nil, err
	}
	return &seasonalModel{params: params}, nil
}

// ValidateParams rejects configurations no engine can fit.
func ValidateParams(p models.ModelParams) error {
	switch p.SeasonalityMode {
	case models.SeasonalityAdditive, models.SeasonalityMultiplicative:
	default:
		return fmt.Errorf("unknown seasonality mode %q", p.SeasonalityMode)
	}
	if p.ChangepointPriorScale <= 0 || p.SeasonalityPriorScale <= 0 || p.HolidaysPriorScale <= 0 {
		return errors.New("prior scales must be positive")
	}
	if p.IntervalWidth <= 0 || p.IntervalWidth >= 1 {
		return fmt.Errorf("interval width %v outside (0, 1)", p.IntervalWidth)
	}
	return nil
}

type seasonalModel struct {
	params   models.ModelParams
	calendar HolidayCalendar
	custom   holidaySet

	fitted       bool
	history      []civil.Date
	first        civil.Date
	span         float64
	changepoints []float64
	holidays     []string

	scale     float64
	trendBeta []float64
	seasBeta  []float64
	sigma     float64
	z         float64
}

func (m *seasonalModel) AddCountryHolidays(region string) error {
	if m.fitted {
		return errAlreadyFitted
	}
	cal, err := LookupHolidays(region)
	if err != nil {
		return err
	}
	m.calendar = cal
	return nil
}

func (m *seasonalModel) AddHolidays(name string, dates []civil.Date) error {
	if m.fitted {
		return errAlreadyFitted
	}
	if m.custom == nil {
		m.custom = holidaySet{}
	}
	return m.custom.add(name, dates)
}

func (m *seasonalModel) Fit(ctx context.Context, series []models.DailyPoint) error {
	if m.fitted {
		return errAlreadyFitted
	}
	if len(series) < 2 {
		return errors.New("series has less than 2 points")
	}
	for i, p := range series {
		if math.IsNaN(p.Value) || math.IsInf(p.Value, 0) {
			return fmt.Errorf("non-finite value on %s", p.Date)
		}
		if i > 0 && !p.Date.After(series[i-1].Date) {
			return fmt.Errorf("dates not strictly increasing at %s", p.Date)
		}
	}

	m.first = series[0].Date
	m.span = float64(series[len(series)-1].Date.DaysSince(m.first))
	m.history = make([]civil.Date, len(series))
	y := make([]float64, len(series))
	m.scale = 0
	for i, p := range series {
		m.history[i] = p.Date
		m.scale = math.Max(m.scale, math.Abs(p.Value))
	}
	if m.scale == 0 {
		m.scale = 1
	}
	for i, p := range series {
		y[i] = p.Value / m.scale
	}

	ncp := maxChangepoints
	if limit := int(changepointRange*float64(len(series))) - 1; limit < ncp {
		ncp = limit
	}
	m.changepoints = m.changepoints[:0]
	for j := 1; j <= ncp; j++ {
		m.changepoints = append(m.changepoints, changepointRange*float64(j)/float64(ncp+1))
	}
	m.holidays = m.holidayNames()

	if err := ctx.Err(); err != nil {
		return err
	}

	nt := 2 + len(m.changepoints)
	trendRows := make([][]float64, len(series))
	seasRows := make([][]float64, len(series))
	full := make([][]float64, len(series))
	for i, d := range m.history {
		trendRows[i] = m.trendFeatures(d)
		seasRows[i] = m.seasonalFeatures(d)
		full[i] = append(append([]float64(nil), trendRows[i]...), seasRows[i]...)
	}

	// First pass without changepoints estimates the noise level that sets the priors.
	basic := make([][]float64, len(series))
	for i := range full {
		basic[i] = append(append([]float64(nil), full[i][:2]...), seasRows[i]...)
	}
	_, sdY := meanStd(y)
	varY := math.Max(sdY*sdY, 1e-9)
	beta, err := solveRidge(basic, y, m.penalties(2, varY))
	if err != nil {
		return fmt.Errorf("initial fit: %w", err)
	}
	noise := math.Max(residualVariance(basic, y, beta), 1e-3*varY)

	beta, err = solveRidge(full, y, m.penalties(nt, noise))
	if err != nil {
		return fmt.Errorf("fit: %w", err)
	}
	m.trendBeta = beta[:nt]
	m.seasBeta = beta[nt:]

	if m.params.SeasonalityMode == models.SeasonalityMultiplicative && len(m.seasBeta) > 0 {
		if err := m.fitMultiplicative(trendRows, seasRows, y); err != nil {
			return err
		}
	}

	m.fitted = true
	resid := make([]float64, len(series))
	for i, d := range m.history {
		resid[i] = series[i].Value - m.yhat(d)
	}
	_, m.sigma = meanStd(resid)
	m.z = math.Sqrt2 * math.Erfinv(m.params.IntervalWidth)
	return nil
}

// fitMultiplicative refits the seasonal terms as relative deviations from the trend.
func (m *seasonalModel) fitMultiplicative(trendRows, seasRows [][]float64, y []float64) error {
	var xs [][]float64
	var ratios []float64
	for i := range y {
		g := dot(trendRows[i], m.trendBeta)
		if math.Abs(g) < 1e-9 {
			continue
		}
		xs = append(xs, seasRows[i])
		ratios = append(ratios, y[i]/g-1)
	}
	if len(xs) == 0 {
		m.seasBeta = make([]float64, len(m.seasBeta))
		return nil
	}
	_, sd := meanStd(ratios)
	noise := math.Max(sd*sd, 1e-6)
	beta, err := solveRidge(xs, ratios, m.penalties(0, noise))
	if err != nil {
		return fmt.Errorf("multiplicative fit: %w", err)
	}
	m.seasBeta = beta
	return nil
}

// penalties builds ridge weights for nt trend columns followed by the seasonal columns.
// Weights are noise / prior_scale^2 with noise floored at 1% of the scaled range;
// intercept and slope get a tiny constant.
func (m *seasonalModel) penalties(nt int, noise float64) []float64 {
	noise = math.Max(noise, 1e-4)
	var out []float64
	for j := 0; j < nt; j++ {
		if j < 2 {
			out = append(out, 1e-9)
			continue
		}
		out = append(out, noise/(m.params.ChangepointPriorScale*m.params.ChangepointPriorScale))
	}
	seasonal := noise / (m.params.SeasonalityPriorScale * m.params.SeasonalityPriorScale)
	for j := 0; j < m.fourierWidth(); j++ {
		out = append(out, seasonal)
	}
	holiday := noise / (m.params.HolidaysPriorScale * m.params.HolidaysPriorScale)
	for range m.holidays {
		out = append(out, holiday)
	}
	return out
}

func (m *seasonalModel) fourierWidth() int {
	w := 0
	if m.params.YearlySeasonality {
		w += 2 * yearlyOrder
	}
	if m.params.WeeklySeasonality {
		w += 2 * weeklyOrder
	}
	return w
}

func (m *seasonalModel) position(d civil.Date) float64 {
	if m.span == 0 {
		return float64(d.DaysSince(m.first))
	}
	return float64(d.DaysSince(m.first)) / m.span
}

func (m *seasonalModel) trendFeatures(d civil.Date) []float64 {
	t := m.position(d)
	out := make([]float64, 0, 2+len(m.changepoints))
	out = append(out, 1, t)
	for _, s := range m.changepoints {
		out = append(out, math.Max(0, t-s))
	}
	return out
}

func (m *seasonalModel) seasonalFeatures(d civil.Date) []float64 {
	epoch := float64(d.DaysSince(civil.Date{Year: 1970, Month: 1, Day: 1}))
	out := make([]float64, 0, m.fourierWidth()+len(m.holidays))
	if m.params.YearlySeasonality {
		out = appendFourier(out, epoch, yearlyPeriod, yearlyOrder)
	}
	if m.params.WeeklySeasonality {
		out = appendFourier(out, epoch, weeklyPeriod, weeklyOrder)
	}
	if len(m.holidays) > 0 {
		on := m.holidaysOn(d)
		for _, h := range m.holidays {
			if slices.Contains(on, h) {
				out = append(out, 1)
			} else {
				out = append(out, 0)
			}
		}
	}
	return out
}

func appendFourier(out []float64, t, period float64, order int) []float64 {
	for k := 1; k <= order; k++ {
		x := 2 * math.Pi * float64(k) * t / period
		out = append(out, math.Sin(x), math.Cos(x))
	}
	return out
}

// holidaysOn lists the country and custom holidays falling on d.
func (m *seasonalModel) holidaysOn(d civil.Date) []string {
	var out []string
	if m.calendar != nil {
		if name, ok := m.calendar(d.Year)[d]; ok {
			out = append(out, name)
		}
	}
	return append(out, m.custom[d]...)
}

// holidayNames lists holidays falling inside the history, sorted. Each one becomes
// an indicator column; holidays seen only in the future get no effect.
func (m *seasonalModel) holidayNames() []string {
	if len(m.history) == 0 {
		return nil
	}
	seen := map[string]struct{}{}
	last := m.history[len(m.history)-1]
	if m.calendar != nil {
		for year := m.first.Year; year <= last.Year; year++ {
			for d, name := range m.calendar(year) {
				if !d.Before(m.first) && !d.After(last) {
					seen[name] = struct{}{}
				}
			}
		}
	}
	for d, names := range m.custom {
		if d.Before(m.first) || d.After(last) {
			continue
		}
		for _, name := range names {
			seen[name] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (m *seasonalModel) yhat(d civil.Date) float64 {
	g := dot(m.trendFeatures(d), m.trendBeta)
	s := dot(m.seasonalFeatures(d), m.seasBeta)
	if m.params.SeasonalityMode == models.SeasonalityMultiplicative {
		return m.scale * g * (1 + s)
	}
	return m.scale * (g + s)
}

func (m *seasonalModel) MakeFutureDates(periods int, freq models.Frequency) ([]civil.Date, error) {
	if !m.fitted {
		return nil, errNotFitted
	}
	return FutureDates(m.history, periods, freq)
}

func (m *seasonalModel) Predict(ctx context.Context, dates []civil.Date) ([]models.ForecastPoint, error) {
	if !m.fitted {
		return nil, errNotFitted
	}
	last := m.history[len(m.history)-1]
	n := float64(len(m.history))
	out := make([]models.ForecastPoint, 0, len(dates))
	for _, d := range dates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		y := m.yhat(d)
		width := m.z * m.sigma
		if h := d.DaysSince(last); h > 0 {
			width *= math.Sqrt(1 + float64(h)/n)
		}
		out = append(out, models.ForecastPoint{Date: d, Yhat: y, Lower: y - width, Upper: y + width})
	}
	return out, nil
}

func residualVariance(x [][]float64, y, beta []float64) float64 {
	ss := 0.0
	for i := range x {
		r := y[i] - dot(x[i], beta)
		ss += r * r
	}
	if len(y) < 2 {
		return ss
	}
	return ss / float64(len(y)-1)
}
