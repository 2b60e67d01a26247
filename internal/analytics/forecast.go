package analytics

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/amishk599/jobpulse/internal/model"
)

// ErrInsufficientData means the history is too short to fit a model.
var ErrInsufficientData = errors.New("analytics: insufficient data")

// MinForecastDays is the fewest distinct days with postings a forecast needs.
const MinForecastDays = 2

// z-score for an approximately 95% interval.
const intervalZ = 1.96

// Estimate is one forecast value with its uncertainty bounds.
type Estimate struct {
	Yhat  float64
	Lower float64
	Upper float64
}

// Forecaster fits a daily series and predicts horizon further days.
type Forecaster interface {
	Name() string
	Fit(series []float64, horizon int) ([]Estimate, error)
}

// NewForecaster returns the forecaster selected by name. seasonLength is the
// seasonal period in days.
func NewForecaster(name string, seasonLength int) (Forecaster, error) {
	switch name {
	case "linear":
		return LinearForecaster{}, nil
	case "seasonal", "":
		return SeasonalForecaster{Season: seasonLength}, nil
	}
	return nil, fmt.Errorf("unknown forecaster %q", name)
}

// LinearForecaster fits count = a + b*day by least squares.
type LinearForecaster struct{}

func (LinearForecaster) Name() string { return "linear" }

func (LinearForecaster) Fit(series []float64, horizon int) ([]Estimate, error) {
	if len(series) < 2 {
		return nil, ErrInsufficientData
	}
	x := dayIndex(len(series))
	alpha, beta := stat.LinearRegression(x, series, nil, false)

	fitted := make([]float64, len(series))
	for i := range series {
		fitted[i] = alpha + beta*x[i]
	}
	sigma := residualSigma(series, fitted, 2)

	out := make([]Estimate, horizon)
	for h := range out {
		t := float64(len(series) + h)
		out[h] = estimate(alpha+beta*t, sigma)
	}
	return out, nil
}

// SeasonalForecaster decomposes the series into a linear trend plus an
// additive seasonal index of Season days. Histories shorter than two
// seasons are fitted linearly.
type SeasonalForecaster struct {
	Season int
}

func (f SeasonalForecaster) Name() string { return "seasonal" }

func (f SeasonalForecaster) Fit(series []float64, horizon int) ([]Estimate, error) {
	m := f.Season
	if m <= 1 || len(series) < 2*m {
		return LinearForecaster{}.Fit(series, horizon)
	}

	x := dayIndex(len(series))
	alpha, beta := stat.LinearRegression(x, series, nil, false)

	sums := make([]float64, m)
	counts := make([]float64, m)
	for i, y := range series {
		sums[i%m] += y - (alpha + beta*x[i])
		counts[i%m]++
	}
	index := make([]float64, m)
	floats.DivTo(index, sums, counts)
	floats.AddConst(-stat.Mean(index, nil), index)

	fitted := make([]float64, len(series))
	for i := range series {
		fitted[i] = alpha + beta*x[i] + index[i%m]
	}
	sigma := residualSigma(series, fitted, 2+m)

	out := make([]Estimate, horizon)
	for h := range out {
		t := len(series) + h
		out[h] = estimate(alpha+beta*float64(t)+index[t%m], sigma)
	}
	return out, nil
}

func dayIndex(n int) []float64 {
	x := make([]float64, n)
	for i := range x {
		x[i] = float64(i)
	}
	return x
}

// residualSigma is the residual standard error with params fitted
// parameters. Too few degrees of freedom falls back to the plain RMS.
func residualSigma(y, fitted []float64, params int) float64 {
	res := make([]float64, len(y))
	floats.SubTo(res, y, fitted)
	ss := floats.Dot(res, res)
	dof := len(y) - params
	if dof <= 0 {
		dof = len(y)
	}
	return math.Sqrt(ss / float64(dof))
}

// estimate clamps at zero since job counts cannot be negative.
func estimate(yhat, sigma float64) Estimate {
	yhat = math.Max(yhat, 0)
	return Estimate{
		Yhat:  yhat,
		Lower: math.Max(yhat-intervalZ*sigma, 0),
		Upper: yhat + intervalZ*sigma,
	}
}

// ForecastQuery selects a skill-demand forecast.
type ForecastQuery struct {
	Skill   string
	Region  string
	Horizon int           // days to predict
	Window  time.Duration // history considered; 0 uses everything
}

// ForecastPoint is one predicted day.
type ForecastPoint struct {
	Date      time.Time `json:"date"`
	Yhat      float64   `json:"yhat"`
	YhatLower float64   `json:"yhat_lower"`
	YhatUpper float64   `json:"yhat_upper"`
}

// Forecast is the result of a demand forecast. When Insufficient is set,
// Points is empty and Reason explains why.
type Forecast struct {
	Skill        string          `json:"skill"`
	Region       string          `json:"region,omitempty"`
	Model        string          `json:"model,omitempty"`
	Insufficient bool            `json:"insufficient_data"`
	Reason       string          `json:"reason,omitempty"`
	History      []Point         `json:"history"`
	Points       []ForecastPoint `json:"forecast"`
}

// Forecast predicts daily job counts for a skill. A skill seen on fewer than
// MinForecastDays distinct days yields an insufficient-data result, never a
// numeric forecast.
func (e *Engine) Forecast(ctx context.Context, q ForecastQuery) (Forecast, error) {
	if strings.TrimSpace(q.Skill) == "" {
		return Forecast{}, fmt.Errorf("forecast needs a skill")
	}
	if q.Horizon <= 0 {
		return Forecast{}, fmt.Errorf("forecast horizon must be positive, got %d", q.Horizon)
	}

	attrs := []attribute.KeyValue{
		attribute.String("skill", q.Skill),
		attribute.String("region", q.Region),
		attribute.Int("horizon", q.Horizon),
		attribute.String("model", e.forecaster.Name()),
	}
	return traced(ctx, "Forecast", attrs, func(ctx context.Context) (Forecast, error) {
		key := cacheKey("forecast", e.forecaster.Name(), q.Skill, q.Region, q.Horizon, q.Window)
		return cached(ctx, e, key, false, func() (Forecast, error) {
			return e.forecast(ctx, q)
		})
	})
}

func (e *Engine) forecast(ctx context.Context, q ForecastQuery) (Forecast, error) {
	result := Forecast{Skill: q.Skill, Region: q.Region}

	facts, err := e.load(ctx, q.Window, q.Region, q.Skill)
	if err != nil {
		return result, err
	}
	dates := make([]time.Time, len(facts))
	for i, f := range facts {
		dates[i] = f.ActivityDate
	}
	history := bucketize(dates, IntervalDay)
	result.History = history

	days := 0
	for _, p := range history {
		if p.Value > 0 {
			days++
		}
	}
	if days < MinForecastDays {
		return insufficient(result, days), nil
	}

	// Extend with zero days up to today so the forecast starts tomorrow.
	today := dayStart(e.now())
	for last := history[len(history)-1].Date; last.Before(today); {
		last = last.AddDate(0, 0, 1)
		history = append(history, Point{Date: last})
	}
	result.History = history

	series := make([]float64, len(history))
	for i, p := range history {
		series[i] = p.Value
	}
	estimates, err := e.forecaster.Fit(series, q.Horizon)
	if errors.Is(err, ErrInsufficientData) {
		return insufficient(result, days), nil
	}
	if err != nil {
		return result, fmt.Errorf("fitting %s forecaster: %w", e.forecaster.Name(), err)
	}

	result.Model = e.forecaster.Name()
	if s, ok := e.forecaster.(SeasonalForecaster); ok && len(series) < 2*s.Season {
		result.Model = "linear"
	}
	start := history[len(history)-1].Date
	for h, est := range estimates {
		result.Points = append(result.Points, ForecastPoint{
			Date:      start.AddDate(0, 0, h+1),
			Yhat:      est.Yhat,
			YhatLower: est.Lower,
			YhatUpper: est.Upper,
		})
	}
	return result, nil
}

func insufficient(f Forecast, days int) Forecast {
	f.Insufficient = true
	f.Reason = fmt.Sprintf("%s: %d day(s) with postings, need at least %d",
		model.KindInsufficientData, days, MinForecastDays)
	f.Points = nil
	return f
}
