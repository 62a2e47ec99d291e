// Package indicators derives summary statistics from a chart price series.
package indicators

import (
	"math"

	"coinlook-api/pkg/market"
)

const (
	DefaultEMAPeriod = 20
	DefaultRSIPeriod = 14
)

// Summary describes one chart range at a glance. Indicator fields are nil when
// the series is too short for their period.
type Summary struct {
	Open      float64  `json:"open"`
	Close     float64  `json:"close"`
	High      float64  `json:"high"`
	Low       float64  `json:"low"`
	ChangePct float64  `json:"change_pct"`
	EMA       *float64 `json:"ema,omitempty"`
	RSI       *float64 `json:"rsi,omitempty"`
	Samples   int      `json:"samples"`
}

// Summarize computes the range summary for points ordered by time.
func Summarize(points []market.ChartPoint) Summary {
	s := Summary{Samples: len(points)}
	if len(points) == 0 {
		return s
	}
	values := Values(points)
	s.Open, s.Close = values[0], values[len(values)-1]
	s.High, s.Low = values[0], values[0]
	for _, v := range values[1:] {
		s.High = math.Max(s.High, v)
		s.Low = math.Min(s.Low, v)
	}
	if s.Open != 0 {
		s.ChangePct = (s.Close - s.Open) / s.Open * 100
	}
	s.EMA = lastFinite(EMA(values, DefaultEMAPeriod))
	s.RSI = lastFinite(RSI(values, DefaultRSIPeriod))
	return s
}

// Values extracts the sample values of points.
func Values(points []market.ChartPoint) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.Value
	}
	return out
}

// EMA returns the exponential moving average of values, seeded with the simple
// average of the first full window. Entries before the seed are NaN.
func EMA(values []float64, period int) []float64 {
	if period <= 0 || len(values) == 0 {
		return []float64{}
	}
	out := nanSeries(len(values))
	if len(values) < period {
		return out
	}
	var sum float64
	for _, v := range values[:period] {
		sum += v
	}
	out[period-1] = sum / float64(period)

	k := 2.0 / float64(period+1)
	for i := period; i < len(values); i++ {
		out[i] = out[i-1] + (values[i]-out[i-1])*k
	}
	return out
}

// RSI returns Wilder's relative strength index of values.
func RSI(values []float64, period int) []float64 {
	if period <= 0 || len(values) == 0 {
		return []float64{}
	}
	out := nanSeries(len(values))
	if len(values) <= period {
		return out
	}

	var gain, loss float64
	for i := 1; i <= period; i++ {
		g, l := moves(values[i] - values[i-1])
		gain += g
		loss += l
	}
	gain /= float64(period)
	loss /= float64(period)
	out[period] = strength(gain, loss)

	n := float64(period)
	for i := period + 1; i < len(values); i++ {
		g, l := moves(values[i] - values[i-1])
		gain = (gain*(n-1) + g) / n
		loss = (loss*(n-1) + l) / n
		out[i] = strength(gain, loss)
	}
	return out
}

func moves(delta float64) (gain, loss float64) {
	if delta > 0 {
		return delta, 0
	}
	return 0, -delta
}

func strength(gain, loss float64) float64 {
	switch {
	case gain == 0 && loss == 0:
		return 50
	case loss == 0:
		return 100
	default:
		return 100 - 100/(1+gain/loss)
	}
}

func nanSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

func lastFinite(series []float64) *float64 {
	if len(series) == 0 {
		return nil
	}
	v := series[len(series)-1]
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
