// Package align implements irregular-to-uniform-grid time alignment
// (spec §4.7): rate estimation, gap detection/handling, and interpolation
// onto a uniform output grid.
package align

import (
	"math"

	"github.com/dspxio/dspx/dspxerr"
)

type Interpolation string

const (
	InterpLinear Interpolation = "linear"
	InterpCubic  Interpolation = "cubic"
	InterpSinc   Interpolation = "sinc"
)

type GapPolicy string

const (
	GapError       GapPolicy = "error"
	GapZeroFill    GapPolicy = "zero-fill"
	GapHold        GapPolicy = "hold"
	GapInterpolate GapPolicy = "interpolate"
	GapExtrapolate GapPolicy = "extrapolate"
)

type DriftCompensation string

const (
	DriftNone       DriftCompensation = "none"
	DriftRegression DriftCompensation = "regression"
	DriftPLL        DriftCompensation = "pll"
)

// Config holds the parameters for one Align call.
type Config struct {
	TargetSampleRate float64
	Interpolation    Interpolation
	GapPolicy        GapPolicy
	GapThresholdMult float64 // multiplier of expected interval
	Drift            DriftCompensation
	SincHalfWidth    int // 2M+1 points when Interpolation==sinc
}

// Stats reports per-call alignment statistics (spec §4.7).
type Stats struct {
	InputSamples     int
	OutputSamples    int
	GapCount         int
	EstimatedRateHz  float64
	IntervalMinMs    float64
	IntervalMaxMs    float64
	IntervalMeanMs   float64
	IntervalStdMs    float64
	SmallestGapMs    float64
	LargestGapMs     float64
}

// Align resamples irregular (values, timestamps) onto a uniform grid per
// cfg, returning the output samples, their timestamps, and call stats.
func Align(values, timestamps []float32, cfg Config) ([]float32, []float32, Stats, error) {
	n := len(values)
	if n == 0 || n != len(timestamps) {
		return nil, nil, Stats{}, dspxerr.New(dspxerr.KindInvalidArgument, "align: values/timestamps length mismatch or empty")
	}
	for i := 1; i < n; i++ {
		if timestamps[i] < timestamps[i-1] {
			return nil, nil, Stats{}, dspxerr.NonMonotonic
		}
	}

	intervals := make([]float64, 0, n-1)
	for i := 1; i < n; i++ {
		intervals = append(intervals, float64(timestamps[i]-timestamps[i-1]))
	}
	stats := Stats{InputSamples: n}
	if len(intervals) > 0 {
		stats.IntervalMinMs, stats.IntervalMaxMs = intervals[0], intervals[0]
		var sum float64
		for _, iv := range intervals {
			sum += iv
			if iv < stats.IntervalMinMs {
				stats.IntervalMinMs = iv
			}
			if iv > stats.IntervalMaxMs {
				stats.IntervalMaxMs = iv
			}
		}
		stats.IntervalMeanMs = sum / float64(len(intervals))
		var variance float64
		for _, iv := range intervals {
			d := iv - stats.IntervalMeanMs
			variance += d * d
		}
		variance /= float64(len(intervals))
		stats.IntervalStdMs = math.Sqrt(variance)
	}

	expectedIntervalMs := 1000.0 / cfg.TargetSampleRate
	estimatedRate := estimateRate(timestamps, cfg, expectedIntervalMs)
	stats.EstimatedRateHz = estimatedRate

	gapThreshold := cfg.GapThresholdMult * expectedIntervalMs
	gapCount := 0
	smallestGap, largestGap := math.Inf(1), 0.0
	for _, iv := range intervals {
		if iv > gapThreshold {
			gapCount++
			if iv < smallestGap {
				smallestGap = iv
			}
			if iv > largestGap {
				largestGap = iv
			}
		}
	}
	if gapCount == 0 {
		smallestGap = 0
	}
	stats.GapCount = gapCount
	stats.SmallestGapMs = smallestGap
	stats.LargestGapMs = largestGap

	if gapCount > 0 && cfg.GapPolicy == GapError {
		return nil, nil, stats, dspxerr.Newf(dspxerr.KindInvalidArgument, "align: %d gap(s) exceed threshold", gapCount)
	}

	t0 := float64(timestamps[0])
	tLast := float64(timestamps[n-1])
	step := 1000.0 / cfg.TargetSampleRate
	outN := int(math.Ceil((tLast-t0)*cfg.TargetSampleRate/1000)) + 1
	outVals := make([]float32, outN)
	outTimes := make([]float32, outN)

	cursor := 0
	for k := 0; k < outN; k++ {
		tk := t0 + float64(k)*step
		outTimes[k] = float32(tk)

		for cursor < n-2 && float64(timestamps[cursor+1]) < tk {
			cursor++
		}
		j := cursor
		tj, tj1 := float64(timestamps[j]), float64(timestamps[j+1])
		isGap := (tj1 - tj) > gapThreshold

		if isGap && tk > tj && tk < tj1 {
			outVals[k] = applyGapPolicy(cfg.GapPolicy, values, j, tk, tj, tj1)
			continue
		}

		outVals[k] = interpolate(values, timestamps, j, tk, cfg)
	}

	return outVals, outTimes, stats, nil
}

func estimateRate(timestamps []float32, cfg Config, expectedIntervalMs float64) float64 {
	n := len(timestamps)
	switch cfg.Drift {
	case DriftRegression:
		if n < 2 {
			return cfg.TargetSampleRate
		}
		var sumI, sumI2, sumT, sumIT float64
		for i, t := range timestamps {
			fi := float64(i)
			sumI += fi
			sumI2 += fi * fi
			sumT += float64(t)
			sumIT += fi * float64(t)
		}
		fn := float64(n)
		denom := fn*sumI2 - sumI*sumI
		if denom == 0 {
			return cfg.TargetSampleRate
		}
		slopeMsPerSample := (fn*sumIT - sumI*sumT) / denom
		if slopeMsPerSample == 0 {
			return cfg.TargetSampleRate
		}
		return 1000.0 / slopeMsPerSample
	case DriftPLL:
		if n < 2 {
			return cfg.TargetSampleRate
		}
		const alpha = 0.1
		rate := 1000.0 / expectedIntervalMs
		for i := 1; i < n; i++ {
			dt := float64(timestamps[i] - timestamps[i-1])
			if dt <= 0 {
				continue
			}
			inst := 1000.0 / dt
			rate = alpha*inst + (1-alpha)*rate
		}
		return rate
	default: // DriftNone: use the provided target rate verbatim
		return cfg.TargetSampleRate
	}
}

func applyGapPolicy(policy GapPolicy, values []float32, j int, tk, tj, tj1 float64) float32 {
	switch policy {
	case GapZeroFill:
		return 0
	case GapHold:
		return values[j]
	case GapExtrapolate:
		if j+1 < len(values) {
			slope := float64(values[j+1]-values[j]) / (tj1 - tj)
			return float32(float64(values[j]) + slope*(tk-tj))
		}
		return values[j]
	default: // GapInterpolate (and GapError, already rejected earlier)
		frac := (tk - tj) / (tj1 - tj)
		return values[j] + float32(frac)*(values[j+1]-values[j])
	}
}

func interpolate(values, timestamps []float32, j int, tk float64, cfg Config) float32 {
	n := len(values)
	tj := float64(timestamps[j])
	var tj1 float64
	if j+1 < n {
		tj1 = float64(timestamps[j+1])
	} else {
		tj1 = tj
	}

	switch cfg.Interpolation {
	case InterpCubic:
		return cubicInterp(values, timestamps, j, tk)
	case InterpSinc:
		m := cfg.SincHalfWidth
		if m <= 0 {
			m = 4
		}
		return sincInterp(values, timestamps, j, tk, m)
	default: // linear
		if j+1 >= n || tj1 == tj {
			return values[j]
		}
		frac := (tk - tj) / (tj1 - tj)
		return values[j] + float32(frac)*(values[j+1]-values[j])
	}
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// cubicInterp uses the 4 nearest points (j-1..j+2) via Catmull-Rom.
func cubicInterp(values, timestamps []float32, j int, tk float64) float32 {
	n := len(values)
	i0, i1, i2, i3 := clampIndex(j-1, n), clampIndex(j, n), clampIndex(j+1, n), clampIndex(j+2, n)
	t1, t2 := float64(timestamps[i1]), float64(timestamps[i2])
	if t2 == t1 {
		return values[i1]
	}
	u := (tk - t1) / (t2 - t1)
	p0, p1, p2, p3 := float64(values[i0]), float64(values[i1]), float64(values[i2]), float64(values[i3])
	u2 := u * u
	u3 := u2 * u
	a0 := -0.5*p0 + 1.5*p1 - 1.5*p2 + 0.5*p3
	a1 := p0 - 2.5*p1 + 2*p2 - 0.5*p3
	a2 := -0.5*p0 + 0.5*p2
	a3 := p1
	return float32(a0*u3 + a1*u2 + a2*u + a3)
}

// sincInterp uses 2M+1 windowed-sinc-weighted neighbors around j.
func sincInterp(values, timestamps []float32, j int, tk float64, m int) float32 {
	n := len(values)
	avgDt := 1.0
	lo, hi := clampIndex(j-m, n), clampIndex(j+m, n)
	if hi > lo {
		avgDt = (float64(timestamps[hi]) - float64(timestamps[lo])) / float64(hi-lo)
	}
	if avgDt <= 0 {
		avgDt = 1
	}
	var num, den float64
	for i := lo; i <= hi; i++ {
		x := (tk - float64(timestamps[i])) / avgDt
		w := sinc(x) * lanczosWindow(x, float64(m))
		num += w * float64(values[i])
		den += w
	}
	if den == 0 {
		return values[clampIndex(j, n)]
	}
	return float32(num / den)
}

func sinc(x float64) float64 {
	if x == 0 {
		return 1
	}
	px := math.Pi * x
	return math.Sin(px) / px
}

func lanczosWindow(x, a float64) float64 {
	if x < -a || x > a {
		return 0
	}
	if x == 0 {
		return 1
	}
	return sinc(x / a)
}
