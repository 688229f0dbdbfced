package window

import "github.com/dspxio/dspx/internal/simd"

// PeakDetection scans the current window for local maxima exceeding a
// threshold with a minimum peak distance (in samples). Unlike the other
// policies it needs read access to the live window contents, so its
// Result takes the window snapshot directly rather than relying solely on
// incremental state.
type PeakDetection struct {
	Threshold       float32
	MinPeakDistance int
}

func (p *PeakDetection) OnAdd(x float32)    {}
func (p *PeakDetection) OnRemove(x float32) {}
func (p *PeakDetection) Clear()             {}

// Result is unused for PeakDetection; call ResultFromWindow instead. It
// satisfies the Policy interface for uniform engine wiring.
func (p *PeakDetection) Result(count int) float32 { return 0 }

// ResultFromWindow returns 1 if the newest sample in window is a detected
// peak, else 0 (the adapter layer calls this after the engine pushes the
// sample, passing the oldest-to-newest window contents).
func (p *PeakDetection) ResultFromWindow(win []float32) float32 {
	n := len(win)
	if n == 0 {
		return 0
	}
	last := n - 1
	v := win[last]
	if v < p.Threshold {
		return 0
	}
	lo := last - p.MinPeakDistance
	if lo < 0 {
		lo = 0
	}
	for i := lo; i < last; i++ {
		if win[i] >= v {
			return 0
		}
	}
	return 1
}

// Convolution stores a pre-reversed kernel; Result is computed on demand
// via a SIMD dot product against the oldest-to-newest window, not from a
// running aggregate (spec §4.2).
type Convolution struct {
	ReversedKernel []float32
}

func (p *Convolution) OnAdd(x float32)    {}
func (p *Convolution) OnRemove(x float32) {}
func (p *Convolution) Clear()             {}

// Result is unused for Convolution; call ResultFromWindow instead, the same
// way PeakDetection needs the live window rather than incremental state.
func (p *Convolution) Result(count int) float32 { return 0 }

// ResultFromWindow dot-products the reversed kernel against the
// oldest-to-newest window, zero-padding on the left when the window hasn't
// filled yet so a kernel longer than the samples seen so far still lines up
// with its trailing (most recent) taps.
func (p *Convolution) ResultFromWindow(win []float32) float32 {
	k := len(p.ReversedKernel)
	if len(win) < k {
		padded := make([]float32, k)
		copy(padded[k-len(win):], win)
		win = padded
	} else if len(win) > k {
		win = win[len(win)-k:]
	}
	return float32(simd.DotProduct(p.ReversedKernel, win))
}

// LinearRegression tracks the accumulators needed for a windowed
// least-squares fit of (i, x_i): Σi, Σi², Σx, Σix. i is the position of a
// sample within insertion order (0-based, monotonically increasing); since
// the window slides, the engine recomputes the fit from the live window
// rather than maintaining Σi/Σi² incrementally (those depend on window
// position, not sample identity), so this type is a pure value-object
// helper used directly by the regression adapters rather than a Policy.
type LinearRegression struct{}

// Fit computes slope, intercept, and the vector of residuals/predictions
// for the given oldest-to-newest window.
func (LinearRegression) Fit(win []float32) (slope, intercept float64) {
	n := float64(len(win))
	if n < 2 {
		return 0, 0
	}
	var sumI, sumI2, sumX, sumIX float64
	for i, x := range win {
		fi := float64(i)
		sumI += fi
		sumI2 += fi * fi
		sumX += float64(x)
		sumIX += fi * float64(x)
	}
	denom := n*sumI2 - sumI*sumI
	if denom == 0 {
		return 0, sumX / n
	}
	slope = (n*sumIX - sumI*sumX) / denom
	intercept = (sumX - slope*sumI) / n
	return slope, intercept
}
