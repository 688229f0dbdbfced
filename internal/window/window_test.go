package window

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngineMeanSlidesCorrectly(t *testing.T) {
	e := NewEngine(2, &Mean{})
	assert.InDelta(t, 2.0, e.AddSample(2), 1e-6)
	assert.InDelta(t, 3.0, e.AddSample(4), 1e-6)
	assert.InDelta(t, 5.0, e.AddSample(6), 1e-6) // window now [4,6]
}

func TestEngineRMS(t *testing.T) {
	e := NewEngine(4, &RMS{})
	e.AddSample(3)
	got := e.AddSample(4)
	assert.InDelta(t, 3.535534, got, 1e-5) // sqrt((9+16)/2), window not yet full
}

func TestEngineResetClearsRingAndPolicy(t *testing.T) {
	e := NewEngine(2, &Mean{})
	e.AddSample(10)
	e.Reset()
	assert.Equal(t, 0, e.Len())
	assert.InDelta(t, 5.0, e.AddSample(5), 1e-6)
}

func TestEngineWindowReturnsOldestToNewest(t *testing.T) {
	e := NewEngine(3, &Sum{})
	e.AddSample(1)
	e.AddSample(2)
	e.AddSample(3)
	e.AddSample(4) // evicts 1
	assert.Equal(t, []float32{2, 3, 4}, e.Window())
}

func TestVariancePolicy(t *testing.T) {
	e := NewEngine(4, &Variance{})
	e.AddSample(2)
	e.AddSample(4)
	e.AddSample(4)
	got := e.AddSample(4)
	// values [2,4,4,4]: mean=3.5, variance = mean((x-mean)^2) = (2.25+.25+.25+.25)/4 = 0.75
	assert.InDelta(t, 0.75, got, 1e-6)
}

func TestMeanAbsoluteValuePolicy(t *testing.T) {
	e := NewEngine(3, &MeanAbsoluteValue{})
	e.AddSample(-3)
	got := e.AddSample(1)
	assert.InDelta(t, 2.0, got, 1e-6) // (3+1)/2
}

func TestCounterPolicy(t *testing.T) {
	e := NewEngine(3, &Counter{})
	e.AddSample(1)
	e.AddSample(0)
	got := e.AddSample(1)
	assert.InDelta(t, 2.0, got, 1e-6)
}

func TestPeakDetectionResultFromWindow(t *testing.T) {
	p := &PeakDetection{Threshold: 0.5, MinPeakDistance: 2}
	e := NewEngine(5, p)
	for _, x := range []float32{0, 1, 0.2, 0, 0.9} {
		e.AddSample(x)
	}
	assert.Equal(t, float32(1), p.ResultFromWindow(e.Window()))
}

func TestPeakDetectionBelowThresholdIsNotAPeak(t *testing.T) {
	p := &PeakDetection{Threshold: 2, MinPeakDistance: 1}
	got := p.ResultFromWindow([]float32{0, 1})
	assert.Equal(t, float32(0), got)
}

func TestConvolutionResultFromWindowDotProducts(t *testing.T) {
	p := &Convolution{ReversedKernel: []float32{0.5, 0.5}}
	got := p.ResultFromWindow([]float32{2, 4})
	assert.InDelta(t, 3.0, got, 1e-6)
}

func TestConvolutionResultFromWindowZeroPadsShortWindow(t *testing.T) {
	p := &Convolution{ReversedKernel: []float32{1, 1, 1}}
	got := p.ResultFromWindow([]float32{5})
	assert.InDelta(t, 5.0, got, 1e-6)
}

func TestLinearRegressionFit(t *testing.T) {
	var lr LinearRegression
	slope, intercept := lr.Fit([]float32{1, 3, 5, 7})
	assert.InDelta(t, 2.0, slope, 1e-6)
	assert.InDelta(t, 1.0, intercept, 1e-6)
}

func TestTimedEngineExpiresStaleAndReplaysPolicy(t *testing.T) {
	e := NewTimedEngine(4, 100, &Mean{})
	_, err := e.AddSample(1, 0)
	require.NoError(t, err)
	_, err = e.AddSample(2, 50)
	require.NoError(t, err)
	// both t=0 and t=50 are older than 200-100=100ms, so both expire, and
	// only the new sample survives.
	got, err := e.AddSample(3, 200)
	require.NoError(t, err)
	assert.InDelta(t, 3.0, got, 1e-6)
}

func TestTimedEngineRejectsNonMonotonicTimestamps(t *testing.T) {
	e := NewTimedEngine(2, 0, &Mean{})
	_, err := e.AddSample(1, 10)
	require.NoError(t, err)
	_, err = e.AddSample(2, 5)
	assert.Error(t, err)
}
