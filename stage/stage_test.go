package stage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dspxio/dspx/internal/fft"
	"github.com/dspxio/dspx/internal/snapshot"
)

func saveLoadRoundTrip(t *testing.T, s Stage, fresh Stage) {
	t.Helper()
	w := snapshot.NewWriter()
	require.NoError(t, s.SaveState(w))
	r := snapshot.NewReader(w.Bytes())
	require.NoError(t, fresh.LoadState(r))
}

func TestMovingAverageProcess(t *testing.T) {
	s := NewMovingAverage(2)
	samples := []float32{2, 4, 6, 8}
	require.NoError(t, s.Process(samples, 1, nil))
	assert.Equal(t, []float32{2, 3, 5, 7}, samples)
}

func TestMovingAverageResetClearsWindow(t *testing.T) {
	s := NewMovingAverage(2)
	samples := []float32{2, 4}
	require.NoError(t, s.Process(samples, 1, nil))
	s.Reset()

	samples2 := []float32{10}
	require.NoError(t, s.Process(samples2, 1, nil))
	assert.InDelta(t, 10.0, samples2[0], 1e-6)
}

func TestMovingAverageSaveLoadRoundTrips(t *testing.T) {
	s := NewMovingAverage(3)
	require.NoError(t, s.Process([]float32{1, 2, 3}, 1, nil))

	fresh := NewMovingAverage(3)
	saveLoadRoundTrip(t, s, fresh)

	a := []float32{4}
	b := []float32{4}
	require.NoError(t, s.Process(a, 1, nil))
	require.NoError(t, fresh.Process(b, 1, nil))
	assert.Equal(t, a, b)
}

func TestRMSStage(t *testing.T) {
	s := NewRMS(4)
	samples := []float32{3, 4, 0, 0}
	require.NoError(t, s.Process(samples, 1, nil))
	// RMS over [3] = 3, [3,4] = sqrt(25/2), [3,4,0]=sqrt(25/3), [3,4,0,0]=sqrt(25/4)=2.5
	assert.InDelta(t, 2.5, samples[3], 1e-6)
}

func TestRectifyFullWave(t *testing.T) {
	s := NewRectify(RectifyFull)
	samples := []float32{-2, 3, -4}
	require.NoError(t, s.Process(samples, 1, nil))
	assert.Equal(t, []float32{2, 3, 4}, samples)
}

func TestSquareStage(t *testing.T) {
	s := NewSquare()
	samples := []float32{-2, 3}
	require.NoError(t, s.Process(samples, 1, nil))
	assert.Equal(t, []float32{4, 9}, samples)
}

func TestAmplifyStage(t *testing.T) {
	s := NewAmplify(3)
	samples := []float32{1, -1, 2}
	require.NoError(t, s.Process(samples, 1, nil))
	assert.Equal(t, []float32{3, -3, 6}, samples)
}

func TestClipDetectionFlags(t *testing.T) {
	s := NewClipDetection(1.0)
	samples := []float32{0.5, 1.5, -2.0}
	require.NoError(t, s.Process(samples, 1, nil))
	assert.Equal(t, []float32{0, 1, 1}, samples)
}

func TestCumulativeMovingAverageAccumulatesAcrossCalls(t *testing.T) {
	s := NewCumulativeMovingAverage()
	a := []float32{2}
	require.NoError(t, s.Process(a, 1, nil))
	assert.InDelta(t, 2.0, a[0], 1e-6)

	b := []float32{4}
	require.NoError(t, s.Process(b, 1, nil))
	assert.InDelta(t, 3.0, b[0], 1e-6)
}

func TestExponentialMovingAverage(t *testing.T) {
	s := NewExponentialMovingAverage(0.5)
	samples := []float32{10, 20}
	require.NoError(t, s.Process(samples, 1, nil))
	assert.InDelta(t, 10.0, samples[0], 1e-6) // first sample seeds y
	assert.InDelta(t, 15.0, samples[1], 1e-6) // 0.5*20 + 0.5*10
}

func TestChannelSelectKeepsSubset(t *testing.T) {
	s := NewChannelSelect([]int{0, 2})
	// 2 frames, 3 channels each: [f0c0,f0c1,f0c2, f1c0,f1c1,f1c2]
	in := []float32{1, 2, 3, 4, 5, 6}
	out := make([]float32, s.OutputSampleCount(2)*2)
	produced, err := s.ProcessResizing(in, 3, nil, out)
	require.NoError(t, err)
	assert.Equal(t, 2, produced)
	assert.Equal(t, []float32{1, 3, 4, 6}, out[:produced*2])
}

func TestChannelMergeAverage(t *testing.T) {
	s := NewChannelMerge(MergeAverage)
	in := []float32{2, 4, 6, 8} // 2 frames, 2 channels
	out := make([]float32, s.OutputSampleCount(2))
	produced, err := s.ProcessResizing(in, 2, nil, out)
	require.NoError(t, err)
	assert.Equal(t, []float32{3, 7}, out[:produced])
}

func TestFIRFilterIdentityPassesThrough(t *testing.T) {
	s := NewFIRFilter([]float32{1})
	samples := []float32{1, 2, 3}
	require.NoError(t, s.Process(samples, 1, nil))
	assert.Equal(t, []float32{1, 2, 3}, samples)
}

func TestFIRFilterSaveLoadRoundTrips(t *testing.T) {
	s := NewFIRFilter([]float32{0.5, 0.5})
	require.NoError(t, s.Process([]float32{2, 4, 6}, 1, nil))

	fresh := NewFIRFilter([]float32{0.5, 0.5})
	saveLoadRoundTrip(t, s, fresh)

	a := []float32{8}
	b := []float32{8}
	require.NoError(t, s.Process(a, 1, nil))
	require.NoError(t, fresh.Process(b, 1, nil))
	assert.Equal(t, a, b)
}

func TestDecimateReducesSampleCount(t *testing.T) {
	s := NewDecimate(2, 0)
	in := make([]float32, 8)
	for i := range in {
		in[i] = float32(i)
	}
	out := make([]float32, s.OutputSampleCount(8))
	produced, err := s.ProcessResizing(in, 1, nil, out)
	require.NoError(t, err)
	assert.Equal(t, 4, produced)
	assert.InDelta(t, 2.0, s.TimeScaleFactor(), 1e-9)
}

// TestResampleRationalDecimatesByFloor is the off-by-one regression for
// Polyphase.Process: a fresh L/M stage must emit floor(n*L/M) samples, not
// ceil(n*L/M), whenever n*L isn't an exact multiple of M.
func TestResampleRationalDecimatesByFloor(t *testing.T) {
	s := NewResample(3, 2, 0)
	n := 601
	in := make([]float32, n)
	out := make([]float32, s.OutputSampleCount(n))
	produced, err := s.ProcessResizing(in, 1, nil, out)
	require.NoError(t, err)
	assert.Equal(t, 901, produced)
}

// TestResampleRationalConstantSignal drives the resample stage with L=3,
// M=2 over a 2-channel constant-1 signal: output length must be exactly
// floor(n*L/M), and every sample settles to 1 once the prototype filter's
// group delay has flushed through.
func TestResampleRationalConstantSignal(t *testing.T) {
	s := NewResample(3, 2, 0)
	channels := 2
	n := 600
	in := make([]float32, n*channels)
	for i := range in {
		in[i] = 1
	}
	outFrames := s.OutputSampleCount(n)
	require.Equal(t, 900, outFrames)

	out := make([]float32, outFrames*channels)
	produced, err := s.ProcessResizing(in, channels, nil, out)
	require.NoError(t, err)
	assert.Equal(t, 900, produced)

	const transient = 40
	for i := transient; i < produced; i++ {
		for c := 0; c < channels; c++ {
			assert.InDelta(t, 1.0, out[i*channels+c], 1e-2)
		}
	}
}

// TestSTFTOutputSampleCountMatchesActualProducedOverlapping drives an
// overlapping-frame configuration (windowSize a multiple of hop, so the
// naive "carried state plus n, divided by hop" estimate overcounts the
// single emission that fires the instant the ring first fills) across two
// split calls and checks the hint matches the true produced length exactly
// each time.
func TestSTFTOutputSampleCountMatchesActualProducedOverlapping(t *testing.T) {
	s := NewSTFT(8, 4, fft.WindowHann).(*stftStage)

	in1 := make([]float32, 10)
	hint1 := s.OutputSampleCount(10)
	out1 := make([]float32, hint1)
	produced1, err := s.ProcessResizing(in1, 1, nil, out1)
	require.NoError(t, err)
	assert.Equal(t, hint1, produced1)

	in2 := make([]float32, 6)
	hint2 := s.OutputSampleCount(6)
	out2 := make([]float32, hint2)
	produced2, err := s.ProcessResizing(in2, 1, nil, out2)
	require.NoError(t, err)
	assert.Equal(t, hint2, produced2)
}

// TestSTFTOutputSampleCountZeroBeforeRingFills checks the hint reports no
// output while the ring hasn't yet accumulated a full frame.
func TestSTFTOutputSampleCountZeroBeforeRingFills(t *testing.T) {
	s := NewSTFT(16, 4, fft.WindowHann).(*stftStage)
	assert.Equal(t, 0, s.OutputSampleCount(10))
}

func TestConstructUnknownStageFails(t *testing.T) {
	_, err := Construct("bogus", nil)
	require.Error(t, err)
}

func TestConstructMovingAverageMissingOption(t *testing.T) {
	_, err := Construct("movingAverage", map[string]any{})
	require.Error(t, err)
}

func TestConstructMovingAverageBuildsWorkingStage(t *testing.T) {
	s, err := Construct("movingAverage", map[string]any{"windowSize": 2})
	require.NoError(t, err)
	assert.Equal(t, "movingAverage", s.Type())
	assert.False(t, s.Resizing())
}

func TestConstructDecimateReportsResizing(t *testing.T) {
	s, err := Construct("decimate", map[string]any{"factor": 2})
	require.NoError(t, err)
	assert.True(t, s.Resizing())
}
