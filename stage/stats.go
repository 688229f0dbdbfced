package stage

import (
	"math"

	"github.com/dspxio/dspx/dspxerr"
	"github.com/dspxio/dspx/internal/snapshot"
	"github.com/dspxio/dspx/internal/window"
)

// windowStage wraps one window.Engine per channel behind a shared Policy
// factory, used for every stage in the moving/batch statistics family
// (spec §6). Channels are discovered lazily from the first buffer seen,
// matching the windowDuration-finalization decision recorded in
// SPEC_FULL.md (finalize once, Reset clears it).
type windowStage struct {
	base
	windowSize int
	newPolicy  func() window.Policy
	engines    []*window.Engine
}

func newWindowStage(typeName string, windowSize int, newPolicy func() window.Policy) *windowStage {
	return &windowStage{base: base{typeName}, windowSize: windowSize, newPolicy: newPolicy}
}

func (s *windowStage) ensure(channels int) {
	if len(s.engines) == channels {
		return
	}
	s.engines = make([]*window.Engine, channels)
	for c := range s.engines {
		s.engines[c] = window.NewEngine(s.windowSize, s.newPolicy())
	}
}

func (s *windowStage) Process(samples []float32, channels int, timestamps []float32) error {
	if channels <= 0 || len(samples)%channels != 0 {
		return dspxerr.New(dspxerr.KindInvalidArgument, "window stage: samples length not a multiple of channels").WithStage(-1, s.typeName)
	}
	s.ensure(channels)
	n := len(samples) / channels
	for i := 0; i < n; i++ {
		for c := 0; c < channels; c++ {
			idx := i*channels + c
			samples[idx] = s.engines[c].AddSample(samples[idx])
		}
	}
	return nil
}

func (s *windowStage) Reset() {
	for _, e := range s.engines {
		e.Reset()
	}
}

func (s *windowStage) SaveState(w *snapshot.Writer) error {
	w.WriteObjectStart()
	w.WriteString("windowSize")
	w.WriteInt32(int32(s.windowSize))
	w.WriteString("channels")
	w.WriteInt32(int32(len(s.engines)))
	w.WriteString("windows")
	w.WriteArrayStart()
	for _, e := range s.engines {
		w.WriteFloatArray(e.Window())
	}
	w.WriteArrayEnd()
	w.WriteObjectEnd()
	return nil
}

func (s *windowStage) LoadState(r *snapshot.Reader) error {
	if err := r.ExpectObjectStart(); err != nil {
		return err
	}
	if _, err := r.ReadString(); err != nil {
		return err
	}
	ws, err := r.ReadInt32()
	if err != nil {
		return err
	}
	s.windowSize = int(ws)
	if _, err := r.ReadString(); err != nil {
		return err
	}
	channels, err := r.ReadInt32()
	if err != nil {
		return err
	}
	if _, err := r.ReadString(); err != nil {
		return err
	}
	if err := r.ExpectArrayStart(); err != nil {
		return err
	}
	s.engines = make([]*window.Engine, channels)
	for c := range s.engines {
		win, err := r.ReadFloatArray()
		if err != nil {
			return err
		}
		e := window.NewEngine(s.windowSize, s.newPolicy())
		for _, x := range win {
			e.AddSample(x)
		}
		s.engines[c] = e
	}
	if err := r.ExpectArrayEnd(); err != nil {
		return err
	}
	return r.ExpectObjectEnd()
}

// NewMovingAverage builds the movingAverage stage.
func NewMovingAverage(windowSize int) Stage {
	return newWindowStage("movingAverage", windowSize, func() window.Policy { return &window.Mean{} })
}

// NewRMS builds the rms stage.
func NewRMS(windowSize int) Stage {
	return newWindowStage("rms", windowSize, func() window.Policy { return &window.RMS{} })
}

// NewVariance builds the variance stage.
func NewVariance(windowSize int) Stage {
	return newWindowStage("variance", windowSize, func() window.Policy { return &window.Variance{} })
}

// NewMeanAbsoluteValue builds the meanAbsoluteValue stage.
func NewMeanAbsoluteValue(windowSize int) Stage {
	return newWindowStage("meanAbsoluteValue", windowSize, func() window.Policy { return &window.MeanAbsoluteValue{} })
}

// NewWaveformLength builds the waveformLength stage, summing |Δx| over the
// window.
func NewWaveformLength(windowSize int) Stage {
	return &waveformLengthStage{
		windowStage: *newWindowStage("waveformLength", windowSize, func() window.Policy { return &window.Sum{} }),
	}
}

type waveformLengthStage struct {
	windowStage
	prev []float32
}

func (s *waveformLengthStage) Process(samples []float32, channels int, timestamps []float32) error {
	if channels <= 0 || len(samples)%channels != 0 {
		return dspxerr.New(dspxerr.KindInvalidArgument, "waveformLength: bad channel count").WithStage(-1, s.typeName)
	}
	s.ensure(channels)
	if s.prev == nil {
		s.prev = make([]float32, channels)
	}
	n := len(samples) / channels
	for i := 0; i < n; i++ {
		for c := 0; c < channels; c++ {
			idx := i*channels + c
			x := samples[idx]
			d := float32(math.Abs(float64(x - s.prev[c])))
			samples[idx] = s.engines[c].AddSample(d)
			s.prev[c] = x
		}
	}
	return nil
}

func (s *waveformLengthStage) Reset() {
	s.windowStage.Reset()
	s.prev = nil
}

// NewSlopeSignChange builds the slopeSignChange stage: counts sign changes
// of consecutive slopes where the new slope's magnitude exceeds threshold.
func NewSlopeSignChange(windowSize int, threshold float32) Stage {
	return &slopeStage{
		windowStage: *newWindowStage("slopeSignChange", windowSize, func() window.Policy { return &window.Counter{} }),
		threshold:   threshold,
		countChange: true,
	}
}

// NewWillisonAmplitude builds the willisonAmplitude stage: counts
// |Δx| > threshold.
func NewWillisonAmplitude(windowSize int, threshold float32) Stage {
	return &slopeStage{
		windowStage: *newWindowStage("willisonAmplitude", windowSize, func() window.Policy { return &window.Counter{} }),
		threshold:   threshold,
	}
}

type slopeStage struct {
	windowStage
	threshold   float32
	countChange bool
	prev        []float32
	prevSlope   []float32
	havePrev    []bool
}

func (s *slopeStage) Process(samples []float32, channels int, timestamps []float32) error {
	if channels <= 0 || len(samples)%channels != 0 {
		return dspxerr.New(dspxerr.KindInvalidArgument, "slope stage: bad channel count").WithStage(-1, s.typeName)
	}
	s.ensure(channels)
	if s.prev == nil {
		s.prev = make([]float32, channels)
		s.prevSlope = make([]float32, channels)
		s.havePrev = make([]bool, channels)
	}
	n := len(samples) / channels
	for i := 0; i < n; i++ {
		for c := 0; c < channels; c++ {
			idx := i*channels + c
			x := samples[idx]
			slope := x - s.prev[c]
			var event float32
			if s.countChange {
				if s.havePrev[c] && sign(slope) != sign(s.prevSlope[c]) && absf(slope) > s.threshold {
					event = 1
				}
				s.prevSlope[c] = slope
				s.havePrev[c] = true
			} else {
				if absf(slope) > s.threshold {
					event = 1
				}
			}
			samples[idx] = s.engines[c].AddSample(event)
			s.prev[c] = x
		}
	}
	return nil
}

func (s *slopeStage) Reset() {
	s.windowStage.Reset()
	s.prev, s.prevSlope, s.havePrev = nil, nil, nil
}

func sign(x float32) int {
	if x > 0 {
		return 1
	}
	if x < 0 {
		return -1
	}
	return 0
}

func absf(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

// NewCumulativeMovingAverage builds the cumulativeMovingAverage stage: an
// unbounded running mean, kept as a per-channel running sum and sample
// count with no window.
func NewCumulativeMovingAverage() Stage {
	return &cmaStage{base: base{"cumulativeMovingAverage"}}
}

type cmaStage struct {
	base
	sum   []float64
	count []int64
}

func (s *cmaStage) Process(samples []float32, channels int, timestamps []float32) error {
	if channels <= 0 || len(samples)%channels != 0 {
		return dspxerr.New(dspxerr.KindInvalidArgument, "cumulativeMovingAverage: bad channel count").WithStage(-1, s.typeName)
	}
	if len(s.sum) != channels {
		s.sum = make([]float64, channels)
		s.count = make([]int64, channels)
	}
	n := len(samples) / channels
	for i := 0; i < n; i++ {
		for c := 0; c < channels; c++ {
			idx := i*channels + c
			s.sum[c] += float64(samples[idx])
			s.count[c]++
			samples[idx] = float32(s.sum[c] / float64(s.count[c]))
		}
	}
	return nil
}

func (s *cmaStage) Reset() { s.sum, s.count = nil, nil }

func (s *cmaStage) SaveState(w *snapshot.Writer) error {
	w.WriteObjectStart()
	w.WriteFloatArray(float64sToFloat32s(s.sum))
	w.WriteArrayStart()
	for _, c := range s.count {
		w.WriteInt32(int32(c))
	}
	w.WriteArrayEnd()
	w.WriteObjectEnd()
	return nil
}

func (s *cmaStage) LoadState(r *snapshot.Reader) error {
	if err := r.ExpectObjectStart(); err != nil {
		return err
	}
	sums, err := r.ReadFloatArray()
	if err != nil {
		return err
	}
	s.sum = make([]float64, len(sums))
	for i, v := range sums {
		s.sum[i] = float64(v)
	}
	if err := r.ExpectArrayStart(); err != nil {
		return err
	}
	s.count = make([]int64, len(sums))
	for i := range s.count {
		v, err := r.ReadInt32()
		if err != nil {
			return err
		}
		s.count[i] = int64(v)
	}
	if err := r.ExpectArrayEnd(); err != nil {
		return err
	}
	return r.ExpectObjectEnd()
}

func float64sToFloat32s(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x)
	}
	return out
}

// NewExponentialMovingAverage builds the exponentialMovingAverage stage:
// y = alpha*x + (1-alpha)*y_prev, a single-pole IIR expressed in the stage
// layer for symmetry with the windowed statistics family.
func NewExponentialMovingAverage(alpha float64) Stage {
	return &emaStage{base: base{"exponentialMovingAverage"}, alpha: alpha}
}

type emaStage struct {
	base
	alpha float64
	y     []float32
	init  []bool
}

func (s *emaStage) Process(samples []float32, channels int, timestamps []float32) error {
	if channels <= 0 || len(samples)%channels != 0 {
		return dspxerr.New(dspxerr.KindInvalidArgument, "exponentialMovingAverage: bad channel count").WithStage(-1, s.typeName)
	}
	if len(s.y) != channels {
		s.y = make([]float32, channels)
		s.init = make([]bool, channels)
	}
	n := len(samples) / channels
	a := float32(s.alpha)
	for i := 0; i < n; i++ {
		for c := 0; c < channels; c++ {
			idx := i*channels + c
			x := samples[idx]
			if !s.init[c] {
				s.y[c] = x
				s.init[c] = true
			} else {
				s.y[c] = a*x + (1-a)*s.y[c]
			}
			samples[idx] = s.y[c]
		}
	}
	return nil
}

func (s *emaStage) Reset() { s.y, s.init = nil, nil }

func (s *emaStage) SaveState(w *snapshot.Writer) error {
	w.WriteObjectStart()
	w.WriteFloatArray(s.y)
	w.WriteArrayStart()
	for _, b := range s.init {
		w.WriteBool(b)
	}
	w.WriteArrayEnd()
	w.WriteObjectEnd()
	return nil
}

func (s *emaStage) LoadState(r *snapshot.Reader) error {
	if err := r.ExpectObjectStart(); err != nil {
		return err
	}
	y, err := r.ReadFloatArray()
	if err != nil {
		return err
	}
	s.y = y
	if err := r.ExpectArrayStart(); err != nil {
		return err
	}
	s.init = make([]bool, len(y))
	for i := range s.init {
		b, err := r.ReadBool()
		if err != nil {
			return err
		}
		s.init[i] = b
	}
	if err := r.ExpectArrayEnd(); err != nil {
		return err
	}
	return r.ExpectObjectEnd()
}

// NewZScoreNormalize builds the zScoreNormalize stage: (x-mean)/sqrt(var+epsilon).
func NewZScoreNormalize(windowSize int, epsilon float64) Stage {
	return &zScoreStage{
		windowSize: windowSize,
		epsilon:    epsilon,
		base:       base{"zScoreNormalize"},
	}
}

type zScoreStage struct {
	base
	windowSize int
	epsilon    float64
	engines    []*window.Variance
	rings      []*window.Engine
}

func (s *zScoreStage) ensure(channels int) {
	if len(s.engines) == channels {
		return
	}
	s.engines = make([]*window.Variance, channels)
	s.rings = make([]*window.Engine, channels)
	for c := 0; c < channels; c++ {
		s.engines[c] = &window.Variance{}
		s.rings[c] = window.NewEngine(s.windowSize, s.engines[c])
	}
}

func (s *zScoreStage) Process(samples []float32, channels int, timestamps []float32) error {
	if channels <= 0 || len(samples)%channels != 0 {
		return dspxerr.New(dspxerr.KindInvalidArgument, "zScoreNormalize: bad channel count").WithStage(-1, s.typeName)
	}
	s.ensure(channels)
	n := len(samples) / channels
	for i := 0; i < n; i++ {
		for c := 0; c < channels; c++ {
			idx := i*channels + c
			s.rings[c].AddSample(samples[idx])
			count := s.rings[c].Len()
			mean := s.engines[c].Mean(count)
			variance := float64(s.engines[c].Result(count))
			samples[idx] = float32((float64(samples[idx]) - mean) / math.Sqrt(variance+s.epsilon))
		}
	}
	return nil
}

func (s *zScoreStage) Reset() {
	for _, r := range s.rings {
		r.Reset()
	}
}

func (s *zScoreStage) SaveState(w *snapshot.Writer) error {
	w.WriteObjectStart()
	w.WriteInt32(int32(len(s.rings)))
	w.WriteArrayStart()
	for _, r := range s.rings {
		w.WriteFloatArray(r.Window())
	}
	w.WriteArrayEnd()
	w.WriteObjectEnd()
	return nil
}

func (s *zScoreStage) LoadState(r *snapshot.Reader) error {
	if err := r.ExpectObjectStart(); err != nil {
		return err
	}
	channels, err := r.ReadInt32()
	if err != nil {
		return err
	}
	if err := r.ExpectArrayStart(); err != nil {
		return err
	}
	s.ensure(int(channels))
	for c := 0; c < int(channels); c++ {
		win, err := r.ReadFloatArray()
		if err != nil {
			return err
		}
		for _, x := range win {
			s.rings[c].AddSample(x)
		}
	}
	if err := r.ExpectArrayEnd(); err != nil {
		return err
	}
	return r.ExpectObjectEnd()
}
