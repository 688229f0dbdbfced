package stage

import (
	"math"

	"github.com/dspxio/dspx/dspxerr"
	"github.com/dspxio/dspx/internal/snapshot"
	"github.com/dspxio/dspx/internal/window"
)

// RectifyMode selects half-wave or full-wave rectification.
type RectifyMode string

const (
	RectifyHalf RectifyMode = "half"
	RectifyFull RectifyMode = "full"
)

type rectifyStage struct {
	base
	mode RectifyMode
}

// NewRectify builds the rectify stage.
func NewRectify(mode RectifyMode) Stage { return &rectifyStage{base{"rectify"}, mode} }

func (s *rectifyStage) Process(samples []float32, channels int, timestamps []float32) error {
	for i, x := range samples {
		if s.mode == RectifyFull {
			samples[i] = float32(math.Abs(float64(x)))
		} else if x < 0 {
			samples[i] = 0
		}
	}
	return nil
}
func (s *rectifyStage) Reset()                                 {}
func (s *rectifyStage) SaveState(w *snapshot.Writer) error      { return nil }
func (s *rectifyStage) LoadState(r *snapshot.Reader) error      { return nil }

// differentiatorStage computes the first difference, optionally scaled by
// sample rate (1/dt).
type differentiatorStage struct {
	base
	sampleRate float64
	prev       []float32
	init       []bool
}

// NewDifferentiator builds the differentiator stage. sampleRate <= 0 means
// unscaled first difference.
func NewDifferentiator(sampleRate float64) Stage {
	return &differentiatorStage{base: base{"differentiator"}, sampleRate: sampleRate}
}

func (s *differentiatorStage) Process(samples []float32, channels int, timestamps []float32) error {
	if channels <= 0 || len(samples)%channels != 0 {
		return dspxerr.New(dspxerr.KindInvalidArgument, "differentiator: bad channel count").WithStage(-1, s.typeName)
	}
	if s.prev == nil {
		s.prev = make([]float32, channels)
		s.init = make([]bool, channels)
	}
	scale := float32(1)
	if s.sampleRate > 0 {
		scale = float32(s.sampleRate)
	}
	n := len(samples) / channels
	for i := 0; i < n; i++ {
		for c := 0; c < channels; c++ {
			idx := i*channels + c
			x := samples[idx]
			if !s.init[c] {
				samples[idx] = 0
				s.init[c] = true
			} else {
				samples[idx] = (x - s.prev[c]) * scale
			}
			s.prev[c] = x
		}
	}
	return nil
}
func (s *differentiatorStage) Reset() { s.prev, s.init = nil, nil }
func (s *differentiatorStage) SaveState(w *snapshot.Writer) error {
	w.WriteFloatArray(s.prev)
	return nil
}
func (s *differentiatorStage) LoadState(r *snapshot.Reader) error {
	v, err := r.ReadFloatArray()
	if err != nil {
		return err
	}
	s.prev = v
	s.init = make([]bool, len(v))
	for i := range s.init {
		s.init[i] = true
	}
	return nil
}

// integratorStage implements a leaky accumulator: y = leak*y_prev + x.
type integratorStage struct {
	base
	leak float64
	y    []float32
}

// NewIntegrator builds the integrator stage. leak==1 is a plain running sum.
func NewIntegrator(leak float64) Stage {
	return &integratorStage{base: base{"integrator"}, leak: leak}
}

func (s *integratorStage) Process(samples []float32, channels int, timestamps []float32) error {
	if channels <= 0 || len(samples)%channels != 0 {
		return dspxerr.New(dspxerr.KindInvalidArgument, "integrator: bad channel count").WithStage(-1, s.typeName)
	}
	if len(s.y) != channels {
		s.y = make([]float32, channels)
	}
	leak := float32(s.leak)
	n := len(samples) / channels
	for i := 0; i < n; i++ {
		for c := 0; c < channels; c++ {
			idx := i*channels + c
			s.y[c] = leak*s.y[c] + samples[idx]
			samples[idx] = s.y[c]
		}
	}
	return nil
}
func (s *integratorStage) Reset()                            { s.y = nil }
func (s *integratorStage) SaveState(w *snapshot.Writer) error { w.WriteFloatArray(s.y); return nil }
func (s *integratorStage) LoadState(r *snapshot.Reader) error {
	v, err := r.ReadFloatArray()
	if err != nil {
		return err
	}
	s.y = v
	return nil
}

// squareStage computes x^2 elementwise.
type squareStage struct{ base }

// NewSquare builds the square stage.
func NewSquare() Stage { return &squareStage{base{"square"}} }

func (s *squareStage) Process(samples []float32, channels int, timestamps []float32) error {
	for i, x := range samples {
		samples[i] = x * x
	}
	return nil
}
func (s *squareStage) Reset()                            {}
func (s *squareStage) SaveState(w *snapshot.Writer) error { return nil }
func (s *squareStage) LoadState(r *snapshot.Reader) error { return nil }

// amplifyStage applies a fixed scalar gain.
type amplifyStage struct {
	base
	gain float32
}

// NewAmplify builds the amplify stage.
func NewAmplify(gain float64) Stage { return &amplifyStage{base{"amplify"}, float32(gain)} }

func (s *amplifyStage) Process(samples []float32, channels int, timestamps []float32) error {
	for i, x := range samples {
		samples[i] = x * s.gain
	}
	return nil
}
func (s *amplifyStage) Reset()                            {}
func (s *amplifyStage) SaveState(w *snapshot.Writer) error { return nil }
func (s *amplifyStage) LoadState(r *snapshot.Reader) error { return nil }

// clipDetectionStage flags samples beyond ±threshold, emitting 0/1.
type clipDetectionStage struct {
	base
	threshold float32
}

// NewClipDetection builds the clipDetection stage.
func NewClipDetection(threshold float64) Stage {
	return &clipDetectionStage{base{"clipDetection"}, float32(threshold)}
}

func (s *clipDetectionStage) Process(samples []float32, channels int, timestamps []float32) error {
	for i, x := range samples {
		if x > s.threshold || x < -s.threshold {
			samples[i] = 1
		} else {
			samples[i] = 0
		}
	}
	return nil
}
func (s *clipDetectionStage) Reset()                            {}
func (s *clipDetectionStage) SaveState(w *snapshot.Writer) error { return nil }
func (s *clipDetectionStage) LoadState(r *snapshot.Reader) error { return nil }

// snrStage tracks a running signal-power / noise-floor-power ratio in dB.
// The noise floor is an EMA of instantaneous power samples that fall below
// vadThreshold (a simple energy-based voice/activity gate).
type snrStage struct {
	base
	vadThreshold float64
	alpha        float64
	signalPower  []float64
	noisePower   []float64
}

// NewSNR builds the snr stage.
func NewSNR(vadThreshold, alpha float64) Stage {
	return &snrStage{base: base{"snr"}, vadThreshold: vadThreshold, alpha: alpha}
}

func (s *snrStage) Process(samples []float32, channels int, timestamps []float32) error {
	if channels <= 0 || len(samples)%channels != 0 {
		return dspxerr.New(dspxerr.KindInvalidArgument, "snr: bad channel count").WithStage(-1, s.typeName)
	}
	if len(s.signalPower) != channels {
		s.signalPower = make([]float64, channels)
		s.noisePower = make([]float64, channels)
		for c := range s.noisePower {
			s.noisePower[c] = 1e-12
		}
	}
	n := len(samples) / channels
	for i := 0; i < n; i++ {
		for c := 0; c < channels; c++ {
			idx := i*channels + c
			p := float64(samples[idx]) * float64(samples[idx])
			s.signalPower[c] = s.alpha*p + (1-s.alpha)*s.signalPower[c]
			if p < s.vadThreshold {
				s.noisePower[c] = s.alpha*p + (1-s.alpha)*s.noisePower[c]
			}
			ratio := s.signalPower[c] / s.noisePower[c]
			samples[idx] = float32(10 * math.Log10(ratio+1e-18))
		}
	}
	return nil
}
func (s *snrStage) Reset() { s.signalPower, s.noisePower = nil, nil }
func (s *snrStage) SaveState(w *snapshot.Writer) error {
	w.WriteFloatArray(float64sToFloat32s(s.signalPower))
	w.WriteFloatArray(float64sToFloat32s(s.noisePower))
	return nil
}
func (s *snrStage) LoadState(r *snapshot.Reader) error {
	sp, err := r.ReadFloatArray()
	if err != nil {
		return err
	}
	np, err := r.ReadFloatArray()
	if err != nil {
		return err
	}
	s.signalPower = make([]float64, len(sp))
	s.noisePower = make([]float64, len(np))
	for i, v := range sp {
		s.signalPower[i] = float64(v)
	}
	for i, v := range np {
		s.noisePower[i] = float64(v)
	}
	return nil
}

// peakDetectionStage wraps one window.Engine per channel driven by a
// window.PeakDetection policy, then re-reads the policy's ResultFromWindow
// against the live window contents (Result alone can't see the window).
type peakDetectionStage struct {
	base
	windowSize      int
	threshold       float32
	minPeakDistance int
	policies        []*window.PeakDetection
	engines         []*window.Engine
}

// NewPeakDetection builds the peakDetection stage.
func NewPeakDetection(windowSize int, threshold float64, minDistance int) Stage {
	return &peakDetectionStage{
		base:            base{"peakDetection"},
		windowSize:      windowSize,
		threshold:       float32(threshold),
		minPeakDistance: minDistance,
	}
}

func (s *peakDetectionStage) ensure(channels int) {
	if len(s.engines) == channels {
		return
	}
	s.policies = make([]*window.PeakDetection, channels)
	s.engines = make([]*window.Engine, channels)
	for c := 0; c < channels; c++ {
		s.policies[c] = &window.PeakDetection{Threshold: s.threshold, MinPeakDistance: s.minPeakDistance}
		s.engines[c] = window.NewEngine(s.windowSize, s.policies[c])
	}
}

func (s *peakDetectionStage) Process(samples []float32, channels int, timestamps []float32) error {
	if channels <= 0 || len(samples)%channels != 0 {
		return dspxerr.New(dspxerr.KindInvalidArgument, "peakDetection: bad channel count").WithStage(-1, s.typeName)
	}
	s.ensure(channels)
	n := len(samples) / channels
	for i := 0; i < n; i++ {
		for c := 0; c < channels; c++ {
			idx := i*channels + c
			s.engines[c].AddSample(samples[idx])
			samples[idx] = s.policies[c].ResultFromWindow(s.engines[c].Window())
		}
	}
	return nil
}

func (s *peakDetectionStage) Reset() {
	for _, e := range s.engines {
		e.Reset()
	}
}

func (s *peakDetectionStage) SaveState(w *snapshot.Writer) error {
	w.WriteInt32(int32(len(s.engines)))
	w.WriteArrayStart()
	for _, e := range s.engines {
		w.WriteFloatArray(e.Window())
	}
	w.WriteArrayEnd()
	return nil
}

func (s *peakDetectionStage) LoadState(r *snapshot.Reader) error {
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
			s.engines[c].AddSample(x)
		}
	}
	return r.ExpectArrayEnd()
}
