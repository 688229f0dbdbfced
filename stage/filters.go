package stage

import (
	"github.com/dspxio/dspx/dspxerr"
	"github.com/dspxio/dspx/internal/filter"
	"github.com/dspxio/dspx/internal/snapshot"
)

type firStage struct {
	base
	coeffs []float32
	state  []*filter.FIR
}

// NewFIRFilter builds the filter:fir stage.
func NewFIRFilter(coeffs []float32) Stage {
	return &firStage{base: base{"filter:fir"}, coeffs: coeffs}
}

func (s *firStage) ensure(channels int) {
	if len(s.state) == channels {
		return
	}
	s.state = make([]*filter.FIR, channels)
	for c := range s.state {
		s.state[c] = filter.NewFIR(s.coeffs)
	}
}

func (s *firStage) Process(samples []float32, channels int, timestamps []float32) error {
	if channels <= 0 || len(samples)%channels != 0 {
		return dspxerr.New(dspxerr.KindInvalidArgument, "filter:fir: bad channel count").WithStage(-1, s.typeName)
	}
	s.ensure(channels)
	n := len(samples) / channels
	for c := 0; c < channels; c++ {
		in := make([]float32, n)
		for i := 0; i < n; i++ {
			in[i] = samples[i*channels+c]
		}
		out := make([]float32, n)
		s.state[c].Process(in, out, false)
		for i := 0; i < n; i++ {
			samples[i*channels+c] = out[i]
		}
	}
	return nil
}
func (s *firStage) Reset() {
	for _, f := range s.state {
		f.Reset()
	}
}
func (s *firStage) SaveState(w *snapshot.Writer) error {
	w.WriteInt32(int32(len(s.state)))
	for _, f := range s.state {
		w.WriteFloatArray(f.Delay())
	}
	return nil
}
func (s *firStage) LoadState(r *snapshot.Reader) error {
	channels, err := r.ReadInt32()
	if err != nil {
		return err
	}
	s.ensure(int(channels))
	for c := 0; c < int(channels); c++ {
		d, err := r.ReadFloatArray()
		if err != nil {
			return err
		}
		s.state[c].SetDelay(d)
	}
	return nil
}

type iirStage struct {
	base
	b, a  []float32
	state []*filter.IIR
}

// NewIIRFilter builds the filter:iir stage (direct-form-I, arbitrary b/a).
func NewIIRFilter(b, a []float32) Stage {
	return &iirStage{base: base{"filter:iir"}, b: b, a: a}
}

func (s *iirStage) ensure(channels int) {
	if len(s.state) == channels {
		return
	}
	s.state = make([]*filter.IIR, channels)
	for c := range s.state {
		s.state[c] = filter.NewIIR(s.b, s.a)
	}
}

func (s *iirStage) Process(samples []float32, channels int, timestamps []float32) error {
	if channels <= 0 || len(samples)%channels != 0 {
		return dspxerr.New(dspxerr.KindInvalidArgument, "filter:iir: bad channel count").WithStage(-1, s.typeName)
	}
	s.ensure(channels)
	if !s.state[0].IsStable() {
		return dspxerr.New(dspxerr.KindUnstable, "filter:iir: coefficients are unstable").WithStage(-1, s.typeName)
	}
	n := len(samples) / channels
	for c := 0; c < channels; c++ {
		in := make([]float32, n)
		for i := 0; i < n; i++ {
			in[i] = samples[i*channels+c]
		}
		out := make([]float32, n)
		s.state[c].Process(in, out, false)
		for i := 0; i < n; i++ {
			samples[i*channels+c] = out[i]
		}
	}
	return nil
}
func (s *iirStage) Reset() {
	for _, f := range s.state {
		f.Reset()
	}
}
func (s *iirStage) SaveState(w *snapshot.Writer) error {
	w.WriteInt32(int32(len(s.state)))
	for _, f := range s.state {
		w.WriteFloatArray(f.XState())
		w.WriteFloatArray(f.YState())
	}
	return nil
}
func (s *iirStage) LoadState(r *snapshot.Reader) error {
	channels, err := r.ReadInt32()
	if err != nil {
		return err
	}
	s.ensure(int(channels))
	for c := 0; c < int(channels); c++ {
		xs, err := r.ReadFloatArray()
		if err != nil {
			return err
		}
		ys, err := r.ReadFloatArray()
		if err != nil {
			return err
		}
		s.state[c].SetState(xs, ys)
	}
	return nil
}

// adaptiveFilterStage wraps filter.Adaptive (LMS/NLMS) as a per-channel
// differentiable filter: samples carry the input signal, desired is
// supplied out of band via SetDesired before Process (the dspx pipeline
// calls it when wiring a reference/error-feedback signal; when no desired
// signal has been set, the filter outputs Σ w·x with its current weights
// and does not adapt them).
type adaptiveFilterStage struct {
	base
	numTaps    int
	mu         float64
	normalized bool
	lambda     float64
	filters    []*filter.Adaptive
	desired    [][]float32
}

// NewLMSFilter builds the lmsFilter stage.
func NewLMSFilter(numTaps int, mu float64, normalized bool, lambda float64) Stage {
	return &adaptiveFilterStage{base: base{"lmsFilter"}, numTaps: numTaps, mu: mu, normalized: normalized, lambda: lambda}
}

// SetDesired supplies the per-channel desired/reference signal for the next
// Process call (length must match the next buffer's per-channel length).
func (s *adaptiveFilterStage) SetDesired(desired [][]float32) { s.desired = desired }

func (s *adaptiveFilterStage) ensure(channels int) {
	if len(s.filters) == channels {
		return
	}
	s.filters = make([]*filter.Adaptive, channels)
	for c := range s.filters {
		s.filters[c] = filter.NewAdaptive(s.numTaps, s.mu, s.normalized, s.lambda)
	}
}

func (s *adaptiveFilterStage) Process(samples []float32, channels int, timestamps []float32) error {
	if channels <= 0 || len(samples)%channels != 0 {
		return dspxerr.New(dspxerr.KindInvalidArgument, "lmsFilter: bad channel count").WithStage(-1, s.typeName)
	}
	s.ensure(channels)
	n := len(samples) / channels
	adapt := s.desired != nil
	for c := 0; c < channels; c++ {
		in := make([]float32, n)
		for i := 0; i < n; i++ {
			in[i] = samples[i*channels+c]
		}
		var desired []float32
		if adapt && c < len(s.desired) {
			desired = s.desired[c]
		} else {
			desired = in
		}
		out := make([]float32, n)
		errOut := make([]float32, n)
		s.filters[c].Process(in, desired, out, errOut, adapt)
		for i := 0; i < n; i++ {
			samples[i*channels+c] = out[i]
		}
	}
	s.desired = nil
	return nil
}
func (s *adaptiveFilterStage) Reset() {
	for _, f := range s.filters {
		f.Reset()
	}
}
func (s *adaptiveFilterStage) SaveState(w *snapshot.Writer) error { return nil }
func (s *adaptiveFilterStage) LoadState(r *snapshot.Reader) error { return nil }

// rlsStage wraps filter.RLS the same way adaptiveFilterStage wraps LMS.
type rlsStage struct {
	base
	numTaps int
	lambda  float64
	delta   float64
	filters []*filter.RLS
	desired [][]float32
}

// NewRLSFilter builds the rlsFilter stage.
func NewRLSFilter(numTaps int, lambda, delta float64) Stage {
	return &rlsStage{base: base{"rlsFilter"}, numTaps: numTaps, lambda: lambda, delta: delta}
}

func (s *rlsStage) SetDesired(desired [][]float32) { s.desired = desired }

func (s *rlsStage) ensure(channels int) {
	if len(s.filters) == channels {
		return
	}
	s.filters = make([]*filter.RLS, channels)
	for c := range s.filters {
		s.filters[c] = filter.NewRLS(s.numTaps, s.lambda, s.delta)
	}
}

func (s *rlsStage) Process(samples []float32, channels int, timestamps []float32) error {
	if channels <= 0 || len(samples)%channels != 0 {
		return dspxerr.New(dspxerr.KindInvalidArgument, "rlsFilter: bad channel count").WithStage(-1, s.typeName)
	}
	s.ensure(channels)
	n := len(samples) / channels
	adapt := s.desired != nil
	for c := 0; c < channels; c++ {
		in := make([]float32, n)
		for i := 0; i < n; i++ {
			in[i] = samples[i*channels+c]
		}
		var desired []float32
		if adapt && c < len(s.desired) {
			desired = s.desired[c]
		} else {
			desired = in
		}
		out := make([]float32, n)
		errOut := make([]float32, n)
		s.filters[c].Process(in, desired, out, errOut, adapt)
		for i := 0; i < n; i++ {
			samples[i*channels+c] = out[i]
		}
	}
	s.desired = nil
	return nil
}
func (s *rlsStage) Reset() {
	for _, f := range s.filters {
		f.Reset()
	}
}
func (s *rlsStage) SaveState(w *snapshot.Writer) error { return nil }
func (s *rlsStage) LoadState(r *snapshot.Reader) error { return nil }

// kalmanFilterStage wraps filter.Kalman, one scalar constant-velocity
// smoother per channel.
type kalmanFilterStage struct {
	base
	processNoise     float64
	measurementNoise float64
	dt               float64
	filters          []*filter.Kalman
}

// NewKalmanFilter builds the kalmanFilter stage.
func NewKalmanFilter(processNoise, measurementNoise, dt float64) Stage {
	return &kalmanFilterStage{base: base{"kalmanFilter"}, processNoise: processNoise, measurementNoise: measurementNoise, dt: dt}
}

func (s *kalmanFilterStage) ensure(channels int) {
	if len(s.filters) == channels {
		return
	}
	s.filters = make([]*filter.Kalman, channels)
	for c := range s.filters {
		s.filters[c] = filter.NewKalman(s.processNoise, s.measurementNoise, s.dt)
	}
}

func (s *kalmanFilterStage) Process(samples []float32, channels int, timestamps []float32) error {
	if channels <= 0 || len(samples)%channels != 0 {
		return dspxerr.New(dspxerr.KindInvalidArgument, "kalmanFilter: bad channel count").WithStage(-1, s.typeName)
	}
	s.ensure(channels)
	n := len(samples) / channels
	for i := 0; i < n; i++ {
		for c := 0; c < channels; c++ {
			idx := i*channels + c
			samples[idx] = s.filters[c].Update(samples[idx])
		}
	}
	return nil
}
func (s *kalmanFilterStage) Reset() {
	for _, f := range s.filters {
		f.Reset()
	}
}
func (s *kalmanFilterStage) SaveState(w *snapshot.Writer) error { return nil }
func (s *kalmanFilterStage) LoadState(r *snapshot.Reader) error { return nil }
