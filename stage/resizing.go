package stage

import (
	"github.com/dspxio/dspx/dspxerr"
	"github.com/dspxio/dspx/internal/align"
	"github.com/dspxio/dspx/internal/resample"
	"github.com/dspxio/dspx/internal/snapshot"
	"github.com/dspxio/dspx/internal/window"
)

// resampleStage wraps resample.Resampler/Interpolator/Decimator (they all
// share the same L/M polyphase core) behind one resizing stage, one
// instance per channel.
type resampleStage struct {
	base
	l, m, order int
	resamplers  []*resample.Resampler
}

// NewInterpolate builds the interpolate stage (L/1 upsampling).
func NewInterpolate(l, order int) Stage { return newResampleStage("interpolate", l, 1, order) }

// NewDecimate builds the decimate stage (1/M downsampling).
func NewDecimate(m, order int) Stage { return newResampleStage("decimate", 1, m, order) }

// NewResample builds the resample stage (L/M rational resampling).
func NewResample(l, m, order int) Stage { return newResampleStage("resample", l, m, order) }

func newResampleStage(typeName string, l, m, order int) *resampleStage {
	return &resampleStage{base: base{typeName}, l: l, m: m, order: order}
}

func (s *resampleStage) Resizing() bool          { return true }
func (s *resampleStage) OutputChannelCount() int { return 0 }
func (s *resampleStage) OutputSampleCount(n int) int {
	return n * s.l / s.m
}
func (s *resampleStage) TimeScaleFactor() float64 { return float64(s.m) / float64(s.l) }

func (s *resampleStage) ensure(channels int) {
	if len(s.resamplers) == channels {
		return
	}
	s.resamplers = make([]*resample.Resampler, channels)
	for c := range s.resamplers {
		s.resamplers[c] = resample.NewResampler(s.l, s.m, s.order)
	}
}

func (s *resampleStage) ProcessResizing(in []float32, channels int, inTS []float32, out []float32) (int, error) {
	if channels <= 0 || len(in)%channels != 0 {
		return 0, dspxerr.New(dspxerr.KindInvalidArgument, s.typeName+": bad channel count").WithStage(-1, s.typeName)
	}
	s.ensure(channels)
	n := len(in) / channels
	produced := 0
	perChan := make([][]float32, channels)
	for c := 0; c < channels; c++ {
		chanIn := make([]float32, n)
		for i := 0; i < n; i++ {
			chanIn[i] = in[i*channels+c]
		}
		perChan[c] = s.resamplers[c].Process(chanIn)
		if len(perChan[c]) > produced {
			produced = len(perChan[c])
		}
	}
	if len(out) < produced*channels {
		return 0, dspxerr.New(dspxerr.KindOutputTooSmall, s.typeName+": output buffer too small").WithStage(-1, s.typeName)
	}
	for c := 0; c < channels; c++ {
		for i, v := range perChan[c] {
			out[i*channels+c] = v
		}
	}
	return produced, nil
}
func (s *resampleStage) Reset() {
	for _, r := range s.resamplers {
		r.Reset()
	}
}
func (s *resampleStage) SaveState(w *snapshot.Writer) error { return nil }
func (s *resampleStage) LoadState(r *snapshot.Reader) error { return nil }

// timeAlignmentStage wraps internal/align.Align, one per-call invocation
// per channel sharing the same input timestamp grid.
type timeAlignmentStage struct {
	base
	cfg        align.Config
	lastOut    int
	lastInputN int
	lastStats  align.Stats
}

// NewTimeAlignment builds the timeAlignment stage.
func NewTimeAlignment(cfg align.Config) Stage {
	return &timeAlignmentStage{base: base{"timeAlignment"}, cfg: cfg}
}

func (s *timeAlignmentStage) Resizing() bool          { return true }
func (s *timeAlignmentStage) OutputChannelCount() int { return 0 }

// OutputSampleCount is only a sizing hint: align.Align's true output length
// depends on the input timestamps' span, not just their count, so it can't
// be known exactly without seeing them. Estimate from the ratio observed on
// the previous call once there is one; on the first call, which a caller
// routinely drives with a fresh stage (spec's uniform-grid examples included),
// assume the irregular input runs no more than 25% sparser than the target
// grid. ProcessResizing's caller grows and retries if this still undershoots.
func (s *timeAlignmentStage) OutputSampleCount(n int) int {
	if s.lastOut > 0 && s.lastInputN > 0 {
		est := (n*s.lastOut + s.lastInputN - 1) / s.lastInputN
		return est + 1
	}
	return n + n/4 + 2
}
func (s *timeAlignmentStage) TimeScaleFactor() float64 { return 1 }

// LastStats exposes the most recent call's alignment statistics (spec
// §4.7), not part of the Stage interface.
func (s *timeAlignmentStage) LastStats() align.Stats { return s.lastStats }

func (s *timeAlignmentStage) ProcessResizing(in []float32, channels int, inTS []float32, out []float32) (int, error) {
	if channels <= 0 || len(in)%channels != 0 {
		return 0, dspxerr.New(dspxerr.KindInvalidArgument, "timeAlignment: bad channel count").WithStage(-1, s.typeName)
	}
	n := len(in) / channels
	produced := 0
	perChan := make([][]float32, channels)
	for c := 0; c < channels; c++ {
		chanIn := make([]float32, n)
		chanTS := make([]float32, n)
		for i := 0; i < n; i++ {
			chanIn[i] = in[i*channels+c]
			chanTS[i] = inTS[i*channels+c]
		}
		vals, _, stats, err := align.Align(chanIn, chanTS, s.cfg)
		if err != nil {
			return 0, err
		}
		s.lastStats = stats
		perChan[c] = vals
		if len(vals) > produced {
			produced = len(vals)
		}
	}
	s.lastOut = produced
	s.lastInputN = n
	if len(out) < produced*channels {
		return 0, dspxerr.New(dspxerr.KindOutputTooSmall, "timeAlignment: output buffer too small").WithStage(-1, s.typeName)
	}
	for c := 0; c < channels; c++ {
		for i, v := range perChan[c] {
			out[i*channels+c] = v
		}
	}
	return produced, nil
}
func (s *timeAlignmentStage) Reset() { s.lastOut = 0; s.lastInputN = 0 }
func (s *timeAlignmentStage) SaveState(w *snapshot.Writer) error { return nil }
func (s *timeAlignmentStage) LoadState(r *snapshot.Reader) error { return nil }

// RegressionKind selects which of the four regression adapters a
// linearRegressionStage computes.
type RegressionKind string

const (
	RegressionSlope      RegressionKind = "slope"
	RegressionIntercept  RegressionKind = "intercept"
	RegressionResiduals  RegressionKind = "residuals"
	RegressionPredictions RegressionKind = "predictions"
)

// linearRegressionStage shares one windowed least-squares accumulator
// across the four spec §6 regression adapters.
type linearRegressionStage struct {
	base
	windowSize int
	kind       RegressionKind
	fitter     window.LinearRegression
	engines    []*window.Engine
}

func newLinearRegressionStage(typeName string, windowSize int, kind RegressionKind) *linearRegressionStage {
	return &linearRegressionStage{base: base{typeName}, windowSize: windowSize, kind: kind}
}

// NewLinearRegressionSlope builds the linearRegressionSlope stage.
func NewLinearRegressionSlope(windowSize int) Stage {
	return newLinearRegressionStage("linearRegressionSlope", windowSize, RegressionSlope)
}

// NewLinearRegressionIntercept builds the linearRegressionIntercept stage.
func NewLinearRegressionIntercept(windowSize int) Stage {
	return newLinearRegressionStage("linearRegressionIntercept", windowSize, RegressionIntercept)
}

// NewLinearRegressionResiduals builds the linearRegressionResiduals stage.
func NewLinearRegressionResiduals(windowSize int) Stage {
	return newLinearRegressionStage("linearRegressionResiduals", windowSize, RegressionResiduals)
}

// NewLinearRegressionPredictions builds the linearRegressionPredictions stage.
func NewLinearRegressionPredictions(windowSize int) Stage {
	return newLinearRegressionStage("linearRegressionPredictions", windowSize, RegressionPredictions)
}

func (s *linearRegressionStage) ensure(channels int) {
	if len(s.engines) == channels {
		return
	}
	s.engines = make([]*window.Engine, channels)
	for c := range s.engines {
		s.engines[c] = window.NewEngine(s.windowSize, &window.Mean{})
	}
}

func (s *linearRegressionStage) Process(samples []float32, channels int, timestamps []float32) error {
	if channels <= 0 || len(samples)%channels != 0 {
		return dspxerr.New(dspxerr.KindInvalidArgument, s.typeName+": bad channel count").WithStage(-1, s.typeName)
	}
	s.ensure(channels)
	n := len(samples) / channels
	for i := 0; i < n; i++ {
		for c := 0; c < channels; c++ {
			idx := i*channels + c
			s.engines[c].AddSample(samples[idx])
			win := s.engines[c].Window()
			slope, intercept := s.fitter.Fit(win)
			switch s.kind {
			case RegressionSlope:
				samples[idx] = float32(slope)
			case RegressionIntercept:
				samples[idx] = float32(intercept)
			case RegressionResiduals:
				last := len(win) - 1
				pred := slope*float64(last) + intercept
				samples[idx] = win[last] - float32(pred)
			case RegressionPredictions:
				last := len(win) - 1
				samples[idx] = float32(slope*float64(last) + intercept)
			}
		}
	}
	return nil
}
func (s *linearRegressionStage) Reset() {
	for _, e := range s.engines {
		e.Reset()
	}
}
func (s *linearRegressionStage) SaveState(w *snapshot.Writer) error {
	w.WriteInt32(int32(len(s.engines)))
	for _, e := range s.engines {
		w.WriteFloatArray(e.Window())
	}
	return nil
}
func (s *linearRegressionStage) LoadState(r *snapshot.Reader) error {
	channels, err := r.ReadInt32()
	if err != nil {
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
	return nil
}

// MatrixTransformKind selects which projection a matrixTransformStage
// applies.
type MatrixTransformKind string

const (
	MatrixPCA       MatrixTransformKind = "pcaTransform"
	MatrixICA       MatrixTransformKind = "icaTransform"
	MatrixWhitening MatrixTransformKind = "whiteningTransform"
)

// matrixTransformStage applies a precomputed projection matrix (from
// matrix.PCA/ICA/Whiten) to each sample, changing channel count for PCA/ICA
// (numComponents) and preserving it for whitening.
type matrixTransformStage struct {
	base
	kind       MatrixTransformKind
	components [][]float64 // [outChannel][inChannel]
	mean       []float64
}

// NewMatrixTransform builds a matrix-transform stage. components is the
// row-major numComponents x channels matrix produced by matrix.Whiten/ICA;
// mean is subtracted before projection when non-nil (PCA/ICA).
func NewMatrixTransform(kind MatrixTransformKind, components [][]float64, mean []float64) Stage {
	return &matrixTransformStage{base: base{"matrix-transform"}, kind: kind, components: components, mean: mean}
}

// NewMatrixTransformFromFlat reshapes matrix.PCA's flattened
// numComponents*channels row-major output into the [][]float64 form
// matrixTransformStage expects.
func NewMatrixTransformFromFlat(kind MatrixTransformKind, flat []float64, channels int, mean []float64) Stage {
	numComponents := len(flat) / channels
	components := make([][]float64, numComponents)
	for i := range components {
		components[i] = flat[i*channels : (i+1)*channels]
	}
	return NewMatrixTransform(kind, components, mean)
}

func (s *matrixTransformStage) Resizing() bool          { return true }
func (s *matrixTransformStage) OutputChannelCount() int { return len(s.components) }
func (s *matrixTransformStage) OutputSampleCount(n int) int {
	if len(s.components) == 0 {
		return n
	}
	inChannels := len(s.components[0])
	if inChannels == 0 {
		return n
	}
	return n / inChannels * len(s.components)
}
func (s *matrixTransformStage) TimeScaleFactor() float64 { return 1 }

func (s *matrixTransformStage) ProcessResizing(in []float32, channels int, inTS []float32, out []float32) (int, error) {
	if channels <= 0 || len(in)%channels != 0 {
		return 0, dspxerr.New(dspxerr.KindInvalidArgument, "matrix-transform: bad channel count").WithStage(-1, s.typeName)
	}
	if len(s.components) == 0 || len(s.components[0]) != channels {
		return 0, dspxerr.New(dspxerr.KindInvalidArgument, "matrix-transform: components/channel mismatch").WithStage(-1, s.typeName)
	}
	n := len(in) / channels
	outChannels := len(s.components)
	if len(out) < n*outChannels {
		return 0, dspxerr.New(dspxerr.KindOutputTooSmall, "matrix-transform: output buffer too small").WithStage(-1, s.typeName)
	}
	for i := 0; i < n; i++ {
		centered := make([]float64, channels)
		for c := 0; c < channels; c++ {
			v := float64(in[i*channels+c])
			if s.mean != nil {
				v -= s.mean[c]
			}
			centered[c] = v
		}
		for oc, row := range s.components {
			var sum float64
			for c, w := range row {
				sum += w * centered[c]
			}
			out[i*outChannels+oc] = float32(sum)
		}
	}
	return n, nil
}
func (s *matrixTransformStage) Reset()                            {}
func (s *matrixTransformStage) SaveState(w *snapshot.Writer) error { return nil }
func (s *matrixTransformStage) LoadState(r *snapshot.Reader) error { return nil }

// cspStage applies fixed common-spatial-pattern filters (matrix.CSP
// output) to each sample, producing len(filters) output channels.
type cspStage struct {
	base
	filters [][]float64
}

// NewCSP builds the csp stage from matrix.CSP's filter output.
func NewCSP(filters [][]float64) Stage {
	return &cspStage{base: base{"csp"}, filters: filters}
}

func (s *cspStage) Resizing() bool          { return true }
func (s *cspStage) OutputChannelCount() int { return len(s.filters) }
func (s *cspStage) OutputSampleCount(n int) int {
	if len(s.filters) == 0 {
		return n
	}
	inChannels := len(s.filters[0])
	if inChannels == 0 {
		return n
	}
	return n / inChannels * len(s.filters)
}
func (s *cspStage) TimeScaleFactor() float64 { return 1 }

func (s *cspStage) ProcessResizing(in []float32, channels int, inTS []float32, out []float32) (int, error) {
	if channels <= 0 || len(in)%channels != 0 {
		return 0, dspxerr.New(dspxerr.KindInvalidArgument, "csp: bad channel count").WithStage(-1, s.typeName)
	}
	if len(s.filters) == 0 || len(s.filters[0]) != channels {
		return 0, dspxerr.New(dspxerr.KindInvalidArgument, "csp: filters/channel mismatch").WithStage(-1, s.typeName)
	}
	n := len(in) / channels
	outChannels := len(s.filters)
	if len(out) < n*outChannels {
		return 0, dspxerr.New(dspxerr.KindOutputTooSmall, "csp: output buffer too small").WithStage(-1, s.typeName)
	}
	for i := 0; i < n; i++ {
		for oc, row := range s.filters {
			var sum float64
			for c, w := range row {
				sum += w * float64(in[i*channels+c])
			}
			out[i*outChannels+oc] = float32(sum)
		}
	}
	return n, nil
}
func (s *cspStage) Reset()                            {}
func (s *cspStage) SaveState(w *snapshot.Writer) error { return nil }
func (s *cspStage) LoadState(r *snapshot.Reader) error { return nil }
