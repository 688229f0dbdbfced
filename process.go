package dspx

import (
	"github.com/dspxio/dspx/dspxerr"
	"github.com/dspxio/dspx/stage"
)

// maxResizeAttempts bounds the grow-and-copy retries in processResizingStage:
// a stage that still can't fit after this many doublings has a genuine bug,
// not just an undersized hint.
const maxResizeAttempts = 8

// processResizingStage runs a resizing stage's ProcessResizing against a
// buffer sized from its OutputSampleCount hint, growing and retrying when
// the stage reports the hint was too small (spec §4.9 step 5: actual output
// length is allowed to exceed the hint, and must never abort the pipeline).
func processResizingStage(s stage.Stage, buf []float32, channels int, inTS []float32, outChannels, frames int) ([]float32, int, error) {
	outFrames := s.OutputSampleCount(frames)
	if outFrames < 1 {
		outFrames = 1
	}
	for attempt := 0; ; attempt++ {
		out := make([]float32, outFrames*outChannels)
		produced, err := s.ProcessResizing(buf, channels, inTS, out)
		if err == nil {
			return out, produced, nil
		}
		if !dspxerr.IsOutputTooSmall(err) || attempt >= maxResizeAttempts {
			return nil, 0, err
		}
		outFrames *= 2
	}
}

// Options configures one process/processSync call (spec §6: "Options map
// for process"). Channels defaults to 1; SampleRate of 0 means "derive
// from the supplied timestamps, or fall back to sample indices".
type Options struct {
	Channels   int
	SampleRate float64
}

// Result carries the outcome of an asynchronous Process call.
type Result struct {
	Samples    []float32
	Timestamps []float32
	Err        error
}

// Process runs samples (channel-major, length samplesPerChannel*channels)
// through every stage in order, asynchronously, returning a channel that
// receives exactly one Result (spec §6 process, §5 async offload).
func (p *Pipeline) Process(samples []float32, timestamps []float32, opts Options) <-chan Result {
	out := make(chan Result, 1)
	if p.disposed.Load() {
		out <- Result{Err: dspxerr.Disposed}
		close(out)
		return out
	}
	if !p.busy.tryAcquire() {
		out <- Result{Err: dspxerr.Busy}
		close(out)
		return out
	}
	go func() {
		defer p.busy.release()
		defer close(out)
		s, ts, err := p.run(samples, timestamps, opts)
		out <- Result{Samples: s, Timestamps: ts, Err: err}
	}()
	return out
}

// ProcessSync runs the same core as Process on the caller's goroutine,
// releasing the busy flag before returning (spec §6 processSync, §5 "Sync
// processSync runs on the caller's thread").
func (p *Pipeline) ProcessSync(samples []float32, timestamps []float32, opts Options) ([]float32, []float32, error) {
	if p.disposed.Load() {
		return nil, nil, dspxerr.Disposed
	}
	if !p.busy.tryAcquire() {
		return nil, nil, dspxerr.Busy
	}
	defer p.busy.release()
	return p.run(samples, timestamps, opts)
}

func (p *Pipeline) run(samples []float32, timestamps []float32, opts Options) ([]float32, []float32, error) {
	channels := opts.Channels
	if channels <= 0 {
		channels = 1
	}
	if len(samples)%channels != 0 {
		return nil, nil, dspxerr.New(dspxerr.KindInvalidArgument, "samples length is not a multiple of channel count")
	}
	frames := len(samples) / channels

	ts := timestamps
	if ts == nil {
		ts = synthesizeTimestamps(frames, opts.SampleRate)
	} else if len(ts) != len(samples) {
		return nil, nil, dspxerr.New(dspxerr.KindInvalidArgument, "timestamps length must equal samples length")
	} else {
		ts = perFrameTimestamps(ts, channels)
	}
	if !nonDecreasing(ts) {
		return nil, nil, dspxerr.NonMonotonic
	}

	buf := append([]float32(nil), samples...)

	for i, ns := range p.stages {
		s := ns.s
		if !s.Resizing() {
			if err := s.Process(buf, channels, expandTimestamps(ts, channels)); err != nil {
				return nil, nil, dspxerr.StageError(s.Type(), err.Error()).WithStage(i, ns.typ)
			}
			continue
		}

		outChannels := s.OutputChannelCount()
		if outChannels == 0 {
			outChannels = channels
		}
		inTS := expandTimestamps(ts, channels)
		out, produced, err := processResizingStage(s, buf, channels, inTS, outChannels, frames)
		if err != nil {
			return nil, nil, dspxerr.StageError(s.Type(), err.Error()).WithStage(i, ns.typ)
		}

		buf = out[:produced*outChannels]
		channels = outChannels
		frames = produced
		ts = rescaleTimestamps(ts, frames, s.TimeScaleFactor())
	}

	return buf, expandTimestamps(ts, channels), nil
}

func synthesizeTimestamps(frames int, sampleRate float64) []float32 {
	ts := make([]float32, frames)
	if sampleRate <= 0 {
		for i := range ts {
			ts[i] = float32(i)
		}
		return ts
	}
	step := 1000.0 / sampleRate // milliseconds per sample
	for i := range ts {
		ts[i] = float32(float64(i) * step)
	}
	return ts
}

// perFrameTimestamps collapses a per-sample (channel-major) timestamp
// buffer down to one value per frame, since the same timestamp is
// replicated across channels within a frame (spec §3).
func perFrameTimestamps(ts []float32, channels int) []float32 {
	frames := len(ts) / channels
	out := make([]float32, frames)
	for i := range out {
		out[i] = ts[i*channels]
	}
	return out
}

// expandTimestamps replicates a one-per-frame timestamp series across
// channels back into the channel-major shape stages operate on.
func expandTimestamps(ts []float32, channels int) []float32 {
	out := make([]float32, len(ts)*channels)
	for i, t := range ts {
		for c := 0; c < channels; c++ {
			out[i*channels+c] = t
		}
	}
	return out
}

// rescaleTimestamps reinterpolates the one-per-frame input timestamp
// series to outFrames entries using a resizing stage's TimeScaleFactor
// (spec §4.9): slot i's fractional source index is i*scale, linearly
// interpolated between the bracketing input timestamps.
func rescaleTimestamps(in []float32, outFrames int, scale float64) []float32 {
	out := make([]float32, outFrames)
	if len(in) == 0 {
		return out
	}
	if len(in) == 1 {
		for i := range out {
			out[i] = in[0]
		}
		return out
	}
	last := len(in) - 1
	for i := range out {
		idx := float64(i) * scale
		if idx <= 0 {
			out[i] = in[0]
			continue
		}
		if idx >= float64(last) {
			out[i] = in[last]
			continue
		}
		lo := int(idx)
		frac := idx - float64(lo)
		out[i] = in[lo] + float32(frac)*(in[lo+1]-in[lo])
	}
	return out
}

func nonDecreasing(ts []float32) bool {
	for i := 1; i < len(ts); i++ {
		if ts[i] < ts[i-1] {
			return false
		}
	}
	return true
}
