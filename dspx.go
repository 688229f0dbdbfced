package dspx

import (
	"sync/atomic"

	"github.com/dspxio/dspx/dspxerr"
	"github.com/dspxio/dspx/stage"
)

// busyFlag is a shared, pointer-held atomic guard so a worker goroutine and
// the Pipeline that spawned it can both observe and clear the same flag
// without a back-pointer from the goroutine to the Pipeline.
type busyFlag struct{ v int32 }

func (b *busyFlag) tryAcquire() bool { return atomic.CompareAndSwapInt32(&b.v, 0, 1) }
func (b *busyFlag) release()         { atomic.StoreInt32(&b.v, 0) }
func (b *busyFlag) isBusy() bool     { return atomic.LoadInt32(&b.v) != 0 }

// namedStage pairs a constructed stage.Stage with the type name and options
// it was built from, so the pipeline can save/load/describe it.
type namedStage struct {
	s    stage.Stage
	typ  string
	opts map[string]any
}

// Pipeline runs an ordered sequence of stages over successive buffers
// (spec §4.9/§6). One pipeline is single-writer: addStage, addFilterStage,
// loadState, clearState, dispose, and process are mutually exclusive,
// enforced by a shared atomic busy flag rather than a mutex, so a caller
// can poll IsBusy without blocking and a worker goroutine can clear the
// flag without a back-pointer to the Pipeline.
type Pipeline struct {
	stages   []namedStage
	busy     *busyFlag
	disposed atomic.Bool
}

// New constructs an empty Pipeline (spec §6 create()).
func New() *Pipeline {
	return &Pipeline{busy: &busyFlag{}}
}

// AddStage appends a stage constructed by name from the registry (spec
// §4.11/§6 addStage).
func (p *Pipeline) AddStage(stageType string, options map[string]any) error {
	if p.disposed.Load() {
		return dspxerr.Disposed
	}
	if !p.busy.tryAcquire() {
		return dspxerr.Busy
	}
	defer p.busy.release()
	s, err := stage.Construct(stageType, options)
	if err != nil {
		return err
	}
	p.stages = append(p.stages, namedStage{s: s, typ: stageType, opts: options})
	return nil
}

// AddFilterStage appends a direct-form-I IIR filter stage from raw
// coefficient arrays (spec §6 addFilterStage).
func (p *Pipeline) AddFilterStage(b, a []float64) error {
	b32 := make([]float32, len(b))
	for i, v := range b {
		b32[i] = float32(v)
	}
	a32 := make([]float32, len(a))
	for i, v := range a {
		a32[i] = float32(v)
	}
	return p.AddStage("filter:iir", map[string]any{"b": b32, "a": a32})
}

// StageCount returns the number of stages currently in the pipeline.
func (p *Pipeline) StageCount() int { return len(p.stages) }

// IsBusy reports whether a Process/ProcessSync call is currently in
// flight.
func (p *Pipeline) IsBusy() bool { return p.busy.isBusy() }

// IsDisposed reports whether Dispose has been called.
func (p *Pipeline) IsDisposed() bool { return p.disposed.Load() }

// Dispose marks the pipeline unusable; subsequent calls return
// dspxerr.Disposed. Refuses while a process is in flight (spec §6).
func (p *Pipeline) Dispose() error {
	if !p.busy.tryAcquire() {
		return dspxerr.Busy
	}
	defer p.busy.release()
	p.disposed.Store(true)
	return nil
}
