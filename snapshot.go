package dspx

import (
	"github.com/dspxio/dspx/dspxerr"
	"github.com/dspxio/dspx/internal/snapshot"
)

// SaveState serializes every stage's internal state into a single opaque
// snapshot (spec §4.10).
func (p *Pipeline) SaveState(timestamp float64) ([]byte, error) {
	if p.disposed.Load() {
		return nil, dspxerr.Disposed
	}
	doc := snapshot.Document{Timestamp: timestamp}
	for i, ns := range p.stages {
		w := snapshot.NewWriter()
		if err := ns.s.SaveState(w); err != nil {
			return nil, dspxerr.StageError(ns.typ, err.Error()).WithStage(i, ns.typ)
		}
		doc.Stages = append(doc.Stages, snapshot.StageState{Type: ns.typ, State: w.Bytes()})
	}
	return snapshot.Encode(doc), nil
}

// LoadState restores every stage's internal state from a snapshot
// previously produced by SaveState. The snapshot's stage count and
// per-index type names must match the pipeline's current configuration.
func (p *Pipeline) LoadState(data []byte) (float64, error) {
	if p.disposed.Load() {
		return 0, dspxerr.Disposed
	}
	if !p.busy.tryAcquire() {
		return 0, dspxerr.Busy
	}
	defer p.busy.release()
	doc, err := snapshot.Decode(data)
	if err != nil {
		return 0, err
	}
	if len(doc.Stages) != len(p.stages) {
		return 0, dspxerr.New(dspxerr.KindStageCountMismatch, "snapshot stage count does not match pipeline")
	}
	for i, st := range doc.Stages {
		ns := p.stages[i]
		if st.Type != ns.typ {
			return 0, dspxerr.New(dspxerr.KindStageTypeMismatch, "snapshot stage type does not match pipeline").WithStage(i, ns.typ)
		}
		r := snapshot.NewReader(st.State)
		if err := ns.s.LoadState(r); err != nil {
			return 0, dspxerr.StageError(ns.typ, err.Error()).WithStage(i, ns.typ)
		}
	}
	return doc.Timestamp, nil
}

// ClearState resets every stage back to its construction defaults (spec
// §6 clearState).
func (p *Pipeline) ClearState() error {
	if p.disposed.Load() {
		return dspxerr.Disposed
	}
	if !p.busy.tryAcquire() {
		return dspxerr.Busy
	}
	defer p.busy.release()
	for _, ns := range p.stages {
		ns.s.Reset()
	}
	return nil
}

// StageInfo describes one configured stage, for introspection.
type StageInfo struct {
	Type     string
	Resizing bool
}

// ListStages returns the type name and resizing flag of every configured
// stage, in pipeline order (spec §6 listState). Unlike addStage/process,
// listState is not busy-gated — only Disposed is a listed error.
func (p *Pipeline) ListStages() ([]StageInfo, error) {
	if p.disposed.Load() {
		return nil, dspxerr.Disposed
	}
	out := make([]StageInfo, len(p.stages))
	for i, ns := range p.stages {
		out[i] = StageInfo{Type: ns.typ, Resizing: ns.s.Resizing()}
	}
	return out, nil
}
