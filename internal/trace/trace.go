// Package trace provides opt-in, environment-gated diagnostic logging for
// the pipeline executor and snapshot codec. None of it changes semantics;
// it exists purely for local debugging (spec §6).
package trace

import (
	"fmt"
	"os"
)

var (
	executorEnabled = os.Getenv("DSPX_DEBUG") == "1"
	dumpsEnabled    = os.Getenv("DSPX_DEBUG_STAGE_DUMPS") == "1"
	toonEnabled     = os.Getenv("DSPX_DEBUG_TOON") == "1"
)

// Executor logs a verbose executor trace line when DSPX_DEBUG=1.
func Executor(format string, args ...any) {
	if !executorEnabled {
		return
	}
	fmt.Fprintf(os.Stderr, "dspx[exec] "+format+"\n", args...)
}

// StageDump logs the first 8 samples after a stage ran, when
// DSPX_DEBUG_STAGE_DUMPS=1.
func StageDump(stageType string, idx int, samples []float32) {
	if !dumpsEnabled {
		return
	}
	n := len(samples)
	if n > 8 {
		n = 8
	}
	fmt.Fprintf(os.Stderr, "dspx[dump] stage=%d(%s) first=%v\n", idx, stageType, samples[:n])
}

// Snapshot logs a snapshot codec trace line when DSPX_DEBUG_TOON=1.
func Snapshot(format string, args ...any) {
	if !toonEnabled {
		return
	}
	fmt.Fprintf(os.Stderr, "dspx[toon] "+format+"\n", args...)
}
