// Package dspx implements a streaming, multi-channel digital-signal-
// processing pipeline.
//
// A Pipeline is an ordered list of stages, each either non-resizing
// (rewrites a buffer of samples in place) or resizing (consumes one sample
// count and produces a different one, such as a resampler or an FFT).
// Samples are channel-major float32 buffers; stages are looked up by name
// through the stage package's registry and constructed from an options map.
//
// # Buffers
//
// Every Process/ProcessSync call takes a flat []float32 sized
// samplesPerChannel*channels, an optional parallel []float32 of per-sample
// timestamps in milliseconds, and an Options struct carrying the channel
// count and sample rate for that call. When timestamps are omitted, the
// pipeline synthesizes them from the call's sample rate.
//
// # Concurrency
//
// A Pipeline processes one buffer at a time; Process offloads the call to
// a goroutine and returns a channel carrying the Result, while ProcessSync
// runs on the caller's goroutine. Both share one core and guard concurrent
// calls with an atomic busy flag rather than a mutex so a caller can poll
// IsBusy without blocking.
//
// # Snapshots
//
// SaveState/LoadState serialize every stage's internal state through the
// internal/snapshot binary codec, so a pipeline can be paused and resumed
// exactly where it left off.
package dspx
