// Copyright 2019 The Wuffs Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// ----------------

// Package metrics accumulates per-thread timing and GPU-usage counters
// for one batch run and snapshots them as an Analytics value. Each
// snapshot is also published as a process-wide last-batch value, which
// is how the pipeline package's LastBatchAnalytics and the C ABI's scalar
// readout functions reach it: the batch entry points themselves return
// only their BatchResult, not the Analytics value.
package metrics

import "sync"

// ThreadTiming holds one worker's cumulative phase durations, in
// nanoseconds, across every layer it processed in a batch.
type ThreadTiming struct {
	DecodeNanos   int64
	ScanlineNanos int64
	CompressNanos int64
	PNGNanos      int64
	Layers        int32
}

// Analytics is the full snapshot of one batch run: per-thread timings
// plus the scalar GPU/thread counters described in the external
// interface.
type Analytics struct {
	Threads           []ThreadTiming
	ThreadCount       int32
	Backend           int32 // gpu.Code, kept numeric to avoid an import cycle
	GPUAttempts       int32
	GPUSuccesses      int32
	GPUFallbacks      int32
	LastGPUErrorCode  int32
	PhasedMegaBatchOK bool
}

// Recorder accumulates analytics for a single in-flight batch. It is not
// safe to reuse across batches; pipeline.ProcessLayersBatch(Phased)
// constructs one per call.
type Recorder struct {
	mu      sync.Mutex
	enabled bool

	threads []ThreadTiming

	backend           int32
	gpuAttempts       int32
	gpuSuccesses      int32
	gpuFallbacks      int32
	lastGPUErrorCode  int32
	phasedMegaBatchOK bool
}

// NewRecorder returns a Recorder with workerCount pre-sized thread slots.
// enabled controls whether per-thread timing is actually accumulated;
// the scalar GPU counters are always tracked regardless. Disabling
// analytics skips the expensive per-thread timers, not the cheap
// counters.
func NewRecorder(workerCount int, enabled bool) *Recorder {
	return &Recorder{
		enabled: enabled,
		threads: make([]ThreadTiming, workerCount),
	}
}

func (r *Recorder) addTiming(worker int, f func(*ThreadTiming)) {
	if !r.enabled {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	f(&r.threads[worker])
}

// AddDecode accumulates one layer's decode-phase duration into worker's
// slot and counts the layer against that worker. Decode runs exactly
// once per layer, so it carries the layer count; the other phase
// accumulators do not. All four are no-ops when analytics is disabled.
func (r *Recorder) AddDecode(worker int, nanos int64) {
	r.addTiming(worker, func(t *ThreadTiming) {
		t.DecodeNanos += nanos
		t.Layers++
	})
}

// AddScanline accumulates scanline-build time into worker's slot.
func (r *Recorder) AddScanline(worker int, nanos int64) {
	r.addTiming(worker, func(t *ThreadTiming) { t.ScanlineNanos += nanos })
}

// AddCompress accumulates deflate time into worker's slot.
func (r *Recorder) AddCompress(worker int, nanos int64) {
	r.addTiming(worker, func(t *ThreadTiming) { t.CompressNanos += nanos })
}

// AddPNG accumulates PNG container-assembly time into worker's slot.
func (r *Recorder) AddPNG(worker int, nanos int64) {
	r.addTiming(worker, func(t *ThreadTiming) { t.PNGNanos += nanos })
}

// SetBackend records which GPU backend code the batch used (CodeNone if
// none).
func (r *Recorder) SetBackend(code int32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backend = code
}

// RecordGPUAttempt increments the attempt counter, and the success or
// fallback counter depending on outcome.
func (r *Recorder) RecordGPUAttempt(succeeded bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gpuAttempts++
	if succeeded {
		r.gpuSuccesses++
	} else {
		r.gpuFallbacks++
	}
}

// SetLastGPUErrorCode records the most recent GPU error code observed.
func (r *Recorder) SetLastGPUErrorCode(code int32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastGPUErrorCode = code
}

// SetPhasedMegaBatchOK records whether the phased pipeline's GPU
// mega-batch call (phase 2) succeeded for the whole batch at once.
func (r *Recorder) SetPhasedMegaBatchOK(ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.phasedMegaBatchOK = ok
}

// Snapshot returns the accumulated Analytics and also publishes it as
// the process-wide last-batch snapshot.
func (r *Recorder) Snapshot() Analytics {
	r.mu.Lock()
	threads := make([]ThreadTiming, len(r.threads))
	copy(threads, r.threads)
	a := Analytics{
		Threads:           threads,
		ThreadCount:       int32(len(r.threads)),
		Backend:           r.backend,
		GPUAttempts:       r.gpuAttempts,
		GPUSuccesses:      r.gpuSuccesses,
		GPUFallbacks:      r.gpuFallbacks,
		LastGPUErrorCode:  r.lastGPUErrorCode,
		PhasedMegaBatchOK: r.phasedMegaBatchOK,
	}
	r.mu.Unlock()

	setLast(a)
	return a
}

var (
	lastMu sync.Mutex
	last   Analytics
)

func setLast(a Analytics) {
	lastMu.Lock()
	defer lastMu.Unlock()
	last = a
}

// Last returns the most recently published batch's Analytics, backing
// the C ABI's process-wide last-batch readout functions. Valid only
// until the next batch call publishes a new snapshot.
func Last() Analytics {
	lastMu.Lock()
	defer lastMu.Unlock()
	return last
}
