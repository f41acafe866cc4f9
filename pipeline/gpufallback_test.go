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

package pipeline

import (
	"bytes"
	"context"
	"testing"

	"github.com/layerpipe/core/internal/gpu"
	"github.com/layerpipe/core/internal/scanline"
)

// fakeBackend substitutes a controlled Backend implementation into the
// registry: fail forces every kernel call to report failure, batchOK
// additionally enables the mega-batch entry point. Successful calls
// produce output via the CPU scanline builder, so they are byte-exact
// with the fallback path by construction.
type fakeBackend struct {
	code    gpu.Code
	fail    bool
	batchOK bool
}

func (f *fakeBackend) Code() gpu.Code  { return f.code }
func (f *fakeBackend) Available() bool { return true }

func (f *fakeBackend) BuildScanlines(dst, grey []byte, srcWidth, height, outWidth, channels int32) bool {
	if f.fail {
		return false
	}
	built, err := scanline.Build(grey, srcWidth, height, outWidth, channels)
	if err != nil {
		return false
	}
	copy(dst, built)
	return true
}

func (f *fakeBackend) BuildScanlinesBatch(dst [][]byte, grey [][]byte, srcWidth, height, outWidth, channels int32) bool {
	if f.fail || !f.batchOK {
		return false
	}
	for i := range grey {
		built, err := scanline.Build(grey[i], srcWidth, height, outWidth, channels)
		if err != nil {
			return false
		}
		copy(dst[i], built)
	}
	return true
}

func (f *fakeBackend) MaxConcurrentLayers(srcWidth, height, outWidth int32) int32 { return 8 }

func (f *fakeBackend) LastErrorCode() int32 {
	if f.fail {
		return 7
	}
	return 0
}

func (f *fakeBackend) DeviceInfo() gpu.DeviceInfo { return gpu.DeviceInfo{} }

func withFakeBackend(t *testing.T, f *fakeBackend) {
	t.Helper()
	prev := gpu.Register(f)
	gpu.SetEnabled(true)
	gpu.SetPreference(f.code)
	t.Cleanup(func() {
		gpu.Register(prev)
		gpu.SetPreference(gpu.CodeNone)
	})
}

func TestBatchFallsBackToCPUWhenKernelAlwaysFails(t *testing.T) {
	cpuOnly, err := ProcessLayersBatch(context.Background(), testRequest(6))
	if err != nil {
		t.Fatalf("CPU-only run: %v", err)
	}

	withFakeBackend(t, &fakeBackend{code: gpu.CodeOpenCL, fail: true})

	res, err := ProcessLayersBatch(context.Background(), testRequest(6))
	if err != nil {
		t.Fatalf("run with failing kernel: %v", err)
	}
	if !bytes.Equal(res.Blob, cpuOnly.Blob) {
		t.Fatalf("fallback output differs from the pure-CPU run")
	}

	a := LastBatchAnalytics()
	if a.GPUAttempts == 0 {
		t.Fatalf("GPUAttempts = 0, want > 0 with an active failing backend")
	}
	if a.GPUSuccesses != 0 {
		t.Fatalf("GPUSuccesses = %d, want 0", a.GPUSuccesses)
	}
	if a.GPUFallbacks != a.GPUAttempts {
		t.Fatalf("GPUFallbacks = %d, want %d (every attempt must fall back)", a.GPUFallbacks, a.GPUAttempts)
	}
	if a.LastGPUErrorCode != 7 {
		t.Fatalf("LastGPUErrorCode = %d, want 7", a.LastGPUErrorCode)
	}
}

func TestBatchUsesWorkingKernelAndOutputMatchesCPU(t *testing.T) {
	cpuOnly, err := ProcessLayersBatch(context.Background(), testRequest(6))
	if err != nil {
		t.Fatalf("CPU-only run: %v", err)
	}

	withFakeBackend(t, &fakeBackend{code: gpu.CodeOpenCL})

	res, err := ProcessLayersBatch(context.Background(), testRequest(6))
	if err != nil {
		t.Fatalf("run with working kernel: %v", err)
	}
	if !bytes.Equal(res.Blob, cpuOnly.Blob) {
		t.Fatalf("kernel output differs from the pure-CPU run")
	}

	a := LastBatchAnalytics()
	if a.GPUSuccesses == 0 || a.GPUFallbacks != 0 {
		t.Fatalf("gpu counters = %+v, want all attempts succeeding", a)
	}
	if a.Backend != int32(gpu.CodeOpenCL) {
		t.Fatalf("Backend = %d, want %d", a.Backend, gpu.CodeOpenCL)
	}
}

func TestPhasedMegaBatchMatchesCPURun(t *testing.T) {
	cpuOnly, err := ProcessLayersBatchPhased(context.Background(), PhasedBatchRequest{BatchRequest: testRequest(5)})
	if err != nil {
		t.Fatalf("CPU-only phased run: %v", err)
	}

	withFakeBackend(t, &fakeBackend{code: gpu.CodeCUDA, batchOK: true})

	res, err := ProcessLayersBatchPhased(context.Background(), PhasedBatchRequest{
		BatchRequest: testRequest(5),
		UseGPUBatch:  true,
	})
	if err != nil {
		t.Fatalf("mega-batch phased run: %v", err)
	}
	if !bytes.Equal(res.Blob, cpuOnly.Blob) {
		t.Fatalf("mega-batch output differs from the CPU phased run")
	}

	a := LastBatchAnalytics()
	if !a.PhasedMegaBatchOK {
		t.Fatalf("PhasedMegaBatchOK = false, want true with a working batch kernel")
	}
	if a.Backend != int32(gpu.CodeCUDA) {
		t.Fatalf("Backend = %d, want %d", a.Backend, gpu.CodeCUDA)
	}
}

func TestPhasedMegaBatchFailureFallsThroughPerLayer(t *testing.T) {
	cpuOnly, err := ProcessLayersBatchPhased(context.Background(), PhasedBatchRequest{BatchRequest: testRequest(4)})
	if err != nil {
		t.Fatalf("CPU-only phased run: %v", err)
	}

	withFakeBackend(t, &fakeBackend{code: gpu.CodeCUDA, fail: true})

	res, err := ProcessLayersBatchPhased(context.Background(), PhasedBatchRequest{
		BatchRequest: testRequest(4),
		UseGPUBatch:  true,
	})
	if err != nil {
		t.Fatalf("phased run with failing kernel: %v", err)
	}
	if !bytes.Equal(res.Blob, cpuOnly.Blob) {
		t.Fatalf("fallback output differs from the CPU phased run")
	}

	a := LastBatchAnalytics()
	if a.PhasedMegaBatchOK {
		t.Fatalf("PhasedMegaBatchOK = true, want false when the batch kernel fails")
	}
	if a.GPUAttempts == 0 || a.GPUSuccesses != 0 {
		t.Fatalf("gpu counters = %+v, want attempts with zero successes", a)
	}
}
