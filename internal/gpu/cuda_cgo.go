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

//go:build cgo && !windows

package gpu

/*
#cgo linux LDFLAGS: -ldl
#cgo darwin LDFLAGS: -ldl

#include <dlfcn.h>
#include <stddef.h>
#include <stdlib.h>
#include <stdint.h>

static void* gpu_dlopen(const char* name) {
	return dlopen(name, RTLD_LAZY | RTLD_LOCAL);
}

static void* gpu_dlsym(void* handle, const char* name) {
	if (handle == NULL) {
		return NULL;
	}
	return dlsym(handle, name);
}

typedef int32_t (*vs_cuda_build_fn)(const uint8_t*, int32_t, int32_t, int32_t, int32_t, uint8_t*, int32_t);
typedef int32_t (*vs_cuda_build_batch_fn)(const uint8_t*, int32_t, int32_t, int32_t, int32_t, int32_t, uint8_t*, int32_t);
typedef int32_t (*vs_cuda_init_fn)(void);
typedef int32_t (*vs_cuda_i32_fn)(void);
typedef int64_t (*vs_cuda_i64_fn)(void);
typedef int32_t (*vs_cuda_max_concurrent_fn)(int32_t, int32_t, int32_t, int32_t);

static int32_t gpu_call_build(void* fn, const uint8_t* pixels, int32_t src_w, int32_t h, int32_t out_w, int32_t channels, uint8_t* out, int32_t out_len) {
	return ((vs_cuda_build_fn)fn)(pixels, src_w, h, out_w, channels, out, out_len);
}

static int32_t gpu_call_build_batch(void* fn, const uint8_t* pixels, int32_t n_layers, int32_t src_w, int32_t h, int32_t out_w, int32_t channels, uint8_t* out, int32_t per_layer_bytes) {
	return ((vs_cuda_build_batch_fn)fn)(pixels, n_layers, src_w, h, out_w, channels, out, per_layer_bytes);
}

static int32_t gpu_call_init(void* fn) {
	return ((vs_cuda_init_fn)fn)();
}

static int32_t gpu_call_i32(void* fn) {
	return ((vs_cuda_i32_fn)fn)();
}

static int64_t gpu_call_i64(void* fn) {
	return ((vs_cuda_i64_fn)fn)();
}

static int32_t gpu_call_max_concurrent(void* fn, int32_t src_w, int32_t h, int32_t out_w, int32_t channels) {
	return ((vs_cuda_max_concurrent_fn)fn)(src_w, h, out_w, channels);
}
*/
import "C"

import (
	"sync"
	"unsafe"
)

// cudaCompanionLibName is the CUDA-path companion library this backend
// probes for: the CUDA driver only proves a capable device and driver
// exist (see the driver probe below), but the tensor-scanline kernels
// themselves live in this separate shared library, loaded the same way
// on every POSIX platform this build tag covers.
const cudaCompanionLibName = "libvoxelshift_cuda_kernel.so"

// cudaScratchBytesPerLayer is a conservative VRAM estimate in bytes per
// output pixel (greyscale source plus RGBA scanline buffer plus working
// copies); MaxConcurrentLayers multiplies it by outWidth*height to get a
// per-layer figure when the companion library doesn't export
// vs_cuda_tensor_max_concurrent_layers.
const cudaScratchBytesPerLayer = 4

// cudaBackend implements the CUDA-path Backend. Available reports true
// only once both the CUDA driver (cuInit) and the companion kernel
// library's mandatory vs_cuda_tensor_build_scanlines export resolve;
// every other companion symbol is optional and simply leaves the
// corresponding feature at its zero-value fallback when absent.
type cudaBackend struct {
	mu          sync.Mutex
	probed      bool
	available   bool
	lastErrCode int32
	info        DeviceInfo

	buildFn         unsafe.Pointer
	buildBatchFn    unsafe.Pointer
	initFn          unsafe.Pointer
	deviceVRAMFn    unsafe.Pointer
	tensorCoresFn   unsafe.Pointer
	computeCapFn    unsafe.Pointer
	mpCountFn       unsafe.Pointer
	lastErrorFn     unsafe.Pointer
	maxConcurrentFn unsafe.Pointer
}

func newCUDABackend() *cudaBackend { return &cudaBackend{} }

func (b *cudaBackend) Code() Code { return CodeCUDA }

func (b *cudaBackend) Available() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.probed {
		return b.available
	}
	b.probed = true
	b.available = b.probeLocked()
	return b.available
}

// probeLocked first confirms a CUDA driver is present at all (cuInit
// resolvable in libcuda), then loads the separate kernel library and
// resolves its mandatory build entry point plus every optional one it
// happens to export.
func (b *cudaBackend) probeLocked() bool {
	if !cudaDriverPresent() {
		return false
	}

	cLibName := C.CString(cudaCompanionLibName)
	defer C.free(unsafe.Pointer(cLibName))
	handle := C.gpu_dlopen(cLibName)
	if handle == nil {
		return false
	}

	buildFn := b.resolveSymbol(handle, "vs_cuda_tensor_build_scanlines")
	if buildFn == nil {
		return false
	}
	b.buildFn = buildFn

	b.buildBatchFn = b.resolveSymbol(handle, "vs_cuda_tensor_build_scanlines_batch")
	b.initFn = b.resolveSymbol(handle, "vs_cuda_tensor_init")
	b.deviceVRAMFn = b.resolveSymbol(handle, "vs_cuda_tensor_vram_bytes")
	b.tensorCoresFn = b.resolveSymbol(handle, "vs_cuda_tensor_has_tensor_cores")
	b.computeCapFn = b.resolveSymbol(handle, "vs_cuda_tensor_compute_capability")
	b.mpCountFn = b.resolveSymbol(handle, "vs_cuda_tensor_multiprocessor_count")
	b.lastErrorFn = b.resolveSymbol(handle, "vs_cuda_tensor_last_error_code")
	b.maxConcurrentFn = b.resolveSymbol(handle, "vs_cuda_tensor_max_concurrent_layers")

	if b.initFn != nil {
		C.gpu_call_init(b.initFn)
	}
	b.info = b.readDeviceInfoLocked()
	return true
}

func cudaDriverPresent() bool {
	for _, name := range [2]string{"libcuda.so.1", "libcuda.so"} {
		cName := C.CString(name)
		handle := C.gpu_dlopen(cName)
		C.free(unsafe.Pointer(cName))
		if handle == nil {
			continue
		}
		sym := C.CString("cuInit")
		found := C.gpu_dlsym(handle, sym) != nil
		C.free(unsafe.Pointer(sym))
		if found {
			return true
		}
	}
	return false
}

func (b *cudaBackend) resolveSymbol(handle unsafe.Pointer, name string) unsafe.Pointer {
	cName := C.CString(name)
	defer C.free(unsafe.Pointer(cName))
	return unsafe.Pointer(C.gpu_dlsym(handle, cName))
}

func (b *cudaBackend) readDeviceInfoLocked() DeviceInfo {
	var info DeviceInfo
	if b.deviceVRAMFn != nil {
		info.VRAMBytes = int64(C.gpu_call_i64(b.deviceVRAMFn))
	}
	if b.tensorCoresFn != nil {
		info.HasTensorCores = C.gpu_call_i32(b.tensorCoresFn) != 0
	}
	if b.computeCapFn != nil {
		info.ComputeCapability = int32(C.gpu_call_i32(b.computeCapFn))
	}
	if b.mpCountFn != nil {
		info.MultiprocessorCount = int32(C.gpu_call_i32(b.mpCountFn))
	}
	return info
}

func (b *cudaBackend) BuildScanlines(dst, grey []byte, srcWidth, height, outWidth, channels int32) bool {
	if !b.Available() || len(grey) == 0 || len(dst) == 0 {
		return false
	}
	ret := C.gpu_call_build(b.buildFn,
		(*C.uint8_t)(unsafe.Pointer(&grey[0])), C.int32_t(srcWidth), C.int32_t(height), C.int32_t(outWidth), C.int32_t(channels),
		(*C.uint8_t)(unsafe.Pointer(&dst[0])), C.int32_t(len(dst)))
	ok := ret != 0
	if !ok {
		b.recordError()
	}
	return ok
}

func (b *cudaBackend) BuildScanlinesBatch(dst [][]byte, grey [][]byte, srcWidth, height, outWidth, channels int32) bool {
	if !b.Available() || b.buildBatchFn == nil || len(grey) == 0 || len(grey) != len(dst) {
		return false
	}
	nLayers := len(grey)
	pixelCount := int(srcWidth) * int(height)
	concat := make([]byte, pixelCount*nLayers)
	for i, g := range grey {
		if len(g) != pixelCount {
			return false
		}
		copy(concat[i*pixelCount:], g)
	}
	perLayerBytes := len(dst[0])
	out := make([]byte, perLayerBytes*nLayers)

	ret := C.gpu_call_build_batch(b.buildBatchFn,
		(*C.uint8_t)(unsafe.Pointer(&concat[0])), C.int32_t(nLayers), C.int32_t(srcWidth), C.int32_t(height), C.int32_t(outWidth), C.int32_t(channels),
		(*C.uint8_t)(unsafe.Pointer(&out[0])), C.int32_t(perLayerBytes))
	if ret == 0 {
		b.recordError()
		return false
	}
	for i := range dst {
		copy(dst[i], out[i*perLayerBytes:(i+1)*perLayerBytes])
	}
	return true
}

// MaxConcurrentLayers defers to the companion library's own estimator
// when it exports vs_cuda_tensor_max_concurrent_layers; otherwise it
// falls back to a nominal VRAM budget divided by a conservative
// per-layer byte estimate.
func (b *cudaBackend) MaxConcurrentLayers(srcWidth, height, outWidth int32) int32 {
	if !b.Available() || srcWidth <= 0 || height <= 0 || outWidth <= 0 {
		return 0
	}
	if b.maxConcurrentFn != nil {
		const channels = 3 // conservative: the registry only needs an upper bound
		return int32(C.gpu_call_max_concurrent(b.maxConcurrentFn, C.int32_t(srcWidth), C.int32_t(height), C.int32_t(outWidth), C.int32_t(channels)))
	}

	const nominalVRAMBytes = int64(2) << 30
	perLayer := int64(outWidth) * int64(height) * cudaScratchBytesPerLayer
	if perLayer <= 0 {
		return 0
	}
	n := nominalVRAMBytes / perLayer
	if n < 1 {
		return 1
	}
	if n > 1<<20 {
		return 1 << 20
	}
	return int32(n)
}

func (b *cudaBackend) recordError() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.lastErrorFn != nil {
		b.lastErrCode = int32(C.gpu_call_i32(b.lastErrorFn))
	} else {
		b.lastErrCode = -1
	}
}

func (b *cudaBackend) LastErrorCode() int32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastErrCode
}

func (b *cudaBackend) DeviceInfo() DeviceInfo {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.info
}
