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

static void* gpu_dlopen_opencl(void) {
	void* h = dlopen("libOpenCL.so.1", RTLD_LAZY | RTLD_LOCAL);
	if (h == NULL) {
		h = dlopen("libOpenCL.so", RTLD_LAZY | RTLD_LOCAL);
	}
	return h;
}

static int gpu_has_symbol(void* handle, const char* name) {
	if (handle == NULL) {
		return 0;
	}
	return dlsym(handle, name) != NULL;
}
*/
import "C"

import (
	"sync"
	"unsafe"
)

type openCLBackend struct {
	mu          sync.Mutex
	probed      bool
	available   bool
	lastErrCode int32
}

func newOpenCLBackend() *openCLBackend { return &openCLBackend{} }

func (b *openCLBackend) Code() Code { return CodeOpenCL }

func (b *openCLBackend) Available() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.probed {
		return b.available
	}
	b.probed = true
	handle := C.gpu_dlopen_opencl()
	if handle == nil {
		b.available = false
		return false
	}
	symbol := C.CString("clGetPlatformIDs")
	defer C.free(unsafe.Pointer(symbol))
	b.available = C.gpu_has_symbol(handle, symbol) != 0
	return b.available
}

// BuildScanlines reports failure unconditionally: this registry probes
// for OpenCL availability but does not carry an OpenCL kernel, so every
// call falls back to the CPU scanline builder.
func (b *openCLBackend) BuildScanlines(dst, grey []byte, srcWidth, height, outWidth, channels int32) bool {
	return false
}

func (b *openCLBackend) BuildScanlinesBatch(dst [][]byte, grey [][]byte, srcWidth, height, outWidth, channels int32) bool {
	return false
}

func (b *openCLBackend) MaxConcurrentLayers(srcWidth, height, outWidth int32) int32 {
	if !b.Available() {
		return 0
	}
	return 1
}

func (b *openCLBackend) LastErrorCode() int32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastErrCode
}

func (b *openCLBackend) DeviceInfo() DeviceInfo { return DeviceInfo{} }
