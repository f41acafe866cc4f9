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

//go:build cgo

package abi

/*
#include <stdint.h>
*/
import "C"

import (
	"github.com/layerpipe/core/internal/gpu"
	"github.com/layerpipe/core/internal/threadpriority"
)

func boolToC(b bool) C.int32_t {
	if b {
		return 1
	}
	return 0
}

//export gpu_set_enabled
func gpu_set_enabled(enabled C.int32_t) {
	gpu.SetEnabled(enabled != 0)
}

//export gpu_set_preference
func gpu_set_preference(code C.int32_t) {
	gpu.SetPreference(gpu.Code(code))
}

//export gpu_available
func gpu_available(code C.int32_t) C.int32_t {
	return boolToC(gpu.Available(gpu.Code(code)))
}

//export gpu_active
func gpu_active() C.int32_t {
	return boolToC(gpu.Active())
}

//export gpu_backend
func gpu_backend() C.int32_t {
	return C.int32_t(gpu.ActiveBackend())
}

//export gpu_device_vram_bytes
func gpu_device_vram_bytes() C.int64_t {
	return C.int64_t(gpu.ActiveDeviceInfo().VRAMBytes)
}

//export gpu_device_compute_capability
func gpu_device_compute_capability() C.int32_t {
	return C.int32_t(gpu.ActiveDeviceInfo().ComputeCapability)
}

//export gpu_device_multiprocessor_count
func gpu_device_multiprocessor_count() C.int32_t {
	return C.int32_t(gpu.ActiveDeviceInfo().MultiprocessorCount)
}

//export gpu_device_has_tensor_cores
func gpu_device_has_tensor_cores() C.int32_t {
	return boolToC(gpu.ActiveDeviceInfo().HasTensorCores)
}

//export set_thread_background_priority
func set_thread_background_priority(background C.int32_t) C.int32_t {
	return boolToC(threadpriority.SetBackground(background != 0))
}
