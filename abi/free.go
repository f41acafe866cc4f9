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

import "unsafe"

//export bytes_len
func bytes_len(handle C.uint64_t) C.int32_t {
	v, ok := byteHandles.get(uint64(handle))
	if !ok {
		return -1
	}
	return C.int32_t(len(v))
}

//export copy_bytes_out
func copy_bytes_out(handle C.uint64_t, dst *C.uint8_t, dstLen C.int32_t) C.int32_t {
	v, ok := byteHandles.get(uint64(handle))
	if !ok || dst == nil || int(dstLen) < len(v) {
		return 0
	}
	copy(unsafe.Slice((*byte)(unsafe.Pointer(dst)), int(dstLen)), v)
	return 1
}

//export free_bytes
func free_bytes(handle C.uint64_t) {
	byteHandles.release(uint64(handle))
}

//export int32_array_len
func int32_array_len(handle C.uint64_t) C.int32_t {
	v, ok := int32Handles.get(uint64(handle))
	if !ok {
		return -1
	}
	return C.int32_t(len(v))
}

//export copy_int32_array_out
func copy_int32_array_out(handle C.uint64_t, dst *C.int32_t, dstLen C.int32_t) C.int32_t {
	v, ok := int32Handles.get(uint64(handle))
	if !ok || dst == nil || int(dstLen) < len(v) {
		return 0
	}
	out := unsafe.Slice((*int32)(unsafe.Pointer(dst)), int(dstLen))
	copy(out, v)
	return 1
}

//export free_int32_array
func free_int32_array(handle C.uint64_t) {
	int32Handles.release(uint64(handle))
}

// areaFieldsPerEntry mirrors compute_area_stats' 7-double layout:
// total area, largest, smallest, min X/Y, max X/Y.
const areaFieldsPerEntry = 7

//export area_array_len
func area_array_len(handle C.uint64_t) C.int32_t {
	v, ok := areaHandles.get(uint64(handle))
	if !ok {
		return -1
	}
	return C.int32_t(len(v))
}

//export copy_area_array_out
func copy_area_array_out(handle C.uint64_t, dst *C.double, dstLen C.int32_t) C.int32_t {
	v, ok := areaHandles.get(uint64(handle))
	if !ok || dst == nil || int(dstLen) < len(v)*areaFieldsPerEntry {
		return 0
	}
	out := unsafe.Slice((*float64)(unsafe.Pointer(dst)), int(dstLen))
	for i, s := range v {
		base := i * areaFieldsPerEntry
		out[base+0] = s.TotalSolidArea
		out[base+1] = s.LargestArea
		out[base+2] = s.SmallestArea
		out[base+3] = float64(s.MinX)
		out[base+4] = float64(s.MinY)
		out[base+5] = float64(s.MaxX)
		out[base+6] = float64(s.MaxY)
	}
	return 1
}

//export free_area_array
func free_area_array(handle C.uint64_t) {
	areaHandles.release(uint64(handle))
}

//export free_zip_handle
func free_zip_handle(handle C.uint64_t) {
	zipHandles.release(uint64(handle))
}
