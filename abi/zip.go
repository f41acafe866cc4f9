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
	"github.com/layerpipe/core/zipstore"
)

//export zip_open
func zip_open(path *C.char, errOut *C.int32_t) C.uint64_t {
	w, err := zipstore.Create(C.GoString(path))
	if err != nil {
		setErr(errOut, errCodeExternalFailure)
		return 0
	}
	setErr(errOut, 0)
	return C.uint64_t(zipHandles.put(w))
}

//export zip_add_file
func zip_add_file(handle C.uint64_t, name *C.char, data *C.uint8_t, dataLen C.int32_t) C.int32_t {
	w, ok := zipHandles.get(uint64(handle))
	if !ok {
		return 0
	}
	if err := w.AddFile(C.GoString(name), cBytes(data, dataLen)); err != nil {
		return 0
	}
	return 1
}

//export zip_close
func zip_close(handle C.uint64_t) C.int32_t {
	w, ok := zipHandles.get(uint64(handle))
	if !ok {
		return 0
	}
	zipHandles.release(uint64(handle))
	if err := w.Close(); err != nil {
		return 0
	}
	return 1
}

//export zip_abort
func zip_abort(handle C.uint64_t) C.int32_t {
	w, ok := zipHandles.get(uint64(handle))
	if !ok {
		return 0
	}
	zipHandles.release(uint64(handle))
	if err := w.Abort(); err != nil {
		return 0
	}
	return 1
}
