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

package deflate

/*
#cgo pkg-config: zlib
#include "zlib.h"
#include <stdlib.h>

static int deflate_compress2(Bytef* dst, uLong* dst_len, const Bytef* src, uLong src_len, int level) {
	return compress2(dst, dst_len, src, src_len, level);
}

static int deflate_uncompress(Bytef* dst, uLong* dst_len, const Bytef* src, uLong src_len) {
	return uncompress(dst, dst_len, src, src_len);
}
*/
import "C"

import (
	"fmt"
	"unsafe"
)

const cgoEnabled = true

func zlibErr(code C.int) error {
	return fmt.Errorf("deflate: zlib error %d", int(code))
}

func deflateImpl(src []byte, level Level) ([]byte, error) {
	if len(src) == 0 {
		return nil, ErrUnavailable
	}
	bound := C.compressBound(C.uLong(len(src)))
	dst := make([]byte, int(bound))

	dstLen := C.uLong(bound)
	ret := C.deflate_compress2(
		(*C.Bytef)(unsafe.Pointer(&dst[0])), &dstLen,
		(*C.Bytef)(unsafe.Pointer(&src[0])), C.uLong(len(src)),
		C.int(level),
	)
	if ret != 0 {
		return nil, zlibErr(ret)
	}
	return dst[:int(dstLen)], nil
}

func inflateImpl(src []byte, sizeHint int) ([]byte, error) {
	if len(src) == 0 {
		return nil, ErrUnavailable
	}
	if sizeHint <= 0 {
		sizeHint = len(src) * 4
	}

	dst := make([]byte, sizeHint)
	for attempt := 0; attempt < 8; attempt++ {
		dstLen := C.uLong(len(dst))
		ret := C.deflate_uncompress(
			(*C.Bytef)(unsafe.Pointer(&dst[0])), &dstLen,
			(*C.Bytef)(unsafe.Pointer(&src[0])), C.uLong(len(src)),
		)
		if ret == 0 {
			return dst[:int(dstLen)], nil
		}
		const zBufError = -5
		if ret != zBufError {
			return nil, zlibErr(ret)
		}
		dst = make([]byte, len(dst)*2)
	}
	return nil, fmt.Errorf("deflate: output buffer did not converge")
}
