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

// Package deflate provides the system DEFLATE/zlib provider the PNG
// writer and recompressor depend on. The cgo-enabled build wraps the
// system zlib, and the no-cgo build falls back to the standard library's
// compress/zlib so the module still builds and runs without a C
// toolchain.
package deflate

import "errors"

// ErrUnavailable is returned by the cgo (system zlib) build when Deflate
// or Inflate is given empty input. The no-cgo build never returns it.
var ErrUnavailable = errors.New("deflate: provider unavailable")

// Level is a zlib compression level in its native 0..9 scale, clamped by
// Clamp rather than mapped through an abstract fastest/smallest scale.
type Level int32

// Clamp restricts l to the valid zlib compression level range.
func (l Level) Clamp() Level {
	switch {
	case l < 0:
		return 0
	case l > 9:
		return 9
	default:
		return l
	}
}

// Deflate compresses src at the given level (0..9, clamped) and returns a
// complete zlib stream (2-byte header, DEFLATE blocks, Adler-32 trailer).
func Deflate(src []byte, level Level) ([]byte, error) {
	return deflateImpl(src, level.Clamp())
}

// Inflate decompresses a zlib stream produced by Deflate (or any
// conforming zlib encoder). sizeHint, when positive, pre-sizes the output
// buffer to avoid reallocation; it need not be exact.
func Inflate(src []byte, sizeHint int) ([]byte, error) {
	return inflateImpl(src, sizeHint)
}
