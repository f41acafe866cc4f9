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

// Package pngcodec builds and recompresses the strict PNG subset this
// pipeline emits: 8-bit depth, grey (colour type 0) or RGB (colour type
// 2), a single IDAT chunk on write (though reading tolerates several).
package pngcodec

import (
	"encoding/binary"
	"errors"
	"hash/crc32"

	"github.com/layerpipe/core/internal/deflate"
)

// ErrInvalidArgument is returned for bad dimensions or an unsupported
// channel count.
var ErrInvalidArgument = errors.New("pngcodec: invalid argument")

var signature = [8]byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

func colorTypeForChannels(channels int32) (byte, error) {
	switch channels {
	case 1:
		return 0, nil
	case 3:
		return 2, nil
	default:
		return 0, ErrInvalidArgument
	}
}

// Write deflates scanlines at the given zlib level and wraps the result as
// a complete PNG: signature, IHDR, one IDAT, IEND.
func Write(scanlines []byte, width, height, channels int32, level deflate.Level) ([]byte, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidArgument
	}
	if _, err := colorTypeForChannels(channels); err != nil {
		return nil, err
	}
	idat, err := deflate.Deflate(scanlines, level)
	if err != nil {
		return nil, err
	}
	return Wrap(idat, width, height, channels)
}

// Wrap assembles a complete PNG container around already-deflated IDAT
// bytes.
func Wrap(idat []byte, width, height, channels int32) ([]byte, error) {
	if width <= 0 || height <= 0 || len(idat) == 0 {
		return nil, ErrInvalidArgument
	}
	colorType, err := colorTypeForChannels(channels)
	if err != nil {
		return nil, err
	}

	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:4], uint32(width))
	binary.BigEndian.PutUint32(ihdr[4:8], uint32(height))
	ihdr[8] = 8 // bit depth
	ihdr[9] = colorType
	ihdr[10] = 0 // compression method
	ihdr[11] = 0 // filter method
	ihdr[12] = 0 // interlace method

	out := make([]byte, 0, 8+chunkLen(13)+chunkLen(len(idat))+chunkLen(0))
	out = append(out, signature[:]...)
	out = appendChunk(out, "IHDR", ihdr)
	out = appendChunk(out, "IDAT", idat)
	out = appendChunk(out, "IEND", nil)
	return out, nil
}

func chunkLen(dataLen int) int {
	return 4 + 4 + dataLen + 4
}

func appendChunk(dst []byte, chunkType string, data []byte) []byte {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(data)))
	dst = append(dst, lenBuf[:]...)

	typeStart := len(dst)
	dst = append(dst, chunkType...)
	dst = append(dst, data...)

	crc := crc32.ChecksumIEEE(dst[typeStart:])
	var crcBuf [4]byte
	binary.BigEndian.PutUint32(crcBuf[:], crc)
	return append(dst, crcBuf[:]...)
}
