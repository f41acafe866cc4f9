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

// Package rle decodes CTB-family run-length-encoded layer bitmaps, with
// optional per-layer stream-cipher decryption.
//
// The grammar and cipher are NanoDLP/CTB-compatible: a run's length is
// encoded in 1, 2, 3 or 4 bytes depending on the top bits of a stride
// descriptor byte, and decryption (when an encryption key is set) XORs
// each input byte against an evolving 32-bit key derived from the key and
// the layer's index.
package rle

import "errors"

// ErrInvalidArgument is returned when the encoded bytes are empty or the
// pixel count is not positive.
var ErrInvalidArgument = errors.New("rle: invalid argument")

// cipher reproduces the CTB per-layer byte-stream XOR cipher. Each read
// advances the key byte index; every 4th read rolls the 32-bit key forward
// by init.
type cipher struct {
	enabled bool
	key     uint32
	init    uint32
	index   int
}

func newCipher(encryptionKey, layerIndex int32) cipher {
	if encryptionKey == 0 {
		return cipher{}
	}
	init := uint32(encryptionKey)*0x2D83CDAC + 0xD8A83423
	key := uint32(layerIndex)*0x1E1530CD + 0xEC3D47CD
	key *= init
	return cipher{enabled: true, key: key, init: init}
}

func (c *cipher) apply(b byte) byte {
	if !c.enabled {
		return b
	}
	k := byte(c.key >> (8 * uint(c.index)))
	b ^= k
	c.index++
	if c.index&3 == 0 {
		c.key += c.init
		c.index = 0
	}
	return b
}

// reader pulls decrypted bytes from the encoded stream, tracking whether
// the stream has been exhausted. Running out of input is not an error:
// the remainder of the output buffer stays zero-filled, keeping decode
// results deterministic for truncated data.
type reader struct {
	data   []byte
	pos    int
	cipher cipher
}

func (r *reader) readByte() (byte, bool) {
	if r.pos >= len(r.data) {
		return 0, false
	}
	b := r.data[r.pos]
	r.pos++
	return r.cipher.apply(b), true
}

// Decode expands encoded CTB run-length data into a greyscale pixel buffer
// of exactly pixelCount bytes. When encryptionKey is non-zero, the stream
// is decrypted per-byte using layerIndex and encryptionKey before the RLE
// grammar is applied.
//
// The output is deterministic given (data, layerIndex, encryptionKey,
// pixelCount): decoding never fails on truncated input, it simply leaves
// the remaining pixels at zero. Decode only reports an error for malformed
// arguments (nil data, non-positive pixelCount).
func Decode(data []byte, layerIndex, encryptionKey int32, pixelCount int32) ([]byte, error) {
	if len(data) == 0 || pixelCount <= 0 {
		return nil, ErrInvalidArgument
	}

	out := make([]byte, pixelCount)
	r := reader{data: data, cipher: newCipher(encryptionKey, layerIndex)}

	pixel := int32(0)
runs:
	for pixel < pixelCount {
		code, ok := r.readByte()
		if !ok {
			break
		}

		length := int32(1)
		if code&0x80 != 0 {
			code &= 0x7F

			slen, ok := r.readByte()
			if !ok {
				break runs
			}

			truncated := false
			switch {
			case slen&0x80 == 0:
				length = int32(slen)
			case slen&0xC0 == 0x80:
				b0, ok := r.readByte()
				truncated = !ok
				length = (int32(slen&0x3F) << 8) | int32(b0)
			case slen&0xE0 == 0xC0:
				b0, ok0 := r.readByte()
				b1, ok1 := r.readByte()
				truncated = !ok0 || !ok1
				length = (int32(slen&0x1F) << 16) | (int32(b0) << 8) | int32(b1)
			case slen&0xF0 == 0xE0:
				b0, ok0 := r.readByte()
				b1, ok1 := r.readByte()
				b2, ok2 := r.readByte()
				truncated = !ok0 || !ok1 || !ok2
				length = (int32(slen&0x0F) << 24) | (int32(b0) << 16) | (int32(b1) << 8) | int32(b2)
			default:
				length = 1
			}
			if truncated {
				break runs
			}
		}

		value := byte(0)
		if code != 0 {
			value = (code << 1) | 1
		}

		end := pixel + length
		if end > pixelCount {
			end = pixelCount
		}
		if value != 0 {
			for i := pixel; i < end; i++ {
				out[i] = value
			}
		}
		pixel = end
	}

	return out, nil
}
