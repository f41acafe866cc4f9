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

package pngcodec

import (
	"bytes"
	"encoding/binary"
	"errors"

	"github.com/layerpipe/core/internal/deflate"
)

// ErrMalformedPNG is returned when the input doesn't parse as the
// strict PNG subset this package understands: a valid signature, an
// IHDR with 8-bit depth and a supported colour type, and at least one
// IDAT chunk.
var ErrMalformedPNG = errors.New("pngcodec: malformed PNG")

// Decoded holds the parsed IHDR fields and the concatenated,
// still-compressed IDAT payload of a parsed PNG.
type Decoded struct {
	Width     int32
	Height    int32
	Channels  int32
	IHDR      [13]byte
	IDAT      []byte
}

func channelsForColorType(colorType byte) (int32, error) {
	switch colorType {
	case 0:
		return 1, nil
	case 2:
		return 3, nil
	case 4:
		return 2, nil
	case 6:
		return 4, nil
	default:
		return 0, ErrMalformedPNG
	}
}

// Parse walks a PNG's chunks, validating the signature, concatenating
// every IDAT payload (multiple IDATs are tolerated on read even though
// this package never writes more than one), and locating IHDR. Only
// 8-bit depth is accepted; colour type maps to 1, 2, 3 or 4 channels.
func Parse(png []byte) (Decoded, error) {
	if len(png) < 8+25 || !bytes.Equal(png[:8], signature[:]) {
		return Decoded{}, ErrMalformedPNG
	}

	var d Decoded
	var haveIHDR bool
	var idat []byte

	offset := 8
	for offset+8 <= len(png) {
		length := int(binary.BigEndian.Uint32(png[offset : offset+4]))
		dataStart := offset + 8
		dataEnd := dataStart + length
		crcEnd := dataEnd + 4
		if length < 0 || dataEnd < dataStart || crcEnd > len(png) {
			return Decoded{}, ErrMalformedPNG
		}

		chunkType := string(png[offset+4 : offset+8])
		data := png[dataStart:dataEnd]

		switch chunkType {
		case "IHDR":
			if length < 13 {
				return Decoded{}, ErrMalformedPNG
			}
			copy(d.IHDR[:], data[:13])
			d.Width = int32(binary.BigEndian.Uint32(data[0:4]))
			d.Height = int32(binary.BigEndian.Uint32(data[4:8]))
			haveIHDR = true
		case "IDAT":
			idat = append(idat, data...)
		case "IEND":
			offset = crcEnd
			goto done
		}

		offset = crcEnd
	}
done:

	if !haveIHDR || len(idat) == 0 || d.Width <= 0 || d.Height <= 0 {
		return Decoded{}, ErrMalformedPNG
	}
	if d.IHDR[8] != 8 {
		return Decoded{}, ErrMalformedPNG
	}
	channels, err := channelsForColorType(d.IHDR[9])
	if err != nil {
		return Decoded{}, err
	}
	d.Channels = channels
	d.IDAT = idat
	return d, nil
}

// Recompress inflates a PNG's IDAT payload, re-deflates it at level
// (0..9, clamped), and re-emits a PNG with a single IDAT and the
// original IHDR bytes verbatim. Decoding the result yields the same
// pixels as decoding the input: only the compressed representation
// changes.
func Recompress(png []byte, level deflate.Level) ([]byte, error) {
	d, err := Parse(png)
	if err != nil {
		return nil, err
	}

	expectedLen := int(d.Height) * (1 + int(d.Width)*int(d.Channels))
	scanlines, err := deflate.Inflate(d.IDAT, expectedLen)
	if err != nil {
		return nil, err
	}
	if len(scanlines) != expectedLen {
		return nil, ErrMalformedPNG
	}

	idat, err := deflate.Deflate(scanlines, level.Clamp())
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, 8+chunkLen(13)+chunkLen(len(idat))+chunkLen(0))
	out = append(out, signature[:]...)
	out = appendChunk(out, "IHDR", d.IHDR[:])
	out = appendChunk(out, "IDAT", idat)
	out = appendChunk(out, "IEND", nil)
	return out, nil
}
