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
	"testing"

	"github.com/layerpipe/core/internal/deflate"
	"github.com/layerpipe/core/internal/scanline"
)

func TestRecompressIsIdempotentInPixelContent(t *testing.T) {
	grey := make([]byte, 20*10)
	for i := range grey {
		grey[i] = byte(i * 3)
	}
	lines, err := scanline.Build(grey, 20, 10, 20, 3)
	if err != nil {
		t.Fatalf("scanline.Build: %v", err)
	}
	original, err := Write(lines, 20, 10, 3, 0)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	for level := deflate.Level(0); level <= 9; level++ {
		recompressed, err := Recompress(original, level)
		if err != nil {
			t.Fatalf("level %d: Recompress: %v", level, err)
		}
		d, err := Parse(recompressed)
		if err != nil {
			t.Fatalf("level %d: Parse: %v", level, err)
		}
		got, err := deflate.Inflate(d.IDAT, len(lines))
		if err != nil {
			t.Fatalf("level %d: Inflate: %v", level, err)
		}
		if !bytes.Equal(got, lines) {
			t.Fatalf("level %d: recompressed scanlines differ from original", level)
		}
	}
}

func TestRecompressRejectsMalformedInput(t *testing.T) {
	if _, err := Recompress([]byte("not a png"), 6); err == nil {
		t.Fatal("expected error for malformed PNG")
	}
}

func TestParseToleratesMultipleIDATChunks(t *testing.T) {
	grey := make([]byte, 10*10)
	lines, err := scanline.Build(grey, 10, 10, 10, 1)
	if err != nil {
		t.Fatalf("scanline.Build: %v", err)
	}
	idat, err := deflate.Deflate(lines, 6)
	if err != nil {
		t.Fatalf("Deflate: %v", err)
	}

	mid := len(idat) / 2
	var out []byte
	out = append(out, signature[:]...)

	ihdr := make([]byte, 13)
	ihdr[8], ihdr[9] = 8, 0
	copy(ihdr[0:4], []byte{0, 0, 0, 10})
	copy(ihdr[4:8], []byte{0, 0, 0, 10})
	out = appendChunk(out, "IHDR", ihdr)
	out = appendChunk(out, "IDAT", idat[:mid])
	out = appendChunk(out, "IDAT", idat[mid:])
	out = appendChunk(out, "IEND", nil)

	d, err := Parse(out)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(d.IDAT) != len(idat) {
		t.Fatalf("concatenated IDAT length = %d, want %d", len(d.IDAT), len(idat))
	}
}
