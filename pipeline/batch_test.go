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

package pipeline

import (
	"bytes"
	"context"
	"testing"

	"github.com/layerpipe/core/internal/deflate"
)

// encodeSolidRun builds one CTB-style RLE run of length n, all set to a
// solid (non-zero) pixel value, unencrypted.
func encodeSolidRun(n int32) []byte {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []byte{0x01}
	}
	if n < 128 {
		return []byte{0x81, byte(n)}
	}
	return []byte{0x81, 0x80 | byte(n>>8), byte(n)}
}

// encodeLayer builds a full-frame solid layer of pixelCount pixels.
func encodeLayer(pixelCount int32) []byte {
	var out []byte
	remaining := pixelCount
	for remaining > 0 {
		n := remaining
		if n > 0x3FFF {
			n = 0x3FFF
		}
		out = append(out, encodeSolidRun(n)...)
		remaining -= n
	}
	return out
}

func testRequest(layerCount int) BatchRequest {
	const width, height = 8, 4
	pixelCount := int32(width * height)

	var blob []byte
	offsets := make([]int32, layerCount)
	lengths := make([]int32, layerCount)
	for i := 0; i < layerCount; i++ {
		enc := encodeLayer(pixelCount)
		offsets[i] = int32(len(blob))
		lengths[i] = int32(len(enc))
		blob = append(blob, enc...)
	}

	return BatchRequest{
		InputBlob:    blob,
		Offsets:      offsets,
		Lengths:      lengths,
		SrcWidth:     width,
		Height:       height,
		OutWidth:     width,
		Channels:     1,
		XPixelSizeMM: 0.05,
		YPixelSizeMM: 0.05,
		PNGLevel:     deflate.Level(6),
		Threads:      2,
	}
}

func TestProcessLayersBatchProducesOnePNGPerLayer(t *testing.T) {
	req := testRequest(5)
	res, err := ProcessLayersBatch(context.Background(), req)
	if err != nil {
		t.Fatalf("ProcessLayersBatch: %v", err)
	}
	if len(res.Offsets) != 5 || len(res.Lengths) != 5 || len(res.Areas) != 5 {
		t.Fatalf("expected 5 layers of output, got %d/%d/%d", len(res.Offsets), len(res.Lengths), len(res.Areas))
	}
	for i := range res.Offsets {
		start, length := res.Offsets[i], res.Lengths[i]
		if length <= 0 {
			t.Fatalf("layer %d: zero-length output", i)
		}
		png := res.Blob[start : start+length]
		if !bytes.HasPrefix(png, []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}) {
			t.Fatalf("layer %d: output is not a PNG", i)
		}
		if res.Areas[i].AreaCount != 1 {
			t.Fatalf("layer %d: expected one solid island, got %d", i, res.Areas[i].AreaCount)
		}
	}
}

func TestProcessLayersBatchConcatenationIsContiguous(t *testing.T) {
	req := testRequest(4)
	res, err := ProcessLayersBatch(context.Background(), req)
	if err != nil {
		t.Fatalf("ProcessLayersBatch: %v", err)
	}
	for i := 1; i < len(res.Offsets); i++ {
		want := res.Offsets[i-1] + res.Lengths[i-1]
		if res.Offsets[i] != want {
			t.Fatalf("layer %d: offset %d is not contiguous with previous layer's end %d", i, res.Offsets[i], want)
		}
	}
	if int(res.Offsets[len(res.Offsets)-1]+res.Lengths[len(res.Lengths)-1]) != len(res.Blob) {
		t.Fatalf("final layer does not reach the end of the blob")
	}
}

func TestProcessLayersBatchRejectsMismatchedSlices(t *testing.T) {
	req := testRequest(3)
	req.Lengths = req.Lengths[:2]
	if _, err := ProcessLayersBatch(context.Background(), req); err != ErrInvalidArgument {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestProcessLayersBatchRejectsOutOfBoundsRange(t *testing.T) {
	req := testRequest(2)
	req.Lengths[0] = int32(len(req.InputBlob)) + 100
	if _, err := ProcessLayersBatch(context.Background(), req); err == nil {
		t.Fatalf("expected an out-of-bounds range error")
	}
}

func TestProcessLayersBatchSingleThreadMatchesMultiThread(t *testing.T) {
	req := testRequest(9)
	req.Threads = 1
	single, err := ProcessLayersBatch(context.Background(), req)
	if err != nil {
		t.Fatalf("single-threaded run: %v", err)
	}

	req.Threads = 4
	multi, err := ProcessLayersBatch(context.Background(), req)
	if err != nil {
		t.Fatalf("multi-threaded run: %v", err)
	}

	if !bytes.Equal(single.Blob, multi.Blob) {
		t.Fatalf("single- and multi-threaded runs produced different output")
	}
}

func TestResolveThreadsClampsToLayerCount(t *testing.T) {
	if got := resolveThreads(16, 3); got != 3 {
		t.Fatalf("resolveThreads(16, 3) = %d, want 3", got)
	}
	if got := resolveThreads(0, 5); got < 1 {
		t.Fatalf("resolveThreads(0, 5) = %d, want >= 1", got)
	}
}
