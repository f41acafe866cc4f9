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
	"context"
	"unsafe"

	"github.com/layerpipe/core/internal/areastats"
	"github.com/layerpipe/core/internal/deflate"
	"github.com/layerpipe/core/internal/pngcodec"
	"github.com/layerpipe/core/internal/rle"
	"github.com/layerpipe/core/internal/scanline"
)

func cBytes(p *C.uint8_t, n C.int32_t) []byte {
	if p == nil || n <= 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(p)), int(n))
}

func setErr(errOut *C.int32_t, code int32) {
	if errOut != nil {
		*errOut = C.int32_t(code)
	}
}

//export decode_layer
func decode_layer(data *C.uint8_t, dataLen C.int32_t, layerIndex, encryptionKey, pixelCount C.int32_t, errOut *C.int32_t) C.uint64_t {
	pixels, err := rle.Decode(cBytes(data, dataLen), int32(layerIndex), int32(encryptionKey), int32(pixelCount))
	if err != nil {
		setErr(errOut, errCodeInvalidArgument)
		return 0
	}
	setErr(errOut, 0)
	return C.uint64_t(byteHandles.put(pixels))
}

//export compute_area_stats
func compute_area_stats(grey *C.uint8_t, greyLen C.int32_t, width, height C.int32_t, xPixelSizeMM, yPixelSizeMM C.double, out *C.double, errOut *C.int32_t) C.int32_t {
	stats, err := areastats.Compute(cBytes(grey, greyLen), int32(width), int32(height), float64(xPixelSizeMM), float64(yPixelSizeMM))
	if err != nil {
		setErr(errOut, errCodeInvalidArgument)
		return 0
	}
	if out != nil {
		fields := unsafe.Slice(out, 7)
		fields[0] = C.double(stats.TotalSolidArea)
		fields[1] = C.double(stats.LargestArea)
		fields[2] = C.double(stats.SmallestArea)
		fields[3] = C.double(stats.MinX)
		fields[4] = C.double(stats.MinY)
		fields[5] = C.double(stats.MaxX)
		fields[6] = C.double(stats.MaxY)
	}
	setErr(errOut, 0)
	return C.int32_t(stats.AreaCount)
}

//export build_scanlines
func build_scanlines(grey *C.uint8_t, greyLen C.int32_t, srcWidth, height, outWidth, channels C.int32_t, errOut *C.int32_t) C.uint64_t {
	out, err := scanline.Build(cBytes(grey, greyLen), int32(srcWidth), int32(height), int32(outWidth), int32(channels))
	if err != nil {
		setErr(errOut, errCodeInvalidArgument)
		return 0
	}
	setErr(errOut, 0)
	return C.uint64_t(byteHandles.put(out))
}

//export decode_and_build_scanlines
func decode_and_build_scanlines(data *C.uint8_t, dataLen, layerIndex, encryptionKey, srcWidth, height, outWidth, channels C.int32_t, errOut *C.int32_t) C.uint64_t {
	pixels, err := rle.Decode(cBytes(data, dataLen), int32(layerIndex), int32(encryptionKey), int32(srcWidth)*int32(height))
	if err != nil {
		setErr(errOut, errCodeInvalidArgument)
		return 0
	}
	out, err := scanline.Build(pixels, int32(srcWidth), int32(height), int32(outWidth), int32(channels))
	if err != nil {
		setErr(errOut, errCodeInvalidArgument)
		return 0
	}
	setErr(errOut, 0)
	return C.uint64_t(byteHandles.put(out))
}

//export decode_area_and_build_scanlines
func decode_area_and_build_scanlines(data *C.uint8_t, dataLen, layerIndex, encryptionKey, srcWidth, height, outWidth, channels C.int32_t, xPixelSizeMM, yPixelSizeMM C.double, areaOut *C.double, areaCountOut *C.int32_t, errOut *C.int32_t) C.uint64_t {
	pixels, err := rle.Decode(cBytes(data, dataLen), int32(layerIndex), int32(encryptionKey), int32(srcWidth)*int32(height))
	if err != nil {
		setErr(errOut, errCodeInvalidArgument)
		return 0
	}
	stats, err := areastats.Compute(pixels, int32(srcWidth), int32(height), float64(xPixelSizeMM), float64(yPixelSizeMM))
	if err != nil {
		setErr(errOut, errCodeInvalidArgument)
		return 0
	}
	out, err := scanline.Build(pixels, int32(srcWidth), int32(height), int32(outWidth), int32(channels))
	if err != nil {
		setErr(errOut, errCodeInvalidArgument)
		return 0
	}
	if areaOut != nil {
		fields := unsafe.Slice(areaOut, 7)
		fields[0] = C.double(stats.TotalSolidArea)
		fields[1] = C.double(stats.LargestArea)
		fields[2] = C.double(stats.SmallestArea)
		fields[3] = C.double(stats.MinX)
		fields[4] = C.double(stats.MinY)
		fields[5] = C.double(stats.MaxX)
		fields[6] = C.double(stats.MaxY)
	}
	if areaCountOut != nil {
		*areaCountOut = C.int32_t(stats.AreaCount)
	}
	setErr(errOut, 0)
	return C.uint64_t(byteHandles.put(out))
}

//export recompress_png_idat
func recompress_png_idat(png *C.uint8_t, pngLen, level C.int32_t, errOut *C.int32_t) C.uint64_t {
	out, err := pngcodec.Recompress(cBytes(png, pngLen), deflate.Level(level).Clamp())
	if err != nil {
		setErr(errOut, errCodeInvalidArgument)
		return 0
	}
	setErr(errOut, 0)
	return C.uint64_t(byteHandles.put(out))
}

//export recompress_batch
func recompress_batch(inputBlob *C.uint8_t, inputBlobLen C.int32_t, offsets, lengths *C.int32_t, count, level, threads C.int32_t, outOffsetsHandle, outLengthsHandle *C.uint64_t, errOut *C.int32_t) C.uint64_t {
	if count <= 0 {
		setErr(errOut, errCodeInvalidArgument)
		return 0
	}
	offsSlice := unsafe.Slice(offsets, int(count))
	lensSlice := unsafe.Slice(lengths, int(count))

	items := make([]pngcodec.BatchItem, count)
	for i := range items {
		items[i] = pngcodec.BatchItem{Offset: int32(offsSlice[i]), Length: int32(lensSlice[i])}
	}

	results, err := pngcodec.RecompressBatch(context.Background(), cBytes(inputBlob, inputBlobLen), items, deflate.Level(level).Clamp(), int(threads))
	if err != nil {
		setErr(errOut, errCodeExternalFailure)
		return 0
	}

	var blob []byte
	outOffs := make([]int32, len(results))
	outLens := make([]int32, len(results))
	for i, r := range results {
		outOffs[i] = int32(len(blob))
		outLens[i] = int32(len(r))
		blob = append(blob, r...)
	}

	if outOffsetsHandle != nil {
		*outOffsetsHandle = C.uint64_t(int32Handles.put(outOffs))
	}
	if outLengthsHandle != nil {
		*outLengthsHandle = C.uint64_t(int32Handles.put(outLens))
	}

	setErr(errOut, 0)
	return C.uint64_t(byteHandles.put(blob))
}

//export set_recompress_threads
func set_recompress_threads(threads C.int32_t) {
	pngcodec.SetThreads(int(threads))
}
