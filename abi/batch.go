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
	"errors"
	"unsafe"

	"github.com/layerpipe/core/internal/deflate"
	"github.com/layerpipe/core/pipeline"
)

// batchErrCode distinguishes a rejected request from a failure inside
// the batch (deflate, GPU, out-of-range layer data).
func batchErrCode(err error) int32 {
	if errors.Is(err, pipeline.ErrInvalidArgument) {
		return errCodeInvalidArgument
	}
	return errCodeExternalFailure
}

func cInt32s(p *C.int32_t, n C.int32_t) []int32 {
	if p == nil || n <= 0 {
		return nil
	}
	out := make([]int32, int(n))
	src := unsafe.Slice((*int32)(unsafe.Pointer(p)), int(n))
	copy(out, src)
	return out
}

func buildRequest(inputBlob *C.uint8_t, inputBlobLen C.int32_t, offsets, lengths *C.int32_t, count, layerIndexBase, encryptionKey, srcWidth, height, outWidth, channels C.int32_t, xPixelSizeMM, yPixelSizeMM C.double, level, threads C.int32_t) pipeline.BatchRequest {
	return pipeline.BatchRequest{
		InputBlob:      cBytes(inputBlob, inputBlobLen),
		Offsets:        cInt32s(offsets, count),
		Lengths:        cInt32s(lengths, count),
		LayerIndexBase: int32(layerIndexBase),
		EncryptionKey:  int32(encryptionKey),
		SrcWidth:       int32(srcWidth),
		Height:         int32(height),
		OutWidth:       int32(outWidth),
		Channels:       int32(channels),
		XPixelSizeMM:   float64(xPixelSizeMM),
		YPixelSizeMM:   float64(yPixelSizeMM),
		PNGLevel:       deflate.Level(level).Clamp(),
		Threads:        int(threads),
	}
}

func publishBatchResult(res pipeline.BatchResult, outOffsetsHandle, outLengthsHandle, outAreasHandle *C.uint64_t) C.uint64_t {
	if outOffsetsHandle != nil {
		*outOffsetsHandle = C.uint64_t(int32Handles.put(res.Offsets))
	}
	if outLengthsHandle != nil {
		*outLengthsHandle = C.uint64_t(int32Handles.put(res.Lengths))
	}
	if outAreasHandle != nil {
		*outAreasHandle = C.uint64_t(areaHandles.put(res.Areas))
	}
	return C.uint64_t(byteHandles.put(res.Blob))
}

//export process_layers_batch
func process_layers_batch(inputBlob *C.uint8_t, inputBlobLen C.int32_t, offsets, lengths *C.int32_t, count, layerIndexBase, encryptionKey, srcWidth, height, outWidth, channels C.int32_t, xPixelSizeMM, yPixelSizeMM C.double, level, threads C.int32_t, outOffsetsHandle, outLengthsHandle, outAreasHandle *C.uint64_t, errOut *C.int32_t) C.uint64_t {
	req := buildRequest(inputBlob, inputBlobLen, offsets, lengths, count, layerIndexBase, encryptionKey, srcWidth, height, outWidth, channels, xPixelSizeMM, yPixelSizeMM, level, threads)
	res, err := pipeline.ProcessLayersBatch(context.Background(), req)
	if err != nil {
		setErr(errOut, batchErrCode(err))
		return 0
	}
	setErr(errOut, 0)
	return publishBatchResult(res, outOffsetsHandle, outLengthsHandle, outAreasHandle)
}

//export process_layers_batch_phased
func process_layers_batch_phased(inputBlob *C.uint8_t, inputBlobLen C.int32_t, offsets, lengths *C.int32_t, count, layerIndexBase, encryptionKey, srcWidth, height, outWidth, channels C.int32_t, xPixelSizeMM, yPixelSizeMM C.double, level, threads C.int32_t, useGPUBatch C.int32_t, outOffsetsHandle, outLengthsHandle, outAreasHandle *C.uint64_t, errOut *C.int32_t) C.uint64_t {
	req := pipeline.PhasedBatchRequest{
		BatchRequest: buildRequest(inputBlob, inputBlobLen, offsets, lengths, count, layerIndexBase, encryptionKey, srcWidth, height, outWidth, channels, xPixelSizeMM, yPixelSizeMM, level, threads),
		UseGPUBatch:  useGPUBatch != 0,
	}
	res, err := pipeline.ProcessLayersBatchPhased(context.Background(), req)
	if err != nil {
		setErr(errOut, batchErrCode(err))
		return 0
	}
	setErr(errOut, 0)
	return publishBatchResult(res, outOffsetsHandle, outLengthsHandle, outAreasHandle)
}

//export set_batch_threads
func set_batch_threads(n C.int32_t) {
	pipeline.SetBatchThreads(int(n))
}

//export set_batch_analytics
func set_batch_analytics(enabled C.int32_t) {
	pipeline.SetBatchAnalyticsEnabled(enabled != 0)
}

//export last_batch_thread_count
func last_batch_thread_count() C.int32_t {
	return C.int32_t(pipeline.LastBatchAnalytics().ThreadCount)
}

//export last_batch_backend
func last_batch_backend() C.int32_t {
	return C.int32_t(pipeline.LastBatchAnalytics().Backend)
}

//export last_batch_gpu_attempts
func last_batch_gpu_attempts() C.int32_t {
	return C.int32_t(pipeline.LastBatchAnalytics().GPUAttempts)
}

//export last_batch_gpu_successes
func last_batch_gpu_successes() C.int32_t {
	return C.int32_t(pipeline.LastBatchAnalytics().GPUSuccesses)
}

//export last_batch_gpu_fallbacks
func last_batch_gpu_fallbacks() C.int32_t {
	return C.int32_t(pipeline.LastBatchAnalytics().GPUFallbacks)
}

//export last_batch_gpu_error_code
func last_batch_gpu_error_code() C.int32_t {
	return C.int32_t(pipeline.LastBatchAnalytics().LastGPUErrorCode)
}

//export last_batch_phased_mega_batch_ok
func last_batch_phased_mega_batch_ok() C.int32_t {
	if pipeline.LastBatchAnalytics().PhasedMegaBatchOK {
		return 1
	}
	return 0
}
