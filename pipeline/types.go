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

// Package pipeline batches many encoded layers through decode, area
// statistics, scanline construction and PNG wrapping in one call, either
// with a flat per-layer worker pool (ProcessLayersBatch) or a three
// phase decode/scanline/compress pipeline that can hand the whole
// scanline phase to a GPU backend in one dispatch (ProcessLayersBatchPhased).
package pipeline

import (
	"errors"

	"github.com/layerpipe/core/internal/areastats"
	"github.com/layerpipe/core/internal/deflate"
	"github.com/layerpipe/core/internal/metrics"
)

// ErrInvalidArgument is returned for malformed batch requests: mismatched
// offset/length slices, non-positive geometry, or an unsupported channel
// count.
var ErrInvalidArgument = errors.New("pipeline: invalid argument")

// BatchRequest describes one call's worth of encoded layers sharing a
// common geometry, encryption key and PNG compression level.
type BatchRequest struct {
	InputBlob      []byte
	Offsets        []int32
	Lengths        []int32
	LayerIndexBase int32
	EncryptionKey  int32

	SrcWidth int32
	Height   int32
	OutWidth int32
	Channels int32

	XPixelSizeMM float64
	YPixelSizeMM float64

	PNGLevel deflate.Level

	// Threads overrides the worker count for this call only; <= 0 uses
	// the package-level default (see SetBatchThreads), falling back to
	// runtime.NumCPU().
	Threads int
}

// PhasedBatchRequest is a BatchRequest plus the phased pipeline's own
// knob: whether to attempt the GPU scanline mega-batch for phase 2.
type PhasedBatchRequest struct {
	BatchRequest
	UseGPUBatch bool
}

// BatchResult is every processed layer's PNG bytes, concatenated into
// one blob with per-layer (offset, length) slices, plus each layer's
// area statistics in input order.
type BatchResult struct {
	Blob    []byte
	Offsets []int32
	Lengths []int32
	Areas   []areastats.Stats
}

// Analytics is the per-thread timing and GPU-usage snapshot of the most
// recently completed batch call.
type Analytics = metrics.Analytics

func (r BatchRequest) validate() error {
	count := len(r.Offsets)
	if count == 0 || len(r.Lengths) != count {
		return ErrInvalidArgument
	}
	if r.SrcWidth <= 0 || r.Height <= 0 || r.OutWidth <= 0 {
		return ErrInvalidArgument
	}
	if r.Channels != 1 && r.Channels != 3 {
		return ErrInvalidArgument
	}
	if len(r.InputBlob) == 0 {
		return ErrInvalidArgument
	}
	return nil
}
