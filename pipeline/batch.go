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
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/layerpipe/core/internal/areastats"
	"github.com/layerpipe/core/internal/deflate"
	"github.com/layerpipe/core/internal/metrics"
	"github.com/layerpipe/core/internal/pngcodec"
	"github.com/layerpipe/core/internal/rle"
)

// ProcessLayersBatch decodes, measures and PNG-encodes every layer in
// req with a flat pool of workers, each claiming a chunk of claimChunk
// indices at a time from a shared cursor. GPU acceleration is always
// permitted for the scanline phase regardless of caller intent, unlike
// ProcessLayersBatchPhased's explicit UseGPUBatch flag.
func ProcessLayersBatch(ctx context.Context, req BatchRequest) (BatchResult, error) {
	if err := req.validate(); err != nil {
		return BatchResult{}, err
	}

	count := len(req.Offsets)
	threads := resolveThreads(req.Threads, count)
	rec := metrics.NewRecorder(threads, analyticsOn.Load())

	outputs := make([][]byte, count)
	areas := make([]areastats.Stats, count)

	var next atomic.Int32
	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < threads; w++ {
		worker := w
		g.Go(func() error {
			for {
				if gctx.Err() != nil {
					return nil
				}
				start := int(next.Add(claimChunk)) - claimChunk
				if start >= count {
					return nil
				}
				end := start + claimChunk
				if end > count {
					end = count
				}
				for i := start; i < end; i++ {
					if err := processOneLayer(req, i, worker, rec, outputs, areas); err != nil {
						return err
					}
				}
			}
		})
	}
	if err := g.Wait(); err != nil {
		return BatchResult{}, err
	}

	blob, offs, lens, err := concatenateOutputs(outputs)
	if err != nil {
		return BatchResult{}, err
	}
	rec.Snapshot()

	return BatchResult{Blob: blob, Offsets: offs, Lengths: lens, Areas: areas}, nil
}

func processOneLayer(req BatchRequest, i, worker int, rec *metrics.Recorder, outputs [][]byte, areas []areastats.Stats) error {
	off, length := req.Offsets[i], req.Lengths[i]
	if off < 0 || length <= 0 || int(off)+int(length) > len(req.InputBlob) {
		return fmt.Errorf("pipeline: layer %d input range out of bounds", i)
	}

	pixelCount := req.SrcWidth * req.Height

	t0 := time.Now()
	pixels, err := rle.Decode(req.InputBlob[off:off+length], req.LayerIndexBase+int32(i), req.EncryptionKey, pixelCount)
	if err != nil {
		return fmt.Errorf("pipeline: layer %d decode: %w", i, err)
	}
	stats, err := areastats.Compute(pixels, req.SrcWidth, req.Height, req.XPixelSizeMM, req.YPixelSizeMM)
	if err != nil {
		return fmt.Errorf("pipeline: layer %d area stats: %w", i, err)
	}
	areas[i] = stats
	rec.AddDecode(worker, time.Since(t0).Nanoseconds())

	t0 = time.Now()
	scanlines, err := buildScanlinesAuto(pixels, req.SrcWidth, req.Height, req.OutWidth, req.Channels, true, rec)
	if err != nil {
		return fmt.Errorf("pipeline: layer %d scanlines: %w", i, err)
	}
	rec.AddScanline(worker, time.Since(t0).Nanoseconds())

	t0 = time.Now()
	idat, err := deflate.Deflate(scanlines, req.PNGLevel.Clamp())
	if err != nil {
		return fmt.Errorf("pipeline: layer %d compress: %w", i, err)
	}
	rec.AddCompress(worker, time.Since(t0).Nanoseconds())

	t0 = time.Now()
	png, err := pngcodec.Wrap(idat, req.OutWidth, req.Height, req.Channels)
	if err != nil {
		return fmt.Errorf("pipeline: layer %d png: %w", i, err)
	}
	rec.AddPNG(worker, time.Since(t0).Nanoseconds())

	outputs[i] = png
	return nil
}

func concatenateOutputs(outputs [][]byte) (blob []byte, offsets, lengths []int32, err error) {
	count := len(outputs)
	offsets = make([]int32, count)
	lengths = make([]int32, count)

	var total int64
	for i, out := range outputs {
		if len(out) == 0 {
			return nil, nil, nil, fmt.Errorf("pipeline: layer %d produced no output", i)
		}
		offsets[i] = int32(total)
		lengths[i] = int32(len(out))
		total += int64(len(out))
	}
	if total > 0x7FFFFFFF {
		return nil, nil, nil, fmt.Errorf("pipeline: batch output exceeds 2^31-1 bytes")
	}

	blob = make([]byte, 0, total)
	for _, out := range outputs {
		blob = append(blob, out...)
	}
	return blob, offsets, lengths, nil
}
