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
	"github.com/layerpipe/core/internal/gpu"
	"github.com/layerpipe/core/internal/metrics"
	"github.com/layerpipe/core/internal/pngcodec"
	"github.com/layerpipe/core/internal/rle"
	"github.com/layerpipe/core/internal/scanline"
)

// cudaMegaBatchHardCap bounds the GPU mega-batch chunk size regardless of
// what a CUDA backend's own VRAM estimate reports, keeping worst-case
// VRAM usage sane on very large layers.
const cudaMegaBatchHardCap = 8

// phasedHostBudgetBytes is the conservative host-memory ceiling used to
// size chunks: all of a chunk's decoded pixel buffers plus scanline
// buffers must fit comfortably inside it.
const phasedHostBudgetBytes = int64(8) << 30

// ProcessLayersBatchPhased runs the batch through three barrier
// synchronized phases: parallel decode+area-stats, scanline build (one
// GPU mega-batch dispatch when UseGPUBatch is set and a CUDA backend is
// active; otherwise, or when that dispatch fails, parallel per-layer
// builds that try the active GPU backend when UseGPUBatch is set and fall
// back to the CPU), and parallel compress+PNG-wrap.
// Layers are chunked to fit a host memory budget and, for the GPU
// mega-batch path, a VRAM-driven layer-count cap.
func ProcessLayersBatchPhased(ctx context.Context, req PhasedBatchRequest) (BatchResult, error) {
	if err := req.validate(); err != nil {
		return BatchResult{}, err
	}

	count := len(req.Offsets)
	threads := resolveThreads(req.Threads, count)
	rec := metrics.NewRecorder(threads, analyticsOn.Load())

	pixelCount := int64(req.SrcWidth) * int64(req.Height)
	scanlinesLen := scanline.Len(req.OutWidth, req.Height, req.Channels)
	maxChunk := phasedChunkSize(pixelCount, scanlinesLen, count, req.UseGPUBatch, req.SrcWidth, req.Height, req.OutWidth)

	outputs := make([][]byte, count)
	areas := make([]areastats.Stats, count)
	anyGPUBatchOK := false

	for start := 0; start < count; start += maxChunk {
		end := start + maxChunk
		if end > count {
			end = count
		}
		chunkGPUOK, err := processPhasedChunk(ctx, req, start, end, threads, int(pixelCount), int(scanlinesLen), rec, outputs, areas)
		if err != nil {
			return BatchResult{}, err
		}
		if chunkGPUOK {
			anyGPUBatchOK = true
		}
	}

	rec.SetPhasedMegaBatchOK(anyGPUBatchOK)
	blob, offs, lens, err := concatenateOutputs(outputs)
	if err != nil {
		return BatchResult{}, err
	}
	rec.Snapshot()

	return BatchResult{Blob: blob, Offsets: offs, Lengths: lens, Areas: areas}, nil
}

func phasedChunkSize(pixelCount, scanlinesLen int64, count int, useGPUBatch bool, srcWidth, height, outWidth int32) int {
	maxChunk := count

	// Peak per-layer host memory: the decoded pixel buffer, plus the
	// per-layer scanline buffer, plus its share of a GPU mega-batch
	// concat (approximated here, since Go slices-of-slices don't need a
	// real concat buffer the way the C flat-array ABI does).
	perLayerMem := pixelCount + scanlinesLen*2 + pixelCount/4
	if perLayerMem > 0 {
		fit := phasedHostBudgetBytes / perLayerMem
		if fit < 1 {
			fit = 1
		}
		if int(fit) < maxChunk {
			maxChunk = int(fit)
		}
	}

	if useGPUBatch && gpu.Active() && gpu.ActiveBackend() == gpu.CodeCUDA {
		backend := gpu.Selected()
		info := backend.DeviceInfo()
		if info.VRAMBytes > 0 {
			vramPerLayer := pixelCount + scanlinesLen
			vramBudget := info.VRAMBytes - (512 << 20)
			if vramBudget > 0 && vramPerLayer > 0 {
				fit := vramBudget / vramPerLayer
				if fit < 1 {
					fit = 1
				}
				if int(fit) < maxChunk {
					maxChunk = int(fit)
				}
			}
		}

		maxLayers := backend.MaxConcurrentLayers(srcWidth, height, outWidth)
		if maxLayers <= 0 || maxLayers > cudaMegaBatchHardCap {
			maxLayers = cudaMegaBatchHardCap
		}
		if int(maxLayers) < maxChunk {
			maxChunk = int(maxLayers)
		}
	}

	if maxChunk < 1 {
		maxChunk = 1
	}
	return maxChunk
}

// processPhasedChunk runs one chunk of layers [start,end) through all
// three phases, writing into outputs/areas at their original indices.
// It reports whether the GPU mega-batch path produced this chunk's
// scanlines.
func processPhasedChunk(ctx context.Context, req PhasedBatchRequest, start, end, threads, pixelCount, scanlinesLen int, rec *metrics.Recorder, outputs [][]byte, areas []areastats.Stats) (bool, error) {
	chunkCount := end - start
	pixels := make([][]byte, chunkCount)

	// Phase 1: parallel decode + area stats.
	if err := runChunkPool(ctx, chunkCount, threads, func(worker, i int) error {
		idx := start + i
		off, length := req.Offsets[idx], req.Lengths[idx]
		if off < 0 || length <= 0 || int(off)+int(length) > len(req.InputBlob) {
			return fmt.Errorf("pipeline: layer %d input range out of bounds", idx)
		}
		t0 := time.Now()
		p, err := rle.Decode(req.InputBlob[off:off+length], req.LayerIndexBase+int32(idx), req.EncryptionKey, req.SrcWidth*req.Height)
		if err != nil {
			return fmt.Errorf("pipeline: layer %d decode: %w", idx, err)
		}
		stats, err := areastats.Compute(p, req.SrcWidth, req.Height, req.XPixelSizeMM, req.YPixelSizeMM)
		if err != nil {
			return fmt.Errorf("pipeline: layer %d area stats: %w", idx, err)
		}
		pixels[i] = p
		areas[idx] = stats
		rec.AddDecode(worker, time.Since(t0).Nanoseconds())
		return nil
	}); err != nil {
		return false, err
	}

	// Phase 2: GPU mega-batch, or parallel CPU scanline build.
	scanlines := make([][]byte, chunkCount)
	gpuBatchOK := false

	if req.UseGPUBatch && gpu.Active() {
		backend := gpu.Selected()
		if backend.Code() == gpu.CodeCUDA {
			maxLayers := backend.MaxConcurrentLayers(req.SrcWidth, req.Height, req.OutWidth)
			if maxLayers <= 0 || maxLayers > cudaMegaBatchHardCap {
				maxLayers = cudaMegaBatchHardCap
			}
			if chunkCount <= int(maxLayers) {
				for i := range scanlines {
					scanlines[i] = make([]byte, scanlinesLen)
				}
				gpuBatchOK = backend.BuildScanlinesBatch(scanlines, pixels, req.SrcWidth, req.Height, req.OutWidth, req.Channels)
				rec.RecordGPUAttempt(gpuBatchOK)
				if gpuBatchOK {
					rec.SetBackend(int32(gpu.CodeCUDA))
				} else if errCode := backend.LastErrorCode(); errCode != 0 {
					rec.SetLastGPUErrorCode(errCode)
				}
			}
		}
	}

	if !gpuBatchOK {
		if err := runChunkPool(ctx, chunkCount, threads, func(worker, i int) error {
			t0 := time.Now()
			built, err := buildScanlinesAuto(pixels[i], req.SrcWidth, req.Height, req.OutWidth, req.Channels, req.UseGPUBatch, rec)
			if err != nil {
				return fmt.Errorf("pipeline: layer %d scanlines: %w", start+i, err)
			}
			scanlines[i] = built
			rec.AddScanline(worker, time.Since(t0).Nanoseconds())
			return nil
		}); err != nil {
			return false, err
		}
	}

	// Phase 3: parallel compress + PNG wrap.
	if err := runChunkPool(ctx, chunkCount, threads, func(worker, i int) error {
		t0 := time.Now()
		idat, err := deflate.Deflate(scanlines[i], req.PNGLevel.Clamp())
		if err != nil {
			return fmt.Errorf("pipeline: layer %d compress: %w", start+i, err)
		}
		rec.AddCompress(worker, time.Since(t0).Nanoseconds())

		t0 = time.Now()
		png, err := pngcodec.Wrap(idat, req.OutWidth, req.Height, req.Channels)
		if err != nil {
			return fmt.Errorf("pipeline: layer %d png: %w", start+i, err)
		}
		outputs[start+i] = png
		rec.AddPNG(worker, time.Since(t0).Nanoseconds())
		return nil
	}); err != nil {
		return false, err
	}

	return gpuBatchOK, nil
}

// runChunkPool fans work(worker, i) out across threads workers, each
// claiming a chunk of claimChunk indices in [0, n) at a time.
func runChunkPool(ctx context.Context, n, threads int, work func(worker, i int) error) error {
	if n == 0 {
		return nil
	}
	if threads > n {
		threads = n
	}

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
				if start >= n {
					return nil
				}
				end := start + claimChunk
				if end > n {
					end = n
				}
				for i := start; i < end; i++ {
					if err := work(worker, i); err != nil {
						return err
					}
				}
			}
		})
	}
	return g.Wait()
}
