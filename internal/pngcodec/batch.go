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
	"context"
	"fmt"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/layerpipe/core/internal/deflate"
)

// batchClaimSize is the number of indices a recompress worker claims at
// once from the shared cursor; one at a time gives the best load balance
// for this CPU-bound, variable-cost workload.
const batchClaimSize = 1

var recompressThreads atomic.Int32

// SetThreads configures the default worker count for RecompressBatch.
// threads <= 0 resets to auto mode (detected CPU count, clamped by the
// batch size).
func SetThreads(threads int) {
	recompressThreads.Store(int32(threads))
}

func resolveThreads(requested, count int) int {
	if requested <= 0 {
		requested = int(recompressThreads.Load())
	}
	if requested <= 0 {
		requested = runtime.NumCPU()
	}
	if requested > count {
		requested = count
	}
	if requested < 1 {
		requested = 1
	}
	return requested
}

// BatchItem is one input PNG's region within a concatenated input blob.
type BatchItem struct {
	Offset int32
	Length int32
}

// RecompressBatch recompresses every item in inputBlob[item.Offset:item.Offset+item.Length]
// at the given level, using threads workers (threads <= 0 means auto).
// Each worker claims the next unprocessed index under an atomic cursor;
// the first error aborts the batch (other workers drain their current
// item and then stop, observing the shared failure flag instead of being
// cancelled mid-item).
func RecompressBatch(ctx context.Context, inputBlob []byte, items []BatchItem, level deflate.Level, threads int) ([][]byte, error) {
	if len(items) == 0 {
		return nil, nil
	}

	outputs := make([][]byte, len(items))
	var next atomic.Int32
	workers := resolveThreads(threads, len(items))

	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for {
				if ctx.Err() != nil {
					return nil
				}
				idx := int(next.Add(batchClaimSize) - batchClaimSize)
				if idx >= len(items) {
					return nil
				}

				item := items[idx]
				if item.Offset < 0 || item.Length <= 0 || int(item.Offset)+int(item.Length) > len(inputBlob) {
					return fmt.Errorf("pngcodec: batch item %d out of range", idx)
				}

				png := inputBlob[item.Offset : item.Offset+item.Length]
				recompressed, err := Recompress(png, level)
				if err != nil {
					return fmt.Errorf("pngcodec: batch item %d: %w", idx, err)
				}
				outputs[idx] = recompressed
			}
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outputs, nil
}
