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
	"runtime"
	"sync/atomic"

	"github.com/layerpipe/core/internal/metrics"
)

// claimChunk is the number of layer indices a worker claims at once from
// the shared cursor: large enough to keep cursor contention low, small
// enough that a slow worker can't strand much of the batch.
const claimChunk = 4

var (
	defaultThreads atomic.Int32
	analyticsOn    atomic.Bool
)

// SetBatchThreads configures the default worker count for both batch
// entry points. n <= 0 resets to auto mode (detected CPU count).
func SetBatchThreads(n int) {
	defaultThreads.Store(int32(n))
}

// SetBatchAnalyticsEnabled turns per-thread timing collection on or off.
// GPU usage counters are always tracked regardless of this setting.
func SetBatchAnalyticsEnabled(enabled bool) {
	analyticsOn.Store(enabled)
}

// LastBatchAnalytics returns the most recently completed batch's
// Analytics snapshot. Valid only until the next batch call.
func LastBatchAnalytics() Analytics {
	return metrics.Last()
}

func resolveThreads(requested int, count int) int {
	if requested <= 0 {
		requested = int(defaultThreads.Load())
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
