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
	"github.com/layerpipe/core/internal/gpu"
	"github.com/layerpipe/core/internal/metrics"
	"github.com/layerpipe/core/internal/scanline"
)

// buildScanlinesAuto tries the active GPU backend first when allowGPU is
// set, recording the attempt in rec, and falls back to the CPU builder
// on any GPU failure or when GPU acceleration isn't active.
func buildScanlinesAuto(grey []byte, srcWidth, height, outWidth, channels int32, allowGPU bool, rec *metrics.Recorder) ([]byte, error) {
	if allowGPU && gpu.Active() {
		backend := gpu.Selected()
		code := backend.Code()
		if code == gpu.CodeOpenCL || code == gpu.CodeCUDA {
			dst := make([]byte, scanline.Len(outWidth, height, channels))
			ok := backend.BuildScanlines(dst, grey, srcWidth, height, outWidth, channels)
			rec.RecordGPUAttempt(ok)
			if ok {
				rec.SetBackend(int32(code))
				return dst, nil
			}
			if errCode := backend.LastErrorCode(); errCode != 0 {
				rec.SetLastGPUErrorCode(errCode)
			}
		}
	}
	return scanline.Build(grey, srcWidth, height, outWidth, channels)
}
