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

// Package gpu provides a small backend registry for optional GPU-assisted
// scanline building: probing for OpenCL, Metal and CUDA vendor libraries,
// a preference/selection policy with a cached detection result, and a
// uniform contract every backend (including the always-available "none"
// backend) satisfies. The CUDA backend dispatches into an optional
// companion kernel library when present; every BuildScanlines /
// BuildScanlinesBatch failure is reported as false so callers always have
// a correct CPU fallback path.
package gpu

// Code identifies a GPU backend kind. The numeric values are part of the
// C ABI surface and must not be renumbered.
type Code int32

const (
	CodeNone   Code = 0
	CodeOpenCL Code = 1
	CodeMetal  Code = 2
	CodeCUDA   Code = 3
)

func (c Code) String() string {
	switch c {
	case CodeNone:
		return "none"
	case CodeOpenCL:
		return "opencl"
	case CodeMetal:
		return "metal"
	case CodeCUDA:
		return "cuda"
	default:
		return "unknown"
	}
}

// DeviceInfo describes the active device for backends that expose one
// (currently only CUDA). Zero values mean "unknown" rather than "absent".
type DeviceInfo struct {
	Name                string
	VRAMBytes           int64
	HasTensorCores      bool
	ComputeCapability   int32
	MultiprocessorCount int32
}

// Backend is the contract every concrete GPU backend, and the
// never-available none backend, implements. BuildScanlines and BuildScanlinesBatch return
// false (never an error) on any failure: the caller always has a CPU
// path to fall back to, so a GPU-side error is just a signal to take it.
type Backend interface {
	Code() Code
	Available() bool

	// BuildScanlines writes PNG-ready scanlines for one layer into dst,
	// mirroring internal/scanline.Build's contract. It reports whether
	// the GPU path produced output; callers fall back to
	// internal/scanline.Build on false.
	BuildScanlines(dst, grey []byte, srcWidth, height, outWidth, channels int32) bool

	// BuildScanlinesBatch is the phased pipeline's single mega-batch
	// call: one dispatch across every layer's grey buffer at once.
	BuildScanlinesBatch(dst [][]byte, grey [][]byte, srcWidth, height, outWidth, channels int32) bool

	// MaxConcurrentLayers reports how many layers of the given geometry
	// can run concurrently within this backend's memory budget. Returns
	// 0 when the backend is unavailable; the CUDA backend also returns 0
	// for non-positive dimensions.
	MaxConcurrentLayers(srcWidth, height, outWidth int32) int32

	// LastErrorCode returns the most recent vendor-specific error code
	// observed by this backend, or 0 if none has been recorded.
	LastErrorCode() int32

	// DeviceInfo returns device identification for backends that expose
	// one. Backends without device info return the zero value.
	DeviceInfo() DeviceInfo
}
