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

//go:build !(darwin && cgo)

package gpu

// Metal is a macOS-only framework; everywhere else this backend reports
// unavailable without attempting to probe anything.
type metalBackend struct{}

func newMetalBackend() *metalBackend { return &metalBackend{} }

func (b *metalBackend) Code() Code      { return CodeMetal }
func (b *metalBackend) Available() bool { return false }

func (b *metalBackend) BuildScanlines(dst, grey []byte, srcWidth, height, outWidth, channels int32) bool {
	return false
}

func (b *metalBackend) BuildScanlinesBatch(dst [][]byte, grey [][]byte, srcWidth, height, outWidth, channels int32) bool {
	return false
}

func (b *metalBackend) MaxConcurrentLayers(srcWidth, height, outWidth int32) int32 { return 0 }
func (b *metalBackend) LastErrorCode() int32                                      { return 0 }
func (b *metalBackend) DeviceInfo() DeviceInfo                                    { return DeviceInfo{} }
