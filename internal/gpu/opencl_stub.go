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

//go:build !cgo || windows

package gpu

// openCLBackend without a dlopen path (no cgo, or Windows) can never
// probe the vendor library, so it always reports unavailable.
type openCLBackend struct{}

func newOpenCLBackend() *openCLBackend { return &openCLBackend{} }

func (b *openCLBackend) Code() Code      { return CodeOpenCL }
func (b *openCLBackend) Available() bool { return false }

func (b *openCLBackend) BuildScanlines(dst, grey []byte, srcWidth, height, outWidth, channels int32) bool {
	return false
}

func (b *openCLBackend) BuildScanlinesBatch(dst [][]byte, grey [][]byte, srcWidth, height, outWidth, channels int32) bool {
	return false
}

func (b *openCLBackend) MaxConcurrentLayers(srcWidth, height, outWidth int32) int32 { return 0 }
func (b *openCLBackend) LastErrorCode() int32                                      { return 0 }
func (b *openCLBackend) DeviceInfo() DeviceInfo                                    { return DeviceInfo{} }
