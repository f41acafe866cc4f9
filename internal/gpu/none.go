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

package gpu

// noneBackend is the always-present, never-available placeholder that
// keeps the registry from needing a nil check when no vendor library is
// loadable.
type noneBackend struct{}

func (noneBackend) Code() Code      { return CodeNone }
func (noneBackend) Available() bool { return false }

func (noneBackend) BuildScanlines(dst, grey []byte, srcWidth, height, outWidth, channels int32) bool {
	return false
}

func (noneBackend) BuildScanlinesBatch(dst [][]byte, grey [][]byte, srcWidth, height, outWidth, channels int32) bool {
	return false
}

func (noneBackend) MaxConcurrentLayers(srcWidth, height, outWidth int32) int32 { return 0 }
func (noneBackend) LastErrorCode() int32                                      { return 0 }
func (noneBackend) DeviceInfo() DeviceInfo                                    { return DeviceInfo{} }
