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

import "sync"

type registry struct {
	mu         sync.Mutex
	enabled    bool
	preference Code
	backends   map[Code]Backend

	// selected caches the outcome of backend detection. nil means "not
	// yet detected"; SetPreference invalidates it.
	selected Backend
}

var global = newRegistry()

func newRegistry() *registry {
	return &registry{
		enabled:    true,
		preference: CodeNone, // CodeNone means "auto"
		backends: map[Code]Backend{
			CodeOpenCL: newOpenCLBackend(),
			CodeMetal:  newMetalBackend(),
			CodeCUDA:   newCUDABackend(),
		},
	}
}

// SetEnabled turns GPU acceleration on or off process-wide. Disabling it
// makes Active report false regardless of what's probed as available.
func SetEnabled(enabled bool) {
	global.mu.Lock()
	defer global.mu.Unlock()
	global.enabled = enabled
}

// SetPreference selects a specific backend to prefer. CodeNone requests
// auto-selection; a preferred backend that turns out to be unavailable
// also falls back to auto-selection (the first available backend in
// Metal, CUDA, OpenCL order). Calling SetPreference invalidates the
// cached detection result.
func SetPreference(b Code) {
	if b < CodeNone || b > CodeCUDA {
		b = CodeNone
	}
	global.mu.Lock()
	defer global.mu.Unlock()
	global.preference = b
	global.selected = nil
}

// Register installs or replaces the backend implementation for b's code
// and invalidates the cached detection result, returning the previous
// implementation (nil if there was none). It exists for backend
// implementations loaded at runtime rather than linked in, and for tests
// that substitute a controlled implementation.
func Register(b Backend) Backend {
	global.mu.Lock()
	defer global.mu.Unlock()
	prev := global.backends[b.Code()]
	global.backends[b.Code()] = b
	global.selected = nil
	return prev
}

// Available reports whether the named backend's vendor library is
// loadable on this system, independent of the enabled flag or
// preference.
func Available(b Code) bool {
	global.mu.Lock()
	backend, ok := global.backends[b]
	global.mu.Unlock()
	if !ok {
		return false
	}
	return backend.Available()
}

// autoOrder is the fallback-preference order used when the caller hasn't
// pinned a specific backend.
var autoOrder = [3]Code{CodeMetal, CodeCUDA, CodeOpenCL}

func (r *registry) selectLocked() Backend {
	if !r.enabled {
		return noneBackend{}
	}
	if r.selected == nil {
		r.selected = r.detectLocked()
	}
	return r.selected
}

func (r *registry) detectLocked() Backend {
	if r.preference != CodeNone {
		if b, ok := r.backends[r.preference]; ok && b.Available() {
			return b
		}
	}
	for _, code := range autoOrder {
		if b, ok := r.backends[code]; ok && b.Available() {
			return b
		}
	}
	return noneBackend{}
}

// Active reports whether GPU acceleration is currently in effect: GPU
// acceleration is enabled and at least one backend (the preferred one,
// or the first available in auto mode) is present.
func Active() bool {
	global.mu.Lock()
	defer global.mu.Unlock()
	return global.selectLocked().Code() != CodeNone
}

// ActiveBackend returns the backend code currently selected, or
// CodeNone if acceleration is disabled or nothing is available.
func ActiveBackend() Code {
	global.mu.Lock()
	defer global.mu.Unlock()
	return global.selectLocked().Code()
}

// Selected returns the live Backend currently selected, for callers
// (the pipeline package) that need to invoke BuildScanlines/
// BuildScanlinesBatch/MaxConcurrentLayers directly.
func Selected() Backend {
	global.mu.Lock()
	defer global.mu.Unlock()
	return global.selectLocked()
}

// ActiveDeviceInfo returns the active backend's device information, or
// the zero value if no backend is active or the active backend doesn't
// expose one.
func ActiveDeviceInfo() DeviceInfo {
	return Selected().DeviceInfo()
}
