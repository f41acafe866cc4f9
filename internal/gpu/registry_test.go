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

import "testing"

func TestDisabledRegistryIsNeverActive(t *testing.T) {
	SetEnabled(false)
	defer SetEnabled(true)
	SetPreference(CodeNone)

	if Active() {
		t.Fatal("Active() = true with acceleration disabled")
	}
	if ActiveBackend() != CodeNone {
		t.Fatalf("ActiveBackend() = %v, want CodeNone", ActiveBackend())
	}
}

func TestUnavailablePreferenceFallsBackToAutoOrder(t *testing.T) {
	SetEnabled(true)
	SetPreference(CodeCUDA)
	defer SetPreference(CodeNone)

	// An unavailable preferred backend falls through to auto-selection.
	// With no vendor library loadable in this environment, auto-selection
	// lands on none.
	for _, code := range autoOrder {
		if Available(code) {
			t.Skipf("%v unexpectedly available in this environment", code)
		}
	}
	if ActiveBackend() != CodeNone {
		t.Fatalf("ActiveBackend() = %v, want CodeNone when nothing is available", ActiveBackend())
	}
}

func TestBuildScanlinesContractAlwaysReportsFallback(t *testing.T) {
	for _, code := range []Code{CodeOpenCL, CodeMetal, CodeCUDA} {
		b, ok := global.backends[code]
		if !ok {
			t.Fatalf("no backend registered for %v", code)
		}
		if ok := b.BuildScanlines(nil, nil, 0, 0, 0, 0); ok {
			t.Fatalf("%v.BuildScanlines reported success with no real kernel wired", code)
		}
		if ok := b.BuildScanlinesBatch(nil, nil, 0, 0, 0, 0); ok {
			t.Fatalf("%v.BuildScanlinesBatch reported success with no real kernel wired", code)
		}
	}
}

func TestMaxConcurrentLayersZeroWhenUnavailable(t *testing.T) {
	for _, code := range []Code{CodeOpenCL, CodeMetal, CodeCUDA} {
		b := global.backends[code]
		if b.Available() {
			t.Skipf("%v unexpectedly available in this environment", code)
		}
		if n := b.MaxConcurrentLayers(64, 64, 64); n != 0 {
			t.Fatalf("%v.MaxConcurrentLayers = %d, want 0 when unavailable", code, n)
		}
	}
}

func TestSetPreferenceAutoModeUsesNoneWhenNothingAvailable(t *testing.T) {
	SetEnabled(true)
	SetPreference(CodeNone)
	for _, code := range autoOrder {
		if Available(code) {
			t.Skipf("%v unexpectedly available in this environment", code)
		}
	}
	if got := ActiveBackend(); got != CodeNone {
		t.Fatalf("ActiveBackend() = %v, want CodeNone", got)
	}
}
