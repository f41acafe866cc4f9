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

package scanline

import "testing"

func TestBuildRGBPadding(t *testing.T) {
	// srcWidth=4, outWidth=3, channels=3: padTotal=5, padLeft=2.
	// Row [A,B,C,D] -> pixels (0,0,A),(B,C,D),(0,0,0) before filtering.
	grey := []byte{0x11, 0x22, 0x33, 0x44}
	out, err := Build(grey, 4, 1, 3, 3)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(out) != int(Len(3, 1, 3)) {
		t.Fatalf("len(out) = %d, want %d", len(out), Len(3, 1, 3))
	}
	// Single row: filter byte must be 2 (row 0 special case), data bytes
	// unchanged since there is no row above.
	want := []byte{2, 0, 0, 0x11, 0x22, 0x33, 0x44, 0, 0, 0}
	for i, b := range want {
		if out[i] != b {
			t.Fatalf("out[%d] = %#x, want %#x (full: %v)", i, out[i], b, out)
		}
	}
}

func TestBuildGreyAverages(t *testing.T) {
	// srcWidth >= outWidth*channels: no padding.
	grey := []byte{10, 20, 30, 40}
	out, err := Build(grey, 4, 1, 2, 1)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	want := []byte{2, byte((10 + 20) >> 1), byte((30 + 40) >> 1)}
	for i, b := range want {
		if out[i] != b {
			t.Fatalf("out[%d] = %d, want %d", i, out[i], b)
		}
	}
}

func TestBuildTruncationWhenSrcWiderThanOut(t *testing.T) {
	// srcWidth >= outWidth*channels: left-aligned truncation, no padding.
	grey := []byte{1, 2, 3, 4, 5, 6}
	out, err := Build(grey, 6, 1, 1, 3)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	want := []byte{2, 1, 2, 3}
	for i, b := range want {
		if out[i] != b {
			t.Fatalf("out[%d] = %d, want %d", i, out[i], b)
		}
	}
}

func TestBuildUpFilterMultiRow(t *testing.T) {
	grey := []byte{
		10, 20,
		50, 60,
	}
	out, err := Build(grey, 2, 2, 1, 1)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	// Row 0: unfiltered data = avg(10,20)=15, filter byte forced to 2.
	// Row 1: unfiltered data = avg(50,60)=55, Up-filtered against row 0's
	// unfiltered value: 55-15=40.
	want := []byte{2, 15, 2, 40}
	for i, b := range want {
		if out[i] != b {
			t.Fatalf("out[%d] = %d, want %d", i, out[i], b)
		}
	}
}

func TestBuildInvalidArguments(t *testing.T) {
	if _, err := Build([]byte{1, 2, 3, 4}, 4, 1, 2, 2); err == nil {
		t.Fatal("expected error for unsupported channel count")
	}
	if _, err := Build(nil, 4, 1, 2, 1); err == nil {
		t.Fatal("expected error for empty source")
	}
	if _, err := Build([]byte{1, 2, 3}, 4, 1, 2, 1); err == nil {
		t.Fatal("expected error for mismatched source length")
	}
}
