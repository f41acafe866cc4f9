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

package areastats

import "testing"

func TestComputeZeroIslands(t *testing.T) {
	pixels := make([]byte, 10*10)
	stats, err := Compute(pixels, 10, 10, 0.05, 0.05)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if stats != (Stats{}) {
		t.Fatalf("stats = %+v, want zero value", stats)
	}
}

func TestComputeSinglePixelIsland(t *testing.T) {
	pixels := make([]byte, 4*1)
	pixels[2] = 0x07
	stats, err := Compute(pixels, 4, 1, 0.05, 0.05)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if stats.AreaCount != 1 {
		t.Fatalf("AreaCount = %d, want 1", stats.AreaCount)
	}
	want := 0.05 * 0.05
	if stats.TotalSolidArea != want || stats.LargestArea != want || stats.SmallestArea != want {
		t.Fatalf("areas = %+v, want all %v", stats, want)
	}
	if stats.MinX != 2 || stats.MaxX != 2 || stats.MinY != 0 || stats.MaxY != 0 {
		t.Fatalf("bounds = %+v, want (2,0)-(2,0)", stats)
	}
}

func TestComputeDiagonalIslandsMerge(t *testing.T) {
	// 3x3 checkerboard, solids at (0,0),(1,1),(2,2): 8-connectivity
	// merges them into a single island.
	pixels := make([]byte, 3*3)
	pixels[0*3+0] = 1
	pixels[1*3+1] = 1
	pixels[2*3+2] = 1
	stats, err := Compute(pixels, 3, 3, 1, 1)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if stats.AreaCount != 1 {
		t.Fatalf("AreaCount = %d, want 1", stats.AreaCount)
	}
	if stats.MinX != 0 || stats.MinY != 0 || stats.MaxX != 2 || stats.MaxY != 2 {
		t.Fatalf("bounds = %+v, want (0,0)-(2,2)", stats)
	}
	if stats.TotalSolidArea != 3 {
		t.Fatalf("TotalSolidArea = %v, want 3", stats.TotalSolidArea)
	}
}

func TestComputeSmallestIslandFirstWins(t *testing.T) {
	// Two islands of equal area: the first one scanned (row-major) sets
	// SmallestArea and ties do not overwrite it.
	pixels := make([]byte, 10*1)
	pixels[0] = 1
	pixels[5] = 1
	stats, err := Compute(pixels, 10, 1, 2, 2)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if stats.AreaCount != 2 {
		t.Fatalf("AreaCount = %d, want 2", stats.AreaCount)
	}
	if stats.SmallestArea != 4 || stats.LargestArea != 4 {
		t.Fatalf("areas = %+v, want both 4", stats)
	}
}

func TestComputeMultipleDistinctIslands(t *testing.T) {
	pixels := make([]byte, 5*5)
	// A 2x2 block and a single pixel, far apart.
	for _, idx := range []int{0, 1, 5, 6} {
		pixels[idx] = 1
	}
	pixels[24] = 1
	stats, err := Compute(pixels, 5, 5, 1, 1)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if stats.AreaCount != 2 {
		t.Fatalf("AreaCount = %d, want 2", stats.AreaCount)
	}
	if stats.LargestArea != 4 || stats.SmallestArea != 1 {
		t.Fatalf("areas = %+v, want largest=4 smallest=1", stats)
	}
	if stats.TotalSolidArea != 5 {
		t.Fatalf("TotalSolidArea = %v, want 5", stats.TotalSolidArea)
	}
	if stats.MinX != 0 || stats.MinY != 0 || stats.MaxX != 4 || stats.MaxY != 4 {
		t.Fatalf("bounds = %+v, want (0,0)-(4,4)", stats)
	}
}

func TestComputeInvalidArguments(t *testing.T) {
	if _, err := Compute(make([]byte, 9), 0, 9, 1, 1); err == nil {
		t.Fatal("expected error for non-positive width")
	}
	if _, err := Compute(make([]byte, 8), 3, 3, 1, 1); err == nil {
		t.Fatal("expected error for mismatched pixel slice length")
	}
}
