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

// Package areastats computes 8-connected island statistics over a
// decoded greyscale layer: total solid area, the largest and smallest
// island, the island count, and the bounding box of all solids.
package areastats

import "errors"

// ErrInvalidArgument is returned for non-positive dimensions or a pixel
// slice that doesn't match width*height.
var ErrInvalidArgument = errors.New("areastats: invalid argument")

// Stats holds the aggregate island statistics for one layer. Areas are in
// mm^2, bounds are in pixel coordinates. When AreaCount is zero every
// other field is zero.
type Stats struct {
	TotalSolidArea float64
	LargestArea    float64
	SmallestArea   float64
	MinX           int32
	MinY           int32
	MaxX           int32
	MaxY           int32
	AreaCount      int32
}

var neighborDX = [8]int32{-1, 0, 1, -1, 1, -1, 0, 1}
var neighborDY = [8]int32{-1, -1, -1, 0, 0, 1, 1, 1}

type point struct{ x, y int32 }

// Compute walks pixels in row-major order and flood-fills each unvisited
// solid pixel's 8-connected island, accumulating per-island pixel counts
// and bounds. Diagonal neighbours count as connected, so a checkerboard
// pattern of solid pixels forms a single island.
func Compute(pixels []byte, width, height int32, xPixelSizeMM, yPixelSizeMM float64) (Stats, error) {
	if width <= 0 || height <= 0 || int64(len(pixels)) != int64(width)*int64(height) {
		return Stats{}, ErrInvalidArgument
	}

	visited := make([]bool, len(pixels))
	pixelArea := xPixelSizeMM * yPixelSizeMM

	var stats Stats
	var stack []point

	for y := int32(0); y < height; y++ {
		rowOffset := y * width
		for x := int32(0); x < width; x++ {
			rootIdx := rowOffset + x
			if pixels[rootIdx] == 0 || visited[rootIdx] {
				continue
			}

			var islandPixels int32
			minX, minY, maxX, maxY := x, y, x, y

			stack = append(stack[:0], point{x, y})
			visited[rootIdx] = true
			islandPixels++

			for len(stack) > 0 {
				cur := stack[len(stack)-1]
				stack = stack[:len(stack)-1]

				for i := 0; i < 8; i++ {
					nx := cur.x + neighborDX[i]
					ny := cur.y + neighborDY[i]
					if nx < 0 || nx >= width || ny < 0 || ny >= height {
						continue
					}
					nIdx := ny*width + nx
					if pixels[nIdx] == 0 || visited[nIdx] {
						continue
					}
					visited[nIdx] = true
					islandPixels++
					stack = append(stack, point{nx, ny})

					if nx < minX {
						minX = nx
					}
					if nx > maxX {
						maxX = nx
					}
					if ny < minY {
						minY = ny
					}
					if ny > maxY {
						maxY = ny
					}
				}
			}

			islandArea := float64(islandPixels) * pixelArea
			stats.TotalSolidArea += islandArea
			if islandArea > stats.LargestArea {
				stats.LargestArea = islandArea
			}
			if stats.AreaCount == 0 || islandArea < stats.SmallestArea {
				stats.SmallestArea = islandArea
			}
			if stats.AreaCount == 0 {
				stats.MinX, stats.MinY, stats.MaxX, stats.MaxY = minX, minY, maxX, maxY
			} else {
				if minX < stats.MinX {
					stats.MinX = minX
				}
				if minY < stats.MinY {
					stats.MinY = minY
				}
				if maxX > stats.MaxX {
					stats.MaxX = maxX
				}
				if maxY > stats.MaxY {
					stats.MaxY = maxY
				}
			}
			stats.AreaCount++
		}
	}

	return stats, nil
}
