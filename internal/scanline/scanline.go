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

// Package scanline maps decoded greyscale "subpixel" rows onto PNG-ready
// scanline buffers: RGB output copies three subpixels per pixel,
// grey output averages two, and the PNG "Up" filter is applied in place
// once every row has been written.
package scanline

import "errors"

// ErrInvalidArgument is returned for non-positive dimensions, an
// unsupported channel count, or a source buffer of the wrong length.
var ErrInvalidArgument = errors.New("scanline: invalid argument")

// Len returns the number of bytes a scanline buffer needs for the given
// output geometry: one filter-type byte plus outWidth*channels data bytes,
// per row.
func Len(outWidth, height, channels int32) int64 {
	return int64(height) * (1 + int64(outWidth)*int64(channels))
}

// Build writes PNG-ready scanlines for a greyscale subpixel buffer of
// srcWidth columns into a freshly allocated buffer sized by Len, then
// applies the PNG Up filter (filter type 2) bottom-to-top so that each
// row's data bytes become the difference from the row above.
//
// channels must be 1 (grey output, two subpixels averaged per pixel) or 3
// (RGB output, three subpixels copied per pixel). When outWidth*channels
// exceeds srcWidth, the source row is centred with zero padding; the left
// pad gets the smaller half when the total padding is odd.
func Build(grey []byte, srcWidth, height, outWidth, channels int32) ([]byte, error) {
	if len(grey) == 0 || srcWidth <= 0 || height <= 0 || outWidth <= 0 ||
		(channels != 1 && channels != 3) || int64(len(grey)) != int64(srcWidth)*int64(height) {
		return nil, ErrInvalidArgument
	}

	scanlineSize := 1 + outWidth*channels
	out := make([]byte, int64(scanlineSize)*int64(height))

	if channels == 3 {
		buildRGB(grey, out, srcWidth, height, outWidth, scanlineSize)
	} else {
		buildGrey(grey, out, srcWidth, height, outWidth, scanlineSize)
	}

	applyUpFilter(out, height, scanlineSize)
	return out, nil
}

func buildRGB(grey, out []byte, srcWidth, height, outWidth, scanlineSize int32) {
	requiredSubpixels := outWidth * 3
	padLeft := int32(0)
	if padTotal := requiredSubpixels - srcWidth; padTotal > 0 {
		padLeft = padTotal / 2
	}

	for y := int32(0); y < height; y++ {
		rowOffset := y * srcWidth
		dst := y * scanlineSize
		out[dst] = 0 // placeholder filter byte, reassigned by applyUpFilter.
		dst++

		for x := int32(0); x < outWidth; x++ {
			si := x*3 - padLeft
			out[dst+0] = subpixelAt(grey, rowOffset, si+0, srcWidth)
			out[dst+1] = subpixelAt(grey, rowOffset, si+1, srcWidth)
			out[dst+2] = subpixelAt(grey, rowOffset, si+2, srcWidth)
			dst += 3
		}
	}
}

func buildGrey(grey, out []byte, srcWidth, height, outWidth, scanlineSize int32) {
	requiredSubpixels := outWidth
	padLeft := int32(0)
	if padTotal := requiredSubpixels - srcWidth; padTotal > 0 {
		padLeft = padTotal / 2
	}

	for y := int32(0); y < height; y++ {
		rowOffset := y * srcWidth
		dstRow := y * scanlineSize
		out[dstRow] = 0

		for x := int32(0); x < outWidth; x++ {
			si := x*2 - padLeft
			a := subpixelAt(grey, rowOffset, si, srcWidth)
			b := subpixelAt(grey, rowOffset, si+1, srcWidth)
			out[dstRow+1+x] = byte((uint16(a) + uint16(b)) >> 1)
		}
	}
}

func subpixelAt(grey []byte, rowOffset, si, srcWidth int32) byte {
	if si < 0 || si >= srcWidth {
		return 0
	}
	return grey[rowOffset+si]
}

// applyUpFilter rewrites each row's data bytes as the difference from the
// row above, walking bottom-to-top so row y-1 is still the original data
// when row y is filtered. Row 0 has no row above (implicitly zero), so its
// data is unchanged, but its filter-type byte is still set to 2 to match
// decoders that expect a uniform filter type.
func applyUpFilter(buf []byte, height, scanlineSize int32) {
	bytesPerRow := scanlineSize - 1
	for y := height - 1; y >= 1; y-- {
		curStart := y * scanlineSize
		prevStart := (y - 1) * scanlineSize
		buf[curStart] = 2
		for i := int32(1); i <= bytesPerRow; i++ {
			buf[curStart+i] = buf[curStart+i] - buf[prevStart+i]
		}
	}
	buf[0] = 2
}
