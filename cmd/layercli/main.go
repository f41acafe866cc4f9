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

/*
layercli batch-processes a list of CTB-encoded layer files into a
STORE-only ZIP of PNGs, printing each layer's area statistics to stderr.

Usage:

layercli [flags] layer0.bin layer1.bin ...

Flags:

-out
    path of the ZIP archive to write (default "layers.zip")
-srcwidth
    source (subpixel) row width
-height
    layer height in pixels
-outwidth
    output pixel row width
-channels
    1 (grey) or 3 (RGB)
-xmm, -ymm
    pixel size in millimetres, used for area statistics
-key
    encryption key (0 means plaintext)
-level
    PNG zlib compression level, 0..9
-phased
    use the phased decode/scanline/compress pipeline instead of the
    per-layer worker pool
-gpu
    allow GPU-accelerated scanline building (phased pipeline only)
-threads
    worker count (0 means auto)

Each input file is one encoded layer, read whole into memory; layercli
concatenates them into one input blob with matching offset/length pairs
before handing them to the pipeline, mirroring how a host application's
job loader would already have them in memory.
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/layerpipe/core/internal/deflate"
	"github.com/layerpipe/core/pipeline"
	"github.com/layerpipe/core/zipstore"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("layercli: ")

	var (
		out      = flag.String("out", "layers.zip", "output ZIP path")
		srcWidth = flag.Int("srcwidth", 0, "source row width in subpixels")
		height   = flag.Int("height", 0, "layer height in pixels")
		outWidth = flag.Int("outwidth", 0, "output row width in pixels")
		channels = flag.Int("channels", 1, "1 (grey) or 3 (RGB)")
		xmm      = flag.Float64("xmm", 0.05, "pixel size in mm, X axis")
		ymm      = flag.Float64("ymm", 0.05, "pixel size in mm, Y axis")
		key      = flag.Int("key", 0, "encryption key, 0 for plaintext")
		level    = flag.Int("level", 6, "PNG zlib compression level, 0..9")
		phased   = flag.Bool("phased", false, "use the phased pipeline")
		gpu      = flag.Bool("gpu", false, "allow GPU scanline acceleration (phased only)")
		threads  = flag.Int("threads", 0, "worker count, 0 for auto")
	)
	flag.Parse()

	if flag.NArg() == 0 {
		log.Fatal("no input layer files given")
	}
	if err := run(*out, flag.Args(), *srcWidth, *height, *outWidth, *channels, *xmm, *ymm, *key, *level, *phased, *gpu, *threads); err != nil {
		log.Fatal(err)
	}
}

func run(outPath string, inputs []string, srcWidth, height, outWidth, channels int, xmm, ymm float64, key, level int, phased, allowGPU bool, threads int) error {
	var blob []byte
	offsets := make([]int32, len(inputs))
	lengths := make([]int32, len(inputs))
	for i, path := range inputs {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		offsets[i] = int32(len(blob))
		lengths[i] = int32(len(data))
		blob = append(blob, data...)
	}

	req := pipeline.BatchRequest{
		InputBlob:     blob,
		Offsets:       offsets,
		Lengths:       lengths,
		EncryptionKey: int32(key),
		SrcWidth:      int32(srcWidth),
		Height:        int32(height),
		OutWidth:      int32(outWidth),
		Channels:      int32(channels),
		XPixelSizeMM:  xmm,
		YPixelSizeMM:  ymm,
		PNGLevel:      deflate.Level(level).Clamp(),
		Threads:       threads,
	}

	var res pipeline.BatchResult
	var err error
	if phased {
		res, err = pipeline.ProcessLayersBatchPhased(context.Background(), pipeline.PhasedBatchRequest{
			BatchRequest: req,
			UseGPUBatch:  allowGPU,
		})
	} else {
		res, err = pipeline.ProcessLayersBatch(context.Background(), req)
	}
	if err != nil {
		return fmt.Errorf("processing batch: %w", err)
	}

	zw, err := zipstore.Create(outPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", outPath, err)
	}
	for i, path := range inputs {
		png := res.Blob[res.Offsets[i] : res.Offsets[i]+res.Lengths[i]]
		name := fmt.Sprintf("layer_%04d.png", i)
		if err := zw.AddFile(name, png); err != nil {
			zw.Abort()
			return fmt.Errorf("adding %s to archive: %w", name, err)
		}

		stats := res.Areas[i]
		log.Printf("%s -> %s: islands=%d total_area_mm2=%.4f bounds=(%d,%d)-(%d,%d)",
			path, name, stats.AreaCount, stats.TotalSolidArea, stats.MinX, stats.MinY, stats.MaxX, stats.MaxY)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalizing %s: %w", outPath, err)
	}

	analytics := pipeline.LastBatchAnalytics()
	log.Printf("done: %d layers, %d worker threads, backend=%d, gpu attempts=%d successes=%d fallbacks=%d",
		len(inputs), analytics.ThreadCount, analytics.Backend, analytics.GPUAttempts, analytics.GPUSuccesses, analytics.GPUFallbacks)
	return nil
}
