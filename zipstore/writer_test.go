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

package zipstore

import (
	"archive/zip"
	"bytes"
	"hash/crc32"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
)

func TestWriterRoundTripsWithStandardLibrary(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "layers.zip")

	w, err := Create(path)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	big := make([]byte, 1<<20)
	rand.New(rand.NewSource(1)).Read(big)
	small := []byte("hello layer metadata")

	if err := w.AddFile("a.png", big); err != nil {
		t.Fatalf("AddFile a.png: %v", err)
	}
	if err := w.AddFile("b.txt", small); err != nil {
		t.Fatalf("AddFile b.txt: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}

	zr, err := zip.NewReader(f, info.Size())
	if err != nil {
		t.Fatalf("zip.NewReader: %v", err)
	}
	if len(zr.File) != 2 {
		t.Fatalf("entry count = %d, want 2", len(zr.File))
	}

	want := map[string][]byte{"a.png": big, "b.txt": small}
	for _, zf := range zr.File {
		if zf.Method != zip.Store {
			t.Fatalf("entry %s: method = %d, want Store", zf.Name, zf.Method)
		}
		rc, err := zf.Open()
		if err != nil {
			t.Fatalf("entry %s: Open: %v", zf.Name, err)
		}
		got, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("entry %s: ReadAll: %v", zf.Name, err)
		}
		if !bytes.Equal(got, want[zf.Name]) {
			t.Fatalf("entry %s: content mismatch", zf.Name)
		}
		if zf.CRC32 != crc32.ChecksumIEEE(want[zf.Name]) {
			t.Fatalf("entry %s: CRC32 mismatch", zf.Name)
		}
	}
}

func TestWriterRejectsOversizedEntryName(t *testing.T) {
	dir := t.TempDir()
	w, err := Create(filepath.Join(dir, "x.zip"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	longName := make([]byte, 1<<16+1)
	if err := w.AddFile(string(longName), []byte("x")); err == nil {
		t.Fatal("expected error for oversized entry name")
	}
	w.Abort()
}

func TestWriterEmptyEntry(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.zip")
	w, err := Create(path)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := w.AddFile("empty.txt", nil); err != nil {
		t.Fatalf("AddFile: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	zr, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer zr.Close()
	if len(zr.File) != 1 || zr.File[0].UncompressedSize64 != 0 {
		t.Fatalf("unexpected archive contents: %+v", zr.File)
	}
}
