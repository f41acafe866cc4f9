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

// Package zipstore writes minimal STORE-only (uncompressed) ZIP archives.
// PNG compression already happened upstream, so this writer just packages
// entries: a streaming, append-only local-header-then-data write per
// entry, followed by a central directory and end-of-central-directory
// record on Close.
package zipstore

import (
	"encoding/binary"
	"errors"
	"hash/crc32"
	"io"
	"os"
)

// ErrEntryTooLarge is returned when an entry's data exceeds the 32-bit
// STORE size limit this writer supports (no Zip64), or its name exceeds
// the 16-bit name-length field.
var ErrEntryTooLarge = errors.New("zipstore: entry exceeds 2^32-1 bytes")

// ErrTooManyEntries is returned when adding an entry would exceed the
// 16-bit central-directory entry count.
var ErrTooManyEntries = errors.New("zipstore: more than 65535 entries")

const (
	localFileHeaderSig = 0x04034B50
	centralDirSig      = 0x02014B50
	endOfCentralDirSig = 0x06054B50
	maxEntries         = 0xFFFF
	maxEntrySize       = 0xFFFFFFFF
)

type entryRecord struct {
	name       string
	crc32      uint32
	size       uint32
	headerOffs uint32
}

// Writer streams entries to an underlying file, tracking the metadata
// needed to emit the central directory on Close.
type Writer struct {
	f       *os.File
	entries []entryRecord
	offset  uint32
	failed  bool
}

// Create opens path for writing and returns a Writer ready to accept
// entries.
func Create(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &Writer{f: f}, nil
}

// AddFile writes one stored (uncompressed) entry. Entries over 2^32-1
// bytes, or adding a 65536th entry, fail without partially writing a
// corrupt record.
func (w *Writer) AddFile(name string, data []byte) error {
	if w.failed {
		return errors.New("zipstore: writer already failed")
	}
	if len(w.entries) >= maxEntries {
		w.failed = true
		return ErrTooManyEntries
	}
	if uint64(len(data)) > maxEntrySize || len(name) > 0xFFFF {
		w.failed = true
		return ErrEntryTooLarge
	}

	crc := crc32.ChecksumIEEE(data)
	size := uint32(len(data))
	headerOffset := w.offset

	if err := w.writeLocalFileHeader(name, crc, size); err != nil {
		w.failed = true
		return err
	}
	if len(data) > 0 {
		if _, err := w.write(data); err != nil {
			w.failed = true
			return err
		}
	}

	w.entries = append(w.entries, entryRecord{
		name:       name,
		crc32:      crc,
		size:       size,
		headerOffs: headerOffset,
	})
	return nil
}

// Close finalizes the archive: it writes the central directory and
// end-of-central-directory record, then closes the underlying file.
func (w *Writer) Close() error {
	if w.failed {
		w.f.Close()
		return errors.New("zipstore: writer already failed")
	}
	if len(w.entries) > maxEntries {
		w.f.Close()
		return ErrTooManyEntries
	}

	cdStart := w.offset
	for _, e := range w.entries {
		if err := w.writeCentralDirEntry(e); err != nil {
			w.f.Close()
			return err
		}
	}
	cdSize := w.offset - cdStart

	if err := w.writeEndOfCentralDir(uint16(len(w.entries)), cdSize, cdStart); err != nil {
		w.f.Close()
		return err
	}
	return w.f.Close()
}

// Abort closes the underlying file without writing a central directory,
// leaving a truncated, non-conformant archive on disk.
func (w *Writer) Abort() error {
	return w.f.Close()
}

func (w *Writer) write(p []byte) (int, error) {
	n, err := w.f.Write(p)
	w.offset += uint32(n)
	return n, err
}

func (w *Writer) writeU16(v uint16) error {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	_, err := w.write(b[:])
	return err
}

func (w *Writer) writeU32(v uint32) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	_, err := w.write(b[:])
	return err
}

func (w *Writer) writeLocalFileHeader(name string, crc, size uint32) error {
	fns := []func() error{
		func() error { return w.writeU32(localFileHeaderSig) },
		func() error { return w.writeU16(20) }, // version needed to extract
		func() error { return w.writeU16(0) },  // flags
		func() error { return w.writeU16(0) },  // method: store
		func() error { return w.writeU16(0) },  // mod time
		func() error { return w.writeU16(0) },  // mod date
		func() error { return w.writeU32(crc) },
		func() error { return w.writeU32(size) },
		func() error { return w.writeU32(size) },
		func() error { return w.writeU16(uint16(len(name))) },
		func() error { return w.writeU16(0) }, // extra len
	}
	for _, fn := range fns {
		if err := fn(); err != nil {
			return err
		}
	}
	_, err := w.write([]byte(name))
	return err
}

func (w *Writer) writeCentralDirEntry(e entryRecord) error {
	fns := []func() error{
		func() error { return w.writeU32(centralDirSig) },
		func() error { return w.writeU16(20) }, // version made by
		func() error { return w.writeU16(20) }, // version needed to extract
		func() error { return w.writeU16(0) },  // flags
		func() error { return w.writeU16(0) },  // method: store
		func() error { return w.writeU16(0) },  // mod time
		func() error { return w.writeU16(0) },  // mod date
		func() error { return w.writeU32(e.crc32) },
		func() error { return w.writeU32(e.size) },
		func() error { return w.writeU32(e.size) },
		func() error { return w.writeU16(uint16(len(e.name))) },
		func() error { return w.writeU16(0) }, // extra len
		func() error { return w.writeU16(0) }, // file comment len
		func() error { return w.writeU16(0) }, // disk number start
		func() error { return w.writeU16(0) }, // internal attrs
		func() error { return w.writeU32(0) }, // external attrs
		func() error { return w.writeU32(e.headerOffs) },
	}
	for _, fn := range fns {
		if err := fn(); err != nil {
			return err
		}
	}
	_, err := w.write([]byte(e.name))
	return err
}

func (w *Writer) writeEndOfCentralDir(count uint16, cdSize, cdOffset uint32) error {
	fns := []func() error{
		func() error { return w.writeU32(endOfCentralDirSig) },
		func() error { return w.writeU16(0) }, // disk num
		func() error { return w.writeU16(0) }, // start disk num
		func() error { return w.writeU16(count) },
		func() error { return w.writeU16(count) },
		func() error { return w.writeU32(cdSize) },
		func() error { return w.writeU32(cdOffset) },
		func() error { return w.writeU16(0) }, // comment len
	}
	for _, fn := range fns {
		if err := fn(); err != nil {
			return err
		}
	}
	return nil
}

var _ io.Closer = (*Writer)(nil)
