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

package abi

import (
	"sync"

	"github.com/layerpipe/core/internal/areastats"
	"github.com/layerpipe/core/zipstore"
)

// handleTable hands out monotonically increasing uint64 handles for
// values of one kind (bytes, int32 arrays, area arrays, or ZIP writers),
// so the C side only ever holds an opaque integer, never a Go pointer.
type handleTable[T any] struct {
	mu      sync.Mutex
	next    uint64
	entries map[uint64]T
}

func newHandleTable[T any]() *handleTable[T] {
	return &handleTable[T]{entries: make(map[uint64]T)}
}

func (t *handleTable[T]) put(v T) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.next++
	h := t.next
	t.entries[h] = v
	return h
}

func (t *handleTable[T]) get(h uint64) (T, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	v, ok := t.entries[h]
	return v, ok
}

func (t *handleTable[T]) release(h uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.entries[h]; !ok {
		return false
	}
	delete(t.entries, h)
	return true
}

var (
	byteHandles  = newHandleTable[[]byte]()
	int32Handles = newHandleTable[[]int32]()
	areaHandles  = newHandleTable[[]areastats.Stats]()
	zipHandles   = newHandleTable[*zipstore.Writer]()
)
