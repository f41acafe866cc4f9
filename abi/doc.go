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

// Package abi re-exposes the pipeline, zipstore and internal/gpu
// packages as a flat C-callable surface: fixed-width integers, pointers
// and byte arrays in, an opaque uint64 handle or a 0/1 boolean out.
//
// Every heap allocation crossing the boundary is owned by a handle
// table here, not by a raw pointer: a C caller gets back a uint64, and
// releases it with the matching free_* function once it is done. This
// keeps cgo's "C code must not retain a Go pointer" rule trivially
// satisfied, since the only things that cross the boundary are handle
// integers, copied C buffers, and value types.
//
// Building this package requires cgo; with CGO_ENABLED=0 the exported
// surface is simply absent; every other package in this module still
// builds and works.
package abi
