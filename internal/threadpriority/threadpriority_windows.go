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

//go:build windows

package threadpriority

import (
	"runtime"

	"golang.org/x/sys/windows"
)

// kernel32 thread-priority calls aren't part of x/sys/windows' curated
// wrapper set, so they're resolved the same lazy-DLL way x/sys itself
// resolves anything outside that set.
var (
	modkernel32           = windows.NewLazySystemDLL("kernel32.dll")
	procGetCurrentThread  = modkernel32.NewProc("GetCurrentThread")
	procSetThreadPriority = modkernel32.NewProc("SetThreadPriority")
)

const (
	threadPriorityNormal      int32 = 0
	threadPriorityBelowNormal int32 = -1
)

func setBackground(background bool) bool {
	// A goroutine isn't pinned to an OS thread by default; the priority
	// call only means something if we lock this one down first.
	runtime.LockOSThread()

	prio := threadPriorityNormal
	if background {
		prio = threadPriorityBelowNormal
	}

	handle, _, _ := procGetCurrentThread.Call()
	ret, _, _ := procSetThreadPriority.Call(handle, uintptr(uint32(prio)))

	if !background {
		runtime.UnlockOSThread()
	}
	return ret != 0
}
