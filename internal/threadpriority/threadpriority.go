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

// Package threadpriority hints the OS scheduler to lower or restore the
// calling goroutine's underlying OS thread priority. It only has an
// effect on Windows, where batch worker threads are told to run below
// normal priority so a large layer-processing job doesn't starve the
// rest of the system; everywhere else it's a no-op.
package threadpriority

// SetBackground hints that the current OS thread should run at reduced
// (background == true) or normal (background == false) priority. It
// reports whether the hint was applied; platforms without a priority
// API always report false.
func SetBackground(background bool) bool {
	return setBackground(background)
}
