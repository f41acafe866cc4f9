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

// Internal numeric error codes written to a caller's errOut pointer.
// These never propagate as Go errors or panics across the C boundary;
// every exported function instead returns 0 (or an empty handle) and
// sets one of these.
const (
	errCodeNone              int32 = 0
	errCodeInvalidArgument   int32 = 1
	errCodeTruncatedInput    int32 = 2
	errCodeResourceExhausted int32 = 3
	errCodeExternalFailure   int32 = 4
	errCodeCapacityExceeded  int32 = 5
)
