// Copyright 2020-2021 Dolthub, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package timeline holds the object model of the timeline resolver: times,
// instances, enable clauses, references and the instance algebra shared by
// the resolver and the state composer.
package timeline

// Time is an opaque tick count supplied by the caller. The resolver has no
// clock of its own.
type Time uint64

// TimeMax is the largest representable time. It stands in for +infinity in
// interval arithmetic.
const TimeMax = Time(^uint64(0))

// TimePtr returns a pointer to t. Convenient for optional times.
func TimePtr(t Time) *Time {
	return &t
}

// orMax returns *t, or TimeMax when t is nil (an open end).
func orMax(t *Time) Time {
	if t == nil {
		return TimeMax
	}
	return *t
}

func minTime(a, b Time) Time {
	if a < b {
		return a
	}
	return b
}

func maxTime(a, b Time) Time {
	if a > b {
		return a
	}
	return b
}
