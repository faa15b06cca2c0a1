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

package timeline

// DefaultLimitCount bounds how many repetitions of a repeating object are
// produced when ResolveOptions.LimitCount is not set: the current one and
// the next.
const DefaultLimitCount = 2

// ResolveOptions control one resolve call.
type ResolveOptions struct {
	// Time is the base time to resolve for; usually the caller's "now".
	Time Time `json:"time"`
	// LimitCount bounds the number of repetitions resolved into the
	// future. Nil means DefaultLimitCount.
	LimitCount *int `json:"limitCount,omitempty"`
	// LimitTime stops repetitions at a point in the future.
	LimitTime *Time `json:"limitTime,omitempty"`
}

// RepeatLimit returns the effective repetition count.
func (o ResolveOptions) RepeatLimit() int {
	if o.LimitCount != nil {
		return *o.LimitCount
	}
	return DefaultLimitCount
}
