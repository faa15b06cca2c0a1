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

import (
	"encoding/json"
	"sort"
)

// References is a set of reference strings: object ids, instance ids and
// the selector tokens ("#id", ".class", "$layer") that contributed to a
// value.
type References map[string]struct{}

// NewReferences returns a set holding the given ids.
func NewReferences(ids ...string) References {
	r := make(References, len(ids))
	for _, id := range ids {
		r[id] = struct{}{}
	}
	return r
}

// Add inserts id into the set.
func (r References) Add(id string) {
	r[id] = struct{}{}
}

// AddAll inserts every member of other into the set.
func (r References) AddAll(other References) {
	for id := range other {
		r[id] = struct{}{}
	}
}

// Contains reports whether id is in the set.
func (r References) Contains(id string) bool {
	_, ok := r[id]
	return ok
}

// Clone returns a copy of the set.
func (r References) Clone() References {
	out := make(References, len(r))
	for id := range r {
		out[id] = struct{}{}
	}
	return out
}

// Sorted returns the members in lexical order.
func (r References) Sorted() []string {
	out := make([]string, 0, len(r))
	for id := range r {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// MergeReferences unions any number of sets into a new one. Nil sets are
// allowed.
func MergeReferences(refs ...References) References {
	out := make(References)
	for _, r := range refs {
		for id := range r {
			out[id] = struct{}{}
		}
	}
	return out
}

// MarshalJSON serializes the set as a sorted array.
func (r References) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Sorted())
}

// UnmarshalJSON restores the set from an array of strings.
func (r *References) UnmarshalJSON(data []byte) error {
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	*r = NewReferences(ids...)
	return nil
}
