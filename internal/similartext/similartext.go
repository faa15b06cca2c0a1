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

// Package similartext suggests the closest matches to a name from a list,
// for friendlier "not found" messages.
package similartext

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// DistanceForStrings returns the edit distance between source and target.
func DistanceForStrings(source, target []rune) int {
	height := len(source) + 1
	width := len(target) + 1

	prev := make([]int, width)
	current := make([]int, width)
	for j := 0; j < width; j++ {
		prev[j] = j
	}

	for i := 1; i < height; i++ {
		current[0] = i
		for j := 1; j < width; j++ {
			cost := 1
			if source[i-1] == target[j-1] {
				cost = 0
			}
			current[j] = min3(
				prev[j]+1,
				current[j-1]+1,
				prev[j-1]+cost,
			)
		}
		prev, current = current, prev
	}

	return prev[width-1]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}

// Find returns a string with suggestions of the names closest to the given
// one, or an empty string when nothing is close enough. The result is meant
// to be appended to an error message.
func Find(names []string, name string) string {
	if name == "" || len(names) == 0 {
		return ""
	}

	minDistance := -1
	var matches []string

	for _, candidate := range names {
		distance := DistanceForStrings([]rune(candidate), []rune(name))
		switch {
		case minDistance == -1 || distance < minDistance:
			minDistance = distance
			matches = []string{candidate}
		case distance == minDistance:
			matches = append(matches, candidate)
		}
	}

	// Only suggest when the distance is small relative to the input; a
	// totally different name would make the suggestion absurd.
	threshold := len(name) / 2
	if threshold < 1 {
		threshold = 1
	}
	if minDistance > threshold {
		return ""
	}

	return fmt.Sprintf(", maybe you mean %s?", strings.Join(matches, " or "))
}

// FindFromMap does the same as Find, taking any map with string keys.
func FindFromMap(m interface{}, name string) string {
	v := reflect.ValueOf(m)
	if v.Kind() != reflect.Map {
		return ""
	}

	var names []string
	for _, key := range v.MapKeys() {
		if key.Kind() == reflect.String {
			names = append(names, key.String())
		}
	}
	sort.Strings(names)

	return Find(names, name)
}
