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

import "github.com/dolthub/supertimeline/timeline/expression"

// Enable describes one enable clause of an object. Exactly one of Start and
// While carries the start meaning; While cannot be combined with End or
// Duration, and End and Duration are mutually exclusive. All fields are
// optional expressions (nil = unset).
type Enable struct {
	// Start is the begin-time expression.
	Start expression.Expression
	// End is the end-time expression. Cannot be combined with Duration.
	End expression.Expression
	// While enables the object while the expression is "on"; it sets both
	// the start and the end.
	While expression.Expression
	// Duration is the length expression.
	Duration expression.Expression
	// Repeating makes the instances repeat with the given period.
	Repeating expression.Expression
}

// TimelineObject is the concrete input object. External shapes are expected
// to be converted into this plain record once, rather than resolved through
// dynamic dispatch.
type TimelineObject struct {
	// ID must be unique and non-empty.
	ID string
	// Enable clauses union their resulting instances.
	Enable []Enable
	// Layer the object competes for. The empty string makes the object an
	// ethereal group: it never occupies a layer but still caps children.
	Layer string
	// Classes this object is tagged with, for ".class" references.
	Classes []string
	// Disabled objects are excluded from state composition but remain
	// resolvable as reference targets.
	Disabled bool
	// Priority breaks layer ties; higher wins.
	Priority int64
	// Children makes this object a group; children are capped inside it.
	Children []TimelineObject
	// Keyframes overlay content on the state of this object's layer.
	Keyframes []Keyframe
}

// Keyframe is resolved like an object but composed into a separate
// per-layer slot instead of competing for the layer.
type Keyframe struct {
	ID       string
	Enable   []Enable
	Classes  []string
	Disabled bool
}

// ObjectInfo is the immutable metadata of a flattened object.
type ObjectInfo struct {
	ID       string   `json:"id"`
	Enable   []Enable `json:"enable"`
	Priority int64    `json:"priority"`
	Disabled bool     `json:"disabled,omitempty"`
	Layer    string   `json:"layer"`

	// Depth increases for every level of group nesting.
	Depth int `json:"depth"`
	// ParentID is the id of the containing group, or empty.
	ParentID string `json:"parentId,omitempty"`
	// IsKeyframe is true when the object was flattened from a keyframe.
	IsKeyframe bool `json:"isKeyframe,omitempty"`
}

// ResolvedObject is the outcome of resolving one object.
type ResolvedObject struct {
	Info *ObjectInfo `json:"info"`
	// Instances are disjoint, sorted by start, and all satisfy end > start.
	Instances []*Instance `json:"instances"`
	// DirectReferences contains every selector consulted while computing
	// the object, whether or not it contributed instances.
	DirectReferences References `json:"directReferences"`
	// IsSelfReferencing is true when the object references itself, directly
	// or through a circular route that leads back to it during resolution.
	IsSelfReferencing bool `json:"isSelfReferencing,omitempty"`
}

// ResolvedTimeline is the immutable product of one resolve call.
type ResolvedTimeline struct {
	Options ResolveOptions             `json:"options"`
	Objects map[string]*ResolvedObject `json:"objects"`
	// Classes maps a class name to the ids tagged with it.
	Classes map[string][]string `json:"classes"`
	// Layers maps a layer name to the ids placed on it.
	Layers map[string][]string `json:"layers"`
}
