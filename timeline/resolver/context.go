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

// Package resolver turns the symbolic enable expressions of timeline
// objects into concrete instances, recursing through references and
// detecting self and circular references along the way.
package resolver

import (
	"sort"
	"strings"
	"sync"

	"github.com/dolthub/supertimeline/timeline"
)

// resolveStatus is the per-object resolving state. It only ever moves
// forward: Pending -> InProgress -> Complete.
type resolveStatus int

const (
	statusPending resolveStatus = iota
	statusInProgress
	statusComplete
)

// resolvingObject is one object in flight. The mutex allows the recursive
// reads and writes of dependency resolution; resolution itself is
// single-threaded.
type resolvingObject struct {
	info *timeline.ObjectInfo

	mu               sync.RWMutex
	status           resolveStatus
	selfReferencing  bool
	instances        []*timeline.Instance
	directReferences timeline.References
}

func (o *resolvingObject) isSelfReferencing() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.selfReferencing
}

// markSelfReferencing records a self-reference on an object that is being
// resolved right now.
func (o *resolvingObject) markSelfReferencing() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.status == statusInProgress {
		o.selfReferencing = true
	}
}

// Context is the shared store of one resolve call: every flattened object
// with its resolving status, plus the class and layer registries.
type Context struct {
	*timeline.Context

	Options timeline.ResolveOptions

	objects map[string]*resolvingObject
	classes map[string][]string
	layers  map[string][]string
}

func (c *Context) getObject(id string) *resolvingObject {
	return c.objects[id]
}

func (c *Context) objectIDsForClass(class string) []string {
	return c.classes[class]
}

func (c *Context) objectIDsForLayer(layer string) []string {
	return c.layers[layer]
}

// ResolveTimeline flattens the given objects, resolves every one of them
// (recursing through references), and returns the completed timeline.
func ResolveTimeline(ctx *timeline.Context, objects []timeline.TimelineObject, options timeline.ResolveOptions) (*timeline.ResolvedTimeline, error) {
	resolved := &timeline.ResolvedTimeline{
		Options: options,
		Objects: make(map[string]*timeline.ResolvedObject),
		Classes: make(map[string][]string),
		Layers:  make(map[string][]string),
	}

	rctx := &Context{
		Context: ctx,
		Options: options,
		objects: make(map[string]*resolvingObject),
		classes: resolved.Classes,
		layers:  resolved.Layers,
	}

	for i := range objects {
		if err := rctx.addObject(&objects[i], 0, ""); err != nil {
			return nil, err
		}
	}

	ids := make([]string, 0, len(rctx.objects))
	for id := range rctx.objects {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		if err := rctx.resolveObject(rctx.objects[id]); err != nil {
			return nil, err
		}
	}

	var unresolved []string
	for _, id := range ids {
		obj := rctx.objects[id]
		obj.mu.RLock()
		status := obj.status
		obj.mu.RUnlock()

		if status != statusComplete {
			unresolved = append(unresolved, id)
			continue
		}

		resolved.Objects[id] = &timeline.ResolvedObject{
			Info:              obj.info,
			Instances:         obj.instances,
			DirectReferences:  obj.directReferences,
			IsSelfReferencing: obj.selfReferencing,
		}
	}

	if len(unresolved) > 0 {
		return nil, timeline.ErrUnresolvedObjects.New(strings.Join(unresolved, ", "))
	}

	return resolved, nil
}

// addObject flattens one object (and its children and keyframes) into the
// context, registering classes and layers as it goes.
func (c *Context) addObject(obj *timeline.TimelineObject, depth int, parentID string) error {
	if _, ok := c.objects[obj.ID]; ok {
		return timeline.ErrDuplicateObjectID.New(obj.ID)
	}

	info := &timeline.ObjectInfo{
		ID:       obj.ID,
		Enable:   obj.Enable,
		Priority: obj.Priority,
		Disabled: obj.Disabled,
		Layer:    obj.Layer,
		Depth:    depth,
		ParentID: parentID,
	}

	for i := range obj.Children {
		if err := c.addObject(&obj.Children[i], depth+1, obj.ID); err != nil {
			return err
		}
	}

	for i := range obj.Keyframes {
		keyframe := &obj.Keyframes[i]
		if _, ok := c.objects[keyframe.ID]; ok {
			return timeline.ErrDuplicateObjectID.New(keyframe.ID)
		}
		c.objects[keyframe.ID] = &resolvingObject{
			info: &timeline.ObjectInfo{
				ID:         keyframe.ID,
				Enable:     keyframe.Enable,
				Disabled:   keyframe.Disabled,
				Depth:      depth + 1,
				ParentID:   obj.ID,
				IsKeyframe: true,
			},
		}
	}

	for _, class := range obj.Classes {
		c.classes[class] = append(c.classes[class], obj.ID)
	}
	if obj.Layer != "" {
		c.layers[obj.Layer] = append(c.layers[obj.Layer], obj.ID)
	}

	// The children (and keyframes) were flattened first; one of them may
	// have claimed this id in the meantime.
	if _, ok := c.objects[obj.ID]; ok {
		return timeline.ErrDuplicateObjectID.New(obj.ID)
	}
	c.objects[obj.ID] = &resolvingObject{info: info}
	return nil
}
