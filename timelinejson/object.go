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

// Package timelinejson decodes timelines from their JSON (or YAML) wire
// form into the concrete object model. The wire form is forgiving:
// wherever an expression is allowed, the value may be a number, a boolean
// or a string, a single enable object stands for a one-element clause
// list, and fractional start times are rounded.
package timelinejson

import (
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cast"
	yaml "gopkg.in/yaml.v2"

	"github.com/dolthub/supertimeline/timeline"
	"github.com/dolthub/supertimeline/timeline/expression"
)

// UnmarshalTimeline decodes a JSON array of timeline objects.
func UnmarshalTimeline(data []byte) ([]timeline.TimelineObject, error) {
	var raw []interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, "decoding timeline JSON")
	}
	return timelineFromGeneric(raw)
}

// UnmarshalTimelineYAML decodes a YAML list of timeline objects.
func UnmarshalTimelineYAML(data []byte) ([]timeline.TimelineObject, error) {
	var raw []interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, "decoding timeline YAML")
	}
	return timelineFromGeneric(raw)
}

func timelineFromGeneric(raw []interface{}) ([]timeline.TimelineObject, error) {
	objects := make([]timeline.TimelineObject, 0, len(raw))
	for i, rawObj := range raw {
		obj, err := objectFromGeneric(rawObj)
		if err != nil {
			return nil, errors.Wrapf(err, "object %d", i)
		}
		objects = append(objects, obj)
	}
	return objects, nil
}

// normalizeMap turns YAML's map[interface{}]interface{} into string-keyed
// maps so both decoders share one code path.
func normalizeMap(raw interface{}) (map[string]interface{}, bool) {
	switch m := raw.(type) {
	case map[string]interface{}:
		return m, true
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(m))
		for k, v := range m {
			out[fmt.Sprintf("%v", k)] = v
		}
		return out, true
	default:
		return nil, false
	}
}

func objectFromGeneric(raw interface{}) (timeline.TimelineObject, error) {
	var obj timeline.TimelineObject

	fields, ok := normalizeMap(raw)
	if !ok {
		return obj, errors.Errorf("expected an object, got %T", raw)
	}

	var err error
	if obj.ID, err = cast.ToStringE(fields["id"]); err != nil {
		return obj, errors.Wrap(err, "id")
	}
	if obj.ID == "" {
		return obj, errors.New("missing object id")
	}

	if layer, ok := fields["layer"]; ok {
		if obj.Layer, err = cast.ToStringE(layer); err != nil {
			return obj, errors.Wrap(err, "layer")
		}
	}
	if priority, ok := fields["priority"]; ok {
		if obj.Priority, err = cast.ToInt64E(priority); err != nil {
			return obj, errors.Wrap(err, "priority")
		}
	}
	if disabled, ok := fields["disabled"]; ok {
		if obj.Disabled, err = cast.ToBoolE(disabled); err != nil {
			return obj, errors.Wrap(err, "disabled")
		}
	}
	if classes, ok := fields["classes"]; ok {
		if obj.Classes, err = cast.ToStringSliceE(classes); err != nil {
			return obj, errors.Wrap(err, "classes")
		}
	}

	if obj.Enable, err = enableFromGeneric(fields["enable"]); err != nil {
		return obj, errors.Wrap(err, "enable")
	}

	if children, ok := fields["children"]; ok && children != nil {
		rawChildren, ok := children.([]interface{})
		if !ok {
			return obj, errors.Errorf("children: expected a list, got %T", children)
		}
		for i, rawChild := range rawChildren {
			child, err := objectFromGeneric(rawChild)
			if err != nil {
				return obj, errors.Wrapf(err, "child %d", i)
			}
			obj.Children = append(obj.Children, child)
		}
	}

	if keyframes, ok := fields["keyframes"]; ok && keyframes != nil {
		rawKeyframes, ok := keyframes.([]interface{})
		if !ok {
			return obj, errors.Errorf("keyframes: expected a list, got %T", keyframes)
		}
		for i, rawKeyframe := range rawKeyframes {
			keyframe, err := keyframeFromGeneric(rawKeyframe)
			if err != nil {
				return obj, errors.Wrapf(err, "keyframe %d", i)
			}
			obj.Keyframes = append(obj.Keyframes, keyframe)
		}
	}

	return obj, nil
}

func keyframeFromGeneric(raw interface{}) (timeline.Keyframe, error) {
	var keyframe timeline.Keyframe

	fields, ok := normalizeMap(raw)
	if !ok {
		return keyframe, errors.Errorf("expected an object, got %T", raw)
	}

	var err error
	if keyframe.ID, err = cast.ToStringE(fields["id"]); err != nil {
		return keyframe, errors.Wrap(err, "id")
	}
	if keyframe.ID == "" {
		return keyframe, errors.New("missing keyframe id")
	}
	if disabled, ok := fields["disabled"]; ok {
		if keyframe.Disabled, err = cast.ToBoolE(disabled); err != nil {
			return keyframe, errors.Wrap(err, "disabled")
		}
	}
	if classes, ok := fields["classes"]; ok {
		if keyframe.Classes, err = cast.ToStringSliceE(classes); err != nil {
			return keyframe, errors.Wrap(err, "classes")
		}
	}

	if keyframe.Enable, err = enableFromGeneric(fields["enable"]); err != nil {
		return keyframe, errors.Wrap(err, "enable")
	}

	return keyframe, nil
}

// enableFromGeneric accepts either a single enable object or a list of
// them.
func enableFromGeneric(raw interface{}) ([]timeline.Enable, error) {
	if raw == nil {
		return nil, nil
	}

	if list, ok := raw.([]interface{}); ok {
		enables := make([]timeline.Enable, 0, len(list))
		for i, rawEnable := range list {
			enable, err := enableClauseFromGeneric(rawEnable)
			if err != nil {
				return nil, errors.Wrapf(err, "clause %d", i)
			}
			enables = append(enables, enable)
		}
		return enables, nil
	}

	enable, err := enableClauseFromGeneric(raw)
	if err != nil {
		return nil, err
	}
	return []timeline.Enable{enable}, nil
}

func enableClauseFromGeneric(raw interface{}) (timeline.Enable, error) {
	var enable timeline.Enable

	fields, ok := normalizeMap(raw)
	if !ok {
		return enable, errors.Errorf("expected an enable object, got %T", raw)
	}

	var err error
	if v, ok := fields["start"]; ok {
		if enable.Start, err = expression.FromValue(v); err != nil {
			return enable, errors.Wrap(err, "start")
		}
	}
	if v, ok := fields["end"]; ok {
		if enable.End, err = expression.FromValue(v); err != nil {
			return enable, errors.Wrap(err, "end")
		}
	}
	if v, ok := fields["while"]; ok {
		if enable.While, err = expression.FromValue(v); err != nil {
			return enable, errors.Wrap(err, "while")
		}
	}
	if v, ok := fields["duration"]; ok {
		if enable.Duration, err = expression.FromValue(v); err != nil {
			return enable, errors.Wrap(err, "duration")
		}
	}
	if v, ok := fields["repeating"]; ok {
		if enable.Repeating, err = expression.FromValue(v); err != nil {
			return enable, errors.Wrap(err, "repeating")
		}
	}

	return enable, nil
}
