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

// Package state flattens a resolved timeline into per-layer occupancy over
// time: which object holds each layer at every moment, which keyframes
// apply, and the list of upcoming state transitions.
package state

import (
	"fmt"
	"sort"

	"github.com/dolthub/supertimeline/timeline"
)

// EventType classifies a next-event.
type EventType int

const (
	// EventStart marks an object taking a layer.
	EventStart EventType = iota
	// EventEnd marks an object leaving a layer.
	EventEnd
	// EventKeyFrame marks a keyframe turning on or off.
	EventKeyFrame
)

func (e EventType) String() string {
	switch e {
	case EventStart:
		return "start"
	case EventEnd:
		return "end"
	case EventKeyFrame:
		return "keyframe"
	default:
		return fmt.Sprintf("EventType(%d)", int(e))
	}
}

// NextEvent is one upcoming state transition.
type NextEvent struct {
	EventType EventType     `json:"eventType"`
	Time      timeline.Time `json:"time"`
	ObjectID  string        `json:"objectId"`
}

// KeyframeInstance is a keyframe applied on top of a layer state.
type KeyframeInstance struct {
	Info *timeline.ObjectInfo `json:"info"`
	// EndTime is when the keyframe stops applying (nil = with its parent).
	EndTime *timeline.Time `json:"endTime,omitempty"`
}

// LayerState is the content of one layer at one point in time: the chosen
// object's state instance plus any keyframes active on it.
type LayerState struct {
	ObjectID   string               `json:"objectId"`
	InstanceID string               `json:"instanceId,omitempty"`
	Instance   *timeline.Instance   `json:"instance,omitempty"`
	Keyframes  []*KeyframeInstance  `json:"keyframes,omitempty"`
}

// AllStates indexes layer snapshots by layer and time. A nil snapshot marks
// the layer becoming empty at that time.
type AllStates map[string]map[timeline.Time]*LayerState

// StateObject collects the state instances minted for one object during
// composition.
type StateObject struct {
	Info      *timeline.ObjectInfo          `json:"info"`
	Instances map[string]*timeline.Instance `json:"instances"`
}

// ResolvedStates is the product of state composition.
type ResolvedStates struct {
	State      AllStates               `json:"state"`
	NextEvents []NextEvent             `json:"nextEvents"`
	Objects    map[string]*StateObject `json:"objects"`
	Layers     map[string][]string     `json:"layers"`
}

// TimelineState is the answer to a state query: the layers at one time.
type TimelineState struct {
	Time       timeline.Time          `json:"time"`
	Layers     map[string]*LayerState `json:"layers"`
	NextEvents []NextEvent            `json:"nextEvents"`
}

// resolvedInstance pairs an object's metadata with one of its instances.
type resolvedInstance struct {
	info       *timeline.ObjectInfo
	instanceID string
	instance   *timeline.Instance
}

// pointInTime is one point-of-interest: an instance turning on or off.
type pointInTime struct {
	enable bool
	obj    *resolvedInstance
}

type timeEvent struct {
	time   timeline.Time
	enable bool
}

// ResolveAllStates sweeps the points-of-interest of a resolved timeline
// chronologically and produces the per-layer state track plus the
// next-event list. With onlyForTime set, only instances covering that time
// are considered and only events strictly after it are reported.
func ResolveAllStates(resolved *timeline.ResolvedTimeline, onlyForTime *timeline.Time) (*ResolvedStates, error) {
	resolvedObjects := make([]*timeline.ResolvedObject, 0, len(resolved.Objects))
	for _, obj := range resolved.Objects {
		resolvedObjects = append(resolvedObjects, obj)
	}
	// Parent groups must be evaluated before their children.
	sort.Slice(resolvedObjects, func(i, j int) bool {
		a, b := resolvedObjects[i], resolvedObjects[j]
		if a.Info.Depth != b.Info.Depth {
			return a.Info.Depth < b.Info.Depth
		}
		return a.Info.ID < b.Info.ID
	})

	// Step 1: collect the points-of-interest.
	pointsInTime := make(map[timeline.Time][]*pointInTime)
	addPointInTime := func(time timeline.Time, enable bool, obj *resolvedInstance) {
		pointsInTime[time] = append(pointsInTime[time], &pointInTime{enable: enable, obj: obj})
	}

	for _, obj := range resolvedObjects {
		if obj.Info.Disabled || obj.Info.Layer == "" || obj.Info.IsKeyframe {
			continue
		}

		for _, instance := range obj.Instances {
			if onlyForTime != nil &&
				!(instance.Start <= *onlyForTime && instance.EndOrMax() > *onlyForTime) {
				continue
			}

			timeEvents := []timeEvent{{time: instance.Start, enable: true}}
			if instance.End != nil {
				timeEvents = append(timeEvents, timeEvent{time: *instance.End, enable: false})
			}

			// Boundaries of the parents inside this instance can change
			// the instance's visibility.
			for _, parentTime := range timesFromParents(resolved, obj) {
				if parentTime.time > instance.Start && parentTime.time < instance.EndOrMax() {
					timeEvents = append(timeEvents, parentTime)
				}
			}

			inner := &resolvedInstance{info: obj.Info, instanceID: instance.ID, instance: instance}
			for _, te := range timeEvents {
				addPointInTime(te.time, te.enable, inner)
			}
		}
	}

	// Keyframes contribute their own boundaries.
	for _, obj := range resolvedObjects {
		if obj.Info.Disabled || !obj.Info.IsKeyframe || obj.Info.ParentID == "" {
			continue
		}
		for _, instance := range obj.Instances {
			inner := &resolvedInstance{info: obj.Info, instanceID: instance.ID, instance: instance}
			addPointInTime(instance.Start, true, inner)
			if instance.End != nil {
				addPointInTime(*instance.End, false, inner)
			}
		}
	}

	// Step 2: sweep the points chronologically, tracking who aspires to
	// each layer and who currently holds it.
	currentState := make(map[string]*resolvedInstance)
	activeObjectIDs := make(map[string]*resolvedInstance)
	activeKeyframes := make(map[string]*resolvedInstance)
	activeKeyframesChecked := make(map[string]struct{})

	eventObjectTimes := make(map[timeline.Time]struct{})

	resolvedStates := &ResolvedStates{
		State:   make(AllStates),
		Objects: make(map[string]*StateObject),
		Layers:  make(map[string][]string),
	}

	aspiringInstances := make(map[string][]*resolvedInstance)

	var keyframeEvents []NextEvent

	times := make([]timeline.Time, 0, len(pointsInTime))
	for t := range pointsInTime {
		times = append(times, t)
	}
	sort.Slice(times, func(i, j int) bool { return times[i] < times[j] })

	for _, time := range times {
		checkedThisTime := make(map[string]struct{})

		instancesToCheck := append([]*pointInTime(nil), pointsInTime[time]...)
		sort.SliceStable(instancesToCheck, func(i, j int) bool {
			a, b := instancesToCheck[i], instancesToCheck[j]

			// Keyframes come first.
			if a.obj.info.IsKeyframe != b.obj.info.IsKeyframe {
				return a.obj.info.IsKeyframe
			}
			// Ending events come before starting events.
			if a.enable != b.enable {
				return !a.enable
			}
			// Parent groups are checked before their children.
			if a.obj.info.Depth != b.obj.info.Depth {
				return a.obj.info.Depth < b.obj.info.Depth
			}
			return a.obj.info.ID < b.obj.info.ID
		})

		for _, o := range instancesToCheck {
			obj := o.obj
			instance := obj.instance

			toBeEnabled := instance.Start <= time && instance.EndOrMax() > time

			identifier := fmt.Sprintf("%s_%s_%t", obj.info.ID, instance.ID, o.enable)
			if _, seen := checkedThisTime[identifier]; seen {
				// Each object and event type is only checked once per
				// point in time.
				continue
			}
			checkedThisTime[identifier] = struct{}{}

			if obj.info.IsKeyframe {
				resolvedStates.Objects[obj.info.ID] = &StateObject{
					Info:      obj.info,
					Instances: map[string]*timeline.Instance{obj.instanceID: obj.instance},
				}

				if toBeEnabled {
					activeKeyframes[obj.info.ID] = obj
				} else {
					delete(activeKeyframes, obj.info.ID)
					delete(activeKeyframesChecked, obj.info.ID)
				}
				continue
			}

			// A child is only eligible while its layered parent actually
			// holds a layer.
			if toBeEnabled && obj.info.ParentID != "" {
				if parentObj, ok := resolved.Objects[obj.info.ParentID]; ok {
					_, parentActive := activeObjectIDs[parentObj.Info.ID]
					toBeEnabled = parentObj.Info.Layer == "" || parentActive
				}
			}

			layer := obj.info.Layer

			if toBeEnabled {
				aspiringInstances[layer] = append(aspiringInstances[layer], obj)
				sortAspiring(aspiringInstances[layer])
			} else {
				filtered := aspiringInstances[layer][:0]
				for _, aspiring := range aspiringInstances[layer] {
					if aspiring.info.ID != obj.info.ID {
						filtered = append(filtered, aspiring)
					}
				}
				aspiringInstances[layer] = filtered
			}

			// The top of the aspiring queue has the throne.
			var newObjOnLayer *resolvedInstance
			if len(aspiringInstances[layer]) > 0 {
				newObjOnLayer = aspiringInstances[layer][0]
			}
			prevObjOnLayer := currentState[layer]

			replaceOldObj := newObjOnLayer != nil &&
				(prevObjOnLayer == nil ||
					prevObjOnLayer.info.ID != newObjOnLayer.info.ID ||
					prevObjOnLayer.instanceID != newObjOnLayer.instanceID)
			removeOldObj := prevObjOnLayer != nil && newObjOnLayer == nil

			if replaceOldObj || removeOldObj {
				if prevObjOnLayer != nil {
					// Close the previous holder at this point in time.
					timeline.SetInstanceEndTime(prevObjOnLayer.instance, time)

					delete(activeObjectIDs, prevObjOnLayer.info.ID)

					if onlyForTime == nil || time > *onlyForTime {
						resolvedStates.NextEvents = append(resolvedStates.NextEvents, NextEvent{
							EventType: EventEnd,
							Time:      time,
							ObjectID:  prevObjOnLayer.info.ID,
						})
						if instance.End != nil {
							eventObjectTimes[*instance.End] = struct{}{}
						}
					}
				}
			}

			if replaceOldObj {
				stateObj, ok := resolvedStates.Objects[newObjOnLayer.info.ID]
				if !ok {
					stateObj = &StateObject{
						Info:      newObjOnLayer.info,
						Instances: make(map[string]*timeline.Instance),
					}
					if layerID := stateObj.Info.Layer; layerID != "" {
						resolvedStates.Layers[layerID] = append(resolvedStates.Layers[layerID], stateObj.Info.ID)
					}
					resolvedStates.Objects[newObjOnLayer.info.ID] = stateObj
				}

				// Mint a fresh state instance whose bounds match the state
				// track, pointing back at its source.
				newInstance := newObjOnLayer.instance.Clone()
				newInstance.Start = time
				newInstance.End = nil
				newInstance.FromInstanceID = newObjOnLayer.instance.ID
				if newInstance.OriginalEnd == nil {
					newInstance.OriginalEnd = newObjOnLayer.instance.End
				}
				if newInstance.OriginalStart == nil {
					newInstance.OriginalStart = timeline.TimePtr(newObjOnLayer.instance.Start)
				}
				for existingID := range stateObj.Instances {
					if existingID == newInstance.ID {
						newInstance.ID = fmt.Sprintf("%s_$%d", newInstance.ID, len(stateObj.Instances))
					}
				}
				stateObj.Instances[newInstance.ID] = newInstance

				newObjInstance := &resolvedInstance{
					info:       stateObj.Info,
					instanceID: newInstance.ID,
					instance:   newInstance,
				}

				currentState[layer] = newObjInstance
				activeObjectIDs[newObjInstance.info.ID] = newObjInstance

				setStateAtTime(resolvedStates.State, layer, time, newObjInstance)

				var onlyFor timeline.Time
				if onlyForTime != nil {
					onlyFor = *onlyForTime
				}
				if newInstance.Start > onlyFor {
					resolvedStates.NextEvents = append(resolvedStates.NextEvents, NextEvent{
						EventType: EventStart,
						Time:      newInstance.Start,
						ObjectID:  newObjInstance.info.ID,
					})
					eventObjectTimes[newInstance.Start] = struct{}{}
				}
			} else if removeOldObj {
				delete(currentState, layer)
				setStateAtTime(resolvedStates.State, layer, time, nil)
			}
		}

		// Attach keyframes whose parent currently holds its layer.
		keyframeIDs := make([]string, 0, len(activeKeyframes))
		for id := range activeKeyframes {
			keyframeIDs = append(keyframeIDs, id)
		}
		sort.Strings(keyframeIDs)

		for _, objID := range keyframeIDs {
			keyframe := activeKeyframes[objID]
			instance := keyframe.instance

			unhandled := true

			parentObj := activeObjectIDs[keyframe.info.ParentID]
			if parentObj != nil && parentObj.info.Layer != "" {
				if parentObjInstance := currentState[parentObj.info.Layer]; parentObjInstance != nil {
					if _, checked := activeKeyframesChecked[objID]; !checked {
						// The keyframe starts applying now.
						activeKeyframesChecked[objID] = struct{}{}

						keyframeInstance := &KeyframeInstance{
							Info:    keyframe.info,
							EndTime: instance.End,
						}
						addKeyframeAtTime(resolvedStates.State, parentObj.info.Layer, time, keyframeInstance)

						keyframeEvents = append(keyframeEvents, NextEvent{
							EventType: EventKeyFrame,
							Time:      instance.Start,
							ObjectID:  keyframe.info.ID,
						})

						if instance.End != nil {
							parentEnd := parentObjInstance.instance.End
							if parentEnd == nil || *instance.End < *parentEnd {
								// Only report the keyframe end when it
								// precedes its parent's end.
								keyframeEvents = append(keyframeEvents, NextEvent{
									EventType: EventKeyFrame,
									Time:      *instance.End,
									ObjectID:  keyframe.info.ID,
								})
							}
						}
					} else {
						unhandled = false
					}
				}
			}

			if unhandled {
				delete(activeKeyframesChecked, objID)
			}
		}
	}

	// Keyframe events only count where no object event already sits.
	for _, event := range keyframeEvents {
		if _, taken := eventObjectTimes[event.Time]; !taken {
			eventObjectTimes[event.Time] = struct{}{}
			resolvedStates.NextEvents = append(resolvedStates.NextEvents, event)
		}
	}

	if onlyForTime != nil {
		filtered := resolvedStates.NextEvents[:0]
		for _, e := range resolvedStates.NextEvents {
			if e.Time > *onlyForTime {
				filtered = append(filtered, e)
			}
		}
		resolvedStates.NextEvents = filtered
	}

	sort.SliceStable(resolvedStates.NextEvents, func(i, j int) bool {
		a, b := resolvedStates.NextEvents[i], resolvedStates.NextEvents[j]
		if a.Time != b.Time {
			return a.Time < b.Time
		}
		if a.EventType != b.EventType {
			return a.EventType > b.EventType
		}
		return a.ObjectID < b.ObjectID
	})

	return resolvedStates, nil
}

// sortAspiring orders a layer's aspiring queue: highest priority first,
// then the latest start, then id.
func sortAspiring(instances []*resolvedInstance) {
	sort.SliceStable(instances, func(i, j int) bool {
		a, b := instances[i], instances[j]
		if a.info.Priority != b.info.Priority {
			return a.info.Priority > b.info.Priority
		}
		if a.instance.Start != b.instance.Start {
			return a.instance.Start > b.instance.Start
		}
		return a.info.ID < b.info.ID
	})
}

// timesFromParents gathers the instance boundaries of every ancestor of
// obj.
func timesFromParents(resolved *timeline.ResolvedTimeline, obj *timeline.ResolvedObject) []timeEvent {
	var times []timeEvent

	if obj.Info.ParentID == "" {
		return times
	}
	parentObj, ok := resolved.Objects[obj.Info.ParentID]
	if !ok {
		return times
	}

	for _, instance := range parentObj.Instances {
		times = append(times, timeEvent{time: instance.Start, enable: true})
		if instance.End != nil {
			times = append(times, timeEvent{time: *instance.End, enable: false})
		}
	}

	return append(times, timesFromParents(resolved, parentObj)...)
}

func setStateAtTime(states AllStates, layer string, time timeline.Time, instance *resolvedInstance) {
	layerStates := states[layer]
	if layerStates == nil {
		layerStates = make(map[timeline.Time]*LayerState)
		states[layer] = layerStates
	}

	if instance == nil {
		layerStates[time] = nil
		return
	}
	layerStates[time] = &LayerState{
		ObjectID:   instance.info.ID,
		InstanceID: instance.instanceID,
		Instance:   instance.instance,
	}
}

func addKeyframeAtTime(states AllStates, layer string, time timeline.Time, keyframe *KeyframeInstance) {
	layerStates := states[layer]
	if layerStates == nil {
		layerStates = make(map[timeline.Time]*LayerState)
		states[layer] = layerStates
	}

	existing, ok := layerStates[time]
	if !ok {
		layerStates[time] = &LayerState{
			ObjectID:  keyframe.Info.ID,
			Keyframes: []*KeyframeInstance{keyframe},
		}
		return
	}
	if existing != nil {
		existing.Keyframes = append(existing.Keyframes, keyframe)
	}
}
