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

package state

import (
	"sort"

	"github.com/dolthub/supertimeline/timeline"
)

// GetState returns the layer-by-layer state at the given time, along with
// up to eventLimit next-events strictly after it (0 means all).
func GetState(resolved *ResolvedStates, time timeline.Time, eventLimit int) *TimelineState {
	var nextEvents []NextEvent
	for _, e := range resolved.NextEvents {
		if e.Time > time {
			nextEvents = append(nextEvents, e)
			if eventLimit > 0 && len(nextEvents) >= eventLimit {
				break
			}
		}
	}

	layers := make(map[string]*LayerState)
	for layerID := range resolved.Layers {
		if layerState := stateAtTimeForLayer(resolved.State, layerID, time); layerState != nil {
			layers[layerID] = layerState
		}
	}

	return &TimelineState{
		Time:       time,
		Layers:     layers,
		NextEvents: nextEvents,
	}
}

// stateAtTimeForLayer replays the layer's snapshots up to the requested
// time: the latest snapshot carrying an instance wins, and later
// keyframe-only snapshots overlay their keyframes on it.
func stateAtTimeForLayer(states AllStates, layerID string, requestTime timeline.Time) *LayerState {
	layerStates, ok := states[layerID]
	if !ok {
		return nil
	}

	times := make([]timeline.Time, 0, len(layerStates))
	for t := range layerStates {
		times = append(times, t)
	}
	sort.Slice(times, func(i, j int) bool { return times[i] < times[j] })

	var bestState *LayerState

	for _, t := range times {
		if t > requestTime {
			break
		}

		snapshot := layerStates[t]
		if snapshot == nil {
			// The layer became empty here.
			bestState = nil
			continue
		}

		if snapshot.Instance != nil {
			bestState = &LayerState{
				ObjectID:   snapshot.ObjectID,
				InstanceID: snapshot.InstanceID,
				Instance:   snapshot.Instance.Clone(),
			}
		} else if len(snapshot.Keyframes) == 0 {
			bestState = nil
			continue
		}

		if bestState != nil {
			for _, keyframe := range snapshot.Keyframes {
				if keyframe.Info.ParentID != bestState.ObjectID {
					continue
				}
				if keyframe.EndTime != nil && *keyframe.EndTime <= requestTime {
					continue
				}
				// The keyframe applies on the state.
				bestState.Keyframes = append(bestState.Keyframes, keyframe)
			}
		}
	}

	return bestState
}
