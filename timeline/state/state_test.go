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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dolthub/supertimeline/timeline"
	"github.com/dolthub/supertimeline/timeline/expression"
	"github.com/dolthub/supertimeline/timeline/resolver"
)

func num(v int64) expression.Expression  { return expression.Number(v) }
func str(s string) expression.Expression { return expression.String(s) }
func intPtr(v int) *int                  { return &v }

func resolveStates(t *testing.T, objects []timeline.TimelineObject, options timeline.ResolveOptions) *ResolvedStates {
	t.Helper()

	resolved, err := resolver.ResolveTimeline(timeline.NewEmptyContext(), objects, options)
	require.NoError(t, err)

	states, err := ResolveAllStates(resolved, nil)
	require.NoError(t, err)
	return states
}

func requireLayer(t *testing.T, s *TimelineState, layer, objectID string) {
	t.Helper()
	layerState, ok := s.Layers[layer]
	require.True(t, ok, "missing state for layer %q", layer)
	require.Equal(t, objectID, layerState.ObjectID, "layer %q", layer)
}

func requireNoLayer(t *testing.T, s *TimelineState, layer string) {
	t.Helper()
	_, ok := s.Layers[layer]
	require.False(t, ok, "expected no state on layer %q", layer)
}

func TestStateSimpleTimeline(t *testing.T) {
	objects := []timeline.TimelineObject{
		{
			ID:    "video",
			Layer: "0",
			Enable: []timeline.Enable{{
				Start: num(0),
				End:   num(100),
			}},
		},
		{
			ID:    "graphic0",
			Layer: "1",
			Enable: []timeline.Enable{{
				Start:    str("#video.start + 10"),
				Duration: num(10),
			}},
		},
		{
			ID:    "graphic1",
			Layer: "1",
			Enable: []timeline.Enable{{
				Start:    str("#graphic0.end + 10"),
				Duration: num(15),
			}},
		},
	}

	states := resolveStates(t, objects, timeline.ResolveOptions{Time: 0})

	require.Equal(t, []NextEvent{
		{EventType: EventStart, ObjectID: "graphic0", Time: 10},
		{EventType: EventEnd, ObjectID: "graphic0", Time: 20},
		{EventType: EventStart, ObjectID: "graphic1", Time: 30},
		{EventType: EventEnd, ObjectID: "graphic1", Time: 45},
		{EventType: EventEnd, ObjectID: "video", Time: 100},
	}, states.NextEvents)

	state5 := GetState(states, 5, 0)
	require.Equal(t, timeline.Time(5), state5.Time)
	requireLayer(t, state5, "0", "video")
	requireNoLayer(t, state5, "1")

	state15 := GetState(states, 15, 0)
	requireLayer(t, state15, "0", "video")
	requireLayer(t, state15, "1", "graphic0")
	require.Equal(t, []NextEvent{
		{EventType: EventEnd, ObjectID: "graphic0", Time: 20},
		{EventType: EventStart, ObjectID: "graphic1", Time: 30},
		{EventType: EventEnd, ObjectID: "graphic1", Time: 45},
		{EventType: EventEnd, ObjectID: "video", Time: 100},
	}, state15.NextEvents)

	state21 := GetState(states, 21, 0)
	requireLayer(t, state21, "0", "video")
	requireNoLayer(t, state21, "1")

	state31 := GetState(states, 31, 0)
	requireLayer(t, state31, "0", "video")
	requireLayer(t, state31, "1", "graphic1")

	state46 := GetState(states, 46, 0)
	requireLayer(t, state46, "0", "video")
	requireNoLayer(t, state46, "1")
}

func TestStateEventLimit(t *testing.T) {
	objects := []timeline.TimelineObject{
		{
			ID:    "video",
			Layer: "0",
			Enable: []timeline.Enable{{
				Start: num(0),
				End:   num(100),
			}},
		},
		{
			ID:    "graphic0",
			Layer: "1",
			Enable: []timeline.Enable{{
				Start:    num(10),
				Duration: num(10),
			}},
		},
	}

	states := resolveStates(t, objects, timeline.ResolveOptions{Time: 0})

	state := GetState(states, 0, 2)
	require.Len(t, state.NextEvents, 2)

	state = GetState(states, 0, 0)
	require.Len(t, state.NextEvents, 3)
}

func TestStateRepeatingEvents(t *testing.T) {
	objects := []timeline.TimelineObject{
		{
			ID:    "video",
			Layer: "0",
			Enable: []timeline.Enable{{
				Start:     num(0),
				End:       num(40),
				Repeating: num(50),
			}},
		},
		{
			ID:    "graphic0",
			Layer: "1",
			Enable: []timeline.Enable{{
				Start:    str("#video.start + 20"),
				Duration: num(19),
			}},
		},
	}

	states := resolveStates(t, objects, timeline.ResolveOptions{
		Time:       0,
		LimitCount: intPtr(99),
		LimitTime:  timeline.TimePtr(145),
	})

	state15 := GetState(states, 15, 0)
	requireLayer(t, state15, "0", "video")
	requireNoLayer(t, state15, "1")
	require.Equal(t, []NextEvent{
		{EventType: EventStart, ObjectID: "graphic0", Time: 20},
		{EventType: EventEnd, ObjectID: "graphic0", Time: 39},
		{EventType: EventEnd, ObjectID: "video", Time: 40},
		{EventType: EventStart, ObjectID: "video", Time: 50},
		{EventType: EventStart, ObjectID: "graphic0", Time: 70},
		{EventType: EventEnd, ObjectID: "graphic0", Time: 89},
		{EventType: EventEnd, ObjectID: "video", Time: 90},
		{EventType: EventStart, ObjectID: "video", Time: 100},
		{EventType: EventStart, ObjectID: "graphic0", Time: 120},
		{EventType: EventEnd, ObjectID: "graphic0", Time: 139},
		{EventType: EventEnd, ObjectID: "video", Time: 140},
	}, state15.NextEvents)

	state21 := GetState(states, 21, 0)
	requireLayer(t, state21, "0", "video")
	requireLayer(t, state21, "1", "graphic0")

	state39 := GetState(states, 39, 0)
	requireLayer(t, state39, "0", "video")
	requireNoLayer(t, state39, "1")

	state72 := GetState(states, 72, 0)
	requireLayer(t, state72, "0", "video")
	requireLayer(t, state72, "1", "graphic0")
}

func TestStatePriorityOverride(t *testing.T) {
	objects := []timeline.TimelineObject{
		{
			ID:    "video0",
			Layer: "0",
			Enable: []timeline.Enable{{
				Start: num(10),
				End:   num(80),
			}},
		},
		{
			ID:       "video1",
			Layer:    "0",
			Priority: 1,
			Enable: []timeline.Enable{{
				Start:    num(10),
				Duration: num(20),
			}},
		},
	}

	states := resolveStates(t, objects, timeline.ResolveOptions{Time: 0})

	// While video1 is active it wins the layer despite the equal start.
	state15 := GetState(states, 15, 0)
	requireLayer(t, state15, "0", "video1")

	// After video1 ends, video0 takes over with a continuation instance.
	state40 := GetState(states, 40, 0)
	requireLayer(t, state40, "0", "video0")

	layerState := state40.Layers["0"]
	require.Equal(t, timeline.Time(30), layerState.Instance.Start)
	require.NotNil(t, layerState.Instance.OriginalStart)
	require.Equal(t, timeline.Time(10), *layerState.Instance.OriginalStart)
	require.NotEmpty(t, layerState.Instance.FromInstanceID)

	// All state instance ids are distinct.
	seen := make(map[string]struct{})
	count := 0
	for _, obj := range states.Objects {
		for id, instance := range obj.Instances {
			require.Equal(t, id, instance.ID)
			seen[id] = struct{}{}
			count++
		}
	}
	require.Equal(t, 3, count)
	require.Len(t, seen, 3)
}

func TestStateSimpleGroup(t *testing.T) {
	objects := []timeline.TimelineObject{{
		ID:    "group",
		Layer: "0",
		Enable: []timeline.Enable{{
			Start: num(10),
			End:   num(100),
		}},
		Children: []timeline.TimelineObject{
			{
				ID:    "child0",
				Layer: "1",
				Enable: []timeline.Enable{{
					Start:    str("5"),
					Duration: num(10),
				}},
			},
			{
				ID:    "child1",
				Layer: "1",
				Enable: []timeline.Enable{{
					Start:    str("#child0.end"),
					Duration: num(10),
				}},
			},
			{
				ID:    "child2",
				Layer: "2",
				Enable: []timeline.Enable{{
					Start:    str("-1"),
					Duration: num(150),
				}},
			},
		},
	}}

	states := resolveStates(t, objects, timeline.ResolveOptions{Time: 0})

	state11 := GetState(states, 11, 0)
	requireLayer(t, state11, "0", "group")
	requireNoLayer(t, state11, "1")
	requireLayer(t, state11, "2", "child2")

	state15 := GetState(states, 15, 0)
	requireLayer(t, state15, "0", "group")
	requireLayer(t, state15, "1", "child0")
	requireLayer(t, state15, "2", "child2")

	state30 := GetState(states, 30, 0)
	requireLayer(t, state30, "0", "group")
	requireLayer(t, state30, "1", "child1")
	requireLayer(t, state30, "2", "child2")
}

func TestStateEtherealGroups(t *testing.T) {
	objects := []timeline.TimelineObject{
		{
			ID: "group0",
			Enable: []timeline.Enable{{
				Start: num(10),
				End:   num(100),
			}},
			Children: []timeline.TimelineObject{{
				ID:    "child0",
				Layer: "1",
				Enable: []timeline.Enable{{
					Start: str("5"),
				}},
			}},
		},
		{
			ID: "group1",
			Enable: []timeline.Enable{{
				Start: num(50),
				End:   num(100),
			}},
			Children: []timeline.TimelineObject{{
				ID:    "child1",
				Layer: "2",
				Enable: []timeline.Enable{{
					Start: str("5"),
				}},
			}},
		},
	}

	states := resolveStates(t, objects, timeline.ResolveOptions{Time: 0})

	state16 := GetState(states, 16, 0)
	requireLayer(t, state16, "1", "child0")
	requireNoLayer(t, state16, "2")

	state56 := GetState(states, 56, 0)
	requireLayer(t, state56, "1", "child0")
	requireLayer(t, state56, "2", "child1")
	require.Equal(t, []NextEvent{
		{EventType: EventEnd, ObjectID: "child0", Time: 100},
		{EventType: EventEnd, ObjectID: "child1", Time: 100},
	}, state56.NextEvents)

	// Children stay capped inside their (ethereal) parents.
	state120 := GetState(states, 120, 0)
	requireNoLayer(t, state120, "1")
	requireNoLayer(t, state120, "2")
}

func TestStateSolidGroups(t *testing.T) {
	objects := []timeline.TimelineObject{
		{
			ID:    "group0",
			Layer: "g0",
			Enable: []timeline.Enable{{
				Start: num(10),
				End:   num(100),
			}},
			Children: []timeline.TimelineObject{{
				ID:    "child0",
				Layer: "1",
				Enable: []timeline.Enable{{
					Start: str("5"),
				}},
			}},
		},
		{
			ID:    "group1",
			Layer: "g0",
			Enable: []timeline.Enable{{
				Start: num(50),
				End:   num(100),
			}},
			Children: []timeline.TimelineObject{{
				ID:    "child1",
				Layer: "2",
				Enable: []timeline.Enable{{
					Start: str("5"),
				}},
			}},
		},
	}

	states := resolveStates(t, objects, timeline.ResolveOptions{Time: 0})

	state16 := GetState(states, 16, 0)
	requireLayer(t, state16, "g0", "group0")
	requireLayer(t, state16, "1", "child0")
	requireNoLayer(t, state16, "2")

	// group1 takes the shared layer when it starts, despite equal
	// priority, because it started later.
	state56 := GetState(states, 56, 0)
	requireLayer(t, state56, "g0", "group1")
	requireLayer(t, state56, "2", "child1")

	state120 := GetState(states, 120, 0)
	requireNoLayer(t, state120, "g0")
	requireNoLayer(t, state120, "1")
	requireNoLayer(t, state120, "2")
}

func TestStateCapInRepeatingParentGroup(t *testing.T) {
	objects := []timeline.TimelineObject{{
		ID:    "group0",
		Layer: "g0",
		Enable: []timeline.Enable{{
			Start:     num(0),
			End:       num(80),
			Repeating: num(100),
		}},
		Children: []timeline.TimelineObject{
			{
				ID:    "child0",
				Layer: "1",
				Enable: []timeline.Enable{{
					Start:    num(50),
					Duration: num(20),
				}},
			},
			{
				ID:    "child1",
				Layer: "2",
				Enable: []timeline.Enable{{
					Start:    str("#child0.end"),
					Duration: num(50),
				}},
			},
		},
	}}

	states := resolveStates(t, objects, timeline.ResolveOptions{Time: 0})

	checks := []struct {
		time   timeline.Time
		layers map[string]string
		empty  []string
	}{
		{10, map[string]string{"g0": "group0"}, []string{"1", "2"}},
		{55, map[string]string{"g0": "group0", "1": "child0"}, []string{"2"}},
		{78, map[string]string{"g0": "group0", "2": "child1"}, []string{"1"}},
		{85, nil, []string{"g0", "1", "2"}},
		{110, map[string]string{"g0": "group0"}, []string{"1", "2"}},
		{155, map[string]string{"g0": "group0", "1": "child0"}, []string{"2"}},
		{178, map[string]string{"g0": "group0", "2": "child1"}, []string{"1"}},
		{185, nil, []string{"g0", "1", "2"}},
	}

	for _, check := range checks {
		state := GetState(states, check.time, 0)
		for layer, objectID := range check.layers {
			requireLayer(t, state, layer, objectID)
		}
		for _, layer := range check.empty {
			requireNoLayer(t, state, layer)
		}
	}
}

func TestStateKeyframes(t *testing.T) {
	objects := []timeline.TimelineObject{
		{
			ID:    "parent",
			Layer: "p0",
			Enable: []timeline.Enable{{
				While: num(1),
			}},
			Keyframes: []timeline.Keyframe{{
				ID: "kf0",
				Enable: []timeline.Enable{{
					While: str(".playout & !.muted"),
				}},
			}},
		},
		{
			ID:    "muted_playout1",
			Layer: "2",
			Enable: []timeline.Enable{{
				Start:    str("100"),
				Duration: num(100),
			}},
			Classes: []string{"playout", "muted"},
		},
		{
			ID:    "muted_playout2",
			Layer: "2",
			Enable: []timeline.Enable{{
				Start:    str("200"),
				Duration: num(100),
			}},
			Classes: []string{"playout", "muted"},
		},
		{
			ID:    "unmuted_playout1",
			Layer: "2",
			Enable: []timeline.Enable{{
				Start:    str("300"),
				Duration: num(100),
			}},
			Classes: []string{"playout"},
		},
	}

	states := resolveStates(t, objects, timeline.ResolveOptions{
		Time:       0,
		LimitCount: intPtr(10),
		LimitTime:  timeline.TimePtr(999),
	})

	for _, check := range []struct {
		time      timeline.Time
		keyframes int
	}{
		{50, 0},
		{150, 0},
		{250, 0},
		{350, 1},
	} {
		state := GetState(states, check.time, 0)
		layerState, ok := state.Layers["p0"]
		require.True(t, ok, "missing state for layer p0 at %d", check.time)
		require.Equal(t, "parent", layerState.ObjectID)
		require.Len(t, layerState.Keyframes, check.keyframes, "keyframes at %d", check.time)
	}
}

func TestStateNextEventsSorted(t *testing.T) {
	objects := []timeline.TimelineObject{
		{
			ID:    "b",
			Layer: "0",
			Enable: []timeline.Enable{{
				Start: num(10),
				End:   num(20),
			}},
		},
		{
			ID:    "a",
			Layer: "1",
			Enable: []timeline.Enable{{
				Start: num(10),
				End:   num(20),
			}},
		},
	}

	states := resolveStates(t, objects, timeline.ResolveOptions{Time: 0})

	require.Equal(t, []NextEvent{
		{EventType: EventStart, ObjectID: "a", Time: 10},
		{EventType: EventStart, ObjectID: "b", Time: 10},
		{EventType: EventEnd, ObjectID: "a", Time: 20},
		{EventType: EventEnd, ObjectID: "b", Time: 20},
	}, states.NextEvents)

	for i := 1; i < len(states.NextEvents); i++ {
		a, b := states.NextEvents[i-1], states.NextEvents[i]
		less := a.Time < b.Time ||
			(a.Time == b.Time && a.EventType > b.EventType) ||
			(a.Time == b.Time && a.EventType == b.EventType && a.ObjectID < b.ObjectID)
		require.True(t, less, "events %d and %d out of order", i-1, i)
	}
}

func TestStateChosenInstanceCoversTime(t *testing.T) {
	objects := []timeline.TimelineObject{
		{
			ID:    "video0",
			Layer: "0",
			Enable: []timeline.Enable{{
				Start: num(10),
				End:   num(80),
			}},
		},
		{
			ID:       "video1",
			Layer:    "0",
			Priority: 1,
			Enable: []timeline.Enable{{
				Start:    num(10),
				Duration: num(20),
			}},
		},
	}

	states := resolveStates(t, objects, timeline.ResolveOptions{Time: 0})

	for _, time := range []timeline.Time{11, 29, 30, 50, 79} {
		state := GetState(states, time, 0)
		layerState, ok := state.Layers["0"]
		require.True(t, ok, "missing layer state at %d", time)

		// The original bounds of the chosen instance must cover the time.
		start := layerState.Instance.Start
		if layerState.Instance.OriginalStart != nil {
			start = *layerState.Instance.OriginalStart
		}
		require.True(t, start <= time, "instance starts after %d", time)
	}
}
