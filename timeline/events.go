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

import "sort"

// InstanceEvent is a start or end boundary of an instance, used to rebuild
// instance lists by sweeping.
type InstanceEvent struct {
	Time       Time
	IsStart    bool
	References References
	Caps       []Cap
	ID         string
}

// CompareEvents orders boundary events for sweeping: by time, then for the
// same id the start comes first (so zero-length pairs stay adjacent), while
// between different ids ends come before starts.
func CompareEvents(aTime Time, aStart bool, aID string, bTime Time, bStart bool, bID string) int {
	if aTime != bTime {
		if aTime < bTime {
			return -1
		}
		return 1
	}

	if aID == bID {
		if aStart && !bStart {
			return -1
		}
		if !aStart && bStart {
			return 1
		}
	} else {
		if aStart && !bStart {
			return 1
		}
		if !aStart && bStart {
			return -1
		}
	}

	return 0
}

// SortInstanceEvents sorts events with CompareEvents, keeping the original
// order of equal events.
func SortInstanceEvents(events []InstanceEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i], events[j]
		return CompareEvents(a.Time, a.IsStart, a.ID, b.Time, b.IsStart, b.ID) < 0
	})
}

// EventsToInstances sweeps a boundary-event list into instances. With
// allowMerge, overlapping and touching intervals fuse into one (unless
// allowZeroGaps keeps touching intervals apart); without it, every handover
// between source events starts a fresh instance.
func EventsToInstances(gen IDGenerator, events []InstanceEvent, allowMerge, allowZeroGaps bool) []*Instance {
	SortInstanceEvents(events)

	var returnInstances []*Instance

	activeInstances := make(map[string]*InstanceEvent)
	activeInstanceID := ""
	hasActiveInstance := false
	previousActive := false

	for idx := range events {
		event := &events[idx]

		var lastInstance *Instance
		if len(returnInstances) > 0 {
			lastInstance = returnInstances[len(returnInstances)-1]
		}

		if event.IsStart {
			activeInstances[event.ID] = event
		} else {
			delete(activeInstances, event.ID)
		}

		if len(activeInstances) == 0 {
			// No instances are active.
			if previousActive && lastInstance != nil {
				lastInstance.End = TimePtr(event.Time)
			}
			previousActive = false
			continue
		}

		// There is an active instance.
		previousActive = true

		if lastInstance == nil {
			// Nothing produced yet; start the first instance.
			returnInstances = append(returnInstances, &Instance{
				ID:         event.ID,
				Start:      event.Time,
				References: event.References.Clone(),
				Caps:       append([]Cap(nil), event.Caps...),
			})
			activeInstanceID = event.ID
			hasActiveInstance = true
			continue
		}

		switch {
		case !allowMerge && event.IsStart && lastInstance.End == nil &&
			!(hasActiveInstance && activeInstanceID == event.ID):
			// Something else is starting on top of the running instance:
			// hand over to it.
			lastInstance.End = TimePtr(event.Time)
			returnInstances = append(returnInstances, &Instance{
				ID:         gen.GenerateID(),
				Start:      event.Time,
				References: event.References.Clone(),
			})
			activeInstanceID = event.ID
			hasActiveInstance = true

		case !allowMerge && !event.IsStart && hasActiveInstance && activeInstanceID == event.ID:
			// The active instance stopped but others are still running;
			// resume the latest of them.
			var latestID string
			var latest *InstanceEvent
			for id, e := range activeInstances {
				if latest == nil || e.Time > latest.Time ||
					(e.Time == latest.Time && id < latestID) {
					latest, latestID = e, id
				}
			}

			if latest != nil {
				lastInstance.End = TimePtr(event.Time)
				returnInstances = append(returnInstances, &Instance{
					ID:         event.ID + "_" + gen.GenerateID(),
					Start:      event.Time,
					References: latest.References.Clone(),
				})
				activeInstanceID = latestID
				hasActiveInstance = true
			}

		case allowMerge && !allowZeroGaps && lastInstance.End != nil && *lastInstance.End == event.Time:
			// The previous instance ended just now; resume it instead of
			// opening a zero gap.
			addCapsToResuming(lastInstance, event.Caps)
			lastInstance.End = nil
			lastInstance.References = MergeReferences(lastInstance.References, event.References)

		case lastInstance.End != nil:
			// Nothing running; start a new instance.
			returnInstances = append(returnInstances, &Instance{
				ID:         event.ID,
				Start:      event.Time,
				References: event.References.Clone(),
				Caps:       append([]Cap(nil), event.Caps...),
			})
			activeInstanceID = event.ID
			hasActiveInstance = true

		default:
			// An instance is already running; fold this event into it.
			lastInstance.References = MergeReferences(lastInstance.References, event.References)
			addCapsToResuming(lastInstance, event.Caps)
		}
	}

	return returnInstances
}

// addCapsToResuming extends an instance's caps when it resumes past a cap
// boundary, keeping only caps that reach beyond the instance's end.
func addCapsToResuming(instance *Instance, caps []Cap) {
	var newCaps []Cap

	for _, c := range caps {
		if c.End == nil || instance.End == nil {
			continue
		}
		if *c.End > *instance.End {
			newCaps = append(newCaps, Cap{
				ID:  c.ID,
				End: TimePtr(*c.End),
			})
		}
	}

	instance.Caps = MergeCaps(instance.Caps, newCaps)
}
