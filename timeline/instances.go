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

// CleanInstances merges overlapping or touching instances. With allowMerge
// they fuse into single instances (allowZeroGaps keeps touching intervals
// separate); without it, handovers split instead of fusing.
func CleanInstances(gen IDGenerator, instances []*Instance, allowMerge, allowZeroGaps bool) []*Instance {
	switch len(instances) {
	case 0:
		return nil
	case 1:
		instance := instances[0].Clone()
		instance.OriginalStart = TimePtr(instance.Start)
		instance.OriginalEnd = nil
		if instance.End != nil {
			instance.OriginalEnd = TimePtr(*instance.End)
		}
		return []*Instance{instance}
	default:
		var events []InstanceEvent
		for _, instance := range instances {
			events = append(events, InstanceEvent{
				Time:       instance.Start,
				IsStart:    true,
				References: instance.References,
				Caps:       instance.Caps,
				ID:         instance.ID,
			})
			if instance.End != nil {
				events = append(events, InstanceEvent{
					Time:       *instance.End,
					IsStart:    false,
					References: instance.References,
					Caps:       instance.Caps,
					ID:         instance.ID,
				})
			}
		}
		return EventsToInstances(gen, events, allowMerge, allowZeroGaps)
	}
}

// InvertInstances returns the complement of an instance list in [0, inf).
// Inverting an empty list yields a single instance covering all of time,
// marked IsFirst.
func InvertInstances(gen IDGenerator, instances []*Instance) []*Instance {
	if len(instances) == 0 {
		return []*Instance{{
			ID:         gen.GenerateID(),
			IsFirst:    true,
			Start:      0,
			References: NewReferences(),
		}}
	}

	cleaned := CleanInstances(gen, instances, true, true)

	var inverted []*Instance

	// Fill the time between zero and the first instance.
	first := cleaned[0]
	if first.Start != 0 {
		refs := first.References.Clone()
		refs.Add(first.ID)
		inverted = append(inverted, &Instance{
			ID:         gen.GenerateID(),
			IsFirst:    true,
			Start:      0,
			References: refs,
		})
	}

	// Fill the gaps between the instances.
	for _, instance := range cleaned {
		if len(inverted) > 0 {
			inverted[len(inverted)-1].End = TimePtr(instance.Start)
		}

		if instance.End != nil {
			refs := instance.References.Clone()
			refs.Add(instance.ID)
			inverted = append(inverted, &Instance{
				ID:         gen.GenerateID(),
				Start:      *instance.End,
				References: refs,
				Caps:       instance.Caps,
			})
		}
	}

	return inverted
}

// CapInstance clamps an instance inside one of the candidate parent
// instances: a parent containing the instance's start or lying entirely
// inside the instance (preferring the one with the latest end), else one
// containing its end. When no candidate applies the instance is dropped
// (nil is returned).
func CapInstance(instance *Instance, parentInstances []*Instance) *Instance {
	var parent *Instance

	instanceEnd := instance.EndOrMax()

	for _, p := range parentInstances {
		pEnd := p.EndOrMax()
		if (instance.Start >= p.Start && instance.Start < pEnd) ||
			(instance.Start < p.Start && instanceEnd > pEnd) {
			if parent == nil || pEnd > parent.EndOrMax() {
				parent = p
			}
		}
	}

	if parent == nil {
		for _, p := range parentInstances {
			if instanceEnd > p.Start && instanceEnd <= p.EndOrMax() {
				parent = p
			}
		}
	}

	if parent == nil {
		return nil
	}

	capped := instance.Clone()

	if parent.End != nil && instance.EndOrMax() > *parent.End {
		SetInstanceEndTime(capped, *parent.End)
	}
	if instance.Start < parent.Start {
		SetInstanceStartTime(capped, parent.Start)
	}

	return capped
}

// ApplyRepeatingInstances repeats every instance with the given period,
// bounded by the options' repeat limits. Each repetition is intersected
// with the cap of the parent instance it references.
func ApplyRepeatingInstances(gen IDGenerator, instances []*Instance, repeatTime *TimeRef, options ResolveOptions) []*Instance {
	if repeatTime == nil || repeatTime.Value == 0 {
		return instances
	}

	var repeated []*Instance

	for _, instance := range instances {
		// Align the first repetition to the one covering options.Time, but
		// never earlier than the instance itself.
		t := int64(options.Time)
		s := int64(instance.Start)
		r := int64(repeatTime.Value)
		startTime := Time(t - (t-s)%r)
		if startTime < instance.Start {
			startTime = instance.Start
		}

		var endTime *Time
		if instance.End != nil {
			endTime = TimePtr(*instance.End + (startTime - instance.Start))
		}

		var parentCap *Cap
		for i := range instance.Caps {
			if instance.References.Contains(instance.Caps[i].ID) {
				parentCap = &instance.Caps[i]
				break
			}
		}

		limit := options.RepeatLimit()
		for i := 0; i < limit; i++ {
			if options.LimitTime != nil && startTime >= *options.LimitTime {
				break
			}

			cappedStart := startTime
			if parentCap != nil {
				cappedStart = maxTime(parentCap.Start, startTime)
			}
			var cappedEnd *Time
			if endTime != nil {
				cappedEnd = TimePtr(*endTime)
				if parentCap != nil && parentCap.End != nil {
					cappedEnd = TimePtr(minTime(*parentCap.End, *endTime))
				}
			}

			if orMax(cappedEnd) > cappedStart {
				refs := MergeReferences(instance.References, repeatTime.References)
				refs.Add(instance.ID)
				repeated = append(repeated, &Instance{
					ID:         gen.GenerateID(),
					Start:      cappedStart,
					End:        cappedEnd,
					References: refs,
				})
			}

			startTime += repeatTime.Value
			if endTime != nil {
				endTime = TimePtr(*endTime + repeatTime.Value)
			}
		}
	}

	return CleanInstances(gen, repeated, false, false)
}
