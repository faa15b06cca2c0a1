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

package resolver

import (
	"fmt"

	"github.com/dolthub/supertimeline/timeline"
	"github.com/dolthub/supertimeline/timeline/expression"
)

// resolveObject derives the concrete instances of one object from its
// enable clauses, recursing through references via the context. Multiple
// clauses union their instances.
func (c *Context) resolveObject(obj *resolvingObject) error {
	obj.mu.Lock()
	switch obj.status {
	case statusComplete:
		obj.mu.Unlock()
		return nil
	case statusInProgress:
		// Re-entry means resolution looped back here: a circular route.
		obj.selfReferencing = true
		obj.mu.Unlock()
		return timeline.ErrCircularDependency.New(obj.info.ID)
	default:
		obj.status = statusInProgress
		obj.mu.Unlock()
	}

	directReferences := timeline.NewReferences()
	var instances []*timeline.Instance

	objID := obj.info.ID
	for clauseIdx := range obj.info.Enable {
		enable := &obj.info.Enable[clauseIdx]

		repeatingExpr := expression.Expression(expression.Null{})
		if enable.Repeating != nil {
			var err error
			repeatingExpr, err = expression.Interpret(enable.Repeating)
			if err != nil {
				return timeline.ErrBadExpression.New(objID, "repeating", err)
			}
		}

		lookedUpRepeating, repeatingRefs, err := c.lookupExpression(obj, repeatingExpr, refDuration)
		if err != nil {
			return err
		}
		directReferences.AddAll(repeatingRefs)

		if lookedUpRepeating.hasInstances {
			return timeline.ErrInstancesArrayNotSupported.New(objID, "repeating")
		}
		repeating := lookedUpRepeating.timeRef

		// The start source is "while" when present (with the boolean-style
		// rewrite), otherwise "start".
		startSource := enable.While
		if startSource != nil {
			if rewritten, ok := expression.RewriteBoolean(startSource); ok {
				startSource = rewritten
			}
		} else {
			startSource = enable.Start
		}
		if startSource == nil {
			startSource = expression.Null{}
		}

		start, err := expression.Simplify(startSource)
		if err != nil {
			return timeline.ErrBadExpression.New(objID, "simplify", err)
		}

		var parentInstances []*timeline.Instance
		hasParent := false
		referToParent := false
		if obj.info.ParentID != "" {
			hasParent = true

			parentExpr := expression.String(fmt.Sprintf("#%s", obj.info.ParentID))
			parentLookup, parentRefs, err := c.lookupExpression(obj, parentExpr, refStart)
			if err != nil {
				return err
			}
			if parentLookup.hasInstances {
				parentInstances = parentLookup.instances
			}
			directReferences.AddAll(parentRefs)

			// Only tie the object to its parent's starts when the start is
			// a plain constant; a reference supplies its own anchor.
			if expression.IsConstant(start) {
				referToParent = true
			}
		}

		lookupStart, startRefs, err := c.lookupExpression(obj, start, refStart)
		if err != nil {
			return err
		}
		directReferences.AddAll(startRefs)

		lookedUpStarts := lookupStart
		if referToParent {
			lookedUpStarts, err = applyParentInstances(c, parentInstances, lookupStart)
			if err != nil {
				return err
			}
		}

		var newInstances []*timeline.Instance

		if enable.While != nil {
			switch {
			case lookedUpStarts.hasInstances:
				newInstances = lookedUpStarts.instances
			case lookedUpStarts.timeRef != nil:
				newInstances = append(newInstances, &timeline.Instance{
					ID:         c.GenerateID(),
					Start:      lookedUpStarts.timeRef.Value,
					References: lookedUpStarts.timeRef.References,
				})
			}
		} else {
			var events []timeline.InstanceEvent
			iStart := 0
			iEnd := 0

			switch {
			case lookedUpStarts.hasInstances:
				for _, instance := range lookedUpStarts.instances {
					events = append(events, timeline.InstanceEvent{
						Time:       instance.Start,
						IsStart:    true,
						ID:         fmt.Sprintf("%s_%d", objID, iStart),
						References: instance.References,
						Caps:       instance.Caps,
					})
					iStart++
				}
			case lookedUpStarts.timeRef != nil:
				events = append(events, timeline.InstanceEvent{
					Time:       lookedUpStarts.timeRef.Value,
					IsStart:    true,
					ID:         fmt.Sprintf("%s_0", objID),
					References: lookedUpStarts.timeRef.References,
				})
			}

			if enable.End != nil {
				endExpr, err := expression.Interpret(enable.End)
				if err != nil {
					return timeline.ErrBadExpression.New(objID, "end", err)
				}

				// The end lookup yields an inverted instance list, so each
				// result's start is an end of the referenced objects.
				lookupEnd, endRefs, err := c.lookupExpression(obj, endExpr, refEnd)
				if err != nil {
					return err
				}
				directReferences.AddAll(endRefs)

				lookedUpEnds := lookupEnd
				if referToParent && expression.IsConstant(endExpr) {
					lookedUpEnds, err = applyParentInstances(c, parentInstances, lookupEnd)
					if err != nil {
						return err
					}
				}

				switch {
				case lookedUpEnds.hasInstances:
					for _, instance := range lookedUpEnds.instances {
						events = append(events, timeline.InstanceEvent{
							Time:       instance.Start,
							IsStart:    false,
							ID:         fmt.Sprintf("%s_%d", objID, iEnd),
							References: instance.References,
							Caps:       instance.Caps,
						})
						iEnd++
					}
				case lookedUpEnds.timeRef != nil:
					events = append(events, timeline.InstanceEvent{
						Time:       lookedUpEnds.timeRef.Value,
						IsStart:    false,
						ID:         fmt.Sprintf("%s_0", objID),
						References: lookedUpEnds.timeRef.References,
					})
				}
			} else if enable.Duration != nil {
				durationExpr, err := expression.Interpret(enable.Duration)
				if err != nil {
					return timeline.ErrBadExpression.New(objID, "duration", err)
				}

				lookupDuration, durationRefs, err := c.lookupExpression(obj, durationExpr, refDuration)
				if err != nil {
					return err
				}
				directReferences.AddAll(durationRefs)

				var duration *timeline.TimeRef
				switch {
				case lookupDuration.hasInstances:
					if len(lookupDuration.instances) > 1 {
						return timeline.ErrInstancesArrayNotSupported.New(objID, "duration")
					}
					if len(lookupDuration.instances) == 1 {
						first := lookupDuration.instances[0]
						duration = &timeline.TimeRef{
							Value:      first.Start,
							References: first.References.Clone(),
						}
					}
				case lookupDuration.timeRef != nil:
					duration = lookupDuration.timeRef
				}

				if duration != nil {
					durationVal := duration.Value
					if repeating != nil && repeating.Value < durationVal {
						// A duration longer than the repeat period is
						// truncated to it.
						durationVal = repeating.Value
					}

					var endEvents []timeline.InstanceEvent
					for _, event := range events {
						if !event.IsStart {
							continue
						}
						endEvents = append(endEvents, timeline.InstanceEvent{
							Time:       event.Time + durationVal,
							IsStart:    false,
							ID:         event.ID,
							References: timeline.MergeReferences(event.References, duration.References),
						})
					}
					events = append(events, endEvents...)
				}
			}

			newInstances = timeline.EventsToInstances(c, events, false, false)
		}

		if hasParent {
			// Tie every instance to a parent instance and cap it inside.
			var cappedInstances []*timeline.Instance

			for _, instance := range newInstances {
				var referredParent *timeline.Instance
				for _, parentInstance := range parentInstances {
					if instance.References.Contains(parentInstance.ID) {
						referredParent = parentInstance
						break
					}
				}

				if referredParent != nil {
					// The instance refers to a specific parent instance;
					// cap into that one only.
					if capped := timeline.CapInstance(instance, []*timeline.Instance{referredParent}); capped != nil {
						capped.Caps = append(capped.Caps, timeline.Cap{
							ID:    referredParent.ID,
							Start: referredParent.Start,
							End:   referredParent.End,
						})
						cappedInstances = append(cappedInstances, capped)
					}
				} else {
					// No specific tie: cap into every parent instance.
					for _, parentInstance := range parentInstances {
						if capped := timeline.CapInstance(instance, []*timeline.Instance{parentInstance}); capped != nil {
							capped.Caps = append(capped.Caps, timeline.Cap{
								ID:    parentInstance.ID,
								Start: parentInstance.Start,
								End:   parentInstance.End,
							})
							cappedInstances = append(cappedInstances, capped)
						}
					}
				}
			}

			newInstances = cappedInstances
		}

		instances = append(instances, timeline.ApplyRepeatingInstances(c, newInstances, repeating, c.Options)...)
	}

	// Zero-length instances are of no use to anyone.
	filtered := instances[:0]
	for _, instance := range instances {
		if instance.EndOrMax() > instance.Start {
			filtered = append(filtered, instance)
		}
	}
	instances = filtered

	// Instances of separate clauses may overlap or come out of order; merge
	// them into one sorted, disjoint list.
	if len(obj.info.Enable) > 1 {
		instances = timeline.CleanInstances(c, instances, true, true)
	}

	obj.mu.Lock()
	defer obj.mu.Unlock()
	switch obj.status {
	case statusPending:
		return timeline.ErrResolvedWhilePending.New(obj.info.ID)
	case statusComplete:
		return timeline.ErrResolvedWhileResolved.New(obj.info.ID)
	default:
		obj.status = statusComplete
		obj.instances = instances
		obj.directReferences = directReferences
		return nil
	}
}
