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
	"regexp"
	"sort"

	"github.com/dolthub/supertimeline/internal/similartext"
	"github.com/dolthub/supertimeline/timeline"
	"github.com/dolthub/supertimeline/timeline/expression"
)

var (
	matchIDRegex    = regexp.MustCompile(`^\W*#([^.]+)(.*)`)
	matchClassRegex = regexp.MustCompile(`^\W*\.([^.]+)(.*)`)
	matchLayerRegex = regexp.MustCompile(`^\W*\$([^.]+)(.*)`)
)

// refType selects which aspect of a referenced object a lookup uses.
type refType int

const (
	refStart refType = iota
	refEnd
	refDuration
)

// lookupResult is the value of one expression lookup: nothing, a scalar
// time, or a set of instances.
type lookupResult struct {
	timeRef   *timeline.TimeRef
	instances []*timeline.Instance
	// hasInstances distinguishes an empty instance set from Null.
	hasInstances bool
}

func nullResult() lookupResult {
	return lookupResult{}
}

func timeRefResult(value timeline.Time, refs timeline.References) lookupResult {
	return lookupResult{timeRef: &timeline.TimeRef{Value: value, References: refs}}
}

func instancesResult(instances []*timeline.Instance) lookupResult {
	return lookupResult{instances: instances, hasInstances: true}
}

// lookupExpression resolves an expression in the context of the querying
// object. It returns the value together with the union of every selector
// examined along the way.
func (c *Context) lookupExpression(obj *resolvingObject, expr expression.Expression, defaultRefType refType) (lookupResult, timeline.References, error) {
	switch e := expr.(type) {
	case nil, expression.Null:
		return nullResult(), timeline.NewReferences(), nil

	case expression.Number:
		value := int64(e)
		if value < 0 {
			// Times never go below zero.
			value = 0
		}
		return timeRefResult(timeline.Time(value), timeline.NewReferences()), timeline.NewReferences(), nil

	case expression.Boolean:
		if bool(e) {
			return timeRefResult(0, timeline.NewReferences()), timeline.NewReferences(), nil
		}
		return instancesResult(nil), timeline.NewReferences(), nil

	case expression.String:
		return c.lookupExpressionString(obj, string(e), defaultRefType)

	case *expression.Binary:
		return c.lookupExpressionBinary(obj, e, defaultRefType)

	case *expression.Invert:
		inner, allRefs, err := c.lookupExpression(obj, e.Inner, defaultRefType)
		if err != nil {
			return nullResult(), nil, err
		}

		switch {
		case inner.timeRef != nil:
			// A scalar time cannot be inverted.
			return inner, allRefs, nil
		case inner.hasInstances:
			return instancesResult(timeline.InvertInstances(c, inner.instances)), allRefs, nil
		default:
			return instancesResult(timeline.InvertInstances(c, nil)), allRefs, nil
		}

	default:
		return nullResult(), nil, expression.ErrInvalidExpression.New()
	}
}

// matchedReferences is the outcome of scanning a reference token.
type matchedReferences struct {
	remaining     string
	objectIDs     []string
	allReferences timeline.References
}

// matchExpressionReferences maps a "#id", ".class" or "$layer" token to the
// object ids it selects, plus the trailing ".start"/".end"/".duration"
// suffix.
func (c *Context) matchExpressionReferences(exprStr string) *matchedReferences {
	if m := matchIDRegex.FindStringSubmatch(exprStr); m != nil {
		id := m[1]
		if c.getObject(id) == nil {
			c.Logger().Debugf("reference to unknown object %q%s", id, similartext.FindFromMap(c.objects, id))
		}
		return &matchedReferences{
			remaining:     m[2],
			objectIDs:     []string{id},
			allReferences: timeline.NewReferences("#" + id),
		}
	}

	if m := matchClassRegex.FindStringSubmatch(exprStr); m != nil {
		return &matchedReferences{
			remaining:     m[2],
			objectIDs:     c.objectIDsForClass(m[1]),
			allReferences: timeline.NewReferences("." + m[1]),
		}
	}

	if m := matchLayerRegex.FindStringSubmatch(exprStr); m != nil {
		return &matchedReferences{
			remaining:     m[2],
			objectIDs:     c.objectIDsForLayer(m[1]),
			allReferences: timeline.NewReferences("$" + m[1]),
		}
	}

	return nil
}

func (c *Context) lookupExpressionString(obj *resolvingObject, exprStr string, defaultRefType refType) (lookupResult, timeline.References, error) {
	matched := c.matchExpressionReferences(exprStr)
	if matched == nil {
		return nullResult(), timeline.NewReferences(), nil
	}

	var referencedObjs []*resolvingObject
	for _, refID := range matched.objectIDs {
		if refID == obj.info.ID {
			// The object references itself: never recurse into it, just
			// record the self-reference.
			obj.markSelfReferencing()
			continue
		}
		if refObj := c.getObject(refID); refObj != nil {
			referencedObjs = append(referencedObjs, refObj)
		}
	}

	if obj.isSelfReferencing() {
		// A self-referencing object must not consult other self-referencing
		// objects, or the cycle would never settle.
		filtered := referencedObjs[:0]
		for _, refObj := range referencedObjs {
			if !refObj.isSelfReferencing() {
				filtered = append(filtered, refObj)
			}
		}
		referencedObjs = filtered
	}

	if len(referencedObjs) == 0 {
		return nullResult(), matched.allReferences, nil
	}

	rt := defaultRefType
	switch matched.remaining {
	case ".start":
		rt = refStart
	case ".end":
		rt = refEnd
	case ".duration":
		rt = refDuration
	}

	if rt == refDuration {
		return c.lookupDurations(obj, referencedObjs, matched.allReferences)
	}

	var returnInstances []*timeline.Instance
	for _, refObj := range referencedObjs {
		if err := c.resolveObject(refObj); err != nil {
			if !timeline.ErrCircularDependency.Is(err) {
				return nullResult(), nil, err
			}
			// The referenced object is on the current resolution path; it
			// simply contributes nothing here.
			continue
		}

		objIsSelfReferencing := obj.isSelfReferencing()

		refObj.mu.RLock()
		if refObj.status == statusComplete && !(objIsSelfReferencing && refObj.selfReferencing) {
			for _, instance := range refObj.instances {
				returnInstances = append(returnInstances, instance.Clone())
			}
		}
		refObj.mu.RUnlock()
	}

	if len(returnInstances) == 0 {
		return nullResult(), matched.allReferences, nil
	}

	if rt == refEnd {
		// An end reference is the inverted instance list; a leading
		// instance starting at zero is dropped.
		returnInstances = timeline.InvertInstances(c, returnInstances)
		if len(returnInstances) > 0 && returnInstances[0].Start == 0 {
			returnInstances = returnInstances[1:]
		}
	} else {
		returnInstances = timeline.CleanInstances(c, returnInstances, true, true)
	}

	return instancesResult(returnInstances), matched.allReferences, nil
}

// lookupDurations returns the shortest first-instance duration among the
// referenced objects.
func (c *Context) lookupDurations(obj *resolvingObject, referencedObjs []*resolvingObject, allRefs timeline.References) (lookupResult, timeline.References, error) {
	var result *timeline.TimeRef

	for _, refObj := range referencedObjs {
		if err := c.resolveObject(refObj); err != nil {
			if !timeline.ErrCircularDependency.Is(err) {
				return nullResult(), nil, err
			}
			continue
		}

		objIsSelfReferencing := obj.isSelfReferencing()

		refObj.mu.RLock()
		if refObj.status == statusComplete && !(objIsSelfReferencing && refObj.selfReferencing) {
			if len(refObj.instances) > 0 {
				first := refObj.instances[0]
				if first.End != nil {
					refs := first.References.Clone()
					refs.Add(refObj.info.ID)
					duration := &timeline.TimeRef{
						Value:      *first.End - first.Start,
						References: refs,
					}
					if result == nil || duration.Value < result.Value {
						result = duration
					}
				}
			}
		}
		refObj.mu.RUnlock()
	}

	if result == nil {
		return nullResult(), allRefs, nil
	}
	return lookupResult{timeRef: result}, allRefs, nil
}

func (c *Context) lookupExpressionBinary(obj *resolvingObject, expr *expression.Binary, defaultRefType refType) (lookupResult, timeline.References, error) {
	if expression.IsNull(expr.Left) || expression.IsNull(expr.Right) {
		return nullResult(), timeline.NewReferences(), nil
	}

	l, lRefs, err := c.lookupExpression(obj, expr.Left, defaultRefType)
	if err != nil {
		return nullResult(), nil, err
	}
	r, rRefs, err := c.lookupExpression(obj, expr.Right, defaultRefType)
	if err != nil {
		return nullResult(), nil, err
	}

	allRefs := timeline.MergeReferences(lRefs, rRefs)

	if expr.Op.IsBoolean() {
		return c.lookupBooleanCombination(expr.Op, l, r, lRefs, rRefs), allRefs, nil
	}

	op := arithmeticOperator(expr.Op)
	result, err := operateOnArrays(c, l, r, op)
	if err != nil {
		return nullResult(), nil, err
	}
	return result, allRefs, nil
}

// arithmeticOperator returns the pointwise operator for +, -, *, / and %.
// Subtraction saturates at zero; times are unsigned and a negative tick has
// no meaning. Division and remainder report a zero divisor.
func arithmeticOperator(op expression.Operator) operateFunc {
	return func(a, b *timeline.TimeRef) (*timeline.TimeRef, error) {
		if a == nil || b == nil {
			return nil, nil
		}

		var value timeline.Time
		switch op {
		case expression.OpAdd:
			value = a.Value + b.Value
		case expression.OpSubtract:
			if b.Value > a.Value {
				value = 0
			} else {
				value = a.Value - b.Value
			}
		case expression.OpMultiply:
			value = a.Value * b.Value
		case expression.OpDivide:
			if b.Value == 0 {
				return nil, expression.ErrDivideByZero.New()
			}
			value = a.Value / b.Value
		case expression.OpRemainder:
			if b.Value == 0 {
				return nil, expression.ErrDivideByZero.New()
			}
			value = a.Value % b.Value
		default:
			return nil, nil
		}

		return &timeline.TimeRef{
			Value:      value,
			References: timeline.MergeReferences(a.References, b.References),
		}, nil
	}
}

// sideEvent is a boundary event of either operand of a boolean combination.
type sideEvent struct {
	time     timeline.Time
	isLeft   bool
	isStart  bool
	instance *timeline.Instance
}

func sideEvents(res lookupResult, isLeft bool) []sideEvent {
	var events []sideEvent

	for _, instance := range res.instances {
		if instance.End != nil {
			if *instance.End == instance.Start {
				// A zero-length instance has no boundaries.
				continue
			}
			events = append(events, sideEvent{
				time:     *instance.End,
				isLeft:   isLeft,
				isStart:  false,
				instance: instance,
			})
		}

		events = append(events, sideEvent{
			time:     instance.Start,
			isLeft:   isLeft,
			isStart:  true,
			instance: instance,
		})
	}

	return events
}

// lookupBooleanCombination merges the boundary events of both sides into a
// single stream and sweeps it once, emitting an instance whenever the truth
// of the combination changes.
func (c *Context) lookupBooleanCombination(op expression.Operator, l, r lookupResult, lRefs, rRefs timeline.References) lookupResult {
	events := append(sideEvents(l, true), sideEvents(r, false)...)
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i], events[j]
		return timeline.CompareEvents(a.time, a.isStart, a.instance.ID, b.time, b.isStart, b.instance.ID) < 0
	})

	calc := func(a, b bool) bool { return a && b }
	if op == expression.OpOr {
		calc = func(a, b bool) bool { return a || b }
	}

	// A scalar operand counts as true when it is non-zero.
	leftValue := l.timeRef != nil && l.timeRef.Value != 0
	rightValue := r.timeRef != nil && r.timeRef.Value != 0

	resultValue := calc(leftValue, rightValue)

	var instances []*timeline.Instance
	pushInstance := func(time timeline.Time, value bool, references timeline.References, caps []timeline.Cap) {
		if value {
			instances = append(instances, &timeline.Instance{
				ID:         c.GenerateID(),
				Start:      time,
				References: references,
				Caps:       caps,
			})
		} else if len(instances) > 0 {
			instances[len(instances)-1].End = timeline.TimePtr(time)
		}
	}

	pushInstance(0, resultValue, timeline.MergeReferences(lRefs, rRefs), nil)

	var leftInstance, rightInstance *timeline.Instance

	for i, event := range events {
		nextTime := timeline.TimeMax
		if i+1 < len(events) {
			nextTime = events[i+1].time
		}

		if event.isLeft {
			leftValue = event.isStart
			leftInstance = event.instance
		} else {
			rightValue = event.isStart
			rightInstance = event.instance
		}

		if nextTime != event.time {
			newResultValue := calc(leftValue, rightValue)
			if newResultValue != resultValue {
				var refs timeline.References
				var caps [][]timeline.Cap
				if leftInstance != nil {
					refs = timeline.MergeReferences(refs, leftInstance.References)
					caps = append(caps, leftInstance.Caps)
				}
				if rightInstance != nil {
					refs = timeline.MergeReferences(refs, rightInstance.References)
					caps = append(caps, rightInstance.Caps)
				}
				if refs == nil {
					refs = timeline.NewReferences()
				}

				pushInstance(event.time, newResultValue, refs, timeline.MergeCaps(caps...))
				resultValue = newResultValue
			}
		}
	}

	return instancesResult(instances)
}
