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

import "github.com/dolthub/supertimeline/timeline"

// operateFunc combines two scalar operands. Either operand may be nil, in
// which case the result is nil (no value).
type operateFunc func(a, b *timeline.TimeRef) (*timeline.TimeRef, error)

// operandArray adapts a lookup result for pointwise operation: a scalar
// becomes a single zero-length instance, Null becomes nothing.
func operandArray(r lookupResult) (instances []*timeline.Instance, broadcast bool, ok bool) {
	switch {
	case r.timeRef != nil:
		return []*timeline.Instance{{
			Start:      r.timeRef.Value,
			End:        timeline.TimePtr(r.timeRef.Value),
			References: r.timeRef.References,
		}}, true, true
	case r.hasInstances:
		return r.instances, false, true
	default:
		return nil, false, false
	}
}

// operateOnArrays applies op pointwise over two instance sequences, aligned
// by index. A scalar side broadcasts against every element of the other
// side; two instance sequences are paired only up to the shorter length.
// Start and end of each pair are operated on independently. The final
// clean keeps zero-length outputs: a pair of scalars yields one zero-length
// instance carrying the value.
func operateOnArrays(gen timeline.IDGenerator, lookup0, lookup1 lookupResult, op operateFunc) (lookupResult, error) {
	arr0, broadcast0, ok := operandArray(lookup0)
	if !ok {
		return nullResult(), nil
	}
	arr1, broadcast1, ok := operandArray(lookup1)
	if !ok {
		return nullResult(), nil
	}

	minLength := 1
	if !broadcast0 || !broadcast1 {
		switch {
		case broadcast0:
			minLength = len(arr1)
		case broadcast1:
			minLength = len(arr0)
		default:
			minLength = len(arr0)
			if len(arr1) < minLength {
				minLength = len(arr1)
			}
		}
	}

	var result []*timeline.Instance

	for i := 0; i < minLength; i++ {
		a := indexOrFirst(arr0, i)
		b := indexOrFirst(arr1, i)
		if a == nil || b == nil {
			continue
		}

		start, err := operateStart(a, b, op)
		if err != nil {
			return nullResult(), err
		}
		if start == nil {
			continue
		}

		end, err := operateEnd(a, b, op)
		if err != nil {
			return nullResult(), err
		}

		instance := &timeline.Instance{
			ID:         gen.GenerateID(),
			Start:      start.Value,
			References: start.References.Clone(),
			Caps:       timeline.MergeCaps(a.Caps, b.Caps),
		}
		if end != nil {
			instance.End = timeline.TimePtr(end.Value)
			instance.References.AddAll(end.References)
		}

		result = append(result, instance)
	}

	return instancesResult(timeline.CleanInstances(gen, result, false, false)), nil
}

func indexOrFirst(arr []*timeline.Instance, i int) *timeline.Instance {
	if i < len(arr) {
		return arr[i]
	}
	if len(arr) > 0 {
		return arr[0]
	}
	return nil
}

// operateStart combines the pair's starts. An IsFirst side passes its start
// through untouched: it represents the beginning of time, not a value to
// offset.
func operateStart(a, b *timeline.Instance, op operateFunc) (*timeline.TimeRef, error) {
	if a.IsFirst {
		return &timeline.TimeRef{Value: a.Start, References: a.References.Clone()}, nil
	}
	if b.IsFirst {
		return &timeline.TimeRef{Value: b.Start, References: b.References.Clone()}, nil
	}
	return op(instanceTimeRef(a, a.Start), instanceTimeRef(b, b.Start))
}

func operateEnd(a, b *timeline.Instance, op operateFunc) (*timeline.TimeRef, error) {
	if a.IsFirst {
		if a.End == nil {
			return nil, nil
		}
		return &timeline.TimeRef{Value: *a.End, References: a.References.Clone()}, nil
	}
	if b.IsFirst {
		if b.End == nil {
			return nil, nil
		}
		return &timeline.TimeRef{Value: *b.End, References: b.References.Clone()}, nil
	}

	var aEnd, bEnd *timeline.TimeRef
	if a.End != nil {
		aEnd = instanceTimeRef(a, *a.End)
	}
	if b.End != nil {
		bEnd = instanceTimeRef(b, *b.End)
	}
	return op(aEnd, bEnd)
}

// instanceTimeRef wraps one bound of an instance, carrying the instance's
// references plus its own id.
func instanceTimeRef(i *timeline.Instance, value timeline.Time) *timeline.TimeRef {
	refs := i.References.Clone()
	if i.ID != "" {
		refs.Add(i.ID)
	}
	return &timeline.TimeRef{Value: value, References: refs}
}

// applyParentInstances offsets a looked-up value by the instances of the
// object's parent group (a Cartesian addition over index-aligned pairs).
func applyParentInstances(gen timeline.IDGenerator, parentInstances []*timeline.Instance, value lookupResult) (lookupResult, error) {
	if parentInstances == nil {
		return nullResult(), nil
	}

	add := func(a, b *timeline.TimeRef) (*timeline.TimeRef, error) {
		if a == nil || b == nil {
			return nil, nil
		}
		return &timeline.TimeRef{
			Value:      a.Value + b.Value,
			References: timeline.MergeReferences(a.References, b.References),
		}, nil
	}

	return operateOnArrays(gen, instancesResult(parentInstances), value, add)
}
