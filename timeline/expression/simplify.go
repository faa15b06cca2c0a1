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

package expression

// Simplify interprets every String leaf and folds constant arithmetic.
// Boolean operators are left alone: they combine interval sets, not
// numbers. Simplify is idempotent.
func Simplify(e Expression) (Expression, error) {
	switch v := e.(type) {
	case String:
		parsed, err := ParseString(string(v))
		if err != nil {
			return nil, err
		}
		// Recurse only if parsing produced something richer, so that a
		// plain reference token does not loop forever.
		if _, isStr := parsed.(String); isStr {
			return parsed, nil
		}
		return Simplify(parsed)
	case Null:
		return Null{}, nil
	case Number, Boolean:
		return v, nil
	case *Invert:
		inner, err := Simplify(v.Inner)
		if err != nil {
			return nil, err
		}
		return &Invert{Inner: inner}, nil
	case *Binary:
		l, err := Simplify(v.Left)
		if err != nil {
			return nil, err
		}
		r, err := Simplify(v.Right)
		if err != nil {
			return nil, err
		}

		ln, lOk := l.(Number)
		rn, rOk := r.(Number)
		if lOk && rOk {
			switch v.Op {
			case OpAdd:
				return Number(int64(ln) + int64(rn)), nil
			case OpSubtract:
				return Number(int64(ln) - int64(rn)), nil
			case OpMultiply:
				return Number(int64(ln) * int64(rn)), nil
			case OpDivide:
				if rn == 0 {
					return nil, ErrDivideByZero.New()
				}
				return Number(int64(ln) / int64(rn)), nil
			case OpRemainder:
				if rn == 0 {
					return nil, ErrDivideByZero.New()
				}
				return Number(int64(ln) % int64(rn)), nil
			}
		}
		return &Binary{Left: l, Op: v.Op, Right: r}, nil
	default:
		return nil, ErrInvalidExpression.New()
	}
}

// RewriteBoolean rewrites boolean-style "while" values: numeric or string
// 1/0 (and true/false) become Boolean literals. It returns the rewritten
// expression and whether a rewrite applied.
func RewriteBoolean(e Expression) (Expression, bool) {
	switch v := e.(type) {
	case Boolean:
		return v, true
	case Number:
		switch v {
		case 0:
			return Boolean(false), true
		case 1:
			return Boolean(true), true
		}
	case String:
		switch string(v) {
		case "0", "false":
			return Boolean(false), true
		case "1", "true":
			return Boolean(true), true
		}
	}
	return nil, false
}
