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

// Package expression defines the enable-expression model of the timeline
// resolver: a small tagged tree of literals, reference tokens and operators,
// together with the parser and the constant-folding simplifier.
package expression

import "fmt"

// Operator is a binary expression operator.
type Operator int

const (
	// OpAnd is the boolean intersection of two interval sets.
	OpAnd Operator = iota
	// OpOr is the boolean union of two interval sets.
	OpOr
	OpAdd
	OpSubtract
	OpMultiply
	OpDivide
	OpRemainder
)

func (o Operator) String() string {
	switch o {
	case OpAnd:
		return "&"
	case OpOr:
		return "|"
	case OpAdd:
		return "+"
	case OpSubtract:
		return "-"
	case OpMultiply:
		return "*"
	case OpDivide:
		return "/"
	case OpRemainder:
		return "%"
	default:
		return fmt.Sprintf("Operator(%d)", int(o))
	}
}

// IsBoolean reports whether the operator combines interval sets rather than
// scalar times.
func (o Operator) IsBoolean() bool {
	return o == OpAnd || o == OpOr
}

// Expression is a node in an enable-expression tree.
//
// The concrete types are Null, Number, Boolean, String, *Binary and *Invert.
// String nodes hold reference tokens (or unparsed sub-expressions) and are
// resolved later by the lookup engine.
type Expression interface {
	fmt.Stringer
	exprNode()
}

// Null is the empty expression. It resolves to no value at all.
type Null struct{}

// Number is a signed integer literal.
type Number int64

// Boolean is a boolean literal. It never comes out of the parser; it is
// produced by boolean rewrites of "while" clauses and by callers that supply
// booleans directly.
type Boolean bool

// String is a reference token such as "#id.start", ".class" or "$layer",
// or a plain expression string that has not been interpreted yet.
type String string

// Binary combines two sub-expressions with an operator.
type Binary struct {
	Left  Expression
	Op    Operator
	Right Expression
}

// Invert is boolean NOT over the instances of its inner expression.
type Invert struct {
	Inner Expression
}

func (Null) exprNode()    {}
func (Number) exprNode()  {}
func (Boolean) exprNode() {}
func (String) exprNode()  {}
func (*Binary) exprNode() {}
func (*Invert) exprNode() {}

func (Null) String() string      { return "null" }
func (n Number) String() string  { return fmt.Sprintf("%d", int64(n)) }
func (b Boolean) String() string { return fmt.Sprintf("%t", bool(b)) }
func (s String) String() string  { return fmt.Sprintf("%q", string(s)) }

func (b *Binary) String() string {
	return fmt.Sprintf("(%s %s %s)", b.Left, b.Op, b.Right)
}

func (i *Invert) String() string { return fmt.Sprintf("!%s", i.Inner) }

// NewBinary returns the expression (l op r).
func NewBinary(l Expression, op Operator, r Expression) Expression {
	return &Binary{Left: l, Op: op, Right: r}
}

// NewInvert returns the expression !e.
func NewInvert(e Expression) Expression {
	return &Invert{Inner: e}
}

// IsNull reports whether e is the Null expression.
func IsNull(e Expression) bool {
	_, ok := e.(Null)
	return ok
}

// IsConstant reports whether e contains no reference tokens. A Binary node
// is constant only when both of its operands are.
func IsConstant(e Expression) bool {
	switch v := e.(type) {
	case Null, Number, Boolean:
		return true
	case String:
		return false
	case *Binary:
		return IsConstant(v.Left) && IsConstant(v.Right)
	case *Invert:
		return IsConstant(v.Inner)
	default:
		return false
	}
}
