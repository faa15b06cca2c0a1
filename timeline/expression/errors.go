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

import "gopkg.in/src-d/go-errors.v1"

var (
	// ErrMismatchedParenthesis is returned when an expression string opens
	// or closes a group without its counterpart.
	ErrMismatchedParenthesis = errors.NewKind("mismatched parenthesis in expression")

	// ErrInvalidExpression is returned for a structurally impossible token
	// sequence, such as a trailing operator.
	ErrInvalidExpression = errors.NewKind("invalid expression")

	// ErrMissingOperator is returned when two operands follow each other
	// with no operator between them.
	ErrMissingOperator = errors.NewKind("missing operator between operands")

	// ErrInvalidOperator is returned when an operator token cannot be used
	// at its position, such as "!" between two operands.
	ErrInvalidOperator = errors.NewKind("invalid use of operator %q")

	// ErrDivideByZero is returned when a division or remainder has a zero
	// right-hand side.
	ErrDivideByZero = errors.NewKind("division by zero")
)
