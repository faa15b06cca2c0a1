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

import (
	"regexp"
	"strconv"
	"strings"
)

// operatorRegex puts a space around every operator or parenthesis so that
// the whole string can be split on whitespace.
var operatorRegex = regexp.MustCompile(`([&|+\-*/%!()])`)

// precedenceLevels lists the operator levels from loosest to tightest
// binding. The parser splits a phrase at the rightmost occurrence of any
// operator in the loosest level present.
var precedenceLevels = [][]string{
	{"|"},
	{"&"},
	{"+", "-"},
	{"*", "/", "%"},
	{"!"},
}

// ParseString interprets an expression string into an expression tree.
// An empty (or all-whitespace) string parses to Null. A bare token that is
// not numeric stays a String node for the lookup engine to resolve.
func ParseString(s string) (Expression, error) {
	spaced := operatorRegex.ReplaceAllString(s, " $1 ")
	tokens := strings.Fields(spaced)
	if len(tokens) == 0 {
		return Null{}, nil
	}

	wrapped, err := wrapTokens(tokens)
	if err != nil {
		return nil, err
	}
	return interpretPhrase(wrapped, nil)
}

// Interpret parses every String leaf of e, leaving other nodes untouched.
// String leaves that do not parse to anything richer remain Strings.
func Interpret(e Expression) (Expression, error) {
	switch v := e.(type) {
	case Null, Number, Boolean:
		return v, nil
	case String:
		return ParseString(string(v))
	case *Binary:
		l, err := Interpret(v.Left)
		if err != nil {
			return nil, err
		}
		r, err := Interpret(v.Right)
		if err != nil {
			return nil, err
		}
		return &Binary{Left: l, Op: v.Op, Right: r}, nil
	case *Invert:
		inner, err := Interpret(v.Inner)
		if err != nil {
			return nil, err
		}
		return &Invert{Inner: inner}, nil
	default:
		return nil, ErrInvalidExpression.New()
	}
}

// wrappedToken is either a single token or a parenthesized group.
type wrappedToken struct {
	single string
	group  []wrappedToken
	isGroup bool
}

func wrapTokens(tokens []string) ([]wrappedToken, error) {
	var stack [][]wrappedToken
	var current []wrappedToken

	for _, tok := range tokens {
		switch tok {
		case "(":
			stack = append(stack, current)
			current = nil
		case ")":
			if len(stack) == 0 {
				return nil, ErrMismatchedParenthesis.New()
			}
			parent := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			parent = append(parent, wrappedToken{group: current, isGroup: true})
			current = parent
		default:
			current = append(current, wrappedToken{single: tok})
		}
	}

	if len(stack) != 0 {
		return nil, ErrMismatchedParenthesis.New()
	}
	return current, nil
}

func matchOperator(s string) (Operator, bool) {
	switch s {
	case "&":
		return OpAnd, true
	case "|":
		return OpOr, true
	case "+":
		return OpAdd, true
	case "-":
		return OpSubtract, true
	case "*":
		return OpMultiply, true
	case "/":
		return OpDivide, true
	case "%":
		return OpRemainder, true
	default:
		return 0, false
	}
}

// numberPolarity merges a pending unary +/- into a numeric literal. Any
// other pending operator in front of a bare number is invalid.
func numberPolarity(prevOp *Operator, val int64) (int64, bool) {
	if prevOp == nil {
		return val, true
	}
	switch *prevOp {
	case OpAdd:
		return val, true
	case OpSubtract:
		return -val, true
	default:
		return 0, false
	}
}

// findOperator returns the index of the phrase's top operator: the
// rightmost occurrence of any operator in the loosest precedence level
// present, or -1 if the phrase contains no operator at all.
func findOperator(phrase []wrappedToken) int {
	for _, level := range precedenceLevels {
		found := -1
		for i, tok := range phrase {
			if tok.isGroup {
				continue
			}
			for _, op := range level {
				if tok.single == op {
					found = i
					break
				}
			}
		}
		if found >= 0 {
			return found
		}
	}
	return -1
}

func interpretPhrase(phrase []wrappedToken, prevOp *Operator) (Expression, error) {
	if len(phrase) == 0 {
		return Null{}, nil
	}

	if len(phrase) == 1 {
		tok := phrase[0]
		if tok.isGroup {
			if prevOp != nil {
				return nil, ErrInvalidExpression.New()
			}
			return interpretPhrase(tok.group, nil)
		}
		if num, err := strconv.ParseInt(tok.single, 10, 64); err == nil {
			signed, ok := numberPolarity(prevOp, num)
			if !ok {
				return nil, ErrInvalidExpression.New()
			}
			return Number(signed), nil
		}
		return String(tok.single), nil
	}

	opIndex := findOperator(phrase)
	if opIndex < 0 {
		return nil, ErrMissingOperator.New()
	}
	if opIndex == len(phrase)-1 {
		// Nothing follows the operator, so the phrase must be bad.
		return nil, ErrInvalidExpression.New()
	}

	rawOp := phrase[opIndex].single

	if opIndex == 0 && rawOp == "!" {
		inner, err := interpretPhrase(phrase[1:], nil)
		if err != nil {
			return nil, err
		}
		return &Invert{Inner: inner}, nil
	}

	newOp, ok := matchOperator(rawOp)
	if !ok {
		return nil, ErrInvalidOperator.New(rawOp)
	}

	if opIndex == 0 {
		// A leading operator acts as the sign of what follows.
		if prevOp != nil {
			return nil, ErrInvalidExpression.New()
		}
		return interpretPhrase(phrase[1:], &newOp)
	}

	// When the token before the operator is itself an operator, the found
	// token is a unary sign on the right operand and the earlier operator
	// is the real split point.
	var prevAsOp *Operator
	if !phrase[opIndex-1].isGroup {
		if op, ok := matchOperator(phrase[opIndex-1].single); ok {
			prevAsOp = &op
		}
	}

	realOp := newOp
	splitIndex := opIndex
	var rightPrev *Operator
	if prevAsOp != nil {
		realOp = *prevAsOp
		splitIndex = opIndex - 1
		rightPrev = &newOp
	}

	l, err := interpretPhrase(phrase[:splitIndex], prevOp)
	if err != nil {
		return nil, err
	}
	r, err := interpretPhrase(phrase[opIndex+1:], rightPrev)
	if err != nil {
		return nil, err
	}

	return &Binary{Left: l, Op: realOp, Right: r}, nil
}
