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
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseNumbers(t *testing.T) {
	require := require.New(t)

	e, err := ParseString("42")
	require.NoError(err)
	require.Equal(Number(42), e)

	e, err = ParseString("+42")
	require.NoError(err)
	require.Equal(Number(42), e)

	e, err = ParseString("-42")
	require.NoError(err)
	require.Equal(Number(-42), e)

	_, err = ParseString("42 -")
	require.Error(err)
	require.True(ErrInvalidExpression.Is(err))
}

func TestParseEmpty(t *testing.T) {
	require := require.New(t)

	e, err := ParseString("")
	require.NoError(err)
	require.Equal(Null{}, e)

	e, err = ParseString("   ")
	require.NoError(err)
	require.Equal(Null{}, e)
}

func TestParseSimpleExpressions(t *testing.T) {
	tests := []struct {
		input    string
		expected Expression
	}{
		{"1+2", NewBinary(Number(1), OpAdd, Number(2))},
		{"   1   *   2   ", NewBinary(Number(1), OpMultiply, Number(2))},
		{"1 + 2", NewBinary(Number(1), OpAdd, Number(2))},
		{"1 - 2", NewBinary(Number(1), OpSubtract, Number(2))},
		{"1 / 2", NewBinary(Number(1), OpDivide, Number(2))},
		{"1 % 2", NewBinary(Number(1), OpRemainder, Number(2))},
		{"1 + 2 * 3", NewBinary(Number(1), OpAdd, NewBinary(Number(2), OpMultiply, Number(3)))},
		{"1 * 2 + 3", NewBinary(NewBinary(Number(1), OpMultiply, Number(2)), OpAdd, Number(3))},
		{"1 * (2 + 3)", NewBinary(Number(1), OpMultiply, NewBinary(Number(2), OpAdd, Number(3)))},
		{"#first & #second", NewBinary(String("#first"), OpAnd, String("#second"))},
		{"!thisOne", NewInvert(String("thisOne"))},
		{
			"!thisOne & !(that | !those)",
			NewBinary(
				NewInvert(String("thisOne")),
				OpAnd,
				NewInvert(NewBinary(String("that"), OpOr, NewInvert(String("those")))),
			),
		},
		{
			"(!.classA | !$layer.classB) & #obj",
			NewBinary(
				NewBinary(NewInvert(String(".classA")), OpOr, NewInvert(String("$layer.classB"))),
				OpAnd,
				String("#obj"),
			),
		},
		{"#obj.start", String("#obj.start")},
		{"19", Number(19)},
		{
			"1+2+3",
			NewBinary(NewBinary(Number(1), OpAdd, Number(2)), OpAdd, Number(3)),
		},
		// + and - share a precedence level, so mixed chains associate left.
		{
			"10-2+3",
			NewBinary(NewBinary(Number(10), OpSubtract, Number(2)), OpAdd, Number(3)),
		},
		{
			"1+2-3",
			NewBinary(NewBinary(Number(1), OpAdd, Number(2)), OpSubtract, Number(3)),
		},
		// A sign following an operator merges into the literal.
		{"1 * -2", NewBinary(Number(1), OpMultiply, Number(-2))},
		{"1 + -2", NewBinary(Number(1), OpAdd, Number(-2))},
	}

	for _, test := range tests {
		t.Run(test.input, func(t *testing.T) {
			e, err := ParseString(test.input)
			require.NoError(t, err)
			require.Equal(t, test.expected, e)
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		input string
		kind  func(error) bool
	}{
		{"(1 + 2", ErrMismatchedParenthesis.Is},
		{"1 + 2)", ErrMismatchedParenthesis.Is},
		{"1 2", ErrMissingOperator.Is},
		{"1 ! 2", ErrInvalidOperator.Is},
		{"1 +", ErrInvalidExpression.Is},
		{"* 2", ErrInvalidExpression.Is},
	}

	for _, test := range tests {
		t.Run(test.input, func(t *testing.T) {
			_, err := ParseString(test.input)
			require.Error(t, err)
			require.True(t, test.kind(err), "unexpected error: %v", err)
		})
	}
}

func TestSimplifyExpressions(t *testing.T) {
	require := require.New(t)

	simplifyString := func(s string) (Expression, error) {
		e, err := ParseString(s)
		require.NoError(err)
		return Simplify(e)
	}

	e, err := simplifyString("1+2+3")
	require.NoError(err)
	require.Equal(Number(6), e)

	e, err = simplifyString("1+2*2+(4-2)")
	require.NoError(err)
	require.Equal(Number(7), e)

	e, err = simplifyString("10 / 2 + 1")
	require.NoError(err)
	require.Equal(Number(6), e)

	e, err = simplifyString("40+2+asdf")
	require.NoError(err)
	require.Equal(NewBinary(Number(42), OpAdd, String("asdf")), e)

	// Boolean operators are not folded.
	e, err = simplifyString("1 & 2")
	require.NoError(err)
	require.Equal(NewBinary(Number(1), OpAnd, Number(2)), e)
}

func TestSimplifyDivideByZero(t *testing.T) {
	require := require.New(t)

	e, err := ParseString("10 / 0")
	require.NoError(err)
	_, err = Simplify(e)
	require.Error(err)
	require.True(ErrDivideByZero.Is(err))

	e, err = ParseString("10 % 0")
	require.NoError(err)
	_, err = Simplify(e)
	require.Error(err)
	require.True(ErrDivideByZero.Is(err))
}

func TestSimplifyIdempotent(t *testing.T) {
	inputs := []string{
		"",
		"42",
		"-42",
		"1+2+3",
		"40+2+asdf",
		"#obj.start + 10",
		"(!.classA | !$layer.classB) & #obj",
		"!.muted & .playout",
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			require := require.New(t)

			once, err := Simplify(String(input))
			require.NoError(err)
			twice, err := Simplify(once)
			require.NoError(err)
			require.Equal(once, twice)
		})
	}
}

func TestRewriteBoolean(t *testing.T) {
	require := require.New(t)

	e, ok := RewriteBoolean(Number(1))
	require.True(ok)
	require.Equal(Boolean(true), e)

	e, ok = RewriteBoolean(Number(0))
	require.True(ok)
	require.Equal(Boolean(false), e)

	e, ok = RewriteBoolean(String("1"))
	require.True(ok)
	require.Equal(Boolean(true), e)

	e, ok = RewriteBoolean(String("false"))
	require.True(ok)
	require.Equal(Boolean(false), e)

	_, ok = RewriteBoolean(String(".class0"))
	require.False(ok)

	_, ok = RewriteBoolean(Number(50))
	require.False(ok)
}

func TestExpressionJSONRoundTrip(t *testing.T) {
	inputs := []Expression{
		Null{},
		Number(42),
		Number(-1),
		Boolean(true),
		String("#obj.start"),
		NewBinary(String("#video.start"), OpAdd, Number(10)),
		NewInvert(NewBinary(String(".playout"), OpAnd, NewInvert(String(".muted")))),
	}

	for _, input := range inputs {
		t.Run(input.String(), func(t *testing.T) {
			require := require.New(t)

			data, err := json.Marshal(input)
			require.NoError(err)

			decoded, err := DecodeJSON(data)
			require.NoError(err)
			require.Equal(input, decoded)
		})
	}
}
