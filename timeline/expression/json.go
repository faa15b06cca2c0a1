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
	"math"

	"github.com/pkg/errors"
)

// Expressions serialize as JSON scalars for the leaf nodes and as small
// objects for the composite ones: {"l":…,"o":"+","r":…} for Binary and
// {"invert":…} for Invert. Null serializes as JSON null.

func (Null) MarshalJSON() ([]byte, error)      { return []byte("null"), nil }
func (n Number) MarshalJSON() ([]byte, error)  { return json.Marshal(int64(n)) }
func (b Boolean) MarshalJSON() ([]byte, error) { return json.Marshal(bool(b)) }
func (s String) MarshalJSON() ([]byte, error)  { return json.Marshal(string(s)) }

func (o Operator) MarshalJSON() ([]byte, error) { return json.Marshal(o.String()) }

func (o *Operator) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	op, ok := matchOperator(s)
	if !ok {
		return ErrInvalidOperator.New(s)
	}
	*o = op
	return nil
}

func (b *Binary) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Left  Expression `json:"l"`
		Op    Operator   `json:"o"`
		Right Expression `json:"r"`
	}{b.Left, b.Op, b.Right})
}

func (i *Invert) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Inner Expression `json:"invert"`
	}{i.Inner})
}

// DecodeJSON decodes the serialized form produced by the expression
// marshalers back into an expression tree.
func DecodeJSON(data []byte) (Expression, error) {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, "decoding expression")
	}
	return FromValue(raw)
}

// FromValue converts a decoded generic JSON value into an expression.
func FromValue(raw interface{}) (Expression, error) {
	switch v := raw.(type) {
	case nil:
		return Null{}, nil
	case bool:
		return Boolean(v), nil
	case string:
		return String(v), nil
	case float64:
		return Number(int64(math.Round(v))), nil
	case int:
		return Number(int64(v)), nil
	case int64:
		return Number(v), nil
	case map[string]interface{}:
		if inner, ok := v["invert"]; ok {
			e, err := FromValue(inner)
			if err != nil {
				return nil, err
			}
			return &Invert{Inner: e}, nil
		}

		opRaw, ok := v["o"].(string)
		if !ok {
			return nil, errors.New("expression object is missing its operator")
		}
		op, ok := matchOperator(opRaw)
		if !ok {
			return nil, ErrInvalidOperator.New(opRaw)
		}
		l, err := FromValue(v["l"])
		if err != nil {
			return nil, err
		}
		r, err := FromValue(v["r"])
		if err != nil {
			return nil, err
		}
		return &Binary{Left: l, Op: op, Right: r}, nil
	default:
		return nil, errors.Errorf("cannot decode %T as an expression", raw)
	}
}
