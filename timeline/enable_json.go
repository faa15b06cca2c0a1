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

import (
	"encoding/json"

	"github.com/dolthub/supertimeline/timeline/expression"
)

type enableJSON struct {
	Start     json.RawMessage `json:"start,omitempty"`
	End       json.RawMessage `json:"end,omitempty"`
	While     json.RawMessage `json:"while,omitempty"`
	Duration  json.RawMessage `json:"duration,omitempty"`
	Repeating json.RawMessage `json:"repeating,omitempty"`
}

func marshalExpr(e expression.Expression) (json.RawMessage, error) {
	if e == nil {
		return nil, nil
	}
	return json.Marshal(e)
}

func unmarshalExpr(raw json.RawMessage) (expression.Expression, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	return expression.DecodeJSON(raw)
}

// MarshalJSON serializes the clause with each expression in the compact
// scalar-or-object form of the expression codec.
func (e Enable) MarshalJSON() ([]byte, error) {
	var out enableJSON
	var err error
	if out.Start, err = marshalExpr(e.Start); err != nil {
		return nil, err
	}
	if out.End, err = marshalExpr(e.End); err != nil {
		return nil, err
	}
	if out.While, err = marshalExpr(e.While); err != nil {
		return nil, err
	}
	if out.Duration, err = marshalExpr(e.Duration); err != nil {
		return nil, err
	}
	if out.Repeating, err = marshalExpr(e.Repeating); err != nil {
		return nil, err
	}
	return json.Marshal(out)
}

// UnmarshalJSON restores a clause serialized by MarshalJSON.
func (e *Enable) UnmarshalJSON(data []byte) error {
	var raw enableJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var err error
	if e.Start, err = unmarshalExpr(raw.Start); err != nil {
		return err
	}
	if e.End, err = unmarshalExpr(raw.End); err != nil {
		return err
	}
	if e.While, err = unmarshalExpr(raw.While); err != nil {
		return err
	}
	if e.Duration, err = unmarshalExpr(raw.Duration); err != nil {
		return err
	}
	e.Repeating, err = unmarshalExpr(raw.Repeating)
	return err
}
