package model

import (
	"encoding/json"
	"strconv"
	"strings"
)

// ScalarKind tags the shape of a Scalar.
type ScalarKind string

const (
	ScalarNull   ScalarKind = "null"
	ScalarString ScalarKind = "string"
	ScalarNumber ScalarKind = "number"
	ScalarBool   ScalarKind = "bool"
)

// Scalar is a single string, number, or boolean answer value.
// The zero value is a null scalar.
type Scalar struct {
	Kind ScalarKind
	Str  string
	Num  float64
	Bool bool
}

// StringScalar returns a string scalar.
func StringScalar(s string) Scalar { return Scalar{Kind: ScalarString, Str: s} }

// NumberScalar returns a numeric scalar.
func NumberScalar(n float64) Scalar { return Scalar{Kind: ScalarNumber, Num: n} }

// BoolScalar returns a boolean scalar.
func BoolScalar(b bool) Scalar { return Scalar{Kind: ScalarBool, Bool: b} }

// String renders the scalar the way rule predicates compare it.
func (s Scalar) String() string {
	switch s.Kind {
	case ScalarString:
		return s.Str
	case ScalarNumber:
		return strconv.FormatFloat(s.Num, 'f', -1, 64)
	case ScalarBool:
		return strconv.FormatBool(s.Bool)
	}
	return ""
}

func (s Scalar) toAny() any {
	switch s.Kind {
	case ScalarString:
		return s.Str
	case ScalarNumber:
		return s.Num
	case ScalarBool:
		return s.Bool
	}
	return nil
}

// MarshalJSON encodes the scalar as a plain JSON value.
func (s Scalar) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.toAny())
}

// UnmarshalJSON decodes any JSON value. Non-scalar input becomes a string
// scalar holding the compact JSON text.
func (s *Scalar) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		*s = Scalar{}
		return nil
	}
	*s = scalarFromAny(v)
	return nil
}

func scalarFromAny(v any) Scalar {
	switch t := v.(type) {
	case nil:
		return Scalar{Kind: ScalarNull}
	case string:
		return StringScalar(t)
	case float64:
		return NumberScalar(t)
	case bool:
		return BoolScalar(t)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return Scalar{Kind: ScalarNull}
	}
	return StringScalar(string(data))
}

// ValueKind tags the shape of an AnswerValue.
type ValueKind string

const (
	ValueNull   ValueKind = "null"
	ValueScalar ValueKind = "scalar"
	ValueList   ValueKind = "list"
	ValueRecord ValueKind = "record"
)

// AnswerValue is the value of a dynamic registration-form answer: a scalar,
// a list of scalars (checkboxes, multi-selects), or a record (grouped
// questions). The zero value is null.
type AnswerValue struct {
	Kind   ValueKind
	Scalar Scalar
	List   []Scalar
	Record map[string]AnswerValue
}

// Text returns a string answer value.
func Text(s string) AnswerValue { return AnswerValue{Kind: ValueScalar, Scalar: StringScalar(s)} }

// Number returns a numeric answer value.
func Number(n float64) AnswerValue { return AnswerValue{Kind: ValueScalar, Scalar: NumberScalar(n)} }

// Bool returns a boolean answer value.
func Bool(b bool) AnswerValue { return AnswerValue{Kind: ValueScalar, Scalar: BoolScalar(b)} }

// List returns a list answer value.
func List(items ...Scalar) AnswerValue { return AnswerValue{Kind: ValueList, List: items} }

// Record returns a record answer value.
func Record(fields map[string]AnswerValue) AnswerValue {
	return AnswerValue{Kind: ValueRecord, Record: fields}
}

// IsNull reports whether the value carries nothing.
func (v AnswerValue) IsNull() bool {
	switch v.Kind {
	case ValueScalar:
		return v.Scalar.Kind == ScalarNull || v.Scalar.Kind == ""
	case ValueList, ValueRecord:
		return false
	}
	return true
}

// String coerces the value to the string form used by rule predicates:
// lists are comma-joined, records are compact JSON with sorted keys, and
// null is the empty string.
func (v AnswerValue) String() string {
	switch v.Kind {
	case ValueScalar:
		return v.Scalar.String()
	case ValueList:
		parts := make([]string, len(v.List))
		for i, s := range v.List {
			parts[i] = s.String()
		}
		return strings.Join(parts, ",")
	case ValueRecord:
		data, err := json.Marshal(v.toAny())
		if err != nil {
			return ""
		}
		return string(data)
	}
	return ""
}

// Elements returns the string form of each list element, or a single
// element holding String() for any other shape.
func (v AnswerValue) Elements() []string {
	if v.Kind != ValueList {
		return []string{v.String()}
	}
	out := make([]string, len(v.List))
	for i, s := range v.List {
		out[i] = s.String()
	}
	return out
}

func (v AnswerValue) toAny() any {
	switch v.Kind {
	case ValueScalar:
		return v.Scalar.toAny()
	case ValueList:
		out := make([]any, len(v.List))
		for i, s := range v.List {
			out[i] = s.toAny()
		}
		return out
	case ValueRecord:
		out := make(map[string]any, len(v.Record))
		for k, f := range v.Record {
			out[k] = f.toAny()
		}
		return out
	}
	return nil
}

func valueFromAny(raw any) AnswerValue {
	switch t := raw.(type) {
	case nil:
		return AnswerValue{Kind: ValueNull}
	case []any:
		items := make([]Scalar, 0, len(t))
		for _, elem := range t {
			items = append(items, scalarFromAny(elem))
		}
		return List(items...)
	case map[string]any:
		fields := make(map[string]AnswerValue, len(t))
		for k, f := range t {
			fields[k] = valueFromAny(f)
		}
		return Record(fields)
	}
	return AnswerValue{Kind: ValueScalar, Scalar: scalarFromAny(raw)}
}

// MarshalJSON encodes the value in its natural JSON shape.
func (v AnswerValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.toAny())
}

// UnmarshalJSON accepts any JSON shape and never fails; input that cannot
// be decoded becomes a null value.
func (v *AnswerValue) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		*v = AnswerValue{Kind: ValueNull}
		return nil
	}
	*v = valueFromAny(raw)
	return nil
}

// Answer is one entry of a participant's additional answers, keyed by the
// form-field identifier it answers.
type Answer struct {
	Label string      `json:"label"`
	Value AnswerValue `json:"value"`
}

// UnmarshalJSON tolerates bare values stored without the {label, value}
// envelope.
func (a *Answer) UnmarshalJSON(data []byte) error {
	var env map[string]json.RawMessage
	if err := json.Unmarshal(data, &env); err == nil {
		if rawVal, ok := env["value"]; ok {
			var label string
			_ = json.Unmarshal(env["label"], &label)
			a.Label = label
			return a.Value.UnmarshalJSON(rawVal)
		}
	}
	a.Label = ""
	return a.Value.UnmarshalJSON(data)
}
