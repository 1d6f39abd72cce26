package model

import (
	"encoding/json"
	"strconv"
	"time"
)

// Operator is the comparison a FilterRule applies.
type Operator string

const (
	OpEquals      Operator = "equals"
	OpNotEquals   Operator = "not_equals"
	OpContains    Operator = "contains"
	OpGreaterThan Operator = "greater_than"
	OpLessThan    Operator = "less_than"
	OpIn          Operator = "in"
	OpNotIn       Operator = "not_in"
)

// IsValid checks whether the operator is a known value.
func (o Operator) IsValid() bool {
	switch o {
	case OpEquals, OpNotEquals, OpContains, OpGreaterThan, OpLessThan, OpIn, OpNotIn:
		return true
	}
	return false
}

// IsSetOperator reports whether the operator compares against a value set.
func (o Operator) IsSetOperator() bool {
	return o == OpIn || o == OpNotIn
}

// IsOrdering reports whether the operator compares numerically.
func (o Operator) IsOrdering() bool {
	return o == OpGreaterThan || o == OpLessThan
}

// Action is the classification outcome a matching rule yields.
type Action string

const (
	ActionAccept    Action = "accept"
	ActionReject    Action = "reject"
	ActionHighlight Action = "highlight"
)

// String returns the string representation of the action.
func (a Action) String() string {
	return string(a)
}

// IsValid checks whether the action is a known value.
func (a Action) IsValid() bool {
	switch a {
	case ActionAccept, ActionReject, ActionHighlight:
		return true
	}
	return false
}

// RuleValue is the comparison value of a rule: a single scalar or, for
// set operators, a list. Present is false when the value was absent or
// null, which keeps an explicit "" distinct from no value at all.
type RuleValue struct {
	Single  string
	Set     []string
	IsSet   bool
	Present bool
}

// SingleValue returns a scalar rule value.
func SingleValue(s string) RuleValue { return RuleValue{Single: s, Present: true} }

// SetValue returns a list rule value.
func SetValue(items ...string) RuleValue { return RuleValue{Set: items, IsSet: true, Present: true} }

// IsEmpty reports whether the value holds nothing to compare against.
func (v RuleValue) IsEmpty() bool {
	if v.IsSet {
		return len(v.Set) == 0
	}
	return v.Single == ""
}

// MarshalJSON encodes a set as a JSON array and a single value as a string.
func (v RuleValue) MarshalJSON() ([]byte, error) {
	if v.IsSet {
		if v.Set == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.Set)
	}
	return json.Marshal(v.Single)
}

// UnmarshalJSON accepts a string, number, boolean, or array of those.
func (v *RuleValue) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*v = RuleValue{Present: raw != nil}
	switch t := raw.(type) {
	case []any:
		v.IsSet = true
		v.Set = make([]string, 0, len(t))
		for _, elem := range t {
			v.Set = append(v.Set, scalarFromAny(elem).String())
		}
	case nil:
	case float64:
		v.Single = strconv.FormatFloat(t, 'f', -1, 64)
	default:
		v.Single = scalarFromAny(t).String()
	}
	return nil
}

// FilterRule is an admin-authored classification rule over one form field.
// Rules are held in an ordered list; the first match wins. Priority, when
// set, reorders rules ahead of array position (lower runs first).
type FilterRule struct {
	ID        string    `json:"id"`
	FieldID   string    `json:"field_id"`
	FieldType FieldType `json:"field_type,omitempty"`
	Label     string    `json:"label,omitempty"`
	Operator  Operator  `json:"operator"`
	Value     RuleValue `json:"value"`
	Action    Action    `json:"action"`
	Priority  int       `json:"priority,omitempty"`
}

// RuleSet is the ordered list of rules configured for a hackathon.
type RuleSet struct {
	HackathonID string       `json:"hackathon_id"`
	Enabled     bool         `json:"enabled"`
	Rules       []FilterRule `json:"rules"`
	UpdatedAt   time.Time    `json:"updated_at"`
}
