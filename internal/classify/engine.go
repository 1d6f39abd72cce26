package classify

import (
	"sort"
	"strconv"
	"strings"

	"github.com/alfredjeanlab/hackops/internal/model"
)

// Engine classifies participants against an ordered rule list. A disabled
// engine never yields an outcome.
type Engine struct {
	Enabled bool
}

// AnnotatedParticipant pairs a participant with the outcome of one
// classification pass. Outcome is empty when no rule matched.
type AnnotatedParticipant struct {
	Participant *model.Participant `json:"participant"`
	Outcome     model.Action       `json:"outcome,omitempty"`
	RuleID      string             `json:"rule_id,omitempty"`
}

// Matched reports whether any rule matched the participant.
func (a AnnotatedParticipant) Matched() bool {
	return a.Outcome != ""
}

// Summary counts classification outcomes.
type Summary struct {
	Accept    int `json:"accept"`
	Reject    int `json:"reject"`
	Highlight int `json:"highlight"`
	None      int `json:"none"`
}

// Classify returns the action of the first rule that matches p, in slice
// order. Rules after the first match are not evaluated.
func Classify(p *model.Participant, rules []model.FilterRule) (model.Action, bool) {
	return Engine{Enabled: true}.Classify(p, rules)
}

// Classify returns the action of the first matching rule, or false when the
// engine is disabled, the rule list is empty, or nothing matches.
func (e Engine) Classify(p *model.Participant, rules []model.FilterRule) (model.Action, bool) {
	r := e.firstMatch(p, rules)
	if r == nil {
		return "", false
	}
	return r.Action, true
}

func (e Engine) firstMatch(p *model.Participant, rules []model.FilterRule) *model.FilterRule {
	if !e.Enabled {
		return nil
	}
	for i := range rules {
		if Match(p, &rules[i]) {
			return &rules[i]
		}
	}
	return nil
}

// Annotate classifies every participant against the rule set. Rules are
// put in evaluation order with OrderRules first. The result has one entry
// per input participant, in input order.
func Annotate(participants []*model.Participant, rs *model.RuleSet) []AnnotatedParticipant {
	var e Engine
	var rules []model.FilterRule
	if rs != nil {
		e.Enabled = rs.Enabled
		rules = OrderRules(rs.Rules)
	}
	return e.Annotate(participants, rules)
}

// Annotate classifies every participant against rules as given.
func (e Engine) Annotate(participants []*model.Participant, rules []model.FilterRule) []AnnotatedParticipant {
	out := make([]AnnotatedParticipant, len(participants))
	for i, p := range participants {
		out[i] = AnnotatedParticipant{Participant: p}
		if r := e.firstMatch(p, rules); r != nil {
			out[i].Outcome = r.Action
			out[i].RuleID = r.ID
		}
	}
	return out
}

// Summarize counts the outcomes of an annotated list.
func Summarize(annotated []AnnotatedParticipant) Summary {
	var s Summary
	for _, a := range annotated {
		switch a.Outcome {
		case model.ActionAccept:
			s.Accept++
		case model.ActionReject:
			s.Reject++
		case model.ActionHighlight:
			s.Highlight++
		default:
			s.None++
		}
	}
	return s
}

// OrderRules returns a copy of rules sorted stably by ascending Priority.
// Rules without a priority keep their relative array order.
func OrderRules(rules []model.FilterRule) []model.FilterRule {
	out := make([]model.FilterRule, len(rules))
	copy(out, rules)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority < out[j].Priority
	})
	return out
}

// Match reports whether a single rule's predicate holds for p.
func Match(p *model.Participant, r *model.FilterRule) bool {
	v := Resolve(p, r.FieldID)

	switch r.Operator {
	case model.OpEquals:
		return lower(v.String()) == lower(r.Value.Single)
	case model.OpNotEquals:
		return lower(v.String()) != lower(r.Value.Single)
	case model.OpContains:
		return strings.Contains(lower(v.String()), lower(r.Value.Single))
	case model.OpGreaterThan, model.OpLessThan:
		left, ok := number(v)
		if !ok {
			return false
		}
		right, err := strconv.ParseFloat(strings.TrimSpace(r.Value.Single), 64)
		if err != nil {
			return false
		}
		if r.Operator == model.OpGreaterThan {
			return left > right
		}
		return left < right
	case model.OpIn:
		return inSet(v, r.Value)
	case model.OpNotIn:
		return !inSet(v, r.Value)
	}
	return false
}

func inSet(v model.AnswerValue, rv model.RuleValue) bool {
	set := rv.Set
	if !rv.IsSet {
		set = []string{rv.Single}
	}
	members := make(map[string]bool, len(set))
	for _, s := range set {
		members[lower(s)] = true
	}
	for _, elem := range v.Elements() {
		if members[lower(elem)] {
			return true
		}
	}
	return false
}

func number(v model.AnswerValue) (float64, bool) {
	if v.Kind != model.ValueScalar {
		return 0, false
	}
	if v.Scalar.Kind == model.ScalarNumber {
		return v.Scalar.Num, true
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v.Scalar.String()), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func lower(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
