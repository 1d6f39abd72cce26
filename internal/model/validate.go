package model

import (
	"fmt"
	"math"
	"net/mail"
	"strconv"
	"strings"
)

// ValidationError holds a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation failure on a named field.
type FieldError struct {
	Field   string
	Message string
}

// Error formats the validation error as a semicolon-separated list of field messages.
func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// HasErrors reports whether the validation error contains any field errors.
func (e *ValidationError) HasErrors() bool {
	return len(e.Errors) > 0
}

func (e *ValidationError) add(field, msg string) {
	e.Errors = append(e.Errors, FieldError{Field: field, Message: msg})
}

func (e *ValidationError) err() error {
	if e.HasErrors() {
		return e
	}
	return nil
}

// ValidateParticipant checks a Participant for constraint violations.
// It returns a *ValidationError if any rules fail, or nil if the participant is valid.
func ValidateParticipant(p *Participant) error {
	var ve ValidationError

	if strings.TrimSpace(p.HackathonID) == "" {
		ve.add("hackathon_id", "is required")
	}

	name := strings.TrimSpace(p.Profile.Name)
	if name == "" {
		ve.add("name", "is required")
	} else if len([]rune(name)) > 200 {
		ve.add("name", "must be 200 characters or fewer")
	}

	if strings.TrimSpace(p.Profile.Email) == "" {
		ve.add("email", "is required")
	} else if _, err := mail.ParseAddress(p.Profile.Email); err != nil {
		ve.add("email", fmt.Sprintf("invalid address %q", p.Profile.Email))
	}

	if !p.Status.IsValid() {
		ve.add("status", fmt.Sprintf("invalid value %q", p.Status))
	}

	return ve.err()
}

// ValidateRule checks a single FilterRule. Missing inputs are reported here
// so no external call is made for an incomplete rule.
func ValidateRule(r *FilterRule) error {
	var ve ValidationError

	if strings.TrimSpace(r.FieldID) == "" {
		ve.add("field_id", "is required")
	}
	if !r.Operator.IsValid() {
		ve.add("operator", fmt.Sprintf("invalid value %q", r.Operator))
	}
	if !r.Action.IsValid() {
		ve.add("action", fmt.Sprintf("invalid value %q", r.Action))
	}
	if r.Priority < 0 {
		ve.add("priority", "must not be negative")
	}

	switch {
	case r.Operator.IsSetOperator():
		if !r.Value.IsSet || len(r.Value.Set) == 0 {
			ve.add("value", "must be a non-empty list")
		}
	case r.Operator.IsOrdering():
		if r.Value.IsSet {
			ve.add("value", "must be a single number")
		} else if f, err := strconv.ParseFloat(strings.TrimSpace(r.Value.Single), 64); err != nil {
			ve.add("value", fmt.Sprintf("must be a number, got %q", r.Value.Single))
		} else if math.IsNaN(f) || math.IsInf(f, 0) {
			ve.add("value", fmt.Sprintf("must be a finite number, got %q", r.Value.Single))
		}
	case r.Operator == OpContains:
		if r.Value.IsSet || r.Value.Single == "" {
			ve.add("value", "is required")
		}
	case r.Operator.IsValid():
		// equals / not_equals may compare against "" when it is given explicitly.
		if !r.Value.Present {
			ve.add("value", "is required")
		} else if r.Value.IsSet {
			ve.add("value", "must be a single value")
		}
	}

	return ve.err()
}

// ValidateRuleSet validates every rule in the set and checks IDs are unique.
func ValidateRuleSet(rs *RuleSet) error {
	var ve ValidationError
	if strings.TrimSpace(rs.HackathonID) == "" {
		ve.add("hackathon_id", "is required")
	}
	seen := make(map[string]bool, len(rs.Rules))
	for i := range rs.Rules {
		r := &rs.Rules[i]
		prefix := fmt.Sprintf("rules[%d]", i)
		if r.ID != "" {
			if seen[r.ID] {
				ve.add(prefix+".id", fmt.Sprintf("duplicate rule id %q", r.ID))
			}
			seen[r.ID] = true
		}
		if err := ValidateRule(r); err != nil {
			for _, fe := range err.(*ValidationError).Errors {
				ve.add(prefix+"."+fe.Field, fe.Message)
			}
		}
	}
	return ve.err()
}

// ValidateTeamName checks a team name is present and reasonably short.
func ValidateTeamName(name string) error {
	var ve ValidationError
	name = strings.TrimSpace(name)
	if name == "" {
		ve.add("name", "is required")
	} else if len([]rune(name)) > 100 {
		ve.add("name", "must be 100 characters or fewer")
	}
	return ve.err()
}

// ValidateHackathon checks a Hackathon for constraint violations.
func ValidateHackathon(h *Hackathon) error {
	var ve ValidationError
	if strings.TrimSpace(h.Name) == "" {
		ve.add("name", "is required")
	}
	if h.TeamSize < 1 || h.TeamSize > 50 {
		ve.add("team_size", fmt.Sprintf("must be between 1 and 50, got %d", h.TeamSize))
	}
	return ve.err()
}

// ValidateFormFields checks a form-field catalogue for unique, typed fields.
func ValidateFormFields(fields []FormField) error {
	var ve ValidationError
	seen := make(map[string]bool, len(fields))
	for i, f := range fields {
		prefix := fmt.Sprintf("fields[%d]", i)
		if strings.TrimSpace(f.ID) == "" {
			ve.add(prefix+".id", "is required")
		} else if seen[f.ID] {
			ve.add(prefix+".id", fmt.Sprintf("duplicate field id %q", f.ID))
		}
		seen[f.ID] = true
		if !f.Type.IsValid() {
			ve.add(prefix+".type", fmt.Sprintf("invalid value %q", f.Type))
		}
		if f.Type.HasOptions() && len(f.Options) == 0 {
			ve.add(prefix+".options", "are required for "+string(f.Type)+" fields")
		}
	}
	return ve.err()
}
