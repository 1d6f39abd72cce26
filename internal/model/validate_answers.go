package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ValidateAnswers checks that a registration's additional answers conform
// to the hackathon's form fields. It rejects unknown keys, validates shapes,
// and enforces required constraints. Returns a *ValidationError on failure,
// nil on success.
func ValidateAnswers(answers map[string]Answer, fields []FormField) error {
	byID := make(map[string]*FormField, len(fields))
	for i := range fields {
		byID[fields[i].ID] = &fields[i]
	}

	var ve ValidationError

	for key := range answers {
		if _, ok := byID[key]; !ok {
			ve.add(key, "unknown field")
		}
	}

	for _, f := range fields {
		ans, present := answers[f.ID]
		if !present || ans.Value.IsNull() || strings.TrimSpace(ans.Value.String()) == "" {
			if f.Required {
				ve.add(f.ID, "is required")
			}
			continue
		}
		if err := validateAnswerValue(f, ans.Value); err != nil {
			ve.add(f.ID, err.Error())
		}
	}

	return ve.err()
}

func validateAnswerValue(f FormField, v AnswerValue) error {
	switch f.Type {
	case FieldTypeNumber:
		if v.Kind != ValueScalar {
			return fmt.Errorf("must be a number")
		}
		if v.Scalar.Kind == ScalarNumber {
			return nil
		}
		if _, err := strconv.ParseFloat(strings.TrimSpace(v.Scalar.String()), 64); err != nil {
			return fmt.Errorf("must be a number")
		}
	case FieldTypeDate:
		if v.Kind != ValueScalar || v.Scalar.Kind != ScalarString {
			return fmt.Errorf("must be a YYYY-MM-DD date")
		}
		if _, err := time.Parse(time.DateOnly, v.Scalar.Str); err != nil {
			return fmt.Errorf("must be a YYYY-MM-DD date")
		}
	case FieldTypeSelect, FieldTypeRadio:
		if v.Kind != ValueScalar {
			return fmt.Errorf("must be a single option")
		}
		if !contains(f.Options, v.Scalar.String()) {
			return fmt.Errorf("must be one of %v", f.Options)
		}
	case FieldTypeCheckbox:
		for _, elem := range v.Elements() {
			if !contains(f.Options, elem) {
				return fmt.Errorf("option %q must be one of %v", elem, f.Options)
			}
		}
	case FieldTypeText, FieldTypeTextarea, FieldTypeEmail:
		if v.Kind != ValueScalar {
			return fmt.Errorf("must be text")
		}
	default:
		return fmt.Errorf("unknown field type %q", f.Type)
	}
	return nil
}

func contains(slice []string, val string) bool {
	for _, s := range slice {
		if s == val {
			return true
		}
	}
	return false
}
