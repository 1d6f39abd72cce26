// Package classify evaluates admin-authored filter rules against
// participants and annotates them with a transient classification outcome.
package classify

import "github.com/alfredjeanlab/hackops/internal/model"

// Resolve returns the participant's value for fieldID. Additional answers
// are consulted first (unwrapped from their label/value envelope), then the
// structured profile, then the declared role and status. A nil participant,
// a missing answers map, or an unknown field all resolve to the empty
// string.
func Resolve(p *model.Participant, fieldID string) model.AnswerValue {
	if p == nil {
		return model.Text("")
	}
	if ans, ok := p.Answers[fieldID]; ok {
		if ans.Value.Kind == "" {
			return model.Text("")
		}
		return ans.Value
	}
	switch fieldID {
	case "name":
		return model.Text(p.Profile.Name)
	case "email":
		return model.Text(p.Profile.Email)
	case "phone":
		return model.Text(p.Profile.Phone)
	case "city":
		return model.Text(p.Profile.City)
	case "nationality":
		return model.Text(p.Profile.Nationality)
	case "role", "preferred_role":
		return model.Text(p.PreferredRole)
	case "status":
		return model.Text(string(p.Status))
	}
	return model.Text("")
}
