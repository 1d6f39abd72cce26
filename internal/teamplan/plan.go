// Package teamplan proposes a partition of approved, team-less participants
// into teams, distributing each declared role round-robin across the teams.
package teamplan

import (
	"errors"
	"fmt"

	"github.com/alfredjeanlab/hackops/internal/model"
)

// ErrInvalidTeamSize is returned when the requested team size is below one.
var ErrInvalidTeamSize = errors.New("team size must be at least 1")

// Eligible returns the participants the planner may place: approved and
// not on any team. Input order is preserved.
func Eligible(participants []*model.Participant) []*model.Participant {
	var out []*model.Participant
	for _, p := range participants {
		if p == nil || p.Status != model.StatusApproved || p.HasTeam() {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Plan proposes teams of at most teamSize members from the eligible subset
// of participants. The number of teams is ceil(n/teamSize), named
// "Team 1".."Team k". Participants are grouped by role in order of first
// appearance; each group is dealt onto the teams at a cursor that keeps
// advancing across groups, so one role is spread before the next begins.
//
// An empty eligible set yields an empty plan and no error. The result is a
// preview; nothing is persisted.
func Plan(participants []*model.Participant, teamSize int) (*model.TeamPlan, error) {
	eligible := Eligible(participants)
	if len(eligible) == 0 {
		return &model.TeamPlan{}, nil
	}
	if teamSize < 1 {
		return nil, fmt.Errorf("%w, got %d", ErrInvalidTeamSize, teamSize)
	}

	teamCount := (len(eligible) + teamSize - 1) / teamSize
	teams := make([]model.PlannedTeam, teamCount)
	for i := range teams {
		teams[i].Name = fmt.Sprintf("Team %d", i+1)
	}

	cursor := 0
	for _, group := range groupByRole(eligible) {
		for _, p := range group {
			teams[cursor].Members = append(teams[cursor].Members, p)
			cursor = (cursor + 1) % teamCount
		}
	}

	plan := &model.TeamPlan{Teams: make([]model.PlannedTeam, 0, teamCount)}
	for _, t := range teams {
		if len(t.Members) > 0 {
			plan.Teams = append(plan.Teams, t)
		}
	}
	return plan, nil
}

// groupByRole splits participants by role, ordering groups by the first
// appearance of each role and keeping input order within a group.
func groupByRole(participants []*model.Participant) [][]*model.Participant {
	index := make(map[string]int)
	var groups [][]*model.Participant
	for _, p := range participants {
		role := p.Role()
		i, ok := index[role]
		if !ok {
			i = len(groups)
			index[role] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], p)
	}
	return groups
}
