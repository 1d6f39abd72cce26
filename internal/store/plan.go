package store

import (
	"context"
	"fmt"
	"time"

	"github.com/alfredjeanlab/hackops/internal/idgen"
	"github.com/alfredjeanlab/hackops/internal/model"
)

// CreateTeamsFromPlan persists every team of plan and its members in one
// transaction. Nothing is written if any step fails.
func CreateTeamsFromPlan(ctx context.Context, s Store, hackathonID string, plan *model.TeamPlan) ([]*model.Team, error) {
	if plan.IsEmpty() {
		return nil, nil
	}

	var created []*model.Team
	err := s.RunInTransaction(ctx, func(tx Store) error {
		created = created[:0]
		now := time.Now().UTC()
		for _, pt := range plan.Teams {
			id, err := idgen.Team()
			if err != nil {
				return err
			}
			team := &model.Team{
				ID:          id,
				HackathonID: hackathonID,
				Name:        pt.Name,
				CreatedAt:   now,
			}
			if err := tx.CreateTeam(ctx, team); err != nil {
				return fmt.Errorf("create %s: %w", pt.Name, err)
			}
			for _, p := range pt.Members {
				if err := tx.AddMember(ctx, team.ID, p.ID); err != nil {
					return fmt.Errorf("add %s to %s: %w", p.ID, pt.Name, err)
				}
				team.Members = append(team.Members, model.MemberFor(p))
			}
			created = append(created, team)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}
