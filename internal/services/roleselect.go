package services

import (
	"context"
	"fmt"

	"github.com/qingwen-guan/allied-citadels/internal/agenttransport"
	"github.com/qingwen-guan/allied-citadels/internal/domain"
	"github.com/qingwen-guan/allied-citadels/internal/match"
	"github.com/qingwen-guan/allied-citadels/internal/obs"
)

// RoleSelectService runs one round's role draft: the 4-player public drop
// (skipped at 6 players), one secret first drop (always, regardless of
// player count — grounded in the original's role_selection_service.rs,
// which asserts exactly one role remains undrawn after the picking loop at
// both table sizes), the crown-first picking order, and the secret last
// drop of the single role nobody picked.
type RoleSelectService struct {
	World *match.World
}

// Run executes one round's draft and returns the RoundStats accumulator the
// RoleExecutionService phase will consume and extend. CrownAfter is seeded
// with the crown this round started with; RoleExecutionService updates it
// in place when the King's pre-turn interaction moves the crown.
func (s *RoleSelectService) Run(ctx context.Context, round int) (domain.RoundStats, error) {
	w := s.World
	n := w.N()

	stats := domain.RoundStats{Round: round, CrownAfter: w.Crown}
	roles := domain.UniversalRoleSet()
	rolesChosen := domain.EmptyRoleSet()

	if n == 4 {
		for i := 0; i < 2; i++ {
			dropped := roles.RandomChoose()
			roles = roles.Remove(dropped)
			stats.PublicDropped = stats.PublicDropped.Add(dropped)
		}
		w.Append(ctx, "public_drop_roles", map[string]any{"roles": stats.PublicDropped.Members()})
		w.NotifyObsChanged()
	}

	firstDrop := roles.RandomChoose()
	roles = roles.Remove(firstDrop)
	w.Append(ctx, "secret_first_drop_role", map[string]any{"role": firstDrop.String()})
	w.NotifyFYI(agenttransport.FYINotification{Kind: agenttransport.FYIFirstRoleDropped})

	order := make([]domain.PlayerIndex, n)
	for i := 0; i < n; i++ {
		order[i] = domain.PlayerIndex((int(w.Crown) + i) % n)
	}

	for idx, actor := range order {
		before := domain.EmptyPlayerOffsetSet()
		for _, other := range order[:idx] {
			before = before.Add(other.ToOffset(actor, n))
		}
		after := domain.EmptyPlayerOffsetSet()
		for _, other := range order[idx+1:] {
			after = after.Add(other.ToOffset(actor, n))
		}

		w.NotifyFYI(agenttransport.FYINotification{
			Kind: agenttransport.FYIVillainChooseRoleRequested,
			Detail: map[string]int{
				"actor_offset_from_crown": int(actor.ToOffset(w.Crown, n)),
				"remaining":               roles.Len(),
			},
		})

		rinfo := obs.RoundInfo{
			Round:                   round,
			CrownOffset:             w.Crown.ToOffset(actor, n),
			PublicDroppedRoles:      stats.PublicDropped.Members(),
			FirstSecretDropHappened: true,
			RolesChosenBefore:       rolesChosen.Members(),
			PlayersChooseBefore:     before.Members(n),
			PlayersChooseAfter:      after.Members(n),
		}
		o := w.Obs(actor, rinfo)

		req := agenttransport.Request{Kind: agenttransport.ChooseRole, Roles: roles.Members()}
		w.Append(ctx, "choose_role_req", map[string]any{"player": actor, "roles": roles.Members()})

		resp, err := w.RequestWithObs(ctx, actor, req, o)
		if err != nil {
			return stats, fmt.Errorf("services: role select request to player %d: %w", actor, err)
		}
		if resp.Role == nil || !roles.Contains(*resp.Role) {
			return stats, fmt.Errorf("services: player %d chose a role not in the offered set", actor)
		}
		chosen := *resp.Role

		w.Append(ctx, "choose_role_resp", map[string]any{"player": actor, "role": chosen.String()})
		w.Players[actor].RoleThisRound = domain.SomeRole(chosen)
		rolesChosen = rolesChosen.Add(chosen)
		roles = roles.Remove(chosen)

		w.NotifyFYI(agenttransport.FYINotification{Kind: agenttransport.FYIVillainChooseRoleResponded})
		w.NotifyObsChanged()
	}

	// Exactly one role always remains unpicked: the secret last drop. True
	// at both table sizes (8 roles − 2 public − 1 first-secret − 4 picks at
	// n=4; 8 − 1 first-secret − 6 picks at n=6).
	if roles.Len() == 1 {
		last := roles.Single()
		w.Append(ctx, "secret_last_drop_role", map[string]any{"role": last.String()})
	}
	w.NotifyFYI(agenttransport.FYINotification{Kind: agenttransport.FYILastRoleDropped})

	return stats, nil
}
