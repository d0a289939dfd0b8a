// Package fallbackagent implements the hard-timeout escalation target from
// the spec (the V2FAAgent equivalent): a local decision-maker that never
// suspends and is used directly by the `sim` binary to play matches end to
// end without any network agent. Grounded in the teacher's internal/bot/
// bot.go crypto/rand-driven decision idiom (randx.Intn/randx.Chance in place
// of the teacher's local randomInt/randomChance helpers), restructured from
// chat-flavor generation to the ChooseXxx decision shape this engine needs.
package fallbackagent

import (
	"context"

	"github.com/qingwen-guan/allied-citadels/internal/agenttransport"
	"github.com/qingwen-guan/allied-citadels/internal/domain"
	"github.com/qingwen-guan/allied-citadels/internal/randx"
)

// Agent is the local fallback implementation of agenttransport.Transport.
// Camp is recorded per agent identity so the warlord odd-offset heuristic
// (Open Question #2, decided as an AI-only filter) can be applied; the
// engine itself imposes no such restriction.
type Agent struct {
	camps map[string]domain.Camp
}

// New builds an empty fallback agent; camps are registered as players are
// seated via SetCamp.
func New() *Agent {
	return &Agent{camps: make(map[string]domain.Camp)}
}

// SetCamp records which camp agentID plays, used only by the warlord
// destroy-target heuristic below.
func (a *Agent) SetCamp(agentID string, camp domain.Camp) {
	a.camps[agentID] = camp
}

// Request never suspends: every decision is made synchronously from the
// request's own choice list.
func (a *Agent) Request(ctx context.Context, agentID string, req agenttransport.Request) (agenttransport.Response, error) {
	resp := agenttransport.Response{ID: req.ID, Kind: req.Kind}
	switch req.Kind {
	case agenttransport.WaitForReady:
		return resp, nil

	case agenttransport.ChooseInitCard:
		c := pickCard2(req.Cards2)
		resp.Card = &c
		return resp, nil

	case agenttransport.ChooseRole, agenttransport.ChooseKillTarget, agenttransport.ChooseStealTarget:
		r := req.Roles[randx.Intn(len(req.Roles))]
		resp.Role = &r
		return resp, nil

	case agenttransport.ChooseMagicTarget:
		skill := a.chooseMagicSkill(req)
		resp.MagicSkill = &skill
		return resp, nil

	case agenttransport.ChooseDestroyTarget:
		resp.DestroyTarget = a.chooseDestroyTarget(agentID, req.DestroyChoices)
		return resp, nil

	case agenttransport.ChooseTomb:
		accept := randx.Chance(60)
		resp.Accept = &accept
		return resp, nil

	case agenttransport.ChooseOper:
		o := chooseOper(req.Opers)
		resp.Oper = &o
		return resp, nil

	case agenttransport.ChooseFrom2:
		c := pickCard2(req.Cards2)
		resp.Card = &c
		return resp, nil

	case agenttransport.ChooseFrom3:
		c := pickCard3(req.Cards3)
		resp.Card = &c
		return resp, nil
	}
	return resp, nil
}

func pickCard2(cards [2]*domain.Card) domain.Card {
	var options []domain.Card
	for _, c := range cards {
		if c != nil {
			options = append(options, *c)
		}
	}
	if len(options) == 0 {
		return domain.Card(0)
	}
	return options[randx.Intn(len(options))]
}

func pickCard3(cards [3]*domain.Card) domain.Card {
	var options []domain.Card
	for _, c := range cards {
		if c != nil {
			options = append(options, *c)
		}
	}
	if len(options) == 0 {
		return domain.Card(0)
	}
	return options[randx.Intn(len(options))]
}

// chooseMagicSkill passes most of the time, occasionally swaps with a random
// villain, otherwise replaces its entire hand.
func (a *Agent) chooseMagicSkill(req agenttransport.Request) domain.MagicianSkill {
	if randx.Chance(70) {
		return domain.Pass()
	}
	if randx.Chance(50) && len(req.Obs.Villains) > 0 {
		v := req.Obs.Villains[randx.Intn(len(req.Obs.Villains))]
		return domain.Swap(v.Offset)
	}
	return domain.Replace(append([]domain.Card(nil), req.Obs.Hero.Hand...))
}

// chooseDestroyTarget implements Open Question #2's decision: for an agent
// playing camp han, restrict targets to odd offsets (an AI heuristic, not a
// game rule); everyone else may destroy any legal target the engine offered.
// Declines (returns nil) if the restricted list is empty.
func (a *Agent) chooseDestroyTarget(agentID string, choices []domain.DestroyTarget) *domain.DestroyTarget {
	if len(choices) == 0 {
		return nil
	}
	filtered := choices
	if a.camps[agentID] == domain.Han {
		filtered = nil
		for _, c := range choices {
			if c.Offset%2 == 1 {
				filtered = append(filtered, c)
			}
		}
	}
	if len(filtered) == 0 {
		return nil
	}
	if !randx.Chance(70) {
		return nil
	}
	t := filtered[randx.Intn(len(filtered))]
	return &t
}

// chooseOper prefers building and resource gathering over ending the round
// early, but always has EndRound as the fallback.
func chooseOper(opers []domain.Oper) domain.Oper {
	var nonEnd []domain.Oper
	for _, o := range opers {
		if o.Kind != domain.OperEndRound {
			nonEnd = append(nonEnd, o)
		}
	}
	if len(nonEnd) == 0 || randx.Chance(15) {
		return domain.EndRound()
	}
	return nonEnd[randx.Intn(len(nonEnd))]
}
