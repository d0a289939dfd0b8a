package services

import (
	"context"
	"fmt"

	"github.com/qingwen-guan/allied-citadels/internal/agenttransport"
	"github.com/qingwen-guan/allied-citadels/internal/citadel"
	"github.com/qingwen-guan/allied-citadels/internal/domain"
	"github.com/qingwen-guan/allied-citadels/internal/match"
)

// RoleExecutionService runs one round's turn order: Role.Population() order,
// skipping any role nobody picked; a killed actor's turn is skipped
// entirely, a stolen actor's gold moves to the thief first. Grounded in
// role_execution_service.rs, restructured from its async task shape into
// the synchronous per-actor loop the rest of this engine uses.
type RoleExecutionService struct {
	World *match.World
}

// Run drives every role's turn for the current round, mutating stats in
// place (Killed, Stolen, Stealer, FirstEight, CrownAfter).
func (s *RoleExecutionService) Run(ctx context.Context, stats *domain.RoundStats) error {
	w := s.World
	for _, role := range domain.Population() {
		actor, ok := s.findActor(role)
		if role == domain.Thief {
			if ok {
				a := actor
				stats.Stealer = &a
			} else {
				stats.Stealer = nil
			}
		}
		if !ok {
			continue
		}

		w.Append(ctx, "reveal_role", map[string]any{"player": actor, "round": stats.Round, "role": role.String()})
		w.Revealed = w.Revealed.Add(role)
		w.NotifyObsChanged()

		if err := s.executeTurn(ctx, stats, actor); err != nil {
			return err
		}
	}
	return nil
}

func (s *RoleExecutionService) findActor(role domain.Role) (domain.PlayerIndex, bool) {
	for _, p := range s.World.Players {
		if p.RoleThisRound.Equals(role) {
			return p.Index, true
		}
	}
	return 0, false
}

func (s *RoleExecutionService) executeTurn(ctx context.Context, stats *domain.RoundStats, actor domain.PlayerIndex) error {
	w := s.World
	role := w.Players[actor].RoleThisRound.Role()

	if role == domain.King {
		stats.CrownAfter = actor
		w.Crown = actor
		w.Append(ctx, "move_crown", map[string]any{"round": stats.Round, "crown": actor})
		w.NotifyObsChanged()
	}

	if stats.Killed.Equals(role) {
		w.Append(ctx, "skip_killed_turn", map[string]any{"player": actor, "round": stats.Round})
		w.NotifyObsChanged()
		return nil
	}

	if stats.Stolen.Equals(role) && stats.Stealer != nil {
		victim := w.Players[actor]
		stolen := victim.Gold
		victim.Gold = 0
		w.Players[*stats.Stealer].Gold += stolen
		w.Append(ctx, "steal_gold", map[string]any{
			"from": actor, "to": *stats.Stealer, "round": stats.Round, "amount": stolen,
		})
		w.NotifyObsChanged()
	}

	if err := s.roleAction(ctx, stats, actor, role); err != nil {
		return err
	}

	if err := s.turnLoop(ctx, stats, actor); err != nil {
		return err
	}
	return nil
}

// roleAction runs the once-per-turn special ability for the six roles that
// have one (Assassin, Thief, Magician, Merchant, Architect, Warlord); each
// runs before the standard build/resource loop, which follows in every case.
func (s *RoleExecutionService) roleAction(ctx context.Context, stats *domain.RoundStats, actor domain.PlayerIndex, role domain.Role) error {
	w := s.World
	switch role {
	case domain.Assassin:
		choices := domain.UniversalRoleSet().Difference(stats.PublicDropped).Remove(domain.Assassin)
		req := agenttransport.Request{Kind: agenttransport.ChooseKillTarget, Roles: choices.Members()}
		resp, err := w.Request(ctx, actor, req)
		if err != nil {
			return fmt.Errorf("services: kill target request: %w", err)
		}
		if resp.Role == nil || !choices.Contains(*resp.Role) {
			return fmt.Errorf("services: player %d chose an illegal kill target", actor)
		}
		stats.Killed = domain.SomeRole(*resp.Role)
		w.Append(ctx, "kill", map[string]any{"player": actor, "round": stats.Round, "role": resp.Role.String()})
		w.NotifyObsChanged()

	case domain.Thief:
		banned := domain.UniversalRoleSet().Difference(stats.PublicDropped).Remove(domain.Assassin).Remove(domain.Thief)
		if stats.Killed.IsSet() {
			banned = banned.Remove(stats.Killed.Role())
		}
		req := agenttransport.Request{Kind: agenttransport.ChooseStealTarget, Roles: banned.Members()}
		resp, err := w.Request(ctx, actor, req)
		if err != nil {
			return fmt.Errorf("services: steal target request: %w", err)
		}
		if resp.Role == nil || !banned.Contains(*resp.Role) {
			return fmt.Errorf("services: player %d chose an illegal steal target", actor)
		}
		stats.Stolen = domain.SomeRole(*resp.Role)
		w.Append(ctx, "steal", map[string]any{"player": actor, "round": stats.Round, "role": resp.Role.String()})
		w.NotifyObsChanged()

	case domain.Magician:
		return s.magicianAction(ctx, actor)

	case domain.Merchant:
		w.Players[actor].Gold++
		w.Append(ctx, "merchant", map[string]any{"player": actor, "round": stats.Round})
		w.NotifyObsChanged()

	case domain.Architect:
		var drawn []domain.Card
		for i := 0; i < 2; i++ {
			if c, ok := w.Deck.Take(); ok {
				w.Players[actor].AddToHand(c)
				drawn = append(drawn, c)
			}
		}
		w.Append(ctx, "architect_draw_2_cards", map[string]any{"player": actor, "round": stats.Round, "cards": drawn})
		w.NotifyObsChanged()

	case domain.Warlord:
		return s.warlordAction(ctx, stats, actor)
	}
	return nil
}

func (s *RoleExecutionService) magicianAction(ctx context.Context, actor domain.PlayerIndex) error {
	w := s.World
	req := agenttransport.Request{Kind: agenttransport.ChooseMagicTarget}
	resp, err := w.Request(ctx, actor, req)
	if err != nil {
		return fmt.Errorf("services: magician target request: %w", err)
	}
	if resp.MagicSkill == nil {
		return nil
	}
	switch resp.MagicSkill.Kind {
	case domain.MagicianSwap:
		n := w.N()
		target := resp.MagicSkill.Offset.ToIndex(actor, n)
		if target == actor {
			return fmt.Errorf("services: magician tried to swap with self")
		}
		w.Players[actor].Hand, w.Players[target].Hand = w.Players[target].Hand, w.Players[actor].Hand
		w.Append(ctx, "swap_cards", map[string]any{"a": actor, "b": target})
		w.NotifyObsChanged()

	case domain.MagicianReplace:
		me := w.Players[actor]
		for _, c := range resp.MagicSkill.Replace {
			if !me.HasInHand(c) {
				return fmt.Errorf("services: magician tried to replace a card not in hand")
			}
		}
		for _, c := range resp.MagicSkill.Replace {
			me.RemoveFromHand(c)
			w.Deck.Drop(c)
		}
		var drawn []domain.Card
		for range resp.MagicSkill.Replace {
			if c, ok := w.Deck.Take(); ok {
				me.AddToHand(c)
				drawn = append(drawn, c)
			}
		}
		w.Append(ctx, "replace_cards", map[string]any{
			"player": actor, "removed": resp.MagicSkill.Replace, "drawn": drawn,
		})
		w.NotifyObsChanged()
	}
	return nil
}

func (s *RoleExecutionService) warlordAction(ctx context.Context, stats *domain.RoundStats, actor domain.PlayerIndex) error {
	w := s.World
	n := w.N()
	me := w.Players[actor]

	var choices []domain.DestroyTarget
	for _, p := range w.Players {
		if p.Index == actor {
			continue
		}
		for _, b := range p.Built {
			fee, ok := p.BuildingDestroyFee(b)
			if ok && fee <= me.Gold {
				choices = append(choices, domain.DestroyTarget{Offset: p.Index.ToOffset(actor, n), Card: b})
			}
		}
	}

	req := agenttransport.Request{Kind: agenttransport.ChooseDestroyTarget, DestroyChoices: choices}
	resp, err := w.Request(ctx, actor, req)
	if err != nil {
		return fmt.Errorf("services: destroy target request: %w", err)
	}
	if resp.DestroyTarget == nil {
		w.Append(ctx, "destroy_decline", map[string]any{"player": actor, "round": stats.Round})
		return nil
	}

	target := *resp.DestroyTarget
	victimIdx := target.Offset.ToIndex(actor, n)
	victim := w.Players[victimIdx]
	fee, ok := victim.BuildingDestroyFee(target.Card)
	if !ok || fee > me.Gold {
		return fmt.Errorf("services: player %d chose an illegal destroy target", actor)
	}
	victim.RemoveFromBuilt(target.Card)
	me.Gold -= fee
	w.Append(ctx, "destroy_building", map[string]any{
		"player": actor, "victim": victimIdx, "card": target.Card.String(), "round": stats.Round,
	})
	w.NotifyObsChanged()

	return s.offerTomb(ctx, stats, actor, target.Card)
}

// offerTomb implements the Graveyard rule: if some other player built the
// Graveyard and has at least 1 gold, they may pay 1 gold to keep the
// destroyed card instead of letting it return to the discard pile.
func (s *RoleExecutionService) offerTomb(ctx context.Context, stats *domain.RoundStats, actor domain.PlayerIndex, destroyed domain.Card) error {
	w := s.World
	tombOwner := s.whoHasTomb()
	if tombOwner == nil || *tombOwner == actor || w.Players[*tombOwner].Gold < 1 {
		w.Deck.Drop(destroyed)
		return nil
	}

	req := agenttransport.Request{Kind: agenttransport.ChooseTomb, Card: &destroyed}
	resp, err := w.Request(ctx, *tombOwner, req)
	if err != nil {
		return fmt.Errorf("services: tomb request: %w", err)
	}
	if resp.Accept != nil && *resp.Accept {
		owner := w.Players[*tombOwner]
		owner.Gold--
		owner.AddToHand(destroyed)
		w.Append(ctx, "tomb_keep", map[string]any{"player": *tombOwner, "card": destroyed.String(), "round": stats.Round})
	} else {
		w.Deck.Drop(destroyed)
		w.Append(ctx, "tomb_decline", map[string]any{"player": *tombOwner, "round": stats.Round})
	}
	w.NotifyObsChanged()
	return nil
}

func (s *RoleExecutionService) whoHasTomb() *domain.PlayerIndex {
	for _, p := range s.World.Players {
		if p.HasBuilt(domain.Graveyard) {
			i := p.Index
			return &i
		}
	}
	return nil
}

// turnLoop runs the standard per-turn choice cycle: a resource step at most
// once, any number of builds up to quota, Smithy's buy and Laboratory's
// sell each at most once, until the actor ends their round.
func (s *RoleExecutionService) turnLoop(ctx context.Context, stats *domain.RoundStats, actor domain.PlayerIndex) error {
	w := s.World
	me := w.Players[actor]

	gotResources := false
	builtTimes := uint32(0)
	boughtCard := false
	soldCard := false

	for {
		opers := []domain.Oper{domain.EndRound()}

		if !gotResources {
			switch {
			case me.HasBuilt(domain.Observatory):
				opers = append(opers, domain.Card3Choose1())
			case me.HasBuilt(domain.Library):
				opers = append(opers, domain.Card2Choose2())
			default:
				opers = append(opers, domain.Card2Choose1())
			}
			opers = append(opers, domain.Gold(goldBonusFor(me)))
		}

		buildCap := uint32(1)
		if me.RoleThisRound.Equals(domain.Architect) {
			buildCap = 3
		}
		quota := buildCap - builtTimes
		if remaining := uint32(8) - uint32(len(me.Built)); remaining < quota {
			quota = remaining
		}
		if quota > 0 {
			seen := make(map[domain.Card]bool)
			for _, c := range me.Hand {
				if seen[c] || me.HasBuilt(c) || c.Fee() > me.Gold {
					continue
				}
				seen[c] = true
				opers = append(opers, domain.Build(c))
			}
		}

		if !boughtCard && me.HasBuilt(domain.Smithy) && me.Gold >= 2 {
			opers = append(opers, domain.BuyCard())
		}

		if !soldCard && me.HasBuilt(domain.Laboratory) && len(me.Hand) > 0 {
			seen := make(map[domain.Card]bool)
			for _, c := range me.Hand {
				if seen[c] {
					continue
				}
				seen[c] = true
				opers = append(opers, domain.SellCard(c))
			}
		}

		req := agenttransport.Request{Kind: agenttransport.ChooseOper, Opers: opers}
		resp, err := w.Request(ctx, actor, req)
		if err != nil {
			return fmt.Errorf("services: oper request: %w", err)
		}
		if resp.Oper == nil || !operOffered(opers, *resp.Oper) {
			return fmt.Errorf("services: player %d chose an illegal operation", actor)
		}
		chosen := *resp.Oper
		w.Append(ctx, "oper", map[string]any{"player": actor, "round": stats.Round, "oper": chosen})

		switch chosen.Kind {
		case domain.OperEndRound:
			w.NotifyObsChanged()
			s.checkTotalCards()
			return nil

		case domain.OperCard2Choose2:
			c0, ok0 := w.Deck.Take()
			c1, ok1 := w.Deck.Take()
			if ok0 {
				me.AddToHand(c0)
			}
			if ok1 {
				me.AddToHand(c1)
			}
			gotResources = true

		case domain.OperCard3Choose1:
			if err := s.chooseFrom3(ctx, actor); err != nil {
				return err
			}
			gotResources = true

		case domain.OperCard2Choose1:
			if err := s.chooseFrom2(ctx, actor); err != nil {
				return err
			}
			gotResources = true

		case domain.OperGold:
			me.Gold += chosen.Amount
			gotResources = true

		case domain.OperBuild:
			me.Build(chosen.Card)
			if len(me.Built) == 8 {
				if !stats.FirstEight {
					stats.FirstEight = true
					me.FirstToEight = true
					w.Append(ctx, "first_8_buildings", map[string]any{"player": actor, "round": stats.Round})
				} else {
					w.Append(ctx, "nonfirst_8_buildings", map[string]any{"player": actor, "round": stats.Round})
				}
			}
			builtTimes++

		case domain.OperSellCard:
			me.RemoveFromHand(chosen.Card)
			w.Deck.Drop(chosen.Card)
			me.Gold++
			soldCard = true

		case domain.OperBuyCard:
			var drawn []domain.Card
			for i := 0; i < 3; i++ {
				if c, ok := w.Deck.Take(); ok {
					me.AddToHand(c)
					drawn = append(drawn, c)
				}
			}
			w.Append(ctx, "draw_3_cards", map[string]any{"player": actor, "round": stats.Round, "cards": drawn})
			boughtCard = true
		}

		w.NotifyObsChanged()
	}
}

func operOffered(offered []domain.Oper, chosen domain.Oper) bool {
	for _, o := range offered {
		if o == chosen {
			return true
		}
	}
	return false
}

func goldBonusFor(p *citadel.Player) uint32 {
	switch p.RoleThisRound.Role() {
	case domain.King:
		return 2 + p.CountColor(domain.Yellow)
	case domain.Bishop:
		return 2 + p.CountColor(domain.Blue)
	case domain.Merchant:
		return 2 + p.CountColor(domain.Green)
	case domain.Warlord:
		return 2 + p.CountColor(domain.Red)
	default:
		return 2
	}
}

// chooseFrom2 implements the degenerate-input cascade of §4.5.2: draw two
// cards, auto-take the only one available if the deck starved to one, take
// nothing if it starved to zero, else ask ChooseFrom2 and discard the other.
func (s *RoleExecutionService) chooseFrom2(ctx context.Context, actor domain.PlayerIndex) error {
	w := s.World
	c0, ok0 := w.Deck.Take()
	c1, ok1 := w.Deck.Take()
	switch {
	case !ok0:
		return nil
	case !ok1:
		w.Players[actor].AddToHand(c0)
		w.Append(ctx, "choose_from_1", map[string]any{"player": actor, "card": c0.String()})
		return nil
	}
	req := agenttransport.Request{Kind: agenttransport.ChooseFrom2, Cards2: [2]*domain.Card{&c0, &c1}}
	resp, err := w.Request(ctx, actor, req)
	if err != nil {
		return fmt.Errorf("services: choose_from_2 request: %w", err)
	}
	chosen, drop := c0, c1
	if resp.Card != nil && *resp.Card == c1 {
		chosen, drop = c1, c0
	}
	w.Players[actor].AddToHand(chosen)
	w.Deck.Drop(drop)
	return nil
}

// chooseFrom3 peeks three cards, cascading to chooseFrom2's behavior if the
// deck starved before the third card was drawn.
func (s *RoleExecutionService) chooseFrom3(ctx context.Context, actor domain.PlayerIndex) error {
	w := s.World
	c0, ok0 := w.Deck.Take()
	if !ok0 {
		return nil
	}
	c1, ok1 := w.Deck.Take()
	if !ok1 {
		w.Players[actor].AddToHand(c0)
		w.Append(ctx, "choose_from_1", map[string]any{"player": actor, "card": c0.String()})
		return nil
	}
	c2, ok2 := w.Deck.Take()
	if !ok2 {
		req := agenttransport.Request{Kind: agenttransport.ChooseFrom2, Cards2: [2]*domain.Card{&c0, &c1}}
		resp, err := w.Request(ctx, actor, req)
		if err != nil {
			return fmt.Errorf("services: choose_from_2 request: %w", err)
		}
		chosen, drop := c0, c1
		if resp.Card != nil && *resp.Card == c1 {
			chosen, drop = c1, c0
		}
		w.Players[actor].AddToHand(chosen)
		w.Deck.Drop(drop)
		return nil
	}

	req := agenttransport.Request{Kind: agenttransport.ChooseFrom3, Cards3: [3]*domain.Card{&c0, &c1, &c2}}
	resp, err := w.Request(ctx, actor, req)
	if err != nil {
		return fmt.Errorf("services: choose_from_3 request: %w", err)
	}
	chosen := c0
	drop0, drop1 := c1, c2
	if resp.Card != nil {
		switch *resp.Card {
		case c1:
			chosen, drop0, drop1 = c1, c0, c2
		case c2:
			chosen, drop0, drop1 = c2, c0, c1
		}
	}
	w.Players[actor].AddToHand(chosen)
	w.Deck.Drop(drop0)
	w.Deck.Drop(drop1)
	return nil
}

func (s *RoleExecutionService) checkTotalCards() {
	w := s.World
	total := w.Deck.Len() + w.Deck.DiscardLen()
	for _, p := range w.Players {
		total += len(p.Hand) + len(p.Built)
	}
	if total != int(domain.TotalCopies()) {
		panic(fmt.Sprintf("services: total card invariant violated: have %d want %d", total, domain.TotalCopies()))
	}
}
