// Package citadel implements per-player match state: hand, built buildings,
// gold, current role, and the building-destroy-fee/scoring rules that depend
// on that state.
package citadel

import (
	"fmt"

	"github.com/qingwen-guan/allied-citadels/internal/domain"
)

// Player is one seated agent's mutable match state, owned exclusively by the
// orchestrator goroutine for the life of the match.
type Player struct {
	Index         domain.PlayerIndex
	Identity      string
	Camp          domain.Camp
	Gold          uint32
	Hand          []domain.Card
	Built         []domain.Card
	RoleThisRound domain.OptionRole
	FirstToEight  bool
}

// New creates a player seated at index i, on the given camp, with no cards
// and no gold yet.
func New(index domain.PlayerIndex, identity string, camp domain.Camp) *Player {
	return &Player{Index: index, Identity: identity, Camp: camp}
}

// HasBuilt reports whether card is already on the player's built list.
func (p *Player) HasBuilt(card domain.Card) bool {
	for _, c := range p.Built {
		if c == card {
			return true
		}
	}
	return false
}

// HasInHand reports whether card is currently in the player's hand.
func (p *Player) HasInHand(card domain.Card) bool {
	for _, c := range p.Hand {
		if c == card {
			return true
		}
	}
	return false
}

// AddToHand appends a drawn card to the hand.
func (p *Player) AddToHand(card domain.Card) {
	p.Hand = append(p.Hand, card)
}

// RemoveFromHand removes the first occurrence of card from the hand. Panics
// if the card is not present: callers must check HasInHand first, since a
// miss here is an invariant violation (§7 fatal error class).
func (p *Player) RemoveFromHand(card domain.Card) {
	for i, c := range p.Hand {
		if c == card {
			p.Hand = append(p.Hand[:i], p.Hand[i+1:]...)
			return
		}
	}
	panic(fmt.Sprintf("citadel: card %v not in hand of player %d", card, p.Index))
}

// RemoveFromBuilt removes card from the built list. Panics if not present.
func (p *Player) RemoveFromBuilt(card domain.Card) {
	for i, c := range p.Built {
		if c == card {
			p.Built = append(p.Built[:i], p.Built[i+1:]...)
			return
		}
	}
	panic(fmt.Sprintf("citadel: card %v not built by player %d", card, p.Index))
}

// Build moves card from hand to built, paying its fee. Panics on an
// already-built card or gold underflow: both are fatal invariant violations.
func (p *Player) Build(card domain.Card) {
	if p.HasBuilt(card) {
		panic(fmt.Sprintf("citadel: card %v already built by player %d", card, p.Index))
	}
	if card.Fee() > p.Gold {
		panic(fmt.Sprintf("citadel: gold underflow building %v for player %d", card, p.Index))
	}
	p.RemoveFromHand(card)
	p.Gold -= card.Fee()
	p.Built = append(p.Built, card)
}

// BuildingDestroyFee computes the gold cost for the Warlord to destroy card
// on this player's built list, per §4.5.1. ok is false when the card is
// undestroyable (protected role, 8 buildings, or fortress).
func (p *Player) BuildingDestroyFee(card domain.Card) (fee uint32, ok bool) {
	if p.RoleThisRound.IsSet() {
		r := p.RoleThisRound.Role()
		if r == domain.Bishop || r == domain.Warlord {
			return 0, false
		}
	}
	if len(p.Built) >= 8 {
		return 0, false
	}
	if card == domain.Fortress {
		return 0, false
	}
	if card == domain.GreatWall || p.HasBuilt(domain.GreatWall) {
		return card.Fee(), true
	}
	return card.Fee() - 1, true
}

// Colors returns the set of distinct colors present in the built list.
func (p *Player) Colors() map[domain.Color]bool {
	seen := make(map[domain.Color]bool)
	for _, c := range p.Built {
		seen[c.Color()] = true
	}
	return seen
}

// HasAllFiveColors reports whether the built list covers all five colors.
func (p *Player) HasAllFiveColors() bool {
	return len(p.Colors()) == 5
}

// BaseScore sums Score() across the built list, before the end-game bonuses
// the orchestrator applies (all-five-colors, 8-buildings, first-to-eight).
func (p *Player) BaseScore() uint32 {
	var total uint32
	for _, c := range p.Built {
		total += c.Score()
	}
	return total
}

// CountColor returns how many built cards of the given color this player has,
// used for the King/Bishop/Merchant/Warlord resource-step gold bonus.
func (p *Player) CountColor(color domain.Color) uint32 {
	var n uint32
	for _, c := range p.Built {
		if c.Color() == color {
			n++
		}
	}
	return n
}

// ResetRound clears the per-round role assignment between rounds; gold,
// hand, built, and FirstToEight persist across the whole match.
func (p *Player) ResetRound() {
	p.RoleThisRound = domain.NoRole
}
