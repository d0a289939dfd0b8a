// Package obs builds the per-viewer projection of engine state the spec calls
// Obs: the hero sees exact cards, villains are exposed only as counts and
// public information, and every opponent reference is a viewer-relative
// offset rather than an absolute index.
package obs

import (
	"github.com/qingwen-guan/allied-citadels/internal/citadel"
	"github.com/qingwen-guan/allied-citadels/internal/domain"
)

// BuildingInfo names one built card plus its current destroy fee, as seen by
// its own owner (the hero).
type BuildingInfo struct {
	Card       domain.Card `json:"card"`
	DestroyFee *uint32     `json:"destroy_fee,omitempty"`
}

// HeroInfo is the viewer's own exact state.
type HeroInfo struct {
	Gold  uint32         `json:"gold"`
	Hand  []domain.Card  `json:"hand"`
	Built []BuildingInfo `json:"built"`
	Role  *domain.Role   `json:"role,omitempty"`
	Camp  domain.Camp    `json:"camp"`
}

// VillainInfo is an opponent's redacted state: hand contents are never
// exposed, only the count; role is exposed only once publicly revealed.
type VillainInfo struct {
	Offset    domain.PlayerOffset `json:"offset"`
	Gold      uint32              `json:"gold"`
	Built     []domain.Card       `json:"built"`
	HandCount int                 `json:"hand_count"`
	Role      *domain.Role        `json:"role,omitempty"`
}

// RoundInfo is the round-scoped public/secret bookkeeping exposed to every
// viewer, itself redacted: secret-drop roles and not-yet-revealed roles are
// never named, only whether they happened.
type RoundInfo struct {
	Round                  int                    `json:"round"`
	CrownOffset            domain.PlayerOffset    `json:"crown_offset"`
	PublicDroppedRoles     []domain.Role          `json:"public_dropped_roles,omitempty"`
	FirstSecretDropHappened bool                  `json:"first_secret_drop_happened"`
	LastSecretDropHappened  bool                  `json:"last_secret_drop_happened"`
	LastSecretDropRole      *domain.Role          `json:"last_secret_drop_role,omitempty"`
	RolesChosenBefore      []domain.Role          `json:"roles_chosen_before,omitempty"`
	RolesChosenAfter       []domain.Role          `json:"roles_chosen_after,omitempty"`
	PlayersChooseBefore    []domain.PlayerOffset  `json:"players_choose_before,omitempty"`
	PlayersChooseAfter     []domain.PlayerOffset  `json:"players_choose_after,omitempty"`
	KilledRole             *domain.Role           `json:"killed_role,omitempty"`
	KilledOffset           *domain.PlayerOffset   `json:"killed_offset,omitempty"`
	StolenRole             *domain.Role           `json:"stolen_role,omitempty"`
	StolenOffset           *domain.PlayerOffset   `json:"stolen_offset,omitempty"`
}

// Obs is the complete per-viewer projection, rebuilt at every decision point
// from canonical engine state.
type Obs struct {
	Viewer     domain.PlayerIndex   `json:"-"`
	Hero       HeroInfo             `json:"hero"`
	Villains   []VillainInfo        `json:"villains"`
	Round      RoundInfo            `json:"round"`
	DeckSize   int                  `json:"deck_size"`
	DiscardSize int                 `json:"discard_size"`
	CampScore  map[domain.Camp]uint32 `json:"camp_score"`
}

// RevealedRoles tracks which roles have had reveal_role journaled this
// round; Build uses it to decide whether a villain's role is visible.
type RevealedRoles = domain.RoleSet

// Build constructs a fresh Obs for `viewer` from the canonical player list,
// deck sizes, the set of roles publicly revealed so far this round, and the
// round-scoped bookkeeping the caller (InitService/RoleSelectService/
// RoleExecutionService) has already computed.
func Build(viewer domain.PlayerIndex, players []*citadel.Player, revealed RevealedRoles, round RoundInfo, deckSize, discardSize int) Obs {
	n := len(players)
	me := players[viewer]

	built := make([]BuildingInfo, 0, len(me.Built))
	for _, c := range me.Built {
		fee, ok := me.BuildingDestroyFee(c)
		bi := BuildingInfo{Card: c}
		if ok {
			f := fee
			bi.DestroyFee = &f
		}
		built = append(built, bi)
	}
	hero := HeroInfo{
		Gold:  me.Gold,
		Hand:  append([]domain.Card(nil), me.Hand...),
		Built: built,
		Camp:  me.Camp,
	}
	if me.RoleThisRound.IsSet() {
		r := me.RoleThisRound.Role()
		hero.Role = &r
	}

	villains := make([]VillainInfo, 0, n-1)
	for _, offset := range domain.OffsetRange1ToN(n) {
		idx := offset.ToIndex(viewer, n)
		p := players[idx]
		vi := VillainInfo{
			Offset:    offset,
			Gold:      p.Gold,
			Built:     append([]domain.Card(nil), p.Built...),
			HandCount: len(p.Hand),
		}
		if p.RoleThisRound.IsSet() {
			r := p.RoleThisRound.Role()
			if revealed.Contains(r) {
				vi.Role = &r
			}
		}
		villains = append(villains, vi)
	}

	campScore := map[domain.Camp]uint32{domain.Chu: 0, domain.Han: 0}
	for _, p := range players {
		campScore[p.Camp] += p.BaseScore()
	}

	return Obs{
		Viewer:      viewer,
		Hero:        hero,
		Villains:    villains,
		Round:       round,
		DeckSize:    deckSize,
		DiscardSize: discardSize,
		CampScore:   campScore,
	}
}

// BuildAll builds one Obs per player, in player-index order.
func BuildAll(players []*citadel.Player, revealed RevealedRoles, round RoundInfo, deckSize, discardSize int) []Obs {
	out := make([]Obs, len(players))
	for i := range players {
		out[i] = Build(domain.PlayerIndex(i), players, revealed, round, deckSize, discardSize)
	}
	return out
}
