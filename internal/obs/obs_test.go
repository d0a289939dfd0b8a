package obs

import (
	"testing"

	"github.com/qingwen-guan/allied-citadels/internal/citadel"
	"github.com/qingwen-guan/allied-citadels/internal/domain"
)

func fourPlayers() []*citadel.Player {
	players := make([]*citadel.Player, 4)
	camps := []domain.Camp{domain.Chu, domain.Han, domain.Chu, domain.Han}
	for i := range players {
		players[i] = citadel.New(domain.PlayerIndex(i), "p", camps[i])
	}
	return players
}

func TestBuildHidesVillainHandContents(t *testing.T) {
	players := fourPlayers()
	players[1].AddToHand(domain.Tavern)
	players[1].AddToHand(domain.Market)

	o := Build(0, players, domain.EmptyRoleSet(), RoundInfo{}, 66, 0)

	if len(o.Villains) != 3 {
		t.Fatalf("expected 3 villains, got %d", len(o.Villains))
	}
	v := o.Villains[0] // offset 1
	if v.Offset != 1 {
		t.Fatalf("expected first villain at offset 1, got %d", v.Offset)
	}
	if v.HandCount != 2 {
		t.Fatalf("expected hand_count 2, got %d", v.HandCount)
	}
	if v.Built != nil {
		t.Fatalf("expected no built cards yet")
	}
}

func TestBuildExposesHeroExactHand(t *testing.T) {
	players := fourPlayers()
	players[0].AddToHand(domain.Tavern)

	o := Build(0, players, domain.EmptyRoleSet(), RoundInfo{}, 66, 0)

	if len(o.Hero.Hand) != 1 || o.Hero.Hand[0] != domain.Tavern {
		t.Fatalf("expected hero hand to expose tavern exactly, got %v", o.Hero.Hand)
	}
}

func TestBuildHidesUnrevealedVillainRole(t *testing.T) {
	players := fourPlayers()
	players[1].RoleThisRound = domain.SomeRole(domain.King)

	o := Build(0, players, domain.EmptyRoleSet(), RoundInfo{}, 66, 0)
	if o.Villains[0].Role != nil {
		t.Fatalf("expected unrevealed role to stay hidden")
	}

	revealed := domain.EmptyRoleSet().Add(domain.King)
	o2 := Build(0, players, revealed, RoundInfo{}, 66, 0)
	if o2.Villains[0].Role == nil || *o2.Villains[0].Role != domain.King {
		t.Fatalf("expected revealed role to be visible")
	}
}

func TestBuildOffsetsAreViewerRelative(t *testing.T) {
	players := fourPlayers()
	oFromViewer2 := Build(2, players, domain.EmptyRoleSet(), RoundInfo{}, 66, 0)
	if oFromViewer2.Villains[0].Offset != 1 {
		t.Fatalf("expected offset 1 to be the first villain regardless of viewer")
	}
	// viewer 2's offset-1 villain is absolute index 3.
}

func TestCampScoreSumsPerCamp(t *testing.T) {
	players := fourPlayers()
	players[0].Gold = 10
	players[0].AddToHand(domain.Tavern)
	players[0].Build(domain.Tavern)

	o := Build(0, players, domain.EmptyRoleSet(), RoundInfo{}, 66, 0)
	if o.CampScore[domain.Chu] != domain.Tavern.Score() {
		t.Fatalf("expected chu camp score %d, got %d", domain.Tavern.Score(), o.CampScore[domain.Chu])
	}
	if o.CampScore[domain.Han] != 0 {
		t.Fatalf("expected han camp score 0, got %d", o.CampScore[domain.Han])
	}
}
