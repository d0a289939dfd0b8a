package citadel

import (
	"testing"

	"github.com/qingwen-guan/allied-citadels/internal/domain"
)

func TestBuildMovesCardAndPaysFee(t *testing.T) {
	p := New(0, "alice", domain.Chu)
	p.Gold = 3
	p.AddToHand(domain.Tavern)

	p.Build(domain.Tavern)

	if p.Gold != 2 {
		t.Fatalf("expected gold 2 after building tavern, got %d", p.Gold)
	}
	if p.HasInHand(domain.Tavern) {
		t.Fatalf("tavern should have left the hand")
	}
	if !p.HasBuilt(domain.Tavern) {
		t.Fatalf("tavern should be in built list")
	}
}

func TestBuildAlreadyBuiltPanics(t *testing.T) {
	p := New(0, "alice", domain.Chu)
	p.Gold = 10
	p.AddToHand(domain.Tavern)
	p.AddToHand(domain.Tavern)
	p.Build(domain.Tavern)

	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic building an already-built card")
		}
	}()
	p.Build(domain.Tavern)
}

func TestBuildingDestroyFeeProtectedRoles(t *testing.T) {
	p := New(0, "alice", domain.Chu)
	p.Gold = 10
	p.AddToHand(domain.Market)
	p.Build(domain.Market)
	p.RoleThisRound = domain.SomeRole(domain.Bishop)

	if _, ok := p.BuildingDestroyFee(domain.Market); ok {
		t.Fatalf("bishop's buildings should be protected")
	}
}

func TestBuildingDestroyFeeFortressUndestroyable(t *testing.T) {
	p := New(0, "alice", domain.Chu)
	p.Gold = 10
	p.AddToHand(domain.Fortress)
	p.Build(domain.Fortress)
	p.RoleThisRound = domain.SomeRole(domain.King)

	if _, ok := p.BuildingDestroyFee(domain.Fortress); ok {
		t.Fatalf("fortress should never be destroyable")
	}
}

func TestBuildingDestroyFeeGreatWallNoSelfDiscount(t *testing.T) {
	p := New(0, "alice", domain.Chu)
	p.Gold = 10
	p.AddToHand(domain.GreatWall)
	p.Build(domain.GreatWall)
	p.RoleThisRound = domain.SomeRole(domain.King)

	fee, ok := p.BuildingDestroyFee(domain.GreatWall)
	if !ok || fee != domain.GreatWall.Fee() {
		t.Fatalf("expected great_wall destroy fee = fee (no discount), got %d ok=%v", fee, ok)
	}
}

func TestBuildingDestroyFeeGreatWallProtectsOtherBuildings(t *testing.T) {
	p := New(0, "alice", domain.Chu)
	p.Gold = 20
	p.AddToHand(domain.GreatWall)
	p.Build(domain.GreatWall)
	p.AddToHand(domain.Castle)
	p.Build(domain.Castle)
	p.RoleThisRound = domain.SomeRole(domain.King)

	fee, ok := p.BuildingDestroyFee(domain.Castle)
	if !ok || fee != domain.Castle.Fee() {
		t.Fatalf("expected castle destroy fee = fee when great_wall is built, got %d ok=%v", fee, ok)
	}
}

func TestBuildingDestroyFeeOrdinaryDiscount(t *testing.T) {
	p := New(0, "alice", domain.Chu)
	p.Gold = 20
	p.AddToHand(domain.Castle)
	p.Build(domain.Castle)
	p.RoleThisRound = domain.SomeRole(domain.King)

	fee, ok := p.BuildingDestroyFee(domain.Castle)
	if !ok || fee != domain.Castle.Fee()-1 {
		t.Fatalf("expected ordinary destroy fee = fee-1, got %d ok=%v", fee, ok)
	}
}

func TestHasAllFiveColors(t *testing.T) {
	p := New(0, "alice", domain.Chu)
	p.Gold = 30
	for _, c := range []domain.Card{domain.Tavern, domain.Manor, domain.Temple, domain.Watchtower, domain.Fortress} {
		p.AddToHand(c)
		p.Build(c)
	}
	if !p.HasAllFiveColors() {
		t.Fatalf("expected all five colors covered")
	}
}
