package fallbackagent

import (
	"context"
	"testing"

	"github.com/qingwen-guan/allied-citadels/internal/agenttransport"
	"github.com/qingwen-guan/allied-citadels/internal/domain"
)

func TestChooseRolePicksFromOfferedSet(t *testing.T) {
	a := New()
	req := agenttransport.Request{ID: 1, Kind: agenttransport.ChooseRole, Roles: []domain.Role{domain.King, domain.Bishop}}
	resp, err := a.Request(context.Background(), "agent-1", req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Role == nil {
		t.Fatalf("expected a role choice")
	}
	if *resp.Role != domain.King && *resp.Role != domain.Bishop {
		t.Fatalf("chosen role %v not in offered set", *resp.Role)
	}
}

func TestChooseOperAlwaysLegal(t *testing.T) {
	a := New()
	opers := []domain.Oper{domain.EndRound(), domain.Gold(2), domain.Build(domain.Tavern)}
	for i := 0; i < 50; i++ {
		req := agenttransport.Request{ID: uint32(i), Kind: agenttransport.ChooseOper, Opers: opers}
		resp, err := a.Request(context.Background(), "agent-1", req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if resp.Oper == nil {
			t.Fatalf("expected an oper choice")
		}
		found := false
		for _, o := range opers {
			if o == *resp.Oper {
				found = true
			}
		}
		if !found {
			t.Fatalf("chosen oper %v not among offered opers", *resp.Oper)
		}
	}
}

func TestChooseDestroyTargetHanFiltersToOddOffsets(t *testing.T) {
	a := New()
	a.SetCamp("han-agent", domain.Han)
	choices := []domain.DestroyTarget{
		{Offset: 1, Card: domain.Castle},
		{Offset: 2, Card: domain.Manor},
	}
	sawEven := false
	for i := 0; i < 50; i++ {
		req := agenttransport.Request{ID: uint32(i), Kind: agenttransport.ChooseDestroyTarget, DestroyChoices: choices}
		resp, _ := a.Request(context.Background(), "han-agent", req)
		if resp.DestroyTarget != nil && resp.DestroyTarget.Offset%2 == 0 {
			sawEven = true
		}
	}
	if sawEven {
		t.Fatalf("han agent should never pick an even offset destroy target")
	}
}

func TestChooseDestroyTargetNonHanCanUseFullList(t *testing.T) {
	a := New()
	a.SetCamp("chu-agent", domain.Chu)
	choices := []domain.DestroyTarget{{Offset: 2, Card: domain.Manor}}
	sawEven := false
	for i := 0; i < 50; i++ {
		req := agenttransport.Request{ID: uint32(i), Kind: agenttransport.ChooseDestroyTarget, DestroyChoices: choices}
		resp, _ := a.Request(context.Background(), "chu-agent", req)
		if resp.DestroyTarget != nil && resp.DestroyTarget.Offset == 2 {
			sawEven = true
		}
	}
	if !sawEven {
		t.Fatalf("expected non-han agent to sometimes pick an even offset target")
	}
}

func TestChooseInitCardPicksOneOfTwo(t *testing.T) {
	a := New()
	c0, c1 := domain.Tavern, domain.Market
	req := agenttransport.Request{ID: 1, Kind: agenttransport.ChooseInitCard, Cards2: [2]*domain.Card{&c0, &c1}}
	resp, err := a.Request(context.Background(), "agent-1", req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Card == nil || (*resp.Card != c0 && *resp.Card != c1) {
		t.Fatalf("expected the chosen card to be one of the two offered")
	}
}

func TestWaitForReadyReturnsImmediately(t *testing.T) {
	a := New()
	resp, err := a.Request(context.Background(), "agent-1", agenttransport.Request{ID: 5, Kind: agenttransport.WaitForReady})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.ID != 5 {
		t.Fatalf("expected id echoed back")
	}
}
