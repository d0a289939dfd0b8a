package game

import (
	"context"
	"testing"

	"github.com/qingwen-guan/allied-citadels/internal/citadel"
	"github.com/qingwen-guan/allied-citadels/internal/deck"
	"github.com/qingwen-guan/allied-citadels/internal/domain"
	"github.com/qingwen-guan/allied-citadels/internal/fallbackagent"
	"github.com/qingwen-guan/allied-citadels/internal/history"
	"github.com/qingwen-guan/allied-citadels/internal/match"
)

func newFourPlayerWorld() *match.World {
	players := make([]*citadel.Player, 4)
	agentIDs := make([]string, 4)
	camps := []domain.Camp{domain.Chu, domain.Han, domain.Chu, domain.Han}
	for i := range players {
		agentIDs[i] = "agent-" + string(rune('0'+i))
		players[i] = citadel.New(domain.PlayerIndex(i), agentIDs[i], camps[i])
	}

	fa := fallbackagent.New()
	for i, id := range agentIDs {
		fa.SetCamp(id, camps[i])
	}

	return &match.World{
		MatchID:   "test-match",
		Players:   players,
		AgentIDs:  agentIDs,
		Deck:      deck.New(),
		Transport: fa,
		Journal:   history.NewMemory(),
	}
}

func TestGameRunEndsAtFirstEightBuildings(t *testing.T) {
	w := newFourPlayerWorld()
	g := New(w)

	result, err := g.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Rounds == 0 {
		t.Fatalf("expected at least one round to have been played")
	}

	sawEight := false
	for _, p := range w.Players {
		if len(p.Built) >= 8 {
			sawEight = true
		}
	}
	if !sawEight {
		t.Fatalf("expected some player to have reached 8 buildings by the time the game ended")
	}

	total := w.Deck.Len() + w.Deck.DiscardLen()
	for _, p := range w.Players {
		total += len(p.Hand) + len(p.Built)
	}
	if uint32(total) != domain.TotalCopies() {
		t.Fatalf("card total invariant violated: have %d want %d", total, domain.TotalCopies())
	}
}

func TestGameRunSixPlayers(t *testing.T) {
	players := make([]*citadel.Player, 6)
	agentIDs := make([]string, 6)
	camps := []domain.Camp{domain.Chu, domain.Han, domain.Chu, domain.Han, domain.Chu, domain.Han}
	for i := range players {
		agentIDs[i] = "agent-" + string(rune('0'+i))
		players[i] = citadel.New(domain.PlayerIndex(i), agentIDs[i], camps[i])
	}
	fa := fallbackagent.New()
	for i, id := range agentIDs {
		fa.SetCamp(id, camps[i])
	}
	w := &match.World{
		MatchID:   "test-match-6p",
		Players:   players,
		AgentIDs:  agentIDs,
		Deck:      deck.New(),
		Transport: fa,
		Journal:   history.NewMemory(),
	}

	g := New(w)
	result, err := g.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Winner != domain.Chu && result.Winner != domain.Han {
		t.Fatalf("expected a decided winner, got %v", result.Winner)
	}
}
