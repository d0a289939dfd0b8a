// cmd/sim runs matches end-to-end against only the synchronous fallback
// agent (no network wire binding), for local testing of engine semantics
// without a client. Every seat is driven by fallbackagent.Agent.
package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/qingwen-guan/allied-citadels/internal/citadel"
	"github.com/qingwen-guan/allied-citadels/internal/deck"
	"github.com/qingwen-guan/allied-citadels/internal/domain"
	"github.com/qingwen-guan/allied-citadels/internal/fallbackagent"
	"github.com/qingwen-guan/allied-citadels/internal/game"
	"github.com/qingwen-guan/allied-citadels/internal/history"
	"github.com/qingwen-guan/allied-citadels/internal/match"
	"github.com/qingwen-guan/allied-citadels/internal/randx"
)

func main() {
	players := flag.Int("players", 4, "table size: 4 or 6")
	matches := flag.Int("matches", 1, "number of matches to simulate")
	flag.Parse()

	if *players != 4 && *players != 6 {
		fmt.Println("players must be 4 or 6")
		return
	}

	for m := 0; m < *matches; m++ {
		result, err := runOne(*players, m)
		if err != nil {
			fmt.Printf("match %d: aborted: %v\n", m, err)
			continue
		}
		fmt.Printf("match %d: winner=%s rounds=%d scores=%v camps=%v\n",
			m, result.Winner, result.Rounds, result.Scores, result.CampScore)
	}
}

func runOne(n, matchNum int) (game.Result, error) {
	agent := fallbackagent.New()
	players := make([]*citadel.Player, n)
	agentIDs := make([]string, n)
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("sim-%d-seat-%d", matchNum, i)
		camp := domain.Chu
		if i%2 == 1 {
			camp = domain.Han
		}
		players[i] = citadel.New(domain.PlayerIndex(i), id, camp)
		agentIDs[i] = id
		agent.SetCamp(id, camp)
	}

	w := &match.World{
		MatchID:   fmt.Sprintf("sim-%d", matchNum),
		Players:   players,
		AgentIDs:  agentIDs,
		Deck:      deck.New(),
		Transport: agent,
		Journal:   history.NewMemory(),
		Crown:     domain.PlayerIndex(randx.Intn(n)),
	}

	g := game.New(w)
	return g.Run(context.Background())
}
