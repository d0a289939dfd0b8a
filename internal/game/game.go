// Package game implements the orchestrator loop: deal once via InitService,
// then run RoleSelectService followed by RoleExecutionService round after
// round until some player's eighth building ends the match, then score.
// Grounded in the original server's game.rs Game::run loop.
package game

import (
	"context"
	"fmt"

	"github.com/qingwen-guan/allied-citadels/internal/domain"
	"github.com/qingwen-guan/allied-citadels/internal/match"
	"github.com/qingwen-guan/allied-citadels/internal/services"
)

// Result is the final per-player score breakdown plus which camp won.
type Result struct {
	Scores    map[domain.PlayerIndex]uint32
	CampScore map[domain.Camp]uint32
	Winner    domain.Camp
	Rounds    int
}

// Game owns one match's World and drives it from init to final scoring.
type Game struct {
	World *match.World
}

// New builds a Game over the given World.
func New(w *match.World) *Game {
	return &Game{World: w}
}

// Run plays the match to completion: one InitService pass, then rounds of
// RoleSelectService/RoleExecutionService until a round reports FirstEight,
// then final scoring.
func (g *Game) Run(ctx context.Context) (Result, error) {
	w := g.World

	init := &services.InitService{World: w}
	if err := init.Run(ctx); err != nil {
		return Result{}, fmt.Errorf("game: init phase: %w", err)
	}

	round := 0
	var stats domain.RoundStats
	for {
		round++
		for _, p := range w.Players {
			p.ResetRound()
		}
		w.Revealed = domain.EmptyRoleSet()
		w.Round = round

		selectSvc := &services.RoleSelectService{World: w}
		s, err := selectSvc.Run(ctx, round)
		if err != nil {
			return Result{}, fmt.Errorf("game: round %d role select: %w", round, err)
		}
		stats = s
		w.Crown = stats.CrownAfter

		execSvc := &services.RoleExecutionService{World: w}
		if err := execSvc.Run(ctx, &stats); err != nil {
			return Result{}, fmt.Errorf("game: round %d role execution: %w", round, err)
		}
		w.Crown = stats.CrownAfter

		if stats.FirstEight {
			w.Append(ctx, "finish_game", map[string]any{"round": round})
			break
		}
	}

	return g.score(round), nil
}

// score applies the end-game bonuses (all five colors, eight buildings,
// first to eight) on top of each player's BaseScore, then sums per camp.
// Han is the winner only with a strictly higher camp total, so a tie is
// reported as a Chu win; Result has no draw outcome.
func (g *Game) score(rounds int) Result {
	w := g.World
	scores := make(map[domain.PlayerIndex]uint32, w.N())
	campScore := map[domain.Camp]uint32{domain.Chu: 0, domain.Han: 0}

	for _, p := range w.Players {
		total := p.BaseScore()
		if p.HasAllFiveColors() {
			total += 3
		}
		if len(p.Built) >= 8 {
			total += 2
		}
		if p.FirstToEight {
			total += 2
		}
		scores[p.Index] = total
		campScore[p.Camp] += total
	}

	winner := domain.Chu
	if campScore[domain.Han] > campScore[domain.Chu] {
		winner = domain.Han
	}

	return Result{Scores: scores, CampScore: campScore, Winner: winner, Rounds: rounds}
}
