// Package services implements the three per-round engine phases (init, role
// selection, role execution) that the game orchestrator drives in sequence,
// each operating directly on a shared *match.World. Grounded in the original
// Rust server's init_service.rs/role_selection_service.rs/
// role_execution_service.rs, restructured into the teacher's synchronous
// request/response idiom (internal/engine's HandleCommand-style services)
// rather than the original's async task-spawning.
package services

import (
	"context"
	"sync"

	"github.com/qingwen-guan/allied-citadels/internal/agenttransport"
	"github.com/qingwen-guan/allied-citadels/internal/domain"
	"github.com/qingwen-guan/allied-citadels/internal/match"
	"github.com/qingwen-guan/allied-citadels/internal/obs"
)

// InitService deals starting gold and starting hands. Every seat starts
// with 2 gold and one card drawn from two offered (ChooseInitCard); the
// other offered card returns to the discard pile.
type InitService struct {
	World *match.World
}

// Run executes the one-time match setup: starting gold, then starting
// hands. The N agent requests for starting hands run concurrently (the one
// documented exception to the engine's single-goroutine ownership of
// World.Deck, guarded here by deckMu, which also covers the hand updates and
// the Obs builds that read deck and hand state).
func (s *InitService) Run(ctx context.Context) error {
	s.initGold(ctx)
	return s.initCards(ctx)
}

func (s *InitService) initGold(ctx context.Context) {
	w := s.World
	for _, p := range w.Players {
		p.Gold = 2
		w.Append(ctx, "init_gold", map[string]any{"player": p.Index, "gold": p.Gold})
	}
	w.NotifyObsChanged()
}

func (s *InitService) initCards(ctx context.Context) error {
	w := s.World
	n := w.N()

	type drawn struct {
		c0, c1 domain.Card
	}
	hands := make([]drawn, n)
	for i := 0; i < n; i++ {
		c0, ok0 := w.Deck.Take()
		c1, ok1 := w.Deck.Take()
		if !ok0 || !ok1 {
			// Unreachable under the 66-card invariant at match start, but
			// surfaced rather than silently dealing a short hand.
			return errDeckStarvedAtInit
		}
		hands[i] = drawn{c0, c1}
		w.Append(ctx, "init_card_req", map[string]any{"player": i, "c0": c0, "c1": c1})
	}

	var wg sync.WaitGroup
	var deckMu sync.Mutex
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			h := hands[i]
			req := agenttransport.Request{
				Kind:   agenttransport.ChooseInitCard,
				Cards2: [2]*domain.Card{&h.c0, &h.c1},
			}
			deckMu.Lock()
			o := w.Obs(domain.PlayerIndex(i), obs.RoundInfo{})
			deckMu.Unlock()
			resp, err := w.RequestWithObs(ctx, domain.PlayerIndex(i), req, o)
			if err != nil {
				errs[i] = err
				return
			}
			chosen, drop := h.c0, h.c1
			if resp.Card != nil && *resp.Card == h.c1 {
				chosen, drop = h.c1, h.c0
			}
			deckMu.Lock()
			w.Players[i].AddToHand(chosen)
			w.Deck.Drop(drop)
			deckMu.Unlock()
			w.Append(ctx, "init_card_resp", map[string]any{"player": i, "chosen": chosen, "dropped": drop})
			w.NotifyObsChanged()
		}()
	}
	wg.Wait()
	for _, e := range errs {
		if e != nil {
			return e
		}
	}
	return nil
}

type initError string

func (e initError) Error() string { return string(e) }

const errDeckStarvedAtInit = initError("services: deck starved during match init")
