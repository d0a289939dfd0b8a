// Package match holds the shared mutable state one running match owns:
// seated players, the deck, the agent transport, the history journal, and
// the FYI broadcaster. InitService, RoleSelectService, RoleExecutionService,
// and the game orchestrator all operate on the same *World for the life of a
// match, the single-logical-thread-cooperative ownership model from the
// spec's concurrency section.
package match

import (
	"context"

	"github.com/qingwen-guan/allied-citadels/internal/agenttransport"
	"github.com/qingwen-guan/allied-citadels/internal/citadel"
	"github.com/qingwen-guan/allied-citadels/internal/deck"
	"github.com/qingwen-guan/allied-citadels/internal/domain"
	"github.com/qingwen-guan/allied-citadels/internal/history"
	"github.com/qingwen-guan/allied-citadels/internal/obs"
)

// World is the canonical engine state for one match.
type World struct {
	MatchID   string
	Players   []*citadel.Player
	AgentIDs  []string // AgentIDs[i] addresses Players[i]'s transport
	Deck      *deck.Deck
	Transport agenttransport.Transport
	Journal   history.Journal
	FYI       *agenttransport.FYIBroadcaster
	IDs       agenttransport.IDGen

	Crown    domain.PlayerIndex
	Revealed domain.RoleSet // roles publicly revealed so far this round
	Round    int
}

// N returns the seated player count (4 or 6).
func (w *World) N() int { return len(w.Players) }

// Obs builds the projection for viewer using the current canonical state and
// the caller-supplied round-scoped bookkeeping.
func (w *World) Obs(viewer domain.PlayerIndex, round obs.RoundInfo) obs.Obs {
	return obs.Build(viewer, w.Players, w.Revealed, round, w.Deck.Len(), w.Deck.DiscardLen())
}

// ObsAll builds one Obs per seated player.
func (w *World) ObsAll(round obs.RoundInfo) []obs.Obs {
	out := make([]obs.Obs, w.N())
	for i := range w.Players {
		out[i] = w.Obs(domain.PlayerIndex(i), round)
	}
	return out
}

// NotifyFYI fans a notification out to every registered FYI agent.
func (w *World) NotifyFYI(n agenttransport.FYINotification) {
	if w.FYI != nil {
		w.FYI.Notify(n)
	}
}

// NotifyObsChanged is the common case: tell every FYI agent the world's Obs
// set has changed, without naming which field.
func (w *World) NotifyObsChanged() {
	w.NotifyFYI(agenttransport.FYINotification{Kind: agenttransport.FYIObsChanged})
}

// Request stamps req with the next match-local request id and dispatches it
// to the named player's agent.
func (w *World) Request(ctx context.Context, viewer domain.PlayerIndex, req agenttransport.Request) (agenttransport.Response, error) {
	req.ID = w.IDs.Next()
	req.Obs = w.Obs(viewer, obs.RoundInfo{})
	return w.Transport.Request(ctx, w.AgentIDs[viewer], req)
}

// RequestWithObs is Request but lets the caller supply an already-built Obs
// that carries round-scoped fields Request alone cannot know about.
func (w *World) RequestWithObs(ctx context.Context, viewer domain.PlayerIndex, req agenttransport.Request, o obs.Obs) (agenttransport.Response, error) {
	req.ID = w.IDs.Next()
	req.Obs = o
	return w.Transport.Request(ctx, w.AgentIDs[viewer], req)
}

// Append journals one event for this match. Append errors are discarded here
// without logging: per §7 the engine never blocks or retries on journal
// backpressure.
func (w *World) Append(ctx context.Context, eventType string, payload any) {
	if w.Journal == nil {
		return
	}
	_, _ = w.Journal.Append(ctx, w.MatchID, eventType, payload)
}
