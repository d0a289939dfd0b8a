// Package history implements HistoryJournal: an append-only sink of
// structured match events keyed by a monotonically increasing per-match id,
// replayable in id order to reconstruct a full match.
package history

import (
	"context"
	"encoding/json"
	"time"
)

// Event is one journaled occurrence. ID is the match-local monotonic
// counter every event carries; Seq is the room-global ordering the
// MySQL-backed binding additionally assigns so a WebSocket subscriber can
// agree on ordering across reconnects. Both bindings set Seq to ID+1.
type Event struct {
	MatchID   string          `json:"match_id"`
	ID        uint32          `json:"id"`
	Seq       int64           `json:"seq,omitempty"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// Journal is the HistoryJournal capability: append a structured event,
// allocating its id, and replay a match's events back in id order.
type Journal interface {
	// Append assigns the next event id for matchID, journals the event, and
	// returns it. Best-effort: per §7, the engine never blocks or retries on
	// journal backpressure, so implementations should not fail on
	// transient backpressure — only on a broken sink.
	Append(ctx context.Context, matchID, eventType string, payload any) (Event, error)
	// Load replays every event journaled for matchID, in id order.
	Load(ctx context.Context, matchID string) ([]Event, error)
}

func encodePayload(payload any) (json.RawMessage, error) {
	if payload == nil {
		return json.RawMessage("null"), nil
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(b), nil
}
