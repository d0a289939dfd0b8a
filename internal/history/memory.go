package history

import (
	"context"
	"sync"
	"time"
)

// MemoryJournal is the in-memory HistoryJournal binding used by tests and the
// `sim` binary, mirroring the teacher's store.NewMemoryStore fallback.
type MemoryJournal struct {
	mu     sync.Mutex
	nextID map[string]uint32
	events map[string][]Event
}

// NewMemory builds an empty in-memory journal.
func NewMemory() *MemoryJournal {
	return &MemoryJournal{
		nextID: make(map[string]uint32),
		events: make(map[string][]Event),
	}
}

func (m *MemoryJournal) Append(ctx context.Context, matchID, eventType string, payload any) (Event, error) {
	raw, err := encodePayload(payload)
	if err != nil {
		return Event{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID[matchID]
	m.nextID[matchID] = id + 1
	e := Event{
		MatchID:   matchID,
		ID:        id,
		Seq:       int64(id) + 1,
		Type:      eventType,
		Payload:   raw,
		CreatedAt: time.Now().UTC(),
	}
	m.events[matchID] = append(m.events[matchID], e)
	return e, nil
}

func (m *MemoryJournal) Load(ctx context.Context, matchID string) ([]Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Event, len(m.events[matchID]))
	copy(out, m.events[matchID])
	return out, nil
}
