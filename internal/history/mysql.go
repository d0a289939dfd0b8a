package history

import (
	"context"
	"database/sql"
	"time"
)

// MySQLJournal is the durable HistoryJournal binding, grounded in the
// teacher's store.AppendEvents: a per-match `next_seq` counter row locked
// with SELECT ... FOR UPDATE guarantees a strictly increasing Seq even under
// concurrent appends from two goroutines.
type MySQLJournal struct {
	DB *sql.DB
}

// NewMySQL wraps an already-connected *sql.DB (see store.ConnectMySQL).
func NewMySQL(db *sql.DB) *MySQLJournal {
	return &MySQLJournal{DB: db}
}

func (j *MySQLJournal) Append(ctx context.Context, matchID, eventType string, payload any) (Event, error) {
	raw, err := encodePayload(payload)
	if err != nil {
		return Event{}, err
	}

	tx, err := j.DB.BeginTx(ctx, nil)
	if err != nil {
		return Event{}, err
	}
	defer func() { _ = tx.Rollback() }()

	var next int64
	row := tx.QueryRowContext(ctx, `SELECT next_seq FROM match_sequences WHERE match_id=? FOR UPDATE`, matchID)
	switch err := row.Scan(&next); err {
	case nil:
	case sql.ErrNoRows:
		next = 0
		if _, err := tx.ExecContext(ctx, `INSERT INTO match_sequences (match_id, next_seq) VALUES (?, ?)`, matchID, next); err != nil {
			return Event{}, err
		}
	default:
		return Event{}, err
	}

	now := time.Now().UTC()
	e := Event{
		MatchID:   matchID,
		ID:        uint32(next),
		Seq:       next + 1,
		Type:      eventType,
		Payload:   raw,
		CreatedAt: now,
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO match_events (match_id, event_id, seq, event_type, payload_json, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		matchID, e.ID, e.Seq, e.Type, string(e.Payload), now); err != nil {
		return Event{}, err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE match_sequences SET next_seq=? WHERE match_id=?`, next+1, matchID); err != nil {
		return Event{}, err
	}

	if err := tx.Commit(); err != nil {
		return Event{}, err
	}
	return e, nil
}

func (j *MySQLJournal) Load(ctx context.Context, matchID string) ([]Event, error) {
	rows, err := j.DB.QueryContext(ctx,
		`SELECT match_id, event_id, seq, event_type, payload_json, created_at FROM match_events WHERE match_id=? ORDER BY event_id ASC`,
		matchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		var payload string
		if err := rows.Scan(&e.MatchID, &e.ID, &e.Seq, &e.Type, &payload, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Payload = []byte(payload)
		out = append(out, e)
	}
	return out, rows.Err()
}
