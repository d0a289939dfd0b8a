package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// CreateRoom inserts a new waiting room owned by ownerID.
func (s *Store) CreateRoom(ctx context.Context, id, ownerID string, maxPlayers int) (Room, error) {
	r := Room{ID: id, OwnerID: ownerID, MaxPlayers: maxPlayers, Status: "waiting", CreatedAt: time.Now()}
	if s.MemoryMode {
		s.mu.Lock()
		s.rooms[id] = r
		s.mu.Unlock()
		return r, nil
	}
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO rooms (id, owner_id, max_players, status, created_at) VALUES (?,?,?,?,?)`,
		r.ID, r.OwnerID, r.MaxPlayers, r.Status, r.CreatedAt)
	return r, err
}

// GetRoom loads a room by id.
func (s *Store) GetRoom(ctx context.Context, id string) (*Room, error) {
	if s.MemoryMode {
		s.mu.RLock()
		defer s.mu.RUnlock()
		r, ok := s.rooms[id]
		if !ok {
			return nil, nil
		}
		return &r, nil
	}
	row := s.DB.QueryRowContext(ctx,
		`SELECT id, owner_id, max_players, status, created_at, started_at, finished_at FROM rooms WHERE id=?`, id)
	var r Room
	if err := row.Scan(&r.ID, &r.OwnerID, &r.MaxPlayers, &r.Status, &r.CreatedAt, &r.StartedAt, &r.FinishedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &r, nil
}

// JoinRoom seats userID into room roomID at the next open seat. Returns an
// error if the room is already full or not accepting new members.
func (s *Store) JoinRoom(ctx context.Context, roomID, userID string) (RoomMember, error) {
	if s.MemoryMode {
		s.mu.Lock()
		defer s.mu.Unlock()
		r, ok := s.rooms[roomID]
		if !ok {
			return RoomMember{}, fmt.Errorf("store: room %s not found", roomID)
		}
		existing := s.members[roomID]
		if r.Status != "waiting" {
			return RoomMember{}, fmt.Errorf("store: room %s is not accepting new members", roomID)
		}
		if len(existing) >= r.MaxPlayers {
			return RoomMember{}, fmt.Errorf("store: room %s is full", roomID)
		}
		m := RoomMember{RoomID: roomID, UserID: userID, Seat: len(existing), JoinedAt: time.Now()}
		s.members[roomID] = append(existing, m)
		return m, nil
	}

	var m RoomMember
	err := s.WithTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `SELECT max_players, status FROM rooms WHERE id=? FOR UPDATE`, roomID)
		var maxPlayers int
		var status string
		if err := row.Scan(&maxPlayers, &status); err != nil {
			return err
		}
		if status != "waiting" {
			return fmt.Errorf("store: room %s is not accepting new members", roomID)
		}
		row = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM room_members WHERE room_id=?`, roomID)
		var count int
		if err := row.Scan(&count); err != nil {
			return err
		}
		if count >= maxPlayers {
			return fmt.Errorf("store: room %s is full", roomID)
		}
		m = RoomMember{RoomID: roomID, UserID: userID, Seat: count, JoinedAt: time.Now()}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO room_members (room_id, user_id, seat, joined_at) VALUES (?,?,?,?)`,
			m.RoomID, m.UserID, m.Seat, m.JoinedAt)
		return err
	})
	return m, err
}

// ListMembers returns every seated member of roomID, in seat order.
func (s *Store) ListMembers(ctx context.Context, roomID string) ([]RoomMember, error) {
	if s.MemoryMode {
		s.mu.RLock()
		defer s.mu.RUnlock()
		out := append([]RoomMember(nil), s.members[roomID]...)
		return out, nil
	}
	rows, err := s.DB.QueryContext(ctx,
		`SELECT room_id, user_id, seat, joined_at FROM room_members WHERE room_id=? ORDER BY seat ASC`, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []RoomMember
	for rows.Next() {
		var m RoomMember
		if err := rows.Scan(&m.RoomID, &m.UserID, &m.Seat, &m.JoinedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// SetRoomStatus transitions a room's lifecycle status (waiting -> playing ->
// finished), stamping StartedAt/FinishedAt as appropriate.
func (s *Store) SetRoomStatus(ctx context.Context, roomID, status string) error {
	now := time.Now()
	if s.MemoryMode {
		s.mu.Lock()
		defer s.mu.Unlock()
		r, ok := s.rooms[roomID]
		if !ok {
			return fmt.Errorf("store: room %s not found", roomID)
		}
		r.Status = status
		if status == "playing" {
			r.StartedAt = &now
		}
		if status == "finished" {
			r.FinishedAt = &now
		}
		s.rooms[roomID] = r
		return nil
	}
	switch status {
	case "playing":
		_, err := s.DB.ExecContext(ctx, `UPDATE rooms SET status=?, started_at=? WHERE id=?`, status, now, roomID)
		return err
	case "finished":
		_, err := s.DB.ExecContext(ctx, `UPDATE rooms SET status=?, finished_at=? WHERE id=?`, status, now, roomID)
		return err
	default:
		_, err := s.DB.ExecContext(ctx, `UPDATE rooms SET status=? WHERE id=?`, status, roomID)
		return err
	}
}

// CreateUser inserts a new account with an already-hashed password.
func (s *Store) CreateUser(ctx context.Context, id, username, passwordHash string) (User, error) {
	u := User{ID: id, Username: username, PasswordHash: passwordHash, CreatedAt: time.Now()}
	if s.MemoryMode {
		s.mu.Lock()
		s.users[id] = u
		s.mu.Unlock()
		return u, nil
	}
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO users (id, username, password_hash, created_at) VALUES (?,?,?,?)`,
		u.ID, u.Username, u.PasswordHash, u.CreatedAt)
	return u, err
}

// GetUserByUsername looks up an account by username, used at login.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	if s.MemoryMode {
		s.mu.RLock()
		defer s.mu.RUnlock()
		for _, u := range s.users {
			if u.Username == username {
				u := u
				return &u, nil
			}
		}
		return nil, nil
	}
	row := s.DB.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at FROM users WHERE username=?`, username)
	var u User
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}
