package store

import "time"

// User is one registered account, authenticated via auth.JWTManager.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// Room is a lobby one match is played in: seats fill up to MaxPlayers (4 or
// 6), then the room's Game starts.
type Room struct {
	ID         string
	OwnerID    string
	MaxPlayers int
	Status     string // "waiting", "playing", "finished"
	CreatedAt  time.Time
	StartedAt  *time.Time
	FinishedAt *time.Time
}

// RoomMember is one seated player in a Room, in join order (which also
// becomes PlayerIndex order when the match starts).
type RoomMember struct {
	RoomID   string
	UserID   string
	Seat     int
	JoinedAt time.Time
}
