// Package store implements the room directory: user accounts, room lobbies,
// and seating, separate from internal/history's per-match event journal.
// Grounded in the teacher's internal/store/store.go — same MemoryMode
// escape hatch and WithTx shape, adapted to the Room/RoomMember/User model
// SPEC_FULL.md §9 settles on (no separate account/user domain split).
package store

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/go-sql-driver/mysql"
)

type Store struct {
	DB         *sql.DB
	MemoryMode bool

	mu      sync.RWMutex
	users   map[string]User
	rooms   map[string]Room
	members map[string][]RoomMember
}

func New(db *sql.DB) *Store {
	return &Store{DB: db}
}

func NewMemoryStore() *Store {
	return &Store{
		MemoryMode: true,
		users:      make(map[string]User),
		rooms:      make(map[string]Room),
		members:    make(map[string][]RoomMember),
	}
}

func ConnectMySQL(dsn string) (*sql.DB, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("mysql", cfg.FormatDSN())
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)
	return db, nil
}

func (s *Store) WithTx(ctx context.Context, fn func(*sql.Tx) error) error {
	if s.MemoryMode {
		return fn(nil)
	}
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if tx != nil {
			_ = tx.Rollback()
		}
	}()
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	tx = nil
	return nil
}

func (s *Store) Close() error {
	if s.MemoryMode {
		return nil
	}
	return s.DB.Close()
}
