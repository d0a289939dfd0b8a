// Package room wraps one running match in a supervised goroutine: it owns
// the match's World and Game, recovers from a fatal invariant violation
// (spec §7's "log, abort the match" error class) instead of bringing down
// the whole process, and marks the room finished in the room directory (the
// match result itself is not stored there).
// Grounded in the teacher's internal/room/room.go RoomActor/RoomManager
// shape (panic-recover loop, crash callback, auto-restart registry),
// adapted from Clocktower's command-dispatch actor to a fire-and-drive-to-
// completion match runner, since Citadels has no external command stream
// once a match starts — every input arrives through AgentTransport.
package room

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"

	"go.uber.org/zap"

	"github.com/qingwen-guan/allied-citadels/internal/game"
	"github.com/qingwen-guan/allied-citadels/internal/match"
	"github.com/qingwen-guan/allied-citadels/internal/observability"
	"github.com/qingwen-guan/allied-citadels/internal/store"
)

// Outcome is delivered exactly once, whether the match finished normally,
// errored, or was aborted by a recovered panic.
type Outcome struct {
	Result game.Result
	Err    error
}

// Actor supervises one match from start to finish.
type Actor struct {
	RoomID string
	World  *match.World

	logger  *zap.Logger
	metrics *observability.Metrics
	store   *store.Store

	mu       sync.Mutex
	outcome  *Outcome
	done     chan struct{}
	onCrash  func(roomID string, err error)
}

// Start builds an Actor over world and immediately begins running its Game
// in a supervised goroutine.
func Start(ctx context.Context, roomID string, world *match.World, st *store.Store, logger *zap.Logger, metrics *observability.Metrics, onCrash func(roomID string, err error)) *Actor {
	a := &Actor{
		RoomID:  roomID,
		World:   world,
		logger:  logger,
		metrics: metrics,
		store:   st,
		done:    make(chan struct{}),
		onCrash: onCrash,
	}
	if metrics != nil {
		metrics.MatchesInProgress.Inc()
	}
	go a.run(ctx)
	return a
}

func (a *Actor) run(ctx context.Context) {
	defer close(a.done)
	defer func() {
		if a.metrics != nil {
			a.metrics.MatchesInProgress.Dec()
		}
	}()

	result, err := a.playWithRecovery(ctx)

	a.mu.Lock()
	a.outcome = &Outcome{Result: result, Err: err}
	a.mu.Unlock()

	if a.store != nil {
		_ = a.store.SetRoomStatus(context.Background(), a.RoomID, "finished")
	}

	if err != nil {
		a.World.Append(context.Background(), "aborted", map[string]any{"error": err.Error()})
		if a.logger != nil {
			a.logger.Error("match ended with error", zap.String("room_id", a.RoomID), zap.Error(err))
		}
		if a.onCrash != nil {
			a.onCrash(a.RoomID, err)
		}
	}
}

// playWithRecovery drives the Game to completion, converting any panic
// (citadel.Player's invariant-violation panics, RoleExecutionService's card
// total assertion, etc.) into a plain error instead of crashing the room
// manager's process — this is the engine's one fatal error class from §7.
func (a *Actor) playWithRecovery(ctx context.Context) (result game.Result, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			if a.logger != nil {
				a.logger.Error("match aborted by invariant violation",
					zap.String("room_id", a.RoomID),
					zap.Any("panic", recovered),
					zap.ByteString("stack", debug.Stack()))
			}
			if a.metrics != nil {
				a.metrics.InvariantViolationTotal.WithLabelValues(fmt.Sprintf("%v", recovered)).Inc()
			}
			err = fmt.Errorf("room: match aborted: %v", recovered)
		}
	}()
	g := game.New(a.World)
	return g.Run(ctx)
}

// Wait blocks until the match finishes (normally, by error, or by recovered
// panic) and returns its outcome.
func (a *Actor) Wait(ctx context.Context) (Outcome, error) {
	select {
	case <-a.done:
		a.mu.Lock()
		defer a.mu.Unlock()
		return *a.outcome, nil
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}
}

// Done reports whether the match has finished.
func (a *Actor) Done() bool {
	select {
	case <-a.done:
		return true
	default:
		return false
	}
}

// Manager tracks one Actor per live match, mirroring the teacher's
// RoomManager registry. A reported crash is logged; the crashed match is not
// restarted, though StartMatch accepts a new match for the room once the
// previous Actor is done.
type Manager struct {
	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	actors  map[string]*Actor
	store   *store.Store
	logger  *zap.Logger
	metrics *observability.Metrics
}

func NewManager(ctx context.Context, st *store.Store, logger *zap.Logger, metrics *observability.Metrics) *Manager {
	if ctx == nil {
		ctx = context.Background()
	}
	actorCtx, cancel := context.WithCancel(ctx)
	return &Manager{ctx: actorCtx, cancel: cancel, actors: make(map[string]*Actor), store: st, logger: logger, metrics: metrics}
}

func (m *Manager) Close() {
	m.cancel()
}

// StartMatch registers and starts a new Actor for roomID. Returns an error
// if a match is already running under that room id.
func (m *Manager) StartMatch(ctx context.Context, roomID string, world *match.World) (*Actor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.actors[roomID]; ok && !existing.Done() {
		return nil, fmt.Errorf("room: match already running for room %s", roomID)
	}
	a := Start(m.ctx, roomID, world, m.store, m.logger, m.metrics, m.reportCrash)
	m.actors[roomID] = a
	return a, nil
}

func (m *Manager) Get(roomID string) (*Actor, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.actors[roomID]
	return a, ok
}

func (m *Manager) reportCrash(roomID string, err error) {
	if m.logger != nil {
		m.logger.Warn("match crashed", zap.String("room_id", roomID), zap.Error(err))
	}
}
