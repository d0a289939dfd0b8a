// Package api provides the HTTP API for the Allied Citadels server.
//
// @title Allied Citadels API
// @version 1.0
// @description Multiplayer card-game engine backend: room lobbies, seating,
// @description match orchestration, and the wsbus agent WebSocket upgrade.
//
// @license.name MIT
// @license.url https://opensource.org/licenses/MIT
//
// @host localhost:8080
// @BasePath /
//
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Enter 'Bearer {token}' to authorize
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"

	"github.com/qingwen-guan/allied-citadels/internal/agenttransport"
	"github.com/qingwen-guan/allied-citadels/internal/agenttransport/wsbus"
	"github.com/qingwen-guan/allied-citadels/internal/auth"
	"github.com/qingwen-guan/allied-citadels/internal/citadel"
	"github.com/qingwen-guan/allied-citadels/internal/deck"
	"github.com/qingwen-guan/allied-citadels/internal/domain"
	"github.com/qingwen-guan/allied-citadels/internal/fallbackagent"
	"github.com/qingwen-guan/allied-citadels/internal/history"
	"github.com/qingwen-guan/allied-citadels/internal/match"
	"github.com/qingwen-guan/allied-citadels/internal/observability"
	"github.com/qingwen-guan/allied-citadels/internal/randx"
	"github.com/qingwen-guan/allied-citadels/internal/room"
	"github.com/qingwen-guan/allied-citadels/internal/store"
)

type contextKey string

const userIDKey contextKey = "user_id"

type Server struct {
	Router  *chi.Mux
	store   *store.Store
	jwt     *auth.JWTManager
	rooms   *room.Manager
	hub     *wsbus.Hub
	router  *agenttransport.Router
	journal history.Journal
	logger  *zap.Logger
	metrics *observability.Metrics
}

func NewServer(st *store.Store, jwt *auth.JWTManager, rooms *room.Manager, hub *wsbus.Hub, router *agenttransport.Router, journal history.Journal, logger *zap.Logger, metrics *observability.Metrics) *Server {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(corsMiddleware)

	s := &Server{Router: r, store: st, jwt: jwt, rooms: rooms, hub: hub, router: router, journal: journal, logger: logger, metrics: metrics}

	r.Get("/health", s.health)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	r.Post("/v1/auth/register", s.register)
	r.Post("/v1/auth/login", s.login)

	r.Route("/v1/rooms", func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Post("/", s.createRoom)
		r.Post("/{room_id}/join", s.joinRoom)
		r.Post("/{room_id}/start", s.startMatch)
		r.Get("/{room_id}/events", s.fetchEvents)
	})

	r.Handle("/ws/agent", hub)
	return s
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type, X-Request-ID")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("ok"))
}

type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		http.Error(w, "hash error", http.StatusInternalServerError)
		return
	}
	u, err := s.store.CreateUser(r.Context(), uuid.NewString(), req.Username, hash)
	if err != nil {
		http.Error(w, "user exists or db error", http.StatusConflict)
		return
	}
	token, _ := s.jwt.Generate(u.ID)
	writeJSON(w, AuthResponse{Token: token, UserID: u.ID})
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	u, err := s.store.GetUserByUsername(r.Context(), req.Username)
	if err != nil || u == nil {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}
	if err := auth.CheckPassword(u.PasswordHash, req.Password); err != nil {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}
	token, _ := s.jwt.Generate(u.ID)
	writeJSON(w, AuthResponse{Token: token, UserID: u.ID})
}

type CreateRoomRequest struct {
	MaxPlayers int `json:"max_players"`
}

type CreateRoomResponse struct {
	RoomID string `json:"room_id"`
}

func (s *Server) createRoom(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(userIDKey).(string)
	var req CreateRoomRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	if req.MaxPlayers != 4 && req.MaxPlayers != 6 {
		req.MaxPlayers = 4
	}
	rm, err := s.store.CreateRoom(r.Context(), uuid.NewString(), userID, req.MaxPlayers)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	if _, err := s.store.JoinRoom(r.Context(), rm.ID, userID); err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, CreateRoomResponse{RoomID: rm.ID})
}

type JoinRoomResponse struct {
	Seat int `json:"seat"`
}

func (s *Server) joinRoom(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(userIDKey).(string)
	roomID := chi.URLParam(r, "room_id")
	m, err := s.store.JoinRoom(r.Context(), roomID, userID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	writeJSON(w, JoinRoomResponse{Seat: m.Seat})
}

// startMatch seats the joined members into a fresh World and launches it
// under the room.Manager. Each seat's AgentTransport is the adapter wired
// to wsbus (so a connected human/bot client drives it) with the synchronous
// fallbackagent.Agent as the hard-timeout escalation target.
func (s *Server) startMatch(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "room_id")
	rm, err := s.store.GetRoom(r.Context(), roomID)
	if err != nil || rm == nil {
		http.Error(w, "room not found", http.StatusNotFound)
		return
	}
	members, err := s.store.ListMembers(r.Context(), roomID)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	if len(members) != rm.MaxPlayers {
		http.Error(w, fmt.Sprintf("room needs exactly %d seated players, has %d", rm.MaxPlayers, len(members)), http.StatusBadRequest)
		return
	}

	players := make([]*citadel.Player, len(members))
	agentIDs := make([]string, len(members))
	fallback := fallbackagent.New()
	for i, m := range members {
		camp := domain.Chu
		if i%2 == 1 {
			camp = domain.Han
		}
		players[i] = citadel.New(domain.PlayerIndex(i), m.UserID, camp)
		agentIDs[i] = m.UserID
		fallback.SetCamp(m.UserID, camp)
	}

	adapter := agenttransport.NewAdapter(s.hub, fallback, s.logger)
	for _, agentID := range agentIDs {
		s.router.Register(agentID, adapter)
	}
	w2 := &match.World{
		MatchID:   roomID,
		Players:   players,
		AgentIDs:  agentIDs,
		Deck:      deck.New(),
		Transport: adapter,
		Journal:   s.journal,
		Crown:     domain.PlayerIndex(randx.Intn(len(players))),
	}

	if err := s.store.SetRoomStatus(r.Context(), roomID, "playing"); err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	actor, err := s.rooms.StartMatch(context.Background(), roomID, w2)
	if err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	go func() {
		actor.Wait(context.Background())
		for _, agentID := range agentIDs {
			s.router.Unregister(agentID)
		}
	}()
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) fetchEvents(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "room_id")
	events, err := s.journal.Load(r.Context(), roomID)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, events)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if len(authHeader) < 8 {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		claims, err := s.jwt.Parse(authHeader[7:])
		if err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), userIDKey, claims.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
