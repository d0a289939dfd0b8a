// Package wsbus implements the "framed duplex stream" AgentTransport wire
// binding: one JWT-authenticated WebSocket connection per seated agent, one
// AgentMessage JSON envelope per text frame (<= 1 MiB), grounded in the
// teacher's internal/realtime/ws.go (Session.readPump/writePump, ping/pong
// keepalive, JWT query-param handshake). Inbound frames are not rate limited.
package wsbus

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/qingwen-guan/allied-citadels/internal/agenttransport"
	"github.com/qingwen-guan/allied-citadels/internal/auth"
)

const maxFrameBytes = 1 << 20 // 1 MiB

// AgentMessage is the envelope carried one-per-text-frame over the socket;
// Kind distinguishes an outbound Request from an inbound Response.
type AgentMessage struct {
	Kind     string                     `json:"kind"` // "request" | "response"
	Request  *agenttransport.Request    `json:"request,omitempty"`
	Response *agenttransport.Response   `json:"response,omitempty"`
}

// Session is one agent's live connection, satisfying agenttransport.WireSender.
type Session struct {
	AgentID string
	conn    *websocket.Conn
	logger  *zap.Logger
	send    chan []byte
	deliver func(agentID string, resp agenttransport.Response)
}

// Hub upgrades incoming agent connections and tracks one Session per
// currently-connected agent, keyed by the agent id carried in the
// "agent_id" query parameter (not in the URL path), matching the teacher's
// Session-per-connection shape.
type Hub struct {
	upgrader websocket.Upgrader
	jwt      *auth.JWTManager
	logger   *zap.Logger
	deliver  func(agentID string, resp agenttransport.Response)

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewHub builds a Hub that authenticates agent connections with jwt and
// forwards every received Response to deliver (normally a Router.Deliver,
// since one Hub multiplexes every live match's agents).
func NewHub(jwt *auth.JWTManager, logger *zap.Logger, deliver func(agentID string, resp agenttransport.Response)) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		jwt:      jwt,
		logger:   logger,
		deliver:  deliver,
		sessions: make(map[string]*Session),
	}
}

// ServeHTTP upgrades the connection; the agent's uuid is taken from the
// "agent_id" query parameter, alongside a JWT bearer token in "token".
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}
	if _, err := h.jwt.Parse(token); err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}
	agentID := r.URL.Query().Get("agent_id")
	if agentID == "" {
		agentID = uuid.NewString()
	}
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		if h.logger != nil {
			h.logger.Warn("wsbus: upgrade failed", zap.Error(err))
		}
		return
	}
	conn.SetReadLimit(maxFrameBytes)

	sess := &Session{
		AgentID: agentID,
		conn:    conn,
		logger:  h.logger,
		send:    make(chan []byte, 64),
		deliver: h.deliver,
	}
	h.mu.Lock()
	h.sessions[agentID] = sess
	h.mu.Unlock()

	go sess.writePump()
	sess.readPump()

	h.mu.Lock()
	delete(h.sessions, agentID)
	h.mu.Unlock()
}

// Send implements agenttransport.WireSender by writing to the connected
// agent's session, if any; an agent with no live connection yields an error
// so the Adapter's soft-timeout loop proceeds to retry/escalate rather than
// hang.
func (h *Hub) Send(ctx context.Context, agentID string, req agenttransport.Request) error {
	h.mu.RLock()
	sess, ok := h.sessions[agentID]
	h.mu.RUnlock()
	if !ok {
		return errNoSession(agentID)
	}
	body, err := json.Marshal(AgentMessage{Kind: "request", Request: &req})
	if err != nil {
		return err
	}
	select {
	case sess.send <- body:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type errNoSession string

func (e errNoSession) Error() string { return "wsbus: no live session for agent " + string(e) }

func (s *Session) readPump() {
	defer s.conn.Close()
	s.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			return
		}
		s.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		var msg AgentMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			if s.logger != nil {
				s.logger.Warn("wsbus: malformed frame, dropping", zap.String("agent_id", s.AgentID), zap.Error(err))
			}
			continue
		}
		if msg.Kind != "response" || msg.Response == nil {
			continue
		}
		if s.deliver != nil {
			s.deliver(s.AgentID, *msg.Response)
		}
	}
}

func (s *Session) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()
	for {
		select {
		case data, ok := <-s.send:
			if !ok {
				return
			}
			s.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
