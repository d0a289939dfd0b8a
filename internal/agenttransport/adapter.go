package agenttransport

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// WireSender is the outbound half of a wire binding: publish/send req to
// agentID, non-blocking. queuebus and wsbus both implement this; the adapter
// owns correlation, retries, and fallback escalation on top.
type WireSender interface {
	Send(ctx context.Context, agentID string, req Request) error
}

// Adapter implements Transport on top of a WireSender: it correlates
// responses by id, resends the identical request on a soft timeout, and
// escalates to Fallback after softRetries soft timeouts. Deliver is called by
// the wire binding's receive loop whenever a response frame arrives.
type Adapter struct {
	Wire        WireSender
	Fallback    Transport
	SoftTimeout time.Duration
	SoftRetries int
	Logger      *zap.Logger

	mu      sync.Mutex
	pending map[uint32]chan Response
}

// NewAdapter builds an Adapter with the spec's defaults: ~1s soft timeout,
// escalating to the fallback agent after 1 soft retry (2 sends total).
func NewAdapter(wire WireSender, fallback Transport, logger *zap.Logger) *Adapter {
	return &Adapter{
		Wire:        wire,
		Fallback:    fallback,
		SoftTimeout: time.Second,
		SoftRetries: 1,
		Logger:      logger,
		pending:     make(map[uint32]chan Response),
	}
}

// Request sends req to agentID and blocks until a matching response arrives,
// a soft-timeout budget is exhausted (escalating to Fallback), or ctx is
// cancelled.
func (a *Adapter) Request(ctx context.Context, agentID string, req Request) (Response, error) {
	ch := make(chan Response, 1)
	a.mu.Lock()
	a.pending[req.ID] = ch
	a.mu.Unlock()
	defer func() {
		a.mu.Lock()
		delete(a.pending, req.ID)
		a.mu.Unlock()
	}()

	for attempt := 0; attempt <= a.SoftRetries; attempt++ {
		if err := a.Wire.Send(ctx, agentID, req); err != nil {
			if a.Logger != nil {
				a.Logger.Warn("agenttransport: send failed, will retry on timeout",
					zap.String("agent_id", agentID), zap.Uint32("request_id", req.ID), zap.Error(err))
			}
		}
		select {
		case resp := <-ch:
			return resp, nil
		case <-time.After(a.SoftTimeout):
			if a.Logger != nil {
				a.Logger.Warn("agenttransport: soft timeout, resending",
					zap.String("agent_id", agentID), zap.Uint32("request_id", req.ID), zap.Int("attempt", attempt))
			}
			continue
		case <-ctx.Done():
			return Response{}, ctx.Err()
		}
	}

	if a.Logger != nil {
		a.Logger.Error("agenttransport: hard timeout, escalating to fallback",
			zap.String("agent_id", agentID), zap.Uint32("request_id", req.ID))
	}
	return a.Fallback.Request(ctx, agentID, req)
}

// Deliver hands a response frame to whichever in-flight Request is waiting
// on its id. A response for an unknown or already-delivered id (duplicate
// redelivery, or a response arriving for a request this adapter already gave
// up on) is logged and dropped, never applied twice.
func (a *Adapter) Deliver(resp Response) {
	a.mu.Lock()
	ch, ok := a.pending[resp.ID]
	if ok {
		delete(a.pending, resp.ID)
	}
	a.mu.Unlock()

	if !ok {
		if a.Logger != nil {
			a.Logger.Warn("agenttransport: dropping response for unknown or duplicate id",
				zap.Uint32("request_id", resp.ID))
		}
		return
	}
	select {
	case ch <- resp:
	default:
	}
}
