// Package queuebus implements the "list-backed bus" AgentTransport wire
// binding described in the spec: a priority queue pair per (room, agent),
// request published to one queue, response consumed from the other, with an
// x-max-priority declare so time-critical requests (kill/steal/role picks)
// can jump ahead of FYI traffic, grounded in the teacher's internal/queue
// (amqp.Dial, QoS/prefetch, x-max-priority queue declare, DLQ, Nack/requeue).
package queuebus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/qingwen-guan/allied-citadels/internal/agenttransport"
)

const maxQueuePriority = 10

// Bus is one connection's worth of per-(room, agent) request/response queue
// pairs; it satisfies agenttransport.WireSender and fans consumed responses
// out to the Adapter via Deliver.
type Bus struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	roomID  string
	logger  *slog.Logger

	mu       sync.Mutex
	declared map[string]bool

	deliver  func(agenttransport.Response)
	cancelCh chan struct{}
}

// Config mirrors the teacher's queue.Config shape, narrowed to this bus's
// needs.
type Config struct {
	URL    string
	RoomID string
	Logger *slog.Logger
}

// Dial opens the AMQP connection and channel for one room's agent traffic.
func Dial(cfg Config) (*Bus, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("queuebus: dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("queuebus: channel: %w", err)
	}
	if err := ch.Qos(1, 0, false); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("queuebus: qos: %w", err)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		conn:     conn,
		channel:  ch,
		roomID:   cfg.RoomID,
		logger:   logger,
		declared: make(map[string]bool),
		cancelCh: make(chan struct{}),
	}, nil
}

func (b *Bus) reqQueueName(agentID string) string {
	return fmt.Sprintf("room.%s.agent.%s.req", b.roomID, agentID)
}

func (b *Bus) respQueueName(agentID string) string {
	return fmt.Sprintf("room.%s.agent.%s.resp", b.roomID, agentID)
}

func (b *Bus) ensureDeclared(agentID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.declared[agentID] {
		return nil
	}
	for _, name := range []string{b.reqQueueName(agentID), b.respQueueName(agentID)} {
		if _, err := b.channel.QueueDeclare(name, true, false, false, false, amqp.Table{"x-max-priority": maxQueuePriority}); err != nil {
			return fmt.Errorf("queuebus: declare %s: %w", name, err)
		}
	}
	b.declared[agentID] = true
	return nil
}

// priority ranks time-critical decision kinds above FYI-adjacent traffic
// when co-queued, per the spec's x-max-priority rationale.
func priority(kind agenttransport.Kind) uint8 {
	switch kind {
	case agenttransport.ChooseRole, agenttransport.ChooseKillTarget, agenttransport.ChooseStealTarget:
		return maxQueuePriority
	default:
		return maxQueuePriority / 2
	}
}

// Send publishes req onto the agent's request queue. Implements
// agenttransport.WireSender; a resend of the same request id is a duplicate
// publish on the wire, harmless because the adapter dedups by id.
func (b *Bus) Send(ctx context.Context, agentID string, req agenttransport.Request) error {
	if err := b.ensureDeclared(agentID); err != nil {
		return err
	}
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("queuebus: marshal request: %w", err)
	}
	return b.channel.PublishWithContext(ctx, "", b.reqQueueName(agentID), false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
		Priority:    priority(req.Kind),
		MessageId:   fmt.Sprintf("%d", req.ID),
	})
}

// Listen consumes the agent's response queue and hands every well-formed
// frame to deliver (normally Adapter.Deliver). It runs until ctx is
// cancelled or Close is called.
func (b *Bus) Listen(ctx context.Context, agentID string, deliver func(agenttransport.Response)) error {
	if err := b.ensureDeclared(agentID); err != nil {
		return err
	}
	msgs, err := b.channel.Consume(b.respQueueName(agentID), "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queuebus: consume: %w", err)
	}
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-b.cancelCh:
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var resp agenttransport.Response
				if err := json.Unmarshal(msg.Body, &resp); err != nil {
					b.logger.Error("queuebus: malformed response, dropping", "error", err, "agent_id", agentID)
					msg.Nack(false, false)
					continue
				}
				deliver(resp)
				msg.Ack(false)
			}
		}
	}()
	return nil
}

// Close tears down the connection and channel.
func (b *Bus) Close() error {
	close(b.cancelCh)
	if err := b.channel.Close(); err != nil {
		return err
	}
	return b.conn.Close()
}
