package agenttransport

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeWire struct {
	sends int
	sendFn func(ctx context.Context, agentID string, req Request) error
}

func (w *fakeWire) Send(ctx context.Context, agentID string, req Request) error {
	w.sends++
	if w.sendFn != nil {
		return w.sendFn(ctx, agentID, req)
	}
	return nil
}

type fakeFallback struct {
	called bool
	resp   Response
}

func (f *fakeFallback) Request(ctx context.Context, agentID string, req Request) (Response, error) {
	f.called = true
	return f.resp, nil
}

func TestAdapterDeliversMatchingResponse(t *testing.T) {
	wire := &fakeWire{}
	fb := &fakeFallback{}
	a := NewAdapter(wire, fb, nil)
	a.SoftTimeout = 50 * time.Millisecond

	req := Request{ID: 7, Kind: ChooseRole}
	go func() {
		time.Sleep(5 * time.Millisecond)
		a.Deliver(Response{ID: 7, Kind: ChooseRole})
	}()

	resp, err := a.Request(context.Background(), "agent-1", req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.ID != 7 {
		t.Fatalf("expected response id 7, got %d", resp.ID)
	}
	if fb.called {
		t.Fatalf("fallback should not have been used")
	}
}

func TestAdapterEscalatesToFallbackOnHardTimeout(t *testing.T) {
	wire := &fakeWire{}
	fb := &fakeFallback{resp: Response{ID: 9, Kind: ChooseRole}}
	a := NewAdapter(wire, fb, nil)
	a.SoftTimeout = 5 * time.Millisecond
	a.SoftRetries = 1

	req := Request{ID: 9, Kind: ChooseRole}
	resp, err := a.Request(context.Background(), "agent-1", req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !fb.called {
		t.Fatalf("expected fallback escalation after hard timeout")
	}
	if resp.ID != 9 {
		t.Fatalf("expected fallback response id 9, got %d", resp.ID)
	}
	if wire.sends != 2 {
		t.Fatalf("expected 2 sends (1 initial + 1 resend), got %d", wire.sends)
	}
}

func TestAdapterDropsResponseForUnknownID(t *testing.T) {
	wire := &fakeWire{}
	fb := &fakeFallback{}
	a := NewAdapter(wire, fb, nil)
	// No in-flight request for id 42; Deliver must not panic and must be a no-op.
	a.Deliver(Response{ID: 42})
}

func TestAdapterDropsDuplicateResponseForSameID(t *testing.T) {
	wire := &fakeWire{}
	fb := &fakeFallback{}
	a := NewAdapter(wire, fb, nil)
	a.SoftTimeout = 50 * time.Millisecond

	req := Request{ID: 3, Kind: ChooseRole}
	first := make(chan struct{})
	go func() {
		<-first
		// Duplicate delivery for the same id after it has already been consumed.
		a.Deliver(Response{ID: 3, Kind: ChooseRole})
	}()
	go func() {
		time.Sleep(2 * time.Millisecond)
		a.Deliver(Response{ID: 3, Kind: ChooseRole})
		close(first)
	}()

	resp, err := a.Request(context.Background(), "agent-1", req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.ID != 3 {
		t.Fatalf("expected response id 3, got %d", resp.ID)
	}
}

func TestAdapterSendErrorStillWaitsForTimeout(t *testing.T) {
	wire := &fakeWire{sendFn: func(ctx context.Context, agentID string, req Request) error {
		return errors.New("transient wire error")
	}}
	fb := &fakeFallback{resp: Response{ID: 1}}
	a := NewAdapter(wire, fb, nil)
	a.SoftTimeout = 5 * time.Millisecond
	a.SoftRetries = 0

	resp, err := a.Request(context.Background(), "agent-1", Request{ID: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.ID != 1 {
		t.Fatalf("expected fallback response, got %+v", resp)
	}
}
