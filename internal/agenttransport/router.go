package agenttransport

import "sync"

// Router maps a connected agent's id to whichever match Adapter currently
// owns it, since a single wire-binding Hub (e.g. wsbus's) serves every live
// match rather than one per room. The wire binding calls Deliver on every
// inbound response frame; StartMatch-time code Registers each seat's agent
// id against that match's Adapter, and Unregister once the match ends.
type Router struct {
	mu      sync.RWMutex
	targets map[string]*Adapter
}

func NewRouter() *Router {
	return &Router{targets: make(map[string]*Adapter)}
}

// Register binds agentID's inbound responses to adapter until Unregister.
func (r *Router) Register(agentID string, adapter *Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.targets[agentID] = adapter
}

// Unregister stops routing agentID, normally called once its match ends.
func (r *Router) Unregister(agentID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.targets, agentID)
}

// Deliver forwards resp to agentID's registered Adapter, if any. A response
// from an agent with no current match (already ended, or never started) is
// dropped, same as Adapter.Deliver drops a response for an unknown id.
func (r *Router) Deliver(agentID string, resp Response) {
	r.mu.RLock()
	adapter, ok := r.targets[agentID]
	r.mu.RUnlock()
	if !ok {
		return
	}
	adapter.Deliver(resp)
}
