package agenttransport

import "sync/atomic"

// IDGen allocates the monotonic u32 request ids the engine stamps on every
// outbound request, one counter per match.
type IDGen struct {
	next uint32
}

// Next returns the next id, starting at 0.
func (g *IDGen) Next() uint32 {
	return atomic.AddUint32(&g.next, 1) - 1
}
