package domain

// PlayerIndex is the absolute seat position around the table, in [0, N).
type PlayerIndex int

// PlayerOffset is a position relative to a given observer: 0 is self, 1 is the
// next player clockwise. The engine always serializes opponent positions as
// offsets so no viewer can recover another player's absolute index.
type PlayerOffset int

// ToOffset converts an absolute index to the offset an observer at `viewer`
// sees it as, modular in the table size n.
func (p PlayerIndex) ToOffset(viewer PlayerIndex, n int) PlayerOffset {
	d := (int(p) - int(viewer)) % n
	if d < 0 {
		d += n
	}
	return PlayerOffset(d)
}

// ToIndex converts an offset seen by `viewer` back to an absolute index,
// modular in the table size n.
func (o PlayerOffset) ToIndex(viewer PlayerIndex, n int) PlayerIndex {
	idx := (int(viewer) + int(o)) % n
	return PlayerIndex(idx)
}

// Next returns the next player clockwise from p, modular in n.
func (p PlayerIndex) Next(n int) PlayerIndex {
	return PlayerIndex((int(p) + 1) % n)
}
