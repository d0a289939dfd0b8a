// Package deck implements the shuffled draw/discard pile every match owns,
// with lazy reshuffle on demand. Shuffles use randx's process-wide
// crypto/rand source; a Deck holds no per-match RNG and cannot be seeded.
// The 66-card total is asserted by RoleExecutionService at the end of each
// turn, not after every deck mutation.
package deck

import (
	"github.com/qingwen-guan/allied-citadels/internal/domain"
	"github.com/qingwen-guan/allied-citadels/internal/randx"
)

// ShuffleFunc matches randx.Shuffle's signature; overridden in tests that need
// a deterministic order.
type ShuffleFunc func(s []domain.Card)

// Deck holds the draw pile (back of slice = top of pile) and the discard
// pile. It reports each reshuffle in Take through the optional Journal hook.
// The initial shuffle in New runs before a hook can be set, and neither the
// server nor the sim binary sets one, so shuffles do not reach the
// HistoryJournal there.
type Deck struct {
	draw    []domain.Card
	discard []domain.Card
	shuffle ShuffleFunc
	Journal func(event string)
}

// New builds a fresh 66-card deck, one physical copy per (card, i) pair,
// shuffled once.
func New() *Deck {
	d := &Deck{shuffle: randx.Shuffle[domain.Card]}
	for _, c := range domain.AllCards() {
		for i := uint32(0); i < c.Copies(); i++ {
			d.draw = append(d.draw, c)
		}
	}
	d.shuffle(d.draw)
	d.journal("shuffle_deck")
	return d
}

func (d *Deck) journal(event string) {
	if d.Journal != nil {
		d.Journal(event)
	}
}

// Len returns the current size of the draw pile.
func (d *Deck) Len() int { return len(d.draw) }

// DiscardLen returns the current size of the discard pile.
func (d *Deck) DiscardLen() int { return len(d.discard) }

// Take pops one card from the draw pile. If the draw pile is empty it first
// swaps in the discard pile, shuffles it into the new draw pile (journaling a
// second shuffle_deck), and only then pops. Returns ok=false only when both
// piles are empty — unreachable under the 66-card invariant absent an
// external bug.
func (d *Deck) Take() (domain.Card, bool) {
	if len(d.draw) == 0 {
		if len(d.discard) == 0 {
			return domain.Card(0), false
		}
		d.draw, d.discard = d.discard, d.draw[:0]
		d.shuffle(d.draw)
		d.journal("shuffle_deck")
	}
	n := len(d.draw) - 1
	c := d.draw[n]
	d.draw = d.draw[:n]
	return c, true
}

// Drop returns a card to the discard pile.
func (d *Deck) Drop(c domain.Card) {
	d.discard = append(d.discard, c)
}
