package deck

import (
	"testing"

	"github.com/qingwen-guan/allied-citadels/internal/domain"
)

func TestNewDeckHas66Cards(t *testing.T) {
	d := New()
	if got := d.Len(); got != 66 {
		t.Fatalf("expected 66 cards, got %d", got)
	}
	if d.DiscardLen() != 0 {
		t.Fatalf("expected empty discard, got %d", d.DiscardLen())
	}
}

func TestTakeDrainsDrawPile(t *testing.T) {
	d := New()
	seen := 0
	for {
		_, ok := d.Take()
		if !ok {
			break
		}
		seen++
		if seen > 66 {
			t.Fatalf("took more cards than exist in the deck")
		}
	}
	if seen != 66 {
		t.Fatalf("expected to take exactly 66 cards, took %d", seen)
	}
}

func TestTakeReshufflesDiscardLazily(t *testing.T) {
	d := &Deck{shuffle: func(s []domain.Card) {}}
	d.discard = []domain.Card{domain.Tavern, domain.Market}
	shuffles := 0
	d.Journal = func(event string) {
		if event == "shuffle_deck" {
			shuffles++
		}
	}

	c, ok := d.Take()
	if !ok {
		t.Fatalf("expected a card after reshuffling discard")
	}
	if c != domain.Market {
		t.Fatalf("expected the last discarded card to come out first, got %v", c)
	}
	if shuffles != 1 {
		t.Fatalf("expected exactly one shuffle_deck journal entry, got %d", shuffles)
	}
	if d.Len() != 1 || d.DiscardLen() != 0 {
		t.Fatalf("unexpected pile sizes after reshuffle: draw=%d discard=%d", d.Len(), d.DiscardLen())
	}
}

func TestTakeOnEmptyBothPilesReturnsFalse(t *testing.T) {
	d := &Deck{shuffle: func(s []domain.Card) {}}
	_, ok := d.Take()
	if ok {
		t.Fatalf("expected ok=false when both piles are empty")
	}
}

func TestDropAddsToDiscard(t *testing.T) {
	d := &Deck{shuffle: func(s []domain.Card) {}}
	d.Drop(domain.Castle)
	if d.DiscardLen() != 1 {
		t.Fatalf("expected 1 discarded card, got %d", d.DiscardLen())
	}
}

func TestTotalCopiesInvariant(t *testing.T) {
	if got := domain.TotalCopies(); got != 66 {
		t.Fatalf("expected total copies 66, got %d", got)
	}
}
