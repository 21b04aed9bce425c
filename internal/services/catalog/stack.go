package catalog

import (
	"github.com/mcoot/flippo/internal/dependencies/random"
	"github.com/mcoot/flippo/internal/model"
)

// Stack is a per-lobby draw pile. When it runs short it is replaced by a
// freshly shuffled copy of the full catalog. Not safe for concurrent use;
// the owning lobby serializes access.
type Stack struct {
	source func() []model.Card
	random random.Random
	cards  []model.Card
}

// NewStack creates a stack filled and shuffled from source
func NewStack(source func() []model.Card, r random.Random) *Stack {
	st := &Stack{source: source, random: r}
	st.Reset()
	return st
}

// Reset refills the stack with the full catalog and shuffles it
func (st *Stack) Reset() {
	st.cards = st.source()
	random.Shuffle(st.random, st.cards)
}

// Ensure refills the stack if fewer than n cards remain
func (st *Stack) Ensure(n int) {
	if len(st.cards) < n {
		st.Reset()
	}
}

// Draw removes up to n cards from the front of the stack, refilling first
// if fewer than n remain
func (st *Stack) Draw(n int) []model.Card {
	if n <= 0 {
		return nil
	}
	st.Ensure(n)
	if n > len(st.cards) {
		n = len(st.cards)
	}
	drawn := append([]model.Card(nil), st.cards[:n]...)
	st.cards = st.cards[n:]
	return drawn
}

// Len returns the number of cards left
func (st *Stack) Len() int {
	return len(st.cards)
}
