package engine

import "sync/atomic"

// Sequencer hands out strictly increasing numbers starting at 1.
//
// The engine uses one for component ids. Safe for concurrent use, though the
// engine only calls it from its own goroutine.
type Sequencer struct {
	n atomic.Uint64
}

// NewSequencer returns a sequencer whose first Next is 1.
func NewSequencer() *Sequencer {
	return &Sequencer{}
}

// NewSequencerAt returns a sequencer whose first Next is start+1.
func NewSequencerAt(start uint64) *Sequencer {
	s := &Sequencer{}
	s.n.Store(start)
	return s
}

// Next returns the next number.
func (s *Sequencer) Next() uint64 {
	return s.n.Add(1)
}

// Current returns the last number handed out, 0 if none.
func (s *Sequencer) Current() uint64 {
	return s.n.Load()
}

// Reset restarts the sequence.
func (s *Sequencer) Reset() {
	s.n.Store(0)
}
