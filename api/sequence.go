package api

import "sync/atomic"

// Sequence hands out increasing segment ids, starting at 1.
// One Sequence is shared by every grid of a run.
type Sequence struct {
	n atomic.Int64
}

func NewSequence() *Sequence {
	return &Sequence{}
}

func (s *Sequence) Next() int64 {
	return s.n.Add(1)
}

// Last returns the most recently issued id, 0 if none.
func (s *Sequence) Last() int64 {
	return s.n.Load()
}
