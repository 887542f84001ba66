// Package gametest provides deterministic randomness for game tests.
package gametest

import "sync"

// Seq replays a fixed sequence of draws. IntN returns each value modulo n;
// Float64 returns each value divided by 1000. The sequence wraps around.
type Seq struct {
	mu     sync.Mutex
	values []int
	pos    int
}

// NewSeq creates a Seq over values. An empty sequence always draws zero.
func NewSeq(values ...int) *Seq {
	return &Seq{values: values}
}

func (s *Seq) next() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.values) == 0 {
		return 0
	}
	v := s.values[s.pos%len(s.values)]
	s.pos++
	return v
}

// IntN returns the next value modulo n.
func (s *Seq) IntN(n int) int {
	return s.next() % n
}

// Float64 returns the next value scaled into [0, 1) by 1/1000.
func (s *Seq) Float64() float64 {
	v := float64(s.next()%1000) / 1000
	return v
}
