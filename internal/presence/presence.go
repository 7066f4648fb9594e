// Package presence provides the "live visitors" figure shown on the storefront.
//
// The Simulator is a cosmetic presentation effect: its number is not derived from real traffic.
// Consumers depend on Counter so a real metrics source can replace it.
package presence

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"
)

// Bounds of the simulated counter.
const (
	Min = 2
	Max = 20
)

// DefaultInterval is how often the simulated value moves.
const DefaultInterval = 10 * time.Second

// Counter reports the current number of visitors online.
type Counter interface {
	Current() int
}

// Simulator walks a counter randomly by -1, 0 or +1 per tick within [Min, Max].
type Simulator struct {
	mu       sync.Mutex
	value    int
	interval time.Duration
	intn     func(n int) int
}

// NewSimulator starts the counter at a random value in [2, 6].
func NewSimulator(interval time.Duration) *Simulator {
	return newSimulator(interval, rand.IntN)
}

func newSimulator(interval time.Duration, intn func(int) int) *Simulator {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Simulator{
		value:    intn(5) + Min,
		interval: interval,
		intn:     intn,
	}
}

// Current returns the current simulated value.
func (s *Simulator) Current() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

// Step applies one random move and returns the new value.
func (s *Simulator) Step() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.value = clamp(s.value + s.intn(3) - 1)
	return s.value
}

// Run moves the counter every interval until ctx is cancelled. The ticker is released on return.
func (s *Simulator) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Step()
		}
	}
}

func clamp(v int) int {
	if v < Min {
		return Min
	}
	if v > Max {
		return Max
	}
	return v
}

// Static is a Counter with a fixed value.
type Static int

// Current returns the fixed value.
func (s Static) Current() int { return int(s) }
