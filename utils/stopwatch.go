// Package utils contains small shared helpers for the robot control loop.
package utils

import (
	"time"

	"github.com/benbjohnson/clock"
)

// A Stopwatch measures elapsed time for timed subsystem movements. It is
// stopped at construction and reports zero until started. A Stopwatch is
// owned by a single subsystem and is not safe for concurrent use.
type Stopwatch struct {
	clk     clock.Clock
	start   time.Time
	frozen  time.Duration
	running bool
}

// NewStopwatch returns a stopped stopwatch on the wall clock.
func NewStopwatch() *Stopwatch {
	return NewStopwatchWithClock(clock.New())
}

// NewStopwatchWithClock returns a stopped stopwatch on the given clock so
// tests can drive time deterministically.
func NewStopwatchWithClock(clk clock.Clock) *Stopwatch {
	return &Stopwatch{clk: clk}
}

// Start begins a new timing run. Starting a running stopwatch restarts the
// measurement from now.
func (s *Stopwatch) Start() {
	s.start = s.clk.Now()
	s.running = true
}

// Stop freezes the elapsed measurement. Stopping a stopped stopwatch has
// no further effect.
func (s *Stopwatch) Stop() {
	if !s.running {
		return
	}
	s.frozen = s.clk.Now().Sub(s.start)
	s.running = false
}

// Reset stops the stopwatch and clears any recorded duration.
func (s *Stopwatch) Reset() {
	s.running = false
	s.frozen = 0
}

// Elapsed reports time since the last Start while running, or the frozen
// duration of the last run once stopped.
func (s *Stopwatch) Elapsed() time.Duration {
	if s.running {
		return s.clk.Now().Sub(s.start)
	}
	return s.frozen
}

// Running reports whether the stopwatch is currently timing.
func (s *Stopwatch) Running() bool {
	return s.running
}
