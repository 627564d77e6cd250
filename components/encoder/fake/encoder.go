// Package fake implements an encoder for tests and simulation.
package fake

import (
	"context"
	"sync"
	"time"

	goutils "go.viam.com/utils"

	"github.com/hangar84/robolift/components/encoder"
)

// Encoder keeps track of a simulated axis position.
type Encoder struct {
	mu         sync.Mutex
	position   int64
	speed      float64 // ticks per minute
	updateRate time.Duration

	cancel  func()
	workers sync.WaitGroup
}

// New returns a stationary fake encoder.
func New() *Encoder {
	return &Encoder{}
}

// NewMoving returns a fake encoder whose position drifts at the given
// ticks-per-minute rate, updated every updateRate.
func NewMoving(ctx context.Context, ticksPerMinute float64, updateRate time.Duration) *Encoder {
	e := &Encoder{speed: ticksPerMinute, updateRate: updateRate}
	e.start(ctx)
	return e
}

func (e *Encoder) start(ctx context.Context) {
	if e.updateRate == 0 {
		e.updateRate = 100 * time.Millisecond
	}
	cancelCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.workers.Add(1)
	goutils.ManagedGo(func() {
		for {
			if !goutils.SelectContextOrWait(cancelCtx, e.updateRate) {
				return
			}
			e.mu.Lock()
			e.position += int64(e.speed * e.updateRate.Minutes())
			e.mu.Unlock()
		}
	}, e.workers.Done)
}

// Position returns the current position in ticks.
func (e *Encoder) Position(ctx context.Context) (int64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.position, nil
}

// Reset makes the current position the new zero.
func (e *Encoder) Reset(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.position = 0
	return nil
}

// SetPosition overrides the current position.
func (e *Encoder) SetPosition(position int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.position = position
}

// SetSpeed changes the drift rate of a moving encoder.
func (e *Encoder) SetSpeed(ticksPerMinute float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.speed = ticksPerMinute
}

// Close stops the background drift worker, if any.
func (e *Encoder) Close(ctx context.Context) error {
	if e.cancel != nil {
		e.cancel()
	}
	e.workers.Wait()
	return nil
}

var _ encoder.Encoder = &Encoder{}
