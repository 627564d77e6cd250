// Package fake implements a motor that records commanded power.
package fake

import (
	"context"
	"sync"

	"github.com/hangar84/robolift/components/motor"
)

// Motor is a fake motor used by tests and simulation.
type Motor struct {
	mu       sync.Mutex
	powerPct float64
	powered  bool
}

// New returns an unpowered fake motor.
func New() *Motor {
	return &Motor{}
}

// SetPower records the commanded power, clamped to [-1, 1].
func (m *Motor) SetPower(ctx context.Context, powerPct float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.powerPct = motor.ClampPower(powerPct)
	m.powered = m.powerPct != 0
	return nil
}

// Stop cuts power to the motor.
func (m *Motor) Stop(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.powerPct = 0
	m.powered = false
	return nil
}

// PowerPct returns the last commanded power.
func (m *Motor) PowerPct() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.powerPct
}

// IsPowered returns whether the motor is on and at what power.
func (m *Motor) IsPowered() (bool, float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.powered, m.powerPct
}

// DirectionMoving returns -1 if the motor is currently turning backward,
// 1 if forward and 0 if off.
func (m *Motor) DirectionMoving() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(motor.GetSign(m.powerPct))
}

// Close stops the motor.
func (m *Motor) Close(ctx context.Context) error {
	return m.Stop(ctx)
}

var _ motor.Motor = &Motor{}
