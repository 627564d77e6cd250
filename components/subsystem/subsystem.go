// Package subsystem defines the operating modes, movement directions, and
// the per-tick contract shared by all robot mechanisms.
package subsystem

import "context"

// Mode is the robot operating mode as reported by the outer control loop.
type Mode int

// The three operating modes a robot cycles through for its lifetime.
// There is no terminal mode.
const (
	Disabled Mode = iota
	Teleop
	Autonomous
)

func (m Mode) String() string {
	switch m {
	case Teleop:
		return "teleop"
	case Autonomous:
		return "autonomous"
	default:
		return "disabled"
	}
}

// Direction enumerates physical movement directions from the perspective
// of the center of the robot facing forward.
type Direction int

// Directions used by the lift and feeder mechanisms.
const (
	Stop Direction = iota
	Up
	Down
	In
	Out
	Clockwise
	CounterClockwise
)

func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	case In:
		return "in"
	case Out:
		return "out"
	case Clockwise:
		return "clockwise"
	case CounterClockwise:
		return "counterclockwise"
	default:
		return "stop"
	}
}

// A Subsystem is a mechanism driven by the outer sampling loop.
//
// ReadSensors must be called each tick before any control decision that
// depends on position; the loop's single goroutine owns the entire call
// sequence for a given instance.
type Subsystem interface {
	Name() string

	// LoadParameters re-reads the subsystem's parameter section and
	// rebuilds hardware bindings, returning false if the new
	// configuration was rejected.
	LoadParameters() bool

	// ReadSensors caches fresh sensor values for this tick.
	ReadSensors(ctx context.Context)

	// ResetSensors zeroes the subsystem's sensors.
	ResetSensors(ctx context.Context) error

	// SetOperatingMode stores the robot mode and interrupts any in-flight
	// timed movement.
	SetOperatingMode(m Mode)

	// SetLogging toggles telemetry, if a log destination exists.
	SetLogging(enabled bool)

	Close(ctx context.Context) error
}
