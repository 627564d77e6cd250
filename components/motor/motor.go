// Package motor defines the actuator port that drives a mechanism.
package motor

import (
	"context"
	"math"
)

// A Motor converts a power ratio into physical motion. Implementations
// wrap a concrete motor-driver binding (PWM controller, CAN device).
type Motor interface {
	// SetPower sets the percentage of power the motor should employ
	// between -1 and 1. Negative power runs the motor backward.
	SetPower(ctx context.Context, powerPct float64) error

	// Stop cuts power to the motor.
	Stop(ctx context.Context) error

	Close(ctx context.Context) error
}

// ClampPower clamps a percentage power to 1.0 or -1.0.
func ClampPower(pwr float64) float64 {
	pwr = math.Min(pwr, 1.0)
	pwr = math.Max(pwr, -1.0)
	return pwr
}

// GetSign returns the sign of the float as a helper for getting the
// intended direction of travel of a motor.
func GetSign(x float64) float64 {
	if x == 0 {
		return 0
	}
	if math.Signbit(x) {
		return -1.0
	}
	return 1.0
}
