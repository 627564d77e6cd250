package feeder

import (
	"context"
	"time"

	"go.uber.org/multierr"

	"github.com/hangar84/robolift/components/subsystem"
	"github.com/hangar84/robolift/config"
	"github.com/hangar84/robolift/logging"
)

// Default parameter sections for the two arms.
const (
	LeftArmSection  = "left_arm"
	RightArmSection = "right_arm"
)

// Feeder couples a left and a right arm so objects can be pulled into or
// pushed out of the robot. The feeder is fully functional only when both
// arms are; otherwise every feed call is a safe no-op.
type Feeder struct {
	name string

	logger     logging.Logger
	logEnabled bool

	leftArm       *Arm
	rightArm      *Arm
	feederEnabled bool

	mode subsystem.Mode
}

// New constructs a feeder and its two arms. Construction never fails.
func New(params *config.Params, section string, deps Deps, logger logging.Logger, loggingEnabled bool) *Feeder {
	f := &Feeder{
		name: section,
		mode: subsystem.Disabled,
	}
	if loggingEnabled && logger != nil {
		f.logger = logger.Named(section)
		f.logEnabled = true
	}
	f.leftArm = NewArm(params, LeftArmSection, deps, logger, loggingEnabled)
	f.rightArm = NewArm(params, RightArmSection, deps, logger, loggingEnabled)
	f.feederEnabled = f.leftArm.Enabled() && f.rightArm.Enabled()

	if f.logEnabled {
		f.logger.Debugw("feeder constructed", "feeder_enabled", f.feederEnabled)
	}
	return f
}

// Name returns the feeder's parameter section.
func (f *Feeder) Name() string {
	return f.name
}

// Enabled reports whether both arms were wired.
func (f *Feeder) Enabled() bool {
	return f.feederEnabled
}

// LoadParameters reloads both arms; the feeder is enabled only when both
// arms load with a wired motor.
func (f *Feeder) LoadParameters() bool {
	leftOK := f.leftArm.LoadParameters()
	rightOK := f.rightArm.LoadParameters()
	f.feederEnabled = f.leftArm.Enabled() && f.rightArm.Enabled()
	return leftOK && rightOK
}

// SetOperatingMode propagates the robot mode to both arms.
func (f *Feeder) SetOperatingMode(mode subsystem.Mode) {
	f.mode = mode
	f.leftArm.SetOperatingMode(mode)
	f.rightArm.SetOperatingMode(mode)
}

// SetLogging toggles telemetry on the feeder and both arms.
func (f *Feeder) SetLogging(enabled bool) {
	if enabled && f.logger != nil {
		f.logEnabled = true
	} else {
		f.logEnabled = false
	}
	f.leftArm.SetLogging(enabled)
	f.rightArm.SetLogging(enabled)
}

// ReadSensors is a no-op; the feeder carries no sensors.
func (f *Feeder) ReadSensors(ctx context.Context) {}

// ResetSensors is a no-op; the feeder carries no sensors.
func (f *Feeder) ResetSensors(ctx context.Context) error {
	return nil
}

// ResetAndStartTimer restarts both arm timers for a timed feed.
func (f *Feeder) ResetAndStartTimer() {
	f.leftArm.ResetAndStartTimer()
	f.rightArm.ResetAndStartTimer()
}

// armDirections maps a feed direction onto the rotation of each arm; the
// arms face each other, so they spin opposite ways to move an object.
func armDirections(direction subsystem.Direction) (left, right subsystem.Direction, ok bool) {
	switch direction {
	case subsystem.In:
		return subsystem.Clockwise, subsystem.CounterClockwise, true
	case subsystem.Out:
		return subsystem.CounterClockwise, subsystem.Clockwise, true
	case subsystem.Stop:
		return subsystem.Stop, subsystem.Stop, true
	default:
		return subsystem.Stop, subsystem.Stop, false
	}
}

// Feed runs both arms so objects are pulled in or pushed out.
func (f *Feeder) Feed(ctx context.Context, direction subsystem.Direction, speed float64) {
	if !f.feederEnabled {
		return
	}
	left, right, ok := armDirections(direction)
	if !ok {
		return
	}
	f.leftArm.Spin(ctx, left, speed)
	f.rightArm.Spin(ctx, right, speed)
}

// FeedFor runs both arms against a time budget, reporting true when both
// have finished their runs.
func (f *Feeder) FeedFor(ctx context.Context, d time.Duration, direction subsystem.Direction, speed float64) bool {
	if !f.feederEnabled {
		return true
	}
	left, right, ok := armDirections(direction)
	if !ok {
		return true
	}
	leftDone := f.leftArm.SpinFor(ctx, d, left, speed)
	rightDone := f.rightArm.SpinFor(ctx, d, right, speed)
	return leftDone && rightDone
}

// Close releases both arms. Safe to call repeatedly.
func (f *Feeder) Close(ctx context.Context) error {
	err := multierr.Combine(
		f.leftArm.Close(ctx),
		f.rightArm.Close(ctx),
	)
	f.feederEnabled = false
	return err
}

var _ subsystem.Subsystem = &Feeder{}
