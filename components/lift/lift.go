// Package lift implements a staged-speed lift mechanism.
//
// A lift raises and lowers a bracket along a vertical rail. During
// automated movements the commanded speed steps down through far, medium,
// and near stages as the lift approaches its target, measured on an
// encoder-distance axis and a movement-time axis. The lift degrades
// gracefully: hardware that cannot be wired leaves the corresponding
// capability disabled instead of failing construction.
package lift

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/multierr"

	"github.com/hangar84/robolift/components/encoder"
	"github.com/hangar84/robolift/components/motor"
	"github.com/hangar84/robolift/components/subsystem"
	"github.com/hangar84/robolift/config"
	"github.com/hangar84/robolift/logging"
	"github.com/hangar84/robolift/utils"
)

// Deps supplies the hardware binding constructors for a lift. A nil
// constructor or a negative channel identifier means that piece of
// hardware is not wired and the lift runs degraded without it.
type Deps struct {
	OpenEncoder func(channelA, channelB int) (encoder.Encoder, error)
	OpenMotor   func(channel int) (motor.Motor, error)

	// Clock backs the movement timer; nil means the wall clock.
	Clock clock.Clock
}

// Lift is a mechanism that lifts things off of the ground.
//
// A Lift is driven by a single outer sampling loop and is not safe for
// concurrent use; ReadSensors must be called each tick before any control
// decision that depends on position.
type Lift struct {
	name   string
	deps   Deps
	params *config.Params

	logger     logging.Logger
	logEnabled bool

	cfg *Config

	enc            encoder.Encoder
	mot            motor.Motor
	encoderEnabled bool
	liftEnabled    bool

	lastEncoderCount    int64
	ignoreEncoderLimits bool
	mode                subsystem.Mode
	movementTimer       *utils.Stopwatch
}

// New constructs a lift bound to a parameter section and runs the initial
// parameter load. Construction never fails: hardware that cannot be wired
// leaves the lift in a degraded state with the corresponding capability
// flag unset, and a nil logger simply disables telemetry.
func New(params *config.Params, section string, deps Deps, logger logging.Logger, loggingEnabled bool) *Lift {
	clk := deps.Clock
	if clk == nil {
		clk = clock.New()
	}
	l := &Lift{
		name:          section,
		deps:          deps,
		params:        params,
		mode:          subsystem.Disabled,
		movementTimer: utils.NewStopwatchWithClock(clk),
	}
	if loggingEnabled && logger != nil {
		l.logger = logger.Named(section)
		l.logEnabled = true
	}
	l.LoadParameters()
	return l
}

// Name returns the parameter section this lift was constructed with.
func (l *Lift) Name() string {
	return l.name
}

// LoadParameters re-reads the lift's parameter section, validates it, and
// rebuilds the hardware bindings. A configuration that fails validation
// is rejected as a whole: the previous configuration and bindings stay in
// effect and the method returns false. Absent hardware channels are not a
// failure; the lift runs degraded with the capability disabled.
func (l *Lift) LoadParameters() bool {
	cfg := DefaultConfig()
	if l.params != nil {
		if section, ok := l.params.Section(l.name); ok {
			if err := config.BindSection(section, &cfg); err != nil {
				if l.logEnabled {
					l.logger.Errorw("cannot bind parameter section", "error", err)
				}
				return false
			}
		}
	}
	if err := cfg.Validate(l.name); err != nil {
		if l.logEnabled {
			l.logger.Errorw("rejecting lift parameters", "error", err)
		}
		return false
	}

	// Build the new bindings before discarding the old ones so a failed
	// rebuild cannot leave the lift half wired.
	var newEnc encoder.Encoder
	var newMot motor.Motor
	if cfg.EncoderAChannel >= 0 && cfg.EncoderBChannel >= 0 && l.deps.OpenEncoder != nil {
		e, err := l.deps.OpenEncoder(cfg.EncoderAChannel, cfg.EncoderBChannel)
		if err != nil {
			if l.logEnabled {
				l.logger.Warnw("cannot open encoder", "error", err)
			}
		} else {
			newEnc = e
		}
	}
	if cfg.MotorChannel >= 0 && l.deps.OpenMotor != nil {
		m, err := l.deps.OpenMotor(cfg.MotorChannel)
		if err != nil {
			if l.logEnabled {
				l.logger.Warnw("cannot open lift motor", "error", err)
			}
		} else {
			newMot = m
		}
	}

	l.releaseBindings(context.Background())
	l.cfg = &cfg
	l.enc = newEnc
	l.mot = newMot
	l.encoderEnabled = newEnc != nil
	l.liftEnabled = newMot != nil
	l.lastEncoderCount = 0

	if l.logEnabled {
		l.logger.Debugw("lift parameters loaded",
			"encoder_enabled", l.encoderEnabled,
			"lift_enabled", l.liftEnabled)
	}
	return true
}

func (l *Lift) releaseBindings(ctx context.Context) {
	var err error
	if l.enc != nil {
		err = multierr.Append(err, l.enc.Close(ctx))
	}
	if l.mot != nil {
		err = multierr.Append(err, l.mot.Close(ctx))
	}
	if err != nil && l.logEnabled {
		l.logger.Warnw("error releasing lift hardware", "error", err)
	}
	l.enc = nil
	l.mot = nil
	l.encoderEnabled = false
	l.liftEnabled = false
}

// SetOperatingMode stores the robot mode. A mode transition always stops
// the movement timer, interrupting any in-flight timed movement; callers
// must ResetAndStartTimer before starting a new one. Entering Disabled
// also cuts motor power.
func (l *Lift) SetOperatingMode(mode subsystem.Mode) {
	l.mode = mode
	l.movementTimer.Stop()
	if mode == subsystem.Disabled && l.liftEnabled {
		if err := l.mot.Stop(context.Background()); err != nil && l.logEnabled {
			l.logger.Warnw("cannot stop lift motor", "error", err)
		}
	}
}

// SetLogging toggles telemetry. Logging can only be enabled when a logger
// was created at construction; otherwise enabling is a no-op.
func (l *Lift) SetLogging(enabled bool) {
	if enabled && l.logger != nil {
		l.logEnabled = true
		return
	}
	l.logEnabled = false
}

// SetIgnoreLimits bypasses the encoder travel-limit clamp.
func (l *Lift) SetIgnoreLimits(ignore bool) {
	l.ignoreEncoderLimits = ignore
}

// Enabled reports which capabilities were successfully wired during the
// last parameter load.
func (l *Lift) Enabled() (encoderEnabled, liftEnabled bool) {
	return l.encoderEnabled, l.liftEnabled
}

// Position returns the encoder count cached by the last ReadSensors.
func (l *Lift) Position() int64 {
	return l.lastEncoderCount
}

// ReadSensors caches the current encoder count. Call once per tick before
// any control decision; with the encoder disabled the last known value
// stands.
func (l *Lift) ReadSensors(ctx context.Context) {
	if !l.encoderEnabled {
		return
	}
	count, err := l.enc.Position(ctx)
	if err != nil {
		if l.logEnabled {
			l.logger.Warnw("encoder read failed", "error", err)
		}
		return
	}
	l.lastEncoderCount = count
}

// ResetSensors zeroes the encoder and immediately re-reads it so the
// cached count reflects the post-reset hardware value rather than a stale
// one.
func (l *Lift) ResetSensors(ctx context.Context) error {
	if !l.encoderEnabled {
		return nil
	}
	if err := l.enc.Reset(ctx); err != nil {
		return err
	}
	count, err := l.enc.Position(ctx)
	if err != nil {
		return err
	}
	l.lastEncoderCount = count
	return nil
}

// ResetAndStartTimer restarts the movement timer so elapsed time is
// measured from this exact call, never accumulated from a prior run.
func (l *Lift) ResetAndStartTimer() {
	l.movementTimer.Stop()
	l.movementTimer.Start()
}

// MoveToPosition drives the lift toward an absolute encoder target,
// stepping the speed down as the target approaches. It returns true once
// the lift is within the position tolerance and power has been cut, or
// immediately when the lift cannot sense or actuate.
func (l *Lift) MoveToPosition(ctx context.Context, target int64) bool {
	if !l.liftEnabled || !l.encoderEnabled {
		return true
	}
	delta := target - l.lastEncoderCount
	remaining := delta
	if remaining < 0 {
		remaining = -remaining
	}
	ratio, atTarget := stagedSpeedRatio(remaining, 0, l.cfg)
	if atTarget {
		l.stopMotor(ctx)
		l.movementTimer.Stop()
		return true
	}
	direction := l.cfg.UpDirection
	if delta < 0 {
		direction = l.cfg.DownDirection
	}
	l.drive(ctx, direction*ratio)
	return false
}

// MoveForTime drives the lift in a fixed direction against a time budget,
// stepping the speed down as the budget runs out. ResetAndStartTimer must
// be called once when the movement begins. Returns true when the budget
// (less the stop tolerance) has elapsed and power has been cut.
func (l *Lift) MoveForTime(ctx context.Context, d time.Duration, direction subsystem.Direction, speed float64) bool {
	if !l.liftEnabled {
		return true
	}
	timeLeft := d - l.movementTimer.Elapsed()
	ratio, done := stagedSpeedRatio(0, timeLeft, l.cfg)
	if done || timeLeft <= 0 {
		l.stopMotor(ctx)
		l.movementTimer.Stop()
		return true
	}
	if speed < 0 {
		speed = -speed
	}
	var power float64
	switch direction {
	case subsystem.Up:
		power = l.cfg.UpDirection * speed * ratio
	case subsystem.Down:
		power = l.cfg.DownDirection * speed * ratio
	default:
		l.stopMotor(ctx)
		l.movementTimer.Stop()
		return true
	}
	l.drive(ctx, power)
	return false
}

// Move manually drives the lift during teleop. The commanded speed is
// scaled by the configured ratio for the direction and clamped to [-1, 1].
func (l *Lift) Move(ctx context.Context, direction subsystem.Direction, speed float64) {
	if !l.liftEnabled {
		return
	}
	if speed < 0 {
		speed = -speed
	}
	var power float64
	switch direction {
	case subsystem.Up:
		power = l.cfg.UpDirection * speed * l.cfg.UpSpeedRatio
	case subsystem.Down:
		power = l.cfg.DownDirection * speed * l.cfg.DownSpeedRatio
	case subsystem.Stop:
	default:
		return
	}
	l.drive(ctx, power)
}

// SetManualSpeed maps a signed operator input onto lift power: positive
// input raises, negative lowers, magnitude scales the configured ratio.
func (l *Lift) SetManualSpeed(ctx context.Context, input float64) {
	switch {
	case input > 0:
		l.Move(ctx, subsystem.Up, input)
	case input < 0:
		l.Move(ctx, subsystem.Down, -input)
	default:
		l.Move(ctx, subsystem.Stop, 0)
	}
}

// drive applies the travel-limit clamp and forwards the power command to
// the motor binding.
func (l *Lift) drive(ctx context.Context, power float64) {
	power = motor.ClampPower(power)
	if l.encoderEnabled && !l.ignoreEncoderLimits {
		power = clampToTravelLimits(power, l.lastEncoderCount, l.cfg)
	}
	if err := l.mot.SetPower(ctx, power); err != nil && l.logEnabled {
		l.logger.Warnw("lift motor command failed", "error", err)
	}
}

func (l *Lift) stopMotor(ctx context.Context) {
	if err := l.mot.Stop(ctx); err != nil && l.logEnabled {
		l.logger.Warnw("cannot stop lift motor", "error", err)
	}
}

// Close releases the lift's hardware bindings. Safe to call repeatedly;
// calls after the first have no additional effect.
func (l *Lift) Close(ctx context.Context) error {
	var err error
	if l.enc != nil {
		err = multierr.Append(err, l.enc.Close(ctx))
	}
	if l.mot != nil {
		err = multierr.Append(err, l.mot.Close(ctx))
	}
	l.enc = nil
	l.mot = nil
	l.encoderEnabled = false
	l.liftEnabled = false
	l.movementTimer.Stop()
	return err
}

var _ subsystem.Subsystem = &Lift{}
