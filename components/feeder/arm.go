// Package feeder implements the paired spinning arms that pull game
// objects into the robot.
package feeder

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	goutils "go.viam.com/utils"

	"github.com/hangar84/robolift/components/motor"
	"github.com/hangar84/robolift/components/subsystem"
	"github.com/hangar84/robolift/config"
	"github.com/hangar84/robolift/logging"
	"github.com/hangar84/robolift/utils"
)

// Deps supplies the hardware binding constructor for a feeder arm.
type Deps struct {
	OpenMotor func(channel int) (motor.Motor, error)

	// Clock backs the movement timer; nil means the wall clock.
	Clock clock.Clock
}

// ArmConfig holds the tunable parameters for one feeder arm.
type ArmConfig struct {
	MotorChannel int `mapstructure:"motor_channel"`

	TimeThreshold float64 `mapstructure:"time_threshold"`

	ClockwiseDirection        float64 `mapstructure:"clockwise_direction"`
	CounterClockwiseDirection float64 `mapstructure:"counter_clockwise_direction"`

	ClockwiseSpeedRatio        float64 `mapstructure:"clockwise_speed_ratio"`
	CounterClockwiseSpeedRatio float64 `mapstructure:"counter_clockwise_speed_ratio"`
}

// DefaultArmConfig returns the values used for keys missing from the
// parameter section.
func DefaultArmConfig() ArmConfig {
	return ArmConfig{
		MotorChannel:               -1,
		TimeThreshold:              0.1,
		ClockwiseDirection:         1.0,
		CounterClockwiseDirection:  -1.0,
		ClockwiseSpeedRatio:        1.0,
		CounterClockwiseSpeedRatio: 1.0,
	}
}

// Validate ensures the arm parameters are coherent.
func (cfg *ArmConfig) Validate(path string) error {
	if cfg.TimeThreshold < 0 {
		return goutils.NewConfigValidationError(path,
			errors.New("time_threshold must be non-negative"))
	}
	if cfg.ClockwiseSpeedRatio <= 0 || cfg.ClockwiseSpeedRatio > 1 ||
		cfg.CounterClockwiseSpeedRatio <= 0 || cfg.CounterClockwiseSpeedRatio > 1 {
		return goutils.NewConfigValidationError(path,
			errors.New("speed ratios must be in (0, 1]"))
	}
	if cfg.ClockwiseDirection == 0 || cfg.CounterClockwiseDirection == 0 {
		return goutils.NewConfigValidationError(path,
			errors.New("direction constants must be non-zero"))
	}
	return nil
}

// Arm is one spinning feeder arm. Like the lift, an arm is driven by the
// single outer sampling loop and is not safe for concurrent use.
type Arm struct {
	name   string
	deps   Deps
	params *config.Params

	logger     logging.Logger
	logEnabled bool

	cfg *ArmConfig

	mot        motor.Motor
	armEnabled bool

	mode          subsystem.Mode
	movementTimer *utils.Stopwatch
}

// NewArm constructs an arm bound to a parameter section and runs the
// initial parameter load. Construction never fails; an unwired motor
// leaves the arm disabled.
func NewArm(params *config.Params, section string, deps Deps, logger logging.Logger, loggingEnabled bool) *Arm {
	clk := deps.Clock
	if clk == nil {
		clk = clock.New()
	}
	a := &Arm{
		name:          section,
		deps:          deps,
		params:        params,
		mode:          subsystem.Disabled,
		movementTimer: utils.NewStopwatchWithClock(clk),
	}
	if loggingEnabled && logger != nil {
		a.logger = logger.Named(section)
		a.logEnabled = true
	}
	a.LoadParameters()
	return a
}

// Name returns the parameter section this arm was constructed with.
func (a *Arm) Name() string {
	return a.name
}

// Enabled reports whether the arm's motor was wired during the last load.
func (a *Arm) Enabled() bool {
	return a.armEnabled
}

// LoadParameters re-reads the arm's parameter section and rebuilds the
// motor binding. Validation failure keeps the previous configuration and
// returns false; an absent motor channel is a degraded state, not a
// failure.
func (a *Arm) LoadParameters() bool {
	cfg := DefaultArmConfig()
	if a.params != nil {
		if section, ok := a.params.Section(a.name); ok {
			if err := config.BindSection(section, &cfg); err != nil {
				if a.logEnabled {
					a.logger.Errorw("cannot bind parameter section", "error", err)
				}
				return false
			}
		}
	}
	if err := cfg.Validate(a.name); err != nil {
		if a.logEnabled {
			a.logger.Errorw("rejecting arm parameters", "error", err)
		}
		return false
	}

	var newMot motor.Motor
	if cfg.MotorChannel >= 0 && a.deps.OpenMotor != nil {
		m, err := a.deps.OpenMotor(cfg.MotorChannel)
		if err != nil {
			if a.logEnabled {
				a.logger.Warnw("cannot open arm motor", "error", err)
			}
		} else {
			newMot = m
		}
	}

	if a.mot != nil {
		if err := a.mot.Close(context.Background()); err != nil && a.logEnabled {
			a.logger.Warnw("error releasing arm motor", "error", err)
		}
	}
	a.cfg = &cfg
	a.mot = newMot
	a.armEnabled = newMot != nil

	if a.logEnabled {
		a.logger.Debugw("arm parameters loaded", "arm_enabled", a.armEnabled)
	}
	return true
}

// SetOperatingMode stores the robot mode and stops the movement timer.
func (a *Arm) SetOperatingMode(mode subsystem.Mode) {
	a.mode = mode
	a.movementTimer.Stop()
}

// SetLogging toggles telemetry, if a logger exists.
func (a *Arm) SetLogging(enabled bool) {
	if enabled && a.logger != nil {
		a.logEnabled = true
		return
	}
	a.logEnabled = false
}

// ReadSensors is a no-op; arms carry no sensors.
func (a *Arm) ReadSensors(ctx context.Context) {}

// ResetSensors is a no-op; arms carry no sensors.
func (a *Arm) ResetSensors(ctx context.Context) error {
	return nil
}

// ResetAndStartTimer restarts the timer for a timed spin.
func (a *Arm) ResetAndStartTimer() {
	a.movementTimer.Stop()
	a.movementTimer.Start()
}

// Spin runs the arm wheel in the given rotational direction at the given
// speed, scaled by the configured ratio.
func (a *Arm) Spin(ctx context.Context, direction subsystem.Direction, speed float64) {
	if !a.armEnabled {
		return
	}
	if speed < 0 {
		speed = -speed
	}
	var power float64
	switch direction {
	case subsystem.Clockwise:
		power = a.cfg.ClockwiseDirection * speed * a.cfg.ClockwiseSpeedRatio
	case subsystem.CounterClockwise:
		power = a.cfg.CounterClockwiseDirection * speed * a.cfg.CounterClockwiseSpeedRatio
	case subsystem.Stop:
	default:
		return
	}
	if err := a.mot.SetPower(ctx, motor.ClampPower(power)); err != nil && a.logEnabled {
		a.logger.Warnw("arm motor command failed", "error", err)
	}
}

// SpinFor spins the wheel against a time budget, reporting true when the
// budget (less the stop tolerance) has elapsed and power has been cut.
// ResetAndStartTimer must be called once when the movement begins.
func (a *Arm) SpinFor(ctx context.Context, d time.Duration, direction subsystem.Direction, speed float64) bool {
	if !a.armEnabled {
		return true
	}
	timeLeft := d - a.movementTimer.Elapsed()
	if timeLeft.Seconds() < a.cfg.TimeThreshold || timeLeft < 0 {
		if err := a.mot.Stop(ctx); err != nil && a.logEnabled {
			a.logger.Warnw("cannot stop arm motor", "error", err)
		}
		a.movementTimer.Stop()
		return true
	}
	a.Spin(ctx, direction, speed)
	return false
}

// Close releases the arm's motor binding. Safe to call repeatedly.
func (a *Arm) Close(ctx context.Context) error {
	var err error
	if a.mot != nil {
		err = a.mot.Close(ctx)
	}
	a.mot = nil
	a.armEnabled = false
	a.movementTimer.Stop()
	return err
}

var _ subsystem.Subsystem = &Arm{}
