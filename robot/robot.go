// Package robot runs the outer sampling loop that drives all subsystems.
//
// The loop owns every subsystem call: one tick reads sensors on all
// subsystems, then dispatches exactly one control pass for the current
// operating mode. Parameter hot reloads are applied between ticks on the
// same goroutine, so subsystems never need internal locking.
package robot

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/multierr"

	"github.com/hangar84/robolift/components/feeder"
	"github.com/hangar84/robolift/components/lift"
	"github.com/hangar84/robolift/components/subsystem"
	"github.com/hangar84/robolift/config"
	"github.com/hangar84/robolift/logging"
)

// DefaultTickInterval is the sampling cadence of the control loop.
const DefaultTickInterval = 10 * time.Millisecond

// Input supplies operator commands to the teleop dispatch.
// Implementations wrap the physical driver-station joysticks.
type Input interface {
	// LiftAxis returns the signed lift command in [-1, 1]; positive
	// raises the lift.
	LiftAxis() float64

	// FeedDirection returns In, Out, or Stop.
	FeedDirection() subsystem.Direction
}

// A Step is one autonomous action, ticked until it reports done.
type Step func(ctx context.Context) (done bool)

// Robot owns the subsystems and dispatches one control pass per sampling
// tick. All methods must be called from the single loop goroutine.
type Robot struct {
	logger logging.Logger
	clk    clock.Clock
	tick   time.Duration

	params  *config.Params
	watcher *config.Watcher

	lift       *lift.Lift
	feeder     *feeder.Feeder
	subsystems []subsystem.Subsystem

	mode    subsystem.Mode
	input   Input
	auto    []Step
	autoIdx int
}

// Option configures a Robot.
type Option func(*Robot)

// WithClock substitutes the loop clock, letting tests drive ticks.
func WithClock(clk clock.Clock) Option {
	return func(r *Robot) { r.clk = clk }
}

// WithTickInterval overrides the sampling cadence.
func WithTickInterval(d time.Duration) Option {
	return func(r *Robot) { r.tick = d }
}

// New assembles a robot from its subsystems. Missing subsystems are
// tolerated; the loop simply has less to drive.
func New(params *config.Params, l *lift.Lift, f *feeder.Feeder, input Input, logger logging.Logger, opts ...Option) *Robot {
	r := &Robot{
		logger: logger,
		clk:    clock.New(),
		tick:   DefaultTickInterval,
		params: params,
		lift:   l,
		feeder: f,
		mode:   subsystem.Disabled,
		input:  input,
	}
	if l != nil {
		r.subsystems = append(r.subsystems, l)
	}
	if f != nil {
		r.subsystems = append(r.subsystems, f)
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// WatchParameters starts watching the backing parameter file so edits are
// hot reloaded between ticks. No-op when the params have no backing file.
func (r *Robot) WatchParameters() error {
	if r.params == nil || r.params.Path() == "" {
		return nil
	}
	w, err := config.NewWatcher(r.params.Path(), r.logger)
	if err != nil {
		return err
	}
	r.watcher = w
	return nil
}

// Mode returns the current operating mode.
func (r *Robot) Mode() subsystem.Mode {
	return r.mode
}

// SetMode switches the operating mode and notifies every subsystem,
// interrupting any in-flight timed movement. Re-entering Autonomous
// restarts the step sequence.
func (r *Robot) SetMode(mode subsystem.Mode) {
	r.mode = mode
	for _, s := range r.subsystems {
		s.SetOperatingMode(mode)
	}
	if mode == subsystem.Autonomous {
		r.autoIdx = 0
	}
	if r.logger != nil {
		r.logger.Infow("operating mode set", "mode", mode.String())
	}
}

// SetAutonomousSteps replaces the autonomous step sequence.
func (r *Robot) SetAutonomousSteps(steps ...Step) {
	r.auto = steps
	r.autoIdx = 0
}

// Tick performs one control cycle: pending parameter reloads first, then
// sensors, then exactly one mode dispatch.
func (r *Robot) Tick(ctx context.Context) {
	r.reloadIfChanged()

	for _, s := range r.subsystems {
		s.ReadSensors(ctx)
	}

	switch r.mode {
	case subsystem.Teleop:
		r.tickTeleop(ctx)
	case subsystem.Autonomous:
		r.tickAutonomous(ctx)
	default:
		// keep every actuator stopped while disabled
		if r.lift != nil {
			r.lift.Move(ctx, subsystem.Stop, 0)
		}
		if r.feeder != nil {
			r.feeder.Feed(ctx, subsystem.Stop, 0)
		}
	}
}

func (r *Robot) tickTeleop(ctx context.Context) {
	if r.input == nil {
		return
	}
	if r.lift != nil {
		r.lift.SetManualSpeed(ctx, r.input.LiftAxis())
	}
	if r.feeder != nil {
		r.feeder.Feed(ctx, r.input.FeedDirection(), 1.0)
	}
}

func (r *Robot) tickAutonomous(ctx context.Context) {
	if r.autoIdx >= len(r.auto) {
		return
	}
	if r.auto[r.autoIdx](ctx) {
		r.autoIdx++
	}
}

func (r *Robot) reloadIfChanged() {
	if r.watcher == nil {
		return
	}
	select {
	case <-r.watcher.Events():
	default:
		return
	}
	if err := r.params.Reload(); err != nil {
		if r.logger != nil {
			r.logger.Errorw("parameter reload failed, keeping previous values", "error", err)
		}
		return
	}
	for _, s := range r.subsystems {
		if !s.LoadParameters() {
			if r.logger != nil {
				r.logger.Errorw("subsystem rejected reloaded parameters", "subsystem", s.Name())
			}
		}
	}
}

// Run ticks the control loop at the sampling interval until ctx is done.
func (r *Robot) Run(ctx context.Context) error {
	ticker := r.clk.Ticker(r.tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.Tick(ctx)
		}
	}
}

// Close shuts down the subsystems and the parameter watcher. Safe to call
// repeatedly.
func (r *Robot) Close(ctx context.Context) error {
	var err error
	for _, s := range r.subsystems {
		err = multierr.Append(err, s.Close(ctx))
	}
	if r.watcher != nil {
		err = multierr.Append(err, r.watcher.Close())
		r.watcher = nil
	}
	return err
}
