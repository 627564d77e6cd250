package lift

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"github.com/hangar84/robolift/components/encoder"
	fakeencoder "github.com/hangar84/robolift/components/encoder/fake"
	"github.com/hangar84/robolift/components/motor"
	fakemotor "github.com/hangar84/robolift/components/motor/fake"
	"github.com/hangar84/robolift/components/subsystem"
	"github.com/hangar84/robolift/config"
	"github.com/hangar84/robolift/logging"
)

type testRig struct {
	lift *Lift
	enc  *fakeencoder.Encoder
	mot  *fakemotor.Motor
	mock *clock.Mock
}

func liftSection(overrides config.AttributeMap) *config.Params {
	section := config.AttributeMap{
		"motor_channel":     3,
		"encoder_a_channel": 1,
		"encoder_b_channel": 2,

		"auto_near_speed_ratio":   0.5,
		"auto_medium_speed_ratio": 0.75,
		"auto_far_speed_ratio":    1.0,
	}
	for k, v := range overrides {
		section[k] = v
	}
	return config.FromSections(map[string]config.AttributeMap{"lift": section})
}

func makeLift(t *testing.T, params *config.Params) *testRig {
	t.Helper()
	rig := &testRig{
		enc:  fakeencoder.New(),
		mot:  fakemotor.New(),
		mock: clock.NewMock(),
	}
	rig.lift = New(params, "lift", Deps{
		OpenEncoder: func(a, b int) (encoder.Encoder, error) { return rig.enc, nil },
		OpenMotor:   func(channel int) (motor.Motor, error) { return rig.mot, nil },
		Clock:       rig.mock,
	}, logging.NewTestLogger(t), true)
	return rig
}

func TestConstructionWithoutChannels(t *testing.T) {
	ctx := context.Background()
	params := config.FromSections(map[string]config.AttributeMap{})

	l := New(params, "lift", Deps{}, logging.NewTestLogger(t), true)
	encoderEnabled, liftEnabled := l.Enabled()
	test.That(t, encoderEnabled, test.ShouldBeFalse)
	test.That(t, liftEnabled, test.ShouldBeFalse)

	// every control call is a safe no-op in degraded mode
	l.ReadSensors(ctx)
	test.That(t, l.ResetSensors(ctx), test.ShouldBeNil)
	test.That(t, l.MoveToPosition(ctx, 500), test.ShouldBeTrue)
	test.That(t, l.MoveForTime(ctx, time.Second, subsystem.Up, 1.0), test.ShouldBeTrue)
	l.Move(ctx, subsystem.Up, 1.0)
	l.SetManualSpeed(ctx, 0.5)
	test.That(t, l.Close(ctx), test.ShouldBeNil)
}

func TestLoadRejectsBadThresholdOrdering(t *testing.T) {
	rig := makeLift(t, liftSection(nil))

	encoderEnabled, liftEnabled := rig.lift.Enabled()
	test.That(t, encoderEnabled, test.ShouldBeTrue)
	test.That(t, liftEnabled, test.ShouldBeTrue)
	goodCfg := *rig.lift.cfg

	// an ordering violation fails the load and leaves prior state alone
	rig.lift.params = liftSection(config.AttributeMap{
		"encoder_threshold":             50,
		"auto_medium_encoder_threshold": 50,
		"auto_far_encoder_threshold":    100,
	})
	test.That(t, rig.lift.LoadParameters(), test.ShouldBeFalse)
	test.That(t, *rig.lift.cfg, test.ShouldResemble, goodCfg)
	encoderEnabled, liftEnabled = rig.lift.Enabled()
	test.That(t, encoderEnabled, test.ShouldBeTrue)
	test.That(t, liftEnabled, test.ShouldBeTrue)
}

func TestLoadRejectsBadTimeOrderingAndLimits(t *testing.T) {
	rig := makeLift(t, liftSection(nil))

	rig.lift.params = liftSection(config.AttributeMap{
		"time_threshold":             1.0,
		"auto_medium_time_threshold": 0.5,
	})
	test.That(t, rig.lift.LoadParameters(), test.ShouldBeFalse)

	rig.lift.params = liftSection(config.AttributeMap{
		"encoder_min_limit": 10000,
		"encoder_max_limit": 0,
	})
	test.That(t, rig.lift.LoadParameters(), test.ShouldBeFalse)

	rig.lift.params = liftSection(config.AttributeMap{
		"up_speed_ratio": 1.5,
	})
	test.That(t, rig.lift.LoadParameters(), test.ShouldBeFalse)
}

func TestLoadDegradesWhenBindingFails(t *testing.T) {
	mot := fakemotor.New()
	l := New(liftSection(nil), "lift", Deps{
		OpenEncoder: func(a, b int) (encoder.Encoder, error) {
			return nil, errors.New("no such channel")
		},
		OpenMotor: func(channel int) (motor.Motor, error) { return mot, nil },
	}, logging.NewTestLogger(t), true)

	// load completes; the encoder capability alone is disabled
	encoderEnabled, liftEnabled := l.Enabled()
	test.That(t, encoderEnabled, test.ShouldBeFalse)
	test.That(t, liftEnabled, test.ShouldBeTrue)
}

func TestResetSensors(t *testing.T) {
	ctx := context.Background()
	rig := makeLift(t, liftSection(nil))

	rig.enc.SetPosition(4321)
	rig.lift.ReadSensors(ctx)
	test.That(t, rig.lift.Position(), test.ShouldEqual, 4321)

	test.That(t, rig.lift.ResetSensors(ctx), test.ShouldBeNil)
	rig.lift.ReadSensors(ctx)
	test.That(t, rig.lift.Position(), test.ShouldEqual, 0)
}

func TestSetOperatingModeStopsTimer(t *testing.T) {
	rig := makeLift(t, liftSection(nil))

	// stopping an already stopped timer must not error
	rig.lift.SetOperatingMode(subsystem.Teleop)

	rig.lift.ResetAndStartTimer()
	rig.mock.Add(2 * time.Second)
	rig.lift.SetOperatingMode(subsystem.Autonomous)
	frozen := rig.lift.movementTimer.Elapsed()
	rig.mock.Add(time.Second)
	test.That(t, rig.lift.movementTimer.Elapsed(), test.ShouldEqual, frozen)

	// a fresh run measures from the reset call, never accumulated
	rig.lift.ResetAndStartTimer()
	test.That(t, rig.lift.movementTimer.Elapsed(), test.ShouldEqual, time.Duration(0))
}

func TestMoveToPositionStages(t *testing.T) {
	ctx := context.Background()
	rig := makeLift(t, liftSection(nil))

	rig.enc.SetPosition(0)
	rig.lift.ReadSensors(ctx)
	rig.lift.ResetAndStartTimer()

	// far from target: full ratio upward
	done := rig.lift.MoveToPosition(ctx, 500)
	test.That(t, done, test.ShouldBeFalse)
	test.That(t, rig.mot.PowerPct(), test.ShouldEqual, 1.0)

	// medium range
	rig.enc.SetPosition(440)
	rig.lift.ReadSensors(ctx)
	done = rig.lift.MoveToPosition(ctx, 500)
	test.That(t, done, test.ShouldBeFalse)
	test.That(t, rig.mot.PowerPct(), test.ShouldEqual, 0.75)

	// near range
	rig.enc.SetPosition(480)
	rig.lift.ReadSensors(ctx)
	done = rig.lift.MoveToPosition(ctx, 500)
	test.That(t, done, test.ShouldBeFalse)
	test.That(t, rig.mot.PowerPct(), test.ShouldEqual, 0.5)

	// within tolerance: power cut, movement complete
	rig.enc.SetPosition(495)
	rig.lift.ReadSensors(ctx)
	done = rig.lift.MoveToPosition(ctx, 500)
	test.That(t, done, test.ShouldBeTrue)
	powered, powerPct := rig.mot.IsPowered()
	test.That(t, powered, test.ShouldBeFalse)
	test.That(t, powerPct, test.ShouldEqual, 0)
	test.That(t, rig.lift.movementTimer.Running(), test.ShouldBeFalse)
}

func TestMoveToPositionDownward(t *testing.T) {
	ctx := context.Background()
	rig := makeLift(t, liftSection(nil))

	rig.enc.SetPosition(5000)
	rig.lift.ReadSensors(ctx)
	done := rig.lift.MoveToPosition(ctx, 4000)
	test.That(t, done, test.ShouldBeFalse)
	test.That(t, rig.mot.PowerPct(), test.ShouldEqual, -1.0)
	test.That(t, rig.mot.DirectionMoving(), test.ShouldEqual, -1)
}

func TestMoveForTimeStages(t *testing.T) {
	ctx := context.Background()
	rig := makeLift(t, liftSection(nil))

	rig.enc.SetPosition(5000)
	rig.lift.ReadSensors(ctx)
	rig.lift.ResetAndStartTimer()

	// whole budget left: far stage
	done := rig.lift.MoveForTime(ctx, 2*time.Second, subsystem.Up, 1.0)
	test.That(t, done, test.ShouldBeFalse)
	test.That(t, rig.mot.PowerPct(), test.ShouldEqual, 1.0)

	// budget nearly spent: near stage
	rig.mock.Add(1700 * time.Millisecond)
	done = rig.lift.MoveForTime(ctx, 2*time.Second, subsystem.Up, 1.0)
	test.That(t, done, test.ShouldBeFalse)
	test.That(t, rig.mot.PowerPct(), test.ShouldEqual, 0.5)

	// inside the stop tolerance: done, power cut
	rig.mock.Add(250 * time.Millisecond)
	done = rig.lift.MoveForTime(ctx, 2*time.Second, subsystem.Up, 1.0)
	test.That(t, done, test.ShouldBeTrue)
	test.That(t, rig.mot.PowerPct(), test.ShouldEqual, 0)
}

func TestTravelLimitClamp(t *testing.T) {
	ctx := context.Background()
	rig := makeLift(t, liftSection(nil))

	rig.enc.SetPosition(9995)
	rig.lift.ReadSensors(ctx)

	rig.lift.Move(ctx, subsystem.Up, 1.0)
	test.That(t, rig.mot.PowerPct(), test.ShouldEqual, 0)

	// downward motion away from the limit still works
	rig.lift.Move(ctx, subsystem.Down, 1.0)
	test.That(t, rig.mot.PowerPct(), test.ShouldEqual, -1.0)

	// the escape hatch bypasses the clamp
	rig.lift.SetIgnoreLimits(true)
	rig.lift.Move(ctx, subsystem.Up, 1.0)
	test.That(t, rig.mot.PowerPct(), test.ShouldEqual, 1.0)
}

func TestManualSpeedMapping(t *testing.T) {
	ctx := context.Background()
	rig := makeLift(t, liftSection(config.AttributeMap{
		"up_speed_ratio":   0.8,
		"down_speed_ratio": 0.6,
	}))

	rig.enc.SetPosition(5000)
	rig.lift.ReadSensors(ctx)

	rig.lift.SetManualSpeed(ctx, 0.5)
	test.That(t, rig.mot.PowerPct(), test.ShouldAlmostEqual, 0.4)

	rig.lift.SetManualSpeed(ctx, -0.5)
	test.That(t, rig.mot.PowerPct(), test.ShouldAlmostEqual, -0.3)

	rig.lift.SetManualSpeed(ctx, 0)
	test.That(t, rig.mot.PowerPct(), test.ShouldEqual, 0)
}

func TestSetLoggingWithoutLogger(t *testing.T) {
	l := New(liftSection(nil), "lift", Deps{}, nil, true)
	test.That(t, l.logEnabled, test.ShouldBeFalse)

	// enabling without a logger stays disabled
	l.SetLogging(true)
	test.That(t, l.logEnabled, test.ShouldBeFalse)
}

func TestCloseIdempotent(t *testing.T) {
	ctx := context.Background()
	rig := makeLift(t, liftSection(nil))

	test.That(t, rig.lift.Close(ctx), test.ShouldBeNil)
	encoderEnabled, liftEnabled := rig.lift.Enabled()
	test.That(t, encoderEnabled, test.ShouldBeFalse)
	test.That(t, liftEnabled, test.ShouldBeFalse)

	test.That(t, rig.lift.Close(ctx), test.ShouldBeNil)

	// control calls after dispose are safe no-ops
	rig.lift.ReadSensors(ctx)
	test.That(t, rig.lift.MoveToPosition(ctx, 100), test.ShouldBeTrue)
	rig.lift.Move(ctx, subsystem.Up, 1.0)
}
