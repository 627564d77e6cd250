package feeder

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"go.viam.com/test"

	"github.com/hangar84/robolift/components/motor"
	fakemotor "github.com/hangar84/robolift/components/motor/fake"
	"github.com/hangar84/robolift/components/subsystem"
	"github.com/hangar84/robolift/config"
	"github.com/hangar84/robolift/logging"
)

func feederParams() *config.Params {
	return config.FromSections(map[string]config.AttributeMap{
		LeftArmSection:  {"motor_channel": 4},
		RightArmSection: {"motor_channel": 5},
	})
}

type feederRig struct {
	feeder *Feeder
	motors map[int]*fakemotor.Motor
	mock   *clock.Mock
}

func makeFeeder(t *testing.T, params *config.Params) *feederRig {
	t.Helper()
	rig := &feederRig{
		motors: map[int]*fakemotor.Motor{},
		mock:   clock.NewMock(),
	}
	rig.feeder = New(params, "feeder", Deps{
		OpenMotor: func(channel int) (motor.Motor, error) {
			m := fakemotor.New()
			rig.motors[channel] = m
			return m, nil
		},
		Clock: rig.mock,
	}, logging.NewTestLogger(t), true)
	return rig
}

func TestFeederRequiresBothArms(t *testing.T) {
	// only the left arm wired: the feeder stays disabled and feeding is
	// a safe no-op
	params := config.FromSections(map[string]config.AttributeMap{
		LeftArmSection: {"motor_channel": 4},
	})
	rig := makeFeeder(t, params)
	test.That(t, rig.feeder.Enabled(), test.ShouldBeFalse)

	rig.feeder.Feed(context.Background(), subsystem.In, 1.0)
	test.That(t, rig.motors[4].PowerPct(), test.ShouldEqual, 0)
}

func TestFeedSpinsArmsOppositeWays(t *testing.T) {
	ctx := context.Background()
	rig := makeFeeder(t, feederParams())
	test.That(t, rig.feeder.Enabled(), test.ShouldBeTrue)

	rig.feeder.Feed(ctx, subsystem.In, 1.0)
	test.That(t, rig.motors[4].PowerPct(), test.ShouldEqual, 1.0)  // left clockwise
	test.That(t, rig.motors[5].PowerPct(), test.ShouldEqual, -1.0) // right counterclockwise

	rig.feeder.Feed(ctx, subsystem.Out, 1.0)
	test.That(t, rig.motors[4].PowerPct(), test.ShouldEqual, -1.0)
	test.That(t, rig.motors[5].PowerPct(), test.ShouldEqual, 1.0)

	rig.feeder.Feed(ctx, subsystem.Stop, 0)
	test.That(t, rig.motors[4].PowerPct(), test.ShouldEqual, 0)
	test.That(t, rig.motors[5].PowerPct(), test.ShouldEqual, 0)
}

func TestFeedForCompletesOnBudget(t *testing.T) {
	ctx := context.Background()
	rig := makeFeeder(t, feederParams())

	rig.feeder.ResetAndStartTimer()
	done := rig.feeder.FeedFor(ctx, time.Second, subsystem.In, 1.0)
	test.That(t, done, test.ShouldBeFalse)
	test.That(t, rig.motors[4].PowerPct(), test.ShouldEqual, 1.0)

	// inside the stop tolerance both arms cut power and report done
	rig.mock.Add(950 * time.Millisecond)
	done = rig.feeder.FeedFor(ctx, time.Second, subsystem.In, 1.0)
	test.That(t, done, test.ShouldBeTrue)
	test.That(t, rig.motors[4].PowerPct(), test.ShouldEqual, 0)
	test.That(t, rig.motors[5].PowerPct(), test.ShouldEqual, 0)
}

func TestArmSpinForAbortsWhenDisabled(t *testing.T) {
	params := config.FromSections(map[string]config.AttributeMap{})
	arm := NewArm(params, LeftArmSection, Deps{}, logging.NewTestLogger(t), true)
	test.That(t, arm.Enabled(), test.ShouldBeFalse)

	done := arm.SpinFor(context.Background(), time.Second, subsystem.Clockwise, 1.0)
	test.That(t, done, test.ShouldBeTrue)
}

func TestArmModeChangeStopsTimer(t *testing.T) {
	mock := clock.NewMock()
	m := fakemotor.New()
	arm := NewArm(feederParams(), LeftArmSection, Deps{
		OpenMotor: func(channel int) (motor.Motor, error) { return m, nil },
		Clock:     mock,
	}, logging.NewTestLogger(t), true)

	arm.ResetAndStartTimer()
	mock.Add(500 * time.Millisecond)
	arm.SetOperatingMode(subsystem.Disabled)
	test.That(t, arm.movementTimer.Running(), test.ShouldBeFalse)
}

func TestFeederCloseIdempotent(t *testing.T) {
	ctx := context.Background()
	rig := makeFeeder(t, feederParams())

	test.That(t, rig.feeder.Close(ctx), test.ShouldBeNil)
	test.That(t, rig.feeder.Enabled(), test.ShouldBeFalse)
	test.That(t, rig.feeder.Close(ctx), test.ShouldBeNil)

	rig.feeder.Feed(ctx, subsystem.In, 1.0)
	test.That(t, rig.feeder.FeedFor(ctx, time.Second, subsystem.In, 1.0), test.ShouldBeTrue)
}
