package lift

import (
	"time"

	"github.com/hangar84/robolift/components/motor"
)

// stagedSpeedRatio selects the speed multiplier for an automated movement
// from two axes: how many encoder ticks remain to the target and how much
// of the movement's time budget remains. The axes are OR-combined within
// each stage, so a movement that is still far from its target or still
// has most of its time budget left stays at the faster stage. Position
// moves pass a zero time budget and are staged by the encoder axis alone;
// timed moves pass a zero tick delta and are staged by time alone.
//
// Returns the selected ratio and whether the movement is complete.
func stagedSpeedRatio(ticksRemaining int64, timeLeft time.Duration, cfg *Config) (float64, bool) {
	timeLeftSecs := timeLeft.Seconds()
	switch {
	case ticksRemaining >= int64(cfg.AutoFarEncoderThreshold) || timeLeftSecs > cfg.AutoFarTimeThreshold:
		return cfg.AutoFarSpeedRatio, false
	case ticksRemaining >= int64(cfg.AutoMediumEncoderThreshold) || timeLeftSecs > cfg.AutoMediumTimeThreshold:
		return cfg.AutoMediumSpeedRatio, false
	case ticksRemaining >= int64(cfg.EncoderThreshold) || timeLeftSecs > cfg.TimeThreshold:
		return cfg.AutoNearSpeedRatio, false
	default:
		return 0, true
	}
}

// clampToTravelLimits zeroes power that would push the axis past its
// admissible encoder range, using the near position tolerance as a soft
// stop margin so the axis stops one tolerance short of the hard limit.
// Applied after stage or manual selection; a disabled encoder or the
// ignore flag bypasses the clamp.
func clampToTravelLimits(power float64, position int64, cfg *Config) float64 {
	// tick direction of travel: positive power on the up direction
	// constant increases the count
	tickDir := motor.GetSign(power) * motor.GetSign(cfg.UpDirection)
	switch {
	case tickDir > 0 && position+int64(cfg.EncoderThreshold) > int64(cfg.EncoderMaxLimit):
		return 0
	case tickDir < 0 && position-int64(cfg.EncoderThreshold) < int64(cfg.EncoderMinLimit):
		return 0
	}
	return power
}
