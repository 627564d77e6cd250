package lift

import (
	"github.com/pkg/errors"
	goutils "go.viam.com/utils"
)

// Config holds the tunable parameters for a lift, loaded from one section
// of the robot parameter file. Channel identifiers below zero mean the
// hardware is not wired.
type Config struct {
	MotorChannel    int `mapstructure:"motor_channel"`
	EncoderAChannel int `mapstructure:"encoder_a_channel"`
	EncoderBChannel int `mapstructure:"encoder_b_channel"`

	EncoderThreshold           int `mapstructure:"encoder_threshold"`
	AutoMediumEncoderThreshold int `mapstructure:"auto_medium_encoder_threshold"`
	AutoFarEncoderThreshold    int `mapstructure:"auto_far_encoder_threshold"`
	EncoderMinLimit            int `mapstructure:"encoder_min_limit"`
	EncoderMaxLimit            int `mapstructure:"encoder_max_limit"`

	TimeThreshold           float64 `mapstructure:"time_threshold"`
	AutoMediumTimeThreshold float64 `mapstructure:"auto_medium_time_threshold"`
	AutoFarTimeThreshold    float64 `mapstructure:"auto_far_time_threshold"`

	AutoNearSpeedRatio   float64 `mapstructure:"auto_near_speed_ratio"`
	AutoMediumSpeedRatio float64 `mapstructure:"auto_medium_speed_ratio"`
	AutoFarSpeedRatio    float64 `mapstructure:"auto_far_speed_ratio"`

	UpDirection   float64 `mapstructure:"up_direction"`
	DownDirection float64 `mapstructure:"down_direction"`

	UpSpeedRatio   float64 `mapstructure:"up_speed_ratio"`
	DownSpeedRatio float64 `mapstructure:"down_speed_ratio"`
}

// DefaultConfig returns the values used for keys missing from the
// parameter section. Channels default to "not wired".
func DefaultConfig() Config {
	return Config{
		MotorChannel:    -1,
		EncoderAChannel: -1,
		EncoderBChannel: -1,

		EncoderThreshold:           10,
		AutoMediumEncoderThreshold: 50,
		AutoFarEncoderThreshold:    100,
		EncoderMinLimit:            0,
		EncoderMaxLimit:            10000,

		TimeThreshold:           0.1,
		AutoMediumTimeThreshold: 0.5,
		AutoFarTimeThreshold:    1.0,

		AutoNearSpeedRatio:   1.0,
		AutoMediumSpeedRatio: 1.0,
		AutoFarSpeedRatio:    1.0,

		UpDirection:   1.0,
		DownDirection: -1.0,

		UpSpeedRatio:   1.0,
		DownSpeedRatio: 1.0,
	}
}

// Validate ensures the staged thresholds and travel limits are coherent.
// A config that fails validation is rejected as a whole; the lift keeps
// running on its last-known-good parameters.
func (cfg *Config) Validate(path string) error {
	if cfg.EncoderThreshold < 0 || cfg.TimeThreshold < 0 {
		return goutils.NewConfigValidationError(path,
			errors.New("thresholds must be non-negative"))
	}
	if cfg.EncoderThreshold >= cfg.AutoMediumEncoderThreshold ||
		cfg.AutoMediumEncoderThreshold >= cfg.AutoFarEncoderThreshold {
		return goutils.NewConfigValidationError(path, errors.Errorf(
			"encoder thresholds must be strictly increasing, have %d, %d, %d",
			cfg.EncoderThreshold, cfg.AutoMediumEncoderThreshold, cfg.AutoFarEncoderThreshold))
	}
	if cfg.TimeThreshold >= cfg.AutoMediumTimeThreshold ||
		cfg.AutoMediumTimeThreshold >= cfg.AutoFarTimeThreshold {
		return goutils.NewConfigValidationError(path, errors.Errorf(
			"time thresholds must be strictly increasing, have %.2f, %.2f, %.2f",
			cfg.TimeThreshold, cfg.AutoMediumTimeThreshold, cfg.AutoFarTimeThreshold))
	}
	if cfg.EncoderMinLimit >= cfg.EncoderMaxLimit {
		return goutils.NewConfigValidationError(path, errors.Errorf(
			"encoder travel limits are inverted, have [%d, %d]",
			cfg.EncoderMinLimit, cfg.EncoderMaxLimit))
	}
	for _, ratio := range []struct {
		name  string
		value float64
	}{
		{"auto_near_speed_ratio", cfg.AutoNearSpeedRatio},
		{"auto_medium_speed_ratio", cfg.AutoMediumSpeedRatio},
		{"auto_far_speed_ratio", cfg.AutoFarSpeedRatio},
		{"up_speed_ratio", cfg.UpSpeedRatio},
		{"down_speed_ratio", cfg.DownSpeedRatio},
	} {
		if ratio.value <= 0 || ratio.value > 1 {
			return goutils.NewConfigValidationError(path, errors.Errorf(
				"%s must be in (0, 1], have %.2f", ratio.name, ratio.value))
		}
	}
	if cfg.UpDirection == 0 || cfg.DownDirection == 0 {
		return goutils.NewConfigValidationError(path,
			errors.New("direction constants must be non-zero"))
	}
	return nil
}
