package domain

import (
	"fmt"
	"math"
	"time"
)

// Volume uses the audio server's linear scale where VolumeNorm is 100%.
type Volume uint32

const (
	VolumeMuted Volume = 0
	VolumeNorm  Volume = 0x10000
)

// VolumePercent returns p percent of VolumeNorm, clamped to 0..100.
func VolumePercent(p int) Volume {
	if p <= 0 {
		return VolumeMuted
	}
	if p >= 100 {
		return VolumeNorm
	}
	return VolumeNorm * Volume(p) / 100
}

type RampCurve int

const (
	RampLinear RampCurve = iota
	RampLogarithmic
	RampCubic
)

func (c RampCurve) String() string {
	switch c {
	case RampLogarithmic:
		return "logarithmic"
	case RampCubic:
		return "cubic"
	default:
		return "linear"
	}
}

// ParseRampCurve maps a configured curve name to its RampCurve.
func ParseRampCurve(s string) (RampCurve, error) {
	switch s {
	case "", "linear":
		return RampLinear, nil
	case "logarithmic":
		return RampLogarithmic, nil
	case "cubic":
		return RampCubic, nil
	}
	return RampLinear, fmt.Errorf("unknown ramp curve %q", s)
}

// Progress maps the elapsed fraction f of a ramp to the fraction of the
// volume change applied so far. Both ends are fixed at 0 and 1.
func (c RampCurve) Progress(f float64) float64 {
	switch {
	case f <= 0:
		return 0
	case f >= 1:
		return 1
	}
	switch c {
	case RampLogarithmic:
		return math.Log10(1 + 9*f)
	case RampCubic:
		return f * f * f
	default:
		return f
	}
}

// VolumeRamp asks the server to move a stream's volume to Target over Duration.
type VolumeRamp struct {
	Channels int
	Curve    RampCurve
	Duration time.Duration
	Target   Volume
}
