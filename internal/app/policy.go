package app

import (
	"time"

	"github.com/dkeye/audiopolicy/internal/domain"
)

// RoleAction is what happens to a client while a priority client is active.
type RoleAction int

const (
	NoAction RoleAction = iota
	Duck
	Silence
)

func (a RoleAction) String() string {
	switch a {
	case Duck:
		return "duck"
	case Silence:
		return "silence"
	default:
		return "none"
	}
}

// Policy is the arbitration table between roles.
type Policy interface {
	IsPriority(role domain.Role) bool
	OnPriority(role domain.Role) RoleAction
}

// RolePolicy lets a phone call silence every roled client except other
// phones and the exempt "abstract" role; "navi" is only ducked.
type RolePolicy struct{}

func (RolePolicy) IsPriority(role domain.Role) bool {
	return role.Class() == domain.RoleClassPriority
}

func (RolePolicy) OnPriority(role domain.Role) RoleAction {
	switch role.Class() {
	case domain.RoleClassDuckable:
		return Duck
	case domain.RoleClassOther:
		return Silence
	default:
		return NoAction
	}
}

// Ramps holds the volume ramps requested when ducking and restoring.
type Ramps struct {
	DuckTarget      domain.Volume
	DuckDuration    time.Duration
	RestoreDuration time.Duration
	Curve           domain.RampCurve
}

func DefaultRamps() Ramps {
	return Ramps{
		DuckTarget:      domain.VolumePercent(10),
		DuckDuration:    3 * time.Second,
		RestoreDuration: 5 * time.Second,
		Curve:           domain.RampLinear,
	}
}

func (r Ramps) Duck(channels int) domain.VolumeRamp {
	return domain.VolumeRamp{Channels: channels, Curve: r.Curve, Duration: r.DuckDuration, Target: r.DuckTarget}
}

func (r Ramps) Restore(channels int) domain.VolumeRamp {
	return domain.VolumeRamp{Channels: channels, Curve: r.Curve, Duration: r.RestoreDuration, Target: domain.VolumeNorm}
}
