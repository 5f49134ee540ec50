package robot

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownJoint is returned for joint ids outside Base..Gripper.
	ErrUnknownJoint = errors.New("unknown joint")
	// ErrAngleOutOfRange is returned for targets outside a joint's bounds.
	ErrAngleOutOfRange = errors.New("angle out of range")
)

// Actuator range shared by every servo channel.
const (
	ServoMin = 0.0
	ServoMax = 180.0
)

// Limits is a closed interval of allowed angles in degrees.
type Limits struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains reports whether deg lies within l.
func (l Limits) Contains(deg float64) bool {
	return deg >= l.Min && deg <= l.Max
}

// Clamp restricts deg to l.
func (l Limits) Clamp(deg float64) float64 {
	if deg < l.Min {
		return l.Min
	}
	if deg > l.Max {
		return l.Max
	}
	return deg
}

// Check returns ErrAngleOutOfRange if deg is outside l.
func (l Limits) Check(j Joint, deg float64) error {
	if !l.Contains(deg) {
		return fmt.Errorf("%w: %s target %.2f not in [%.0f, %.0f]", ErrAngleOutOfRange, j, deg, l.Min, l.Max)
	}
	return nil
}

// ServoRange is the range every actuator command must fall in.
var ServoRange = Limits{Min: ServoMin, Max: ServoMax}

// AngleLimits holds per-joint bounds.
type AngleLimits map[Joint]Limits

// StaticLimits returns the fixed bounds used in manual control.
func StaticLimits() AngleLimits {
	return AngleLimits{
		Base:     {Min: 0, Max: 180},
		Shoulder: {Min: 0, Max: 120},
		Elbow:    {Min: 60, Max: 180},
		Wrist:    {Min: 0, Max: 90},
		Gripper:  {Min: 90, Max: 148},
	}
}

// ShoulderLimitsFor returns the shoulder bounds for a given elbow angle.
// A raised elbow keeps the forearm clear of the ground, so the shoulder may
// swing further.
func ShoulderLimitsFor(elbow float64) Limits {
	if elbow > 100 {
		return Limits{Min: ServoMin, Max: 150}
	}
	return Limits{Min: ServoMin, Max: 120}
}

// ElbowLimitsFor returns the elbow bounds for a given shoulder angle.
//
// TODO: both branches use a 60° floor; measure a tighter floor for shoulder
// angles below 60° on hardware before changing it.
func ElbowLimitsFor(shoulder float64) Limits {
	if shoulder < 60 {
		return Limits{Min: 60, Max: 180}
	}
	return Limits{Min: 60, Max: 180}
}

// CoupledLimits recomputes the manual-control bounds from the live joint
// positions. Shoulder and elbow bounds depend on each other; the rest are
// static.
func CoupledLimits(p Positions) AngleLimits {
	l := StaticLimits()
	l[Shoulder] = ShoulderLimitsFor(p[Elbow])
	l[Elbow] = ElbowLimitsFor(p[Shoulder])
	return l
}
