package robot

import (
	"context"
	"fmt"
	"math"
	"sync"
)

// Arm owns the actuator handle and the last commanded angle of every joint.
// The commanded angles are the only record of where the joints are; the
// servos report nothing back.
type Arm struct {
	act Actuator

	mu      sync.RWMutex
	current Positions
}

// NewArm wraps an actuator. initial seeds the commanded angles; joints
// missing from it, or seeded with a non-finite angle, start at
// HomePositions. Seeds outside ServoRange are clamped into it so the first
// move can always leave the seed.
func NewArm(act Actuator, initial Positions) *Arm {
	current := HomePositions()
	for j, v := range initial {
		if !j.Valid() || math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		current[j] = ServoRange.Clamp(v)
	}
	return &Arm{act: act, current: current}
}

// Current returns the last commanded angle of j.
func (a *Arm) Current(j Joint) (float64, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	v, ok := a.current[j]
	return v, ok
}

// Snapshot returns a copy of all commanded angles.
func (a *Arm) Snapshot() Positions {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.current.Clone()
}

// JointAngles returns the commanded angles paired with the servo range.
func (a *Arm) JointAngles() []JointAngle {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]JointAngle, 0, NumJoints)
	for _, j := range AllJoints() {
		out = append(out, JointAngle{ID: j, Current: a.current[j], Min: ServoMin, Max: ServoMax})
	}
	return out
}

// Command sends one absolute angle to the actuator and records it as the
// joint's position once the write succeeds. Commands outside the servo range
// never reach the hardware.
func (a *Arm) Command(ctx context.Context, j Joint, deg float64) error {
	if !j.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownJoint, int(j))
	}
	if err := ServoRange.Check(j, deg); err != nil {
		return err
	}
	if err := a.act.SetAngle(ctx, j, deg); err != nil {
		return fmt.Errorf("set %s to %.2f: %w", j, deg, err)
	}
	a.mu.Lock()
	a.current[j] = deg
	a.mu.Unlock()
	return nil
}

// Enable turns on torque if the actuator supports it.
func (a *Arm) Enable(ctx context.Context) error {
	if e, ok := a.act.(Enabler); ok {
		return e.Enable(ctx)
	}
	return nil
}

// Disable turns off torque if the actuator supports it.
func (a *Arm) Disable(ctx context.Context) error {
	if e, ok := a.act.(Enabler); ok {
		return e.Disable(ctx)
	}
	return nil
}

// Close releases the actuator.
func (a *Arm) Close() error {
	return a.act.Close()
}
