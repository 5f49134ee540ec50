// Package motion drives joints to target angles in paced single-degree steps
// and plays fixed choreographies built from those moves.
package motion

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/gwillem/pickplace/pkg/robot"
)

// Default pacing of joint moves.
const (
	DefaultStepSize  = 1.0
	DefaultStepDelay = 20 * time.Millisecond
)

// Timing controls how joint moves are paced.
type Timing struct {
	StepSize  float64       `json:"step_size"`
	StepDelay time.Duration `json:"step_delay"`
}

// DefaultTiming returns 1° steps every 20ms.
func DefaultTiming() Timing {
	return Timing{StepSize: DefaultStepSize, StepDelay: DefaultStepDelay}
}

// Sequencer serialises every command sent to the arm. Moves interpolate from
// the joint's last commanded angle, so the order of calls matters.
type Sequencer struct {
	arm    *robot.Arm
	wait   Waiter
	timing Timing
	logger *zap.SugaredLogger

	mu sync.Mutex
}

// NewSequencer creates a sequencer for arm.
func NewSequencer(arm *robot.Arm, wait Waiter, timing Timing, logger *zap.SugaredLogger) *Sequencer {
	if timing.StepSize <= 0 {
		timing.StepSize = DefaultStepSize
	}
	if wait == nil {
		wait = NewWaiter()
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Sequencer{arm: arm, wait: wait, timing: timing, logger: logger}
}

// Arm returns the arm the sequencer drives.
func (s *Sequencer) Arm() *robot.Arm {
	return s.arm
}

// Waiter returns the sequencer's waiter.
func (s *Sequencer) Waiter() Waiter {
	return s.wait
}

// Validate reports whether a move to target would be accepted.
func Validate(j robot.Joint, target float64) error {
	if !j.Valid() {
		return robot.ErrUnknownJoint
	}
	return robot.ServoRange.Check(j, target)
}

// IsRejection reports whether err is an invalid-command rejection.
func IsRejection(err error) bool {
	return errors.Is(err, robot.ErrUnknownJoint) || errors.Is(err, robot.ErrAngleOutOfRange)
}

// MoveJoint steps joint j from its last commanded angle toward target, one
// step at a time with StepDelay between steps, and finishes with a command
// at exactly target. Unknown joints and targets outside [0, 180] are logged
// and rejected without moving anything.
func (s *Sequencer) MoveJoint(ctx context.Context, j robot.Joint, target float64) error {
	if err := Validate(j, target); err != nil {
		s.logger.Warnw("rejected joint move", "joint", int(j), "target", target, "error", err)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, _ := s.arm.Current(j)
	for _, angle := range steps(current, target, s.timing.StepSize) {
		if err := s.arm.Command(ctx, j, angle); err != nil {
			return err
		}
		if err := s.wait.Wait(ctx, s.timing.StepDelay); err != nil {
			return err
		}
	}
	if err := s.arm.Command(ctx, j, target); err != nil {
		return err
	}
	s.logger.Debugw("joint moved", "joint", j.String(), "from", current, "to", target)
	return nil
}

// Set commands j to deg at once, without interpolation. Manual control uses
// it for small jogs.
func (s *Sequencer) Set(ctx context.Context, j robot.Joint, deg float64) error {
	if err := Validate(j, deg); err != nil {
		s.logger.Warnw("rejected joint set", "joint", int(j), "target", deg, "error", err)
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.arm.Command(ctx, j, deg)
}

// steps returns the intermediate angles between from and to: the integer
// part of from, then every step toward the integer part of to, excluding it.
func steps(from, to, size float64) []float64 {
	start := math.Trunc(from)
	end := math.Trunc(to)
	if start == end {
		return nil
	}
	dir := size
	if end < start {
		dir = -size
	}
	n := int(math.Ceil(math.Abs(end-start) / size))
	out := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, start+float64(i)*dir)
	}
	return out
}
