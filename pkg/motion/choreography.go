package motion

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/gwillem/pickplace/pkg/ik"
	"github.com/gwillem/pickplace/pkg/robot"
)

// Gripper positions.
const (
	GripperOpen    = 90.0
	GripperClosed  = 148.0
	GripperPinched = 150.0
	GripperRelease = 100.0
)

// GripPause is how long the gripper is given to close on the object.
const GripPause = time.Second

// Step is one joint command followed by a settle pause.
type Step struct {
	Joint   robot.Joint
	Degrees float64
	Settle  time.Duration
}

// Sequence is a named, ordered list of steps.
type Sequence struct {
	Name  string
	Steps []Step
}

func ms(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}

// Reset opens the gripper and returns every joint to its rest pose.
func Reset() Sequence {
	return Sequence{Name: "reset", Steps: []Step{
		{robot.Gripper, GripperOpen, ms(500)},
		{robot.Shoulder, 90, ms(100)},
		{robot.Elbow, 90, ms(100)},
		{robot.Wrist, 45, ms(100)},
		{robot.Base, 90, 3 * time.Second},
	}}
}

// PickUp tightens the grip and lifts the object back to the rest pose.
func PickUp() Sequence {
	return Sequence{Name: "pick_up", Steps: []Step{
		{robot.Gripper, GripperPinched, ms(500)},
		{robot.Shoulder, 90, ms(100)},
		{robot.Base, 90, ms(100)},
		{robot.Elbow, 90, ms(100)},
		{robot.Wrist, 45, 3 * time.Second},
	}}
}

// Place swings to the drop-off point and releases the object.
func Place() Sequence {
	return Sequence{Name: "place", Steps: []Step{
		{robot.Base, 174, ms(500)},
		{robot.Shoulder, 108, ms(300)},
		{robot.Elbow, 155, ms(300)},
		{robot.Wrist, 11, ms(100)},
		{robot.Gripper, GripperRelease, 3 * time.Second},
	}}
}

// Approach moves to solved angles. The shoulder goes last so the forearm is
// already folded when the arm drops toward the target.
func Approach(a ik.Angles) Sequence {
	return Sequence{Name: "approach", Steps: []Step{
		{robot.Base, a.Base, 0},
		{robot.Elbow, a.Elbow, 0},
		{robot.Wrist, a.Wrist, 0},
		{robot.Shoulder, a.Shoulder, 0},
	}}
}

// Grip closes the gripper and holds while it bites.
func Grip() Sequence {
	return Sequence{Name: "grip", Steps: []Step{
		{robot.Gripper, GripperClosed, GripPause},
	}}
}

// PickAndPlace returns the full operational cycle for solved angles.
func PickAndPlace(a ik.Angles) []Sequence {
	return []Sequence{Reset(), Approach(a), Grip(), PickUp(), Place(), Reset()}
}

// Choreographer plays sequences through a Sequencer.
type Choreographer struct {
	seq    *Sequencer
	logger *zap.SugaredLogger
}

// NewChoreographer creates a Choreographer.
func NewChoreographer(seq *Sequencer, logger *zap.SugaredLogger) *Choreographer {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Choreographer{seq: seq, logger: logger}
}

// Sequencer returns the underlying sequencer.
func (c *Choreographer) Sequencer() *Sequencer {
	return c.seq
}

// Play runs every step in order. A failed step is logged and the sequence
// carries on with the next one; only cancellation of ctx stops it early.
// Rejected steps log at warn, actuator failures at error.
func (c *Choreographer) Play(ctx context.Context, s Sequence) error {
	c.logger.Infow("playing sequence", "sequence", s.Name, "steps", len(s.Steps))
	for i, step := range s.Steps {
		if err := c.seq.MoveJoint(ctx, step.Joint, step.Degrees); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fields := []any{"sequence", s.Name, "step", i, "joint", step.Joint.String(), "target", step.Degrees, "error", err}
			if IsRejection(err) {
				c.logger.Warnw("step rejected, continuing", fields...)
			} else {
				c.logger.Errorw("step failed, continuing", fields...)
			}
		}
		if err := c.seq.Waiter().Wait(ctx, step.Settle); err != nil {
			return err
		}
	}
	return nil
}

// PlayAll plays sequences back to back.
func (c *Choreographer) PlayAll(ctx context.Context, seqs ...Sequence) error {
	for _, s := range seqs {
		if err := c.Play(ctx, s); err != nil {
			return err
		}
	}
	return nil
}
