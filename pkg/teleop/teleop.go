// Package teleop provides manual joint control from key presses. Joint
// bounds for the shoulder and elbow depend on each other, so they are
// recomputed from the live joint angles before every key is applied.
package teleop

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/gwillem/pickplace/pkg/motion"
	"github.com/gwillem/pickplace/pkg/robot"
)

// ErrLimit is returned when a jog would leave the joint's current bounds.
var ErrLimit = errors.New("joint limit hit")

// State is a snapshot of the arm after a key was handled.
type State struct {
	Positions robot.Positions
	Limits    robot.AngleLimits
	Timestamp time.Time
	Error     error
}

// Controller turns key presses into joint commands.
type Controller struct {
	seq    *motion.Sequencer
	keys   KeyMap
	step   float64
	logger *zap.SugaredLogger

	mu      sync.Mutex
	running bool
	keyCh   chan string
	stateCh chan State
	logCh   chan string
}

// Config holds configuration for the controller.
type Config struct {
	Keys KeyMap
	Step float64
}

// NewController creates a controller driving seq.
func NewController(seq *motion.Sequencer, cfg Config, logger *zap.SugaredLogger) *Controller {
	if cfg.Keys == nil {
		cfg.Keys = DefaultKeyMap()
	}
	if cfg.Step <= 0 {
		cfg.Step = JogStep
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Controller{
		seq:     seq,
		keys:    cfg.Keys,
		step:    cfg.Step,
		logger:  logger,
		keyCh:   make(chan string, 16),
		stateCh: make(chan State, 1),
		logCh:   make(chan string, 10),
	}
}

// States returns a channel that receives state updates.
func (c *Controller) States() <-chan State {
	return c.stateCh
}

// Logs returns a channel that receives log messages.
func (c *Controller) Logs() <-chan string {
	return c.logCh
}

// Press queues a key for the control loop. Keys are dropped while the
// queue is full.
func (c *Controller) Press(key string) {
	select {
	case c.keyCh <- key:
	default:
	}
}

func (c *Controller) log(format string, args ...any) {
	text := fmt.Sprintf(format, args...)
	c.logger.Debug(text)
	msg := fmt.Sprintf("[%s] %s", time.Now().Format("15:04:05"), text)
	select {
	case c.logCh <- msg:
	default:
		// Drop if channel full
	}
}

// Start runs the control loop until ctx is cancelled or QuitKey is pressed.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return fmt.Errorf("already running")
	}
	c.running = true
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.running = false
		c.mu.Unlock()
	}()

	arm := c.seq.Arm()
	if err := arm.Enable(ctx); err != nil {
		c.log("Warning: failed to enable arm: %v", err)
	}
	c.log("Manual control started (%s)", Help)
	c.sendState(State{Positions: arm.Snapshot(), Limits: robot.CoupledLimits(arm.Snapshot()), Timestamp: time.Now()})

	for {
		select {
		case <-ctx.Done():
			c.log("Manual control stopped")
			return ctx.Err()
		case key := <-c.keyCh:
			if key == QuitKey {
				c.log("Manual control stopped")
				return nil
			}
			err := c.Handle(ctx, key)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			snap := arm.Snapshot()
			c.sendState(State{
				Positions: snap,
				Limits:    robot.CoupledLimits(snap),
				Timestamp: time.Now(),
				Error:     err,
			})
		}
	}
}

// Handle applies one key. Unmapped keys are ignored. A jog that would leave
// the joint's bounds is refused with ErrLimit unless it moves the joint
// back toward them.
func (c *Controller) Handle(ctx context.Context, key string) error {
	b, ok := c.keys[key]
	if !ok {
		return nil
	}
	arm := c.seq.Arm()
	limits := robot.CoupledLimits(arm.Snapshot())
	lim, ok := limits[b.Joint]
	if !ok {
		return fmt.Errorf("%w: %v", robot.ErrUnknownJoint, b.Joint)
	}

	current, _ := arm.Current(b.Joint)
	target := b.Absolute
	if b.Direction != 0 {
		target = current + b.Direction*c.step
	}
	if !allowed(lim, current, target) {
		c.log("%s limit hit at %.2f°", b.Joint, current)
		return fmt.Errorf("%w: %s at %.2f° (bounds %.0f..%.0f)", ErrLimit, b.Joint, current, lim.Min, lim.Max)
	}
	if err := c.seq.Set(ctx, b.Joint, target); err != nil {
		c.log("%s: %v", b.Joint, err)
		return err
	}
	return nil
}

// allowed accepts targets inside lim, and targets that move an already
// out-of-bounds joint closer to lim. Nothing leaves the servo range.
func allowed(lim robot.Limits, current, target float64) bool {
	if !robot.ServoRange.Contains(target) {
		return false
	}
	if lim.Contains(target) {
		return true
	}
	return outside(lim, target) < outside(lim, current)
}

func outside(lim robot.Limits, deg float64) float64 {
	return math.Abs(deg - lim.Clamp(deg))
}

func (c *Controller) sendState(s State) {
	select {
	case c.stateCh <- s:
	default:
		// Drop old state if channel full, replace with new
		select {
		case <-c.stateCh:
		default:
		}
		c.stateCh <- s
	}
}
