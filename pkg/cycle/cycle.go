// Package cycle runs the operational pick-and-place cycle: read a target,
// correct it into the solver frame, solve, and play the choreography. A
// solve that finds nothing aborts the cycle before any joint moves.
package cycle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/golang/geo/r3"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gwillem/pickplace/pkg/ik"
	"github.com/gwillem/pickplace/pkg/motion"
	"github.com/gwillem/pickplace/pkg/target"
	"github.com/gwillem/pickplace/pkg/voice"
)

// ErrNotActivated is returned by Activate for phrases other than the
// trigger.
var ErrNotActivated = errors.New("phrase is not the activation trigger")

// Report describes one cycle.
type Report struct {
	ID        string
	Target    r3.Vector
	Corrected r3.Vector
	Result    ik.Result
}

// Runner owns everything a cycle touches. Cycles are serialised.
type Runner struct {
	provider target.Provider
	frame    target.FrameCorrection
	solver   *ik.Solver
	choreo   *motion.Choreographer
	logger   *zap.SugaredLogger

	mu sync.Mutex
}

// NewRunner creates a Runner.
func NewRunner(provider target.Provider, frame target.FrameCorrection, solver *ik.Solver, choreo *motion.Choreographer, logger *zap.SugaredLogger) *Runner {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Runner{
		provider: provider,
		frame:    frame,
		solver:   solver,
		choreo:   choreo,
		logger:   logger,
	}
}

// Solve reads one target and solves it without moving the arm.
func (r *Runner) Solve(ctx context.Context) (Report, error) {
	rep := Report{ID: uuid.NewString()}
	log := r.logger.With("cycle", rep.ID)

	pt, err := r.provider.Target(ctx)
	if err != nil {
		return rep, fmt.Errorf("read target: %w", err)
	}
	rep.Target = pt
	rep.Corrected = r.frame.Apply(pt)
	rep.Result = r.solver.Solve(rep.Corrected)

	log.Infow("solved target",
		"target", pt, "corrected", rep.Corrected,
		"outcome", rep.Result.Outcome.String(),
		"iterations", rep.Result.Iterations,
		"approach_depth", rep.Result.ApproachDepth,
		"clamped", rep.Result.Clamped)
	return rep, rep.Result.Err()
}

// RunCycle performs one full cycle. On ik.ErrNoSolution no command has been
// issued.
func (r *Runner) RunCycle(ctx context.Context) (Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rep, err := r.Solve(ctx)
	if err != nil {
		return rep, err
	}
	log := r.logger.With("cycle", rep.ID)
	a := rep.Result.Angles
	log.Infow("starting cycle",
		"base", a.Base, "shoulder", a.Shoulder, "elbow", a.Elbow, "wrist", a.Wrist)

	if err := r.choreo.PlayAll(ctx, motion.PickAndPlace(a)...); err != nil {
		return rep, fmt.Errorf("cycle %s: %w", rep.ID, err)
	}
	log.Infow("cycle complete")
	return rep, nil
}

// Reset plays the reset sequence on its own.
func (r *Runner) Reset(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.choreo.Play(ctx, motion.Reset())
}

// Activate runs one cycle if phrase is the trigger, with spoken feedback
// before and after. Speaker failures are logged only.
func (r *Runner) Activate(ctx context.Context, phrase, trigger string, sp voice.Speaker) (Report, error) {
	if !voice.IsActivation(phrase, trigger) {
		return Report{}, ErrNotActivated
	}
	r.say(ctx, sp, voice.Activating)
	rep, err := r.RunCycle(ctx)
	if ctx.Err() != nil {
		return rep, ctx.Err()
	}
	r.say(ctx, sp, voice.Ready)
	return rep, err
}

func (r *Runner) say(ctx context.Context, sp voice.Speaker, text string) {
	if sp == nil {
		return
	}
	if err := sp.Say(ctx, text); err != nil {
		r.logger.Warnw("speaker failed", "text", text, "error", err)
	}
}

// Serve listens for phrases and runs a cycle on every trigger until ctx is
// cancelled or the listener ends. A failed cycle is logged and the loop
// keeps listening.
func (r *Runner) Serve(ctx context.Context, l voice.Listener, sp voice.Speaker, trigger string) error {
	r.logger.Infow("listening for activation", "trigger", trigger)
	for {
		phrase, err := l.Listen(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("listen: %w", err)
		}
		r.logger.Debugw("heard phrase", "phrase", phrase)

		rep, err := r.Activate(ctx, phrase, trigger, sp)
		switch {
		case errors.Is(err, ErrNotActivated):
			continue
		case ctx.Err() != nil:
			return ctx.Err()
		case err != nil:
			r.logger.Errorw("cycle failed", "cycle", rep.ID, "error", err)
		}
	}
}
