package cycle

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/golang/geo/r3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/gwillem/pickplace/pkg/ik"
	"github.com/gwillem/pickplace/pkg/motion"
	"github.com/gwillem/pickplace/pkg/robot"
	"github.com/gwillem/pickplace/pkg/target"
	"github.com/gwillem/pickplace/pkg/voice"
)

type instant struct{}

func (instant) Wait(ctx context.Context, d time.Duration) error { return ctx.Err() }

type scriptedListener struct {
	phrases []string
}

func (l *scriptedListener) Listen(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(l.phrases) == 0 {
		return "", io.EOF
	}
	p := l.phrases[0]
	l.phrases = l.phrases[1:]
	return p, nil
}

type recordSpeaker struct {
	mu   sync.Mutex
	said []string
}

func (s *recordSpeaker) Say(ctx context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.said = append(s.said, text)
	return nil
}

type failingProvider struct{ err error }

func (p failingProvider) Target(context.Context) (r3.Vector, error) { return r3.Vector{}, p.err }

func newRunner(t *testing.T, p target.Provider) (*Runner, *robot.Recorder, *robot.Arm, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core).Sugar()
	rec := robot.NewRecorder()
	arm := robot.NewArm(rec, nil)
	seq := motion.NewSequencer(arm, instant{}, motion.DefaultTiming(), logger)
	solver := ik.NewSolver(robot.DefaultLinkLengths(), ik.DefaultLimits())
	r := NewRunner(p, target.FrameCorrection{}, solver, motion.NewChoreographer(seq, logger), logger)
	return r, rec, arm, logs
}

func hasCommand(cmds []robot.Command, j robot.Joint, deg float64) bool {
	for _, c := range cmds {
		if c.Joint == j && c.Degrees == deg {
			return true
		}
	}
	return false
}

func TestRunCycle(t *testing.T) {
	r, rec, arm, logs := newRunner(t, target.Fixed(r3.Vector{Z: 8}))

	rep, err := r.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if !rep.Result.Found() {
		t.Fatalf("expected a solution, got %v", rep.Result.Outcome)
	}
	if rep.ID == "" {
		t.Error("report has no cycle id")
	}

	cmds := rec.Commands()
	a := rep.Result.Angles
	for j, deg := range map[robot.Joint]float64{
		robot.Base: a.Base, robot.Shoulder: a.Shoulder,
		robot.Elbow: a.Elbow, robot.Wrist: a.Wrist,
		robot.Gripper: motion.GripperClosed,
	} {
		if !hasCommand(cmds, j, deg) {
			t.Errorf("no command drove %s to %.3f", j, deg)
		}
	}
	for _, c := range cmds {
		if c.Degrees < robot.ServoMin || c.Degrees > robot.ServoMax {
			t.Errorf("command out of servo range: %+v", c)
		}
	}

	got := arm.Snapshot()
	for j, want := range robot.HomePositions() {
		if got[j] != want {
			t.Errorf("after cycle %s = %v, want %v", j, got[j], want)
		}
	}
	if logs.FilterField(zap.String("cycle", rep.ID)).Len() == 0 {
		t.Error("no log entries carry the cycle id")
	}
}

func TestRunCycleNoSolutionIssuesNoMotion(t *testing.T) {
	r, rec, _, _ := newRunner(t, target.Fixed(r3.Vector{X: 40, Z: 2}))

	rep, err := r.RunCycle(context.Background())
	if !errors.Is(err, ik.ErrNoSolution) {
		t.Fatalf("err = %v, want ErrNoSolution", err)
	}
	if rep.Result.Found() {
		t.Error("result should be exhausted")
	}
	if n := len(rec.Commands()); n != 0 {
		t.Errorf("%d commands issued for an unreachable target", n)
	}
}

func TestRunCycleProviderError(t *testing.T) {
	boom := errors.New("camera unplugged")
	r, rec, _, _ := newRunner(t, failingProvider{err: boom})

	if _, err := r.RunCycle(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
	if len(rec.Commands()) != 0 {
		t.Error("commands issued without a target")
	}
}

func TestRunCycleAppliesFrameCorrection(t *testing.T) {
	r, _, _, _ := newRunner(t, target.Fixed(r3.Vector{X: 1.5, Z: 10}))
	r.frame = target.FrameCorrection{Offset: r3.Vector{X: 1.5}, DepthGain: -0.2}

	rep, err := r.Solve(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if rep.Corrected != (r3.Vector{Z: 8}) {
		t.Errorf("Corrected = %v, want (0, 0, 8)", rep.Corrected)
	}
}

func TestActivateIgnoresOtherPhrases(t *testing.T) {
	r, rec, _, _ := newRunner(t, target.Fixed(r3.Vector{Z: 8}))
	sp := &recordSpeaker{}

	for _, phrase := range []string{"", "hello", "activate"} {
		if _, err := r.Activate(context.Background(), phrase, voice.DefaultTrigger, sp); !errors.Is(err, ErrNotActivated) {
			t.Errorf("Activate(%q) err = %v, want ErrNotActivated", phrase, err)
		}
	}
	if len(sp.said) != 0 || len(rec.Commands()) != 0 {
		t.Errorf("ignored phrases caused speech %v or %d commands", sp.said, len(rec.Commands()))
	}
}

func TestServe(t *testing.T) {
	r, rec, _, _ := newRunner(t, target.Fixed(r3.Vector{Z: 8}))
	l := &scriptedListener{phrases: []string{"hello", "", "Activate now"}}
	sp := &recordSpeaker{}

	if err := r.Serve(context.Background(), l, sp, voice.DefaultTrigger); err != nil {
		t.Fatalf("Serve: %v", err)
	}
	want := []string{voice.Activating, voice.Ready}
	if len(sp.said) != len(want) || sp.said[0] != want[0] || sp.said[1] != want[1] {
		t.Errorf("said %q, want %q", sp.said, want)
	}
	if len(rec.Commands()) == 0 {
		t.Error("activation did not move the arm")
	}
}

func TestServeKeepsListeningAfterFailedCycle(t *testing.T) {
	r, rec, _, logs := newRunner(t, target.Fixed(r3.Vector{Z: 4}))
	l := &scriptedListener{phrases: []string{"activate now", "activate now"}}
	sp := &recordSpeaker{}

	if err := r.Serve(context.Background(), l, sp, voice.DefaultTrigger); err != nil {
		t.Fatalf("Serve: %v", err)
	}
	if got := logs.FilterMessage("cycle failed").Len(); got != 2 {
		t.Errorf("logged %d failed cycles, want 2", got)
	}
	if len(sp.said) != 4 {
		t.Errorf("said %q, want two activations", sp.said)
	}
	if len(rec.Commands()) != 0 {
		t.Error("unreachable target moved the arm")
	}
}

func TestServeCancelled(t *testing.T) {
	r, _, _, _ := newRunner(t, target.Fixed(r3.Vector{Z: 8}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := r.Serve(ctx, &scriptedListener{phrases: []string{"activate now"}}, nil, "")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestReset(t *testing.T) {
	r, rec, arm, _ := newRunner(t, target.Fixed(r3.Vector{Z: 8}))
	ctx := context.Background()
	if err := r.choreo.Sequencer().MoveJoint(ctx, robot.Base, 120); err != nil {
		t.Fatal(err)
	}
	rec.Reset()
	if err := r.Reset(ctx); err != nil {
		t.Fatal(err)
	}
	if got, _ := arm.Current(robot.Base); got != 90 {
		t.Errorf("base after reset = %v, want 90", got)
	}
}
