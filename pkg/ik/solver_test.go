package ik

import (
	"errors"
	"math"
	"testing"

	"github.com/golang/geo/r3"

	"github.com/gwillem/pickplace/pkg/robot"
)

const tolerance = 1e-6

func newTestSolver() *Solver {
	return NewSolver(robot.DefaultLinkLengths(), DefaultLimits())
}

func TestSolve_BaseAngle(t *testing.T) {
	s := newTestSolver()

	tests := []struct {
		name   string
		target r3.Vector
		check  func(float64) bool
		want   string
	}{
		{"straight ahead", r3.Vector{X: 0, Y: 0, Z: 10}, func(b float64) bool { return math.Abs(b-90) < tolerance }, "== 90"},
		{"right side", r3.Vector{X: 5, Y: 0, Z: 8}, func(b float64) bool { return b < 90 }, "< 90"},
		{"left side", r3.Vector{X: -5, Y: 0, Z: 8}, func(b float64) bool { return b > 90 }, "> 90"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := s.Solve(tt.target)
			if !res.Found() {
				t.Fatalf("Solve(%v) exhausted after %d iterations", tt.target, res.Iterations)
			}
			if !tt.check(res.Angles.Base) {
				t.Errorf("base = %v, want %s", res.Angles.Base, tt.want)
			}
		})
	}
}

func TestSolve_MirroredBase(t *testing.T) {
	s := newTestSolver()
	right := s.BaseAngle(r3.Vector{X: 3, Z: 6})
	left := s.BaseAngle(r3.Vector{X: -3, Z: 6})
	if math.Abs((90-right)-(left-90)) > tolerance {
		t.Errorf("base angles not mirrored around 90: right=%v left=%v", right, left)
	}
}

func TestSolve_KnownTarget(t *testing.T) {
	s := newTestSolver()
	res := s.Solve(r3.Vector{X: 0, Y: 0, Z: 8})
	if !res.Found() {
		t.Fatal("expected a solution")
	}
	if res.ApproachDepth != 0 || res.Iterations != 1 {
		t.Errorf("solution should be found at G_z=0 on first iteration, got G_z=%v after %d", res.ApproachDepth, res.Iterations)
	}
	if res.Angles.Wrist != 0 {
		t.Errorf("wrist = %v, want 0 at G_z=0", res.Angles.Wrist)
	}
	if math.Abs(res.Angles.Shoulder-(res.Raw.Shoulder-ShoulderOffset)) > tolerance {
		t.Errorf("shoulder offset not applied: %v vs raw %v", res.Angles.Shoulder, res.Raw.Shoulder)
	}
	if math.Abs(res.Angles.Elbow-(ElbowOffset-res.Raw.Elbow)) > tolerance {
		t.Errorf("elbow offset not applied: %v vs raw %v", res.Angles.Elbow, res.Raw.Elbow)
	}
	// law of cosines on h = sqrt(8² + 2.5²)
	if math.Abs(res.Raw.Elbow-124.62) > 0.05 {
		t.Errorf("raw elbow = %v, want ~124.62", res.Raw.Elbow)
	}
}

func TestSolve_AnglesWithinStaticRanges(t *testing.T) {
	s := newTestSolver()
	lim := DefaultLimits()

	for x := -6.0; x <= 6.0; x += 1.5 {
		for z := 1.0; z <= 14.0; z += 1.0 {
			target := r3.Vector{X: x, Z: z}
			res := s.Solve(target)
			if res.Iterations > MaxIterations {
				t.Errorf("Solve(%v) ran %d iterations", target, res.Iterations)
			}
			if !res.Found() {
				continue
			}
			if !lim.Base.Contains(res.Raw.Base) || !lim.Shoulder.Contains(res.Raw.Shoulder) ||
				!lim.Elbow.Contains(res.Raw.Elbow) || !lim.Wrist.Contains(res.Raw.Wrist) {
				t.Errorf("Solve(%v) = %+v outside static ranges", target, res.Raw)
			}
			if anyNaN(res.Angles.Base, res.Angles.Shoulder, res.Angles.Elbow, res.Angles.Wrist) {
				t.Errorf("Solve(%v) returned NaN: %+v", target, res.Angles)
			}
		}
	}
}

func TestSolve_ForwardKinematicsRoundTrip(t *testing.T) {
	s := newTestSolver()

	targets := []r3.Vector{
		{X: 0, Y: 0, Z: 8},
		{X: 3, Y: 0, Z: 6},
		{X: -4, Y: 0, Z: 5},
		{X: 2, Y: 0, Z: 7.5},
		{X: -1, Y: 0, Z: 5},
	}

	for _, target := range targets {
		res := s.Solve(target)
		if !res.Found() {
			t.Errorf("Solve(%v) exhausted", target)
			continue
		}
		got := s.Forward(res.Angles)
		if got.Sub(target).Norm() > 1e-6 {
			t.Errorf("Forward(Solve(%v)) = %v", target, got)
		}
	}
}

// Every solution whose triangle closed must land exactly on the target.
// Clamped ones stretch the arm straight toward it.
func TestSolve_ForwardKinematicsGrid(t *testing.T) {
	s := newTestSolver()

	var exact, clamped int
	for xi := -32; xi <= 32; xi++ {
		for zi := 2; zi <= 64; zi++ {
			target := r3.Vector{X: float64(xi) / 4, Z: float64(zi) / 4}
			res := s.Solve(target)
			if res.Iterations > MaxIterations || res.Iterations-1 > MaxDepthSteps {
				t.Errorf("Solve(%v) ran %d iterations", target, res.Iterations)
			}
			if !res.Found() {
				continue
			}
			if res.ApproachDepth > target.Z {
				t.Errorf("Solve(%v) approach depth %v beyond target depth", target, res.ApproachDepth)
			}
			if res.Clamped {
				clamped++
				if res.Raw.Elbow != 180 {
					t.Errorf("Solve(%v) clamped with elbow %v, want fully extended", target, res.Raw.Elbow)
				}
				continue
			}
			exact++
			if got := s.Forward(res.Angles); got.Sub(target).Norm() > tolerance {
				t.Errorf("Forward(Solve(%v)) = %v, off by %v", target, got, got.Sub(target).Norm())
			}
		}
	}
	if exact == 0 || clamped == 0 {
		t.Errorf("grid covered %d exact and %d clamped solutions, want both", exact, clamped)
	}
}

func TestSolve_NonPositiveDepthFailsFast(t *testing.T) {
	s := newTestSolver()
	for _, z := range []float64{0, -3, math.NaN()} {
		res := s.Solve(r3.Vector{X: 1, Z: z})
		if res.Found() {
			t.Errorf("Solve(z=%v) found a solution", z)
		}
		if res.Iterations != 0 {
			t.Errorf("Solve(z=%v) iterated %d times, want 0", z, res.Iterations)
		}
		if !errors.Is(res.Err(), ErrNoSolution) {
			t.Errorf("Solve(z=%v).Err() = %v, want ErrNoSolution", z, res.Err())
		}
	}
}

func TestSolve_OutOfReachExhausts(t *testing.T) {
	s := newTestSolver()
	// the horizontal distance exceeds L2+L3 for every G_z up to z
	res := s.Solve(r3.Vector{X: 40, Y: 0, Z: 2})
	if res.Found() {
		t.Fatalf("expected exhaustion, got %+v", res.Angles)
	}
	if res.Iterations == 0 || res.Iterations > MaxIterations {
		t.Errorf("iterations = %d, want within (0, %d]", res.Iterations, MaxIterations)
	}
	if res.Angles != (Angles{}) {
		t.Errorf("exhausted result carries angles: %+v", res.Angles)
	}
}

func TestSolve_TooCloseExhausts(t *testing.T) {
	s := newTestSolver()
	// the elbow would have to fold below its 65° floor
	res := s.Solve(r3.Vector{X: 0, Y: 0, Z: 4})
	if res.Found() {
		t.Fatalf("expected exhaustion, got %+v", res.Raw)
	}
}

func TestSolve_ClampsImpossibleTriangle(t *testing.T) {
	s := newTestSolver()
	// at the first in-reach G_z the shoulder-wrist distance exceeds L2+L3,
	// so both cosine arguments fall outside [-1, 1]
	res := s.Solve(r3.Vector{X: 0, Y: 0, Z: 10})
	if !res.Found() {
		t.Fatal("expected clamped solution")
	}
	if !res.Clamped {
		t.Error("Clamped not set")
	}
	if math.Abs(res.Raw.Elbow-180) > tolerance {
		t.Errorf("raw elbow = %v, want fully extended 180", res.Raw.Elbow)
	}
	if res.ApproachDepth <= 0 {
		t.Errorf("approach depth = %v, want > 0", res.ApproachDepth)
	}
	if res.Angles.Wrist <= 0 {
		t.Errorf("wrist = %v, want > 0 when G_z > 0", res.Angles.Wrist)
	}
}

func TestAcosClamped(t *testing.T) {
	for _, x := range []float64{-5, -1.0000001, 1.0000001, 42} {
		if v := acosClamped(x); math.IsNaN(v) {
			t.Errorf("acosClamped(%v) = NaN", x)
		}
	}
}

func TestSolve_BelowShoulderOrientation(t *testing.T) {
	// a short gripper puts the wrist below the shoulder joint
	geom := robot.DefaultLinkLengths()
	geom.GripperLength = 2
	s := NewSolver(geom, DefaultLimits())

	target := r3.Vector{X: 1, Y: 0, Z: 6}
	res := s.Solve(target)
	if !res.Found() {
		t.Fatal("expected a solution")
	}
	if got := s.Forward(res.Angles); got.Sub(target).Norm() > 1e-6 {
		t.Errorf("Forward(Solve(%v)) = %v", target, got)
	}
}
