// Package ik solves joint angles for a target point.
//
// The solver fixes an approach depth for the gripper, solves the remaining
// shoulder/elbow triangle with the law of cosines, and walks the depth
// forward in 1% steps of the target depth until every angle lies inside its
// joint's range. Angles are in degrees; lengths share the unit of
// robot.LinkLengths.
package ik

import (
	"errors"
	"math"

	"github.com/golang/geo/r3"

	"github.com/gwillem/pickplace/pkg/robot"
)

// ErrNoSolution is returned when no approach depth yields in-range angles.
var ErrNoSolution = errors.New("ik: no solution")

// Calibration offsets from solver-frame to actuator-frame angles.
const (
	ShoulderOffset = 85.0  // actuator = solver - 85
	ElbowOffset    = 245.0 // actuator = 245 - solver
	BaseForward    = 90.0  // base angle facing straight ahead
)

// depthStep is the fraction of the target depth added per iteration.
const depthStep = 0.01

// MaxDepthSteps bounds how many times the search advances G_z: 100 steps of
// 1% take it from 0 to the full target depth.
const MaxDepthSteps = 100

// MaxIterations is the number of depths the search evaluates, both ends
// included. It is one more than MaxDepthSteps because G_z = 0 is tried
// before the first advance.
const MaxIterations = MaxDepthSteps + 1

// Limits are the solver-frame joint ranges.
type Limits struct {
	Base     robot.Limits `json:"base"`
	Shoulder robot.Limits `json:"shoulder"`
	Elbow    robot.Limits `json:"elbow"`
	Wrist    robot.Limits `json:"wrist"`
}

// DefaultLimits returns the solver-frame joint ranges of the arm.
func DefaultLimits() Limits {
	return Limits{
		Base:     robot.Limits{Min: 0, Max: 180},
		Shoulder: robot.Limits{Min: 90, Max: 270},
		Elbow:    robot.Limits{Min: 65, Max: 180},
		Wrist:    robot.Limits{Min: 0, Max: 90},
	}
}

// Angles is one joint-angle set in degrees.
type Angles struct {
	Base     float64 `json:"base"`
	Shoulder float64 `json:"shoulder"`
	Elbow    float64 `json:"elbow"`
	Wrist    float64 `json:"wrist"`
}

// Positions returns the angles keyed by joint.
func (a Angles) Positions() robot.Positions {
	return robot.Positions{
		robot.Base:     a.Base,
		robot.Shoulder: a.Shoulder,
		robot.Elbow:    a.Elbow,
		robot.Wrist:    a.Wrist,
	}
}

// Outcome tags a Result.
type Outcome int

// Solver outcomes.
const (
	Exhausted Outcome = iota
	Found
)

func (o Outcome) String() string {
	if o == Found {
		return "found"
	}
	return "exhausted"
}

// Result is the outcome of one solve. Angles and Raw are only meaningful
// when Outcome is Found.
type Result struct {
	Outcome Outcome
	// Angles are actuator-frame angles ready to command.
	Angles Angles
	// Raw are the solver-frame angles before calibration offsets.
	Raw Angles
	// ApproachDepth is the G_z offset the solution was found at.
	ApproachDepth float64
	Iterations    int
	// Clamped is set when the wrist was out of reach of the shoulder/elbow
	// pair and the triangle was solved with its cosines clamped. Such
	// solutions stretch the arm toward the target and do not land on it.
	Clamped bool
}

// Found reports whether a solution was found.
func (r Result) Found() bool {
	return r.Outcome == Found
}

// Err returns ErrNoSolution for exhausted results.
func (r Result) Err() error {
	if r.Outcome != Found {
		return ErrNoSolution
	}
	return nil
}

// Solver turns target points into joint angles for one arm geometry.
type Solver struct {
	geom   robot.LinkLengths
	limits Limits
}

// NewSolver creates a solver for the given link lengths and ranges.
func NewSolver(geom robot.LinkLengths, limits Limits) *Solver {
	return &Solver{geom: geom, limits: limits}
}

// BaseAngle returns the base rotation that faces the target: 90° straight
// ahead, less for targets right of the centerline, more for the left.
func (s *Solver) BaseAngle(target r3.Vector) float64 {
	theta := degrees(math.Atan2(math.Abs(target.X), math.Abs(target.Z)))
	if target.X >= 0 {
		theta = BaseForward - theta
	} else {
		theta = BaseForward + theta
	}
	return s.limits.Base.Clamp(theta)
}

// Solve searches for joint angles that put the gripper on target. Y is not
// used: the target is assumed to rest on the work surface, L1 below the
// shoulder. A target with Z <= 0 fails immediately.
func (s *Solver) Solve(target r3.Vector) Result {
	if !(target.Z > 0) || s.geom.Validate() != nil {
		return Result{Outcome: Exhausted}
	}

	base := s.BaseAngle(target)
	horizontal := math.Hypot(target.X, target.Z)
	gy := s.geom.GripperLength
	step := depthStep * target.Z

	var res Result
	for i := 0; i < MaxIterations; i++ {
		gz := float64(i) * step
		if gz > target.Z {
			break
		}
		res.Iterations = i + 1

		raw, clamped, ok := s.solveAt(horizontal, gz, gy)
		if !ok {
			continue
		}
		raw.Base = base
		return Result{
			Outcome:       Found,
			Angles:        toActuator(raw),
			Raw:           raw,
			ApproachDepth: gz,
			Iterations:    res.Iterations,
			Clamped:       clamped,
		}
	}
	res.Outcome = Exhausted
	return res
}

// solveAt solves shoulder, elbow and wrist for one approach depth gz.
// clamped reports that a law-of-cosines argument fell outside [-1, 1].
func (s *Solver) solveAt(horizontal, gz, gy float64) (angles Angles, clamped bool, ok bool) {
	l2, l3 := s.geom.L2, s.geom.L3

	dy := s.geom.L1 - gy
	dz := horizontal - gz
	if dz > s.geom.Reach() {
		return Angles{}, false, false
	}

	// dy < 0 means the wrist sits above the shoulder joint.
	above := dy < 0
	hyp := math.Hypot(math.Abs(dy), dz)
	if hyp == 0 {
		return Angles{}, false, false
	}

	cosElbow := (l2*l2 + l3*l3 - hyp*hyp) / (2 * l2 * l3)
	cosInner := (l2*l2 + hyp*hyp - l3*l3) / (2 * l2 * hyp)
	clamped = outsideUnit(cosElbow) || outsideUnit(cosInner)
	elbow := degrees(acosClamped(cosElbow))
	inner := degrees(acosClamped(cosInner))

	var shoulder float64
	if above {
		incline := degrees(math.Atan2(math.Abs(dy), dz))
		shoulder = inner + incline + 90
	} else {
		incline := degrees(math.Atan2(dz, dy))
		shoulder = inner + incline
	}

	wrist := 0.0
	if gz != 0 {
		wrist = degrees(math.Atan2(gz, gy))
	}
	wrist = s.limits.Wrist.Clamp(wrist)

	if anyNaN(shoulder, elbow, wrist) {
		return Angles{}, false, false
	}
	if !s.limits.Shoulder.Contains(shoulder) || !s.limits.Elbow.Contains(elbow) {
		return Angles{}, false, false
	}
	return Angles{Shoulder: shoulder, Elbow: elbow, Wrist: wrist}, clamped, true
}

func toActuator(raw Angles) Angles {
	return Angles{
		Base:     raw.Base,
		Shoulder: raw.Shoulder - ShoulderOffset,
		Elbow:    ElbowOffset - raw.Elbow,
		Wrist:    raw.Wrist,
	}
}

func fromActuator(a Angles) Angles {
	return Angles{
		Base:     a.Base,
		Shoulder: a.Shoulder + ShoulderOffset,
		Elbow:    ElbowOffset - a.Elbow,
		Wrist:    a.Wrist,
	}
}

func outsideUnit(x float64) bool {
	return x < -1 || x > 1
}

// acosClamped clamps x into [-1, 1] before taking the inverse cosine.
func acosClamped(x float64) float64 {
	return math.Acos(math.Max(-1, math.Min(1, x)))
}

func anyNaN(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return true
		}
	}
	return false
}

func degrees(rad float64) float64 {
	return rad * 180 / math.Pi
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
