package ik

import (
	"math"

	"github.com/golang/geo/r3"
)

// Forward reconstructs the gripper tip from actuator-frame angles. It is the
// inverse of Solve for solutions whose triangle was not clamped: the shoulder
// angle is measured from the downward vertical, the elbow is the interior
// angle between upper arm and forearm, and the wrist angle encodes the
// approach depth as atan(G_z / G_y). Y is the tip height above the work
// surface.
func (s *Solver) Forward(a Angles) r3.Vector {
	raw := fromActuator(a)
	g := s.geom

	gz := g.GripperLength * math.Tan(radians(raw.Wrist))
	alpha := radians(raw.Shoulder)
	beta := radians(raw.Shoulder + raw.Elbow - 180)

	reach := g.L2*math.Sin(alpha) + g.L3*math.Sin(beta) + gz
	height := -g.L2*math.Cos(alpha) - g.L3*math.Cos(beta) - g.GripperLength

	heading := radians(BaseForward - raw.Base)
	return r3.Vector{
		X: reach * math.Sin(heading),
		Y: height + g.L1,
		Z: reach * math.Cos(heading),
	}
}
