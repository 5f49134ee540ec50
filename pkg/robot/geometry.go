package robot

import "errors"

// LinkLengths describes the kinematic chain. L1 is the shoulder height above
// the work surface, L2 and L3 are the upper arm and forearm, GripperLength the
// fingers hanging below the wrist. All values share one linear unit.
type LinkLengths struct {
	L1            float64 `json:"l1"`
	L2            float64 `json:"l2"`
	L3            float64 `json:"l3"`
	GripperLength float64 `json:"gripper_length"`
}

// DefaultLinkLengths returns the arm's measured link lengths in inches.
func DefaultLinkLengths() LinkLengths {
	return LinkLengths{
		L1:            4.0,
		L2:            4.2,
		L3:            5.25,
		GripperLength: 6.5,
	}
}

// Reach returns the length of the fully extended L2-L3 pair.
func (g LinkLengths) Reach() float64 {
	return g.L2 + g.L3
}

// Validate checks that every segment has a positive length.
func (g LinkLengths) Validate() error {
	if g.L1 <= 0 || g.L2 <= 0 || g.L3 <= 0 || g.GripperLength <= 0 {
		return errors.New("link lengths must be positive")
	}
	return nil
}
