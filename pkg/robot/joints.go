// Package robot provides the joint model, limits and actuator backends for a
// four-joint arm with a gripper.
package robot

import "fmt"

// Joint identifies a servo channel on the arm.
type Joint int

// Joints of the arm, numbered by actuator channel.
const (
	Base Joint = iota
	Shoulder
	Elbow
	Wrist
	Gripper
)

// NumJoints is the number of actuated joints.
const NumJoints = 5

var jointNames = [NumJoints]string{"base", "shoulder", "elbow", "wrist", "gripper"}

// AllJoints returns all joints in channel order.
func AllJoints() []Joint {
	return []Joint{Base, Shoulder, Elbow, Wrist, Gripper}
}

// Valid reports whether j is one of the known joints.
func (j Joint) Valid() bool {
	return j >= 0 && j < NumJoints
}

func (j Joint) String() string {
	if !j.Valid() {
		return fmt.Sprintf("joint(%d)", int(j))
	}
	return jointNames[j]
}

// ParseJoint returns the joint with the given name.
func ParseJoint(name string) (Joint, error) {
	for i, n := range jointNames {
		if n == name {
			return Joint(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownJoint, name)
}

// JointAngle is the commanded position of one joint and its static bounds.
type JointAngle struct {
	ID      Joint
	Current float64
	Min     float64
	Max     float64
}

// Positions maps joints to angles in degrees.
type Positions map[Joint]float64

// Clone returns a copy of p.
func (p Positions) Clone() Positions {
	c := make(Positions, len(p))
	for j, v := range p {
		c[j] = v
	}
	return c
}

// HomePositions returns the angles the arm is assumed to hold at power on.
func HomePositions() Positions {
	return Positions{
		Base:     90,
		Shoulder: 90,
		Elbow:    90,
		Wrist:    45,
		Gripper:  90,
	}
}

// MarshalText encodes j by name so joint-keyed maps read well in JSON.
func (j Joint) MarshalText() ([]byte, error) {
	if !j.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownJoint, int(j))
	}
	return []byte(j.String()), nil
}

// UnmarshalText decodes a joint name.
func (j *Joint) UnmarshalText(text []byte) error {
	parsed, err := ParseJoint(string(text))
	if err != nil {
		return err
	}
	*j = parsed
	return nil
}
