package teleop

import "github.com/gwillem/pickplace/pkg/robot"

// JogStep is how far one key press moves a joint, in degrees.
const JogStep = 0.5

// Gripper presets for the open and close keys.
const (
	GripperOpen  = 90.0
	GripperClose = 148.0
)

// QuitKey stops the controller.
const QuitKey = "q"

// Binding is what a key does: jog a joint by Direction steps, or set it to
// Absolute when Direction is zero.
type Binding struct {
	Joint     robot.Joint
	Direction float64
	Absolute  float64
}

// KeyMap maps key names, as reported by the terminal, to bindings.
type KeyMap map[string]Binding

// DefaultKeyMap is w/s for the shoulder, a/d for the wrist, the arrow keys
// for base and elbow, o and c for the gripper.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		"w":     {Joint: robot.Shoulder, Direction: +1},
		"s":     {Joint: robot.Shoulder, Direction: -1},
		"a":     {Joint: robot.Wrist, Direction: -1},
		"d":     {Joint: robot.Wrist, Direction: +1},
		"left":  {Joint: robot.Base, Direction: -1},
		"right": {Joint: robot.Base, Direction: +1},
		"up":    {Joint: robot.Elbow, Direction: +1},
		"down":  {Joint: robot.Elbow, Direction: -1},
		"o":     {Joint: robot.Gripper, Absolute: GripperOpen},
		"c":     {Joint: robot.Gripper, Absolute: GripperClose},
	}
}

// Help is a one-line summary of DefaultKeyMap.
const Help = "w/s shoulder · a/d wrist · ←/→ base · ↑/↓ elbow · o/c gripper · q quit"
