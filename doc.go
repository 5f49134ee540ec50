// Package pickplace drives a four-joint hobby arm with a gripper through a
// vision-guided pick-and-place cycle.
//
// A target point from a camera pipeline is corrected into the arm frame,
// solved into joint angles by a geometric inverse-kinematics search, and
// played back as a fixed choreography of paced single-degree moves.
//
// # Installation
//
//	go install github.com/gwillem/pickplace/cmd/pickplace@latest
//
// # Usage
//
// Pick a servo backend and calibrate:
//
//	pickplace setup
//
// Check that a target is reachable without moving the arm:
//
//	pickplace solve --at 0,0,8
//
// Run one cycle, or wait for the spoken activation phrase:
//
//	pickplace cycle
//	pickplace run
//
// Drive the joints by hand:
//
//	pickplace teleop
//
// # Packages
//
//   - cmd/pickplace: CLI with setup, info, camera, solve, cycle, run, reset and teleop commands
//   - pkg/robot: joints, limits, calibration and actuator backends
//   - pkg/ik: inverse and forward kinematics
//   - pkg/motion: paced joint moves and choreographies
//   - pkg/target: target providers, frame correction and camera calibration
//   - pkg/voice: activation phrases and spoken feedback
//   - pkg/cycle: the pick-and-place cycle runner
//   - pkg/teleop: keyboard jogging with coupled joint limits
package pickplace
