package main

import (
	"os"

	"github.com/jessevdk/go-flags"
)

type Options struct {
	Config   string `short:"c" long:"config" default:"pickplace.json" description:"Configuration file"`
	LogLevel string `long:"log-level" default:"info" choice:"debug" choice:"info" choice:"warn" choice:"error" description:"Log level"`
	LogFile  string `long:"log-file" description:"Write logs to this file instead of stderr"`
	DryRun   bool   `long:"dry-run" description:"Record servo commands instead of driving hardware"`

	Setup  SetupCommand  `command:"setup" description:"Pick an actuator backend and calibrate the arm"`
	Info   InfoCommand   `command:"info" description:"List serial ports and the bus servos on them"`
	Camera CameraCommand `command:"camera" description:"Save camera intrinsics for pixel targets"`
	Solve  SolveCommand  `command:"solve" description:"Solve joint angles for a target without moving"`
	Cycle  CycleCommand  `command:"cycle" alias:"once" description:"Run one pick-and-place cycle"`
	Run    RunCommand    `command:"run" description:"Run a cycle on every spoken activation phrase"`
	Reset  ResetCommand  `command:"reset" description:"Move the arm to its rest pose"`
	Teleop TeleopCommand `command:"teleop" alias:"teleoperate" description:"Drive the joints from the keyboard"`
}

var opts Options
var parser = flags.NewParser(&opts, flags.Default)

func main() {
	parser.LongDescription = "pickplace - vision and voice driven pick-and-place for a 4-joint arm"

	_, err := parser.Parse()
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				os.Exit(0)
			}
		}
		os.Exit(1)
	}
}
