package main

import (
	"errors"
	"fmt"

	"github.com/gwillem/pickplace/pkg/ik"
	"github.com/gwillem/pickplace/pkg/robot"
)

type CycleCommand struct {
	At string `long:"at" description:"Target point \"x,y,z\"; default reads the configured provider"`
}

func (c *CycleCommand) Execute(args []string) error {
	e, err := newEnv(false)
	if err != nil {
		return err
	}
	defer e.Close()

	r, err := e.runner(c.At)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	if err := e.arm.Enable(ctx); err != nil {
		e.logger.Warnw("failed to enable torque", "error", err)
	}
	rep, err := r.RunCycle(ctx)
	if errors.Is(err, ik.ErrNoSolution) {
		fmt.Println(errorStyle.Render(fmt.Sprintf("No reachable pose for %s; the arm did not move.", formatPoint(rep.Corrected))))
		return err
	}
	if err != nil {
		return err
	}
	fmt.Println(successStyle.Render("Cycle complete ") + dimStyle.Render(rep.ID))
	printDryRun(e.arm)
	return nil
}

// printDryRun lists the recorded commands when the arm is simulated.
func printDryRun(arm *robot.Arm) {
	if !opts.DryRun {
		return
	}
	fmt.Println(dimStyle.Render("Final joint angles:"))
	for _, ja := range arm.JointAngles() {
		fmt.Printf("  %-8s %6.2f\n", ja.ID, ja.Current)
	}
}
