package main

import (
	"github.com/gwillem/pickplace/pkg/cycle"
)

type ResetCommand struct {
	Disable bool `long:"disable" description:"Turn torque off after resetting"`
}

func (c *ResetCommand) Execute(args []string) error {
	e, err := newEnv(false)
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, cancel := signalContext()
	defer cancel()

	if err := e.arm.Enable(ctx); err != nil {
		e.logger.Warnw("failed to enable torque", "error", err)
	}
	r := cycle.NewRunner(nil, e.cfg.Frame, e.solver, e.choreo, e.logger)
	if err := r.Reset(ctx); err != nil {
		return err
	}
	if c.Disable {
		return e.arm.Disable(ctx)
	}
	printDryRun(e.arm)
	return nil
}
