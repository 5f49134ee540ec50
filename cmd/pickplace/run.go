package main

import (
	"context"
	"errors"
	"fmt"
)

type RunCommand struct {
	Trigger string `long:"trigger" description:"Activation phrase (default from config)"`
}

func (c *RunCommand) Execute(args []string) error {
	e, err := newEnv(false)
	if err != nil {
		return err
	}
	defer e.Close()

	vc := e.cfg.Voice
	if e.cfg.StdinConflict() {
		return fmt.Errorf("voice listener and target provider cannot both read stdin; set one of them in %s", opts.Config)
	}

	ctx, cancel := signalContext()
	defer cancel()

	r, err := e.runner("")
	if err != nil {
		return err
	}
	l, err := e.listener(ctx)
	if err != nil {
		return err
	}
	trigger := c.Trigger
	if trigger == "" {
		trigger = vc.Trigger
	}

	if err := e.arm.Enable(ctx); err != nil {
		e.logger.Warnw("failed to enable torque", "error", err)
	}
	fmt.Println(headerStyle.Render("Pickplace") + dimStyle.Render(fmt.Sprintf("  say %q to start a cycle, Ctrl-C to stop", trigger)))

	err = r.Serve(ctx, l, e.speaker(), trigger)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
