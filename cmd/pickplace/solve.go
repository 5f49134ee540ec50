package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/golang/geo/r3"

	"github.com/gwillem/pickplace/pkg/ik"
)

type SolveCommand struct {
	At  string `long:"at" description:"Target point \"x,y,z\" in arm units; default reads the configured provider"`
	Raw bool   `long:"raw" description:"Skip the frame correction"`
}

func (c *SolveCommand) Execute(args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(false)
	if err != nil {
		return err
	}
	defer logger.Sync()

	// Solving never moves the arm, so no actuator is opened.
	e := &env{cfg: cfg, logger: logger, solver: ik.NewSolver(cfg.Geometry, cfg.Limits)}
	defer e.Close()

	p, err := e.provider(c.At)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	pt, err := p.Target(ctx)
	if err != nil {
		return fmt.Errorf("read target: %w", err)
	}
	corrected := pt
	if !c.Raw {
		corrected = cfg.Frame.Apply(pt)
	}
	res := e.solver.Solve(corrected)

	fmt.Println(headerStyle.Render("Solve"))
	fmt.Printf("Target:    %s\n", formatPoint(pt))
	fmt.Printf("Corrected: %s\n", formatPoint(corrected))
	fmt.Println()
	if !res.Found() {
		fmt.Println(errorStyle.Render(fmt.Sprintf("No solution after %d iterations", res.Iterations)))
		return res.Err()
	}
	fmt.Println(renderSolution(res))
	// The solver places the tip on the work surface, so compare against
	// the target's surface point.
	reached := e.solver.Forward(res.Angles)
	surface := r3.Vector{X: corrected.X, Z: corrected.Z}
	fmt.Printf("Reached %s (error %.4f) at approach depth %.3f after %d iteration(s)\n",
		formatPoint(reached), reached.Sub(surface).Norm(), res.ApproachDepth, res.Iterations)
	if res.Clamped {
		fmt.Println(dimStyle.Render("Target is beyond reach; the arm stretches toward it"))
	}
	return nil
}

func renderSolution(res ik.Result) string {
	rows := [][]string{
		{"base", fmt.Sprintf("%.2f", res.Raw.Base), fmt.Sprintf("%.2f", res.Angles.Base)},
		{"shoulder", fmt.Sprintf("%.2f", res.Raw.Shoulder), fmt.Sprintf("%.2f", res.Angles.Shoulder)},
		{"elbow", fmt.Sprintf("%.2f", res.Raw.Elbow), fmt.Sprintf("%.2f", res.Angles.Elbow)},
		{"wrist", fmt.Sprintf("%.2f", res.Raw.Wrist), fmt.Sprintf("%.2f", res.Angles.Wrist)},
	}
	headerCell := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Padding(0, 1)
	jointCell := lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Padding(0, 1)
	servoCell := lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Padding(0, 1)
	cell := lipgloss.NewStyle().Padding(0, 1)

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers("Joint", "Solver", "Servo").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerCell
			case col == 0:
				return jointCell
			case col == 2:
				return servoCell
			default:
				return cell
			}
		}).
		Render()
}
