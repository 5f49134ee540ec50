package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/hipsterbrown/feetech-servo/feetech"
	"go.bug.st/serial"

	"github.com/gwillem/pickplace/pkg/robot"
)

type InfoCommand struct{}

func (c *InfoCommand) Execute(args []string) error {
	fmt.Println(headerStyle.Render("Pickplace Port Scanner"))
	fmt.Println(dimStyle.Render("━━━━━━━━━━━━━━━━━━━━━━"))
	fmt.Println()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cal, err := cfg.Arm.ResolveCalibration()
	if err != nil {
		return err
	}
	if len(cal) == 0 {
		cal = robot.DefaultCalibration()
	}

	ports, err := serial.GetPortsList()
	if err != nil {
		return fmt.Errorf("list ports: %w", err)
	}
	if len(ports) == 0 {
		fmt.Println("No serial ports found.")
		return nil
	}

	for _, port := range ports {
		if strings.Contains(port, "Bluetooth") {
			continue
		}
		bus, servos, err := scanPort(port)
		if err != nil {
			fmt.Printf("%s  %s\n", port, dimStyle.Render("no servos"))
			continue
		}
		fmt.Printf("%s  %s\n", port, successStyle.Render(fmt.Sprintf("%d servo(s)", len(servos))))
		fmt.Println(renderServos(bus, servos, cal))
		bus.Close()
	}
	return nil
}

func renderServos(bus *feetech.Bus, servos []feetech.FoundServo, cal robot.Calibration) string {
	ctx := context.Background()
	rows := make([][]string, 0, len(servos))
	for _, s := range servos {
		joint, deg := "-", "-"
		raw := "?"
		if pos, err := feetech.NewServo(bus, s.ID, s.Model).Position(ctx); err == nil {
			raw = fmt.Sprintf("%d", pos)
			if j, sc, ok := cal.ByID(s.ID); ok {
				joint = j.String()
				deg = fmt.Sprintf("%.1f", sc.Degrees(pos))
			}
		}
		rows = append(rows, []string{fmt.Sprintf("%d", s.ID), fmt.Sprintf("%v", s.Model), joint, raw, deg})
	}

	headerCell := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Padding(0, 1)
	cell := lipgloss.NewStyle().Padding(0, 1)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers("ID", "Model", "Joint", "Raw", "Degrees").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerCell
			}
			return cell
		}).
		Render()
}
