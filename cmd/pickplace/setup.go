package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/hipsterbrown/feetech-servo/feetech"
	"go.bug.st/serial"

	"github.com/gwillem/pickplace/internal/config"
	"github.com/gwillem/pickplace/pkg/robot"
)

var (
	headerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	subHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	successStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type SetupCommand struct {
	Backend string `long:"backend" choice:"pca9685" choice:"feetech" choice:"sim" description:"Actuator backend (prompts if empty)"`
}

func (c *SetupCommand) Execute(args []string) error {
	fmt.Println(headerStyle.Render("Pickplace Setup"))
	fmt.Println(dimStyle.Render("━━━━━━━━━━━━━━━"))
	fmt.Println()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	backend := robot.Backend(c.Backend)
	if backend == "" {
		backend = chooseBackend(cfg.Arm.Backend)
	}

	switch backend {
	case robot.BackendFeetech:
		port, err := findFeetechArm()
		if err != nil {
			return err
		}
		fmt.Println()
		fmt.Println(subHeaderStyle.Render("━━━ Calibrating Arm ━━━"))
		fmt.Println()
		cal, err := calibrateArm(port)
		if err != nil {
			return err
		}
		cfg.Arm.Port = port
		cfg.Arm.BaudRate = robot.DefaultBaudRate
		cfg.Arm.Calibration = cal
	case robot.BackendPCA9685:
		if err := configurePCA9685(&cfg.Arm.PCA9685); err != nil {
			return err
		}
	case robot.BackendSim:
		fmt.Println("Using the simulated arm; commands are only recorded.")
	}
	cfg.Arm.Backend = backend

	if err := cfg.SaveTo(opts.Config); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	fmt.Println()
	fmt.Println(dimStyle.Render("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"))
	fmt.Println(successStyle.Render("Setup complete!"))
	fmt.Printf("Configuration saved to %s\n", opts.Config)
	fmt.Println()
	fmt.Println("Check a target with: " + headerStyle.Render("pickplace solve --at 0,0,8"))
	fmt.Println("Drive the arm with:  " + headerStyle.Render("pickplace teleop"))
	if cfg.Voice.Listener == config.ListenerWebSocket {
		fmt.Printf("pickplace run listens for phrases on %s\n", cfg.Voice.URL)
	}
	return nil
}

func chooseBackend(current robot.Backend) robot.Backend {
	backend := current
	if backend == "" {
		backend = robot.BackendPCA9685
	}
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[robot.Backend]().
				Title("How are the servos driven?").
				Options(
					huh.NewOption("PCA9685 PWM board (hobby servos over I²C)", robot.BackendPCA9685),
					huh.NewOption("Feetech bus servos (serial)", robot.BackendFeetech),
					huh.NewOption("Simulated (no hardware)", robot.BackendSim),
				).
				Value(&backend),
		),
	)
	if err := form.Run(); err != nil {
		fmt.Println()
		os.Exit(0)
	}
	return backend
}

func configurePCA9685(pc *robot.PCA9685Config) error {
	d := robot.DefaultPCA9685Config()
	bus := pc.Bus
	addr := fmt.Sprintf("0x%02x", d.Address)
	if pc.Address != 0 {
		addr = fmt.Sprintf("0x%02x", pc.Address)
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("I²C bus").
				Description("Leave empty for the first bus, e.g. /dev/i2c-1 or 1").
				Value(&bus),
			huh.NewInput().
				Title("Board address").
				Value(&addr).
				Validate(func(s string) error {
					_, err := parseAddress(s)
					return err
				}),
		),
	)
	if err := form.Run(); err != nil {
		fmt.Println()
		os.Exit(0)
	}

	a, err := parseAddress(addr)
	if err != nil {
		return err
	}
	pc.Bus = strings.TrimSpace(bus)
	pc.Address = a
	if pc.FrequencyHz == 0 {
		pc.FrequencyHz = d.FrequencyHz
	}
	if pc.MinPulseUS == 0 || pc.MaxPulseUS == 0 {
		pc.MinPulseUS, pc.MaxPulseUS = d.MinPulseUS, d.MaxPulseUS
	}
	if len(pc.Channels) == 0 {
		pc.Channels = d.Channels
	}
	return nil
}

func parseAddress(s string) (uint16, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 0, 16)
	if err != nil || v == 0 || v > 0x7f {
		return 0, fmt.Errorf("invalid I²C address %q", s)
	}
	return uint16(v), nil
}

type armInfo struct {
	port   string
	servos []feetech.FoundServo
	bus    *feetech.Bus
}

// findFeetechArm scans serial ports for a bus with servo IDs 1-5 and asks
// which one to use when there are several.
func findFeetechArm() (string, error) {
	fmt.Println("Scanning for bus servo arms...")
	fmt.Println()

	arms := findArms()
	if len(arms) == 0 {
		fmt.Println("No arm found.")
		fmt.Println("Make sure the arm is connected and powered on.")
		return "", errors.New("no feetech arm found")
	}
	if len(arms) == 1 {
		arms[0].bus.Close()
		return arms[0].port, nil
	}

	fmt.Printf("Found %d arms. Let's identify the right one...\n\n", len(arms))
	var port string
	for _, arm := range arms {
		if port != "" {
			arm.bus.Close()
			continue
		}
		if identifyArmWithWiggle(arm) {
			port = arm.port
		}
	}
	if port == "" {
		return "", errors.New("no arm selected")
	}
	return port, nil
}

func findArms() []armInfo {
	ports, err := serial.GetPortsList()
	if err != nil {
		fmt.Printf("Error listing ports: %v\n", err)
		return nil
	}

	var arms []armInfo
	for _, port := range ports {
		// Skip Bluetooth ports on macOS
		if strings.Contains(port, "Bluetooth") {
			continue
		}
		bus, servos, err := scanPort(port)
		if err != nil {
			continue
		}
		if isArm(servos) {
			fmt.Printf("  Found arm on %s\n", port)
			arms = append(arms, armInfo{port: port, servos: servos, bus: bus})
		} else {
			bus.Close()
		}
	}
	return arms
}

func scanPort(port string) (*feetech.Bus, []feetech.FoundServo, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	bus, err := feetech.NewBus(feetech.BusConfig{
		Port:     port,
		BaudRate: robot.DefaultBaudRate,
		Protocol: feetech.ProtocolSTS,
		Timeout:  100 * time.Millisecond,
	})
	if err != nil {
		return nil, nil, err
	}
	servos, err := bus.Scan(ctx, 1, robot.NumJoints)
	if err != nil {
		bus.Close()
		return nil, nil, err
	}
	return bus, servos, nil
}

// isArm reports whether the bus holds exactly one servo per joint.
func isArm(servos []feetech.FoundServo) bool {
	if len(servos) != robot.NumJoints {
		return false
	}
	ids := make(map[int]bool)
	for _, s := range servos {
		ids[s.ID] = true
	}
	for i := 1; i <= robot.NumJoints; i++ {
		if !ids[i] {
			return false
		}
	}
	return true
}

func identifyArmWithWiggle(arm armInfo) bool {
	defer arm.bus.Close()

	ctx := context.Background()

	// Wiggle the base servo
	var servo *feetech.Servo
	for _, s := range arm.servos {
		if s.ID == 1 {
			servo = feetech.NewServo(arm.bus, s.ID, s.Model)
			break
		}
	}
	if servo == nil {
		return false
	}

	originalPos, err := servo.Position(ctx)
	if err != nil {
		fmt.Printf("  Error reading position: %v\n", err)
		return false
	}
	if err := servo.Enable(ctx); err != nil {
		fmt.Printf("  Error enabling servo: %v\n", err)
		return false
	}

	fmt.Printf("\n  Wiggling arm on %s...\n", arm.port)

	wiggleAmount := 30
	moveTimeMs := 500
	servo.SetPositionWithTime(ctx, originalPos+wiggleAmount, moveTimeMs)
	time.Sleep(time.Duration(moveTimeMs+100) * time.Millisecond)
	servo.SetPositionWithTime(ctx, originalPos-wiggleAmount, moveTimeMs)
	time.Sleep(time.Duration(moveTimeMs+100) * time.Millisecond)
	servo.SetPositionWithTime(ctx, originalPos, moveTimeMs)
	time.Sleep(time.Duration(moveTimeMs+100) * time.Millisecond)
	servo.Disable(ctx)

	var use bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Use the arm on %s?", arm.port)).
				Description("The arm that just wiggled").
				Affirmative("Use it").
				Negative("Skip").
				Value(&use),
		),
	)
	if err := form.Run(); err != nil {
		fmt.Println()
		os.Exit(0)
	}
	return use
}

// calibrateArm records each joint's raw range while the user moves it by
// hand. The low end of the range becomes 0° and the high end 180°.
func calibrateArm(port string) (robot.Calibration, error) {
	fmt.Printf("Calibrating arm on %s\n", port)
	fmt.Println()

	bus, servos, err := scanPort(port)
	if err != nil {
		return nil, fmt.Errorf("connect to arm: %w", err)
	}
	defer bus.Close()
	if !isArm(servos) {
		return nil, fmt.Errorf("not a pickplace arm (expected %d servos with IDs 1-%d)", robot.NumJoints, robot.NumJoints)
	}

	servoMap := make(map[int]*feetech.Servo)
	for _, s := range servos {
		servoMap[s.ID] = feetech.NewServo(bus, s.ID, s.Model)
	}

	// Disable all servos so user can move arm freely
	ctx := context.Background()
	for _, servo := range servoMap {
		servo.Disable(ctx)
	}

	fmt.Println(subHeaderStyle.Render("Record range of motion"))
	fmt.Println("Move each joint to its minimum AND maximum positions.")
	fmt.Println()

	joints := robot.AllJoints()
	cur := make(map[robot.Joint]int)
	lo := make(map[robot.Joint]int)
	hi := make(map[robot.Joint]int)
	for _, j := range joints {
		pos, _ := servoMap[int(j)+1].Position(ctx)
		cur[j], lo[j], hi[j] = pos, pos, pos
	}

	p := tea.NewProgram(calibrationModel{joints: joints, servoMap: servoMap, cur: cur, lo: lo, hi: hi})
	finalModel, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("run calibration: %w", err)
	}
	cm := finalModel.(calibrationModel)

	cal := make(robot.Calibration)
	for _, j := range joints {
		cal[j] = robot.ServoCalibration{
			ID:       int(j) + 1,
			RangeMin: cm.lo[j],
			RangeMax: cm.hi[j],
		}
	}
	fmt.Println()
	fmt.Println("Arm calibrated.")
	return cal, nil
}

// Calibration TUI model
type calibrationModel struct {
	joints   []robot.Joint
	servoMap map[int]*feetech.Servo
	cur      map[robot.Joint]int
	lo       map[robot.Joint]int
	hi       map[robot.Joint]int
	quitting bool
}

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m calibrationModel) Init() tea.Cmd {
	return tick()
}

func (m calibrationModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter", "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

	case tickMsg:
		ctx := context.Background()
		for _, j := range m.joints {
			pos, err := m.servoMap[int(j)+1].Position(ctx)
			if err != nil {
				continue
			}
			m.cur[j] = pos
			if pos < m.lo[j] {
				m.lo[j] = pos
			}
			if pos > m.hi[j] {
				m.hi[j] = pos
			}
		}
		return m, tick()
	}

	return m, nil
}

func (m calibrationModel) View() string {
	if m.quitting {
		return ""
	}

	tableHeaderStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Padding(0, 1)
	tableJointStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Padding(0, 1)
	tableCellStyle := lipgloss.NewStyle().Padding(0, 1)
	tableCurrentStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Padding(0, 1)
	tableRangeGoodStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Padding(0, 1)
	tableRangeLowStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Padding(0, 1)

	rows := make([][]string, 0, len(m.joints))
	ranges := make([]int, 0, len(m.joints))
	for _, j := range m.joints {
		size := m.hi[j] - m.lo[j]
		ranges = append(ranges, size)
		rows = append(rows, []string{
			j.String(),
			strconv.Itoa(m.cur[j]),
			strconv.Itoa(m.lo[j]),
			strconv.Itoa(m.hi[j]),
			strconv.Itoa(size),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers("Joint", "Current", "Min", "Max", "Range").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			switch col {
			case 0:
				return tableJointStyle
			case 1:
				return tableCurrentStyle
			case 4:
				if row >= 0 && row < len(ranges) && ranges[row] > 500 {
					return tableRangeGoodStyle
				}
				return tableRangeLowStyle
			default:
				return tableCellStyle
			}
		})

	return t.Render() + "\n\n" + dimStyle.Render("Press Enter when done")
}
