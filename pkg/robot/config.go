package robot

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/multierr"
)

// Backend selects the actuator implementation.
type Backend string

// Supported actuator backends.
const (
	BackendPCA9685 Backend = "pca9685"
	BackendFeetech Backend = "feetech"
	BackendSim     Backend = "sim"
)

// ArmConfig holds the actuator configuration for the arm.
type ArmConfig struct {
	Backend     Backend       `json:"backend"`
	PCA9685     PCA9685Config `json:"pca9685,omitempty"`
	Port        string        `json:"port,omitempty"`
	BaudRate    int           `json:"baud_rate,omitempty"`
	Calibration Calibration   `json:"calibration,omitempty"`
	// CalibrationFile is read when Calibration is empty.
	CalibrationFile string    `json:"calibration_file,omitempty"`
	Initial         Positions `json:"initial,omitempty"`
}

// PositionReader is implemented by actuators that can report where the
// joints are.
type PositionReader interface {
	ReadAngles(ctx context.Context) (Positions, error)
}

// Validate checks the seeded joint angles.
func (a *ArmConfig) Validate() error {
	for j, v := range a.Initial {
		if !j.Valid() {
			return fmt.Errorf("initial: %w: %d", ErrUnknownJoint, int(j))
		}
		if err := ServoRange.Check(j, v); err != nil {
			return fmt.Errorf("initial: %w", err)
		}
	}
	return nil
}

// ResolveCalibration returns the inline calibration, falling back to
// CalibrationFile.
func (a *ArmConfig) ResolveCalibration() (Calibration, error) {
	if len(a.Calibration) > 0 || a.CalibrationFile == "" {
		return a.Calibration, nil
	}
	return LoadCalibration(a.CalibrationFile)
}

// OpenActuator creates the actuator selected by the config.
func OpenActuator(cfg ArmConfig) (Actuator, error) {
	switch cfg.Backend {
	case BackendPCA9685, "":
		return NewPCA9685Actuator(cfg.PCA9685)
	case BackendFeetech:
		if cfg.Port == "" {
			return nil, errors.New("feetech backend needs a serial port")
		}
		cal, err := cfg.ResolveCalibration()
		if err != nil {
			return nil, err
		}
		return NewFeetechActuator(cfg.Port, cfg.BaudRate, cal)
	case BackendSim:
		return NewRecorder(), nil
	default:
		return nil, fmt.Errorf("unknown actuator backend %q", cfg.Backend)
	}
}

// Open creates the actuator and wraps it in an Arm.
func Open(ctx context.Context, cfg ArmConfig) (*Arm, error) {
	act, err := OpenActuator(cfg)
	if err != nil {
		return nil, err
	}
	arm, err := newArmFrom(ctx, act, cfg.Initial)
	if err != nil {
		return nil, multierr.Combine(err, act.Close())
	}
	return arm, nil
}

// newArmFrom seeds the arm from the actuator when it can report positions.
// Read angles win over configured ones.
func newArmFrom(ctx context.Context, act Actuator, initial Positions) (*Arm, error) {
	r, ok := act.(PositionReader)
	if !ok {
		return NewArm(act, initial), nil
	}
	read, err := r.ReadAngles(ctx)
	if err != nil {
		return nil, fmt.Errorf("seed positions: %w", err)
	}
	seed := make(Positions, len(initial)+len(read))
	for j, v := range initial {
		seed[j] = v
	}
	for j, v := range read {
		seed[j] = v
	}
	return NewArm(act, seed), nil
}
