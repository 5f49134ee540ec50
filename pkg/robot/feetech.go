package robot

import (
	"context"
	"fmt"
	"time"

	"github.com/hipsterbrown/feetech-servo/feetech"
)

// DefaultBaudRate is the factory baud rate of STS bus servos.
const DefaultBaudRate = 1_000_000

var _ PositionReader = (*FeetechActuator)(nil)

// FeetechActuator drives Feetech STS bus servos on a shared serial bus.
type FeetechActuator struct {
	bus         *feetech.Bus
	group       *feetech.ServoGroup
	calibration Calibration
}

// NewFeetechActuator opens the serial bus and groups the calibrated servos.
func NewFeetechActuator(port string, baudRate int, cal Calibration) (*FeetechActuator, error) {
	if baudRate <= 0 {
		baudRate = DefaultBaudRate
	}
	if len(cal) == 0 {
		cal = DefaultCalibration()
	}

	bus, err := feetech.NewBus(feetech.BusConfig{
		Port:     port,
		BaudRate: baudRate,
		Protocol: feetech.ProtocolSTS,
		Timeout:  100 * time.Millisecond,
	})
	if err != nil {
		return nil, fmt.Errorf("open bus: %w", err)
	}

	group := feetech.NewServoGroupByIDs(bus, cal.ServoIDs()...)

	return &FeetechActuator{
		bus:         bus,
		group:       group,
		calibration: cal,
	}, nil
}

// Enable enables torque on all servos.
func (a *FeetechActuator) Enable(ctx context.Context) error {
	return a.group.EnableAll(ctx)
}

// Disable disables torque on all servos.
func (a *FeetechActuator) Disable(ctx context.Context) error {
	return a.group.DisableAll(ctx)
}

// SetAngle writes one joint's target position.
func (a *FeetechActuator) SetAngle(ctx context.Context, j Joint, deg float64) error {
	cal, ok := a.calibration[j]
	if !ok {
		return fmt.Errorf("%w: %s has no calibration", ErrUnknownJoint, j)
	}
	if err := a.group.SetPositions(ctx, feetech.PositionMap{cal.ID: cal.Raw(deg)}); err != nil {
		return fmt.Errorf("write position: %w", err)
	}
	return nil
}

// ReadAngles reads the present position of every calibrated servo.
func (a *FeetechActuator) ReadAngles(ctx context.Context) (Positions, error) {
	rawPositions, err := a.group.Positions(ctx)
	if err != nil {
		return nil, fmt.Errorf("read positions: %w", err)
	}

	positions := make(Positions, len(rawPositions))
	for id, raw := range rawPositions {
		j, cal, ok := a.calibration.ByID(id)
		if !ok {
			continue
		}
		positions[j] = cal.Degrees(raw)
	}
	return positions, nil
}

// Close closes the bus connection.
func (a *FeetechActuator) Close() error {
	return a.bus.Close()
}
