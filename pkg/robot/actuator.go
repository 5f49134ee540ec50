package robot

import "context"

// Actuator drives servo channels to absolute angles. It is fire-and-forget:
// a nil error means the command was handed to the hardware, not that the
// joint has arrived.
type Actuator interface {
	SetAngle(ctx context.Context, j Joint, deg float64) error
	Close() error
}

// Enabler is implemented by actuators that hold torque only when enabled.
type Enabler interface {
	Enable(ctx context.Context) error
	Disable(ctx context.Context) error
}
