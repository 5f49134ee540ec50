package robot

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/multierr"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/pca9685"
	"periph.io/x/host/v3"
)

const (
	pcaResolution = 4096 // 12-bit counter per PWM period
	pcaChannels   = 16
)

// PCA9685Config configures a 16-channel PCA9685 PWM board driving hobby
// servos, one channel per joint.
type PCA9685Config struct {
	Bus         string        `json:"bus,omitempty"`
	Address     uint16        `json:"address,omitempty"`
	FrequencyHz int           `json:"frequency_hz,omitempty"`
	MinPulseUS  int           `json:"min_pulse_us,omitempty"`
	MaxPulseUS  int           `json:"max_pulse_us,omitempty"`
	Channels    map[Joint]int `json:"channels,omitempty"`
}

// DefaultPCA9685Config mirrors the usual hobby-servo board setup: address
// 0x40, 50 Hz, 750-2250µs pulses across 180°, channel n drives joint n.
func DefaultPCA9685Config() PCA9685Config {
	channels := make(map[Joint]int, NumJoints)
	for _, j := range AllJoints() {
		channels[j] = int(j)
	}
	return PCA9685Config{
		Address:     pca9685.I2CAddr,
		FrequencyHz: 50,
		MinPulseUS:  750,
		MaxPulseUS:  2250,
		Channels:    channels,
	}
}

func (c PCA9685Config) withDefaults() PCA9685Config {
	d := DefaultPCA9685Config()
	if c.Address == 0 {
		c.Address = d.Address
	}
	if c.FrequencyHz <= 0 {
		c.FrequencyHz = d.FrequencyHz
	}
	if c.MinPulseUS <= 0 {
		c.MinPulseUS = d.MinPulseUS
	}
	if c.MaxPulseUS <= 0 {
		c.MaxPulseUS = d.MaxPulseUS
	}
	if len(c.Channels) == 0 {
		c.Channels = d.Channels
	}
	return c
}

// pwmWriter is the part of pca9685.Dev the actuator needs.
type pwmWriter interface {
	SetPwm(channel int, on, off gpio.Duty) error
}

// PCA9685Actuator drives hobby servos through a PCA9685 board.
type PCA9685Actuator struct {
	cfg  PCA9685Config
	dev  pwmWriter
	conn i2c.BusCloser
}

// NewPCA9685Actuator initialises the host drivers, opens the I²C bus and
// sets the PWM frequency.
func NewPCA9685Actuator(cfg PCA9685Config) (*PCA9685Actuator, error) {
	cfg = cfg.withDefaults()
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init host drivers: %w", err)
	}
	conn, err := i2creg.Open(cfg.Bus)
	if err != nil {
		return nil, fmt.Errorf("open i2c bus %q: %w", cfg.Bus, err)
	}
	dev, err := pca9685.NewI2C(conn, cfg.Address)
	if err != nil {
		return nil, multierr.Combine(fmt.Errorf("open pca9685 at %#x: %w", cfg.Address, err), conn.Close())
	}
	if err := dev.SetPwmFreq(physic.Frequency(cfg.FrequencyHz) * physic.Hertz); err != nil {
		return nil, multierr.Combine(fmt.Errorf("set pwm frequency: %w", err), conn.Close())
	}
	return &PCA9685Actuator{cfg: cfg, dev: dev, conn: conn}, nil
}

func newPCA9685WithWriter(cfg PCA9685Config, w pwmWriter) *PCA9685Actuator {
	return &PCA9685Actuator{cfg: cfg.withDefaults(), dev: w}
}

// pulseCounts converts an angle to the PWM off-count for one period.
func (a *PCA9685Actuator) pulseCounts(deg float64) gpio.Duty {
	deg = ServoRange.Clamp(deg)
	span := float64(a.cfg.MaxPulseUS - a.cfg.MinPulseUS)
	pulseUS := float64(a.cfg.MinPulseUS) + deg/ServoMax*span
	periodUS := 1e6 / float64(a.cfg.FrequencyHz)
	return gpio.Duty(math.Round(pulseUS / periodUS * pcaResolution))
}

// SetAngle writes the pulse width for deg on the joint's channel.
func (a *PCA9685Actuator) SetAngle(ctx context.Context, j Joint, deg float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ch, ok := a.cfg.Channels[j]
	if !ok || ch < 0 || ch >= pcaChannels {
		return fmt.Errorf("%w: %s has no pwm channel", ErrUnknownJoint, j)
	}
	return a.dev.SetPwm(ch, 0, a.pulseCounts(deg))
}

// Close releases the I²C bus.
func (a *PCA9685Actuator) Close() error {
	if a.conn == nil {
		return nil
	}
	return a.conn.Close()
}
