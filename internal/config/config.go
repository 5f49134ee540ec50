// Package config loads and saves pickplace.json.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/golang/geo/r3"

	"github.com/gwillem/pickplace/pkg/ik"
	"github.com/gwillem/pickplace/pkg/motion"
	"github.com/gwillem/pickplace/pkg/robot"
	"github.com/gwillem/pickplace/pkg/target"
	"github.com/gwillem/pickplace/pkg/voice"
)

const DefaultConfigFile = "pickplace.json"

// Config holds the pickplace configuration
type Config struct {
	Arm      robot.ArmConfig        `json:"actuator"`
	Geometry robot.LinkLengths      `json:"geometry"`
	Limits   ik.Limits              `json:"limits"`
	Frame    target.FrameCorrection `json:"frame"`
	Motion   Motion                 `json:"motion"`
	Voice    Voice                  `json:"voice"`
	Target   Target                 `json:"target"`
}

// Motion holds joint move pacing.
type Motion struct {
	StepSize    float64 `json:"step_size"`
	StepDelayMS int     `json:"step_delay_ms"`
}

// Timing converts m for the motion sequencer.
func (m Motion) Timing() motion.Timing {
	return motion.Timing{
		StepSize:  m.StepSize,
		StepDelay: time.Duration(m.StepDelayMS) * time.Millisecond,
	}
}

// Listener kinds.
const (
	ListenerStdin     = "stdin"
	ListenerWebSocket = "websocket"
)

// DefaultListenerURL is where the stock config expects a speech
// recognizer to publish phrases.
const DefaultListenerURL = "ws://localhost:8765/phrases"

// Voice configures the activation trigger and spoken feedback.
type Voice struct {
	Trigger  string `json:"trigger"`
	Listener string `json:"listener"`
	URL      string `json:"url,omitempty"`
	// Speaker is a synthesizer command line, e.g. ["espeak", "-s", "140"].
	// Empty logs phrases instead.
	Speaker []string `json:"speaker,omitempty"`
}

// Provider kinds.
const (
	ProviderStdin = "stdin"
	ProviderFile  = "file"
	ProviderFixed = "fixed"
)

// Target configures where target points come from.
type Target struct {
	Provider     string        `json:"provider"`
	Path         string        `json:"path,omitempty"`
	Fixed        r3.Vector     `json:"fixed"`
	Format       target.Format `json:"format"`
	Scale        float64       `json:"scale"`
	CameraOffset r3.Vector     `json:"camera_offset"`
	CameraMatrix string        `json:"camera_matrix,omitempty"`
	Distortion   string        `json:"distortion,omitempty"`
}

// Default returns the configuration of the stock arm: PCA9685 hobby
// servos, inch link lengths, targets in metres on stdin and phrases from a
// local speech recognizer.
func Default() *Config {
	return &Config{
		Arm: robot.ArmConfig{
			Backend: robot.BackendPCA9685,
			PCA9685: robot.DefaultPCA9685Config(),
		},
		Geometry: robot.DefaultLinkLengths(),
		Limits:   ik.DefaultLimits(),
		Frame:    target.DefaultFrameCorrection(),
		Motion: Motion{
			StepSize:    motion.DefaultStepSize,
			StepDelayMS: int(motion.DefaultStepDelay / time.Millisecond),
		},
		Voice: Voice{
			Trigger:  voice.DefaultTrigger,
			Listener: ListenerWebSocket,
			URL:      DefaultListenerURL,
		},
		Target: Target{
			Provider: ProviderStdin,
			Format:   target.FormatXYZ,
			Scale:    target.MetersToInches,
		},
	}
}

// LoadFrom loads configuration from a specific file. Fields missing from
// the file keep their defaults.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Geometry.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := cfg.Arm.Validate(); err != nil {
		return nil, fmt.Errorf("%s: actuator: %w", path, err)
	}
	return cfg, nil
}

// LoadOrDefault loads path if it exists and returns defaults otherwise.
func LoadOrDefault(path string) (*Config, error) {
	if !ExistsAt(path) {
		return Default(), nil
	}
	return LoadFrom(path)
}

// SaveTo saves configuration to a specific file
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ExistsAt returns true if path exists
func ExistsAt(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// StdinConflict reports whether the voice listener and the target provider
// would both read stdin.
func (c *Config) StdinConflict() bool {
	return isStdin(c.Voice.Listener) && isStdin(c.Target.Provider)
}

func isStdin(kind string) bool {
	return kind == "" || kind == ListenerStdin
}
