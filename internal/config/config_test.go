package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang/geo/r3"

	"github.com/gwillem/pickplace/pkg/robot"
	"github.com/gwillem/pickplace/pkg/target"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Arm.Backend != robot.BackendPCA9685 {
		t.Errorf("Backend = %q", cfg.Arm.Backend)
	}
	if cfg.Geometry != robot.DefaultLinkLengths() {
		t.Errorf("Geometry = %+v", cfg.Geometry)
	}
	if cfg.Voice.Trigger != "activate now" {
		t.Errorf("Trigger = %q", cfg.Voice.Trigger)
	}
	timing := cfg.Motion.Timing()
	if timing.StepSize != 1 || timing.StepDelay != 20*time.Millisecond {
		t.Errorf("Timing = %+v", timing)
	}
	if cfg.Frame.Offset.X != 1.5 || cfg.Frame.DepthGain != 0.17 {
		t.Errorf("Frame = %+v", cfg.Frame)
	}
	if cfg.StdinConflict() {
		t.Errorf("default listener %q and provider %q both read stdin", cfg.Voice.Listener, cfg.Target.Provider)
	}
	if cfg.Voice.Listener != ListenerWebSocket || cfg.Voice.URL != DefaultListenerURL {
		t.Errorf("Voice = %+v", cfg.Voice)
	}
}

func TestStdinConflict(t *testing.T) {
	tests := []struct {
		listener, provider string
		want               bool
	}{
		{ListenerStdin, ProviderStdin, true},
		{"", "", true},
		{ListenerWebSocket, ProviderStdin, false},
		{ListenerStdin, ProviderFile, false},
		{ListenerStdin, ProviderFixed, false},
	}
	for _, tt := range tests {
		cfg := Default()
		cfg.Voice.Listener = tt.listener
		cfg.Target.Provider = tt.provider
		if got := cfg.StdinConflict(); got != tt.want {
			t.Errorf("StdinConflict(%q, %q) = %v, want %v", tt.listener, tt.provider, got, tt.want)
		}
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultConfigFile)
	cfg := Default()
	cfg.Arm = robot.ArmConfig{
		Backend:  robot.BackendFeetech,
		Port:     "/dev/ttyACM0",
		BaudRate: 1000000,
		Calibration: robot.Calibration{
			robot.Elbow: {ID: 3, RangeMin: 100, RangeMax: 3900},
		},
	}
	cfg.Target.Provider = ProviderFixed
	cfg.Target.Fixed = r3.Vector{X: 1, Z: 8}
	cfg.Frame = target.FrameCorrection{}

	if err := cfg.SaveTo(path); err != nil {
		t.Fatal(err)
	}
	got, err := LoadFrom(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Arm.Backend != robot.BackendFeetech || got.Arm.Port != "/dev/ttyACM0" {
		t.Errorf("Arm = %+v", got.Arm)
	}
	if c := got.Arm.Calibration[robot.Elbow]; c.ID != 3 || c.RangeMax != 3900 {
		t.Errorf("elbow calibration = %+v", c)
	}
	if got.Target.Fixed != (r3.Vector{X: 1, Z: 8}) {
		t.Errorf("Fixed = %v", got.Target.Fixed)
	}
	if got.Frame != (target.FrameCorrection{}) {
		t.Errorf("Frame = %+v, want zero correction", got.Frame)
	}
}

func TestLoadFillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.json")
	if err := os.WriteFile(path, []byte(`{"actuator":{"backend":"sim"},"motion":{"step_delay_ms":5}}`), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Arm.Backend != robot.BackendSim {
		t.Errorf("Backend = %q", cfg.Arm.Backend)
	}
	if cfg.Motion.StepDelayMS != 5 || cfg.Motion.StepSize != 1 {
		t.Errorf("Motion = %+v", cfg.Motion)
	}
	if cfg.Geometry != robot.DefaultLinkLengths() {
		t.Errorf("Geometry = %+v", cfg.Geometry)
	}
}

func TestLoadRejectsBadFiles(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte(`{`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFrom(bad); err == nil {
		t.Error("expected parse error")
	}
	geom := filepath.Join(dir, "geom.json")
	if err := os.WriteFile(geom, []byte(`{"geometry":{"l2":0}}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFrom(geom); err == nil {
		t.Error("expected geometry error")
	}
	if _, err := LoadFrom(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadRejectsOutOfRangeInitial(t *testing.T) {
	dir := t.TempDir()
	tests := map[string]string{
		"above":   `{"actuator":{"backend":"sim","initial":{"base":200}}}`,
		"below":   `{"actuator":{"backend":"sim","initial":{"wrist":-1}}}`,
		"unknown": `{"actuator":{"backend":"sim","initial":{"thumb":90}}}`,
	}
	for name, body := range tests {
		path := filepath.Join(dir, name+".json")
		if err := os.WriteFile(path, []byte(body), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadFrom(path); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}

	ok := filepath.Join(dir, "ok.json")
	if err := os.WriteFile(ok, []byte(`{"actuator":{"backend":"sim","initial":{"base":180,"gripper":0}}}`), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFrom(ok)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Arm.Initial[robot.Base] != 180 {
		t.Errorf("Initial = %v", cfg.Arm.Initial)
	}
}

func TestLoadOrDefault(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Target.Provider != ProviderStdin {
		t.Errorf("Provider = %q", cfg.Target.Provider)
	}
	if cfg.StdinConflict() {
		t.Error("stock config would refuse to run")
	}
}
