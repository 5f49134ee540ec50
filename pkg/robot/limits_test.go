package robot

import (
	"errors"
	"testing"
)

func TestShoulderLimitsFor(t *testing.T) {
	tests := []struct {
		elbow   float64
		wantMax float64
	}{
		{elbow: 60, wantMax: 120},
		{elbow: 100, wantMax: 120},
		{elbow: 100.5, wantMax: 150},
		{elbow: 180, wantMax: 150},
	}

	for _, tt := range tests {
		got := ShoulderLimitsFor(tt.elbow)
		if got.Max != tt.wantMax {
			t.Errorf("ShoulderLimitsFor(%v).Max = %v, want %v", tt.elbow, got.Max, tt.wantMax)
		}
		if got.Min != ServoMin {
			t.Errorf("ShoulderLimitsFor(%v).Min = %v, want %v", tt.elbow, got.Min, ServoMin)
		}
	}
}

func TestElbowLimitsFor_FloorIndependentOfShoulder(t *testing.T) {
	for _, shoulder := range []float64{0, 30, 59.5, 60, 120, 180} {
		got := ElbowLimitsFor(shoulder)
		if got.Min != 60 || got.Max != 180 {
			t.Errorf("ElbowLimitsFor(%v) = %+v, want [60, 180]", shoulder, got)
		}
	}
}

func TestCoupledLimits_FollowLivePositions(t *testing.T) {
	p := HomePositions()
	p[Elbow] = 80
	if got := CoupledLimits(p)[Shoulder].Max; got != 120 {
		t.Errorf("shoulder max with low elbow = %v, want 120", got)
	}

	p[Elbow] = 130
	if got := CoupledLimits(p)[Shoulder].Max; got != 150 {
		t.Errorf("shoulder max with raised elbow = %v, want 150", got)
	}

	l := CoupledLimits(p)
	if l[Gripper] != StaticLimits()[Gripper] || l[Wrist] != StaticLimits()[Wrist] {
		t.Error("static joints should keep their static limits")
	}
}

func TestLimits_Check(t *testing.T) {
	l := Limits{Min: 0, Max: 180}
	if err := l.Check(Base, 180); err != nil {
		t.Errorf("Check(180) = %v, want nil", err)
	}
	if err := l.Check(Base, 200); !errors.Is(err, ErrAngleOutOfRange) {
		t.Errorf("Check(200) = %v, want ErrAngleOutOfRange", err)
	}
	if got := l.Clamp(-5); got != 0 {
		t.Errorf("Clamp(-5) = %v, want 0", got)
	}
}

func TestParseJoint(t *testing.T) {
	for _, j := range AllJoints() {
		got, err := ParseJoint(j.String())
		if err != nil || got != j {
			t.Errorf("ParseJoint(%q) = %v, %v", j.String(), got, err)
		}
	}
	if _, err := ParseJoint("tail"); !errors.Is(err, ErrUnknownJoint) {
		t.Errorf("ParseJoint(tail) error = %v, want ErrUnknownJoint", err)
	}
	if Joint(5).Valid() {
		t.Error("joint 5 should be invalid")
	}
}
