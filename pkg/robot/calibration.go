package robot

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
)

// ServoCalibration maps a bus servo's raw position counts to joint degrees.
// RangeMin is the raw count at 0° and RangeMax the count at 180°.
type ServoCalibration struct {
	ID        int `json:"id"`
	DriveMode int `json:"drive_mode"`
	RangeMin  int `json:"range_min"`
	RangeMax  int `json:"range_max"`
}

// Calibration holds servo calibration for every joint.
type Calibration map[Joint]ServoCalibration

// DefaultCalibration assigns servo IDs 1-5 in joint order and maps the
// STS3215's 0-4095 counts over 0-360° so that 180° sits at count 2048.
func DefaultCalibration() Calibration {
	cal := make(Calibration, NumJoints)
	for _, j := range AllJoints() {
		cal[j] = ServoCalibration{ID: int(j) + 1, RangeMin: 0, RangeMax: 2048}
	}
	return cal
}

// LoadCalibration loads calibration data from a JSON file.
func LoadCalibration(path string) (Calibration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read calibration file: %w", err)
	}

	var cal Calibration
	if err := json.Unmarshal(data, &cal); err != nil {
		return nil, fmt.Errorf("parse calibration JSON: %w", err)
	}
	return cal, nil
}

// Degrees converts a raw servo position to a joint angle in [0, 180].
func (c ServoCalibration) Degrees(raw int) float64 {
	rangeSize := float64(c.RangeMax - c.RangeMin)
	if rangeSize == 0 {
		return 0
	}
	deg := float64(raw-c.RangeMin) / rangeSize * ServoMax
	if c.DriveMode == 1 {
		deg = ServoMax - deg
	}
	return deg
}

// Raw converts a joint angle in [0, 180] to a raw servo position.
func (c ServoCalibration) Raw(deg float64) int {
	if c.DriveMode == 1 {
		deg = ServoMax - deg
	}
	rangeSize := float64(c.RangeMax - c.RangeMin)
	return int(math.Round(deg/ServoMax*rangeSize)) + c.RangeMin
}

// ServoIDs returns the servo IDs for all joints in the calibration.
func (c Calibration) ServoIDs() []int {
	ids := make([]int, 0, len(c))
	// AllJoints keeps the order stable
	for _, j := range AllJoints() {
		if sc, ok := c[j]; ok {
			ids = append(ids, sc.ID)
		}
	}
	return ids
}

// ByID returns the joint and calibration for a given servo ID.
func (c Calibration) ByID(id int) (Joint, ServoCalibration, bool) {
	for j, sc := range c {
		if sc.ID == id {
			return j, sc, true
		}
	}
	return 0, ServoCalibration{}, false
}
