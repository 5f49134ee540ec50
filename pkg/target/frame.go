package target

import "github.com/golang/geo/r3"

// FrameCorrection maps a raw vision point into the solver frame before a
// solve: Offset is subtracted, then depth is scaled by 1 + DepthGain.
type FrameCorrection struct {
	Offset    r3.Vector `json:"offset"`
	DepthGain float64   `json:"depth_gain"`
}

// DefaultFrameCorrection shifts points 1.5 to the left and stretches depth
// by 17%, which the mounted camera needs to line up with the arm.
func DefaultFrameCorrection() FrameCorrection {
	return FrameCorrection{
		Offset:    r3.Vector{X: 1.5},
		DepthGain: 0.17,
	}
}

// Apply returns the corrected point.
func (c FrameCorrection) Apply(p r3.Vector) r3.Vector {
	p = p.Sub(c.Offset)
	p.Z += c.DepthGain * p.Z
	return p
}
