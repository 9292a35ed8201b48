package playlist

import (
	"fmt"
	"math"
	"strings"
)

// CurveShape names a target-energy trajectory over the playlist's length.
type CurveShape string

const (
	// CurveAscending builds steadily from warm-up to peak.
	CurveAscending CurveShape = "ascending"
	// CurveDescending winds down from peak to close.
	CurveDescending CurveShape = "descending"
	// CurvePeak builds to a mid-set peak and comes back down.
	CurvePeak CurveShape = "peak"
	// CurveWave alternates between two peaks with a mid-set dip.
	CurveWave CurveShape = "wave"
	// CurveFlat holds a steady mid energy.
	CurveFlat CurveShape = "flat"
)

// Energy band endpoints shared by the shaped curves.
const (
	curveLow       = 0.3
	curveHigh      = 0.9
	curveFlatLevel = 0.6
)

// ParseCurveShape validates a user-supplied shape name.
func ParseCurveShape(value string) (CurveShape, error) {
	shape := CurveShape(strings.ToLower(strings.TrimSpace(value)))
	switch shape {
	case CurveAscending, CurveDescending, CurvePeak, CurveWave, CurveFlat:
		return shape, nil
	default:
		return "", fmt.Errorf("playlist: unknown energy curve %q", value)
	}
}

// Target maps playlist position t in [0,1] to the energy the set should be
// at. Positions outside [0,1] clamp to the endpoints.
func (s CurveShape) Target(t float64) float64 {
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	switch s {
	case CurveAscending:
		return curveLow + (curveHigh-curveLow)*t
	case CurveDescending:
		return curveHigh - (curveHigh-curveLow)*t
	case CurvePeak:
		if t < 0.5 {
			return curveLow + (curveHigh-curveLow)*2*t
		}
		return curveHigh - (curveHigh-curveLow)*2*(t-0.5)
	case CurveWave:
		// Two peaks at t=0.25 and t=0.75, dips at the ends and midpoint.
		return curveFlatLevel - (curveHigh-curveFlatLevel)*math.Cos(4*math.Pi*t)
	default:
		return curveFlatLevel
	}
}
