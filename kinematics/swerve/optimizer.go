package swerve

import (
	"github.com/thunderstorm509/dashboard/utils"
)

// maxSteerDeg is the largest rotation the optimizer allows between two commanded headings.
// A delta of exactly this much is not flipped.
const maxSteerDeg = 90.0

// HeadingOptimizer removes needless steering reversals for a single module. A wheel moving at
// +s along θ is indistinguishable from one moving at -s along θ+180°; the optimizer always
// picks whichever representation is within 90° of the heading it returned last.
//
// The comparison happens in degrees, the unit telemetry publishes, so that a delta of exactly
// 90° is representable and stays a tie.
//
// The zero value is ready to use with a remembered heading of 0. A HeadingOptimizer is
// stateful and not safe for concurrent use; give each module its own.
type HeadingOptimizer struct {
	lastDeg float64
}

// NewHeadingOptimizer returns an optimizer seeded with the given heading in degrees.
func NewHeadingOptimizer(initialDeg float64) *HeadingOptimizer {
	return &HeadingOptimizer{lastDeg: utils.NormalizeDeg(initialDeg)}
}

// NewHeadingOptimizers returns n independent optimizers, one per module.
func NewHeadingOptimizers(n int) []*HeadingOptimizer {
	opts := make([]*HeadingOptimizer, n)
	for i := range opts {
		opts[i] = &HeadingOptimizer{}
	}
	return opts
}

// OptimizeDegrees returns the adjusted (speed, heading) for an observation and remembers the
// adjusted heading. The returned heading is in (-180, 180].
//
// Non-finite input is handed back untouched and does not advance the remembered heading.
func (o *HeadingOptimizer) OptimizeDegrees(speedMPS, headingDeg float64) (float64, float64) {
	if !utils.IsFinite(speedMPS, headingDeg) {
		return speedMPS, headingDeg
	}

	adjustedSpeed, adjustedDeg := speedMPS, utils.NormalizeDeg(headingDeg)
	delta := utils.NormalizeDeg(headingDeg - o.lastDeg)
	if delta > maxSteerDeg || delta < -maxSteerDeg {
		adjustedSpeed = -speedMPS
		adjustedDeg = utils.NormalizeDeg(headingDeg + 180)
	}
	o.lastDeg = adjustedDeg
	return adjustedSpeed, adjustedDeg
}

// Optimize is OptimizeDegrees for a ModuleState. The heading goes through a radians to degrees
// conversion that rounds, so a turn of exactly 90 degrees may land either side of the flip
// threshold. Callers that need exact tie handling should use OptimizeDegrees.
func (o *HeadingOptimizer) Optimize(observed ModuleState) ModuleState {
	speed, deg := o.OptimizeDegrees(observed.SpeedMPS, utils.RadToDeg(observed.Heading))
	return ModuleState{SpeedMPS: speed, Heading: utils.DegToRad(deg)}
}

// Last returns the remembered heading in degrees without changing it.
func (o *HeadingOptimizer) Last() float64 {
	return o.lastDeg
}

// Reset replaces the remembered heading.
func (o *HeadingOptimizer) Reset(headingDeg float64) {
	o.lastDeg = utils.NormalizeDeg(headingDeg)
}
