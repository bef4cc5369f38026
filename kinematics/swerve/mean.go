package swerve

import (
	"math"

	"github.com/golang/geo/r2"
)

// centroidTolerance is how far, in meters, the module centroid may sit from the center of
// rotation before the mean reduction is refused.
const centroidTolerance = 1e-9

// MeanSolver estimates only the linear chassis velocity, as the unweighted mean of the module
// velocity vectors. This equals the least-squares (vx, vy) of Solver exactly when the module
// centroid is at the center of rotation, because the rotation column of A is then orthogonal
// to both translation columns. NewMeanSolver refuses any other layout. The returned
// OmegaRadPerSec is always 0.
type MeanSolver struct {
	offsets []r2.Point
}

// NewMeanSolver builds a MeanSolver. One module is enough as long as it sits at the center.
func NewMeanSolver(offsets []r2.Point) (*MeanSolver, error) {
	n := len(offsets)
	if n == 0 {
		return nil, &DegenerateGeometryError{Reason: "no modules"}
	}

	var centroid r2.Point
	for _, offset := range offsets {
		centroid = centroid.Add(offset)
	}
	centroid = centroid.Mul(1 / float64(n))
	if math.Abs(centroid.X) > centroidTolerance || math.Abs(centroid.Y) > centroidTolerance {
		return nil, &DegenerateGeometryError{
			NumModules: n,
			Rank:       2,
			Reason:     "module centroid is off the center of rotation, the mean does not apply",
		}
	}
	return &MeanSolver{offsets: append([]r2.Point(nil), offsets...)}, nil
}

// NumModules is the number of modules the solver was built for.
func (s *MeanSolver) NumModules() int {
	return len(s.offsets)
}

// ToChassisVelocity averages the module velocity vectors.
func (s *MeanSolver) ToChassisVelocity(states []ModuleState) (ChassisVelocity, error) {
	if len(states) != len(s.offsets) {
		return ChassisVelocity{}, newStateCountError(len(s.offsets), len(states))
	}

	var sum r2.Point
	for _, state := range states {
		sum = sum.Add(state.Velocity())
	}
	mean := sum.Mul(1 / float64(len(states)))
	return ChassisVelocity{VxMPS: mean.X, VyMPS: mean.Y}, nil
}

// ToModuleStates applies the rigid-body model forward, see Solver.ToModuleStates.
func (s *MeanSolver) ToModuleStates(chassis ChassisVelocity) []ModuleState {
	return ModuleStatesFor(s.offsets, chassis)
}
