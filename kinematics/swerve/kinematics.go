package swerve

import (
	"math"

	"github.com/golang/geo/r2"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const (
	// unknowns solved for: vx, vy, omega.
	numUnknowns = 3
	// singular values below this fraction of the largest are treated as zero.
	rankTolerance = 1e-9
	// speeds below this have no meaningful heading.
	stoppedSpeedMPS = 1e-12
)

// Solver is the least-squares forward kinematics of a rigid chassis carrying N swerve modules.
//
// For a chassis moving at (vx, vy) and turning at ω, the contact point of a module at offset
// (rx, ry) moves at (vx - ω·ry, vy + ω·rx). Stacking every module gives the 2N×3 system
// A·[vx vy ω]ᵀ = b, where A depends only on the offsets. The pseudoinverse of A is computed once
// in NewSolver, so each frame costs O(N).
//
// A Solver is immutable after construction and safe for concurrent use.
type Solver struct {
	offsets []r2.Point
	// 2N×3, kept for residuals.
	forward *mat.Dense
	// rows of the 3×2N pseudoinverse.
	inverse [numUnknowns][]float64
}

// NewSolver builds a solver for the given module offsets in meters. The order of offsets is the
// order module states must be passed in later. At least two distinct offsets are required.
func NewSolver(offsets []r2.Point) (*Solver, error) {
	n := len(offsets)
	if n == 0 {
		return nil, &DegenerateGeometryError{Reason: "no modules"}
	}

	forward := mat.NewDense(2*n, numUnknowns, nil)
	for i, offset := range offsets {
		forward.SetRow(2*i, []float64{1, 0, -offset.Y})
		forward.SetRow(2*i+1, []float64{0, 1, offset.X})
	}

	var svd mat.SVD
	if !svd.Factorize(forward, mat.SVDThin) {
		return nil, &DegenerateGeometryError{NumModules: n, Reason: "singular value decomposition failed"}
	}
	values := svd.Values(nil)
	rank := 0
	for _, v := range values {
		if v > values[0]*rankTolerance {
			rank++
		}
	}
	if n < 2 {
		return nil, &DegenerateGeometryError{
			NumModules: n, Rank: rank, Reason: "at least 2 modules are needed to observe rotation",
		}
	}
	if rank < numUnknowns {
		return nil, &DegenerateGeometryError{
			NumModules: n, Rank: rank, Reason: "module offsets are coincident",
		}
	}

	// A⁺ = V Σ⁻¹ Uᵀ
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)
	invValues := make([]float64, len(values))
	for i, s := range values {
		invValues[i] = 1 / s
	}
	var scaled, pinv mat.Dense
	scaled.Mul(&v, mat.NewDiagDense(len(invValues), invValues))
	pinv.Mul(&scaled, u.T())

	solver := &Solver{
		offsets: append([]r2.Point(nil), offsets...),
		forward: forward,
	}
	for row := range solver.inverse {
		solver.inverse[row] = mat.Row(nil, row, &pinv)
	}
	return solver, nil
}

// NumModules is the number of modules the solver was built for.
func (s *Solver) NumModules() int {
	return len(s.offsets)
}

// ToChassisVelocity returns the chassis velocity that best explains the module states in the
// least-squares sense. Non-finite states propagate into the result.
func (s *Solver) ToChassisVelocity(states []ModuleState) (ChassisVelocity, error) {
	if len(states) != len(s.offsets) {
		return ChassisVelocity{}, newStateCountError(len(s.offsets), len(states))
	}

	var x [numUnknowns]float64
	for i, state := range states {
		vel := state.Velocity()
		for row := range x {
			x[row] += s.inverse[row][2*i]*vel.X + s.inverse[row][2*i+1]*vel.Y
		}
	}
	return ChassisVelocity{VxMPS: x[0], VyMPS: x[1], OmegaRadPerSec: x[2]}, nil
}

// Residual is the root mean square of A·x - b for the least-squares fit of states. It is zero
// when every module agrees with a single rigid-body motion and grows with wheel slip or
// inconsistent telemetry.
func (s *Solver) Residual(states []ModuleState) (float64, error) {
	chassis, err := s.ToChassisVelocity(states)
	if err != nil {
		return 0, err
	}
	return s.ResidualOf(states, chassis)
}

// ResidualOf is Residual for a chassis velocity already solved from states, so callers that
// need both do a single solve.
func (s *Solver) ResidualOf(states []ModuleState, chassis ChassisVelocity) (float64, error) {
	if len(states) != len(s.offsets) {
		return 0, newStateCountError(len(s.offsets), len(states))
	}

	predicted := mat.NewVecDense(2*len(states), nil)
	predicted.MulVec(s.forward, mat.NewVecDense(numUnknowns, []float64{
		chassis.VxMPS, chassis.VyMPS, chassis.OmegaRadPerSec,
	}))
	diff := make([]float64, 2*len(states))
	for i, state := range states {
		vel := state.Velocity()
		diff[2*i] = predicted.AtVec(2*i) - vel.X
		diff[2*i+1] = predicted.AtVec(2*i+1) - vel.Y
	}
	return floats.Norm(diff, 2) / math.Sqrt(float64(len(diff))), nil
}

// ToModuleStates applies the rigid-body model forward, giving the state each module would
// report for the chassis velocity. Stopped modules report a heading of 0.
func (s *Solver) ToModuleStates(chassis ChassisVelocity) []ModuleState {
	return ModuleStatesFor(s.offsets, chassis)
}

// ModuleStatesFor is the rigid-body model for an arbitrary set of offsets, with no geometry
// checks.
func ModuleStatesFor(offsets []r2.Point, chassis ChassisVelocity) []ModuleState {
	states := make([]ModuleState, len(offsets))
	for i, offset := range offsets {
		vel := r2.Point{
			X: chassis.VxMPS - chassis.OmegaRadPerSec*offset.Y,
			Y: chassis.VyMPS + chassis.OmegaRadPerSec*offset.X,
		}
		speed := vel.Norm()
		if speed < stoppedSpeedMPS {
			continue
		}
		states[i] = ModuleState{SpeedMPS: speed, Heading: math.Atan2(vel.Y, vel.X)}
	}
	return states
}
