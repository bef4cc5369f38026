package swerve

import (
	"fmt"

	"github.com/pkg/errors"
)

// DegenerateGeometryError is returned when a set of module offsets cannot support a well-posed
// solve: too few modules or a rank-deficient kinematics matrix.
type DegenerateGeometryError struct {
	NumModules int
	Rank       int
	Reason     string
}

func (e *DegenerateGeometryError) Error() string {
	return fmt.Sprintf("degenerate swerve geometry (%d modules, rank %d): %s", e.NumModules, e.Rank, e.Reason)
}

func newStateCountError(expected, actual int) error {
	return errors.Errorf("expected %d module states but got %d", expected, actual)
}
