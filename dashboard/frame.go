package dashboard

import (
	"fmt"

	"github.com/golang/geo/r2"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/thunderstorm509/dashboard/kinematics/swerve"
	"github.com/thunderstorm509/dashboard/telemetry"
)

// ModuleFrame is one module within a Frame.
type ModuleFrame struct {
	Name string
	Raw  telemetry.Sample
	// Adjusted is the state after heading optimization.
	Adjusted swerve.ModuleState
	// SpeedFraction is the adjusted speed over the configured max speed, signed like it.
	SpeedFraction float64
}

// Frame is everything shown for one update.
type Frame struct {
	Index   uint64
	Modules []ModuleFrame
	Chassis swerve.ChassisVelocity
	// ChassisFraction is the linear chassis velocity over the configured max speed.
	ChassisFraction r2.Point
	Residual        float64
	HasResidual     bool
	// AverageSpeedMPS is the mean chassis speed over roughly the last second of frames.
	AverageSpeedMPS float64
	Arm             telemetry.ArmSample
}

// String prints a table with a row per module followed by the chassis estimate and, when the
// robot publishes one, the arm.
func (f Frame) String() string {
	t := table.NewWriter()
	t.SetTitle(fmt.Sprintf("frame %d", f.Index))
	t.AppendHeader(table.Row{"#", "Module", "Angle", "Velocity", "Heading", "Speed", "Fraction"})
	for i, module := range f.Modules {
		raw := fmt.Sprintf("%.1f°", module.Raw.AngleDeg)
		velocity := fmt.Sprintf("%.3f", module.Raw.VelocityMPS)
		if !module.Raw.Present {
			raw, velocity = raw+" (missing)", velocity+" (missing)"
		}
		fraction := ""
		if module.Adjusted.SpeedMPS != 0 {
			fraction = fmt.Sprintf("%.2f", module.SpeedFraction)
		}
		t.AppendRow(table.Row{
			i,
			module.Name,
			raw,
			velocity,
			fmt.Sprintf("%.1f°", module.Adjusted.HeadingDeg()),
			fmt.Sprintf("%.3f", module.Adjusted.SpeedMPS),
			fraction,
		})
	}
	residual := "n/a"
	if f.HasResidual {
		residual = fmt.Sprintf("%.4f", f.Residual)
	}
	t.AppendSeparator()
	t.AppendRow(table.Row{"", "chassis", f.Chassis.String(), "", "residual", residual,
		fmt.Sprintf("%.2f", f.ChassisFraction.Norm())})
	t.AppendRow(table.Row{"", "average", fmt.Sprintf("%.3f m/s", f.AverageSpeedMPS), "", "", "", ""})
	if f.Arm.Published {
		t.AppendRow(table.Row{"", "arm", fmt.Sprintf("%.1f°", f.Arm.PivotDeg), fmt.Sprintf("%.0f", f.Arm.Extension),
			"", "", ""})
	}
	return t.Render()
}
