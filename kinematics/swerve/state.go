// Package swerve implements forward kinematics for a swerve drive: recovering the chassis
// velocity from per-module wheel observations, and the per-module heading optimization that
// keeps a wheel from steering more than a quarter turn between frames.
//
// Headings are radians in the robot frame, counter-clockwise from +X. Module offsets use the
// same axes, measured in meters from the center of rotation.
package swerve

import (
	"fmt"
	"math"

	"github.com/golang/geo/r2"

	"github.com/thunderstorm509/dashboard/utils"
)

// ModuleState is the observed motion of one module: a signed wheel speed along a heading.
// A negative speed means the contact point moves opposite to Heading.
type ModuleState struct {
	SpeedMPS float64
	Heading  float64
}

// ModuleStateFromDegrees builds a ModuleState from a heading in degrees, as published in telemetry.
func ModuleStateFromDegrees(speedMPS, headingDeg float64) ModuleState {
	return ModuleState{SpeedMPS: speedMPS, Heading: utils.DegToRad(headingDeg)}
}

// HeadingDeg returns the heading in degrees.
func (ms ModuleState) HeadingDeg() float64 {
	return utils.RadToDeg(ms.Heading)
}

// Velocity is the velocity vector of the module's contact point.
func (ms ModuleState) Velocity() r2.Point {
	return r2.Point{X: ms.SpeedMPS * math.Cos(ms.Heading), Y: ms.SpeedMPS * math.Sin(ms.Heading)}
}

func (ms ModuleState) String() string {
	return fmt.Sprintf("%.3f m/s @ %.1f°", ms.SpeedMPS, ms.HeadingDeg())
}

// ChassisVelocity is the robot body's velocity in its own frame.
type ChassisVelocity struct {
	VxMPS          float64
	VyMPS          float64
	OmegaRadPerSec float64
}

// Linear returns the translational part as a vector.
func (cv ChassisVelocity) Linear() r2.Point {
	return r2.Point{X: cv.VxMPS, Y: cv.VyMPS}
}

// Speed is the magnitude of the translational velocity.
func (cv ChassisVelocity) Speed() float64 {
	return cv.Linear().Norm()
}

func (cv ChassisVelocity) String() string {
	return fmt.Sprintf("vx=%.3f m/s vy=%.3f m/s ω=%.3f rad/s", cv.VxMPS, cv.VyMPS, cv.OmegaRadPerSec)
}

// ChassisEstimator turns one frame of module states into a chassis velocity. States must be
// given in the same order as the module offsets the estimator was built with.
type ChassisEstimator interface {
	ToChassisVelocity(states []ModuleState) (ChassisVelocity, error)
	NumModules() int
}
