package swerve

import "github.com/golang/geo/r2"

// Module positions of a four-module rectangular chassis, in the order RectangularLayout returns
// them. X points forward and Y to the left.
const (
	FrontLeft = iota
	BackLeft
	BackRight
	FrontRight
)

// ModuleNames are the display names of the rectangular layout, indexed like RectangularLayout.
var ModuleNames = [...]string{"front_left", "back_left", "back_right", "front_right"}

// RectangularLayout returns the four module offsets of a rectangle centered on the center of
// rotation, with modules halfLength ahead of/behind it and halfWidth to either side.
func RectangularLayout(halfLength, halfWidth float64) []r2.Point {
	return []r2.Point{
		FrontLeft:  {X: halfLength, Y: halfWidth},
		BackLeft:   {X: -halfLength, Y: halfWidth},
		BackRight:  {X: -halfLength, Y: -halfWidth},
		FrontRight: {X: halfLength, Y: -halfWidth},
	}
}
