package utils

import "math"

// DegToRad converts degrees to radians.
func DegToRad(degrees float64) float64 {
	return degrees * math.Pi / 180
}

// RadToDeg converts radians to degrees.
func RadToDeg(radians float64) float64 {
	return radians * 180 / math.Pi
}

// NormalizeDeg wraps an angle into (-180, 180]. Every step is exact in floating point, so an
// input already inside the range comes back unchanged.
func NormalizeDeg(ang float64) float64 {
	wrapped := math.Mod(ang, 360)
	switch {
	case wrapped <= -180:
		wrapped += 360
	case wrapped > 180:
		wrapped -= 360
	}
	return wrapped
}

// IsFinite reports whether all of the given values are neither NaN nor infinite.
func IsFinite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
