package traj

import "math"

// Heading is the on-wire orientation representation: a unit complex number
// encoding half the yaw angle, matching the planner's message format.
type Heading struct {
	Real float64
	Imag float64
}

// HeadingFromAngle converts a signed yaw angle in radians to the half-angle
// complex form. The conversion is exact up to floating point and inverts
// through Angle.
func HeadingFromAngle(angle float64) Heading {
	return Heading{
		Real: math.Cos(0.5 * angle),
		Imag: math.Sin(0.5 * angle),
	}
}

// Angle converts the heading back to a signed yaw angle in radians.
func (h Heading) Angle() float64 {
	return 2.0 * math.Atan2(h.Imag, h.Real)
}

// ShortestAngularDistance returns the signed angular distance from one angle
// to another taking the short way around, in (-pi, pi].
func ShortestAngularDistance(from, to float64) float64 {
	d := to - from
	return math.Atan2(math.Sin(d), math.Cos(d))
}
