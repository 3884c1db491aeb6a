package main

import (
	"fmt"
	"math"

	"mpctrack/internal/traj"
)

// Demo reference paths. Each is sampled at pathStep seconds, with headings
// aligned to the direction of travel and a trapezoidal velocity profile that
// comes to rest at the far end.
const pathStep = 0.1

func buildPath(name string, cruise float64, duration float64) (traj.Trajectory, error) {
	switch name {
	case "straight":
		return parametricPath(duration, cruise, func(s float64) (float64, float64) {
			return s, 0
		}), nil
	case "scurve":
		return parametricPath(duration, cruise, func(s float64) (float64, float64) {
			return s, 8 * math.Sin(s/15)
		}), nil
	case "lane-change":
		return parametricPath(duration, cruise, func(s float64) (float64, float64) {
			return s, 3.5 / (1 + math.Exp(-(s-25)/3))
		}), nil
	case "loop":
		return parametricPath(duration, cruise, func(s float64) (float64, float64) {
			r := 20.0
			return r * math.Sin(s/r), r * (1 - math.Cos(s/r))
		}), nil
	default:
		return traj.Trajectory{}, fmt.Errorf("unknown path %q (straight, scurve, lane-change, loop)", name)
	}
}

// parametricPath walks a curve parameterized by arc length under a velocity
// profile that ramps up, cruises and ramps down to zero.
func parametricPath(duration, cruise float64, curve func(s float64) (x, y float64)) traj.Trajectory {
	n := int(duration/pathStep) + 1
	t := traj.Trajectory{Points: make([]traj.Waypoint, 0, n)}

	s := 0.0
	for i := 0; i < n; i++ {
		now := float64(i) * pathStep
		v := profileVelocity(now, duration, cruise)
		x, y := curve(s)

		// Heading from a forward difference along the curve.
		xa, ya := curve(s + 0.05)
		heading := math.Atan2(ya-y, xa-x)

		t.Points = append(t.Points, traj.Waypoint{
			X:             x,
			Y:             y,
			Heading:       traj.HeadingFromAngle(heading),
			Velocity:      v,
			TimeFromStart: now,
		})
		s += v * pathStep
	}
	return t
}

func profileVelocity(t, duration, cruise float64) float64 {
	const ramp = 4.0 // seconds
	switch {
	case t < ramp:
		return cruise * t / ramp
	case t > duration-ramp:
		v := cruise * (duration - t) / ramp
		if v < 0 {
			return 0
		}
		return v
	default:
		return cruise
	}
}
