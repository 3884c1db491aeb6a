package traj

// FixedStepSampler resamples a trajectory onto an even time grid so the
// controller sees one waypoint per solver stage. Position and velocity are
// interpolated linearly; heading is interpolated along the short arc.
type FixedStepSampler struct{}

// Resample returns a trajectory with points spaced step seconds apart,
// covering the same time span as the input. Trajectories with fewer than two
// points are returned unchanged. A non-positive step is a pass-through.
func (FixedStepSampler) Resample(t Trajectory, step float64) Trajectory {
	if len(t.Points) < 2 || step <= 0 {
		return t
	}

	t0 := t.Points[0].TimeFromStart
	span := t.Points[len(t.Points)-1].TimeFromStart - t0
	n := int(span/step) + 1

	out := Trajectory{Points: make([]Waypoint, 0, n)}
	seg := 0
	for i := 0; i < n; i++ {
		tq := t0 + float64(i)*step
		for seg+1 < len(t.Points)-1 && t.Points[seg+1].TimeFromStart < tq {
			seg++
		}
		a, b := t.Points[seg], t.Points[seg+1]
		out.Points = append(out.Points, interpolate(a, b, tq))
	}
	return out
}

func interpolate(a, b Waypoint, tq float64) Waypoint {
	dt := b.TimeFromStart - a.TimeFromStart
	s := 0.0
	if dt > 0 {
		s = (tq - a.TimeFromStart) / dt
	}
	if s < 0 {
		s = 0
	}
	if s > 1 {
		s = 1
	}

	ha := a.Heading.Angle()
	dh := ShortestAngularDistance(ha, b.Heading.Angle())

	return Waypoint{
		X:             a.X + s*(b.X-a.X),
		Y:             a.Y + s*(b.Y-a.Y),
		Heading:       HeadingFromAngle(ha + s*dh),
		Velocity:      a.Velocity + s*(b.Velocity-a.Velocity),
		TimeFromStart: tq,
	}
}
