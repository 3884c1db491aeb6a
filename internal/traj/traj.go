package traj

// Waypoint is one sample of a reference path.
type Waypoint struct {
	X             float64
	Y             float64
	Heading       Heading
	Velocity      float64 // longitudinal, m/s
	TimeFromStart float64 // seconds since the first point
}

// Trajectory is an ordered sequence of waypoints produced by the planner.
// It is read-only to the controller for the duration of a cycle.
type Trajectory struct {
	Points []Waypoint
}

func (t Trajectory) Len() int { return len(t.Points) }

func (t Trajectory) Empty() bool { return len(t.Points) == 0 }

// Duration returns the time span covered by the trajectory.
func (t Trajectory) Duration() float64 {
	if len(t.Points) < 2 {
		return 0
	}
	return t.Points[len(t.Points)-1].TimeFromStart - t.Points[0].TimeFromStart
}
