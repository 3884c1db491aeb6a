package tracker

import (
	"math"

	"mpctrack/internal/traj"
)

// TemporalIndex tracks how far into the stored trajectory the vehicle is.
// The index is monotonically non-decreasing within one planning epoch and is
// advanced by nearest-point progress: it moves forward while the next
// waypoint is at least as close to the vehicle as the current one.
type TemporalIndex struct {
	ref traj.Trajectory
	idx int
}

func NewTemporalIndex() *TemporalIndex {
	return &TemporalIndex{}
}

// Reset binds the tracker to a new trajectory and rewinds to its start.
func (ti *TemporalIndex) Reset(t traj.Trajectory) {
	ti.ref = t
	ti.idx = 0
}

// Observe advances the index given the vehicle position and returns the new
// value. It never moves backwards.
func (ti *TemporalIndex) Observe(x, y float64) int {
	pts := ti.ref.Points
	for ti.idx+1 < len(pts) {
		cur := sqDist(pts[ti.idx], x, y)
		next := sqDist(pts[ti.idx+1], x, y)
		if next > cur {
			break
		}
		ti.idx++
	}
	return ti.idx
}

// CurrentIndex implements horizon.TemporalIndexer.
func (ti *TemporalIndex) CurrentIndex() int { return ti.idx }

func sqDist(p traj.Waypoint, x, y float64) float64 {
	dx := p.X - x
	dy := p.Y - y
	return dx*dx + dy*dy
}

// CrossTrackError returns the signed lateral offset of (x, y) from the
// heading line of the current waypoint. Used for diagnostics only.
func (ti *TemporalIndex) CrossTrackError(x, y float64) float64 {
	if len(ti.ref.Points) == 0 {
		return 0
	}
	p := ti.ref.Points[ti.idx]
	h := p.Heading.Angle()
	return math.Cos(h)*(y-p.Y) - math.Sin(h)*(x-p.X)
}
