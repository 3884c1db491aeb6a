package horizon

import (
	"math"

	"mpctrack/internal/traj"
)

// Sampler resamples a trajectory to evenly spaced time points. It is an
// external collaborator; a nil Sampler means pass-through.
type Sampler interface {
	Resample(t traj.Trajectory, step float64) traj.Trajectory
}

// TemporalIndexer reports how far into the stored trajectory the vehicle
// currently is. The index is monotonically non-decreasing and is owned by an
// external collaborator; the Manager only queries it.
type TemporalIndexer interface {
	CurrentIndex() int
}

// Manager exclusively owns one Buffer and keeps its references and weights
// consistent with the stored plan as the horizon rolls forward.
type Manager struct {
	buf     *Buffer
	weights Weights

	sampler Sampler
	step    float64
	tempIdx TemporalIndexer

	ref        traj.Trajectory
	lastRefIdx int
}

// NewManager wraps buf with the given weight configuration. The nominal and
// terminal profiles are applied immediately so a fresh problem carries sane
// costs even before the first plan arrives.
func NewManager(buf *Buffer, w Weights) *Manager {
	m := &Manager{buf: buf, weights: w}
	// Cannot fail: the full range [0, N) never violates bounds.
	_ = m.ApplyWeights(w)
	return m
}

// SetSampler configures fixed-time-step resampling of incoming plans.
func (m *Manager) SetSampler(s Sampler, timeStep float64) {
	m.sampler = s
	m.step = timeStep
}

// SetTemporalIndexer wires the collaborator queried during backfill.
func (m *Manager) SetTemporalIndexer(ti TemporalIndexer) { m.tempIdx = ti }

func (m *Manager) Buffer() *Buffer { return m.buf }

// Reference returns the trajectory currently loaded into the buffers.
func (m *Manager) Reference() traj.Trajectory { return m.ref }

// LastReferenceIndex reports the last applied reference index; it resets to
// zero whenever a new plan is ingested.
func (m *Manager) LastReferenceIndex() int { return m.lastRefIdx }

// SetReference copies count waypoints, starting at trajStart, into the stage
// reference slots starting at yStart. Heading is converted from the wire
// representation to the internal signed radian.
func (m *Manager) SetReference(t traj.Trajectory, yStart, trajStart, count int) error {
	if count < 0 || yStart < 0 || trajStart < 0 {
		return indexErr("set reference", count, m.buf.dims.N)
	}
	if yStart+count > m.buf.dims.N {
		return indexErr("set reference", yStart+count, m.buf.dims.N)
	}
	if trajStart+count > len(t.Points) {
		return indexErr("set reference", trajStart+count, len(t.Points))
	}
	ny := m.buf.dims.NY
	for i := 0; i < count; i++ {
		pt := t.Points[trajStart+i]
		base := (yStart + i) * ny
		m.buf.Y[base+IdxX] = pt.X
		m.buf.Y[base+IdxY] = pt.Y
		m.buf.Y[base+IdxHeading] = pt.Heading.Angle()
		m.buf.Y[base+IdxVelLong] = pt.Velocity
	}
	return nil
}

// SetTerminalReference copies one waypoint into the terminal reference slot.
func (m *Manager) SetTerminalReference(pt traj.Waypoint) {
	m.buf.YN[IdxX] = pt.X
	m.buf.YN[IdxY] = pt.Y
	m.buf.YN[IdxHeading] = pt.Heading.Angle()
	m.buf.YN[IdxVelLong] = pt.Velocity
}

// HandleNewTrajectory ingests a fresh plan: resamples it if a sampler is
// configured, fills the stage references and nominal weights up to the plan
// or horizon end, zeroes the tracking cost on stages beyond the known plan,
// and sets up the terminal stage. Returns the effective trajectory, which
// the caller reuses for roll/backfill within this planning epoch.
func (m *Manager) HandleNewTrajectory(t traj.Trajectory) (traj.Trajectory, error) {
	eff := t
	if m.sampler != nil {
		eff = m.sampler.Resample(t, m.step)
	}
	n := m.buf.dims.N
	tMax := len(eff.Points)
	if tMax > n {
		tMax = n
	}

	if err := m.SetReference(eff, 0, 0, tMax); err != nil {
		return traj.Trajectory{}, err
	}
	if err := m.ApplyNominalWeights(m.weights.Nominal, 0, tMax); err != nil {
		return traj.Trajectory{}, err
	}
	if tMax < n {
		// Stages beyond the known plan carry no tracking cost, so the
		// optimizer is not pulled toward an undefined future.
		if err := m.ZeroNominalWeights(tMax, n); err != nil {
			return traj.Trajectory{}, err
		}
	}

	if tMax >= len(eff.Points) {
		// Plan ends at or before the horizon edge: relocate the terminal
		// cost onto the last known-good stage so the optimizer is still
		// pulled to rest there.
		m.ZeroTerminalWeights()
		if len(eff.Points) > 0 {
			if err := m.ApplyTerminalWeights(len(eff.Points) - 1); err != nil {
				return traj.Trajectory{}, err
			}
		}
	} else {
		// Plan is strictly longer than the horizon: the terminal stage
		// previews the next unreached waypoint, approximating an
		// infinite-horizon tail.
		m.SetTerminalReference(eff.Points[tMax])
	}

	m.ref = eff
	m.lastRefIdx = 0
	return eff, nil
}

// AdvanceProblem shifts the problem forward after the solver consumed count
// leading stages. State stage 0 is the measurement slot and is left for the
// caller to overwrite. The newly exposed tail stages hold stale data and must
// be refreshed before the next solve: references and weights via
// BackfillReference, state and control warm-start by the caller.
//
// The shift is an in-place copy within the one fixed buffer rather than a
// ring rotation, preserving the "index 0 is now" layout the solver expects.
func (m *Manager) AdvanceProblem(count int) error {
	d := m.buf.dims
	if count < 0 || count >= d.N {
		return indexErr("advance problem", count, d.N)
	}
	copy(m.buf.X[d.NX:], m.buf.X[d.NX*(count+1):d.NX*(d.N+1)])
	copy(m.buf.Y, m.buf.Y[d.NY*count:d.NY*d.N])
	copy(m.buf.U, m.buf.U[d.NU*count:d.NU*d.N])
	return nil
}

// BackfillReference refills the count tail reference stages exposed by
// AdvanceProblem from the stored trajectory, relative to the vehicle's
// current temporal index. When the trajectory runs out mid-refill the
// remaining stages lose their tracking cost and the last stage with real
// data receives the terminal profile (soft landing at the plan's end).
func (m *Manager) BackfillReference(count int) error {
	d := m.buf.dims
	if count < 0 || count >= d.N {
		return indexErr("backfill reference", count, d.N)
	}
	refStart := d.N - count
	maxPts := len(m.ref.Points)
	currIdx := 0
	if m.tempIdx != nil {
		currIdx = m.tempIdx.CurrentIndex()
	}

	trajStart := currIdx + refStart
	if trajStart > maxPts {
		trajStart = maxPts
	}
	trajEnd := trajStart + count
	if trajEnd > maxPts {
		trajEnd = maxPts
	}
	safeCount := trajEnd - trajStart

	if err := m.SetReference(m.ref, refStart, trajStart, safeCount); err != nil {
		return err
	}
	if safeCount < count {
		remainder := count - safeCount
		if err := m.ZeroNominalWeights(d.N-remainder, d.N); err != nil {
			return err
		}
		if err := m.ApplyTerminalWeights(d.N - remainder - 1); err != nil {
			return err
		}
	}
	if trajStart+count < maxPts {
		m.SetTerminalReference(m.ref.Points[trajStart+count])
	} else {
		m.ZeroTerminalWeights()
	}
	m.lastRefIdx = currIdx
	return nil
}

// EnsureReferenceConsistency rewrites the reference headings over the first
// horizon stages (clamped to N) and the terminal reference so each is the
// angularly nearest equivalent of its predecessor, starting from the current
// measured heading. This removes spurious multi-turn jumps introduced by
// naively stored absolute angles.
//
// Returns true when the accumulated shortest-arc heading motion across the
// horizon exceeds pi, signalling an implausible heading discontinuity
// (loop-back, sign flip or corrupt plan) that should be rejected upstream
// instead of handed to the solver. A ground vehicle cannot plausibly turn
// through more than half a revolution within one horizon.
func (m *Manager) EnsureReferenceConsistency(horizon int) bool {
	d := m.buf.dims
	if horizon > d.N {
		horizon = d.N
	}
	lastAngle := m.buf.X[IdxHeading]
	var err float64

	unwrap := func(ref float64) float64 {
		dth := ref - lastAngle
		diff := math.Atan2(math.Sin(dth), math.Cos(dth))
		err += math.Abs(diff)
		lastAngle += diff
		return lastAngle
	}

	for i := 0; i < horizon; i++ {
		j := i*d.NY + IdxHeading
		m.buf.Y[j] = unwrap(m.buf.Y[j])
	}
	m.buf.YN[IdxHeading] = unwrap(m.buf.YN[IdxHeading])

	return err > math.Pi
}
