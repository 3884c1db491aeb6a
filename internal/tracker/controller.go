// Package tracker drives the horizon manager and the optimizer once per
// control cycle.
package tracker

import (
	"errors"
	"fmt"

	"mpctrack/internal/horizon"
	"mpctrack/internal/solver"
	"mpctrack/internal/traj"
)

// ErrInconsistentReference indicates the current plan contains an implausible
// heading discontinuity and must be rejected upstream.
var ErrInconsistentReference = errors.New("tracker: reference headings are inconsistent, rejecting plan")

// ErrNoTrajectory indicates a control cycle was requested before any plan
// arrived.
var ErrNoTrajectory = errors.New("tracker: no reference trajectory set")

// Command is the control output of one cycle.
type Command struct {
	Accel float64 // m/s^2
	Steer float64 // front wheel angle, rad
}

// Config sizes and parameterizes a Controller.
type Config struct {
	Dims     horizon.Dims
	Weights  horizon.Weights
	TimeStep float64
	Resample bool // resample incoming plans to TimeStep via the fixed-step sampler
}

// Controller owns the horizon manager, the temporal index and the optimizer,
// and runs the per-cycle sequence: refresh measurement, roll and backfill the
// horizon, repair heading wraparound, solve, and emit the first control.
// It is single-threaded; one instance per vehicle.
type Controller struct {
	mgr *horizon.Manager
	buf *horizon.Buffer
	opt solver.Optimizer
	ti  *TemporalIndex

	timeStep float64
	haveRef  bool
}

func New(cfg Config, opt solver.Optimizer) (*Controller, error) {
	buf, err := horizon.NewBuffer(cfg.Dims)
	if err != nil {
		return nil, err
	}
	mgr := horizon.NewManager(buf, cfg.Weights)
	ti := NewTemporalIndex()
	mgr.SetTemporalIndexer(ti)
	if cfg.Resample {
		mgr.SetSampler(traj.FixedStepSampler{}, cfg.TimeStep)
	}
	return &Controller{
		mgr:      mgr,
		buf:      buf,
		opt:      opt,
		ti:       ti,
		timeStep: cfg.TimeStep,
	}, nil
}

func (c *Controller) Buffer() *horizon.Buffer   { return c.buf }
func (c *Controller) Manager() *horizon.Manager { return c.mgr }

// Reference returns the effective trajectory of the current planning epoch.
func (c *Controller) Reference() traj.Trajectory { return c.mgr.Reference() }

// CrossTrackError reports the vehicle's lateral offset from the plan.
func (c *Controller) CrossTrackError(x, y float64) float64 {
	return c.ti.CrossTrackError(x, y)
}

// SetTrajectory ingests a new plan and rewinds the temporal index to its
// start.
func (c *Controller) SetTrajectory(t traj.Trajectory) error {
	eff, err := c.mgr.HandleNewTrajectory(t)
	if err != nil {
		return fmt.Errorf("tracker: ingest trajectory: %w", err)
	}
	c.ti.Reset(eff)
	c.haveRef = true
	return nil
}

// Cycle runs one control period. state is the current measurement (x, y,
// heading, velocity, ...); it is written into the stage-0 slot before
// anything else, upholding the manager's precondition that slot 0 always
// holds the live measurement.
func (c *Controller) Cycle(state []float64) (Command, error) {
	if !c.haveRef {
		return Command{}, ErrNoTrajectory
	}
	copy(c.buf.State(0), state)

	prev := c.ti.CurrentIndex()
	curr := c.ti.Observe(state[horizon.IdxX], state[horizon.IdxY])
	if steps := curr - prev; steps > 0 {
		if steps > c.buf.Dims().N-1 {
			steps = c.buf.Dims().N - 1
		}
		if err := c.mgr.AdvanceProblem(steps); err != nil {
			return Command{}, err
		}
		if err := c.mgr.BackfillReference(steps); err != nil {
			return Command{}, err
		}
	}

	if c.mgr.EnsureReferenceConsistency(c.buf.Dims().N) {
		return Command{}, ErrInconsistentReference
	}

	if err := c.opt.Solve(c.buf); err != nil {
		return Command{}, fmt.Errorf("tracker: solve: %w", err)
	}

	u0 := c.buf.Control(0)
	return Command{Accel: u0[0], Steer: u0[1]}, nil
}
