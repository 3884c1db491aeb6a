// Package solver hosts the numerical optimizer consumed by the tracker. The
// horizon buffers specify the problem; the optimizer writes the solved state
// and control trajectory back in place.
package solver

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"mpctrack/internal/horizon"
)

// ErrDiverged indicates the solve produced a non-finite cost and the result
// must not be used.
var ErrDiverged = errors.New("solver: optimization diverged")

// Optimizer consumes a populated horizon buffer and writes an optimized
// state/control trajectory back into it. Non-convergence is reported to the
// caller, not handled here.
type Optimizer interface {
	Solve(buf *horizon.Buffer) error
}

// Plant is the prediction model used for rollouts.
type Plant interface {
	Propagate(next, x, u []float64, dt float64)
	StateDim() int
	ControlDim() int
}

// Limits bounds each control channel during the solve.
type Limits struct {
	Min []float64
	Max []float64
}

// ShootingSolver minimizes the weighted tracking cost by projected gradient
// descent over the control sequence, with single-shooting rollouts of the
// plant. A full QP is deliberately avoided; on an embedded control budget the
// gradient approach is predictable and good enough for tracking.
type ShootingSolver struct {
	plant  Plant
	step   float64
	iters  int
	rate   float64
	limits Limits

	// scratch, sized once so Solve stays allocation-free
	grad  []float64
	trial []float64
	xs    []float64
}

// NewShootingSolver builds a solver stepping the plant at the controller time
// step. iters bounds the gradient iterations per solve; rate is the initial
// descent step.
func NewShootingSolver(plant Plant, dims horizon.Dims, timeStep float64, iters int, rate float64, limits Limits) (*ShootingSolver, error) {
	if plant.StateDim() != dims.NX || plant.ControlDim() != dims.NU {
		return nil, fmt.Errorf("solver: plant dimensions (%d,%d) do not match problem (%d,%d)",
			plant.StateDim(), plant.ControlDim(), dims.NX, dims.NU)
	}
	if iters < 1 || timeStep <= 0 {
		return nil, fmt.Errorf("solver: invalid iteration count %d or time step %f", iters, timeStep)
	}
	return &ShootingSolver{
		plant:  plant,
		step:   timeStep,
		iters:  iters,
		rate:   rate,
		limits: limits,
		grad:   make([]float64, dims.N*dims.NU),
		trial:  make([]float64, dims.N*dims.NU),
		xs:     make([]float64, (dims.N+1)*dims.NX),
	}, nil
}

func (s *ShootingSolver) Solve(buf *horizon.Buffer) error {
	d := buf.Dims()
	rate := s.rate
	cost := s.rollout(buf, buf.U)
	if math.IsNaN(cost) || math.IsInf(cost, 0) {
		return ErrDiverged
	}

	const h = 1e-4
	for it := 0; it < s.iters; it++ {
		// Forward-difference gradient over every control entry.
		copy(s.trial, buf.U)
		for j := range s.trial {
			orig := s.trial[j]
			s.trial[j] = orig + h
			s.grad[j] = (s.rollout(buf, s.trial) - cost) / h
			s.trial[j] = orig
		}

		gn := floats.Norm(s.grad, 2)
		if gn < 1e-9 {
			break
		}

		// Backtracking descent step.
		improved := false
		for probe := rate; probe > 1e-6*rate; probe /= 2 {
			copy(s.trial, buf.U)
			floats.AddScaled(s.trial, -probe/gn, s.grad)
			s.clamp(s.trial, d)
			trialCost := s.rollout(buf, s.trial)
			if trialCost < cost {
				copy(buf.U, s.trial)
				cost = trialCost
				improved = true
				break
			}
		}
		if !improved {
			break
		}
	}

	if math.IsNaN(cost) || math.IsInf(cost, 0) {
		return ErrDiverged
	}

	// Publish the predicted state trajectory alongside the controls.
	s.rollout(buf, buf.U)
	copy(buf.X[d.NX:], s.xs[d.NX:])
	return nil
}

// rollout simulates the plant under controls u from the measured state and
// returns the weighted tracking cost. The predicted states land in s.xs.
func (s *ShootingSolver) rollout(buf *horizon.Buffer, u []float64) float64 {
	d := buf.Dims()
	copy(s.xs[:d.NX], buf.X[:d.NX])

	var cost float64
	for i := 0; i < d.N; i++ {
		x := s.xs[i*d.NX : (i+1)*d.NX]
		cost += stageCost(buf, i, x)
		s.plant.Propagate(s.xs[(i+1)*d.NX:(i+2)*d.NX], x, u[i*d.NU:(i+1)*d.NU], s.step)
	}
	cost += terminalCost(buf, s.xs[d.N*d.NX:(d.N+1)*d.NX])
	return cost
}

func stageCost(buf *horizon.Buffer, i int, x []float64) float64 {
	ref := buf.StageRef(i)
	var c float64
	for f := 0; f < horizon.RefDim; f++ {
		e := x[f] - ref[f]
		if f == horizon.IdxHeading {
			e = wrapToPi(e)
		}
		c += buf.StageWeightDiag(i, f) * e * e
	}
	return c
}

func terminalCost(buf *horizon.Buffer, x []float64) float64 {
	var c float64
	for f := 0; f < horizon.RefDim; f++ {
		e := x[f] - buf.YN[f]
		if f == horizon.IdxHeading {
			e = wrapToPi(e)
		}
		c += buf.TerminalWeightDiag(f) * e * e
	}
	return c
}

func (s *ShootingSolver) clamp(u []float64, d horizon.Dims) {
	if len(s.limits.Min) != d.NU || len(s.limits.Max) != d.NU {
		return
	}
	for i := 0; i < d.N; i++ {
		for j := 0; j < d.NU; j++ {
			v := &u[i*d.NU+j]
			if *v < s.limits.Min[j] {
				*v = s.limits.Min[j]
			}
			if *v > s.limits.Max[j] {
				*v = s.limits.Max[j]
			}
		}
	}
}

func wrapToPi(a float64) float64 {
	return math.Atan2(math.Sin(a), math.Cos(a))
}
