// Package model provides the vehicle kinematics used for solver rollouts and
// closed-loop simulation.
package model

import "math"

// State layout: x, y, heading, longitudinal velocity.
// Control layout: longitudinal acceleration, front wheel angle.
const (
	StateDim   = 4
	ControlDim = 2
)

// Bicycle is a kinematic bicycle model referenced to the rear axle.
type Bicycle struct {
	Wheelbase float64 // m
}

func NewBicycle(wheelbase float64) *Bicycle {
	return &Bicycle{Wheelbase: wheelbase}
}

func (b *Bicycle) StateDim() int   { return StateDim }
func (b *Bicycle) ControlDim() int { return ControlDim }

// Derive writes dx/dt for state x under control u into dx.
func (b *Bicycle) Derive(dx, x, u []float64) {
	heading := x[2]
	v := x[3]
	dx[0] = v * math.Cos(heading)
	dx[1] = v * math.Sin(heading)
	dx[2] = v * math.Tan(u[1]) / b.Wheelbase
	dx[3] = u[0]
}

// Propagate integrates one step of length dt with the midpoint rule, writing
// the successor state into next. next and x may alias.
func (b *Bicycle) Propagate(next, x, u []float64, dt float64) {
	var k1, mid, k2 [StateDim]float64
	b.Derive(k1[:], x, u)
	for i := 0; i < StateDim; i++ {
		mid[i] = x[i] + 0.5*dt*k1[i]
	}
	b.Derive(k2[:], mid[:], u)
	for i := 0; i < StateDim; i++ {
		next[i] = x[i] + dt*k2[i]
	}
}
