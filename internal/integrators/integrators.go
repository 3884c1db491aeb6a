// Package integrators provides fixed-step ODE steppers for plant simulation.
//
// The solver's internal rollouts use the model's own midpoint propagation;
// the closed-loop plant is stepped with RK4 so that model error between the
// controller's prediction and the simulated vehicle stays realistic.
package integrators

// Dynamics is anything that can write dx/dt for a state under a control.
type Dynamics interface {
	Derive(dx, x, u []float64)
}

// Stepper advances a state by one step of length dt. next and x may alias.
type Stepper interface {
	Step(dyn Dynamics, next, x, u []float64, dt float64)
}

// Euler is the first-order explicit method.
type Euler struct {
	dx []float64
}

func NewEuler() *Euler { return &Euler{} }

func (e *Euler) Step(dyn Dynamics, next, x, u []float64, dt float64) {
	e.dx = resize(e.dx, len(x))
	dyn.Derive(e.dx, x, u)
	for i := range x {
		next[i] = x[i] + dt*e.dx[i]
	}
}

// RK4 is the classic fourth-order Runge-Kutta method with reusable scratch.
type RK4 struct {
	k1, k2, k3, k4, tmp []float64
}

func NewRK4() *RK4 { return &RK4{} }

func (r *RK4) Step(dyn Dynamics, next, x, u []float64, dt float64) {
	n := len(x)
	r.k1 = resize(r.k1, n)
	r.k2 = resize(r.k2, n)
	r.k3 = resize(r.k3, n)
	r.k4 = resize(r.k4, n)
	r.tmp = resize(r.tmp, n)

	dyn.Derive(r.k1, x, u)
	for i := 0; i < n; i++ {
		r.tmp[i] = x[i] + 0.5*dt*r.k1[i]
	}
	dyn.Derive(r.k2, r.tmp, u)
	for i := 0; i < n; i++ {
		r.tmp[i] = x[i] + 0.5*dt*r.k2[i]
	}
	dyn.Derive(r.k3, r.tmp, u)
	for i := 0; i < n; i++ {
		r.tmp[i] = x[i] + dt*r.k3[i]
	}
	dyn.Derive(r.k4, r.tmp, u)

	dt6 := dt / 6.0
	for i := 0; i < n; i++ {
		next[i] = x[i] + dt6*(r.k1[i]+2*r.k2[i]+2*r.k3[i]+r.k4[i])
	}
}

func resize(s []float64, n int) []float64 {
	if len(s) != n {
		return make([]float64, n)
	}
	return s
}
