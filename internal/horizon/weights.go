package horizon

// StateWeight is one diagonal cost profile: the same scalar is applied to
// both pose entries, one to heading, one to longitudinal velocity.
type StateWeight struct {
	Pose     float64
	Heading  float64
	Velocity float64
}

// Weights is the optimization weight configuration: the nominal tracking
// profile applied along the horizon and the terminal regularization profile.
type Weights struct {
	Nominal  StateWeight
	Terminal StateWeight
}

// ApplyNominalWeights writes the profile onto the diagonal of every stage
// weight matrix in [start, end). end is clamped to the horizon length; after
// clamping start > end fails with ErrIndexOutOfRange.
func (m *Manager) ApplyNominalWeights(w StateWeight, start, end int) error {
	n := m.buf.dims.N
	if end > n {
		end = n
	}
	if start < 0 || start > end {
		return indexErr("apply nominal weights", start, end)
	}
	ny := m.buf.dims.NY
	ny2 := ny * ny
	for i := start; i < end; i++ {
		base := i * ny2
		m.buf.W[base+IdxX*ny+IdxX] = w.Pose
		m.buf.W[base+IdxY*ny+IdxY] = w.Pose
		m.buf.W[base+IdxHeading*ny+IdxHeading] = w.Heading
		m.buf.W[base+IdxVelLong*ny+IdxVelLong] = w.Velocity
	}
	return nil
}

// ZeroNominalWeights clears the stage weight matrices in [start, end), with
// the same clamping and failure rule as ApplyNominalWeights.
func (m *Manager) ZeroNominalWeights(start, end int) error {
	n := m.buf.dims.N
	if end > n {
		end = n
	}
	if start < 0 || start > end {
		return indexErr("zero nominal weights", start, end)
	}
	ny2 := m.buf.dims.NY * m.buf.dims.NY
	z := m.buf.W[start*ny2 : end*ny2]
	for i := range z {
		z[i] = 0
	}
	return nil
}

// SetTerminalWeights writes the profile onto the terminal weight diagonal.
func (m *Manager) SetTerminalWeights(w StateWeight) {
	nyn := m.buf.dims.NYN
	m.buf.WN[IdxX*nyn+IdxX] = w.Pose
	m.buf.WN[IdxY*nyn+IdxY] = w.Pose
	m.buf.WN[IdxHeading*nyn+IdxHeading] = w.Heading
	m.buf.WN[IdxVelLong*nyn+IdxVelLong] = w.Velocity
}

// ZeroTerminalWeights clears the terminal weight diagonal.
func (m *Manager) ZeroTerminalWeights() {
	m.SetTerminalWeights(StateWeight{})
}

// ApplyTerminalWeights copies the terminal profile onto the interior stage
// weight at idx. Used to pull the terminal cost inward when the known plan
// ends before the horizon does.
func (m *Manager) ApplyTerminalWeights(idx int) error {
	if idx < 0 || idx >= m.buf.dims.N {
		return indexErr("apply terminal weights", idx, m.buf.dims.N)
	}
	return m.ApplyNominalWeights(m.weights.Terminal, idx, idx+1)
}

// ApplyWeights applies the nominal profile over the whole horizon and the
// terminal profile onto the terminal weight matrix.
func (m *Manager) ApplyWeights(w Weights) error {
	m.weights = w
	if err := m.ApplyNominalWeights(w.Nominal, 0, m.buf.dims.N); err != nil {
		return err
	}
	m.SetTerminalWeights(w.Terminal)
	return nil
}
