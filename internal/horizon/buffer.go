package horizon

import "fmt"

// Field layout of state and reference vectors, fixed by the solver codegen.
const (
	IdxX       = 0
	IdxY       = 1
	IdxHeading = 2
	IdxVelLong = 3

	// RefDim is the number of tracked reference fields per stage.
	RefDim = 4
)

// Dims are the solver code-generation constants that size every buffer.
// They are immutable after construction.
type Dims struct {
	N   int // horizon length (number of optimized stages)
	NX  int // state dimension
	NU  int // control dimension
	NY  int // stage reference dimension
	NYN int // terminal reference dimension
}

func (d Dims) validate() error {
	if d.N < 1 {
		return fmt.Errorf("horizon: dims: N must be >= 1, got %d", d.N)
	}
	if d.NX < 0 || d.NU < 0 {
		return fmt.Errorf("horizon: dims: negative state/control dimension (NX=%d NU=%d)", d.NX, d.NU)
	}
	// The reference layout (x, y, heading, velocity) is baked into the
	// generated solver; anything else means mismatched codegen.
	if d.NY != RefDim {
		return fmt.Errorf("horizon: dims: unexpected stage reference dimension %d, want %d", d.NY, RefDim)
	}
	if d.NYN != RefDim {
		return fmt.Errorf("horizon: dims: unexpected terminal reference dimension %d, want %d", d.NYN, RefDim)
	}
	if d.NX < RefDim {
		return fmt.Errorf("horizon: dims: state dimension %d cannot carry the %d reference fields", d.NX, RefDim)
	}
	return nil
}

// Buffer is the fixed-size arena shared with the solver. Layout mirrors the
// generated solver's flat arrays:
//
//	X  ((N+1)*NX): state trajectory, stage 0 is the current measurement
//	U  (N*NU):     control trajectory
//	Y  (N*NY):     per-stage references
//	YN (NYN):      terminal reference
//	W  (N*NY*NY):  per-stage weight matrices, diagonal only
//	WN (NYN*NYN):  terminal weight matrix, diagonal only
//
// A Buffer is allocated once and never resized; all steady-state operations
// on it are allocation-free.
type Buffer struct {
	dims Dims

	X  []float64
	U  []float64
	Y  []float64
	YN []float64
	W  []float64
	WN []float64
}

// NewBuffer allocates a zeroed buffer for the given codegen dimensions.
func NewBuffer(d Dims) (*Buffer, error) {
	if err := d.validate(); err != nil {
		return nil, err
	}
	return &Buffer{
		dims: d,
		X:    make([]float64, (d.N+1)*d.NX),
		U:    make([]float64, d.N*d.NU),
		Y:    make([]float64, d.N*d.NY),
		YN:   make([]float64, d.NYN),
		W:    make([]float64, d.N*d.NY*d.NY),
		WN:   make([]float64, d.NYN*d.NYN),
	}, nil
}

func (b *Buffer) Dims() Dims { return b.dims }

// State returns the state vector at stage i in [0, N]. Stage 0 is the
// current-measurement slot.
func (b *Buffer) State(i int) []float64 {
	return b.X[i*b.dims.NX : (i+1)*b.dims.NX]
}

// Control returns the control vector at stage i in [0, N).
func (b *Buffer) Control(i int) []float64 {
	return b.U[i*b.dims.NU : (i+1)*b.dims.NU]
}

// StageRef returns the reference vector at stage i in [0, N).
func (b *Buffer) StageRef(i int) []float64 {
	return b.Y[i*b.dims.NY : (i+1)*b.dims.NY]
}

// StageWeight returns the NY*NY weight block at stage i in [0, N).
func (b *Buffer) StageWeight(i int) []float64 {
	ny2 := b.dims.NY * b.dims.NY
	return b.W[i*ny2 : (i+1)*ny2]
}

// StageWeightDiag returns the diagonal entry for field f at stage i.
func (b *Buffer) StageWeightDiag(i, f int) float64 {
	return b.W[i*b.dims.NY*b.dims.NY+f*b.dims.NY+f]
}

// TerminalWeightDiag returns the diagonal entry for field f of the terminal
// weight matrix.
func (b *Buffer) TerminalWeightDiag(f int) float64 {
	return b.WN[f*b.dims.NYN+f]
}
