package horizon

import (
	"errors"
	"math"
	"testing"

	"mpctrack/internal/traj"
)

var testWeights = Weights{
	Nominal:  StateWeight{Pose: 1.0, Heading: 2.0, Velocity: 3.0},
	Terminal: StateWeight{Pose: 100.0, Heading: 200.0, Velocity: 300.0},
}

func testDims(n int) Dims {
	return Dims{N: n, NX: 4, NU: 2, NY: 4, NYN: 4}
}

func newTestManager(t *testing.T, n int) *Manager {
	t.Helper()
	buf, err := NewBuffer(testDims(n))
	if err != nil {
		t.Fatalf("NewBuffer failed: %v", err)
	}
	return NewManager(buf, testWeights)
}

// makeTraj builds count waypoints with distinct, recognizable field values.
func makeTraj(count int) traj.Trajectory {
	tr := traj.Trajectory{Points: make([]traj.Waypoint, count)}
	for i := range tr.Points {
		tr.Points[i] = traj.Waypoint{
			X:             float64(i),
			Y:             float64(i) * 10,
			Heading:       traj.HeadingFromAngle(0.01 * float64(i)),
			Velocity:      5.0 + float64(i),
			TimeFromStart: 0.1 * float64(i),
		}
	}
	return tr
}

type fixedIndex int

func (f fixedIndex) CurrentIndex() int { return int(f) }

func TestSetReferenceCopiesFields(t *testing.T) {
	m := newTestManager(t, 10)
	tr := makeTraj(8)

	if err := m.SetReference(tr, 2, 3, 4); err != nil {
		t.Fatalf("SetReference failed: %v", err)
	}

	for i := 0; i < 4; i++ {
		ref := m.Buffer().StageRef(2 + i)
		pt := tr.Points[3+i]
		if ref[IdxX] != pt.X || ref[IdxY] != pt.Y || ref[IdxVelLong] != pt.Velocity {
			t.Errorf("stage %d: got (%f,%f,%f), want (%f,%f,%f)",
				2+i, ref[IdxX], ref[IdxY], ref[IdxVelLong], pt.X, pt.Y, pt.Velocity)
		}
		want := pt.Heading.Angle()
		if math.Abs(ref[IdxHeading]-want) > 1e-6 {
			t.Errorf("stage %d: heading %f, want %f", 2+i, ref[IdxHeading], want)
		}
	}
}

func TestSetReferenceBounds(t *testing.T) {
	m := newTestManager(t, 10)
	tr := makeTraj(8)

	tests := []struct {
		name                     string
		yStart, trajStart, count int
		wantErr                  bool
	}{
		{"fits exactly", 0, 0, 8, false},
		{"fits at tail", 6, 4, 4, false},
		{"zero count", 10, 8, 0, false},
		{"overruns horizon", 7, 0, 4, true},
		{"overruns trajectory", 0, 5, 4, true},
		{"negative count", 0, 0, -1, true},
	}
	for _, tt := range tests {
		err := m.SetReference(tr, tt.yStart, tt.trajStart, tt.count)
		if tt.wantErr && !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("%s: expected ErrIndexOutOfRange, got %v", tt.name, err)
		}
		if !tt.wantErr && err != nil {
			t.Errorf("%s: unexpected error %v", tt.name, err)
		}
	}
}

func TestNominalWeightBounds(t *testing.T) {
	m := newTestManager(t, 10)

	// end clamps to N, so start beyond end only fails when start > N too.
	if err := m.ApplyNominalWeights(testWeights.Nominal, 5, 100); err != nil {
		t.Errorf("clamped apply should succeed, got %v", err)
	}
	if err := m.ApplyNominalWeights(testWeights.Nominal, 11, 100); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("start beyond clamped end: expected ErrIndexOutOfRange, got %v", err)
	}
	if err := m.ZeroNominalWeights(7, 3); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("start > end: expected ErrIndexOutOfRange, got %v", err)
	}
	if err := m.ApplyTerminalWeights(10); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("terminal weight at N: expected ErrIndexOutOfRange, got %v", err)
	}
	if err := m.ApplyTerminalWeights(9); err != nil {
		t.Errorf("terminal weight at N-1 should succeed, got %v", err)
	}
}

func TestApplyWeightsDiagonal(t *testing.T) {
	m := newTestManager(t, 4)
	if err := m.ApplyWeights(testWeights); err != nil {
		t.Fatalf("ApplyWeights failed: %v", err)
	}
	buf := m.Buffer()

	for i := 0; i < 4; i++ {
		if got := buf.StageWeightDiag(i, IdxX); got != 1.0 {
			t.Errorf("stage %d pose x weight = %f, want 1", i, got)
		}
		if got := buf.StageWeightDiag(i, IdxY); got != 1.0 {
			t.Errorf("stage %d pose y weight = %f, want 1", i, got)
		}
		if got := buf.StageWeightDiag(i, IdxHeading); got != 2.0 {
			t.Errorf("stage %d heading weight = %f, want 2", i, got)
		}
		if got := buf.StageWeightDiag(i, IdxVelLong); got != 3.0 {
			t.Errorf("stage %d velocity weight = %f, want 3", i, got)
		}
		// Off-diagonal entries must stay zero.
		w := buf.StageWeight(i)
		for r := 0; r < 4; r++ {
			for c := 0; c < 4; c++ {
				if r != c && w[r*4+c] != 0 {
					t.Errorf("stage %d weight[%d][%d] = %f, want 0", i, r, c, w[r*4+c])
				}
			}
		}
	}
	if got := buf.TerminalWeightDiag(IdxHeading); got != 200.0 {
		t.Errorf("terminal heading weight = %f, want 200", got)
	}
}

func TestZeroNominalWeightsIdempotent(t *testing.T) {
	m := newTestManager(t, 10)

	if err := m.ZeroNominalWeights(3, 7); err != nil {
		t.Fatalf("first zero failed: %v", err)
	}
	snapshot := make([]float64, len(m.Buffer().W))
	copy(snapshot, m.Buffer().W)

	if err := m.ZeroNominalWeights(3, 7); err != nil {
		t.Fatalf("second zero failed: %v", err)
	}
	for i, v := range m.Buffer().W {
		if v != snapshot[i] {
			t.Fatalf("W[%d] changed on repeated zero: %f != %f", i, v, snapshot[i])
		}
	}
}

func TestAdvanceProblemShift(t *testing.T) {
	const n = 10
	m := newTestManager(t, n)
	d := m.Buffer().Dims()

	// Stamp every slot with a unique value.
	for i := range m.Buffer().X {
		m.Buffer().X[i] = float64(i)
	}
	for i := range m.Buffer().Y {
		m.Buffer().Y[i] = 1000 + float64(i)
	}
	for i := range m.Buffer().U {
		m.Buffer().U[i] = 2000 + float64(i)
	}
	oldX := append([]float64(nil), m.Buffer().X...)
	oldY := append([]float64(nil), m.Buffer().Y...)
	oldU := append([]float64(nil), m.Buffer().U...)

	const count = 3
	if err := m.AdvanceProblem(count); err != nil {
		t.Fatalf("AdvanceProblem failed: %v", err)
	}

	for i := 0; i < n-count; i++ {
		for f := 0; f < d.NY; f++ {
			if got, want := m.Buffer().StageRef(i)[f], oldY[(i+count)*d.NY+f]; got != want {
				t.Errorf("stage_ref[%d][%d] = %f, want %f", i, f, got, want)
			}
		}
		for f := 0; f < d.NU; f++ {
			if got, want := m.Buffer().Control(i)[f], oldU[(i+count)*d.NU+f]; got != want {
				t.Errorf("control[%d][%d] = %f, want %f", i, f, got, want)
			}
		}
		for f := 0; f < d.NX; f++ {
			if got, want := m.Buffer().State(i+1)[f], oldX[(i+1+count)*d.NX+f]; got != want {
				t.Errorf("state[%d][%d] = %f, want %f", i+1, f, got, want)
			}
		}
	}

	// The measurement slot is never touched by the shift.
	for f := 0; f < d.NX; f++ {
		if m.Buffer().State(0)[f] != oldX[f] {
			t.Errorf("state[0][%d] changed during advance", f)
		}
	}
}

func TestAdvanceProblemBounds(t *testing.T) {
	m := newTestManager(t, 10)
	if err := m.AdvanceProblem(10); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("count == N: expected ErrIndexOutOfRange, got %v", err)
	}
	if err := m.AdvanceProblem(9); err != nil {
		t.Errorf("count == N-1 should succeed, got %v", err)
	}
	if err := m.BackfillReference(10); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("backfill count == N: expected ErrIndexOutOfRange, got %v", err)
	}
}

func TestHandleNewTrajectoryShortPlan(t *testing.T) {
	m := newTestManager(t, 10)
	tr := makeTraj(5)

	eff, err := m.HandleNewTrajectory(tr)
	if err != nil {
		t.Fatalf("HandleNewTrajectory failed: %v", err)
	}
	if eff.Len() != 5 {
		t.Fatalf("effective trajectory has %d points, want 5", eff.Len())
	}
	buf := m.Buffer()

	// Stages [0,4): nominal profile.
	for i := 0; i < 4; i++ {
		if got := buf.StageWeightDiag(i, IdxX); got != testWeights.Nominal.Pose {
			t.Errorf("stage %d weight = %f, want nominal %f", i, got, testWeights.Nominal.Pose)
		}
	}
	// Stage 4 carries the relocated terminal profile.
	if got := buf.StageWeightDiag(4, IdxX); got != testWeights.Terminal.Pose {
		t.Errorf("stage 4 weight = %f, want terminal %f", got, testWeights.Terminal.Pose)
	}
	// Stages [5,10): zero stage weight.
	for i := 5; i < 10; i++ {
		for f := 0; f < 4; f++ {
			if got := buf.StageWeightDiag(i, f); got != 0 {
				t.Errorf("stage %d field %d weight = %f, want 0", i, f, got)
			}
		}
	}
	// Terminal weight is zero.
	for f := 0; f < 4; f++ {
		if got := buf.TerminalWeightDiag(f); got != 0 {
			t.Errorf("terminal weight field %d = %f, want 0", f, got)
		}
	}
	if m.LastReferenceIndex() != 0 {
		t.Errorf("last reference index = %d, want 0", m.LastReferenceIndex())
	}
}

func TestHandleNewTrajectoryLongPlan(t *testing.T) {
	m := newTestManager(t, 10)
	tr := makeTraj(14)

	if _, err := m.HandleNewTrajectory(tr); err != nil {
		t.Fatalf("HandleNewTrajectory failed: %v", err)
	}
	buf := m.Buffer()

	// Terminal reference previews the first unreached waypoint.
	pt := tr.Points[10]
	if buf.YN[IdxX] != pt.X || buf.YN[IdxY] != pt.Y || buf.YN[IdxVelLong] != pt.Velocity {
		t.Errorf("terminal ref = (%f,%f,%f), want (%f,%f,%f)",
			buf.YN[IdxX], buf.YN[IdxY], buf.YN[IdxVelLong], pt.X, pt.Y, pt.Velocity)
	}
	// Every stage keeps the nominal profile.
	for i := 0; i < 10; i++ {
		if got := buf.StageWeightDiag(i, IdxVelLong); got != testWeights.Nominal.Velocity {
			t.Errorf("stage %d velocity weight = %f, want %f", i, got, testWeights.Nominal.Velocity)
		}
	}
}

func TestHandleNewTrajectoryEmptyPlan(t *testing.T) {
	m := newTestManager(t, 10)

	if _, err := m.HandleNewTrajectory(traj.Trajectory{}); err != nil {
		t.Fatalf("empty plan should clamp, got error: %v", err)
	}
	buf := m.Buffer()
	for i := 0; i < 10; i++ {
		if got := buf.StageWeightDiag(i, IdxX); got != 0 {
			t.Errorf("stage %d weight = %f, want 0 for empty plan", i, got)
		}
	}
	for f := 0; f < 4; f++ {
		if got := buf.TerminalWeightDiag(f); got != 0 {
			t.Errorf("terminal weight field %d = %f, want 0", f, got)
		}
	}
}

func TestBackfillSoftLanding(t *testing.T) {
	const n = 10
	m := newTestManager(t, n)
	tr := makeTraj(n + 2)

	if _, err := m.HandleNewTrajectory(tr); err != nil {
		t.Fatalf("HandleNewTrajectory failed: %v", err)
	}

	// Vehicle is at index 5; the plan has 12 points, so beyond the refill
	// start (5 + 5 = 10) only 2 real points remain for the 5 requested.
	m.SetTemporalIndexer(fixedIndex(5))

	if err := m.AdvanceProblem(5); err != nil {
		t.Fatalf("AdvanceProblem failed: %v", err)
	}
	if err := m.BackfillReference(5); err != nil {
		t.Fatalf("BackfillReference failed: %v", err)
	}
	buf := m.Buffer()

	// Two real stages refilled from trajectory indices 10 and 11.
	for i := 0; i < 2; i++ {
		ref := buf.StageRef(5 + i)
		pt := tr.Points[10+i]
		if ref[IdxX] != pt.X || ref[IdxY] != pt.Y {
			t.Errorf("refilled stage %d = (%f,%f), want (%f,%f)", 5+i, ref[IdxX], ref[IdxY], pt.X, pt.Y)
		}
	}
	// Remaining three stages lose their tracking cost.
	for i := 7; i < n; i++ {
		if got := buf.StageWeightDiag(i, IdxX); got != 0 {
			t.Errorf("stage %d weight = %f, want 0", i, got)
		}
	}
	// The stage immediately preceding the zeroed block gets the terminal
	// profile.
	if got := buf.StageWeightDiag(6, IdxX); got != testWeights.Terminal.Pose {
		t.Errorf("soft-landing stage weight = %f, want terminal %f", got, testWeights.Terminal.Pose)
	}
	// The trajectory is exhausted, so the terminal weight is zeroed.
	for f := 0; f < 4; f++ {
		if got := buf.TerminalWeightDiag(f); got != 0 {
			t.Errorf("terminal weight field %d = %f, want 0", f, got)
		}
	}
}

func TestBackfillWithRemainingPlan(t *testing.T) {
	const n = 10
	m := newTestManager(t, n)
	tr := makeTraj(30)

	if _, err := m.HandleNewTrajectory(tr); err != nil {
		t.Fatalf("HandleNewTrajectory failed: %v", err)
	}
	m.SetTemporalIndexer(fixedIndex(3))

	if err := m.AdvanceProblem(3); err != nil {
		t.Fatalf("AdvanceProblem failed: %v", err)
	}
	if err := m.BackfillReference(3); err != nil {
		t.Fatalf("BackfillReference failed: %v", err)
	}
	buf := m.Buffer()

	// Tail stages [7,10) refilled from trajectory indices 10..12.
	for i := 0; i < 3; i++ {
		ref := buf.StageRef(7 + i)
		pt := tr.Points[10+i]
		if ref[IdxX] != pt.X {
			t.Errorf("refilled stage %d x = %f, want %f", 7+i, ref[IdxX], pt.X)
		}
	}
	// Terminal reference previews index 13.
	if buf.YN[IdxX] != tr.Points[13].X {
		t.Errorf("terminal ref x = %f, want %f", buf.YN[IdxX], tr.Points[13].X)
	}
}

func TestEnsureReferenceConsistencyUnwrap(t *testing.T) {
	m := newTestManager(t, 2)
	buf := m.Buffer()

	// A ~0.28 rad true turn taken the short way through +/-pi.
	buf.X[IdxHeading] = -3.0
	buf.Y[0*4+IdxHeading] = -3.0
	buf.Y[1*4+IdxHeading] = 3.0
	buf.YN[IdxHeading] = 3.0

	if rejected := m.EnsureReferenceConsistency(2); rejected {
		t.Fatal("plausible short-way turn was rejected")
	}

	h0 := buf.Y[0*4+IdxHeading]
	h1 := buf.Y[1*4+IdxHeading]
	if d := math.Abs(h1 - h0); d > 0.3 {
		t.Errorf("unwrapped headings differ by %f, want <= 0.3", d)
	}
	// The repaired value is the angularly continuous equivalent.
	if math.Abs(h1-(-3.0-(2*math.Pi-6.0))) > 1e-9 {
		t.Errorf("stage 1 heading = %f, want %f", h1, -3.0-(2*math.Pi-6.0))
	}
	if math.Abs(buf.YN[IdxHeading]-h1) > 1e-9 {
		t.Errorf("terminal heading = %f, want %f", buf.YN[IdxHeading], h1)
	}
}

func TestEnsureReferenceConsistencyRejectsLoopBack(t *testing.T) {
	m := newTestManager(t, 4)
	buf := m.Buffer()

	// Alternating forward/backward headings: a corrupt plan.
	buf.X[IdxHeading] = 0
	for i := 0; i < 4; i++ {
		if i%2 == 1 {
			buf.Y[i*4+IdxHeading] = math.Pi - 0.1
		}
	}

	if rejected := m.EnsureReferenceConsistency(4); !rejected {
		t.Error("loop-back plan was not rejected")
	}
}

func TestEnsureReferenceConsistencyClampsHorizon(t *testing.T) {
	m := newTestManager(t, 3)
	// Must not panic or read out of bounds when asked for more stages than
	// exist.
	m.EnsureReferenceConsistency(100)
}
