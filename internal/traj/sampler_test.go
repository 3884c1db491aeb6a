package traj

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestResampleEvenSpacing(t *testing.T) {
	in := Trajectory{Points: []Waypoint{
		{X: 0, Y: 0, Heading: HeadingFromAngle(0), Velocity: 1, TimeFromStart: 0},
		{X: 10, Y: 0, Heading: HeadingFromAngle(0), Velocity: 3, TimeFromStart: 1.0},
	}}

	out := FixedStepSampler{}.Resample(in, 0.25)
	if len(out.Points) != 5 {
		t.Fatalf("got %d points, want 5", len(out.Points))
	}
	for i, p := range out.Points {
		want := 0.25 * float64(i)
		if math.Abs(p.TimeFromStart-want) > 1e-12 {
			t.Errorf("point %d at t=%f, want %f", i, p.TimeFromStart, want)
		}
	}
	// Linear interpolation of position and velocity.
	mid := out.Points[2]
	if math.Abs(mid.X-5.0) > 1e-9 || math.Abs(mid.Velocity-2.0) > 1e-9 {
		t.Errorf("midpoint = (x=%f, v=%f), want (5, 2)", mid.X, mid.Velocity)
	}
}

func TestResampleHeadingShortArc(t *testing.T) {
	in := Trajectory{Points: []Waypoint{
		{Heading: HeadingFromAngle(-3.0), TimeFromStart: 0},
		{Heading: HeadingFromAngle(3.0), TimeFromStart: 1.0},
	}}
	out := FixedStepSampler{}.Resample(in, 0.5)
	if len(out.Points) < 2 {
		t.Fatalf("got %d points", len(out.Points))
	}
	// The interpolated heading must travel through +/-pi, not across zero.
	mid := out.Points[1].Heading.Angle()
	if math.Abs(mid) < 3.0 {
		t.Errorf("midpoint heading %f interpolated the long way", mid)
	}
}

func TestResamplePassThrough(t *testing.T) {
	single := Trajectory{Points: []Waypoint{{X: 1}}}
	opts := cmpopts.EquateApprox(0, 1e-12)

	if diff := cmp.Diff(single, FixedStepSampler{}.Resample(single, 0.1), opts); diff != "" {
		t.Errorf("single-point trajectory changed (-want +got):\n%s", diff)
	}
	two := Trajectory{Points: []Waypoint{{X: 1}, {X: 2, TimeFromStart: 1}}}
	if diff := cmp.Diff(two, FixedStepSampler{}.Resample(two, 0), opts); diff != "" {
		t.Errorf("zero-step resample changed trajectory (-want +got):\n%s", diff)
	}
}
