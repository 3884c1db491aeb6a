// Package metrics collects per-cycle tracking quality measurements.
package metrics

import "math"

// Metric accumulates one scalar over a tracking run.
type Metric interface {
	Name() string
	Observe(x, u []float64, crossTrack float64)
	Value() float64
	Reset()
}

// CrossTrackRMS is the root mean square of the signed lateral offset.
type CrossTrackRMS struct {
	sumSq   float64
	samples int
}

func NewCrossTrackRMS() *CrossTrackRMS { return &CrossTrackRMS{} }

func (c *CrossTrackRMS) Name() string { return "cross_track_rms" }

func (c *CrossTrackRMS) Observe(x, u []float64, crossTrack float64) {
	c.sumSq += crossTrack * crossTrack
	c.samples++
}

func (c *CrossTrackRMS) Value() float64 {
	if c.samples == 0 {
		return 0
	}
	return math.Sqrt(c.sumSq / float64(c.samples))
}

func (c *CrossTrackRMS) Reset() {
	c.sumSq = 0
	c.samples = 0
}

// CrossTrackMax is the worst absolute lateral offset seen.
type CrossTrackMax struct {
	max float64
}

func NewCrossTrackMax() *CrossTrackMax { return &CrossTrackMax{} }

func (c *CrossTrackMax) Name() string { return "cross_track_max" }

func (c *CrossTrackMax) Observe(x, u []float64, crossTrack float64) {
	if v := math.Abs(crossTrack); v > c.max {
		c.max = v
	}
}

func (c *CrossTrackMax) Value() float64 { return c.max }

func (c *CrossTrackMax) Reset() { c.max = 0 }

// ControlEffort is the mean absolute control magnitude. High values point at
// a twitchy tuning even when the tracking error looks fine.
type ControlEffort struct {
	sum     float64
	samples int
}

func NewControlEffort() *ControlEffort { return &ControlEffort{} }

func (c *ControlEffort) Name() string { return "control_effort" }

func (c *ControlEffort) Observe(x, u []float64, crossTrack float64) {
	for _, val := range u {
		c.sum += math.Abs(val)
	}
	c.samples++
}

func (c *ControlEffort) Value() float64 {
	if c.samples == 0 {
		return 0
	}
	return c.sum / float64(c.samples)
}

func (c *ControlEffort) Reset() {
	c.sum = 0
	c.samples = 0
}

// Set evaluates a group of metrics over the same run.
type Set []Metric

func DefaultSet() Set {
	return Set{NewCrossTrackRMS(), NewCrossTrackMax(), NewControlEffort()}
}

func (s Set) Observe(x, u []float64, crossTrack float64) {
	for _, m := range s {
		m.Observe(x, u, crossTrack)
	}
}

func (s Set) Values() map[string]float64 {
	out := make(map[string]float64, len(s))
	for _, m := range s {
		out[m.Name()] = m.Value()
	}
	return out
}

func (s Set) Reset() {
	for _, m := range s {
		m.Reset()
	}
}
