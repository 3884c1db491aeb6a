// Package horizon manages the per-stage reference and weight buffers consumed
// by the MPC solver.
//
// A [Buffer] holds the fixed-size state, control, reference and weight arrays
// sized by the solver's code-generation constants. A [Manager] owns exactly
// one Buffer and populates it from planner trajectories:
//
//   - [Manager.HandleNewTrajectory]: load a fresh plan into the buffers
//   - [Manager.AdvanceProblem] + [Manager.BackfillReference]: roll the horizon
//     forward as time advances and refill the exposed tail
//   - [Manager.EnsureReferenceConsistency]: repair heading wraparound before
//     every solve
//
// All operations run in bounded time with no allocation; buffers are created
// once at construction and mutated in place for the controller's lifetime.
// Out-of-range indices are caller bugs and fail fast with
// [ErrIndexOutOfRange].
//
// # Thread Safety
//
// A Manager and its Buffer are NOT thread-safe. Each control loop must own an
// independent instance.
package horizon
