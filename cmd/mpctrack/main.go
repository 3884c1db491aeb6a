package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"mpctrack/internal/canlink"
	"mpctrack/internal/config"
	"mpctrack/internal/export"
	"mpctrack/internal/integrators"
	"mpctrack/internal/metrics"
	"mpctrack/internal/model"
	"mpctrack/internal/optim"
	"mpctrack/internal/solver"
	"mpctrack/internal/store"
	"mpctrack/internal/tracker"
	"mpctrack/internal/tui"
	"mpctrack/internal/viz"
)

var (
	dataDir    string
	configFile string
	preset     string
	pathName   string
	cruise     float64
	duration   float64
	dumpCAN    bool
	svgOut     string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "mpctrack",
		Short: "rolling-horizon MPC trajectory tracker",
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".mpctrack", "data directory")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a closed-loop tracking simulation",
		RunE:  runTracking,
	}
	runCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	runCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	runCmd.Flags().StringVar(&pathName, "path", "scurve", "reference path (straight, scurve, lane-change, loop)")
	runCmd.Flags().Float64Var(&cruise, "cruise", 8.0, "cruise velocity m/s")
	runCmd.Flags().Float64Var(&duration, "time", 40.0, "plan duration s")
	runCmd.Flags().BoolVar(&dumpCAN, "can", false, "print encoded command frames")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&svgOut, "svg", "", "also write an XY path plot to this SVG file")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run with live terminal view",
		RunE:  runLive,
	}
	liveCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	liveCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	liveCmd.Flags().StringVar(&pathName, "path", "scurve", "reference path")
	liveCmd.Flags().Float64Var(&cruise, "cruise", 8.0, "cruise velocity m/s")
	liveCmd.Flags().Float64Var(&duration, "time", 40.0, "plan duration s")

	tuneCmd := &cobra.Command{
		Use:   "tune",
		Short: "grid-search nominal weights on a reference path",
		RunE:  runTune,
	}
	tuneCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	tuneCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	tuneCmd.Flags().StringVar(&pathName, "path", "scurve", "reference path")
	tuneCmd.Flags().Float64Var(&cruise, "cruise", 8.0, "cruise velocity m/s")
	tuneCmd.Flags().Float64Var(&duration, "time", 40.0, "plan duration s")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, p := range config.ListPresets() {
				fmt.Println(p)
			}
			return nil
		},
	}

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, liveCmd, tuneCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		if p := config.GetPreset(preset); p != nil {
			cfg = p
		} else {
			return nil, fmt.Errorf("unknown preset %q (available: %v)", preset, config.ListPresets())
		}
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}
	return cfg, nil
}

func buildController(cfg *config.Config) (*tracker.Controller, *model.Bicycle, error) {
	plant := model.NewBicycle(cfg.Vehicle.Wheelbase)
	limits := solver.Limits{
		Min: []float64{-cfg.Solver.MaxAccel, -cfg.Solver.MaxSteer},
		Max: []float64{cfg.Solver.MaxAccel, cfg.Solver.MaxSteer},
	}
	opt, err := solver.NewShootingSolver(plant, cfg.Dims(), cfg.TimeStep, cfg.Solver.Iterations, cfg.Solver.Rate, limits)
	if err != nil {
		return nil, nil, err
	}
	ctrl, err := tracker.New(tracker.Config{
		Dims:     cfg.Dims(),
		Weights:  cfg.HorizonWeights(),
		TimeStep: cfg.TimeStep,
		Resample: cfg.Resample,
	}, opt)
	if err != nil {
		return nil, nil, err
	}
	return ctrl, plant, nil
}

// runSimulation drives the controller against an RK4-stepped plant and
// returns the per-cycle samples plus aggregate metrics.
func runSimulation(cfg *config.Config) ([]store.Sample, map[string]float64, error) {
	path, err := buildPath(pathName, cruise, duration)
	if err != nil {
		return nil, nil, err
	}
	ctrl, plant, err := buildController(cfg)
	if err != nil {
		return nil, nil, err
	}
	if err := ctrl.SetTrajectory(path); err != nil {
		return nil, nil, err
	}

	stepper := integrators.NewRK4()
	set := metrics.DefaultSet()

	first := path.Points[0]
	state := []float64{first.X, first.Y, first.Heading.Angle(), first.Velocity}

	cycles := int(duration / cfg.TimeStep)
	samples := make([]store.Sample, 0, cycles)

	for i := 0; i < cycles; i++ {
		command, err := ctrl.Cycle(state)
		if err != nil {
			return nil, nil, fmt.Errorf("cycle %d: %w", i, err)
		}

		u := []float64{command.Accel, command.Steer}
		ct := ctrl.CrossTrackError(state[0], state[1])
		set.Observe(state, u, ct)

		ref := ctrl.Buffer().StageRef(0)
		samples = append(samples, store.Sample{
			T: float64(i) * cfg.TimeStep,
			X: state[0], Y: state[1], Heading: state[2], Velocity: state[3],
			RefX: ref[0], RefY: ref[1], RefHeading: ref[2], RefVel: ref[3],
			Accel: command.Accel, Steer: command.Steer,
			CrossTrack: ct,
		})

		stepper.Step(plant, state, state, u, cfg.TimeStep)
	}

	return samples, set.Values(), nil
}

func runTracking(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	samples, vals, err := runSimulation(cfg)
	if err != nil {
		return err
	}

	if dumpCAN {
		enc := canlink.NewEncoder()
		for _, s := range samples {
			f := enc.Encode(tracker.Command{Accel: s.Accel, Steer: s.Steer})
			fmt.Printf("  0x%03X  % X\n", f.ID, f.Data[:f.Length])
		}
	}

	st := store.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	meta := store.RunMetadata{
		Path:     pathName,
		TimeStep: cfg.TimeStep,
		Horizon:  cfg.Horizon,
		Metrics:  vals,
	}
	runID, err := st.Save(meta, samples)
	if err != nil {
		return err
	}
	meta.ID = runID
	meta.Cycles = len(samples)

	fmt.Println(viz.Summary(meta))
	fmt.Println(viz.Plot(viz.CrossTrackSeries(samples), "cross-track error [m]", 8))
	fmt.Println(viz.Plot(viz.VelocitySeries(samples), "velocity [m/s]", 8))
	return nil
}

func runTune(cmd *cobra.Command, args []string) error {
	base, err := loadConfig()
	if err != nil {
		return err
	}

	scales := []float64{0.5, 1.0, 2.0, 5.0}
	search := optim.NewGridSearch(
		[]string{"pose", "heading", "velocity"},
		[][]float64{scales, scales, scales},
	)

	objective := func(ctx context.Context, params map[string]float64) (float64, error) {
		cfg := *base
		cfg.Weights.Nominal.Pose = base.Weights.Nominal.Pose * params["pose"]
		cfg.Weights.Nominal.Heading = base.Weights.Nominal.Heading * params["heading"]
		cfg.Weights.Nominal.Velocity = base.Weights.Nominal.Velocity * params["velocity"]

		_, vals, err := runSimulation(&cfg)
		if err != nil {
			return 0, err
		}
		return vals["cross_track_rms"], nil
	}

	best, score, err := search.Search(cmd.Context(), objective)
	if err != nil {
		return err
	}
	if best == nil {
		return fmt.Errorf("no weight combination completed a run on path %q", pathName)
	}

	fmt.Printf("best cross_track_rms %.4f m on %s\n", score, pathName)
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "WEIGHT\tSCALE\tVALUE")
	fmt.Fprintf(w, "pose\t%.1fx\t%.1f\n", best["pose"], base.Weights.Nominal.Pose*best["pose"])
	fmt.Fprintf(w, "heading\t%.1fx\t%.1f\n", best["heading"], base.Weights.Nominal.Heading*best["heading"])
	fmt.Fprintf(w, "velocity\t%.1fx\t%.1f\n", best["velocity"], base.Weights.Nominal.Velocity*best["velocity"])
	return w.Flush()
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := store.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPATH\tCYCLES\tRMS [m]")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%.4f\n", r.ID, r.Path, r.Cycles, r.Metrics["cross_track_rms"])
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := store.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	samples, err := st.LoadSamples(args[0])
	if err != nil {
		return err
	}
	fmt.Println(viz.Summary(*meta))
	fmt.Println(viz.Plot(viz.CrossTrackSeries(samples), "cross-track error [m]", 8))
	fmt.Println(viz.Plot(viz.VelocitySeries(samples), "velocity [m/s]", 8))

	if svgOut != "" {
		driven := make([]export.Point, len(samples))
		reference := make([]export.Point, len(samples))
		for i, s := range samples {
			driven[i] = export.Point{X: s.X, Y: s.Y}
			reference[i] = export.Point{X: s.RefX, Y: s.RefY}
		}
		if err := export.WritePathSVG(svgOut, driven, reference, 800, 600); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", svgOut)
	}
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	path, err := buildPath(pathName, cruise, duration)
	if err != nil {
		return err
	}
	ctrl, plant, err := buildController(cfg)
	if err != nil {
		return err
	}
	if err := ctrl.SetTrajectory(path); err != nil {
		return err
	}
	return tui.Run(ctrl, plant, path, cfg.TimeStep)
}
