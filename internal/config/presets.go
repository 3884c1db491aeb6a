package config

import "sort"

// Presets are named tuning profiles for common tracking situations.
var Presets = map[string]*Config{
	"default": DefaultConfig(),
	"smooth": {
		Horizon: 25, TimeStep: 0.1, Resample: true,
		Weights: WeightsConfig{
			Nominal:  ProfileConfig{Pose: 5.0, Heading: 8.0, Velocity: 2.0},
			Terminal: ProfileConfig{Pose: 500.0, Heading: 800.0, Velocity: 200.0},
		},
		Solver:  SolverConfig{Iterations: 60, Rate: 0.25, MaxAccel: 1.5, MaxSteer: 0.35},
		Vehicle: VehicleConfig{Wheelbase: DefaultWheelbase},
	},
	"aggressive": {
		Horizon: 25, TimeStep: 0.05, Resample: true,
		Weights: WeightsConfig{
			Nominal:  ProfileConfig{Pose: 30.0, Heading: 20.0, Velocity: 15.0},
			Terminal: ProfileConfig{Pose: 2000.0, Heading: 1500.0, Velocity: 1000.0},
		},
		Solver:  SolverConfig{Iterations: 40, Rate: 0.8, MaxAccel: 4.0, MaxSteer: 0.6},
		Vehicle: VehicleConfig{Wheelbase: DefaultWheelbase},
	},
	"shuttle": {
		Horizon: 40, TimeStep: 0.1, Resample: true,
		Weights: WeightsConfig{
			Nominal:  ProfileConfig{Pose: 10.0, Heading: 10.0, Velocity: 5.0},
			Terminal: ProfileConfig{Pose: 1000.0, Heading: 1000.0, Velocity: 500.0},
		},
		Solver:  SolverConfig{Iterations: 50, Rate: 0.5, MaxAccel: 1.0, MaxSteer: 0.4},
		Vehicle: VehicleConfig{Wheelbase: 4.5},
	},
}

// GetPreset returns the named preset, or nil when unknown.
func GetPreset(name string) *Config {
	return Presets[name]
}

// ListPresets returns the available preset names.
func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for k := range Presets {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
