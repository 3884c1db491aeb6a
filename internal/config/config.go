package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"mpctrack/internal/horizon"
)

const (
	DefaultHorizon    = 25
	DefaultTimeStep   = 0.1
	DefaultWheelbase  = 2.7
	DefaultIterations = 40
	DefaultRate       = 0.5
	DefaultMaxAccel   = 3.0
	DefaultMaxSteer   = 0.5

	DefaultNominalPose     = 10.0
	DefaultNominalHeading  = 10.0
	DefaultNominalVelocity = 10.0

	DefaultTerminalPose     = 1000.0
	DefaultTerminalHeading  = 1000.0
	DefaultTerminalVelocity = 1000.0
)

type Config struct {
	Horizon  int           `yaml:"horizon"`
	TimeStep float64       `yaml:"time_step"`
	Resample bool          `yaml:"resample"`
	Weights  WeightsConfig `yaml:"weights"`
	Solver   SolverConfig  `yaml:"solver"`
	Vehicle  VehicleConfig `yaml:"vehicle"`
}

type WeightsConfig struct {
	Nominal  ProfileConfig `yaml:"nominal"`
	Terminal ProfileConfig `yaml:"terminal"`
}

type ProfileConfig struct {
	Pose     float64 `yaml:"pose"`
	Heading  float64 `yaml:"heading"`
	Velocity float64 `yaml:"velocity"`
}

type SolverConfig struct {
	Iterations int     `yaml:"iterations"`
	Rate       float64 `yaml:"rate"`
	MaxAccel   float64 `yaml:"max_accel"`
	MaxSteer   float64 `yaml:"max_steer"`
}

type VehicleConfig struct {
	Wheelbase float64 `yaml:"wheelbase"`
}

func DefaultConfig() *Config {
	return &Config{
		Horizon:  DefaultHorizon,
		TimeStep: DefaultTimeStep,
		Resample: true,
		Weights: WeightsConfig{
			Nominal: ProfileConfig{
				Pose:     DefaultNominalPose,
				Heading:  DefaultNominalHeading,
				Velocity: DefaultNominalVelocity,
			},
			Terminal: ProfileConfig{
				Pose:     DefaultTerminalPose,
				Heading:  DefaultTerminalHeading,
				Velocity: DefaultTerminalVelocity,
			},
		},
		Solver: SolverConfig{
			Iterations: DefaultIterations,
			Rate:       DefaultRate,
			MaxAccel:   DefaultMaxAccel,
			MaxSteer:   DefaultMaxSteer,
		},
		Vehicle: VehicleConfig{Wheelbase: DefaultWheelbase},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Dims returns the solver problem dimensions implied by the config.
func (c *Config) Dims() horizon.Dims {
	return horizon.Dims{
		N:   c.Horizon,
		NX:  4,
		NU:  2,
		NY:  horizon.RefDim,
		NYN: horizon.RefDim,
	}
}

// HorizonWeights converts the YAML weight profiles to the manager's form.
func (c *Config) HorizonWeights() horizon.Weights {
	return horizon.Weights{
		Nominal: horizon.StateWeight{
			Pose:     c.Weights.Nominal.Pose,
			Heading:  c.Weights.Nominal.Heading,
			Velocity: c.Weights.Nominal.Velocity,
		},
		Terminal: horizon.StateWeight{
			Pose:     c.Weights.Terminal.Pose,
			Heading:  c.Weights.Terminal.Heading,
			Velocity: c.Weights.Terminal.Velocity,
		},
	}
}
