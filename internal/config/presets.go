package config

import (
	"sort"

	"github.com/san-kum/sensim/internal/model"
	"github.com/san-kum/sensim/internal/morris"
)

// Presets builds a ready-to-run experiment per model.
var Presets = map[string]func() *Config{
	"pendulum": func() *Config {
		return preset("Pendulum", "pendulum",
			map[string]float64{"mass": 1, "length": 1, "damping": 0.1, "gravity": 9.81, "drive": 0},
			map[string]float64{"x0": 0.5, "x1": 0},
			[]string{"energy", "amplitude", "rms_x1"},
			[]morris.Parameter{
				{Name: "length", Path: "[Pendulum].length", LowerBound: 0.5, UpperBound: 2},
				{Name: "damping", Path: "[Pendulum].damping", LowerBound: 0.05, UpperBound: 0.5},
				{Name: "mass", Path: "[Pendulum].mass", LowerBound: 0.5, UpperBound: 2},
			})
	},
	"duffing": func() *Config {
		return preset("Duffing", "duffing",
			map[string]float64{"alpha": -1, "beta": 1, "delta": 0.3, "gamma": 0.5, "omega": 1.2},
			map[string]float64{"x0": 1, "x1": 0},
			[]string{"amplitude", "rms", "final"},
			[]morris.Parameter{
				{Name: "delta", Path: "[Duffing].delta", LowerBound: 0.1, UpperBound: 0.5},
				{Name: "gamma", Path: "[Duffing].gamma", LowerBound: 0.2, UpperBound: 0.8},
				{Name: "omega", Path: "[Duffing].omega", LowerBound: 0.8, UpperBound: 1.6},
			})
	},
	"vanderpol": func() *Config {
		return preset("Vanderpol", "vanderpol",
			map[string]float64{"mu": 1},
			map[string]float64{"x0": 2, "x1": 0},
			[]string{"amplitude", "rms_x1", "max"},
			[]morris.Parameter{
				{Name: "mu", Path: "[Vanderpol].mu", LowerBound: 0.5, UpperBound: 3},
			})
	},
}

func preset(name, system string, params, initial map[string]float64, variables []string, parameters []morris.Parameter) *Config {
	cfg := DefaultConfig()
	cfg.Experiment.Name = name + "Sensitivity"
	cfg.Experiment.Parameters = parameters

	base := &model.Simulation{
		Name: cfg.Experiment.Base,
		Children: []*model.Node{
			{Name: "Clock", Kind: model.KindClock, Params: map[string]float64{
				"start_year": 2000, "years": 3, "year_length": 10, "dt": 0.01,
			}},
			{Name: "Integrator", Kind: model.KindIntegrator, Model: "rk4"},
			{Name: name, Kind: model.KindSystem, Model: system, Params: params},
			{Name: "Initial", Kind: model.KindInitial, Params: initial},
			{Name: "Outputs", Kind: model.KindFolder, Children: []*model.Node{
				{Name: morris.ReportTable, Kind: model.KindReport, Variables: variables},
			}},
		},
	}
	cfg.Model.Add(base)
	cfg.link()
	return cfg
}

// GetPreset returns a fresh copy of the named preset, or nil.
func GetPreset(name string) *Config {
	fn, ok := Presets[name]
	if !ok {
		return nil
	}
	return fn()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
