package physics

import (
	"fmt"
	"sort"

	"github.com/san-kum/sensim/internal/dynamo"
)

var models = map[string]func() dynamo.Model{
	"pendulum":   func() dynamo.Model { return NewPendulum() },
	"duffing":    func() dynamo.Model { return NewDuffing() },
	"vanderpol":  func() dynamo.Model { return NewVanDerPol() },
	"doublewell": func() dynamo.Model { return NewDoubleWell() },
	"lorenz":     func() dynamo.Model { return NewLorenz() },
}

// New returns a fresh model with default parameters.
func New(name string) (dynamo.Model, error) {
	fn, ok := models[name]
	if !ok {
		return nil, fmt.Errorf("unknown model: %s", name)
	}
	return fn(), nil
}

// Configure builds model name and applies params to it.
func Configure(name string, params map[string]float64) (dynamo.Model, error) {
	m, err := New(name)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := m.SetParam(k, params[k]); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func Names() []string {
	names := make([]string, 0, len(models))
	for name := range models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
