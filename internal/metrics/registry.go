package metrics

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/san-kum/sensim/internal/dynamo"
)

// DefaultStabilityThreshold bounds every state component for "stability".
const DefaultStabilityThreshold = 10.0

var componentVar = regexp.MustCompile(`^(mean|rms|amplitude|max|min|final)(?:_x(\d+))?$`)

// New builds the metric a report variable names for dyn:
//
//	energy, energy_drift, stability
//	mean, rms, amplitude, max, min, final   (state component 0)
//	mean_x1, final_x2, ...                  (state component i)
func New(variable string, dyn dynamo.System) (dynamo.Metric, error) {
	switch variable {
	case "energy":
		return NewEnergy(dyn), nil
	case "energy_drift":
		return NewEnergyDrift(dyn), nil
	case "stability":
		return NewStability(DefaultStabilityThreshold), nil
	}

	m := componentVar.FindStringSubmatch(variable)
	if m == nil {
		return nil, fmt.Errorf("unknown metric: %s", variable)
	}
	index := 0
	if m[2] != "" {
		index, _ = strconv.Atoi(m[2])
	}
	if index >= dyn.StateDim() {
		return nil, fmt.Errorf("metric %s: state has only %d components", variable, dyn.StateDim())
	}
	reduce := Reduction(m[1])
	if !reduce.valid() {
		return nil, fmt.Errorf("unknown metric: %s", variable)
	}
	return NewComponent(variable, reduce, index), nil
}

// IsMetric reports whether variable names a metric rather than a
// parameter echo.
func IsMetric(variable string) bool {
	switch variable {
	case "energy", "energy_drift", "stability":
		return true
	}
	return componentVar.MatchString(variable)
}

// Names lists the report variables New understands; N is a state index.
func Names() []string {
	return []string{
		"energy", "energy_drift", "stability",
		"mean[_xN]", "rms[_xN]", "amplitude[_xN]", "max[_xN]", "min[_xN]", "final[_xN]",
	}
}
