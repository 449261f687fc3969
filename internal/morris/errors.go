package morris

import (
	"errors"
	"fmt"
)

var (
	// ErrEngine marks failures of the statistics engine: it could not run,
	// exited abnormally, timed out, or returned an empty or malformed table.
	ErrEngine = errors.New("morris: statistics engine failed")

	// ErrDesignMismatch indicates engine results that do not line up with
	// the design, e.g. the wrong number of paths for a response.
	ErrDesignMismatch = errors.New("morris: results do not match design")

	// ErrConfiguration indicates an experiment that cannot run as configured.
	ErrConfiguration = errors.New("morris: invalid configuration")

	// ErrNoPredictedData is returned by the analyzer when the report table
	// holds no rows, usually because no report node recorded anything.
	ErrNoPredictedData = fmt.Errorf("%w: no simulation output to analyse", ErrConfiguration)

	// ErrDispenserBusy is returned when re-initialising a dispenser that is
	// still handing out simulations.
	ErrDispenserBusy = errors.New("morris: dispenser is draining")
)

// EngineError wraps the cause of an engine failure.
type EngineError struct {
	Op      string
	Wrapped error
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("morris: engine %s: %v", e.Op, e.Wrapped)
}

func (e *EngineError) Unwrap() []error {
	return []error{ErrEngine, e.Wrapped}
}

// NewEngineError wraps err as an engine failure of op. A nil err yields a
// plain ErrEngine for op.
func NewEngineError(op string, err error) error {
	if err == nil {
		err = errors.New("no result")
	}
	return &EngineError{Op: op, Wrapped: err}
}
