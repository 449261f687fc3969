// Package engine provides the statistics engines behind Morris
// experiments: an in-process implementation and an adapter for R's
// sensitivity package.
package engine

import (
	"fmt"
	"log/slog"

	"github.com/san-kum/sensim/internal/morris"
)

const (
	DefaultLevels   = 20
	DefaultGridJump = 10
)

type Options struct {
	Levels   int
	GridJump int
	Seed     int64
	RScript  string
	TempDir  string
	Logger   *slog.Logger
}

// New returns the engine registered under kind: "native" or "rscript".
func New(kind string, opts Options) (morris.Engine, error) {
	if opts.Levels == 0 {
		opts.Levels = DefaultLevels
	}
	if opts.GridJump == 0 {
		opts.GridJump = DefaultGridJump
	}

	switch kind {
	case "", "native":
		return NewNative(opts.Levels, opts.GridJump, opts.Seed), nil
	case "rscript", "r":
		r := NewRScript(opts.RScript, opts.Levels, opts.GridJump, opts.Seed)
		r.TempDir = opts.TempDir
		r.Logger = opts.Logger
		return r, nil
	}
	return nil, fmt.Errorf("unknown engine: %s", kind)
}

func Kinds() []string { return []string{"native", "rscript"} }
