package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/san-kum/sensim/internal/config"
	"github.com/san-kum/sensim/internal/engine"
	"github.com/san-kum/sensim/internal/integrators"
	"github.com/san-kum/sensim/internal/metrics"
	"github.com/san-kum/sensim/internal/morris"
	"github.com/san-kum/sensim/internal/physics"
	"github.com/san-kum/sensim/internal/runner"
	"github.com/san-kum/sensim/internal/storage"
	"github.com/san-kum/sensim/internal/table"
	"github.com/san-kum/sensim/internal/viz"
)

func initExperiment(cmd *cobra.Command, args []string) error {
	path := args[0]
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	cfg := config.GetPreset(preset)
	if cfg == nil {
		return fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
	}
	if err := config.Save(path, cfg); err != nil {
		return err
	}
	fmt.Printf("wrote %s (%s preset, %d parameters)\n", path, preset, len(cfg.Experiment.Parameters))
	return nil
}

func showDesign(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	cfg, eng, err := loadExperiment(args[0])
	if err != nil {
		return err
	}
	exp := &cfg.Experiment

	design, err := morris.GenerateDesign(ctx, eng, exp.Parameters, exp.NumPaths)
	if err != nil {
		return err
	}
	design.Matrix.Name = exp.DesignTable()

	if saveDesign {
		st, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.ReplaceTable(ctx, design.Matrix); err != nil {
			return err
		}
	}
	fmt.Println(viz.RenderTable(design.Matrix, maxRows))
	return nil
}

func runExperiment(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	cfg, eng, err := loadExperiment(args[0])
	if err != nil {
		return err
	}
	exp := &cfg.Experiment

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	d := morris.NewDispenser(exp, cfg.Container(), eng)
	if err := d.Initialise(ctx); err != nil {
		return err
	}
	design := d.Design()
	design.Matrix.Name = exp.DesignTable()
	if err := st.ReplaceTable(ctx, design.Matrix); err != nil {
		return fmt.Errorf("store design: %w", err)
	}

	r := &runner.Runner{
		Store:           st,
		Workers:         cfg.Workers,
		ContinueOnError: cfg.ContinueOnError || continueOnError,
	}
	if workers > 0 {
		r.Workers = workers
	}

	var summary *runner.Summary
	if showProgress {
		summary, err = runWithProgress(ctx, r, d, exp.Name)
	} else {
		summary, err = r.Run(ctx, d)
	}
	if err != nil {
		return err
	}
	if len(summary.Failed) > 0 {
		fmt.Println(viz.StatusFail.Render(fmt.Sprintf("%d simulations failed: %s",
			len(summary.Failed), strings.Join(summary.Failed, ", "))))
	}

	return analyze(ctx, args[0], cfg, eng, st)
}

// runWithProgress runs r in the background while a progress bar follows
// it in the foreground.
func runWithProgress(ctx context.Context, r *runner.Runner, d *morris.Dispenser, title string) (*runner.Summary, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(viz.NewProgress(title, d.Remaining()), tea.WithContext(ctx))
	r.Progress = func(done, total int) {
		p.Send(viz.ProgressMsg{Done: done, Total: total})
	}

	type outcome struct {
		summary *runner.Summary
		err     error
	}
	result := make(chan outcome, 1)
	go func() {
		summary, err := r.Run(ctx, d)
		p.Send(viz.FinishedMsg{Err: err})
		result <- outcome{summary, err}
	}()

	final, err := p.Run()
	if m, ok := final.(viz.Progress); ok && m.Cancelled() {
		cancel()
	}
	out := <-result
	if out.err != nil {
		return nil, out.err
	}
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		slog.Warn("progress display failed", "err", err)
	}
	return out.summary, nil
}

func analyzeExperiment(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	cfg, eng, err := loadExperiment(args[0])
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	return analyze(ctx, args[0], cfg, eng, st)
}

// analyze recomputes the result tables and records the analysed years in
// the experiment file at path.
func analyze(ctx context.Context, path string, cfg *config.Config, eng morris.Engine, st *storage.Store) error {
	exp := cfg.Experiment
	design, err := st.GetData(ctx, exp.DesignTable())
	if err != nil {
		return err
	}
	if design.Len() == 0 {
		return fmt.Errorf("%w: no stored design %s; run the experiment first", morris.ErrConfiguration, exp.DesignTable())
	}

	a := &morris.Analyzer{Engine: eng, Store: st}
	res, err := a.Run(ctx, &exp, design)
	if err != nil {
		return err
	}
	written, err := cfg.RecordYears(path, res.Years)
	if err != nil {
		return err
	}
	if written {
		slog.Info("recorded analysed years", "file", path, "years", res.Years)
	}

	fmt.Println(viz.RenderTable(res.MuStar, maxRows))
	fmt.Println(viz.Subtle.Render(fmt.Sprintf("years %v, %d responses; tables %s and %s (run %s)",
		res.Years, len(res.Responses), res.ElementaryEffects.Name, res.MuStar.Name, st.RunID())))
	return nil
}

func generateFiles(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	cfg, eng, err := loadExperiment(args[0])
	if err != nil {
		return err
	}
	d := morris.NewDispenser(&cfg.Experiment, cfg.Container(), eng)
	if err := d.Initialise(ctx); err != nil {
		return err
	}
	paths, err := d.GenerateFiles(args[1])
	if err != nil {
		return err
	}
	fmt.Printf("wrote %d simulation files to %s\n", len(paths), args[1])
	return nil
}

// editParams prints the experiment's editable tables and factor groupings.
// With --export it writes the tables as CSV; with --import it reads them
// back into the experiment file.
func editParams(cmd *cobra.Command, args []string) error {
	path := args[0]
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	exp := &cfg.Experiment

	if paramsImport != "" {
		var tables []*table.Table
		for _, t := range exp.Tables() {
			in, err := table.ReadCSVFile(filepath.Join(paramsImport, t.Name+".csv"), t.Name)
			if err != nil {
				return err
			}
			tables = append(tables, in)
		}
		if err := exp.SetTables(tables); err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		if err := config.Save(path, cfg); err != nil {
			return err
		}
		fmt.Printf("updated %s: %d parameters, %d paths\n", path, len(exp.Parameters), exp.NumPaths)
	}

	tables := exp.Tables()
	if paramsExport != "" {
		if err := os.MkdirAll(paramsExport, 0755); err != nil {
			return err
		}
		for _, t := range tables {
			out := filepath.Join(paramsExport, t.Name+".csv")
			if err := table.WriteCSVFile(out, t); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", out)
		}
	}

	for _, t := range tables {
		fmt.Println(viz.RenderTable(t, 0))
	}
	factors := exp.Factors()
	if len(factors) == 0 {
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KIND\tNAME\tCOLUMNS\tVALUES")
	for _, f := range factors {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", f.Kind, f.Name, strings.Join(f.Columns, ","), strings.Join(f.Values, ","))
	}
	return w.Flush()
}

func showTable(cmd *cobra.Command, args []string) error {
	st, err := openStore(nil)
	if err != nil {
		return err
	}
	defer st.Close()

	t, err := st.GetData(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	fmt.Println(viz.RenderTable(t, maxRows))
	return nil
}

func plotConvergence(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(args[0])
	if err != nil {
		return err
	}
	year, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid year %q: %w", args[1], err)
	}
	variable := args[2]

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	ee, err := st.GetData(cmd.Context(), cfg.Experiment.ElementaryEffectsTable())
	if err != nil {
		return err
	}
	if ee.Len() == 0 {
		return fmt.Errorf("no elementary effects stored for %s", cfg.Experiment.Name)
	}

	var out string
	if plotParam != "" {
		out, err = viz.PlotConvergence(ee, plotParam, year, variable)
	} else {
		out, err = viz.ConvergenceOverview(ee, year, variable)
	}
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}

func exportTable(cmd *cobra.Command, args []string) error {
	st, err := openStore(nil)
	if err != nil {
		return err
	}
	defer st.Close()

	t, err := st.GetData(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if t.Len() == 0 {
		return fmt.Errorf("no data in table %s", args[0])
	}
	if err := storage.ExportFile(args[1], t, st.RunID()); err != nil {
		return err
	}
	fmt.Printf("exported %d rows of %s to %s\n", t.Len(), t.Name, args[1])
	return nil
}

func listTables(cmd *cobra.Command, args []string) error {
	st, err := openStore(nil)
	if err != nil {
		return err
	}
	defer st.Close()

	infos, err := st.Tables(cmd.Context())
	if err != nil {
		return err
	}
	if len(infos) == 0 {
		fmt.Println("no tables found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tROWS\tCOLUMNS\tWRITTEN\tRUN")
	for _, info := range infos {
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\t%s\n",
			info.Name,
			info.Rows,
			len(info.Columns),
			info.WrittenAt.Local().Format("2006-01-02 15:04:05"),
			info.RunID,
		)
	}
	return w.Flush()
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "presets\t%s\n", strings.Join(config.ListPresets(), ", "))
	fmt.Fprintf(w, "models\t%s\n", strings.Join(physics.Names(), ", "))
	fmt.Fprintf(w, "integrators\t%s\n", strings.Join(integrators.Names(), ", "))
	fmt.Fprintf(w, "engines\t%s\n", strings.Join(engine.Kinds(), ", "))
	fmt.Fprintf(w, "metrics\t%s\n", strings.Join(metrics.Names(), ", "))
	fmt.Fprintf(w, "themes\t%s\n", strings.Join(viz.ThemeNames(), ", "))
	return w.Flush()
}

func loadExperiment(path string) (*config.Config, morris.Engine, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	opts := cfg.EngineOptions()
	opts.Logger = slog.Default()
	eng, err := engine.New(cfg.Engine.Kind, opts)
	if err != nil {
		return nil, nil, err
	}
	return cfg, eng, nil
}

// openStore opens the --data directory, else the experiment's data_dir,
// else the default.
func openStore(cfg *config.Config) (*storage.Store, error) {
	dir := dataDir
	if dir == "" && cfg != nil {
		dir = cfg.DataDir
	}
	if dir == "" {
		dir = config.DefaultDataDir
	}
	return storage.OpenDir(dir)
}
