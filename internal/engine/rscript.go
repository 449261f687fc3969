package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/san-kum/sensim/internal/morris"
	"github.com/san-kum/sensim/internal/table"
)

const designScript = `library('sensitivity')
set.seed(%SEED%)
params <- c(%PARAMNAMES%)
apsimMorris <- morris(model=NULL
    ,params
    ,%NUMPATHS%
    ,design=list(type="oat",levels=%LEVELS%,grid.jump=%GRIDJUMP%)
    ,binf=c(%PARAMLOWERS%)
    ,bsup=c(%PARAMUPPERS%)
    ,scale=T
    )
write.csv(apsimMorris$X, "%OUTFILE%", row.names=FALSE)
`

const effectsScript = `library('sensitivity')
params <- c(%PARAMNAMES%)
apsimMorris <- morris(model=NULL
    ,params
    ,%NUMPATHS%
    ,design=list(type="oat",levels=%LEVELS%,grid.jump=%GRIDJUMP%)
    ,binf=c(%PARAMLOWERS%)
    ,bsup=c(%PARAMUPPERS%)
    ,scale=T
    )
apsimMorris$X <- read.csv("%DESIGNFILE%")
values = read.csv("%RESPONSEFILE%", check.names=FALSE)
allEE <- data.frame()
allStats <- data.frame()
for (columnName in colnames(values))
{
   apsimMorris$y <- values[[columnName]]
   tell(apsimMorris)
   ee <- data.frame(apsimMorris$ee)
   ee$variable <- columnName
   ee$path <- c(1:%NUMPATHS%)
   allEE <- rbind(allEE, ee)
   mu <- apply(apsimMorris$ee, 2, mean)
   mustar <- apply(apsimMorris$ee, 2, function(x) mean(abs(x)))
   sigma <- apply(apsimMorris$ee, 2, sd)
   stats <- data.frame(mu, mustar, sigma)
   stats$param <- params
   stats$variable <- columnName
   allStats <- rbind(allStats, stats)
}
write.csv(allEE, "%EEFILE%", row.names=FALSE)
write.csv(allStats, "%STATSFILE%", row.names=FALSE)
`

// RScript drives R's sensitivity package through generated scripts and
// CSV files. Every invocation works in its own temporary directory, which
// is removed however the invocation ends.
type RScript struct {
	Binary   string
	Levels   int
	GridJump int
	Seed     int64
	TempDir  string
	Logger   *slog.Logger
}

func NewRScript(binary string, levels, gridJump int, seed int64) *RScript {
	if binary == "" {
		binary = "Rscript"
	}
	return &RScript{Binary: binary, Levels: levels, GridJump: gridJump, Seed: seed}
}

func (r *RScript) GenerateDesign(ctx context.Context, params []morris.Parameter, numPaths int) (*table.Table, error) {
	const op = "generate design"
	dir, err := os.MkdirTemp(r.TempDir, "sensim-design-")
	if err != nil {
		return nil, morris.NewEngineError(op, err)
	}
	defer os.RemoveAll(dir)

	out := filepath.Join(dir, "design.csv")
	script := r.render(designScript, params, numPaths, map[string]string{"%OUTFILE%": out})
	if err := r.run(ctx, dir, script); err != nil {
		return nil, morris.NewEngineError(op, err)
	}

	design, err := table.ReadCSVFile(out, "Design")
	if err != nil {
		return nil, morris.NewEngineError(op, err)
	}
	if design.Len() == 0 {
		return nil, morris.NewEngineError(op, errors.New("R returned an empty design"))
	}
	return design, nil
}

func (r *RScript) ComputeEffects(ctx context.Context, params []morris.Parameter, design *table.Table, responses []morris.Response) (*morris.Effects, error) {
	const op = "compute effects"
	k := len(params)
	if k == 0 || design.Len()%(k+1) != 0 {
		return nil, morris.NewEngineError(op, fmt.Errorf("design has %d rows for %d parameters", design.Len(), k))
	}
	numPaths := design.Len() / (k + 1)

	dir, err := os.MkdirTemp(r.TempDir, "sensim-effects-")
	if err != nil {
		return nil, morris.NewEngineError(op, err)
	}
	defer os.RemoveAll(dir)

	files := map[string]string{
		"%DESIGNFILE%":   filepath.Join(dir, "parameters.csv"),
		"%RESPONSEFILE%": filepath.Join(dir, "apsimvariable.csv"),
		"%EEFILE%":       filepath.Join(dir, "ee.csv"),
		"%STATSFILE%":    filepath.Join(dir, "stats.csv"),
	}

	if err := table.WriteCSVFile(files["%DESIGNFILE%"], design); err != nil {
		return nil, morris.NewEngineError(op, err)
	}
	respTable, err := responseTable(responses)
	if err != nil {
		return nil, morris.NewEngineError(op, err)
	}
	if err := table.WriteCSVFile(files["%RESPONSEFILE%"], respTable); err != nil {
		return nil, morris.NewEngineError(op, err)
	}

	script := r.render(effectsScript, params, numPaths, files)
	if err := r.run(ctx, dir, script); err != nil {
		return nil, morris.NewEngineError(op, err)
	}

	eeRaw, err := table.ReadCSVFile(files["%EEFILE%"], "ee")
	if err != nil {
		return nil, morris.NewEngineError(op, err)
	}
	statsRaw, err := table.ReadCSVFile(files["%STATSFILE%"], "stats")
	if err != nil {
		return nil, morris.NewEngineError(op, err)
	}

	effects, err := parseEffects(params, eeRaw, statsRaw)
	if err != nil {
		return nil, morris.NewEngineError(op, err)
	}
	return effects, nil
}

// responseTable lays responses out as "<variable><year>" columns.
func responseTable(responses []morris.Response) (*table.Table, error) {
	t := table.New("Responses")
	for _, resp := range responses {
		if resp.Key.Year < 1000 || resp.Key.Year > 9999 {
			return nil, fmt.Errorf("year %d of %s does not fit the four-digit column suffix", resp.Key.Year, resp.Key.Variable)
		}
		col := resp.Key.ColumnName()
		t.AddColumn(col)
		for i, v := range resp.Values {
			for t.Len() <= i {
				t.NewRow()
			}
			t.Set(i, col, v)
		}
	}
	return t, nil
}

// parseEffects converts R's wide ee table (one column per parameter plus
// variable and path) and long stats table into structured effects.
func parseEffects(params []morris.Parameter, eeRaw, statsRaw *table.Table) (*morris.Effects, error) {
	if eeRaw.Len() == 0 || statsRaw.Len() == 0 {
		return nil, errors.New("R returned no effects")
	}
	out := &morris.Effects{}
	for row := 0; row < eeRaw.Len(); row++ {
		key, err := morris.ParseResponseColumn(table.AsString(eeRaw.Get(row, "variable")))
		if err != nil {
			return nil, err
		}
		path, ok := table.AsInt(eeRaw.Get(row, "path"))
		if !ok {
			return nil, fmt.Errorf("ee row %d has no path", row+1)
		}
		for _, p := range params {
			v, ok := eeRaw.Float(row, p.Name)
			if !ok {
				return nil, fmt.Errorf("ee row %d has no value for %q", row+1, p.Name)
			}
			out.Elementary = append(out.Elementary, morris.ElementaryEffect{Parameter: p.Name, Path: path, Response: key, Value: v})
		}
	}

	for row := 0; row < statsRaw.Len(); row++ {
		key, err := morris.ParseResponseColumn(table.AsString(statsRaw.Get(row, "variable")))
		if err != nil {
			return nil, err
		}
		s := morris.Statistic{Parameter: table.AsString(statsRaw.Get(row, "param")), Response: key}
		if s.Mu, err = statValue(statsRaw, row, "mu"); err != nil {
			return nil, err
		}
		if s.MuStar, err = statValue(statsRaw, row, "mustar"); err != nil {
			return nil, err
		}
		if s.Sigma, err = statValue(statsRaw, row, "sigma"); err != nil {
			return nil, err
		}
		out.Stats = append(out.Stats, s)
	}
	return out, nil
}

// statValue reads one statistic. NA (R's sd of a single path) is NaN, the
// same as the native engine reports it.
func statValue(t *table.Table, row int, col string) (float64, error) {
	if !t.HasColumn(col) {
		return 0, fmt.Errorf("stats table has no %q column", col)
	}
	v := t.Get(row, col)
	if v == nil {
		return math.NaN(), nil
	}
	f, ok := table.AsFloat(v)
	if !ok {
		return 0, fmt.Errorf("stats row %d: %s is not a number: %v", row+1, col, v)
	}
	return f, nil
}

func (r *RScript) render(script string, params []morris.Parameter, numPaths int, files map[string]string) string {
	names := make([]string, len(params))
	lowers := make([]string, len(params))
	uppers := make([]string, len(params))
	for i, p := range params {
		names[i] = strconv.Quote(p.Name)
		lowers[i] = strconv.FormatFloat(p.LowerBound, 'g', -1, 64)
		uppers[i] = strconv.FormatFloat(p.UpperBound, 'g', -1, 64)
	}

	pairs := []string{
		"%NUMPATHS%", strconv.Itoa(numPaths),
		"%PARAMNAMES%", strings.Join(names, ","),
		"%PARAMLOWERS%", strings.Join(lowers, ","),
		"%PARAMUPPERS%", strings.Join(uppers, ","),
		"%LEVELS%", strconv.Itoa(r.Levels),
		"%GRIDJUMP%", strconv.Itoa(r.GridJump),
		"%SEED%", strconv.FormatInt(r.Seed, 10),
	}
	for token, path := range files {
		pairs = append(pairs, token, filepath.ToSlash(path))
	}
	return strings.NewReplacer(pairs...).Replace(script)
}

func (r *RScript) run(ctx context.Context, dir, script string) error {
	path := filepath.Join(dir, "script.r")
	if err := os.WriteFile(path, []byte(script), 0644); err != nil {
		return err
	}

	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, r.Binary, path)
	cmd.Dir = dir
	cmd.Stdout = &out
	cmd.Stderr = &out
	cmd.WaitDelay = time.Second

	r.logger().Debug("running R", "binary", r.Binary, "script", path)
	err := cmd.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if err != nil {
		return fmt.Errorf("%s: %w: %s", r.Binary, err, lastLines(out.String(), 5))
	}
	return nil
}

func (r *RScript) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, " | ")
}
