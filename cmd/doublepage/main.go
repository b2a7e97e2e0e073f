// Double-page manga splitter
//
// Usage:
//
//	doublepage split -dir <folder> [-dry-run] [-overwrite]
//	doublepage manual prepare|apply|preview|export|revert ...
//	doublepage profile -image <page> -out <plot.png> [-compare]
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/x956606865/reiChan-sub000/internal/algorithms"
	"github.com/x956606865/reiChan-sub000/internal/batch"
	"github.com/x956606865/reiChan-sub000/internal/config"
	"github.com/x956606865/reiChan-sub000/internal/edgetex"
	imgio "github.com/x956606865/reiChan-sub000/internal/io"
	"github.com/x956606865/reiChan-sub000/internal/manual"
	"github.com/x956606865/reiChan-sub000/internal/metrics"
	"github.com/x956606865/reiChan-sub000/internal/report"
)

const AppVersion = "1.0.0"

const usage = `usage: doublepage <command> [flags]

commands:
  split      analyze a folder and split its spreads
  manual     prepare | apply | preview | export | revert a manual workspace
  profile    plot the edge-texture column profile of one page
`

// Exit codes.
const (
	exitOK     = 0
	exitError  = 1
	exitConfig = 2
	exitIO     = 3
)

// common holds the flags every command accepts.
type common struct {
	configPath string
	debug      bool
}

func (c *common) register(set *flag.FlagSet) {
	set.StringVar(&c.configPath, "config", "", "YAML configuration file")
	set.BoolVar(&c.debug, "debug", false, "Enable debug mode with verbose logging")
}

func (c *common) load() (config.Config, *logrus.Logger, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return cfg, config.NewLogger(config.LoggingConfig{}, c.debug), err
	}
	return cfg, config.NewLogger(cfg.Logging, c.debug), nil
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(exitConfig)
	}

	var err error
	switch os.Args[1] {
	case "split":
		err = runSplit(os.Args[2:])
	case "manual":
		err = runManual(os.Args[2:])
	case "profile":
		err = runProfile(os.Args[2:])
	case "version":
		fmt.Println(AppVersion)
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(exitConfig)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(exitCode(err))
	}
	os.Exit(exitOK)
}

// exitCode maps error kinds to process exit codes.
func exitCode(err error) int {
	switch {
	case errors.Is(err, batch.ErrDirectoryNotFound),
		errors.Is(err, batch.ErrEmptyDirectory),
		errors.Is(err, config.ErrUnsupportedMode),
		errors.Is(err, manual.ErrNoOverrides),
		errors.Is(err, manual.ErrSourceMissing),
		errors.Is(err, manual.ErrWorkspaceMismatch),
		errors.Is(err, manual.ErrWorkspaceUnsafe),
		errors.Is(err, flag.ErrHelp):
		return exitConfig
	case errors.Is(err, batch.ErrWorkspace),
		errors.Is(err, batch.ErrReport),
		errors.Is(err, manual.ErrSplitReportMissing),
		errors.Is(err, manual.ErrWorkspaceUnreadable),
		errors.Is(err, manual.ErrManifestMissing),
		errors.Is(err, manual.ErrBackupMissing),
		errors.Is(err, imgio.ErrDecode):
		return exitIO
	}
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return exitIO
	}
	return exitError
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runSplit(args []string) error {
	fset := flag.NewFlagSet("split", flag.ContinueOnError)
	var c common
	c.register(fset)
	dir := fset.String("dir", "", "Folder of scanned pages")
	dryRun := fset.Bool("dry-run", false, "Analyze without writing outputs")
	overwrite := fset.Bool("overwrite", false, "Replace an existing session workspace")
	workers := fset.Int("workers", 0, "Upper bound on worker goroutines")
	if err := fset.Parse(args); err != nil {
		return err
	}
	if *dir == "" {
		return fmt.Errorf("%w: -dir is required", batch.ErrDirectoryNotFound)
	}

	cfg, logger, err := c.load()
	if err != nil {
		return err
	}
	directive, err := cfg.Directive()
	if err != nil {
		return err
	}
	if *workers == 0 {
		*workers = cfg.Batch.Workers
	}

	logger.WithFields(logrus.Fields{
		"version":     AppVersion,
		"directory":   *dir,
		"accelerator": directive.String(),
	}).Info("Starting double-page split")

	runner := batch.NewRunner(logger)
	outcome, err := runner.Run(batch.Request{
		Directory:  *dir,
		DryRun:     *dryRun,
		Overwrite:  *overwrite,
		Thresholds: &cfg.Thresholds,
		Edge:       &cfg.Edge,
		Directive:  directive,
		Workers:    *workers,
	}, func(p batch.Progress) {
		logger.WithFields(logrus.Fields{
			"stage":     p.Stage,
			"processed": p.ProcessedFiles,
			"total":     p.TotalFiles,
			"file":      p.CurrentFile,
			"mode":      p.Mode,
		}).Info("Progress")
	})
	if err != nil {
		return err
	}
	return printJSON(map[string]any{
		"workspace":      outcome.Workspace,
		"reportPath":     outcome.ReportPath,
		"analyzedFiles":  outcome.AnalyzedFiles,
		"splitPages":     outcome.SplitPages,
		"coverTrims":     outcome.CoverTrims,
		"fallbackSplits": outcome.FallbackSplits,
		"skipped":        outcome.Skipped,
		"emittedFiles":   outcome.EmittedFiles,
		"warnings":       outcome.Warnings,
	})
}

func runManual(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("%w: manual needs prepare, apply, preview, export or revert", config.ErrUnsupportedMode)
	}
	fset := flag.NewFlagSet("manual "+args[0], flag.ContinueOnError)
	var c common
	c.register(fset)
	workspace := fset.String("workspace", "", "Manual workspace folder")
	source := fset.String("source", "", "Source folder (prepare) or image (preview)")
	overwrite := fset.Bool("overwrite", false, "Recreate the workspace")
	overridesPath := fset.String("overrides", "", "JSON file with a list of overrides (apply)")
	lines := fset.String("lines", "0,0.49,0.51,1", "Four comma separated split ratios (preview)")
	width := fset.Int("width", 0, "Preview target width")
	out := fset.String("out", "", "Template output path (export)")
	gutter := fset.Float64("gutter", manual.DefaultGutterRatio, "Gutter ratio recorded in the template (export)")
	event := fset.String("event", "", "Telemetry event name recorded with the command")
	if err := fset.Parse(args[1:]); err != nil {
		return err
	}

	cfg, logger, err := c.load()
	if err != nil {
		return err
	}
	svc := manual.NewService(logger)

	var result any
	switch args[0] {
	case "prepare":
		result, err = svc.Prepare(manual.PrepareRequest{SourceDirectory: *source, WorkspaceRoot: *workspace, Overwrite: *overwrite})
		if ctx, ok := result.(*manual.Context); ok && err == nil {
			*workspace = ctx.Workspace
		}

	case "apply":
		var overrides []manual.Override
		if err := report.ReadJSON(*overridesPath, &overrides); err != nil {
			return err
		}
		directive, derr := cfg.Directive()
		if derr != nil {
			return derr
		}
		result, err = svc.Apply(manual.ApplyRequest{Workspace: *workspace, Overrides: overrides, Directive: directive}, func(p manual.ApplyProgress) {
			logger.WithFields(logrus.Fields{"completed": p.Completed, "total": p.Total, "file": p.Current}).Info("Progress")
		})

	case "preview":
		parsed, perr := parseLines(*lines)
		if perr != nil {
			return perr
		}
		result, err = svc.RenderPreview(manual.PreviewRequest{Workspace: *workspace, Source: *source, Lines: parsed, TargetWidth: *width})

	case "export":
		ov, oerr := svc.Overrides(*workspace)
		if oerr != nil {
			return oerr
		}
		directive, derr := cfg.Directive()
		if derr != nil {
			return derr
		}
		accel := edgetex.ResolveAccelerator(directive)
		result, err = manual.ExportTemplate(*out, *workspace, string(accel), float32(*gutter), ov.Entries, time.Now())

	case "revert":
		result, err = svc.Revert(*workspace)

	default:
		return fmt.Errorf("%w: manual %s", config.ErrUnsupportedMode, args[0])
	}
	if err != nil {
		return err
	}

	if *event != "" {
		if terr := manual.AppendTelemetry(*workspace, *event, map[string]any{"command": args[0]}, time.Now()); terr != nil {
			logger.WithError(terr).Warn("Failed to record telemetry")
		}
	}
	return printJSON(result)
}

func parseLines(s string) ([4]float32, error) {
	var lines [4]float32
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return lines, fmt.Errorf("expected four ratios, got %q", s)
	}
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return lines, fmt.Errorf("invalid ratio %q: %w", p, err)
		}
		lines[i] = float32(v)
	}
	return lines, nil
}

func runProfile(args []string) error {
	fset := flag.NewFlagSet("profile", flag.ContinueOnError)
	var c common
	c.register(fset)
	imagePath := fset.String("image", "", "Page to analyze")
	out := fset.String("out", "profile.png", "PNG file for the plot")
	compare := fset.Bool("compare", false, "Also compare the GPU backend against the CPU")
	if err := fset.Parse(args); err != nil {
		return err
	}

	cfg, logger, err := c.load()
	if err != nil {
		return err
	}
	directive, err := cfg.Directive()
	if err != nil {
		return err
	}

	loader := imgio.NewImageLoader(logger)
	mat, err := loader.LoadImage(*imagePath)
	if err != nil {
		return err
	}
	defer mat.Close()
	gray, err := algorithms.GrayscaleMat(mat)
	if err != nil {
		return err
	}
	defer gray.Close()
	luma, err := algorithms.SurfaceFromMat(gray)
	if err != nil {
		return err
	}

	outcome, err := edgetex.AnalyzeWithAcceleration(luma, cfg.Edge, directive, logger)
	if err != nil {
		return err
	}
	f, err := os.Create(*out)
	if err != nil {
		return err
	}
	if err := metrics.RenderProfile(outcome, *imagePath, f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	result := map[string]any{
		"plot":        *out,
		"splitX":      outcome.SplitX,
		"confidence":  outcome.Confidence,
		"accelerator": outcome.Accelerator,
		"centerBand":  outcome.CenterBand,
	}
	if *compare {
		gpu, gerr := edgetex.SharedGPU()
		if gerr != nil {
			logger.WithError(gerr).Warn("GPU backend unavailable, skipping comparison")
		} else {
			agreement, aerr := metrics.NewEvaluator().Measure(edgetex.CPU(), gpu, luma, cfg.Edge)
			if aerr != nil {
				return aerr
			}
			result["agreement"] = agreement
		}
	}
	return printJSON(result)
}
