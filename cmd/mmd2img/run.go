package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	mmd2img "github.com/lbreton/go-mmd2img"
	"github.com/lbreton/go-mmd2img/internal/config"
	"github.com/lbreton/go-mmd2img/internal/hints"
)

// Sentinel errors for CLI operations.
var (
	ErrNoInput          = errors.New("no input specified")
	ErrReadDocument     = errors.New("failed to read input")
	ErrWriteOutput      = errors.New("failed to write output")
	ErrInvalidDuration  = errors.New("invalid duration")
	ErrValidationFailed = errors.New("diagram validation failed")
	ErrRenderFailed     = errors.New("render failed")
)

// filePermissions is the mode for generated image files.
const filePermissions = 0o644 // rw-r--r--: owner read+write, others read

// run dispatches to the selected mode: stdin, single file, or directory.
func run(flags *cliFlags, args []string, env *Environment) error {
	if flags.common.version {
		fmt.Fprintf(env.Stdout, "mmd2img %s\n", Version)
		return nil
	}

	cfg := config.DefaultConfig()
	if flags.common.config != "" {
		loaded, err := config.LoadConfig(flags.common.config)
		if err != nil {
			if errors.Is(err, config.ErrConfigNotFound) {
				return fmt.Errorf("loading config: %w%s", err, hints.ForConfigNotFound(nil))
			}
			return fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	}

	renderCfg := buildRenderConfig(flags, cfg)
	if err := renderCfg.Validate(); err != nil {
		return err
	}

	logger := newLogger(env.Stderr, logLevel(flags.common))

	engineOpts, err := buildEngineOptions(flags, cfg)
	if err != nil {
		return err
	}
	engine := mmd2img.NewEngine(engineOpts...)
	defer func() {
		if err := engine.Stop(); err != nil {
			logger.Debug("stopping engine", "error", err)
		}
	}()

	ctx, stop := notifyContext(context.Background())
	defer stop()

	switch {
	case flags.input.stdin:
		return runStdin(ctx, flags, renderCfg, engine, env)
	case flags.input.file != "":
		return runFile(ctx, flags, cfg, renderCfg, engine, logger, env)
	default:
		return runDirectory(ctx, flags, cfg, renderCfg, engine, logger, env, args)
	}
}

// runStdin renders a single diagram read from standard input.
func runStdin(ctx context.Context, flags *cliFlags, renderCfg mmd2img.RenderConfig, engine *mmd2img.Engine, env *Environment) error {
	code, err := io.ReadAll(env.Stdin)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrReadDocument, err)
	}

	result := mmd2img.Validate(string(code))
	printIssues(env.Stderr, "<stdin>", result)
	if !result.IsValid {
		return fmt.Errorf("%w: %d error(s)%s", ErrValidationFailed, len(result.Errors), hints.ForValidation())
	}
	if flags.validateOnly {
		fmt.Fprintf(env.Stdout, "Valid %s diagram\n", result.Kind)
		return nil
	}

	if flags.output == "" {
		return fmt.Errorf("%w: stdin mode requires --output", ErrNoInput)
	}

	render := engine.Render(ctx, string(code), renderCfg)
	if !render.Success {
		return fmt.Errorf("%w: %s", ErrRenderFailed, render.Error)
	}
	if err := os.WriteFile(flags.output, render.Data, filePermissions); err != nil {
		return fmt.Errorf("%w: %v%s", ErrWriteOutput, err, hints.ForOutputDirectory(filepath.Dir(flags.output)))
	}
	fmt.Fprintf(env.Stdout, "Wrote %s (%d bytes)\n", flags.output, len(render.Data))
	return nil
}

// runFile processes a single markdown document.
func runFile(ctx context.Context, flags *cliFlags, cfg *config.Config, renderCfg mmd2img.RenderConfig, engine *mmd2img.Engine, logger *log.Logger, env *Environment) error {
	outputDir := resolveOutputDir(flags, cfg)
	if outputDir == "" {
		return fmt.Errorf("%w: file mode requires --output", ErrNoInput)
	}

	pipeline := buildPipeline(flags, cfg, engine, logger)
	opts := mmd2img.ProcessOptions{
		Config:       renderCfg,
		ValidateOnly: flags.validateOnly,
		Force:        flags.cache.force,
	}

	outputs, err := pipeline.ProcessFile(ctx, flags.input.file, outputDir, opts)
	if err != nil {
		return err
	}

	stats := pipeline.Stats()
	printTally(env.Stdout, stats, outputs)
	if stats.Failed > 0 {
		return fmt.Errorf("%w: %d diagram(s) failed", ErrRenderFailed, stats.Failed)
	}
	return nil
}

// runDirectory processes every matching document under the input directory,
// optionally staying resident in watch mode.
func runDirectory(ctx context.Context, flags *cliFlags, cfg *config.Config, renderCfg mmd2img.RenderConfig, engine *mmd2img.Engine, logger *log.Logger, env *Environment, args []string) error {
	if len(args) < 2 {
		printUsage(env.Stderr)
		return fmt.Errorf("%w: expected <input-dir> <output-dir>", ErrNoInput)
	}
	inputDir, outputDir := args[0], args[1]

	pattern := flags.input.pattern
	if pattern == "" {
		pattern = cfg.Input.Pattern
	}
	if pattern == "" {
		pattern = mmd2img.DefaultFilePattern
	}

	pipeline := buildPipeline(flags, cfg, engine, logger)
	opts := mmd2img.ProcessOptions{
		Config:       renderCfg,
		ValidateOnly: flags.validateOnly,
		Force:        flags.cache.force,
	}

	if err := pipeline.ProcessDirectory(ctx, inputDir, outputDir, pattern, opts); err != nil {
		return err
	}
	printTally(env.Stdout, pipeline.Stats(), nil)

	if !flags.watch.enabled {
		return nil
	}

	debounce := mmd2img.DefaultDebounce
	if d := firstNonEmpty(flags.watch.debounce, cfg.Watch.Debounce); d != "" {
		parsed, err := time.ParseDuration(d)
		if err != nil || parsed <= 0 {
			return fmt.Errorf("%w: --debounce %q", ErrInvalidDuration, d)
		}
		debounce = parsed
	}

	watcher := mmd2img.NewWatcher(pipeline, inputDir, outputDir, opts,
		mmd2img.WithDebounce(debounce),
		mmd2img.WithWatchLogger(logger),
	)
	if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// buildPipeline assembles the processing pipeline with cache and logger.
func buildPipeline(flags *cliFlags, cfg *config.Config, engine *mmd2img.Engine, logger *log.Logger) *mmd2img.Pipeline {
	opts := []mmd2img.PipelineOption{mmd2img.WithLogger(logger)}
	if !flags.cache.disabled && !cfg.Cache.Disabled {
		dir := firstNonEmpty(flags.cache.dir, cfg.Cache.Dir, ".mmd2img-cache")
		opts = append(opts, mmd2img.WithCache(mmd2img.OpenCache(dir)))
	}
	return mmd2img.NewPipeline(engine, opts...)
}

// buildRenderConfig merges config file values and CLI flags (CLI wins).
func buildRenderConfig(flags *cliFlags, cfg *config.Config) mmd2img.RenderConfig {
	rc := mmd2img.DefaultRenderConfig()

	// Config file layer
	applyNonEmpty(&rc.Format, cfg.Render.Format)
	applyNonEmpty(&rc.Theme, cfg.Render.Theme)
	applyNonEmpty(&rc.Look, cfg.Render.Look)
	applyNonEmpty(&rc.Background, cfg.Render.Background)
	if cfg.Render.Scale > 0 {
		rc.Scale = cfg.Render.Scale
	}
	if cfg.Render.Width > 0 {
		rc.Width = cfg.Render.Width
	}
	if cfg.Render.Height > 0 {
		rc.Height = cfg.Render.Height
	}

	// CLI layer
	applyNonEmpty(&rc.Format, flags.render.format)
	applyNonEmpty(&rc.Theme, flags.render.theme)
	applyNonEmpty(&rc.Look, flags.render.look)
	applyNonEmpty(&rc.Background, flags.render.background)
	if flags.render.scale > 0 {
		rc.Scale = flags.render.scale
	}
	if flags.render.width > 0 {
		rc.Width = flags.render.width
	}
	if flags.render.height > 0 {
		rc.Height = flags.render.height
	}

	return rc
}

// buildEngineOptions translates timeout and pool flags into engine options.
func buildEngineOptions(flags *cliFlags, cfg *config.Config) ([]mmd2img.Option, error) {
	var opts []mmd2img.Option

	if t := firstNonEmpty(flags.render.timeout, cfg.Render.Timeout); t != "" {
		d, err := time.ParseDuration(t)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("%w: --timeout %q%s", ErrInvalidDuration, t, hints.ForTimeout())
		}
		opts = append(opts, mmd2img.WithRenderTimeout(d))
	}

	pages := flags.render.pages
	if pages == 0 {
		pages = cfg.Render.Pages
	}
	if pages > 0 {
		opts = append(opts, mmd2img.WithPoolSize(pages))
	}

	return opts, nil
}

// resolveOutputDir picks the output directory from flags then config.
func resolveOutputDir(flags *cliFlags, cfg *config.Config) string {
	return firstNonEmpty(flags.output, cfg.Output.DefaultDir)
}

// printIssues writes validation errors, warnings, and suggestions to w.
func printIssues(w io.Writer, source string, result mmd2img.ValidationResult) {
	for _, issue := range result.Errors {
		fmt.Fprintf(w, "%s:%d: error: %s\n", source, issue.Line, issue.Message)
	}
	for _, issue := range result.Warnings {
		fmt.Fprintf(w, "%s:%d: warning: %s\n", source, issue.Line, issue.Message)
	}
	for _, s := range result.Suggestions {
		fmt.Fprintf(w, "%s: suggestion: %s\n", source, s)
	}
}

// printTally prints the processing summary.
func printTally(w io.Writer, stats mmd2img.Stats, outputs []string) {
	for _, out := range outputs {
		fmt.Fprintf(w, "  %s\n", out)
	}
	fmt.Fprintf(w, "Processed %d diagram(s) in %d file(s): %d rendered, %d skipped, %d failed\n",
		stats.Processed+stats.Skipped+stats.Failed, stats.Files, stats.Processed, stats.Skipped, stats.Failed)
}

// logLevel maps quiet/verbose flags to a log level.
func logLevel(f commonFlags) log.Level {
	switch {
	case f.quiet:
		return log.ErrorLevel
	case f.verbose:
		return log.DebugLevel
	default:
		return log.InfoLevel
	}
}

// newLogger creates a logger with timestamp formatting.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// applyNonEmpty overwrites dst when src is non-empty.
func applyNonEmpty(dst *string, src string) {
	if src != "" {
		*dst = src
	}
}

// firstNonEmpty returns the first non-empty string.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
