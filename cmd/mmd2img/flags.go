package main

import (
	"os"

	flag "github.com/spf13/pflag"
)

// commonFlags holds flags shared across run modes.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
	version bool
}

// inputFlags holds input source flags.
type inputFlags struct {
	file    string
	stdin   bool
	pattern string
}

// renderFlags holds diagram rendering flags.
type renderFlags struct {
	format     string
	theme      string
	look       string
	background string
	scale      float64
	width      int
	height     int
	timeout    string
	pages      int
}

// cacheFlags holds incremental-render cache flags.
type cacheFlags struct {
	disabled bool
	dir      string
	force    bool
}

// watchFlags holds watch mode flags.
type watchFlags struct {
	enabled  bool
	debounce string
}

// cliFlags holds all flags for the mmd2img command.
type cliFlags struct {
	common       commonFlags
	input        inputFlags
	render       renderFlags
	cache        cacheFlags
	watch        watchFlags
	output       string
	validateOnly bool
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show detailed progress")
	fs.BoolVar(&f.version, "version", false, "print version and exit")
}

// addInputFlags adds input source flags to a FlagSet.
func addInputFlags(fs *flag.FlagSet, f *inputFlags) {
	fs.StringVarP(&f.file, "file", "f", "", "process a single markdown file")
	fs.BoolVar(&f.stdin, "stdin", false, "read one diagram from standard input")
	fs.StringVar(&f.pattern, "pattern", "", "document glob pattern (default: *.md)")
}

// addRenderFlags adds rendering flags to a FlagSet.
func addRenderFlags(fs *flag.FlagSet, f *renderFlags) {
	fs.StringVar(&f.format, "format", "", "output format: png, svg, pdf, webp")
	fs.StringVar(&f.theme, "theme", "", "mermaid theme: default, dark, forest, neutral")
	fs.StringVar(&f.look, "look", "", "visual style: classic, handDrawn")
	fs.StringVar(&f.background, "background", "", "background: white, transparent, or CSS color")
	fs.Float64Var(&f.scale, "scale", 0, "device scale factor (1.0-4.0)")
	fs.IntVar(&f.width, "width", 0, "viewport width in pixels")
	fs.IntVar(&f.height, "height", 0, "viewport height in pixels")
	fs.StringVarP(&f.timeout, "timeout", "t", "", "per-diagram render timeout (e.g., 10s, 1m)")
	fs.IntVar(&f.pages, "pages", 0, "browser page pool size (0 = default)")
}

// addCacheFlags adds cache flags to a FlagSet.
func addCacheFlags(fs *flag.FlagSet, f *cacheFlags) {
	fs.BoolVar(&f.disabled, "no-cache", false, "disable the incremental-render cache")
	fs.StringVar(&f.dir, "cache-dir", "", "cache directory (default: .mmd2img-cache)")
	fs.BoolVar(&f.force, "force", false, "re-render even when cached")
}

// addWatchFlags adds watch mode flags to a FlagSet.
func addWatchFlags(fs *flag.FlagSet, f *watchFlags) {
	fs.BoolVarP(&f.enabled, "watch", "w", false, "watch input directory and re-render on change")
	fs.StringVar(&f.debounce, "debounce", "", "watch debounce interval (e.g., 1s)")
}

// parseFlags parses command-line flags and returns positional args.
func parseFlags(args []string) (*cliFlags, []string, error) {
	fs := flag.NewFlagSet("mmd2img", flag.ContinueOnError)
	f := &cliFlags{}

	fs.StringVarP(&f.output, "output", "o", "", "output file (stdin mode) or directory")
	fs.BoolVar(&f.validateOnly, "validate-only", false, "validate diagrams without rendering")

	addCommonFlags(fs, &f.common)
	addInputFlags(fs, &f.input)
	addRenderFlags(fs, &f.render)
	addCacheFlags(fs, &f.cache)
	addWatchFlags(fs, &f.watch)

	fs.Usage = func() { printUsage(os.Stderr) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	return f, fs.Args(), nil
}
