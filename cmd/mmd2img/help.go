package main

import (
	"fmt"
	"io"
)

// printUsage prints the usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mmd2img [flags] <input-dir> <output-dir>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Render Mermaid diagrams from markdown documents to images.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Modes:")
	fmt.Fprintln(w, "  mmd2img docs/ out/                 Render every document under docs/")
	fmt.Fprintln(w, "  mmd2img -f README.md -o out/       Render a single document")
	fmt.Fprintln(w, "  mmd2img --stdin -o diagram.png     Render one diagram from stdin")
	fmt.Fprintln(w, "  mmd2img -w docs/ out/              Watch docs/ and re-render on change")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Input/Output:")
	fmt.Fprintln(w, "  -f, --file <path>         Process a single markdown file")
	fmt.Fprintln(w, "      --stdin               Read one diagram from standard input")
	fmt.Fprintln(w, "  -o, --output <path>       Output file (stdin mode) or directory")
	fmt.Fprintln(w, "      --pattern <glob>      Document glob pattern (default: *.md)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Rendering:")
	fmt.Fprintln(w, "      --format <s>          Output format: png, svg, pdf, webp")
	fmt.Fprintln(w, "      --theme <s>           Theme: default, dark, forest, neutral")
	fmt.Fprintln(w, "      --look <s>            Style: classic, handDrawn")
	fmt.Fprintln(w, "      --background <s>      white, transparent, or any CSS color")
	fmt.Fprintln(w, "      --scale <f>           Device scale factor (1.0-4.0)")
	fmt.Fprintln(w, "      --width <n>           Viewport width in pixels")
	fmt.Fprintln(w, "      --height <n>          Viewport height in pixels")
	fmt.Fprintln(w, "  -t, --timeout <dur>       Per-diagram render timeout (e.g., 10s)")
	fmt.Fprintln(w, "      --pages <n>           Browser page pool size")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Cache:")
	fmt.Fprintln(w, "      --no-cache            Disable the incremental-render cache")
	fmt.Fprintln(w, "      --cache-dir <dir>     Cache directory (default: .mmd2img-cache)")
	fmt.Fprintln(w, "      --force               Re-render even when cached")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Watch:")
	fmt.Fprintln(w, "  -w, --watch               Watch input directory for changes")
	fmt.Fprintln(w, "      --debounce <dur>      Watch debounce interval (default: 1s)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Other:")
	fmt.Fprintln(w, "      --validate-only       Validate diagrams without rendering")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Show detailed progress")
	fmt.Fprintln(w, "      --version             Print version and exit")
}
