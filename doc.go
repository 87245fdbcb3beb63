// Package mmd2img validates Mermaid diagram text and renders it to
// PNG, SVG, PDF, or WebP using headless Chrome.
//
// # Quick Start
//
// Create an engine, render a diagram, and stop when done:
//
//	engine := mmd2img.NewEngine()
//	defer engine.Stop()
//
//	result := engine.Render(ctx, "graph TD\n    A --> B", mmd2img.DefaultRenderConfig())
//	if !result.Success {
//	    log.Fatal(result.Error)
//	}
//	os.WriteFile("diagram.png", result.Data, 0644)
//
// The browser is launched lazily on the first Render. Render never
// returns an error directly: failures, including timeouts, are reported
// through RenderResult so one bad diagram cannot take down a batch.
//
// # Validation
//
// Validate checks diagram text without touching a browser. It detects
// the diagram dialect, verifies structure (balanced brackets, quotes,
// dialect-specific rules), and returns errors, warnings, and soft
// suggestions:
//
//	result := mmd2img.Validate(code)
//	if !result.IsValid {
//	    for _, issue := range result.Errors {
//	        fmt.Printf("line %d: %s\n", issue.Line, issue.Message)
//	    }
//	}
//
// FixCommonErrors repairs frequent mistakes (a bare "graph" opener,
// lowercase keyword typos, unclosed quotes) before re-validating.
//
// # Batch Processing
//
// Pipeline extracts ```mermaid fenced blocks from markdown documents
// and drives validate -> cache -> render for each one:
//
//	pipeline := mmd2img.NewPipeline(engine,
//	    mmd2img.WithCache(mmd2img.OpenCache(".mmd2img-cache")),
//	)
//	err := pipeline.ProcessDirectory(ctx, "docs", "out", "*.md", mmd2img.ProcessOptions{})
//
// ProcessDirectory mirrors the input tree under the output directory
// and writes an index.html gallery of all generated images. Watcher
// re-runs the pipeline on file changes with debouncing.
//
// # Browser Requirements
//
// Rendering requires Chrome or Chromium. go-rod downloads a managed
// Chromium automatically if none is found. Set ROD_BROWSER_BIN to use
// a pre-installed browser and ROD_NO_SANDBOX=1 in Docker/CI.
//
// An Engine owns one browser process and a bounded pool of pages
// (default 5); construct one Engine per process and share it. Render
// and RenderBatch are safe for concurrent use.
package mmd2img
