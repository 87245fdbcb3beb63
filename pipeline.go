package mmd2img

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/lbreton/go-mmd2img/internal/fileutil"
)

// Output file permissions.
const (
	outputDirPermissions  = 0o750
	outputFilePermissions = 0o644
)

// DefaultFilePattern selects the documents processed by ProcessDirectory.
const DefaultFilePattern = "*.md"

// Renderer is the rendering dependency of the pipeline. *Engine
// satisfies it; tests substitute fakes.
type Renderer interface {
	Render(ctx context.Context, code string, cfg RenderConfig) RenderResult
}

// Compile-time interface implementation check.
var _ Renderer = (*Engine)(nil)

// ProcessOptions controls how a pipeline run treats each diagram.
type ProcessOptions struct {
	Config       RenderConfig
	ValidateOnly bool // validate diagrams without rendering
	Force        bool // re-render even when the cache says unchanged
}

// Stats counts pipeline outcomes across a run.
type Stats struct {
	Files     int // documents read
	Processed int // diagrams rendered (or validated in validate-only mode)
	Skipped   int // diagrams reused from cache
	Failed    int // diagrams or files that failed
}

// Pipeline walks documents, extracts embedded diagrams, and drives
// validate -> cache -> render for each one. Failures are contained at
// the narrowest scope: an invalid diagram never aborts its file, and an
// unreadable file never aborts a directory walk.
type Pipeline struct {
	renderer Renderer
	cache    *DiagramCache
	log      *log.Logger

	mu      sync.Mutex
	stats   Stats
	entries []IndexEntry
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithCache enables content-hash caching. A nil cache disables it.
func WithCache(cache *DiagramCache) PipelineOption {
	return func(p *Pipeline) {
		p.cache = cache
	}
}

// WithLogger sets the pipeline's logger. Without it, logs are discarded.
func WithLogger(logger *log.Logger) PipelineOption {
	return func(p *Pipeline) {
		p.log = logger
	}
}

// NewPipeline creates a Pipeline around the given renderer.
func NewPipeline(renderer Renderer, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		renderer: renderer,
		log:      log.NewWithOptions(io.Discard, log.Options{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Stats returns a snapshot of the counters accumulated so far.
func (p *Pipeline) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

// ProcessFile extracts and processes every diagram embedded in the
// document at path, in document order, writing images to outputDir.
// It returns the paths of all output files that exist after the run,
// including cached ones that were reused. Per-diagram failures are
// logged and counted, never returned; only an unreadable file or an
// invalid render configuration yields an error.
func (p *Pipeline) ProcessFile(ctx context.Context, path, outputDir string, opts ProcessOptions) ([]string, error) {
	cfg := opts.Config.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	content, err := os.ReadFile(path) // #nosec G304 -- caller-supplied document path
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	p.mu.Lock()
	p.stats.Files++
	p.mu.Unlock()

	diagrams := ExtractDiagrams(content, path)
	if len(diagrams) == 0 {
		p.log.Debug("no diagrams found", "file", path)
		return nil, nil
	}
	p.log.Info("processing", "file", path, "diagrams", len(diagrams))

	var outputs []string
	for _, d := range diagrams {
		outPath := filepath.Join(outputDir, outputName(path, d.Ordinal, cfg.Format))
		key := CacheKey(path, d.Ordinal, cfg.Format, cfg.Theme)

		if p.cache != nil && !opts.Force && !opts.ValidateOnly && !p.cache.NeedsUpdate(key, d.Code) {
			if fileutil.FileExists(outPath) {
				p.log.Debug("unchanged, skipping", "file", path, "diagram", d.Ordinal)
				p.count(func(s *Stats) { s.Skipped++ })
				p.addEntry(IndexEntry{Path: outPath, Code: d.Code})
				outputs = append(outputs, outPath)
				continue
			}
			// Output file disappeared; fall through and regenerate.
		}

		validation := Validate(d.Code)
		if !validation.IsValid {
			p.logIssues(path, d, validation.Errors)
			p.count(func(s *Stats) { s.Failed++ })
			continue
		}

		if opts.ValidateOnly {
			p.log.Info("diagram is valid", "file", path, "diagram", d.Ordinal, "kind", validation.Kind)
			p.count(func(s *Stats) { s.Processed++ })
			continue
		}

		result := p.renderer.Render(ctx, d.Code, cfg)
		if !result.Success {
			p.log.Error("render failed", "file", path, "diagram", d.Ordinal, "line", d.Line, "error", result.Error)
			p.count(func(s *Stats) { s.Failed++ })
			continue
		}

		if err := os.MkdirAll(outputDir, outputDirPermissions); err != nil {
			p.log.Error("creating output directory", "dir", outputDir, "error", err)
			p.count(func(s *Stats) { s.Failed++ })
			continue
		}
		if err := os.WriteFile(outPath, result.Data, outputFilePermissions); err != nil {
			p.log.Error("writing output", "path", outPath, "error", err)
			p.count(func(s *Stats) { s.Failed++ })
			continue
		}

		p.log.Info("generated", "path", outPath, "bytes", result.Metadata.Bytes)
		p.count(func(s *Stats) { s.Processed++ })
		p.addEntry(IndexEntry{Path: outPath, Code: d.Code})
		outputs = append(outputs, outPath)

		if p.cache != nil {
			if err := p.cache.Update(key, d.Code); err != nil {
				p.log.Warn("cache update failed", "key", key, "error", err)
			}
		}
	}

	return outputs, nil
}

// ProcessDirectory processes every document under inputDir whose base
// name matches pattern, mirroring the relative directory structure in
// outputDir, then writes an index.html listing all generated images.
// A failure in one file is logged and counted; the walk continues.
func (p *Pipeline) ProcessDirectory(ctx context.Context, inputDir, outputDir, pattern string, opts ProcessOptions) error {
	if pattern == "" {
		pattern = DefaultFilePattern
	}

	cfg := opts.Config.withDefaults()
	if err := cfg.Validate(); err != nil {
		return err
	}

	p.mu.Lock()
	p.entries = nil
	p.mu.Unlock()

	var files []string
	err := filepath.WalkDir(inputDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("scanning %s: %w", path, err)
		}
		if d.IsDir() {
			return nil
		}
		matched, err := filepath.Match(pattern, d.Name())
		if err != nil {
			return fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
		if matched {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return err
	}
	p.log.Info("found documents", "dir", inputDir, "count", len(files))

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return err
		}

		fileOut := outputDir
		if rel, relErr := filepath.Rel(inputDir, file); relErr == nil {
			fileOut = filepath.Join(outputDir, filepath.Dir(rel))
		}

		if _, err := p.ProcessFile(ctx, file, fileOut, opts); err != nil {
			p.log.Error("file failed", "file", file, "error", err)
			p.count(func(s *Stats) { s.Failed++ })
		}
	}

	if opts.ValidateOnly {
		return nil
	}

	p.mu.Lock()
	entries := make([]IndexEntry, len(p.entries))
	copy(entries, p.entries)
	p.mu.Unlock()

	indexPath, err := WriteIndex(outputDir, entries)
	if err != nil {
		return err
	}
	p.log.Info("generated index", "path", indexPath, "images", len(entries))
	return nil
}

// count applies a mutation to the stats under lock.
func (p *Pipeline) count(f func(*Stats)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	f(&p.stats)
}

// addEntry records a generated image for the directory index.
func (p *Pipeline) addEntry(e IndexEntry) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries = append(p.entries, e)
}

// logIssues reports validation errors with line numbers relative to the
// diagram's position in the document.
func (p *Pipeline) logIssues(path string, d DiagramSource, issues []Issue) {
	for _, issue := range issues {
		line := d.Line
		if issue.Line > 0 {
			line = d.Line + issue.Line - 1
		}
		p.log.Error("invalid diagram",
			"file", path, "diagram", d.Ordinal, "line", line, "error", issue.Message)
		if issue.Suggestion != "" {
			p.log.Info("suggestion", "diagram", d.Ordinal, "hint", issue.Suggestion)
		}
	}
}

// outputName builds the deterministic output filename for a diagram.
func outputName(sourcePath string, ordinal int, format string) string {
	base := filepath.Base(sourcePath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return fmt.Sprintf("%s_diagram_%d.%s", stem, ordinal, format)
}
