package mmd2img

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

// pngMagic makes generated fixtures look like real image bytes.
var pngMagic = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// stubRenderer records render calls and returns canned image bytes.
type stubRenderer struct {
	mu    sync.Mutex
	calls int
	fail  bool
}

func (r *stubRenderer) Render(ctx context.Context, code string, cfg RenderConfig) RenderResult {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()
	if r.fail {
		return failedRender(cfg.Format, ErrRenderTimeout)
	}
	data := append(append([]byte{}, pngMagic...), code...)
	return RenderResult{
		Success:  true,
		Format:   cfg.Format,
		Data:     data,
		Metadata: RenderMetadata{Bytes: len(data)},
	}
}

func (r *stubRenderer) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

// writeDoc writes a markdown fixture and returns its path.
func writeDoc(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const twoDiagramDoc = "# Doc\n\n```mermaid\ngraph TD\n    A --> B\n```\n\ntext\n\n```mermaid\nsequenceDiagram\n    Alice->>Bob: Hi\n    Bob-->>Alice: Yo\n```\n"

func TestPipeline_ProcessFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	doc := writeDoc(t, dir, "readme.md", twoDiagramDoc)
	outDir := filepath.Join(dir, "out")

	renderer := &stubRenderer{}
	p := NewPipeline(renderer)

	outputs, err := p.ProcessFile(context.Background(), doc, outDir, ProcessOptions{})
	if err != nil {
		t.Fatalf("ProcessFile() error = %v", err)
	}
	if len(outputs) != 2 {
		t.Fatalf("outputs = %v, want 2", outputs)
	}

	want := []string{
		filepath.Join(outDir, "readme_diagram_1.png"),
		filepath.Join(outDir, "readme_diagram_2.png"),
	}
	for i, w := range want {
		if outputs[i] != w {
			t.Errorf("outputs[%d] = %q, want %q", i, outputs[i], w)
		}
		if _, err := os.Stat(w); err != nil {
			t.Errorf("output file missing: %v", err)
		}
	}

	stats := p.Stats()
	if stats.Files != 1 || stats.Processed != 2 || stats.Failed != 0 {
		t.Errorf("Stats() = %+v", stats)
	}
	if renderer.callCount() != 2 {
		t.Errorf("renderer called %d times, want 2", renderer.callCount())
	}
}

func TestPipeline_ProcessFile_InvalidDiagramIsContained(t *testing.T) {
	t.Parallel()

	doc := writeDoc(t, t.TempDir(), "mixed.md",
		"```mermaid\nnot a diagram\n```\n\n```mermaid\ngraph TD\n    A --> B\n```\n")

	renderer := &stubRenderer{}
	p := NewPipeline(renderer)

	outputs, err := p.ProcessFile(context.Background(), doc, t.TempDir(), ProcessOptions{})
	if err != nil {
		t.Fatalf("ProcessFile() error = %v", err)
	}
	if len(outputs) != 1 {
		t.Fatalf("outputs = %v, want only the valid diagram", outputs)
	}
	if !strings.HasSuffix(outputs[0], "mixed_diagram_2.png") {
		t.Errorf("outputs[0] = %q", outputs[0])
	}

	stats := p.Stats()
	if stats.Processed != 1 || stats.Failed != 1 {
		t.Errorf("Stats() = %+v, want 1 processed and 1 failed", stats)
	}
}

func TestPipeline_ProcessFile_ValidateOnly(t *testing.T) {
	t.Parallel()

	doc := writeDoc(t, t.TempDir(), "doc.md", twoDiagramDoc)
	outDir := t.TempDir()

	renderer := &stubRenderer{}
	p := NewPipeline(renderer)

	outputs, err := p.ProcessFile(context.Background(), doc, outDir, ProcessOptions{ValidateOnly: true})
	if err != nil {
		t.Fatalf("ProcessFile() error = %v", err)
	}
	if len(outputs) != 0 {
		t.Errorf("outputs = %v, want none in validate-only mode", outputs)
	}
	if renderer.callCount() != 0 {
		t.Errorf("renderer called %d times, want 0", renderer.callCount())
	}
	if stats := p.Stats(); stats.Processed != 2 {
		t.Errorf("Stats() = %+v, want 2 processed", stats)
	}
}

func TestPipeline_ProcessFile_NoDiagrams(t *testing.T) {
	t.Parallel()

	doc := writeDoc(t, t.TempDir(), "plain.md", "# Nothing here\n")
	p := NewPipeline(&stubRenderer{})

	outputs, err := p.ProcessFile(context.Background(), doc, t.TempDir(), ProcessOptions{})
	if err != nil {
		t.Fatalf("ProcessFile() error = %v", err)
	}
	if len(outputs) != 0 {
		t.Errorf("outputs = %v, want none", outputs)
	}
}

func TestPipeline_ProcessFile_MissingFile(t *testing.T) {
	t.Parallel()

	p := NewPipeline(&stubRenderer{})
	if _, err := p.ProcessFile(context.Background(), filepath.Join(t.TempDir(), "nope.md"), t.TempDir(), ProcessOptions{}); err == nil {
		t.Error("ProcessFile() accepted a missing file")
	}
}

func TestPipeline_ProcessFile_InvalidConfig(t *testing.T) {
	t.Parallel()

	p := NewPipeline(&stubRenderer{})
	opts := ProcessOptions{Config: RenderConfig{Format: "bmp"}}
	if _, err := p.ProcessFile(context.Background(), "whatever.md", t.TempDir(), opts); err == nil {
		t.Error("ProcessFile() accepted an invalid render config")
	}
}

func TestPipeline_CacheSkipsUnchanged(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	doc := writeDoc(t, dir, "doc.md", twoDiagramDoc)
	outDir := filepath.Join(dir, "out")
	cache := OpenCache(filepath.Join(dir, "cache"))

	renderer := &stubRenderer{}
	p := NewPipeline(renderer, WithCache(cache))

	if _, err := p.ProcessFile(context.Background(), doc, outDir, ProcessOptions{}); err != nil {
		t.Fatalf("first run error = %v", err)
	}
	if renderer.callCount() != 2 {
		t.Fatalf("renderer called %d times on first run, want 2", renderer.callCount())
	}

	// Second run: nothing changed, nothing renders.
	outputs, err := p.ProcessFile(context.Background(), doc, outDir, ProcessOptions{})
	if err != nil {
		t.Fatalf("second run error = %v", err)
	}
	if renderer.callCount() != 2 {
		t.Errorf("renderer called %d times after second run, want still 2", renderer.callCount())
	}
	if len(outputs) != 2 {
		t.Errorf("outputs = %v, cached paths should still be reported", outputs)
	}
	if stats := p.Stats(); stats.Skipped != 2 {
		t.Errorf("Stats() = %+v, want 2 skipped", stats)
	}

	// Force bypasses the cache.
	if _, err := p.ProcessFile(context.Background(), doc, outDir, ProcessOptions{Force: true}); err != nil {
		t.Fatalf("forced run error = %v", err)
	}
	if renderer.callCount() != 4 {
		t.Errorf("renderer called %d times after forced run, want 4", renderer.callCount())
	}
}

func TestPipeline_CacheRegeneratesMissingOutput(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	doc := writeDoc(t, dir, "doc.md", "```mermaid\ngraph TD\n    A --> B\n```\n")
	outDir := filepath.Join(dir, "out")
	cache := OpenCache(filepath.Join(dir, "cache"))

	renderer := &stubRenderer{}
	p := NewPipeline(renderer, WithCache(cache))

	outputs, err := p.ProcessFile(context.Background(), doc, outDir, ProcessOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(outputs[0]); err != nil {
		t.Fatal(err)
	}

	// Cache says unchanged, but the artifact is gone: re-render.
	if _, err := p.ProcessFile(context.Background(), doc, outDir, ProcessOptions{}); err != nil {
		t.Fatal(err)
	}
	if renderer.callCount() != 2 {
		t.Errorf("renderer called %d times, want 2", renderer.callCount())
	}
	if _, err := os.Stat(outputs[0]); err != nil {
		t.Errorf("output not regenerated: %v", err)
	}
}

func TestPipeline_FailedRenderLeavesCacheStale(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	doc := writeDoc(t, dir, "doc.md", "```mermaid\ngraph TD\n    A --> B\n```\n")
	outDir := filepath.Join(dir, "out")
	cache := OpenCache(filepath.Join(dir, "cache"))

	renderer := &stubRenderer{fail: true}
	p := NewPipeline(renderer, WithCache(cache))

	if _, err := p.ProcessFile(context.Background(), doc, outDir, ProcessOptions{}); err != nil {
		t.Fatal(err)
	}
	if stats := p.Stats(); stats.Failed != 1 {
		t.Fatalf("Stats() = %+v, want 1 failed", stats)
	}

	// The failure must not be cached: the next run retries.
	renderer.fail = false
	if _, err := p.ProcessFile(context.Background(), doc, outDir, ProcessOptions{}); err != nil {
		t.Fatal(err)
	}
	if renderer.callCount() != 2 {
		t.Errorf("renderer called %d times, want 2 (retry after failure)", renderer.callCount())
	}
}

func TestPipeline_ProcessDirectory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeDoc(t, dir, "in/alpha.md", "```mermaid\ngraph TD\n    A --> B\n```\n")
	writeDoc(t, dir, "in/nested/beta.md", "```mermaid\nsequenceDiagram\n    A->>B: hi\n    B-->>A: yo\n```\n")
	writeDoc(t, dir, "in/notes.txt", "```mermaid\ngraph TD\n    X --> Y\n```\n")
	outDir := filepath.Join(dir, "out")

	renderer := &stubRenderer{}
	p := NewPipeline(renderer)

	if err := p.ProcessDirectory(context.Background(), filepath.Join(dir, "in"), outDir, "", ProcessOptions{}); err != nil {
		t.Fatalf("ProcessDirectory() error = %v", err)
	}

	// Output tree mirrors the input tree; non-matching files are ignored.
	for _, want := range []string{
		filepath.Join(outDir, "alpha_diagram_1.png"),
		filepath.Join(outDir, "nested", "beta_diagram_1.png"),
		filepath.Join(outDir, IndexFileName),
	} {
		if _, err := os.Stat(want); err != nil {
			t.Errorf("missing %s: %v", want, err)
		}
	}

	if renderer.callCount() != 2 {
		t.Errorf("renderer called %d times, want 2", renderer.callCount())
	}

	index, err := os.ReadFile(filepath.Join(outDir, IndexFileName))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(index), "Generated 2 diagrams") {
		t.Errorf("index missing count line:\n%s", index)
	}
}

func TestPipeline_ProcessDirectory_ValidateOnlySkipsIndex(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeDoc(t, dir, "in/doc.md", "```mermaid\ngraph TD\n    A --> B\n```\n")
	outDir := filepath.Join(dir, "out")

	p := NewPipeline(&stubRenderer{})
	if err := p.ProcessDirectory(context.Background(), filepath.Join(dir, "in"), outDir, "", ProcessOptions{ValidateOnly: true}); err != nil {
		t.Fatalf("ProcessDirectory() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(outDir, IndexFileName)); err == nil {
		t.Error("index written in validate-only mode")
	}
}

func TestPipeline_ProcessDirectory_MissingDir(t *testing.T) {
	t.Parallel()

	p := NewPipeline(&stubRenderer{})
	err := p.ProcessDirectory(context.Background(), filepath.Join(t.TempDir(), "absent"), t.TempDir(), "", ProcessOptions{})
	if err == nil {
		t.Error("ProcessDirectory() accepted a missing input directory")
	}
}

func TestOutputName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path    string
		ordinal int
		format  string
		want    string
	}{
		{"docs/readme.md", 1, "png", "readme_diagram_1.png"},
		{"arch.markdown", 3, "svg", "arch_diagram_3.svg"},
		{"no-ext", 2, "pdf", "no-ext_diagram_2.pdf"},
	}

	for _, tt := range tests {
		if got := outputName(tt.path, tt.ordinal, tt.format); got != tt.want {
			t.Errorf("outputName(%q, %d, %q) = %q, want %q", tt.path, tt.ordinal, tt.format, got, tt.want)
		}
	}
}
