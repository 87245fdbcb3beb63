package mmd2img

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
)

// IndexFileName is the gallery page written by ProcessDirectory.
const IndexFileName = "index.html"

// chroma settings for diagram source snippets in the index.
const (
	indexLexer = "mermaid"
	indexStyle = "github"
)

// IndexEntry pairs a generated image with the diagram source that
// produced it.
type IndexEntry struct {
	Path string // generated image path
	Code string // diagram source text
}

// indexPage lists every generated diagram with its source.
var indexPage = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Generated Diagrams</title>
<style>
body { font-family: -apple-system, sans-serif; margin: 20px; }
.diagram { margin: 20px 0; border: 1px solid #ddd; padding: 10px; }
.diagram img { max-width: 100%; height: auto; }
.diagram pre { background: #f6f8fa; padding: 8px; overflow-x: auto; }
h1 { color: #2c3e50; }
.metadata { color: #666; font-size: 0.9em; }
</style>
</head>
<body>
<h1>Generated Diagrams</h1>
<p class="metadata">Generated {{len .Entries}} diagrams</p>
<div class="diagrams">
{{- range .Entries}}
<div class="diagram">
<h3>{{.Name}}</h3>
<img src="{{.Rel}}" alt="{{.Name}}">
<p class="metadata">{{.Rel}}</p>
{{.Source}}
</div>
{{- end}}
</div>
</body>
</html>
`))

// indexItem is the per-entry view model for indexPage.
type indexItem struct {
	Name   string
	Rel    string
	Source template.HTML
}

// WriteIndex generates an index.html in outputDir listing every entry
// with its path relative to outputDir and its highlighted source.
// Returns the path of the written index.
func WriteIndex(outputDir string, entries []IndexEntry) (string, error) {
	items := make([]indexItem, 0, len(entries))
	for _, e := range entries {
		rel, err := filepath.Rel(outputDir, e.Path)
		if err != nil {
			rel = e.Path
		}
		base := filepath.Base(e.Path)
		items = append(items, indexItem{
			Name:   strings.TrimSuffix(base, filepath.Ext(base)),
			Rel:    filepath.ToSlash(rel),
			Source: highlightSource(e.Code),
		})
	}

	var buf bytes.Buffer
	if err := indexPage.Execute(&buf, struct{ Entries []indexItem }{items}); err != nil {
		return "", fmt.Errorf("rendering index: %w", err)
	}

	if err := os.MkdirAll(outputDir, outputDirPermissions); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}
	indexPath := filepath.Join(outputDir, IndexFileName)
	// #nosec G306 -- the index is meant to be readable
	if err := os.WriteFile(indexPath, buf.Bytes(), outputFilePermissions); err != nil {
		return "", fmt.Errorf("writing index: %w", err)
	}
	return indexPath, nil
}

// highlightSource renders diagram source as highlighted HTML, falling
// back to an escaped <pre> block when highlighting fails.
func highlightSource(code string) template.HTML {
	var buf bytes.Buffer
	if err := quick.Highlight(&buf, code, indexLexer, "html", indexStyle); err != nil {
		return template.HTML("<pre>" + template.HTMLEscapeString(code) + "</pre>") // #nosec G203 -- escaped above
	}
	return template.HTML(buf.String()) // #nosec G203 -- chroma output is trusted
}
