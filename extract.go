package mmd2img

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// mermaidFenceInfo is the fenced-code-block language tag that marks an
// embedded diagram.
const mermaidFenceInfo = "mermaid"

// ExtractDiagrams parses a markdown document and returns its embedded
// Mermaid diagrams in document order. Only fenced code blocks tagged
// ```mermaid are extracted; indented code blocks and other languages
// are ignored. Ordinals are 1-based, and Line is the document line of
// the diagram's first content line.
func ExtractDiagrams(source []byte, path string) []DiagramSource {
	parser := goldmark.New().Parser()
	doc := parser.Parse(text.NewReader(source))

	var diagrams []DiagramSource
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		fence, ok := n.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}
		lang := string(fence.Language(source))
		if !strings.EqualFold(lang, mermaidFenceInfo) {
			return ast.WalkContinue, nil
		}

		code, line := fenceContent(fence, source)
		diagrams = append(diagrams, DiagramSource{
			Code:    strings.TrimRight(code, "\n"),
			Path:    path,
			Ordinal: len(diagrams) + 1,
			Line:    line,
		})
		return ast.WalkContinue, nil
	})

	return diagrams
}

// fenceContent joins a fence's line segments and computes the 1-based
// document line of its first content line.
func fenceContent(fence *ast.FencedCodeBlock, source []byte) (string, int) {
	lines := fence.Lines()
	if lines.Len() == 0 {
		return "", 0
	}

	var buf bytes.Buffer
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(source))
	}

	start := lines.At(0).Start
	line := bytes.Count(source[:start], []byte("\n")) + 1
	return buf.String(), line
}
