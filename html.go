package mmd2img

import (
	"bytes"
	"regexp"
	"text/template"
)

// mermaidJS is the pinned script source embedded into every render
// document. Pinning avoids silent behavior changes between renders.
const mermaidJS = "https://cdn.jsdelivr.net/npm/mermaid@10.9.1/dist/mermaid.min.js"

// diagramSelector locates the rendered SVG inside the document.
const diagramSelector = "#diagram svg"

// defaultFontFamily is used when RenderConfig.FontFamily is empty.
const defaultFontFamily = "-apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif"

// Patterns stripped by sanitizeDiagram. Diagram text is interpolated
// into an HTML document, so script vectors must not survive.
var (
	scriptTagPattern  = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	jsSchemePattern   = regexp.MustCompile(`(?i)javascript:`)
	eventAttrPattern  = regexp.MustCompile(`(?i)\bon\w+\s*=`)
	htmlTagAllowlist  = regexp.MustCompile(`(?i)^<br\s*/?>$`)
	anyHTMLTagPattern = regexp.MustCompile(`<[^>]+>`)
)

// renderDocument is the minimal page that loads Mermaid and renders one
// diagram into #diagram. The engine waits for "#diagram svg" to appear.
var renderDocument = template.Must(template.New("render").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
body {
  margin: 0;
  padding: {{.Padding}}px;
  background: {{.Background}};
  font-family: {{.FontFamily}};
}
#diagram {
  display: inline-block;
}
</style>
<script src="{{.Script}}"></script>
</head>
<body>
<div id="diagram" class="mermaid">
{{.Code}}
</div>
<script>
mermaid.initialize({
  startOnLoad: true,
  theme: '{{.Theme}}',
  look: '{{.Look}}',
  flowchart: { htmlLabels: true, curve: 'linear' },
  sequence: { actorMargin: 50, messageMargin: 35 }
});
</script>
</body>
</html>
`))

// documentData parameterizes renderDocument.
type documentData struct {
	Code       string
	Theme      string
	Look       string
	Background string
	Padding    int
	FontFamily string
	Script     string
}

// buildDocument produces the HTML page that renders code with cfg.
// cfg must already have defaults applied.
func buildDocument(code string, cfg RenderConfig) (string, error) {
	background := cfg.Background
	if background == BackgroundTransparent {
		background = "transparent"
	}
	font := cfg.FontFamily
	if font == "" {
		font = defaultFontFamily
	}

	var buf bytes.Buffer
	err := renderDocument.Execute(&buf, documentData{
		Code:       sanitizeDiagram(code),
		Theme:      cfg.Theme,
		Look:       cfg.Look,
		Background: background,
		Padding:    cfg.Padding,
		FontFamily: font,
		Script:     mermaidJS,
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

// sanitizeDiagram strips script injection vectors from diagram text
// before it is embedded into the render document. Mermaid labels may
// contain <br> tags; every other HTML tag is removed.
func sanitizeDiagram(code string) string {
	code = scriptTagPattern.ReplaceAllString(code, "")
	code = jsSchemePattern.ReplaceAllString(code, "")
	code = eventAttrPattern.ReplaceAllString(code, "")
	code = anyHTMLTagPattern.ReplaceAllStringFunc(code, func(tag string) string {
		if htmlTagAllowlist.MatchString(tag) {
			return tag
		}
		return ""
	})
	return code
}
