package mmd2img

import (
	"regexp"
	"strings"
)

// keywordTypos maps lowercased dialect keywords to their canonical
// camel-cased form. Only applied to the opening declaration line.
var keywordTypos = map[string]string{
	"sequencediagram": "sequenceDiagram",
	"classdiagram":    "classDiagram",
	"statediagram":    "stateDiagram",
	"erdiagram":       "erDiagram",
	"gitgraph":        "gitGraph",
	"quadrantchart":   "quadrantChart",
}

// bareGraphOpener matches a graph/flowchart declaration that is missing
// its direction qualifier.
var bareGraphOpener = regexp.MustCompile(`^(\s*)(graph|flowchart)\s*$`)

// FixCommonErrors applies best-effort repairs for frequent Mermaid
// mistakes: a graph opener without a direction gets a default TD, known
// lowercase keyword typos are corrected, and lines with an odd number
// of double quotes are closed. The result is heuristic and may still be
// invalid; callers must re-validate.
func FixCommonErrors(code string) string {
	lines := strings.Split(code, "\n")

	fixedOpener := false
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "%%") {
			lines[i] = closeOddQuotes(line)
			continue
		}

		if !fixedOpener {
			fixedOpener = true
			if m := bareGraphOpener.FindStringSubmatch(line); m != nil {
				line = m[1] + m[2] + " TD"
			} else {
				for typo, canonical := range keywordTypos {
					lower := strings.ToLower(trimmed)
					if strings.HasPrefix(lower, typo) && !strings.HasPrefix(trimmed, canonical) {
						indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
						line = indent + canonical + trimmed[len(typo):]
						break
					}
				}
			}
		}

		lines[i] = closeOddQuotes(line)
	}

	return strings.Join(lines, "\n")
}

// closeOddQuotes appends a closing quote to a line with an odd number
// of double quotes.
func closeOddQuotes(line string) string {
	if strings.Count(line, `"`)%2 != 0 {
		return line + `"`
	}
	return line
}
