package mmd2img

import (
	"regexp"
	"strings"
)

// DiagramKind identifies the Mermaid dialect a diagram is written in.
type DiagramKind int

// Supported diagram kinds. KindUnknown means detection failed.
const (
	KindUnknown DiagramKind = iota
	KindFlowchart
	KindSequence
	KindClass
	KindState
	KindER
	KindGantt
	KindPie
	KindJourney
	KindGitGraph
	KindMindmap
	KindTimeline
	KindQuadrant
	KindRequirement
	KindC4
)

// String returns the canonical name used in user-facing output and cache keys.
func (k DiagramKind) String() string {
	switch k {
	case KindFlowchart:
		return "flowchart"
	case KindSequence:
		return "sequence"
	case KindClass:
		return "class"
	case KindState:
		return "state"
	case KindER:
		return "er"
	case KindGantt:
		return "gantt"
	case KindPie:
		return "pie"
	case KindJourney:
		return "journey"
	case KindGitGraph:
		return "gitGraph"
	case KindMindmap:
		return "mindmap"
	case KindTimeline:
		return "timeline"
	case KindQuadrant:
		return "quadrantChart"
	case KindRequirement:
		return "requirementDiagram"
	case KindC4:
		return "C4Context"
	default:
		return "unknown"
	}
}

// Issue is a single validation error or warning. Line and Column are
// 1-based; zero means the issue applies to the whole diagram.
type Issue struct {
	Line       int
	Column     int
	Message    string
	Suggestion string
}

// ValidationResult is the outcome of Validate. IsValid is true exactly
// when Errors is empty. Kind is KindUnknown only when detection failed.
type ValidationResult struct {
	IsValid     bool
	Kind        DiagramKind
	Errors      []Issue
	Warnings    []Issue
	Suggestions []string
	Metadata    map[string]int
}

// openers maps a dialect-opening pattern to its diagram kind. Entries
// are ordered by keyword specificity: longer keywords come first so a
// short keyword never prefix-matches a more specific declaration.
var openers = []struct {
	kind DiagramKind
	re   *regexp.Regexp
}{
	{KindRequirement, regexp.MustCompile(`^requirementDiagram\b`)},
	{KindSequence, regexp.MustCompile(`^sequenceDiagram\b`)},
	{KindQuadrant, regexp.MustCompile(`^quadrantChart\b`)},
	{KindClass, regexp.MustCompile(`^classDiagram\b`)},
	{KindState, regexp.MustCompile(`^stateDiagram(-v2)?\b`)},
	{KindER, regexp.MustCompile(`^erDiagram\b`)},
	{KindC4, regexp.MustCompile(`^C4Context\b`)},
	{KindGitGraph, regexp.MustCompile(`^gitGraph\b`)},
	{KindTimeline, regexp.MustCompile(`^timeline\b`)},
	{KindMindmap, regexp.MustCompile(`^mindmap\b`)},
	{KindJourney, regexp.MustCompile(`^journey\b`)},
	{KindGantt, regexp.MustCompile(`^gantt\b`)},
	{KindPie, regexp.MustCompile(`^pie\b`)},
	{KindFlowchart, regexp.MustCompile(`^(graph|flowchart)\s+(TB|TD|BT|RL|LR)\b`)},
}

// validOpeners is the suggestion text listing recognized declarations.
const validOpeners = `graph TD, flowchart LR, sequenceDiagram, classDiagram, ` +
	`stateDiagram-v2, erDiagram, gantt, pie, journey, gitGraph, mindmap, timeline`

// Validate checks Mermaid diagram text for structural errors without
// rendering it. It is pure and deterministic: a single pass over the
// lines plus a fixed number of regex scans.
func Validate(code string) ValidationResult {
	if strings.TrimSpace(code) == "" {
		return ValidationResult{
			IsValid: false,
			Kind:    KindUnknown,
			Errors:  []Issue{{Message: "Empty diagram code"}},
		}
	}

	lines := strings.Split(code, "\n")
	result := ValidationResult{
		Kind:     detectKind(lines),
		Metadata: map[string]int{"lines": len(lines)},
	}

	if result.Kind == KindUnknown {
		result.Errors = append(result.Errors, Issue{
			Line:       1,
			Message:    "Unknown or invalid diagram type",
			Suggestion: "Start with a valid declaration, e.g. " + validOpeners,
		})
		return result
	}

	result.Errors = append(result.Errors, checkBrackets(lines, result.Kind)...)
	result.Errors = append(result.Errors, checkQuotes(lines)...)
	result.Warnings = append(result.Warnings, checkLineLength(lines)...)

	switch result.Kind {
	case KindFlowchart:
		checkFlowchart(lines, &result)
	case KindSequence:
		checkSequence(lines, &result)
	case KindClass:
		checkClass(lines, &result)
	}

	result.IsValid = len(result.Errors) == 0
	if result.IsValid {
		result.Suggestions = generateSuggestions(code, result.Kind)
	}
	return result
}

// detectKind matches the first non-empty, non-comment line against the
// opener table. First match wins.
func detectKind(lines []string) DiagramKind {
	first := firstContentLine(lines)
	if first == "" {
		return KindUnknown
	}
	for _, o := range openers {
		if o.re.MatchString(first) {
			return o.kind
		}
	}
	return KindUnknown
}

// firstContentLine returns the first trimmed line that is neither empty
// nor a %% comment.
func firstContentLine(lines []string) string {
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "%%") {
			continue
		}
		return trimmed
	}
	return ""
}
