package mmd2img

import (
	"fmt"
	"regexp"
	"strings"
)

// maxLineLength triggers a long-line warning; very long lines usually
// indicate labels that should be split or quoted.
const maxLineLength = 200

// edgePattern splits flowchart connection lines into node parts.
var edgePattern = regexp.MustCompile(`-->|---|==>|-\.->`)

// nodeIDPattern extracts the leading identifier of a node reference.
var nodeIDPattern = regexp.MustCompile(`^([A-Za-z][A-Za-z0-9_]*)`)

// participantPattern matches explicit participant declarations.
var participantPattern = regexp.MustCompile(`^(?:participant|actor)\s+(\w+)`)

// messagePattern splits sequence message lines into sender/receiver.
var messagePattern = regexp.MustCompile(`->>|-->>|->|-->`)

// classDefPattern matches class definitions.
var classDefPattern = regexp.MustCompile(`^class\s+(\w+)`)

// checkBrackets verifies that [], () and {} are balanced. Square
// brackets and parentheses are checked per line. Curly braces span
// multiple lines in class and ER diagrams, so for those kinds the brace
// count is taken over the whole text; all other kinds check per line.
func checkBrackets(lines []string, kind DiagramKind) []Issue {
	var issues []Issue
	multiLineBraces := kind == KindClass || kind == KindER

	if multiLineBraces {
		var open, closed int
		for _, line := range lines {
			open += strings.Count(line, "{")
			closed += strings.Count(line, "}")
		}
		if open != closed {
			issues = append(issues, Issue{
				Message:    fmt.Sprintf("Unmatched curly braces: %d opening, %d closing", open, closed),
				Suggestion: "Ensure all { have matching } in class/entity definitions",
			})
		}
	}

	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "%%") {
			continue
		}
		lineNo := i + 1

		if strings.Count(line, "[") != strings.Count(line, "]") {
			issues = append(issues, Issue{
				Line:       lineNo,
				Message:    "Unmatched square brackets",
				Suggestion: "Ensure all [ have matching ]",
			})
		}
		if strings.Count(line, "(") != strings.Count(line, ")") {
			issues = append(issues, Issue{
				Line:       lineNo,
				Message:    "Unmatched parentheses",
				Suggestion: "Ensure all ( have matching )",
			})
		}
		if !multiLineBraces && strings.Count(line, "{") != strings.Count(line, "}") {
			issues = append(issues, Issue{
				Line:       lineNo,
				Message:    "Unmatched curly braces",
				Suggestion: "Ensure all { have matching }",
			})
		}
	}
	return issues
}

// checkQuotes reports every line with an odd number of double quotes.
// Checking per line keeps two separately-unclosed quotes from cancelling
// each other out across the text. Column is the 1-based position of the
// last quote on the line.
func checkQuotes(lines []string) []Issue {
	var issues []Issue
	for i, line := range lines {
		if strings.Count(line, `"`)%2 != 0 {
			issues = append(issues, Issue{
				Line:       i + 1,
				Column:     strings.LastIndex(line, `"`) + 1,
				Message:    "Unclosed quote",
				Suggestion: "Add closing quote",
			})
		}
	}
	return issues
}

// checkLineLength warns about lines exceeding maxLineLength characters.
func checkLineLength(lines []string) []Issue {
	var issues []Issue
	for i, line := range lines {
		if len(line) > maxLineLength {
			issues = append(issues, Issue{
				Line:       i + 1,
				Message:    fmt.Sprintf("Line exceeds %d characters", maxLineLength),
				Suggestion: "Split long labels or move text into a note",
			})
		}
	}
	return issues
}

// checkFlowchart collects node identifiers from edges and definitions
// and warns when the diagram has fewer than two distinct nodes.
func checkFlowchart(lines []string, result *ValidationResult) {
	nodes := make(map[string]struct{})

	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "%%") || i == 0 {
			continue
		}
		if edgePattern.MatchString(line) {
			for _, part := range edgePattern.Split(line, -1) {
				part = strings.TrimSpace(part)
				// Drop edge labels of the form |text| before the node id.
				if idx := strings.LastIndex(part, "|"); idx >= 0 {
					part = strings.TrimSpace(part[idx+1:])
				}
				if m := nodeIDPattern.FindStringSubmatch(part); m != nil {
					nodes[m[1]] = struct{}{}
				}
			}
		} else if m := nodeIDPattern.FindStringSubmatch(line); m != nil {
			nodes[m[1]] = struct{}{}
		}
	}

	result.Metadata["nodes"] = len(nodes)
	if len(nodes) < 2 {
		result.Warnings = append(result.Warnings, Issue{
			Message:    "Diagram has very few nodes",
			Suggestion: "Consider adding more nodes to make the diagram more informative",
		})
	}
}

// checkSequence collects participants (declared or appearing as message
// senders) and warns when fewer than two are present.
func checkSequence(lines []string, result *ValidationResult) {
	participants := make(map[string]struct{})

	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "%%") || i == 0 {
			continue
		}
		if m := participantPattern.FindStringSubmatch(line); m != nil {
			participants[m[1]] = struct{}{}
			continue
		}
		if messagePattern.MatchString(line) {
			parts := messagePattern.Split(line, 2)
			if sender := strings.TrimSpace(parts[0]); sender != "" {
				participants[sender] = struct{}{}
			}
		}
	}

	result.Metadata["participants"] = len(participants)
	if len(participants) < 2 {
		result.Warnings = append(result.Warnings, Issue{
			Message:    "Sequence diagram should have at least 2 participants",
			Suggestion: "Add participants with 'participant Name' statements",
		})
	}
}

// checkClass requires at least one class definition.
func checkClass(lines []string, result *ValidationResult) {
	classes := make(map[string]struct{})

	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "%%") || i == 0 {
			continue
		}
		if m := classDefPattern.FindStringSubmatch(line); m != nil {
			classes[m[1]] = struct{}{}
		}
	}

	result.Metadata["classes"] = len(classes)
	if len(classes) == 0 {
		result.Errors = append(result.Errors, Issue{
			Message:    "Class diagram has no class definitions",
			Suggestion: "Define at least one class with 'class Name { ... }'",
		})
	}
}

// generateSuggestions produces soft style hints for a valid diagram.
// These are never errors or warnings.
func generateSuggestions(code string, kind DiagramKind) []string {
	var suggestions []string

	switch kind {
	case KindFlowchart:
		if !strings.Contains(code, "subgraph") {
			suggestions = append(suggestions, "Consider using subgraphs to group related nodes")
		}
		if len(strings.Split(code, "\n")) < 5 {
			suggestions = append(suggestions, "Add more nodes and connections to make the flowchart more detailed")
		}
	case KindSequence:
		if !strings.Contains(code, "note") {
			suggestions = append(suggestions, "Consider adding notes to explain complex interactions")
		}
	}

	return suggestions
}
