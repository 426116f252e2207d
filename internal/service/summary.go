package service

import (
	"strings"
	"unicode/utf8"
)

const (
	summaryMaxRunes = 200
	noSummary       = "No summary available"
)

// ExtractSummary returns the Problem Statement section text, or the first three non-heading
// lines when there is none, joined by spaces and cut to 200 runes with a trailing "...".
func ExtractSummary(content string) string {
	lines := strings.Split(content, "\n")

	var problem []string
	inProblem := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		lower := strings.ToLower(trimmed)
		if !inProblem {
			if strings.Contains(lower, "problem statement") || strings.HasPrefix(lower, "## problem") {
				inProblem = true
			}
			continue
		}
		if strings.HasPrefix(trimmed, "#") {
			break
		}
		if trimmed != "" {
			problem = append(problem, trimmed)
		}
	}

	summary := strings.Join(problem, " ")
	if summary == "" {
		var first []string
		for _, line := range lines {
			trimmed := strings.TrimSpace(line)
			if trimmed == "" || strings.HasPrefix(trimmed, "#") {
				continue
			}
			first = append(first, trimmed)
			if len(first) == 3 {
				break
			}
		}
		summary = strings.Join(first, " ")
	}

	summary = strings.TrimSpace(summary)
	if summary == "" {
		return noSummary
	}
	return truncate(summary, summaryMaxRunes, "...")
}

func truncate(s string, n int, suffix string) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n]) + suffix
}
