package engine

import (
	"context"
	"strings"
	"unicode/utf8"

	"studyvault-backend/internal/logger"
)

// GenerateSummary produces a four-section markdown study summary of text.
// The input is truncated to SummaryMaxChars before prompting. On failure it
// returns a user-visible error string instead of an error: the summary is a
// best-effort enrichment, not a gating step.
func (e *StudyEngine) GenerateSummary(ctx context.Context, text string) string {
	prompt := buildSummaryPrompt(truncateText(text, e.opts.SummaryMaxChars))

	ctx, cancel := context.WithTimeout(ctx, e.opts.GenerateTimeout)
	defer cancel()
	out, err := e.gen.GenerateText(ctx, prompt)
	if err != nil {
		logger.Warn("Summary generation failed", "error", err)
		return "Error generating summary: the study assistant could not process this document right now."
	}
	return strings.TrimSpace(out)
}

func buildSummaryPrompt(text string) string {
	var b strings.Builder
	b.WriteString("Summarize the following study material as markdown with exactly these four sections:\n")
	b.WriteString("## Overview\n")
	b.WriteString("## Key Concepts\n")
	b.WriteString("## Detailed Breakdown\n")
	b.WriteString("## Real-World Applications\n\n")
	b.WriteString("Be concise and factual. Do not invent content that is not in the material.\n\n")
	b.WriteString("Material:\n")
	b.WriteString(text)
	return b.String()
}

// truncateText caps text at maxChars characters, marking the cut. Counted in
// runes so the cut never lands inside a multi-byte character.
func truncateText(text string, maxChars int) string {
	if maxChars <= 0 || utf8.RuneCountInString(text) <= maxChars {
		return text
	}
	return string([]rune(text)[:maxChars]) + "..."
}
