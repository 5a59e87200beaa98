package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"studyvault-backend/internal/logger"
)

// QuizItem is one multiple-choice question. Options always has exactly four
// entries and Answer is one of them; items that violate this never leave the
// generator.
type QuizItem struct {
	Question    string   `json:"question" bson:"question"`
	Options     []string `json:"options" bson:"options"`
	Answer      string   `json:"answer" bson:"answer"`
	Explanation string   `json:"explanation" bson:"explanation"`
}

// GenerateQuiz builds a multiple-choice quiz over text. Count is clamped to
// [1, QuizMaxCount] and unknown difficulties fall back to Medium. Any model
// or parse failure yields an empty slice with the cause logged: a broken quiz
// must never break the upload flow.
func (e *StudyEngine) GenerateQuiz(ctx context.Context, text, difficulty string, count int) []QuizItem {
	if count < 1 {
		count = 1
	}
	if count > e.opts.QuizMaxCount {
		count = e.opts.QuizMaxCount
	}
	difficulty = normalizeDifficulty(difficulty)

	prompt := buildQuizPrompt(truncateText(text, e.opts.QuizMaxChars), difficulty, count)

	ctx, cancel := context.WithTimeout(ctx, e.opts.GenerateTimeout)
	defer cancel()
	out, err := e.gen.GenerateText(ctx, prompt)
	if err != nil {
		logger.Warn("Quiz generation failed", "difficulty", difficulty, "count", count, "error", err)
		return []QuizItem{}
	}

	items, err := parseQuizJSON(out)
	if err != nil {
		logger.Warn("Quiz output rejected", "difficulty", difficulty, "count", count, "error", err)
		return []QuizItem{}
	}
	if len(items) > count {
		items = items[:count]
	}
	return items
}

func normalizeDifficulty(d string) string {
	switch strings.ToLower(strings.TrimSpace(d)) {
	case "easy":
		return "Easy"
	case "hard":
		return "Hard"
	default:
		return "Medium"
	}
}

func buildQuizPrompt(text, difficulty string, count int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Create %d %s multiple-choice questions from the study material below.\n", count, difficulty)
	b.WriteString("Respond with ONLY a JSON array, no prose and no markdown fences. Each element:\n")
	b.WriteString(`{"question": "...", "options": ["...", "...", "...", "..."], "answer": "...", "explanation": "..."}` + "\n")
	b.WriteString("Rules: exactly 4 options per question, answer must be copied verbatim from options.\n\n")
	b.WriteString("Material:\n")
	b.WriteString(text)
	return b.String()
}

// parseQuizJSON strips markdown fences the model sometimes adds despite
// instructions, then decodes and validates the shape of every item.
func parseQuizJSON(raw string) ([]QuizItem, error) {
	cleaned := stripCodeFences(raw)

	var items []QuizItem
	if err := json.Unmarshal([]byte(cleaned), &items); err != nil {
		return nil, &ParseError{Reason: "invalid JSON: " + err.Error()}
	}
	if len(items) == 0 {
		return nil, &ParseError{Reason: "empty quiz array"}
	}
	for i, item := range items {
		if err := validateQuizItem(item); err != nil {
			return nil, &ParseError{Reason: fmt.Sprintf("item %d: %v", i, err)}
		}
	}
	return items, nil
}

func validateQuizItem(item QuizItem) error {
	if strings.TrimSpace(item.Question) == "" {
		return fmt.Errorf("missing question")
	}
	if len(item.Options) != 4 {
		return fmt.Errorf("expected 4 options, got %d", len(item.Options))
	}
	for _, opt := range item.Options {
		if strings.TrimSpace(opt) == "" {
			return fmt.Errorf("empty option")
		}
	}
	if strings.TrimSpace(item.Answer) == "" {
		return fmt.Errorf("missing answer")
	}
	found := false
	for _, opt := range item.Options {
		if opt == item.Answer {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("answer not among options")
	}
	if strings.TrimSpace(item.Explanation) == "" {
		return fmt.Errorf("missing explanation")
	}
	return nil
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if idx := strings.IndexByte(s, '\n'); idx >= 0 && strings.EqualFold(strings.TrimSpace(s[:idx]), "json") {
		s = s[idx+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
