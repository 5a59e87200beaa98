package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func validQuizJSON(n int) string {
	items := make([]string, n)
	for i := range items {
		items[i] = fmt.Sprintf(`{
			"question": "Question %d?",
			"options": ["A", "B", "C", "D"],
			"answer": "B",
			"explanation": "Because B."
		}`, i)
	}
	return "[" + strings.Join(items, ",") + "]"
}

func TestGenerateQuizValid(t *testing.T) {
	gen := &fakeGenerator{responses: []string{validQuizJSON(3)}}
	e := newTestEngine(gen, nil)

	quiz := e.GenerateQuiz(context.Background(), "some study text", "Hard", 3)

	if len(quiz) != 3 {
		t.Fatalf("expected 3 items, got %d", len(quiz))
	}
	for _, item := range quiz {
		if len(item.Options) != 4 {
			t.Errorf("item has %d options", len(item.Options))
		}
		if item.Answer != "B" {
			t.Errorf("answer = %q", item.Answer)
		}
	}
	if !strings.Contains(gen.prompts[0], "3 Hard") {
		t.Errorf("prompt should request 3 Hard questions: %q", gen.prompts[0][:80])
	}
}

func TestGenerateQuizStripsFences(t *testing.T) {
	fenced := "```json\n" + validQuizJSON(2) + "\n```"
	gen := &fakeGenerator{responses: []string{fenced}}
	e := newTestEngine(gen, nil)

	quiz := e.GenerateQuiz(context.Background(), "text", "Easy", 2)
	if len(quiz) != 2 {
		t.Fatalf("fenced JSON should parse, got %d items", len(quiz))
	}
}

func TestGenerateQuizMalformedJSON(t *testing.T) {
	gen := &fakeGenerator{responses: []string{"Here are your questions: 1) What is..."}}
	e := newTestEngine(gen, nil)

	quiz := e.GenerateQuiz(context.Background(), "text", "Medium", 5)
	if len(quiz) != 0 {
		t.Fatalf("malformed output must yield empty quiz, got %d items", len(quiz))
	}
}

func TestGenerateQuizWrongOptionCount(t *testing.T) {
	bad := `[{"question": "Q?", "options": ["A", "B", "C"], "answer": "A", "explanation": "x"}]`
	gen := &fakeGenerator{responses: []string{bad}}
	e := newTestEngine(gen, nil)

	if quiz := e.GenerateQuiz(context.Background(), "text", "Medium", 1); len(quiz) != 0 {
		t.Fatalf("3-option item must be rejected, got %d items", len(quiz))
	}
}

func TestGenerateQuizAnswerNotInOptions(t *testing.T) {
	bad := `[{"question": "Q?", "options": ["A", "B", "C", "D"], "answer": "E", "explanation": "x"}]`
	gen := &fakeGenerator{responses: []string{bad}}
	e := newTestEngine(gen, nil)

	if quiz := e.GenerateQuiz(context.Background(), "text", "Medium", 1); len(quiz) != 0 {
		t.Fatal("answer outside options must be rejected")
	}
}

func TestGenerateQuizMissingField(t *testing.T) {
	bad := `[{"question": "Q?", "options": ["A", "B", "C", "D"], "answer": "A"}]`
	gen := &fakeGenerator{responses: []string{bad}}
	e := newTestEngine(gen, nil)

	if quiz := e.GenerateQuiz(context.Background(), "text", "Medium", 1); len(quiz) != 0 {
		t.Fatal("item without explanation must be rejected")
	}
}

func TestGenerateQuizCountClamped(t *testing.T) {
	gen := &fakeGenerator{responses: []string{validQuizJSON(10)}}
	e := newTestEngine(gen, nil)

	quiz := e.GenerateQuiz(context.Background(), "text", "Medium", 1000)

	if len(quiz) > 10 {
		t.Fatalf("count must be clamped to 10, got %d", len(quiz))
	}
	if strings.Contains(gen.prompts[0], "1000") {
		t.Error("clamped count must also apply to the prompt")
	}
	if !strings.Contains(gen.prompts[0], "10 Medium") {
		t.Errorf("prompt should request 10 questions: %q", gen.prompts[0][:80])
	}
}

func TestGenerateQuizGenerationFailure(t *testing.T) {
	gen := &fakeGenerator{errs: []error{errors.New("timeout")}}
	e := newTestEngine(gen, nil)

	if quiz := e.GenerateQuiz(context.Background(), "text", "Medium", 5); len(quiz) != 0 {
		t.Fatal("generation failure must yield empty quiz, not an error")
	}
}

func TestGenerateQuizDifficultyNormalized(t *testing.T) {
	gen := &fakeGenerator{responses: []string{validQuizJSON(1), validQuizJSON(1), validQuizJSON(1)}}
	e := newTestEngine(gen, nil)

	e.GenerateQuiz(context.Background(), "text", "hard", 1)
	e.GenerateQuiz(context.Background(), "text", "EASY", 1)
	e.GenerateQuiz(context.Background(), "text", "impossible", 1)

	if !strings.Contains(gen.prompts[0], "Hard") {
		t.Error("lowercase difficulty should normalize to Hard")
	}
	if !strings.Contains(gen.prompts[1], "Easy") {
		t.Error("uppercase difficulty should normalize to Easy")
	}
	if !strings.Contains(gen.prompts[2], "Medium") {
		t.Error("unknown difficulty should fall back to Medium")
	}
}

func TestGenerateQuizTruncatesInput(t *testing.T) {
	gen := &fakeGenerator{responses: []string{validQuizJSON(1)}}
	e := newTestEngine(gen, nil)

	long := strings.Repeat("z", 20000)
	e.GenerateQuiz(context.Background(), long, "Medium", 1)

	if len(gen.prompts[0]) > 16000 {
		t.Errorf("prompt should carry at most the 15k prefix, got %d chars", len(gen.prompts[0]))
	}
}

func TestStripCodeFences(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"[]", "[]"},
		{"```json\n[]\n```", "[]"},
		{"```\n[]\n```", "[]"},
		{"  ```json\n[1]\n```  ", "[1]"},
	}
	for _, tc := range cases {
		if got := stripCodeFences(tc.in); got != tc.want {
			t.Errorf("stripCodeFences(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
