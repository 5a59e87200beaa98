package engine

import (
	"strings"
	"unicode/utf8"
)

// Chunk is one contiguous window of the source document.
type Chunk struct {
	Order int
	Text  string
}

// SplitText cuts text into contiguous windows of at most size characters and
// drops any window whose trimmed content is minChars or shorter. Fragments
// that short carry too little signal to be worth an embedding. Windows are
// measured in runes so multi-byte text is never split mid-character.
func SplitText(text string, size, minChars int) []Chunk {
	if size <= 0 {
		size = 500
	}
	runes := []rune(text)
	chunks := []Chunk{}
	for i := 0; i < len(runes); i += size {
		end := i + size
		if end > len(runes) {
			end = len(runes)
		}
		window := string(runes[i:end])
		if utf8.RuneCountInString(strings.TrimSpace(window)) <= minChars {
			continue
		}
		chunks = append(chunks, Chunk{Order: len(chunks), Text: window})
	}
	return chunks
}
