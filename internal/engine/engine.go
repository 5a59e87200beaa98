package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"studyvault-backend/internal/logger"
)

// Options carries the tunables of a study engine. Zero values are replaced
// by the defaults below so tests can construct partial Options.
type Options struct {
	ChunkSize       int
	MinChunkChars   int
	RetrievalTopK   int
	ChatHistorySize int
	QuizMaxCount    int
	SummaryMaxChars int
	QuizMaxChars    int
	TopicMaxChars   int
	MaxVideoResults int
	VideosPerTopic  int

	GenerateTimeout time.Duration
	EmbedTimeout    time.Duration
	SearchTimeout   time.Duration
}

func DefaultOptions() Options {
	return Options{
		ChunkSize:       500,
		MinChunkChars:   100,
		RetrievalTopK:   3,
		ChatHistorySize: 5,
		QuizMaxCount:    10,
		SummaryMaxChars: 80000,
		QuizMaxChars:    15000,
		TopicMaxChars:   5000,
		MaxVideoResults: 7,
		VideosPerTopic:  2,
		GenerateTimeout: 60 * time.Second,
		EmbedTimeout:    30 * time.Second,
		SearchTimeout:   15 * time.Second,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.ChunkSize <= 0 {
		o.ChunkSize = def.ChunkSize
	}
	if o.MinChunkChars <= 0 {
		o.MinChunkChars = def.MinChunkChars
	}
	if o.RetrievalTopK <= 0 {
		o.RetrievalTopK = def.RetrievalTopK
	}
	if o.ChatHistorySize <= 0 {
		o.ChatHistorySize = def.ChatHistorySize
	}
	if o.QuizMaxCount <= 0 {
		o.QuizMaxCount = def.QuizMaxCount
	}
	if o.SummaryMaxChars <= 0 {
		o.SummaryMaxChars = def.SummaryMaxChars
	}
	if o.QuizMaxChars <= 0 {
		o.QuizMaxChars = def.QuizMaxChars
	}
	if o.TopicMaxChars <= 0 {
		o.TopicMaxChars = def.TopicMaxChars
	}
	if o.MaxVideoResults <= 0 {
		o.MaxVideoResults = def.MaxVideoResults
	}
	if o.VideosPerTopic <= 0 {
		o.VideosPerTopic = def.VideosPerTopic
	}
	if o.GenerateTimeout <= 0 {
		o.GenerateTimeout = def.GenerateTimeout
	}
	if o.EmbedTimeout <= 0 {
		o.EmbedTimeout = def.EmbedTimeout
	}
	if o.SearchTimeout <= 0 {
		o.SearchTimeout = def.SearchTimeout
	}
	return o
}

// ChatTurn is one completed question/answer exchange.
type ChatTurn struct {
	Question string
	Answer   string
}

// StudyEngine holds the per-session study state: the memory index over the
// most recently ingested document and a bounded chat history. One engine
// serves one session; handlers obtain it from the session manager.
type StudyEngine struct {
	gen      TextGenerator
	searcher VideoSearcher
	index    *VectorIndex
	opts     Options

	mu      sync.Mutex
	history []ChatTurn
}

func NewStudyEngine(gen TextGenerator, emb Embedder, searcher VideoSearcher, opts Options) *StudyEngine {
	return &StudyEngine{
		gen:      gen,
		searcher: searcher,
		index:    NewVectorIndex(emb),
		opts:     opts.withDefaults(),
	}
}

// Index exposes the engine's memory index (read-side use only).
func (e *StudyEngine) Index() *VectorIndex { return e.index }

// BuildMemoryIndex chunks text and rebuilds the memory index under a fresh
// collection id. Returns the collection id and the number of chunks indexed.
// ErrEmptyInput means nothing survived chunking; any embedding failure leaves
// the previous collection intact.
func (e *StudyEngine) BuildMemoryIndex(ctx context.Context, text string) (string, int, error) {
	chunks := SplitText(text, e.opts.ChunkSize, e.opts.MinChunkChars)
	if len(chunks) == 0 {
		return "", 0, ErrEmptyInput
	}

	collectionID := uuid.New().String()
	ctx, cancel := context.WithTimeout(ctx, e.opts.EmbedTimeout)
	defer cancel()
	if err := e.index.Rebuild(ctx, collectionID, chunks); err != nil {
		return "", 0, err
	}
	return collectionID, len(chunks), nil
}

// Ask answers a question grounded in the indexed document, carrying the last
// turns of conversation into the prompt. The exchange is appended to history
// only after the model call succeeds, so failed calls never pollute later
// prompts.
func (e *StudyEngine) Ask(ctx context.Context, question string) (string, error) {
	qctx, cancel := context.WithTimeout(ctx, e.opts.EmbedTimeout)
	contexts, err := e.index.Query(qctx, question, e.opts.RetrievalTopK)
	cancel()
	if err != nil {
		return "", err
	}

	prompt := e.buildChatPrompt(question, contexts)

	gctx, cancel := context.WithTimeout(ctx, e.opts.GenerateTimeout)
	defer cancel()
	answer, err := e.gen.GenerateText(gctx, prompt)
	if err != nil {
		logger.Warn("Chat generation failed", "error", err)
		return "", wrapGeneration("chat", err)
	}
	answer = strings.TrimSpace(answer)

	e.mu.Lock()
	e.history = append(e.history, ChatTurn{Question: question, Answer: answer})
	if len(e.history) > e.opts.ChatHistorySize {
		e.history = e.history[len(e.history)-e.opts.ChatHistorySize:]
	}
	e.mu.Unlock()

	return answer, nil
}

// History returns a copy of the retained chat turns, oldest first.
func (e *StudyEngine) History() []ChatTurn {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]ChatTurn, len(e.history))
	copy(out, e.history)
	return out
}

func (e *StudyEngine) buildChatPrompt(question string, contexts []string) string {
	var b strings.Builder
	b.WriteString("You are a study assistant. Answer the question using ONLY the context below.\n")
	b.WriteString("If the context does not contain the answer, say you don't know based on the provided material.\n\n")

	for i, c := range contexts {
		b.WriteString(fmt.Sprintf("Context %d:\n%s\n\n", i+1, c))
	}

	e.mu.Lock()
	turns := make([]ChatTurn, len(e.history))
	copy(turns, e.history)
	e.mu.Unlock()

	if len(turns) > 0 {
		b.WriteString("Conversation so far:\n")
		for _, t := range turns {
			b.WriteString("Student: " + t.Question + "\n")
			b.WriteString("Assistant: " + t.Answer + "\n")
		}
		b.WriteString("\n")
	}

	b.WriteString("Question: " + question + "\nAnswer:")
	return b.String()
}

// wrapGeneration keeps already-classified errors as-is and wraps the rest.
func wrapGeneration(op string, err error) error {
	var genErr *GenerationError
	if errors.As(err, &genErr) {
		return err
	}
	return &GenerationError{Op: op, Cause: err}
}
