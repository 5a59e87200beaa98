package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all application metrics
type Metrics struct {
	RequestCounter     metric.Int64Counter
	RequestDuration    metric.Float64Histogram
	TokensUsed         metric.Int64Counter
	DocumentProcessing metric.Float64Histogram
	QuestionsAsked     metric.Int64Counter
	QuizzesGenerated   metric.Int64Counter
}

// InitMetrics initializes all application metrics
func InitMetrics() (*Metrics, error) {
	meter := otel.Meter("studyvault-backend")

	requestCounter, err := meter.Int64Counter(
		"http.requests.total",
		metric.WithDescription("Total HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	requestDuration, err := meter.Float64Histogram(
		"http.request.duration",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	tokensUsed, err := meter.Int64Counter(
		"gemini.tokens.used",
		metric.WithDescription("Total Gemini tokens used"),
	)
	if err != nil {
		return nil, err
	}

	documentProcessing, err := meter.Float64Histogram(
		"document.processing.duration",
		metric.WithDescription("Document ingestion duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	questionsAsked, err := meter.Int64Counter(
		"chat.questions.total",
		metric.WithDescription("Total study questions asked"),
	)
	if err != nil {
		return nil, err
	}

	quizzesGenerated, err := meter.Int64Counter(
		"quiz.generated.total",
		metric.WithDescription("Total quizzes generated"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		RequestCounter:     requestCounter,
		RequestDuration:    requestDuration,
		TokensUsed:         tokensUsed,
		DocumentProcessing: documentProcessing,
		QuestionsAsked:     questionsAsked,
		QuizzesGenerated:   quizzesGenerated,
	}, nil
}

// RecordRequest records HTTP request metrics
func (m *Metrics) RecordRequest(method, path, status string, duration float64) {
	attrs := []attribute.KeyValue{
		attribute.String("http.method", method),
		attribute.String("http.path", path),
		attribute.String("http.status", status),
	}

	m.RequestCounter.Add(context.Background(), 1, metric.WithAttributes(attrs...))
	m.RequestDuration.Record(context.Background(), duration, metric.WithAttributes(attrs...))
}

// RecordTokensUsed records Gemini token usage
func (m *Metrics) RecordTokensUsed(tokens int64, model string) {
	attrs := []attribute.KeyValue{
		attribute.String("gemini.model", model),
		attribute.String("service", "gemini"),
	}

	m.TokensUsed.Add(context.Background(), tokens, metric.WithAttributes(attrs...))
}

// RecordDocumentProcessing records document ingestion metrics
func (m *Metrics) RecordDocumentProcessing(duration float64, source, status string) {
	attrs := []attribute.KeyValue{
		attribute.String("document.source", source),
		attribute.String("document.status", status),
	}

	m.DocumentProcessing.Record(context.Background(), duration, metric.WithAttributes(attrs...))
}

// RecordQuestionAsked records a chat question
func (m *Metrics) RecordQuestionAsked(answered bool) {
	attrs := []attribute.KeyValue{
		attribute.Bool("chat.answered", answered),
	}

	m.QuestionsAsked.Add(context.Background(), 1, metric.WithAttributes(attrs...))
}

// RecordQuizGenerated records a quiz generation attempt
func (m *Metrics) RecordQuizGenerated(difficulty string, items int) {
	attrs := []attribute.KeyValue{
		attribute.String("quiz.difficulty", difficulty),
		attribute.Int("quiz.items", items),
	}

	m.QuizzesGenerated.Add(context.Background(), 1, metric.WithAttributes(attrs...))
}
