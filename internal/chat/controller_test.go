package chat

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/rb14v1/Contrackt/internal/domain"
	"github.com/rb14v1/Contrackt/internal/history"
	"github.com/rb14v1/Contrackt/internal/storage"
)

// fakeBackend counts calls and records the last request of each kind
type fakeBackend struct {
	answerCalls int
	lastAnswer  domain.AnswerRequest
	answerResp  *domain.AnswerResponse
	answerErr   error

	summarizeCalls int
	summarizeURLs  []string
	summary        string
	summarizeErr   error

	docAnswer string
	docErr    error

	streamChunks []string
	streamFull   string
	streamErr    error
}

func (f *fakeBackend) Answer(ctx context.Context, req domain.AnswerRequest) (*domain.AnswerResponse, error) {
	f.answerCalls++
	f.lastAnswer = req
	return f.answerResp, f.answerErr
}

func (f *fakeBackend) SummarizeMultiple(ctx context.Context, s3URLs []string) (string, error) {
	f.summarizeCalls++
	f.summarizeURLs = s3URLs
	return f.summary, f.summarizeErr
}

func (f *fakeBackend) ChatWithDocument(ctx context.Context, query, s3URL string) (string, error) {
	return f.docAnswer, f.docErr
}

func (f *fakeBackend) ChatStream(ctx context.Context, req domain.StreamRequest, onChunk func(chunk string)) (string, error) {
	for _, chunk := range f.streamChunks {
		onChunk(chunk)
	}
	return f.streamFull, f.streamErr
}

func newTestController(backend *fakeBackend) (*Controller, *history.Store) {
	store := history.New(storage.NewMemory(), zap.NewNop(), 0, time.Hour)
	store.Initialize()
	return NewController(store, backend, zap.NewNop()), store
}

func lastMessage(t *testing.T, store *history.Store) domain.Message {
	t.Helper()
	messages := store.Current()
	if len(messages) == 0 {
		t.Fatal("transcript is empty")
	}
	return messages[len(messages)-1]
}

func TestSendEmptyInputNeverHitsBackend(t *testing.T) {
	backend := &fakeBackend{}
	c, store := newTestController(backend)

	c.Send(context.Background(), "")
	c.Send(context.Background(), "   \t ")

	if backend.answerCalls != 0 {
		t.Errorf("backend was called %d times for empty input", backend.answerCalls)
	}
	if len(store.Current()) != 0 {
		t.Error("empty input must not append messages")
	}
}

func TestSendSingleAnswer(t *testing.T) {
	backend := &fakeBackend{answerResp: &domain.AnswerResponse{Answer: "30 days"}}
	c, store := newTestController(backend)

	c.Send(context.Background(), "notice period?")

	messages := store.Current()
	if len(messages) != 2 {
		t.Fatalf("transcript has %d messages, want user + assistant", len(messages))
	}
	if messages[0].Role != domain.RoleUser || messages[0].Content != "notice period?" {
		t.Errorf("user message = %+v", messages[0])
	}
	if messages[1].Content != "30 days" {
		t.Errorf("assistant content = %q", messages[1].Content)
	}
	if messages[1].Content == Placeholder {
		t.Error("placeholder was never replaced")
	}
}

func TestSendMultiAnswer(t *testing.T) {
	backend := &fakeBackend{answerResp: &domain.AnswerResponse{
		Results: []domain.AnswerResult{
			{SourceName: "nda.pdf", Answer: "a1"},
			{SourceName: "loan.pdf", Answer: "a2"},
		},
	}}
	c, store := newTestController(backend)

	c.Send(context.Background(), "termination clauses")

	got := lastMessage(t, store)
	if got.Type != domain.MessageTypeMultiAnswer {
		t.Fatalf("message type = %q", got.Type)
	}
	if got.Content != "I found 2 relevant document(s) for your query:" {
		t.Errorf("content = %q", got.Content)
	}
	if len(got.Results) != 2 {
		t.Errorf("results = %+v", got.Results)
	}
}

func TestSendBackendFailure(t *testing.T) {
	backend := &fakeBackend{answerErr: errors.New("connection refused")}
	c, store := newTestController(backend)

	c.Send(context.Background(), "hello")

	if got := lastMessage(t, store); got.Content != FailedFetchText {
		t.Errorf("content = %q, want the fixed failure string", got.Content)
	}
}

func TestSendEmptyResponseIsFailure(t *testing.T) {
	backend := &fakeBackend{answerResp: &domain.AnswerResponse{}}
	c, store := newTestController(backend)

	c.Send(context.Background(), "hello")

	if got := lastMessage(t, store); got.Content != FailedFetchText {
		t.Errorf("content = %q, want the fixed failure string", got.Content)
	}
}

func TestSendCarriesCategoryFilter(t *testing.T) {
	backend := &fakeBackend{answerResp: &domain.AnswerResponse{Answer: "ok"}}
	c, _ := newTestController(backend)

	c.Send(context.Background(), "q1")
	if backend.lastAnswer.Category != "" {
		t.Errorf("default filter sent category %q", backend.lastAnswer.Category)
	}

	c.SetCategory("nda")
	c.Send(context.Background(), "q2")
	if backend.lastAnswer.Category != "nda" {
		t.Errorf("category = %q, want nda", backend.lastAnswer.Category)
	}

	c.SetCategory(domain.DefaultCategoryKey)
	c.Send(context.Background(), "q3")
	if backend.lastAnswer.Category != "" {
		t.Errorf("the all filter must not be sent, got %q", backend.lastAnswer.Category)
	}
}

func TestSelectDocumentsScopesSearch(t *testing.T) {
	backend := &fakeBackend{answerResp: &domain.AnswerResponse{Answer: "ok"}}
	c, store := newTestController(backend)

	docs := []domain.Document{
		{Name: "nda.pdf", Category: "nda", S3URL: "s3://a"},
		{Name: "loan.pdf", Category: "loan_agreement", S3URL: "s3://b"},
	}
	c.SelectDocuments(docs)

	got := lastMessage(t, store)
	if got.Type != domain.MessageTypePDFSelection {
		t.Fatalf("message type = %q", got.Type)
	}
	if len(got.PDFs) != 2 || got.PDFs[0].S3URL != "s3://a" || got.PDFs[1].S3URL != "s3://b" {
		t.Errorf("selection order not preserved: %+v", got.PDFs)
	}
	if !c.IsScoped() {
		t.Error("expected searches to be scoped")
	}

	c.Send(context.Background(), "liability?")
	if !backend.lastAnswer.ScopedSearch {
		t.Error("scoped request must set scoped_search")
	}
	if len(backend.lastAnswer.S3URLs) != 2 {
		t.Errorf("scoped request s3_urls = %v", backend.lastAnswer.S3URLs)
	}
	if backend.lastAnswer.Category != "" {
		t.Error("scoped request must not also carry a category")
	}
}

func TestClearSelection(t *testing.T) {
	backend := &fakeBackend{answerResp: &domain.AnswerResponse{Answer: "ok"}}
	c, store := newTestController(backend)
	c.SelectDocuments([]domain.Document{{S3URL: "s3://a"}})

	c.ClearSelection()

	if c.IsScoped() {
		t.Error("selection should be cleared")
	}
	if got := lastMessage(t, store); got.Content != SelectionClearedText {
		t.Errorf("content = %q", got.Content)
	}

	c.Send(context.Background(), "q")
	if backend.lastAnswer.ScopedSearch {
		t.Error("cleared selection must not scope later searches")
	}
}

func TestClearSelectionQuiet(t *testing.T) {
	backend := &fakeBackend{}
	c, store := newTestController(backend)
	c.SelectDocuments([]domain.Document{{S3URL: "s3://a"}})
	before := len(store.Current())

	c.ClearSelectionQuiet()

	if c.IsScoped() {
		t.Error("selection should be cleared")
	}
	if len(store.Current()) != before {
		t.Error("quiet clear must not add a transcript message")
	}
}

func TestSummarizeSelected(t *testing.T) {
	backend := &fakeBackend{summary: "both contracts expire in 2026"}
	c, store := newTestController(backend)

	docs := []domain.Document{{S3URL: "s3://a"}, {S3URL: "s3://b"}}
	c.SummarizeSelected(context.Background(), docs)

	messages := store.Current()
	if messages[0].Content != "Summarize these 2 documents" {
		t.Errorf("user message = %q", messages[0].Content)
	}
	if got := lastMessage(t, store); got.Content != "both contracts expire in 2026" {
		t.Errorf("summary = %q", got.Content)
	}
	if fmt.Sprint(backend.summarizeURLs) != fmt.Sprint([]string{"s3://a", "s3://b"}) {
		t.Errorf("summarize urls = %v", backend.summarizeURLs)
	}
}

func TestSummarizeFailure(t *testing.T) {
	backend := &fakeBackend{summarizeErr: errors.New("timeout")}
	c, store := newTestController(backend)

	c.SummarizeSelected(context.Background(), []domain.Document{{S3URL: "s3://a"}})

	if got := lastMessage(t, store); got.Content != FailedSummarizeText {
		t.Errorf("content = %q", got.Content)
	}
}

func TestSummarizeEmptySelectionIsNoop(t *testing.T) {
	backend := &fakeBackend{}
	c, store := newTestController(backend)

	c.SummarizeSelected(context.Background(), nil)

	if backend.summarizeCalls != 0 || len(store.Current()) != 0 {
		t.Error("empty selection must not call the backend")
	}
}

func TestStreamSendAccumulates(t *testing.T) {
	backend := &fakeBackend{streamChunks: []string{"Hel", "lo"}, streamFull: "Hello there"}
	c, store := newTestController(backend)

	var seen string
	c.StreamSend(context.Background(), "hi", func(chunk string) { seen += chunk })

	if seen != "Hello" {
		t.Errorf("chunk callback saw %q", seen)
	}
	got := lastMessage(t, store)
	if got.Content != "Hello there" {
		t.Errorf("final content = %q, want the full response", got.Content)
	}
	if got.IsStreaming {
		t.Error("streaming flag must be cleared when the stream ends")
	}
}

func TestStreamSendFailure(t *testing.T) {
	backend := &fakeBackend{streamErr: errors.New("broken pipe")}
	c, store := newTestController(backend)

	c.StreamSend(context.Background(), "hi", nil)

	if got := lastMessage(t, store); got.Content != FailedFetchText {
		t.Errorf("content = %q", got.Content)
	}
}

func TestStreamSendEmptyOutcomeIsFailure(t *testing.T) {
	backend := &fakeBackend{}
	c, store := newTestController(backend)

	c.StreamSend(context.Background(), "hi", nil)

	got := lastMessage(t, store)
	if got.Content != FailedFetchText {
		t.Errorf("content = %q, want the fixed failure string", got.Content)
	}
	if got.IsStreaming {
		t.Error("streaming flag must be cleared")
	}
}

func TestStreamSendKeepsAccumulatedChunks(t *testing.T) {
	backend := &fakeBackend{streamChunks: []string{"par", "tial"}}
	c, store := newTestController(backend)

	c.StreamSend(context.Background(), "hi", nil)

	if got := lastMessage(t, store); got.Content != "partial" {
		t.Errorf("content = %q, want the accumulated chunks", got.Content)
	}
}

func TestNoteUpload(t *testing.T) {
	backend := &fakeBackend{}
	c, store := newTestController(backend)

	c.NoteUpload("nda.pdf", "nda", "q-123")

	got := lastMessage(t, store)
	want := "Successfully uploaded: nda.pdf\n\nCategory: nda\nQdrant ID: q-123"
	if got.Content != want {
		t.Errorf("content = %q, want %q", got.Content, want)
	}
}

func TestDocumentSession(t *testing.T) {
	backend := &fakeBackend{docAnswer: "clause 4"}
	session := NewDocumentSession(backend, domain.Document{Name: "nda.pdf", S3URL: "s3://nda"})

	session.Send(context.Background(), "which clause?")

	messages := session.Messages()
	if len(messages) != 2 {
		t.Fatalf("session has %d messages", len(messages))
	}
	if messages[1].Content != "clause 4" {
		t.Errorf("answer = %q", messages[1].Content)
	}
}

func TestDocumentSessionFailureAndEmpty(t *testing.T) {
	failing := NewDocumentSession(&fakeBackend{docErr: errors.New("boom")}, domain.Document{})
	failing.Send(context.Background(), "q")
	if got := failing.Messages()[1].Content; got != FailedDocAnswerText {
		t.Errorf("failure answer = %q", got)
	}

	empty := NewDocumentSession(&fakeBackend{}, domain.Document{})
	empty.Send(context.Background(), "q")
	if got := empty.Messages()[1].Content; got != NoDocAnswerText {
		t.Errorf("empty answer = %q", got)
	}

	empty.Send(context.Background(), "   ")
	if len(empty.Messages()) != 2 {
		t.Error("blank question must be a no-op")
	}
}
