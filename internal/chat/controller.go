// Package chat composes the conversation store and the backend client into
// the user-facing chat operations: sending questions, scoping searches to a
// document selection, and summarizing. Failures never escape; they are
// converted into assistant messages in the transcript.
package chat

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rb14v1/Contrackt/internal/domain"
	"github.com/rb14v1/Contrackt/internal/history"
)

// Transcript strings surfaced to the user
const (
	Placeholder          = "..."
	FailedFetchText      = "Failed to fetch response from backend."
	FailedSummarizeText  = "Failed to summarize documents."
	FailedDocAnswerText  = "Failed to get answer."
	NoDocAnswerText      = "Sorry, I had trouble with that question."
	SelectionClearedText = "Document selection cleared. You can now search all documents again."
)

// Backend is the slice of the api client the controller needs
type Backend interface {
	Answer(ctx context.Context, req domain.AnswerRequest) (*domain.AnswerResponse, error)
	SummarizeMultiple(ctx context.Context, s3URLs []string) (string, error)
	ChatWithDocument(ctx context.Context, query, s3URL string) (string, error)
	ChatStream(ctx context.Context, req domain.StreamRequest, onChunk func(chunk string)) (string, error)
}

// Controller holds the cross-cutting chat state: the category filter, the
// scoped-search selection, and the typing flag.
type Controller struct {
	store   *history.Store
	backend Backend
	logger  *zap.Logger

	mu       sync.Mutex
	category string
	scoped   []domain.Document
	isScoped bool
	typing   bool
}

// NewController creates a chat controller over the store and backend
func NewController(store *history.Store, backend Backend, logger *zap.Logger) *Controller {
	return &Controller{
		store:    store,
		backend:  backend,
		logger:   logger,
		category: domain.DefaultCategoryKey,
	}
}

// Send asks the backend about text. Empty input never triggers a network
// call. The user message and an assistant placeholder are appended atomically;
// the placeholder is then replaced in place by id with the answer, a
// multi-answer bundle, or the fixed failure string.
func (c *Controller) Send(ctx context.Context, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}

	botID := c.appendExchange(text)
	c.setTyping(true)
	defer c.setTyping(false)

	resp, err := c.backend.Answer(ctx, c.answerRequest(text))
	if err != nil {
		c.logger.Warn("answer request failed", zap.Error(err))
		c.replaceContent(botID, FailedFetchText)
		return
	}

	switch {
	case len(resp.Results) > 0:
		results := resp.Results
		c.store.ReplaceMessage(botID, func(msg *domain.Message) {
			msg.Content = fmt.Sprintf("I found %d relevant document(s) for your query:", len(results))
			msg.Type = domain.MessageTypeMultiAnswer
			msg.Results = results
		})
	case resp.Answer != "":
		c.replaceContent(botID, resp.Answer)
	default:
		c.logger.Warn("invalid response format from backend")
		c.replaceContent(botID, FailedFetchText)
	}
}

// StreamSend asks the streaming endpoint, growing the placeholder as chunks
// arrive. onChunk, if set, is additionally called per chunk for live display.
func (c *Controller) StreamSend(ctx context.Context, text string, onChunk func(chunk string)) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}

	conversationHistory := c.store.Current()
	botID := c.appendExchange(text)
	c.store.ReplaceMessage(botID, func(msg *domain.Message) { msg.IsStreaming = true })
	c.setTyping(true)
	defer c.setTyping(false)

	full, err := c.backend.ChatStream(ctx, domain.StreamRequest{
		Message:             text,
		ConversationHistory: conversationHistory,
	}, func(chunk string) {
		c.store.ReplaceMessage(botID, func(msg *domain.Message) {
			if msg.Content == Placeholder {
				msg.Content = ""
			}
			msg.Content += chunk
		})
		if onChunk != nil {
			onChunk(chunk)
		}
	})

	c.store.ReplaceMessage(botID, func(msg *domain.Message) {
		msg.IsStreaming = false
		switch {
		case err != nil:
			msg.Content = FailedFetchText
		case full != "":
			msg.Content = full
		case msg.Content == Placeholder:
			// Stream ended with no chunks and no full response
			msg.Content = FailedFetchText
		}
	})
	if err != nil {
		c.logger.Warn("stream request failed", zap.Error(err))
	}
}

// SummarizeSelected asks for a combined summary of the selected documents
func (c *Controller) SummarizeSelected(ctx context.Context, pdfs []domain.Document) {
	if len(pdfs) == 0 {
		return
	}

	botID := c.appendExchange(fmt.Sprintf("Summarize these %d documents", len(pdfs)))
	c.setTyping(true)
	defer c.setTyping(false)

	s3URLs := make([]string, len(pdfs))
	for i, pdf := range pdfs {
		s3URLs[i] = pdf.S3URL
	}

	summary, err := c.backend.SummarizeMultiple(ctx, s3URLs)
	if err != nil {
		c.logger.Warn("summarize request failed", zap.Error(err))
		c.replaceContent(botID, FailedSummarizeText)
		return
	}
	if summary == "" {
		summary = "Summary completed."
	}
	c.replaceContent(botID, summary)
}

// SelectDocuments scopes subsequent searches to the selected documents and
// records the selection as a pdf_selection message, in selection order.
func (c *Controller) SelectDocuments(selected []domain.Document) {
	if len(selected) == 0 {
		return
	}

	c.mu.Lock()
	c.scoped = selected
	c.isScoped = true
	c.mu.Unlock()

	c.store.AddMessage(domain.Message{
		ID:        uuid.New().String(),
		Role:      domain.RoleAssistant,
		Content:   fmt.Sprintf("You selected %d PDF(s). Your searches will now be limited to these documents only.", len(selected)),
		Type:      domain.MessageTypePDFSelection,
		PDFs:      selected,
		Timestamp: nowISO(),
	})
}

// ClearSelection drops the scoped-search selection
func (c *Controller) ClearSelection() {
	c.mu.Lock()
	c.scoped = nil
	c.isScoped = false
	c.mu.Unlock()

	c.store.AddMessage(domain.Message{
		ID:        uuid.New().String(),
		Role:      domain.RoleAssistant,
		Content:   SelectionClearedText,
		Timestamp: nowISO(),
	})
}

// ClearSelectionQuiet drops the selection without a transcript message,
// for transitions like starting a new chat.
func (c *Controller) ClearSelectionQuiet() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scoped = nil
	c.isScoped = false
}

// NoteUpload records a successful contract upload in the transcript
func (c *Controller) NoteUpload(filename, category, qdrantID string) {
	c.store.AddMessage(domain.Message{
		ID:        uuid.New().String(),
		Role:      domain.RoleAssistant,
		Content:   fmt.Sprintf("Successfully uploaded: %s\n\nCategory: %s\nQdrant ID: %s", filename, category, qdrantID),
		Timestamp: nowISO(),
	})
}

// NoteUploadFailure records a failed contract upload in the transcript
func (c *Controller) NoteUploadFailure(reason string) {
	c.store.AddMessage(domain.Message{
		ID:        uuid.New().String(),
		Role:      domain.RoleAssistant,
		Content:   "Upload failed: " + reason,
		Timestamp: nowISO(),
	})
}

// SetCategory sets the category filter used for unscoped questions
func (c *Controller) SetCategory(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.category = key
}

// Category returns the active category filter
func (c *Controller) Category() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.category
}

// ScopedDocuments returns the scoped-search selection, or nil
func (c *Controller) ScopedDocuments() []domain.Document {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.isScoped {
		return nil
	}
	out := make([]domain.Document, len(c.scoped))
	copy(out, c.scoped)
	return out
}

// IsScoped reports whether searches are scoped to a document selection
func (c *Controller) IsScoped() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isScoped && len(c.scoped) > 0
}

// Backend returns the backend the controller was built with, for callers
// that open a per-document session against the same client.
func (c *Controller) Backend() Backend {
	return c.backend
}

// Typing reports whether an assistant response is pending
func (c *Controller) Typing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.typing
}

func (c *Controller) setTyping(v bool) {
	c.mu.Lock()
	c.typing = v
	c.mu.Unlock()
}

func (c *Controller) answerRequest(text string) domain.AnswerRequest {
	c.mu.Lock()
	defer c.mu.Unlock()

	req := domain.AnswerRequest{Query: text}
	if c.isScoped && len(c.scoped) > 0 {
		req.ScopedSearch = true
		req.S3URLs = make([]string, len(c.scoped))
		for i, doc := range c.scoped {
			req.S3URLs[i] = doc.S3URL
		}
	} else if c.category != "" && c.category != domain.DefaultCategoryKey {
		req.Category = c.category
	}
	return req
}

// appendExchange appends the user message and its assistant placeholder in a
// single store update and returns the placeholder id.
func (c *Controller) appendExchange(text string) string {
	now := nowISO()
	botID := uuid.New().String()
	c.store.AppendExchange(
		domain.Message{
			ID:        uuid.New().String(),
			Role:      domain.RoleUser,
			Content:   text,
			Timestamp: now,
		},
		domain.Message{
			ID:        botID,
			Role:      domain.RoleAssistant,
			Content:   Placeholder,
			Timestamp: now,
		},
	)
	return botID
}

func (c *Controller) replaceContent(id, content string) {
	c.store.ReplaceMessage(id, func(msg *domain.Message) {
		msg.Content = content
	})
}
