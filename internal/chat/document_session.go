package chat

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rb14v1/Contrackt/internal/domain"
)

// DocumentSession is a follow-up Q&A thread about one document. Its transcript
// lives only for the session and is never persisted.
type DocumentSession struct {
	backend Backend
	doc     domain.Document

	mu         sync.Mutex
	messages   []domain.Message
	processing bool
}

// NewDocumentSession starts a chat about doc
func NewDocumentSession(backend Backend, doc domain.Document) *DocumentSession {
	return &DocumentSession{backend: backend, doc: doc}
}

// Document returns the document under discussion
func (s *DocumentSession) Document() domain.Document {
	return s.doc
}

// Send asks a question about the document. Empty input is a no-op. The
// placeholder is replaced with the answer or the fixed failure string.
func (s *DocumentSession) Send(ctx context.Context, query string) {
	query = strings.TrimSpace(query)
	if query == "" {
		return
	}

	botID := uuid.New().String()
	s.mu.Lock()
	s.processing = true
	s.messages = append(s.messages,
		domain.Message{ID: uuid.New().String(), Role: domain.RoleUser, Content: query},
		domain.Message{ID: botID, Role: domain.RoleAssistant, Content: Placeholder},
	)
	s.mu.Unlock()

	answer, err := s.backend.ChatWithDocument(ctx, query, s.doc.S3URL)
	if err != nil {
		answer = FailedDocAnswerText
	} else if answer == "" {
		answer = NoDocAnswerText
	}

	s.mu.Lock()
	for i := range s.messages {
		if s.messages[i].ID == botID {
			s.messages[i].Content = answer
			break
		}
	}
	s.processing = false
	s.mu.Unlock()
}

// Messages returns a snapshot of the session transcript
func (s *DocumentSession) Messages() []domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Processing reports whether an answer is pending
func (s *DocumentSession) Processing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.processing
}

// timestamp helper shared with the controller
func nowISO() string {
	return time.Now().Format(time.RFC3339)
}
