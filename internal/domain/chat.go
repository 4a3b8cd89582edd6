package domain

import (
	"time"
)

// Message roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message content variants. The zero value means plain text; renderers key off
// Type and must handle every variant plus the plain-text default.
const (
	MessageTypeText         = ""
	MessageTypeMultiAnswer  = "multi_answer"
	MessageTypePDFSelection = "pdf_selection"
)

// TitleMaxLen is the display-title truncation length for conversations.
const TitleMaxLen = 40

// Message represents one chat transcript entry
type Message struct {
	ID          string         `json:"id,omitempty"`
	Role        string         `json:"role"`
	Content     string         `json:"content"`
	Type        string         `json:"type,omitempty"`
	Results     []AnswerResult `json:"results,omitempty"`
	PDFs        []Document     `json:"pdfs,omitempty"`
	Timestamp   string         `json:"timestamp,omitempty"`
	IsStreaming bool           `json:"isStreaming,omitempty"`
}

// Conversation is a titled, ordered message sequence persisted as one unit
type Conversation struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Timestamp   string    `json:"timestamp"`
	Messages    []Message `json:"conversation"`
	LastUpdated int64     `json:"lastUpdated"`
}

// AnswerResult is one per-document answer inside a multi-answer response
type AnswerResult struct {
	SourceName  string `json:"source_name"`
	S3URL       string `json:"s3_url,omitempty"`
	ViewableURL string `json:"viewable_url,omitempty"`
	Answer      string `json:"answer"`
	Collection  string `json:"collection,omitempty"`
}

// DeriveTitle computes a conversation's display title from its first user
// message, truncated to TitleMaxLen runes with a trailing ellipsis. With no
// user message a timestamped placeholder is used.
func DeriveTitle(messages []Message, now time.Time) string {
	for _, msg := range messages {
		if msg.Role != RoleUser {
			continue
		}
		runes := []rune(msg.Content)
		if len(runes) > TitleMaxLen {
			return string(runes[:TitleMaxLen]) + "..."
		}
		return msg.Content
	}
	return "New Chat " + now.Format("1/2/2006, 3:04:05 PM")
}

// AnswerRequest is the request for a retrieval-augmented question
type AnswerRequest struct {
	Query        string   `json:"query"`
	Category     string   `json:"category,omitempty"`
	ScopedSearch bool     `json:"scoped_search,omitempty"`
	S3URLs       []string `json:"s3_urls,omitempty"`
}

// AnswerResponse is either a single answer or a multi-answer result set
type AnswerResponse struct {
	Answer  string         `json:"answer,omitempty"`
	Results []AnswerResult `json:"results,omitempty"`
}

// DocumentChatRequest is a follow-up question about one document
type DocumentChatRequest struct {
	Query string `json:"query"`
	S3URL string `json:"s3_url"`
}

// DocumentChatResponse carries the single-document answer
type DocumentChatResponse struct {
	Answer string `json:"answer"`
}

// SummarizeRequest asks for a combined summary of several documents
type SummarizeRequest struct {
	S3URLs []string `json:"s3_urls"`
}

// SummarizeResponse carries the summary; some backend versions answer under
// the "answer" key instead.
type SummarizeResponse struct {
	Summary string `json:"summary,omitempty"`
	Answer  string `json:"answer,omitempty"`
}

// StreamRequest is the request body for the streaming chat endpoint
type StreamRequest struct {
	Message             string    `json:"message"`
	Files               []string  `json:"files,omitempty"`
	ConversationHistory []Message `json:"conversationHistory"`
}

// StreamFrame is one SSE data frame from the streaming chat endpoint
type StreamFrame struct {
	Chunk        string `json:"chunk,omitempty"`
	Done         bool   `json:"done,omitempty"`
	FullResponse string `json:"fullResponse,omitempty"`
	Error        string `json:"error,omitempty"`
}

// CategoriesResponse lists the chat categories known to the backend
type CategoriesResponse struct {
	Categories []string `json:"categories"`
}
