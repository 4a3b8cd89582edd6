package transcript

import (
	"strings"
	"testing"

	"github.com/rb14v1/Contrackt/internal/domain"
)

func TestRenderEmptyConversation(t *testing.T) {
	got := Render(nil, false)
	if !strings.Contains(got, EmptyPrompt) {
		t.Errorf("empty transcript = %q", got)
	}
}

func TestRenderLabelsAndTyping(t *testing.T) {
	messages := []domain.Message{
		{Role: domain.RoleUser, Content: "hello"},
		{Role: domain.RoleAssistant, Content: "hi there"},
	}

	got := Render(messages, true)
	if !strings.Contains(got, "You: hello") {
		t.Errorf("missing user line in %q", got)
	}
	if !strings.Contains(got, "Assistant: hi there") {
		t.Errorf("missing assistant line in %q", got)
	}
	if !strings.Contains(got, TypingIndicator) {
		t.Error("typing indicator not rendered")
	}

	if strings.Contains(Render(messages, false), TypingIndicator) {
		t.Error("typing indicator rendered while idle")
	}
}

func TestRenderMultiAnswerNumbering(t *testing.T) {
	msg := domain.Message{
		Role:    domain.RoleAssistant,
		Content: "I found 2 relevant document(s) for your query:",
		Type:    domain.MessageTypeMultiAnswer,
		Results: []domain.AnswerResult{
			{SourceName: "nda.pdf", Answer: "a1", ViewableURL: "https://x/nda"},
			{SourceName: "loan.pdf", Answer: "a2"},
		},
	}

	got := Render([]domain.Message{msg}, false)
	if !strings.Contains(got, "  1. nda.pdf: a1") {
		t.Errorf("first result not numbered from 1 in %q", got)
	}
	if !strings.Contains(got, "  2. loan.pdf: a2") {
		t.Errorf("second result missing in %q", got)
	}
	if !strings.Contains(got, "Link: https://x/nda") {
		t.Error("viewable link not rendered")
	}
	if strings.Count(got, "Link:") != 1 {
		t.Error("results without a link must not render one")
	}
}

func TestRenderPDFSelection(t *testing.T) {
	msg := domain.Message{
		Role:    domain.RoleAssistant,
		Content: "You selected 2 PDF(s).",
		Type:    domain.MessageTypePDFSelection,
		PDFs: []domain.Document{
			{Name: "nda.pdf", Category: "nda"},
			{Title: "Loan", Category: "loan_agreement"},
		},
	}

	got := Render([]domain.Message{msg}, false)
	if !strings.Contains(got, "- nda.pdf (nda)") {
		t.Errorf("selection entry missing in %q", got)
	}
	if !strings.Contains(got, "- Loan (loan_agreement)") {
		t.Errorf("title fallback missing in %q", got)
	}
	if !strings.Contains(got, "/summarize") {
		t.Error("summarize hint missing")
	}
}

func TestFlattenMultiAnswer(t *testing.T) {
	msg := domain.Message{
		Type: domain.MessageTypeMultiAnswer,
		Results: []domain.AnswerResult{
			{SourceName: "a.pdf", Answer: "x"},
			{SourceName: "b.pdf", Answer: "y"},
		},
	}
	want := "1. a.pdf: x\n\n2. b.pdf: y"
	if got := Flatten(msg); got != want {
		t.Errorf("Flatten = %q, want %q", got, want)
	}
}

func TestFlattenSelectionAndText(t *testing.T) {
	selection := domain.Message{
		Type:    domain.MessageTypePDFSelection,
		Content: "You selected 1 PDF(s).",
		PDFs:    []domain.Document{{Name: "nda.pdf"}},
	}
	if got := Flatten(selection); got != "You selected 1 PDF(s).\n- nda.pdf" {
		t.Errorf("Flatten = %q", got)
	}

	plain := domain.Message{Content: "just text"}
	if got := Flatten(plain); got != "just text" {
		t.Errorf("Flatten = %q", got)
	}
}
