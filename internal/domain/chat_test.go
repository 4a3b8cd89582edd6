package domain

import (
	"strings"
	"testing"
	"time"
)

func TestDeriveTitleUsesFirstUserMessage(t *testing.T) {
	messages := []Message{
		{Role: RoleAssistant, Content: "welcome"},
		{Role: RoleUser, Content: "what is the notice period?"},
		{Role: RoleUser, Content: "second question"},
	}
	if got := DeriveTitle(messages, time.Now()); got != "what is the notice period?" {
		t.Errorf("title = %q", got)
	}
}

func TestDeriveTitleTruncates(t *testing.T) {
	long := strings.Repeat("é", TitleMaxLen+1)
	got := DeriveTitle([]Message{{Role: RoleUser, Content: long}}, time.Now())
	want := strings.Repeat("é", TitleMaxLen) + "..."
	if got != want {
		t.Errorf("title = %q, want %q", got, want)
	}
}

func TestDeriveTitleFallback(t *testing.T) {
	now := time.Date(2025, 3, 7, 15, 4, 5, 0, time.UTC)
	got := DeriveTitle(nil, now)
	if got != "New Chat 3/7/2025, 3:04:05 PM" {
		t.Errorf("fallback title = %q", got)
	}
}

func TestDocumentDisplayName(t *testing.T) {
	cases := []struct {
		doc  Document
		want string
	}{
		{Document{Name: "nda.pdf", Title: "NDA"}, "nda.pdf"},
		{Document{Title: "NDA"}, "NDA"},
		{Document{}, "Unnamed"},
	}
	for _, c := range cases {
		if got := c.doc.DisplayName(); got != c.want {
			t.Errorf("DisplayName(%+v) = %q, want %q", c.doc, got, c.want)
		}
	}
}

func TestValidUploadCategory(t *testing.T) {
	for _, key := range UploadCategories() {
		if !ValidUploadCategory(key) {
			t.Errorf("expected %q to be a valid upload category", key)
		}
	}
	if ValidUploadCategory("all") {
		t.Error("the all filter is not an upload category")
	}
	if ValidUploadCategory("") {
		t.Error("empty category must be rejected")
	}
}
