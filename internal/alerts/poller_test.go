package alerts

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/rb14v1/Contrackt/internal/domain"
)

type fakeFetcher struct {
	resp *domain.AlertsRemindersResponse
	err  error
}

func (f *fakeFetcher) AlertsReminders(ctx context.Context) (*domain.AlertsRemindersResponse, error) {
	return f.resp, f.err
}

func TestRefreshReplacesSnapshot(t *testing.T) {
	fetcher := &fakeFetcher{resp: &domain.AlertsRemindersResponse{
		Alerts:    []domain.Alert{{ID: "a1", DaysLeft: 5}},
		Reminders: []domain.Alert{{ID: "r1", DaysLeft: 40}, {ID: "r2", DaysLeft: 55}},
	}}
	p := NewPoller(fetcher, zap.NewNop(), 0)

	p.Refresh(context.Background())

	alertCount, reminderCount := p.Counts()
	if alertCount != 1 || reminderCount != 2 {
		t.Errorf("counts = %d, %d", alertCount, reminderCount)
	}

	fetcher.resp = &domain.AlertsRemindersResponse{}
	p.Refresh(context.Background())
	if alertCount, _ := p.Counts(); alertCount != 0 {
		t.Error("refresh must replace the snapshot wholesale")
	}
}

func TestRefreshKeepsSnapshotOnFailure(t *testing.T) {
	fetcher := &fakeFetcher{resp: &domain.AlertsRemindersResponse{
		Alerts: []domain.Alert{{ID: "a1"}},
	}}
	p := NewPoller(fetcher, zap.NewNop(), 0)
	p.Refresh(context.Background())

	fetcher.err = errors.New("connection refused")
	p.Refresh(context.Background())

	alerts, _ := p.Snapshot()
	if len(alerts) != 1 || alerts[0].ID != "a1" {
		t.Errorf("failed poll cleared the snapshot: %+v", alerts)
	}
}

func TestViewSelection(t *testing.T) {
	items := []domain.Alert{
		{ID: "a1", Title: "first"},
		{ID: "a2", Title: "second"},
	}
	v := NewView(items, zap.NewNop())

	detail, ok := v.Detail()
	if !ok || detail.ID != "a1" {
		t.Errorf("default selection = %+v, want the first item", detail)
	}

	v.Select("a2")
	if detail, _ := v.Detail(); detail.ID != "a2" {
		t.Errorf("selection = %+v", detail)
	}

	v.Select("missing")
	if detail, _ := v.Detail(); detail.ID != "a2" {
		t.Error("unknown id must not change the selection")
	}
}

func TestOpenDocumentRejectsPlaceholderURL(t *testing.T) {
	v := NewView(nil, zap.NewNop())

	if v.OpenDocument(domain.Alert{ID: "a1", ViewableURL: ""}) {
		t.Error("empty URL must not open")
	}
	if v.OpenDocument(domain.Alert{ID: "a1", ViewableURL: "#"}) {
		t.Error("placeholder URL must not open")
	}
}

func TestDetailLines(t *testing.T) {
	lines := DetailLines(domain.Alert{
		Title:      "NDA with Acme",
		Date:       "2026-09-15T00:00:00Z",
		DaysLeft:   17,
		Type:       "nda-renewal",
		Collection: "acme",
	})

	want := []string{
		"NDA with Acme",
		"Due Date: 2026-09-15",
		"Time Remaining: 17 days",
		"Type: NDA RENEWAL",
		"Collection: acme",
	}
	if len(lines) != len(want) {
		t.Fatalf("lines = %v", lines)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestFormatHelpers(t *testing.T) {
	if got := FormatType("employee-contract"); got != "EMPLOYEE CONTRACT" {
		t.Errorf("FormatType = %q", got)
	}
	if got := DueDate("2026-01-02"); got != "2026-01-02" {
		t.Errorf("DueDate without time = %q", got)
	}
}
