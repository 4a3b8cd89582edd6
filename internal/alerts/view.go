package alerts

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"go.uber.org/zap"

	"github.com/rb14v1/Contrackt/internal/domain"
)

// View is the alert/reminder pane state: the supplied list plus the item
// expanded in the detail pane. The first item is selected by default.
type View struct {
	logger   *zap.Logger
	items    []domain.Alert
	selected string
}

// NewView creates a pane over items
func NewView(items []domain.Alert, logger *zap.Logger) *View {
	v := &View{logger: logger, items: items}
	if len(items) > 0 {
		v.selected = items[0].ID
	}
	return v
}

// Items returns the pane's list
func (v *View) Items() []domain.Alert {
	return v.items
}

// Select expands the item with the given id; unknown ids are a no-op
func (v *View) Select(id string) {
	for _, item := range v.items {
		if item.ID == id {
			v.selected = id
			return
		}
	}
}

// Detail returns the expanded item, if any
func (v *View) Detail() (domain.Alert, bool) {
	for _, item := range v.items {
		if item.ID == v.selected {
			return item, true
		}
	}
	return domain.Alert{}, false
}

// OpenDocument opens the item's viewable URL in the platform browser.
// Missing or placeholder URLs are logged and the pane stays usable.
func (v *View) OpenDocument(item domain.Alert) bool {
	if item.ViewableURL == "" || item.ViewableURL == "#" {
		v.logger.Error("document URL not available", zap.String("alert", item.ID))
		return false
	}
	if err := openBrowser(item.ViewableURL); err != nil {
		v.logger.Error("failed to open document", zap.Error(err))
		return false
	}
	return true
}

// DetailLines renders the expanded item's detail pane fields
func DetailLines(item domain.Alert) []string {
	return []string{
		item.Title,
		"Due Date: " + DueDate(item.Date),
		fmt.Sprintf("Time Remaining: %d days", item.DaysLeft),
		"Type: " + FormatType(item.Type),
		"Collection: " + item.Collection,
	}
}

// FormatType upper-cases a contract type key for display
func FormatType(t string) string {
	return strings.ReplaceAll(strings.ToUpper(t), "-", " ")
}

// DueDate strips the time portion from an ISO date
func DueDate(date string) string {
	if i := strings.Index(date, "T"); i >= 0 {
		return date[:i]
	}
	return date
}

func openBrowser(url string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", url).Start()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	default:
		return exec.Command("xdg-open", url).Start()
	}
}
