// Package alerts presents the backend-computed due-date notifications: a
// periodic poller and the display state for the urgent-alert and reminder
// panes. Alerts cover contracts due in 0-20 days and reminders 21-60; that
// partition is the backend's.
package alerts

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rb14v1/Contrackt/internal/domain"
)

// DefaultPollInterval refreshes the alert snapshot every 5 minutes
const DefaultPollInterval = 5 * time.Minute

// Fetcher is the slice of the api client the poller needs
type Fetcher interface {
	AlertsReminders(ctx context.Context) (*domain.AlertsRemindersResponse, error)
}

// Poller refreshes alerts and reminders wholesale on an interval
type Poller struct {
	fetcher  Fetcher
	logger   *zap.Logger
	interval time.Duration

	mu        sync.RWMutex
	alerts    []domain.Alert
	reminders []domain.Alert
}

// NewPoller creates a poller; interval <= 0 falls back to the default
func NewPoller(fetcher Fetcher, logger *zap.Logger, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{fetcher: fetcher, logger: logger, interval: interval}
}

// Run fetches immediately and then on every tick until ctx is cancelled
func (p *Poller) Run(ctx context.Context) {
	p.Refresh(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Refresh(ctx)
		}
	}
}

// Refresh fetches once. On failure the previous snapshot is kept; existing
// data is never cleared by a failed poll.
func (p *Poller) Refresh(ctx context.Context) {
	resp, err := p.fetcher.AlertsReminders(ctx)
	if err != nil {
		p.logger.Warn("failed to fetch alerts and reminders", zap.Error(err))
		return
	}

	p.mu.Lock()
	p.alerts = resp.Alerts
	p.reminders = resp.Reminders
	p.mu.Unlock()
}

// Snapshot returns the current alerts and reminders
func (p *Poller) Snapshot() (alerts, reminders []domain.Alert) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	alerts = make([]domain.Alert, len(p.alerts))
	copy(alerts, p.alerts)
	reminders = make([]domain.Alert, len(p.reminders))
	copy(reminders, p.reminders)
	return alerts, reminders
}

// Counts returns the alert and reminder counts for badge display
func (p *Poller) Counts() (alertCount, reminderCount int) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.alerts), len(p.reminders)
}
