// Package picker implements the contract selection dialog: a category-filtered
// document list with checkbox multi-select keyed by storage locator. Fetches
// carry a monotonic generation token so a response from a superseded category
// switch is discarded instead of overwriting newer state.
package picker

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/rb14v1/Contrackt/internal/domain"
)

// State is the dialog's display state. Loading and Empty are mutually
// exclusive; Ready means the list is populated.
type State int

const (
	StateLoading State = iota
	StateEmpty
	StateReady
)

// Lister is the slice of the api client the picker needs
type Lister interface {
	ContractsAlt(ctx context.Context, category string) ([]domain.Document, error)
}

// Picker is the selection dialog's state machine
type Picker struct {
	lister Lister
	logger *zap.Logger

	mu         sync.Mutex
	category   string
	contracts  []domain.Document
	selected   []domain.Document
	state      State
	generation uint64
}

// New creates a picker defaulting to the all-documents filter
func New(lister Lister, logger *zap.Logger) *Picker {
	return &Picker{
		lister:   lister,
		logger:   logger,
		category: domain.DefaultCategoryKey,
		state:    StateLoading,
	}
}

// Open fetches the list for the current category filter
func (p *Picker) Open(ctx context.Context) {
	p.fetch(ctx)
}

// SetCategory changes the filter and refetches. Any selection made under the
// previous filter is discarded, matching a fresh dialog.
func (p *Picker) SetCategory(ctx context.Context, category string) {
	p.mu.Lock()
	p.category = category
	p.mu.Unlock()
	p.fetch(ctx)
}

// Category returns the active filter
func (p *Picker) Category() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.category
}

// State returns the display state
func (p *Picker) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Contracts returns the fetched list
func (p *Picker) Contracts() []domain.Document {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.Document, len(p.contracts))
	copy(out, p.contracts)
	return out
}

// Toggle flips a contract's selection, keyed by s3_url. Selection order is
// preserved for confirmed output.
func (p *Picker) Toggle(contract domain.Document) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, c := range p.selected {
		if c.S3URL == contract.S3URL {
			p.selected = append(p.selected[:i], p.selected[i+1:]...)
			return
		}
	}
	p.selected = append(p.selected, contract)
}

// IsSelected reports whether the contract is currently selected
func (p *Picker) IsSelected(contract domain.Document) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, c := range p.selected {
		if c.S3URL == contract.S3URL {
			return true
		}
	}
	return false
}

// Selected returns the current selection in selection order
func (p *Picker) Selected() []domain.Document {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.Document, len(p.selected))
	copy(out, p.selected)
	return out
}

// Confirm returns the selection in selection order and resets the dialog
func (p *Picker) Confirm() []domain.Document {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := p.selected
	p.selected = nil
	return out
}

// Cancel discards the selection without side effects
func (p *Picker) Cancel() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.selected = nil
}

func (p *Picker) fetch(ctx context.Context) {
	p.mu.Lock()
	p.generation++
	gen := p.generation
	category := p.category
	p.state = StateLoading
	p.selected = nil
	p.mu.Unlock()

	contracts, err := p.lister.ContractsAlt(ctx, category)
	if err != nil {
		p.logger.Warn("failed to fetch contracts",
			zap.String("category", category), zap.Error(err))
		contracts = nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	// A newer fetch has started; this result is stale.
	if gen != p.generation {
		return
	}

	p.contracts = contracts
	if len(contracts) == 0 {
		p.state = StateEmpty
	} else {
		p.state = StateReady
	}
}
