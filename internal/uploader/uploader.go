// Package uploader owns the attachment list and the contract upload flow: a
// small bounded set of PDF attachments, each tagged with a contract category,
// pushed to the backend one file at a time. Validation failures never reach
// the network; upload failures become inline status text plus a transient
// toast.
package uploader

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rb14v1/Contrackt/internal/domain"
)

// Defaults matching the upload view
const (
	DefaultMaxFiles         = 5
	DefaultAcceptedExt      = ".pdf"
	DefaultToastTimeout     = 4 * time.Second
	DefaultStatusClearDelay = 2 * time.Second
)

// Toast kinds
const (
	ToastSuccess = "success"
	ToastError   = "error"
)

// Attachment is one queued file with its user-editable category tag
type Attachment struct {
	ID       string
	Name     string
	Path     string
	Category string
}

// Toast is a transient notification that auto-dismisses
type Toast struct {
	Type    string
	Message string
}

// Result pairs one attachment with its upload outcome
type Result struct {
	Attachment Attachment
	Response   *domain.UploadResponse
	Err        error
}

// Backend is the slice of the api client the uploader needs
type Backend interface {
	Upload(ctx context.Context, filename string, file io.Reader, category string) (*domain.UploadResponse, error)
}

// Uploader manages the attachment queue and batch uploads
type Uploader struct {
	backend Backend
	logger  *zap.Logger

	maxFiles         int
	acceptedExt      string
	toastTimeout     time.Duration
	statusClearDelay time.Duration

	mu          sync.Mutex
	attachments []Attachment
	status      string
	toast       *Toast
	uploading   bool

	toastTimer  *time.Timer
	statusTimer *time.Timer
}

// Option configures an Uploader
type Option func(*Uploader)

// WithLimits overrides the attachment cap and extension filter
func WithLimits(maxFiles int, acceptedExt string) Option {
	return func(u *Uploader) {
		u.maxFiles = maxFiles
		u.acceptedExt = acceptedExt
	}
}

// WithDelays overrides the toast and status-clear timers
func WithDelays(toastTimeout, statusClearDelay time.Duration) Option {
	return func(u *Uploader) {
		u.toastTimeout = toastTimeout
		u.statusClearDelay = statusClearDelay
	}
}

// New creates an uploader with the default caps and delays
func New(backend Backend, logger *zap.Logger, opts ...Option) *Uploader {
	u := &Uploader{
		backend:          backend,
		logger:           logger,
		maxFiles:         DefaultMaxFiles,
		acceptedExt:      DefaultAcceptedExt,
		toastTimeout:     DefaultToastTimeout,
		statusClearDelay: DefaultStatusClearDelay,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Add queues files for upload with the default category tag. Adding past the
// cap or with a filtered extension is refused before any network activity.
func (u *Uploader) Add(paths ...string) error {
	if len(paths) == 0 {
		return nil
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	u.setStatusLocked("")
	u.clearToastLocked()

	if len(u.attachments)+len(paths) > u.maxFiles {
		u.setStatusLocked(fmt.Sprintf("Max %d files", u.maxFiles))
		return domain.ErrTooManyFiles
	}

	for _, path := range paths {
		if !strings.EqualFold(filepath.Ext(path), u.acceptedExt) {
			u.setStatusLocked(fmt.Sprintf("Only %s files are accepted", u.acceptedExt))
			return domain.ErrUnsupportedFile
		}
	}

	for _, path := range paths {
		u.attachments = append(u.attachments, Attachment{
			ID:       uuid.New().String(),
			Name:     filepath.Base(path),
			Path:     path,
			Category: domain.CategoryNDA,
		})
	}
	return nil
}

// SetCategory retags a queued attachment
func (u *Uploader) SetCategory(id, category string) error {
	if !domain.ValidUploadCategory(category) {
		return domain.ErrInvalidCategory
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	for i := range u.attachments {
		if u.attachments[i].ID == id {
			u.attachments[i].Category = category
			return nil
		}
	}
	return domain.ErrNotFound
}

// Remove drops a queued attachment; removing the last one clears the status
func (u *Uploader) Remove(id string) {
	u.mu.Lock()
	defer u.mu.Unlock()

	kept := u.attachments[:0]
	for _, a := range u.attachments {
		if a.ID != id {
			kept = append(kept, a)
		}
	}
	u.attachments = kept
	if len(u.attachments) == 0 {
		u.setStatusLocked("")
	}
}

// UploadAll pushes every queued attachment to the backend in order and returns
// one result per attachment, in batch order. Failures are counted: one failure
// surfaces its reason, several surface an aggregate count. Successful files
// leave the queue either way and are never retried.
func (u *Uploader) UploadAll(ctx context.Context) []Result {
	u.mu.Lock()
	if len(u.attachments) == 0 || u.uploading {
		u.mu.Unlock()
		return nil
	}
	u.uploading = true
	u.clearToastLocked()
	batch := make([]Attachment, len(u.attachments))
	copy(batch, u.attachments)
	u.mu.Unlock()

	var (
		results    []Result
		failed     []Attachment
		errorCount int
		firstError string
	)

	for i, att := range batch {
		u.setStatus(fmt.Sprintf("Uploading %d of %d...", i+1, len(batch)))

		resp, err := u.uploadOne(ctx, att)
		if err != nil {
			u.logger.Warn("upload failed",
				zap.String("file", att.Name), zap.Error(err))
			errorCount++
			if firstError == "" {
				firstError = err.Error()
			}
			failed = append(failed, att)
			results = append(results, Result{Attachment: att, Err: err})
			continue
		}
		results = append(results, Result{Attachment: att, Response: resp})
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	u.uploading = false
	u.attachments = failed

	if errorCount > 0 {
		message := fmt.Sprintf("%d files failed.", errorCount)
		if errorCount == 1 {
			message = "Upload failed: " + firstError
		}
		u.setStatusLocked(message)
		u.showToastLocked(ToastError, message)
		return results
	}

	message := "Upload successful!"
	u.setStatusLocked(message)
	u.showToastLocked(ToastSuccess, message)
	u.scheduleStatusClearLocked()
	return results
}

func (u *Uploader) uploadOne(ctx context.Context, att Attachment) (*domain.UploadResponse, error) {
	file, err := os.Open(att.Path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return u.backend.Upload(ctx, att.Name, file, att.Category)
}

// Attachments returns a snapshot of the queue
func (u *Uploader) Attachments() []Attachment {
	u.mu.Lock()
	defer u.mu.Unlock()
	out := make([]Attachment, len(u.attachments))
	copy(out, u.attachments)
	return out
}

// Status returns the inline status text
func (u *Uploader) Status() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.status
}

// Toast returns the visible toast, or nil once dismissed
func (u *Uploader) Toast() *Toast {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.toast == nil {
		return nil
	}
	t := *u.toast
	return &t
}

// Uploading reports whether a batch is in flight
func (u *Uploader) Uploading() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.uploading
}

// Close stops the pending dismissal timers
func (u *Uploader) Close() {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.toastTimer != nil {
		u.toastTimer.Stop()
		u.toastTimer = nil
	}
	if u.statusTimer != nil {
		u.statusTimer.Stop()
		u.statusTimer = nil
	}
}

func (u *Uploader) setStatus(status string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.setStatusLocked(status)
}

func (u *Uploader) setStatusLocked(status string) {
	if u.statusTimer != nil {
		u.statusTimer.Stop()
		u.statusTimer = nil
	}
	u.status = status
}

func (u *Uploader) scheduleStatusClearLocked() {
	if u.statusTimer != nil {
		u.statusTimer.Stop()
	}
	u.statusTimer = time.AfterFunc(u.statusClearDelay, func() {
		u.mu.Lock()
		defer u.mu.Unlock()
		u.status = ""
		u.statusTimer = nil
	})
}

func (u *Uploader) showToastLocked(kind, message string) {
	if u.toastTimer != nil {
		u.toastTimer.Stop()
	}
	u.toast = &Toast{Type: kind, Message: message}
	u.toastTimer = time.AfterFunc(u.toastTimeout, func() {
		u.mu.Lock()
		defer u.mu.Unlock()
		u.toast = nil
		u.toastTimer = nil
	})
}

func (u *Uploader) clearToastLocked() {
	if u.toastTimer != nil {
		u.toastTimer.Stop()
		u.toastTimer = nil
	}
	u.toast = nil
}
