// Package history owns the persisted chat transcripts: the active
// conversation, the most-recent-first history list, and the pinned set. It is
// the single writer of the local storage keys it uses; views only ever see
// snapshots and communicate intent through the exported operations.
package history

import (
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rb14v1/Contrackt/internal/domain"
	"github.com/rb14v1/Contrackt/internal/storage"
)

// Storage keys. The active-chat key holds a single id as a plain string.
const (
	historyKey = "chatbot_history"
	pinnedKey  = "pinned_chats"
	activeKey  = "active_chats"
)

// DefaultMaxEntries caps the unpinned history length
const DefaultMaxEntries = 50

// DefaultSaveDebounce coalesces bursts of mutations into one write
const DefaultSaveDebounce = time.Second

// Store is the local conversation store
type Store struct {
	mu      sync.Mutex
	storage storage.Store
	logger  *zap.Logger

	maxEntries int
	debounce   time.Duration

	history []domain.Conversation
	pinned  []domain.Conversation

	currentID string
	current   []domain.Message
	isNew     bool

	lastIssuedID int64
	saveTimer    *time.Timer
	closed       bool
}

// New creates a conversation store over the given persistence port
func New(st storage.Store, logger *zap.Logger, maxEntries int, debounce time.Duration) *Store {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	if debounce <= 0 {
		debounce = DefaultSaveDebounce
	}
	return &Store{
		storage:    st,
		logger:     logger,
		maxEntries: maxEntries,
		debounce:   debounce,
	}
}

// Initialize loads persisted history and pin state. With no usable prior
// history it starts a fresh empty conversation marked new; otherwise it
// selects the most recent entry. Storage failures degrade to empty history.
func (s *Store) Initialize() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history = s.readConversations(historyKey)
	s.pinned = s.readConversations(pinnedKey)

	if len(s.history) == 0 {
		s.createNewChatLocked()
		return
	}

	last := s.history[0]
	s.currentID = last.ID
	s.current = cloneMessages(last.Messages)
	s.isNew = false
	s.writeActiveLocked()
}

// NewChat persists the current conversation if it has messages, then starts a
// fresh empty conversation marked active and new. Always succeeds.
func (s *Store) NewChat() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.current) > 0 {
		s.saveLocked()
	}
	s.createNewChatLocked()
}

// LoadConversation switches the active conversation to id. Unknown ids are a
// no-op. A non-empty, not-new current conversation is persisted first.
func (s *Store) LoadConversation(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var found *domain.Conversation
	for i := range s.history {
		if s.history[i].ID == id {
			found = &s.history[i]
			break
		}
	}
	if found == nil {
		return
	}

	if len(s.current) > 0 && !s.isNew {
		s.saveLocked()
	}

	s.currentID = found.ID
	s.current = cloneMessages(found.Messages)
	s.isNew = false
	s.writeActiveLocked()
}

// AddMessage appends to the active conversation and schedules a debounced save
func (s *Store) AddMessage(msg domain.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = append(s.current, msg)
	s.isNew = false
	s.scheduleSaveLocked()
}

// AppendExchange appends a user message and its assistant placeholder in one
// state update, so no other transition can interleave between them.
func (s *Store) AppendExchange(user, assistant domain.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = append(s.current, user, assistant)
	s.isNew = false
	s.scheduleSaveLocked()
}

// ReplaceMessage applies update to the active message with the given id and
// reports whether it was found. Matching by id keeps concurrent completions of
// different messages from touching each other's content.
func (s *Store) ReplaceMessage(id string, update func(*domain.Message)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.current {
		if s.current[i].ID == id {
			update(&s.current[i])
			s.scheduleSaveLocked()
			return true
		}
	}
	return false
}

// Save immediately persists the active conversation into the history list
func (s *Store) Save() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveLocked()
}

// PinChat copies the identified conversation into the pinned set. The pinned
// copy is a snapshot taken now; later saves of the live conversation do not
// update it. Absent or already pinned ids are a no-op.
func (s *Store) PinChat(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.pinned {
		if p.ID == id {
			return
		}
	}
	for _, c := range s.history {
		if c.ID == id {
			s.pinned = append(s.pinned, cloneConversation(c))
			s.writePinnedLocked()
			return
		}
	}
}

// UnpinChat removes id from the pinned set. Absent ids are a no-op.
func (s *Store) UnpinChat(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unpinLocked(id)
}

// DeleteChat removes a conversation from history and the pinned set. Deleting
// the active conversation while it holds messages is refused so unsaved work
// is never destroyed; deleting the active empty conversation starts a new one.
func (s *Store) DeleteChat(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id == s.currentID && len(s.current) > 0 {
		return
	}

	kept := s.history[:0]
	for _, c := range s.history {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	s.history = kept
	s.writeHistoryLocked()

	s.unpinLocked(id)

	if id == s.currentID {
		s.createNewChatLocked()
	}
}

// History returns a snapshot of the history list, most recent first
func (s *Store) History() []domain.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneConversations(s.history)
}

// Pinned returns a snapshot of the pinned set
func (s *Store) Pinned() []domain.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneConversations(s.pinned)
}

// Current returns a snapshot of the active conversation's messages
func (s *Store) Current() []domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneMessages(s.current)
}

// CurrentID returns the active conversation id
func (s *Store) CurrentID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentID
}

// IsNewChat reports whether the active conversation is freshly created
func (s *Store) IsNewChat() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isNew
}

// Close cancels any pending debounced save and flushes the active
// conversation to storage.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	if s.saveTimer != nil {
		s.saveTimer.Stop()
		s.saveTimer = nil
	}
	if len(s.current) > 0 {
		s.saveLocked()
	}
}

// Ids are timestamp-derived; the bump covers two chats started within the
// same millisecond.
func (s *Store) nextChatID() string {
	id := time.Now().UnixMilli()
	if id <= s.lastIssuedID {
		id = s.lastIssuedID + 1
	}
	s.lastIssuedID = id
	return strconv.FormatInt(id, 10)
}

func (s *Store) createNewChatLocked() {
	s.currentID = s.nextChatID()
	s.current = nil
	s.isNew = true
	s.writeActiveLocked()
}

func (s *Store) saveLocked() {
	if len(s.current) == 0 {
		return
	}

	now := time.Now()
	entry := domain.Conversation{
		ID:          s.currentID,
		Title:       domain.DeriveTitle(s.current, now),
		Timestamp:   now.Format(time.RFC3339),
		Messages:    cloneMessages(s.current),
		LastUpdated: now.UnixMilli(),
	}

	replaced := false
	for i := range s.history {
		if s.history[i].ID == entry.ID {
			s.history[i] = entry
			replaced = true
			break
		}
	}
	if !replaced {
		s.history = append([]domain.Conversation{entry}, s.history...)
	}

	s.trimLocked()
	s.writeHistoryLocked()
	s.isNew = false
}

// trimLocked enforces the history cap against unpinned entries only, dropping
// the oldest first. Pinned entries are never evicted regardless of count.
func (s *Store) trimLocked() {
	if len(s.history) <= s.maxEntries {
		return
	}

	pinnedIDs := make(map[string]bool, len(s.pinned))
	for _, p := range s.pinned {
		pinnedIDs[p.ID] = true
	}

	var pinnedEntries, unpinned []domain.Conversation
	for _, c := range s.history {
		if pinnedIDs[c.ID] {
			pinnedEntries = append(pinnedEntries, c)
		} else {
			unpinned = append(unpinned, c)
		}
	}

	keep := s.maxEntries - len(pinnedEntries)
	if keep < 0 {
		keep = 0
	}
	if len(unpinned) > keep {
		unpinned = unpinned[:keep]
	}

	s.history = append(pinnedEntries, unpinned...)
}

func (s *Store) unpinLocked(id string) {
	kept := s.pinned[:0]
	for _, p := range s.pinned {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	s.pinned = kept
	s.writePinnedLocked()
}

func (s *Store) scheduleSaveLocked() {
	if s.closed {
		return
	}
	if s.saveTimer != nil {
		s.saveTimer.Stop()
	}
	s.saveTimer = time.AfterFunc(s.debounce, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.closed {
			return
		}
		s.saveLocked()
	})
}

func (s *Store) readConversations(key string) []domain.Conversation {
	raw, err := s.storage.Read(key)
	if err != nil {
		if err != storage.ErrNotFound {
			s.logger.Warn("failed to read local state, starting fresh",
				zap.String("key", key), zap.Error(err))
		}
		return nil
	}

	var conversations []domain.Conversation
	if err := json.Unmarshal(raw, &conversations); err != nil {
		s.logger.Warn("corrupt local state, starting fresh",
			zap.String("key", key), zap.Error(err))
		return nil
	}
	return conversations
}

func (s *Store) writeConversations(key string, conversations []domain.Conversation) {
	if conversations == nil {
		conversations = []domain.Conversation{}
	}
	raw, err := json.Marshal(conversations)
	if err != nil {
		s.logger.Error("failed to encode local state", zap.String("key", key), zap.Error(err))
		return
	}
	if err := s.storage.Write(key, raw); err != nil {
		s.logger.Error("failed to write local state", zap.String("key", key), zap.Error(err))
	}
}

func (s *Store) writeHistoryLocked() { s.writeConversations(historyKey, s.history) }
func (s *Store) writePinnedLocked()  { s.writeConversations(pinnedKey, s.pinned) }

func (s *Store) writeActiveLocked() {
	if err := s.storage.Write(activeKey, []byte(s.currentID)); err != nil {
		s.logger.Error("failed to write active chat id", zap.Error(err))
	}
}

func cloneMessages(msgs []domain.Message) []domain.Message {
	if msgs == nil {
		return nil
	}
	out := make([]domain.Message, len(msgs))
	copy(out, msgs)
	return out
}

func cloneConversation(c domain.Conversation) domain.Conversation {
	c.Messages = cloneMessages(c.Messages)
	return c
}

func cloneConversations(cs []domain.Conversation) []domain.Conversation {
	out := make([]domain.Conversation, len(cs))
	for i, c := range cs {
		out[i] = cloneConversation(c)
	}
	return out
}
