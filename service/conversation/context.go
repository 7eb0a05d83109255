package conversation

import (
	"sync"
	"time"

	"shopbot/constant"
	"shopbot/model"

	log "github.com/sirupsen/logrus"
)

// Context is the mutable state of one conversation: capped most-recent-first
// entity lists per category, the latest value seen per category, and a bounded
// FIFO intent history. A context starts empty and stays alive for the process
// lifetime. All access goes through its own lock, so at most one turn mutates
// a conversation at a time.
type Context struct {
	mu             sync.Mutex
	conversationID int64
	entities       map[model.EntityCategory][]string
	lastMentioned  map[model.EntityCategory]string
	intentHistory  []model.IntentEntry
	lastUpdate     time.Time
	lastSeq        int64
}

func newContext(conversationID int64) *Context {
	return &Context{
		conversationID: conversationID,
		entities:       make(map[model.EntityCategory][]string),
		lastMentioned:  make(map[model.EntityCategory]string),
	}
}

// RecordEntity inserts value at the front of its category list, capped at 10
// (the oldest entries fall off the tail), and marks it last mentioned.
// Unknown categories are ignored.
func (c *Context) RecordEntity(category model.EntityCategory, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recordEntityLocked(category, value)
	c.lastUpdate = time.Now()
}

func (c *Context) recordEntityLocked(category model.EntityCategory, value string) {
	if !model.ValidEntityCategory(category) || value == "" {
		return
	}

	list := append([]string{value}, c.entities[category]...)
	if len(list) > constant.EntityListCap {
		list = list[:constant.EntityListCap]
	}
	c.entities[category] = list
	c.lastMentioned[category] = value
}

// RecordIntent appends to the intent history, dropping the oldest entry once
// the history exceeds 10. Order stays oldest-to-newest.
func (c *Context) RecordIntent(intent, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recordIntentLocked(intent, message)
	c.lastUpdate = time.Now()
}

func (c *Context) recordIntentLocked(intent, message string) {
	if intent == "" {
		return
	}

	if len(c.intentHistory) >= constant.IntentHistoryCap {
		c.intentHistory = c.intentHistory[1:]
	}
	c.intentHistory = append(c.intentHistory, model.IntentEntry{
		Intent:    intent,
		Timestamp: time.Now(),
		Message:   message,
	})
}

// ApplyTurn applies one turn's extraction under the sequence guard. A turn
// whose sequence is not newer than the last applied one is rejected, so a
// delayed retry can never clobber newer state with stale values.
func (c *Context) ApplyTurn(seq int64, entities map[model.EntityCategory][]string, intent, message string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if seq <= c.lastSeq {
		log.Warnf("conversation %d: rejecting stale turn seq=%d (last applied %d)", c.conversationID, seq, c.lastSeq)
		return false
	}
	c.lastSeq = seq

	for category, values := range entities {
		// values arrive newest-last from the extractor; insert in order so the
		// final value of the turn ends up most recent.
		for _, v := range values {
			c.recordEntityLocked(category, v)
		}
	}
	if intent != "" {
		c.recordIntentLocked(intent, message)
	}
	c.lastUpdate = time.Now()
	return true
}

// LastIntent returns the most recently recorded intent entry, or nil when the
// history is empty.
func (c *Context) LastIntent() *model.IntentEntry {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.intentHistory) == 0 {
		return nil
	}
	entry := c.intentHistory[len(c.intentHistory)-1]
	return &entry
}

// IntentHistory returns a copy of the history, oldest first.
func (c *Context) IntentHistory() []model.IntentEntry {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]model.IntentEntry, len(c.intentHistory))
	copy(out, c.intentHistory)
	return out
}

// Snapshot returns deep copies safe for concurrent readers.
func (c *Context) Snapshot() model.ContextSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	entities := make(map[model.EntityCategory][]string, len(c.entities))
	for k, v := range c.entities {
		list := make([]string, len(v))
		copy(list, v)
		entities[k] = list
	}
	lastMentioned := make(map[model.EntityCategory]string, len(c.lastMentioned))
	for k, v := range c.lastMentioned {
		lastMentioned[k] = v
	}

	return model.ContextSnapshot{
		Entities:      entities,
		LastMentioned: lastMentioned,
		LastUpdate:    c.lastUpdate,
	}
}

// Manager holds one Context per conversation id. Contexts are created lazily
// on first use and never shared across conversations.
type Manager struct {
	mu       sync.RWMutex
	contexts map[int64]*Context
}

func NewManager() *Manager {
	return &Manager{contexts: make(map[int64]*Context)}
}

// Get returns the conversation's context, creating it on first access.
func (m *Manager) Get(conversationID int64) *Context {
	m.mu.RLock()
	ctx, ok := m.contexts[conversationID]
	m.mu.RUnlock()
	if ok {
		return ctx
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if ctx, ok := m.contexts[conversationID]; ok {
		return ctx
	}
	ctx = newContext(conversationID)
	m.contexts[conversationID] = ctx
	return ctx
}

// Len reports how many conversations hold state.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.contexts)
}
