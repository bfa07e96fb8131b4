// Package messaging delivers private messages to chat users over websockets.
package messaging

import (
	"container/list"
	"sync"
	"time"
)

// Pending is a message waiting for its recipient to connect.
type Pending struct {
	Text     string
	QueuedAt time.Time
}

// Mailbox holds undelivered messages per user.
// Each user gets a bounded list so one user's backlog cannot evict another's.
type Mailbox struct {
	mu      sync.Mutex
	queues  map[string]*list.List
	maxSize int
	now     func() time.Time
}

// NewMailbox creates a mailbox that keeps at most maxSize messages per user.
func NewMailbox(maxSize int) *Mailbox {
	if maxSize <= 0 {
		maxSize = 50
	}
	return &Mailbox{
		queues:  make(map[string]*list.List),
		maxSize: maxSize,
		now:     time.Now,
	}
}

// Enqueue stores text for userID, dropping the oldest entry when full.
func (m *Mailbox) Enqueue(userID, text string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.queues[userID]
	if !ok {
		l = list.New()
		m.queues[userID] = l
	}
	l.PushBack(Pending{Text: text, QueuedAt: m.now()})
	for l.Len() > m.maxSize {
		l.Remove(l.Front())
	}
}

// Requeue puts messages back at the front of userID's queue, keeping their
// order and timestamps. The oldest entries are dropped when full.
func (m *Mailbox) Requeue(userID string, msgs []Pending) {
	if len(msgs) == 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.queues[userID]
	if !ok {
		l = list.New()
		m.queues[userID] = l
	}
	for i := len(msgs) - 1; i >= 0; i-- {
		l.PushFront(msgs[i])
	}
	for l.Len() > m.maxSize {
		l.Remove(l.Front())
	}
}

// Drain removes and returns every message queued for userID, oldest first.
func (m *Mailbox) Drain(userID string) []Pending {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.queues[userID]
	if !ok {
		return nil
	}
	delete(m.queues, userID)

	out := make([]Pending, 0, l.Len())
	for e := l.Front(); e != nil; e = e.Next() {
		out = append(out, e.Value.(Pending))
	}
	return out
}

// Len returns how many messages are queued for userID.
func (m *Mailbox) Len(userID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if l, ok := m.queues[userID]; ok {
		return l.Len()
	}
	return 0
}

// PruneExpired drops messages older than maxAge and returns how many were removed.
func (m *Mailbox) PruneExpired(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.now().Add(-maxAge)
	removed := 0
	for userID, l := range m.queues {
		for e := l.Front(); e != nil; {
			next := e.Next()
			if e.Value.(Pending).QueuedAt.Before(cutoff) {
				l.Remove(e)
				removed++
			}
			e = next
		}
		if l.Len() == 0 {
			delete(m.queues, userID)
		}
	}
	return removed
}
