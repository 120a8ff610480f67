package nexchat

import (
	"sort"
	"sync"
)

// Store is an in-memory, per-chat ordered log of normalized messages.
// Appends are idempotent by message id; reads return snapshots. The store
// grows unbounded for its lifetime, which is acceptable for a client session.
type Store struct {
	mu       sync.Mutex
	byChat   map[string]*bucket
	onAppend func(chatID string, msgs []Message)
}

type bucket struct {
	msgs []Message
	seen map[string]struct{}
}

// NewStore creates an empty conversation store.
func NewStore() *Store {
	return &Store{byChat: make(map[string]*bucket)}
}

// OnAppend registers a callback invoked with the messages actually inserted
// by each Append, in their insertion order. The callback runs outside the
// store's lock. Register before the store is shared; not synchronized.
func (s *Store) OnAppend(fn func(chatID string, msgs []Message)) {
	s.onAppend = fn
}

// Append merges messages into the chat's sequence. Messages whose id is
// already present are dropped; the sequence stays sorted by CreatedAt with
// ties keeping insertion order.
func (s *Store) Append(chatID string, msgs ...Message) {
	if len(msgs) == 0 {
		return
	}

	s.mu.Lock()
	b := s.byChat[chatID]
	if b == nil {
		b = &bucket{seen: make(map[string]struct{})}
		s.byChat[chatID] = b
	}
	var inserted []Message
	for _, m := range msgs {
		key := m.ID.Key()
		if _, dup := b.seen[key]; dup {
			continue
		}
		b.seen[key] = struct{}{}
		b.msgs = append(b.msgs, m)
		inserted = append(inserted, m)
	}
	if len(inserted) > 0 {
		sort.SliceStable(b.msgs, func(i, j int) bool { return b.msgs[i].CreatedAt < b.msgs[j].CreatedAt })
	}
	s.mu.Unlock()

	if s.onAppend != nil && len(inserted) > 0 {
		s.onAppend(chatID, inserted)
	}
}

// Get returns a snapshot of the chat's ordered messages.
func (s *Store) Get(chatID string) []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.byChat[chatID]
	if b == nil {
		return nil
	}
	out := make([]Message, len(b.msgs))
	copy(out, b.msgs)
	return out
}

// Len reports how many messages the chat holds.
func (s *Store) Len(chatID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.byChat[chatID]
	if b == nil {
		return 0
	}
	return len(b.msgs)
}
