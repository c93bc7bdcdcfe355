package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/jcass77/WTFIX-sub000/message"
)

type memoryEntry struct {
	sessionID  string
	originator string
	seqNum     int
	msg        *message.Message
}

// MemoryStore is a transient, in-process Store, the default backing for a
// session that doesn't need to survive a restart.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*memoryEntry
}

// NewMemory returns an empty MemoryStore.
func NewMemory() *MemoryStore {
	return &MemoryStore{entries: make(map[string]*memoryEntry)}
}

func (s *MemoryStore) Initialize(ctx context.Context) error { return nil }
func (s *MemoryStore) Finalize(ctx context.Context) error   { return nil }

// Set stores msg under (sessionID, originator, msg.SeqNum()).
func (s *MemoryStore) Set(ctx context.Context, sessionID, originator string, msg *message.Message) error {
	seqNum, ok := msg.SeqNum()
	if !ok {
		return fmt.Errorf("store: message has no MsgSeqNum (34)")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[Key(sessionID, originator, seqNum)] = &memoryEntry{
		sessionID:  sessionID,
		originator: originator,
		seqNum:     seqNum,
		msg:        msg,
	}
	return nil
}

// Get retrieves the message archived under (sessionID, originator, seqNum).
func (s *MemoryStore) Get(ctx context.Context, sessionID, originator string, seqNum int) (*message.Message, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[Key(sessionID, originator, seqNum)]
	if !ok {
		return nil, false, nil
	}
	return e.msg, true, nil
}

// Delete removes the message archived under (sessionID, originator, seqNum),
// returning 1 if something was removed, 0 otherwise.
func (s *MemoryStore) Delete(ctx context.Context, sessionID, originator string, seqNum int) (int, error) {
	key := Key(sessionID, originator, seqNum)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[key]; !ok {
		return 0, nil
	}
	delete(s.entries, key)
	return 1, nil
}

// Filter returns the sorted sequence numbers archived for sessionID and
// originator. An empty string for either argument matches any value, the
// way an absent keyword argument did in the original implementation.
func (s *MemoryStore) Filter(ctx context.Context, sessionID, originator string) ([]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matches []int
	for _, e := range s.entries {
		if sessionID != "" && e.sessionID != sessionID {
			continue
		}
		if originator != "" && e.originator != originator {
			continue
		}
		matches = append(matches, e.seqNum)
	}
	return sortedInts(matches), nil
}
