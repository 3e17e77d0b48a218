package orchestrator

import (
	"sync"

	"github.com/pesio-ai/be-esaf-workflow/internal/domain"
)

// State is everything the orchestrator keeps for one request: the finance
// request as last received from policy evaluation, and the canonical
// status record.
type State struct {
	Request *domain.FinanceRequest
	Record  *domain.StatusRecord
}

// StatusStore is the single-owner, in-memory home of canonical status
// records. Records live for the process lifetime and are never deleted.
// The underlying map is never exposed; callers go through the store
// operations so the design stays portable to a real persistence layer.
//
// Handling of one inbound message for one request is serialised through
// LockKey; messages for different requests proceed independently.
type StatusStore struct {
	mu      sync.Mutex
	records map[string]*State
	locks   map[string]*sync.Mutex
}

// NewStatusStore creates an empty store.
func NewStatusStore() *StatusStore {
	return &StatusStore{
		records: make(map[string]*State),
		locks:   make(map[string]*sync.Mutex),
	}
}

// LockKey serialises handling for one request ID and returns the unlock
// function. Downstream blocking calls are awaited while the key is held,
// which is what gives each request a single flow of control.
func (s *StatusStore) LockKey(requestID string) func() {
	s.mu.Lock()
	lock, ok := s.locks[requestID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[requestID] = lock
	}
	s.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

// Get returns the owned state for a request, or nil when unknown.
// Only the orchestrator mutates the returned value, under LockKey.
func (s *StatusStore) Get(requestID string) *State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records[requestID]
}

// Put stores the state for its request ID.
func (s *StatusStore) Put(state *State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[state.Record.RequestID] = state
}

// Snapshot returns a deep copy of the status record safe to hand to
// another service, or nil when the request is unknown.
func (s *StatusStore) Snapshot(requestID string) *domain.StatusRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.records[requestID]
	if !ok {
		return nil
	}
	return state.Record.Clone()
}

// Len reports how many requests the store tracks.
func (s *StatusStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}
