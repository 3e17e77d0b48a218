// Package inbox holds the per-role queues of requests awaiting an approver
// decision, and the service operations over them.
package inbox

import (
	"sync"

	"github.com/pesio-ai/be-esaf-workflow/internal/domain"
)

// Store keeps one FIFO queue of inbox items per approver role. At most one
// item exists per (role, requestId) pair: a repeat notification replaces,
// never duplicates. The queues are never exposed directly; callers go
// through the store operations only.
type Store struct {
	mu     sync.Mutex
	queues map[domain.ApproverRole][]domain.ApproverInboxItem
}

// NewStore creates an empty inbox store.
func NewStore() *Store {
	return &Store{
		queues: make(map[domain.ApproverRole][]domain.ApproverInboxItem),
	}
}

// Upsert queues an item for its role. An existing item with the same
// request ID is removed first, so a re-notification moves the request to
// the back of the queue instead of duplicating it.
func (s *Store) Upsert(item domain.ApproverInboxItem) {
	s.mu.Lock()
	defer s.mu.Unlock()

	queue := s.queues[item.ApproverRole][:0:0]
	for _, existing := range s.queues[item.ApproverRole] {
		if existing.RequestID != item.RequestID {
			queue = append(queue, existing)
		}
	}
	s.queues[item.ApproverRole] = append(queue, item)
}

// List returns a snapshot of the role's queue in insertion order.
func (s *Store) List(role domain.ApproverRole) []domain.ApproverInboxItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]domain.ApproverInboxItem, 0, len(s.queues[role]))
	for _, item := range s.queues[role] {
		items = append(items, cloneItem(item))
	}
	return items
}

// Get returns a copy of the item for (role, requestID), if present.
func (s *Store) Get(role domain.ApproverRole, requestID string) (domain.ApproverInboxItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, item := range s.queues[role] {
		if item.RequestID == requestID {
			return cloneItem(item), true
		}
	}
	return domain.ApproverInboxItem{}, false
}

// Update replaces the stored item for (role, requestID) in place,
// preserving its queue position. Returns false when the item is gone.
func (s *Store) Update(role domain.ApproverRole, updated domain.ApproverInboxItem) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, item := range s.queues[role] {
		if item.RequestID == updated.RequestID {
			s.queues[role][i] = updated
			return true
		}
	}
	return false
}

// Remove deletes the item for (role, requestID). Returns false when the
// item was not present.
func (s *Store) Remove(role domain.ApproverRole, requestID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, item := range s.queues[role] {
		if item.RequestID == requestID {
			s.queues[role] = append(s.queues[role][:i], s.queues[role][i+1:]...)
			return true
		}
	}
	return false
}

// Len reports how many items are queued for a role.
func (s *Store) Len(role domain.ApproverRole) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queues[role])
}

func cloneItem(item domain.ApproverInboxItem) domain.ApproverInboxItem {
	cp := item
	cp.StatusSnapshot = item.StatusSnapshot.Clone()
	if item.FinanceRequest != nil {
		req := *item.FinanceRequest
		cp.FinanceRequest = &req
	}
	if item.PolicyDecision != nil {
		dec := *item.PolicyDecision
		dec.Reasons = append([]domain.Reason(nil), item.PolicyDecision.Reasons...)
		cp.PolicyDecision = &dec
	}
	return cp
}
