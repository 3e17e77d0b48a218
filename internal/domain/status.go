package domain

import "time"

// StatusState is one state of the canonical request lifecycle.
type StatusState string

const (
	StateSubmitted        StatusState = "submitted"
	StatePolicyValidated  StatusState = "policy_validated"
	StateAwaitingManager  StatusState = "awaiting_manager_approval"
	StateAwaitingDirector StatusState = "awaiting_director_approval"
	StateApproved         StatusState = "approved"
	StateRejected         StatusState = "rejected"
	StateAutoRejected     StatusState = "auto_rejected"
)

// Terminal reports whether no further approver action can change the state.
func (s StatusState) Terminal() bool {
	return s == StateApproved || s == StateRejected || s == StateAutoRejected
}

// HistoryEntry is one append-only lifecycle event on a StatusRecord.
type HistoryEntry struct {
	State     StatusState `json:"state"`
	UpdatedAt time.Time   `json:"updatedAt"`
	UpdatedBy string      `json:"updatedBy"`
	Note      string      `json:"note"`
}

// StatusRecord is the canonical, single-writer status of one request.
// It is owned and mutated exclusively by the lifecycle orchestrator;
// every copy held by another service is a point-in-time snapshot.
type StatusRecord struct {
	RequestID            string          `json:"requestId"`
	CurrentState         StatusState     `json:"currentState"`
	UpdatedAt            time.Time       `json:"updatedAt"`
	UpdatedBy            string          `json:"updatedBy"`
	PolicyDecision       *PolicyDecision `json:"policyDecision,omitempty"`
	History              []HistoryEntry  `json:"history"`
	SummaryForRequester  string          `json:"summaryForRequester,omitempty"`
	SummaryForApprover   string          `json:"summaryForApprover,omitempty"`
	NotifiedApproverRoles []ApproverRole `json:"notifiedApproverRoles,omitempty"`
}

// NewStatusRecord initialises a record in the submitted state.
func NewStatusRecord(requestID, updatedBy string, at time.Time) *StatusRecord {
	r := &StatusRecord{
		RequestID: requestID,
		UpdatedBy: updatedBy,
	}
	r.Append(StateSubmitted, updatedBy, "Request submitted.", at)
	return r
}

// Append adds a history entry and advances the current state so that
// CurrentState always equals the state of the last history entry.
func (r *StatusRecord) Append(state StatusState, updatedBy, note string, at time.Time) {
	r.History = append(r.History, HistoryEntry{
		State:     state,
		UpdatedAt: at,
		UpdatedBy: updatedBy,
		Note:      note,
	})
	r.CurrentState = state
	r.UpdatedAt = at
	r.UpdatedBy = updatedBy
}

// AppendNote records an occurrence that does not change the current state,
// such as an approver requesting more information.
func (r *StatusRecord) AppendNote(updatedBy, note string, at time.Time) {
	r.History = append(r.History, HistoryEntry{
		State:     r.CurrentState,
		UpdatedAt: at,
		UpdatedBy: updatedBy,
		Note:      note,
	})
	r.UpdatedAt = at
	r.UpdatedBy = updatedBy
}

// RoleNotified reports whether the role is already in the notification ledger.
func (r *StatusRecord) RoleNotified(role ApproverRole) bool {
	for _, notified := range r.NotifiedApproverRoles {
		if notified == role {
			return true
		}
	}
	return false
}

// MarkRoleNotified adds the role to the notification ledger. The ledger is
// strictly monotonic: roles are only ever added, never removed.
func (r *StatusRecord) MarkRoleNotified(role ApproverRole) {
	if !r.RoleNotified(role) {
		r.NotifiedApproverRoles = append(r.NotifiedApproverRoles, role)
	}
}

// Clone returns a deep copy safe to hand across service boundaries.
func (r *StatusRecord) Clone() *StatusRecord {
	if r == nil {
		return nil
	}
	cp := *r
	cp.History = append([]HistoryEntry(nil), r.History...)
	cp.NotifiedApproverRoles = append([]ApproverRole(nil), r.NotifiedApproverRoles...)
	if r.PolicyDecision != nil {
		pd := *r.PolicyDecision
		pd.Reasons = append([]Reason(nil), r.PolicyDecision.Reasons...)
		cp.PolicyDecision = &pd
	}
	return &cp
}

// ApproverInboxItem is one pending request in a role's approval inbox.
// The finance request, policy decision and status record are snapshots
// copied at notification time, never live references.
type ApproverInboxItem struct {
	RequestID          string          `json:"requestId"`
	ApproverRole       ApproverRole    `json:"approverRole"`
	CreatedAt          time.Time       `json:"createdAt"`
	SummaryForApprover string          `json:"summaryForApprover"`
	FinanceRequest     *FinanceRequest `json:"financeRequest,omitempty"`
	PolicyDecision     *PolicyDecision `json:"policyDecision,omitempty"`
	StatusSnapshot     *StatusRecord   `json:"statusSnapshot,omitempty"`
}
