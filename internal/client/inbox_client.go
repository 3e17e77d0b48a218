package client

import (
	"context"

	"github.com/pesio-ai/be-esaf-workflow/internal/domain"
	"github.com/pesio-ai/be-esaf-workflow/internal/protocol"
)

// ListPendingResult is the inbox's answer to a list call.
type ListPendingResult struct {
	Items       []domain.ApproverInboxItem `json:"items"`
	SummaryText string                     `json:"summaryText,omitempty"`
}

// DecisionResult is the inbox's answer to a submitted decision.
type DecisionResult struct {
	StatusRecord *domain.StatusRecord `json:"statusRecord"`
	Message      string               `json:"message,omitempty"`
}

// NotifyResult acknowledges an approval-required upsert.
type NotifyResult struct {
	Acknowledged bool   `json:"acknowledged"`
	Message      string `json:"message,omitempty"`
}

// InboxClient talks to the approval inbox service.
type InboxClient struct {
	registry *protocol.Registry
	baseURL  string
}

// NewInboxClient creates a client for the approval inbox at baseURL.
func NewInboxClient(registry *protocol.Registry, baseURL string) *InboxClient {
	return &InboxClient{registry: registry, baseURL: baseURL}
}

// NotifyApprovalRequired upserts an inbox item for the role and blocks for
// the acknowledgement. This is the delivery leg of the orchestrator's
// notification dispatch.
func (c *InboxClient) NotifyApprovalRequired(
	ctx context.Context,
	requestID string,
	role domain.ApproverRole,
	summaryForApprover string,
	statusRecord *domain.StatusRecord,
	financeRequest *domain.FinanceRequest,
	policyDecision *domain.PolicyDecision,
) error {
	conn, err := c.registry.Client(ctx, c.baseURL)
	if err != nil {
		return err
	}

	var result NotifyResult
	return conn.Send(ctx, protocol.Envelope{
		Intent:             protocol.IntentNotifyApprovalRequired,
		RequestID:          requestID,
		Role:               role,
		SummaryForApprover: summaryForApprover,
		StatusRecord:       statusRecord,
		FinanceRequest:     financeRequest,
		PolicyDecision:     policyDecision,
	}, &result)
}

// ListPending returns the role's queue and its human-readable summary.
func (c *InboxClient) ListPending(ctx context.Context, role domain.ApproverRole) (*ListPendingResult, error) {
	conn, err := c.registry.Client(ctx, c.baseURL)
	if err != nil {
		return nil, err
	}

	var result ListPendingResult
	err = conn.Send(ctx, protocol.Envelope{
		Intent: protocol.IntentListPending,
		Role:   role,
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// SubmitDecision records an approver decision on a pending item.
func (c *InboxClient) SubmitDecision(
	ctx context.Context,
	requestID string,
	role domain.ApproverRole,
	outcome domain.DecisionOutcome,
	comment string,
) (*DecisionResult, error) {
	conn, err := c.registry.Client(ctx, c.baseURL)
	if err != nil {
		return nil, err
	}

	var result DecisionResult
	err = conn.Send(ctx, protocol.Envelope{
		Intent:    protocol.IntentSubmitDecision,
		RequestID: requestID,
		Role:      role,
		Outcome:   outcome,
		Comment:   comment,
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}
