// Package client provides typed clients for the workflow services, built
// on the protocol client registry, plus the NATS workflow event publisher.
package client

import (
	"context"

	"github.com/pesio-ai/be-esaf-workflow/internal/domain"
	"github.com/pesio-ai/be-esaf-workflow/internal/protocol"
)

// StatusResult is the payload returned by the orchestrator's operations.
type StatusResult struct {
	StatusRecord *domain.StatusRecord `json:"statusRecord"`
	SummaryText  string               `json:"summaryText,omitempty"`
}

// OrchestratorClient talks to the status/lifecycle orchestrator service.
type OrchestratorClient struct {
	registry *protocol.Registry
	baseURL  string
}

// NewOrchestratorClient creates a client for the orchestrator at baseURL.
// The capability descriptor is fetched lazily, once, on first use.
func NewOrchestratorClient(registry *protocol.Registry, baseURL string) *OrchestratorClient {
	return &OrchestratorClient{registry: registry, baseURL: baseURL}
}

// RecordPolicyResult reports a fresh policy evaluation for a request.
func (c *OrchestratorClient) RecordPolicyResult(
	ctx context.Context,
	requestID string,
	request *domain.FinanceRequest,
	decision *domain.PolicyDecision,
) (*domain.StatusRecord, error) {
	conn, err := c.registry.Client(ctx, c.baseURL)
	if err != nil {
		return nil, err
	}

	var result StatusResult
	err = conn.Send(ctx, protocol.Envelope{
		Intent:         protocol.IntentPolicyResult,
		RequestID:      requestID,
		FinanceRequest: request,
		PolicyDecision: decision,
	}, &result)
	if err != nil {
		return nil, err
	}
	return result.StatusRecord, nil
}

// RecordApproverDecision forwards an approver decision together with the
// inbox's status snapshot.
func (c *OrchestratorClient) RecordApproverDecision(
	ctx context.Context,
	requestID string,
	role domain.ApproverRole,
	outcome domain.DecisionOutcome,
	comment string,
	statusSnapshot *domain.StatusRecord,
) (*domain.StatusRecord, error) {
	conn, err := c.registry.Client(ctx, c.baseURL)
	if err != nil {
		return nil, err
	}

	var result StatusResult
	err = conn.Send(ctx, protocol.Envelope{
		Intent:       protocol.IntentApproverDecision,
		RequestID:    requestID,
		Role:         role,
		Outcome:      outcome,
		Comment:      comment,
		StatusRecord: statusSnapshot,
	}, &result)
	if err != nil {
		return nil, err
	}
	return result.StatusRecord, nil
}

// QueryStatus fetches the audience-appropriate summary and record snapshot.
func (c *OrchestratorClient) QueryStatus(
	ctx context.Context,
	requestID string,
	audience domain.Audience,
) (*StatusResult, error) {
	conn, err := c.registry.Client(ctx, c.baseURL)
	if err != nil {
		return nil, err
	}

	var result StatusResult
	err = conn.Send(ctx, protocol.Envelope{
		Intent:    protocol.IntentStatusQuery,
		RequestID: requestID,
		Audience:  audience,
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}
