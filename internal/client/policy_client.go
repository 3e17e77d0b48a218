package client

import (
	"context"

	"github.com/pesio-ai/be-esaf-workflow/internal/domain"
	"github.com/pesio-ai/be-esaf-workflow/internal/protocol"
)

// PolicyResult is the policy service's answer to an evaluation call.
type PolicyResult struct {
	PolicyDecision *domain.PolicyDecision `json:"policyDecision"`
}

// PolicyClient talks to the policy evaluator service.
type PolicyClient struct {
	registry *protocol.Registry
	baseURL  string
}

// NewPolicyClient creates a client for the policy service at baseURL.
func NewPolicyClient(registry *protocol.Registry, baseURL string) *PolicyClient {
	return &PolicyClient{registry: registry, baseURL: baseURL}
}

// EvaluatePolicy evaluates the request against the configured thresholds.
func (c *PolicyClient) EvaluatePolicy(
	ctx context.Context,
	requestID string,
	request *domain.FinanceRequest,
) (*domain.PolicyDecision, error) {
	conn, err := c.registry.Client(ctx, c.baseURL)
	if err != nil {
		return nil, err
	}

	var result PolicyResult
	err = conn.Send(ctx, protocol.Envelope{
		Intent:         protocol.IntentEvaluatePolicy,
		RequestID:      requestID,
		FinanceRequest: request,
	}, &result)
	if err != nil {
		return nil, err
	}
	return result.PolicyDecision, nil
}
