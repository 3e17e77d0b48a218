package handler

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/pesio-ai/be-esaf-workflow/internal/domain"
	"github.com/pesio-ai/be-esaf-workflow/internal/policy"
	"github.com/pesio-ai/be-esaf-workflow/internal/protocol"
)

// policyResult is the policy service's wire result payload.
type policyResult struct {
	PolicyDecision *domain.PolicyDecision `json:"policyDecision"`
}

// PolicyHandler serves the policy evaluation intent.
type PolicyHandler struct {
	cfg policy.Config
	log zerolog.Logger
}

// NewPolicyHandler creates the policy intent handler.
func NewPolicyHandler(cfg policy.Config, log zerolog.Logger) *PolicyHandler {
	return &PolicyHandler{
		cfg: cfg,
		log: log.With().Str("handler", "policy").Logger(),
	}
}

// Handle dispatches one validated envelope.
func (h *PolicyHandler) Handle(ctx context.Context, env protocol.Envelope) (any, error) {
	switch env.Intent {
	case protocol.IntentEvaluatePolicy:
		decision := policy.Evaluate(*env.FinanceRequest, h.cfg)
		h.log.Info().
			Str("request_id", env.RequestID).
			Str("decision_state", string(decision.DecisionState)).
			Str("approval_path", string(decision.RequiredApprovalPath)).
			Msg("Policy evaluated")
		return policyResult{PolicyDecision: &decision}, nil

	default:
		return nil, unsupported(env.Intent, "policy evaluator")
	}
}
