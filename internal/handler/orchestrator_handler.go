// Package handler adapts the workflow services to the message protocol:
// one intent handler per service, dispatching the closed intent set each
// service supports.
package handler

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/pesio-ai/be-esaf-workflow/internal/apperrors"
	"github.com/pesio-ai/be-esaf-workflow/internal/domain"
	"github.com/pesio-ai/be-esaf-workflow/internal/orchestrator"
	"github.com/pesio-ai/be-esaf-workflow/internal/protocol"
)

// statusResult is the orchestrator's wire result payload.
type statusResult struct {
	StatusRecord *domain.StatusRecord `json:"statusRecord"`
	SummaryText  string               `json:"summaryText,omitempty"`
}

// OrchestratorHandler serves the status/lifecycle orchestrator intents.
type OrchestratorHandler struct {
	service *orchestrator.Service
	log     zerolog.Logger
}

// NewOrchestratorHandler creates the orchestrator intent handler.
func NewOrchestratorHandler(service *orchestrator.Service, log zerolog.Logger) *OrchestratorHandler {
	return &OrchestratorHandler{
		service: service,
		log:     log.With().Str("handler", "orchestrator").Logger(),
	}
}

// Handle dispatches one validated envelope.
func (h *OrchestratorHandler) Handle(ctx context.Context, env protocol.Envelope) (any, error) {
	switch env.Intent {
	case protocol.IntentPolicyResult:
		record, err := h.service.RecordPolicyResult(ctx, env.RequestID, env.FinanceRequest, env.PolicyDecision)
		if err != nil {
			return nil, err
		}
		return statusResult{StatusRecord: record, SummaryText: record.SummaryForRequester}, nil

	case protocol.IntentApproverDecision:
		record, err := h.service.RecordApproverDecision(ctx, env.RequestID, env.Role, env.Outcome, env.Comment)
		if err != nil {
			return nil, err
		}
		return statusResult{StatusRecord: record}, nil

	case protocol.IntentStatusQuery:
		text, record, err := h.service.QueryStatus(ctx, env.RequestID, env.Audience)
		if err != nil {
			return nil, err
		}
		return statusResult{StatusRecord: record, SummaryText: text}, nil

	default:
		return nil, unsupported(env.Intent, "status orchestrator")
	}
}

func unsupported(intent protocol.Intent, service string) error {
	return apperrors.New(apperrors.CodeValidation,
		fmt.Sprintf("intent '%s' is not supported by the %s service", intent, service))
}
