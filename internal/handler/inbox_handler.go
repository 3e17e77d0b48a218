package handler

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/pesio-ai/be-esaf-workflow/internal/domain"
	"github.com/pesio-ai/be-esaf-workflow/internal/inbox"
	"github.com/pesio-ai/be-esaf-workflow/internal/protocol"
)

// notifyResult acknowledges an approval-required upsert.
type notifyResult struct {
	Acknowledged bool   `json:"acknowledged"`
	Message      string `json:"message,omitempty"`
}

// listPendingResult is the inbox's wire result for a list call.
type listPendingResult struct {
	Items       []domain.ApproverInboxItem `json:"items"`
	SummaryText string                     `json:"summaryText,omitempty"`
}

// decisionResult is the inbox's wire result for a submitted decision.
type decisionResult struct {
	StatusRecord *domain.StatusRecord `json:"statusRecord"`
	Message      string               `json:"message,omitempty"`
}

// InboxHandler serves the approval inbox intents.
type InboxHandler struct {
	service *inbox.Service
	log     zerolog.Logger
}

// NewInboxHandler creates the approval inbox intent handler.
func NewInboxHandler(service *inbox.Service, log zerolog.Logger) *InboxHandler {
	return &InboxHandler{
		service: service,
		log:     log.With().Str("handler", "inbox").Logger(),
	}
}

// Handle dispatches one validated envelope.
func (h *InboxHandler) Handle(ctx context.Context, env protocol.Envelope) (any, error) {
	switch env.Intent {
	case protocol.IntentNotifyApprovalRequired:
		message := h.service.Notify(ctx, env.RequestID, env.Role,
			env.SummaryForApprover, env.StatusRecord, env.FinanceRequest, env.PolicyDecision)
		return notifyResult{Acknowledged: true, Message: message}, nil

	case protocol.IntentListPending:
		items, text := h.service.ListPending(env.Role)
		return listPendingResult{Items: items, SummaryText: text}, nil

	case protocol.IntentSubmitDecision:
		record, message, err := h.service.SubmitDecision(ctx, env.RequestID, env.Role, env.Outcome, env.Comment)
		if err != nil {
			return nil, err
		}
		return decisionResult{StatusRecord: record, Message: message}, nil

	default:
		return nil, unsupported(env.Intent, "approval inbox")
	}
}
