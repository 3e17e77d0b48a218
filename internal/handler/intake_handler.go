package handler

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/pesio-ai/be-esaf-workflow/internal/intake"
	"github.com/pesio-ai/be-esaf-workflow/internal/protocol"
)

// IntakeHandler serves the structured request submission intent.
type IntakeHandler struct {
	service *intake.Service
	log     zerolog.Logger
}

// NewIntakeHandler creates the intake intent handler.
func NewIntakeHandler(service *intake.Service, log zerolog.Logger) *IntakeHandler {
	return &IntakeHandler{
		service: service,
		log:     log.With().Str("handler", "intake").Logger(),
	}
}

// Handle dispatches one validated envelope.
func (h *IntakeHandler) Handle(ctx context.Context, env protocol.Envelope) (any, error) {
	switch env.Intent {
	case protocol.IntentSubmitRequest:
		return h.service.Submit(ctx, env.FinanceRequest)

	default:
		return nil, unsupported(env.Intent, "intake collector")
	}
}
