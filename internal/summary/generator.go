// Package summary produces the requester- and approver-facing narrative for
// a status record. The narrative service is an external black box; callers
// always degrade to the deterministic template when it fails.
package summary

import (
	"context"
	"fmt"
	"strings"

	"github.com/pesio-ai/be-esaf-workflow/internal/domain"
)

// Record is the material a summary is generated from.
type Record struct {
	FinanceRequest *domain.FinanceRequest `json:"financeRequest,omitempty"`
	PolicyDecision *domain.PolicyDecision `json:"policyDecision,omitempty"`
	Status         *domain.StatusRecord   `json:"status"`
}

// Summaries is the pair of audience-specific narrative strings.
type Summaries struct {
	SummaryForRequester string `json:"summaryForRequester"`
	SummaryForApprover  string `json:"summaryForApprover"`
}

// Generator turns structured state into prose for humans.
type Generator interface {
	Generate(ctx context.Context, record Record) (Summaries, error)
}

// Fallback builds deterministic summaries from the request ID, current
// state and amount. It never fails, which is the property the orchestrator
// relies on when the narrative service is down or returns junk.
func Fallback(record Record) Summaries {
	requestID := "unknown request"
	state := domain.StateSubmitted
	if record.Status != nil {
		requestID = record.Status.RequestID
		state = record.Status.CurrentState
	}

	amount := ""
	if record.FinanceRequest != nil && record.FinanceRequest.AmountExclVAT.Currency != "" {
		amount = fmt.Sprintf(" for %s", FormatMoney(record.FinanceRequest.AmountExclVAT))
	}

	return Summaries{
		SummaryForRequester: fmt.Sprintf("Your request %s%s is currently in state '%s'. %s",
			requestID, amount, state, requesterHint(state)),
		SummaryForApprover: fmt.Sprintf("Request %s%s is in state '%s'. %s",
			requestID, amount, state, approverHint(state)),
	}
}

func requesterHint(state domain.StatusState) string {
	switch state {
	case domain.StateApproved:
		return "It has been fully approved."
	case domain.StateRejected:
		return "It was rejected by an approver."
	case domain.StateAutoRejected:
		return "It was rejected automatically by policy."
	case domain.StateAwaitingManager:
		return "It is awaiting manager approval."
	case domain.StateAwaitingDirector:
		return "It is awaiting director approval."
	default:
		return "Please check back later for more details."
	}
}

func approverHint(state domain.StatusState) string {
	switch state {
	case domain.StateAwaitingManager:
		return "A manager decision is required."
	case domain.StateAwaitingDirector:
		return "A director decision is required."
	default:
		return "No approver action is currently required."
	}
}

// FormatMoney renders an amount for human-facing text.
func FormatMoney(m domain.Money) string {
	symbol := m.Currency + " "
	if strings.EqualFold(m.Currency, "GBP") {
		symbol = "£"
	}
	return fmt.Sprintf("%s%.2f", symbol, m.Amount)
}
