package orchestrator

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/pesio-ai/be-esaf-workflow/internal/domain"
)

// InboxNotifier delivers an "approval required" upsert to the approval
// inbox service and blocks for its acknowledgement.
type InboxNotifier interface {
	NotifyApprovalRequired(
		ctx context.Context,
		requestID string,
		role domain.ApproverRole,
		summaryForApprover string,
		statusRecord *domain.StatusRecord,
		financeRequest *domain.FinanceRequest,
		policyDecision *domain.PolicyDecision,
	) error
}

// Dispatcher fans "approval required" events out to approver inboxes,
// at most once per role per request.
type Dispatcher struct {
	notifier InboxNotifier
	log      zerolog.Logger
}

// NewDispatcher creates a dispatcher delivering through the given notifier.
func NewDispatcher(notifier InboxNotifier, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		notifier: notifier,
		log:      log.With().Str("component", "dispatcher").Logger(),
	}
}

// Notify upserts an inbox item for the role unless the record's ledger
// shows the role was already notified. On a successful acknowledgement the
// role is added to the ledger; on failure it is not, so a later retry can
// re-attempt delivery. The caller's state transition is never rolled back
// either way.
func (d *Dispatcher) Notify(
	ctx context.Context,
	record *domain.StatusRecord,
	role domain.ApproverRole,
	financeRequest *domain.FinanceRequest,
	policyDecision *domain.PolicyDecision,
) error {
	if record.RoleNotified(role) {
		d.log.Debug().
			Str("request_id", record.RequestID).
			Str("role", string(role)).
			Msg("Role already notified; skipping dispatch")
		return nil
	}

	err := d.notifier.NotifyApprovalRequired(
		ctx,
		record.RequestID,
		role,
		record.SummaryForApprover,
		record.Clone(),
		financeRequest,
		policyDecision,
	)
	if err != nil {
		d.log.Warn().Err(err).
			Str("request_id", record.RequestID).
			Str("role", string(role)).
			Msg("Approval notification failed; role left unnotified for retry")
		return err
	}

	record.MarkRoleNotified(role)
	d.log.Info().
		Str("request_id", record.RequestID).
		Str("role", string(role)).
		Msg("Approval notification dispatched")
	return nil
}
