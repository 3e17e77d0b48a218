package inbox

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/pesio-ai/be-esaf-workflow/internal/apperrors"
	"github.com/pesio-ai/be-esaf-workflow/internal/domain"
	"github.com/pesio-ai/be-esaf-workflow/internal/summary"
)

// DecisionForwarder carries an approver decision to the lifecycle
// orchestrator and blocks for the updated canonical record.
type DecisionForwarder interface {
	RecordApproverDecision(
		ctx context.Context,
		requestID string,
		role domain.ApproverRole,
		outcome domain.DecisionOutcome,
		comment string,
		statusSnapshot *domain.StatusRecord,
	) (*domain.StatusRecord, error)
}

// Service implements the approval inbox operations for all roles.
type Service struct {
	store        *Store
	orchestrator DecisionForwarder
	log          zerolog.Logger
	now          func() time.Time
}

// NewService creates the approval inbox service.
func NewService(store *Store, orchestrator DecisionForwarder, log zerolog.Logger) *Service {
	return &Service{
		store:        store,
		orchestrator: orchestrator,
		log:          log.With().Str("component", "inbox").Logger(),
		now:          time.Now,
	}
}

// Notify upserts an inbox item for the role and acknowledges with a
// confirmation line. A repeat notification for the same request replaces
// the earlier item.
func (s *Service) Notify(
	ctx context.Context,
	requestID string,
	role domain.ApproverRole,
	summaryForApprover string,
	statusRecord *domain.StatusRecord,
	financeRequest *domain.FinanceRequest,
	policyDecision *domain.PolicyDecision,
) string {
	text := strings.TrimSpace(summaryForApprover)
	if text == "" && statusRecord != nil {
		text = statusRecord.SummaryForApprover
	}
	if text == "" {
		text = fmt.Sprintf("Awaiting %s approval for %s.", role, requestID)
	}

	if policyDecision == nil && statusRecord != nil {
		policyDecision = statusRecord.PolicyDecision
	}

	s.store.Upsert(domain.ApproverInboxItem{
		RequestID:          requestID,
		ApproverRole:       role,
		CreatedAt:          s.now(),
		SummaryForApprover: text,
		FinanceRequest:     financeRequest,
		PolicyDecision:     policyDecision,
		StatusSnapshot:     statusRecord,
	})

	s.log.Info().
		Str("request_id", requestID).
		Str("role", string(role)).
		Int("queue_len", s.store.Len(role)).
		Msg("Approval notification queued")

	return fmt.Sprintf("Queued %s for %s approval.", requestID, role)
}

// ListPending returns the role's queue in insertion order together with a
// human-readable summary of it.
func (s *Service) ListPending(role domain.ApproverRole) ([]domain.ApproverInboxItem, string) {
	items := s.store.List(role)
	return items, pendingSummary(role, items)
}

// SubmitDecision forwards an approver decision to the orchestrator. The
// queue mutation is atomic with respect to the forward: on any downstream
// failure the queue is left exactly as it was and the error surfaces as a
// downstream error. On success the refreshed status snapshot is cached on
// the item, which is removed for approved/rejected and kept for a request
// for more information.
func (s *Service) SubmitDecision(
	ctx context.Context,
	requestID string,
	role domain.ApproverRole,
	outcome domain.DecisionOutcome,
	comment string,
) (*domain.StatusRecord, string, error) {
	item, ok := s.store.Get(role, requestID)
	if !ok {
		return nil, "", apperrors.New(apperrors.CodeNotFound,
			fmt.Sprintf("no pending request %s for the %s role", requestID, role))
	}

	updated, err := s.orchestrator.RecordApproverDecision(ctx, requestID, role, outcome, comment, item.StatusSnapshot)
	if err != nil {
		s.log.Warn().Err(err).
			Str("request_id", requestID).
			Str("role", string(role)).
			Str("outcome", string(outcome)).
			Msg("Decision forward failed; inbox left unchanged")
		return nil, "", apperrors.Downstream(err,
			fmt.Sprintf("could not record the %s decision for %s", role, requestID))
	}

	item.StatusSnapshot = updated
	if outcome == domain.OutcomeMoreInfoRequested {
		s.store.Update(role, item)
	} else {
		s.store.Remove(role, requestID)
	}

	s.log.Info().
		Str("request_id", requestID).
		Str("role", string(role)).
		Str("outcome", string(outcome)).
		Int("queue_len", s.store.Len(role)).
		Msg("Approver decision recorded")

	return updated, confirmation(role, requestID, outcome), nil
}

func pendingSummary(role domain.ApproverRole, items []domain.ApproverInboxItem) string {
	if len(items) == 0 {
		return fmt.Sprintf("You have no pending requests for %s approval.", role)
	}

	plural := "s"
	if len(items) == 1 {
		plural = ""
	}
	lines := []string{fmt.Sprintf("You have %d pending request%s:", len(items), plural)}

	for i, item := range items {
		serviceName := "Unknown service"
		amount := "Amount not provided"
		if item.FinanceRequest != nil {
			if item.FinanceRequest.ServiceName != "" {
				serviceName = item.FinanceRequest.ServiceName
			}
			if item.FinanceRequest.AmountExclVAT.Currency != "" {
				amount = summary.FormatMoney(item.FinanceRequest.AmountExclVAT)
			}
		}
		lines = append(lines, fmt.Sprintf("%d. %s - %s - %s - %s",
			i+1, item.RequestID, serviceName, amount, truncate(item.SummaryForApprover, 120)))
	}

	return strings.Join(lines, "\n")
}

func confirmation(role domain.ApproverRole, requestID string, outcome domain.DecisionOutcome) string {
	switch outcome {
	case domain.OutcomeApproved:
		return fmt.Sprintf("Recorded %s approval for %s.", role, requestID)
	case domain.OutcomeRejected:
		return fmt.Sprintf("Recorded %s rejection for %s.", role, requestID)
	default:
		return fmt.Sprintf("Recorded %s request for more information on %s.", role, requestID)
	}
}

func truncate(text string, max int) string {
	if len(text) <= max {
		return text
	}
	return text[:max-3] + "..."
}
