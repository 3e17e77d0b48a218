package orchestrator

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

// updatedBy stamps every history entry the orchestrator writes.
const updatedBy = "status"

// EventPublisher emits fire-and-forget workflow events. Implementations
// must be nil-receiver safe and must never fail the caller.
type EventPublisher interface {
	Publish(ctx context.Context, eventType, requestID string, payload map[string]any)
}

// Service owns the canonical status record per request. It applies policy
// results and approver decisions, drives the notification dispatcher, and
// answers status queries.
type Service struct {
	store      *StatusStore
	dispatcher *Dispatcher
	generator  summary.Generator
	events     EventPublisher
	log        zerolog.Logger
	now        func() time.Time
}

// NewService creates the lifecycle orchestrator. generator and events may
// be nil: summaries then always come from the deterministic fallback, and
// no events are published.
func NewService(
	store *StatusStore,
	dispatcher *Dispatcher,
	generator summary.Generator,
	events EventPublisher,
	log zerolog.Logger,
) *Service {
	return &Service{
		store:      store,
		dispatcher: dispatcher,
		generator:  generator,
		events:     events,
		log:        log.With().Str("component", "orchestrator").Logger(),
		now:        time.Now,
	}
}

// RecordPolicyResult stores a fresh policy decision for a request, creating
// the status record when absent. The manager role is the only role notified
// at this stage: on a manager-and-director path the director is dispatched
// only after the manager approves.
func (s *Service) RecordPolicyResult(
	ctx context.Context,
	requestID string,
	request *domain.FinanceRequest,
	decision *domain.PolicyDecision,
) (*domain.StatusRecord, error) {
	unlock := s.store.LockKey(requestID)
	defer unlock()

	now := s.now()

	state := s.store.Get(requestID)
	if state == nil {
		state = &State{Record: domain.NewStatusRecord(requestID, updatedBy, now)}
	}
	state.Request = request
	state.Record.PolicyDecision = decision

	state.Record.Append(domain.StatePolicyValidated, updatedBy, "Policy decision received.", now)

	if decision.RequiredApprovalPath == domain.PathNone {
		state.Record.Append(domain.StateAutoRejected, updatedBy, rejectionNote(decision), now)
	} else {
		state.Record.Append(domain.StateAwaitingManager, updatedBy, "Awaiting manager approval.", now)
	}

	s.regenerateSummaries(ctx, state)
	s.store.Put(state)

	switch decision.RequiredApprovalPath {
	case domain.PathNone:
		s.publish(ctx, "request_auto_rejected", requestID, map[string]any{
			"decisionState": decision.DecisionState,
		})
	default:
		// Delivery failure is deliberately not rolled back: the canonical
		// status must reflect the decision already taken, and the ledger
		// stays open for a future retry of the notification.
		if err := s.dispatcher.Notify(ctx, state.Record, domain.RoleManager, state.Request, decision); err == nil {
			s.publish(ctx, "approval_required", requestID, map[string]any{
				"role": domain.RoleManager,
			})
		}
	}

	s.log.Info().
		Str("request_id", requestID).
		Str("approval_path", string(decision.RequiredApprovalPath)).
		Str("state", string(state.Record.CurrentState)).
		Msg("Policy result recorded")

	return state.Record.Clone(), nil
}

// RecordApproverDecision applies one approver's decision to the canonical
// record. Decisions that violate the approval sequencing are rejected with
// out_of_order_decision and leave the record untouched.
func (s *Service) RecordApproverDecision(
	ctx context.Context,
	requestID string,
	role domain.ApproverRole,
	outcome domain.DecisionOutcome,
	comment string,
) (*domain.StatusRecord, error) {
	unlock := s.store.LockKey(requestID)
	defer unlock()

	now := s.now()

	state := s.store.Get(requestID)
	if state == nil {
		return nil, apperrors.NotFound("request", requestID)
	}
	record := state.Record

	// A request for more information is a side note, not a transition:
	// the state is unchanged and the inbox item stays in place.
	if outcome == domain.OutcomeMoreInfoRequested {
		record.AppendNote(string(role), moreInfoNote(role, comment), now)
		s.regenerateSummaries(ctx, state)
		s.store.Put(state)
		s.publish(ctx, "more_info_requested", requestID, map[string]any{
			"role":    role,
			"comment": comment,
		})
		return record.Clone(), nil
	}

	path := domain.PathManagerOnly
	if record.PolicyDecision != nil {
		path = record.PolicyDecision.RequiredApprovalPath
	}

	var next domain.StatusState
	var dispatchDirector bool

	switch record.CurrentState {
	case domain.StateAwaitingManager:
		if role != domain.RoleManager {
			return nil, apperrors.OutOfOrder(fmt.Sprintf(
				"a %s decision cannot be applied to %s while manager approval is pending", role, requestID))
		}
		if outcome == domain.OutcomeRejected {
			next = domain.StateRejected
		} else if path == domain.PathManagerAndDirector {
			next = domain.StateAwaitingDirector
			dispatchDirector = true
		} else {
			next = domain.StateApproved
		}

	case domain.StateAwaitingDirector:
		if role != domain.RoleDirector {
			return nil, apperrors.OutOfOrder(fmt.Sprintf(
				"the manager decision for %s is already recorded; only a director decision can be applied", requestID))
		}
		if outcome == domain.OutcomeRejected {
			next = domain.StateRejected
		} else {
			next = domain.StateApproved
		}

	default:
		return nil, apperrors.OutOfOrder(fmt.Sprintf(
			"request %s is not awaiting an approver decision (state '%s')", requestID, record.CurrentState))
	}

	record.Append(next, string(role), decisionNote(role, outcome, comment), now)
	s.regenerateSummaries(ctx, state)
	s.store.Put(state)

	if dispatchDirector {
		if err := s.dispatcher.Notify(ctx, record, domain.RoleDirector, state.Request, record.PolicyDecision); err == nil {
			s.publish(ctx, "approval_required", requestID, map[string]any{
				"role": domain.RoleDirector,
			})
		}
	}

	switch next {
	case domain.StateApproved:
		s.publish(ctx, "request_approved", requestID, map[string]any{"role": role})
	case domain.StateRejected:
		s.publish(ctx, "request_rejected", requestID, map[string]any{"role": role})
	}

	s.log.Info().
		Str("request_id", requestID).
		Str("role", string(role)).
		Str("outcome", string(outcome)).
		Str("state", string(record.CurrentState)).
		Msg("Approver decision recorded")

	return record.Clone(), nil
}

// QueryStatus returns the cached summary for the audience, regenerating
// first when either summary is missing.
func (s *Service) QueryStatus(
	ctx context.Context,
	requestID string,
	audience domain.Audience,
) (string, *domain.StatusRecord, error) {
	unlock := s.store.LockKey(requestID)
	defer unlock()

	state := s.store.Get(requestID)
	if state == nil {
		return "", nil, apperrors.NotFound("request", requestID)
	}

	if state.Record.SummaryForRequester == "" || state.Record.SummaryForApprover == "" {
		s.regenerateSummaries(ctx, state)
		s.store.Put(state)
	}

	text := state.Record.SummaryForRequester
	if audience == domain.AudienceApprover {
		text = state.Record.SummaryForApprover
	}
	return text, state.Record.Clone(), nil
}

// RetryNotification re-attempts delivery for a role whose earlier dispatch
// failed. A role already in the ledger makes this a no-op.
func (s *Service) RetryNotification(ctx context.Context, requestID string, role domain.ApproverRole) error {
	unlock := s.store.LockKey(requestID)
	defer unlock()

	state := s.store.Get(requestID)
	if state == nil {
		return apperrors.NotFound("request", requestID)
	}
	return s.dispatcher.Notify(ctx, state.Record, role, state.Request, state.Record.PolicyDecision)
}

// regenerateSummaries refreshes both audience summaries. Generation never
// fails the calling operation: any generator error degrades to the
// deterministic template.
func (s *Service) regenerateSummaries(ctx context.Context, state *State) {
	record := summary.Record{
		FinanceRequest: state.Request,
		PolicyDecision: state.Record.PolicyDecision,
		Status:         state.Record,
	}

	summaries := summary.Fallback(record)
	if s.generator != nil {
		generated, err := s.generator.Generate(ctx, record)
		if err != nil {
			s.log.Warn().Err(err).
				Str("request_id", state.Record.RequestID).
				Msg("Narrative generation failed; using deterministic fallback")
		} else {
			summaries = generated
		}
	}

	state.Record.SummaryForRequester = summaries.SummaryForRequester
	state.Record.SummaryForApprover = summaries.SummaryForApprover
}

func (s *Service) publish(ctx context.Context, eventType, requestID string, payload map[string]any) {
	if s.events != nil {
		s.events.Publish(ctx, eventType, requestID, payload)
	}
}

func rejectionNote(decision *domain.PolicyDecision) string {
	if len(decision.Reasons) > 0 {
		return decision.Reasons[0].Message
	}
	return "Rejected automatically by policy."
}

func decisionNote(role domain.ApproverRole, outcome domain.DecisionOutcome, comment string) string {
	if strings.TrimSpace(comment) != "" {
		return comment
	}
	return fmt.Sprintf("Decision recorded by %s: %s", role, strings.ToUpper(string(outcome)))
}

func moreInfoNote(role domain.ApproverRole, comment string) string {
	if strings.TrimSpace(comment) != "" {
		return fmt.Sprintf("%s requested more information: %s", role, comment)
	}
	return fmt.Sprintf("%s requested more information.", role)
}
