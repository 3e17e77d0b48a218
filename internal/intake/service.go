// Package intake turns a completed, structured spend request into a tracked
// workflow: it validates the submission, assigns the ESAF reference, runs
// policy evaluation and hands the result to the lifecycle orchestrator.
// The conversational slot-filling that produces the structured request
// lives outside this service.
package intake

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/pesio-ai/be-esaf-workflow/internal/apperrors"
	"github.com/pesio-ai/be-esaf-workflow/internal/domain"
)

// PolicyEvaluator asks the policy service for a decision on a request.
type PolicyEvaluator interface {
	EvaluatePolicy(ctx context.Context, requestID string, request *domain.FinanceRequest) (*domain.PolicyDecision, error)
}

// PolicyResultRecorder forwards the evaluated request to the orchestrator.
type PolicyResultRecorder interface {
	RecordPolicyResult(ctx context.Context, requestID string, request *domain.FinanceRequest, decision *domain.PolicyDecision) (*domain.StatusRecord, error)
}

// EventPublisher emits fire-and-forget workflow events.
type EventPublisher interface {
	Publish(ctx context.Context, eventType, requestID string, payload map[string]any)
}

// SubmitResult is what the requester gets back after a submission.
type SubmitResult struct {
	RequestID      string                 `json:"requestId"`
	PolicyDecision *domain.PolicyDecision `json:"policyDecision"`
	StatusRecord   *domain.StatusRecord   `json:"statusRecord"`
	SummaryText    string                 `json:"summaryText,omitempty"`
}

// Service is the intake collector.
type Service struct {
	policy       PolicyEvaluator
	orchestrator PolicyResultRecorder
	events       EventPublisher
	log          zerolog.Logger

	mu      sync.Mutex
	year    int
	counter int
	now     func() time.Time
}

// NewService creates the intake collector. events may be nil.
func NewService(policy PolicyEvaluator, orchestrator PolicyResultRecorder, events EventPublisher, log zerolog.Logger) *Service {
	return &Service{
		policy:       policy,
		orchestrator: orchestrator,
		events:       events,
		log:          log.With().Str("component", "intake").Logger(),
		now:          time.Now,
	}
}

// Submit validates a completed request, assigns its ESAF reference, runs
// policy evaluation and records the result with the orchestrator. A
// downstream failure surfaces to the caller and leaves no intake state
// behind beyond the consumed sequence number.
func (s *Service) Submit(ctx context.Context, request *domain.FinanceRequest) (*SubmitResult, error) {
	if err := validate(request); err != nil {
		return nil, err
	}

	requestID := s.nextRequestID()
	request.RequestID = requestID

	decision, err := s.policy.EvaluatePolicy(ctx, requestID, request)
	if err != nil {
		return nil, err
	}

	record, err := s.orchestrator.RecordPolicyResult(ctx, requestID, request, decision)
	if err != nil {
		return nil, err
	}

	if s.events != nil {
		s.events.Publish(ctx, "request_submitted", requestID, map[string]any{
			"typeOfSpend": request.TypeOfSpend,
			"amount":      request.AmountExclVAT.Amount,
			"currency":    request.AmountExclVAT.Currency,
		})
	}

	s.log.Info().
		Str("request_id", requestID).
		Str("approval_path", string(decision.RequiredApprovalPath)).
		Msg("Request submitted")

	return &SubmitResult{
		RequestID:      requestID,
		PolicyDecision: decision,
		StatusRecord:   record,
		SummaryText:    record.SummaryForRequester,
	}, nil
}

// nextRequestID assigns the next ESAF-<year>-<sequence> reference. The
// sequence restarts each calendar year and lives for the process lifetime.
func (s *Service) nextRequestID() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	year := s.now().Year()
	if year != s.year {
		s.year = year
		s.counter = 0
	}
	s.counter++
	return fmt.Sprintf("ESAF-%d-%04d", year, s.counter)
}

// validate enforces the required field set of a completed submission.
func validate(request *domain.FinanceRequest) error {
	if request == nil {
		return apperrors.InvalidInput("financeRequest", "is required")
	}

	required := []struct {
		field string
		value string
	}{
		{"directorate", request.Directorate},
		{"serviceName", request.ServiceName},
		{"costCentreCode", request.CostCentreCode},
		{"typeOfSpend", string(request.TypeOfSpend)},
		{"ringFencedFunding", request.RingFencedFunding},
		{"isBusinessCritical", request.IsBusinessCritical},
		{"isStatutory", request.IsStatutory},
		{"canBeDeferred", request.CanBeDeferred},
		{"hasContractInPlace", request.HasContractInPlace},
		{"descriptionOfSpend", request.DescriptionOfSpend},
		{"justification", request.Justification},
		{"headOfFinance", request.HeadOfFinance},
		{"executiveTeamOrDelegate", request.ExecutiveTeamOrDelegate},
	}
	for _, f := range required {
		if f.value == "" {
			return apperrors.InvalidInput(f.field, "is required")
		}
	}

	if request.AmountExclVAT.Currency == "" {
		return apperrors.InvalidInput("amountExclVAT.currency", "is required")
	}
	if request.AmountExclVAT.Amount <= 0 {
		return apperrors.InvalidInput("amountExclVAT.amount", "must be greater than zero")
	}
	return nil
}
