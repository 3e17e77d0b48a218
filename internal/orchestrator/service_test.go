package orchestrator

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pesio-ai/be-esaf-workflow/internal/apperrors"
	"github.com/pesio-ai/be-esaf-workflow/internal/domain"
	"github.com/pesio-ai/be-esaf-workflow/internal/policy"
)

type notifyCall struct {
	requestID string
	role      domain.ApproverRole
}

type fakeNotifier struct {
	calls    []notifyCall
	failWith error
}

func (f *fakeNotifier) NotifyApprovalRequired(
	ctx context.Context,
	requestID string,
	role domain.ApproverRole,
	summaryForApprover string,
	statusRecord *domain.StatusRecord,
	financeRequest *domain.FinanceRequest,
	policyDecision *domain.PolicyDecision,
) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.calls = append(f.calls, notifyCall{requestID: requestID, role: role})
	return nil
}

func (f *fakeNotifier) rolesFor(requestID string) []domain.ApproverRole {
	var roles []domain.ApproverRole
	for _, call := range f.calls {
		if call.requestID == requestID {
			roles = append(roles, call.role)
		}
	}
	return roles
}

func newTestService(notifier *fakeNotifier) *Service {
	log := zerolog.Nop()
	return NewService(NewStatusStore(), NewDispatcher(notifier, log), nil, nil, log)
}

func financeRequest(id string, spend domain.SpendType, amount float64) *domain.FinanceRequest {
	return &domain.FinanceRequest{
		RequestID:     id,
		Directorate:   "Adults' Care & Support",
		ServiceName:   "Adult Social Care",
		TypeOfSpend:   spend,
		AmountExclVAT: domain.Money{Amount: amount, Currency: "GBP"},
	}
}

func evaluated(req *domain.FinanceRequest) *domain.PolicyDecision {
	decision := policy.Evaluate(*req, policy.Default())
	return &decision
}

func TestManagerOnlyApprovalFlow(t *testing.T) {
	notifier := &fakeNotifier{}
	svc := newTestService(notifier)
	ctx := context.Background()

	req := financeRequest("ESAF-2026-0001", domain.SpendServices, 10000)
	decision := evaluated(req)
	require.Equal(t, domain.PathManagerOnly, decision.RequiredApprovalPath)

	record, err := svc.RecordPolicyResult(ctx, req.RequestID, req, decision)
	require.NoError(t, err)
	assert.Equal(t, domain.StateAwaitingManager, record.CurrentState)
	assert.Equal(t, []domain.ApproverRole{domain.RoleManager}, notifier.rolesFor(req.RequestID))

	record, err = svc.RecordApproverDecision(ctx, req.RequestID, domain.RoleManager, domain.OutcomeApproved, "")
	require.NoError(t, err)
	assert.Equal(t, domain.StateApproved, record.CurrentState)
	assert.True(t, record.CurrentState.Terminal())

	// The director is never involved on a manager-only path.
	assert.Equal(t, []domain.ApproverRole{domain.RoleManager}, notifier.rolesFor(req.RequestID))
}

func TestManagerAndDirectorApprovalFlow(t *testing.T) {
	notifier := &fakeNotifier{}
	svc := newTestService(notifier)
	ctx := context.Background()

	req := financeRequest("ESAF-2026-0002", domain.SpendServices, 30000)
	decision := evaluated(req)
	require.Equal(t, domain.PathManagerAndDirector, decision.RequiredApprovalPath)

	record, err := svc.RecordPolicyResult(ctx, req.RequestID, req, decision)
	require.NoError(t, err)
	assert.Equal(t, domain.StateAwaitingManager, record.CurrentState)
	assert.Equal(t, []domain.ApproverRole{domain.RoleManager}, notifier.rolesFor(req.RequestID))

	record, err = svc.RecordApproverDecision(ctx, req.RequestID, domain.RoleManager, domain.OutcomeApproved, "")
	require.NoError(t, err)
	assert.Equal(t, domain.StateAwaitingDirector, record.CurrentState)
	assert.Equal(t, []domain.ApproverRole{domain.RoleManager, domain.RoleDirector}, notifier.rolesFor(req.RequestID))

	record, err = svc.RecordApproverDecision(ctx, req.RequestID, domain.RoleDirector, domain.OutcomeApproved, "")
	require.NoError(t, err)
	assert.Equal(t, domain.StateApproved, record.CurrentState)

	// Exactly one notification per role, ever.
	assert.Len(t, notifier.rolesFor(req.RequestID), 2)
}

func TestManagerRejectionShortCircuitsDirector(t *testing.T) {
	notifier := &fakeNotifier{}
	svc := newTestService(notifier)
	ctx := context.Background()

	req := financeRequest("ESAF-2026-0003", domain.SpendConsultancy, 50000)
	_, err := svc.RecordPolicyResult(ctx, req.RequestID, req, evaluated(req))
	require.NoError(t, err)

	record, err := svc.RecordApproverDecision(ctx, req.RequestID, domain.RoleManager, domain.OutcomeRejected, "over budget")
	require.NoError(t, err)
	assert.Equal(t, domain.StateRejected, record.CurrentState)
	assert.Equal(t, []domain.ApproverRole{domain.RoleManager}, notifier.rolesFor(req.RequestID))
}

func TestAutoRejectedNeverNotifies(t *testing.T) {
	notifier := &fakeNotifier{}
	svc := newTestService(notifier)
	ctx := context.Background()

	req := financeRequest("ESAF-2026-0004", domain.SpendTravel, 5000)
	decision := evaluated(req)
	require.Equal(t, domain.PathNone, decision.RequiredApprovalPath)

	record, err := svc.RecordPolicyResult(ctx, req.RequestID, req, decision)
	require.NoError(t, err)
	assert.Equal(t, domain.StateAutoRejected, record.CurrentState)
	assert.Empty(t, notifier.calls)
	assert.Empty(t, record.NotifiedApproverRoles)
}

func TestRepeatedPolicyResultNotifiesManagerOnce(t *testing.T) {
	notifier := &fakeNotifier{}
	svc := newTestService(notifier)
	ctx := context.Background()

	req := financeRequest("ESAF-2026-0005", domain.SpendGoods, 12000)
	decision := evaluated(req)

	for i := 0; i < 3; i++ {
		_, err := svc.RecordPolicyResult(ctx, req.RequestID, req, decision)
		require.NoError(t, err)
	}

	assert.Equal(t, []domain.ApproverRole{domain.RoleManager}, notifier.rolesFor(req.RequestID))
}

func TestDirectorDecisionBeforeManagerIsOutOfOrder(t *testing.T) {
	notifier := &fakeNotifier{}
	svc := newTestService(notifier)
	ctx := context.Background()

	req := financeRequest("ESAF-2026-0006", domain.SpendServices, 30000)
	_, err := svc.RecordPolicyResult(ctx, req.RequestID, req, evaluated(req))
	require.NoError(t, err)

	_, err = svc.RecordApproverDecision(ctx, req.RequestID, domain.RoleDirector, domain.OutcomeApproved, "")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeOutOfOrder, apperrors.Code(err))

	// The rejected decision left the record untouched.
	_, record, qerr := svc.QueryStatus(ctx, req.RequestID, domain.AudienceApprover)
	require.NoError(t, qerr)
	assert.Equal(t, domain.StateAwaitingManager, record.CurrentState)
}

func TestDecisionOnTerminalStateIsOutOfOrder(t *testing.T) {
	notifier := &fakeNotifier{}
	svc := newTestService(notifier)
	ctx := context.Background()

	req := financeRequest("ESAF-2026-0007", domain.SpendServices, 100)
	_, err := svc.RecordPolicyResult(ctx, req.RequestID, req, evaluated(req))
	require.NoError(t, err)
	_, err = svc.RecordApproverDecision(ctx, req.RequestID, domain.RoleManager, domain.OutcomeApproved, "")
	require.NoError(t, err)

	_, err = svc.RecordApproverDecision(ctx, req.RequestID, domain.RoleManager, domain.OutcomeApproved, "")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeOutOfOrder, apperrors.Code(err))
}

func TestMoreInfoRequestedIsASideNote(t *testing.T) {
	notifier := &fakeNotifier{}
	svc := newTestService(notifier)
	ctx := context.Background()

	req := financeRequest("ESAF-2026-0008", domain.SpendServices, 8000)
	_, err := svc.RecordPolicyResult(ctx, req.RequestID, req, evaluated(req))
	require.NoError(t, err)

	record, err := svc.RecordApproverDecision(ctx, req.RequestID, domain.RoleManager,
		domain.OutcomeMoreInfoRequested, "please attach the contract")
	require.NoError(t, err)

	assert.Equal(t, domain.StateAwaitingManager, record.CurrentState)
	last := record.History[len(record.History)-1]
	assert.Equal(t, domain.StateAwaitingManager, last.State)
	assert.Contains(t, last.Note, "please attach the contract")
}

func TestUnknownRequestDecisionIsNotFound(t *testing.T) {
	svc := newTestService(&fakeNotifier{})

	_, err := svc.RecordApproverDecision(context.Background(), "ESAF-2026-9999",
		domain.RoleManager, domain.OutcomeApproved, "")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeNotFound, apperrors.Code(err))
}

func TestNotificationFailureKeepsStateAndAllowsRetry(t *testing.T) {
	notifier := &fakeNotifier{failWith: apperrors.Downstream(nil, "inbox unreachable")}
	svc := newTestService(notifier)
	ctx := context.Background()

	req := financeRequest("ESAF-2026-0009", domain.SpendServices, 9000)
	record, err := svc.RecordPolicyResult(ctx, req.RequestID, req, evaluated(req))

	// The state transition commits even though delivery failed.
	require.NoError(t, err)
	assert.Equal(t, domain.StateAwaitingManager, record.CurrentState)
	assert.False(t, record.RoleNotified(domain.RoleManager))

	// A later retry can still deliver and close the ledger.
	notifier.failWith = nil
	require.NoError(t, svc.RetryNotification(ctx, req.RequestID, domain.RoleManager))
	_, record, qerr := svc.QueryStatus(ctx, req.RequestID, domain.AudienceRequester)
	require.NoError(t, qerr)
	assert.True(t, record.RoleNotified(domain.RoleManager))
}

func TestQueryStatusReturnsAudienceSummary(t *testing.T) {
	svc := newTestService(&fakeNotifier{})
	ctx := context.Background()

	req := financeRequest("ESAF-2026-0010", domain.SpendServices, 10000)
	_, err := svc.RecordPolicyResult(ctx, req.RequestID, req, evaluated(req))
	require.NoError(t, err)

	requesterText, record, err := svc.QueryStatus(ctx, req.RequestID, domain.AudienceRequester)
	require.NoError(t, err)
	assert.Equal(t, record.SummaryForRequester, requesterText)
	assert.NotEmpty(t, requesterText)

	approverText, _, err := svc.QueryStatus(ctx, req.RequestID, domain.AudienceApprover)
	require.NoError(t, err)
	assert.Equal(t, record.SummaryForApprover, approverText)

	_, _, err = svc.QueryStatus(ctx, "ESAF-2026-8888", domain.AudienceRequester)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeNotFound, apperrors.Code(err))
}

func TestHistoryIsAppendOnlyAndConsistent(t *testing.T) {
	svc := newTestService(&fakeNotifier{})
	ctx := context.Background()

	req := financeRequest("ESAF-2026-0011", domain.SpendServices, 30000)
	_, err := svc.RecordPolicyResult(ctx, req.RequestID, req, evaluated(req))
	require.NoError(t, err)
	_, err = svc.RecordApproverDecision(ctx, req.RequestID, domain.RoleManager, domain.OutcomeApproved, "")
	require.NoError(t, err)
	record, err := svc.RecordApproverDecision(ctx, req.RequestID, domain.RoleDirector, domain.OutcomeApproved, "")
	require.NoError(t, err)

	states := make([]domain.StatusState, 0, len(record.History))
	for _, entry := range record.History {
		states = append(states, entry.State)
	}
	assert.Equal(t, []domain.StatusState{
		domain.StateSubmitted,
		domain.StatePolicyValidated,
		domain.StateAwaitingManager,
		domain.StateAwaitingDirector,
		domain.StateApproved,
	}, states)
	assert.Equal(t, record.History[len(record.History)-1].State, record.CurrentState)
}
