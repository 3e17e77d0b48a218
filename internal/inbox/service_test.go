package inbox

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pesio-ai/be-esaf-workflow/internal/apperrors"
	"github.com/pesio-ai/be-esaf-workflow/internal/domain"
)

type fakeForwarder struct {
	failWith error
	returned *domain.StatusRecord
	calls    int
}

func (f *fakeForwarder) RecordApproverDecision(
	ctx context.Context,
	requestID string,
	role domain.ApproverRole,
	outcome domain.DecisionOutcome,
	comment string,
	statusSnapshot *domain.StatusRecord,
) (*domain.StatusRecord, error) {
	f.calls++
	if f.failWith != nil {
		return nil, f.failWith
	}
	if f.returned != nil {
		return f.returned, nil
	}
	record := domain.NewStatusRecord(requestID, "status", time.Now())
	record.Append(domain.StateApproved, "status", "", time.Now())
	return record, nil
}

func newTestInbox(forwarder DecisionForwarder) *Service {
	return NewService(NewStore(), forwarder, zerolog.Nop())
}

func notifyTestItem(s *Service, requestID string, role domain.ApproverRole) {
	record := domain.NewStatusRecord(requestID, "status", time.Now())
	record.Append(domain.StateAwaitingManager, "status", "", time.Now())
	s.Notify(context.Background(), requestID, role, "Summary for "+requestID, record,
		&domain.FinanceRequest{
			RequestID:     requestID,
			ServiceName:   "Adult Social Care",
			AmountExclVAT: domain.Money{Amount: 12500, Currency: "GBP"},
		}, nil)
}

func TestNotifyQueuesAndConfirms(t *testing.T) {
	s := newTestInbox(&fakeForwarder{})

	message := s.Notify(context.Background(), "ESAF-2026-0001", domain.RoleManager, "  ", nil, nil, nil)
	assert.Equal(t, "Queued ESAF-2026-0001 for manager approval.", message)

	items, _ := s.ListPending(domain.RoleManager)
	require.Len(t, items, 1)
	// Blank summary falls back to a generated line.
	assert.Equal(t, "Awaiting manager approval for ESAF-2026-0001.", items[0].SummaryForApprover)
}

func TestListPendingSummary(t *testing.T) {
	s := newTestInbox(&fakeForwarder{})

	_, text := s.ListPending(domain.RoleManager)
	assert.Equal(t, "You have no pending requests for manager approval.", text)

	notifyTestItem(s, "ESAF-2026-0001", domain.RoleManager)
	notifyTestItem(s, "ESAF-2026-0002", domain.RoleManager)

	items, text := s.ListPending(domain.RoleManager)
	require.Len(t, items, 2)
	lines := strings.Split(text, "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "You have 2 pending requests:", lines[0])
	assert.Contains(t, lines[1], "1. ESAF-2026-0001 - Adult Social Care - ")
	assert.Contains(t, lines[2], "2. ESAF-2026-0002 - ")
}

func TestSubmitDecisionRemovesItemOnApproval(t *testing.T) {
	forwarder := &fakeForwarder{}
	s := newTestInbox(forwarder)
	notifyTestItem(s, "ESAF-2026-0001", domain.RoleManager)

	record, message, err := s.SubmitDecision(context.Background(),
		"ESAF-2026-0001", domain.RoleManager, domain.OutcomeApproved, "")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, "Recorded manager approval for ESAF-2026-0001.", message)
	assert.Equal(t, 1, forwarder.calls)

	items, _ := s.ListPending(domain.RoleManager)
	assert.Empty(t, items)
}

func TestSubmitDecisionKeepsItemOnMoreInfo(t *testing.T) {
	refreshed := domain.NewStatusRecord("ESAF-2026-0001", "status", time.Now())
	refreshed.Append(domain.StateAwaitingManager, "status", "", time.Now())
	refreshed.AppendNote("status", "manager requested more information: missing contract", time.Now())
	s := newTestInbox(&fakeForwarder{returned: refreshed})
	notifyTestItem(s, "ESAF-2026-0001", domain.RoleManager)

	_, message, err := s.SubmitDecision(context.Background(),
		"ESAF-2026-0001", domain.RoleManager, domain.OutcomeMoreInfoRequested, "missing contract")
	require.NoError(t, err)
	assert.Equal(t, "Recorded manager request for more information on ESAF-2026-0001.", message)

	// The item stays queued, now carrying the refreshed snapshot.
	items, _ := s.ListPending(domain.RoleManager)
	require.Len(t, items, 1)
	last := items[0].StatusSnapshot.History[len(items[0].StatusSnapshot.History)-1]
	assert.Contains(t, last.Note, "missing contract")
}

func TestSubmitDecisionUnknownRequestIsNotFound(t *testing.T) {
	forwarder := &fakeForwarder{}
	s := newTestInbox(forwarder)

	_, _, err := s.SubmitDecision(context.Background(),
		"ESAF-2026-9999", domain.RoleManager, domain.OutcomeApproved, "")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeNotFound, apperrors.Code(err))
	// Nothing was forwarded for an unknown item.
	assert.Zero(t, forwarder.calls)
}

func TestSubmitDecisionLeavesQueueUntouchedOnForwardFailure(t *testing.T) {
	forwarder := &fakeForwarder{failWith: errors.New("connection refused")}
	s := newTestInbox(forwarder)
	notifyTestItem(s, "ESAF-2026-0001", domain.RoleManager)

	_, _, err := s.SubmitDecision(context.Background(),
		"ESAF-2026-0001", domain.RoleManager, domain.OutcomeApproved, "")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeDownstream, apperrors.Code(err))

	items, _ := s.ListPending(domain.RoleManager)
	require.Len(t, items, 1)
	assert.Equal(t, "ESAF-2026-0001", items[0].RequestID)

	// Once the orchestrator is reachable again the same decision goes through.
	forwarder.failWith = nil
	_, _, err = s.SubmitDecision(context.Background(),
		"ESAF-2026-0001", domain.RoleManager, domain.OutcomeApproved, "")
	require.NoError(t, err)
}

func TestRolesAreIsolated(t *testing.T) {
	s := newTestInbox(&fakeForwarder{})
	notifyTestItem(s, "ESAF-2026-0001", domain.RoleManager)

	_, _, err := s.SubmitDecision(context.Background(),
		"ESAF-2026-0001", domain.RoleDirector, domain.OutcomeApproved, "")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeNotFound, apperrors.Code(err))
}

func TestPendingSummaryTruncatesLongSummaries(t *testing.T) {
	s := newTestInbox(&fakeForwarder{})
	long := strings.Repeat("a", 200)
	s.Notify(context.Background(), "ESAF-2026-0001", domain.RoleManager, long, nil, nil, nil)

	_, text := s.ListPending(domain.RoleManager)
	lines := strings.Split(text, "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasSuffix(lines[1], "..."))
	assert.LessOrEqual(t, len(lines[1]), len("1. ESAF-2026-0001 - Unknown service - Amount not provided - ")+120)
}
