package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pesio-ai/be-esaf-workflow/internal/apperrors"
	"github.com/pesio-ai/be-esaf-workflow/internal/domain"
)

func validRequest() *domain.FinanceRequest {
	return &domain.FinanceRequest{
		RequestID:     "ESAF-2026-0001",
		TypeOfSpend:   domain.SpendServices,
		AmountExclVAT: domain.Money{Amount: 100, Currency: "GBP"},
	}
}

func TestValidatePerIntent(t *testing.T) {
	record := domain.StatusRecord{RequestID: "ESAF-2026-0001"}

	valid := []Envelope{
		{Intent: IntentSubmitRequest, FinanceRequest: validRequest()},
		{Intent: IntentEvaluatePolicy, RequestID: "ESAF-2026-0001", FinanceRequest: validRequest()},
		{Intent: IntentPolicyResult, RequestID: "ESAF-2026-0001", FinanceRequest: validRequest(),
			PolicyDecision: &domain.PolicyDecision{}},
		{Intent: IntentApproverDecision, RequestID: "ESAF-2026-0001",
			Role: domain.RoleManager, Outcome: domain.OutcomeApproved},
		{Intent: IntentStatusQuery, RequestID: "ESAF-2026-0001", Audience: domain.AudienceRequester},
		{Intent: IntentNotifyApprovalRequired, RequestID: "ESAF-2026-0001",
			Role: domain.RoleDirector, StatusRecord: &record},
		{Intent: IntentListPending, Role: domain.RoleManager},
		{Intent: IntentSubmitDecision, RequestID: "ESAF-2026-0001",
			Role: domain.RoleManager, Outcome: domain.OutcomeRejected},
	}
	for _, env := range valid {
		assert.NoError(t, env.Validate(), "intent %s", env.Intent)
	}

	invalid := []Envelope{
		{Intent: IntentSubmitRequest},
		{Intent: IntentSubmitRequest, FinanceRequest: &domain.FinanceRequest{TypeOfSpend: domain.SpendGoods}},
		{Intent: IntentEvaluatePolicy, FinanceRequest: validRequest()},
		{Intent: IntentPolicyResult, RequestID: "ESAF-2026-0001", FinanceRequest: validRequest()},
		{Intent: IntentApproverDecision, RequestID: "ESAF-2026-0001", Role: "cfo", Outcome: domain.OutcomeApproved},
		{Intent: IntentApproverDecision, RequestID: "ESAF-2026-0001", Role: domain.RoleManager, Outcome: "maybe"},
		{Intent: IntentStatusQuery, RequestID: "ESAF-2026-0001"},
		{Intent: IntentNotifyApprovalRequired, RequestID: "ESAF-2026-0001", Role: domain.RoleManager},
		{Intent: IntentListPending},
		{Intent: IntentSubmitDecision, Role: domain.RoleManager, Outcome: domain.OutcomeApproved},
	}
	for _, env := range invalid {
		err := env.Validate()
		require.Error(t, err, "intent %s", env.Intent)
		assert.Equal(t, apperrors.CodeValidation, apperrors.Code(err))
	}
}

func TestValidateRejectsUnknownIntent(t *testing.T) {
	env := Envelope{Intent: "escalate_to_cfo"}
	err := env.Validate()
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeValidation, apperrors.Code(err))
	assert.Contains(t, err.Error(), "escalate_to_cfo")
}

func TestNormaliseResolvesLegacyAlias(t *testing.T) {
	env := Envelope{Intent: "policy_decided"}
	env.Normalise()
	assert.Equal(t, IntentPolicyResult, env.Intent)

	// Other intents are untouched.
	env = Envelope{Intent: IntentStatusQuery}
	env.Normalise()
	assert.Equal(t, IntentStatusQuery, env.Intent)
}
