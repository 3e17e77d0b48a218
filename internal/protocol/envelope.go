// Package protocol implements the correlation-addressed message exchange
// used between the workflow services: a tagged envelope carried on a
// blocking send call, with per-destination capability discovery.
package protocol

import (
	"fmt"

	"github.com/pesio-ai/be-esaf-workflow/internal/apperrors"
	"github.com/pesio-ai/be-esaf-workflow/internal/domain"
)

// Intent selects the operation an envelope addresses. The set is closed:
// unrecognised intents are rejected as validation errors, never ignored.
type Intent string

const (
	IntentSubmitRequest          Intent = "submit_request"
	IntentEvaluatePolicy         Intent = "evaluate_policy"
	IntentPolicyResult           Intent = "policy_result"
	IntentApproverDecision       Intent = "approver_decision"
	IntentStatusQuery            Intent = "status_query"
	IntentNotifyApprovalRequired Intent = "notify_approval_required"
	IntentListPending            Intent = "list_pending"
	IntentSubmitDecision         Intent = "submit_decision"

	// intentPolicyDecided is a legacy alias accepted on decode.
	intentPolicyDecided Intent = "policy_decided"
)

// Envelope is the metadata attached to every cross-service message.
// Each intent enumerates exactly the fields it requires; Validate enforces
// that before any handler state is touched.
type Envelope struct {
	Intent             Intent                 `json:"intent"`
	RequestID          string                 `json:"requestId,omitempty"`
	Role               domain.ApproverRole    `json:"role,omitempty"`
	Audience           domain.Audience        `json:"audience,omitempty"`
	Outcome            domain.DecisionOutcome `json:"outcome,omitempty"`
	Comment            string                 `json:"comment,omitempty"`
	SummaryForApprover string                 `json:"summaryForApprover,omitempty"`
	FinanceRequest     *domain.FinanceRequest `json:"financeRequest,omitempty"`
	PolicyDecision     *domain.PolicyDecision `json:"policyDecision,omitempty"`
	StatusRecord       *domain.StatusRecord   `json:"statusRecord,omitempty"`
}

// Normalise resolves legacy intent aliases in place.
func (e *Envelope) Normalise() {
	if e.Intent == intentPolicyDecided {
		e.Intent = IntentPolicyResult
	}
}

// Validate checks that the envelope carries every field its declared intent
// requires. It returns a validation_error before any state mutation occurs.
func (e *Envelope) Validate() error {
	switch e.Intent {
	case IntentSubmitRequest:
		if e.FinanceRequest == nil {
			return missing(e.Intent, "financeRequest")
		}
		if e.FinanceRequest.TypeOfSpend == "" {
			return missing(e.Intent, "financeRequest.typeOfSpend")
		}
		if e.FinanceRequest.AmountExclVAT.Currency == "" {
			return missing(e.Intent, "financeRequest.amountExclVAT")
		}

	case IntentEvaluatePolicy:
		if e.RequestID == "" {
			return missing(e.Intent, "requestId")
		}
		if e.FinanceRequest == nil {
			return missing(e.Intent, "financeRequest")
		}
		if e.FinanceRequest.TypeOfSpend == "" {
			return missing(e.Intent, "financeRequest.typeOfSpend")
		}
		if e.FinanceRequest.AmountExclVAT.Currency == "" {
			return missing(e.Intent, "financeRequest.amountExclVAT")
		}

	case IntentPolicyResult:
		if e.RequestID == "" {
			return missing(e.Intent, "requestId")
		}
		if e.FinanceRequest == nil {
			return missing(e.Intent, "financeRequest")
		}
		if e.PolicyDecision == nil {
			return missing(e.Intent, "policyDecision")
		}

	case IntentApproverDecision:
		if e.RequestID == "" {
			return missing(e.Intent, "requestId")
		}
		if !e.Role.Valid() {
			return missing(e.Intent, "role")
		}
		if !e.Outcome.Valid() {
			return missing(e.Intent, "outcome")
		}

	case IntentStatusQuery:
		if e.RequestID == "" {
			return missing(e.Intent, "requestId")
		}
		if !e.Audience.Valid() {
			return missing(e.Intent, "audience")
		}

	case IntentNotifyApprovalRequired:
		if e.RequestID == "" {
			return missing(e.Intent, "requestId")
		}
		if !e.Role.Valid() {
			return missing(e.Intent, "role")
		}
		if e.StatusRecord == nil {
			return missing(e.Intent, "statusRecord")
		}

	case IntentListPending:
		if !e.Role.Valid() {
			return missing(e.Intent, "role")
		}

	case IntentSubmitDecision:
		if e.RequestID == "" {
			return missing(e.Intent, "requestId")
		}
		if !e.Role.Valid() {
			return missing(e.Intent, "role")
		}
		if !e.Outcome.Valid() {
			return missing(e.Intent, "outcome")
		}

	default:
		return apperrors.New(apperrors.CodeValidation,
			fmt.Sprintf("unrecognised intent '%s'", e.Intent))
	}

	return nil
}

func missing(intent Intent, field string) error {
	return apperrors.New(apperrors.CodeValidation,
		fmt.Sprintf("intent '%s' requires field '%s'", intent, field))
}
