package domain

// ── Shared finance domain types ───────────────────────────────────────────────

// Money is a monetary value exclusive of VAT.
type Money struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// SpendType categorises what the request pays for.
type SpendType string

const (
	SpendGoods       SpendType = "goods"
	SpendServices    SpendType = "services"
	SpendConsultancy SpendType = "consultancy"
	SpendTravel      SpendType = "travel"
	SpendGrants      SpendType = "grants"
	SpendOther       SpendType = "other"
)

// ApproverRole identifies who must act on a request.
type ApproverRole string

const (
	RoleManager  ApproverRole = "manager"
	RoleDirector ApproverRole = "director"
)

// Valid reports whether the role is one of the known approver roles.
func (r ApproverRole) Valid() bool {
	return r == RoleManager || r == RoleDirector
}

// ApprovalPath is the set of roles required to approve a request,
// derived once by policy evaluation.
type ApprovalPath string

const (
	PathNone               ApprovalPath = "none"
	PathManagerOnly        ApprovalPath = "manager_only"
	PathManagerAndDirector ApprovalPath = "manager_and_director"
)

// DecisionState is the outcome of a policy evaluation.
type DecisionState string

const (
	DecisionAutoRejected            DecisionState = "auto_rejected"
	DecisionNeedsManager            DecisionState = "needs_manager_approval"
	DecisionNeedsManagerAndDirector DecisionState = "needs_manager_and_director_approval"
)

// DecisionOutcome is what an approver submits for a pending request.
type DecisionOutcome string

const (
	OutcomeApproved          DecisionOutcome = "approved"
	OutcomeRejected          DecisionOutcome = "rejected"
	OutcomeMoreInfoRequested DecisionOutcome = "more_info_requested"
)

// Valid reports whether the outcome is one of the known decision outcomes.
func (o DecisionOutcome) Valid() bool {
	return o == OutcomeApproved || o == OutcomeRejected || o == OutcomeMoreInfoRequested
}

// Audience is the viewpoint a status summary is generated for.
type Audience string

const (
	AudienceRequester Audience = "requester"
	AudienceApprover  Audience = "approver"
)

// Valid reports whether the audience is one of the known audiences.
func (a Audience) Valid() bool {
	return a == AudienceRequester || a == AudienceApprover
}

// FinanceRequest is an Essential Spend Authorisation (ESAF) request.
// It is immutable once intake has completed and assigned the request ID.
type FinanceRequest struct {
	RequestID               string    `json:"requestId"`
	Directorate             string    `json:"directorate"`
	ServiceName             string    `json:"serviceName"`
	CostCentreCode          string    `json:"costCentreCode"`
	TypeOfSpend             SpendType `json:"typeOfSpend"`
	AmountExclVAT           Money     `json:"amountExclVAT"`
	RingFencedFunding       string    `json:"ringFencedFunding"`
	IsBusinessCritical      string    `json:"isBusinessCritical"`
	IsStatutory             string    `json:"isStatutory"`
	CanBeDeferred           string    `json:"canBeDeferred"`
	HasContractInPlace      string    `json:"hasContractInPlace"`
	DescriptionOfSpend      string    `json:"descriptionOfSpend"`
	Justification           string    `json:"justification"`
	HeadOfFinance           string    `json:"headOfFinance"`
	ExecutiveTeamOrDelegate string    `json:"executiveTeamOrDelegate"`
}

// Reason explains one element of a policy decision.
type Reason struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// PolicyDecision is the pure derived result of evaluating a FinanceRequest
// against the policy configuration. Never mutated after computation, only
// superseded by a fresh evaluation.
type PolicyDecision struct {
	DecisionState        DecisionState `json:"decisionState"`
	RequiredApprovalPath ApprovalPath  `json:"requiredApprovalPath"`
	Reasons              []Reason      `json:"reasons"`
}
