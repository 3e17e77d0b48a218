// Package policy derives the required approval path for a finance request.
package policy

import (
	"fmt"

	"github.com/pesio-ai/be-esaf-workflow/internal/domain"
)

// Config holds the evaluation thresholds. Amounts are exclusive of VAT.
type Config struct {
	// ManagerOnlyMax is the largest amount a manager can approve alone.
	ManagerOnlyMax float64
	// ManagerAndDirectorMin is the smallest amount that needs both roles.
	ManagerAndDirectorMin float64
	// DisallowedSpendTypes are never approvable regardless of amount.
	DisallowedSpendTypes []domain.SpendType
}

// Default returns the current ESAF policy thresholds.
func Default() Config {
	return Config{
		ManagerOnlyMax:        20000,
		ManagerAndDirectorMin: 20000.01,
		DisallowedSpendTypes:  []domain.SpendType{domain.SpendTravel},
	}
}

// Evaluate maps a finance request to a policy decision. It is pure: no side
// effects, and no failure modes for well-formed input — the caller validates
// that typeOfSpend and amountExclVAT are present before calling.
func Evaluate(req domain.FinanceRequest, cfg Config) domain.PolicyDecision {
	for _, disallowed := range cfg.DisallowedSpendTypes {
		if req.TypeOfSpend == disallowed {
			// Short-circuits: the amount is never consulted.
			return domain.PolicyDecision{
				DecisionState:        domain.DecisionAutoRejected,
				RequiredApprovalPath: domain.PathNone,
				Reasons: []domain.Reason{{
					Code:    "disallowed_spend_type",
					Message: fmt.Sprintf("Type of spend '%s' is not permitted under current policy.", req.TypeOfSpend),
				}},
			}
		}
	}

	amount := req.AmountExclVAT.Amount

	if amount <= cfg.ManagerOnlyMax {
		return domain.PolicyDecision{
			DecisionState:        domain.DecisionNeedsManager,
			RequiredApprovalPath: domain.PathManagerOnly,
			Reasons: []domain.Reason{{
				Code:    "within_manager_threshold",
				Message: fmt.Sprintf("Amount %.2f is within the manager-only approval threshold.", amount),
			}},
		}
	}

	if amount >= cfg.ManagerAndDirectorMin {
		return domain.PolicyDecision{
			DecisionState:        domain.DecisionNeedsManagerAndDirector,
			RequiredApprovalPath: domain.PathManagerAndDirector,
			Reasons: []domain.Reason{{
				Code:    "requires_manager_and_director",
				Message: fmt.Sprintf("Amount %.2f requires both manager and director approval.", amount),
			}},
		}
	}

	// Gap between thresholds. Correctly configured thresholds make this
	// unreachable; fall back to the safer single-approver path.
	return domain.PolicyDecision{
		DecisionState:        domain.DecisionNeedsManager,
		RequiredApprovalPath: domain.PathManagerOnly,
		Reasons: []domain.Reason{{
			Code:    "default_path",
			Message: "Fell back to manager approval by default.",
		}},
	}
}
