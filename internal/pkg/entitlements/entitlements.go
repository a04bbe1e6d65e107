package entitlements

import (
	"strings"

	"github.com/ikram-mever-codes/csb-backend/app/models"
)

type Plan string

const (
	PlanBasic   Plan = "basic"
	PlanAdvance Plan = "advance"

	// PlanStandard is a legacy alias still present on old subscription rows.
	// It carries basic-tier entitlements.
	PlanStandard Plan = "standard"
)

// Monthly rates in cents. Prices are always computed server-side from this
// table; a client-supplied price is never trusted.
const (
	BasicMonthlyRateCents   int64 = 3900
	AdvanceMonthlyRateCents int64 = 9900
)

// NormalizePlan maps raw plan strings to a known plan, folding the legacy
// "standard" tier into basic. Unknown plans map to empty.
func NormalizePlan(plan string) Plan {
	switch strings.ToLower(strings.TrimSpace(plan)) {
	case string(PlanBasic), string(PlanStandard):
		return PlanBasic
	case string(PlanAdvance):
		return PlanAdvance
	default:
		return ""
	}
}

// IsKnownPlan reports whether plan names a purchasable tier.
func IsKnownPlan(plan string) bool {
	return NormalizePlan(plan) != ""
}

// PlanRank orders plans for the downgrade policy.
func PlanRank(plan string) int {
	switch NormalizePlan(plan) {
	case PlanAdvance:
		return 2
	case PlanBasic:
		return 1
	default:
		return 0
	}
}

// Price returns the total charge in cents for a plan over the given number
// of months.
func Price(plan string, months int) int64 {
	if months < 1 {
		months = 1
	}
	switch NormalizePlan(plan) {
	case PlanBasic:
		return BasicMonthlyRateCents * int64(months)
	case PlanAdvance:
		return AdvanceMonthlyRateCents * int64(months)
	default:
		return 0
	}
}

// TokenQuota returns the maximum number of API tokens a plan may hold.
func TokenQuota(plan string) int {
	switch NormalizePlan(plan) {
	case PlanAdvance:
		return 3
	case PlanBasic:
		return 2
	default:
		return 0
	}
}

// AllowsTokenType reports whether the plan may issue tokens of the given
// type. WordPress automation is an advance-tier feature.
func AllowsTokenType(plan, tokenType string) bool {
	if tokenType == models.TOKEN_TYPE_WORDPRESS {
		return NormalizePlan(plan) == PlanAdvance
	}
	return true
}
